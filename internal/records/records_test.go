package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"attendhub/internal/docstore"
	"attendhub/internal/model"
)

func newTestFacade(t *testing.T, handler http.HandlerFunc) (*Facade, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	return New(docstore.New(srv.URL, "test", "")), srv.Close
}

func TestListStudentsNormalizesReferenceShapes(t *testing.T) {
	f, done := newTestFacade(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/collections/students/documents" {
			http.NotFound(w, r)
			return
		}
		// One nested course document, one bare id string.
		_, _ = w.Write([]byte(`{"total":2,"documents":[
			{"id":"s1","name":"Jane","course":{"id":"c1","name":"BCA"},"semester":1},
			{"id":"s2","name":"Raj","course":"c1","semester":2}
		]}`))
	})
	defer done()

	students, err := f.ListStudents(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}
	for _, s := range students {
		if s.Course.String() != "c1" {
			t.Fatalf("expected course ref c1 for %s, got %q", s.ID, s.Course)
		}
	}
}

func TestLoadAllFailsWhole(t *testing.T) {
	f, done := newTestFacade(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/collections/attendance/documents" {
			http.Error(w, "store down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	defer done()

	snap, err := f.LoadAll(context.Background())
	if err == nil {
		t.Fatalf("expected joint load to fail")
	}
	if snap != nil {
		t.Fatalf("expected no partial snapshot, got %+v", snap)
	}
}

func TestLoadAllReturnsAllCollections(t *testing.T) {
	f, done := newTestFacade(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/collections/students/documents":
			_, _ = w.Write([]byte(`[{"id":"s1","name":"Jane","course":"c1"}]`))
		case "/v1/collections/courses/documents":
			_, _ = w.Write([]byte(`[{"id":"c1","name":"BCA","duration":36,"status":"Active"}]`))
		case "/v1/collections/attendance/documents":
			_, _ = w.Write([]byte(`[]`))
		case "/v1/collections/holidays/documents":
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	})
	defer done()

	snap, err := f.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(snap.Students) != 1 || len(snap.Courses) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Courses[0].Name != "BCA" {
		t.Fatalf("expected course BCA, got %s", snap.Courses[0].Name)
	}
}

func TestMostRecentLocation(t *testing.T) {
	if loc := MostRecentLocation(nil); loc != nil {
		t.Fatalf("expected nil for empty list")
	}
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	locations := []model.Location{
		{ID: "l1", CreatedAt: base},
		{ID: "l3", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "l2", CreatedAt: base.Add(time.Hour)},
	}
	loc := MostRecentLocation(locations)
	if loc == nil || loc.ID != "l3" {
		t.Fatalf("expected l3, got %+v", loc)
	}
}

func TestCreateStudentAssignsID(t *testing.T) {
	var gotID string
	f, done := newTestFacade(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			ID   string        `json:"id"`
			Data model.Student `json:"data"`
		}
		if err := jsonDecode(r, &payload); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		gotID = payload.ID
		payload.Data.ID = payload.ID
		writeJSON(w, payload.Data)
	})
	defer done()

	created, err := f.CreateStudent(context.Background(), model.Student{Name: "Jane", Course: "c1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if gotID == "" {
		t.Fatalf("expected client-assigned id")
	}
	if created.ID != gotID {
		t.Fatalf("expected created id %s, got %s", gotID, created.ID)
	}
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
