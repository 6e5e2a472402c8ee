// Package records is the typed data-access facade over the record store.
// It maps documents to model types and normalizes reference shapes; it
// holds no business logic.
package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"attendhub/internal/docstore"
	"attendhub/internal/model"
)

// Collection names as published by the record store.
const (
	CollStudents   = "students"
	CollCourses    = "courses"
	CollAttendance = "attendance"
	CollLocations  = "locations"
	CollHolidays   = "holidays"
)

// Facade wraps the store client with typed per-entity calls.
type Facade struct {
	store *docstore.Client
}

// New creates a facade.
func New(store *docstore.Client) *Facade {
	return &Facade{store: store}
}

// Snapshot is one joint fetch of everything the dashboard renders from.
type Snapshot struct {
	Students   []model.Student
	Courses    []model.Course
	Attendance []model.AttendanceRecord
	Holidays   []model.Holiday
}

// LoadAll fetches students, courses, attendance and holidays concurrently
// and awaits them jointly. Any single failure fails the whole load; no
// partial snapshot is returned.
func (f *Facade) LoadAll(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Students, err = f.ListStudents(ctx)
		return
	})
	g.Go(func() (err error) {
		snap.Courses, err = f.ListCourses(ctx)
		return
	})
	g.Go(func() (err error) {
		snap.Attendance, err = f.ListAttendance(ctx)
		return
	})
	g.Go(func() (err error) {
		snap.Holidays, err = f.ListHolidays(ctx)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListStudents returns all students.
func (f *Facade) ListStudents(ctx context.Context) ([]model.Student, error) {
	return list[model.Student](ctx, f, CollStudents)
}

// CreateStudent writes a student, assigning an id when absent.
func (f *Facade) CreateStudent(ctx context.Context, s model.Student) (model.Student, error) {
	return create(ctx, f, CollStudents, s.ID, s)
}

// UpdateStudent replaces a student's fields by id.
func (f *Facade) UpdateStudent(ctx context.Context, s model.Student) (model.Student, error) {
	return update(ctx, f, CollStudents, s.ID, s)
}

// DeleteStudent removes a student by id.
func (f *Facade) DeleteStudent(ctx context.Context, id string) error {
	return f.store.DeleteDocument(ctx, CollStudents, id)
}

// ListCourses returns all courses.
func (f *Facade) ListCourses(ctx context.Context) ([]model.Course, error) {
	return list[model.Course](ctx, f, CollCourses)
}

// CreateCourse writes a course, assigning an id when absent.
func (f *Facade) CreateCourse(ctx context.Context, c model.Course) (model.Course, error) {
	return create(ctx, f, CollCourses, c.ID, c)
}

// UpdateCourse replaces a course's fields by id.
func (f *Facade) UpdateCourse(ctx context.Context, c model.Course) (model.Course, error) {
	return update(ctx, f, CollCourses, c.ID, c)
}

// DeleteCourse removes a course by id.
func (f *Facade) DeleteCourse(ctx context.Context, id string) error {
	return f.store.DeleteDocument(ctx, CollCourses, id)
}

// ListAttendance returns all attendance records.
func (f *Facade) ListAttendance(ctx context.Context) ([]model.AttendanceRecord, error) {
	return list[model.AttendanceRecord](ctx, f, CollAttendance)
}

// CreateAttendance writes an attendance record, assigning an id when absent.
func (f *Facade) CreateAttendance(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	return create(ctx, f, CollAttendance, rec.ID, rec)
}

// UpdateAttendance replaces an attendance record's fields by id.
func (f *Facade) UpdateAttendance(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	return update(ctx, f, CollAttendance, rec.ID, rec)
}

// DeleteAttendance removes an attendance record by id.
func (f *Facade) DeleteAttendance(ctx context.Context, id string) error {
	return f.store.DeleteDocument(ctx, CollAttendance, id)
}

// ListLocations returns all locations.
func (f *Facade) ListLocations(ctx context.Context) ([]model.Location, error) {
	return list[model.Location](ctx, f, CollLocations)
}

// CreateLocation writes a location, assigning an id when absent.
func (f *Facade) CreateLocation(ctx context.Context, loc model.Location) (model.Location, error) {
	return create(ctx, f, CollLocations, loc.ID, loc)
}

// CurrentLocation returns the most recently created location, or nil when
// none exists.
func (f *Facade) CurrentLocation(ctx context.Context) (*model.Location, error) {
	locations, err := f.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	return MostRecentLocation(locations), nil
}

// MostRecentLocation picks the location with the latest creation time.
func MostRecentLocation(locations []model.Location) *model.Location {
	var current *model.Location
	for i := range locations {
		if current == nil || locations[i].CreatedAt.After(current.CreatedAt) {
			current = &locations[i]
		}
	}
	return current
}

// ListHolidays returns all holidays.
func (f *Facade) ListHolidays(ctx context.Context) ([]model.Holiday, error) {
	return list[model.Holiday](ctx, f, CollHolidays)
}

// CreateHoliday writes a holiday, assigning an id when absent.
func (f *Facade) CreateHoliday(ctx context.Context, h model.Holiday) (model.Holiday, error) {
	return create(ctx, f, CollHolidays, h.ID, h)
}

// DeleteHoliday removes a holiday by id.
func (f *Facade) DeleteHoliday(ctx context.Context, id string) error {
	return f.store.DeleteDocument(ctx, CollHolidays, id)
}

func list[T any](ctx context.Context, f *Facade, collection string) ([]T, error) {
	raw, err := f.store.ListDocuments(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, doc := range raw {
		var item T
		if err := json.Unmarshal(doc, &item); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", collection, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func create[T any](ctx context.Context, f *Facade, collection, id string, doc T) (T, error) {
	var out T
	if id == "" {
		id = uuid.NewString()
	}
	raw, err := f.store.CreateDocument(ctx, collection, id, doc)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode created %s document: %w", collection, err)
	}
	return out, nil
}

func update[T any](ctx context.Context, f *Facade, collection, id string, doc T) (T, error) {
	var out T
	raw, err := f.store.UpdateDocument(ctx, collection, id, doc)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode updated %s document: %w", collection, err)
	}
	return out, nil
}
