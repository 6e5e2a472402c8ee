// Package qrlink derives the check-in QR payload for each course. The
// payload is a function of {link status, latest location, now}; a single
// reducer recomputes it from state kept fresh by store change events and a
// periodic timestamp tick.
package qrlink

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"attendhub/internal/docstore"
	"attendhub/internal/model"
	"attendhub/internal/records"
)

// ErrUnknownCourse reports a payload request for a course the deriver has
// never seen.
var ErrUnknownCourse = errors.New("unknown course")

// Payload is the JSON object encoded into the QR code while a course link
// is active.
type Payload struct {
	CourseID string             `json:"courseId"`
	Semester int                `json:"semester"`
	DateTime string             `json:"dateTime"`
	Location *model.Coordinates `json:"location"`
}

// Derive is the reducer: empty string while the link is inactive,
// otherwise the encoded payload. Location is null when none exists.
func Derive(course *model.Course, semester int, location *model.Location, now time.Time) (string, error) {
	if course == nil || course.LinkStatus != model.StatusActive {
		return "", nil
	}
	payload := Payload{
		CourseID: course.ID,
		Semester: semester,
		DateTime: now.Format(time.RFC3339),
	}
	if location != nil {
		payload.Location = &model.Coordinates{
			Latitude:  location.Latitude,
			Longitude: location.Longitude,
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Deriver holds the course and location state the reducer reads. Events
// replace state by identifier, so duplicate or out-of-order delivery is
// harmless.
type Deriver struct {
	mu       sync.RWMutex
	courses  map[string]model.Course
	location *model.Location
	stamp    time.Time
	now      func() time.Time

	// reloadLocation resolves a location delete, where the event alone
	// cannot name the new most-recent location.
	reloadLocation func(ctx context.Context) (*model.Location, error)
}

// NewDeriver creates a deriver; now defaults to time.Now.
func NewDeriver(now func() time.Time) *Deriver {
	if now == nil {
		now = time.Now
	}
	return &Deriver{
		courses: make(map[string]model.Course),
		now:     now,
		stamp:   now(),
	}
}

// SetReloadLocation installs the refetch hook used on location deletes.
func (d *Deriver) SetReloadLocation(fn func(ctx context.Context) (*model.Location, error)) {
	d.reloadLocation = fn
}

// Seed installs the initial course list and current location.
func (d *Deriver) Seed(courses []model.Course, location *model.Location) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.courses = make(map[string]model.Course, len(courses))
	for _, c := range courses {
		d.courses[c.ID] = c
	}
	d.location = location
}

// Payload returns the current QR payload for a course and semester: empty
// exactly when the course's link status is inactive.
func (d *Deriver) Payload(courseID string, semester int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	course, ok := d.courses[courseID]
	if !ok {
		return "", ErrUnknownCourse
	}
	return Derive(&course, semester, d.location, d.stamp)
}

// CourseByName resolves a course by case-insensitive exact name match, the
// rule the public check-in route uses.
func (d *Deriver) CourseByName(name string) *model.Course {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.courses {
		if strings.EqualFold(c.Name, name) {
			course := c
			return &course
		}
	}
	return nil
}

// Run consumes change events and refreshes the payload timestamp until ctx
// is cancelled. The subscription channel and the ticker are released
// together with ctx; nothing dangles after shutdown.
func (d *Deriver) Run(ctx context.Context, events <-chan docstore.Event, refresh time.Duration) {
	if refresh <= 0 {
		refresh = 10 * time.Second
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			d.Apply(ctx, evt)
		case <-ticker.C:
			d.mu.Lock()
			d.stamp = d.now()
			d.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// Apply folds one change event into the deriver state.
func (d *Deriver) Apply(ctx context.Context, evt docstore.Event) {
	switch evt.Collection {
	case records.CollCourses:
		d.applyCourse(evt)
	case records.CollLocations:
		d.applyLocation(ctx, evt)
	}
}

func (d *Deriver) applyCourse(evt docstore.Event) {
	if strings.HasSuffix(evt.Event, ".delete") {
		var doc struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(evt.Document, &doc); err != nil || doc.ID == "" {
			return
		}
		d.mu.Lock()
		delete(d.courses, doc.ID)
		d.mu.Unlock()
		return
	}
	var course model.Course
	if err := json.Unmarshal(evt.Document, &course); err != nil || course.ID == "" {
		log.Printf("warning: bad course event payload: %v", err)
		return
	}
	d.mu.Lock()
	d.courses[course.ID] = course
	d.mu.Unlock()
}

func (d *Deriver) applyLocation(ctx context.Context, evt docstore.Event) {
	if strings.HasSuffix(evt.Event, ".delete") {
		if d.reloadLocation == nil {
			return
		}
		loc, err := d.reloadLocation(ctx)
		if err != nil {
			log.Printf("warning: location refetch failed: %v", err)
			return
		}
		d.mu.Lock()
		d.location = loc
		d.mu.Unlock()
		return
	}
	var loc model.Location
	if err := json.Unmarshal(evt.Document, &loc); err != nil || loc.ID == "" {
		log.Printf("warning: bad location event payload: %v", err)
		return
	}
	d.mu.Lock()
	if d.location == nil || d.location.ID == loc.ID || loc.CreatedAt.After(d.location.CreatedAt) {
		d.location = &loc
	}
	d.mu.Unlock()
}
