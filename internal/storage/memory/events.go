// Package memory holds process-local repositories for development and tests.
// Data is lost on restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hackbox-events/server/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

// EventRepository keeps events in insertion order and indexes problem
// statements and submissions by id to their parent event.
type EventRepository struct {
	mu     sync.RWMutex
	now    func() time.Time
	order  []string
	events map[string]*events.Event

	problemStatements map[string]string // problem statement id -> event id
	submissions       map[string]string // submission id -> event id
}

func NewEventRepository() *EventRepository {
	return &EventRepository{
		now:               time.Now,
		events:            map[string]*events.Event{},
		problemStatements: map[string]string{},
		submissions:       map[string]string{},
	}
}

func cloneEvent(e *events.Event) *events.Event {
	out := *e
	if e.Report != nil {
		report := *e.Report
		out.Report = &report
	}
	out.Photos = slices.Clone(e.Photos)
	out.ProblemStatements = slices.Clone(e.ProblemStatements)
	out.Submissions = slices.Clone(e.Submissions)
	return &out
}

func (r *EventRepository) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	e := &events.Event{
		ID:          params.ID,
		Name:        params.Name,
		Venue:       params.Venue,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Description: params.Description,
		Committee:   params.Committee,
		CreatedBy:   params.CreatedBy,
		Banner:      params.Banner,
		Order:       params.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.events[e.ID] = e
	r.order = append(r.order, e.ID)
	return cloneEvent(e), nil
}

func (r *EventRepository) GetByID(_ context.Context, id string) (*events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return cloneEvent(e), nil
}

// List returns matching events without their nested collections.
func (r *EventRepository) List(_ context.Context, filter events.ListFilter) ([]events.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]events.Event, 0, len(r.order))
	for _, id := range r.order {
		e := r.events[id]
		if filter.Approved != nil && e.IsApproved != *filter.Approved {
			continue
		}
		if filter.Published != nil && e.IsPublished != *filter.Published {
			continue
		}
		if filter.CommitteeID != "" && e.Committee.ID != filter.CommitteeID {
			continue
		}
		item := cloneEvent(e)
		item.ProblemStatements = nil
		item.Submissions = nil
		out = append(out, *item)
	}
	return out, nil
}

// update applies fn to the stored event under the write lock.
func (r *EventRepository) update(id string, fn func(*events.Event)) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	fn(e)
	e.UpdatedAt = r.now().UTC()
	return cloneEvent(e), nil
}

func (r *EventRepository) Approve(_ context.Context, id string) (*events.Event, error) {
	return r.update(id, func(e *events.Event) {
		e.IsApproved = true
		e.IsPublished = true
	})
}

func (r *EventRepository) SetPublished(_ context.Context, id string, published bool) (*events.Event, error) {
	return r.update(id, func(e *events.Event) { e.IsPublished = published })
}

func (r *EventRepository) TogglePublished(_ context.Context, id string) (*events.Event, error) {
	return r.update(id, func(e *events.Event) { e.IsPublished = !e.IsPublished })
}

func (r *EventRepository) SetReport(_ context.Context, id string, report events.Attachment) (*events.Event, error) {
	return r.update(id, func(e *events.Event) {
		e.Report = &report
		e.Status = true
	})
}

func (r *EventRepository) SetPhotos(_ context.Context, id string, photos []events.Attachment) (*events.Event, error) {
	return r.update(id, func(e *events.Event) {
		e.Photos = slices.Clone(photos)
		e.IsPhotoUploaded = true
	})
}

func (r *EventRepository) MarkCertificatesGenerated(_ context.Context, id string) (*events.Event, error) {
	return r.update(id, func(e *events.Event) { e.IsCertificateGenerated = true })
}

func (r *EventRepository) Delete(_ context.Context, id string) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	delete(r.events, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	for _, ps := range e.ProblemStatements {
		delete(r.problemStatements, ps.ID)
	}
	for _, sub := range e.Submissions {
		delete(r.submissions, sub.ID)
	}
	return e, nil
}

func (r *EventRepository) AddProblemStatement(_ context.Context, params events.ProblemStatementCreateParams) (*events.ProblemStatement, error) {
	var ps events.ProblemStatement
	_, err := r.update(params.EventID, func(e *events.Event) {
		ps = events.ProblemStatement{
			ID:          params.ID,
			EventID:     e.ID,
			Title:       params.Title,
			Description: params.Description,
			CreatedAt:   params.CreatedAt,
		}
		e.ProblemStatements = append(e.ProblemStatements, ps)
		r.problemStatements[ps.ID] = e.ID
	})
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

func (r *EventRepository) ListProblemStatements(_ context.Context, eventID string) ([]events.ProblemStatement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, events.ErrNotFound
	}
	out := slices.Clone(e.ProblemStatements)
	if out == nil {
		out = []events.ProblemStatement{}
	}
	return out, nil
}

func (r *EventRepository) GetProblemStatement(_ context.Context, id string) (*events.ProblemStatement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eventID, ok := r.problemStatements[id]
	if !ok {
		return nil, events.ErrProblemStatementNotFound
	}
	for _, ps := range r.events[eventID].ProblemStatements {
		if ps.ID == id {
			return &ps, nil
		}
	}
	return nil, events.ErrProblemStatementNotFound
}

func (r *EventRepository) AddSubmission(_ context.Context, params events.SubmissionCreateParams) (*events.Submission, error) {
	var sub events.Submission
	_, err := r.update(params.EventID, func(e *events.Event) {
		now := r.now().UTC()
		sub = events.Submission{
			ID:                 params.ID,
			EventID:            e.ID,
			ProblemStatementID: params.ProblemStatementID,
			Name:               params.Name,
			Email:              params.Email,
			RegistrationNumber: params.RegistrationNumber,
			SubmissionPath:     params.SubmissionPath,
			Status:             events.StatusPending,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		e.Submissions = append(e.Submissions, sub)
		r.submissions[sub.ID] = e.ID
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *EventRepository) ListSubmissions(_ context.Context, eventID, problemStatementID string) ([]events.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[eventID]
	if !ok {
		return nil, events.ErrNotFound
	}
	out := []events.Submission{}
	for _, sub := range e.Submissions {
		if sub.ProblemStatementID == problemStatementID {
			out = append(out, sub)
		}
	}
	return out, nil
}

// submission returns a pointer into the stored event; callers hold mu.
func (r *EventRepository) submission(eventID, submissionID string) (*events.Event, *events.Submission, error) {
	e, ok := r.events[eventID]
	if !ok {
		return nil, nil, events.ErrNotFound
	}
	for i := range e.Submissions {
		if e.Submissions[i].ID == submissionID {
			return e, &e.Submissions[i], nil
		}
	}
	return nil, nil, events.ErrSubmissionNotFound
}

func (r *EventRepository) SetSubmissionStatus(_ context.Context, eventID, submissionID string, status events.SubmissionStatus) (*events.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, sub, err := r.submission(eventID, submissionID)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	sub.Status = status
	sub.UpdatedAt = now
	e.UpdatedAt = now
	out := *sub
	return &out, nil
}

func (r *EventRepository) UpdateSubmissionPath(_ context.Context, submissionID, path string) (*events.Submission, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	eventID, ok := r.submissions[submissionID]
	if !ok {
		return nil, "", events.ErrSubmissionNotFound
	}
	e, sub, err := r.submission(eventID, submissionID)
	if err != nil {
		return nil, "", err
	}
	previous := sub.SubmissionPath
	now := r.now().UTC()
	sub.SubmissionPath = path
	sub.UpdatedAt = now
	e.UpdatedAt = now
	out := *sub
	return &out, previous, nil
}

func (r *EventRepository) ListAllSubmissions(_ context.Context) ([]events.SubmissionWithEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []events.SubmissionWithEvent{}
	for _, id := range r.order {
		e := r.events[id]
		for _, sub := range e.Submissions {
			out = append(out, events.SubmissionWithEvent{Submission: sub, EventName: e.Name})
		}
	}
	return out, nil
}
