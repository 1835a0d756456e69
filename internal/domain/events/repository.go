package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound                 = errors.New("event not found")
	ErrProblemStatementNotFound = errors.New("problem statement not found")
	ErrSubmissionNotFound       = errors.New("submission not found")
)

// Ref is an (id, name) pair naming an owner: the committee that runs an event
// or the account that created it.
type Ref struct {
	ID   string
	Name string
}

// Attachment is a stored file as recorded on an event.
type Attachment struct {
	Name string
	Path string
}

type Event struct {
	ID          string
	Name        string
	Venue       string
	StartDate   string
	EndDate     string
	Description string
	Committee   Ref
	CreatedBy   Ref

	Banner Attachment
	Order  Attachment
	Report *Attachment
	Photos []Attachment

	IsPhotoUploaded        bool
	IsApproved             bool
	IsPublished            bool
	IsCertificateGenerated bool
	// Status is set once the post-event report has been uploaded.
	Status bool

	ProblemStatements []ProblemStatement
	Submissions       []Submission

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Files lists every stored file the event references.
func (e Event) Files() []string {
	paths := make([]string, 0, 3+len(e.Photos))
	for _, a := range []Attachment{e.Banner, e.Order} {
		if a.Path != "" {
			paths = append(paths, a.Path)
		}
	}
	if e.Report != nil && e.Report.Path != "" {
		paths = append(paths, e.Report.Path)
	}
	for _, p := range e.Photos {
		if p.Path != "" {
			paths = append(paths, p.Path)
		}
	}
	return paths
}

type ProblemStatement struct {
	ID          string
	EventID     string
	Title       string
	Description string
	CreatedAt   time.Time
}

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "Pending"
	StatusApproved SubmissionStatus = "Approved"
	StatusRejected SubmissionStatus = "Rejected"
)

// ParseSubmissionStatus accepts the three evaluation outcomes, case-insensitively.
func ParseSubmissionStatus(value string) (SubmissionStatus, error) {
	for _, s := range []SubmissionStatus{StatusPending, StatusApproved, StatusRejected} {
		if strings.EqualFold(strings.TrimSpace(value), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown submission status %q", value)
}

type Submission struct {
	ID                 string
	EventID            string
	ProblemStatementID string
	Name               string
	Email              string
	RegistrationNumber string
	SubmissionPath     string
	Status             SubmissionStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SubmissionWithEvent is a submission annotated with its parent event.
type SubmissionWithEvent struct {
	Submission
	EventName string
}

type CreateParams struct {
	ID          string
	Name        string
	Venue       string
	StartDate   string
	EndDate     string
	Description string
	Committee   Ref
	CreatedBy   Ref
	Banner      Attachment
	Order       Attachment
}

type ProblemStatementCreateParams struct {
	ID          string
	EventID     string
	Title       string
	Description string
	CreatedAt   time.Time
}

type SubmissionCreateParams struct {
	ID                 string
	EventID            string
	ProblemStatementID string
	Name               string
	Email              string
	RegistrationNumber string
	SubmissionPath     string
}

// ListFilter narrows event listings; nil flags match any value.
type ListFilter struct {
	Approved    *bool
	Published   *bool
	CommitteeID string
}

// Repository persists events and their nested problem statements and
// submissions. Single-event updates are atomic and return the updated event;
// ErrNotFound is returned when the id does not resolve.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter ListFilter) ([]Event, error)

	Approve(ctx context.Context, id string) (*Event, error)
	SetPublished(ctx context.Context, id string, published bool) (*Event, error)
	TogglePublished(ctx context.Context, id string) (*Event, error)
	SetReport(ctx context.Context, id string, report Attachment) (*Event, error)
	SetPhotos(ctx context.Context, id string, photos []Attachment) (*Event, error)
	MarkCertificatesGenerated(ctx context.Context, id string) (*Event, error)
	// Delete removes the event and returns the record as it was.
	Delete(ctx context.Context, id string) (*Event, error)

	AddProblemStatement(ctx context.Context, params ProblemStatementCreateParams) (*ProblemStatement, error)
	ListProblemStatements(ctx context.Context, eventID string) ([]ProblemStatement, error)
	GetProblemStatement(ctx context.Context, id string) (*ProblemStatement, error)

	AddSubmission(ctx context.Context, params SubmissionCreateParams) (*Submission, error)
	ListSubmissions(ctx context.Context, eventID, problemStatementID string) ([]Submission, error)
	SetSubmissionStatus(ctx context.Context, eventID, submissionID string, status SubmissionStatus) (*Submission, error)
	// UpdateSubmissionPath swaps the stored file of a submission and returns
	// the path it replaced.
	UpdateSubmissionPath(ctx context.Context, submissionID, path string) (*Submission, string, error)
	ListAllSubmissions(ctx context.Context) ([]SubmissionWithEvent, error)
}
