package handlers

import (
	"time"

	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/domain/events"
	"github.com/hackbox-events/server/internal/domain/registrations"
)

type refDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type attachmentDTO struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type eventDTO struct {
	ID                     string                `json:"id"`
	Name                   string                `json:"name"`
	Venue                  string                `json:"venue"`
	StartDate              string                `json:"startDate"`
	EndDate                string                `json:"endDate"`
	Description            string                `json:"description"`
	Committee              refDTO                `json:"committee"`
	CreatedBy              refDTO                `json:"createdBy"`
	Banner                 attachmentDTO         `json:"banner"`
	Order                  attachmentDTO         `json:"order"`
	Report                 *attachmentDTO        `json:"report,omitempty"`
	Photos                 []attachmentDTO       `json:"photos"`
	IsPhotoUploaded        bool                  `json:"isPhotoUploaded"`
	IsApproved             bool                  `json:"isApproved"`
	IsPublished            bool                  `json:"isPublished"`
	IsCertificateGenerated bool                  `json:"isCertificateGenerated"`
	Status                 bool                  `json:"status"`
	ProblemStatements      []problemStatementDTO `json:"problemStatements"`
	Submissions            []submissionDTO       `json:"submissions"`
	CreatedAt              time.Time             `json:"createdAt"`
	UpdatedAt              time.Time             `json:"updatedAt"`
}

func toEventDTO(e *events.Event) eventDTO {
	out := eventDTO{
		ID:                     e.ID,
		Name:                   e.Name,
		Venue:                  e.Venue,
		StartDate:              e.StartDate,
		EndDate:                e.EndDate,
		Description:            e.Description,
		Committee:              refDTO{ID: e.Committee.ID, Name: e.Committee.Name},
		CreatedBy:              refDTO{ID: e.CreatedBy.ID, Name: e.CreatedBy.Name},
		Banner:                 attachmentDTO(e.Banner),
		Order:                  attachmentDTO(e.Order),
		Photos:                 make([]attachmentDTO, 0, len(e.Photos)),
		IsPhotoUploaded:        e.IsPhotoUploaded,
		IsApproved:             e.IsApproved,
		IsPublished:            e.IsPublished,
		IsCertificateGenerated: e.IsCertificateGenerated,
		Status:                 e.Status,
		ProblemStatements:      make([]problemStatementDTO, 0, len(e.ProblemStatements)),
		Submissions:            make([]submissionDTO, 0, len(e.Submissions)),
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
	if e.Report != nil {
		report := attachmentDTO(*e.Report)
		out.Report = &report
	}
	for _, p := range e.Photos {
		out.Photos = append(out.Photos, attachmentDTO(p))
	}
	for i := range e.ProblemStatements {
		out.ProblemStatements = append(out.ProblemStatements, toProblemStatementDTO(&e.ProblemStatements[i]))
	}
	for i := range e.Submissions {
		out.Submissions = append(out.Submissions, toSubmissionDTO(&e.Submissions[i]))
	}
	return out
}

func toEventDTOs(list []events.Event) []eventDTO {
	out := make([]eventDTO, 0, len(list))
	for i := range list {
		out = append(out, toEventDTO(&list[i]))
	}
	return out
}

type problemStatementDTO struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toProblemStatementDTO(ps *events.ProblemStatement) problemStatementDTO {
	return problemStatementDTO{
		ID:          ps.ID,
		EventID:     ps.EventID,
		Title:       ps.Title,
		Description: ps.Description,
		CreatedAt:   ps.CreatedAt,
	}
}

type submissionDTO struct {
	ID                 string    `json:"id"`
	EventID            string    `json:"eventId"`
	EventName          string    `json:"eventName,omitempty"`
	ProblemStatementID string    `json:"problemStatementId"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	RegistrationNumber string    `json:"registrationNumber"`
	SubmissionPath     string    `json:"submissionPath"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toSubmissionDTO(s *events.Submission) submissionDTO {
	return submissionDTO{
		ID:                 s.ID,
		EventID:            s.EventID,
		ProblemStatementID: s.ProblemStatementID,
		Name:               s.Name,
		Email:              s.Email,
		RegistrationNumber: s.RegistrationNumber,
		SubmissionPath:     s.SubmissionPath,
		Status:             string(s.Status),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

type certificateFailureDTO struct {
	RegistrationID string `json:"registrationId"`
	Name           string `json:"name"`
	Stage          string `json:"stage"`
	Error          string `json:"error"`
}

type certificateReportDTO struct {
	Registrants int                     `json:"registrants"`
	Generated   int                     `json:"generated"`
	Sent        int                     `json:"sent"`
	Skipped     int                     `json:"skipped"`
	Failures    []certificateFailureDTO `json:"failures"`
}

func toCertificateReportDTO(r *events.CertificateReport) certificateReportDTO {
	out := certificateReportDTO{
		Registrants: r.Registrants,
		Generated:   r.Generated,
		Sent:        r.Sent,
		Skipped:     r.Skipped,
		Failures:    make([]certificateFailureDTO, 0, len(r.Failures)),
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, certificateFailureDTO{
			RegistrationID: f.RegistrationID,
			Name:           f.Name,
			Stage:          f.Stage,
			Error:          f.Err.Error(),
		})
	}
	return out
}

type registrationDTO struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	MobileNo    string    `json:"mobileNo"`
	RegNo       string    `json:"regNo,omitempty"`
	Semester    string    `json:"semester,omitempty"`
	Course      string    `json:"course,omitempty"`
	Department  string    `json:"department,omitempty"`
	EmployeeID  string    `json:"employeeId,omitempty"`
	Designation string    `json:"designation,omitempty"`
	Event       refDTO    `json:"event"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toRegistrationDTO(r *registrations.Registration) registrationDTO {
	return registrationDTO{
		ID:          r.ID,
		Type:        string(r.Type),
		Name:        r.Name,
		Email:       r.Email,
		MobileNo:    r.MobileNo,
		RegNo:       r.RegNo,
		Semester:    r.Semester,
		Course:      r.Course,
		Department:  r.Department,
		EmployeeID:  r.EmployeeID,
		Designation: r.Designation,
		Event:       refDTO{ID: r.Event.ID, Name: r.Event.Name},
		CreatedAt:   r.CreatedAt,
	}
}

type accountDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Committee refDTO `json:"committee"`
}

func toAccountDTO(a *accounts.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Role:      string(a.Role),
		Committee: refDTO{ID: a.Committee.ID, Name: a.Committee.Name},
	}
}
