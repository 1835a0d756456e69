package handlers

import (
	"net/http"

	"github.com/hackbox-events/server/internal/api/middleware"
	"github.com/hackbox-events/server/internal/audit"
	"github.com/hackbox-events/server/internal/domain/events"
)

type problemStatementCreated struct {
	Message          string              `json:"message"`
	ProblemStatement problemStatementDTO `json:"problemStatement"`
}

type problemStatementList struct {
	ProblemStatements []problemStatementDTO `json:"problemStatements"`
}

func (h *EventsHandler) AddProblemStatement(w http.ResponseWriter, r *http.Request) {
	var input events.ProblemStatementInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	ps, err := h.Service.AddProblemStatement(r.Context(), pathParam(r, "id"), input)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, problemStatementCreated{
		Message:          "Problem statement added successfully",
		ProblemStatement: toProblemStatementDTO(ps),
	})
}

func (h *EventsHandler) ListProblemStatements(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListProblemStatements(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	out := problemStatementList{ProblemStatements: make([]problemStatementDTO, 0, len(list))}
	for i := range list {
		out.ProblemStatements = append(out.ProblemStatements, toProblemStatementDTO(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EventsHandler) GetProblemStatement(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.GetProblemStatement(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, toProblemStatementDTO(ps))
}

type submissionSaved struct {
	Message    string        `json:"message"`
	Submission submissionDTO `json:"submission"`
}

// AddSubmission takes the solution file in the "submission" part and the
// participant details as form fields.
func (h *EventsHandler) AddSubmission(w http.ResponseWriter, r *http.Request) {
	form, err := parseMultipart(r)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	defer form.Close()

	input := events.SubmissionInput{
		ProblemStatementID: form.value("problemStatementId"),
		Name:               form.value("name"),
		Email:              form.value("email"),
		RegistrationNumber: form.value("registrationNumber"),
	}
	upload, err := form.upload("submission")
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	sub, err := h.Service.AddSubmission(r.Context(), pathParam(r, "id"), input, upload)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusCreated, submissionSaved{Message: "Submission added successfully", Submission: toSubmissionDTO(sub)})
}

func (h *EventsHandler) ViewSubmissions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ViewSubmissions(r.Context(), pathParam(r, "id"), pathParam(r, "problemStatementId"))
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	out := make([]submissionDTO, 0, len(list))
	for i := range list {
		out = append(out, toSubmissionDTO(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type evaluateRequest struct {
	Status string `json:"status"`
}

func (h *EventsHandler) EvaluateSubmission(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	submissionID := pathParam(r, "submissionId")
	sub, err := h.Service.EvaluateSubmission(r.Context(), pathParam(r, "id"), submissionID, req.Status)
	audit.FromContext(r.Context()).LogFromRequest(r, middleware.ClaimsFromContext(r.Context()), "submission.evaluate", "submission", submissionID, err,
		map[string]string{"status": req.Status})
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionSaved{Message: "Submission evaluated successfully", Submission: toSubmissionDTO(sub)})
}

func (h *EventsHandler) UpdateSubmission(w http.ResponseWriter, r *http.Request) {
	form, err := parseMultipart(r)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	defer form.Close()

	upload, err := form.upload("submission")
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	sub, err := h.Service.UpdateSubmission(r.Context(), pathParam(r, "id"), upload)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionSaved{Message: "Submission updated successfully", Submission: toSubmissionDTO(sub)})
}

func (h *EventsHandler) AllSubmissions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.AllSubmissions(r.Context())
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	out := make([]submissionDTO, 0, len(list))
	for i := range list {
		dto := toSubmissionDTO(&list[i].Submission)
		dto.EventName = list[i].EventName
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}
