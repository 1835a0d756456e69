package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hackbox-events/server/internal/api/middleware"
	"github.com/hackbox-events/server/internal/audit"
	"github.com/hackbox-events/server/internal/domain/events"
	"github.com/hackbox-events/server/internal/validation"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

// Create accepts a multipart form with the banner and order files. The
// committee and createdBy fields are JSON objects; when absent they default
// to the caller's committee and account.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseMultipart(r)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	defer form.Close()

	input := events.CreateInput{
		Name:        form.value("name"),
		Venue:       form.value("venue"),
		StartDate:   form.value("startDate"),
		EndDate:     form.value("endDate"),
		Description: form.value("description"),
	}

	var errs validation.Errors
	if raw := form.value("committee"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Committee); err != nil {
			errs.Add("committee", "must be a JSON object")
		}
	}
	if raw := form.value("createdBy"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.CreatedBy); err != nil {
			errs.Add("createdBy", "must be a JSON object")
		}
	}
	if err := errs.Err(); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		if input.Committee.ID == "" {
			input.Committee = events.RefInput{ID: claims.CommitteeID, Name: claims.CommitteeName}
		}
		if input.CreatedBy.ID == "" {
			input.CreatedBy = events.RefInput{ID: claims.Subject, Name: claims.Name}
		}
	}

	if input.Banner, err = form.upload("banner"); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	if input.Order, err = form.upload("order"); err != nil {
		writeError(w, r, h.Env, err)
		return
	}

	event, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(event))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(event))
}

func (h *EventsHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.ListPublished)
}

func (h *EventsHandler) ListUnapproved(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.ListUnapproved)
}

func (h *EventsHandler) ListApproved(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.Service.ListApproved)
}

// ListCommittee lists a committee's approved events, or the ones still
// awaiting approval with ?approved=false.
func (h *EventsHandler) ListCommittee(w http.ResponseWriter, r *http.Request) {
	approved := true
	if raw := r.URL.Query().Get("approved"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, h.Env, validation.Errors{{Field: "approved", Message: "must be true or false"}})
			return
		}
		approved = parsed
	}
	committeeID := pathParam(r, "committeeId")
	list, err := h.Service.ListCommittee(r.Context(), committeeID, approved)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(list))
}

func (h *EventsHandler) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]events.Event, error)) {
	result, err := list(r.Context())
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(result))
}

func (h *EventsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	event, err := h.Service.Approve(r.Context(), id)
	audit.FromContext(r.Context()).LogFromRequest(r, middleware.ClaimsFromContext(r.Context()), "event.approve", "event", id, err, nil)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(event))
}

type togglePublishRequest struct {
	IsPublished *bool `json:"isPublished"`
}

// TogglePublish persists the negation of the isPublished value the client
// last saw, or flips the stored flag when the body omits it.
func (h *EventsHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	var req togglePublishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	id := pathParam(r, "id")
	event, err := h.Service.TogglePublish(r.Context(), id, req.IsPublished)
	details := map[string]string{}
	if event != nil {
		details["is_published"] = strconv.FormatBool(event.IsPublished)
	}
	audit.FromContext(r.Context()).LogFromRequest(r, middleware.ClaimsFromContext(r.Context()), "event.toggle_publish", "event", id, err, details)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(event))
}

type deleteResponse struct {
	Msg                  string   `json:"msg"`
	FilesAttempted       int      `json:"filesAttempted"`
	RegistrationsDeleted int64    `json:"registrationsDeleted"`
	Warnings             []string `json:"warnings"`
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	result, err := h.Service.Delete(r.Context(), id)
	var details map[string]string
	if result != nil {
		details = map[string]string{
			"files_attempted": strconv.Itoa(result.FilesAttempted),
			"file_errors":     strconv.Itoa(len(result.FileErrors)),
		}
	}
	audit.FromContext(r.Context()).LogFromRequest(r, middleware.ClaimsFromContext(r.Context()), "event.delete", "event", id, err, details)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{
		Msg:                  "Deleted Successfully",
		FilesAttempted:       result.FilesAttempted,
		RegistrationsDeleted: result.RegistrationsDeleted,
		Warnings:             result.Warnings(),
	})
}
