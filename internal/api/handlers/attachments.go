package handlers

import (
	"net/http"
	"strconv"

	"github.com/hackbox-events/server/internal/api/middleware"
	"github.com/hackbox-events/server/internal/audit"
)

func (h *EventsHandler) UploadReport(w http.ResponseWriter, r *http.Request) {
	form, err := parseMultipart(r)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	defer form.Close()

	upload, err := form.upload("report")
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	event, err := h.Service.UploadReport(r.Context(), pathParam(r, "id"), upload)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(event))
}

func (h *EventsHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	form, err := parseMultipart(r)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	defer form.Close()

	uploads, err := form.uploads("photos")
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	event, err := h.Service.UploadPhotos(r.Context(), pathParam(r, "id"), uploads)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(event))
}

type certificatesRequest struct {
	EventDate string `json:"eventDate"`
}

type certificatesResponse struct {
	Msg    string               `json:"msg"`
	Report certificateReportDTO `json:"report"`
}

// SendCertificates answers once the whole batch has been attempted.
func (h *EventsHandler) SendCertificates(w http.ResponseWriter, r *http.Request) {
	var req certificatesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	id := pathParam(r, "id")
	report, err := h.Service.SendCertificates(r.Context(), id, req.EventDate)
	var details map[string]string
	if report != nil {
		details = map[string]string{
			"registrants": strconv.Itoa(report.Registrants),
			"sent":        strconv.Itoa(report.Sent),
			"failures":    strconv.Itoa(len(report.Failures)),
		}
	}
	audit.FromContext(r.Context()).LogFromRequest(r, middleware.ClaimsFromContext(r.Context()), "event.certificates", "event", id, err, details)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusOK, certificatesResponse{Msg: "Certificates Sent", Report: toCertificateReportDTO(report)})
}
