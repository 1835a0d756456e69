package handlers

import (
	"net/http"

	"github.com/hackbox-events/server/internal/domain/registrations"
)

type RegistrationsHandler struct {
	Service *registrations.Service
	Env     string
}

func NewRegistrationsHandler(service *registrations.Service, env string) *RegistrationsHandler {
	return &RegistrationsHandler{Service: service, Env: env}
}

func (h *RegistrationsHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var input registrations.StudentInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	reg, err := h.Service.RegisterStudent(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRegistrationDTO(reg))
}

func (h *RegistrationsHandler) RegisterFaculty(w http.ResponseWriter, r *http.Request) {
	var input registrations.FacultyInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	reg, err := h.Service.RegisterFaculty(r.Context(), input)
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRegistrationDTO(reg))
}

func (h *RegistrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	out := make([]registrationDTO, 0, len(list))
	for i := range list {
		out = append(out, toRegistrationDTO(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}
