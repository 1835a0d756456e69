package handlers

import (
	"net/http"
	"strings"

	"github.com/hackbox-events/server/internal/audit"
	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/validation"
)

type AuthHandler struct {
	Accounts *accounts.Service
	Env      string
}

func NewAuthHandler(service *accounts.Service, env string) *AuthHandler {
	return &AuthHandler{Accounts: service, Env: env}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string     `json:"token"`
	Account accountDTO `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Env, err)
		return
	}
	var errs validation.Errors
	if strings.TrimSpace(req.Email) == "" {
		errs.Add("email", "is required")
	}
	if req.Password == "" {
		errs.Add("password", "is required")
	}
	if err := errs.Err(); err != nil {
		writeError(w, r, h.Env, err)
		return
	}

	account, token, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.FromContext(r.Context()).LogFromRequest(r, nil, "auth.login", "account", "", err, nil)
		writeError(w, r, h.Env, err)
		return
	}
	audit.FromContext(r.Context()).LogFromRequest(r, nil, "auth.login", "account", account.ID, nil, nil)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Account: toAccountDTO(account)})
}
