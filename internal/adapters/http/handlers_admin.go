package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumengallery/auth-service/internal/application"
	"github.com/lumengallery/auth-service/internal/domain"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page := parseIntDefault(r.URL.Query().Get("page"), 1)
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)

	accounts, err := h.service.ListAccounts(r.Context(), page, limit)
	if err != nil {
		writeMappedError(r.Context(), w, "list_users", err)
		return
	}
	writeSuccess(w, http.StatusOK, accounts)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDParam(w, r, "update_user")
	if !ok {
		return
	}
	var req application.UpdateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_user", err)
		return
	}

	res, err := h.service.UpdateAccount(r.Context(), accountID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_user", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) toggleActive(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDParam(w, r, "toggle_active")
	if !ok {
		return
	}
	res, err := h.service.ToggleActive(r.Context(), accountID)
	if err != nil {
		writeMappedError(r.Context(), w, "toggle_active", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) toggleVerify(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDParam(w, r, "toggle_verify")
	if !ok {
		return
	}
	res, err := h.service.ToggleVerified(r.Context(), accountID)
	if err != nil {
		writeMappedError(r.Context(), w, "toggle_verify", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) loginHistory(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDParam(w, r, "login_history")
	if !ok {
		return
	}
	query := application.LoginHistoryQuery{
		Page:  parseIntDefault(r.URL.Query().Get("page"), 1),
		Limit: parseIntDefault(r.URL.Query().Get("limit"), 50),
	}

	items, err := h.service.ListLoginHistory(r.Context(), accountID, query)
	if err != nil {
		writeMappedError(r.Context(), w, "login_history", err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func accountIDParam(w http.ResponseWriter, r *http.Request, operation string) (uuid.UUID, bool) {
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMappedError(r.Context(), w, operation, domain.ErrInvalidInput)
		return uuid.Nil, false
	}
	return accountID, true
}
