package http

import (
	"net/http"
)

func (h *Handler) googleAuthorize(w http.ResponseWriter, r *http.Request) {
	authorizeURL, err := h.service.FederatedAuthorize(r.Context(), callbackURI(r))
	if err != nil {
		writeMappedError(r.Context(), w, "google_authorize", err)
		return
	}
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}

func (h *Handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	redirectURL, err := h.service.FederatedCallback(r.Context(), code, state)
	if err != nil {
		writeMappedError(r.Context(), w, "google_callback", err)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// callbackURI rebuilds the externally visible callback address. The same URI
// must be sent on both the authorize and token-exchange legs.
func callbackURI(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/auth/google/callback"
}
