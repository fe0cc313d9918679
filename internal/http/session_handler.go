package http

import (
	"net/http"
)

// Login starts the caller's session: the cart is resolved and the first
// catalog page loaded.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, err := h.sessions.Login(ctx, getUserIDFromContext(r.Context()), getTokenFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{
		UserID:  s.UserID,
		Cart:    h.cartResponse(s.Cart.Snapshot()),
		Catalog: catalogResponse(s.Feed.Snapshot()),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Logout(getUserIDFromContext(r.Context())) {
		respondError(w, http.StatusNotFound, "not_found", "no session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
