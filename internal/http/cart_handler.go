package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse(s.Cart.Snapshot()))
}

// AddItem adds one unit. A failed mutation leaves the cart as it was and
// shows up as a notice, so the response is the cart either way.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	s.Cart.AddItem(ctx, req.ProductID)
	respondJSON(w, http.StatusOK, h.cartResponse(s.Cart.Snapshot()))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	s.Cart.RemoveItem(ctx, productID)
	respondJSON(w, http.StatusOK, h.cartResponse(s.Cart.Snapshot()))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.sessions.ClearCart(ctx, s.UserID); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse(s.Cart.Snapshot()))
}

// ResolveCart retries a cart that failed to load at login or on a later
// refresh. A cart that is already fine is returned as is.
func (h *Handler) ResolveCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := h.sessions.ResolveCart(ctx, s.UserID); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse(s.Cart.Snapshot()))
}
