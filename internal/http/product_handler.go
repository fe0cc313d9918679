package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	p, err := s.Admin.Product(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ProductResponse{Product: p})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	p, err := s.Admin.Create(ctx, fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ProductResponse{Product: p})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	p, err := s.Admin.Update(ctx, chi.URLParam(r, "product_id"), fields)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ProductResponse{Product: p})
}

// DeleteProduct answers with the route the UI should move to.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Admin.Delete(ctx, chi.URLParam(r, "product_id")); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ProductResponse{Redirect: s.Hub.TakeRedirect()})
}

func decodeFields(w http.ResponseWriter, r *http.Request) (domain.ProductFields, bool) {
	var fields domain.ProductFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return fields, false
	}
	if err := fields.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
		return fields, false
	}
	return fields, true
}
