package http

import (
	"net/http"

	"github.com/fjod/storefront/internal/notify"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	notices := s.Hub.Notices()
	if notices == nil {
		notices = []notify.Notice{}
	}
	respondJSON(w, http.StatusOK, NoticesResponse{Notices: notices})
}

func (h *Handler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if !s.Hub.Dismiss(chi.URLParam(r, "notice_id")) {
		respondError(w, http.StatusNotFound, "not_found", "notice not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
