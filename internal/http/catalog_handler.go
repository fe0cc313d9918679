package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/feed"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, catalogResponse(s.Feed.Snapshot()))
}

// SetFilter changes sort, category and query in one reset; absent fields
// are left alone. Fields apply in that order, so a query in the same request
// wins over the category. An unknown category leaves the feed untouched.
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req FilterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var sort domain.SortOrder
	if req.Sort != nil {
		var err error
		if sort, err = domain.ParseSortOrder(*req.Sort); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_sort", err.Error())
			return
		}
	}

	var category domain.Category
	if req.CategoryID != nil {
		if category, ok = h.resolveCategory(ctx, s.Feed, *req.CategoryID); !ok {
			respondError(w, http.StatusNotFound, "unknown_category", "unknown category")
			return
		}
	}
	var query string
	if req.Query != nil {
		query = strings.TrimSpace(*req.Query)
	}

	s.Feed.Apply(ctx, func(filter *feed.Filter) {
		if req.Sort != nil {
			filter.Sort = sort
		}
		if req.CategoryID != nil {
			filter.Category = category
			if !category.IsAll() {
				filter.Query = ""
			}
		}
		if req.Query != nil {
			filter.Query = query
			if query != "" {
				filter.Category = domain.Category{}
			}
		}
	})
	respondJSON(w, http.StatusOK, catalogResponse(s.Feed.Snapshot()))
}

func (h *Handler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	category, ok := h.resolveCategory(ctx, s.Feed, chi.URLParam(r, "category_id"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown_category", "unknown category")
		return
	}
	s.Feed.SetCategory(ctx, category)
	respondJSON(w, http.StatusOK, catalogResponse(s.Feed.Snapshot()))
}

// resolveCategory treats "all" and "" as the unfiltered catalog. The
// category list is loaded first so the feed can resolve the id.
func (h *Handler) resolveCategory(ctx context.Context, f *feed.Feed, id string) (domain.Category, bool) {
	if id == "" || id == domain.AllSlug {
		return domain.Category{}, true
	}
	if _, err := h.categories.List(ctx); err != nil {
		h.logger.Warn("category list unavailable", zap.Error(err))
	}
	return f.ResolveCategory(id)
}

func (h *Handler) LoadNextPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Feed.LoadNextPage(ctx)
	respondJSON(w, http.StatusOK, catalogResponse(s.Feed.Snapshot()))
}

// Scroll reports the list geometry; the next page is loaded when the user is
// close enough to the bottom.
func (h *Handler) Scroll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var pos feed.ScrollPosition
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	fetched := s.Feed.OnScroll(ctx, pos)
	respondJSON(w, http.StatusOK, ScrollResponse{Fetched: fetched, Catalog: catalogResponse(s.Feed.Snapshot())})
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Feed.Reload(ctx)
	respondJSON(w, http.StatusOK, catalogResponse(s.Feed.Snapshot()))
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	categories, err := h.categories.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}
