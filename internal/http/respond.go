package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/session"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, httpStatus int, code, message string) {
	respondJSON(w, httpStatus, ErrorResponse{Error: message, Code: code})
}

// handleServiceError turns a catalog service failure into an HTTP error
// response by its status code.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrAnonymous):
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	case errors.Is(err, session.ErrNoSession):
		respondError(w, http.StatusUnauthorized, "no_session", "no session, log in first")
		return
	case errors.Is(err, cart.ErrNoCart):
		respondError(w, http.StatusConflict, "no_cart", "the session has no cart")
		return
	}

	st := status.Convert(err)
	var httpStatus int
	var code string
	switch st.Code() {
	case codes.InvalidArgument:
		httpStatus, code = http.StatusBadRequest, "invalid_argument"
	case codes.NotFound:
		httpStatus, code = http.StatusNotFound, "not_found"
	case codes.AlreadyExists:
		httpStatus, code = http.StatusConflict, "already_exists"
	case codes.Unauthenticated:
		httpStatus, code = http.StatusUnauthorized, "unauthenticated"
	case codes.PermissionDenied:
		httpStatus, code = http.StatusForbidden, "permission_denied"
	case codes.ResourceExhausted:
		httpStatus, code = http.StatusTooManyRequests, "rate_limit_exceeded"
	case codes.Unavailable:
		httpStatus, code = http.StatusServiceUnavailable, "service_unavailable"
	case codes.DeadlineExceeded:
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
	case codes.Unknown:
		// not a status error
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	default:
		httpStatus, code = http.StatusInternalServerError, "internal_error"
	}
	respondError(w, httpStatus, code, st.Message())
}
