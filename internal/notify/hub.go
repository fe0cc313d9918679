package notify

import (
	"sync"

	"go.uber.org/zap"
)

const defaultHubCapacity = 50

// Hub is a per-session inbox of notices plus the last requested redirect.
// It implements both Sink and Navigator.
type Hub struct {
	mu       sync.Mutex
	notices  []Notice
	redirect string
	capacity int
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{capacity: defaultHubCapacity, logger: logger}
}

func (h *Hub) Notify(n Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = append(h.notices, n)
	// oldest notices fall off once the inbox is full
	if over := len(h.notices) - h.capacity; over > 0 {
		h.notices = append([]Notice(nil), h.notices[over:]...)
	}
	h.logger.Debug("notice queued",
		zap.String("id", n.ID),
		zap.String("severity", string(n.Severity)),
		zap.String("message", n.Message))
}

func (h *Hub) Navigate(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redirect = path
}

// Notices returns pending notices, oldest first.
func (h *Hub) Notices() []Notice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Notice(nil), h.notices...)
}

// Dismiss removes a notice and reports whether it was pending.
func (h *Hub) Dismiss(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, n := range h.notices {
		if n.ID == id {
			h.notices = append(h.notices[:i], h.notices[i+1:]...)
			return true
		}
	}
	return false
}

// TakeRedirect returns the pending redirect and clears it.
func (h *Hub) TakeRedirect() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.redirect
	h.redirect = ""
	return r
}

// LogSink writes notices to a zap logger.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Notify(n Notice) {
	fields := []zap.Field{zap.String("id", n.ID), zap.String("message", n.Message)}
	switch n.Severity {
	case SeverityError:
		s.Logger.Warn("transient error", fields...)
	default:
		s.Logger.Info("notice", fields...)
	}
}
