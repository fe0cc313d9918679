// Package poller follows checkout events and refreshes the carts of users
// with a live session, so a completed checkout empties their cart view.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	Topic   = "checkout-outbox"
	GroupID = "storefront-consumer"

	retryDelay = time.Second
)

// MessageReader is the part of *kafka.Reader the poller uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CartRefresher reloads a user's cart; ok is false when the user has no
// live session.
type CartRefresher interface {
	RefreshCart(ctx context.Context, userID string) (ok bool, err error)
}

type checkoutEvent struct {
	UserID string `json:"user_id"`
}

type Poller struct {
	reader MessageReader
	carts  CartRefresher
	logger *zap.Logger
}

func NewPoller(carts CartRefresher, logger *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(reader, carts, logger)
}

func newPoller(reader MessageReader, carts CartRefresher, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{reader: reader, carts: carts, logger: logger}
}

// Run consumes events until ctx is done or the reader is closed.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Checkout poller started", zap.String("topic", Topic))
	for {
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				p.logger.Info("Checkout poller stopped")
				return nil
			}
			p.logger.Warn("error reading message", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}
		p.handle(ctx, m)
	}
}

func (p *Poller) handle(ctx context.Context, m kafka.Message) {
	var event checkoutEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.logger.Warn("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}
	if event.UserID == "" {
		p.logger.Warn("missing or invalid user_id", zap.Int64("offset", m.Offset))
		return
	}

	ok, err := p.carts.RefreshCart(ctx, event.UserID)
	switch {
	case err != nil:
		p.logger.Warn("failed to refresh cart after checkout", zap.String("user_id", event.UserID), zap.Error(err))
	case ok:
		p.logger.Info("Cart refreshed after checkout", zap.String("user_id", event.UserID))
	default:
		p.logger.Debug("checkout for user without session", zap.String("user_id", event.UserID))
	}
}

func (p *Poller) Close() error {
	return p.reader.Close()
}
