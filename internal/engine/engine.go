// Package engine drives one full request/response exchange through a
// transport with bounded attempt-level retry, per spec §4.3.
package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
	"github.com/craterdog-bali/go-hsm-proxy/internal/frame"
)

const component = "engine"

// Transport performs one full block-sequence exchange: scan through
// disconnect. internal/transport.BLETransport implements this.
type Transport interface {
	Exchange(ctx context.Context, blocks [][]byte) ([]byte, error)
}

// DefaultMaxAttempts matches spec §4.3 and the configuration default in §6.
const DefaultMaxAttempts = 3

// Engine sequences block transmission for one logical request with
// bounded retry at the attempt (whole-exchange) level.
type Engine struct {
	transport   Transport
	maxAttempts int
	logger      *logrus.Logger
}

// New builds an Engine. maxAttempts <= 0 falls back to DefaultMaxAttempts.
// A nil logger falls back to logrus.New().
func New(transport Transport, maxAttempts int, logger *logrus.Logger) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{transport: transport, maxAttempts: maxAttempts, logger: logger}
}

// Send encodes op+args, segments the result into blocks, and drives up
// to maxAttempts full exchanges. It returns the raw response bytes of
// the final (primary) block on the first successful attempt.
func (e *Engine) Send(ctx context.Context, op frame.OpCode, args ...[]byte) ([]byte, error) {
	body, err := frame.EncodeRequest(op, args...)
	if err != nil {
		return nil, err
	}
	blocks := frame.Segment(body)

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		resp, err := e.transport.Exchange(ctx, blocks)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		e.logger.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"error":   err,
		}).Warn("engine: exchange attempt failed")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, errs.Wrap(component, errs.KindRequestFailed, "retry budget exhausted", lastErr)
}
