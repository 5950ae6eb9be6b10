// Package hsmproxy wires the transport, engine, store, and lifecycle
// controller into the single public facade an application embeds to
// talk to the BLE hardware security module.
package hsmproxy

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/craterdog-bali/go-hsm-proxy/internal/engine"
	"github.com/craterdog-bali/go-hsm-proxy/internal/keylifecycle"
	"github.com/craterdog-bali/go-hsm-proxy/internal/store"
	"github.com/craterdog-bali/go-hsm-proxy/internal/transport"
	"github.com/craterdog-bali/go-hsm-proxy/internal/transport/goble"
	"github.com/craterdog-bali/go-hsm-proxy/pkg/config"
)

// Proxy is the public API surface of the HSM proxy: the six operations
// of spec §4.5 plus the tag/protocol accessors of spec §4.6.
type Proxy struct {
	controller *keylifecycle.Controller
}

// New assembles a Proxy from cfg, using the real go-ble transport.
func New(cfg *config.Config, logger *logrus.Logger) *Proxy {
	if logger == nil {
		logger = logrus.New()
	}

	dialer := goble.NewDialer(logger)
	tcfg := transport.Config{
		DeviceName:     cfg.DeviceName,
		ScanTimeout:    cfg.ScanTimeout(),
		ConnectTimeout: cfg.ConnectTimeout,
		NotifyTimeout:  cfg.NotifyTimeout,
	}
	tr := transport.New(dialer, tcfg, logger)
	eng := engine.New(tr, cfg.MaxAttempts, logger)
	st := store.New(cfg.Directory, logger)
	ctl := keylifecycle.New(eng, st, logger)

	return &Proxy{controller: ctl}
}

// NewWithSender builds a Proxy around a caller-supplied RequestSender,
// bypassing the real BLE transport. Used by callers (and tests) that
// want the lifecycle semantics without real hardware.
func NewWithSender(sender keylifecycle.RequestSender, st *store.Store, logger *logrus.Logger) *Proxy {
	return &Proxy{controller: keylifecycle.New(sender, st, logger)}
}

// GetTag returns the proxy's persisted identifying tag (spec §4.6).
func (p *Proxy) GetTag(ctx context.Context) (uuid.UUID, error) {
	return p.controller.GetTag(ctx)
}

// GetProtocol returns the wire protocol version in use (spec §4.6).
func (p *Proxy) GetProtocol() string {
	return p.controller.GetProtocol()
}

// GenerateKeys generates the proxy's first key pair (spec §4.5).
func (p *Proxy) GenerateKeys(ctx context.Context) ([]byte, error) {
	return p.controller.GenerateKeys(ctx)
}

// RotateKeys rotates the proxy's key pair, retaining the previous key
// for one subsequent sign (spec §4.5).
func (p *Proxy) RotateKeys(ctx context.Context) ([]byte, error) {
	return p.controller.RotateKeys(ctx)
}

// EraseKeys erases all keys from both the HSM and the persisted record
// (spec §4.5).
func (p *Proxy) EraseKeys(ctx context.Context) (bool, error) {
	return p.controller.EraseKeys(ctx)
}

// DigestBytes computes the digest of data (spec §4.5).
func (p *Proxy) DigestBytes(ctx context.Context, data []byte) ([]byte, error) {
	return p.controller.DigestBytes(ctx, data)
}

// SignBytes signs data with the current (or one-shot previous) proxy
// key (spec §4.5).
func (p *Proxy) SignBytes(ctx context.Context, data []byte) ([]byte, error) {
	return p.controller.SignBytes(ctx, data)
}

// ValidSignature verifies signature over data under publicKey (spec §4.5).
func (p *Proxy) ValidSignature(ctx context.Context, publicKey, signature, data []byte) (bool, error) {
	return p.controller.ValidSignature(ctx, publicKey, signature, data)
}
