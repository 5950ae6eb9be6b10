// Package keylifecycle owns the persisted key-lifecycle state machine
// described in spec §4.5: keyless -> loneKey -> twoKeys -> loneKey,
// including the "previous-key one-shot" rotation semantics and the
// InconsistentState latch when the HSM and the host disagree.
package keylifecycle

import (
	"context"
	"crypto/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
	"github.com/craterdog-bali/go-hsm-proxy/internal/frame"
	"github.com/craterdog-bali/go-hsm-proxy/internal/store"
)

const component = "controller"

// proxyKeySize is the size, in bytes, of the host-side proxy secret
// bound into every privileged request (spec §3/GLOSSARY).
const proxyKeySize = 32

// RequestSender drives one logical request to the HSM and back.
// internal/engine.Engine implements this.
type RequestSender interface {
	Send(ctx context.Context, op frame.OpCode, args ...[]byte) ([]byte, error)
}

// Controller is the sole owner of the persisted record in memory; no
// other component reads or mutates it (spec §3 "Lifecycle ownership").
type Controller struct {
	sender RequestSender
	store  *store.Store
	logger *logrus.Logger

	mu           sync.Mutex
	rec          *store.Record
	inconsistent bool
}

// New builds a Controller. A nil logger falls back to logrus.New().
func New(sender RequestSender, st *store.Store, logger *logrus.Logger) *Controller {
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{sender: sender, store: st, logger: logger}
}

// GetProtocol returns the wire protocol version this controller speaks.
func (c *Controller) GetProtocol() string { return "v2" }

// GetTag returns the persisted tag, bootstrapping a fresh record with a
// new random tag if none exists yet (spec §6).
func (c *Controller) GetTag(ctx context.Context) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return uuid.Nil, err
	}
	return c.rec.Tag, nil
}

// GenerateKeys implements spec §4.5 generateKeys.
func (c *Controller) GenerateKeys(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReady(ctx); err != nil {
		return nil, err
	}
	if c.rec.State != store.StateKeyless {
		return nil, invalidState("generateKeys requires keyless state, have " + string(c.rec.State))
	}

	proxyKey, err := randomKey()
	if err != nil {
		return nil, errs.Wrap(component, errs.KindUnexpected, "failed to generate proxy key", err)
	}

	resp, err := c.sender.Send(ctx, frame.OpGenerateKeys, proxyKey)
	if err != nil {
		return nil, err
	}

	next := c.rec.Clone()
	next.ProxyKey = proxyKey
	next.State = store.StateLoneKey
	if err := c.commit(next); err != nil {
		return nil, err
	}
	return resp, nil
}

// RotateKeys implements spec §4.5 rotateKeys.
func (c *Controller) RotateKeys(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReady(ctx); err != nil {
		return nil, err
	}
	if c.rec.State != store.StateLoneKey {
		return nil, invalidState("rotateKeys requires loneKey state, have " + string(c.rec.State))
	}

	previous := append([]byte(nil), c.rec.ProxyKey...)
	next, err := randomKey()
	if err != nil {
		return nil, errs.Wrap(component, errs.KindUnexpected, "failed to generate proxy key", err)
	}

	resp, err := c.sender.Send(ctx, frame.OpRotateKeys, previous, next)
	if err != nil {
		return nil, err
	}

	nextRec := c.rec.Clone()
	nextRec.PreviousProxyKey = previous
	nextRec.ProxyKey = next
	nextRec.State = store.StateTwoKeys
	if err := c.commit(nextRec); err != nil {
		return nil, err
	}
	return resp, nil
}

// EraseKeys implements spec §4.5 eraseKeys. It has no state precondition
// and is the defined recovery path out of InconsistentState.
func (c *Controller) EraseKeys(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sender.Send(ctx, frame.OpEraseKeys)
	if err != nil {
		return false, err
	}

	decoded, err := frame.DecodeResponse(resp)
	if err != nil {
		return false, err
	}

	if err := c.store.Delete(); err != nil {
		c.inconsistent = true
		return false, errs.Wrap(component, errs.KindInconsistentState,
			"HSM erased keys but deleting the persisted record failed", err)
	}

	if c.rec != nil {
		zero(c.rec.ProxyKey)
		zero(c.rec.PreviousProxyKey)
	}
	c.rec = nil
	c.inconsistent = false

	return decoded.Bool, nil
}

// DigestBytes implements spec §4.5 digestBytes (stateless).
func (c *Controller) DigestBytes(ctx context.Context, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sender.Send(ctx, frame.OpDigestBytes, data)
}

// SignBytes implements spec §4.5 signBytes, including the previous-key
// one-shot rule: if a previousProxyKey is present it is used and
// consumed atomically with the state transition back to loneKey.
func (c *Controller) SignBytes(ctx context.Context, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReady(ctx); err != nil {
		return nil, err
	}
	if c.rec.State == store.StateKeyless {
		return nil, invalidState("signBytes requires a key pair")
	}

	usingPrevious := len(c.rec.PreviousProxyKey) > 0
	key := c.rec.ProxyKey
	if usingPrevious {
		key = c.rec.PreviousProxyKey
	}

	resp, err := c.sender.Send(ctx, frame.OpSignBytes, key, data)
	if err != nil {
		return nil, err
	}

	next := c.rec.Clone()
	if usingPrevious {
		zero(next.PreviousProxyKey)
		next.PreviousProxyKey = nil
	}
	next.State = store.StateLoneKey
	if err := c.commit(next); err != nil {
		return nil, err
	}
	return resp, nil
}

// ValidSignature implements spec §4.5 validSignature (stateless).
func (c *Controller) ValidSignature(ctx context.Context, publicKey, signature, data []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.sender.Send(ctx, frame.OpValidSignature, publicKey, signature, data)
	if err != nil {
		return false, err
	}
	decoded, err := frame.DecodeResponse(resp)
	if err != nil {
		return false, err
	}
	return decoded.Bool, nil
}

// ensureLoaded bootstraps the record on first use (spec §4.5). Callers
// must hold c.mu.
func (c *Controller) ensureLoaded(_ context.Context) error {
	if c.rec != nil {
		return nil
	}

	rec, present, err := c.store.Load()
	if err != nil {
		return err
	}
	if !present {
		rec = &store.Record{Tag: uuid.New(), State: store.StateKeyless}
		if err := c.store.Store(rec); err != nil {
			return errs.Wrap(component, errs.KindConfigStoreError, "failed to persist bootstrap record", err)
		}
	}
	c.rec = rec
	return nil
}

// checkReady refuses further state-bearing operations once the latch
// has tripped, and otherwise bootstraps the record. Callers must hold c.mu.
func (c *Controller) checkReady(ctx context.Context) error {
	if c.inconsistent {
		return errs.New(component, errs.KindInconsistentState,
			"HSM and persisted record have diverged; call EraseKeys to recover")
	}
	return c.ensureLoaded(ctx)
}

// commit persists next and, on success, makes it the controller's
// current view. A persistence failure after a successful HSM exchange
// is converted to InconsistentState and latched, per spec §4.5/§7:
// the HSM's key state has changed but the host's record has not.
// Callers must hold c.mu.
func (c *Controller) commit(next *store.Record) error {
	if err := c.store.Store(next); err != nil {
		c.inconsistent = true
		c.logger.WithError(err).Error("controller: post-exchange persistence failed, latching InconsistentState")
		return errs.Wrap(component, errs.KindInconsistentState,
			"HSM exchange succeeded but the record did not persist", err)
	}
	c.rec = next
	return nil
}

func invalidState(msg string) error {
	return errs.New(component, errs.KindInvalidState, msg)
}

func randomKey() ([]byte, error) {
	key := make([]byte, proxyKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
