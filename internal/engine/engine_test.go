package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craterdog-bali/go-hsm-proxy/internal/engine"
	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
	"github.com/craterdog-bali/go-hsm-proxy/internal/frame"
)

// fakeTransport scripts a sequence of Exchange outcomes so tests can
// exercise the engine's retry bound without a real BLE stack.
type fakeTransport struct {
	attempts  [][][]byte
	responses []fakeOutcome
}

type fakeOutcome struct {
	resp []byte
	err  error
}

func (f *fakeTransport) Exchange(_ context.Context, blocks [][]byte) ([]byte, error) {
	i := len(f.attempts)
	f.attempts = append(f.attempts, blocks)
	if i >= len(f.responses) {
		return nil, errors.New("fakeTransport: no scripted outcome")
	}
	out := f.responses[i]
	return out.resp, out.err
}

func TestSend_SucceedsFirstAttempt(t *testing.T) {
	ft := &fakeTransport{responses: []fakeOutcome{{resp: []byte("pubkey")}}}
	e := engine.New(ft, 3, nil)

	resp, err := e.Send(context.Background(), frame.OpGenerateKeys, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pubkey"), resp)
	assert.Len(t, ft.attempts, 1)
}

func TestSend_RetriesOnTransientFailure(t *testing.T) {
	ft := &fakeTransport{responses: []fakeOutcome{
		{err: errors.New("connection dropped")},
		{err: errors.New("connection dropped")},
		{resp: []byte("ok")},
	}}
	e := engine.New(ft, 3, nil)

	resp, err := e.Send(context.Background(), frame.OpDigestBytes, []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), resp)
	assert.Len(t, ft.attempts, 3)
}

func TestSend_FailsAfterExhaustingAttempts(t *testing.T) {
	ft := &fakeTransport{responses: []fakeOutcome{
		{err: errors.New("a")},
		{err: errors.New("b")},
		{err: errors.New("c")},
	}}
	e := engine.New(ft, 3, nil)

	_, err := e.Send(context.Background(), frame.OpSignBytes, []byte("m"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrRequestFailed)
	assert.Len(t, ft.attempts, 3)
}

func TestSend_SegmentsMultiBlockRequests(t *testing.T) {
	ft := &fakeTransport{responses: []fakeOutcome{{resp: []byte{0x01}}}}
	e := engine.New(ft, 3, nil)

	bigArg := make([]byte, 1200)
	_, err := e.Send(context.Background(), frame.OpSignBytes, bigArg)
	require.NoError(t, err)

	require.Len(t, ft.attempts, 1)
	assert.Greater(t, len(ft.attempts[0]), 1, "expected multiple blocks for a >512 byte request")
}

func TestSend_DefaultsMaxAttempts(t *testing.T) {
	ft := &fakeTransport{responses: []fakeOutcome{
		{err: errors.New("a")}, {err: errors.New("b")}, {err: errors.New("c")},
	}}
	e := engine.New(ft, 0, nil)

	_, err := e.Send(context.Background(), frame.OpEraseKeys)
	require.Error(t, err)
	assert.Len(t, ft.attempts, engine.DefaultMaxAttempts)
}
