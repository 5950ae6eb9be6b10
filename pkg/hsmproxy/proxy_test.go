package hsmproxy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craterdog-bali/go-hsm-proxy/internal/frame"
	"github.com/craterdog-bali/go-hsm-proxy/internal/store"
	"github.com/craterdog-bali/go-hsm-proxy/pkg/hsmproxy"
)

type fakeSender struct{}

func (fakeSender) Send(_ context.Context, op frame.OpCode, _ ...[]byte) ([]byte, error) {
	switch op {
	case frame.OpGenerateKeys:
		return []byte("public-key"), nil
	case frame.OpDigestBytes:
		return []byte("digest"), nil
	default:
		return []byte{0x01}, nil
	}
}

func TestProxy_GenerateAndDigest(t *testing.T) {
	st := store.New(t.TempDir(), nil)
	p := hsmproxy.NewWithSender(fakeSender{}, st, nil)
	ctx := context.Background()

	tag, err := p.GetTag(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tag.String())

	pub, err := p.GenerateKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("public-key"), pub)

	digest, err := p.DigestBytes(ctx, []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, []byte("digest"), digest)

	assert.Equal(t, "v2", p.GetProtocol())
}
