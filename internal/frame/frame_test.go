package frame_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
	"github.com/craterdog-bali/go-hsm-proxy/internal/frame"
)

func TestEncodeRequest_ZeroArgCountWhenNoArgs(t *testing.T) {
	body, err := frame.EncodeRequest(frame.OpEraseKeys)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(frame.OpEraseKeys), 0}, body)
}

func TestEncodeRequest_ZeroLengthArgument(t *testing.T) {
	body, err := frame.EncodeRequest(frame.OpDigestBytes, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(frame.OpDigestBytes), 1, 0x00, 0x00}, body)
}

func TestEncodeRequest_MaxArgumentLengthAccepted(t *testing.T) {
	arg := bytes.Repeat([]byte{0xAB}, 65535)
	body, err := frame.EncodeRequest(frame.OpSignBytes, arg)
	require.NoError(t, err)
	assert.Len(t, body, 2+2+65535)
}

func TestEncodeRequest_OversizeArgumentRejected(t *testing.T) {
	arg := bytes.Repeat([]byte{0xAB}, 65536)
	_, err := frame.EncodeRequest(frame.OpSignBytes, arg)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrArgumentTooLarge)
}

func TestEncodeRequest_Injective(t *testing.T) {
	a, err := frame.EncodeRequest(frame.OpGenerateKeys, []byte("alpha"))
	require.NoError(t, err)
	b, err := frame.EncodeRequest(frame.OpGenerateKeys, []byte("beta"))
	require.NoError(t, err)
	c, err := frame.EncodeRequest(frame.OpRotateKeys, []byte("alpha"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSegment_SmallRequestIsSingleBlock(t *testing.T) {
	body, err := frame.EncodeRequest(frame.OpDigestBytes, bytes.Repeat([]byte{1}, 500))
	require.NoError(t, err)
	require.LessOrEqual(t, len(body), 512)

	blocks := frame.Segment(body)
	require.Len(t, blocks, 1)
	assert.Equal(t, body, blocks[0])
}

func TestSegment_MultiBlockOrderAndHeaders(t *testing.T) {
	// 1200-byte body as in spec.md scenario 5.
	body := make([]byte, 1200)
	for i := range body {
		body[i] = byte(i)
	}

	blocks := frame.Segment(body)
	require.Len(t, blocks, 3)

	// Extra block index 2 first: header [0x00, 0x02] + bytes[1022:1200].
	assert.Equal(t, []byte{0x00, 0x02}, blocks[0][:2])
	assert.Equal(t, body[1022:1200], blocks[0][2:])

	// Extra block index 1 next: header [0x00, 0x01] + bytes[512:1022].
	assert.Equal(t, []byte{0x00, 0x01}, blocks[1][:2])
	assert.Equal(t, body[512:1022], blocks[1][2:])

	// Primary block last, no header: bytes[0:512].
	assert.Equal(t, body[:512], blocks[2])
}

func TestSegment_BlockCountMatchesFormula(t *testing.T) {
	for _, n := range []int{2, 512, 513, 1022, 1023, 4000} {
		body := make([]byte, n)
		blocks := frame.Segment(body)

		want := 1
		if n > frame.Block+2 {
			want += (n-2+frame.Block-1)/frame.Block - 1
		}
		assert.Equalf(t, want, len(blocks), "body length %d", n)
	}
}

func TestDecodeResponse_Boolean(t *testing.T) {
	r, err := frame.DecodeResponse([]byte{0x00})
	require.NoError(t, err)
	assert.Equal(t, frame.KindBool, r.Kind)
	assert.False(t, r.Bool)

	r, err = frame.DecodeResponse([]byte{0x01})
	require.NoError(t, err)
	assert.True(t, r.Bool)
}

func TestDecodeResponse_ErrorCode(t *testing.T) {
	_, err := frame.DecodeResponse([]byte{0x07})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrBlockRejected)

	var code frame.CodeError
	require.True(t, errors.As(err, &code))
	assert.Equal(t, frame.CodeError(7), code)
}

func TestDecodeResponse_OpaquePayload(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	r, err := frame.DecodeResponse(payload)
	require.NoError(t, err)
	assert.Equal(t, frame.KindOpaque, r.Kind)
	assert.Equal(t, payload, r.Bytes)
}

func TestDecodeResponse_EmptyIsOpaque(t *testing.T) {
	r, err := frame.DecodeResponse(nil)
	require.NoError(t, err)
	assert.Equal(t, frame.KindOpaque, r.Kind)
}
