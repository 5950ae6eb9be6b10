// Package frame implements the HSM proxy's binary request/response
// framing and block segmentation. It is pure and does no I/O: given a
// request it produces the bytes the transport must write, and given
// response bytes it tells the caller what kind of response it is.
package frame

import (
	"encoding/binary"
	"strconv"

	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
)

// OpCode identifies one of the six HSM operations.
type OpCode byte

const (
	OpGenerateKeys   OpCode = 1
	OpRotateKeys     OpCode = 2
	OpEraseKeys      OpCode = 3
	OpDigestBytes    OpCode = 4
	OpSignBytes      OpCode = 5
	OpValidSignature OpCode = 6
)

// Block is the body size (in bytes) of one transport write, excluding
// the 2-byte continuation header on non-primary blocks. A block write
// (header + body) never exceeds the 512-byte BLE MTU.
const Block = 510

const maxArgLen = 65535

const component = "frame"

// EncodeRequest serializes op and args into the wire layout described
// in spec §4.1: op byte, arg-count byte, then per argument a
// big-endian 16-bit length followed by the payload.
func EncodeRequest(op OpCode, args ...[]byte) ([]byte, error) {
	if len(args) > 255 {
		return nil, errs.New(component, errs.KindArgumentTooLarge, "more than 255 arguments")
	}

	size := 2
	for _, a := range args {
		if len(a) > maxArgLen {
			return nil, errs.New(component, errs.KindArgumentTooLarge, "argument exceeds 65535 bytes")
		}
		size += 2 + len(a)
	}

	body := make([]byte, 0, size)
	body = append(body, byte(op), byte(len(args)))
	for _, a := range args {
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(a)))
		body = append(body, lenBuf[:]...)
		body = append(body, a...)
	}
	return body, nil
}

// Segment splits an encoded request body into the ordered sequence of
// blocks a caller must write to the peripheral. Extra blocks (if any)
// come first, highest index to lowest, each carrying a [0x00, k]
// continuation header; the final element is always the primary block,
// which carries op+arg-count in its first two bytes and no header.
func Segment(body []byte) [][]byte {
	primaryLen := Block + 2
	if len(body) <= primaryLen {
		return [][]byte{body}
	}

	extra := (len(body)-2+Block-1)/Block - 1

	blocks := make([][]byte, 0, extra+1)
	for k := extra; k >= 1; k-- {
		start := k*Block + 2
		end := start + Block
		if end > len(body) {
			end = len(body)
		}
		block := make([]byte, 0, 2+end-start)
		block = append(block, 0x00, byte(k))
		block = append(block, body[start:end]...)
		blocks = append(blocks, block)
	}

	blocks = append(blocks, body[:primaryLen])
	return blocks
}

// ResponseKind classifies a decoded response.
type ResponseKind int

const (
	// KindOpaque is an arbitrary byte string (public key, digest, signature).
	KindOpaque ResponseKind = iota
	// KindBool is a length-1 response whose value is 0 (false) or 1 (true).
	KindBool
)

// Response is the decoded shape of a single HSM response.
type Response struct {
	Kind  ResponseKind
	Bool  bool
	Bytes []byte
}

// DecodeResponse classifies a raw response per spec §4.1: a length-1
// response with value > 1 is a device-reported error and is returned
// as a *errs.Error of kind BlockRejected; value 0 or 1 decodes as a
// boolean; any other length is opaque payload bytes.
func DecodeResponse(b []byte) (Response, error) {
	if len(b) == 1 {
		v := b[0]
		if v > 1 {
			return Response{}, errs.Wrap("transport", errs.KindBlockRejected,
				"device reported error", codeError(v))
		}
		return Response{Kind: KindBool, Bool: v != 0}, nil
	}
	return Response{Kind: KindOpaque, Bytes: b}, nil
}

// CodeError lets the status byte travel through errors.Is(err, errs.ErrBlockRejected)
// while still keeping the numeric code available via errors.As.
type CodeError byte

func (c CodeError) Error() string {
	return "status code " + strconv.Itoa(int(c))
}

func codeError(b byte) error { return CodeError(b) }
