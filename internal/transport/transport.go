// Package transport implements the chunked BLE UART exchange described
// in spec §4.2: scan for a named peripheral advertising the UART
// service, connect, discover the write/notify characteristics, then
// write each block of a framed request and await its notification.
//
// The protocol is expressed against two small interfaces (Dialer,
// Session) rather than the concrete go-ble API directly, so it stays
// transport-agnostic at the package boundary and testable without a
// real BLE stack; internal/transport/goble supplies the concrete
// implementation used in production.
package transport

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
	"github.com/craterdog-bali/go-hsm-proxy/internal/frame"
)

// Nordic UART Service UUIDs, bit-exact per spec §6.
const (
	ServiceUUID = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	WriteUUID   = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	NotifyUUID  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"

	// DefaultDeviceName is the canonical advertised name of the HSM peripheral.
	DefaultDeviceName = "ArmorD"
)

// Config holds the target device name and the scan, connect and
// notification timeouts for one exchange attempt.
type Config struct {
	DeviceName     string
	ScanTimeout    time.Duration
	ConnectTimeout time.Duration
	NotifyTimeout  time.Duration
}

// DefaultConfig matches spec §6's configuration defaults.
func DefaultConfig() Config {
	return Config{
		DeviceName:     DefaultDeviceName,
		ScanTimeout:    1 * time.Second,
		ConnectTimeout: 10 * time.Second,
		NotifyTimeout:  5 * time.Second,
	}
}

// Session represents one connected-and-discovered peripheral, ready to
// exchange blocks. Every method is a narrow, separately awaitable step
// per spec §9's decomposition of the source's nested callback pyramid.
type Session interface {
	DiscoverService(serviceUUID string) error
	DiscoverCharacteristics(writeUUID, notifyUUID string) error
	Subscribe(ctx context.Context) (<-chan []byte, error)
	WriteBlock(ctx context.Context, block []byte) error
	Disconnect() error
}

// Dialer scans for and connects to the HSM peripheral.
type Dialer interface {
	Scan(ctx context.Context, deviceName, serviceUUID string, timeout time.Duration) (addr string, err error)
	Connect(ctx context.Context, addr string, timeout time.Duration) (Session, error)
}

// BLETransport implements the single-exchange protocol of spec §4.2 on
// top of a Dialer/Session pair.
type BLETransport struct {
	dialer Dialer
	cfg    Config
	logger *logrus.Logger
}

const component = "transport"

// New builds a BLETransport. A nil logger falls back to logrus.New().
func New(dialer Dialer, cfg Config, logger *logrus.Logger) *BLETransport {
	if logger == nil {
		logger = logrus.New()
	}
	return &BLETransport{dialer: dialer, cfg: cfg, logger: logger}
}

// Exchange performs scan, connect, discover, subscribe, then writes
// every block in order and awaits its notification, returning the
// raw bytes of the final (primary) block's response. Disconnect runs
// on every exit path.
func (t *BLETransport) Exchange(ctx context.Context, blocks [][]byte) ([]byte, error) {
	addr, err := t.scan(ctx)
	if err != nil {
		return nil, err
	}

	session, err := t.connect(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if derr := session.Disconnect(); derr != nil {
			t.logger.WithError(derr).Warn("transport: disconnect after exchange failed")
		}
	}()

	if err := session.DiscoverService(ServiceUUID); err != nil {
		return nil, err
	}
	if err := session.DiscoverCharacteristics(WriteUUID, NotifyUUID); err != nil {
		return nil, err
	}

	notifyCh, err := session.Subscribe(ctx)
	if err != nil {
		return nil, errs.Wrap(component, errs.KindTransportError, "subscribe failed", err)
	}

	var last []byte
	for i, block := range blocks {
		if err := session.WriteBlock(ctx, block); err != nil {
			return nil, errs.Wrap(component, errs.KindTransportError, "write block failed", err)
		}

		resp, err := t.awaitNotification(ctx, notifyCh)
		if err != nil {
			return nil, err
		}

		if _, derr := frame.DecodeResponse(resp); derr != nil {
			return nil, derr
		}

		last = resp
		t.logger.WithFields(logrus.Fields{"block": i, "bytes": len(block)}).Debug("transport: block exchanged")
	}

	return last, nil
}

func (t *BLETransport) scan(ctx context.Context) (string, error) {
	addr, err := t.dialer.Scan(ctx, t.cfg.DeviceName, ServiceUUID, t.cfg.ScanTimeout)
	if err != nil {
		return "", errs.Wrap(component, errs.KindPeripheralNotFound, "scan failed", err)
	}
	return addr, nil
}

func (t *BLETransport) connect(ctx context.Context, addr string) (Session, error) {
	session, err := t.dialer.Connect(ctx, addr, t.cfg.ConnectTimeout)
	if err != nil {
		return nil, errs.Wrap(component, errs.KindTransportError, "connect failed", err)
	}
	return session, nil
}

func (t *BLETransport) awaitNotification(ctx context.Context, ch <-chan []byte) ([]byte, error) {
	timeout := t.cfg.NotifyTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().NotifyTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, errs.New(component, errs.KindTransportError, "notification channel closed")
		}
		return resp, nil
	case <-timer.C:
		return nil, errs.New(component, errs.KindTransportError, "timed out waiting for notification")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
