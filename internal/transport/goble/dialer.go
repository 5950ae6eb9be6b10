// Package goble adapts the abstract transport.Dialer/transport.Session
// contract onto github.com/go-ble/ble, the BLE stack the teacher CLI
// (srg/blim) is built on. Each Scan builds a fresh ble.Device through
// DeviceFactory and installs it as go-ble's default device; devices are
// not shared between scans, and access to them is not serialized.
package goble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
	"github.com/sirupsen/logrus"

	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
	"github.com/craterdog-bali/go-hsm-proxy/internal/transport"
)

const component = "transport.goble"

// DeviceFactory creates the platform ble.Device. It is a package-level
// variable, exactly like srg/blim's internal/device/go-ble.DeviceFactory,
// so tests can substitute a fake device without touching real hardware.
var DeviceFactory = func() (ble.Device, error) {
	return darwin.NewDevice()
}

// Dialer implements transport.Dialer against a real BLE adapter.
type Dialer struct {
	logger *logrus.Logger
}

// NewDialer constructs a Dialer. A nil logger falls back to logrus.New().
func NewDialer(logger *logrus.Logger) *Dialer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dialer{logger: logger}
}

// Scan implements transport.Dialer. It stops on the first advertisement
// whose local name matches deviceName and whose service list contains
// serviceUUID, per spec §4.2 step 1.
func (d *Dialer) Scan(ctx context.Context, deviceName, serviceUUID string, timeout time.Duration) (string, error) {
	dev, err := DeviceFactory()
	if err != nil {
		return "", NormalizeError(err)
	}
	ble.SetDefaultDevice(dev)

	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	want := ble.MustParse(serviceUUID)

	var found string
	handler := func(adv ble.Advertisement) {
		if found != "" {
			return
		}
		if adv.LocalName() != deviceName {
			return
		}
		for _, uuid := range adv.Services() {
			if uuid.Equal(want) {
				found = adv.Addr().String()
				cancel()
				return
			}
		}
	}

	err = dev.Scan(scanCtx, false, handler)
	if found == "" {
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return "", NormalizeError(err)
		}
		return "", errs.New(component, errs.KindPeripheralNotFound,
			fmt.Sprintf("no peripheral named %q advertising %s", deviceName, serviceUUID))
	}

	d.logger.WithFields(logrus.Fields{"device": deviceName, "address": found}).Debug("goble: scan matched peripheral")
	return found, nil
}

// Connect implements transport.Dialer.
func (d *Dialer) Connect(ctx context.Context, addr string, timeout time.Duration) (transport.Session, error) {
	connCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(addr))
	if err != nil {
		return nil, NormalizeError(err)
	}

	return &session{client: client, logger: d.logger}, nil
}

// containsIgnoreCase checks the substring case-insensitively, as the
// teacher's internal/device/go-ble.NormalizeError does.
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// NormalizeError maps known go-ble error strings onto this module's
// typed errs.Error kinds, the same way srg/blim's
// internal/device/go-ble.NormalizeError maps them onto device.ConnectionError.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(component, errs.KindPeripheralNotFound, "timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "bluetooth is turned off"), containsIgnoreCase(msg, "invalid state"):
		return errs.Wrap(component, errs.KindTransportError, "bluetooth adapter unavailable", err)
	case containsIgnoreCase(msg, "device not connected"), containsIgnoreCase(msg, "disconnected"):
		return errs.Wrap(component, errs.KindTransportError, "device not connected", err)
	default:
		return errs.Wrap(component, errs.KindTransportError, "ble operation failed", err)
	}
}
