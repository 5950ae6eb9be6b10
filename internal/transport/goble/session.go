package goble

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
)

// session implements transport.Session against one live ble.Client.
type session struct {
	client ble.Client
	logger *logrus.Logger

	service    *ble.Service
	writeChar  *ble.Characteristic
	notifyChar *ble.Characteristic
}

// DiscoverService implements transport.Session per spec §4.2 step 3:
// exactly one matching service is required.
func (s *session) DiscoverService(serviceUUID string) error {
	profile, err := s.client.DiscoverProfile(true)
	if err != nil {
		return NormalizeError(err)
	}

	want := ble.MustParse(serviceUUID)
	var matches []*ble.Service
	for _, svc := range profile.Services {
		if svc.UUID.Equal(want) {
			matches = append(matches, svc)
		}
	}

	if len(matches) != 1 {
		return errs.New(component, errs.KindServiceMissing, serviceUUID)
	}

	s.service = matches[0]
	return nil
}

// DiscoverCharacteristics implements transport.Session per spec §4.2 step 4.
func (s *session) DiscoverCharacteristics(writeUUID, notifyUUID string) error {
	if s.service == nil {
		return errs.New(component, errs.KindServiceMissing, "service not discovered")
	}

	wantWrite := ble.MustParse(writeUUID)
	wantNotify := ble.MustParse(notifyUUID)

	for _, c := range s.service.Characteristics {
		if c.UUID.Equal(wantWrite) {
			s.writeChar = c
		}
		if c.UUID.Equal(wantNotify) {
			s.notifyChar = c
		}
	}

	if s.writeChar == nil || s.notifyChar == nil {
		return errs.New(component, errs.KindCharacteristicsMissing, writeUUID+","+notifyUUID)
	}
	return nil
}

// Subscribe implements transport.Session per spec §4.2 step 5.
func (s *session) Subscribe(_ context.Context) (<-chan []byte, error) {
	ch := make(chan []byte, 1)
	err := s.client.Subscribe(s.notifyChar, false, func(data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)

		select {
		case ch <- cp:
		default:
			// Drop a stale notification rather than block the BLE stack's
			// delivery goroutine; the caller is only ever awaiting one at a time.
			<-ch
			ch <- cp
		}
	})
	if err != nil {
		return nil, NormalizeError(err)
	}
	return ch, nil
}

// WriteBlock implements transport.Session.
func (s *session) WriteBlock(_ context.Context, block []byte) error {
	if err := s.client.WriteCharacteristic(s.writeChar, block, false); err != nil {
		return NormalizeError(err)
	}
	return nil
}

// Disconnect implements transport.Session. It unsubscribes best-effort
// and always tears down the connection, matching the teacher's
// pkg/connection.Connection.Disconnect behavior.
func (s *session) Disconnect() error {
	if s.notifyChar != nil {
		if err := s.client.Unsubscribe(s.notifyChar, false); err != nil {
			s.logger.WithError(err).Debug("goble: unsubscribe on disconnect failed")
		}
	}
	if err := s.client.CancelConnection(); err != nil {
		return NormalizeError(err)
	}
	return nil
}
