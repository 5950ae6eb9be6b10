// Package errs defines the typed error taxonomy shared by every core
// component of the HSM proxy. Every error carries the originating
// component name and, where applicable, the underlying cause so the
// chain survives errors.Is / errors.As across package boundaries.
package errs

import "fmt"

// Kind identifies one of the error categories the proxy can surface.
type Kind string

const (
	KindInvalidState            Kind = "invalid_state"
	KindPeripheralNotFound      Kind = "peripheral_not_found"
	KindServiceMissing          Kind = "service_missing"
	KindCharacteristicsMissing  Kind = "characteristics_missing"
	KindTransportError          Kind = "transport_error"
	KindBlockRejected           Kind = "block_rejected"
	KindRequestFailed           Kind = "request_failed"
	KindConfigStoreError        Kind = "config_store_error"
	KindInconsistentState       Kind = "inconsistent_state"
	KindArgumentTooLarge        Kind = "argument_too_large"
	KindUnexpected              Kind = "unexpected"
)

// Error is the concrete type behind every sentinel below. Component
// names the subsystem that raised it ("frame", "transport", "engine",
// "store", "controller"); Cause preserves the wrapped error, if any.
type Error struct {
	Kind      Kind
	Component string
	Msg       string
	Cause     error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %s: %v", e.Component, e.Kind, e.Msg, e.Cause)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Component, e.Kind, e.Msg)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Kind, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Component, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match by Kind, ignoring Component/Msg/Cause —
// mirrors device.ConnectionError.Is in the BLE CLI this was modeled on.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a component-scoped error of the given kind.
func New(component string, kind Kind, msg string) *Error {
	return &Error{Component: component, Kind: kind, Msg: msg}
}

// Wrap builds a component-scoped error of the given kind around cause.
func Wrap(component string, kind Kind, msg string, cause error) *Error {
	return &Error{Component: component, Kind: kind, Msg: msg, Cause: cause}
}

// Sentinels for errors.Is comparisons that don't need a component or message.
var (
	ErrInvalidState           = &Error{Kind: KindInvalidState}
	ErrPeripheralNotFound     = &Error{Kind: KindPeripheralNotFound}
	ErrServiceMissing         = &Error{Kind: KindServiceMissing}
	ErrCharacteristicsMissing = &Error{Kind: KindCharacteristicsMissing}
	ErrBlockRejected          = &Error{Kind: KindBlockRejected}
	ErrRequestFailed          = &Error{Kind: KindRequestFailed}
	ErrConfigStoreError       = &Error{Kind: KindConfigStoreError}
	ErrInconsistentState      = &Error{Kind: KindInconsistentState}
	ErrArgumentTooLarge       = &Error{Kind: KindArgumentTooLarge}
	ErrTransportError         = &Error{Kind: KindTransportError}
	ErrUnexpected             = &Error{Kind: KindUnexpected}
)
