package main

import (
	"errors"

	"github.com/craterdog-bali/go-hsm-proxy/internal/errs"
)

// FormatUserError renders err the way a human expects to read it at a
// terminal: typed proxy errors get their Kind spelled out plainly,
// everything else falls back to err.Error().
func FormatUserError(err error) string {
	var e *errs.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case errs.KindPeripheralNotFound:
			return "no HSM peripheral found; is it powered on and in range?"
		case errs.KindInconsistentState:
			return "the HSM and the local record have diverged; run 'hsmproxy erase' to recover: " + e.Error()
		case errs.KindInvalidState:
			return "operation not valid in the current key state: " + e.Error()
		default:
			return e.Error()
		}
	}
	return err.Error()
}
