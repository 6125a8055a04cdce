package utils

import (
	"context"
	"errors"
	"net"
	"syscall"

	"google.golang.org/api/googleapi"
)

type temporary interface{ Temporary() bool }

type temporaryError struct{ error }

func (temporaryError) Temporary() bool { return true }
func (e temporaryError) Unwrap() error { return e.error }

// MakeTemporary marks err as transient: the operation may be retried
func MakeTemporary(err error) error {
	if err == nil {
		return nil
	}
	return temporaryError{err}
}

// transientErrnos are the system errors worth a retry, whatever their own Temporary() says
var transientErrnos = map[syscall.Errno]struct{}{
	syscall.EIO:          {},
	syscall.EBUSY:        {},
	syscall.ECANCELED:    {},
	syscall.ECONNABORTED: {},
	syscall.ECONNRESET:   {},
	syscall.ENOMEM:       {},
	syscall.EPIPE:        {},
}

// Temporary inspects the chain of err and returns whether the failure is transient.
// A cancelled context is never transient.
func Temporary(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if _, ok := transientErrnos[errno]; ok {
			return true
		}
	}
	var marked temporary
	if errors.As(err, &marked) && marked.Temporary() {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500 && apiErr.Code < 600
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
