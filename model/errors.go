package model

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a backend failure for retry purposes.
type ErrorKind int

const (
	// KindPermanent marks failures that will not succeed on retry:
	// authentication, quota, malformed requests.
	KindPermanent ErrorKind = iota
	// KindTransient marks failures worth retrying with backoff: network
	// errors, timeouts, rate limits, provider 5xx responses.
	KindTransient
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	if k == KindTransient {
		return "transient"
	}
	return "permanent"
}

// BackendError wraps a failed Infer call with its retry classification and
// the operation that produced it.
type BackendError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable BackendError.
func Transient(op string, err error) error {
	return &BackendError{Kind: KindTransient, Op: op, Err: err}
}

// Permanent wraps err as a non-retryable BackendError.
func Permanent(op string, err error) error {
	return &BackendError{Kind: KindPermanent, Op: op, Err: err}
}

// IsTransient reports whether err is a BackendError eligible for retry.
func IsTransient(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Kind == KindTransient
}

// ClassifyStatus wraps err according to the provider HTTP status code:
// 408, 429 and 5xx are transient, everything else permanent.
func ClassifyStatus(op string, status int, err error) error {
	if status == 408 || status == 429 || status >= 500 {
		return Transient(op, err)
	}
	return Permanent(op, err)
}

// Classify wraps an arbitrary transport error. Context deadline expiry and
// net errors that report a timeout are transient; a cancelled context is
// passed through untouched so cancellation stays distinguishable upstream.
func Classify(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Transient(op, err)
	}
	return Permanent(op, err)
}
