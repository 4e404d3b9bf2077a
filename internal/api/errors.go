package api

import (
	"errors"
	"fmt"
)

// Kind classifies a backend failure. Every Client method converts transport
// and protocol errors into exactly one kind before returning; callers never
// see a raw *url.Error or status code.
type Kind string

const (
	KindConnectivity Kind = "connectivity" // backend unreachable
	KindAuth         Kind = "auth"         // login/restore rejected
	KindFetch        Kind = "fetch"        // catalog, menu, history reads
	KindSubmission   Kind = "submission"   // order creation
)

// Error wraps a failed backend call with its kind and operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a client error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}
