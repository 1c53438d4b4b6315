package bgcache

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/swaggest/usecase/status"
)

// SentinelError is an error.
type SentinelError string

const (
	// ErrNotFound indicates missing store entry.
	ErrNotFound = SentinelError("missing cache item")

	// ErrNothingToInvalidate indicates no stores were registered for invalidation.
	ErrNothingToInvalidate = SentinelError("nothing to invalidate")

	// ErrAlreadyInvalidated indicates recent invalidation.
	ErrAlreadyInvalidated = SentinelError("already invalidated")
)

// Error implements error.
func (e SentinelError) Error() string {
	return string(e)
}

// DecodeError indicates a stored entry that is present but can not be decoded.
type DecodeError struct {
	Err error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return "decode cache entry: " + e.Err.Error()
}

// Unwrap returns underlying codec error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

type notFoundError struct {
	err error
}

func (e notFoundError) Error() string {
	return e.err.Error()
}

func (e notFoundError) Unwrap() error {
	return e.err
}

func (e notFoundError) Status() status.Code {
	return status.NotFound
}

// NotFound marks producer error as "upstream no longer has this key".
//
// Error message is kept intact.
func NotFound(err error) error {
	if err == nil {
		err = errors.New("not found")
	}

	return notFoundError{err: err}
}

// IsNotFound checks if error signals that the key is gone upstream.
//
// Recognized forms are errors with canonical status.NotFound (see github.com/swaggest/usecase/status),
// errors with StatusCode() of 404 and errors wrapping ErrNotFound.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var withStatus interface{ Status() status.Code }
	if errors.As(err, &withStatus) && withStatus.Status() == status.NotFound {
		return true
	}

	var withStatusCode interface{ StatusCode() int }
	if errors.As(err, &withStatusCode) && withStatusCode.StatusCode() == http.StatusNotFound {
		return true
	}

	return errors.Is(err, ErrNotFound)
}

// panicError is produced from a recovered producer panic.
type panicError struct {
	value interface{}
}

func (e panicError) Error() string {
	return fmt.Sprintf("producer panicked: %v", e.value)
}
