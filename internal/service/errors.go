package service

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why a fetch against the rate provider failed
type ErrorKind int

const (
	ErrorKindTransport ErrorKind = iota
	ErrorKindStatus
	ErrorKindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindTransport:
		return "transport"
	case ErrorKindStatus:
		return "status"
	case ErrorKindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError is returned by every failed provider call
type FetchError struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == ErrorKindStatus:
		return fmt.Sprintf("%s: provider returned status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of a FetchError anywhere in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Kind, true
	}
	return 0, false
}
