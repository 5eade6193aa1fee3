package sessions

import (
	"f1visualizer/pkg/provider"

	"github.com/pkg/errors"
)

var (
	// ErrDataUnavailable means the provider has nothing for the requested
	// season, event or session, e.g. a cancelled practice session.
	ErrDataUnavailable = errors.New("sessions: data unavailable")
	// ErrProviderIO means the provider could not be reached or answered badly.
	ErrProviderIO = errors.New("sessions: provider error")
)

type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindDataUnavailable ErrorKind = "data_unavailable"
	KindProviderIO      ErrorKind = "provider_io"
)

// classifiedError keeps the provider error as detail while answering Cause with
// one of the package sentinels.
type classifiedError struct {
	kind  error
	cause error
}

func (e *classifiedError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *classifiedError) Cause() error {
	return e.kind
}

func (e *classifiedError) Unwrap() error {
	return e.kind
}

// Classify converts any error coming from the provider or the resolver into
// ErrDataUnavailable or ErrProviderIO. Already classified errors are returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	switch errors.Cause(err) {
	case ErrDataUnavailable, ErrProviderIO:
		return err
	case provider.ErrNotFound:
		return &classifiedError{kind: ErrDataUnavailable, cause: err}
	}
	return &classifiedError{kind: ErrProviderIO, cause: err}
}

// Kind tells which kind of failure err is. Unclassified errors count as provider errors.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	switch errors.Cause(err) {
	case ErrDataUnavailable, provider.ErrNotFound:
		return KindDataUnavailable
	}
	return KindProviderIO
}
