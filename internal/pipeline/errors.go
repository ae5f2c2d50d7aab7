package pipeline

import (
	"errors"

	"github.com/user/nikki/internal/esa"
	"github.com/user/nikki/internal/slack"
)

// Kind classifies why a run failed.
type Kind string

const (
	// KindTransport covers failed calls, non-200 source statuses and bodies
	// that do not decode.
	KindTransport          Kind = "transport"
	KindSourceRejected     Kind = "source_rejected"
	KindMalformedTimestamp Kind = "malformed_timestamp"
	KindPublishRejected    Kind = "publish_rejected"
)

// Error is a failed run. Its message is the underlying error's message so
// remote error text is reported verbatim.
type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of a run error, or "" if err is not one.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func fetchError(err error) *Error {
	var rej *slack.RejectedError
	if errors.As(err, &rej) {
		return &Error{Kind: KindSourceRejected, Stage: "fetch", Err: err}
	}
	return &Error{Kind: KindTransport, Stage: "fetch", Err: err}
}

func publishError(err error) *Error {
	var rej *esa.RejectedError
	if errors.As(err, &rej) {
		return &Error{Kind: KindPublishRejected, Stage: "publish", Err: err}
	}
	return &Error{Kind: KindTransport, Stage: "publish", Err: err}
}
