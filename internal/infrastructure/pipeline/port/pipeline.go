package port

import (
	"context"
	"errors"
	"fmt"
)

// Request is one translation hand-off. Exactly one of AudioURL/Text is set,
// matching the message kind. Kind selects the worker route ("stm" or "mts").
type Request struct {
	MessageID  string
	Kind       string
	AudioURL   string
	Text       string
	SourceLang string
	TargetLang string
}

// ErrUnavailable signals the pipeline could not be reached or answered
// malformed. Retryable; never surfaced to end users as a hard error.
var ErrUnavailable = errors.New("pipeline: unavailable")

// RejectionError signals the pipeline explicitly refused the content
// (e.g. unintelligible audio). Terminal for the message unless retried
// explicitly.
type RejectionError struct {
	StatusCode int
	Detail     string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("pipeline: rejected (%d): %s", e.StatusCode, e.Detail)
}

// Client hands a message off to an external translation worker.
// Dispatch returns a correlation id once the worker accepts the job; the
// translated content comes back asynchronously via a store update.
type Client interface {
	Dispatch(ctx context.Context, req Request) (correlationID string, err error)
}
