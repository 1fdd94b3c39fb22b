package ai

import (
	"context"
	"errors"
	"fmt"
)

// Request is a single text-completion call.
type Request struct {
	System          string
	Prompt          string
	Temperature     float32
	MaxOutputTokens int
}

// Completer performs one attempt against a generative model provider.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Provider() string
	Model() string
}

// ErrEmptyResponse is reported when the provider answers without any text.
var ErrEmptyResponse = errors.New("model returned empty response")

// GatewayError is returned once every attempt has failed.
type GatewayError struct {
	Attempts int
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("llm gateway failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying (bad request, bad credentials).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
