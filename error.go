package sayit

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// General errors.
const (
	ErrInternal            = Error("internal error")
	ErrTextRequired        = Error("text required")
	ErrUnknownLanguage     = Error("unknown language")
	ErrLanguageRejected    = Error("language rejected by provider")
	ErrProviderUnavailable = Error("provider unavailable")
	ErrNoAudio             = Error("provider returned no audio")
)

// Error represents a sayit error.
type Error string

// Error returns the error as a string.
func (e Error) Error() string { return string(e) }

// ErrorKind classifies a failed conversion.
type ErrorKind int

// Error kinds.
const (
	UnknownFailure ErrorKind = iota
	EmptyInput
	InvalidLanguage
	ProviderUnavailable
)

// String returns the wire name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case EmptyInput:
		return "empty_input"
	case InvalidLanguage:
		return "invalid_language"
	case ProviderUnavailable:
		return "provider_unavailable"
	default:
		return "unknown_failure"
	}
}

// Failure is the result of a conversion that did not produce audio.
// Message is safe to show to the end user.
type Failure struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error returns the user-facing message.
func (f *Failure) Error() string { return f.Message }

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error { return f.Err }

// Warning returns true if the failure is a local input notice rather than an error.
func (f *Failure) Warning() bool { return f.Kind == EmptyInput }

// ErrorKindOf returns the kind of err. Unclassified errors are UnknownFailure.
func ErrorKindOf(err error) ErrorKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return classify(err)
}

// NewFailure classifies err and wraps it in a Failure with a user-facing message.
// Returns nil if err is nil. An existing Failure is returned as-is.
func NewFailure(err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	kind := classify(err)
	return &Failure{Kind: kind, Message: failureMessage(kind, err), Err: err}
}

// classify maps a provider or lookup error to an error kind.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrTextRequired):
		return EmptyInput
	case errors.Is(err, ErrUnknownLanguage), errors.Is(err, ErrLanguageRejected):
		return InvalidLanguage
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ProviderUnavailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ProviderUnavailable
	}
	return UnknownFailure
}

func failureMessage(kind ErrorKind, err error) string {
	switch kind {
	case EmptyInput:
		return "Please enter some text."
	case InvalidLanguage:
		return fmt.Sprintf("Language not supported or invalid input: %s", err)
	case ProviderUnavailable:
		if err == nil || err.Error() == "" {
			return "Text-to-speech service unavailable."
		}
		return fmt.Sprintf("Text-to-speech service unavailable: %s", err)
	default:
		if err == nil || err.Error() == "" {
			return "Something went wrong."
		}
		return fmt.Sprintf("Something went wrong: %s", err)
	}
}
