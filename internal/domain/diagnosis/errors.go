package diagnosis

import (
	"errors"
	"fmt"
)

// Kind tags every failure the pipeline can surface.
type Kind string

const (
	KindConfiguration    Kind = "ConfigurationError"
	KindMethodNotAllowed Kind = "MethodNotAllowed"
	KindInvalidRequest   Kind = "InvalidRequest"
	KindModel            Kind = "ModelError"
	KindExtraction       Kind = "ExtractionError"
	KindValidation       Kind = "ValidationError"
)

// Error is the single error type crossing module boundaries.
type Error struct {
	Kind   Kind
	Detail string
	// ProviderType and Status are filled for ModelError when the provider reports them.
	ProviderType string
	Status       int
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Details is the human readable part shown to callers.
func (e *Error) Details() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindModel}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Detail == "" || t.Detail == e.Detail)
}

func ConfigurationError(detail string) *Error {
	return &Error{Kind: KindConfiguration, Detail: detail}
}

func MethodNotAllowed(method string) *Error {
	return &Error{Kind: KindMethodNotAllowed, Detail: "method " + method + " not allowed"}
}

func InvalidRequest(detail string) *Error {
	return &Error{Kind: KindInvalidRequest, Detail: detail}
}

func ModelError(detail string, err error) *Error {
	return &Error{Kind: KindModel, Detail: detail, Err: err}
}

func ExtractionError(err error) *Error {
	return &Error{Kind: KindExtraction, Detail: "no JSON recoverable from model output", Err: err}
}

func ValidationError(detail string, err error) *Error {
	return &Error{Kind: KindValidation, Detail: detail, Err: err}
}

// KindOf returns the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
