package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the interactive loop.
type ErrorKind string

const (
	KindUnknown         ErrorKind = "unknown"
	KindConnection      ErrorKind = "connection"
	KindDelivery        ErrorKind = "delivery"
	KindDocumentService ErrorKind = "document_service"
	KindGeneration      ErrorKind = "generation"
	KindValidation      ErrorKind = "validation"
	KindConfiguration   ErrorKind = "configuration"
)

var (
	ErrNonPositiveCount  = errors.New("count must be a positive number")
	ErrEmptyKeyword      = errors.New("keyword is empty")
	ErrEmptyPrompt       = errors.New("prompt is empty")
	ErrMissingCredential = errors.New("missing credential")
)

// Error is a classified failure of one remote or validation step.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and the operation that failed. A nil err yields nil.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of the outermost classified error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
