package domain

import (
	"errors"
	"fmt"
)

// Kind classifies errors that cross the service boundary.
type Kind int

const (
	// KindUnknown is reported for errors that carry no classification.
	KindUnknown Kind = iota
	// KindValidation - malformed, oversized or wrongly typed input
	KindValidation
	// KindStore - the object store rejected a non-upload operation
	KindStore
	// KindCatastrophic - the batch itself failed outside any single file
	KindCatastrophic
	// KindNotFound - the deletion target does not exist
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStore:
		return "store"
	case KindCatastrophic:
		return "catastrophic"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// InvalidFile names a staged file rejected by batch validation.
type InvalidFile struct {
	OriginalName string `json:"originalName"`
	Reason       string `json:"reason"`
}

// Error is a classified service error.
type Error struct {
	Kind    Kind
	Message string
	Invalid []InvalidFile
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error wrapping err.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
