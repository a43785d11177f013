package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField    = errors.New("missing field")
	ErrFieldTooLong    = errors.New("field too long")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrUnknownRoom     = errors.New("unknown room")
)

// FieldError names the request field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

func missing(field string) error { return &FieldError{Field: field, Err: ErrMissingField} }

func tooLong(field string) error { return &FieldError{Field: field, Err: ErrFieldTooLong} }
