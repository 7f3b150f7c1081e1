package analyses

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why an analysis did not complete.
type ErrorKind string

const (
	KindValidationFailed       ErrorKind = "validation_failed"
	KindExtractionFailed       ErrorKind = "extraction_failed"
	KindUpstream               ErrorKind = "upstream_error"
	KindSchemaValidationFailed ErrorKind = "schema_validation_failed"
)

var (
	ErrValidationFailed       = errors.New("validation failed")
	ErrExtractionFailed       = errors.New("extraction failed")
	ErrUpstream               = errors.New("upstream error")
	ErrSchemaValidationFailed = errors.New("schema validation failed")
)

var kindSentinels = map[ErrorKind]error{
	KindValidationFailed:       ErrValidationFailed,
	KindExtractionFailed:       ErrExtractionFailed,
	KindUpstream:               ErrUpstream,
	KindSchemaValidationFailed: ErrSchemaValidationFailed,
}

// Error is the typed failure returned by every analysis stage. Field names the offending
// input or result path when one applies.
type Error struct {
	Kind  ErrorKind
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

func validationError(field, msg string) *Error {
	return &Error{Kind: KindValidationFailed, Field: field, Msg: msg}
}

func schemaError(field, msg string) *Error {
	return &Error{Kind: KindSchemaValidationFailed, Field: field, Msg: msg}
}

// KindOf returns the kind of an analysis error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

const maxErrorDetail = 500

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	return truncate(msg, maxErrorDetail)
}
