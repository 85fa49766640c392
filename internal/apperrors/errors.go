package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindMissingField      Kind = "missing_field"
	KindEmptyFilename     Kind = "empty_filename"
	KindBadExtension      Kind = "bad_extension"
	KindBadContentType    Kind = "bad_content_type"
	KindTooLarge          Kind = "too_large"
	KindDecodeError       Kind = "decode_error"
	KindMalformedJSON     Kind = "malformed_json"
	KindSchemaViolation   Kind = "schema_violation"
	KindStorageWriteError Kind = "storage_write_error"
	KindPersistenceError  Kind = "persistence_error"
	KindInternal          Kind = "internal"
)

// Error carries the kind of failure, the multipart field it concerns (if any)
// and a client-safe reason. Err holds the underlying cause for logging.
type Error struct {
	Kind   Kind
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, field, reason string) *Error {
	return &Error{Kind: kind, Field: field, Reason: reason}
}

func Newf(kind Kind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, field, reason string, err error) *Error {
	return &Error{Kind: kind, Field: field, Reason: reason, Err: err}
}

// KindOf reports the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindMissingField, KindEmptyFilename, KindBadExtension, KindBadContentType,
		KindMalformedJSON, KindSchemaViolation, KindDecodeError:
		return http.StatusBadRequest
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether the kind maps to a 4xx status.
func IsClientError(kind Kind) bool {
	status := HTTPStatus(kind)
	return status >= 400 && status < 500
}
