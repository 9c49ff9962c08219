package httpx

import (
	"errors"
	"net/http"

	"github.com/sundayezeilo/linkshort/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Conflict:
		return http.StatusConflict
	case errx.Invalid:
		return http.StatusBadRequest
	case errx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
func ErrorKindToCode(kind errx.Kind) string {
	switch kind {
	case errx.NotFound:
		return "not_found"
	case errx.Conflict:
		return "conflict"
	case errx.Invalid:
		return "invalid_input"
	case errx.Unavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}

// PublicMessage returns the message a client may see for err. Invalid input
// errors expose their innermost cause; everything else gets a generic text
// so that storage details never leak.
func PublicMessage(err error) string {
	kind := errx.KindOf(err)
	switch kind {
	case errx.Invalid:
		return rootCause(err).Error()
	case errx.NotFound:
		return "resource not found"
	case errx.Conflict:
		return "resource already exists"
	case errx.Unavailable:
		return "service temporarily unavailable"
	default:
		return "an unexpected error occurred"
	}
}

// WriteErrorFrom writes the JSON error response derived from err's kind.
func WriteErrorFrom(w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)
	WriteError(w, ErrorKindToStatus(kind), ErrorKindToCode(kind), PublicMessage(err), nil)
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
