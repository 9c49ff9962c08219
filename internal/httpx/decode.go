package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/sundayezeilo/linkshort/internal/errx"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (64KB).
	// Link requests carry a URL and a user key, nothing larger.
	MaxRequestBodySize = 64 << 10
)

// DecodeJSON decodes a single JSON object from the request body into T.
// Every failure is an errx.Invalid error whose message is safe to return to
// the client.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	const op = "httpx.DecodeJSON"
	var zero T

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return zero, errx.E(op, errx.Invalid, fmt.Errorf("unsupported content type %q", ct))
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	defer func() {
		_ = r.Body.Close()
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var v T
	if err := decoder.Decode(&v); err != nil {
		return zero, errx.E(op, errx.Invalid, decodeError(err))
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return zero, errx.E(op, errx.Invalid, errors.New("request body must contain a single JSON object"))
	}

	return v, nil
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var unmarshalErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("malformed JSON: unexpected end of body")
	case errors.As(err, &unmarshalErr):
		return fmt.Errorf("invalid value for field %q", unmarshalErr.Field)
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body too large (max %d bytes)", MaxRequestBodySize)
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	default:
		// DisallowUnknownFields reports `json: unknown field "x"`.
		return fmt.Errorf("invalid request body: %v", err)
	}
}
