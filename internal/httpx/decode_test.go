package httpx

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sundayezeilo/linkshort/internal/errx"
)

type linkBody struct {
	URL     string `json:"url"`
	UserKey string `json:"userKey"`
	Tags    int    `json:"tags"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     bool
		errContains string
		validate    func(*testing.T, linkBody)
	}{
		{
			name:        "valid JSON",
			body:        `{"url":"https://example.com/a","userKey":"alice"}`,
			contentType: "application/json",
			validate: func(t *testing.T, b linkBody) {
				if b.URL != "https://example.com/a" {
					t.Errorf("URL = %q", b.URL)
				}
				if b.UserKey != "alice" {
					t.Errorf("UserKey = %q", b.UserKey)
				}
			},
		},
		{
			name:        "content type with charset",
			body:        `{"url":"https://example.com"}`,
			contentType: "application/json; charset=utf-8",
		},
		{
			name: "missing content type is accepted",
			body: `{"url":"https://example.com"}`,
		},
		{
			name:        "wrong content type",
			body:        `{"url":"https://example.com"}`,
			contentType: "text/plain",
			wantErr:     true,
			errContains: "unsupported content type",
		},
		{
			name:        "empty body",
			body:        "",
			contentType: "application/json",
			wantErr:     true,
			errContains: "request body is empty",
		},
		{
			name:        "malformed JSON",
			body:        `{"url":"https://example.com,"userKey":"alice"}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "malformed JSON",
		},
		{
			name:        "truncated JSON",
			body:        `{"url":"https://example.com"`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "malformed JSON",
		},
		{
			name:        "unknown field",
			body:        `{"url":"https://example.com","slug":"mine"}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "unknown field",
		},
		{
			name:        "wrong type for field",
			body:        `{"url":"https://example.com","tags":"many"}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: `invalid value for field "tags"`,
		},
		{
			name:        "two objects",
			body:        `{"url":"https://a.example"}{"url":"https://b.example"}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "single JSON object",
		},
		{
			name:        "trailing garbage",
			body:        `{"url":"https://a.example"}extra`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "single JSON object",
		},
		{
			name:        "trailing whitespace is fine",
			body:        "{\"url\":\"https://a.example\"}\n  \n",
			contentType: "application/json",
		},
		{
			name:        "body too large",
			body:        `{"url":"https://example.com/` + strings.Repeat("x", MaxRequestBodySize) + `"}`,
			contentType: "application/json",
			wantErr:     true,
			errContains: "request body too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/links", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := httptest.NewRecorder()

			result, err := DecodeJSON[linkBody](rr, req)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errx.Is(err, errx.Invalid) {
					t.Errorf("expected Invalid kind, got %v", errx.KindOf(err))
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error to contain %q, got %q", tt.errContains, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, result)
			}
		})
	}
}

func TestDecodeJSON_ZeroValueOnError(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/links", strings.NewReader("not json"))

	result, err := DecodeJSON[linkBody](httptest.NewRecorder(), req)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if result != (linkBody{}) {
		t.Errorf("expected zero value on error, got %+v", result)
	}
}

func TestDecodeJSON_ClosesBody(t *testing.T) {
	body := &testReadCloser{
		Reader: strings.NewReader(`{"url":"https://example.com","userKey":"bob"}`),
	}
	req := httptest.NewRequest("POST", "/api/links", body)

	if _, err := DecodeJSON[linkBody](httptest.NewRecorder(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !body.closed {
		t.Error("expected body to be closed")
	}
}

func TestDecodeJSON_PublicMessage(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/links", strings.NewReader(""))

	_, err := DecodeJSON[linkBody](httptest.NewRecorder(), req)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	// The op prefix stays in logs, not in the client message.
	if got := PublicMessage(err); got != "request body is empty" {
		t.Errorf("PublicMessage() = %q", got)
	}
}

// testReadCloser helps verify that body is closed
type testReadCloser struct {
	io.Reader
	closed bool
}

func (t *testReadCloser) Close() error {
	t.closed = true
	return nil
}
