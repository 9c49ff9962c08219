package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkshort/internal/errx"
	"github.com/sundayezeilo/linkshort/internal/httpx"
)

/***************
 * Mocks
 ***************/

// mockService implements Service for testing.
type mockService struct {
	createFunc func(ctx context.Context, req CreateLinkRequest) (Link, error)
	getAllFunc func(ctx context.Context, userKey string) ([]LinkSummary, error)
	getFunc    func(ctx context.Context, shortCode string) (string, bool, error)
}

func (m *mockService) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return Link{}, nil
}

func (m *mockService) GetAll(ctx context.Context, userKey string) ([]LinkSummary, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, userKey)
	}
	return []LinkSummary{}, nil
}

func (m *mockService) Get(ctx context.Context, shortCode string) (string, bool, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, shortCode)
	}
	return "", false, nil
}

func (m *mockService) Ping(context.Context) error { return nil }

func (m *mockService) Stats() Stats { return Stats{} }

func (m *mockService) Close(context.Context) error { return nil }

func newTestHandler(svc Service) *Handler {
	return NewHandler(HandlerConfig{Service: svc, BaseURL: "https://sho.rt/"})
}

func decodeErrorBody(t *testing.T, rr *httptest.ResponseRecorder) httpx.ErrorResponse {
	t.Helper()
	var resp httpx.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v: %s", err, rr.Body.String())
	}
	return resp
}

/***************
 * CreateLink Tests
 ***************/

func TestHandler_CreateLink(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	link := Link{
		ID:          uuid.New(),
		ShortCode:   "Ab3dE9x",
		OriginalURL: "https://example.com/a",
		OwnerID:     uuid.New(),
		CreatedAt:   created,
	}

	var gotReq CreateLinkRequest
	h := newTestHandler(&mockService{
		createFunc: func(_ context.Context, req CreateLinkRequest) (Link, error) {
			gotReq = req
			return link, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/links",
		strings.NewReader(`{"url":"https://example.com/a","userKey":"U1"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.CreateLink(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body.String())
	}
	if gotReq != (CreateLinkRequest{OriginalURL: "https://example.com/a", UserKey: "U1"}) {
		t.Errorf("service request = %+v", gotReq)
	}

	var resp CreateLinkResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	want := CreateLinkResponse{
		ID:           link.ID.String(),
		ShortLink:    "Ab3dE9x",
		OriginalLink: "https://example.com/a",
		ShortURL:     "https://sho.rt/Ab3dE9x",
		CreationDate: "2025-03-14T09:26:53Z",
		UserID:       link.OwnerID.String(),
	}
	if resp != want {
		t.Errorf("response = %+v, want %+v", resp, want)
	}
}

func TestHandler_CreateLink_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "malformed body",
			body:       `{"url":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
		{
			name:       "unknown field",
			body:       `{"url":"https://example.com","custom_slug":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
		},
		{
			name:       "validation failure",
			body:       `{"url":"ftp://example.com","userKey":"U1"}`,
			svcErr:     errx.E("shortener.service.Create", errx.Invalid, errors.New("url scheme must be http or https")),
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_input",
			wantMsg:    "url scheme must be http or https",
		},
		{
			name:       "codes exhausted",
			body:       `{"url":"https://example.com","userKey":"U1"}`,
			svcErr:     errx.E("shortener.service.Create", errx.Conflict, errors.New("no free short code after retries")),
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
		{
			name:       "database down",
			body:       `{"url":"https://example.com","userKey":"U1"}`,
			svcErr:     errx.E("shortener.service.Create", errx.Unavailable, errors.New("dial tcp: refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "unavailable",
			wantMsg:    "service temporarily unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&mockService{
				createFunc: func(context.Context, CreateLinkRequest) (Link, error) {
					return Link{}, tt.svcErr
				},
			})

			rr := httptest.NewRecorder()
			h.CreateLink(rr, httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(tt.body)))

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			resp := decodeErrorBody(t, rr)
			if resp.Error != tt.wantCode {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantCode)
			}
			if tt.wantMsg != "" && resp.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMsg)
			}
		})
	}
}

/***************
 * ListLinks Tests
 ***************/

func TestHandler_ListLinks(t *testing.T) {
	summaries := []LinkSummary{
		{ShortLink: "b", OriginalLink: "https://b.example", CreationDate: "1/2/2025 5:04 PM", Count: "3"},
		{ShortLink: "a", OriginalLink: "https://a.example", CreationDate: "1/2/2025 3:04 PM", Count: "0"},
	}

	tests := []struct {
		name    string
		target  string
		pathKey string
		wantKey string
	}{
		{"query parameter", "/api/links?userKey=U1", "", "U1"},
		{"path value", "/api/users/U2/links", "U2", "U2"},
		{"path wins over query", "/api/users/U3/links?userKey=other", "U3", "U3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey string
			h := newTestHandler(&mockService{
				getAllFunc: func(_ context.Context, userKey string) ([]LinkSummary, error) {
					gotKey = userKey
					return summaries, nil
				},
			})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.pathKey != "" {
				req.SetPathValue("userKey", tt.pathKey)
			}
			rr := httptest.NewRecorder()
			h.ListLinks(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
			}
			if gotKey != tt.wantKey {
				t.Errorf("userKey = %q, want %q", gotKey, tt.wantKey)
			}

			var got []LinkSummary
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if len(got) != 2 || got[0] != summaries[0] || got[1] != summaries[1] {
				t.Errorf("body = %+v", got)
			}
		})
	}
}

func TestHandler_ListLinks_EmptyIsArray(t *testing.T) {
	h := newTestHandler(&mockService{})

	rr := httptest.NewRecorder()
	h.ListLinks(rr, httptest.NewRequest(http.MethodGet, "/api/links?userKey=nobody", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}

func TestHandler_ListLinks_MissingKey(t *testing.T) {
	h := newTestHandler(&mockService{
		getAllFunc: func(_ context.Context, userKey string) ([]LinkSummary, error) {
			if userKey != "" {
				t.Errorf("userKey = %q, want empty", userKey)
			}
			return nil, errx.E("shortener.service.GetAll", errx.Invalid, errors.New("user key cannot be empty"))
		},
	})

	rr := httptest.NewRecorder()
	h.ListLinks(rr, httptest.NewRequest(http.MethodGet, "/api/links", nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if resp := decodeErrorBody(t, rr); resp.Message != "user key cannot be empty" {
		t.Errorf("message = %q", resp.Message)
	}
}

/***************
 * Redirect Tests
 ***************/

func TestHandler_Redirect(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		pathCode     string
		getFunc      func(ctx context.Context, code string) (string, bool, error)
		wantStatus   int
		wantLocation string
		wantCode     string
	}{
		{
			name:     "found via path value",
			path:     "/Ab3dE9x",
			pathCode: "Ab3dE9x",
			getFunc: func(_ context.Context, code string) (string, bool, error) {
				if code != "Ab3dE9x" {
					return "", false, nil
				}
				return "https://example.com/a", true, nil
			},
			wantStatus:   http.StatusFound,
			wantLocation: "https://example.com/a",
		},
		{
			name: "found via path fallback",
			path: "/Ab3dE9x",
			getFunc: func(_ context.Context, code string) (string, bool, error) {
				if code != "Ab3dE9x" {
					return "", false, nil
				}
				return "https://example.com/a", true, nil
			},
			wantStatus:   http.StatusFound,
			wantLocation: "https://example.com/a",
		},
		{
			name: "unknown code",
			path: "/nope",
			getFunc: func(context.Context, string) (string, bool, error) {
				return "", false, nil
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name: "malformed code is not found",
			path: "/" + strings.Repeat("x", MaxShortCodeLength+1),
			getFunc: func(context.Context, string) (string, bool, error) {
				return "", false, errx.E("shortener.service.Get", errx.Invalid, errors.New("short code too long"))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name: "storage unavailable",
			path: "/Ab3dE9x",
			getFunc: func(context.Context, string) (string, bool, error) {
				return "", false, errx.E("shortener.service.Get", errx.Unavailable, errors.New("pool closed"))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&mockService{getFunc: tt.getFunc})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.pathCode != "" {
				req.SetPathValue("code", tt.pathCode)
			}
			rr := httptest.NewRecorder()
			h.Redirect(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" {
				if got := rr.Header().Get("Location"); got != tt.wantLocation {
					t.Errorf("Location = %q, want %q", got, tt.wantLocation)
				}
				if got := rr.Header().Get("Cache-Control"); got != "no-store" {
					t.Errorf("Cache-Control = %q", got)
				}
				return
			}
			if resp := decodeErrorBody(t, rr); resp.Error != tt.wantCode {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestExtractCodeFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/Ab3dE9x", "Ab3dE9x"},
		{"/s/Ab3dE9x", "Ab3dE9x"},
		{"/Ab3dE9x/", "Ab3dE9x"},
		{"Ab3dE9x", "Ab3dE9x"},
		{"/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := extractCodeFromPath(tt.path); got != tt.want {
				t.Errorf("extractCodeFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
