package shortener

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sundayezeilo/linkshort/internal/errx"
	"github.com/sundayezeilo/linkshort/internal/httpx"
)

// HTTPCreateLinkRequest represents the JSON request body for creating a link.
type HTTPCreateLinkRequest struct {
	URL     string `json:"url"`
	UserKey string `json:"userKey"`
}

// CreateLinkResponse represents the JSON response for a created link.
type CreateLinkResponse struct {
	ID           string `json:"id"`
	ShortLink    string `json:"shortLink"`
	OriginalLink string `json:"originalLink"`
	ShortURL     string `json:"shortUrl"`
	CreationDate string `json:"creationDate"`
	UserID       string `json:"userId"`
}

// Handler provides HTTP handlers for the link service.
type Handler struct {
	service Service
	logger  *slog.Logger
	baseURL string
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	BaseURL string // prefix for shortUrl, e.g. "https://sho.rt"
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// CreateLink handles POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](w, r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteErrorFrom(w, err)
		return
	}

	link, err := h.service.Create(ctx, CreateLinkRequest{
		OriginalURL: req.URL,
		UserKey:     req.UserKey,
	})
	if err != nil {
		h.handleError(ctx, logger, w, err, "create link failed")
		return
	}

	logger.InfoContext(ctx, "link created",
		"link_id", link.ID.String(),
		"short_code", link.ShortCode,
	)

	httpx.WriteJSON(w, http.StatusCreated, CreateLinkResponse{
		ID:           link.ID.String(),
		ShortLink:    link.ShortCode,
		OriginalLink: link.OriginalURL,
		ShortURL:     h.baseURL + "/" + link.ShortCode,
		CreationDate: link.CreatedAt.UTC().Format(time.RFC3339),
		UserID:       link.OwnerID.String(),
	})
}

// ListLinks handles GET /api/links?userKey= and GET /api/users/{userKey}/links.
// A user with no links gets an empty array.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	userKey := r.PathValue("userKey")
	if userKey == "" {
		userKey = r.URL.Query().Get("userKey")
	}

	summaries, err := h.service.GetAll(ctx, userKey)
	if err != nil {
		h.handleError(ctx, logger, w, err, "list links failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, summaries)
}

// Redirect handles GET /{code}: 302 to the original URL, or 404.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	code := r.PathValue("code")
	if code == "" {
		code = extractCodeFromPath(r.URL.Path)
	}

	originalURL, found, err := h.service.Get(ctx, code)
	if errx.Is(err, errx.Invalid) {
		// A malformed code cannot name a link.
		found, err = false, nil
	}
	if err != nil {
		h.handleError(ctx, logger, w, err, "resolve link failed", "short_code", code)
		return
	}
	if !found {
		logger.InfoContext(ctx, "short code not found", "short_code", code)
		httpx.WriteError(w, http.StatusNotFound, "not_found", "short link doesn't exist", nil)
		return
	}

	logger.DebugContext(ctx, "redirecting",
		"short_code", code,
		"referer", r.Referer(),
	)
	httpx.Redirect(w, r, originalURL, http.StatusFound)
}

// handleError logs err at a level that matches its kind and writes the
// mapped JSON error.
func (h *Handler) handleError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, msg string, attrs ...any) {
	kind := errx.KindOf(err)
	attrs = append(attrs,
		"error", err.Error(),
		"error_kind", kind.String(),
		"operation", errx.OpOf(err),
	)

	switch kind {
	case errx.Invalid, errx.NotFound, errx.Conflict:
		logger.WarnContext(ctx, msg, attrs...)
	default:
		logger.ErrorContext(ctx, msg, attrs...)
	}

	httpx.WriteErrorFrom(w, err)
}

// extractCodeFromPath returns the last path segment, so "/Ab3dE9x" and
// "/s/Ab3dE9x" both yield "Ab3dE9x".
func extractCodeFromPath(path string) string {
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
