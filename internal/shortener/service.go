package shortener

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sundayezeilo/linkshort/hashgen"
	"github.com/sundayezeilo/linkshort/internal/errx"
)

const (
	MaxShortCodeLength     = 64
	MaxURLLength           = 2048
	MaxUserKeyLength       = 128
	DefaultCodeMaxAttempts = 5

	lookupTimeout = 5 * time.Second

	// CreationDateLayout is the short general date/time form used in listings.
	CreationDateLayout = "1/2/2006 3:04 PM"
)

var errCodeAttemptsExhausted = errors.New("no free short code after retries")

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	OriginalURL string
	UserKey     string
}

// Stats groups the runtime counters reported on the health endpoint.
type Stats struct {
	Clicks *RecorderStats `json:"clicks,omitempty"`
	Cache  *CacheStats    `json:"cache,omitempty"`
}

// Service defines the link lifecycle operations.
type Service interface {
	// Create shortens req.OriginalURL on behalf of req.UserKey. Creating the
	// same URL twice for the same user returns the existing link.
	Create(ctx context.Context, req CreateLinkRequest) (Link, error)
	// GetAll lists the user's links newest first.
	GetAll(ctx context.Context, userKey string) ([]LinkSummary, error)
	// Get resolves shortCode and records a click. found is false, with a nil
	// error, when no link has the code.
	Get(ctx context.Context, shortCode string) (originalURL string, found bool, err error)
	Ping(ctx context.Context) error
	Stats() Stats
	// Close releases the recorder, cache and repository, in that order. If the
	// recorder is still flushing when ctx ends, the repository is released once
	// it finishes.
	Close(ctx context.Context) error
}

type service struct {
	repo            Repository
	codes           hashgen.Generator
	codeMaxAttempts int
	recorder        ClickRecorder
	cache           Cache
	logger          *slog.Logger
	location        *time.Location
	now             func() time.Time

	flight    singleflight.Group
	closeOnce sync.Once
	closeErr  error
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	CodeGenerator   hashgen.Generator
	CodeMaxAttempts int           // attempts when the hashed code is taken (default: 5)
	Recorder        ClickRecorder // default: SyncRecorder over the repository
	Cache           Cache         // optional
	Logger          *slog.Logger
	Location        *time.Location // listing time zone (default: UTC)
	Now             func() time.Time
}

// NewService creates a new service instance. The service takes ownership of
// repo, the recorder and the cache.
func NewService(repo Repository, config *ServiceConfig) (Service, error) {
	if repo == nil {
		return nil, errors.New("shortener: repository is required")
	}
	if config == nil {
		config = &ServiceConfig{}
	}

	codes := config.CodeGenerator
	if codes == nil {
		codes = hashgen.New(hashgen.DefaultLength)
	}
	attempts := config.CodeMaxAttempts
	if attempts <= 0 {
		attempts = DefaultCodeMaxAttempts
	}
	recorder := config.Recorder
	if recorder == nil {
		recorder = NewSyncRecorder(repo)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := config.Location
	if loc == nil {
		loc = time.UTC
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		repo:            repo,
		codes:           codes,
		codeMaxAttempts: attempts,
		recorder:        recorder,
		cache:           config.Cache,
		logger:          logger,
		location:        loc,
		now:             now,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	const op = "shortener.service.Create"

	if err := validateURL(req.OriginalURL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}
	if err := validateUserKey(req.UserKey); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	var created Link
	err := s.repo.InTx(ctx, func(st Stores) error {
		owner, err := st.UpsertUser(ctx, req.UserKey)
		if err != nil {
			return err
		}

		existing, err := st.GetLinkByOwnerAndURL(ctx, owner.ID, req.OriginalURL)
		if err == nil {
			created = existing
			return nil
		}
		if !errx.Is(err, errx.NotFound) {
			return err
		}

		createdAt := s.now()
		for attempt := range s.codeMaxAttempts {
			link, err := st.CreateLink(ctx, Link{
				ShortCode:   s.shortCode(req.OriginalURL, attempt),
				OriginalURL: req.OriginalURL,
				OwnerID:     owner.ID,
				CreatedAt:   createdAt,
			})
			if err == nil {
				created = link
				return nil
			}
			if !errx.Is(err, errx.Conflict) {
				return err
			}
			// A concurrent Create for the same owner and URL may have
			// committed since the lookup above.
			existing, err := st.GetLinkByOwnerAndURL(ctx, owner.ID, req.OriginalURL)
			if err == nil {
				created = existing
				return nil
			}
			if !errx.Is(err, errx.NotFound) {
				return err
			}
			s.logger.DebugContext(ctx, "short code taken, retrying with salt",
				"attempt", attempt+1,
				"original_url", req.OriginalURL,
			)
		}
		return errx.E("", errx.Conflict, errCodeAttemptsExhausted)
	})
	if err != nil {
		return Link{}, errx.Wrap(op, err)
	}

	s.cacheLink(ctx, created)
	return created, nil
}

func (s *service) GetAll(ctx context.Context, userKey string) ([]LinkSummary, error) {
	const op = "shortener.service.GetAll"

	if err := validateUserKey(userKey); err != nil {
		return nil, errx.E(op, errx.Invalid, err)
	}

	stats, err := s.repo.ListLinkStatsByUserKey(ctx, userKey)
	if err != nil {
		return nil, errx.Wrap(op, err)
	}

	slices.SortStableFunc(stats, func(a, b LinkStats) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	summaries := make([]LinkSummary, 0, len(stats))
	for _, st := range stats {
		summaries = append(summaries, LinkSummary{
			ShortLink:    st.ShortCode,
			OriginalLink: st.OriginalURL,
			CreationDate: st.CreatedAt.In(s.location).Format(CreationDateLayout),
			Count:        strconv.FormatInt(st.ClickCount, 10),
		})
	}
	return summaries, nil
}

func (s *service) Get(ctx context.Context, shortCode string) (string, bool, error) {
	const op = "shortener.service.Get"

	if err := validateShortCode(shortCode); err != nil {
		return "", false, errx.E(op, errx.Invalid, err)
	}

	link, err := s.resolve(ctx, shortCode)
	if errx.Is(err, errx.NotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errx.Wrap(op, err)
	}

	// The redirect does not depend on the click being stored.
	if err := s.recorder.Record(ctx, Click{LinkID: link.ID, Timestamp: s.now()}); err != nil {
		s.logger.WarnContext(ctx, "click not recorded",
			"short_code", shortCode,
			"link_id", link.ID.String(),
			"error", err.Error(),
		)
	}

	return link.OriginalURL, true, nil
}

// resolve looks the code up in the cache, then in the repository. Concurrent
// misses for the same code share one repository call.
func (s *service) resolve(ctx context.Context, shortCode string) (Link, error) {
	if s.cache != nil {
		link, ok, err := s.cache.Get(ctx, shortCode)
		if err != nil {
			s.logger.WarnContext(ctx, "cache lookup failed",
				"short_code", shortCode,
				"error", err.Error(),
			)
		} else if ok {
			return link, nil
		}
	}

	// The shared lookup is detached from the first caller so that one
	// cancelled request does not fail the others waiting on the same code.
	ch := s.flight.DoChan(shortCode, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		link, err := s.repo.GetLinkByShortCode(lookupCtx, shortCode)
		if err != nil {
			return Link{}, err
		}
		s.cacheLink(lookupCtx, link)
		return link, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Link{}, res.Err
		}
		return res.Val.(Link), nil
	case <-ctx.Done():
		return Link{}, errx.E("", errx.Unavailable, ctx.Err())
	}
}

func (s *service) cacheLink(ctx context.Context, link Link) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, link); err != nil {
		s.logger.WarnContext(ctx, "cache write failed",
			"short_code", link.ShortCode,
			"error", err.Error(),
		)
	}
}

// shortCode hashes the URL; later attempts salt it with the attempt number.
func (s *service) shortCode(originalURL string, attempt int) string {
	if attempt == 0 {
		return s.codes.Hash(originalURL)
	}
	return s.codes.Hash(originalURL + "#" + strconv.Itoa(attempt))
}

func (s *service) Ping(ctx context.Context) error {
	const op = "shortener.service.Ping"

	if err := s.repo.Ping(ctx); err != nil {
		return errx.Wrap(op, err)
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			return errx.E(op, errx.Unavailable, err)
		}
	}
	return nil
}

// Stats reports click recorder and cache counters. Sections whose component
// does not keep counters are nil.
func (s *service) Stats() Stats {
	var st Stats
	if r, ok := s.recorder.(interface{ stats() RecorderStats }); ok {
		rs := r.stats()
		st.Clicks = &rs
	}
	if c, ok := s.cache.(interface{ stats() CacheStats }); ok {
		cs := c.stats()
		st.Cache = &cs
	}
	return st
}

func (s *service) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		var errs []error
		recErr := s.recorder.Close(ctx)
		if recErr != nil {
			errs = append(errs, recErr)
		}
		if s.cache != nil {
			if err := s.cache.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		// Workers still flushing after ctx ended keep the pool until they exit.
		if w, ok := s.recorder.(interface{ done() <-chan struct{} }); ok && recErr != nil {
			s.logger.WarnContext(ctx, "click recorder still flushing, deferring repository close",
				"error", recErr.Error(),
			)
			go func() {
				<-w.done()
				s.repo.Close()
			}()
		} else {
			s.repo.Close()
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return errors.New("url too long (max 2048 characters)")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsedURL.Scheme == "" {
		return errors.New("url must include scheme (http or https)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}

func validateUserKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("user key cannot be empty")
	}
	if len(key) > MaxUserKeyLength {
		return errors.New("user key too long (max 128 characters)")
	}
	return nil
}

func validateShortCode(code string) error {
	if code == "" {
		return errors.New("short code cannot be empty")
	}
	if len(code) > MaxShortCodeLength {
		return errors.New("short code too long (max 64 characters)")
	}
	return nil
}
