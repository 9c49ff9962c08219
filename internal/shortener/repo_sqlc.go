package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/sundayezeilo/linkshort/internal/db/sqlc"
	"github.com/sundayezeilo/linkshort/internal/errx"
	"github.com/sundayezeilo/linkshort/internal/idgen"
)

// querier is an internal interface that abstracts *db.Queries
type querier interface {
	UpsertUser(ctx context.Context, arg db.UpsertUserParams) (db.User, error)
	CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error)
	GetLinkByShortCode(ctx context.Context, shortCode string) (db.Link, error)
	GetLinkByOwnerAndURL(ctx context.Context, arg db.GetLinkByOwnerAndURLParams) (db.Link, error)
	ListLinksWithClickCountByUserKey(ctx context.Context, userKey string) ([]db.ListLinksWithClickCountByUserKeyRow, error)
	CreateClick(ctx context.Context, arg db.CreateClickParams) (db.Click, error)
	CreateClicks(ctx context.Context, arg []db.CreateClicksParams) (int64, error)
}

// Pool is the part of *pgxpool.Pool the repository depends on.
type Pool interface {
	db.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type repo struct {
	q    querier
	ids  idgen.Generator
	pool Pool
}

// RepositoryConfig holds configuration for the repository
type RepositoryConfig struct {
	IDGenerator idgen.Generator
}

// NewRepository returns a Repository backed by pool. The repository owns the
// pool and closes it on Close.
func NewRepository(pool Pool, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	// UUID v7 keeps ids ordered by creation time.
	if config.IDGenerator == nil {
		config.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}

	return &repo{
		q:    db.New(pool),
		ids:  config.IDGenerator,
		pool: pool,
	}
}

func mustTime(ts pgtype.Timestamptz, field string) (time.Time, error) {
	if !ts.Valid {
		return time.Time{}, fmt.Errorf("%s unexpectedly NULL", field)
	}
	return ts.Time, nil
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func toDomainLink(x db.Link) (Link, error) {
	createdAt, err := mustTime(x.CreatedAt, "created_at")
	if err != nil {
		return Link{}, err
	}

	return Link{
		ID:          x.ID,
		ShortCode:   x.ShortCode,
		OriginalURL: x.OriginalUrl,
		OwnerID:     x.OwnerID,
		CreatedAt:   createdAt,
	}, nil
}

func toDomainClick(x db.Click) (Click, error) {
	ts, err := mustTime(x.ClickedAt, "clicked_at")
	if err != nil {
		return Click{}, err
	}
	return Click{ID: x.ID, LinkID: x.LinkID, Timestamp: ts}, nil
}

func (r *repo) newID(id uuid.UUID) (uuid.UUID, error) {
	if id != uuid.Nil {
		return id, nil
	}
	return r.ids.Generate()
}

func (r *repo) UpsertUser(ctx context.Context, userKey string) (User, error) {
	const op = "shortener.repo.UpsertUser"

	id, err := r.newID(uuid.Nil)
	if err != nil {
		return User{}, errx.E(op, errx.Unavailable, err)
	}

	row, err := r.q.UpsertUser(ctx, db.UpsertUserParams{ID: id, UserKey: userKey})
	if err != nil {
		return User{}, mapRepoError(op, err)
	}
	return User{ID: row.ID, UserKey: row.UserKey}, nil
}

func (r *repo) CreateLink(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.repo.CreateLink"

	id, err := r.newID(link.ID)
	if err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	row, err := r.q.CreateLink(ctx, db.CreateLinkParams{
		ID:          id,
		ShortCode:   link.ShortCode,
		OriginalUrl: link.OriginalURL,
		OwnerID:     link.OwnerID,
		CreatedAt:   timestamptz(link.CreatedAt),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		// ON CONFLICT DO NOTHING returns no row when the code is taken.
		return Link{}, errx.E(op, errx.Conflict, errShortCodeTaken)
	}
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	created, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return created, nil
}

func (r *repo) GetLinkByShortCode(ctx context.Context, shortCode string) (Link, error) {
	const op = "shortener.repo.GetLinkByShortCode"

	row, err := r.q.GetLinkByShortCode(ctx, shortCode)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	link, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (r *repo) GetLinkByOwnerAndURL(ctx context.Context, ownerID uuid.UUID, originalURL string) (Link, error) {
	const op = "shortener.repo.GetLinkByOwnerAndURL"

	row, err := r.q.GetLinkByOwnerAndURL(ctx, db.GetLinkByOwnerAndURLParams{
		OwnerID:     ownerID,
		OriginalUrl: originalURL,
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	link, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (r *repo) ListLinkStatsByUserKey(ctx context.Context, userKey string) ([]LinkStats, error) {
	const op = "shortener.repo.ListLinkStatsByUserKey"

	rows, err := r.q.ListLinksWithClickCountByUserKey(ctx, userKey)
	if err != nil {
		return nil, mapRepoError(op, err)
	}

	stats := make([]LinkStats, 0, len(rows))
	for _, row := range rows {
		createdAt, err := mustTime(row.CreatedAt, "created_at")
		if err != nil {
			return nil, errx.E(op, errx.Internal, err)
		}
		stats = append(stats, LinkStats{
			Link: Link{
				ID:          row.ID,
				ShortCode:   row.ShortCode,
				OriginalURL: row.OriginalUrl,
				OwnerID:     row.OwnerID,
				CreatedAt:   createdAt,
			},
			ClickCount: row.ClickCount,
		})
	}
	return stats, nil
}

func (r *repo) CreateClick(ctx context.Context, click Click) (Click, error) {
	const op = "shortener.repo.CreateClick"

	id, err := r.newID(click.ID)
	if err != nil {
		return Click{}, errx.E(op, errx.Unavailable, err)
	}
	if click.Timestamp.IsZero() {
		click.Timestamp = time.Now()
	}

	row, err := r.q.CreateClick(ctx, db.CreateClickParams{
		ID:        id,
		LinkID:    click.LinkID,
		ClickedAt: timestamptz(click.Timestamp),
	})
	if err != nil {
		return Click{}, mapRepoError(op, err)
	}

	created, err := toDomainClick(row)
	if err != nil {
		return Click{}, errx.E(op, errx.Internal, err)
	}
	return created, nil
}

func (r *repo) CreateClicks(ctx context.Context, clicks []Click) (int64, error) {
	const op = "shortener.repo.CreateClicks"

	if len(clicks) == 0 {
		return 0, nil
	}

	params := make([]db.CreateClicksParams, 0, len(clicks))
	for _, c := range clicks {
		id, err := r.newID(c.ID)
		if err != nil {
			return 0, errx.E(op, errx.Unavailable, err)
		}
		if c.Timestamp.IsZero() {
			c.Timestamp = time.Now()
		}
		params = append(params, db.CreateClicksParams{
			ID:        id,
			LinkID:    c.LinkID,
			ClickedAt: timestamptz(c.Timestamp),
		})
	}

	n, err := r.q.CreateClicks(ctx, params)
	if err != nil {
		return 0, mapRepoError(op, err)
	}
	return n, nil
}

func (r *repo) InTx(ctx context.Context, fn func(Stores) error) error {
	const op = "shortener.repo.InTx"

	if r.pool == nil {
		return errx.E(op, errx.Internal, errors.New("repository is not bound to a pool"))
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&repo{q: db.New(tx), ids: r.ids})
	})
	if err == nil {
		return nil
	}
	// Errors from fn already carry a kind; begin and commit failures do not.
	if errx.KindOf(err) == errx.Unknown {
		return errx.E(op, errx.Unavailable, err)
	}
	return err
}

func (r *repo) Ping(ctx context.Context) error {
	const op = "shortener.repo.Ping"

	if r.pool == nil {
		return nil
	}
	if err := r.pool.Ping(ctx); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

func (r *repo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}
