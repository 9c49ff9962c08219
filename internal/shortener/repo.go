package shortener

import (
	"context"

	"github.com/google/uuid"
)

// LinkStore persists links.
type LinkStore interface {
	// CreateLink inserts link. A short code that is already taken yields an
	// errx.Conflict error and leaves the store unchanged.
	CreateLink(ctx context.Context, link Link) (Link, error)
	// GetLinkByShortCode returns the most recently created link with the
	// code, or an errx.NotFound error.
	GetLinkByShortCode(ctx context.Context, shortCode string) (Link, error)
	GetLinkByOwnerAndURL(ctx context.Context, ownerID uuid.UUID, originalURL string) (Link, error)
	// ListLinkStatsByUserKey returns the user's links with click counts,
	// newest first. An unknown key yields an empty slice.
	ListLinkStatsByUserKey(ctx context.Context, userKey string) ([]LinkStats, error)
}

// UserStore persists users.
type UserStore interface {
	// UpsertUser returns the user with userKey, creating it atomically when
	// the key has not been seen before.
	UpsertUser(ctx context.Context, userKey string) (User, error)
}

// ClickStore persists clicks.
type ClickStore interface {
	CreateClick(ctx context.Context, click Click) (Click, error)
	CreateClicks(ctx context.Context, clicks []Click) (int64, error)
}

// Stores groups the three stores so they can be bound to one transaction.
type Stores interface {
	LinkStore
	UserStore
	ClickStore
}

// Repository is the persistence collaborator of the Service. It owns the
// underlying connection pool and releases it on Close.
type Repository interface {
	Stores
	// InTx runs fn with stores bound to a single transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Stores) error) error
	Ping(ctx context.Context) error
	Close()
}
