package shortener

import (
	"time"

	"github.com/google/uuid"
)

// Link maps a short code to the URL it was generated from. Links are never
// updated or deleted once created.
type Link struct {
	ID          uuid.UUID
	ShortCode   string
	OriginalURL string
	OwnerID     uuid.UUID
	CreatedAt   time.Time
}

// User owns links. UserKey is an opaque token issued by the caller; no
// authentication is implied.
type User struct {
	ID      uuid.UUID
	UserKey string
}

// Click is one successful redirect through a link.
type Click struct {
	ID        uuid.UUID
	LinkID    uuid.UUID
	Timestamp time.Time
}

// LinkStats is a link together with the number of clicks it had at query time.
type LinkStats struct {
	Link
	ClickCount int64
}

// LinkSummary is the listing view of a link, ready to be serialized.
type LinkSummary struct {
	ShortLink    string `json:"shortLink"`
	OriginalLink string `json:"originalLink"`
	CreationDate string `json:"creationDate"`
	Count        string `json:"count"`
}
