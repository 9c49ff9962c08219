package shortener

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/linkshort/internal/errx"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var errShortCodeTaken = errors.New("short code already taken")

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	return pgErr.Code
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)
	case isUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)
	case pgErrorCode(err) == pgForeignKeyViolation:
		return errx.E(op, errx.Internal, err)
	default:
		return errx.E(op, errx.Unavailable, err)
	}
}
