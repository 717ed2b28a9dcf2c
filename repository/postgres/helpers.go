package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/authgo/backend/domain"
)

// SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_username_key":
		return domain.ErrUsernameTaken
	case "users_email_key":
		return domain.ErrEmailTaken
	}
	return domain.WrapError(domain.ErrCodeConflict, "duplicate user", err)
}
