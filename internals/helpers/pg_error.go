package helper

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MapPGError translates constraint violations into an HTTP status.
// ok is false when err is not a recognised database error.
func MapPGError(err error) (status int, message string, ok bool) {
	if err == nil {
		return 0, "", false
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.StatusConflict, "record already exists", true
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fiber.StatusBadRequest, "referenced record does not exist", true
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound, "record not found", true
	}

	var code, detail string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code, detail = pgErr.Code, pgErr.ConstraintName
	case errors.As(err, &pqErr):
		code, detail = string(pqErr.Code), pqErr.Constraint
	default:
		return 0, "", false
	}

	switch code {
	case "23505":
		return fiber.StatusConflict, withConstraint("record already exists", detail), true
	case "23503":
		return fiber.StatusBadRequest, withConstraint("referenced record does not exist", detail), true
	case "23502", "23514", "22P02":
		return fiber.StatusBadRequest, withConstraint("invalid value", detail), true
	}
	return 0, "", false
}

func withConstraint(msg, constraint string) string {
	if strings.TrimSpace(constraint) == "" {
		return msg
	}
	return msg + " (" + constraint + ")"
}
