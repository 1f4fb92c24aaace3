package remote

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
)

// classify splits remote apply failures into the two outcomes the sync loop
// cares about: transient unavailability (retry next pass) and a data conflict
// that will not resolve on its own (park the row as FAILED).
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *pkgerrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "remote apply interrupted")
	}

	if code := sqlState(err); code != "" {
		// Class 23 is integrity violation, class 22 is bad data. Neither
		// clears up by retrying the same payload.
		if strings.HasPrefix(code, "23") || strings.HasPrefix(code, "22") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "remote apply conflict")
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "remote apply conflict")
	}

	return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "remote store unavailable")
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
