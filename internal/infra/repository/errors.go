package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domain "github.com/NikolajSankovDev/zyron/internal/domain/appointment"
	"github.com/NikolajSankovDev/zyron/internal/httperr"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
	pgExclusionViolation   = "23P01"
	pgUniqueViolation      = "23505"
)

// classify maps a gorm/pgx error onto the domain taxonomy. Business errors
// returned from inside a transaction pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if httperr.Code(err) != "" {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgQueryCanceled:
			return domain.ErrTimeout
		case pgExclusionViolation:
			return domain.ErrSlotConflict
		}
	}

	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
