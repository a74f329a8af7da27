package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	tableAcademicYears = "academic_years"
	tableAcademicTerms = "academic_terms"
)

// setCurrentFlag moves the is_current flag of table onto id inside a single
// transaction. Concurrent writers on the same table are serialised by the
// table lock; readers never observe zero or two current rows. Returns
// sql.ErrNoRows when id does not exist, leaving every row untouched.
//
// prepare, when set, runs in the same transaction right after the lock, so a
// row inserted there is created and promoted atomically.
func setCurrentFlag(ctx context.Context, db *sqlx.DB, table, id string, prepare func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set current %s tx: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE", table)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("lock %s: %w", table, err)
	}

	if prepare != nil {
		if err := prepare(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET is_current = FALSE, updated_at = $1 WHERE is_current = TRUE AND id <> $2", table), now, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear current %s: %w", table, err)
	}

	res, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET is_current = TRUE, updated_at = $1 WHERE id = $2", table), now, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("set current %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("set current %s rows affected: %w", table, err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set current %s tx: %w", table, err)
	}
	return nil
}

// IsUniqueViolation reports whether err originates from a PostgreSQL unique
// constraint or unique index.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.UniqueViolation
	}
	return false
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
