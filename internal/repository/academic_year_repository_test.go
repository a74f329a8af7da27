package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
)

func newPeriodRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

var yearColumns = []string{"id", "name", "start_date", "end_date", "is_active", "is_current", "created_at", "updated_at"}

func TestAcademicYearRepositorySetCurrent(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE academic_years IN SHARE ROW EXCLUSIVE MODE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE academic_years SET is_current = FALSE").
		WithArgs(sqlmock.AnyArg(), "7").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_years SET is_current = TRUE").
		WithArgs(sqlmock.AnyArg(), "7").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetCurrent(context.Background(), "7"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositorySetCurrentMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE academic_years").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE academic_years SET is_current = FALSE").
		WithArgs(sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_years SET is_current = TRUE").
		WithArgs(sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SetCurrent(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositorySetCurrentUniqueViolation(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE academic_years").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE academic_years SET is_current = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE academic_years SET is_current = TRUE").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.SetCurrent(context.Background(), "5")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryFindCurrentNone(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM academic_years WHERE is_current = TRUE LIMIT 1").
		WillReturnRows(sqlmock.NewRows(yearColumns))

	_, err := repo.FindCurrent(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAcademicYearRepositoryList(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(yearColumns).
		AddRow("y1", "2024/2025", now, now.AddDate(1, 0, 0), true, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, start_date, end_date, is_active, is_current, created_at, updated_at FROM academic_years WHERE 1=1 ORDER BY start_date DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_years WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	years, total, err := repo.List(context.Background(), models.AcademicYearFilter{})
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.True(t, years[0].IsCurrent)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryCreateNeverStoresCurrent(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectExec("INSERT INTO academic_years").
		WithArgs(sqlmock.AnyArg(), "2025/2026", sqlmock.AnyArg(), sqlmock.AnyArg(), true, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	year := &models.AcademicYear{Name: "2025/2026", IsActive: true, IsCurrent: true}
	require.NoError(t, repo.Create(context.Background(), year))
	assert.NotEmpty(t, year.ID)
	assert.False(t, year.IsCurrent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryCreateCurrentSingleTransaction(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE academic_years IN SHARE ROW EXCLUSIVE MODE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO academic_years").
		WithArgs(sqlmock.AnyArg(), "2025/2026", sqlmock.AnyArg(), sqlmock.AnyArg(), true, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE academic_years SET is_current = FALSE").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_years SET is_current = TRUE").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	year := &models.AcademicYear{Name: "2025/2026", IsActive: true}
	require.NoError(t, repo.CreateCurrent(context.Background(), year))
	assert.NotEmpty(t, year.ID)
	assert.True(t, year.IsCurrent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryCreateCurrentInsertFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE academic_years").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO academic_years").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	year := &models.AcademicYear{Name: "2025/2026", IsActive: true}
	err := repo.CreateCurrent(context.Background(), year)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, year.IsCurrent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
