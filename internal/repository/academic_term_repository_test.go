package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-portal-api/internal/models"
)

var termColumns = []string{"id", "name", "academic_year_id", "start_date", "end_date", "is_active", "is_current", "description", "created_at", "updated_at"}

func TestAcademicTermRepositorySetCurrentIsGlobal(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE academic_terms").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_terms SET is_current = FALSE, updated_at = $1 WHERE is_current = TRUE AND id <> $2")).
		WithArgs(sqlmock.AnyArg(), "t2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_terms SET is_current = TRUE, updated_at = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), "t2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetCurrent(context.Background(), "t2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicTermRepositoryListByYear(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicTermRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(termColumns).
		AddRow("t1", "Term 1", "y1", now, now.AddDate(0, 4, 0), true, false, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_terms WHERE 1=1 AND academic_year_id = $1 ORDER BY start_date DESC LIMIT 20 OFFSET 0")).
		WithArgs("y1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_terms WHERE 1=1 AND academic_year_id = $1")).
		WithArgs("y1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	terms, total, err := repo.List(context.Background(), models.AcademicTermFilter{AcademicYearID: "y1"})
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "y1", terms[0].AcademicYearID)
	assert.Nil(t, terms[0].Description)
	assert.Equal(t, 1, total)
}

func TestAcademicTermRepositoryFindCurrent(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicTermRepository(db)

	now := time.Now()
	desc := "first term"
	mock.ExpectQuery("FROM academic_terms WHERE is_current = TRUE").
		WillReturnRows(sqlmock.NewRows(termColumns).AddRow("t1", "Term 1", "y1", now, now, true, true, desc, now, now))

	term, err := repo.FindCurrent(context.Background())
	require.NoError(t, err)
	assert.True(t, term.IsCurrent)
	require.NotNil(t, term.Description)
	assert.Equal(t, desc, *term.Description)
}

func TestAcademicTermRepositoryCreateCurrent(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewAcademicTermRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("LOCK TABLE academic_terms").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO academic_terms").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE academic_terms SET is_current = FALSE").
		WithArgs(sqlmock.AnyArg(), "t3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_terms SET is_current = TRUE").
		WithArgs(sqlmock.AnyArg(), "t3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	term := &models.AcademicTerm{ID: "t3", Name: "Semester 2", AcademicYearID: "2024"}
	require.NoError(t, repo.CreateCurrent(context.Background(), term))
	assert.True(t, term.IsCurrent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
