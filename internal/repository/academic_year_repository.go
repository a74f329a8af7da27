package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

const academicYearColumns = "id, name, start_date, end_date, is_active, is_current, created_at, updated_at"

const insertAcademicYearQuery = `INSERT INTO academic_years (id, name, start_date, end_date, is_active, is_current, created_at, updated_at) VALUES (:id, :name, :start_date, :end_date, :is_active, :is_current, :created_at, :updated_at)`

// AcademicYearRepository handles persistence for academic years.
type AcademicYearRepository struct {
	db *sqlx.DB
}

// NewAcademicYearRepository instantiates an academic year repository.
func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

// List returns academic years matching provided filters.
func (r *AcademicYearRepository) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error) {
	base := "FROM academic_years WHERE 1=1"
	var args []interface{}

	if filter.IsActive != nil {
		base += fmt.Sprintf(" AND is_active = $%d", len(args)+1)
		args = append(args, *filter.IsActive)
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"start_date": true,
		"end_date":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", academicYearColumns, base, sortBy, order, size, offset)

	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list academic years: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count academic years: %w", err)
	}

	return years, total, nil
}

// FindByID loads an academic year by identifier.
func (r *AcademicYearRepository) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	query := "SELECT " + academicYearColumns + " FROM academic_years WHERE id = $1"
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindCurrent returns the academic year flagged as current.
func (r *AcademicYearRepository) FindCurrent(ctx context.Context) (*models.AcademicYear, error) {
	query := "SELECT " + academicYearColumns + " FROM academic_years WHERE is_current = TRUE LIMIT 1"
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query); err != nil {
		return nil, err
	}
	return &year, nil
}

// Create inserts a new academic year. The current flag is always stored as
// false; CreateCurrent inserts a row that is current from the start.
func (r *AcademicYearRepository) Create(ctx context.Context, year *models.AcademicYear) error {
	prepareInsertAcademicYear(year)

	if _, err := r.db.NamedExecContext(ctx, insertAcademicYearQuery, year); err != nil {
		return fmt.Errorf("create academic year: %w", err)
	}
	return nil
}

// Update modifies the mutable fields of an academic year. is_current is not
// touched here.
func (r *AcademicYearRepository) Update(ctx context.Context, year *models.AcademicYear) error {
	year.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_years SET name = :name, start_date = :start_date, end_date = :end_date, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("update academic year: %w", err)
	}
	return nil
}

// CreateCurrent inserts year and makes it the current academic year in one
// transaction. Nothing is stored when either step fails.
func (r *AcademicYearRepository) CreateCurrent(ctx context.Context, year *models.AcademicYear) error {
	prepareInsertAcademicYear(year)

	err := setCurrentFlag(ctx, r.db, tableAcademicYears, year.ID, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertAcademicYearQuery, year); err != nil {
			return fmt.Errorf("create academic year: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	year.IsCurrent = true
	return nil
}

// SetCurrent marks the academic year as current and clears the flag elsewhere.
func (r *AcademicYearRepository) SetCurrent(ctx context.Context, id string) error {
	return setCurrentFlag(ctx, r.db, tableAcademicYears, id, nil)
}

// Delete removes an academic year permanently.
func (r *AcademicYearRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM academic_years WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete academic year: %w", err)
	}
	return nil
}

// CountTerms returns the number of terms referencing the academic year.
func (r *AcademicYearRepository) CountTerms(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM academic_terms WHERE academic_year_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count academic year terms: %w", err)
	}
	return count, nil
}

func prepareInsertAcademicYear(year *models.AcademicYear) {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if year.CreatedAt.IsZero() {
		year.CreatedAt = now
	}
	year.UpdatedAt = now
	year.IsCurrent = false
}
