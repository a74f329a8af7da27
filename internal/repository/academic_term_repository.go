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

const academicTermColumns = "id, name, academic_year_id, start_date, end_date, is_active, is_current, description, created_at, updated_at"

const insertAcademicTermQuery = `INSERT INTO academic_terms (id, name, academic_year_id, start_date, end_date, is_active, is_current, description, created_at, updated_at) VALUES (:id, :name, :academic_year_id, :start_date, :end_date, :is_active, :is_current, :description, :created_at, :updated_at)`

// AcademicTermRepository handles persistence for academic terms.
type AcademicTermRepository struct {
	db *sqlx.DB
}

// NewAcademicTermRepository instantiates an academic term repository.
func NewAcademicTermRepository(db *sqlx.DB) *AcademicTermRepository {
	return &AcademicTermRepository{db: db}
}

// List returns terms matching provided filters.
func (r *AcademicTermRepository) List(ctx context.Context, filter models.AcademicTermFilter) ([]models.AcademicTerm, int, error) {
	base := "FROM academic_terms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.AcademicYearID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year_id = $%d", len(args)+1))
		args = append(args, filter.AcademicYearID)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", academicTermColumns, base, sortBy, order, size, offset)

	var terms []models.AcademicTerm
	if err := r.db.SelectContext(ctx, &terms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list academic terms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count academic terms: %w", err)
	}

	return terms, total, nil
}

// FindByID loads a term by identifier.
func (r *AcademicTermRepository) FindByID(ctx context.Context, id string) (*models.AcademicTerm, error) {
	query := "SELECT " + academicTermColumns + " FROM academic_terms WHERE id = $1"
	var term models.AcademicTerm
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindCurrent returns the term flagged as current. The flag is global across
// all academic years.
func (r *AcademicTermRepository) FindCurrent(ctx context.Context) (*models.AcademicTerm, error) {
	query := "SELECT " + academicTermColumns + " FROM academic_terms WHERE is_current = TRUE LIMIT 1"
	var term models.AcademicTerm
	if err := r.db.GetContext(ctx, &term, query); err != nil {
		return nil, err
	}
	return &term, nil
}

// Create inserts a new term with the current flag cleared.
func (r *AcademicTermRepository) Create(ctx context.Context, term *models.AcademicTerm) error {
	prepareInsertAcademicTerm(term)

	if _, err := r.db.NamedExecContext(ctx, insertAcademicTermQuery, term); err != nil {
		return fmt.Errorf("create academic term: %w", err)
	}
	return nil
}

// Update modifies an existing term, leaving is_current untouched.
func (r *AcademicTermRepository) Update(ctx context.Context, term *models.AcademicTerm) error {
	term.UpdatedAt = time.Now().UTC()
	const query = `UPDATE academic_terms SET name = :name, academic_year_id = :academic_year_id, start_date = :start_date, end_date = :end_date, is_active = :is_active, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("update academic term: %w", err)
	}
	return nil
}

// CreateCurrent inserts term and makes it the current academic term in one
// transaction. Nothing is stored when either step fails.
func (r *AcademicTermRepository) CreateCurrent(ctx context.Context, term *models.AcademicTerm) error {
	prepareInsertAcademicTerm(term)

	err := setCurrentFlag(ctx, r.db, tableAcademicTerms, term.ID, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertAcademicTermQuery, term); err != nil {
			return fmt.Errorf("create academic term: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	term.IsCurrent = true
	return nil
}

// SetCurrent marks the term as current and clears the flag on every other term.
func (r *AcademicTermRepository) SetCurrent(ctx context.Context, id string) error {
	return setCurrentFlag(ctx, r.db, tableAcademicTerms, id, nil)
}

// Delete removes a term permanently.
func (r *AcademicTermRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM academic_terms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete academic term: %w", err)
	}
	return nil
}

// CountDeadlines returns the number of upload deadlines referencing the term.
func (r *AcademicTermRepository) CountDeadlines(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM upload_deadlines WHERE academic_term_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count academic term deadlines: %w", err)
	}
	return count, nil
}

func prepareInsertAcademicTerm(term *models.AcademicTerm) {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if term.CreatedAt.IsZero() {
		term.CreatedAt = now
	}
	term.UpdatedAt = now
	term.IsCurrent = false
}
