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

const uploadDeadlineColumns = "id, deadline_type, academic_year_id, academic_term_id, deadline_date, created_at, updated_at"

// UploadDeadlineRepository persists upload deadlines.
type UploadDeadlineRepository struct {
	db *sqlx.DB
}

// NewUploadDeadlineRepository constructs the repository.
func NewUploadDeadlineRepository(db *sqlx.DB) *UploadDeadlineRepository {
	return &UploadDeadlineRepository{db: db}
}

// Find loads the deadline for the composite key.
func (r *UploadDeadlineRepository) Find(ctx context.Context, deadlineType models.DeadlineType, yearID, termID string) (*models.UploadDeadline, error) {
	query := "SELECT " + uploadDeadlineColumns + " FROM upload_deadlines WHERE deadline_type = $1 AND academic_year_id = $2 AND academic_term_id = $3"
	var deadline models.UploadDeadline
	if err := r.db.GetContext(ctx, &deadline, query, deadlineType, yearID, termID); err != nil {
		return nil, err
	}
	return &deadline, nil
}

// List returns deadlines matching the filter ordered by deadline date.
func (r *UploadDeadlineRepository) List(ctx context.Context, filter models.UploadDeadlineFilter) ([]models.UploadDeadline, error) {
	var conditions []string
	var args []interface{}

	if filter.DeadlineType != "" {
		conditions = append(conditions, fmt.Sprintf("deadline_type = $%d", len(args)+1))
		args = append(args, filter.DeadlineType)
	}
	if filter.AcademicYearID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year_id = $%d", len(args)+1))
		args = append(args, filter.AcademicYearID)
	}
	if filter.AcademicTermID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_term_id = $%d", len(args)+1))
		args = append(args, filter.AcademicTermID)
	}

	query := "SELECT " + uploadDeadlineColumns + " FROM upload_deadlines"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY deadline_date ASC"

	var deadlines []models.UploadDeadline
	if err := r.db.SelectContext(ctx, &deadlines, query, args...); err != nil {
		return nil, fmt.Errorf("list upload deadlines: %w", err)
	}
	return deadlines, nil
}

// Upsert inserts the deadline or moves the date of the existing row for the
// same (deadline_type, academic_year_id, academic_term_id) in one statement.
// The stored row, including its original id and created_at, is scanned back
// into deadline.
func (r *UploadDeadlineRepository) Upsert(ctx context.Context, deadline *models.UploadDeadline) error {
	if deadline.ID == "" {
		deadline.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	deadline.CreatedAt = now
	deadline.UpdatedAt = now

	query := `INSERT INTO upload_deadlines (id, deadline_type, academic_year_id, academic_term_id, deadline_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (deadline_type, academic_year_id, academic_term_id)
DO UPDATE SET deadline_date = EXCLUDED.deadline_date, updated_at = EXCLUDED.updated_at
RETURNING ` + uploadDeadlineColumns

	row := r.db.QueryRowxContext(ctx, query,
		deadline.ID,
		deadline.DeadlineType,
		deadline.AcademicYearID,
		deadline.AcademicTermID,
		deadline.DeadlineDate.UTC(),
		deadline.CreatedAt,
		deadline.UpdatedAt,
	)
	if err := row.StructScan(deadline); err != nil {
		return fmt.Errorf("upsert upload deadline: %w", err)
	}
	return nil
}
