package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// IdentityRepository reads the teacher and student identity pools.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository creates a new identity repository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// FindTeacherByUsername returns a teacher with its credential fields.
func (r *IdentityRepository) FindTeacherByUsername(ctx context.Context, username string) (*models.Teacher, error) {
	const query = `SELECT id, username, full_name, department, subjects, password, legacy_password, temp_password FROM teachers WHERE username = $1 LIMIT 1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher by username: %w", err)
	}
	return &teacher, nil
}

// FindStudentByUsername returns a student with its credential fields.
func (r *IdentityRepository) FindStudentByUsername(ctx context.Context, username string) (*models.Student, error) {
	const query = `SELECT id, username, full_name, class_name, section, roll_number, password, legacy_password, temp_password FROM students WHERE username = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by username: %w", err)
	}
	return &student, nil
}
