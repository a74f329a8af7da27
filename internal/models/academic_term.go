package models

import "time"

// AcademicTerm models a term (also called a session) inside an academic year.
// AcademicYearID is a weak reference; the store does not enforce it.
type AcademicTerm struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	EndDate        time.Time `db:"end_date" json:"end_date"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	IsCurrent      bool      `db:"is_current" json:"is_current"`
	Description    *string   `db:"description" json:"description,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicTermFilter defines filters supported by list endpoints.
type AcademicTermFilter struct {
	AcademicYearID string
	IsActive       *bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
