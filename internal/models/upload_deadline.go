package models

import "time"

// DeadlineType enumerates upload categories gated by a deadline.
type DeadlineType string

const (
	DeadlineTypeExamQuestions DeadlineType = "exam_questions"
	DeadlineTypeENotes        DeadlineType = "e_notes"
)

// Valid reports whether the type is a known upload category.
func (t DeadlineType) Valid() bool {
	switch t {
	case DeadlineTypeExamQuestions, DeadlineTypeENotes:
		return true
	}
	return false
}

// DeadlineStatus classifies a deadline relative to now.
type DeadlineStatus string

const (
	DeadlineStatusOpen        DeadlineStatus = "OPEN"
	DeadlineStatusClosingSoon DeadlineStatus = "CLOSING_SOON"
	DeadlineStatusClosed      DeadlineStatus = "CLOSED"
)

// Accepting reports whether uploads are still allowed.
func (s DeadlineStatus) Accepting() bool {
	return s == DeadlineStatusOpen || s == DeadlineStatusClosingSoon
}

// UploadDeadline is unique per (deadline_type, academic_year_id, academic_term_id).
type UploadDeadline struct {
	ID             string       `db:"id" json:"id"`
	DeadlineType   DeadlineType `db:"deadline_type" json:"deadline_type"`
	AcademicYearID string       `db:"academic_year_id" json:"academic_year_id"`
	AcademicTermID string       `db:"academic_term_id" json:"academic_term_id"`
	DeadlineDate   time.Time    `db:"deadline_date" json:"deadline_date"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// UploadDeadlineFilter narrows deadline listings.
type UploadDeadlineFilter struct {
	DeadlineType   DeadlineType
	AcademicYearID string
	AcademicTermID string
}
