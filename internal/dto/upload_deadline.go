package dto

import (
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// RecordDeadlineRequest creates or replaces the deadline for a type within a
// year and term. Empty year or term ids resolve to the current period.
type RecordDeadlineRequest struct {
	DeadlineType   models.DeadlineType `json:"deadlineType" validate:"required,oneof=exam_questions e_notes"`
	AcademicYearID string              `json:"academicYearId"`
	AcademicTermID string              `json:"academicTermId"`
	DeadlineDate   time.Time           `json:"deadlineDate" validate:"required"`
}

// DeadlineStatusQuery selects the deadline to classify.
type DeadlineStatusQuery struct {
	DeadlineType   models.DeadlineType
	AcademicYearID string
	AcademicTermID string
}

// DeadlineStatusResponse reports how a deadline relates to now.
type DeadlineStatusResponse struct {
	DeadlineType     models.DeadlineType   `json:"deadlineType"`
	AcademicYearID   string                `json:"academicYearId"`
	AcademicTermID   string                `json:"academicTermId"`
	DeadlineDate     time.Time             `json:"deadlineDate"`
	Status           models.DeadlineStatus `json:"status"`
	Accepting        bool                  `json:"accepting"`
	Warning          string                `json:"warning,omitempty"`
	RemainingSeconds int64                 `json:"remainingSeconds"`
}
