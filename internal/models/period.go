package models

// PeriodReason explains why a current period is incomplete.
type PeriodReason string

const (
	PeriodReasonNoCurrentYear PeriodReason = "NO_CURRENT_YEAR"
	PeriodReasonNoCurrentTerm PeriodReason = "NO_CURRENT_TERM"
)

// CurrentPeriod pairs the current academic year and term. Either side may be
// nil before an administrator has set one, in which case Reason is populated.
type CurrentPeriod struct {
	Year   *AcademicYear `json:"year"`
	Term   *AcademicTerm `json:"term"`
	Reason PeriodReason  `json:"reason,omitempty"`
}

// Complete reports whether both year and term are set.
func (p *CurrentPeriod) Complete() bool {
	return p != nil && p.Year != nil && p.Term != nil
}
