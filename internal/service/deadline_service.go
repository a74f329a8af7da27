package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/dto"
	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

// DefaultDeadlineWarningWindow is how long before a deadline uploads are
// flagged as closing soon.
const DefaultDeadlineWarningWindow = 24 * time.Hour

type uploadDeadlineRepository interface {
	Find(ctx context.Context, deadlineType models.DeadlineType, yearID, termID string) (*models.UploadDeadline, error)
	List(ctx context.Context, filter models.UploadDeadlineFilter) ([]models.UploadDeadline, error)
	Upsert(ctx context.Context, deadline *models.UploadDeadline) error
}

type currentPeriodResolver interface {
	Resolve(ctx context.Context, yearID, termID string) (string, string, error)
}

// ClassifyDeadline places a deadline relative to now. A deadline in the past
// is closed, one within window of now is closing soon, anything later is open.
func ClassifyDeadline(deadline, now time.Time, window time.Duration) models.DeadlineStatus {
	switch {
	case deadline.Before(now):
		return models.DeadlineStatusClosed
	case deadline.Sub(now) < window:
		return models.DeadlineStatusClosingSoon
	default:
		return models.DeadlineStatusOpen
	}
}

// DeadlineService administers upload deadlines and gates submissions.
type DeadlineService struct {
	repo      uploadDeadlineRepository
	periods   currentPeriodResolver
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	window    time.Duration
	now       func() time.Time
}

// NewDeadlineService constructs the deadline gate.
func NewDeadlineService(repo uploadDeadlineRepository, periods currentPeriodResolver, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, window time.Duration) *DeadlineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = DefaultDeadlineWarningWindow
	}
	return &DeadlineService{
		repo:      repo,
		periods:   periods,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		window:    window,
		now:       time.Now,
	}
}

// List returns deadlines matching the filter ordered by date.
func (s *DeadlineService) List(ctx context.Context, filter models.UploadDeadlineFilter) ([]models.UploadDeadline, error) {
	if filter.DeadlineType != "" && !filter.DeadlineType.Valid() {
		return nil, invalidDeadlineType(filter.DeadlineType)
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upload deadlines")
	}
	return items, nil
}

// Record creates or replaces the deadline for (type, year, term) in a single
// statement and returns the stored row.
func (s *DeadlineService) Record(ctx context.Context, req dto.RecordDeadlineRequest) (*models.UploadDeadline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload deadline payload")
	}
	if !req.DeadlineType.Valid() {
		return nil, invalidDeadlineType(req.DeadlineType)
	}

	yearID, termID, err := s.periods.Resolve(ctx, req.AcademicYearID, req.AcademicTermID)
	if err != nil {
		return nil, err
	}

	deadline := &models.UploadDeadline{
		DeadlineType:   req.DeadlineType,
		AcademicYearID: yearID,
		AcademicTermID: termID,
		DeadlineDate:   req.DeadlineDate.UTC(),
	}
	if err := s.repo.Upsert(ctx, deadline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record upload deadline")
	}

	s.logger.Info("upload deadline recorded",
		zap.String("type", string(deadline.DeadlineType)),
		zap.String("academic_year_id", yearID),
		zap.String("academic_term_id", termID),
		zap.Time("deadline_date", deadline.DeadlineDate),
	)
	return deadline, nil
}

// Status classifies the deadline for the given type. Empty year or term ids
// are taken from the current period.
func (s *DeadlineService) Status(ctx context.Context, query dto.DeadlineStatusQuery) (*dto.DeadlineStatusResponse, error) {
	if !query.DeadlineType.Valid() {
		return nil, invalidDeadlineType(query.DeadlineType)
	}

	yearID, termID, err := s.periods.Resolve(ctx, query.AcademicYearID, query.AcademicTermID)
	if err != nil {
		return nil, err
	}

	deadline, err := s.repo.Find(ctx, query.DeadlineType, yearID, termID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no %s deadline set for year %s term %s", query.DeadlineType, yearID, termID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load upload deadline")
	}

	now := s.now()
	status := ClassifyDeadline(deadline.DeadlineDate, now, s.window)
	resp := &dto.DeadlineStatusResponse{
		DeadlineType:   deadline.DeadlineType,
		AcademicYearID: deadline.AcademicYearID,
		AcademicTermID: deadline.AcademicTermID,
		DeadlineDate:   deadline.DeadlineDate,
		Status:         status,
		Accepting:      status.Accepting(),
	}
	if status.Accepting() {
		resp.RemainingSeconds = int64(deadline.DeadlineDate.Sub(now) / time.Second)
	}
	switch status {
	case models.DeadlineStatusClosingSoon:
		resp.Warning = fmt.Sprintf("%s uploads close at %s", deadline.DeadlineType, deadline.DeadlineDate.UTC().Format(time.RFC3339))
	case models.DeadlineStatusClosed:
		resp.Warning = fmt.Sprintf("%s uploads closed at %s", deadline.DeadlineType, deadline.DeadlineDate.UTC().Format(time.RFC3339))
	}
	return resp, nil
}

// EnsureAccepting is the gate consulted before an upload is accepted. It
// returns the deadline status, or DEADLINE_PASSED once the deadline is closed.
func (s *DeadlineService) EnsureAccepting(ctx context.Context, query dto.DeadlineStatusQuery) (*dto.DeadlineStatusResponse, error) {
	status, err := s.Status(ctx, query)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordGateDecision(status.DeadlineType, status.Status)
	if !status.Accepting {
		s.logger.Info("upload rejected after deadline",
			zap.String("type", string(status.DeadlineType)),
			zap.String("academic_year_id", status.AcademicYearID),
			zap.String("academic_term_id", status.AcademicTermID),
		)
		return status, appErrors.Clone(appErrors.ErrDeadlinePassed, status.Warning)
	}
	return status, nil
}

func invalidDeadlineType(t models.DeadlineType) error {
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown deadline type %q", t))
}
