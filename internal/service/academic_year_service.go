package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type academicYearRepository interface {
	List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicYear, error)
	FindCurrent(ctx context.Context) (*models.AcademicYear, error)
	Create(ctx context.Context, year *models.AcademicYear) error
	CreateCurrent(ctx context.Context, year *models.AcademicYear) error
	Update(ctx context.Context, year *models.AcademicYear) error
	SetCurrent(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountTerms(ctx context.Context, id string) (int, error)
}

// CreateAcademicYearRequest describes payload for creating academic years.
type CreateAcademicYearRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	IsActive  *bool     `json:"is_active"`
	IsCurrent bool      `json:"is_current"`
}

// UpdateAcademicYearRequest updates mutable fields on an academic year.
type UpdateAcademicYearRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	IsActive  *bool     `json:"is_active"`
	IsCurrent *bool     `json:"is_current"`
}

// AcademicYearService orchestrates academic year workflows.
type AcademicYearService struct {
	repo      academicYearRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicYearService creates a new academic year service instance.
func NewAcademicYearService(repo academicYearRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AcademicYearService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicYearService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns paginated academic years.
func (s *AcademicYearService) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, *models.Pagination, error) {
	years, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	return years, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an academic year by ID.
func (s *AcademicYearService) Get(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic year")
	}
	return year, nil
}

// GetCurrent returns the academic year flagged as current. The absence of a
// current year is reported as NO_CURRENT_YEAR, distinct from store failures.
func (s *AcademicYearService) GetCurrent(ctx context.Context) (*models.AcademicYear, error) {
	year, err := s.repo.FindCurrent(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNoCurrentYear, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current academic year")
	}
	return year, nil
}

// Create adds a new academic year, promoting it to current when requested.
func (s *AcademicYearService) Create(ctx context.Context, req CreateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	year := &models.AcademicYear{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsActive:  req.IsActive == nil || *req.IsActive,
	}
	if req.IsCurrent {
		return s.createCurrent(ctx, year)
	}

	if err := s.repo.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}
	return year, nil
}

// createCurrent inserts and promotes the row in one transaction, so a failed
// promotion leaves nothing behind for a retry to duplicate.
func (s *AcademicYearService) createCurrent(ctx context.Context, year *models.AcademicYear) (*models.AcademicYear, error) {
	err := s.repo.CreateCurrent(ctx, year)
	s.metrics.RecordPeriodSwitch(collectionAcademicYears, err)
	if err != nil {
		return nil, setCurrentError(err, "academic year")
	}
	s.cache.invalidatePeriod(ctx)
	s.logger.Info("current academic year changed", zap.String("academic_year_id", year.ID))
	return year, nil
}

// Update modifies an academic year record.
func (s *AcademicYearService) Update(ctx context.Context, id string, req UpdateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic year")
	}

	year.Name = req.Name
	year.StartDate = req.StartDate
	year.EndDate = req.EndDate
	if req.IsActive != nil {
		year.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic year")
	}
	s.cache.invalidatePeriod(ctx)

	if req.IsCurrent != nil && *req.IsCurrent && !year.IsCurrent {
		return s.SetCurrent(ctx, year.ID)
	}
	return year, nil
}

// SetCurrent designates the academic year as the single current one.
func (s *AcademicYearService) SetCurrent(ctx context.Context, id string) (*models.AcademicYear, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic year id is required")
	}

	err := s.repo.SetCurrent(ctx, id)
	s.metrics.RecordPeriodSwitch(collectionAcademicYears, err)
	if err != nil {
		return nil, setCurrentError(err, "academic year")
	}
	s.cache.invalidatePeriod(ctx)
	s.logger.Info("current academic year changed", zap.String("academic_year_id", id))

	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic year")
	}
	return year, nil
}

// Delete removes an academic year that is neither current nor referenced by terms.
func (s *AcademicYearService) Delete(ctx context.Context, id string) error {
	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "academic year")
	}

	if year.IsCurrent {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete current academic year")
	}

	count, err := s.repo.CountTerms(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check academic year dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "academic year has terms associated")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete academic year")
	}
	s.cache.invalidatePeriod(ctx)
	return nil
}
