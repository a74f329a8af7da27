package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type academicTermRepository interface {
	List(ctx context.Context, filter models.AcademicTermFilter) ([]models.AcademicTerm, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicTerm, error)
	FindCurrent(ctx context.Context) (*models.AcademicTerm, error)
	Create(ctx context.Context, term *models.AcademicTerm) error
	CreateCurrent(ctx context.Context, term *models.AcademicTerm) error
	Update(ctx context.Context, term *models.AcademicTerm) error
	SetCurrent(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountDeadlines(ctx context.Context, id string) (int, error)
}

// CreateAcademicTermRequest describes payload for creating academic terms.
type CreateAcademicTermRequest struct {
	Name           string    `json:"name" validate:"required"`
	AcademicYearID string    `json:"academic_year_id" validate:"required"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	IsActive       *bool     `json:"is_active"`
	IsCurrent      bool      `json:"is_current"`
	Description    *string   `json:"description"`
}

// UpdateAcademicTermRequest updates mutable fields on a term.
type UpdateAcademicTermRequest struct {
	Name           string    `json:"name" validate:"required"`
	AcademicYearID string    `json:"academic_year_id" validate:"required"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	IsActive       *bool     `json:"is_active"`
	IsCurrent      *bool     `json:"is_current"`
	Description    *string   `json:"description"`
}

// AcademicTermService orchestrates term (session) workflows. The current
// flag is global: setting a term current clears it on terms of every year.
type AcademicTermService struct {
	repo      academicTermRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicTermService creates a new term service instance.
func NewAcademicTermService(repo academicTermRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AcademicTermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicTermService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns paginated terms.
func (s *AcademicTermService) List(ctx context.Context, filter models.AcademicTermFilter) ([]models.AcademicTerm, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic terms")
	}
	return terms, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a term by ID.
func (s *AcademicTermService) Get(ctx context.Context, id string) (*models.AcademicTerm, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic term")
	}
	return term, nil
}

// GetCurrent returns the current term or NO_CURRENT_TERM.
func (s *AcademicTermService) GetCurrent(ctx context.Context) (*models.AcademicTerm, error) {
	term, err := s.repo.FindCurrent(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNoCurrentTerm, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current academic term")
	}
	return term, nil
}

// Create adds a new term, promoting it to current when requested.
func (s *AcademicTermService) Create(ctx context.Context, req CreateAcademicTermRequest) (*models.AcademicTerm, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic term payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	term := &models.AcademicTerm{
		Name:           req.Name,
		AcademicYearID: req.AcademicYearID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		IsActive:       req.IsActive == nil || *req.IsActive,
		Description:    req.Description,
	}
	if req.IsCurrent {
		return s.createCurrent(ctx, term)
	}

	if err := s.repo.Create(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic term")
	}
	return term, nil
}

// createCurrent inserts and promotes the row in one transaction, so a failed
// promotion leaves nothing behind for a retry to duplicate.
func (s *AcademicTermService) createCurrent(ctx context.Context, term *models.AcademicTerm) (*models.AcademicTerm, error) {
	err := s.repo.CreateCurrent(ctx, term)
	s.metrics.RecordPeriodSwitch(collectionAcademicTerms, err)
	if err != nil {
		return nil, setCurrentError(err, "academic term")
	}
	s.cache.invalidatePeriod(ctx)
	s.logger.Info("current academic term changed", zap.String("academic_term_id", term.ID))
	return term, nil
}

// Update modifies a term record.
func (s *AcademicTermService) Update(ctx context.Context, id string, req UpdateAcademicTermRequest) (*models.AcademicTerm, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic term payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic term")
	}

	term.Name = req.Name
	term.AcademicYearID = req.AcademicYearID
	term.StartDate = req.StartDate
	term.EndDate = req.EndDate
	term.Description = req.Description
	if req.IsActive != nil {
		term.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic term")
	}
	s.cache.invalidatePeriod(ctx)

	if req.IsCurrent != nil && *req.IsCurrent && !term.IsCurrent {
		return s.SetCurrent(ctx, term.ID)
	}
	return term, nil
}

// SetCurrent designates the term as the single current one.
func (s *AcademicTermService) SetCurrent(ctx context.Context, id string) (*models.AcademicTerm, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic term id is required")
	}

	err := s.repo.SetCurrent(ctx, id)
	s.metrics.RecordPeriodSwitch(collectionAcademicTerms, err)
	if err != nil {
		return nil, setCurrentError(err, "academic term")
	}
	s.cache.invalidatePeriod(ctx)
	s.logger.Info("current academic term changed", zap.String("academic_term_id", id))

	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic term")
	}
	return term, nil
}

// Delete removes a term when it is not current and has no upload deadlines.
func (s *AcademicTermService) Delete(ctx context.Context, id string) error {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "academic term")
	}

	if term.IsCurrent {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete current academic term")
	}

	count, err := s.repo.CountDeadlines(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check academic term dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "academic term has upload deadlines associated")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete academic term")
	}
	s.cache.invalidatePeriod(ctx)
	return nil
}
