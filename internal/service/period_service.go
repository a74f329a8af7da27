package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type currentYearFinder interface {
	FindCurrent(ctx context.Context) (*models.AcademicYear, error)
}

type currentTermFinder interface {
	FindCurrent(ctx context.Context) (*models.AcademicTerm, error)
}

// PeriodService answers "what is current right now" for the rest of the
// system, reading the stored flags instead of deriving them from dates.
type PeriodService struct {
	years    currentYearFinder
	terms    currentTermFinder
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewPeriodService constructs the current-period reader.
func NewPeriodService(years currentYearFinder, terms currentTermFinder, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *PeriodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{years: years, terms: terms, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Current returns the current year and term. Missing halves are not errors:
// the result is partial and Reason names the first missing piece.
//
// Cached entries are keyed by the period generation, which every write bumps
// after commit. A load that raced a switch can only fill a stale generation's
// key, which later reads never consult.
func (s *PeriodService) Current(ctx context.Context) (*models.CurrentPeriod, error) {
	generation, cacheable := s.cache.Generation(ctx, cacheKeyPeriodGeneration)
	key := currentPeriodKey(generation)

	var cached models.CurrentPeriod
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	period := &models.CurrentPeriod{}

	year, err := s.years.FindCurrent(ctx)
	switch {
	case err == nil:
		period.Year = year
	case isNoRows(err):
		period.Reason = models.PeriodReasonNoCurrentYear
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current academic year")
	}

	term, err := s.terms.FindCurrent(ctx)
	switch {
	case err == nil:
		period.Term = term
	case isNoRows(err):
		if period.Reason == "" {
			period.Reason = models.PeriodReasonNoCurrentTerm
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current academic term")
	}

	if cacheable {
		s.cache.Set(ctx, key, period, s.cacheTTL)
	}
	return period, nil
}

// Resolve fills whichever of yearID and termID is empty from the current
// period. Only a missing half that was actually needed is an error:
// NO_CURRENT_YEAR or NO_CURRENT_TERM.
func (s *PeriodService) Resolve(ctx context.Context, yearID, termID string) (string, string, error) {
	if yearID != "" && termID != "" {
		return yearID, termID, nil
	}

	period, err := s.Current(ctx)
	if err != nil {
		return "", "", err
	}
	if yearID == "" {
		if period.Year == nil {
			return "", "", appErrors.Clone(appErrors.ErrNoCurrentYear, "")
		}
		yearID = period.Year.ID
	}
	if termID == "" {
		if period.Term == nil {
			return "", "", appErrors.Clone(appErrors.ErrNoCurrentTerm, "")
		}
		termID = period.Term.ID
	}
	return yearID, termID, nil
}

func currentPeriodKey(generation int64) string {
	return fmt.Sprintf("%s:%d", cacheKeyCurrentPeriod, generation)
}
