package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

func TestAcademicYearSetCurrentSwitchesSingleRow(t *testing.T) {
	store := newFakeYearStore(
		models.AcademicYear{ID: "5", Name: "2023/2024"},
		models.AcademicYear{ID: "7", Name: "2024/2025"},
	)
	svc := NewAcademicYearService(store, nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.SetCurrent(ctx, "5")
	require.NoError(t, err)
	year, err := svc.SetCurrent(ctx, "7")
	require.NoError(t, err)
	assert.True(t, year.IsCurrent)

	current, err := svc.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7", current.ID)

	previous, err := svc.Get(ctx, "5")
	require.NoError(t, err)
	assert.False(t, previous.IsCurrent)
	assert.Equal(t, 1, store.currentCount())
}

func TestAcademicYearSetCurrentConcurrentKeepsOneCurrent(t *testing.T) {
	rows := make([]models.AcademicYear, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, models.AcademicYear{ID: fmt.Sprintf("y%d", i)})
	}
	store := newFakeYearStore(rows...)
	svc := NewAcademicYearService(store, nil, nil, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = svc.SetCurrent(context.Background(), id)
		}(fmt.Sprintf("y%d", i))
	}
	wg.Wait()

	assert.Equal(t, 1, store.currentCount())
}

func TestAcademicYearSetCurrentUnknownID(t *testing.T) {
	store := newFakeYearStore(models.AcademicYear{ID: "5", IsCurrent: true})
	svc := NewAcademicYearService(store, nil, nil, nil, zap.NewNop())

	_, err := svc.SetCurrent(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	current, err := svc.GetCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5", current.ID)
}

func TestAcademicYearSetCurrentStoreFailure(t *testing.T) {
	store := newFakeYearStore(models.AcademicYear{ID: "5"})
	store.setErr = errors.New("connection reset")
	svc := NewAcademicYearService(store, nil, nil, nil, zap.NewNop())

	_, err := svc.SetCurrent(context.Background(), "5")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAcademicYearGetCurrentWhenUnset(t *testing.T) {
	svc := NewAcademicYearService(newFakeYearStore(), nil, nil, nil, zap.NewNop())

	_, err := svc.GetCurrent(context.Background())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNoCurrentYear.Code, appErr.Code)
	assert.Equal(t, "no current academic year set", appErr.Message)
}

func TestAcademicYearCreateAsCurrent(t *testing.T) {
	store := newFakeYearStore(models.AcademicYear{ID: "old", IsCurrent: true})
	svc := NewAcademicYearService(store, nil, nil, nil, zap.NewNop())

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	year, err := svc.Create(context.Background(), CreateAcademicYearRequest{
		Name:      "2024/2025",
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		IsCurrent: true,
	})
	require.NoError(t, err)
	assert.True(t, year.IsCurrent)
	assert.True(t, year.IsActive)
	assert.Equal(t, 1, store.currentCount())
}

func TestAcademicYearCreateRejectsInvertedDates(t *testing.T) {
	svc := NewAcademicYearService(newFakeYearStore(), nil, nil, nil, zap.NewNop())
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), CreateAcademicYearRequest{Name: "x", StartDate: start, EndDate: start.AddDate(0, -1, 0)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAcademicYearDeleteGuards(t *testing.T) {
	store := newFakeYearStore(
		models.AcademicYear{ID: "cur", IsCurrent: true},
		models.AcademicYear{ID: "used"},
		models.AcademicYear{ID: "free"},
	)
	store.terms["used"] = 2
	svc := NewAcademicYearService(store, nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	err := svc.Delete(ctx, "cur")
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	err = svc.Delete(ctx, "used")
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, "free"))
	_, err = svc.Get(ctx, "free")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAcademicTermSetCurrentIsGlobal(t *testing.T) {
	store := newFakeTermStore(
		models.AcademicTerm{ID: "t1", AcademicYearID: "2023", IsCurrent: true},
		models.AcademicTerm{ID: "t2", AcademicYearID: "2024"},
	)
	svc := NewAcademicTermService(store, nil, nil, nil, zap.NewNop())

	term, err := svc.SetCurrent(context.Background(), "t2")
	require.NoError(t, err)
	assert.True(t, term.IsCurrent)

	other, err := svc.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, other.IsCurrent)
}

func TestAcademicTermDeleteWithDeadlines(t *testing.T) {
	store := newFakeTermStore(models.AcademicTerm{ID: "t1", AcademicYearID: "2024"})
	store.deadlines["t1"] = 1
	svc := NewAcademicTermService(store, nil, nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAcademicTermGetCurrentWhenUnset(t *testing.T) {
	svc := NewAcademicTermService(newFakeTermStore(), nil, nil, nil, zap.NewNop())

	_, err := svc.GetCurrent(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoCurrentTerm.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceCurrentComplete(t *testing.T) {
	years := newFakeYearStore(models.AcademicYear{ID: "2024", IsCurrent: true})
	terms := newFakeTermStore(models.AcademicTerm{ID: "1", AcademicYearID: "2024", IsCurrent: true})
	svc := NewPeriodService(years, terms, nil, time.Minute, zap.NewNop())

	period, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, period.Complete())
	assert.Empty(t, period.Reason)
	assert.Equal(t, "2024", period.Year.ID)
	assert.Equal(t, "1", period.Term.ID)
}

func TestPeriodServiceCurrentPartial(t *testing.T) {
	tests := []struct {
		name   string
		years  *fakeYearStore
		terms  *fakeTermStore
		reason models.PeriodReason
	}{
		{
			name:   "no term",
			years:  newFakeYearStore(models.AcademicYear{ID: "2024", IsCurrent: true}),
			terms:  newFakeTermStore(),
			reason: models.PeriodReasonNoCurrentTerm,
		},
		{
			name:   "no year",
			years:  newFakeYearStore(),
			terms:  newFakeTermStore(models.AcademicTerm{ID: "1", IsCurrent: true}),
			reason: models.PeriodReasonNoCurrentYear,
		},
		{
			name:   "neither",
			years:  newFakeYearStore(),
			terms:  newFakeTermStore(),
			reason: models.PeriodReasonNoCurrentYear,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewPeriodService(tc.years, tc.terms, nil, time.Minute, zap.NewNop())
			period, err := svc.Current(context.Background())
			require.NoError(t, err)
			assert.False(t, period.Complete())
			assert.Equal(t, tc.reason, period.Reason)
		})
	}
}

func TestPeriodServiceCurrentStoreFailure(t *testing.T) {
	years := newFakeYearStore()
	years.findErr = errors.New("dial tcp: connection refused")
	svc := NewPeriodService(years, newFakeTermStore(), nil, time.Minute, zap.NewNop())

	_, err := svc.Current(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceResolve(t *testing.T) {
	cases := []struct {
		name     string
		years    []models.AcademicYear
		terms    []models.AcademicTerm
		yearID   string
		termID   string
		wantYear string
		wantTerm string
		wantCode string
	}{
		{name: "both given skips lookup", yearID: "2023", termID: "2", wantYear: "2023", wantTerm: "2"},
		{name: "both resolved", years: []models.AcademicYear{{ID: "2024", IsCurrent: true}}, terms: []models.AcademicTerm{{ID: "1", IsCurrent: true}}, wantYear: "2024", wantTerm: "1"},
		{name: "term filled without current year", terms: []models.AcademicTerm{{ID: "1", IsCurrent: true}}, yearID: "2024", wantYear: "2024", wantTerm: "1"},
		{name: "year filled without current term", years: []models.AcademicYear{{ID: "2024", IsCurrent: true}}, termID: "3", wantYear: "2024", wantTerm: "3"},
		{name: "omitted term missing", years: []models.AcademicYear{{ID: "2024", IsCurrent: true}}, wantCode: appErrors.ErrNoCurrentTerm.Code},
		{name: "omitted year missing", terms: []models.AcademicTerm{{ID: "1", IsCurrent: true}}, termID: "1", wantCode: appErrors.ErrNoCurrentYear.Code},
		{name: "nothing current", wantCode: appErrors.ErrNoCurrentYear.Code},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewPeriodService(newFakeYearStore(tc.years...), newFakeTermStore(tc.terms...), nil, time.Minute, zap.NewNop())

			yearID, termID, err := svc.Resolve(context.Background(), tc.yearID, tc.termID)
			if tc.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tc.wantCode, appErrors.FromError(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantYear, yearID)
			assert.Equal(t, tc.wantTerm, termID)
		})
	}
}

func TestPeriodServiceCacheInvalidatedOnSwitch(t *testing.T) {
	years := newFakeYearStore(
		models.AcademicYear{ID: "5", IsCurrent: true},
		models.AcademicYear{ID: "7"},
	)
	terms := newFakeTermStore(models.AcademicTerm{ID: "1", IsCurrent: true})
	backend := newMemoryCache()
	cache := NewCacheService(backend, nil, time.Minute, zap.NewNop(), true)

	periods := NewPeriodService(years, terms, cache, time.Minute, zap.NewNop())
	yearSvc := NewAcademicYearService(years, cache, nil, nil, zap.NewNop())
	ctx := context.Background()

	first, err := periods.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5", first.Year.ID)

	_, err = periods.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, years.currentHits)

	_, err = yearSvc.SetCurrent(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.deletes)

	after, err := periods.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7", after.Year.ID)
	assert.Equal(t, 2, years.currentHits)
}

func TestPeriodServiceCacheIgnoresLoadRacingSwitch(t *testing.T) {
	years := newFakeYearStore(
		models.AcademicYear{ID: "5", IsCurrent: true},
		models.AcademicYear{ID: "7"},
	)
	terms := newFakeTermStore(models.AcademicTerm{ID: "1", IsCurrent: true})
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), true)

	periods := NewPeriodService(years, terms, cache, time.Minute, zap.NewNop())
	yearSvc := NewAcademicYearService(years, cache, nil, nil, zap.NewNop())
	ctx := context.Background()

	years.afterFind = func() {
		_, err := yearSvc.SetCurrent(ctx, "7")
		require.NoError(t, err)
	}

	racing, err := periods.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5", racing.Year.ID)

	after, err := periods.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7", after.Year.ID)
}

func TestAcademicYearCreateAsCurrentFailureStoresNothing(t *testing.T) {
	store := newFakeYearStore(models.AcademicYear{ID: "old", IsCurrent: true})
	store.setErr = errors.New("lock timeout")
	svc := NewAcademicYearService(store, nil, nil, nil, zap.NewNop())

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), CreateAcademicYearRequest{
		Name:      "2024/2025",
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		IsCurrent: true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	list, total, err := store.List(context.Background(), models.AcademicYearFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "old", list[0].ID)
	assert.True(t, list[0].IsCurrent)
}

func TestAcademicTermCreateAsCurrentIsGlobal(t *testing.T) {
	store := newFakeTermStore(models.AcademicTerm{ID: "t1", AcademicYearID: "2023", IsCurrent: true})
	svc := NewAcademicTermService(store, nil, nil, nil, zap.NewNop())

	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	term, err := svc.Create(context.Background(), CreateAcademicTermRequest{
		Name:           "Semester 1",
		AcademicYearID: "2024",
		StartDate:      start,
		EndDate:        start.AddDate(0, 6, 0),
		IsCurrent:      true,
	})
	require.NoError(t, err)
	assert.True(t, term.IsCurrent)

	current, err := store.FindCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, term.ID, current.ID)
}
