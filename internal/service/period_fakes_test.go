package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

// fakeYearStore mimics the repository semantics in memory: SetCurrent flips
// every flag in one critical section.
type fakeYearStore struct {
	mu          sync.Mutex
	rows        map[string]*models.AcademicYear
	terms       map[string]int
	findErr     error
	setErr      error
	currentHits int
	afterFind   func()
}

func newFakeYearStore(rows ...models.AcademicYear) *fakeYearStore {
	store := &fakeYearStore{rows: map[string]*models.AcademicYear{}, terms: map[string]int{}}
	for i := range rows {
		row := rows[i]
		store.rows[row.ID] = &row
	}
	return store
}

func (f *fakeYearStore) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AcademicYear, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeYearStore) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *row
	return &cp, nil
}

func (f *fakeYearStore) FindCurrent(ctx context.Context) (*models.AcademicYear, error) {
	year, err := f.findCurrent()
	if hook := f.takeAfterFind(); hook != nil {
		hook()
	}
	return year, err
}

func (f *fakeYearStore) findCurrent() (*models.AcademicYear, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentHits++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, row := range f.rows {
		if row.IsCurrent {
			cp := *row
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

// takeAfterFind hands out afterFind once, so a test can run a write between
// a reader's load and its cache fill.
func (f *fakeYearStore) takeAfterFind() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	hook := f.afterFind
	f.afterFind = nil
	return hook
}

func (f *fakeYearStore) Create(ctx context.Context, year *models.AcademicYear) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if year.ID == "" {
		year.ID = "generated"
	}
	year.IsCurrent = false
	cp := *year
	f.rows[year.ID] = &cp
	return nil
}

func (f *fakeYearStore) CreateCurrent(ctx context.Context, year *models.AcademicYear) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if year.ID == "" {
		year.ID = "generated"
	}
	for _, row := range f.rows {
		row.IsCurrent = false
	}
	year.IsCurrent = true
	cp := *year
	f.rows[year.ID] = &cp
	return nil
}

func (f *fakeYearStore) Update(ctx context.Context, year *models.AcademicYear) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[year.ID]
	if !ok {
		return sql.ErrNoRows
	}
	current := row.IsCurrent
	cp := *year
	cp.IsCurrent = current
	f.rows[year.ID] = &cp
	return nil
}

func (f *fakeYearStore) SetCurrent(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if _, ok := f.rows[id]; !ok {
		return sql.ErrNoRows
	}
	for key, row := range f.rows {
		row.IsCurrent = key == id
	}
	return nil
}

func (f *fakeYearStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeYearStore) CountTerms(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terms[id], nil
}

func (f *fakeYearStore) currentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, row := range f.rows {
		if row.IsCurrent {
			n++
		}
	}
	return n
}

type fakeTermStore struct {
	mu        sync.Mutex
	rows      map[string]*models.AcademicTerm
	deadlines map[string]int
	findErr   error
}

func newFakeTermStore(rows ...models.AcademicTerm) *fakeTermStore {
	store := &fakeTermStore{rows: map[string]*models.AcademicTerm{}, deadlines: map[string]int{}}
	for i := range rows {
		row := rows[i]
		store.rows[row.ID] = &row
	}
	return store
}

func (f *fakeTermStore) List(ctx context.Context, filter models.AcademicTermFilter) ([]models.AcademicTerm, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AcademicTerm, 0, len(f.rows))
	for _, row := range f.rows {
		if filter.AcademicYearID != "" && row.AcademicYearID != filter.AcademicYearID {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeTermStore) FindByID(ctx context.Context, id string) (*models.AcademicTerm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *row
	return &cp, nil
}

func (f *fakeTermStore) FindCurrent(ctx context.Context) (*models.AcademicTerm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, row := range f.rows {
		if row.IsCurrent {
			cp := *row
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTermStore) Create(ctx context.Context, term *models.AcademicTerm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if term.ID == "" {
		term.ID = "generated"
	}
	term.IsCurrent = false
	cp := *term
	f.rows[term.ID] = &cp
	return nil
}

func (f *fakeTermStore) CreateCurrent(ctx context.Context, term *models.AcademicTerm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if term.ID == "" {
		term.ID = "generated"
	}
	for _, row := range f.rows {
		row.IsCurrent = false
	}
	term.IsCurrent = true
	cp := *term
	f.rows[term.ID] = &cp
	return nil
}

func (f *fakeTermStore) Update(ctx context.Context, term *models.AcademicTerm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[term.ID]
	if !ok {
		return sql.ErrNoRows
	}
	current := row.IsCurrent
	cp := *term
	cp.IsCurrent = current
	f.rows[term.ID] = &cp
	return nil
}

func (f *fakeTermStore) SetCurrent(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return sql.ErrNoRows
	}
	for key, row := range f.rows {
		row.IsCurrent = key == id
	}
	return nil
}

func (f *fakeTermStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeTermStore) CountDeadlines(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deadlines[id], nil
}

// memoryCache is an in-memory CacheRepository for current-period payloads.
// Patterns ending in '*' match by prefix.
type memoryCache struct {
	mu       sync.Mutex
	entries  map[string]models.CurrentPeriod
	counters map[string]int64
	deletes  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]models.CurrentPeriod{}, counters: map[string]int64{}}
}

func (c *memoryCache) Counter(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters[key], nil
}

func (c *memoryCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	target, ok := dest.(*models.CurrentPeriod)
	if !ok {
		return errors.New("unsupported cache destination")
	}
	*target = value
	return nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	period, ok := value.(*models.CurrentPeriod)
	if !ok {
		return errors.New("unsupported cache value")
	}
	c.entries[key] = *period
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}
