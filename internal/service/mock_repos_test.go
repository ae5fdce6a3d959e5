package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"matriz-curricular/backend/internal/model"
	pkgerrors "matriz-curricular/backend/pkg/errors"
)

// ── Mock MatrixRepository ──

type mockMatrixRepo struct {
	matrices map[string]*model.Matrix
	err      error
}

func newMockMatrixRepo() *mockMatrixRepo {
	return &mockMatrixRepo{matrices: make(map[string]*model.Matrix)}
}

func (m *mockMatrixRepo) Create(_ context.Context, matrix *model.Matrix) error {
	if matrix.MatrixID == "" {
		matrix.MatrixID = "matrix-" + matrix.Name
	}
	m.matrices[matrix.MatrixID] = matrix
	return nil
}

func (m *mockMatrixRepo) GetByID(_ context.Context, id string) (*model.Matrix, error) {
	if m.err != nil {
		return nil, m.err
	}
	if mx, ok := m.matrices[id]; ok {
		return mx, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMatrixRepo) ListByTenant(_ context.Context, tenantID string) ([]model.Matrix, error) {
	var result []model.Matrix
	for _, mx := range m.matrices {
		if mx.TenantID == tenantID {
			result = append(result, *mx)
		}
	}
	return result, nil
}

// ── Mock MatrixEntryRepository ──
//
// Rows are stored by value so callers never alias the stored state, the
// way a real round trip through the database behaves.

type mockEntryRepo struct {
	rows      map[string]model.MatrixEntry // matrixID|date → row
	seq       int
	creates   int
	updates   int
	lists     int
	columns   map[string][]string // date → columns of the last update
	failDates map[string]error    // date → error returned by Create/Update
	lookupErr map[string]error    // date → error returned by GetByMatrixAndDate
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{
		rows:      make(map[string]model.MatrixEntry),
		columns:   make(map[string][]string),
		failDates: make(map[string]error),
		lookupErr: make(map[string]error),
	}
}

func entryKey(matrixID, date string) string { return matrixID + "|" + date }

func (m *mockEntryRepo) Create(_ context.Context, entry *model.MatrixEntry) error {
	date := entry.DateKey()
	if err := m.failDates[date]; err != nil {
		return err
	}
	key := entryKey(entry.MatrixID, date)
	if _, dup := m.rows[key]; dup {
		return fmt.Errorf("duplicate key value violates unique constraint \"uk_matrix_entries_matrix_date\"")
	}
	if entry.EntryID == "" {
		m.seq++
		entry.EntryID = fmt.Sprintf("entry-%03d", m.seq)
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	}
	m.rows[key] = *entry
	m.creates++
	return nil
}

func (m *mockEntryRepo) GetByMatrixAndDate(_ context.Context, matrixID, date string) (*model.MatrixEntry, error) {
	if err := m.lookupErr[date]; err != nil {
		return nil, err
	}
	row, ok := m.rows[entryKey(matrixID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (m *mockEntryRepo) ListByMatrix(_ context.Context, matrixID string) ([]model.MatrixEntry, error) {
	m.lists++
	var result []model.MatrixEntry
	for _, row := range m.rows {
		if row.MatrixID == matrixID {
			result = append(result, row)
		}
	}
	// date order, like ORDER BY date
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j].Date.Before(result[j-1].Date); j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}
	return result, nil
}

func (m *mockEntryRepo) Update(_ context.Context, entry *model.MatrixEntry, columns []string) error {
	date := entry.DateKey()
	if err := m.failDates[date]; err != nil {
		return err
	}
	key := entryKey(entry.MatrixID, date)
	stored, ok := m.rows[key]
	if !ok || stored.Version != entry.Version {
		return pkgerrors.ErrOptimisticLock
	}
	for _, c := range columns {
		switch c {
		case "campo":
			stored.Campo = entry.Campo
		case "objective_code":
			stored.ObjectiveCode = entry.ObjectiveCode
		case "objective_text":
			stored.ObjectiveText = entry.ObjectiveText
		case "curriculum_text":
			stored.CurriculumText = entry.CurriculumText
		case "week_of_year":
			stored.WeekOfYear = entry.WeekOfYear
		case "day_of_week":
			stored.DayOfWeek = entry.DayOfWeek
		case "bimester":
			stored.Bimester = entry.Bimester
		case "intentionality":
			stored.Intentionality = entry.Intentionality
		case "example_activity":
			stored.ExampleActivity = entry.ExampleActivity
		}
	}
	stored.UpdatedBy = entry.UpdatedBy
	stored.Version++
	m.rows[key] = stored
	m.columns[date] = append([]string(nil), columns...)
	m.updates++
	return nil
}

func (m *mockEntryRepo) row(matrixID, date string) (model.MatrixEntry, bool) {
	row, ok := m.rows[entryKey(matrixID, date)]
	return row, ok
}

// ── Mock AuditLogRepository ──

type mockAuditRepo struct {
	logs []model.AuditLog
	err  error
}

func (m *mockAuditRepo) Create(_ context.Context, log *model.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditRepo) ListByEntity(_ context.Context, entityType, entityID string, offset, limit int) ([]model.AuditLog, int64, error) {
	var matched []model.AuditLog
	for _, l := range m.logs {
		if l.EntityType == entityType && l.EntityID == entityID {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], total, nil
}

// ── Mock CacheVersionRepository ──

type mockCacheVersionRepo struct {
	versions map[string]int64
	err      error
}

func newMockCacheVersionRepo() *mockCacheVersionRepo {
	return &mockCacheVersionRepo{versions: make(map[string]int64)}
}

func (m *mockCacheVersionRepo) Increment(_ context.Context, tenantID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.versions[tenantID]++
	return m.versions[tenantID], nil
}

func (m *mockCacheVersionRepo) Get(_ context.Context, tenantID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.versions[tenantID], nil
}

// ── Fake collaborators ──

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, r io.Reader) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if r != nil {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return "", err
		}
	}
	return f.text, nil
}

type fakeLocker struct {
	held     bool
	locks    int
	unlocked int
}

func (f *fakeLocker) Lock(_ context.Context, _ string) (func(), error) {
	if f.held {
		return nil, ErrImportInProgress
	}
	f.locks++
	return func() { f.unlocked++ }, nil
}

// memoryCache is an in-process JSONCache that stores encoded values.
type memoryCache struct {
	data   map[string][]byte
	gets   int
	hits   int
	broken bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

var errCacheDown = errors.New("cache down")

func (c *memoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.gets++
	if c.broken {
		return false, errCacheDown
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	if c.broken {
		return errCacheDown
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}
