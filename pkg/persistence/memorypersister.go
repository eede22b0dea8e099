package persistence // import "github.com/joincivil/content-moderation-adapter/pkg/persistence"

import (
	"sort"
	"sync"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
)

// MemoryPersister keeps synced contract state in memory
type MemoryPersister struct {
	mu            sync.RWMutex
	guidelines    map[string]*model.Guideline
	results       map[model.ResultKey]*model.ModerationResult
	lastTimestamp int64
}

// NewMemoryPersister creates an empty memory persister
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{
		guidelines: map[string]*model.Guideline{},
		results:    map[model.ResultKey]*model.ModerationResult{},
	}
}

// GuidelineByID retrieves a guideline by its id
func (m *MemoryPersister) GuidelineByID(id string) (*model.Guideline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	guideline, ok := m.guidelines[id]
	if !ok {
		return nil, model.ErrPersisterNoResults
	}
	copied := *guideline
	return &copied, nil
}

// Guidelines returns all stored guidelines ordered by id
func (m *MemoryPersister) Guidelines() ([]*model.Guideline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	guidelines := make([]*model.Guideline, 0, len(m.guidelines))
	for _, guideline := range m.guidelines {
		copied := *guideline
		guidelines = append(guidelines, &copied)
	}
	sort.Slice(guidelines, func(i, j int) bool {
		return guidelines[i].ID < guidelines[j].ID
	})
	return guidelines, nil
}

// SaveGuidelines creates or updates the given guidelines
func (m *MemoryPersister) SaveGuidelines(guidelines []*model.Guideline) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, guideline := range guidelines {
		copied := *guideline
		m.guidelines[guideline.ID] = &copied
	}
	return nil
}

// ModerationResultsByCriteria returns stored results that match the filter,
// ordered by post id then guideline id
func (m *MemoryPersister) ModerationResultsByCriteria(filter *model.ModerationFilter) ([]*model.ModerationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := []*model.ModerationResult{}
	for _, result := range m.results {
		if filter.Match(result) {
			copied := *result
			results = append(results, &copied)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].PostID != results[j].PostID {
			return results[i].PostID < results[j].PostID
		}
		return results[i].GuidelineID < results[j].GuidelineID
	})
	return results, nil
}

// SaveModerationResults creates or updates the given results
func (m *MemoryPersister) SaveModerationResults(results []*model.ModerationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, result := range results {
		copied := *result
		m.results[result.Key()] = &copied
	}
	return nil
}

// TimestampOfLastSyncForCron returns the timestamp of the last completed sync
func (m *MemoryPersister) TimestampOfLastSyncForCron() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTimestamp, nil
}

// UpdateTimestampForCron updates the timestamp of the last completed sync
func (m *MemoryPersister) UpdateTimestampForCron(timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTimestamp = timestamp
	return nil
}
