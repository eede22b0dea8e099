package persistence // import "github.com/joincivil/content-moderation-adapter/pkg/persistence"

import (
	"github.com/joincivil/content-moderation-adapter/pkg/model"
)

// NullPersister is a persister that does nothing but satisfy the persister
// interfaces. Used when the sync runs without storage.
type NullPersister struct{}

// GuidelineByID returns ErrPersisterNoResults
func (n *NullPersister) GuidelineByID(id string) (*model.Guideline, error) {
	return nil, model.ErrPersisterNoResults
}

// Guidelines returns no guidelines
func (n *NullPersister) Guidelines() ([]*model.Guideline, error) {
	return []*model.Guideline{}, nil
}

// SaveGuidelines does nothing
func (n *NullPersister) SaveGuidelines(guidelines []*model.Guideline) error {
	return nil
}

// ModerationResultsByCriteria returns no results
func (n *NullPersister) ModerationResultsByCriteria(filter *model.ModerationFilter) ([]*model.ModerationResult, error) {
	return []*model.ModerationResult{}, nil
}

// SaveModerationResults does nothing
func (n *NullPersister) SaveModerationResults(results []*model.ModerationResult) error {
	return nil
}

// TimestampOfLastSyncForCron returns 0
func (n *NullPersister) TimestampOfLastSyncForCron() (int64, error) {
	return 0, nil
}

// UpdateTimestampForCron does nothing
func (n *NullPersister) UpdateTimestampForCron(timestamp int64) error {
	return nil
}
