package model // import "github.com/joincivil/content-moderation-adapter/pkg/model"

import (
	"errors"
)

var (
	// ErrPersisterNoResults is an error that indicates no results were found
	ErrPersisterNoResults = errors.New("No results found")
)

// GuidelinePersister is the interface to store guidelines synced from the contract
type GuidelinePersister interface {
	// GuidelineByID retrieves a guideline by its id
	GuidelineByID(id string) (*Guideline, error)
	// Guidelines returns all stored guidelines
	Guidelines() ([]*Guideline, error)
	// SaveGuidelines creates or updates the given guidelines
	SaveGuidelines(guidelines []*Guideline) error
}

// ModerationResultPersister is the interface to store moderation results
// synced from the contract
type ModerationResultPersister interface {
	// ModerationResultsByCriteria returns stored results that match the filter
	ModerationResultsByCriteria(filter *ModerationFilter) ([]*ModerationResult, error)
	// SaveModerationResults creates or updates the given results
	SaveModerationResults(results []*ModerationResult) error
}

// CronPersister persists information needed for the cron to run
type CronPersister interface {
	// TimestampOfLastSyncForCron returns the timestamp of the last completed sync
	TimestampOfLastSyncForCron() (int64, error)
	// UpdateTimestampForCron updates the timestamp of the last completed sync
	UpdateTimestampForCron(timestamp int64) error
}
