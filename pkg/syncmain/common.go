// Package syncmain contains the logic to sync contract state into the
// persisters, once or on a cron schedule
package syncmain

import (
	log "github.com/golang/glog"

	"github.com/joincivil/content-moderation-adapter/pkg/helpers"
	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/utils"
)

// InitializedPersisters contains initialized persisters needed to run the sync
type InitializedPersisters struct {
	Cron             model.CronPersister
	Guideline        model.GuidelinePersister
	ModerationResult model.ModerationResultPersister
}

// InitPersisters inits the persisters from the config. All of them share one
// underlying persister.
func InitPersisters(config *utils.ModerationConfig) (*InitializedPersisters, error) {
	p, err := helpers.Persister(config)
	if err != nil {
		log.Errorf("Error w Persister: err: %v", err)
		return nil, err
	}
	return &InitializedPersisters{
		Cron:             p.(model.CronPersister),
		Guideline:        p.(model.GuidelinePersister),
		ModerationResult: p.(model.ModerationResultPersister),
	}, nil
}
