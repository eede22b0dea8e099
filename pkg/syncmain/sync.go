package syncmain

import (
	"context"
	"fmt"
	"runtime"

	log "github.com/golang/glog"

	"github.com/joincivil/content-moderation-adapter/pkg/model"
	"github.com/joincivil/content-moderation-adapter/pkg/moderation"
	"github.com/joincivil/content-moderation-adapter/pkg/utils"
)

// SyncStats describes one completed sync
type SyncStats struct {
	Guidelines int
	Results    int
	Outcomes   model.OutcomeCounts
	// PreviousSync is the timestamp of the sync before this one, 0 if none
	PreviousSync int64
	Timestamp    int64
}

// RunSync reads the full contract state and saves it to the persisters. The
// cron timestamp is only updated once everything has been saved.
func RunSync(ctx context.Context, client *moderation.Client,
	persisters *InitializedPersisters) (*SyncStats, error) {
	if err := client.ConfigError(); err != nil {
		return nil, err
	}

	lastTs, err := persisters.Cron.TimestampOfLastSyncForCron()
	if err != nil {
		return nil, fmt.Errorf("Error getting last sync timestamp: %v", err)
	}
	log.Infof("Syncing %v, last sync: %v", client.ContractAddress().Hex(), utils.DescribeSyncTime(lastTs))

	snap, err := client.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("Error reading contract state: %v", err)
	}

	err = persisters.Guideline.SaveGuidelines(snap.Guidelines)
	if err != nil {
		return nil, fmt.Errorf("Error saving guidelines: %v", err)
	}
	err = persisters.ModerationResult.SaveModerationResults(snap.Results)
	if err != nil {
		return nil, fmt.Errorf("Error saving moderation results: %v", err)
	}

	stats := &SyncStats{
		Guidelines:   len(snap.Guidelines),
		Results:      len(snap.Results),
		Outcomes:     model.CountOutcomes(snap.Results),
		PreviousSync: lastTs,
		Timestamp:    utils.CurrentEpochSecsInInt64(),
	}
	err = persisters.Cron.UpdateTimestampForCron(stats.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("Error saving sync timestamp %v: %v", stats.Timestamp, err)
	}

	log.Infof("Done running sync: guidelines: %v, results: %v, outcomes: %v, goroutines: %v",
		stats.Guidelines, stats.Results, stats.Outcomes, runtime.NumGoroutine())
	return stats, nil
}
