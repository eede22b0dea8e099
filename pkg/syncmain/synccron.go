package syncmain

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/golang/glog"
	"github.com/robfig/cron"

	"github.com/joincivil/content-moderation-adapter/pkg/moderation"
	"github.com/joincivil/content-moderation-adapter/pkg/utils"
)

const (
	checkRunSecs = 60
)

// NewCronSchedule parses a 5 field cron config
func NewCronSchedule(cronConfig string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronConfig)
	if err != nil {
		return nil, fmt.Errorf("Invalid cron config '%v': %v", cronConfig, err)
	}
	return schedule, nil
}

func checkCron(cr *cron.Cron) {
	entries := cr.Entries()
	for _, entry := range entries {
		log.Infof("Sync run times: prev: %v, next: %v\n", entry.Prev, entry.Next)
	}
}

// SyncJob runs one sync per cron tick. Ticks that arrive while a sync is
// still running are skipped.
type SyncJob struct {
	ctx        context.Context
	client     *moderation.Client
	persisters *InitializedPersisters
	running    chan struct{}
}

// NewSyncJob returns a job syncing the client's contract into the persisters
func NewSyncJob(ctx context.Context, client *moderation.Client, persisters *InitializedPersisters) *SyncJob {
	return &SyncJob{
		ctx:        ctx,
		client:     client,
		persisters: persisters,
		running:    make(chan struct{}, 1),
	}
}

// Run implements cron.Job
func (j *SyncJob) Run() {
	select {
	case j.running <- struct{}{}:
	default:
		log.Infof("Previous sync still running, skipping")
		return
	}
	defer func() { <-j.running }()

	_, err := RunSync(j.ctx, j.client, j.persisters)
	if err != nil {
		log.Errorf("Error running sync: err: %v", err)
	}
}

// SyncCronMain runs the sync on the configured schedule until the context is
// done or the process is told to stop
func SyncCronMain(ctx context.Context, config *utils.ModerationConfig, client *moderation.Client,
	persisters *InitializedPersisters) error {
	schedule, err := NewCronSchedule(config.CronConfig)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	SetupKillNotify(cancel)

	cr := cron.New()
	cr.Schedule(schedule, NewSyncJob(ctx, client, persisters))
	cr.Start()
	defer cr.Stop()

	ticker := time.NewTicker(checkRunSecs * time.Second)
	defer ticker.Stop()
	// Blocks here while the cron process runs
	for {
		select {
		case <-ticker.C:
			checkCron(cr)
		case <-ctx.Done():
			log.Infof("Stopping sync cron")
			return nil
		}
	}
}

// SetupKillNotify calls cancel on SIGINT or SIGTERM
func SetupKillNotify(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Infof("Received stop signal")
		cancel()
	}()
}
