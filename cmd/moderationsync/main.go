package main

import (
	"context"
	"flag"
	"os"

	log "github.com/golang/glog"

	"github.com/joincivil/content-moderation-adapter/pkg/helpers"
	"github.com/joincivil/content-moderation-adapter/pkg/syncmain"
	"github.com/joincivil/content-moderation-adapter/pkg/utils"
)

func main() {
	config := &utils.ModerationConfig{}
	once := flag.Bool("once", false, "Run a single sync and exit")
	flag.Usage = func() {
		config.OutputUsage()
		os.Exit(0)
	}
	flag.Parse()

	err := config.PopulateFromEnv()
	if err != nil {
		config.OutputUsage()
		log.Errorf("Invalid moderation config: err: %v\n", err)
		os.Exit(2)
	}

	persisters, err := syncmain.InitPersisters(config)
	if err != nil {
		log.Errorf("Error initializing persister: err: %v", err)
		os.Exit(2)
	}

	ctx := context.Background()
	backend, err := helpers.Backend(ctx, config)
	if err != nil {
		log.Errorf("Error connecting to endpoint: err: %v", err)
		os.Exit(2)
	}
	defer backend.Close()
	client := helpers.Client(backend, config)

	if *once {
		_, err = syncmain.RunSync(ctx, client, persisters)
	} else {
		err = syncmain.SyncCronMain(ctx, config, client, persisters)
	}
	if err != nil {
		log.Errorf("Error running sync: err: %v", err)
		log.Flush()
		os.Exit(1)
	}
	log.Flush()
}
