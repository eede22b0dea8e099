package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	log "github.com/golang/glog"

	"github.com/joincivil/content-moderation-adapter/pkg/helpers"
	"github.com/joincivil/content-moderation-adapter/pkg/syncmain"
	"github.com/joincivil/content-moderation-adapter/pkg/utils"
)

func main() {
	config := &utils.ModerationConfig{}
	codePath := flag.String("code", "", "Path to the contract source to deploy")
	argsFlag := flag.String("args", "", "Comma separated string constructor args")
	flag.Usage = func() {
		flag.PrintDefaults()
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
	if *codePath == "" {
		log.Errorf("No contract code given")
		os.Exit(2)
	}
	code, err := os.ReadFile(*codePath)
	if err != nil {
		log.Errorf("Error reading contract code: err: %v", err)
		os.Exit(2)
	}
	args := []interface{}{}
	if *argsFlag != "" {
		for _, arg := range strings.Split(*argsFlag, ",") {
			args = append(args, arg)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	syncmain.SetupKillNotify(cancel)
	backend, err := helpers.Backend(ctx, config)
	if err != nil {
		log.Errorf("Error connecting to endpoint: err: %v", err)
		os.Exit(2)
	}
	defer backend.Close()
	client := helpers.Client(backend, config)

	receipt, err := client.DeployContract(ctx, code, args)
	if err != nil {
		log.Errorf("Error deploying contract: err: %v", err)
		log.Flush()
		os.Exit(1)
	}
	log.Infof("Deployment %v finished as %v", receipt.Hash, receipt.StatusName)
	log.Flush()
	fmt.Println(receipt.ContractAddress)
}
