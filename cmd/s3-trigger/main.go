package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/config"
	"github.com/lecturely/ingest/handler"
	"github.com/lecturely/ingest/workflow"
)

func main() {
	logger := log.NewLogger()

	cfg, err := config.LoadTrigger(env.NewRepository())
	if err != nil {
		logger.Errorf("Configuration: %s", err)
		os.Exit(1)
	}
	logger.EnableDebugLog(cfg.DebugLog)

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Errorf("Load AWS config: %s", err)
		os.Exit(1)
	}

	starter := workflow.NewStarter(sfn.NewFromConfig(awsConfig), cfg.StateMachineARN, time.Now, logger)
	trigger := handler.NewTrigger(starter, logger)

	lambda.Start(func(ctx context.Context, raw json.RawMessage) error {
		return trigger.HandleObjectCreated(ctx, raw)
	})
}
