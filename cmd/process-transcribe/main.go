package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/config"
	"github.com/lecturely/ingest/transcription"
	"github.com/lecturely/ingest/workflow"
)

// jobStateDetail is the detail payload of the Transcribe job-state-change
// EventBridge event.
type jobStateDetail struct {
	TranscriptionJobName   string `json:"TranscriptionJobName"`
	TranscriptionJobStatus string `json:"TranscriptionJobStatus"`
}

func main() {
	logger := log.NewLogger()

	cfg, err := config.LoadRelay(env.NewRepository())
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

	store := transcription.NewStore(dynamodb.NewFromConfig(awsConfig), cfg.JobTable, logger)
	signaler := workflow.NewSignaler(sfn.NewFromConfig(awsConfig), logger)
	relay := transcription.NewRelay(transcribe.NewFromConfig(awsConfig), store, signaler, logger)

	lambda.Start(func(ctx context.Context, event events.CloudWatchEvent) error {
		var detail jobStateDetail
		if err := json.Unmarshal(event.Detail, &detail); err != nil {
			return fmt.Errorf("parse job state change detail: %w", err)
		}
		return relay.HandleJobStateChange(ctx, transcription.JobStateChange{
			JobName: detail.TranscriptionJobName,
			Status:  detail.TranscriptionJobStatus,
		})
	})
}
