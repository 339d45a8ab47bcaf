package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/config"
	"github.com/lecturely/ingest/transcription"
)

type startRequest struct {
	S3URI   string `json:"s3_uri"`
	SFToken string `json:"sftoken"`
}

type startResponse struct {
	JobName string `json:"job_name"`
}

func main() {
	logger := log.NewLogger()

	cfg, err := config.LoadTranscription(env.NewRepository())
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
	service := transcription.NewService(transcribe.NewFromConfig(awsConfig), store, cfg.TranscriptsBucket, logger)

	lambda.Start(func(ctx context.Context, req startRequest) (startResponse, error) {
		jobName, err := service.StartJob(ctx, req.S3URI, req.SFToken)
		if err != nil {
			return startResponse{}, err
		}
		return startResponse{JobName: jobName}, nil
	})
}
