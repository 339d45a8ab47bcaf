package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/config"
	"github.com/lecturely/ingest/handler"
	"github.com/lecturely/ingest/upload"
	"github.com/lecturely/ingest/upload/storage"
)

func main() {
	logger := log.NewLogger()

	cfg, err := config.LoadUploadAPI(env.NewRepository())
	if err != nil {
		logger.Errorf("Configuration: %s", err)
		os.Exit(1)
	}
	logger.EnableDebugLog(cfg.DebugLog)

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		logger.Errorf("Load AWS config: %s", err)
		os.Exit(1)
	}

	store := storage.NewS3Store(s3.NewFromConfig(awsConfig), cfg.Bucket, logger)
	api := handler.NewAPI(upload.NewCoordinator(store, time.Now, logger), logger)

	lambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return api.MultipartInit(ctx, handler.FromAPIGateway(req)).ToAPIGateway(), nil
	})
}
