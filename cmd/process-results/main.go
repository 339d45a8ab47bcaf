package main

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/config"
	"github.com/lecturely/ingest/transcript"
)

type processRequest struct {
	TranscriptURL string `json:"transcriptUrl"`
	MediaURL      string `json:"mediaUrl"`
	S3URI         string `json:"s3_uri"`
}

type processResponse struct {
	StatusCode     int `json:"statusCode"`
	SegmentCount   int `json:"segmentCount"`
	EmbeddingCount int `json:"embeddingCount"`
}

func main() {
	logger := log.NewLogger()

	cfg, err := config.LoadResults(env.NewRepository())
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

	fetcher := transcript.NewFetcher(s3.NewFromConfig(awsConfig), logger)
	embedder := transcript.NewEmbedder(bedrockruntime.NewFromConfig(awsConfig), cfg.EmbeddingModelID, cfg.EmbeddingDim, logger)
	processor := transcript.NewProcessor(fetcher, embedder, logger)

	lambda.Start(func(ctx context.Context, req processRequest) (processResponse, error) {
		mediaURI := req.S3URI
		if mediaURI == "" {
			mediaURI = req.MediaURL
		}

		segments, embeddings, err := processor.Process(ctx, req.TranscriptURL, mediaURI)
		if err != nil {
			return processResponse{}, err
		}
		return processResponse{
			StatusCode:     http.StatusOK,
			SegmentCount:   segments,
			EmbeddingCount: embeddings,
		}, nil
	})
}
