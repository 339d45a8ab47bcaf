// Package config loads each deployable's configuration from an injected
// environment repository. Components never read ambient process environment
// themselves; the loaders here are the only place variable names appear.
package config

import (
	"fmt"
	"strconv"

	"github.com/bitrise-io/go-utils/v2/env"

	"github.com/lecturely/ingest/transcript"
)

// UploadAPI configures the three upload endpoints.
type UploadAPI struct {
	Bucket   string
	Region   string
	DebugLog bool
}

// LoadUploadAPI ...
func LoadUploadAPI(envRepo env.Repository) (UploadAPI, error) {
	bucket, err := required(envRepo, "BUCKET_NAME")
	if err != nil {
		return UploadAPI{}, err
	}
	region, err := required(envRepo, "REGION")
	if err != nil {
		return UploadAPI{}, err
	}
	return UploadAPI{
		Bucket:   bucket,
		Region:   region,
		DebugLog: debugLog(envRepo),
	}, nil
}

// Trigger configures the object-created event handler.
type Trigger struct {
	StateMachineARN string
	DebugLog        bool
}

// LoadTrigger ...
func LoadTrigger(envRepo env.Repository) (Trigger, error) {
	arn, err := required(envRepo, "STATE_MACHINE_ARN")
	if err != nil {
		return Trigger{}, err
	}
	return Trigger{
		StateMachineARN: arn,
		DebugLog:        debugLog(envRepo),
	}, nil
}

// Transcription configures the job-start handler.
type Transcription struct {
	JobTable          string
	TranscriptsBucket string
	DebugLog          bool
}

// LoadTranscription ...
func LoadTranscription(envRepo env.Repository) (Transcription, error) {
	table, err := required(envRepo, "TRANSCRIBE_TABLE")
	if err != nil {
		return Transcription{}, err
	}
	bucket, err := required(envRepo, "TRANSCRIPTS_BUCKET")
	if err != nil {
		return Transcription{}, err
	}
	return Transcription{
		JobTable:          table,
		TranscriptsBucket: bucket,
		DebugLog:          debugLog(envRepo),
	}, nil
}

// Relay configures the job-completion relay.
type Relay struct {
	JobTable string
	DebugLog bool
}

// LoadRelay ...
func LoadRelay(envRepo env.Repository) (Relay, error) {
	table, err := required(envRepo, "TRANSCRIBE_TABLE")
	if err != nil {
		return Relay{}, err
	}
	return Relay{
		JobTable: table,
		DebugLog: debugLog(envRepo),
	}, nil
}

// Results configures transcript processing and embedding generation.
type Results struct {
	EmbeddingModelID string
	EmbeddingDim     int
	DebugLog         bool
}

// LoadResults applies the model defaults when the variables are unset.
func LoadResults(envRepo env.Repository) (Results, error) {
	modelID := envRepo.Get("EMBEDDING_MODEL_ID")
	if modelID == "" {
		modelID = transcript.DefaultEmbeddingModelID
	}

	dim := transcript.DefaultEmbeddingDim
	if raw := envRepo.Get("EMBEDDING_DIM"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return Results{}, fmt.Errorf("EMBEDDING_DIM must be a positive integer, got %q", raw)
		}
		dim = parsed
	}

	return Results{
		EmbeddingModelID: modelID,
		EmbeddingDim:     dim,
		DebugLog:         debugLog(envRepo),
	}, nil
}

// UploadClient configures the operator upload CLI.
type UploadClient struct {
	APIBaseURL string
	AuthToken  string
	UserID     string
}

// LoadUploadClient ...
func LoadUploadClient(envRepo env.Repository) (UploadClient, error) {
	baseURL, err := required(envRepo, "API_GATEWAY_URL")
	if err != nil {
		return UploadClient{}, err
	}

	userID := envRepo.Get("UPLOAD_USER_ID")
	if userID == "" {
		userID = "anonymous"
	}

	return UploadClient{
		APIBaseURL: baseURL,
		AuthToken:  envRepo.Get("AUTH_TOKEN"),
		UserID:     userID,
	}, nil
}

func required(envRepo env.Repository, key string) (string, error) {
	value := envRepo.Get(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

func debugLog(envRepo env.Repository) bool {
	return envRepo.Get("ENABLE_DEBUG_LOG") == "true"
}
