package config_test

import (
	"fmt"
	"testing"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecturely/ingest/config"
	"github.com/lecturely/ingest/transcript"
)

type fakeEnvRepository struct {
	values map[string]string
}

func newFakeEnvRepository(values map[string]string) env.Repository {
	return fakeEnvRepository{values: values}
}

func (r fakeEnvRepository) Get(key string) string {
	return r.values[key]
}

func (r fakeEnvRepository) Set(key, value string) error {
	r.values[key] = value
	return nil
}

func (r fakeEnvRepository) Unset(key string) error {
	delete(r.values, key)
	return nil
}

func (r fakeEnvRepository) List() []string {
	var envs []string
	for k, v := range r.values {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	return envs
}

func TestLoadUploadAPI(t *testing.T) {
	envRepo := newFakeEnvRepository(map[string]string{
		"BUCKET_NAME":      "lecture-videos",
		"REGION":           "eu-central-1",
		"ENABLE_DEBUG_LOG": "true",
	})

	cfg, err := config.LoadUploadAPI(envRepo)

	require.NoError(t, err)
	assert.Equal(t, "lecture-videos", cfg.Bucket)
	assert.Equal(t, "eu-central-1", cfg.Region)
	assert.True(t, cfg.DebugLog)
}

func TestLoadUploadAPIMissingBucket(t *testing.T) {
	envRepo := newFakeEnvRepository(map[string]string{"REGION": "eu-central-1"})

	_, err := config.LoadUploadAPI(envRepo)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUCKET_NAME")
}

func TestLoadTrigger(t *testing.T) {
	envRepo := newFakeEnvRepository(map[string]string{
		"STATE_MACHINE_ARN": "arn:aws:states:eu-central-1:123456789012:stateMachine:ingest",
	})

	cfg, err := config.LoadTrigger(envRepo)

	require.NoError(t, err)
	assert.Equal(t, "arn:aws:states:eu-central-1:123456789012:stateMachine:ingest", cfg.StateMachineARN)
	assert.False(t, cfg.DebugLog)
}

func TestLoadTranscriptionMissingTable(t *testing.T) {
	envRepo := newFakeEnvRepository(map[string]string{"TRANSCRIPTS_BUCKET": "lecture-transcripts"})

	_, err := config.LoadTranscription(envRepo)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSCRIBE_TABLE")
}

func TestLoadResultsDefaults(t *testing.T) {
	cfg, err := config.LoadResults(newFakeEnvRepository(nil))

	require.NoError(t, err)
	assert.Equal(t, transcript.DefaultEmbeddingModelID, cfg.EmbeddingModelID)
	assert.Equal(t, transcript.DefaultEmbeddingDim, cfg.EmbeddingDim)
}

func TestLoadResultsOverrides(t *testing.T) {
	envRepo := newFakeEnvRepository(map[string]string{
		"EMBEDDING_MODEL_ID": "amazon.titan-embed-text-v1",
		"EMBEDDING_DIM":      "256",
	})

	cfg, err := config.LoadResults(envRepo)

	require.NoError(t, err)
	assert.Equal(t, "amazon.titan-embed-text-v1", cfg.EmbeddingModelID)
	assert.Equal(t, 256, cfg.EmbeddingDim)
}

func TestLoadResultsInvalidDim(t *testing.T) {
	for _, dim := range []string{"abc", "0", "-5"} {
		envRepo := newFakeEnvRepository(map[string]string{"EMBEDDING_DIM": dim})

		_, err := config.LoadResults(envRepo)

		require.Error(t, err, "dim: %s", dim)
		assert.Contains(t, err.Error(), "EMBEDDING_DIM")
	}
}

func TestLoadUploadClient(t *testing.T) {
	envRepo := newFakeEnvRepository(map[string]string{
		"API_GATEWAY_URL": "https://api.example.com",
		"AUTH_TOKEN":      "secret",
		"UPLOAD_USER_ID":  "u1",
	})

	cfg, err := config.LoadUploadClient(envRepo)

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "secret", cfg.AuthToken)
	assert.Equal(t, "u1", cfg.UserID)
}

func TestLoadUploadClientDefaultsUser(t *testing.T) {
	envRepo := newFakeEnvRepository(map[string]string{"API_GATEWAY_URL": "https://api.example.com"})

	cfg, err := config.LoadUploadClient(envRepo)

	require.NoError(t, err)
	assert.Equal(t, "anonymous", cfg.UserID)
}
