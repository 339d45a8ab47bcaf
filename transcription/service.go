// Package transcription starts speech-transcription jobs for ingested videos
// and relays their completion back into the paused workflow execution.
package transcription

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/google/uuid"

	"github.com/lecturely/ingest/fault"
	"github.com/lecturely/ingest/internal/s3uri"
)

const maxSpeakerLabels int32 = 10

type transcribeAPI interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// Service starts transcription jobs and records them in the job store.
type Service struct {
	client       transcribeAPI
	store        *Store
	outputBucket string
	newJobName   func() string
	logger       log.Logger
}

// NewService creates a Service writing transcripts to outputBucket. Job names
// are fresh random UUIDs.
func NewService(client *transcribe.Client, store *Store, outputBucket string, logger log.Logger) *Service {
	return newService(client, store, outputBucket, uuid.NewString, logger)
}

func newService(client transcribeAPI, store *Store, outputBucket string, newJobName func() string, logger log.Logger) *Service {
	return &Service{
		client:       client,
		store:        store,
		outputBucket: outputBucket,
		newJobName:   newJobName,
		logger:       logger,
	}
}

// StartJob starts a transcription job for the video at mediaURI and records
// it together with the workflow task token. Language is auto-identified and
// speaker labels are enabled. The transcript lands in the output bucket
// under {key dir}/{filename}/transcribe.json.
func (s *Service) StartJob(ctx context.Context, mediaURI, taskToken string) (string, error) {
	_, key, err := s3uri.Parse(mediaURI)
	if err != nil {
		return "", fault.NewValidationError("invalid media URI: %s", err)
	}

	jobName := s.newJobName()
	outputKey := transcriptOutputKey(key)

	resp, err := s.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		IdentifyLanguage:     aws.Bool(true),
		Media: &transcribetypes.Media{
			MediaFileUri: aws.String(mediaURI),
		},
		OutputBucketName: aws.String(s.outputBucket),
		OutputKey:        aws.String(outputKey),
		Settings: &transcribetypes.Settings{
			ShowSpeakerLabels: aws.Bool(true),
			MaxSpeakerLabels:  aws.Int32(maxSpeakerLabels),
		},
	})
	if err != nil {
		return "", fault.NewProviderError("start transcription job", err)
	}

	status := ""
	if resp.TranscriptionJob != nil {
		status = string(resp.TranscriptionJob.TranscriptionJobStatus)
	}

	err = s.store.Put(ctx, JobRecord{
		JobName:   jobName,
		Status:    status,
		MediaURI:  mediaURI,
		TaskToken: taskToken,
	})
	if err != nil {
		return "", fmt.Errorf("job %s started but recording it failed: %w", jobName, err)
	}

	s.logger.Infof("Started transcription job %s for %s (status %s)", jobName, mediaURI, status)
	return jobName, nil
}

// transcriptOutputKey places the transcript next to the video's key:
// {dir}/{filename}/transcribe.json, without a leading slash when the key has
// no directory.
func transcriptOutputKey(videoKey string) string {
	dir := path.Dir(videoKey)
	filename := path.Base(videoKey)
	if dir == "." || dir == "/" {
		return fmt.Sprintf("%s/transcribe.json", filename)
	}
	return fmt.Sprintf("%s/%s/transcribe.json", dir, filename)
}
