package transcription

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/fault"
)

// StatusCompleted is the only terminal job status treated as success.
const StatusCompleted = "COMPLETED"

// TaskSignaler resumes a paused workflow execution by task token.
type TaskSignaler interface {
	SignalSuccess(ctx context.Context, token string, output interface{}) error
	SignalFailure(ctx context.Context, token, errorCode, cause string) error
}

// JobStateChange is the terminal-state notification delivered by the
// provider's job-state-change event.
type JobStateChange struct {
	JobName string
	Status  string
}

// Relay handles terminal job states: it enriches the stored record with the
// job's result URLs and signals the workflow execution that has been waiting
// on the job.
type Relay struct {
	client   transcribeAPI
	store    *Store
	signaler TaskSignaler
	logger   log.Logger
}

// NewRelay ...
func NewRelay(client *transcribe.Client, store *Store, signaler TaskSignaler, logger log.Logger) *Relay {
	return newRelay(client, store, signaler, logger)
}

func newRelay(client transcribeAPI, store *Store, signaler TaskSignaler, logger log.Logger) *Relay {
	return &Relay{
		client:   client,
		store:    store,
		signaler: signaler,
		logger:   logger,
	}
}

// HandleJobStateChange fetches the full job record from the provider,
// updates the stored record, and signals the paused execution. The task
// token is read back from the store update rather than kept in memory, so
// concurrent relays for different jobs never mix tokens.
func (r *Relay) HandleJobStateChange(ctx context.Context, change JobStateChange) error {
	if change.JobName == "" {
		return fault.NewValidationError("job name is missing from the state-change event")
	}

	resp, err := r.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(change.JobName),
	})
	if err != nil {
		return fault.NewProviderError("get transcription job", err)
	}

	job := resp.TranscriptionJob
	if job == nil {
		return fault.NewProviderError("get transcription job", fmt.Errorf("empty job in response for %s", change.JobName))
	}

	var mediaURL, transcriptURL string
	if job.Media != nil {
		mediaURL = aws.ToString(job.Media.MediaFileUri)
	}
	if job.Transcript != nil {
		transcriptURL = aws.ToString(job.Transcript.TranscriptFileUri)
	}

	update := map[string]string{
		"status":        change.Status,
		"transcriptUrl": transcriptURL,
		"mediaUrl":      mediaURL,
	}
	record, err := r.store.Update(ctx, change.JobName, update)
	if err != nil {
		return fmt.Errorf("update record for job %s: %w", change.JobName, err)
	}
	if record.TaskToken == "" {
		return fmt.Errorf("no task token stored for job %s, cannot signal the workflow", change.JobName)
	}

	if change.Status == StatusCompleted {
		r.logger.Donef("Job %s completed", change.JobName)
		return r.signaler.SignalSuccess(ctx, record.TaskToken, update)
	}

	r.logger.Warnf("Job %s did not complete, status: %s", change.JobName, change.Status)
	return r.signaler.SignalFailure(ctx, record.TaskToken, "TranscriptionFailed",
		fmt.Sprintf("transcription did not complete, status: %s", change.Status))
}
