package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bitrise-io/go-utils/v2/log"
)

// videoExtensions are the object-key suffixes that start the transcription
// pipeline. Everything else landing in the bucket is ignored.
var videoExtensions = []string{".mp4", ".mov"}

// PipelineStarter starts one workflow execution for a newly stored video.
type PipelineStarter interface {
	StartVideoPipeline(ctx context.Context, bucket, key string) (executionARN string, err error)
}

// Trigger reacts to object-created notifications. S3 can deliver them
// directly or fanned out through SNS with the S3 notification JSON carried
// in the SNS message.
type Trigger struct {
	starter PipelineStarter
	logger  log.Logger
}

// NewTrigger ...
func NewTrigger(starter PipelineStarter, logger log.Logger) *Trigger {
	return &Trigger{
		starter: starter,
		logger:  logger,
	}
}

type notificationRecord struct {
	SNS *events.SNSEntity `json:"Sns,omitempty"`
	S3  *events.S3Entity  `json:"s3,omitempty"`
}

type notification struct {
	Records []notificationRecord `json:"Records"`
}

// snsProbe distinguishes the s3:TestEvent probe from a real notification.
type snsProbe struct {
	Event   string               `json:"Event"`
	Records []notificationRecord `json:"Records"`
}

// HandleObjectCreated unwraps the notification and starts the pipeline for
// video objects. Test events and non-video keys are skipped without error;
// provider failures propagate so the event source retries per its own policy.
func (t *Trigger) HandleObjectCreated(ctx context.Context, raw json.RawMessage) error {
	entity, err := extractS3Entity(raw)
	if err != nil {
		return fmt.Errorf("parse object-created notification: %w", err)
	}
	if entity == nil {
		t.logger.Infof("S3 test event, skipping")
		return nil
	}

	bucket := entity.Bucket.Name
	key, err := url.QueryUnescape(entity.Object.Key)
	if err != nil {
		return fmt.Errorf("decode object key %q: %w", entity.Object.Key, err)
	}

	t.logger.Infof("Object detected: s3://%s/%s", bucket, key)

	if !isVideoKey(key) {
		t.logger.Infof("Not a video file, skipping: %s", key)
		return nil
	}

	executionARN, err := t.starter.StartVideoPipeline(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("start pipeline for s3://%s/%s: %w", bucket, key, err)
	}

	t.logger.Donef("Workflow started: %s", executionARN)
	return nil
}

// extractS3Entity returns the S3 sub-record from either a direct S3 event or
// an SNS-wrapped one. A nil entity with nil error means the notification was
// an s3:TestEvent probe.
func extractS3Entity(raw json.RawMessage) (*events.S3Entity, error) {
	var event notification
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, err
	}
	if len(event.Records) == 0 {
		return nil, fmt.Errorf("notification contains no records")
	}

	record := event.Records[0]
	if record.SNS != nil {
		var wrapped snsProbe
		if err := json.Unmarshal([]byte(record.SNS.Message), &wrapped); err != nil {
			return nil, fmt.Errorf("parse SNS message: %w", err)
		}
		if wrapped.Event == "s3:TestEvent" {
			return nil, nil
		}
		if len(wrapped.Records) == 0 || wrapped.Records[0].S3 == nil {
			return nil, fmt.Errorf("SNS message contains no S3 records")
		}
		return wrapped.Records[0].S3, nil
	}

	if record.S3 == nil {
		return nil, fmt.Errorf("record contains no S3 entity")
	}
	return record.S3, nil
}

func isVideoKey(key string) bool {
	lower := strings.ToLower(key)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
