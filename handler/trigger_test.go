package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s3Notification(bucket, key string) string {
	return fmt.Sprintf(`{"Records":[{"s3":{"bucket":{"name":"%s"},"object":{"key":"%s"}}}]}`, bucket, key)
}

func snsWrapped(message string) string {
	encoded, _ := json.Marshal(message)
	return fmt.Sprintf(`{"Records":[{"Sns":{"Message":%s}}]}`, encoded)
}

func TestTriggerStartsPipelineForVideo(t *testing.T) {
	starter := &fakePipelineStarter{}
	trigger := NewTrigger(starter, log.NewLogger())

	err := trigger.HandleObjectCreated(context.Background(), json.RawMessage(s3Notification("lecture-videos", "ts/u1/lecture.mp4")))

	require.NoError(t, err)
	assert.Equal(t, []string{"lecture-videos"}, starter.startedBuckets)
	assert.Equal(t, []string{"ts/u1/lecture.mp4"}, starter.startedKeys)
}

func TestTriggerHandlesSNSWrappedNotification(t *testing.T) {
	starter := &fakePipelineStarter{}
	trigger := NewTrigger(starter, log.NewLogger())

	raw := snsWrapped(s3Notification("lecture-videos", "ts/u1/lecture.mov"))
	err := trigger.HandleObjectCreated(context.Background(), json.RawMessage(raw))

	require.NoError(t, err)
	assert.Equal(t, []string{"ts/u1/lecture.mov"}, starter.startedKeys)
}

func TestTriggerDecodesObjectKey(t *testing.T) {
	starter := &fakePipelineStarter{}
	trigger := NewTrigger(starter, log.NewLogger())

	err := trigger.HandleObjectCreated(context.Background(), json.RawMessage(s3Notification("lecture-videos", "ts/u1/intro+lecture%281%29.mp4")))

	require.NoError(t, err)
	require.Len(t, starter.startedKeys, 1)
	assert.Equal(t, "ts/u1/intro lecture(1).mp4", starter.startedKeys[0])
}

func TestTriggerSkipsTestEvent(t *testing.T) {
	starter := &fakePipelineStarter{}
	trigger := NewTrigger(starter, log.NewLogger())

	raw := snsWrapped(`{"Event":"s3:TestEvent","Bucket":"lecture-videos"}`)
	err := trigger.HandleObjectCreated(context.Background(), json.RawMessage(raw))

	require.NoError(t, err)
	assert.Empty(t, starter.startedKeys)
}

func TestTriggerSkipsNonVideoObjects(t *testing.T) {
	starter := &fakePipelineStarter{}
	trigger := NewTrigger(starter, log.NewLogger())

	for _, key := range []string{"ts/u1/notes.pdf", "ts/u1/thumbnail.png", "ts/u1/transcribe.json"} {
		err := trigger.HandleObjectCreated(context.Background(), json.RawMessage(s3Notification("lecture-videos", key)))
		require.NoError(t, err, key)
	}
	assert.Empty(t, starter.startedKeys)
}

func TestTriggerAcceptsUppercaseExtensions(t *testing.T) {
	starter := &fakePipelineStarter{}
	trigger := NewTrigger(starter, log.NewLogger())

	err := trigger.HandleObjectCreated(context.Background(), json.RawMessage(s3Notification("lecture-videos", "ts/u1/LECTURE.MP4")))

	require.NoError(t, err)
	assert.Len(t, starter.startedKeys, 1)
}

func TestTriggerPropagatesStarterFailure(t *testing.T) {
	starter := &fakePipelineStarter{err: fmt.Errorf("execution limit exceeded")}
	trigger := NewTrigger(starter, log.NewLogger())

	err := trigger.HandleObjectCreated(context.Background(), json.RawMessage(s3Notification("lecture-videos", "ts/u1/lecture.mp4")))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution limit exceeded")
}

func TestTriggerRejectsMalformedNotifications(t *testing.T) {
	trigger := NewTrigger(&fakePipelineStarter{}, log.NewLogger())

	for _, raw := range []string{`{}`, `{"Records":[]}`, `{"Records":[{}]}`, `not json`} {
		err := trigger.HandleObjectCreated(context.Background(), json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}
