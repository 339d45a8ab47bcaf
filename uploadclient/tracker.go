package uploadclient

import (
	"time"

	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/log"
)

type stepTracker struct {
	tracker analytics.Tracker
	logger  log.Logger
}

func newStepTracker(logger log.Logger) *stepTracker {
	p := analytics.Properties{
		"client": "vidup",
	}
	return &stepTracker{
		tracker: analytics.NewDefaultTracker(logger, p),
		logger:  logger,
	}
}

func (t *stepTracker) logUploadStarted(filename string, size int64, partCount int) {
	properties := analytics.Properties{
		"filename":          filename,
		"upload_size_bytes": size,
		"part_count":        partCount,
	}
	t.tracker.Enqueue("vidup_upload_started", properties)
}

func (t *stepTracker) logUploadCompleted(filename string, size int64, partCount int, duration time.Duration) {
	properties := analytics.Properties{
		"filename":          filename,
		"upload_size_bytes": size,
		"part_count":        partCount,
		"upload_time_s":     duration.Truncate(time.Second).Seconds(),
	}
	t.tracker.Enqueue("vidup_upload_completed", properties)
}

func (t *stepTracker) logUploadFailed(filename string, size int64, reason string) {
	properties := analytics.Properties{
		"filename":          filename,
		"upload_size_bytes": size,
		"reason":            reason,
	}
	t.tracker.Enqueue("vidup_upload_failed", properties)
}

func (t *stepTracker) wait() {
	t.tracker.Wait()
}
