package uploadclient

import "time"

type trackedEvent struct {
	name      string
	filename  string
	size      int64
	partCount int
	reason    string
	duration  time.Duration
}

type fakeTracker struct {
	events []trackedEvent
	waited bool
}

func (f *fakeTracker) logUploadStarted(filename string, size int64, partCount int) {
	f.events = append(f.events, trackedEvent{name: "started", filename: filename, size: size, partCount: partCount})
}

func (f *fakeTracker) logUploadCompleted(filename string, size int64, partCount int, duration time.Duration) {
	f.events = append(f.events, trackedEvent{name: "completed", filename: filename, size: size, partCount: partCount, duration: duration})
}

func (f *fakeTracker) logUploadFailed(filename string, size int64, reason string) {
	f.events = append(f.events, trackedEvent{name: "failed", filename: filename, size: size, reason: reason})
}

func (f *fakeTracker) wait() {
	f.waited = true
}
