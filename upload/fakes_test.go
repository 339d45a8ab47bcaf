package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/lecturely/ingest/upload/storage"
)

// fakeObjectStore records calls and serves canned responses so coordinator
// tests can assert on exactly what reaches the provider.
type fakeObjectStore struct {
	presignPutCalls  []presignPutCall
	presignPartCalls []presignPartCall
	createCalls      []createCall
	completeCalls    []completeCall

	presignPutErr error
	createErr     error
	// failPartURLAfter issues this many part URLs before returning
	// presignPartErr; -1 disables the failure
	failPartURLAfter int
	presignPartErr   error
	completeErr      error
	completedUpload  storage.CompletedUpload
}

type presignPutCall struct {
	key         string
	contentType string
	expiry      time.Duration
}

type presignPartCall struct {
	key        string
	uploadID   string
	partNumber int32
	expiry     time.Duration
}

type createCall struct {
	key         string
	contentType string
}

type completeCall struct {
	key      string
	uploadID string
	parts    []storage.CompletedPart
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{failPartURLAfter: -1}
}

func (f *fakeObjectStore) PresignPutObject(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	f.presignPutCalls = append(f.presignPutCalls, presignPutCall{key: key, contentType: contentType, expiry: expiry})
	if f.presignPutErr != nil {
		return "", f.presignPutErr
	}
	return "https://bucket.s3.amazonaws.com/" + key + "?signed", nil
}

func (f *fakeObjectStore) CreateMultipartUpload(_ context.Context, key, contentType string) (string, error) {
	f.createCalls = append(f.createCalls, createCall{key: key, contentType: contentType})
	if f.createErr != nil {
		return "", f.createErr
	}
	return "upload-id-1", nil
}

func (f *fakeObjectStore) PresignUploadPart(_ context.Context, key, uploadID string, partNumber int32, expiry time.Duration) (string, error) {
	if f.failPartURLAfter >= 0 && len(f.presignPartCalls) >= f.failPartURLAfter {
		return "", f.presignPartErr
	}
	f.presignPartCalls = append(f.presignPartCalls, presignPartCall{key: key, uploadID: uploadID, partNumber: partNumber, expiry: expiry})
	return fmt.Sprintf("https://bucket.s3.amazonaws.com/%s?partNumber=%d&signed", key, partNumber), nil
}

func (f *fakeObjectStore) CompleteMultipartUpload(_ context.Context, key, uploadID string, parts []storage.CompletedPart) (storage.CompletedUpload, error) {
	f.completeCalls = append(f.completeCalls, completeCall{key: key, uploadID: uploadID, parts: parts})
	if f.completeErr != nil {
		return storage.CompletedUpload{}, f.completeErr
	}
	return f.completedUpload, nil
}
