package handler

import (
	"context"

	"github.com/lecturely/ingest/upload"
)

type fakeCoordinator struct {
	directResult  upload.DirectUpload
	directErr     error
	session       upload.MultipartSession
	sessionErr    error
	completed     upload.CompletedUpload
	completeErr   error
	completeCalls []completeCall
}

type completeCall struct {
	fileKey  string
	uploadID string
	parts    []upload.PartCompletion
}

func (f *fakeCoordinator) IssueDirectUploadURL(_ context.Context, filename, userID, contentType string) (upload.DirectUpload, error) {
	if f.directErr != nil {
		return upload.DirectUpload{}, f.directErr
	}
	return f.directResult, nil
}

func (f *fakeCoordinator) InitiateMultipartUpload(_ context.Context, filename, userID, contentType string, totalSize int64) (upload.MultipartSession, error) {
	if f.sessionErr != nil {
		return upload.MultipartSession{}, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeCoordinator) CompleteMultipartUpload(_ context.Context, fileKey, uploadID string, parts []upload.PartCompletion) (upload.CompletedUpload, error) {
	f.completeCalls = append(f.completeCalls, completeCall{fileKey: fileKey, uploadID: uploadID, parts: parts})
	if f.completeErr != nil {
		return upload.CompletedUpload{}, f.completeErr
	}
	return f.completed, nil
}

type fakePipelineStarter struct {
	startedBuckets []string
	startedKeys    []string
	err            error
}

func (f *fakePipelineStarter) StartVideoPipeline(_ context.Context, bucket, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.startedBuckets = append(f.startedBuckets, bucket)
	f.startedKeys = append(f.startedKeys, key)
	return "arn:aws:states:eu-central-1:123456789012:execution:pipeline:run-1", nil
}
