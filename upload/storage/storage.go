// Package storage defines the object-store operations the upload coordinator
// depends on, plus the S3 implementation.
package storage

import (
	"context"
	"time"
)

// CompletedPart is one caller-reported part of a finished multipart upload.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// CompletedUpload is the provider's description of a finalized object.
type CompletedUpload struct {
	Location string
	Bucket   string
	Key      string
}

// ObjectStore is the narrow provider surface the coordinator needs: presigned
// URL issuance and multipart session lifecycle. Implementations must not
// retry; propagating the provider's error verbatim is part of the contract.
type ObjectStore interface {
	PresignPutObject(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	CreateMultipartUpload(ctx context.Context, key, contentType string) (uploadID string, err error)
	PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, expiry time.Duration) (string, error)
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) (CompletedUpload, error)
}
