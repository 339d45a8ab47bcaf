// Package upload implements the upload coordinator: issuing direct presigned
// upload URLs, initiating multipart sessions with one presigned URL per part,
// and finalizing multipart sessions against a validated part list.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/fault"
	"github.com/lecturely/ingest/upload/chunkplan"
	"github.com/lecturely/ingest/upload/objectkey"
	"github.com/lecturely/ingest/upload/storage"
)

const (
	// DirectURLExpiry bounds how long a single-shot presigned PUT stays valid.
	DirectURLExpiry = 5 * time.Minute
	// PartURLExpiry is longer because individual parts of a large upload can
	// still be in flight well after initiation.
	PartURLExpiry = 1 * time.Hour
)

// allowedContentTypes is the fixed allow-list of supported video container
// MIME types.
var allowedContentTypes = []string{
	"video/mp4",
	"video/quicktime",
	"video/x-msvideo",
	"video/webm",
	"video/mpeg",
	"video/x-matroska",
}

// DirectUpload is the result of issuing a single presigned upload URL.
type DirectUpload struct {
	UploadURL string
	FileKey   string
}

// PartURL pairs a part number with its presigned upload URL.
type PartURL struct {
	PartNumber int32
	UploadURL  string
}

// MultipartSession describes an initiated multipart upload: the destination
// key, the provider-issued session ID, and one presigned URL per planned
// part in ascending part-number order.
type MultipartSession struct {
	FileKey  string
	UploadID string
	PartSize int64
	PartURLs []PartURL
}

// PartCompletion is the caller-reported proof that one part was stored.
type PartCompletion struct {
	PartNumber int32
	ETag       string
}

// CompletedUpload ...
type CompletedUpload struct {
	FileKey  string
	Location string
	Bucket   string
}

// Coordinator orchestrates the three upload operations. It holds no state
// across calls; concurrent invocations are serialized only by S3 itself.
type Coordinator struct {
	store    storage.ObjectStore
	clock    func() time.Time
	logger   log.Logger
	partSize int64
}

// NewCoordinator creates a coordinator with the default 100 MiB part size.
// The clock is injected so object keys are reproducible under test.
func NewCoordinator(store storage.ObjectStore, clock func() time.Time, logger log.Logger) *Coordinator {
	return NewCoordinatorWithPartSize(store, clock, logger, chunkplan.DefaultPartSize)
}

// NewCoordinatorWithPartSize ...
func NewCoordinatorWithPartSize(store storage.ObjectStore, clock func() time.Time, logger log.Logger, partSize int64) *Coordinator {
	return &Coordinator{
		store:    store,
		clock:    clock,
		logger:   logger,
		partSize: partSize,
	}
}

// IssueDirectUploadURL returns a presigned PUT URL for a single-shot upload,
// scoped to the derived object key and the declared content type.
func (c *Coordinator) IssueDirectUploadURL(ctx context.Context, filename, userID, contentType string) (DirectUpload, error) {
	if err := validateContentType(contentType); err != nil {
		return DirectUpload{}, err
	}

	key, err := objectkey.Build(c.clock(), userID, filename)
	if err != nil {
		return DirectUpload{}, err
	}

	url, err := c.store.PresignPutObject(ctx, key, contentType, DirectURLExpiry)
	if err != nil {
		return DirectUpload{}, err
	}

	c.logger.Infof("Issued direct upload URL for %s", key)
	return DirectUpload{UploadURL: url, FileKey: key}, nil
}

// InitiateMultipartUpload opens a multipart session and issues one presigned
// part-upload URL per planned part, in ascending part-number order. Files
// that fit in a single part are rejected so the direct and multipart paths
// stay mutually exclusive. A failure after the session is opened surfaces as
// an error with no partial-success response; the abandoned session is a
// provider-side lifecycle concern.
func (c *Coordinator) InitiateMultipartUpload(ctx context.Context, filename, userID, contentType string, totalSize int64) (MultipartSession, error) {
	if err := validateContentType(contentType); err != nil {
		return MultipartSession{}, err
	}

	plan, err := chunkplan.Compute(totalSize, c.partSize)
	if err != nil {
		if errors.Is(err, chunkplan.ErrChunkingNotNeeded) {
			return MultipartSession{}, fault.NewValidationError(
				"file of %d bytes fits in a single part of %d bytes, use the direct upload endpoint instead", totalSize, c.partSize)
		}
		return MultipartSession{}, err
	}

	key, err := objectkey.Build(c.clock(), userID, filename)
	if err != nil {
		return MultipartSession{}, err
	}

	uploadID, err := c.store.CreateMultipartUpload(ctx, key, contentType)
	if err != nil {
		return MultipartSession{}, err
	}

	partURLs := make([]PartURL, 0, plan.PartCount())
	for _, part := range plan.Parts {
		url, err := c.store.PresignUploadPart(ctx, key, uploadID, part.Number, PartURLExpiry)
		if err != nil {
			return MultipartSession{}, fmt.Errorf("session %s opened but part URL issuance failed: %w", uploadID, err)
		}
		partURLs = append(partURLs, PartURL{PartNumber: part.Number, UploadURL: url})
	}

	c.logger.Infof("Initiated multipart upload for %s with %d parts", key, len(partURLs))
	return MultipartSession{
		FileKey:  key,
		UploadID: uploadID,
		PartSize: plan.PartSize,
		PartURLs: partURLs,
	}, nil
}

// CompleteMultipartUpload validates the caller's part list and finalizes the
// session. Parts must cover a contiguous 1-based range with no duplicates or
// gaps, and are submitted sorted ascending: S3 requires ascending part
// numbers, so the sort is correctness-critical, not cosmetic. Completion is
// never retried here; retrying with stale ETags cannot succeed.
func (c *Coordinator) CompleteMultipartUpload(ctx context.Context, fileKey, uploadID string, parts []PartCompletion) (CompletedUpload, error) {
	if fileKey == "" {
		return CompletedUpload{}, fault.NewValidationError("fileKey is required")
	}
	if uploadID == "" {
		return CompletedUpload{}, fault.NewValidationError("uploadId is required")
	}

	sorted, err := validateAndSortParts(parts)
	if err != nil {
		return CompletedUpload{}, err
	}

	completed, err := c.store.CompleteMultipartUpload(ctx, fileKey, uploadID, sorted)
	if err != nil {
		return CompletedUpload{}, err
	}

	c.logger.Donef("Completed multipart upload for %s (%d parts)", fileKey, len(sorted))
	return CompletedUpload{
		FileKey:  fileKey,
		Location: completed.Location,
		Bucket:   completed.Bucket,
	}, nil
}

// validateAndSortParts checks the part list covers exactly 1..N and returns
// it sorted ascending by part number.
func validateAndSortParts(parts []PartCompletion) ([]storage.CompletedPart, error) {
	if len(parts) == 0 {
		return nil, fault.NewValidationError("parts must not be empty")
	}

	sorted := make([]storage.CompletedPart, 0, len(parts))
	for _, part := range parts {
		if part.PartNumber < 1 {
			return nil, fault.NewValidationError("part numbers start at 1, got %d", part.PartNumber)
		}
		if part.PartNumber > int32(len(parts)) {
			return nil, fault.NewValidationError("part number %d is out of range for %d parts", part.PartNumber, len(parts))
		}
		if part.ETag == "" {
			return nil, fault.NewValidationError("part %d has an empty eTag", part.PartNumber)
		}
		sorted = append(sorted, storage.CompletedPart{PartNumber: part.PartNumber, ETag: part.ETag})
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PartNumber < sorted[j].PartNumber
	})

	for i, part := range sorted {
		expected := int32(i + 1)
		if part.PartNumber != expected {
			if i > 0 && sorted[i-1].PartNumber == part.PartNumber {
				return nil, fault.NewValidationError("duplicate part number %d", part.PartNumber)
			}
			return nil, fault.NewValidationError("part list is missing part %d", expected)
		}
	}

	return sorted, nil
}

func validateContentType(contentType string) error {
	for _, allowed := range allowedContentTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fault.NewValidationError("content type %q is not supported, allowed types: %s",
		contentType, strings.Join(allowedContentTypes, ", "))
}

// AllowedContentTypes returns the supported video MIME types.
func AllowedContentTypes() []string {
	types := make([]string, len(allowedContentTypes))
	copy(types, allowedContentTypes)
	return types
}
