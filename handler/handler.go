// Package handler decodes HTTP-shaped Lambda events, invokes the upload
// coordinator, and formats every outcome into the uniform response envelope.
package handler

import (
	"context"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/upload"
)

// Coordinator is the slice of the upload coordinator the API layer uses.
type Coordinator interface {
	IssueDirectUploadURL(ctx context.Context, filename, userID, contentType string) (upload.DirectUpload, error)
	InitiateMultipartUpload(ctx context.Context, filename, userID, contentType string, totalSize int64) (upload.MultipartSession, error)
	CompleteMultipartUpload(ctx context.Context, fileKey, uploadID string, parts []upload.PartCompletion) (upload.CompletedUpload, error)
}

// Request is a framework-agnostic view of an incoming HTTP request.
type Request struct {
	Method string
	Body   string
}

// API handles the three upload endpoints.
type API struct {
	coordinator Coordinator
	logger      log.Logger
}

// NewAPI ...
func NewAPI(coordinator Coordinator, logger log.Logger) *API {
	return &API{
		coordinator: coordinator,
		logger:      logger,
	}
}

// DirectUpload handles POST /upload.
func (a *API) DirectUpload(ctx context.Context, req Request) Response {
	if req.Method == http.MethodOptions {
		return preflight()
	}

	var body directUploadRequest
	if err := decodeStrict(req.Body, &body); err != nil {
		return failure(a.logger, err)
	}
	if err := body.validate(); err != nil {
		return failure(a.logger, err)
	}

	result, err := a.coordinator.IssueDirectUploadURL(ctx, body.Filename, body.UserID, body.ContentType)
	if err != nil {
		return failure(a.logger, err)
	}

	return success(directUploadResponse{
		UploadURL: result.UploadURL,
		FileKey:   result.FileKey,
	})
}

// MultipartInit handles POST /multipart/init.
func (a *API) MultipartInit(ctx context.Context, req Request) Response {
	if req.Method == http.MethodOptions {
		return preflight()
	}

	var body multipartInitRequest
	if err := decodeStrict(req.Body, &body); err != nil {
		return failure(a.logger, err)
	}
	if err := body.validate(); err != nil {
		return failure(a.logger, err)
	}

	session, err := a.coordinator.InitiateMultipartUpload(ctx, body.Filename, body.UserID, body.ContentType, body.FileSize)
	if err != nil {
		return failure(a.logger, err)
	}

	urls := make([]partURL, 0, len(session.PartURLs))
	for _, part := range session.PartURLs {
		urls = append(urls, partURL{PartNumber: part.PartNumber, UploadURL: part.UploadURL})
	}

	return success(multipartInitResponse{
		UploadID:      session.UploadID,
		FileKey:       session.FileKey,
		PartSize:      session.PartSize,
		PartCount:     len(urls),
		PresignedURLs: urls,
	})
}

// MultipartComplete handles POST /multipart/complete.
func (a *API) MultipartComplete(ctx context.Context, req Request) Response {
	if req.Method == http.MethodOptions {
		return preflight()
	}

	var body multipartCompleteRequest
	if err := decodeStrict(req.Body, &body); err != nil {
		return failure(a.logger, err)
	}
	if err := body.validate(); err != nil {
		return failure(a.logger, err)
	}

	result, err := a.coordinator.CompleteMultipartUpload(ctx, body.FileKey, body.UploadID, toPartCompletions(body.Parts))
	if err != nil {
		return failure(a.logger, err)
	}

	return success(multipartCompleteResponse{
		FileKey:  result.FileKey,
		Location: result.Location,
		Bucket:   result.Bucket,
	})
}
