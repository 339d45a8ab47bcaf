package handler

import (
	"encoding/json"
	"strings"

	"github.com/lecturely/ingest/fault"
	"github.com/lecturely/ingest/upload"
)

type directUploadRequest struct {
	Filename    string `json:"filename"`
	UserID      string `json:"userId"`
	ContentType string `json:"contentType"`
}

func (r directUploadRequest) validate() error {
	if r.Filename == "" {
		return fault.NewValidationError("filename is required")
	}
	if r.UserID == "" {
		return fault.NewValidationError("userId is required")
	}
	if r.ContentType == "" {
		return fault.NewValidationError("contentType is required")
	}
	return nil
}

type multipartInitRequest struct {
	Filename    string `json:"filename"`
	UserID      string `json:"userId"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

func (r multipartInitRequest) validate() error {
	base := directUploadRequest{Filename: r.Filename, UserID: r.UserID, ContentType: r.ContentType}
	if err := base.validate(); err != nil {
		return err
	}
	if r.FileSize == 0 {
		return fault.NewValidationError("fileSize is required")
	}
	return nil
}

type completionPart struct {
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"eTag"`
}

type multipartCompleteRequest struct {
	FileKey  string           `json:"fileKey"`
	UploadID string           `json:"uploadId"`
	Parts    []completionPart `json:"parts"`
}

func (r multipartCompleteRequest) validate() error {
	if r.FileKey == "" {
		return fault.NewValidationError("fileKey is required")
	}
	if r.UploadID == "" {
		return fault.NewValidationError("uploadId is required")
	}
	if len(r.Parts) == 0 {
		return fault.NewValidationError("parts is required")
	}
	return nil
}

type directUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
}

type partURL struct {
	PartNumber int32  `json:"partNumber"`
	UploadURL  string `json:"uploadUrl"`
}

type multipartInitResponse struct {
	UploadID      string    `json:"uploadId"`
	FileKey       string    `json:"fileKey"`
	PartSize      int64     `json:"partSize"`
	PartCount     int       `json:"partCount"`
	PresignedURLs []partURL `json:"presignedUrls"`
}

type multipartCompleteResponse struct {
	FileKey  string `json:"fileKey"`
	Location string `json:"location"`
	Bucket   string `json:"bucket"`
}

// decodeStrict parses a JSON request body, rejecting unknown fields and
// trailing content so malformed requests fail before any business logic runs.
func decodeStrict(body string, target interface{}) error {
	decoder := json.NewDecoder(strings.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fault.NewValidationError("invalid request body: %s", err)
	}
	if decoder.More() {
		return fault.NewValidationError("invalid request body: unexpected trailing content")
	}
	return nil
}

func toPartCompletions(parts []completionPart) []upload.PartCompletion {
	completions := make([]upload.PartCompletion, 0, len(parts))
	for _, part := range parts {
		completions = append(completions, upload.PartCompletion{
			PartNumber: part.PartNumber,
			ETag:       part.ETag,
		})
	}
	return completions
}
