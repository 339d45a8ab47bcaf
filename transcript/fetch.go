// Package transcript downloads finished transcription documents, splits them
// into speaker segments, and generates one text embedding per segment.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/fault"
	"github.com/lecturely/ingest/internal/s3uri"
)

const numFetchRetries = 3

// Document is the transcription service's JSON output, reduced to the fields
// the parser consumes.
type Document struct {
	Results struct {
		Items []Item `json:"items"`
	} `json:"results"`
}

// Item is one token of the transcript: a pronounced word with timing and
// speaker attribution, or a punctuation mark without either.
type Item struct {
	Type         string        `json:"type"`
	StartTime    string        `json:"start_time"`
	SpeakerLabel string        `json:"speaker_label"`
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative ...
type Alternative struct {
	Content string `json:"content"`
}

type downloaderAPI interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*manager.Downloader)) (int64, error)
}

// Fetcher downloads transcript documents from S3.
type Fetcher struct {
	downloader downloaderAPI
	logger     log.Logger
}

// NewFetcher ...
func NewFetcher(client *s3.Client, logger log.Logger) *Fetcher {
	return newFetcher(manager.NewDownloader(client), logger)
}

func newFetcher(downloader downloaderAPI, logger log.Logger) *Fetcher {
	return &Fetcher{
		downloader: downloader,
		logger:     logger,
	}
}

// Fetch downloads and decodes the transcript behind a path-style S3 HTTPS
// URL, the form the transcription service reports its output under.
func (f *Fetcher) Fetch(ctx context.Context, transcriptURL string) (*Document, error) {
	bucket, key, err := s3uri.ParsePathStyleURL(transcriptURL)
	if err != nil {
		return nil, fault.NewValidationError("invalid transcript URL: %s", err)
	}

	var buffer *manager.WriteAtBuffer
	err = retry.Times(numFetchRetries).Wait(5 * time.Second).Try(func(attempt uint) error {
		if attempt > 0 {
			f.logger.Warnf("Retrying transcript download (attempt %d)", attempt+1)
		}
		buffer = manager.NewWriteAtBuffer(nil)
		_, err := f.downloader.Download(ctx, buffer, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return nil, fault.NewProviderError("download transcript", err)
	}

	var document Document
	if err := json.Unmarshal(buffer.Bytes(), &document); err != nil {
		return nil, fmt.Errorf("decode transcript document: %w", err)
	}

	f.logger.Debugf("Fetched transcript s3://%s/%s (%d items)", bucket, key, len(document.Results.Items))
	return &document, nil
}
