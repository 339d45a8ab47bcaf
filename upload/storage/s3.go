package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/lecturely/ingest/fault"
)

type s3API interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
}

type s3PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignUploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store implements ObjectStore against a single S3 bucket.
type S3Store struct {
	client    s3API
	presigner s3PresignAPI
	bucket    string
	logger    log.Logger
}

// NewS3Store ...
func NewS3Store(client *s3.Client, bucket string, logger log.Logger) *S3Store {
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		logger:    logger,
	}
}

// PresignPutObject issues a time-limited URL for a single-shot PUT of the
// object, scoped to the exact key and content type.
func (s *S3Store) PresignPutObject(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fault.NewProviderError("presign put object", err)
	}

	s.logger.Debugf("Presigned PUT URL for s3://%s/%s (expires in %s)", s.bucket, key, expiry)
	return request.URL, nil
}

// CreateMultipartUpload opens a multipart session and returns its upload ID.
func (s *S3Store) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	resp, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fault.NewProviderError("create multipart upload", err)
	}
	if resp.UploadId == nil || *resp.UploadId == "" {
		return "", fault.NewProviderError("create multipart upload", fmt.Errorf("no upload ID in response"))
	}

	s.logger.Debugf("Opened multipart session %s for s3://%s/%s", *resp.UploadId, s.bucket, key)
	return *resp.UploadId, nil
}

// PresignUploadPart issues a time-limited URL for uploading one part of an
// open multipart session.
func (s *S3Store) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, expiry time.Duration) (string, error) {
	request, err := s.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fault.NewProviderError(fmt.Sprintf("presign upload part %d", partNumber), err)
	}

	return request.URL, nil
}

// CompleteMultipartUpload finalizes the session. Parts must already be sorted
// ascending by part number; S3 rejects any other order.
func (s *S3Store) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) (CompletedUpload, error) {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(part.PartNumber),
			ETag:       aws.String(part.ETag),
		})
	}

	resp, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return CompletedUpload{}, fault.NewProviderError("complete multipart upload", err)
	}

	s.logger.Debugf("Finalized multipart session %s for s3://%s/%s", uploadID, s.bucket, key)
	return CompletedUpload{
		Location: aws.ToString(resp.Location),
		Bucket:   s.bucket,
		Key:      key,
	}, nil
}
