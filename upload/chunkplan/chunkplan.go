// Package chunkplan computes how a large upload is divided into multipart
// parts.
package chunkplan

import (
	"errors"

	"github.com/lecturely/ingest/fault"
)

// DefaultPartSize is the fixed part size for multipart uploads.
const DefaultPartSize int64 = 100 * 1024 * 1024 // 100 MiB

// ErrChunkingNotNeeded signals that the file fits in a single part and the
// caller should use the direct upload path instead of a multipart session.
var ErrChunkingNotNeeded = errors.New("chunking not needed, file fits in a single part")

// Part is one planned multipart part. Numbers are 1-based and contiguous.
type Part struct {
	Number int32
	Size   int64
}

// Plan is the immutable division of a file into parts.
type Plan struct {
	TotalSize int64
	PartSize  int64
	Parts     []Part
}

// PartCount ...
func (p Plan) PartCount() int {
	return len(p.Parts)
}

// Compute returns the part plan for totalSize bytes split into partSize
// parts. A total at or below partSize returns ErrChunkingNotNeeded: a
// one-part multipart session would only add round-trips over a direct PUT.
// Every part is partSize long except the last, which takes the remainder;
// an evenly divisible total produces totalSize/partSize full parts and no
// empty tail part.
func Compute(totalSize, partSize int64) (Plan, error) {
	if totalSize <= 0 {
		return Plan{}, fault.NewValidationError("fileSize must be a positive integer (bytes), got %d", totalSize)
	}
	if partSize <= 0 {
		return Plan{}, fault.NewValidationError("part size must be a positive integer (bytes), got %d", partSize)
	}
	if totalSize <= partSize {
		return Plan{}, ErrChunkingNotNeeded
	}

	partCount := totalSize / partSize
	remainder := totalSize % partSize
	if remainder > 0 {
		partCount++
	}

	parts := make([]Part, 0, partCount)
	for number := int64(1); number <= partCount; number++ {
		size := partSize
		if number == partCount && remainder > 0 {
			size = remainder
		}
		parts = append(parts, Part{Number: int32(number), Size: size})
	}

	return Plan{TotalSize: totalSize, PartSize: partSize, Parts: parts}, nil
}
