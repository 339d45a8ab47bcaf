// Package objectkey derives the destination key for an uploaded video.
//
// Keys are formatted as {timestamp}/{userId}/{filename}. The timestamp is
// injected by the caller so the function stays deterministic under test;
// collision handling at this resolution is left to S3's overwrite semantics.
package objectkey

import (
	"fmt"
	"strings"
	"time"

	"github.com/lecturely/ingest/fault"
)

// Build returns the storage object key for an upload.
func Build(timestamp time.Time, userID, filename string) (string, error) {
	if err := validateComponent("userId", userID); err != nil {
		return "", err
	}
	if err := validateComponent("filename", filename); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s", timestamp.UTC().Format(time.RFC3339Nano), userID, filename), nil
}

func validateComponent(name, value string) error {
	if value == "" {
		return fault.NewValidationError("%s is required", name)
	}
	if strings.Contains(value, "..") {
		return fault.NewValidationError("%s must not contain path traversal sequences", name)
	}
	if strings.ContainsAny(value, `/\`) {
		return fault.NewValidationError("%s must not contain path separators", name)
	}
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			return fault.NewValidationError("%s must not contain control characters", name)
		}
	}
	return nil
}
