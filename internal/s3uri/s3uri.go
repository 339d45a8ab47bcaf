// Package s3uri handles the two S3 addressing formats the pipeline passes
// around: s3:// URIs for workflow input and the path-style HTTPS URLs that
// Transcribe reports its output under.
package s3uri

import (
	"fmt"
	"net/url"
	"strings"
)

const scheme = "s3://"

// Format returns the s3:// URI for an object.
func Format(bucket, key string) string {
	return fmt.Sprintf("%s%s/%s", scheme, bucket, key)
}

// Parse splits an s3:// URI into bucket and key.
func Parse(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("not an s3 URI: %s", uri)
	}
	rest := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("s3 URI missing bucket or key: %s", uri)
	}
	return parts[0], parts[1], nil
}

// ParsePathStyleURL extracts bucket and key from a path-style S3 HTTPS URL
// (https://s3.<region>.amazonaws.com/<bucket>/<key>). Transcribe always
// returns this form, with the key percent-encoded.
func ParsePathStyleURL(rawURL string) (bucket, key string, err error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse transcript URL: %w", err)
	}

	path := strings.TrimPrefix(parsed.EscapedPath(), "/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("URL path does not contain bucket and key: %s", rawURL)
	}

	decodedKey, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("decode object key: %w", err)
	}

	return parts[0], decodedKey, nil
}
