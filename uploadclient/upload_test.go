package uploadclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadAPIServer struct {
	t       *testing.T
	baseURL string

	mu           sync.Mutex
	directReqs   []directUploadRequest
	initReqs     []multipartInitRequest
	completeReqs []multipartCompleteRequest
	putBodies    map[string][]byte
	putHeaders   map[string]http.Header

	partSize  int64
	partCount int
}

func newUploadAPIServer(t *testing.T) (*uploadAPIServer, *httptest.Server) {
	s := &uploadAPIServer{
		t:          t,
		putBodies:  map[string][]byte{},
		putHeaders: map[string]http.Header{},
	}
	server := httptest.NewServer(s)
	t.Cleanup(server.Close)
	s.baseURL = server.URL
	return s, server
}

func (s *uploadAPIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		var request directUploadRequest
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&request))
		s.directReqs = append(s.directReqs, request)
		writeJSON(w, directUploadResponse{
			UploadURL: s.baseURL + "/put/direct",
			FileKey:   "ts/u1/" + request.Filename,
		})
	case r.Method == http.MethodPost && r.URL.Path == "/multipart/init":
		var request multipartInitRequest
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&request))
		s.initReqs = append(s.initReqs, request)
		response := multipartInitResponse{
			UploadID:  "upload-1",
			FileKey:   "ts/u1/" + request.Filename,
			PartSize:  s.partSize,
			PartCount: s.partCount,
		}
		for i := 1; i <= s.partCount; i++ {
			response.PresignedURLs = append(response.PresignedURLs, partURL{
				PartNumber: int32(i),
				UploadURL:  fmt.Sprintf("%s/put/part/%d", s.baseURL, i),
			})
		}
		writeJSON(w, response)
	case r.Method == http.MethodPost && r.URL.Path == "/multipart/complete":
		var request multipartCompleteRequest
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&request))
		s.completeReqs = append(s.completeReqs, request)
		writeJSON(w, multipartCompleteResponse{
			FileKey:  request.FileKey,
			Location: "https://bucket.s3.amazonaws.com/" + request.FileKey,
			Bucket:   "bucket",
		})
	case r.Method == http.MethodPut:
		body, err := io.ReadAll(r.Body)
		require.NoError(s.t, err)
		s.putBodies[r.URL.Path] = body
		s.putHeaders[r.URL.Path] = r.Header.Clone()
		w.Header().Set("ETag", fmt.Sprintf("%q", fmt.Sprintf("etag-%s", filepath.Base(r.URL.Path))))
	default:
		s.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *uploadAPIServer) directRequests() []directUploadRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directReqs
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newTestUploader(serverURL string, tracker uploadTracker) *Uploader {
	logger := log.NewLogger()
	client := newAPIClient(retryhttp.NewClient(logger), serverURL, "test-token", logger)
	return newUploader(client, tracker, "u1", true, logger)
}

func writeTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestUploadDirect(t *testing.T) {
	server, httpServer := newUploadAPIServer(t)
	tracker := &fakeTracker{}
	uploader := newTestUploader(httpServer.URL, tracker)
	path := writeTempFile(t, "lecture.mp4", "small video bytes")

	result, err := uploader.Upload(path)

	require.NoError(t, err)
	assert.Equal(t, "ts/u1/lecture.mp4", result.FileKey)
	assert.Equal(t, 1, result.PartCount)
	assert.Equal(t, int64(len("small video bytes")), result.Size)

	requests := server.directRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, directUploadRequest{
		Filename:    "lecture.mp4",
		UserID:      "u1",
		ContentType: "video/mp4",
	}, requests[0])

	assert.Equal(t, []byte("small video bytes"), server.putBodies["/put/direct"])
	assert.Equal(t, "video/mp4", server.putHeaders["/put/direct"].Get("Content-Type"))

	require.Len(t, tracker.events, 2)
	assert.Equal(t, "started", tracker.events[0].name)
	assert.Equal(t, "completed", tracker.events[1].name)
	assert.Equal(t, 1, tracker.events[1].partCount)
}

func TestUploadSendsBearerToken(t *testing.T) {
	var authHeader string
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		writeJSON(w, directUploadResponse{UploadURL: "unused", FileKey: "k"})
	}))
	t.Cleanup(httpServer.Close)

	logger := log.NewLogger()
	client := newAPIClient(retryhttp.NewClient(logger), httpServer.URL, "secret", logger)

	_, err := client.requestDirectUpload(directUploadRequest{Filename: "a.mp4", UserID: "u1", ContentType: "video/mp4"})

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", authHeader)
}

func TestUploadMultipartParts(t *testing.T) {
	server, httpServer := newUploadAPIServer(t)
	server.partSize = 6
	server.partCount = 3
	tracker := &fakeTracker{}
	uploader := newTestUploader(httpServer.URL, tracker)

	content := "aaaaaabbbbbbcc"
	path := writeTempFile(t, "long.mkv", content)
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, file.Close()) }()

	result, err := uploader.uploadMultipart(file, "long.mkv", "video/x-matroska", int64(len(content)))

	require.NoError(t, err)
	assert.Equal(t, "ts/u1/long.mkv", result.FileKey)
	assert.Equal(t, "bucket", result.Bucket)
	assert.Equal(t, 3, result.PartCount)

	assert.Equal(t, []byte("aaaaaa"), server.putBodies["/put/part/1"])
	assert.Equal(t, []byte("bbbbbb"), server.putBodies["/put/part/2"])
	assert.Equal(t, []byte("cc"), server.putBodies["/put/part/3"])

	require.Len(t, server.completeReqs, 1)
	complete := server.completeReqs[0]
	assert.Equal(t, "upload-1", complete.UploadID)
	require.Len(t, complete.Parts, 3)
	// quotes stripped from the ETag header
	assert.Equal(t, completedPart{PartNumber: 1, ETag: "etag-1"}, complete.Parts[0])
	assert.Equal(t, completedPart{PartNumber: 3, ETag: "etag-3"}, complete.Parts[2])

	require.Len(t, server.initReqs, 1)
	assert.Equal(t, int64(len(content)), server.initReqs[0].FileSize)
}

func TestUploadSurfacesAPIErrorEnvelope(t *testing.T) {
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, errorEnvelope{Error: "contentType is not allowed"})
	}))
	t.Cleanup(httpServer.Close)

	tracker := &fakeTracker{}
	uploader := newTestUploader(httpServer.URL, tracker)
	path := writeTempFile(t, "lecture.mp4", "bytes")

	_, err := uploader.Upload(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "contentType is not allowed")
	require.NotEmpty(t, tracker.events)
	assert.Equal(t, "failed", tracker.events[len(tracker.events)-1].name)
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.mp4") },
			wantErr: "file not found",
		},
		{
			name:    "directory",
			path:    func(t *testing.T) string { return t.TempDir() },
			wantErr: "not a regular file",
		},
		{
			name: "empty file",
			path: func(t *testing.T) string {
				return writeTempFile(t, "empty.mp4", "")
			},
			wantErr: "file is empty",
		},
		{
			name: "unsupported extension",
			path: func(t *testing.T) string {
				return writeTempFile(t, "notes.txt", "text")
			},
			wantErr: "unsupported file type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := validateFile(tt.path(t))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateFileContentTypes(t *testing.T) {
	tests := map[string]string{
		"a.mp4":  "video/mp4",
		"b.MOV":  "video/quicktime",
		"c.avi":  "video/x-msvideo",
		"d.webm": "video/webm",
		"e.mpeg": "video/mpeg",
		"f.mkv":  "video/x-matroska",
	}

	for name, wantContentType := range tests {
		path := writeTempFile(t, name, "x")

		size, contentType, err := validateFile(path)

		require.NoError(t, err, name)
		assert.Equal(t, int64(1), size)
		assert.Equal(t, wantContentType, contentType)
	}
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "week1"), 0700))
	for _, name := range []string{"week1/a.mp4", "week1/b.mov", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
	}

	paths, err := ExpandPatterns([]string{
		filepath.Join(dir, "**", "*.mp4"),
		filepath.Join(dir, "week1", "b.mov"),
		filepath.Join(dir, "week1", "b.mov"), // duplicate
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "week1", "a.mp4"),
		filepath.Join(dir, "week1", "b.mov"),
	}, paths)
}

func TestExpandPatternsKeepsPlainMissingPath(t *testing.T) {
	paths, err := ExpandPatterns([]string{"missing.mp4"})

	require.NoError(t, err)
	assert.Equal(t, []string{"missing.mp4"}, paths)
}

func TestTrimETag(t *testing.T) {
	assert.Equal(t, "abc", trimETag(`"abc"`))
	assert.Equal(t, "abc", trimETag("abc"))
	assert.Equal(t, "", trimETag(""))
	assert.True(t, strings.HasPrefix(trimETag(`"only-lead`), `"only-lead`))
}
