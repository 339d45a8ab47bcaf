package uploadclient

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/docker/go-units"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
)

const (
	// MaxFileSize is the largest video accepted for upload.
	MaxFileSize int64 = 5 * 1024 * 1024 * 1024
	// DirectUploadThreshold is the largest size that still uses a single
	// presigned PUT instead of a multipart upload.
	DirectUploadThreshold int64 = 100 * 1024 * 1024
)

var contentTypeByExtension = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mpeg": "video/mpeg",
	".mkv":  "video/x-matroska",
}

// Result describes a finished upload.
type Result struct {
	FileKey   string
	Location  string
	Bucket    string
	Size      int64
	PartCount int
	Duration  time.Duration
}

type uploadTracker interface {
	logUploadStarted(filename string, size int64, partCount int)
	logUploadCompleted(filename string, size int64, partCount int, duration time.Duration)
	logUploadFailed(filename string, size int64, reason string)
	wait()
}

// Uploader pushes local video files through the upload API.
type Uploader struct {
	apiClient apiClient
	tracker   uploadTracker
	userID    string
	quiet     bool
	logger    log.Logger
}

// NewUploader ...
func NewUploader(baseURL, authToken, userID string, quiet bool, logger log.Logger) *Uploader {
	httpClient := retryhttp.NewClient(logger)
	client := newAPIClient(httpClient, strings.TrimSuffix(baseURL, "/"), authToken, logger)
	return newUploader(client, newStepTracker(logger), userID, quiet, logger)
}

func newUploader(client apiClient, tracker uploadTracker, userID string, quiet bool, logger log.Logger) *Uploader {
	return &Uploader{
		apiClient: client,
		tracker:   tracker,
		userID:    userID,
		quiet:     quiet,
		logger:    logger,
	}
}

// ExpandPatterns resolves glob patterns (doublestar syntax, `**` included)
// into a sorted, de-duplicated list of file paths. A pattern without meta
// characters is kept as-is so missing plain paths fail later with a clear
// validation error.
func ExpandPatterns(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var paths []string
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			if !seen[pattern] {
				seen[pattern] = true
				paths = append(paths, pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				paths = append(paths, match)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Upload validates the file at path and pushes it through the direct or the
// multipart flow depending on its size.
func (u *Uploader) Upload(path string) (Result, error) {
	filename := filepath.Base(path)

	size, contentType, err := validateFile(path)
	if err != nil {
		u.tracker.logUploadFailed(filename, 0, "validation")
		return Result{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		u.tracker.logUploadFailed(filename, size, "open")
		return Result{}, fmt.Errorf("open file: %w", err)
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			u.logger.Errorf("failed to close file: %s", err)
		}
	}(file)

	u.logger.Infof("Uploading %s (%s, %s)", filename, units.HumanSize(float64(size)), contentType)
	startedAt := time.Now()

	var result Result
	if size <= DirectUploadThreshold {
		u.tracker.logUploadStarted(filename, size, 1)
		result, err = u.uploadDirect(file, filename, contentType, size)
	} else {
		result, err = u.uploadMultipart(file, filename, contentType, size)
	}
	if err != nil {
		u.tracker.logUploadFailed(filename, size, "upload")
		return Result{}, err
	}

	result.Size = size
	result.Duration = time.Since(startedAt)
	u.tracker.logUploadCompleted(filename, size, result.PartCount, result.Duration)
	u.logger.Donef("Uploaded %s as %s in %s", filename, result.FileKey, result.Duration.Round(time.Second))

	return result, nil
}

// Wait flushes pending analytics events. Call it once after the last upload.
func (u *Uploader) Wait() {
	u.tracker.wait()
}

func (u *Uploader) uploadDirect(file *os.File, filename, contentType string, size int64) (Result, error) {
	response, err := u.apiClient.requestDirectUpload(directUploadRequest{
		Filename:    filename,
		UserID:      u.userID,
		ContentType: contentType,
	})
	if err != nil {
		return Result{}, fmt.Errorf("request upload URL: %w", err)
	}

	u.logger.Debugf("Direct upload to %s", response.UploadURL)
	if _, err := u.apiClient.uploadToPresignedURL(response.UploadURL, file, size, contentType); err != nil {
		return Result{}, fmt.Errorf("upload %s: %w", filename, err)
	}

	return Result{FileKey: response.FileKey, PartCount: 1}, nil
}

func (u *Uploader) uploadMultipart(file *os.File, filename, contentType string, size int64) (Result, error) {
	session, err := u.apiClient.requestMultipartInit(multipartInitRequest{
		Filename:    filename,
		UserID:      u.userID,
		ContentType: contentType,
		FileSize:    size,
	})
	if err != nil {
		return Result{}, fmt.Errorf("initiate multipart upload: %w", err)
	}
	u.tracker.logUploadStarted(filename, size, session.PartCount)

	u.logger.Debugf("Uploading %d parts, %s each", session.PartCount, units.HumanSize(float64(session.PartSize)))

	bar := u.newProgressBar(filename, session.PartCount)

	parts := make([]completedPart, 0, session.PartCount)
	for _, part := range session.PresignedURLs {
		offset := int64(part.PartNumber-1) * session.PartSize
		partSize := session.PartSize
		if remaining := size - offset; remaining < partSize {
			partSize = remaining
		}

		etag, err := u.apiClient.uploadToPresignedURL(part.UploadURL, io.NewSectionReader(file, offset, partSize), partSize, "")
		if err != nil {
			return Result{}, fmt.Errorf("upload part %d: %w", part.PartNumber, err)
		}
		parts = append(parts, completedPart{PartNumber: part.PartNumber, ETag: etag})
		if bar != nil {
			bar.Increment()
		}
	}

	completion, err := u.apiClient.completeMultipart(multipartCompleteRequest{
		FileKey:  session.FileKey,
		UploadID: session.UploadID,
		Parts:    parts,
	})
	if err != nil {
		return Result{}, fmt.Errorf("complete multipart upload: %w", err)
	}

	return Result{
		FileKey:   completion.FileKey,
		Location:  completion.Location,
		Bucket:    completion.Bucket,
		PartCount: session.PartCount,
	}, nil
}

func (u *Uploader) newProgressBar(name string, partCount int) *mpb.Bar {
	if u.quiet {
		return nil
	}
	p := mpb.New()
	return p.New(int64(partCount),
		mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding("-").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 2, C: decor.DidentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.CountersNoUnit("(%d/%d)", decor.WCSyncSpace),
		),
	)
}

func validateFile(path string) (int64, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, "", fmt.Errorf("file not found: %s", path)
	}
	if !info.Mode().IsRegular() {
		return 0, "", fmt.Errorf("not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return 0, "", fmt.Errorf("file is empty: %s", path)
	}
	if info.Size() > MaxFileSize {
		return 0, "", fmt.Errorf("file exceeds the %s limit: %s is %s",
			units.HumanSize(float64(MaxFileSize)), path, units.HumanSize(float64(info.Size())))
	}

	extension := strings.ToLower(filepath.Ext(path))
	contentType, ok := contentTypeByExtension[extension]
	if !ok {
		return 0, "", fmt.Errorf("unsupported file type %q, expected one of: %s", extension, strings.Join(supportedExtensions(), ", "))
	}

	return info.Size(), contentType, nil
}

func supportedExtensions() []string {
	extensions := make([]string, 0, len(contentTypeByExtension))
	for extension := range contentTypeByExtension {
		extensions = append(extensions, extension)
	}
	sort.Strings(extensions)
	return extensions
}
