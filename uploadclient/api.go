package uploadclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/hashicorp/go-retryablehttp"
)

type directUploadRequest struct {
	Filename    string `json:"filename"`
	UserID      string `json:"userId"`
	ContentType string `json:"contentType"`
}

type directUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
}

type multipartInitRequest struct {
	Filename    string `json:"filename"`
	UserID      string `json:"userId"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
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

type completedPart struct {
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"eTag"`
}

type multipartCompleteRequest struct {
	FileKey  string          `json:"fileKey"`
	UploadID string          `json:"uploadId"`
	Parts    []completedPart `json:"parts"`
}

type multipartCompleteResponse struct {
	FileKey  string `json:"fileKey"`
	Location string `json:"location"`
	Bucket   string `json:"bucket"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

type apiClient struct {
	httpClient *retryablehttp.Client
	baseURL    string
	authToken  string
	logger     log.Logger
}

func newAPIClient(client *retryablehttp.Client, baseURL string, authToken string, logger log.Logger) apiClient {
	return apiClient{
		httpClient: client,
		baseURL:    baseURL,
		authToken:  authToken,
		logger:     logger,
	}
}

func (c apiClient) requestDirectUpload(request directUploadRequest) (directUploadResponse, error) {
	var response directUploadResponse
	err := c.postJSON("/upload", request, &response)
	return response, err
}

func (c apiClient) requestMultipartInit(request multipartInitRequest) (multipartInitResponse, error) {
	var response multipartInitResponse
	err := c.postJSON("/multipart/init", request, &response)
	return response, err
}

func (c apiClient) completeMultipart(request multipartCompleteRequest) (multipartCompleteResponse, error) {
	var response multipartCompleteResponse
	err := c.postJSON("/multipart/complete", request, &response)
	return response, err
}

func (c apiClient) postJSON(path string, requestBody interface{}, target interface{}) error {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	body, err := json.Marshal(requestBody)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return err
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.authToken))
	}
	req.Header.Set("Content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func(body io.ReadCloser) {
		err := body.Close()
		if err != nil {
			c.logger.Printf(err.Error())
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return unwrapError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

// uploadToPresignedURL PUTs data to a presigned S3 URL and returns the
// response ETag with its surrounding quotes stripped.
func (c apiClient) uploadToPresignedURL(url string, data io.ReadSeeker, size int64, contentType string) (string, error) {
	req, err := retryablehttp.NewRequest(http.MethodPut, url, data)
	if err != nil {
		return "", err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// Add Content-Length header manually because retryablehttp doesn't do it automatically
	req.Header.Set("Content-Length", fmt.Sprintf("%d", size))
	req.ContentLength = size

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func(body io.ReadCloser) {
		err := body.Close()
		if err != nil {
			c.logger.Printf(err.Error())
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", unwrapError(resp)
	}

	etag := resp.Header.Get("ETag")
	return trimETag(etag), nil
}

func trimETag(etag string) string {
	if len(etag) >= 2 && etag[0] == '"' && etag[len(etag)-1] == '"' {
		return etag[1 : len(etag)-1]
	}
	return etag
}

func unwrapError(resp *http.Response) error {
	errorResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(errorResp, &envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, envelope.Error)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorResp)
}
