// Package client is the Go consumer of the thumbly API. It carries the
// overload retry policy the service itself deliberately does not implement:
// a 503 with an UNAVAILABLE status from the generation endpoint is retried
// with linear backoff, everything else fails straight through.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	app "github.com/SatishBytes/thumbly/src/app"
)

type (
	Client struct {
		baseURL string
		token   string
		client  *http.Client

		// backoff is multiplied by the attempt index between generate
		// attempts. Tests shrink it.
		backoff time.Duration
	}

	// APIError is a non-2xx response decoded from the service's error body.
	APIError struct {
		StatusCode int
		Status     string
		Message    string
	}

	listResponse struct {
		Files []app.FileEntry `json:"files"`
	}

	deleteResponse struct {
		Success bool `json:"success"`
	}

	generateRequest struct {
		Prompt            string `json:"prompt"`
		ImageBufferBase64 string `json:"imageBufferBase64"`
	}

	// errorBody covers both error shapes the API ecosystem produces: a
	// plain message string, or an object with status and message fields.
	errorBody struct {
		Error json.RawMessage `json:"error"`
	}

	errorDetail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
)

const (
	generateAttempts = 3
	defaultBackoff   = time.Second

	statusUnavailable = "UNAVAILABLE"
)

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// Overloaded reports the transient-overload signature that is worth a retry.
func (e *APIError) Overloaded() bool {
	return e.StatusCode == http.StatusServiceUnavailable && e.Status == statusUnavailable
}

func New(baseURL string) *Client {
	tr := &http.Transport{
		MaxIdleConns:       10,
		IdleConnTimeout:    600 * time.Second,
		DisableCompression: true,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: tr},
		backoff: defaultBackoff,
	}
}

// SetToken attaches a bearer ID token to every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Upload sends a single file as the thumbnail form field.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (*app.Thumbnail, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("thumbnail", filename)
	if err != nil {
		return nil, fmt.Errorf("can not prepare upload body: %v", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("can not read upload file: %v", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var thumb app.Thumbnail
	if err := c.do(req, &thumb); err != nil {
		return nil, err
	}
	return &thumb, nil
}

// List fetches the caller's gallery entries.
func (c *Client) List(ctx context.Context) ([]app.FileEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/list", nil)
	if err != nil {
		return nil, err
	}
	var listed listResponse
	if err := c.do(req, &listed); err != nil {
		return nil, err
	}
	return listed.Files, nil
}

// Delete removes a single thumbnail by its full key.
func (c *Client) Delete(ctx context.Context, name string) error {
	endpoint := fmt.Sprintf("%s/api/delete?name=%s", c.baseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	var deleted deleteResponse
	if err := c.do(req, &deleted); err != nil {
		return err
	}
	if !deleted.Success {
		return fmt.Errorf("delete of %s not acknowledged", name)
	}
	return nil
}

// Generate runs the AI thumbnail flow, retrying only on the overload
// signature: three attempts total, sleeping backoff×1 then backoff×2
// between them.
func (c *Client) Generate(ctx context.Context, prompt, imageBufferBase64 string) (*app.Thumbnail, error) {
	var lastErr error
	for attempt := 1; attempt <= generateAttempts; attempt++ {
		thumb, err := c.generateOnce(ctx, prompt, imageBufferBase64)
		if err == nil {
			return thumb, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Overloaded() || attempt == generateAttempts {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

func (c *Client) generateOnce(ctx context.Context, prompt, imageBufferBase64 string) (*app.Thumbnail, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:            prompt,
		ImageBufferBase64: imageBufferBase64,
	})
	if err != nil {
		return nil, fmt.Errorf("can not marshall generate body: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/gen-ai-thumbnail", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var thumb app.Thumbnail
	if err := c.do(req, &thumb); err != nil {
		return nil, err
	}
	return &thumb, nil
}

func (c *Client) do(req *http.Request, result any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("can not read response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("can not parse response body: %v", err)
	}
	return nil
}

func parseAPIError(statusCode int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Message: string(raw)}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == nil {
		return apiErr
	}
	var message string
	if err := json.Unmarshal(body.Error, &message); err == nil {
		apiErr.Message = message
		if strings.Contains(message, statusUnavailable) {
			apiErr.Status = statusUnavailable
		}
		return apiErr
	}
	var detail errorDetail
	if err := json.Unmarshal(body.Error, &detail); err == nil {
		apiErr.Status = detail.Status
		apiErr.Message = detail.Message
	}
	return apiErr
}
