// Package covers talks to the external services behind book cover images:
// an image host for uploads and a text-to-image model for generation.
package covers

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Uploader pushes cover images to an unsigned-upload image host and
// returns their public URLs.
type Uploader struct {
	httpClient   *http.Client
	rateLimiter  *rate.Limiter
	logger       *slog.Logger
	endpoint     string
	uploadPreset string
}

// NewUploader creates an upload client for the given endpoint and
// unsigned upload preset. An empty endpoint leaves the client
// unconfigured; Configured reports this so callers can degrade.
func NewUploader(endpoint, uploadPreset string, logger *slog.Logger) *Uploader {
	return &Uploader{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		// 1 upload per second, burst of 3
		rateLimiter:  rate.NewLimiter(rate.Every(time.Second), 3),
		logger:       logger,
		endpoint:     endpoint,
		uploadPreset: uploadPreset,
	}
}

// Configured reports whether the client has an endpoint to talk to.
func (u *Uploader) Configured() bool {
	return u.endpoint != "" && u.uploadPreset != ""
}

// uploadResponse is the host's reply to an upload.
type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends an image as a multipart form and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if err := u.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write image data: %w", err)
	}
	if err := writer.WriteField("upload_preset", u.uploadPreset); err != nil {
		return "", fmt.Errorf("write upload preset: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	u.logger.Debug("uploading cover image",
		"filename", filename,
		"bytes", len(data),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	var uploadResp uploadResponse
	if err := json.UnmarshalRead(resp.Body, &uploadResp); err != nil {
		return "", fmt.Errorf("parse upload response: %w", err)
	}

	if uploadResp.Error != nil && uploadResp.Error.Message != "" {
		return "", fmt.Errorf("upload rejected: %s", uploadResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || uploadResp.SecureURL == "" {
		return "", fmt.Errorf("upload failed: status %d", resp.StatusCode)
	}

	u.logger.Debug("cover image uploaded", "url", uploadResp.SecureURL)
	return uploadResp.SecureURL, nil
}
