package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookcaseapp/bookcase-server/internal/covers"
	domainerrors "github.com/bookcaseapp/bookcase-server/internal/errors"
)

// CoverService runs the cover image pipeline: optional generation from a
// prompt, upload to the image host, and a BlurHash placeholder for the
// result.
type CoverService struct {
	uploader  *covers.Uploader
	generator *covers.Generator
	logger    *slog.Logger
}

// NewCoverService creates a new cover service.
func NewCoverService(uploader *covers.Uploader, generator *covers.Generator, logger *slog.Logger) *CoverService {
	return &CoverService{
		uploader:  uploader,
		generator: generator,
		logger:    logger,
	}
}

// CoverResult is a hosted cover image plus its placeholder hash.
type CoverResult struct {
	URL      string `json:"url"`
	BlurHash string `json:"blur_hash,omitempty"`
}

// Upload pushes user-supplied image bytes to the image host.
// The BlurHash is computed locally before the upload; a hash failure is
// logged and tolerated since the placeholder is cosmetic.
func (s *CoverService) Upload(ctx context.Context, filename string, data []byte) (*CoverResult, error) {
	if !s.uploader.Configured() {
		return nil, domainerrors.Unavailable("image uploads are not configured")
	}
	if len(data) == 0 {
		return nil, domainerrors.Validation("image data cannot be empty")
	}

	blurHash, err := covers.ComputeBlurHash(data)
	if err != nil {
		s.logger.Warn("failed to compute blurhash", "filename", filename, "error", err)
		blurHash = ""
	}

	url, err := s.uploader.Upload(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("upload cover: %w", err)
	}

	return &CoverResult{URL: url, BlurHash: blurHash}, nil
}

// Generate asks the model for a cover matching the prompt and uploads
// the result. If the upload fails after generation succeeded, the whole
// operation fails; nothing references the generated bytes, so they are
// simply discarded.
func (s *CoverService) Generate(ctx context.Context, prompt string) (*CoverResult, error) {
	if !s.generator.Configured() {
		return nil, domainerrors.Unavailable("cover generation is not configured")
	}
	if !s.uploader.Configured() {
		return nil, domainerrors.Unavailable("image uploads are not configured")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domainerrors.Validation("prompt cannot be empty")
	}

	data, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate cover: %w", err)
	}

	result, err := s.Upload(ctx, "generated-cover.png", data)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cover generated and uploaded", "url", result.URL)
	return result, nil
}
