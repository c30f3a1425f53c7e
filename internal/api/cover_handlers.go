package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookcaseapp/bookcase-server/internal/service"
)

func (s *Server) registerCoverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "uploadCover",
		Method:      http.MethodPost,
		Path:        "/api/v1/covers/upload",
		Summary:     "Upload cover image",
		Description: "Uploads a cover image to the image host and returns its URL and blur hash",
		Tags:        []string{"Covers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadCover)

	huma.Register(s.api, huma.Operation{
		OperationID: "generateCover",
		Method:      http.MethodPost,
		Path:        "/api/v1/covers/generate",
		Summary:     "Generate cover image",
		Description: "Generates a cover image from a text prompt and uploads it to the image host",
		Tags:        []string{"Covers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGenerateCover)
}

// === DTOs ===

// UploadCoverInput carries the raw image bytes.
type UploadCoverInput struct {
	Authorization string `header:"Authorization"`
	Filename      string `query:"filename" doc:"Original filename, used for the upload form"`
	RawBody       []byte
}

// CoverOutput wraps the cover result for Huma.
type CoverOutput struct {
	Body service.CoverResult
}

// GenerateCoverRequest is the request body for cover generation.
type GenerateCoverRequest struct {
	Prompt string `json:"prompt" doc:"Text description of the desired cover"`
}

// GenerateCoverInput wraps the generation request for Huma.
type GenerateCoverInput struct {
	Authorization string `header:"Authorization"`
	Body          GenerateCoverRequest
}

// === Handlers ===

func (s *Server) handleUploadCover(ctx context.Context, input *UploadCoverInput) (*CoverOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	filename := input.Filename
	if filename == "" {
		filename = "cover.png"
	}

	result, err := s.services.Cover.Upload(ctx, filename, input.RawBody)
	if err != nil {
		return nil, err
	}
	return &CoverOutput{Body: *result}, nil
}

func (s *Server) handleGenerateCover(ctx context.Context, input *GenerateCoverInput) (*CoverOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	result, err := s.services.Cover.Generate(ctx, input.Body.Prompt)
	if err != nil {
		return nil, err
	}
	return &CoverOutput{Body: *result}, nil
}
