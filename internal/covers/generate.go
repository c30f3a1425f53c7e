package covers

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Generator produces cover images from text prompts via a hosted
// text-to-image model.
type Generator struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	endpoint    string
	token       string
}

// NewGenerator creates a generation client. endpoint is the full model
// inference URL; token is the bearer token for it. An empty endpoint or
// token leaves the client unconfigured.
func NewGenerator(endpoint, token string, logger *slog.Logger) *Generator {
	return &Generator{
		httpClient: &http.Client{
			// Model inference can be slow, especially on a cold start.
			Timeout: 120 * time.Second,
		},
		// Hosted inference APIs throttle aggressively; stay well under.
		rateLimiter: rate.NewLimiter(rate.Every(3*time.Second), 2),
		logger:      logger,
		endpoint:    endpoint,
		token:       token,
	}
}

// Configured reports whether the client has an endpoint and credentials.
func (g *Generator) Configured() bool {
	return g.endpoint != "" && g.token != ""
}

type generateRequest struct {
	Inputs string `json:"inputs"`
}

type generateError struct {
	Error string `json:"error"`
}

// Generate asks the model for an image matching the prompt and returns
// the raw image bytes. The model replies with JSON on failure and binary
// image data on success.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	payload, err := json.Marshal(generateRequest{Inputs: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	g.logger.Debug("generating cover image", "prompt", prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode != http.StatusOK || strings.Contains(contentType, "application/json") {
		var genErr generateError
		if err := json.Unmarshal(body, &genErr); err == nil && genErr.Error != "" {
			return nil, fmt.Errorf("generation failed: %s", genErr.Error)
		}
		return nil, fmt.Errorf("generation failed: status %d", resp.StatusCode)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("generation returned empty image")
	}

	g.logger.Debug("cover image generated", "bytes", len(body))
	return body, nil
}
