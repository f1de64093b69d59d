package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DavidSilveraGabriel/MewAI/internal/config"
)

const defaultFluxURL = "http://localhost:7860"

// FluxImageTool generates images through a FLUX.1-schnell inference endpoint
// and persists them under the shared generated-images directory. It never
// returns an error: every failure path degrades to a descriptive string so
// the calling agent can treat it as task output.
type FluxImageTool struct {
	logger        *slog.Logger
	client        *http.Client
	baseURL       string
	saveDir       string
	defaultFormat Format
	defaultSteps  int
}

func NewFluxImageTool(logger *slog.Logger, baseURL string) *FluxImageTool {
	if baseURL == "" {
		baseURL = defaultFluxURL
	}
	return &FluxImageTool{
		logger:        logger,
		client:        &http.Client{Timeout: 120 * time.Second},
		baseURL:       strings.TrimRight(baseURL, "/"),
		saveDir:       config.GeneratedImagesDir,
		defaultFormat: FormatSquare,
		defaultSteps:  4,
	}
}

// SetSaveDir overrides the asset directory. Used by tests.
func (t *FluxImageTool) SetSaveDir(dir string) { t.saveDir = dir }

type inferRequest struct {
	Prompt        string `json:"prompt"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Steps         int    `json:"num_inference_steps"`
	Seed          int64  `json:"seed"`
	RandomizeSeed bool   `json:"randomize_seed"`
}

type inferResponse struct {
	Image string `json:"image"` // base64-encoded webp
	Seed  int64  `json:"seed"`
}

// Run parses the free-form argument string, calls the inference backend and
// saves the result. The success string carries the asset's relative URL plus
// generation metadata.
func (t *FluxImageTool) Run(ctx context.Context, args string) string {
	req := ParseArgs(args, Request{Format: t.defaultFormat, Steps: t.defaultSteps})
	if req.Prompt == "" {
		req.Prompt = "A beautiful landscape"
	}

	dims := req.Dimensions()
	result, err := t.infer(ctx, inferRequest{
		Prompt:        req.Prompt,
		Width:         dims.Width,
		Height:        dims.Height,
		Steps:         req.Steps,
		Seed:          req.Seed,
		RandomizeSeed: req.Randomize,
	})
	if err != nil {
		t.logger.Error("image generation failed", "error", err)
		return fmt.Sprintf("Error generating image: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(result.Image)
	if err != nil {
		return fmt.Sprintf("Error generating image: invalid image payload: %v", err)
	}

	filename := t.filename(req.Prompt, req.Format)
	if err := os.MkdirAll(t.saveDir, 0o755); err != nil {
		return fmt.Sprintf("Error generating image: %v", err)
	}
	if err := os.WriteFile(filepath.Join(t.saveDir, filename), raw, 0o644); err != nil {
		return fmt.Sprintf("Error generating image: %v", err)
	}

	return fmt.Sprintf("Image generated successfully at: %s%s\nFormat: %s\nDimensions: %dx%d\nSeed used: %d",
		config.GeneratedImagesURLPrefix, filename, req.Format, dims.Width, dims.Height, result.Seed)
}

func (t *FluxImageTool) infer(ctx context.Context, req inferRequest) (*inferResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/infer", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("flux endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("flux returned status %d: %s", resp.StatusCode, string(body))
	}

	var result inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode flux response: %w", err)
	}
	if result.Image == "" {
		return nil, fmt.Errorf("flux returned no image data")
	}
	return &result, nil
}

// filename builds "<sanitized prompt>_<format>_<suffix>.webp".
func (t *FluxImageTool) filename(prompt string, format Format) string {
	clean := []byte(prompt)
	if len(clean) > 30 {
		clean = clean[:30]
	}
	for i, c := range clean {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			clean[i] = '_'
		}
	}
	return fmt.Sprintf("%s_%s_%s.webp", clean, format, uuid.NewString()[:8])
}
