package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"assetkit/internal/domain"
	"assetkit/internal/infra"
)

// Estimated per-image cost based on the image model's published pricing.
const imageCostUSD = 0.005

const (
	defaultBaseURL      = "https://api.replicate.com"
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 5 * time.Minute
	backgroundModel     = "cjwbw/rembg"
)

// Options controls how the image generation client is configured.
type Options struct {
	APIToken     string
	BaseURL      string
	ImageModel   string
	UpscaleModel string
	HTTPClient   *http.Client
	PollInterval time.Duration
	Logger       *infra.Logger
}

// Client drives the Replicate predictions API for image generation, upscaling
// and background removal.
type Client struct {
	apiToken     string
	baseURL      string
	imageModel   string
	upscaleModel string
	client       *http.Client
	pollInterval time.Duration
	logger       zerolog.Logger
}

func New(opts Options) (*Client, error) {
	if opts.APIToken == "" {
		return nil, errors.New("imagegen: api token is required")
	}
	if opts.ImageModel == "" {
		return nil, errors.New("imagegen: image model is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiToken:     opts.APIToken,
		baseURL:      baseURL,
		imageModel:   opts.ImageModel,
		upscaleModel: opts.UpscaleModel,
		client:       client,
		pollInterval: interval,
		logger:       logger,
	}, nil
}

type predictionRequest struct {
	Input map[string]any `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error,omitempty"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// Generate runs one prompt through the image model and writes the result PNG
// to destPath. The prompt's aspect ratio is coerced to a model-supported one.
func (c *Client) Generate(ctx context.Context, prompt domain.ImagePrompt, destPath string) (*domain.GeneratedImage, error) {
	ratio := ToValidRatio(prompt.AspectRatio)
	if ratio != prompt.AspectRatio {
		c.logger.Info().Str("asset_id", prompt.AssetID).
			Str("requested", prompt.AspectRatio).Str("mapped", ratio).
			Msg("mapped aspect ratio")
	}

	input := map[string]any{
		"prompt":          prompt.Prompt,
		"negative_prompt": prompt.NegativePrompt,
		"aspect_ratio":    ratio,
		"guidance_scale":  prompt.GuidanceScale,
		"num_outputs":     1,
		"output_format":   "png",
		"output_quality":  95,
	}

	outputURL, err := c.runModel(ctx, c.imageModel, input)
	if err != nil {
		return nil, fmt.Errorf("imagegen: generate %s: %w", prompt.AssetID, err)
	}
	if err := c.download(ctx, outputURL, destPath); err != nil {
		return nil, fmt.Errorf("imagegen: download %s: %w", prompt.AssetID, err)
	}

	return &domain.GeneratedImage{
		AssetID:  prompt.AssetID,
		Filepath: destPath,
		CostUSD:  imageCostUSD,
	}, nil
}

// Upscale runs an image through the upscaler model at the given scale factor
// and writes the result to destPath.
func (c *Client) Upscale(ctx context.Context, srcPath, destPath string, scale int) error {
	if c.upscaleModel == "" {
		return errors.New("imagegen: upscale model is not configured")
	}
	if scale <= 0 {
		scale = 4
	}
	dataURI, err := fileDataURI(srcPath)
	if err != nil {
		return fmt.Errorf("imagegen: read source image: %w", err)
	}

	outputURL, err := c.runModel(ctx, c.upscaleModel, map[string]any{
		"image":        dataURI,
		"scale":        scale,
		"face_enhance": false,
	})
	if err != nil {
		return fmt.Errorf("imagegen: upscale: %w", err)
	}
	if err := c.download(ctx, outputURL, destPath); err != nil {
		return fmt.Errorf("imagegen: download upscaled image: %w", err)
	}
	return nil
}

// RemoveBackground strips the background from an image and writes the result
// to destPath.
func (c *Client) RemoveBackground(ctx context.Context, srcPath, destPath string) error {
	dataURI, err := fileDataURI(srcPath)
	if err != nil {
		return fmt.Errorf("imagegen: read source image: %w", err)
	}

	outputURL, err := c.runModel(ctx, backgroundModel, map[string]any{"image": dataURI})
	if err != nil {
		return fmt.Errorf("imagegen: remove background: %w", err)
	}
	if err := c.download(ctx, outputURL, destPath); err != nil {
		return fmt.Errorf("imagegen: download cutout: %w", err)
	}
	return nil
}

func (c *Client) runModel(ctx context.Context, model string, input map[string]any) (string, error) {
	pred, err := c.createPrediction(ctx, model, input)
	if err != nil {
		return "", err
	}
	pred, err = c.waitForPrediction(ctx, pred)
	if err != nil {
		return "", err
	}
	url := extractOutputURL(pred.Output)
	if url == "" {
		return "", errors.New("could not extract url from prediction output")
	}
	return url, nil
}

func (c *Client) createPrediction(ctx context.Context, model string, input map[string]any) (*prediction, error) {
	body, err := json.Marshal(predictionRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("encode prediction: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create prediction: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predictions api returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var pred prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return &pred, nil
}

func (c *Client) waitForPrediction(ctx context.Context, pred *prediction) (*prediction, error) {
	deadline := time.Now().Add(defaultPollTimeout)
	for {
		switch pred.Status {
		case "succeeded":
			return pred, nil
		case "failed", "canceled":
			if pred.Error != "" {
				return nil, fmt.Errorf("prediction %s: %s", pred.Status, pred.Error)
			}
			return nil, fmt.Errorf("prediction %s", pred.Status)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("prediction %s timed out", pred.ID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		next, err := c.getPrediction(ctx, pred)
		if err != nil {
			return nil, err
		}
		pred = next
	}
}

func (c *Client) getPrediction(ctx context.Context, pred *prediction) (*prediction, error) {
	url := pred.URLs.Get
	if url == "" {
		url = fmt.Sprintf("%s/v1/predictions/%s", c.baseURL, pred.ID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll prediction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll returned status %d", resp.StatusCode)
	}
	var next prediction
	if err := json.NewDecoder(resp.Body).Decode(&next); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &next, nil
}

func (c *Client) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read download: %w", err)
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// extractOutputURL normalizes the predictions API output shape: a plain URL
// string or an array whose first element is the URL.
func extractOutputURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}

func fileDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
