package copywriter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"assetkit/internal/domain"
	"assetkit/internal/theme"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	defaultTimeout   = 120 * time.Second
	apiVersion       = "2023-06-01"
)

// Options controls how the copywriter client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
}

// Client wraps the Anthropic messages API for marketing copy, image prompt
// and SVG generation.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("copywriter: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:    opts.APIKey,
		baseURL:   baseURL,
		model:     model,
		maxTokens: maxTokens,
		client:    client,
	}, nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GenerateCopy produces the complete marketing copy bundle for a product in a
// single model call.
func (c *Client) GenerateCopy(ctx context.Context, req domain.AssetRequest, th theme.Config) (*domain.CopyBundle, error) {
	system := buildCopySystemPrompt(req)
	user := buildCopyUserPrompt(req, th)

	text, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("copywriter: generate copy: %w", err)
	}

	var bundle domain.CopyBundle
	cleaned := extractJSONFragment(text)
	if cleaned == "" {
		return nil, &domain.ParseError{Backend: "copywriter", Message: "empty copy response"}
	}
	if err := json.Unmarshal([]byte(cleaned), &bundle); err != nil {
		return nil, &domain.ParseError{Backend: "copywriter", Message: "copy response is not valid JSON", Err: err}
	}
	if perr := bundle.Validate(); perr != nil {
		return nil, perr
	}
	return &bundle, nil
}

// GenerateImagePrompts produces one model-ready prompt per image-model asset.
// Assets generated by templates or encoding are skipped; an empty slice of
// specs short-circuits without a model call.
func (c *Client) GenerateImagePrompts(ctx context.Context, req domain.AssetRequest, th theme.Config, specs []domain.AssetSpec) ([]domain.ImagePrompt, error) {
	var imageSpecs []domain.AssetSpec
	for _, spec := range specs {
		if spec.Method == domain.MethodImageModel {
			imageSpecs = append(imageSpecs, spec)
		}
	}
	if len(imageSpecs) == 0 {
		return nil, nil
	}

	system := imagePromptSystemPrompt
	user := buildImagePromptUserPrompt(req, th, imageSpecs)

	text, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("copywriter: generate image prompts: %w", err)
	}

	cleaned := extractJSONFragment(text)
	if cleaned == "" {
		return nil, &domain.ParseError{Backend: "copywriter", Message: "empty image prompt response"}
	}
	var prompts []domain.ImagePrompt
	if err := json.Unmarshal([]byte(cleaned), &prompts); err != nil {
		return nil, &domain.ParseError{Backend: "copywriter", Message: "image prompt response is not valid JSON", Err: err}
	}
	return prompts, nil
}

var svgPattern = regexp.MustCompile(`(?s)<svg.*?</svg>`)

// GenerateSVG asks the model for a standalone SVG illustration and returns the
// raw markup.
func (c *Client) GenerateSVG(ctx context.Context, description string, width, height int, th theme.Config) (string, error) {
	system := "You are an SVG artist. Generate clean, production-quality SVG code. Return ONLY the SVG markup, nothing else."
	user := fmt.Sprintf(`Create an SVG illustration (%dx%d):
Description: %s
Colors: primary=%s, secondary=%s, accent=%s, bg=%s
Style: %s aesthetic

Return ONLY the <svg>...</svg> markup.`,
		width, height, description,
		th.Colors.Primary, th.Colors.Secondary, th.Colors.Accent, th.Colors.Background,
		th.Name)

	text, err := c.complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("copywriter: generate svg: %w", err)
	}
	markup := svgPattern.FindString(text)
	if markup == "" {
		return "", &domain.ParseError{Backend: "copywriter", Message: "response did not contain SVG markup"}
	}
	return markup, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call messages api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var decoded messagesResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != nil {
			return "", fmt.Errorf("messages api %d: %s", resp.StatusCode, decoded.Error.Message)
		}
		return "", fmt.Errorf("messages api returned status %d", resp.StatusCode)
	}
	for _, block := range decoded.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("messages api returned no text content")
}

func buildCopySystemPrompt(req domain.AssetRequest) string {
	voice := "Professional and clear."
	if req.Brand == "buildkit" {
		voice = "Technical but approachable. Confident without being arrogant. Think Stripe's documentation meets indie hacker energy."
	}
	audience := req.TargetAudience
	if audience == "" {
		audience = "Developers, indie hackers, and technical creators"
	}
	return fmt.Sprintf(`You are a world-class product copywriter specializing in digital products and developer tools.
You write punchy, benefit-driven copy that converts. Never use fluff, clichés, or generic marketing speak.
Your copy is specific, concrete, and makes the reader feel like they NEED this product.

Brand voice: %s

Target audience: %s`, voice, audience)
}

func buildCopyUserPrompt(req domain.AssetRequest, th theme.Config) string {
	tags := "none specified"
	if len(req.Tags) > 0 {
		tags = strings.Join(req.Tags, ", ")
	}
	return fmt.Sprintf(`Generate a complete marketing copy kit for this product:

PRODUCT: %s
DESCRIPTION: %s
THEME/VIBE: %s
TAGS: %s

Return ONLY valid JSON with this exact structure (no markdown, no backticks):
{
  "gumroad_title": "Product title (max 80 chars, include a power word)",
  "gumroad_description": "2-3 paragraph product description for the Gumroad listing. First paragraph is the hook. Second is features/benefits. Third is social proof or urgency.",
  "gumroad_bullet_points": ["Bullet 1 — benefit focused", "Bullet 2", "Bullet 3", "Bullet 4", "Bullet 5"],
  "email_subject": "Email subject line (A/B test worthy, max 60 chars)",
  "email_body": "Full email announcement (3-4 paragraphs, casual but professional)",
  "twitter_caption": "Twitter post (max 280 chars, include a hook + CTA)",
  "linkedin_caption": "LinkedIn post (2-3 paragraphs, more professional tone, include emojis sparingly)",
  "instagram_caption": "Instagram caption (punchy, use line breaks, 3-5 relevant hashtags at end)",
  "og_title": "Open Graph title (max 60 chars)",
  "og_description": "Open Graph description (max 155 chars)",
  "tagline": "One-line tagline (max 10 words)",
  "call_to_action": "CTA button text (max 4 words)"
}`, req.ProductName, req.ProductDescription, th.Name, tags)
}

const imagePromptSystemPrompt = `You are an expert at writing prompts for Flux and Stable Diffusion image generation models.
You understand how to write prompts that produce professional, polished results suitable for product marketing.
Your prompts are specific about composition, lighting, style, and mood. You NEVER write vague prompts.`

func buildImagePromptUserPrompt(req domain.AssetRequest, th theme.Config, specs []domain.AssetSpec) string {
	sb := &strings.Builder{}
	for _, spec := range specs {
		fmt.Fprintf(sb, "- %s: %s (%dx%d)\n", spec.ID, spec.Description, spec.Width, spec.Height)
	}
	return fmt.Sprintf(`Generate image prompts for these marketing assets:

PRODUCT: %s
DESCRIPTION: %s
VISUAL THEME: %s
THEME MODIFIERS: %s
BRAND: %s

ASSETS NEEDED:
%s
Return ONLY valid JSON array (no markdown, no backticks):
[
  {
    "asset_id": "the-asset-id",
    "prompt": "Detailed generation prompt, be very specific about composition, colors, lighting, style. Include the theme modifiers naturally. DO NOT include any text/words in the image — we add text via templates.",
    "negative_prompt": "blurry, low quality, text, watermark, logo, words, letters, distorted",
    "aspect_ratio": "MUST be one of: 1:1, 16:9, 9:16, 3:2, 2:3, 4:5, 5:4, 3:4, 4:3. Pick the closest match to the asset dimensions.",
    "guidance_scale": 7.5
  }
]`, req.ProductName, req.ProductDescription, th.Name, th.PromptModifiers, req.Brand, sb.String())
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
