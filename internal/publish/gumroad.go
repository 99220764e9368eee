package publish

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
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"assetkit/internal/domain"
	"assetkit/internal/infra"
)

const defaultBaseURL = "https://api.gumroad.com/v2"

// Options controls how the Gumroad client is configured.
type Options struct {
	AccessToken string
	BaseURL     string
	HTTPClient  *http.Client
	Logger      *infra.Logger
}

// Client publishes generated copy and cover images to Gumroad product
// listings.
type Client struct {
	accessToken string
	baseURL     string
	client      *http.Client
	logger      zerolog.Logger
}

// Product is a Gumroad product listing as returned by the API.
type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Published    bool    `json:"published"`
	URL          string  `json:"url"`
	Price        float64 `json:"price"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
}

type apiEnvelope struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Product  *Product  `json:"product,omitempty"`
	Products []Product `json:"products,omitempty"`
}

func New(opts Options) (*Client, error) {
	if opts.AccessToken == "" {
		return nil, errors.New("publish: access token is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		accessToken: opts.AccessToken,
		baseURL:     baseURL,
		client:      client,
		logger:      logger,
	}, nil
}

// ListProducts returns every product for the authenticated seller.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	env, err := c.do(ctx, http.MethodGet, "/products", "", nil)
	if err != nil {
		return nil, err
	}
	return env.Products, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	env, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), "", nil)
	if err != nil {
		return nil, err
	}
	if env.Product == nil {
		return nil, errors.New("publish: response had no product")
	}
	return env.Product, nil
}

// UpdateProductCopy replaces a listing's title and description with the
// generated copy. The bullet points are folded into the description body.
func (c *Client) UpdateProductCopy(ctx context.Context, productID string, copy domain.CopyBundle) (*Product, error) {
	c.logger.Info().Str("product_id", productID).Msg("updating product copy")

	form := url.Values{}
	form.Set("name", copy.ListingTitle)
	form.Set("description", formatListingDescription(copy))

	env, err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(productID),
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	return env.Product, nil
}

// UploadCoverImage attaches a PNG cover to a product listing.
func (c *Client) UploadCoverImage(ctx context.Context, productID, imagePath string) error {
	c.logger.Info().Str("product_id", productID).Str("image", imagePath).Msg("uploading cover image")

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("publish: read cover image: %w", err)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("access_token", c.accessToken); err != nil {
		return fmt.Errorf("publish: build form: %w", err)
	}
	fw, err := mw.CreateFormFile("cover_image", "cover.png")
	if err != nil {
		return fmt.Errorf("publish: build form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("publish: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("publish: build form: %w", err)
	}

	_, err = c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(productID), mw.FormDataContentType(), body)
	return err
}

// PublishAssets pushes a full generated kit to a listing: copy first, then
// the thumbnail as the cover image when the manifest includes one.
func (c *Client) PublishAssets(ctx context.Context, productID string, manifest domain.AssetManifest) error {
	if _, err := c.UpdateProductCopy(ctx, productID, manifest.Copy); err != nil {
		return err
	}
	for _, asset := range manifest.Assets {
		if asset.Type == domain.AssetTypeThumbnail {
			if err := c.UploadCoverImage(ctx, productID, asset.Path); err != nil {
				return err
			}
			break
		}
	}
	c.logger.Info().Str("product", manifest.ProductName).Msg("publish complete")
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*apiEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("publish: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish: call api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("publish: read response: %w", err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("publish: decode response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		if env.Message != "" {
			return nil, fmt.Errorf("publish: api error: %s", env.Message)
		}
		return nil, fmt.Errorf("publish: api returned status %d", resp.StatusCode)
	}
	return &env, nil
}

func formatListingDescription(copy domain.CopyBundle) string {
	lines := []string{copy.ListingDescription, "", "What you get:"}
	for _, bp := range copy.BulletPoints {
		lines = append(lines, "• "+bp)
	}
	return strings.Join(lines, "\n")
}
