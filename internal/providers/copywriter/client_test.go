package copywriter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"assetkit/internal/domain"
	"assetkit/internal/theme"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, fn roundTripFunc) *Client {
	t.Helper()
	client, err := New(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: fn},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func messagesReply(text string) *http.Response {
	body, _ := json.Marshal(messagesResponse{
		Content: []contentBlock{{Type: "text", Text: text}},
	})
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(string(body))),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func completeCopyJSON() string {
	bundle := domain.CopyBundle{
		ListingTitle:       "Widget Kit Pro",
		ListingDescription: "The kit you need.",
		BulletPoints:       []string{"Fast", "Small", "Sharp", "Done", "Yours"},
		EmailSubject:       "Widget Kit is live",
		EmailBody:          "It shipped today.",
		TwitterCaption:     "Widget Kit just dropped.",
		LinkedInCaption:    "Announcing Widget Kit.",
		InstagramCaption:   "Widget Kit.\n#widgets",
		OGTitle:            "Widget Kit",
		OGDescription:      "Build widgets faster.",
		Tagline:            "Widgets without the work",
		CallToAction:       "Get the kit",
	}
	raw, _ := json.Marshal(bundle)
	return string(raw)
}

func TestGenerateCopyParsesFencedResponse(t *testing.T) {
	var gotPath, gotVersion string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		gotVersion = req.Header.Get("anthropic-version")
		return messagesReply("```json\n" + completeCopyJSON() + "\n```"), nil
	})

	bundle, err := client.GenerateCopy(context.Background(), domain.AssetRequest{
		ProductName:        "Widget Kit",
		ProductDescription: "A complete widget toolkit",
		Brand:              "buildkit",
	}, theme.Config{Name: "Dark Mode"})
	if err != nil {
		t.Fatalf("GenerateCopy: %v", err)
	}
	if bundle.ListingTitle != "Widget Kit Pro" {
		t.Fatalf("unexpected title %q", bundle.ListingTitle)
	}
	if gotPath != "/v1/messages" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotVersion != "2023-06-01" {
		t.Fatalf("unexpected api version %q", gotVersion)
	}
}

func TestGenerateCopyReturnsParseErrorOnBadJSON(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return messagesReply("sorry, I cannot produce JSON today"), nil
	})

	_, err := client.GenerateCopy(context.Background(), domain.AssetRequest{ProductName: "Widget"}, theme.Config{})
	var perr *domain.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestGenerateCopyReportsMissingFields(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return messagesReply(`{"gumroad_title":"Only a title"}`), nil
	})

	_, err := client.GenerateCopy(context.Background(), domain.AssetRequest{ProductName: "Widget"}, theme.Config{})
	var perr *domain.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !strings.Contains(perr.Message, "tagline") {
		t.Fatalf("expected missing field list, got %q", perr.Message)
	}
}

func TestGenerateImagePromptsSkipsNonImageSpecs(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return messagesReply(`[{"asset_id":"hero-image","prompt":"p","negative_prompt":"n","aspect_ratio":"16:9","guidance_scale":7.5}]`), nil
	})

	specs := []domain.AssetSpec{
		{ID: "hero-image", Method: domain.MethodImageModel, Width: 1920, Height: 1080},
		{ID: "og-image", Method: domain.MethodTemplate},
		{ID: "gumroad-listing", Method: domain.MethodCopy},
	}
	prompts, err := client.GenerateImagePrompts(context.Background(), domain.AssetRequest{ProductName: "Widget"}, theme.Config{}, specs)
	if err != nil {
		t.Fatalf("GenerateImagePrompts: %v", err)
	}
	if len(prompts) != 1 || prompts[0].AssetID != "hero-image" {
		t.Fatalf("unexpected prompts %+v", prompts)
	}
	if calls != 1 {
		t.Fatalf("expected one api call, got %d", calls)
	}
}

func TestGenerateImagePromptsShortCircuitsWithoutImageSpecs(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("unexpected api call")
		return nil, nil
	})

	prompts, err := client.GenerateImagePrompts(context.Background(), domain.AssetRequest{}, theme.Config{}, []domain.AssetSpec{
		{ID: "og-image", Method: domain.MethodTemplate},
	})
	if err != nil {
		t.Fatalf("GenerateImagePrompts: %v", err)
	}
	if prompts != nil {
		t.Fatalf("expected nil prompts, got %+v", prompts)
	}
}

func TestGenerateSVGExtractsMarkup(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return messagesReply("Here you go:\n<svg width=\"10\"><rect/></svg>\nEnjoy."), nil
	})

	markup, err := client.GenerateSVG(context.Background(), "an icon", 10, 10, theme.Config{Name: "Minimalist"})
	if err != nil {
		t.Fatalf("GenerateSVG: %v", err)
	}
	if !strings.HasPrefix(markup, "<svg") || !strings.HasSuffix(markup, "</svg>") {
		t.Fatalf("unexpected markup %q", markup)
	}
}
