package imagegen

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"assetkit/internal/domain"
)

func TestToValidRatio(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"16:9", "16:9"},
		{"1:1", "1:1"},
		{"3:1", "16:9"},
		{"1:3", "9:16"},
		{"21:9", "16:9"},
		{"1.91:1", "16:9"},
		{"banana", "16:9"},
		{"", "16:9"},
		{"4:0", "16:9"},
	}
	for _, tc := range cases {
		if got := ToValidRatio(tc.in); got != tc.want {
			t.Errorf("ToValidRatio(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, v any) *http.Response {
	body, _ := json.Marshal(v)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(body))),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestGenerateCreatesPollsAndDownloads(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "hero-image.png")
	polls := 0

	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch {
		case req.Method == http.MethodPost && strings.HasSuffix(req.URL.Path, "/predictions"):
			if got := req.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Fatalf("unexpected auth header %q", got)
			}
			var payload predictionRequest
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Fatalf("decode prediction request: %v", err)
			}
			if payload.Input["aspect_ratio"] != "16:9" {
				t.Fatalf("expected mapped ratio 16:9, got %v", payload.Input["aspect_ratio"])
			}
			return jsonResponse(http.StatusCreated, map[string]any{
				"id":     "pred-1",
				"status": "processing",
				"urls":   map[string]string{"get": "https://replicate.test/v1/predictions/pred-1"},
			}), nil
		case req.Method == http.MethodGet && strings.Contains(req.URL.Path, "/predictions/pred-1"):
			polls++
			status := "processing"
			var output any
			if polls >= 2 {
				status = "succeeded"
				output = []string{"https://replicate.test/files/out.png"}
			}
			return jsonResponse(http.StatusOK, map[string]any{
				"id":     "pred-1",
				"status": status,
				"output": output,
			}), nil
		case req.Method == http.MethodGet && strings.HasSuffix(req.URL.Path, "/files/out.png"):
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("png-bytes")),
			}, nil
		}
		t.Fatalf("unexpected request %s %s", req.Method, req.URL)
		return nil, nil
	})

	client, err := New(Options{
		APIToken:     "test-token",
		ImageModel:   "black-forest-labs/flux-1.1-pro",
		HTTPClient:   &http.Client{Transport: transport},
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	img, err := client.Generate(context.Background(), domain.ImagePrompt{
		AssetID:       "hero-image",
		Prompt:        "a widget",
		AspectRatio:   "21:9",
		GuidanceScale: 7.5,
	}, dest)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if img.CostUSD != 0.005 {
		t.Fatalf("unexpected cost %v", img.CostUSD)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected image content %q", data)
	}
}

func TestGenerateSurfacesPredictionFailure(t *testing.T) {
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusCreated, map[string]any{
			"id":     "pred-2",
			"status": "failed",
			"error":  "NSFW content detected",
		}), nil
	})

	client, err := New(Options{
		APIToken:     "test-token",
		ImageModel:   "black-forest-labs/flux-1.1-pro",
		HTTPClient:   &http.Client{Transport: transport},
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Generate(context.Background(), domain.ImagePrompt{AssetID: "hero-image"}, filepath.Join(t.TempDir(), "x.png"))
	if err == nil || !strings.Contains(err.Error(), "NSFW") {
		t.Fatalf("expected failure error, got %v", err)
	}
}

func TestExtractOutputURL(t *testing.T) {
	if got := extractOutputURL(json.RawMessage(`"https://x/y.png"`)); got != "https://x/y.png" {
		t.Fatalf("string output: got %q", got)
	}
	if got := extractOutputURL(json.RawMessage(`["https://x/a.png","https://x/b.png"]`)); got != "https://x/a.png" {
		t.Fatalf("array output: got %q", got)
	}
	if got := extractOutputURL(json.RawMessage(`{"weird":true}`)); got != "" {
		t.Fatalf("object output: got %q", got)
	}
	if got := extractOutputURL(nil); got != "" {
		t.Fatalf("nil output: got %q", got)
	}
}
