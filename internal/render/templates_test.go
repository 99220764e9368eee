package render

import (
	"strings"
	"testing"

	"assetkit/internal/domain"
	"assetkit/internal/theme"
)

func testTheme(t *testing.T) theme.Config {
	t.Helper()
	th, err := theme.Get("dark")
	if err != nil {
		t.Fatalf("theme.Get: %v", err)
	}
	return th
}

func TestTemplateNameFor(t *testing.T) {
	cases := []struct {
		spec domain.AssetSpec
		want string
	}{
		{domain.AssetSpec{ID: "og-image", Type: domain.AssetTypeOGImage}, "og-image"},
		{domain.AssetSpec{ID: "instagram-square", Type: domain.AssetTypeSocialPost}, "social-square"},
		{domain.AssetSpec{ID: "preview-gif", Type: domain.AssetTypePreviewGIF}, "preview-frame"},
		{domain.AssetSpec{ID: "twitter-banner", Type: domain.AssetTypeBanner}, string(domain.AssetTypeBanner)},
	}
	for _, tc := range cases {
		if got := templateNameFor(tc.spec); got != tc.want {
			t.Errorf("templateNameFor(%s) = %q, want %q", tc.spec.ID, got, tc.want)
		}
	}
}

func TestCompileDefaultTemplate(t *testing.T) {
	r, err := NewRenderer(Options{})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	defer r.Close()

	spec := domain.AssetSpec{ID: "twitter-banner", Type: domain.AssetTypeBanner, Width: 1500, Height: 500}
	req := domain.AssetRequest{ProductName: "Widget Kit", Brand: "buildkit"}
	copy := domain.CopyBundle{Tagline: "Widgets without the work", OGDescription: "Build faster."}

	html, err := r.compile(spec, newPageData(spec, req, copy, testTheme(t)))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, want := range []string{
		"width: 1500px",
		"height: 500px",
		"Widget Kit",
		"Widgets without the work",
		"#0F0F14",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("compiled html missing %q", want)
		}
	}
	if strings.Contains(html, "ZgotmplZ") {
		t.Error("css values were escaped")
	}
}

func TestCompileEscapesUserContent(t *testing.T) {
	r, err := NewRenderer(Options{})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	defer r.Close()

	spec := domain.AssetSpec{ID: "twitter-banner", Type: domain.AssetTypeBanner, Width: 100, Height: 100}
	req := domain.AssetRequest{ProductName: "<script>alert(1)</script>"}

	html, err := r.compile(spec, newPageData(spec, req, domain.CopyBundle{}, testTheme(t)))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("product name was not escaped")
	}
}

func TestCompilePreviewFrameUsesProgress(t *testing.T) {
	r, err := NewRenderer(Options{})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	defer r.Close()

	spec := domain.AssetSpec{ID: "preview-gif", Type: domain.AssetTypePreviewGIF, Width: 800, Height: 600}
	data := newPageData(spec, domain.AssetRequest{ProductName: "Widget Kit"}, domain.CopyBundle{CallToAction: "Get it"}, testTheme(t))
	data.FrameIndex = 11
	data.FrameTotal = 12
	data.Progress = 1

	html, err := r.compile(spec, data)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(html, "opacity: 1.000") {
		t.Error("expected final frame at full opacity")
	}
	if !strings.Contains(html, "width: 200px") {
		t.Error("expected accent bar at full width")
	}
}
