package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"assetkit/internal/domain"
	"assetkit/internal/encode"
	"assetkit/internal/infra"
	"assetkit/internal/storage"
	"assetkit/internal/theme"
)

func fullBundle() domain.CopyBundle {
	return domain.CopyBundle{
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
}

type fakeCopyGen struct {
	copyErr error
}

func (f *fakeCopyGen) GenerateCopy(ctx context.Context, req domain.AssetRequest, th theme.Config) (*domain.CopyBundle, error) {
	if f.copyErr != nil {
		return nil, f.copyErr
	}
	bundle := fullBundle()
	return &bundle, nil
}

func (f *fakeCopyGen) GenerateImagePrompts(ctx context.Context, req domain.AssetRequest, th theme.Config, specs []domain.AssetSpec) ([]domain.ImagePrompt, error) {
	var prompts []domain.ImagePrompt
	for _, spec := range specs {
		if spec.Method != domain.MethodImageModel {
			continue
		}
		prompts = append(prompts, domain.ImagePrompt{
			AssetID:       spec.ID,
			Prompt:        "a widget for " + spec.ID,
			AspectRatio:   "16:9",
			GuidanceScale: 7.5,
		})
	}
	return prompts, nil
}

type fakeImageGen struct {
	mu       sync.Mutex
	failIDs  map[string]bool
	calls    []string
	inFlight int
	maxSeen  int
}

func (f *fakeImageGen) Generate(ctx context.Context, prompt domain.ImagePrompt, destPath string) (*domain.GeneratedImage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prompt.AssetID)
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.failIDs[prompt.AssetID] {
		return nil, errors.New("prediction failed: NSFW content detected")
	}
	if err := os.WriteFile(destPath, []byte("png-"+prompt.AssetID), 0o644); err != nil {
		return nil, err
	}
	return &domain.GeneratedImage{AssetID: prompt.AssetID, Filepath: destPath, CostUSD: 0.005}, nil
}

type fakeRenderer struct {
	failIDs map[string]bool
	closed  bool
}

func (f *fakeRenderer) RenderTemplate(ctx context.Context, spec domain.AssetSpec, req domain.AssetRequest, copy domain.CopyBundle, th theme.Config, destPath string) (*domain.RenderResult, error) {
	if f.failIDs[spec.ID] {
		return nil, errors.New("browser timed out")
	}
	if err := os.WriteFile(destPath, []byte("rendered-"+spec.ID), 0o644); err != nil {
		return nil, err
	}
	return &domain.RenderResult{AssetID: spec.ID, Filepath: destPath, Width: spec.Width, Height: spec.Height}, nil
}

func (f *fakeRenderer) RenderFrames(ctx context.Context, spec domain.AssetSpec, req domain.AssetRequest, copy domain.CopyBundle, th theme.Config, frameDir string, frameCount int) ([]string, error) {
	if f.failIDs[spec.ID] {
		return nil, errors.New("browser timed out")
	}
	paths := make([]string, 0, frameCount)
	for i := 0; i < frameCount; i++ {
		p := filepath.Join(frameDir, fmt.Sprintf("frame-%04d.png", i))
		if err := os.WriteFile(p, []byte("frame"), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

type fakeEncoder struct{}

func (fakeEncoder) CreateGIF(ctx context.Context, framePaths []string, outputPath string, opts encode.GIFOptions) (*domain.EncodeResult, error) {
	if err := os.WriteFile(outputPath, []byte("gif-bytes"), 0o644); err != nil {
		return nil, err
	}
	return &domain.EncodeResult{
		Filepath:        outputPath,
		SizeBytes:       int64(len("gif-bytes")),
		DurationSeconds: float64(len(framePaths)) / float64(opts.FPS),
	}, nil
}

type recordingSink struct {
	states []domain.PipelineState
}

func (s *recordingSink) Publish(state domain.PipelineState) {
	s.states = append(s.states, state)
}

func newTestPipeline(t *testing.T, cfg Config, images *fakeImageGen, renderer *fakeRenderer, copygen *fakeCopyGen) (*Pipeline, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if cfg.ImageRateDelay == 0 {
		cfg.ImageRateDelay = time.Millisecond
	}
	return New(copygen, images, renderer, fakeEncoder{}, store, cfg, nil), store
}

func validRequest() domain.AssetRequest {
	return domain.AssetRequest{
		ProductName:        "Widget Kit",
		ProductDescription: "A complete widget toolkit for developers",
		Profile:            "gumroad-product",
		Theme:              "dark",
	}
}

func TestRunMixedFailuresStillCompletes(t *testing.T) {
	images := &fakeImageGen{failIDs: map[string]bool{"twitter-banner": true}}
	renderer := &fakeRenderer{failIDs: map[string]bool{"og-image": true}}
	sink := &recordingSink{}

	p, store := newTestPipeline(t, Config{}, images, renderer, &fakeCopyGen{})
	manifest, err := p.Run(context.Background(), validRequest(), sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// gumroad-product has 10 specs; one image and one render failed.
	if len(manifest.Assets) != 8 {
		t.Fatalf("expected 8 assets, got %d", len(manifest.Assets))
	}
	final := sink.states[len(sink.states)-1]
	if final.Status != domain.StatusComplete || final.Progress != 100 {
		t.Fatalf("unexpected final state %s at %d%%", final.Status, final.Progress)
	}
	if len(final.Errors) != 2 {
		t.Fatalf("expected 2 recorded errors, got %+v", final.Errors)
	}
	for _, e := range final.Errors {
		if !e.Recoverable {
			t.Errorf("error for %s must be recoverable", e.AssetID)
		}
	}
	if final.AssetsCompleted != len(manifest.Assets) {
		t.Fatalf("assets completed %d != manifest assets %d", final.AssetsCompleted, len(manifest.Assets))
	}

	outDir := filepath.Join(store.BasePath(), "widget-kit")
	for _, name := range []string{"asset-manifest.json", "widget-kit-kit.zip", "gumroad-listing.md", "preview-gif.gif"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}
	for _, name := range []string{"twitter-banner.png", "og-image.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err == nil {
			t.Errorf("failed asset %s must not be in output", name)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, ".tmp")); !os.IsNotExist(err) {
		t.Error("temp dir must be removed")
	}
	if !renderer.closed {
		t.Error("renderer must be closed after the run")
	}
}

func TestRunCopyParseFailureAborts(t *testing.T) {
	copygen := &fakeCopyGen{copyErr: &domain.ParseError{Backend: "copywriter", Message: "copy response is not valid JSON"}}
	renderer := &fakeRenderer{}
	sink := &recordingSink{}

	p, store := newTestPipeline(t, Config{}, &fakeImageGen{}, renderer, copygen)
	_, err := p.Run(context.Background(), validRequest(), sink)

	var perr *domain.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	final := sink.states[len(sink.states)-1]
	if final.Status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %s", final.Status)
	}
	if final.CompletedAt.IsZero() {
		t.Error("failed run must set completed_at")
	}
	if _, err := os.Stat(filepath.Join(store.BasePath(), "widget-kit", "asset-manifest.json")); err == nil {
		t.Error("failed run must not write a manifest")
	}
	if !renderer.closed {
		t.Error("renderer must be closed even on failure")
	}
}

func TestRunRejectsUnknownTheme(t *testing.T) {
	p, _ := newTestPipeline(t, Config{}, &fakeImageGen{}, &fakeRenderer{}, &fakeCopyGen{})
	req := validRequest()
	req.Theme = "vaporwave"

	_, err := p.Run(context.Background(), req, nil)
	if !errors.Is(err, domain.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
}

func TestRunThumbnailOnlyEndToEnd(t *testing.T) {
	sink := &recordingSink{}
	p, store := newTestPipeline(t, Config{}, &fakeImageGen{}, &fakeRenderer{}, &fakeCopyGen{})

	req := validRequest()
	req.Profile = "thumbnail-only"
	manifest, err := p.Run(context.Background(), req, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if manifest.ProductSlug != "widget-kit" {
		t.Fatalf("unexpected slug %q", manifest.ProductSlug)
	}
	if len(manifest.Assets) != 1 || manifest.Assets[0].ID != "gumroad-thumbnail" {
		t.Fatalf("unexpected assets %+v", manifest.Assets)
	}
	if manifest.TotalCostUSD != 0.005 {
		t.Fatalf("unexpected cost %v", manifest.TotalCostUSD)
	}
	if _, err := os.Stat(filepath.Join(store.BasePath(), "widget-kit", "gumroad-thumbnail.png")); err != nil {
		t.Fatalf("thumbnail missing: %v", err)
	}
}

func TestRunProgressIsMonotone(t *testing.T) {
	sink := &recordingSink{}
	p, _ := newTestPipeline(t, Config{}, &fakeImageGen{}, &fakeRenderer{}, &fakeCopyGen{})

	if _, err := p.Run(context.Background(), validRequest(), sink); err != nil {
		t.Fatalf("Run: %v", err)
	}

	last := -1
	for _, s := range sink.states {
		if s.Progress < last {
			t.Fatalf("progress went backwards: %d after %d", s.Progress, last)
		}
		last = s.Progress
	}
	if last != 100 {
		t.Fatalf("final progress %d, want 100", last)
	}
}

func TestRunBoundedPolicyIsolatesFailures(t *testing.T) {
	images := &fakeImageGen{failIDs: map[string]bool{"linkedin-banner": true}}
	p, _ := newTestPipeline(t, Config{
		ImagePolicy:        infra.ImagePolicyBounded,
		ImageMaxConcurrent: 2,
	}, images, &fakeRenderer{}, &fakeCopyGen{})

	sink := &recordingSink{}
	manifest, err := p.Run(context.Background(), validRequest(), sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(images.calls) != 3 {
		t.Fatalf("expected all 3 image prompts attempted, got %v", images.calls)
	}
	if images.maxSeen > 2 {
		t.Fatalf("concurrency bound exceeded: %d", images.maxSeen)
	}
	if len(manifest.Assets) != 9 {
		t.Fatalf("expected 9 assets, got %d", len(manifest.Assets))
	}
	final := sink.states[len(sink.states)-1]
	if len(final.Errors) != 1 || final.Errors[0].AssetID != "linkedin-banner" {
		t.Fatalf("unexpected errors %+v", final.Errors)
	}
}

func TestFormatCopyAsset(t *testing.T) {
	copy := fullBundle()
	req := domain.AssetRequest{ProductName: "Widget Kit"}

	listing := formatCopyAsset(domain.AssetSpec{ID: "gumroad-listing", Name: "Gumroad Listing"}, copy, req)
	for _, want := range []string{"# Widget Kit Pro", "## What You Get", "- Fast", "**Get the kit**"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q", want)
		}
	}

	email := formatCopyAsset(domain.AssetSpec{ID: "email-announcement"}, copy, req)
	if !strings.HasPrefix(email, "Subject: Widget Kit is live") {
		t.Errorf("unexpected email format:\n%s", email)
	}

	captions := formatCopyAsset(domain.AssetSpec{ID: "social-captions"}, copy, req)
	for _, want := range []string{"## Twitter/X", "## LinkedIn", "## Instagram"} {
		if !strings.Contains(captions, want) {
			t.Errorf("captions missing %q", want)
		}
	}
}
