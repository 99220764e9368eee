package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"assetkit/internal/catalog"
	"assetkit/internal/domain"
	"assetkit/internal/encode"
	"assetkit/internal/infra"
	"assetkit/internal/storage"
	"assetkit/internal/theme"
	kitzip "assetkit/pkg/zip"
)

// Estimated model cost per generated copy document.
const copyCostUSD = 0.002

const (
	defaultFrameCount = 12
	defaultGIFFPS     = 4
)

// CopyGenerator produces marketing copy and engineered image prompts.
type CopyGenerator interface {
	GenerateCopy(ctx context.Context, req domain.AssetRequest, th theme.Config) (*domain.CopyBundle, error)
	GenerateImagePrompts(ctx context.Context, req domain.AssetRequest, th theme.Config, specs []domain.AssetSpec) ([]domain.ImagePrompt, error)
}

// ImageGenerator turns one engineered prompt into a PNG on disk.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt domain.ImagePrompt, destPath string) (*domain.GeneratedImage, error)
}

// Renderer rasterizes HTML templates, either as single shots or frame
// sequences for animation.
type Renderer interface {
	RenderTemplate(ctx context.Context, spec domain.AssetSpec, req domain.AssetRequest, copy domain.CopyBundle, th theme.Config, destPath string) (*domain.RenderResult, error)
	RenderFrames(ctx context.Context, spec domain.AssetSpec, req domain.AssetRequest, copy domain.CopyBundle, th theme.Config, frameDir string, frameCount int) ([]string, error)
	Close() error
}

// Encoder stitches frame sequences into animations.
type Encoder interface {
	CreateGIF(ctx context.Context, framePaths []string, outputPath string, opts encode.GIFOptions) (*domain.EncodeResult, error)
}

// Config tunes one pipeline instance.
type Config struct {
	ImagePolicy        string
	ImageRateDelay     time.Duration
	ImageMaxConcurrent int
	FrameCount         int
	GIFFPS             int
}

// Pipeline orchestrates one asset generation run end to end. A pipeline is
// built fresh per run and must not be reused: the renderer it owns is closed
// when Run returns.
type Pipeline struct {
	copygen  CopyGenerator
	images   ImageGenerator
	renderer Renderer
	encoder  Encoder
	store    *storage.FileStore
	cfg      Config
	logger   zerolog.Logger
}

func New(copygen CopyGenerator, images ImageGenerator, renderer Renderer, encoder Encoder, store *storage.FileStore, cfg Config, logger *infra.Logger) *Pipeline {
	if cfg.ImagePolicy == "" {
		cfg.ImagePolicy = infra.ImagePolicySequential
	}
	if cfg.ImageRateDelay <= 0 {
		cfg.ImageRateDelay = 12 * time.Second
	}
	if cfg.ImageMaxConcurrent <= 0 {
		cfg.ImageMaxConcurrent = 3
	}
	if cfg.FrameCount <= 0 {
		cfg.FrameCount = defaultFrameCount
	}
	if cfg.GIFFPS <= 0 {
		cfg.GIFFPS = defaultGIFFPS
	}
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	return &Pipeline{
		copygen:  copygen,
		images:   images,
		renderer: renderer,
		encoder:  encoder,
		store:    store,
		cfg:      cfg,
		logger:   log,
	}
}

// run carries the mutable state of one execution so stages share no globals.
type run struct {
	p     *Pipeline
	sink  Sink
	state *domain.PipelineState

	slug      string
	outputDir string
	tempDir   string
	theme     theme.Config
	specs     []domain.AssetSpec
	copy      domain.CopyBundle

	manifestAssets []domain.ManifestAsset
	totalCost      float64
	startedAt      time.Time
}

// Run executes the full pipeline for one request. Recoverable per-asset
// failures are recorded on the state and skipped; copy or prompt failures
// abort the run. The returned manifest lists only assets that were produced.
func (p *Pipeline) Run(ctx context.Context, request domain.AssetRequest, sink Sink) (*domain.AssetManifest, error) {
	if sink == nil {
		sink = NopSink{}
	}
	defer p.renderer.Close()

	request.ApplyDefaults()
	if err := request.Validate(catalog.Registry{}, theme.Registry{}); err != nil {
		return nil, fmt.Errorf("pipeline: invalid request: %w", err)
	}

	baseTheme, err := theme.Get(request.Theme)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	specs, err := catalog.Profile(request.Profile)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	slug := domain.Slugify(request.ProductName)
	outputDir := filepath.Join(p.store.BasePath(), slug)
	tempDir := filepath.Join(outputDir, ".tmp")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	r := &run{
		p:    p,
		sink: sink,
		state: &domain.PipelineState{
			ID:          uuid.NewString()[:8],
			Request:     request,
			Status:      domain.StatusQueued,
			CurrentStep: "Initializing",
			AssetsTotal: len(specs),
			OutputDir:   outputDir,
			StartedAt:   time.Now(),
		},
		slug:      slug,
		outputDir: outputDir,
		tempDir:   tempDir,
		theme:     theme.Merge(baseTheme, request.Colors, request.Fonts),
		specs:     specs,
		startedAt: time.Now(),
	}
	r.publish()

	manifest, err := r.execute(ctx)
	if err != nil {
		r.fail(err)
		return nil, err
	}
	return manifest, nil
}

func (r *run) execute(ctx context.Context) (*domain.AssetManifest, error) {
	if err := r.generateCopy(ctx); err != nil {
		return nil, err
	}
	prompts, err := r.generatePrompts(ctx)
	if err != nil {
		return nil, err
	}
	r.generateImages(ctx, prompts)
	r.renderTemplates(ctx)
	r.createAnimations(ctx)
	return r.packageKit(ctx)
}

func (r *run) generateCopy(ctx context.Context) error {
	r.transition(domain.StatusGeneratingCopy, "Generating marketing copy", 5)

	bundle, err := r.p.copygen.GenerateCopy(ctx, r.state.Request, r.theme)
	if err != nil {
		return fmt.Errorf("copy generation: %w", err)
	}
	r.copy = *bundle

	for _, spec := range r.specs {
		if spec.Method != domain.MethodCopy {
			continue
		}
		content := formatCopyAsset(spec, r.copy, r.state.Request)
		path, err := r.p.store.Write(ctx, r.slug+"/"+spec.ID+".md", []byte(content))
		if err != nil {
			return fmt.Errorf("write copy asset %s: %w", spec.ID, err)
		}
		r.record(spec, path, spec.ID+".md", "md", copyCostUSD, 0, 0)
	}
	return nil
}

func (r *run) generatePrompts(ctx context.Context) ([]domain.ImagePrompt, error) {
	r.transition(domain.StatusGeneratingPrompts, "Engineering image prompts", 20)

	prompts, err := r.p.copygen.GenerateImagePrompts(ctx, r.state.Request, r.theme, r.specs)
	if err != nil {
		return nil, fmt.Errorf("image prompt generation: %w", err)
	}
	return prompts, nil
}

func (r *run) generateImages(ctx context.Context, prompts []domain.ImagePrompt) {
	r.transition(domain.StatusGeneratingImages,
		fmt.Sprintf("Generating %d images", len(prompts)), 30)
	if len(prompts) == 0 {
		return
	}

	var images []*domain.GeneratedImage
	if r.p.cfg.ImagePolicy == infra.ImagePolicyBounded {
		images = r.generateImagesBounded(ctx, prompts)
	} else {
		images = r.generateImagesSequential(ctx, prompts)
	}

	for _, img := range images {
		spec, ok := catalog.SpecByID(img.AssetID)
		if !ok {
			r.recordError("image_generation", img.AssetID,
				fmt.Sprintf("backend returned unknown asset id %q", img.AssetID))
			continue
		}
		data, err := os.ReadFile(img.Filepath)
		if err != nil {
			r.recordError("image_generation", img.AssetID, err.Error())
			continue
		}
		path, err := r.p.store.Write(ctx, r.slug+"/"+spec.ID+".png", data)
		if err != nil {
			r.recordError("image_generation", img.AssetID, err.Error())
			continue
		}
		r.record(spec, path, spec.ID+".png", "png", img.CostUSD, spec.Width, spec.Height)
	}
}

func (r *run) generateImagesSequential(ctx context.Context, prompts []domain.ImagePrompt) []*domain.GeneratedImage {
	var images []*domain.GeneratedImage
	for i, prompt := range prompts {
		img, err := r.p.images.Generate(ctx, prompt, filepath.Join(r.tempDir, prompt.AssetID+".png"))
		if err != nil {
			r.recordError("image_generation", prompt.AssetID, err.Error())
		} else {
			images = append(images, img)
		}

		// Fixed delay between requests to stay under the backend's rate limit.
		if i < len(prompts)-1 {
			select {
			case <-ctx.Done():
				return images
			case <-time.After(r.p.cfg.ImageRateDelay):
			}
		}
	}
	return images
}

func (r *run) generateImagesBounded(ctx context.Context, prompts []domain.ImagePrompt) []*domain.GeneratedImage {
	sem := make(chan struct{}, r.p.cfg.ImageMaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var images []*domain.GeneratedImage

	for _, prompt := range prompts {
		wg.Add(1)
		go func(prompt domain.ImagePrompt) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			img, err := r.p.images.Generate(ctx, prompt, filepath.Join(r.tempDir, prompt.AssetID+".png"))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.recordError("image_generation", prompt.AssetID, err.Error())
				return
			}
			images = append(images, img)
		}(prompt)
	}
	wg.Wait()
	return images
}

func (r *run) renderTemplates(ctx context.Context) {
	r.transition(domain.StatusRenderingTemplates, "Rendering HTML templates", 60)

	for _, spec := range r.specs {
		if spec.Method != domain.MethodTemplate {
			continue
		}
		destPath := filepath.Join(r.outputDir, spec.ID+".png")
		result, err := r.p.renderer.RenderTemplate(ctx, spec, r.state.Request, r.copy, r.theme, destPath)
		if err != nil {
			r.recordError("rendering", spec.ID, err.Error())
			continue
		}
		r.record(spec, result.Filepath, spec.ID+".png", "png", 0, result.Width, result.Height)
	}
}

func (r *run) createAnimations(ctx context.Context) {
	r.transition(domain.StatusCreatingAnimations, "Creating animated previews", 80)

	for _, spec := range r.specs {
		if spec.Method != domain.MethodFrameEncode {
			continue
		}
		frameDir := filepath.Join(r.tempDir, spec.ID)
		if err := os.MkdirAll(frameDir, 0o755); err != nil {
			r.recordError("animation", spec.ID, err.Error())
			continue
		}
		frames, err := r.p.renderer.RenderFrames(ctx, spec, r.state.Request, r.copy, r.theme, frameDir, r.p.cfg.FrameCount)
		if err != nil {
			r.recordError("animation", spec.ID, err.Error())
			continue
		}
		gifPath := filepath.Join(r.outputDir, spec.ID+".gif")
		result, err := r.p.encoder.CreateGIF(ctx, frames, gifPath, encode.GIFOptions{
			Width: spec.Width,
			FPS:   r.p.cfg.GIFFPS,
		})
		if err != nil {
			r.recordError("animation", spec.ID, err.Error())
			continue
		}
		asset := domain.ManifestAsset{
			ID:        spec.ID,
			Name:      spec.Name,
			Type:      spec.Type,
			Filename:  spec.ID + ".gif",
			Path:      result.Filepath,
			Width:     spec.Width,
			Height:    spec.Height,
			Format:    "gif",
			SizeBytes: result.SizeBytes,
			Method:    spec.Method,
		}
		r.manifestAssets = append(r.manifestAssets, asset)
		r.state.AssetsCompleted++
	}
}

func (r *run) packageKit(ctx context.Context) (*domain.AssetManifest, error) {
	r.transition(domain.StatusPackaging, "Packaging asset kit", 95)

	manifest := &domain.AssetManifest{
		ProductName:           r.state.Request.ProductName,
		ProductSlug:           r.slug,
		GeneratedAt:           time.Now(),
		Profile:               r.state.Request.Profile,
		Theme:                 r.state.Request.Theme,
		Assets:                r.manifestAssets,
		Copy:                  r.copy,
		TotalCostUSD:          r.totalCost,
		GenerationTimeSeconds: time.Since(r.startedAt).Seconds(),
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("packaging: encode manifest: %w", err)
	}
	manifestPath, err := r.p.store.Write(ctx, r.slug+"/asset-manifest.json", data)
	if err != nil {
		return nil, fmt.Errorf("packaging: write manifest: %w", err)
	}

	entries := make([]kitzip.Entry, 0, len(r.manifestAssets)+1)
	for _, asset := range r.manifestAssets {
		entries = append(entries, kitzip.Entry{Name: asset.Filename, SourcePath: asset.Path})
	}
	entries = append(entries, kitzip.Entry{Name: "asset-manifest.json", SourcePath: manifestPath})
	archive, err := kitzip.Archive(entries)
	if err != nil {
		return nil, fmt.Errorf("packaging: build archive: %w", err)
	}
	if _, err := r.p.store.Write(ctx, r.slug+"/"+r.slug+"-kit.zip", archive); err != nil {
		return nil, fmt.Errorf("packaging: write archive: %w", err)
	}

	r.state.Manifest = manifest
	r.state.CompletedAt = time.Now()
	r.transition(domain.StatusComplete, "All assets generated", 100)

	r.p.logger.Info().
		Str("run_id", r.state.ID).
		Int("assets", len(r.manifestAssets)).
		Int("errors", len(r.state.Errors)).
		Float64("cost_usd", r.totalCost).
		Msg("pipeline complete")
	return manifest, nil
}

func (r *run) record(spec domain.AssetSpec, path, filename, format string, cost float64, width, height int) {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	r.manifestAssets = append(r.manifestAssets, domain.ManifestAsset{
		ID:        spec.ID,
		Name:      spec.Name,
		Type:      spec.Type,
		Filename:  filename,
		Path:      path,
		Width:     width,
		Height:    height,
		Format:    format,
		SizeBytes: size,
		Method:    spec.Method,
		CostUSD:   cost,
	})
	r.totalCost += cost
	r.state.AssetsCompleted++
}

func (r *run) recordError(stage, assetID, message string) {
	r.state.Errors = append(r.state.Errors, domain.PipelineError{
		Stage:       stage,
		AssetID:     assetID,
		Message:     message,
		Recoverable: true,
		Timestamp:   time.Now(),
	})
	r.p.logger.Warn().Str("run_id", r.state.ID).Str("stage", stage).Str("asset_id", assetID).Msg(message)
}

func (r *run) transition(status domain.PipelineStatus, step string, progress int) {
	r.state.Status = status
	r.state.CurrentStep = step
	if progress > r.state.Progress {
		r.state.Progress = progress
	}
	r.p.logger.Info().Str("run_id", r.state.ID).Int("progress", r.state.Progress).Msg(step)
	r.publish()
}

func (r *run) fail(err error) {
	r.state.Status = domain.StatusFailed
	r.state.CurrentStep = "Pipeline failed: " + err.Error()
	r.state.CompletedAt = time.Now()
	r.p.logger.Error().Str("run_id", r.state.ID).Err(err).Msg("pipeline failed")
	r.publish()
}

func (r *run) publish() {
	r.sink.Publish(r.state.Snapshot())
}

// formatCopyAsset renders one copy spec as its markdown document.
func formatCopyAsset(spec domain.AssetSpec, copy domain.CopyBundle, req domain.AssetRequest) string {
	switch spec.ID {
	case "gumroad-listing":
		bullets := make([]string, 0, len(copy.BulletPoints))
		for _, bp := range copy.BulletPoints {
			bullets = append(bullets, "- "+bp)
		}
		return fmt.Sprintf("# %s\n\n%s\n\n## What You Get\n\n%s\n\n**%s**\n",
			copy.ListingTitle, copy.ListingDescription, strings.Join(bullets, "\n"), copy.CallToAction)

	case "email-announcement":
		return fmt.Sprintf("Subject: %s\n\n%s\n", copy.EmailSubject, copy.EmailBody)

	case "social-captions":
		return fmt.Sprintf("# Social Media Captions — %s\n\n## Twitter/X\n%s\n\n## LinkedIn\n%s\n\n## Instagram\n%s\n",
			req.ProductName, copy.TwitterCaption, copy.LinkedInCaption, copy.InstagramCaption)

	default:
		return fmt.Sprintf("# %s\n\nGenerated for %s\n", spec.Name, req.ProductName)
	}
}
