package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"assetkit/internal/domain"
	"assetkit/internal/infra"
	"assetkit/internal/theme"
)

const templateCacheSize = 16

// Options controls how the headless renderer is configured.
type Options struct {
	Timeout time.Duration
	Logger  *infra.Logger
}

// Renderer turns HTML templates into PNG screenshots through a headless
// browser. The browser launches lazily on first use; every run constructs a
// fresh Renderer and closes it when the run finishes.
type Renderer struct {
	timeout time.Duration
	logger  zerolog.Logger

	mu          sync.Mutex
	browserCtx  context.Context
	cancelFns   []context.CancelFunc
	templates   *lru.Cache[string, *template.Template]
	initialized bool
}

func NewRenderer(opts Options) (*Renderer, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cache, err := lru.New[string, *template.Template](templateCacheSize)
	if err != nil {
		return nil, fmt.Errorf("render: template cache: %w", err)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Renderer{
		timeout:   timeout,
		logger:    logger,
		templates: cache,
	}, nil
}

func (r *Renderer) browser(ctx context.Context) (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		if r.browserCtx == nil {
			return nil, errors.New("render: renderer is closed")
		}
		return r.browserCtx, nil
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("render: launch browser: %w", err)
	}

	r.browserCtx = browserCtx
	r.cancelFns = []context.CancelFunc{cancelBrowser, cancelAlloc}
	r.initialized = true
	r.logger.Info().Msg("headless browser initialized")
	return browserCtx, nil
}

// RenderTemplate renders the template for one asset and writes a PNG sized to
// the asset's dimensions.
func (r *Renderer) RenderTemplate(ctx context.Context, spec domain.AssetSpec, req domain.AssetRequest, copy domain.CopyBundle, th theme.Config, destPath string) (*domain.RenderResult, error) {
	html, err := r.compile(spec, newPageData(spec, req, copy, th))
	if err != nil {
		return nil, err
	}

	shot, err := r.screenshot(ctx, spec.Width, spec.Height, html)
	if err != nil {
		return nil, fmt.Errorf("render: screenshot %s: %w", spec.ID, err)
	}
	if err := os.WriteFile(destPath, shot, 0o644); err != nil {
		return nil, fmt.Errorf("render: write %s: %w", spec.ID, err)
	}

	r.logger.Info().Str("asset_id", spec.ID).Str("path", destPath).Msg("rendered template")
	return &domain.RenderResult{
		AssetID:  spec.ID,
		Filepath: destPath,
		Width:    spec.Width,
		Height:   spec.Height,
	}, nil
}

// RenderFrames renders the animation frame sequence for one asset into
// frameDir, returning the frame paths in order. Frame filenames follow the
// frame-%04d.png pattern the encoder consumes.
func (r *Renderer) RenderFrames(ctx context.Context, spec domain.AssetSpec, req domain.AssetRequest, copy domain.CopyBundle, th theme.Config, frameDir string, frameCount int) ([]string, error) {
	if frameCount < 2 {
		return nil, fmt.Errorf("render: frame count must be at least 2, got %d", frameCount)
	}

	paths := make([]string, 0, frameCount)
	for i := 0; i < frameCount; i++ {
		data := newPageData(spec, req, copy, th)
		data.FrameIndex = i
		data.FrameTotal = frameCount
		data.Progress = float64(i) / float64(frameCount-1)

		html, err := r.compile(spec, data)
		if err != nil {
			return nil, err
		}
		shot, err := r.screenshot(ctx, spec.Width, spec.Height, html)
		if err != nil {
			return nil, fmt.Errorf("render: frame %d of %s: %w", i, spec.ID, err)
		}

		framePath := filepath.Join(frameDir, fmt.Sprintf("frame-%04d.png", i))
		if err := os.WriteFile(framePath, shot, 0o644); err != nil {
			return nil, fmt.Errorf("render: write frame %d: %w", i, err)
		}
		paths = append(paths, framePath)
	}

	r.logger.Info().Str("asset_id", spec.ID).Int("frames", frameCount).Msg("rendered frames")
	return paths, nil
}

func (r *Renderer) compile(spec domain.AssetSpec, data pageData) (string, error) {
	name := templateNameFor(spec)
	tmpl, ok := r.templates.Get(name)
	if !ok {
		var err error
		tmpl, err = template.New(name).Funcs(templateFuncs).Parse(templateSource(name))
		if err != nil {
			return "", fmt.Errorf("render: parse template %s: %w", name, err)
		}
		r.templates.Add(name, tmpl)
	}

	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, data); err != nil {
		return "", fmt.Errorf("render: execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) screenshot(ctx context.Context, width, height int, html string) ([]byte, error) {
	browserCtx, err := r.browser(ctx)
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-tabCtx.Done():
		}
	}()

	var shot []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.Evaluate("document.fonts.ready.then(() => true)", nil,
			func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.CaptureScreenshot(&shot),
	)
	if err != nil {
		return nil, err
	}
	return shot, nil
}

// Close shuts down the browser. The renderer cannot be reused afterwards.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browserCtx == nil {
		r.initialized = true
		return nil
	}
	for _, cancel := range r.cancelFns {
		cancel()
	}
	r.browserCtx = nil
	r.cancelFns = nil
	r.logger.Info().Msg("headless browser closed")
	return nil
}
