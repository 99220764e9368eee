package encode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"assetkit/internal/domain"
	"assetkit/internal/infra"
)

const (
	defaultFPS      = 4
	defaultGIFWidth = 800
	defaultMP4Width = 1920
	defaultCRF      = 23
)

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Options controls how the frame encoder is configured.
type Options struct {
	FFmpegPath string
	FPS        int
	Quality    int
	Logger     *infra.Logger
}

// Encoder stitches rendered frame sequences into GIF and MP4 animations by
// shelling out to ffmpeg.
type Encoder struct {
	ffmpegPath string
	fps        int
	quality    int
	runner     commandRunner
	logger     zerolog.Logger
}

func NewEncoder(opts Options) *Encoder {
	path := opts.FFmpegPath
	if path == "" {
		path = "ffmpeg"
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = defaultFPS
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = defaultCRF
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Encoder{
		ffmpegPath: path,
		fps:        fps,
		quality:    quality,
		runner:     &execRunner{},
		logger:     logger,
	}
}

// GIFOptions tunes a single GIF encode. Zero values take the encoder defaults;
// Loop 0 means loop forever.
type GIFOptions struct {
	Width int
	FPS   int
	Loop  int
}

// CreateGIF encodes a numbered frame sequence into a looping GIF using a
// two-pass palette for stable colors.
func (e *Encoder) CreateGIF(ctx context.Context, framePaths []string, outputPath string, opts GIFOptions) (*domain.EncodeResult, error) {
	pattern, err := framePattern(framePaths)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = e.fps
	}
	width := opts.Width
	if width <= 0 {
		width = defaultGIFWidth
	}

	args := buildGIFArgs(pattern, outputPath, width, fps, opts.Loop)
	if err := e.runFFmpeg(ctx, args); err != nil {
		return nil, err
	}

	result, err := encodeResult(outputPath, float64(len(framePaths))/float64(fps))
	if err != nil {
		return nil, err
	}
	e.logger.Info().Str("path", outputPath).Int64("bytes", result.SizeBytes).Msg("gif created")
	return result, nil
}

// CreateMP4 encodes a numbered frame sequence into an H.264 MP4 suitable for
// social uploads.
func (e *Encoder) CreateMP4(ctx context.Context, framePaths []string, outputPath string, width int) (*domain.EncodeResult, error) {
	pattern, err := framePattern(framePaths)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if width <= 0 {
		width = defaultMP4Width
	}

	args := buildMP4Args(pattern, outputPath, width, e.fps, e.quality)
	if err := e.runFFmpeg(ctx, args); err != nil {
		return nil, err
	}

	result, err := encodeResult(outputPath, float64(len(framePaths))/float64(e.fps))
	if err != nil {
		return nil, err
	}
	e.logger.Info().Str("path", outputPath).Int64("bytes", result.SizeBytes).Msg("mp4 created")
	return result, nil
}

// OptimizeGIF re-encodes an existing GIF with a smaller palette and capped
// width.
func (e *Encoder) OptimizeGIF(ctx context.Context, inputPath, outputPath string, maxWidth int) error {
	if maxWidth <= 0 {
		maxWidth = 600
	}
	args := buildOptimizeArgs(inputPath, outputPath, maxWidth)
	if err := e.runFFmpeg(ctx, args); err != nil {
		return err
	}
	e.logger.Info().Str("path", outputPath).Msg("gif optimized")
	return nil
}

func (e *Encoder) runFFmpeg(ctx context.Context, args []string) error {
	result, err := e.runner.Run(ctx, e.ffmpegPath, args...)
	if err != nil {
		detail := strings.TrimSpace(result.Stderr)
		if detail != "" {
			if len(detail) > 400 {
				detail = detail[len(detail)-400:]
			}
			return fmt.Errorf("encode: ffmpeg exited %d: %s", result.ExitCode, detail)
		}
		return fmt.Errorf("encode: ffmpeg: %w", err)
	}
	return nil
}

func buildGIFArgs(pattern, outputPath string, width, fps, loop int) []string {
	filter := fmt.Sprintf(
		"[0:v] fps=%d,scale=%d:-1:flags=lanczos,split [a][b];[a] palettegen=max_colors=256:stats_mode=diff [p];[b][p] paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
		fps, width)
	return []string{
		"-y",
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", pattern,
		"-filter_complex", filter,
		"-loop", fmt.Sprintf("%d", loop),
		outputPath,
	}
}

func buildMP4Args(pattern, outputPath string, width, fps, crf int) []string {
	return []string{
		"-y",
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", pattern,
		"-c:v", "libx264",
		"-vf", fmt.Sprintf("scale=%d:-2:flags=lanczos", width),
		"-pix_fmt", "yuv420p",
		"-crf", fmt.Sprintf("%d", crf),
		"-preset", "medium",
		outputPath,
	}
}

func buildOptimizeArgs(inputPath, outputPath string, maxWidth int) []string {
	filter := fmt.Sprintf(
		"[0:v] scale='min(%d,iw)':-1:flags=lanczos,split [a][b];[a] palettegen=max_colors=128 [p];[b][p] paletteuse=dither=bayer:bayer_scale=3",
		maxWidth)
	return []string{
		"-y",
		"-i", inputPath,
		"-filter_complex", filter,
		outputPath,
	}
}

// framePattern converts a list of frame paths into the ffmpeg %04d input
// pattern. Frames must live in one directory and follow frame-NNNN.png naming.
func framePattern(framePaths []string) (string, error) {
	if len(framePaths) == 0 {
		return "", errors.New("no frames to encode")
	}
	dir := filepath.Dir(framePaths[0])
	base := filepath.Base(framePaths[0])
	if !strings.HasPrefix(base, "frame-") || !strings.HasSuffix(base, ".png") {
		return "", fmt.Errorf("unexpected frame name %q", base)
	}
	return filepath.Join(dir, "frame-%04d.png"), nil
}

func encodeResult(outputPath string, duration float64) (*domain.EncodeResult, error) {
	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("encode: stat output: %w", err)
	}
	return &domain.EncodeResult{
		Filepath:        outputPath,
		SizeBytes:       info.Size(),
		DurationSeconds: duration,
	}, nil
}
