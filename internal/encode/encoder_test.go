package encode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeRunner struct {
	name   string
	args   []string
	result commandResult
	err    error

	onRun func(args []string)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	f.name = name
	f.args = args
	if f.onRun != nil {
		f.onRun(args)
	}
	return f.result, f.err
}

func writeFrames(t *testing.T, dir string, n int) []string {
	t.Helper()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", i))
		if err := os.WriteFile(p, []byte("png"), 0o644); err != nil {
			t.Fatalf("write frame: %v", err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestBuildGIFArgs(t *testing.T) {
	args := buildGIFArgs("/tmp/frames/frame-%04d.png", "/tmp/out.gif", 800, 4, 0)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-framerate 4",
		"-i /tmp/frames/frame-%04d.png",
		"palettegen=max_colors=256:stats_mode=diff",
		"paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
		"scale=800:-1:flags=lanczos",
		"-loop 0",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("gif args missing %q in %q", want, joined)
		}
	}
	if args[len(args)-1] != "/tmp/out.gif" {
		t.Errorf("output path must be last, got %q", args[len(args)-1])
	}
}

func TestBuildMP4Args(t *testing.T) {
	args := buildMP4Args("/tmp/frames/frame-%04d.png", "/tmp/out.mp4", 1920, 4, 23)
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-c:v libx264",
		"scale=1920:-2:flags=lanczos",
		"-pix_fmt yuv420p",
		"-crf 23",
		"-preset medium",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("mp4 args missing %q in %q", want, joined)
		}
	}
}

func TestFramePattern(t *testing.T) {
	pattern, err := framePattern([]string{"/tmp/x/frame-0000.png", "/tmp/x/frame-0001.png"})
	if err != nil {
		t.Fatalf("framePattern: %v", err)
	}
	if pattern != "/tmp/x/frame-%04d.png" {
		t.Fatalf("unexpected pattern %q", pattern)
	}

	if _, err := framePattern(nil); err == nil {
		t.Fatal("expected error for empty frames")
	}
	if _, err := framePattern([]string{"/tmp/x/shot1.png"}); err == nil {
		t.Fatal("expected error for unexpected naming")
	}
}

func TestCreateGIFRunsFFmpegAndStatsOutput(t *testing.T) {
	dir := t.TempDir()
	frames := writeFrames(t, dir, 12)
	out := filepath.Join(dir, "preview.gif")

	runner := &fakeRunner{onRun: func(args []string) {
		if err := os.WriteFile(out, []byte("gif-bytes"), 0o644); err != nil {
			t.Fatalf("fake ffmpeg output: %v", err)
		}
	}}
	enc := NewEncoder(Options{FPS: 4})
	enc.runner = runner

	result, err := enc.CreateGIF(context.Background(), frames, out, GIFOptions{Width: 800})
	if err != nil {
		t.Fatalf("CreateGIF: %v", err)
	}
	if runner.name != "ffmpeg" {
		t.Fatalf("unexpected binary %q", runner.name)
	}
	if result.DurationSeconds != 3 {
		t.Fatalf("expected 12 frames at 4fps = 3s, got %v", result.DurationSeconds)
	}
	if result.SizeBytes != int64(len("gif-bytes")) {
		t.Fatalf("unexpected size %d", result.SizeBytes)
	}
}

func TestCreateGIFSurfacesFFmpegStderr(t *testing.T) {
	dir := t.TempDir()
	frames := writeFrames(t, dir, 2)

	enc := NewEncoder(Options{})
	enc.runner = &fakeRunner{
		result: commandResult{Stderr: "unknown encoder 'gif'", ExitCode: 1},
		err:    context.DeadlineExceeded,
	}

	_, err := enc.CreateGIF(context.Background(), frames, filepath.Join(dir, "o.gif"), GIFOptions{})
	if err == nil || !strings.Contains(err.Error(), "unknown encoder") {
		t.Fatalf("expected stderr detail, got %v", err)
	}
}
