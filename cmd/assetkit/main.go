package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"assetkit/internal/catalog"
	"assetkit/internal/domain"
	"assetkit/internal/infra"
	"assetkit/internal/pipeline"
	"assetkit/internal/publish"
	"assetkit/internal/theme"
	"assetkit/internal/wiring"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	switch os.Args[1] {
	case "generate":
		if err := runGenerate(cfg, logger, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "publish":
		if err := runPublish(cfg, logger, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "list-themes":
		for _, name := range theme.Names() {
			fmt.Println(name)
		}
	case "list-profiles":
		for _, name := range catalog.ProfileNames() {
			fmt.Println(name)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: assetkit <command> [flags]

commands:
  generate        run the asset generation pipeline for one product
  publish         push a generated kit to a Gumroad listing
  list-themes     print the available visual themes
  list-profiles   print the available asset profiles`)
}

func runGenerate(cfg *infra.Config, logger infra.Logger, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	name := fs.String("name", "", "product name (required)")
	description := fs.String("description", "", "product description (required)")
	profile := fs.String("profile", "", "asset profile (default gumroad-product)")
	themeName := fs.String("theme", "", "visual theme (default dark)")
	brand := fs.String("brand", "", "brand voice (default buildkit)")
	tags := fs.String("tags", "", "comma-separated tags")
	audience := fs.String("audience", "", "target audience")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := cfg.RequireKeys(); err != nil {
		return err
	}

	request := domain.AssetRequest{
		ProductName:        *name,
		ProductDescription: *description,
		Profile:            *profile,
		Theme:              *themeName,
		Brand:              *brand,
		TargetAudience:     *audience,
	}
	if *tags != "" {
		for _, tag := range strings.Split(*tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				request.Tags = append(request.Tags, tag)
			}
		}
	}

	p, err := wiring.BuildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink := pipeline.SinkFunc(func(state domain.PipelineState) {
		fmt.Printf("[%3d%%] %-20s %s\n", state.Progress, state.Status, state.CurrentStep)
	})

	manifest, err := p.Run(ctx, request, sink)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Generated %d assets for %q\n", len(manifest.Assets), manifest.ProductName)
	for _, asset := range manifest.Assets {
		fmt.Printf("  %-24s %8s  %s\n", asset.ID, humanSize(asset.SizeBytes), asset.Filename)
	}
	fmt.Printf("\nTotal cost: $%.3f  Time: %.1fs  Output: %s\n",
		manifest.TotalCostUSD, manifest.GenerationTimeSeconds,
		cfg.OutputDir+"/"+manifest.ProductSlug)
	return nil
}

func runPublish(cfg *infra.Config, logger infra.Logger, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	product := fs.String("product", "", "Gumroad product id (required)")
	slug := fs.String("slug", "", "generated kit slug under the output directory (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *product == "" || *slug == "" {
		return errors.New("publish requires -product and -slug")
	}
	if cfg.GumroadAccessToken == "" {
		return errors.New("GUMROAD_ACCESS_TOKEN is required")
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, *slug, "asset-manifest.json"))
	if err != nil {
		return fmt.Errorf("read kit manifest: %w", err)
	}
	var manifest domain.AssetManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse kit manifest: %w", err)
	}

	client, err := publish.New(publish.Options{
		AccessToken: cfg.GumroadAccessToken,
		Logger:      &logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.PublishAssets(ctx, *product, manifest); err != nil {
		return err
	}
	fmt.Printf("Published %q to product %s\n", manifest.ProductName, *product)
	return nil
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.0fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
