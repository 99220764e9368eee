// Package wiring assembles a pipeline from configuration. All three binaries
// build their runs through it so the provider stack stays identical across
// the CLI, the gateway agent, and the HTTP API.
package wiring

import (
	"assetkit/internal/encode"
	"assetkit/internal/infra"
	"assetkit/internal/pipeline"
	"assetkit/internal/providers/copywriter"
	"assetkit/internal/providers/imagegen"
	"assetkit/internal/render"
	"assetkit/internal/storage"
)

// BuildPipeline constructs a fresh pipeline with all providers attached. The
// returned pipeline owns per-run resources and must not be reused after Run.
func BuildPipeline(cfg *infra.Config, logger infra.Logger) (*pipeline.Pipeline, error) {
	copygen, err := copywriter.New(copywriter.Options{
		APIKey:    cfg.AnthropicAPIKey,
		BaseURL:   cfg.AnthropicURL,
		Model:     cfg.AnthropicModel,
		MaxTokens: cfg.CopyMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	images, err := imagegen.New(imagegen.Options{
		APIToken:     cfg.ReplicateAPIToken,
		BaseURL:      cfg.ReplicateURL,
		ImageModel:   cfg.ReplicateImageModel,
		UpscaleModel: cfg.ReplicateUpscaleModel,
		Logger:       &logger,
	})
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewRenderer(render.Options{
		Timeout: cfg.RenderTimeout,
		Logger:  &logger,
	})
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	encoder := encode.NewEncoder(encode.Options{Logger: &logger})

	return pipeline.New(copygen, images, renderer, encoder, store, pipeline.Config{
		ImagePolicy:        cfg.ImagePolicy,
		ImageRateDelay:     cfg.ImageRateDelay,
		ImageMaxConcurrent: cfg.ImageMaxConcurrent,
	}, &logger), nil
}
