package domain

import "time"

// ManifestAsset describes one produced deliverable in the final manifest.
type ManifestAsset struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Type      AssetType        `json:"type"`
	Filename  string           `json:"filename"`
	Path      string           `json:"path"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Format    string           `json:"format"`
	SizeBytes int64            `json:"size_bytes"`
	Method    GenerationMethod `json:"method"`
	CostUSD   float64          `json:"cost_usd"`
}

// AssetManifest is the persisted record of everything one run produced. It is
// assembled once during packaging, written to the output directory, and
// returned to the caller. It never references an asset whose stage failed.
type AssetManifest struct {
	ProductName           string          `json:"product_name"`
	ProductSlug           string          `json:"product_slug"`
	GeneratedAt           time.Time       `json:"generated_at"`
	Profile               string          `json:"profile"`
	Theme                 string          `json:"theme"`
	Assets                []ManifestAsset `json:"assets"`
	Copy                  CopyBundle      `json:"copy"`
	TotalCostUSD          float64         `json:"total_cost_usd"`
	GenerationTimeSeconds float64         `json:"generation_time_seconds"`
}

// GeneratedImage is the normalized result of one image-model call, prior to
// being copied into the output directory.
type GeneratedImage struct {
	AssetID  string
	Filepath string
	CostUSD  float64
}

// RenderResult is the normalized result of one template render.
type RenderResult struct {
	AssetID  string
	Filepath string
	Width    int
	Height   int
}

// EncodeResult is the normalized result of one animation encode.
type EncodeResult struct {
	Filepath        string
	SizeBytes       int64
	DurationSeconds float64
}
