package domain

// AssetType categorizes a deliverable by its marketing purpose.
type AssetType string

const (
	AssetTypeThumbnail   AssetType = "thumbnail"
	AssetTypeBanner      AssetType = "banner"
	AssetTypeOGImage     AssetType = "og-image"
	AssetTypePreviewGIF  AssetType = "preview-gif"
	AssetTypeProductCard AssetType = "product-card"
	AssetTypeSocialPost  AssetType = "social-post"
	AssetTypeHeroImage   AssetType = "hero-image"
	AssetTypeIcon        AssetType = "icon"
	AssetTypeCopy        AssetType = "copy"
	AssetTypeEmail       AssetType = "email"
)

// GenerationMethod is the closed set of ways an asset can be produced. Each
// method maps to exactly one pipeline stage.
type GenerationMethod string

const (
	// MethodImageModel sends a generated prompt to the external image model.
	MethodImageModel GenerationMethod = "image-model"
	// MethodTemplate renders an HTML template to a raster in the headless browser.
	MethodTemplate GenerationMethod = "template"
	// MethodFrameEncode renders a frame sequence and stitches it into an animation.
	MethodFrameEncode GenerationMethod = "frame-encode"
	// MethodCopy formats generated marketing copy into a text document.
	MethodCopy GenerationMethod = "copy"
)

// AssetSpec is the immutable description of one deliverable. Specs are defined
// once in the catalog and never mutated.
type AssetSpec struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Type        AssetType        `json:"type"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Format      string           `json:"format"`
	Method      GenerationMethod `json:"method"`
	Required    bool             `json:"required"`
	Description string           `json:"description"`
}
