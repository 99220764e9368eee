// Package catalog is the static registry of asset specifications and the
// named profiles that bundle them. Pure data, safe for concurrent reads.
package catalog

import (
	"fmt"
	"sort"

	"assetkit/internal/domain"
)

var specs = map[string]domain.AssetSpec{
	"gumroad-thumbnail": {
		ID:          "gumroad-thumbnail",
		Name:        "Gumroad Product Thumbnail",
		Type:        domain.AssetTypeThumbnail,
		Width:       1280,
		Height:      720,
		Format:      "png",
		Method:      domain.MethodImageModel,
		Required:    true,
		Description: "Main product cover image for the Gumroad listing",
	},
	"twitter-banner": {
		ID:          "twitter-banner",
		Name:        "Twitter/X Banner",
		Type:        domain.AssetTypeBanner,
		Width:       1500,
		Height:      500,
		Format:      "png",
		Method:      domain.MethodImageModel,
		Required:    true,
		Description: "Landscape banner optimized for Twitter/X posts",
	},
	"linkedin-banner": {
		ID:          "linkedin-banner",
		Name:        "LinkedIn Banner",
		Type:        domain.AssetTypeBanner,
		Width:       1200,
		Height:      627,
		Format:      "png",
		Method:      domain.MethodImageModel,
		Required:    true,
		Description: "Landscape banner optimized for LinkedIn posts",
	},
	"instagram-square": {
		ID:          "instagram-square",
		Name:        "Instagram Square",
		Type:        domain.AssetTypeSocialPost,
		Width:       1080,
		Height:      1080,
		Format:      "png",
		Method:      domain.MethodTemplate,
		Required:    true,
		Description: "Square format post for the Instagram feed",
	},
	"og-image": {
		ID:          "og-image",
		Name:        "Open Graph Image",
		Type:        domain.AssetTypeOGImage,
		Width:       1200,
		Height:      630,
		Format:      "png",
		Method:      domain.MethodTemplate,
		Required:    true,
		Description: "Preview image for link sharing (Twitter, Slack, Discord)",
	},
	"preview-gif": {
		ID:          "preview-gif",
		Name:        "Product Preview GIF",
		Type:        domain.AssetTypePreviewGIF,
		Width:       800,
		Height:      600,
		Format:      "gif",
		Method:      domain.MethodFrameEncode,
		Required:    false,
		Description: "Animated preview showing product features",
	},
	"product-card": {
		ID:          "product-card",
		Name:        "Product Card",
		Type:        domain.AssetTypeProductCard,
		Width:       600,
		Height:      400,
		Format:      "png",
		Method:      domain.MethodTemplate,
		Required:    false,
		Description: "Styled product card for embedding in websites and docs",
	},
	"hero-image": {
		ID:          "hero-image",
		Name:        "Landing Page Hero",
		Type:        domain.AssetTypeHeroImage,
		Width:       1920,
		Height:      1080,
		Format:      "png",
		Method:      domain.MethodImageModel,
		Required:    false,
		Description: "Full-width hero image for landing pages",
	},
	"gumroad-listing": {
		ID:          "gumroad-listing",
		Name:        "Gumroad Listing Copy",
		Type:        domain.AssetTypeCopy,
		Format:      "md",
		Method:      domain.MethodCopy,
		Required:    true,
		Description: "Full Gumroad product listing: title, description, bullets",
	},
	"email-announcement": {
		ID:          "email-announcement",
		Name:        "Email Announcement",
		Type:        domain.AssetTypeEmail,
		Format:      "md",
		Method:      domain.MethodCopy,
		Required:    true,
		Description: "Product launch email draft",
	},
	"social-captions": {
		ID:          "social-captions",
		Name:        "Social Media Captions",
		Type:        domain.AssetTypeCopy,
		Format:      "md",
		Method:      domain.MethodCopy,
		Required:    true,
		Description: "Platform-specific captions for Twitter, LinkedIn, Instagram",
	},
}

var profiles = map[string][]string{
	"gumroad-product": {
		"gumroad-thumbnail",
		"twitter-banner",
		"linkedin-banner",
		"instagram-square",
		"og-image",
		"preview-gif",
		"product-card",
		"gumroad-listing",
		"email-announcement",
		"social-captions",
	},
	"social-media": {
		"twitter-banner",
		"linkedin-banner",
		"instagram-square",
		"social-captions",
	},
	"landing-page": {
		"hero-image",
		"og-image",
		"product-card",
	},
	"thumbnail-only": {
		"gumroad-thumbnail",
	},
}

// Profile resolves a profile name to its ordered asset list. Unknown names
// fail; callers must never receive a silent substitute.
func Profile(name string) ([]domain.AssetSpec, error) {
	if name == "full-kit" {
		return fullKit(), nil
	}
	ids, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProfile, name)
	}
	out := make([]domain.AssetSpec, 0, len(ids))
	for _, id := range ids {
		out = append(out, specs[id])
	}
	return out, nil
}

// fullKit is the union of every known spec, ordered by id for determinism.
func fullKit() []domain.AssetSpec {
	ids := make([]string, 0, len(specs))
	for id := range specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]domain.AssetSpec, 0, len(ids))
	for _, id := range ids {
		out = append(out, specs[id])
	}
	return out
}

// ProfileNames lists every registered profile name, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles)+1)
	for name := range profiles {
		names = append(names, name)
	}
	names = append(names, "full-kit")
	sort.Strings(names)
	return names
}

// SpecByID looks up a single asset spec.
func SpecByID(id string) (domain.AssetSpec, bool) {
	spec, ok := specs[id]
	return spec, ok
}

// Registry adapts the package tables to the domain validation interfaces.
type Registry struct{}

func (Registry) HasProfile(name string) bool {
	if name == "full-kit" {
		return true
	}
	_, ok := profiles[name]
	return ok
}
