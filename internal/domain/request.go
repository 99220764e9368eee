package domain

import (
	"fmt"
	"strings"
)

const minDescriptionLen = 10

// AssetRequest is the validated input for one pipeline run. It is constructed
// once by a transport shim and never mutated afterward.
type AssetRequest struct {
	ProductName        string            `json:"product_name"`
	ProductDescription string            `json:"product_description"`
	Profile            string            `json:"profile"`
	Theme              string            `json:"theme"`
	Brand              string            `json:"brand"`
	Colors             map[string]string `json:"custom_colors,omitempty"`
	Fonts              map[string]string `json:"custom_fonts,omitempty"`
	Tags               []string          `json:"tags,omitempty"`
	TargetAudience     string            `json:"target_audience,omitempty"`
	StyleReferences    []string          `json:"style_references,omitempty"`
	LogoPath           string            `json:"existing_logo_path,omitempty"`
}

// ProfileResolver reports whether a profile name is registered.
type ProfileResolver interface {
	HasProfile(name string) bool
}

// ThemeResolver reports whether a theme name is registered.
type ThemeResolver interface {
	HasTheme(name string) bool
}

// ApplyDefaults fills the profile, theme and brand fields the way the task
// schema defaults them when a caller omits them. Validation still rejects
// unknown names; defaults only cover absence, never typos.
func (r *AssetRequest) ApplyDefaults() {
	if strings.TrimSpace(r.Profile) == "" {
		r.Profile = "gumroad-product"
	}
	if strings.TrimSpace(r.Theme) == "" {
		r.Theme = "dark"
	}
	if strings.TrimSpace(r.Brand) == "" {
		r.Brand = "buildkit"
	}
}

// Validate checks the request against the registries before a run starts.
// Unknown profile or theme names hard-fail here; the orchestrator never
// substitutes a default silently.
func (r AssetRequest) Validate(profiles ProfileResolver, themes ThemeResolver) error {
	if strings.TrimSpace(r.ProductName) == "" {
		return fmt.Errorf("%w: product_name is required", ErrInvalidRequest)
	}
	if len(strings.TrimSpace(r.ProductDescription)) < minDescriptionLen {
		return fmt.Errorf("%w: product_description must be at least %d characters", ErrInvalidRequest, minDescriptionLen)
	}
	if !profiles.HasProfile(r.Profile) {
		return fmt.Errorf("%w: %q", ErrUnknownProfile, r.Profile)
	}
	if !themes.HasTheme(r.Theme) {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, r.Theme)
	}
	return nil
}
