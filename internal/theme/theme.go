// Package theme holds the named visual identities applied to every generated
// asset: colors, fonts, style toggles, and the modifier string appended to
// image-generation prompts. Pure data, safe for concurrent reads.
package theme

import (
	"fmt"
	"sort"

	"assetkit/internal/domain"
)

// ShadowIntensity is the closed set of shadow strengths templates understand.
type ShadowIntensity string

const (
	ShadowNone     ShadowIntensity = "none"
	ShadowSubtle   ShadowIntensity = "subtle"
	ShadowMedium   ShadowIntensity = "medium"
	ShadowDramatic ShadowIntensity = "dramatic"
)

// Colors is a theme's palette. Values are opaque CSS color strings consumed by
// downstream renderers; no syntax validation happens here.
type Colors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Surface    string `json:"surface"`
	Text       string `json:"text"`
	TextMuted  string `json:"text_muted"`
	Border     string `json:"border"`
}

// Fonts names the typefaces a theme uses.
type Fonts struct {
	Heading       string `json:"heading"`
	HeadingWeight string `json:"heading_weight"`
	Body          string `json:"body"`
	BodyWeight    string `json:"body_weight"`
	Mono          string `json:"mono"`
}

// Style carries the non-color visual knobs.
type Style struct {
	BorderRadius      string          `json:"border_radius"`
	ShadowIntensity   ShadowIntensity `json:"shadow_intensity"`
	GradientDirection string          `json:"gradient_direction"`
	NoiseOverlay      bool            `json:"noise_overlay"`
	GlowEffects       bool            `json:"glow_effects"`
}

// Config is one resolved visual identity.
type Config struct {
	Name            string `json:"name"`
	Colors          Colors `json:"colors"`
	Fonts           Fonts  `json:"fonts"`
	Style           Style  `json:"style"`
	PromptModifiers string `json:"image_prompt_modifiers"`
}

var themes = map[string]Config{
	"dark": {
		Name: "Dark Mode",
		Colors: Colors{
			Primary: "#6366F1", Secondary: "#8B5CF6", Accent: "#22D3EE",
			Background: "#0F0F14", Surface: "#1A1A24", Text: "#F1F5F9",
			TextMuted: "#94A3B8", Border: "#2D2D3A",
		},
		Fonts: Fonts{Heading: "JetBrains Mono", HeadingWeight: "700", Body: "DM Sans", BodyWeight: "400", Mono: "JetBrains Mono"},
		Style: Style{BorderRadius: "12px", ShadowIntensity: ShadowDramatic, GradientDirection: "135deg", NoiseOverlay: true, GlowEffects: true},
		PromptModifiers: "dark background, moody lighting, deep shadows, neon accents, professional, high contrast",
	},
	"light": {
		Name: "Clean Light",
		Colors: Colors{
			Primary: "#2563EB", Secondary: "#7C3AED", Accent: "#F59E0B",
			Background: "#FAFBFC", Surface: "#FFFFFF", Text: "#0F172A",
			TextMuted: "#64748B", Border: "#E2E8F0",
		},
		Fonts: Fonts{Heading: "Outfit", HeadingWeight: "700", Body: "Plus Jakarta Sans", BodyWeight: "400", Mono: "Fira Code"},
		Style: Style{BorderRadius: "16px", ShadowIntensity: ShadowSubtle, GradientDirection: "180deg"},
		PromptModifiers: "clean white background, bright lighting, minimal shadows, professional, airy, modern",
	},
	"terminal": {
		Name: "Terminal / Hacker",
		Colors: Colors{
			Primary: "#00FF41", Secondary: "#39FF14", Accent: "#FF6600",
			Background: "#0D0208", Surface: "#111611", Text: "#00FF41",
			TextMuted: "#008F26", Border: "#1A3A1A",
		},
		Fonts: Fonts{Heading: "Share Tech Mono", HeadingWeight: "400", Body: "IBM Plex Mono", BodyWeight: "400", Mono: "IBM Plex Mono"},
		Style: Style{BorderRadius: "0px", ShadowIntensity: ShadowNone, GradientDirection: "180deg", NoiseOverlay: true, GlowEffects: true},
		PromptModifiers: "CRT screen aesthetic, green phosphor glow, scanlines, matrix-style, retro terminal, dark background",
	},
	"gradient": {
		Name: "Vivid Gradient",
		Colors: Colors{
			Primary: "#7C3AED", Secondary: "#EC4899", Accent: "#06B6D4",
			Background: "#0F0720", Surface: "#1A1040", Text: "#F8FAFC",
			TextMuted: "#C4B5FD", Border: "#3B2870",
		},
		Fonts: Fonts{Heading: "Space Grotesk", HeadingWeight: "700", Body: "Nunito Sans", BodyWeight: "400", Mono: "JetBrains Mono"},
		Style: Style{BorderRadius: "20px", ShadowIntensity: ShadowDramatic, GradientDirection: "135deg", GlowEffects: true},
		PromptModifiers: "vibrant gradient background, purple to pink, cosmic, ethereal, futuristic, high saturation",
	},
	"minimal": {
		Name: "Minimalist",
		Colors: Colors{
			Primary: "#171717", Secondary: "#404040", Accent: "#DC2626",
			Background: "#FFFFFF", Surface: "#FAFAFA", Text: "#171717",
			TextMuted: "#737373", Border: "#E5E5E5",
		},
		Fonts: Fonts{Heading: "Instrument Serif", HeadingWeight: "400", Body: "Inter", BodyWeight: "400", Mono: "Berkeley Mono"},
		Style: Style{BorderRadius: "4px", ShadowIntensity: ShadowNone, GradientDirection: "180deg"},
		PromptModifiers: "minimal, lots of whitespace, clean typography, editorial, restrained, elegant",
	},
	"brutalist": {
		Name: "Brutalist",
		Colors: Colors{
			Primary: "#000000", Secondary: "#FF0000", Accent: "#FFFF00",
			Background: "#F5F5DC", Surface: "#FFFFFF", Text: "#000000",
			TextMuted: "#666666", Border: "#000000",
		},
		Fonts: Fonts{Heading: "Anton", HeadingWeight: "400", Body: "Courier Prime", BodyWeight: "400", Mono: "Courier Prime"},
		Style: Style{BorderRadius: "0px", ShadowIntensity: ShadowDramatic, GradientDirection: "0deg"},
		PromptModifiers: "brutalist design, raw concrete, bold typography, high contrast, punk aesthetic, unpolished",
	},
	"retro": {
		Name: "Retro 80s/90s",
		Colors: Colors{
			Primary: "#FF6B9D", Secondary: "#C44DFF", Accent: "#00F5D4",
			Background: "#1A0A2E", Surface: "#2D1B69", Text: "#FEE2F8",
			TextMuted: "#B794F6", Border: "#6B21A8",
		},
		Fonts: Fonts{Heading: "Press Start 2P", HeadingWeight: "400", Body: "VT323", BodyWeight: "400", Mono: "VT323"},
		Style: Style{BorderRadius: "0px", ShadowIntensity: ShadowDramatic, GradientDirection: "45deg", NoiseOverlay: true, GlowEffects: true},
		PromptModifiers: "synthwave, retrowave, 80s neon, chrome text, palm trees, sunset gradient, VHS aesthetic",
	},
	"neon": {
		Name: "Neon Cyberpunk",
		Colors: Colors{
			Primary: "#FF00FF", Secondary: "#00FFFF", Accent: "#FFFF00",
			Background: "#030014", Surface: "#0A0A2E", Text: "#FFFFFF",
			TextMuted: "#9D4EDD", Border: "#4A0E78",
		},
		Fonts: Fonts{Heading: "Orbitron", HeadingWeight: "700", Body: "Rajdhani", BodyWeight: "500", Mono: "Share Tech Mono"},
		Style: Style{BorderRadius: "8px", ShadowIntensity: ShadowDramatic, GradientDirection: "135deg", NoiseOverlay: true, GlowEffects: true},
		PromptModifiers: "cyberpunk, neon lights, rain-slicked streets, holographic, futuristic UI, electric glow",
	},
	"organic": {
		Name: "Organic / Natural",
		Colors: Colors{
			Primary: "#2D5016", Secondary: "#8B7355", Accent: "#D4A574",
			Background: "#F5F0E8", Surface: "#FDFBF7", Text: "#2C1810",
			TextMuted: "#6B5B4A", Border: "#D4C5B0",
		},
		Fonts: Fonts{Heading: "Playfair Display", HeadingWeight: "700", Body: "Source Serif 4", BodyWeight: "400", Mono: "Fira Code"},
		Style: Style{BorderRadius: "24px", ShadowIntensity: ShadowSubtle, GradientDirection: "180deg"},
		PromptModifiers: "natural textures, warm earth tones, botanical, handcrafted feel, paper texture, organic shapes",
	},
	"custom": {
		Name: "Custom",
		Colors: Colors{
			Primary: "#6366F1", Secondary: "#8B5CF6", Accent: "#22D3EE",
			Background: "#0F0F14", Surface: "#1A1A24", Text: "#F1F5F9",
			TextMuted: "#94A3B8", Border: "#2D2D3A",
		},
		Fonts: Fonts{Heading: "DM Sans", HeadingWeight: "700", Body: "DM Sans", BodyWeight: "400", Mono: "JetBrains Mono"},
		Style: Style{BorderRadius: "12px", ShadowIntensity: ShadowMedium, GradientDirection: "135deg"},
		PromptModifiers: "professional, modern, clean",
	},
}

// Get resolves a theme name. Unknown names fail rather than defaulting.
func Get(name string) (Config, error) {
	cfg, ok := themes[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", domain.ErrUnknownTheme, name)
	}
	return cfg, nil
}

// Names lists every registered theme name, sorted.
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge applies request-level color and font overrides on top of a base theme.
// Overrides win field by field; untouched fields keep the base value. Values
// are accepted as opaque strings.
func Merge(base Config, colors, fonts map[string]string) Config {
	out := base
	for key, value := range colors {
		switch key {
		case "primary":
			out.Colors.Primary = value
		case "secondary":
			out.Colors.Secondary = value
		case "accent":
			out.Colors.Accent = value
		case "background":
			out.Colors.Background = value
		case "surface":
			out.Colors.Surface = value
		case "text":
			out.Colors.Text = value
		case "text_muted":
			out.Colors.TextMuted = value
		case "border":
			out.Colors.Border = value
		}
	}
	for key, value := range fonts {
		switch key {
		case "heading":
			out.Fonts.Heading = value
		case "heading_weight":
			out.Fonts.HeadingWeight = value
		case "body":
			out.Fonts.Body = value
		case "body_weight":
			out.Fonts.BodyWeight = value
		case "mono":
			out.Fonts.Mono = value
		}
	}
	return out
}

// Registry adapts the package table to the domain validation interface.
type Registry struct{}

func (Registry) HasTheme(name string) bool {
	_, ok := themes[name]
	return ok
}
