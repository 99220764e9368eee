package render

import (
	"fmt"
	"html/template"

	"assetkit/internal/domain"
	"assetkit/internal/theme"
)

// templateNames maps asset ids to a named template. Assets without an entry
// fall back to a generic layout keyed by asset type.
var templateNames = map[string]string{
	"og-image":         "og-image",
	"instagram-square": "social-square",
	"product-card":     "product-card",
	"preview-gif":      "preview-frame",
}

func templateNameFor(spec domain.AssetSpec) string {
	if name, ok := templateNames[spec.ID]; ok {
		return name
	}
	return string(spec.Type)
}

// pageData is the context every template renders against. Color and font
// values are pre-converted to CSS types so html/template does not escape them
// inside style blocks.
type pageData struct {
	Product domain.AssetRequest
	Copy    domain.CopyBundle
	Theme   theme.Config
	Colors  cssColors
	Fonts   cssFonts
	Width   int
	Height  int

	// Frame fields are only set when rendering animation frames.
	FrameIndex int
	FrameTotal int
	Progress   float64
}

type cssColors struct {
	Primary    template.CSS
	Secondary  template.CSS
	Accent     template.CSS
	Background template.CSS
	Surface    template.CSS
	Text       template.CSS
	TextMuted  template.CSS
	Border     template.CSS
}

type cssFonts struct {
	Heading       template.CSS
	HeadingWeight template.CSS
	Body          template.CSS
	BodyWeight    template.CSS
	Mono          template.CSS
}

func newPageData(spec domain.AssetSpec, req domain.AssetRequest, copy domain.CopyBundle, th theme.Config) pageData {
	return pageData{
		Product: req,
		Copy:    copy,
		Theme:   th,
		Colors: cssColors{
			Primary:    template.CSS(th.Colors.Primary),
			Secondary:  template.CSS(th.Colors.Secondary),
			Accent:     template.CSS(th.Colors.Accent),
			Background: template.CSS(th.Colors.Background),
			Surface:    template.CSS(th.Colors.Surface),
			Text:       template.CSS(th.Colors.Text),
			TextMuted:  template.CSS(th.Colors.TextMuted),
			Border:     template.CSS(th.Colors.Border),
		},
		Fonts: cssFonts{
			Heading:       template.CSS(th.Fonts.Heading),
			HeadingWeight: template.CSS(th.Fonts.HeadingWeight),
			Body:          template.CSS(th.Fonts.Body),
			BodyWeight:    template.CSS(th.Fonts.BodyWeight),
			Mono:          template.CSS(th.Fonts.Mono),
		},
		Width:  spec.Width,
		Height: spec.Height,
	}
}

func templateSource(name string) string {
	if src, ok := namedTemplates[name]; ok {
		return src
	}
	return defaultTemplate
}

var namedTemplates = map[string]string{
	"preview-frame": previewFrameTemplate,
}

// defaultTemplate is the generic centered layout used when no dedicated
// template exists for an asset.
const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
  <style>
    @import url('https://fonts.googleapis.com/css2?family={{.Fonts.Heading}}:wght@{{.Fonts.HeadingWeight}}&family={{.Fonts.Body}}:wght@{{.Fonts.BodyWeight}}&display=swap');

    * { margin: 0; padding: 0; box-sizing: border-box; }

    body {
      width: {{.Width}}px;
      height: {{.Height}}px;
      background: {{.Colors.Background}};
      font-family: '{{.Fonts.Body}}', sans-serif;
      color: {{.Colors.Text}};
      display: flex;
      align-items: center;
      justify-content: center;
      overflow: hidden;
    }

    .container {
      padding: 60px;
      text-align: center;
      max-width: 80%;
    }

    .tagline {
      font-family: '{{.Fonts.Heading}}', sans-serif;
      font-weight: {{.Fonts.HeadingWeight}};
      font-size: 48px;
      color: {{.Colors.Primary}};
      margin-bottom: 20px;
    }

    .product-name {
      font-family: '{{.Fonts.Heading}}', sans-serif;
      font-size: 72px;
      font-weight: {{.Fonts.HeadingWeight}};
      color: {{.Colors.Text}};
      margin-bottom: 16px;
      line-height: 1.1;
    }

    .description {
      font-size: 24px;
      color: {{.Colors.TextMuted}};
      line-height: 1.5;
      max-width: 600px;
      margin: 0 auto;
    }

    .accent-bar {
      width: 80px;
      height: 4px;
      background: {{.Colors.Accent}};
      margin: 30px auto;
      border-radius: 2px;
    }

    .brand {
      font-family: '{{.Fonts.Mono}}', monospace;
      font-size: 14px;
      color: {{.Colors.TextMuted}};
      letter-spacing: 2px;
      text-transform: uppercase;
      margin-top: 40px;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="tagline">{{.Copy.Tagline}}</div>
    <h1 class="product-name">{{.Product.ProductName}}</h1>
    <div class="accent-bar"></div>
    <p class="description">{{.Copy.OGDescription}}</p>
    <div class="brand">{{.Product.Brand}}</div>
  </div>
</body>
</html>`

// previewFrameTemplate animates the accent bar and tagline across the frame
// sequence so the encoded GIF has visible motion.
const previewFrameTemplate = `<!DOCTYPE html>
<html>
<head>
  <style>
    @import url('https://fonts.googleapis.com/css2?family={{.Fonts.Heading}}:wght@{{.Fonts.HeadingWeight}}&family={{.Fonts.Body}}:wght@{{.Fonts.BodyWeight}}&display=swap');

    * { margin: 0; padding: 0; box-sizing: border-box; }

    body {
      width: {{.Width}}px;
      height: {{.Height}}px;
      background: {{.Colors.Background}};
      font-family: '{{.Fonts.Body}}', sans-serif;
      color: {{.Colors.Text}};
      display: flex;
      align-items: center;
      justify-content: center;
      overflow: hidden;
    }

    .container {
      padding: 48px;
      text-align: center;
      max-width: 85%;
    }

    .tagline {
      font-family: '{{.Fonts.Heading}}', sans-serif;
      font-weight: {{.Fonts.HeadingWeight}};
      font-size: 36px;
      color: {{.Colors.Primary}};
      margin-bottom: 18px;
      opacity: {{printf "%.3f" .Progress}};
    }

    .product-name {
      font-family: '{{.Fonts.Heading}}', sans-serif;
      font-size: 56px;
      font-weight: {{.Fonts.HeadingWeight}};
      color: {{.Colors.Text}};
      line-height: 1.1;
    }

    .accent-bar {
      width: {{accentWidth .Progress}}px;
      height: 4px;
      background: {{.Colors.Accent}};
      margin: 26px auto;
      border-radius: 2px;
    }

    .cta {
      display: inline-block;
      padding: 14px 28px;
      background: {{.Colors.Primary}};
      color: {{.Colors.Background}};
      font-family: '{{.Fonts.Heading}}', sans-serif;
      font-weight: {{.Fonts.HeadingWeight}};
      font-size: 20px;
      border-radius: 8px;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="tagline">{{.Copy.Tagline}}</div>
    <h1 class="product-name">{{.Product.ProductName}}</h1>
    <div class="accent-bar"></div>
    <div class="cta">{{.Copy.CallToAction}}</div>
  </div>
</body>
</html>`

var templateFuncs = template.FuncMap{
	"accentWidth": func(progress float64) template.CSS {
		return template.CSS(fmt.Sprintf("%.0f", 40+progress*160))
	},
}
