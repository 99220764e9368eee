package domain

import "strings"

// CopyBundle holds every piece of marketing copy produced for one product in a
// single backend call. JSON keys mirror the structure the copy backend is
// instructed to return.
type CopyBundle struct {
	ListingTitle       string   `json:"gumroad_title"`
	ListingDescription string   `json:"gumroad_description"`
	BulletPoints       []string `json:"gumroad_bullet_points"`
	EmailSubject       string   `json:"email_subject"`
	EmailBody          string   `json:"email_body"`
	TwitterCaption     string   `json:"twitter_caption"`
	LinkedInCaption    string   `json:"linkedin_caption"`
	InstagramCaption   string   `json:"instagram_caption"`
	OGTitle            string   `json:"og_title"`
	OGDescription      string   `json:"og_description"`
	Tagline            string   `json:"tagline"`
	CallToAction       string   `json:"call_to_action"`
}

// Validate enforces the exact field set the downstream stages consume.
func (c CopyBundle) Validate() error {
	missing := c.missingFields()
	if len(missing) == 0 {
		return nil
	}
	return &ParseError{
		Backend: "copywriter",
		Message: "copy bundle missing fields: " + strings.Join(missing, ", "),
	}
}

func (c CopyBundle) missingFields() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("gumroad_title", c.ListingTitle)
	check("gumroad_description", c.ListingDescription)
	check("email_subject", c.EmailSubject)
	check("email_body", c.EmailBody)
	check("twitter_caption", c.TwitterCaption)
	check("linkedin_caption", c.LinkedInCaption)
	check("instagram_caption", c.InstagramCaption)
	check("og_title", c.OGTitle)
	check("og_description", c.OGDescription)
	check("tagline", c.Tagline)
	check("call_to_action", c.CallToAction)
	if len(c.BulletPoints) == 0 {
		missing = append(missing, "gumroad_bullet_points")
	}
	return missing
}

// ImagePrompt is one engineered generation prompt for an image-model asset.
type ImagePrompt struct {
	AssetID        string  `json:"asset_id"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	AspectRatio    string  `json:"aspect_ratio"`
	GuidanceScale  float64 `json:"guidance_scale"`
}
