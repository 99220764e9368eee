package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ImagePolicySequential issues one image request at a time with a fixed delay
// between requests; ImagePolicyBounded keeps a bounded number in flight.
const (
	ImagePolicySequential = "sequential"
	ImagePolicyBounded    = "bounded"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	AnthropicAPIKey string
	AnthropicModel  string
	AnthropicURL    string
	CopyMaxTokens   int

	ReplicateAPIToken     string
	ReplicateImageModel   string
	ReplicateUpscaleModel string
	ReplicateURL          string

	GumroadAccessToken string

	GatewayWSURL   string
	AgentSessionID string
	AgentName      string

	OutputDir string

	ImagePolicy        string
	ImageRateDelay     time.Duration
	ImageMaxConcurrent int

	RenderTimeout time.Duration

	DatabaseURL string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. API keys are validated lazily by RequireKeys so the
// informational commands work without credentials.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AnthropicURL:    getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		CopyMaxTokens:   getEnvInt("COPY_MAX_TOKENS", 4096),

		ReplicateAPIToken:     os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateImageModel:   getEnv("REPLICATE_IMAGE_MODEL", "black-forest-labs/flux-1.1-pro"),
		ReplicateUpscaleModel: getEnv("REPLICATE_UPSCALE_MODEL", "nightmareai/real-esrgan"),
		ReplicateURL:          getEnv("REPLICATE_BASE_URL", "https://api.replicate.com"),

		GumroadAccessToken: os.Getenv("GUMROAD_ACCESS_TOKEN"),

		GatewayWSURL:   getEnv("GATEWAY_WS_URL", "ws://127.0.0.1:18789"),
		AgentSessionID: getEnv("AGENT_SESSION_ID", "creative-assets"),
		AgentName:      getEnv("AGENT_NAME", "Creative Assets Agent"),

		OutputDir: getEnv("OUTPUT_DIR", "./output"),

		ImagePolicy:        getEnv("IMAGE_CONCURRENCY_MODE", ImagePolicySequential),
		ImageRateDelay:     time.Second * time.Duration(getEnvInt("IMAGE_RATE_DELAY_SECONDS", 12)),
		ImageMaxConcurrent: getEnvInt("IMAGE_MAX_CONCURRENT", 3),

		RenderTimeout: time.Second * time.Duration(getEnvInt("RENDER_TIMEOUT_SECONDS", 30)),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	switch cfg.ImagePolicy {
	case ImagePolicySequential, ImagePolicyBounded:
	default:
		return nil, fmt.Errorf("IMAGE_CONCURRENCY_MODE must be %q or %q, got %q",
			ImagePolicySequential, ImagePolicyBounded, cfg.ImagePolicy)
	}

	return cfg, nil
}

// RequireKeys fails fast when the credentials a generation run depends on are
// missing. Called by the transports before constructing a pipeline.
func (c *Config) RequireKeys() error {
	var missing []string
	if c.AnthropicAPIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if c.ReplicateAPIToken == "" {
		missing = append(missing, "REPLICATE_API_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
