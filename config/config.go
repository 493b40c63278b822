package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Loader    LoaderConfig
	Selectors SelectorConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL applied to the launched browser.
	Proxy string

	// Stealth toggles the stealth script injection before navigation.
	Stealth bool // default: true
}

// LoaderConfig tunes the load-more completion loop.
type LoaderConfig struct {
	// Concurrency bounds how many targets load simultaneously.
	Concurrency int // default: 4

	// TargetTimeout is the wall-clock budget for one target end to end.
	TargetTimeout time.Duration // default: 10m

	// NavTimeout is the max time for the initial navigation alone.
	NavTimeout time.Duration // default: 40s

	// FindTimeout is the budget for locating a required element.
	FindTimeout time.Duration // default: 10s

	// SettleMin/SettleMax bound the randomized pause after navigation.
	SettleMin time.Duration // default: 500ms
	SettleMax time.Duration // default: 1s

	// PollInterval is the item-count re-measurement cadence after a click.
	PollInterval time.Duration // default: 350ms

	// PollBudget is the max wait for new items after one trigger click.
	PollBudget time.Duration // default: 28s

	// StallThreshold is how many consecutive no-growth steps mean exhausted.
	StallThreshold int // default: 2

	// MaxTriggerClicks is the hard ceiling on trigger activations per target.
	MaxTriggerClicks int // default: 250

	// InterferenceEvery re-runs the overlay sweep after this many clicks.
	InterferenceEvery int // default: 7
}

// InterferencePattern describes how to locate one kind of dismissable overlay.
type InterferencePattern struct {
	// Selector matches the overlay's close control.
	Selector string

	// SearchFrames extends the search into nested visible frames.
	SearchFrames bool
}

// SelectorConfig is the opaque, site-specific selector data. These track one
// site's current markup and are expected to rot; they are configuration, not
// logic, and every one of them is overridable by env var.
type SelectorConfig struct {
	// ReviewContainer matches the paginated content container.
	ReviewContainer string

	// ReviewCard matches one item element inside the container.
	ReviewCard string

	// ShowMoreButton matches the load-more trigger control.
	ShowMoreButton string

	// LoadingSpinner matches the transient loading indicator.
	LoadingSpinner string

	// RatingHeader matches the sticky header span carrying the
	// "4.5 (1,234)" aggregate used to read the declared review total.
	RatingHeader string

	// ReviewCountText matches the "Showing X of Y Reviews" display used as
	// a fallback source for the declared review total.
	ReviewCountText string

	// Interference is the ordered overlay dismissal list.
	Interference []InterferencePattern
}

// CardFull is the combined container-scoped item selector the detector counts.
func (s SelectorConfig) CardFull() string {
	return s.ReviewContainer + " " + s.ReviewCard
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// Enabled toggles request rate limiting.
	Enabled bool // default: true

	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 500
}

// WebhookConfig controls batch completion notifications.
type WebhookConfig struct {
	// URL receives batch.completed events when non-empty.
	URL string

	// Secret signs event payloads with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("CAPTERRA_HOST", "0.0.0.0"),
			Port: envIntOr("CAPTERRA_PORT", 8080),
			Mode: envOr("CAPTERRA_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("CAPTERRA_HEADLESS", true),
			NoSandbox:  envBoolOr("CAPTERRA_NO_SANDBOX", false),
			BrowserBin: os.Getenv("CAPTERRA_BROWSER_BIN"),
			Proxy:      os.Getenv("CAPTERRA_PROXY"),
			Stealth:    envBoolOr("CAPTERRA_STEALTH", true),
		},
		Loader: LoaderConfig{
			Concurrency:       envIntOr("CAPTERRA_CONCURRENCY", 4),
			TargetTimeout:     envDurationOr("CAPTERRA_TARGET_TIMEOUT", 10*time.Minute),
			NavTimeout:        envDurationOr("CAPTERRA_NAV_TIMEOUT", 40*time.Second),
			FindTimeout:       envDurationOr("CAPTERRA_FIND_TIMEOUT", 10*time.Second),
			SettleMin:         envDurationOr("CAPTERRA_SETTLE_MIN", 500*time.Millisecond),
			SettleMax:         envDurationOr("CAPTERRA_SETTLE_MAX", time.Second),
			PollInterval:      envDurationOr("CAPTERRA_POLL_INTERVAL", 350*time.Millisecond),
			PollBudget:        envDurationOr("CAPTERRA_POLL_BUDGET", 28*time.Second),
			StallThreshold:    envIntOr("CAPTERRA_STALL_THRESHOLD", 2),
			MaxTriggerClicks:  envIntOr("CAPTERRA_MAX_CLICKS", 250),
			InterferenceEvery: envIntOr("CAPTERRA_INTERFERENCE_EVERY", 7),
		},
		Selectors: SelectorConfig{
			ReviewContainer: envOr("CAPTERRA_SEL_CONTAINER", `div[data-test-id="review-cards-container"]`),
			ReviewCard:      envOr("CAPTERRA_SEL_CARD", `div.e1xzmg0z.c1ofrhif.typo-10`),
			ShowMoreButton:  envOr("CAPTERRA_SEL_SHOW_MORE", `button[data-testid="show-more-reviews"]`),
			LoadingSpinner:  envOr("CAPTERRA_SEL_SPINNER", `svg[class*="s1xr3lbz"]`),
			RatingHeader:    envOr("CAPTERRA_SEL_RATING_HEADER", `div[class*="sticky top-0"] span[class*="sr2r3oj"]`),
			ReviewCountText: envOr("CAPTERRA_SEL_REVIEW_COUNT", `span.typo-30.font-semibold`),
			Interference: []InterferencePattern{
				{
					Selector:     envOr("CAPTERRA_SEL_OVERLAY_CLOSE", `div.sb.bkg-light.card.padding-medium i[data-modal-role="close-button"].icon-font-x`),
					SearchFrames: true,
				},
				{
					Selector: envOr("CAPTERRA_SEL_COOKIE_ACCEPT", `#onetrust-accept-btn-handler`),
				},
			},
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("CAPTERRA_AUTH_ENABLED", false),
			APIKeys: envSliceOr("CAPTERRA_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			Enabled:           envBoolOr("CAPTERRA_RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: envFloatOr("CAPTERRA_RATE_RPS", 2.0),
			Burst:             envIntOr("CAPTERRA_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("CAPTERRA_CACHE_MAX_ENTRIES", 500),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("CAPTERRA_WEBHOOK_URL"),
			Secret: os.Getenv("CAPTERRA_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("CAPTERRA_LOG_LEVEL", "info"),
			Format: envOr("CAPTERRA_LOG_FORMAT", "json"),
		},
	}
}

// Validate checks numeric ranges and compiles every configured selector so a
// typo in an env override fails at startup instead of mid-scrape.
func (c *Config) Validate() error {
	if c.Loader.Concurrency < 1 {
		return fmt.Errorf("config: concurrency must be >= 1, got %d", c.Loader.Concurrency)
	}
	if c.Loader.StallThreshold < 1 {
		return fmt.Errorf("config: stall threshold must be >= 1, got %d", c.Loader.StallThreshold)
	}
	if c.Loader.MaxTriggerClicks < 1 {
		return fmt.Errorf("config: max trigger clicks must be >= 1, got %d", c.Loader.MaxTriggerClicks)
	}
	if c.Loader.PollInterval <= 0 || c.Loader.PollBudget <= 0 {
		return fmt.Errorf("config: poll interval and budget must be positive")
	}
	if c.Loader.SettleMax < c.Loader.SettleMin {
		return fmt.Errorf("config: settle max %v is below settle min %v", c.Loader.SettleMax, c.Loader.SettleMin)
	}

	selectors := map[string]string{
		"container":    c.Selectors.ReviewContainer,
		"card":         c.Selectors.ReviewCard,
		"show_more":    c.Selectors.ShowMoreButton,
		"spinner":      c.Selectors.LoadingSpinner,
		"rating":       c.Selectors.RatingHeader,
		"review_count": c.Selectors.ReviewCountText,
	}
	for i, p := range c.Selectors.Interference {
		selectors[fmt.Sprintf("interference[%d]", i)] = p.Selector
	}
	for name, sel := range selectors {
		if sel == "" {
			return fmt.Errorf("config: selector %q is empty", name)
		}
		if _, err := cascadia.ParseGroup(sel); err != nil {
			return fmt.Errorf("config: selector %q does not parse: %w", name, err)
		}
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
