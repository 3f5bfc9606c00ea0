package feedsync

import "github.com/caarlos0/env/v11"

// Config carries the engine-wide settings. All of them load from the
// environment; zero values fall back to the tagged defaults.
type Config struct {
	// GatewayURL is the base URL of the feed/ad/mutation API.
	GatewayURL string `env:"FEEDSYNC_GATEWAY_URL" envDefault:"https://api.dailyfeed.dev"`
	// GatewayToken is the bearer token of the current session. Empty means
	// logged out: mutations short-circuit with an auth error.
	GatewayToken string `env:"FEEDSYNC_GATEWAY_TOKEN"`
	// RealtimeURL is the websocket push endpoint. Empty disables the
	// realtime merge layer.
	RealtimeURL string `env:"FEEDSYNC_REALTIME_URL"`

	PageSize            int `env:"FEEDSYNC_PAGE_SIZE" envDefault:"7"`
	AdSlotIndex         int `env:"FEEDSYNC_AD_SLOT_INDEX" envDefault:"2"`
	PlaceholdersPerPage int `env:"FEEDSYNC_PLACEHOLDERS_PER_PAGE" envDefault:"5"`
	// MinFirstPageEdges gates ad interleaving on first-page length; 0
	// disables the threshold.
	MinFirstPageEdges int `env:"FEEDSYNC_MIN_FIRST_PAGE_EDGES" envDefault:"0"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the built-in defaults without touching the
// environment. Useful for tests and embedding.
func DefaultConfig() Config {
	return Config{
		GatewayURL:          "https://api.dailyfeed.dev",
		PageSize:            7,
		AdSlotIndex:         2,
		PlaceholdersPerPage: 5,
	}
}
