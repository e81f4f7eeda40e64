package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	API       APIConfig
	Storage   StorageConfig
	Log       LogConfig
	Hydration HydrationConfig
	Server    ServerConfig
}

type APIConfig struct {
	BaseURL string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type HydrationConfig struct {
	Concurrency int
}

type ServerConfig struct {
	Port  int
	Token string
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:3001/api",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Hydration: HydrationConfig{
			Concurrency: 4,
		},
		Server: ServerConfig{
			Port: 4100,
		},
	}
}

// Load reads configuration from a .env file in the working directory (if
// any), the user's config.json under os.UserConfigDir()/lms, and LMS_*
// environment variables, which override saved values.
func Load() (Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.BaseURL == "" {
		return Config{}, fmt.Errorf("missing required config: api.base_url. Set it via LMS_API_BASE_URL or `lms config set api.base_url <url>`")
	}
	if cfg.Hydration.Concurrency <= 0 {
		cfg.Hydration.Concurrency = 4
	}

	return cfg, nil
}
