package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// VeoConfig selects and parameterizes the video generation backend.
// Either api_key (Gemini API) or project+location (Vertex) must be set,
// unless use_mocks serves synthetic operations.
type VeoConfig struct {
	APIKey        string `yaml:"api_key"`
	Project       string `yaml:"project"`
	Location      string `yaml:"location"`
	Model         string `yaml:"model"`
	OutputGCSURI  string `yaml:"output_gcs_uri"`
	SampleCount   int    `yaml:"sample_count"`
	UseMocks      bool   `yaml:"use_mocks"`
	MockPollsDone int    `yaml:"mock_polls_done"` // mock completes after N polls
}

type StorageConfig struct {
	Bucket        string        `yaml:"bucket"`
	SignedURLTTL  time.Duration `yaml:"signed_url_ttl"`
	UploadTimeout time.Duration `yaml:"upload_timeout"`
}

// TrackerConfig drives the poll session: cadence of status fetches and the
// overall budget per submission. Both are injectable so tests can run on
// compressed timeframes. Prefer a timeout that is not an exact multiple of
// the interval; on a tie the timeout wins.
type TrackerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

type PromptConfig struct {
	Provider  string `yaml:"provider"` // gemini|openai|none
	OpenAIKey string `yaml:"openai_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TTL       time.Duration `yaml:"ttl"`
}

type RetentionConfig struct {
	Interval time.Duration `yaml:"interval"`
	MaxAge   time.Duration `yaml:"max_age"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Veo       VeoConfig       `yaml:"veo"`
	Storage   StorageConfig   `yaml:"storage"`
	Tracker   TrackerConfig   `yaml:"tracker"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Auth      AuthConfig      `yaml:"auth"`
	Retention RetentionConfig `yaml:"retention"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// env overrides for secrets
	if v := os.Getenv("VEO_API_KEY"); v != "" {
		cfg.Veo.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Prompt.OpenAIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Veo.Model == "" {
		cfg.Veo.Model = "veo-2.0-generate-001"
	}
	if cfg.Veo.SampleCount <= 0 || cfg.Veo.SampleCount > 4 {
		cfg.Veo.SampleCount = 4
	}
	if cfg.Veo.MockPollsDone <= 0 {
		cfg.Veo.MockPollsDone = 3
	}
	if cfg.Tracker.PollInterval <= 0 {
		cfg.Tracker.PollInterval = 5 * time.Second
	}
	if cfg.Tracker.Timeout <= 0 {
		cfg.Tracker.Timeout = time.Minute
	}
	if cfg.Storage.SignedURLTTL <= 0 {
		cfg.Storage.SignedURLTTL = 15 * time.Minute
	}
	if cfg.Storage.UploadTimeout <= 0 {
		cfg.Storage.UploadTimeout = 30 * time.Second
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Auth.TTL <= 0 {
		cfg.Auth.TTL = 30 * time.Minute
	}
	if cfg.Retention.Interval <= 0 {
		cfg.Retention.Interval = time.Hour
	}
	if cfg.Prompt.Provider == "" {
		cfg.Prompt.Provider = "none"
	}
	if cfg.Prompt.Model == "" {
		switch cfg.Prompt.Provider {
		case "openai":
			cfg.Prompt.Model = "gpt-4o-mini"
		default:
			cfg.Prompt.Model = "gemini-2.0-flash"
		}
	}
	if cfg.Prompt.MaxTokens <= 0 {
		cfg.Prompt.MaxTokens = 2048
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Storage.Bucket == "" {
		return nil, errors.New("storage.bucket is required")
	}
	if !cfg.Veo.UseMocks && cfg.Veo.APIKey == "" && cfg.Veo.Project == "" {
		return nil, errors.New("veo: set api_key or project (or enable use_mocks)")
	}
	if cfg.Auth.JWTSecret == "" && !dev {
		return nil, errors.New("auth.jwt_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
