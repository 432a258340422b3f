// Package config loads service configuration from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names a YAML config file to load.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml", "/etc/moodmatch/config.yaml"}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Spotify  SpotifyConfig  `koanf:"spotify"`
	LastFM   LastFMConfig   `koanf:"lastfm"`
	Embedder EmbedderConfig `koanf:"embedder"`
	Cache    CacheConfig    `koanf:"cache"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Taxonomy TaxonomyConfig `koanf:"taxonomy"`
}

type ServerConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	RequestTimeout    time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

type SpotifyConfig struct {
	ClientID          string        `koanf:"client_id" validate:"required"`
	ClientSecret      string        `koanf:"client_secret" validate:"required"`
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	TokenURL          string        `koanf:"token_url" validate:"required,url"`
	Market            string        `koanf:"market" validate:"len=2"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries        int           `koanf:"max_retries" validate:"gte=1,lte=10"`
	RetryBackoff      time.Duration `koanf:"retry_backoff" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
}

type LastFMConfig struct {
	APIKey            string        `koanf:"api_key" validate:"required"`
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries        int           `koanf:"max_retries" validate:"gte=1,lte=10"`
	RetryBackoff      time.Duration `koanf:"retry_backoff" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	MinTagCount       int           `koanf:"min_tag_count" validate:"gte=0,lte=100"`
}

type EmbedderConfig struct {
	// Driver is "ollama" (sentence embeddings) or "hash", a lexical offline
	// embedder for tests and air-gapped development.
	Driver     string        `koanf:"driver" validate:"oneof=hash ollama"`
	OllamaHost string        `koanf:"ollama_host"`
	Model      string        `koanf:"model"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
	Dimensions int           `koanf:"dimensions" validate:"gte=16"`
}

type CacheConfig struct {
	Driver     string        `koanf:"driver" validate:"oneof=none memory sqlite redis"`
	TTL        time.Duration `koanf:"ttl" validate:"gt=0"`
	SQLitePath string        `koanf:"sqlite_path"`
	RedisURL   string        `koanf:"redis_url"`
	KeyPrefix  string        `koanf:"key_prefix"`
}

type PipelineConfig struct {
	TopN                int     `koanf:"top_n" validate:"gte=1"`
	CatalogLimit        int     `koanf:"catalog_limit" validate:"gte=1,lte=1000"`
	SimilarityThreshold float64 `koanf:"similarity_threshold" validate:"gte=-1,lte=1"`
	Workers             int     `koanf:"workers" validate:"gte=1,lte=64"`
	QueueSize           int     `koanf:"queue_size" validate:"gte=1"`
}

type TaxonomyConfig struct {
	// Path to a TOML seed file. Empty uses the built-in seeds.
	Path string `koanf:"path"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			RequestTimeout:    60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Spotify: SpotifyConfig{
			BaseURL:           "https://api.spotify.com/v1",
			TokenURL:          "https://accounts.spotify.com/api/token",
			Market:            "US",
			Timeout:           15 * time.Second,
			MaxRetries:        3,
			RetryBackoff:      500 * time.Millisecond,
			RequestsPerSecond: 10,
		},
		LastFM: LastFMConfig{
			BaseURL:           "http://ws.audioscrobbler.com/2.0/",
			Timeout:           10 * time.Second,
			MaxRetries:        3,
			RetryBackoff:      500 * time.Millisecond,
			RequestsPerSecond: 5,
		},
		Embedder: EmbedderConfig{
			Driver:     "ollama",
			OllamaHost: "http://localhost:11434",
			Model:      "all-minilm",
			Timeout:    30 * time.Second,
			Dimensions: 256,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        24 * time.Hour,
			SQLitePath: "moodmatch.db",
			KeyPrefix:  "moodmatch:tags:",
		},
		Pipeline: PipelineConfig{
			TopN:                5,
			CatalogLimit:        50,
			SimilarityThreshold: 0.6,
			Workers:             8,
			QueueSize:           64,
		},
	}
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	if err := splitListFields(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps the environment variables the service accepts onto config keys.
var envMappings = map[string]string{
	"spotify_client_id":     "spotify.client_id",
	"spotify_client_secret": "spotify.client_secret",
	"spotify_base_url":      "spotify.base_url",
	"spotify_token_url":     "spotify.token_url",
	"spotify_market":        "spotify.market",
	"spotify_max_retries":   "spotify.max_retries",
	"spotify_retry_backoff": "spotify.retry_backoff",
	"lastfm_api_key":        "lastfm.api_key",
	"lastfm_base_url":       "lastfm.base_url",
	"lastfm_min_tag_count":  "lastfm.min_tag_count",
	"ollama_host":           "embedder.ollama_host",
	"embedder_driver":       "embedder.driver",
	"embedder_model":        "embedder.model",
	"cache_driver":          "cache.driver",
	"cache_ttl":             "cache.ttl",
	"sqlite_path":           "cache.sqlite_path",
	"redis_url":             "cache.redis_url",
	"taxonomy_path":         "taxonomy.path",
	"log_level":             "log.level",
	"log_format":            "log.format",
	"log_caller":            "log.caller",
	"http_addr":             "server.addr",
	"cors_origins":          "server.cors_origins",
	"top_n":                 "pipeline.top_n",
	"catalog_limit":         "pipeline.catalog_limit",
	"similarity_threshold":  "pipeline.similarity_threshold",
	"tag_workers":           "pipeline.workers",
}

// envTransformFunc maps SPOTIFY_CLIENT_ID style names through envMappings and
// MOODMATCH_SECTION__KEY names onto section.key. Anything else is ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	if rest, ok := strings.CutPrefix(key, "moodmatch_"); ok {
		return strings.ReplaceAll(rest, "__", ".")
	}
	return ""
}

func splitListFields(k *koanf.Koanf, paths ...string) error {
	for _, path := range paths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("config: set %s: %w", path, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and combinations between sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	if c.Cache.Driver == "redis" && c.Cache.RedisURL == "" {
		return errors.New("config: cache.redis_url is required for the redis cache driver")
	}
	if c.Cache.Driver == "sqlite" && c.Cache.SQLitePath == "" {
		return errors.New("config: cache.sqlite_path is required for the sqlite cache driver")
	}
	if c.Embedder.Driver == "ollama" && (c.Embedder.OllamaHost == "" || c.Embedder.Model == "") {
		return errors.New("config: embedder.ollama_host and embedder.model are required for the ollama embedder")
	}
	return nil
}
