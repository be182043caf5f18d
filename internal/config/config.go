package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/emend/internal/engine"
	"github.com/roach88/emend/internal/oracle"
)

// Oracle backends.
const (
	BackendOpenAI = "openai"
	BackendMock   = "mock"
)

// Config is the full emend configuration. Load starts from Default() and
// lets the file override any subset of keys; unknown keys are rejected.
type Config struct {
	// Source is the live dataset CSV (id plus a text column).
	Source string `yaml:"source" validate:"required"`
	// State is the correction snapshot CSV maintained by the engine.
	State string `yaml:"state" validate:"required"`
	// Journal is the SQLite run journal path. Empty disables journaling.
	Journal string `yaml:"journal"`

	Log     LogConfig     `yaml:"log"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Retry   RetryConfig   `yaml:"retry"`
	Harvest HarvestConfig `yaml:"harvest"`
	Watch   WatchConfig   `yaml:"watch"`
}

// LogConfig controls the optional rotating log file. Console logging on
// stderr is always on and is configured by the CLI flags, not here.
type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// OracleConfig selects and tunes the correction backend.
type OracleConfig struct {
	Backend string `yaml:"backend" validate:"oneof=openai mock"`
	// BaseURL points the openai backend at an OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	Model   string `yaml:"model" validate:"required"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv   string   `yaml:"api_key_env" validate:"required"`
	Temperature float32  `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     Duration `yaml:"timeout" validate:"gte=0"`
}

// RetryConfig bounds the correction phase of a run.
type RetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts" validate:"gte=1"`
	BatchSize   int      `yaml:"batch_size" validate:"gte=1"`
	Cooldown    Duration `yaml:"cooldown" validate:"gte=0"`
}

// HarvestConfig drives the harvest and offers commands.
type HarvestConfig struct {
	// ListingURL is the announcements page holding the listing table.
	ListingURL string `yaml:"listing_url" validate:"omitempty,url"`
	// OffersURL is the page backing the per-date offerings endpoint.
	OffersURL string `yaml:"offers_url" validate:"omitempty,url"`
	UserAgent string `yaml:"user_agent"`
	// EventTarget and EventArgument identify the portal's direct event that
	// refreshes the offerings grid.
	EventTarget   string   `yaml:"event_target"`
	EventArgument string   `yaml:"event_argument"`
	Days          int      `yaml:"days" validate:"gte=1,lte=60"`
	RatePerSec    float64  `yaml:"rate_per_sec" validate:"gt=0"`
	Timeout       Duration `yaml:"timeout" validate:"gte=0"`
	ListingsOut   string   `yaml:"listings_out" validate:"required"`
	OffersOut     string   `yaml:"offers_out" validate:"required"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	// Debounce is how long the source file must stay quiet before a run.
	Debounce Duration `yaml:"debounce" validate:"gte=0"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Source:  "data/observaciones.csv",
		State:   "data/observaciones_corregidas.csv",
		Journal: "data/runs.db",
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Oracle: OracleConfig{
			Backend:     BackendOpenAI,
			BaseURL:     oracle.DefaultBaseURL,
			Model:       "gemini-2.5-flash",
			APIKeyEnv:   "GEMINI_API_KEY",
			Temperature: 0.2,
			Timeout:     Duration(60 * time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts: engine.DefaultMaxAttempts,
			BatchSize:   engine.DefaultBatchSize,
			Cooldown:    Duration(engine.DefaultCooldown),
		},
		Harvest: HarvestConfig{
			ListingURL:    "https://servicios.abc.gob.ar/actos.publicos.digitales/",
			OffersURL:     "https://servicios.abc.gob.ar/actos.publicos.digitales/ofrecimientos.aspx",
			UserAgent:     "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
			EventTarget:   "dnn$ctr1569$OfrecimientosDePlazas$ResourceManager1",
			EventArgument: "dnn_ctr1569_OfrecimientosDePlazas_Store_Plazas|postback|refresh",
			Days:          7,
			RatePerSec:    2,
			Timeout:       Duration(30 * time.Second),
			ListingsOut:   "data/listados.csv",
			OffersOut:     "data/ofertas.ndjson",
		},
		Watch: WatchConfig{
			Debounce: Duration(2 * time.Second),
		},
	}
}

var validate = validator.New()

// Validate checks the struct tags on the whole tree.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads path over the defaults. An empty path returns Default()
// unchanged; an empty file is a no-op override.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// EngineConfig maps the retry section onto the engine's knobs.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		MaxAttempts: c.Retry.MaxAttempts,
		BatchSize:   c.Retry.BatchSize,
		Cooldown:    time.Duration(c.Retry.Cooldown),
	}
}
