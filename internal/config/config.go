package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Risk       RiskConfig       `yaml:"risk" envconfig:"RISK"`
	Cache      CacheConfig      `yaml:"cache" envconfig:"CACHE"`
	Breaker    BreakerConfig    `yaml:"breaker" envconfig:"BREAKER"`
	Signals    SignalsConfig    `yaml:"signals" envconfig:"SIGNALS"`
	Store      StoreConfig      `yaml:"store" envconfig:"STORE"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"10s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/riskpulse.log"`
}

// RiskConfig tunes the uncertainty engine
type RiskConfig struct {
	Likelihood         float64       `yaml:"likelihood" envconfig:"LIKELIHOOD" default:"0.8"`
	PredictionHorizon  time.Duration `yaml:"prediction_horizon" envconfig:"PREDICTION_HORIZON" default:"24h"`
	PredictionInterval time.Duration `yaml:"prediction_interval" envconfig:"PREDICTION_INTERVAL" default:"6h"`
	PlaybookPath       string        `yaml:"playbook_path" envconfig:"PLAYBOOK_PATH"`
	NeutralFallback    bool          `yaml:"neutral_fallback" envconfig:"NEUTRAL_FALLBACK" default:"false"`
}

// CacheConfig holds the per-state TTL table for cached assessments
type CacheConfig struct {
	TTLDeterministic time.Duration `yaml:"ttl_deterministic" envconfig:"TTL_DETERMINISTIC" default:"3600s"`
	TTLProbabilistic time.Duration `yaml:"ttl_probabilistic" envconfig:"TTL_PROBABILISTIC" default:"1800s"`
	TTLQuantum       time.Duration `yaml:"ttl_quantum" envconfig:"TTL_QUANTUM" default:"900s"`
	TTLChaotic       time.Duration `yaml:"ttl_chaotic" envconfig:"TTL_CHAOTIC" default:"300s"`
	TTLVoid          time.Duration `yaml:"ttl_void" envconfig:"TTL_VOID" default:"60s"`
}

// BreakerConfig tunes the circuit breaker around status computation
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" envconfig:"FAILURE_THRESHOLD" default:"5"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout" envconfig:"RECOVERY_TIMEOUT" default:"30s"`
}

// SignalsConfig points at the signal source
type SignalsConfig struct {
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"data/signals.yml"`
}

// StoreConfig points at the prior database
type StoreConfig struct {
	Path string `yaml:"path" envconfig:"PATH" default:"data/priors.db"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables (prefix RISKPULSE) win over the file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("RISKPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// configFilePath returns the config file location, overridable via
// RISKPULSE_CONFIG.
func configFilePath() string {
	if p := os.Getenv("RISKPULSE_CONFIG"); p != "" {
		return p
	}
	return "riskpulse.yml"
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence,
// so only zero-valued env fields pick up the file value)
func mergeConfigs(fileCfg, envCfg Config) Config {
	if envCfg.Server.Port == 0 {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if envCfg.Server.ReadTimeout == 0 {
		envCfg.Server.ReadTimeout = fileCfg.Server.ReadTimeout
	}
	if envCfg.Server.WriteTimeout == 0 {
		envCfg.Server.WriteTimeout = fileCfg.Server.WriteTimeout
	}
	if envCfg.Logging.Level == "" {
		envCfg.Logging.Level = fileCfg.Logging.Level
	}
	if envCfg.Signals.FilePath == "" {
		envCfg.Signals.FilePath = fileCfg.Signals.FilePath
	}
	if envCfg.Store.Path == "" {
		envCfg.Store.Path = fileCfg.Store.Path
	}
	if envCfg.Risk.PlaybookPath == "" {
		envCfg.Risk.PlaybookPath = fileCfg.Risk.PlaybookPath
	}
	return envCfg
}

// validate checks configuration invariants after loading
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Risk.Likelihood <= 0 || c.Risk.Likelihood > 1 {
		return fmt.Errorf("risk likelihood must be in (0,1], got %v", c.Risk.Likelihood)
	}
	if c.Risk.PredictionInterval <= 0 || c.Risk.PredictionHorizon <= 0 {
		return fmt.Errorf("prediction horizon and interval must be positive")
	}
	if c.Risk.PredictionInterval > c.Risk.PredictionHorizon {
		return fmt.Errorf("prediction interval %v exceeds horizon %v",
			c.Risk.PredictionInterval, c.Risk.PredictionHorizon)
	}
	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("breaker failure threshold must be at least 1")
	}
	if c.Breaker.RecoveryTimeout <= 0 {
		return fmt.Errorf("breaker recovery timeout must be positive")
	}
	for name, ttl := range map[string]time.Duration{
		"deterministic": c.Cache.TTLDeterministic,
		"probabilistic": c.Cache.TTLProbabilistic,
		"quantum":       c.Cache.TTLQuantum,
		"chaotic":       c.Cache.TTLChaotic,
		"void":          c.Cache.TTLVoid,
	} {
		if ttl <= 0 {
			return fmt.Errorf("cache ttl for %s state must be positive", name)
		}
	}
	return nil
}
