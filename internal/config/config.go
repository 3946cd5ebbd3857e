package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Graph    GraphConfig    `yaml:"graph" envconfig:"GRAPH"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
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
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// GraphConfig contains Microsoft Graph upstream configuration.
// TenantID, ClientID and ClientSecret drive the client-credentials flow;
// leaving them empty disables the SharePoint endpoints (uploads still work).
type GraphConfig struct {
	TenantID       string        `yaml:"tenant_id" envconfig:"TENANT_ID"`
	ClientID       string        `yaml:"client_id" envconfig:"CLIENT_ID"`
	ClientSecret   string        `yaml:"client_secret" envconfig:"CLIENT_SECRET"`
	BaseURL        string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://graph.microsoft.com/v1.0"`
	AuthHost       string        `yaml:"auth_host" envconfig:"AUTH_HOST" default:"https://login.microsoftonline.com"`
	Scope          string        `yaml:"scope" envconfig:"SCOPE" default:"https://graph.microsoft.com/.default"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	DefaultSiteID  string        `yaml:"default_site_id" envconfig:"DEFAULT_SITE_ID"`
	DefaultDriveID string        `yaml:"default_drive_id" envconfig:"DEFAULT_DRIVE_ID"`
	// AllowedSiteIDs restricts which sites may be read. Empty means all.
	AllowedSiteIDs []string `yaml:"allowed_site_ids" envconfig:"ALLOWED_SITE_IDS"`
}

// AuthURL returns the OAuth2 token endpoint for the configured tenant.
func (g GraphConfig) AuthURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", g.AuthHost, g.TenantID)
}

// Configured reports whether the client-credentials flow can run.
func (g GraphConfig) Configured() bool {
	return g.TenantID != "" && g.ClientID != "" && g.ClientSecret != ""
}

// AnalysisConfig contains tuning knobs for the analysis core
type AnalysisConfig struct {
	SampleSize     int   `yaml:"sample_size" envconfig:"SAMPLE_SIZE" default:"10"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"20971520"`
}

// Load loads configuration from .env, environment variables and an optional
// config file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	// Best-effort .env for local development; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SHEETSENSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := findConfigFile(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
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

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if len(envConfig.Security.AllowedOrigins) == 0 {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Graph.TenantID == "" {
		envConfig.Graph.TenantID = fileConfig.Graph.TenantID
	}
	if envConfig.Graph.ClientID == "" {
		envConfig.Graph.ClientID = fileConfig.Graph.ClientID
	}
	if envConfig.Graph.ClientSecret == "" {
		envConfig.Graph.ClientSecret = fileConfig.Graph.ClientSecret
	}
	if envConfig.Graph.DefaultSiteID == "" {
		envConfig.Graph.DefaultSiteID = fileConfig.Graph.DefaultSiteID
	}
	if envConfig.Graph.DefaultDriveID == "" {
		envConfig.Graph.DefaultDriveID = fileConfig.Graph.DefaultDriveID
	}
	if len(envConfig.Graph.AllowedSiteIDs) == 0 {
		envConfig.Graph.AllowedSiteIDs = fileConfig.Graph.AllowedSiteIDs
	}

	return envConfig
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Analysis.SampleSize <= 0 {
		return fmt.Errorf("analysis sample size must be positive")
	}

	if c.Analysis.MaxUploadBytes <= 0 {
		return fmt.Errorf("analysis max upload bytes must be positive")
	}

	if c.Logging.Format != "json" {
		// JSON is the only supported structured format
		c.Logging.Format = "json"
	}

	return nil
}

// findConfigFile returns the path to the config file, if one exists
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			EnableCORS: true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/app.log",
		},
		Graph: GraphConfig{
			BaseURL:  "https://graph.microsoft.com/v1.0",
			AuthHost: "https://login.microsoftonline.com",
			Scope:    "https://graph.microsoft.com/.default",
			Timeout:  30 * time.Second,
		},
		Analysis: AnalysisConfig{
			SampleSize:     10,
			MaxUploadBytes: 20 << 20,
		},
	}
}
