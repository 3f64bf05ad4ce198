package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Upload   UploadConfig   `json:"upload" yaml:"upload"`
	Detector DetectorConfig `json:"detector" yaml:"detector"`
	Analyzer AnalyzerConfig `json:"analyzer" yaml:"analyzer"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP server settings. Timeouts are in seconds.
type ServerConfig struct {
	Host            string `json:"host" yaml:"host"`
	Port            int    `json:"port" yaml:"port"`
	ReadTimeout     int    `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    int    `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout int    `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// UploadConfig holds the intake limits
type UploadConfig struct {
	MaxBytes     int64    `json:"max_bytes" yaml:"max_bytes"`
	AllowedMIME  []string `json:"allowed_mime" yaml:"allowed_mime"`
	MinImageSize int      `json:"min_image_size" yaml:"min_image_size"`
}

// DetectorConfig selects and tunes the local detection engines
type DetectorConfig struct {
	// Engines in preference order; the first that opens wins
	Engines       []string `json:"engines" yaml:"engines"`
	ModelPath     string   `json:"model_path" yaml:"model_path"`
	LibraryPath   string   `json:"library_path" yaml:"library_path"`
	PoolSize      int      `json:"pool_size" yaml:"pool_size"`
	MaxDimension  int      `json:"max_dimension" yaml:"max_dimension"`
	ConfThreshold float32  `json:"conf_threshold" yaml:"conf_threshold"`
	IoUThreshold  float32  `json:"iou_threshold" yaml:"iou_threshold"`
}

// AnalyzerConfig configures the remote multimodal backend
type AnalyzerConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	URL     string `json:"url" yaml:"url"`
	Model   string `json:"model" yaml:"model"`
	// APIKey is only read from the environment
	APIKey         string `json:"-" yaml:"-"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxDimension   int    `json:"max_dimension" yaml:"max_dimension"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// Supported analyzer backends
const (
	BackendOpenRouter = "openrouter"
	BackendOllama     = "ollama"
	BackendNone       = "none"
)

// Supported detector engines
const (
	EngineYOLO = "yolo"
	EngineHOG  = "hog"
)

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     30,
			WriteTimeout:    150,
			ShutdownTimeout: 10,
		},
		Upload: UploadConfig{
			MaxBytes:    5 << 20,
			AllowedMIME: []string{"image/jpeg", "image/png", "image/webp"},
		},
		Detector: DetectorConfig{
			Engines:       []string{EngineYOLO, EngineHOG},
			ModelPath:     "models/yolov8n.onnx",
			PoolSize:      2,
			MaxDimension:  1200,
			ConfThreshold: 0.25,
			IoUThreshold:  0.45,
		},
		Analyzer: AnalyzerConfig{
			Backend:        BackendOpenRouter,
			URL:            "https://openrouter.ai/api/v1/chat/completions",
			Model:          "google/gemini-3-pro-preview",
			TimeoutSeconds: 120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults, overlaid with filename when it is non-empty,
// then with environment overrides.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		loaded, err := LoadFromFile(filename)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON or YAML file. Keys missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration as JSON, or YAML for .yaml/.yml names
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables onto c
func (c *Config) ApplyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Upload.MaxBytes = int64(getEnvAsInt("MAX_UPLOAD_BYTES", int(c.Upload.MaxBytes)))
	c.Detector.ModelPath = getEnv("YOLO_MODEL_PATH", c.Detector.ModelPath)
	c.Detector.LibraryPath = getEnv("ONNXRUNTIME_LIB", c.Detector.LibraryPath)
	c.Analyzer.Backend = getEnv("ANALYZER_BACKEND", c.Analyzer.Backend)
	c.Analyzer.URL = getEnv("ANALYZER_URL", c.Analyzer.URL)
	c.Analyzer.Model = getEnv("OPENROUTER_MODEL", c.Analyzer.Model)
	c.Analyzer.APIKey = getEnv("OPENROUTER_API_KEY", c.Analyzer.APIKey)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}

	if len(c.Upload.AllowedMIME) == 0 {
		return fmt.Errorf("upload.allowed_mime cannot be empty")
	}

	for _, e := range c.Detector.Engines {
		if e != EngineYOLO && e != EngineHOG {
			return fmt.Errorf("detector.engines: unknown engine %q", e)
		}
	}

	if c.Detector.MaxDimension < 1 {
		return fmt.Errorf("detector.max_dimension must be positive")
	}

	if c.Detector.ConfThreshold < 0 || c.Detector.ConfThreshold > 1 {
		return fmt.Errorf("detector.conf_threshold must be between 0 and 1")
	}

	if c.Detector.IoUThreshold < 0 || c.Detector.IoUThreshold > 1 {
		return fmt.Errorf("detector.iou_threshold must be between 0 and 1")
	}

	switch c.Analyzer.Backend {
	case BackendOpenRouter, BackendOllama, BackendNone:
	default:
		return fmt.Errorf("analyzer.backend must be %s, %s or %s", BackendOpenRouter, BackendOllama, BackendNone)
	}

	if c.Analyzer.TimeoutSeconds < 1 {
		return fmt.Errorf("analyzer.timeout_seconds must be positive")
	}

	return nil
}

// AnalyzerTimeout returns the remote call timeout
func (c *Config) AnalyzerTimeout() time.Duration {
	return time.Duration(c.Analyzer.TimeoutSeconds) * time.Second
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "photo-verifier", "config.json")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
