package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/webp"}, cfg.Upload.AllowedMIME)
	assert.Equal(t, []string{EngineYOLO, EngineHOG}, cfg.Detector.Engines)
	assert.Equal(t, 1200, cfg.Detector.MaxDimension)
	assert.Equal(t, BackendOpenRouter, cfg.Analyzer.Backend)
	assert.Equal(t, "google/gemini-3-pro-preview", cfg.Analyzer.Model)
	assert.Equal(t, 120*time.Second, cfg.AnalyzerTimeout())
	assert.Equal(t, "0.0.0.0:8000", cfg.Address())
}

func TestSaveAndLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Server.Port = 9100
	cfg.Analyzer.APIKey = "secret"
	require.NoError(t, cfg.SaveToFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, loaded.Server.Port)
	assert.Empty(t, loaded.Analyzer.APIKey)
}

func TestLoadYAMLPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "analyzer:\n  backend: ollama\n  url: http://localhost:11434\n  model: qwen2.5vl\ndetector:\n  engines: [hog]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, BackendOllama, cfg.Analyzer.Backend)
	assert.Equal(t, "qwen2.5vl", cfg.Analyzer.Model)
	assert.Equal(t, []string{EngineHOG}, cfg.Detector.Engines)
	assert.Equal(t, 120, cfg.Analyzer.TimeoutSeconds, "unset keys keep defaults")
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_MODEL", "qwen/qwen-vl-max")
	t.Setenv("ANALYZER_BACKEND", "ollama")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("YOLO_MODEL_PATH", "/models/y.onnx")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Analyzer.APIKey)
	assert.Equal(t, "qwen/qwen-vl-max", cfg.Analyzer.Model)
	assert.Equal(t, BackendOllama, cfg.Analyzer.Backend)
	assert.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	assert.Equal(t, "/models/y.onnx", cfg.Detector.ModelPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnvIgnoresBadInt(t *testing.T) {
	t.Setenv("PORT", "eighty")
	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"max bytes", func(c *Config) { c.Upload.MaxBytes = 0 }, "upload.max_bytes"},
		{"mime", func(c *Config) { c.Upload.AllowedMIME = nil }, "upload.allowed_mime"},
		{"engine", func(c *Config) { c.Detector.Engines = []string{"ssd"} }, "unknown engine"},
		{"max dimension", func(c *Config) { c.Detector.MaxDimension = 0 }, "detector.max_dimension"},
		{"conf", func(c *Config) { c.Detector.ConfThreshold = 1.5 }, "detector.conf_threshold"},
		{"iou", func(c *Config) { c.Detector.IoUThreshold = -0.1 }, "detector.iou_threshold"},
		{"backend", func(c *Config) { c.Analyzer.Backend = "bedrock" }, "analyzer.backend"},
		{"timeout", func(c *Config) { c.Analyzer.TimeoutSeconds = 0 }, "analyzer.timeout_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Contains(t, GetConfigPath(), "config.json")
}
