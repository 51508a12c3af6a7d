package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds the application configuration
type Config struct {
	Confidence  ConfidenceConfig  `json:"confidence"`
	Detector    DetectorConfig    `json:"detector"`
	Interpreter InterpreterConfig `json:"interpreter"`
	Gateway     GatewayConfig     `json:"gateway"`
	Server      ServerConfig      `json:"server"`
}

// ConfidenceConfig holds the tier thresholds for detection classification
type ConfidenceConfig struct {
	HighThreshold float64 `json:"high_threshold"`
	LowThreshold  float64 `json:"low_threshold"`
}

// DetectorConfig holds configuration for the object detection service
type DetectorConfig struct {
	BaseURL   string            `json:"base_url"`
	Models    map[string]string `json:"models"`
	TimeoutMS int               `json:"timeout_ms"`
}

// InterpreterConfig holds configuration for the external interpretation model
type InterpreterConfig struct {
	Backend     string  `json:"backend"` // "ollama" or "openai"
	BaseURL     string  `json:"base_url"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TimeoutMS   int     `json:"timeout_ms"`
}

// GatewayConfig holds configuration for the result storage service
type GatewayConfig struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

// ServerConfig holds configuration for the HTTP server
type ServerConfig struct {
	Addr      string `json:"addr"`
	UploadDir string `json:"upload_dir"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Confidence: ConfidenceConfig{
			HighThreshold: 0.6,
			LowThreshold:  0.4,
		},
		Detector: DetectorConfig{
			BaseURL: "http://localhost:8001",
			Models: map[string]string{
				"htp":  "htp",
				"pitr": "pitr",
			},
			TimeoutMS: 30000,
		},
		Interpreter: InterpreterConfig{
			Backend:     "ollama",
			BaseURL:     "http://localhost:11434",
			Model:       "llava",
			MaxTokens:   800,
			Temperature: 0.3,
			TimeoutMS:   120000,
		},
		Gateway: GatewayConfig{
			BaseURL:   "http://localhost:8080",
			TimeoutMS: 10000,
		},
		Server: ServerConfig{
			Addr:      ":8000",
			UploadDir: "./uploads",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyEnv()
	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides secret and endpoint settings from the environment.
// API keys never belong in the config file.
func (c *Config) ApplyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Interpreter.APIKey = key
	}
	if url := os.Getenv("DETECTOR_URL"); url != "" {
		c.Detector.BaseURL = url
	}
	if url := os.Getenv("INTERPRETER_URL"); url != "" {
		c.Interpreter.BaseURL = url
	}
	if url := os.Getenv("GATEWAY_URL"); url != "" {
		c.Gateway.BaseURL = url
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Confidence.HighThreshold < 0 || c.Confidence.HighThreshold > 1 {
		return fmt.Errorf("confidence.high_threshold must be between 0 and 1")
	}

	if c.Confidence.LowThreshold < 0 || c.Confidence.LowThreshold > 1 {
		return fmt.Errorf("confidence.low_threshold must be between 0 and 1")
	}

	if c.Confidence.LowThreshold > c.Confidence.HighThreshold {
		return fmt.Errorf("confidence.low_threshold cannot exceed confidence.high_threshold")
	}

	if c.Detector.BaseURL == "" {
		return fmt.Errorf("detector.base_url cannot be empty")
	}

	if len(c.Detector.Models) == 0 {
		return fmt.Errorf("detector.models cannot be empty")
	}

	if c.Interpreter.Backend != "ollama" && c.Interpreter.Backend != "openai" {
		return fmt.Errorf("interpreter.backend must be \"ollama\" or \"openai\"")
	}

	if c.Interpreter.Model == "" {
		return fmt.Errorf("interpreter.model cannot be empty")
	}

	if c.Interpreter.MaxTokens < 1 {
		return fmt.Errorf("interpreter.max_tokens must be positive")
	}

	if c.Interpreter.Temperature < 0 || c.Interpreter.Temperature > 2 {
		return fmt.Errorf("interpreter.temperature must be between 0 and 2")
	}

	return nil
}

// DetectorTimeout returns the detector client timeout as a duration
func (c *Config) DetectorTimeout() time.Duration {
	return time.Duration(c.Detector.TimeoutMS) * time.Millisecond
}

// InterpreterTimeout returns the interpretation request timeout as a duration
func (c *Config) InterpreterTimeout() time.Duration {
	return time.Duration(c.Interpreter.TimeoutMS) * time.Millisecond
}

// GatewayTimeout returns the result gateway timeout as a duration
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutMS) * time.Millisecond
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "drawing-analyzer", "config.json")
}
