package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Failure policies
const (
	PolicyAbort    = "abort"
	PolicyContinue = "continue"
)

// Failure policy keys, one per step that can fail
const (
	StepAccount   = "account"
	StepDirectory = "directory"
	StepGenerate  = "generate"
	StepUpload    = "upload"
)

type Config struct {
	// External tool
	SafeBinary          string `yaml:"safe_binary"`
	PreloadAmount       string `yaml:"preload_amount"`
	PersistAsDefault    bool   `yaml:"persist_as_default"`
	ExplicitCredentials bool   `yaml:"explicit_credentials"`
	SkipAccount         bool   `yaml:"skip_account"`

	// Batch shape
	FileCount       int    `yaml:"file_count"`
	FileSize        int64  `yaml:"file_size"`
	TimestampFormat string `yaml:"timestamp_format"`

	// Layout (relative to the workspace root)
	FilesDir     string `yaml:"files_dir"`
	AddressesDir string `yaml:"addresses_dir"`
	RunsDir      string `yaml:"runs_dir"`

	// Execution
	Workers       int               `yaml:"workers"`
	UploadTimeout time.Duration     `yaml:"upload_timeout"`
	FailurePolicy map[string]string `yaml:"failure_policy"`

	// UI Settings
	ColorTheme string `yaml:"color_theme"`
	LogFormat  string `yaml:"log_format"` // text or json
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		SafeBinary:          "safe",
		PreloadAmount:       "1000000",
		PersistAsDefault:    true,
		ExplicitCredentials: false,
		SkipAccount:         false,
		FileCount:           21,
		FileSize:            1024 * 1024,
		TimestampFormat:     "15:04:05",
		FilesDir:            "files",
		AddressesDir:        "addresses",
		RunsDir:             "runs",
		Workers:             1,
		UploadTimeout:       0,
		FailurePolicy:       DefaultFailurePolicy(),
		ColorTheme:          "auto",
		LogFormat:           "text",
	}
}

// DefaultFailurePolicy aborts on setup failures and keeps going on per-item failures
func DefaultFailurePolicy() map[string]string {
	return map[string]string{
		StepAccount:   PolicyAbort,
		StepDirectory: PolicyAbort,
		StepGenerate:  PolicyContinue,
		StepUpload:    PolicyContinue,
	}
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	// Start with default config
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config (not an error)
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

// applyDefaults fills in essential values left empty by a partial config file
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.SafeBinary == "" {
		c.SafeBinary = def.SafeBinary
	}
	if c.PreloadAmount == "" {
		c.PreloadAmount = def.PreloadAmount
	}
	if c.FileCount <= 0 {
		c.FileCount = def.FileCount
	}
	if c.FileSize <= 0 {
		c.FileSize = def.FileSize
	}
	if c.TimestampFormat == "" {
		c.TimestampFormat = def.TimestampFormat
	}
	if c.FilesDir == "" {
		c.FilesDir = def.FilesDir
	}
	if c.AddressesDir == "" {
		c.AddressesDir = def.AddressesDir
	}
	if c.RunsDir == "" {
		c.RunsDir = def.RunsDir
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.UploadTimeout < 0 {
		c.UploadTimeout = 0
	}
	if c.ColorTheme == "" {
		c.ColorTheme = def.ColorTheme
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}

	if c.FailurePolicy == nil {
		c.FailurePolicy = make(map[string]string)
	}
	for step, policy := range def.FailurePolicy {
		if !isValidPolicy(c.FailurePolicy[step]) {
			c.FailurePolicy[step] = policy
		}
	}
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ShouldAbort reports whether a failure at the given step stops the whole run
func (c *Config) ShouldAbort(step string) bool {
	if policy, ok := c.FailurePolicy[step]; ok && isValidPolicy(policy) {
		return policy == PolicyAbort
	}
	return DefaultFailurePolicy()[step] == PolicyAbort
}

// isValidPolicy checks if the failure policy is known
func isValidPolicy(policy string) bool {
	return policy == PolicyAbort || policy == PolicyContinue
}
