// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents the service configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or
// must be provided via CLI flags.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Pipeline process
	PipelineRoot   string `json:"pipeline_root,omitempty"`   // Directory containing the pipeline script, .env and output dir
	PipelineScript string `json:"pipeline_script,omitempty"` // Script filename relative to PipelineRoot
	PythonPath     string `json:"python_path,omitempty"`     // Interpreter override; empty resolves venv/PATH
	OutputDir      string `json:"output_dir,omitempty"`      // Artifact directory relative to PipelineRoot
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"` // Pipeline process timeout

	// Assets
	CardTemplate string `json:"card_template,omitempty"` // Path to the adaptive card template
	ResultSchema string `json:"result_schema,omitempty"` // Path to the result artifact JSON Schema; empty skips validation

	// Run retention
	RetentionMinutes int `json:"retention_minutes,omitempty"` // TTL for terminal runs; negative disables eviction

	// Topic suggestions
	SuggestCommand string `json:"suggest_command,omitempty"` // CLI spawned for topic suggestions
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:             8080,
		PipelineRoot:     "..",
		PipelineScript:   "main.py",
		OutputDir:        "output",
		TimeoutSeconds:   180,
		CardTemplate:     filepath.Join("data", "adaptive_card_template.json"),
		ResultSchema:     filepath.Join("schemas", "pipeline_result.schema.json"),
		RetentionMinutes: 60,
		SuggestCommand:   "npx -y @microsoft/workiq",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be a valid TCP port")
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'timeout_seconds' must be non-negative")
	}
	if c.CardTemplate != "" {
		if _, err := os.Stat(c.CardTemplate); os.IsNotExist(err) {
			return fmt.Errorf("config error: card template not found: %s", c.CardTemplate)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults. CLI flags are applied on top by the caller.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.PipelineRoot == "" {
		result.PipelineRoot = defaults.PipelineRoot
	}
	if result.PipelineScript == "" {
		result.PipelineScript = defaults.PipelineScript
	}
	if result.PythonPath == "" {
		result.PythonPath = defaults.PythonPath
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.CardTemplate == "" {
		result.CardTemplate = defaults.CardTemplate
	}
	if result.ResultSchema == "" {
		result.ResultSchema = defaults.ResultSchema
	}
	if result.RetentionMinutes == 0 {
		result.RetentionMinutes = defaults.RetentionMinutes
	}
	if result.SuggestCommand == "" {
		result.SuggestCommand = defaults.SuggestCommand
	}

	return result
}

// ApplyEnv overlays environment variable overrides onto the config.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("PIPELINE_ROOT"); v != "" {
		c.PipelineRoot = v
	}
	if v := os.Getenv("PYTHON_PATH"); v != "" {
		c.PythonPath = v
	}
	if v := os.Getenv("SUGGEST_CMD"); v != "" {
		c.SuggestCommand = v
	}
}

// Root returns PipelineRoot as an absolute path. The child process
// chdirs into the root, so a relative root (the default "..") would
// make it resolve a relative script argument against itself twice;
// resolving here pins everything to the server's working directory.
func (c *Config) Root() string {
	abs, err := filepath.Abs(c.PipelineRoot)
	if err != nil {
		return c.PipelineRoot
	}
	return abs
}

// ScriptPath returns the absolute path of the pipeline entry script.
func (c *Config) ScriptPath() string {
	return filepath.Join(c.Root(), c.PipelineScript)
}

// EnvFile returns the path of the .env file handed to the pipeline process.
func (c *Config) EnvFile() string {
	return filepath.Join(c.Root(), ".env")
}

// ResultPath returns the path where the pipeline writes its result artifact.
func (c *Config) ResultPath() string {
	return filepath.Join(c.Root(), c.OutputDir, "pipeline_result.json")
}

// Timeout returns the pipeline process timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Retention returns the terminal-run TTL; <= 0 disables eviction.
func (c *Config) Retention() time.Duration {
	if c.RetentionMinutes < 0 {
		return 0
	}
	return time.Duration(c.RetentionMinutes) * time.Minute
}
