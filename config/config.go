// Package config loads engine configuration from defaults, an optional YAML
// file and STRIDE_-prefixed environment variables, in that order of
// precedence (environment wins).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Model       ModelConfig       `yaml:"model"`
	Agent       AgentConfig       `yaml:"agent"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// ModelConfig selects and parameterizes the language model provider.
type ModelConfig struct {
	Provider    string  `yaml:"provider" envconfig:"MODEL_PROVIDER"`
	Name        string  `yaml:"name" envconfig:"MODEL_NAME"`
	APIKey      string  `yaml:"api_key" envconfig:"API_KEY"`
	Temperature float64 `yaml:"temperature" envconfig:"MODEL_TEMPERATURE"`
	MaxTokens   int64   `yaml:"max_tokens" envconfig:"MODEL_MAX_TOKENS"`
}

// AgentConfig bounds the tool-calling agent.
type AgentConfig struct {
	MaxSteps           int    `yaml:"max_steps" envconfig:"AGENT_MAX_STEPS"`
	DuplicateThreshold int    `yaml:"duplicate_threshold" envconfig:"AGENT_DUPLICATE_THRESHOLD"`
	MaxObserve         int    `yaml:"max_observe" envconfig:"AGENT_MAX_OBSERVE"`
	Workspace          string `yaml:"workspace" envconfig:"AGENT_WORKSPACE"`
}

// CoordinatorConfig bounds coordinated execution. Durations are expressed in
// whole seconds so they can be set uniformly from YAML and the environment.
type CoordinatorConfig struct {
	MaxSteps                 int    `yaml:"max_steps" envconfig:"COORDINATOR_MAX_STEPS"`
	TodoPath                 string `yaml:"todo_path" envconfig:"COORDINATOR_TODO_PATH"`
	ContextPath              string `yaml:"context_path" envconfig:"COORDINATOR_CONTEXT_PATH"`
	TaskTimeoutSeconds       int    `yaml:"task_timeout_seconds" envconfig:"COORDINATOR_TASK_TIMEOUT_SECONDS"`
	TaskCooldownSeconds      int    `yaml:"task_cooldown_seconds" envconfig:"COORDINATOR_TASK_COOLDOWN_SECONDS"`
	PostTaskCooldownSeconds  int    `yaml:"post_task_cooldown_seconds" envconfig:"COORDINATOR_POST_TASK_COOLDOWN_SECONDS"`
	PersistRetries           int    `yaml:"persist_retries" envconfig:"COORDINATOR_PERSIST_RETRIES"`
	PersistRetryDelaySeconds int    `yaml:"persist_retry_delay_seconds" envconfig:"COORDINATOR_PERSIST_RETRY_DELAY_SECONDS"`
}

// TaskTimeout returns the delegated-run timeout as a duration.
func (c CoordinatorConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}

// TaskCooldown returns the post-run cooldown as a duration.
func (c CoordinatorConfig) TaskCooldown() time.Duration {
	return time.Duration(c.TaskCooldownSeconds) * time.Second
}

// PostTaskCooldown returns the post-update cooldown as a duration.
func (c CoordinatorConfig) PostTaskCooldown() time.Duration {
	return time.Duration(c.PostTaskCooldownSeconds) * time.Second
}

// PersistRetryDelay returns the checklist retry delay as a duration.
func (c CoordinatorConfig) PersistRetryDelay() time.Duration {
	return time.Duration(c.PersistRetryDelaySeconds) * time.Second
}

// Default returns the configuration with every field at its default value.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Model: ModelConfig{
			Provider:    "anthropic",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Agent: AgentConfig{
			MaxSteps:           30,
			DuplicateThreshold: 2,
			Workspace:          "workspace",
		},
		Coordinator: CoordinatorConfig{
			MaxSteps:                 50,
			TodoPath:                 "workspace/TODO.md",
			ContextPath:              "workspace/Context.md",
			TaskTimeoutSeconds:       600,
			TaskCooldownSeconds:      3,
			PostTaskCooldownSeconds:  5,
			PersistRetries:           3,
			PersistRetryDelaySeconds: 1,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then STRIDE_
// environment variables. Environment variables only override fields whose
// variable is actually set; defaults and YAML values survive otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := envconfig.Process("STRIDE", cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "anthropic", "openai", "mock":
	default:
		return fmt.Errorf("config: unknown model provider %q", c.Model.Provider)
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("config: agent max_steps must be positive")
	}
	if c.Coordinator.MaxSteps <= 0 {
		return fmt.Errorf("config: coordinator max_steps must be positive")
	}
	if c.Coordinator.TaskTimeoutSeconds <= 0 {
		return fmt.Errorf("config: coordinator task_timeout_seconds must be positive")
	}
	return nil
}
