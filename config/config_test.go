package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, 30, cfg.Agent.MaxSteps)
	assert.Equal(t, 2, cfg.Agent.DuplicateThreshold)
	assert.Equal(t, 50, cfg.Coordinator.MaxSteps)
	assert.Equal(t, 600*time.Second, cfg.Coordinator.TaskTimeout())
	assert.Equal(t, 3*time.Second, cfg.Coordinator.TaskCooldown())
	assert.Equal(t, 5*time.Second, cfg.Coordinator.PostTaskCooldown())
	assert.Equal(t, 3, cfg.Coordinator.PersistRetries)
	assert.Equal(t, time.Second, cfg.Coordinator.PersistRetryDelay())
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stride.yaml")
	data := []byte("model:\n  provider: openai\n  name: gpt-4o\nagent:\n  max_steps: 12\ncoordinator:\n  task_timeout_seconds: 120\n")
	assert.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model.Name)
	assert.Equal(t, 12, cfg.Agent.MaxSteps)
	assert.Equal(t, 120*time.Second, cfg.Coordinator.TaskTimeout())

	// Untouched fields keep their defaults.
	assert.Equal(t, 50, cfg.Coordinator.MaxSteps)
	assert.Equal(t, 0.7, cfg.Model.Temperature)
}

func TestLoadEnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stride.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("agent:\n  max_steps: 12\n"), 0o644))

	t.Setenv("STRIDE_AGENT_MAX_STEPS", "7")
	t.Setenv("STRIDE_MODEL_PROVIDER", "mock")

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 7, cfg.Agent.MaxSteps)
	assert.Equal(t, "mock", cfg.Model.Provider)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := Default()
	cfg.Model.Provider = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Agent.MaxSteps = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Coordinator.TaskTimeoutSeconds = -1
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stride.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
