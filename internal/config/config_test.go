package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clc/internal/config"
)

func TestResolvePriorityOrder(t *testing.T) {
	t.Setenv("CLC_CONFIG", "/env/clc.toml")
	assert.Equal(t, "/flag/clc.toml", config.Resolve("/flag/clc.toml"))
	assert.Equal(t, "/env/clc.toml", config.Resolve(""))

	t.Setenv("CLC_CONFIG", "")
	assert.NotEmpty(t, config.Resolve(""))
}

// Supplementary property 10: a missing or malformed clc.toml never blocks
// compilation — Defaults() always yields a usable configuration.
func TestDefaultsAreAlwaysUsable(t *testing.T) {
	d := config.Defaults()
	assert.NotNil(t, d)
	assert.Nil(t, d.Target.WSLExitCodes)
	assert.Equal(t, "info", d.Trace.Level)
	assert.Equal(t, "stderr", d.Trace.Destination)
}

func TestLoadFallsBackSilentlyOnMissingFile(t *testing.T) {
	cfg := config.Load("/nonexistent/path/clc.toml")
	assert.NotNil(t, cfg)
}
