package configcmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mathscan/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func TestRunShow_WithConfigFile(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yml")

	cfg := config.Default()
	cfg.Renderer = config.RendererText
	cfg.Macros = map[string]string{"R": `\mathbb{R}`, "C": `\mathbb{C}`}
	require.NoError(t, cfg.Save(configPath))

	var out bytes.Buffer
	require.NoError(t, runShow(configPath, "", true, &out))

	output := out.String()
	assert.Contains(t, output, `\( \)  (source: default)`)
	assert.Contains(t, output, "$$ $$, \\[ \\]")
	assert.Contains(t, output, "text  (source: config)")
	assert.Contains(t, output, `\C, \R  (source: config)`)
	assert.Contains(t, output, "Config file: "+configPath)
	assert.NotContains(t, output, "file not found")
}

func TestRunShow_EnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("MSCAN_RENDERER", "text")
	t.Setenv("MSCAN_INLINE_DOLLARS", "true")

	var out bytes.Buffer
	require.NoError(t, runShow(filepath.Join(t.TempDir(), "missing.yml"), "", true, &out))

	output := out.String()
	assert.Contains(t, output, "text  (source: MSCAN_RENDERER)")
	assert.Contains(t, output, `\( \), $ $  (source: MSCAN_INLINE_DOLLARS)`)
}

func TestRunShow_NoConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	require.NoError(t, runShow("", "", true, &out))
	assert.Contains(t, out.String(), "(file not found)")
	assert.Contains(t, out.String(), "mathml  (source: default)")
}

func TestRunShow_UnreadableConfig(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("inline_math: [[\n"), 0600))

	err := runShow(configPath, "", true, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRunShow_JSON(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yml")

	cfg := config.Default()
	cfg.Renderer = config.RendererText
	require.NoError(t, cfg.Save(configPath))

	var out bytes.Buffer
	require.NoError(t, runShow(configPath, "json", true, &out))

	var settings []setting
	require.NoError(t, json.Unmarshal(out.Bytes(), &settings))
	require.Len(t, settings, 11)
	assert.Equal(t, setting{Name: "Renderer", Value: "text", Source: "config"}, settings[8])
	assert.Equal(t, setting{Name: "Escapes", Value: "true", Source: "default"}, settings[2])
}

func TestRunShow_InvalidOutput(t *testing.T) {
	err := runShow("", "yaml", true, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}
