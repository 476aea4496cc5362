package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
		},
		{
			name: "no delimiters",
			modify: func(c *Config) {
				c.InlineMath = nil
				c.DisplayMath = nil
			},
			wantErr: true,
			errMsg:  "at least one math delimiter pair",
		},
		{
			name: "pair with one entry",
			modify: func(c *Config) {
				c.InlineMath = [][]string{{"$"}}
			},
			wantErr: true,
			errMsg:  "invalid delimiter pair",
		},
		{
			name: "pair with empty close",
			modify: func(c *Config) {
				c.DisplayMath = [][]string{{"$$", ""}}
			},
			wantErr: true,
			errMsg:  "invalid delimiter pair",
		},
		{
			name: "unknown renderer",
			modify: func(c *Config) {
				c.Renderer = "svg"
			},
			wantErr: true,
			errMsg:  "invalid renderer",
		},
		{
			name: "text renderer",
			modify: func(c *Config) {
				c.Renderer = RendererText
			},
		},
		{
			name: "macro name with backslash",
			modify: func(c *Config) {
				c.Macros = map[string]string{`\R`: `\mathbb{R}`}
			},
			wantErr: true,
			errMsg:  "invalid macro name",
		},
		{
			name: "valid macro",
			modify: func(c *Config) {
				c.Macros = map[string]string{"R": `\mathbb{R}`}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Run("loads env vars", func(t *testing.T) {
		t.Setenv("MSCAN_RENDERER", "text")
		t.Setenv("MSCAN_OUTPUT_FORMAT", "json")
		t.Setenv("MSCAN_PROCESS_ESCAPES", "false")
		t.Setenv("MSCAN_INLINE_DOLLARS", "true")

		cfg := Default()
		cfg.LoadFromEnv()

		assert.Equal(t, "text", cfg.Renderer)
		assert.Equal(t, "json", cfg.OutputFormat)
		assert.False(t, cfg.ProcessEscapes)
		assert.True(t, cfg.ProcessRefs)
		assert.Equal(t, [][]string{{`\(`, `\)`}, {"$", "$"}}, cfg.InlineMath)
	})

	t.Run("empty and invalid values are ignored", func(t *testing.T) {
		t.Setenv("MSCAN_RENDERER", "")
		t.Setenv("MSCAN_PROCESS_REFS", "maybe")

		cfg := Default()
		cfg.LoadFromEnv()

		assert.Equal(t, RendererMathML, cfg.Renderer)
		assert.True(t, cfg.ProcessRefs)
	})

	t.Run("inline dollars are added once", func(t *testing.T) {
		t.Setenv("MSCAN_INLINE_DOLLARS", "1")

		cfg := Default()
		cfg.LoadFromEnv()
		cfg.LoadFromEnv()

		assert.Len(t, cfg.InlineMath, 2)
	})
}

func TestDefaultConfigPath(t *testing.T) {
	t.Run("xdg config home", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		assert.Equal(t, filepath.Join(dir, "mscan", "config.yml"), DefaultConfigPath())
	})

	t.Run("home directory", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		path := DefaultConfigPath()

		home, err := os.UserHomeDir()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(path, home))
		assert.Contains(t, path, "mscan")
		assert.Equal(t, ".yml", filepath.Ext(path))
	})
}

func TestResolvePath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "custom.yml", ResolvePath("custom.yml"))
	assert.Equal(t, filepath.Join("/xdg", "mscan", "config.yml"), ResolvePath(""))
}

func TestConfig_Save_and_Load(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yml")

	original := Default()
	original.InlineMath = append(original.InlineMath, []string{"$", "$"})
	original.ProcessRefs = false
	original.Renderer = RendererText
	original.OutputFormat = "json"
	original.Macros = map[string]string{"R": `\mathbb{R}`}

	require.NoError(t, original.Save(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("renderer: text\n"), 0600))

	loaded, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, RendererText, loaded.Renderer)
	assert.True(t, loaded.ProcessEscapes)
	assert.Equal(t, Default().DisplayMath, loaded.DisplayMath)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yml")
	require.Error(t, err)
}

func TestLoadWithEnv(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		t.Setenv("MSCAN_RENDERER", "text")

		cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.Renderer)
		assert.Equal(t, Default().InlineMath, cfg.InlineMath)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(configPath, []byte("inline_math: [[\n"), 0600))

		_, err := LoadWithEnv(configPath)
		assert.Error(t, err)
	})
}
