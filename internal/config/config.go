// Package config provides configuration management for mscan.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Renderer names.
const (
	RendererMathML = "mathml"
	RendererText   = "text"
)

// Config holds the mscan configuration.
type Config struct {
	// Delimiter pairs, each written as [open, close].
	InlineMath  [][]string `yaml:"inline_math"`
	DisplayMath [][]string `yaml:"display_math"`

	ProcessEscapes      bool `yaml:"process_escapes"`
	ProcessEnvironments bool `yaml:"process_environments"`
	ProcessRefs         bool `yaml:"process_refs"`

	SkipTags     []string `yaml:"skip_tags,omitempty"`
	IgnoreClass  string   `yaml:"ignore_class,omitempty"`
	ProcessClass string   `yaml:"process_class,omitempty"`

	Renderer     string `yaml:"renderer,omitempty"`
	OutputFormat string `yaml:"output_format,omitempty"`

	// Macros maps a control sequence name (without backslash) to its
	// replacement text; #1..#9 are its arguments.
	Macros map[string]string `yaml:"macros,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InlineMath:          [][]string{{`\(`, `\)`}},
		DisplayMath:         [][]string{{"$$", "$$"}, {`\[`, `\]`}},
		ProcessEscapes:      true,
		ProcessEnvironments: true,
		ProcessRefs:         true,
		IgnoreClass:         "mscan-ignore",
		ProcessClass:        "mscan-process",
		Renderer:            RendererMathML,
	}
}

var macroName = regexp.MustCompile(`^[a-zA-Z]+$`)

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if len(c.InlineMath) == 0 && len(c.DisplayMath) == 0 {
		return errors.New("at least one math delimiter pair is required")
	}
	for _, pairs := range [][][]string{c.InlineMath, c.DisplayMath} {
		for _, pair := range pairs {
			if len(pair) != 2 || pair[0] == "" || pair[1] == "" {
				return fmt.Errorf("invalid delimiter pair %q: want [open, close]", pair)
			}
		}
	}

	switch c.Renderer {
	case "", RendererMathML, RendererText:
	default:
		return fmt.Errorf("invalid renderer %q: must be %s or %s", c.Renderer, RendererMathML, RendererText)
	}

	for name := range c.Macros {
		if !macroName.MatchString(name) {
			return fmt.Errorf("invalid macro name %q: must be letters only", name)
		}
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
func (c *Config) LoadFromEnv() {
	if r := os.Getenv("MSCAN_RENDERER"); r != "" {
		c.Renderer = r
	}
	if f := os.Getenv("MSCAN_OUTPUT_FORMAT"); f != "" {
		c.OutputFormat = f
	}
	setBool(&c.ProcessEscapes, "MSCAN_PROCESS_ESCAPES")
	setBool(&c.ProcessEnvironments, "MSCAN_PROCESS_ENVIRONMENTS")
	setBool(&c.ProcessRefs, "MSCAN_PROCESS_REFS")

	// MSCAN_INLINE_DOLLARS=true adds $...$ as inline math
	dollars := false
	setBool(&dollars, "MSCAN_INLINE_DOLLARS")
	if dollars && !c.hasInline("$") {
		c.InlineMath = append(c.InlineMath, []string{"$", "$"})
	}
}

func (c *Config) hasInline(open string) bool {
	for _, pair := range c.InlineMath {
		if len(pair) > 0 && pair[0] == open {
			return true
		}
	}
	return false
}

// setBool overrides *dst when the variable holds a valid boolean.
func setBool(dst *bool, name string) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	// Try XDG config directory first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "mscan", "config.yml")
	}

	// Fall back to ~/.config/mscan/config.yml
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mscan", "config.yml")
	}

	return filepath.Join(home, ".config", "mscan", "config.yml")
}

// ResolvePath returns path, or the default path when it is empty.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	return DefaultConfigPath()
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path. Keys missing from
// the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from file and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		// If file doesn't exist, start with the defaults
		cfg = Default()
	}

	cfg.LoadFromEnv()
	return cfg, nil
}
