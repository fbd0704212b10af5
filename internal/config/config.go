// Package config provides reading and writing of markview configuration.
// Supports both global (~/.markview/config.yaml) and local (.markview/config.yaml).
// Reading: uses local if it exists, otherwise global.
// Writing: defaults to global, use --local for local.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConfigPath is returned when the config path cannot be determined.
	ErrNoConfigPath = errors.New("cannot determine config path")
	// ErrUnknownKey is returned when getting/setting an unknown config key.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrInvalidValue is returned when a config value is invalid.
	ErrInvalidValue = errors.New("invalid config value")
)

// Scope represents the configuration scope (global or local).
type Scope int

const (
	// ScopeGlobal is user-wide config in ~/.markview/config.yaml (default)
	ScopeGlobal Scope = iota
	// ScopeLocal is directory-specific config in .markview/config.yaml
	ScopeLocal
)

// AutoSave holds background persistence options.
// Documents and Backups are mutually exclusive; when both are set,
// Documents wins (saving the real file supersedes writing a backup).
type AutoSave struct {
	Documents *bool `yaml:"documents,omitempty"`
	Backups   *bool `yaml:"backups,omitempty"`
	DelayMs   *int  `yaml:"delay_ms,omitempty"`
}

// Preview holds rendering options.
type Preview struct {
	Theme        string `yaml:"theme,omitempty"`
	ThemesDir    string `yaml:"themes_dir,omitempty"`
	Parser       string `yaml:"parser,omitempty"`
	AllowScripts *bool  `yaml:"allow_scripts,omitempty"`
	SyntaxStyle  string `yaml:"syntax_style,omitempty"`
	Emoji        *bool  `yaml:"emoji,omitempty"`
}

// Editor holds editor-facing options.
type Editor struct {
	// SyntaxMap maps a file extension (with dot) to a syntax name,
	// overriding the built-in table.
	SyntaxMap map[string]string `yaml:"syntax_map,omitempty"`
}

// License holds unlock state used for the promotional banner condition.
type License struct {
	Key        string `yaml:"key,omitempty"`
	UsageCount int    `yaml:"usage_count,omitempty"`
}

// Defaults applied when not configured.
const (
	DefaultTheme       = "github"
	DefaultParser      = "goldmark"
	DefaultSyntaxStyle = "github"
	DefaultDelayMs     = 1000
)

// Validation bounds for configuration values.
const (
	MinDelayMs = 50
	MaxDelayMs = 600_000 // 10 minutes
)

// Config contains configuration for markview.
type Config struct {
	AutoSave AutoSave `yaml:"autosave,omitempty"`
	Preview  Preview  `yaml:"preview,omitempty"`
	Editor   Editor   `yaml:"editor,omitempty"`
	License  License  `yaml:"license,omitempty"`

	// path is the file this config was loaded from (for Save)
	path  string
	scope Scope
}

// builtinSyntaxMap is the default extension -> syntax name table.
// Editor.SyntaxMap entries override it.
var builtinSyntaxMap = map[string]string{
	".md":       "markdown",
	".markdown": "markdown",
	".mdown":    "markdown",
	".txt":      "text",
	".go":       "go",
	".json":     "json",
	".yaml":     "yaml",
	".yml":      "yaml",
	".html":     "html",
	".htm":      "html",
	".css":      "css",
	".js":       "javascript",
	".ts":       "typescript",
	".sh":       "bash",
	".py":       "python",
	".rs":       "rust",
	".sql":      "sql",
	".xml":      "xml",
	".toml":     "toml",
	".csv":      "csv",
}

// Validate checks that all configured values are within acceptable bounds.
// Returns nil if all values are valid or not set (defaults will be used).
func (c *Config) Validate() error {
	if c.AutoSave.DelayMs != nil {
		v := *c.AutoSave.DelayMs
		if v < MinDelayMs || v > MaxDelayMs {
			return fmt.Errorf("%w: autosave.delay_ms must be between %d and %d, got %d",
				ErrInvalidValue, MinDelayMs, MaxDelayMs, v)
		}
	}
	if c.License.UsageCount < 0 {
		return fmt.Errorf("%w: license.usage_count must not be negative, got %d",
			ErrInvalidValue, c.License.UsageCount)
	}
	return nil
}

// AutoSaveDocuments returns whether document autosave is enabled (defaults to false).
func (c *Config) AutoSaveDocuments() bool {
	if c.AutoSave.Documents == nil {
		return false
	}
	return *c.AutoSave.Documents
}

// AutoSaveBackups returns whether backup autosave is enabled (defaults to true).
// Ignored when document autosave is also enabled.
func (c *Config) AutoSaveBackups() bool {
	if c.AutoSave.Backups == nil {
		return true
	}
	return *c.AutoSave.Backups
}

// AutoSaveDelay returns the debounce window for autosave (defaults to 1s).
func (c *Config) AutoSaveDelay() time.Duration {
	if c.AutoSave.DelayMs == nil {
		return DefaultDelayMs * time.Millisecond
	}
	return time.Duration(*c.AutoSave.DelayMs) * time.Millisecond
}

// DefaultTheme returns the preview theme name (defaults to "github").
func (c *Config) DefaultTheme() string {
	if c.Preview.Theme == "" {
		return DefaultTheme
	}
	return c.Preview.Theme
}

// ThemesDir returns the directory holding theme folders.
// Defaults to ~/.markview/themes.
func (c *Config) ThemesDir() string {
	if c.Preview.ThemesDir != "" {
		return c.Preview.ThemesDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".markview", "themes")
	}
	return filepath.Join(home, ".markview", "themes")
}

// Parser returns the configured markdown parser name (defaults to "goldmark").
func (c *Config) Parser() string {
	if c.Preview.Parser == "" {
		return DefaultParser
	}
	return c.Preview.Parser
}

// AllowScripts returns the script-rendering policy (defaults to false).
// When false, rendered HTML is sanitised before display.
func (c *Config) AllowScripts() bool {
	if c.Preview.AllowScripts == nil {
		return false
	}
	return *c.Preview.AllowScripts
}

// SyntaxStyle returns the highlighting style for fenced code (defaults to "github").
func (c *Config) SyntaxStyle() string {
	if c.Preview.SyntaxStyle == "" {
		return DefaultSyntaxStyle
	}
	return c.Preview.SyntaxStyle
}

// EmojiEnabled returns whether the :emoji: shortcode extension is active
// (defaults to false).
func (c *Config) EmojiEnabled() bool {
	if c.Preview.Emoji == nil {
		return false
	}
	return *c.Preview.Emoji
}

// SyntaxFor resolves a file extension (with or without leading dot) to a
// syntax name. User-configured mappings override the built-in table.
// Unknown extensions resolve to "text".
func (c *Config) SyntaxFor(ext string) string {
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	if s, ok := c.Editor.SyntaxMap[ext]; ok {
		return s
	}
	if s, ok := builtinSyntaxMap[ext]; ok {
		return s
	}
	return "text"
}

// Unlocked reports whether a license key is present.
func (c *Config) Unlocked() bool {
	return c.License.Key != ""
}

// LocalPath returns the path to the local (directory) config file.
func LocalPath() string {
	return filepath.Join(".markview", "config.yaml")
}

// GlobalPath returns the path to the global (user) config file: ~/.markview/config.yaml
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".markview", "config.yaml")
}

// Load reads configuration: uses local if it exists, otherwise global.
func Load() (*Config, error) {
	if _, err := os.Stat(LocalPath()); err == nil {
		return LoadScope(ScopeLocal)
	}
	return LoadScope(ScopeGlobal)
}

// LoadScope reads configuration from a specific scope.
func LoadScope(scope Scope) (*Config, error) {
	path := pathForScope(scope)
	if path == "" {
		return &Config{scope: scope}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{path: path, scope: scope}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w\n\nTo fix: edit the file to correct the YAML syntax, or delete it to use defaults", path, err)
	}
	cfg.path = path
	cfg.scope = scope

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Scope returns which scope this config was loaded from.
func (c *Config) Scope() Scope {
	return c.scope
}

// Save writes the configuration to its original location.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = pathForScope(c.scope)
	}
	if c.path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(c.path)
}

// SaveScope writes the configuration to the specified scope.
func (c *Config) SaveScope(scope Scope) error {
	path := pathForScope(scope)
	if path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(path)
}

// saveToPath writes configuration to a specific filesystem path.
// Creates parent directories as needed with mode 0755.
func (c *Config) saveToPath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// pathForScope returns the filesystem path for a given scope.
func pathForScope(scope Scope) string {
	switch scope {
	case ScopeLocal:
		return LocalPath()
	case ScopeGlobal:
		return GlobalPath()
	default:
		return ""
	}
}
