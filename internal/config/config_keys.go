// config_keys.go provides key-value access to configuration settings.
//
// Separated from config.go to isolate the key enumeration and string-based
// get/set logic. This separation allows config.go to focus on YAML structure
// and loading, while this file handles the CLI interface where config is
// accessed by string keys (e.g., "preview.theme").

package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidKeys returns all valid configuration keys.
func ValidKeys() []string {
	return []string{
		"autosave.documents", "autosave.backups", "autosave.delay_ms",
		"preview.theme", "preview.themes_dir", "preview.parser",
		"preview.allow_scripts", "preview.syntax_style", "preview.emoji",
		"license.key",
	}
}

// IsValidKey returns true if the key is a valid configuration key.
func IsValidKey(key string) bool {
	return slices.Contains(ValidKeys(), key)
}

// Get returns the value of a configuration key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "autosave.documents":
		return strconv.FormatBool(c.AutoSaveDocuments()), nil
	case "autosave.backups":
		return strconv.FormatBool(c.AutoSaveBackups()), nil
	case "autosave.delay_ms":
		return strconv.Itoa(int(c.AutoSaveDelay().Milliseconds())), nil
	case "preview.theme":
		return c.DefaultTheme(), nil
	case "preview.themes_dir":
		return c.ThemesDir(), nil
	case "preview.parser":
		return c.Parser(), nil
	case "preview.allow_scripts":
		return strconv.FormatBool(c.AllowScripts()), nil
	case "preview.syntax_style":
		return c.SyntaxStyle(), nil
	case "preview.emoji":
		return strconv.FormatBool(c.EmojiEnabled()), nil
	case "license.key":
		return c.License.Key, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set sets the value of a configuration key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "autosave.documents":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.AutoSave.Documents = &b
	case "autosave.backups":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.AutoSave.Backups = &b
	case "autosave.delay_ms":
		n, err := strconv.Atoi(value)
		if err != nil || n < MinDelayMs || n > MaxDelayMs {
			return fmt.Errorf("%w: autosave.delay_ms must be an integer between %d and %d", ErrInvalidValue, MinDelayMs, MaxDelayMs)
		}
		c.AutoSave.DelayMs = &n
	case "preview.theme":
		c.Preview.Theme = value
	case "preview.themes_dir":
		c.Preview.ThemesDir = value
	case "preview.parser":
		c.Preview.Parser = value
	case "preview.allow_scripts":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.Preview.AllowScripts = &b
	case "preview.syntax_style":
		c.Preview.SyntaxStyle = value
	case "preview.emoji":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.Preview.Emoji = &b
	case "license.key":
		c.License.Key = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// All returns all configuration values as a map.
func (c *Config) All() map[string]string {
	all := make(map[string]string, len(ValidKeys()))
	for _, key := range ValidKeys() {
		v, _ := c.Get(key)
		all[key] = v
	}
	return all
}

// parseBool parses a true/false config value.
func parseBool(key, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s must be true or false", ErrInvalidValue, key)
}
