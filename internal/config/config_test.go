package config_test

import (
	"testing"
	"time"

	"github.com/jpl-au/markview/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg config.Config

	assert.False(t, cfg.AutoSaveDocuments())
	assert.True(t, cfg.AutoSaveBackups())
	assert.Equal(t, time.Second, cfg.AutoSaveDelay())
	assert.Equal(t, "github", cfg.DefaultTheme())
	assert.Equal(t, "goldmark", cfg.Parser())
	assert.False(t, cfg.AllowScripts())
	assert.Equal(t, "github", cfg.SyntaxStyle())
	assert.False(t, cfg.EmojiEnabled())
	assert.False(t, cfg.Unlocked())
}

func TestConfig_SyntaxFor(t *testing.T) {
	cfg := config.Config{
		Editor: config.Editor{
			SyntaxMap: map[string]string{".mmd": "mermaid", ".md": "custom-markdown"},
		},
	}

	tests := []struct {
		ext  string
		want string
	}{
		{".go", "go"},
		{"go", "go"},           // leading dot optional
		{".md", "custom-markdown"}, // user map overrides builtin
		{".mmd", "mermaid"},
		{".unknown", "text"},
		{"", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.SyntaxFor(tt.ext))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	good := 200
	cfg := config.Config{AutoSave: config.AutoSave{DelayMs: &good}}
	require.NoError(t, cfg.Validate())

	bad := 5
	cfg = config.Config{AutoSave: config.AutoSave{DelayMs: &bad}}
	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidValue)

	cfg = config.Config{License: config.License{UsageCount: -1}}
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidValue)
}

func TestConfig_GetSet(t *testing.T) {
	var cfg config.Config

	require.NoError(t, cfg.Set("preview.theme", "darkly"))
	v, err := cfg.Get("preview.theme")
	require.NoError(t, err)
	assert.Equal(t, "darkly", v)

	require.NoError(t, cfg.Set("autosave.documents", "true"))
	assert.True(t, cfg.AutoSaveDocuments())

	require.NoError(t, cfg.Set("autosave.delay_ms", "250"))
	assert.Equal(t, 250*time.Millisecond, cfg.AutoSaveDelay())

	assert.ErrorIs(t, cfg.Set("autosave.documents", "maybe"), config.ErrInvalidValue)
	assert.ErrorIs(t, cfg.Set("autosave.delay_ms", "1"), config.ErrInvalidValue)
	assert.ErrorIs(t, cfg.Set("nope", "x"), config.ErrUnknownKey)

	_, err = cfg.Get("nope")
	assert.ErrorIs(t, err, config.ErrUnknownKey)
}

func TestConfig_AllCoversValidKeys(t *testing.T) {
	var cfg config.Config
	all := cfg.All()

	for _, key := range config.ValidKeys() {
		assert.Contains(t, all, key)
		assert.True(t, config.IsValidKey(key))
	}
	assert.False(t, config.IsValidKey("author.name"))
}
