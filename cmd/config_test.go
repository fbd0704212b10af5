package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("list shows defaults", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.run("config")
		env.contains(out, "preview.theme: github")
		env.contains(out, "autosave.backups: true")
		env.contains(out, "autosave.documents: false")
	})

	t.Run("get single value", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.run("config", "preview.parser")
		env.equals(out, "goldmark")
	})

	t.Run("set and get round trip", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.run("config", "preview.theme", "dark")
		env.contains(out, "preview.theme = dark (global)")

		out = env.run("config", "preview.theme")
		env.equals(out, "dark")
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		env := newTestEnv(t)

		out, err := env.runErr("config", "no.such.key")
		if err == nil {
			t.Error("unknown key should fail")
		}
		env.contains(out, "no.such.key")
	})

	t.Run("invalid bool rejected", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.runErr("config", "autosave.documents", "maybe")
		if err == nil {
			t.Error("invalid bool should fail")
		}
	})

	t.Run("local scope writes into working directory", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.run("config", "--local", "preview.theme", "dark")
		env.contains(out, "(local)")

		if _, err := os.Stat(filepath.Join(env.dir, ".markview", "config.yaml")); err != nil {
			t.Errorf("local config not created: %v", err)
		}
	})

	t.Run("local config takes precedence", func(t *testing.T) {
		env := newTestEnv(t)
		env.run("config", "preview.theme", "global-theme")
		env.run("config", "--local", "preview.theme", "local-theme")

		out := env.run("config", "preview.theme")
		env.equals(out, "local-theme")
	})
}
