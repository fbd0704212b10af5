/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// config.go implements the "markview config" command for configuration
// management.
//
// Design: config follows a cascade model similar to git: local config
// (.markview/config.yaml) takes precedence over global
// (~/.markview/config.yaml). The --local flag forces use of local config
// even if it doesn't exist yet.

package cmd

import (
	"fmt"
	"sort"

	"github.com/jpl-au/markview/internal/config"
	"github.com/jpl-au/markview/internal/log"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "View or set config values",
		Long: `View or set config values.

  markview config                     # show config
  markview config preview.theme      # show preview.theme value
  markview config preview.theme dark # set preview.theme

Configuration locations:
  Global: ~/.markview/config.yaml
  Local:  .markview/config.yaml

Uses local config if it exists, otherwise global.
Writes go to the same place reads come from.
Use --local to use local config instead.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runConfig,
	}
	c.Flags().Bool("local", false, "Use local config (.markview/config.yaml)")
	return c
}

func runConfig(c *cobra.Command, args []string) error {
	forceLocal, _ := c.Flags().GetBool("local")

	var cfg *config.Config
	var err error
	if forceLocal {
		cfg, err = config.LoadScope(config.ScopeLocal)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	scopeName := "global"
	if cfg.Scope() == config.ScopeLocal {
		scopeName = "local"
	}

	switch len(args) {
	case 0:
		all := cfg.All()
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(Out(), "%s: %s\n", k, all[k])
		}
		log.Event("cmd:config", "list").Write(nil)

	case 1:
		v, err := cfg.Get(args[0])
		log.Event("cmd:config", "get").Detail("key", args[0]).Write(err)
		if err != nil {
			return fmt.Errorf("config get %q: %w", args[0], err)
		}
		fmt.Fprintln(Out(), v)

	case 2:
		if err := cfg.Set(args[0], args[1]); err != nil {
			log.Event("cmd:config", "set").Detail("key", args[0]).Write(err)
			return fmt.Errorf("config set %q: %w", args[0], err)
		}

		saveErr := cfg.Save()
		// Note: value intentionally not logged to avoid leaking sensitive config (license keys)
		log.Event("cmd:config", "set").Detail("key", args[0]).Detail("scope", scopeName).Write(saveErr)
		if saveErr != nil {
			return fmt.Errorf("config save: %w", saveErr)
		}
		fmt.Fprintf(Out(), "%s = %s (%s)\n", args[0], args[1], scopeName)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newConfigCmd())
}
