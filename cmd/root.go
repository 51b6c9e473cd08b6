// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/internal/config"
	"github.com/seekwell-dev/seekwell/internal/observability"
)

// NewRootCommand builds the seekwell command tree. Each invocation returns a
// fresh instance so flag state never leaks between executions.
func NewRootCommand() *cobra.Command {
	var (
		cfgFile string
		cfg     *config.Config
	)
	getCfg := func() *config.Config { return cfg }

	root := &cobra.Command{
		Use:     "seekwell",
		Short:   "Seekwell extracts structured listings from list/detail web pages.",
		Long: `Seekwell runs declarative recipes against list/detail pages such as job
boards. Site-specific selectors live in a separate bindings layer that is
discovered automatically and repaired in place when a site's markup drifts.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cfgFile)
			if err != nil {
				// Fall back to a minimal logger so the failure is visible.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "seekwell"})
				return err
			}
			cfg = c
			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Configuration loaded",
				zap.String("store_backend", cfg.Store.Backend),
				zap.String("llm_model", cfg.LLM.Model))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./config.yaml or ~/.seekwell/config.yaml)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newRunCmd(getCfg),
		newDiscoverCmd(getCfg),
		newBindingsCmd(getCfg),
	)
	return root
}

// Execute runs the CLI with the given signal-aware context.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}

func loadConfig(cfgFile string) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".seekwell"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SEEKWELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return config.NewConfigFromViper(v)
}
