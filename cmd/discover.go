// File: cmd/discover.go
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/internal/browser"
	"github.com/seekwell-dev/seekwell/internal/config"
	"github.com/seekwell-dev/seekwell/internal/observability"
	"github.com/seekwell-dev/seekwell/internal/store"
)

// newDiscoverCmd creates the `discover` command: load a page, infer its
// bindings, and persist them.
func newDiscoverCmd(getCfg func() *config.Config) *cobra.Command {
	var (
		output string
		force  bool
	)

	discoverCmd := &cobra.Command{
		Use:   "discover <url>",
		Short: "Discover and store selector bindings for a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getCfg()
			logger := observability.GetLogger()

			target := args[0]
			host, err := hostnameOf(target)
			if err != nil {
				return err
			}

			st, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			if !force {
				if existing, err := st.Query(ctx, host); err == nil {
					logger.Info("Bindings already stored; use --force to rediscover",
						zap.String("hostname", host),
						zap.Int("version", existing.Version))
					return writeJSON(output, existing)
				} else if !errors.Is(err, store.ErrNotFound) {
					return err
				}
			}

			nav, err := newNavigator(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if nav == nil {
				return fmt.Errorf("discovery requires an LLM API key (set SEEKWELL_LLM_API_KEY)")
			}

			driver, err := browser.NewChromeDriver(ctx, cfg.Browser, logger)
			if err != nil {
				return err
			}
			defer driver.Close()

			if err := driver.NavigateTo(ctx, target); err != nil {
				return err
			}
			snap, err := driver.Snapshot(ctx)
			if err != nil {
				return err
			}

			bind, err := nav.DiscoverBindings(ctx, snap)
			if err != nil {
				return err
			}
			if err := st.Put(ctx, bind); err != nil {
				return fmt.Errorf("failed to persist bindings: %w", err)
			}

			logger.Info("Bindings stored",
				zap.String("id", bind.ID),
				zap.String("url_pattern", bind.URLPattern))
			return writeJSON(output, bind)
		},
	}

	discoverCmd.Flags().StringVarP(&output, "output", "o", "", "write the bindings to a file instead of stdout")
	discoverCmd.Flags().BoolVar(&force, "force", false, "rediscover even when bindings are already stored")
	return discoverCmd
}
