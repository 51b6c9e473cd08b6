// File: cmd/run.go
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/internal/browser"
	"github.com/seekwell-dev/seekwell/internal/config"
	"github.com/seekwell-dev/seekwell/internal/engine"
	"github.com/seekwell-dev/seekwell/internal/observability"
	"github.com/seekwell-dev/seekwell/internal/recipe"
	"github.com/seekwell-dev/seekwell/internal/store"
)

// newRunCmd creates the `run` command: execute a recipe file against a URL,
// discovering bindings for the site if none are stored yet.
func newRunCmd(getCfg func() *config.Config) *cobra.Command {
	var (
		output   string
		noRepair bool
		noSave   bool
	)

	runCmd := &cobra.Command{
		Use:   "run <recipe.json> <url>",
		Short: "Execute a recipe against a page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getCfg()
			logger := observability.GetLogger()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read recipe: %w", err)
			}
			r, err := recipe.Parse(data)
			if err != nil {
				return fmt.Errorf("invalid recipe: %w", err)
			}
			target := args[1]
			host, err := hostnameOf(target)
			if err != nil {
				return err
			}

			st, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			nav, err := newNavigator(ctx, cfg, logger)
			if err != nil {
				return err
			}

			driver, err := browser.NewChromeDriver(ctx, cfg.Browser, logger)
			if err != nil {
				return err
			}
			defer driver.Close()

			if err := driver.NavigateTo(ctx, target); err != nil {
				return err
			}

			bind, err := st.Query(ctx, host)
			switch {
			case errors.Is(err, store.ErrNotFound):
				if nav == nil {
					return fmt.Errorf("no bindings stored for %s and no LLM configured for discovery", host)
				}
				logger.Info("No stored bindings; running discovery", zap.String("hostname", host))
				snap, serr := driver.Snapshot(ctx)
				if serr != nil {
					return serr
				}
				bind, err = nav.DiscoverBindings(ctx, snap)
				if err != nil {
					return err
				}
				if perr := st.Put(ctx, bind); perr != nil {
					logger.Warn("Failed to persist discovered bindings", zap.Error(perr))
				}
			case err != nil:
				return err
			default:
				logger.Info("Using stored bindings",
					zap.String("hostname", host),
					zap.Int("version", bind.Version))
			}

			var opts []engine.Option
			if nav != nil && !noRepair {
				opts = append(opts, engine.WithRepairer(nav, driver.Snapshot))
			}
			exec := engine.New(driver, bind, cfg.Engine, logger, opts...)

			result := exec.Execute(ctx, r)

			if result.Stats.Repairs > 0 && !noSave {
				if err := st.Put(ctx, exec.Bindings()); err != nil {
					if errors.Is(err, store.ErrVersionConflict) {
						logger.Warn("Repaired bindings superseded by a concurrent writer; keeping stored version")
					} else {
						logger.Warn("Failed to persist repaired bindings", zap.Error(err))
					}
				}
			}

			if err := writeJSON(output, result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("run finished with %d item(s) before failing: %s",
					len(result.Items), result.Error)
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&output, "output", "o", "", "write the run result to a file instead of stdout")
	runCmd.Flags().BoolVar(&noRepair, "no-repair", false, "disable self-healing binding repair")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist repaired bindings")
	return runCmd
}
