// File: cmd/bindings.go
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seekwell-dev/seekwell/internal/config"
	"github.com/seekwell-dev/seekwell/internal/observability"
)

// newBindingsCmd groups the bindings-store maintenance commands.
func newBindingsCmd(getCfg func() *config.Config) *cobra.Command {
	bindingsCmd := &cobra.Command{
		Use:   "bindings",
		Short: "Inspect and maintain stored selector bindings",
	}
	bindingsCmd.AddCommand(newBindingsListCmd(getCfg), newBindingsShowCmd(getCfg), newBindingsClearCmd(getCfg))
	return bindingsCmd
}

// bindingSummary is the compact per-record shape printed by bindings list.
type bindingSummary struct {
	ID         string    `json:"id"`
	URLPattern string    `json:"urlPattern"`
	Version    int       `json:"version"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newBindingsListCmd(getCfg func() *config.Config) *cobra.Command {
	var output string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all stored bindings records, freshest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, closeStore, err := openStore(ctx, getCfg(), observability.GetLogger())
			if err != nil {
				return err
			}
			defer closeStore()

			records, err := st.List(ctx)
			if err != nil {
				return err
			}
			summaries := make([]bindingSummary, 0, len(records))
			for _, rec := range records {
				summaries = append(summaries, bindingSummary{
					ID:         rec.ID,
					URLPattern: rec.URLPattern,
					Version:    rec.Version,
					UpdatedAt:  rec.UpdatedAt,
				})
			}
			return writeJSON(output, summaries)
		},
	}
	listCmd.Flags().StringVarP(&output, "output", "o", "", "write the list to a file instead of stdout")
	return listCmd
}

func newBindingsShowCmd(getCfg func() *config.Config) *cobra.Command {
	var output string

	showCmd := &cobra.Command{
		Use:   "show <hostname>",
		Short: "Show the bindings record matching a hostname",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, closeStore, err := openStore(ctx, getCfg(), observability.GetLogger())
			if err != nil {
				return err
			}
			defer closeStore()

			bind, err := st.Query(ctx, args[0])
			if err != nil {
				return fmt.Errorf("no bindings for %q: %w", args[0], err)
			}
			return writeJSON(output, bind)
		},
	}
	showCmd.Flags().StringVarP(&output, "output", "o", "", "write the bindings to a file instead of stdout")
	return showCmd
}

func newBindingsClearCmd(getCfg func() *config.Config) *cobra.Command {
	var pattern string

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete stored bindings, all of them or by URL pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			st, closeStore, err := openStore(ctx, getCfg(), logger)
			if err != nil {
				return err
			}
			defer closeStore()

			if pattern != "" {
				if err := st.ClearPattern(ctx, pattern); err != nil {
					return err
				}
				logger.Info("Cleared bindings", zap.String("pattern", pattern))
				return nil
			}
			if err := st.Clear(ctx); err != nil {
				return err
			}
			logger.Info("Cleared all bindings")
			return nil
		},
	}
	clearCmd.Flags().StringVar(&pattern, "pattern", "", "only clear bindings whose URL pattern overlaps this value")
	return clearCmd
}
