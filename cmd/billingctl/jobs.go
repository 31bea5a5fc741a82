package main

import (
	"context"
	"fmt"

	"github.com/erp/billing/internal/bootstrap"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var dunningCmd = &cobra.Command{
	Use:   "dunning",
	Short: "Dunning jobs",
}

var dunningSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the dunning sweep once and print its report",
	Long: `Examines every overdue invoice and creates the next dunning record where the
policy calls for one. Fails if another process is sweeping right now.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
			report, err := app.SweepJob.Run(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		})
	},
}

var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "Offer jobs",
}

var offersConvertCmd = &cobra.Command{
	Use:     "convert <offer-id>...",
	Short:   "Convert offers into invoices",
	Example: `  billingctl offers convert 0b7c9a3e-6f0e-4c1e-9f7d-1d2a3b4c5d6e`,
	Args:    cobra.RangeArgs(1, 100),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
			outcomes := app.Conversion.ConvertMany(ctx, ids)
			if err := printJSON(cmd, outcomes); err != nil {
				return err
			}
			failed := 0
			for _, o := range outcomes {
				if !o.Succeeded() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d offers not converted", failed, len(outcomes))
			}
			return nil
		})
	},
}

var stockCmd = &cobra.Command{
	Use:   "stock <product-id>",
	Short: "Show on-hand, reserved and available stock of a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
			level, err := app.Ledger.StockLevel(ctx, ids[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, level)
		})
	},
}

func init() {
	dunningCmd.AddCommand(dunningSweepCmd)
	offersCmd.AddCommand(offersConvertCmd)
	rootCmd.AddCommand(dunningCmd, offersCmd, stockCmd)
}

func parseIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(args))
	for i, raw := range args {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", raw)
		}
		ids[i] = id
	}
	return ids, nil
}
