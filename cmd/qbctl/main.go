package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	cl "github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/cli"
	"github.com/YOUR-BIGWINGS/quickbuck-beta-sub001/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()

	root := &cobra.Command{
		Use:          "qbctl",
		Short:        "Quickbuck economy admin CLI",
		SilenceUsage: true,
	}

	root.AddCommand(
		newStatusCmd(cfg),
		newTickCmd(cfg),
		newTaxSweepCmd(cfg),
		newTicksCmd(cfg),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(cfg config.CLIConfig) *cl.Client {
	return cl.NewClient(cfg.APIBaseURL, cfg.AdminToken)
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newStatusCmd(cfg config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check API health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			if _, err := newClient(cfg).Health(ctx); err != nil {
				return err
			}
			printSuccess("API healthy.")
			return nil
		},
	}
}

func newTickCmd(cfg config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Trigger a manual economy tick",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Tick(ctx)
			if err != nil {
				return err
			}
			printTickSummary(out)
			return nil
		},
	}
}

func newTaxSweepCmd(cfg config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "tax-sweep",
		Short: "Trigger a wealth tax sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).TaxSweep(ctx)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Tax sweep complete: players_taxed=%v collected_cents=%v",
				out["players_taxed"], out["collected_cents"]))
			return nil
		},
	}
}

func newTicksCmd(cfg config.CLIConfig) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ticks [number]",
		Short: "Show recent tick records, or a single tick by number",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			client := newClient(cfg)

			if len(args) == 1 {
				number, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid tick number %q", args[0])
				}
				out, err := client.TickByNumber(ctx, number)
				if err != nil {
					return err
				}
				printTickRecord(out)
				return nil
			}

			rows, err := client.ListTicks(ctx, limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				printWarn("No ticks recorded yet.")
				return nil
			}
			for _, row := range rows {
				printTickRecord(row)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "max tick records to list")
	return cmd
}
