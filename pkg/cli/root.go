// Package cli implements the smilepool command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/smilepool/smilepool-executor/pkg/config"
	"github.com/spf13/cobra"
)

// Global flags
var (
	jsonMode bool
	noColor  bool
)

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smilepool",
		Short: "Claim and donate against the SmilePool reward pool on MIDL",
		Long: `smilepool runs claim and donate actions against the SmilePool contract.

Each action is built as a set of execution-layer intentions, enclosed in one
settlement-chain base transaction, signed in order, broadcast once and tracked
until the execution-layer transaction hash is known.

Examples:
  # Show the pool and whether this account can claim
  smilepool pool

  # Score a selfie and claim with it
  smilepool claim --image selfie.jpg --message "gm"

  # Donate 100 tokens of the configured rune
  smilepool donate --amount 100

  # Run the status, feed and metrics server
  smilepool serve`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&jsonMode, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		NewServeCmd(),
		NewClaimCmd(),
		NewDonateCmd(),
		NewPoolCmd(),
		NewScoreCmd(),
		NewLeaderboardCmd(),
	)
	return cmd
}

// Execute runs the command tree and exits on error
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadApp loads the configuration and wires the app
func loadApp(ctx context.Context) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewApp(ctx, cfg)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
