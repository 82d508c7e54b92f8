package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smilepool/smilepool-executor/pkg/executor"
	"github.com/smilepool/smilepool-executor/pkg/models"
	"github.com/spf13/cobra"
)

var (
	donateAmount string
	donateAsset  string
	donateRuneID string
)

func NewDonateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "donate",
		Short: "Donate a rune-backed token to the pool",
		Long: `Donate to the pool. The amount is in whole tokens and is deposited from
the settlement chain together with the approval and donate calls.

Examples:
  smilepool donate --amount 100
  smilepool donate --amount 2.5 --asset 0x... --rune-id 840000:3`,
		RunE: runDonate,
	}

	cmd.Flags().StringVar(&donateAmount, "amount", "", "Amount in whole tokens")
	cmd.Flags().StringVar(&donateAsset, "asset", "", "Token address (default: network rune asset)")
	cmd.Flags().StringVar(&donateRuneID, "rune-id", "", "Rune id of the deposit (default: RUNE_ID)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func runDonate(cmd *cobra.Command, args []string) error {
	amount, err := models.ParseUnits(donateAmount, models.TokenDecimals)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", donateAmount, err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	asset := donateAsset
	if asset == "" {
		asset = app.Config.Donation.RuneAsset
	}
	if !common.IsHexAddress(asset) {
		return fmt.Errorf("invalid asset address %q", asset)
	}
	runeID := donateRuneID
	if runeID == "" {
		runeID = app.Config.Donation.RuneID
	}

	return runAction(ctx, app, func(ctx context.Context) (models.TxResult, error) {
		return app.Executor.Donate(ctx, executor.DonateInput{
			Amount: amount,
			Asset:  common.HexToAddress(asset),
			RuneID: runeID,
		})
	})
}
