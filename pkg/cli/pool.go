package cli

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/smilepool/smilepool-executor/pkg/models"
	"github.com/smilepool/smilepool-executor/pkg/pool"
	"github.com/spf13/cobra"
)

var (
	poolScore   int64
	poolAddress string
)

// PoolResult is the JSON output of the pool command
type PoolResult struct {
	Pool    models.PoolDisplay   `json:"pool"`
	Account *models.AccountState `json:"account,omitempty"`
	Claim   *pool.ClaimControl   `json:"claim,omitempty"`
}

func NewPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show the pool and the claim eligibility of an account",
		Long: `Read the pool once and show its balance, reward and threshold. For the
signing account, or --address, also show the claim nonce, the daily limit and
whether a claim with --score would be enabled.`,
		RunE: runPool,
	}

	cmd.Flags().Int64Var(&poolScore, "score", -1, "Evaluate claim eligibility for this score")
	cmd.Flags().StringVar(&poolAddress, "address", "", "Account to evaluate (default: signing account)")
	return cmd
}

func runPool(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	snap, err := app.Pool.Refresh(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no pool deployed on %s, set SMILEPOOL_ADDRESS", app.Config.Network)
	}
	result := PoolResult{Pool: snap.Display()}

	account := app.Account()
	if poolAddress != "" {
		if !common.IsHexAddress(poolAddress) {
			return fmt.Errorf("invalid address %q", poolAddress)
		}
		account = common.HexToAddress(poolAddress)
	}
	if account != (common.Address{}) {
		state, err := app.Chain.AccountState(ctx, account)
		if err != nil {
			return err
		}
		ctl := pool.Evaluate(pool.Eligibility{
			Score:            poolScore,
			HasScore:         poolScore >= 0,
			Snapshot:         snap,
			Account:          state,
			Now:              time.Now(),
			DefaultThreshold: app.Config.ScoreThreshold,
		})
		result.Account = state
		result.Claim = &ctl
	}

	if jsonMode {
		return printJSON(result)
	}
	printPool(result)
	return nil
}

func printPool(r PoolResult) {
	d := r.Pool
	color.New(color.Bold).Println("SmilePool")
	fmt.Println("─────────────────────────────────────────────────────────")
	fmt.Printf("Pool:         %s\n", d.Pool)
	fmt.Printf("Balance:      %s\n", d.PoolBalance)
	fmt.Printf("Reward:       %s\n", d.RewardAmount)
	fmt.Printf("Threshold:    %s\n", d.ScoreThreshold)
	fmt.Printf("Donated:      %s (%s donations)\n", d.TotalDonated, d.TotalDonations)
	fmt.Printf("Claimed:      %s\n", d.TotalClaimed)
	fmt.Printf("Smiles:       %s by %s smilers\n", d.TotalSmiles, d.TotalSmilers)

	if r.Account == nil {
		return
	}
	fmt.Println()
	color.New(color.Bold).Println("Account")
	fmt.Printf("Address:      %s\n", r.Account.Address.Hex())
	fmt.Printf("Claim nonce:  %s\n", r.Account.Nonce.String())
	fmt.Printf("Unlimited:    %t\n", r.Account.Unlimited)
	if r.Account.ClaimedOn(models.DayIndex(time.Now())) {
		fmt.Printf("Today:        %s\n", color.YellowString("claimed"))
	} else {
		fmt.Printf("Today:        %s\n", color.GreenString("not claimed"))
	}

	switch {
	case r.Claim.Enabled:
		fmt.Printf("Claim:        %s\n", color.GreenString("enabled"))
	case r.Claim.Reason == pool.ReasonNoScore:
		fmt.Printf("Claim:        pass --score to evaluate (threshold %d)\n", r.Claim.Threshold)
	default:
		fmt.Printf("Claim:        %s\n", color.RedString("%s", r.Claim.Reason.Message()))
	}
}
