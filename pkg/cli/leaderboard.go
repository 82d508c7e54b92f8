package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/smilepool/smilepool-executor/pkg/models"
	"github.com/spf13/cobra"
)

var (
	leaderboardCount  int
	leaderboardDonors bool
)

// DonorRow is one row of the top donors output
type DonorRow struct {
	Rank          int    `json:"rank"`
	Address       string `json:"address"`
	TotalDonated  string `json:"total_donated"`
	DonationCount int    `json:"donation_count"`
	LastDonation  string `json:"last_donation"`
}

// LeaderboardRow is one row of the leaderboard output
type LeaderboardRow struct {
	Rank        int    `json:"rank"`
	Address     string `json:"address"`
	BestScore   int64  `json:"best_score"`
	TotalSmiles int64  `json:"total_smiles"`
	TotalEarned string `json:"total_earned"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

func NewLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top smilers, or the top donors with --donors",
		Long: `Show the top smilers with their profile photos.

With --donors, show the donors of the latest 50 donations grouped by address
and ordered by the total they donated.`,
		RunE: runLeaderboard,
	}
	cmd.Flags().IntVar(&leaderboardCount, "count", 10, "Number of rows (max 100)")
	cmd.Flags().BoolVar(&leaderboardDonors, "donors", false, "Show the top donors instead of the top smilers")
	return cmd
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if leaderboardDonors {
		return printDonors(ctx, app)
	}

	top, err := app.Chain.TopSmilers(ctx, leaderboardCount)
	if err != nil {
		return err
	}

	addresses := make([]string, 0, len(top))
	for _, t := range top {
		addresses = append(addresses, t.Address.Hex())
	}
	photos, err := app.Feed.ProfilePhotos(ctx, addresses)
	if err != nil {
		app.Logger.Error("Failed to load profile photos: %v", err)
	}

	rows := make([]LeaderboardRow, 0, len(top))
	for i, t := range top {
		rows = append(rows, LeaderboardRow{
			Rank:        i + 1,
			Address:     t.Address.Hex(),
			BestScore:   t.BestScore,
			TotalSmiles: t.TotalSmiles,
			TotalEarned: models.FormatUnits(t.TotalEarned, models.TokenDecimals),
			PhotoURL:    photos[strings.ToLower(t.Address.Hex())].PhotoURL,
		})
	}

	if jsonMode {
		return printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Println("No smiles yet")
		return nil
	}
	for _, r := range rows {
		fmt.Printf("%3d  %s  best=%s  smiles=%d  earned=%s\n",
			r.Rank, r.Address, color.GreenString("%d", r.BestScore), r.TotalSmiles, r.TotalEarned)
	}
	return nil
}

func printDonors(ctx context.Context, app *App) error {
	donors, err := app.Chain.TopDonors(ctx, leaderboardCount)
	if err != nil {
		return err
	}

	rows := make([]DonorRow, 0, len(donors))
	for i, d := range donors {
		rows = append(rows, DonorRow{
			Rank:          i + 1,
			Address:       d.Address.Hex(),
			TotalDonated:  models.FormatUnits(d.TotalDonated, models.TokenDecimals),
			DonationCount: d.DonationCount,
			LastDonation:  d.LastDonation.Format(time.RFC3339),
		})
	}

	if jsonMode {
		return printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Println("No donations yet")
		return nil
	}
	for _, r := range rows {
		fmt.Printf("%3d  %s  donated=%s  donations=%d  last=%s\n",
			r.Rank, r.Address, color.GreenString("%s", r.TotalDonated), r.DonationCount, r.LastDonation)
	}
	return nil
}
