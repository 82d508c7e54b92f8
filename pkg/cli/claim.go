package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/smilepool/smilepool-executor/pkg/executor"
	"github.com/smilepool/smilepool-executor/pkg/models"
	"github.com/spf13/cobra"
)

var (
	claimScore    int64
	claimImage    string
	claimMessage  string
	claimPhotoURL string
)

func NewClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim the pool reward for a smile score",
		Long: `Claim the pool reward. The score is taken from --score or, with
--image, from the vision service.

The claim is refused before anything is signed when the pool cannot pay one
reward, the score is below the pool threshold, or the account already claimed
today.

Examples:
  smilepool claim --image selfie.jpg --message "gm"
  smilepool claim --score 82`,
		RunE: runClaim,
	}

	cmd.Flags().Int64Var(&claimScore, "score", -1, "Smile score (0-100)")
	cmd.Flags().StringVar(&claimImage, "image", "", "Selfie to score with the vision service")
	cmd.Flags().StringVar(&claimMessage, "message", "", "Message stored with the smile")
	cmd.Flags().StringVar(&claimPhotoURL, "photo-url", "", "Public URL of the selfie for the feed")
	cmd.MarkFlagsMutuallyExclusive("score", "image")
	return cmd
}

func runClaim(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	score, err := resolveScore(ctx, app)
	if err != nil {
		return err
	}

	return runAction(ctx, app, func(ctx context.Context) (models.TxResult, error) {
		return app.Executor.Claim(ctx, executor.ClaimInput{
			Score:    score,
			Message:  claimMessage,
			PhotoURL: claimPhotoURL,
		})
	})
}

func resolveScore(ctx context.Context, app *App) (int64, error) {
	if claimImage == "" {
		if claimScore < 0 {
			return 0, fmt.Errorf("either --score or --image is required")
		}
		return claimScore, nil
	}

	if app.Vision == nil {
		return 0, fmt.Errorf("GEMINI_API_KEY is required to score an image")
	}
	image, err := os.ReadFile(claimImage)
	if err != nil {
		return 0, fmt.Errorf("failed to read image: %w", err)
	}

	result, err := app.Vision.Score(ctx, image, detectMimeType(claimImage, image))
	if err != nil {
		return 0, err
	}
	if !result.HasFace {
		return 0, fmt.Errorf("%s", result.Message)
	}
	if !jsonMode {
		fmt.Printf("Smile score %d: %s\n", result.Score, result.Message)
	}
	return result.Score, nil
}
