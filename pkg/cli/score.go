package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func NewScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <image>",
		Short: "Score the smile in a selfie",
		Args:  cobra.ExactArgs(1),
		RunE:  runScore,
	}
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Vision == nil {
		return fmt.Errorf("GEMINI_API_KEY is required to score an image")
	}

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	result, err := app.Vision.Score(ctx, image, detectMimeType(args[0], image))
	if err != nil {
		return err
	}

	if jsonMode {
		return printJSON(result)
	}
	if !result.HasFace {
		fmt.Println(color.YellowString("%s", result.Message))
		return nil
	}
	fmt.Printf("Score: %s\n%s\n", color.GreenString("%d", result.Score), result.Message)
	return nil
}

// detectMimeType prefers the file extension and falls back to sniffing
func detectMimeType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}
