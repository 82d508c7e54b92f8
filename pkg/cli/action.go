package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/fatih/color"
	"github.com/smilepool/smilepool-executor/pkg/executor"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// runAction runs one executor action, printing each transition as it happens
func runAction(ctx context.Context, app *App, action func(context.Context) (models.TxResult, error)) error {
	if err := app.Config.RequireSigner(); err != nil {
		return err
	}

	updates, cancel := app.Executor.Subscribe(32)
	var wg sync.WaitGroup
	if !jsonMode {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range updates {
				printTransition(s)
			}
		}()
	}

	result, err := action(ctx)
	cancel()
	wg.Wait()

	if err != nil {
		return reportActionError(app, err)
	}

	if jsonMode {
		return printJSON(result)
	}
	fmt.Println()
	if result.Resolved {
		fmt.Printf("%s %s\n", color.GreenString("Confirmed:"), result.ExplorerURL)
	} else {
		fmt.Printf("%s %s\n", color.YellowString("Confirmed, execution hash not found yet:"), result.ExplorerURL)
	}
	return nil
}

func printTransition(s executor.Status) {
	switch s.State {
	case executor.StateSigning:
		fmt.Printf("  %s intention %d/%d\n", color.CyanString("signing"), s.Signing, s.Total)
	case executor.StateBroadcasting:
		fmt.Printf("  %s base tx %s\n", color.CyanString("broadcasting"), s.BaseTxID)
	case executor.StateSucceeded:
		fmt.Printf("  %s\n", color.GreenString("succeeded"))
	case executor.StateFailed:
		fmt.Printf("  %s\n", color.RedString("failed"))
	case executor.StateOutcomeUnknown:
		fmt.Printf("  %s\n", color.YellowString("outcome unknown"))
	case executor.StateIdle:
	default:
		fmt.Printf("  %s\n", s.State)
	}
}

// reportActionError prints what the user can do next and returns the error
func reportActionError(app *App, err error) error {
	ae, ok := executor.AsActionError(err)
	if !ok {
		return err
	}

	if jsonMode {
		_ = printJSON(map[string]interface{}{
			"error":      true,
			"category":   ae.Category,
			"stage":      ae.Stage,
			"base_tx_id": ae.BaseTxID,
			"message":    ae.Category.Message(),
			"detail":     ae.Err.Error(),
		})
		return err
	}

	fmt.Println()
	fmt.Printf("%s %s\n", color.RedString("%s", ae.Category.Message()), color.HiBlackString("(%v)", ae.Err))
	switch {
	case ae.CheckExplorer():
		fmt.Printf("Check %s before trying again.\n", app.Config.MempoolURL+"/tx/"+ae.BaseTxID)
	case ae.NeedsStateRefresh():
		fmt.Println("Pool or account state may have changed. Run `smilepool pool` before trying again.")
	case ae.Retriggerable():
		fmt.Println("You can try again.")
	}
	return err
}
