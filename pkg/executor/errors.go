package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smilepool/smilepool-executor/pkg/mempool"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// ErrActionInFlight is returned when an action is started while another one
// of the same session has not reached a terminal state
var ErrActionInFlight = errors.New("another action is in flight")

// ErrCircuitOpen is wrapped when broadcasts are suspended after repeated network failures
var ErrCircuitOpen = errors.New("circuit breaker open")

// Category is the user-facing class of an action failure
type Category string

const (
	CategoryValidation          Category = "validation"
	CategorySigning             Category = "signing"
	CategoryAlreadyClaimed      Category = "already_claimed"
	CategoryPoolInsufficient    Category = "pool_insufficient"
	CategoryScoreTooLow         Category = "score_too_low"
	CategoryNonceMismatch       Category = "nonce_mismatch"
	CategoryGenericRevert       Category = "generic_revert"
	CategoryGenericNetwork      Category = "generic_network"
	CategoryConfirmationTimeout Category = "confirmation_timeout"
)

// Message returns the user-facing text of the category
func (c Category) Message() string {
	switch c {
	case CategoryValidation:
		return "The action cannot be started"
	case CategorySigning:
		return "Signing was rejected or the wallet is unreachable"
	case CategoryAlreadyClaimed:
		return "Already claimed today"
	case CategoryPoolInsufficient:
		return "Pool has insufficient funds"
	case CategoryScoreTooLow:
		return "Smile score is below the threshold"
	case CategoryNonceMismatch:
		return "Claim nonce is out of date"
	case CategoryGenericRevert:
		return "The transaction was rejected by the contract"
	case CategoryGenericNetwork:
		return "Network error"
	case CategoryConfirmationTimeout:
		return "The outcome is unknown, check the explorer before retrying"
	default:
		return string(c)
	}
}

// ActionError is the terminal error of one action
type ActionError struct {
	Action   models.Action
	Stage    State
	Category Category
	BaseTxID string
	Err      error
}

func (e *ActionError) Error() string {
	if e.BaseTxID != "" {
		return fmt.Sprintf("%s failed at %s (%s, base tx %s): %v", e.Action, e.Stage, e.Category, e.BaseTxID, e.Err)
	}
	return fmt.Sprintf("%s failed at %s (%s): %v", e.Action, e.Stage, e.Category, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Retriggerable reports whether the action can be started again right away
func (e *ActionError) Retriggerable() bool {
	return e.Category == CategoryValidation || e.Category == CategorySigning
}

// NeedsStateRefresh reports whether pool, nonce and cooldown state must be
// re-read before a retry is offered
func (e *ActionError) NeedsStateRefresh() bool {
	switch e.Category {
	case CategoryAlreadyClaimed, CategoryPoolInsufficient, CategoryScoreTooLow,
		CategoryNonceMismatch, CategoryGenericRevert, CategoryGenericNetwork:
		return true
	}
	return false
}

// CheckExplorer reports whether the transaction may still land. The user
// should look it up instead of retrying.
func (e *ActionError) CheckExplorer() bool {
	return e.Category == CategoryConfirmationTimeout
}

// AsActionError extracts an ActionError from err
func AsActionError(err error) (*ActionError, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// classifyBroadcastError maps a node or contract rejection onto a category
func classifyBroadcastError(err error) Category {
	if errors.Is(err, ErrCircuitOpen) {
		return CategoryGenericNetwork
	}
	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "already claimed") ||
		strings.Contains(errStr, "claimed today") ||
		strings.Contains(errStr, "daily limit") ||
		strings.Contains(errStr, "cooldown") {
		return CategoryAlreadyClaimed
	}

	if strings.Contains(errStr, "insufficient pool") ||
		strings.Contains(errStr, "pool empty") ||
		strings.Contains(errStr, "pool is empty") ||
		strings.Contains(errStr, "not enough in pool") ||
		strings.Contains(errStr, "low liquidity") {
		return CategoryPoolInsufficient
	}

	if strings.Contains(errStr, "score too low") ||
		strings.Contains(errStr, "score below threshold") ||
		strings.Contains(errStr, "below threshold") {
		return CategoryScoreTooLow
	}

	if strings.Contains(errStr, "invalid nonce") ||
		strings.Contains(errStr, "nonce mismatch") ||
		strings.Contains(errStr, "nonce too low") ||
		strings.Contains(errStr, "nonce too high") ||
		strings.Contains(errStr, "replacement transaction underpriced") {
		return CategoryNonceMismatch
	}

	if strings.Contains(errStr, "execution reverted") ||
		strings.Contains(errStr, "revert") ||
		strings.Contains(errStr, "insufficient allowance") ||
		strings.Contains(errStr, "insufficient balance") ||
		strings.Contains(errStr, "insufficient funds") {
		return CategoryGenericRevert
	}

	if isNetworkError(err) {
		return CategoryGenericNetwork
	}
	// Anything else was rejected by the node
	return CategoryGenericRevert
}

// isNetworkError reports whether the error looks like a transport failure
// rather than a rejection by the node
func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "no response") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "EOF")
}

// classifyWaitError maps a confirmation failure onto a category
func classifyWaitError(err error) Category {
	if errors.Is(err, mempool.ErrConfirmationTimeout) {
		return CategoryConfirmationTimeout
	}
	return CategoryGenericNetwork
}
