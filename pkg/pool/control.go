package pool

import (
	"math/big"
	"time"

	"github.com/smilepool/smilepool-executor/pkg/models"
)

// Reason explains why a claim is not offered
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonPoolUnavailable  Reason = "pool_unavailable"
	ReasonPoolInsufficient Reason = "pool_insufficient"
	ReasonNoScore          Reason = "no_score"
	ReasonScoreTooLow      Reason = "score_too_low"
	ReasonAlreadyClaimed   Reason = "already_claimed_today"
)

// Message returns the user-facing text for the reason
func (r Reason) Message() string {
	switch r {
	case ReasonPoolUnavailable:
		return "Pool state is not available yet"
	case ReasonPoolInsufficient:
		return "Pool has insufficient funds"
	case ReasonNoScore:
		return "Take a selfie to get a smile score"
	case ReasonScoreTooLow:
		return "Smile score is below the threshold"
	case ReasonAlreadyClaimed:
		return "Already claimed today"
	default:
		return ""
	}
}

// Eligibility is the input of a claim decision
type Eligibility struct {
	Score            int64
	HasScore         bool
	Snapshot         *models.PoolSnapshot
	Account          *models.AccountState
	Now              time.Time
	DefaultThreshold int64
}

// ClaimControl describes how the claim control is rendered
type ClaimControl struct {
	Visible   bool   `json:"visible"`
	Enabled   bool   `json:"enabled"`
	Reason    Reason `json:"reason,omitempty"`
	Threshold int64  `json:"threshold"`
}

// Evaluate decides whether the claim control is shown and enabled. The control
// is visible only for a score at or above the threshold. Pool problems are
// reported whatever the score; the daily limit is checked last and skipped for
// unlimited claimers.
func Evaluate(in Eligibility) ClaimControl {
	ctl := ClaimControl{Threshold: Threshold(in.Snapshot, in.DefaultThreshold)}
	ctl.Visible = in.HasScore && in.Score >= ctl.Threshold

	switch {
	case in.Snapshot == nil:
		ctl.Reason = ReasonPoolUnavailable
	case in.Snapshot.Insufficient():
		ctl.Reason = ReasonPoolInsufficient
	case !in.HasScore:
		ctl.Reason = ReasonNoScore
	case !ctl.Visible:
		ctl.Reason = ReasonScoreTooLow
	case in.Account != nil && in.Account.ClaimedOn(models.DayIndex(in.Now)):
		ctl.Reason = ReasonAlreadyClaimed
	}

	ctl.Enabled = ctl.Visible && ctl.Reason == ReasonNone
	return ctl
}

// Threshold returns the pool's score threshold, or the fallback when the
// snapshot does not carry one
func Threshold(snap *models.PoolSnapshot, fallback int64) int64 {
	if snap == nil || snap.Stats.ScoreThreshold == nil || snap.Stats.ScoreThreshold.Sign() == 0 || !snap.Stats.ScoreThreshold.IsInt64() {
		return fallback
	}
	return snap.Stats.ScoreThreshold.Int64()
}

func tokenFloat(v *big.Int) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), big.NewFloat(1e18)).Float64()
	return f, true
}
