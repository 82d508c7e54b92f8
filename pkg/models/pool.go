package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenDecimals is the precision of the pool's reward and donation amounts
const TokenDecimals = 18

// SecondsPerDay converts a unix timestamp into the pool's claim-day index
const SecondsPerDay = 86400

// PoolStats holds the eight aggregate values reported by the pool contract
type PoolStats struct {
	PoolBalance    *big.Int
	RewardAmount   *big.Int
	ScoreThreshold *big.Int
	TotalDonated   *big.Int
	TotalClaimed   *big.Int
	TotalSmiles    *big.Int
	TotalSmilers   *big.Int
	TotalDonations *big.Int
}

// PoolSnapshot is a point-in-time copy of the pool's aggregate state.
// Snapshots are replaced wholesale and never mutated after creation.
type PoolSnapshot struct {
	Pool      common.Address
	Stats     PoolStats
	FetchedAt time.Time
}

// Insufficient reports whether the pool cannot pay one reward
func (s *PoolSnapshot) Insufficient() bool {
	if s.Stats.PoolBalance == nil || s.Stats.RewardAmount == nil {
		return true
	}
	return s.Stats.PoolBalance.Cmp(s.Stats.RewardAmount) < 0
}

// PoolDisplay is the presentation form of a snapshot
type PoolDisplay struct {
	Pool           string `json:"pool"`
	PoolBalance    string `json:"pool_balance"`
	PoolBalanceRaw string `json:"pool_balance_raw"`
	RewardAmount   string `json:"reward_amount"`
	ScoreThreshold string `json:"score_threshold"`
	TotalDonated   string `json:"total_donated"`
	TotalClaimed   string `json:"total_claimed"`
	TotalSmiles    string `json:"total_smiles"`
	TotalSmilers   string `json:"total_smilers"`
	TotalDonations string `json:"total_donations"`
	FetchedAt      string `json:"fetched_at"`
}

// Display formats the snapshot deterministically. Counts are plain integers,
// token amounts are shown in whole units.
func (s *PoolSnapshot) Display() PoolDisplay {
	return PoolDisplay{
		Pool:           s.Pool.Hex(),
		PoolBalance:    FormatUnits(s.Stats.PoolBalance, TokenDecimals),
		PoolBalanceRaw: intString(s.Stats.PoolBalance),
		RewardAmount:   FormatUnits(s.Stats.RewardAmount, TokenDecimals),
		ScoreThreshold: intString(s.Stats.ScoreThreshold),
		TotalDonated:   FormatUnits(s.Stats.TotalDonated, TokenDecimals),
		TotalClaimed:   FormatUnits(s.Stats.TotalClaimed, TokenDecimals),
		TotalSmiles:    intString(s.Stats.TotalSmiles),
		TotalSmilers:   intString(s.Stats.TotalSmilers),
		TotalDonations: intString(s.Stats.TotalDonations),
		FetchedAt:      s.FetchedAt.UTC().Format(time.RFC3339),
	}
}

// AccountState is the per-user claim state, read fresh before every claim
type AccountState struct {
	Address      common.Address `json:"address"`
	Nonce        *big.Int       `json:"nonce"`
	LastClaimDay uint64         `json:"last_claim_day"`
	Unlimited    bool           `json:"unlimited"`
}

// ClaimedOn reports whether the account already claimed on the given day
func (a *AccountState) ClaimedOn(day uint64) bool {
	return !a.Unlimited && a.LastClaimDay == day
}

// DayIndex returns the claim-day index of t
func DayIndex(t time.Time) uint64 {
	return uint64(t.Unix()) / SecondsPerDay
}

func intString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
