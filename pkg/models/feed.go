package models

import (
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FeedEntry is one off-chain record of a successful claim
type FeedEntry struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	PhotoURL    string    `json:"photo_url"`
	Score       int64     `json:"score"`
	Message     string    `json:"message"`
	TxHash      string    `json:"tx_hash"`
	ExplorerURL string    `json:"explorer_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfilePhoto is the single stored photo for an address
type ProfilePhoto struct {
	Address   string    `json:"address"`
	PhotoURL  string    `json:"photo_url"`
	BestScore int64     `json:"best_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SmileRecord is an on-chain feed item
type SmileRecord struct {
	Smiler    common.Address `json:"smiler"`
	Score     int64          `json:"score"`
	Reward    *big.Int       `json:"reward"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
}

// DonationRecord is an on-chain donation item
type DonationRecord struct {
	Donor     common.Address `json:"donor"`
	Amount    *big.Int       `json:"amount"`
	Timestamp time.Time      `json:"timestamp"`
}

// TopSmiler is one leaderboard row
type TopSmiler struct {
	Address     common.Address `json:"address"`
	BestScore   int64          `json:"best_score"`
	TotalSmiles int64          `json:"total_smiles"`
	TotalEarned *big.Int       `json:"total_earned"`
}

// TopDonor aggregates the donations of one donor
type TopDonor struct {
	Address       common.Address `json:"address"`
	TotalDonated  *big.Int       `json:"total_donated"`
	DonationCount int            `json:"donation_count"`
	LastDonation  time.Time      `json:"last_donation"`
}

// AggregateDonors groups donations by donor and orders donors by total donated,
// highest first. Donors with equal totals keep the order of their first donation
// in records.
func AggregateDonors(records []DonationRecord) []TopDonor {
	index := make(map[common.Address]int, len(records))
	donors := make([]TopDonor, 0, len(records))

	for _, r := range records {
		amount := r.Amount
		if amount == nil {
			amount = new(big.Int)
		}
		i, ok := index[r.Donor]
		if !ok {
			index[r.Donor] = len(donors)
			donors = append(donors, TopDonor{
				Address:       r.Donor,
				TotalDonated:  new(big.Int).Set(amount),
				DonationCount: 1,
				LastDonation:  r.Timestamp,
			})
			continue
		}
		d := &donors[i]
		d.TotalDonated.Add(d.TotalDonated, amount)
		d.DonationCount++
		if r.Timestamp.After(d.LastDonation) {
			d.LastDonation = r.Timestamp
		}
	}

	sort.SliceStable(donors, func(a, b int) bool {
		return donors[a].TotalDonated.Cmp(donors[b].TotalDonated) > 0
	})
	return donors
}

// TokenBalance is an account's balance of one ERC20 token
type TokenBalance struct {
	Token    common.Address `json:"token"`
	Symbol   string         `json:"symbol,omitempty"`
	Decimals int            `json:"decimals"`
	Balance  *big.Int       `json:"balance"`
}

// Display formats the balance in whole tokens
func (b TokenBalance) Display() string {
	return FormatUnits(b.Balance, b.Decimals)
}
