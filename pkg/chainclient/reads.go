package chainclient

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/smilepool/smilepool-executor/pkg/contracts"
	"github.com/smilepool/smilepool-executor/pkg/metrics"
	"github.com/smilepool/smilepool-executor/pkg/models"
)

// MaxListCount bounds the feed and leaderboard reads
const MaxListCount = 100

// DonorWindow is how many recent donations the top donors are aggregated over
const DonorWindow = 50

func (c *Client) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

// PoolStats reads the pool's aggregate state
func (c *Client) PoolStats(ctx context.Context) (models.PoolStats, error) {
	stats, err := c.Pool.GetPoolStats(c.callOpts(ctx))
	if err != nil {
		return models.PoolStats{}, fmt.Errorf("failed to read pool stats: %w", err)
	}
	return models.PoolStats{
		PoolBalance:    stats.PoolBalance,
		RewardAmount:   stats.RewardAmount,
		ScoreThreshold: stats.ScoreThreshold,
		TotalDonated:   stats.TotalDonated,
		TotalClaimed:   stats.TotalClaimed,
		TotalSmiles:    stats.TotalSmiles,
		TotalSmilers:   stats.TotalSmilers,
		TotalDonations: stats.TotalDonations,
	}, nil
}

// UserNonce reads the pool's claim nonce for the user
func (c *Client) UserNonce(ctx context.Context, user common.Address) (*big.Int, error) {
	nonce, err := c.Pool.GetUserNonce(c.callOpts(ctx), user)
	if err != nil {
		return nil, fmt.Errorf("failed to read nonce for %s: %w", user.Hex(), err)
	}
	return nonce, nil
}

// LastClaimDay reads the day index of the user's last claim
func (c *Client) LastClaimDay(ctx context.Context, user common.Address) (uint64, error) {
	day, err := c.Pool.LastClaimDay(c.callOpts(ctx), user)
	if err != nil {
		return 0, fmt.Errorf("failed to read last claim day for %s: %w", user.Hex(), err)
	}
	if !day.IsUint64() {
		return 0, fmt.Errorf("last claim day for %s out of range: %s", user.Hex(), day.String())
	}
	return day.Uint64(), nil
}

// IsUnlimitedClaimer reports whether the user is exempt from the daily limit
func (c *Client) IsUnlimitedClaimer(ctx context.Context, user common.Address) (bool, error) {
	unlimited, err := c.Pool.UnlimitedClaimers(c.callOpts(ctx), user)
	if err != nil {
		return false, fmt.Errorf("failed to read claimer status for %s: %w", user.Hex(), err)
	}
	return unlimited, nil
}

// AccountState reads the user's nonce, last claim day and claimer status
func (c *Client) AccountState(ctx context.Context, user common.Address) (*models.AccountState, error) {
	nonce, err := c.UserNonce(ctx, user)
	if err != nil {
		return nil, err
	}
	day, err := c.LastClaimDay(ctx, user)
	if err != nil {
		return nil, err
	}
	unlimited, err := c.IsUnlimitedClaimer(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.AccountState{
		Address:      user,
		Nonce:        nonce,
		LastClaimDay: day,
		Unlimited:    unlimited,
	}, nil
}

// RewardToken reads the address of the token paid out on claims
func (c *Client) RewardToken(ctx context.Context) (common.Address, error) {
	token, err := c.Pool.RewardToken(c.callOpts(ctx))
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to read reward token: %w", err)
	}
	return token, nil
}

// RecentSmiles reads the latest feed items, newest first
func (c *Client) RecentSmiles(ctx context.Context, count int) ([]models.SmileRecord, error) {
	entries, err := c.Pool.GetRecentSmiles(c.callOpts(ctx), big.NewInt(int64(clampCount(count))))
	if err != nil {
		return nil, fmt.Errorf("failed to read recent smiles: %w", err)
	}

	records := make([]models.SmileRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, models.SmileRecord{
			Smiler:    e.Smiler,
			Score:     e.Score.Int64(),
			Reward:    e.Reward,
			Message:   e.Message,
			Timestamp: unixTime(e.Timestamp),
		})
	}
	return records, nil
}

// RecentDonations reads the latest donations, newest first
func (c *Client) RecentDonations(ctx context.Context, count int) ([]models.DonationRecord, error) {
	entries, err := c.Pool.GetRecentDonations(c.callOpts(ctx), big.NewInt(int64(clampCount(count))))
	if err != nil {
		return nil, fmt.Errorf("failed to read recent donations: %w", err)
	}

	records := make([]models.DonationRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, models.DonationRecord{
			Donor:     e.Donor,
			Amount:    e.Amount,
			Timestamp: unixTime(e.Timestamp),
		})
	}
	return records, nil
}

// TopDonors aggregates the latest DonorWindow donations by donor, largest
// total first, and returns at most count donors
func (c *Client) TopDonors(ctx context.Context, count int) ([]models.TopDonor, error) {
	records, err := c.RecentDonations(ctx, DonorWindow)
	if err != nil {
		return nil, err
	}
	donors := models.AggregateDonors(records)
	if n := clampCount(count); len(donors) > n {
		donors = donors[:n]
	}
	return donors, nil
}

// TopSmilers reads the leaderboard
func (c *Client) TopSmilers(ctx context.Context, count int) ([]models.TopSmiler, error) {
	top, err := c.Pool.GetTopSmilers(c.callOpts(ctx), big.NewInt(int64(clampCount(count))))
	if err != nil {
		return nil, fmt.Errorf("failed to read top smilers: %w", err)
	}
	if len(top.BestScores) != len(top.Addrs) || len(top.TotalSmilesCounts) != len(top.Addrs) || len(top.TotalEarnedAmounts) != len(top.Addrs) {
		return nil, fmt.Errorf("malformed leaderboard: %d addresses, %d scores", len(top.Addrs), len(top.BestScores))
	}

	rows := make([]models.TopSmiler, 0, len(top.Addrs))
	for i, addr := range top.Addrs {
		rows = append(rows, models.TopSmiler{
			Address:     addr,
			BestScore:   top.BestScores[i].Int64(),
			TotalSmiles: top.TotalSmilesCounts[i].Int64(),
			TotalEarned: top.TotalEarnedAmounts[i],
		})
	}
	return rows, nil
}

// TokenBalance reads the owner's balance of an ERC20 token
func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (models.TokenBalance, error) {
	erc20, err := contracts.NewERC20Caller(token, &contractBackend{Backend: c.Backend})
	if err != nil {
		return models.TokenBalance{}, fmt.Errorf("failed to bind token %s: %v", token.Hex(), err)
	}

	balance, err := erc20.BalanceOf(c.callOpts(ctx), owner)
	if err != nil {
		return models.TokenBalance{}, fmt.Errorf("failed to get token balance: %w", err)
	}
	result := models.TokenBalance{Token: token, Balance: balance, Decimals: models.TokenDecimals}

	// Symbol and decimals are optional in ERC20
	if symbol, err := erc20.Symbol(c.callOpts(ctx)); err == nil {
		result.Symbol = symbol
	}
	if decimals, err := erc20.Decimals(c.callOpts(ctx)); err == nil {
		result.Decimals = int(decimals)
	}

	if result.Symbol != "" {
		balanceFloat, _ := new(big.Float).Quo(
			new(big.Float).SetInt(balance),
			new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(result.Decimals)), nil)),
		).Float64()
		metrics.TokenBalance.WithLabelValues(result.Symbol).Set(balanceFloat)
	}
	return result, nil
}

func clampCount(count int) int {
	if count <= 0 {
		return 10
	}
	if count > MaxListCount {
		return MaxListCount
	}
	return count
}

func unixTime(ts *big.Int) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return time.Unix(ts.Int64(), 0).UTC()
}
