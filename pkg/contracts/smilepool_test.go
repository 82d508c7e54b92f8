package contracts

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmilePoolEventIDs(t *testing.T) {
	parsed, err := ParseSmilePoolABI()
	require.NoError(t, err)

	assert.Equal(t,
		crypto.Keccak256Hash([]byte("SmileSubmitted(address,uint256,uint256,string,uint256)")),
		parsed.Events[EventSmileSubmitted].ID)
	assert.Equal(t,
		crypto.Keccak256Hash([]byte("Donated(address,uint256)")),
		parsed.Events[EventDonated].ID)
}

func TestSmilePoolMethodSelectors(t *testing.T) {
	parsed, err := ParseSmilePoolABI()
	require.NoError(t, err)

	tests := map[string]string{
		"claimReward":  "claimReward(uint256,uint256,string)",
		"donate":       "donate(uint256)",
		"getUserNonce": "getUserNonce(address)",
		"lastClaimDay": "lastClaimDay(address)",
	}
	for method, signature := range tests {
		t.Run(method, func(t *testing.T) {
			m, ok := parsed.Methods[method]
			require.True(t, ok)
			assert.Equal(t, crypto.Keccak256([]byte(signature))[:4], m.ID)
		})
	}
}

func TestParseSmileSubmitted(t *testing.T) {
	parsed, err := ParseSmilePoolABI()
	require.NoError(t, err)

	smiler := common.HexToAddress("0x1111111111111111111111111111111111111111")
	evt := parsed.Events[EventSmileSubmitted]
	data, err := evt.Inputs.NonIndexed().Pack(big.NewInt(82), big.NewInt(10), "cheese", big.NewInt(4))
	require.NoError(t, err)

	filterer, err := NewSmilePoolFilterer(common.Address{}, nil)
	require.NoError(t, err)

	got, err := filterer.ParseSmileSubmitted(types.Log{
		Topics: []common.Hash{evt.ID, common.BytesToHash(smiler.Bytes())},
		Data:   data,
	})
	require.NoError(t, err)

	assert.Equal(t, smiler, got.Smiler)
	assert.Equal(t, int64(82), got.Score.Int64())
	assert.Equal(t, "cheese", got.Message)
	assert.Equal(t, int64(4), got.FeedIndex.Int64())
}

// fakeCaller answers every call with a fixed return payload
type fakeCaller struct {
	out   []byte
	calls []ethereum.CallMsg
}

var _ bind.ContractCaller = (*fakeCaller)(nil)

func (f *fakeCaller) CodeAt(_ context.Context, _ common.Address, _ *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, call)
	return f.out, nil
}

func TestGetPoolStatsDecodesAllFields(t *testing.T) {
	parsed, err := ParseSmilePoolABI()
	require.NoError(t, err)

	values := []interface{}{}
	for i := int64(1); i <= 8; i++ {
		values = append(values, big.NewInt(i*100))
	}
	out, err := parsed.Methods["getPoolStats"].Outputs.Pack(values...)
	require.NoError(t, err)

	pool := common.HexToAddress("0xFAACE8aD6dFE99023142d16eCe92408D9a2C7E30")
	caller := &fakeCaller{out: out}
	binding, err := NewSmilePoolCaller(pool, caller)
	require.NoError(t, err)

	stats, err := binding.GetPoolStats(&bind.CallOpts{})
	require.NoError(t, err)

	assert.Equal(t, int64(100), stats.PoolBalance.Int64())
	assert.Equal(t, int64(200), stats.RewardAmount.Int64())
	assert.Equal(t, int64(300), stats.ScoreThreshold.Int64())
	assert.Equal(t, int64(800), stats.TotalDonations.Int64())
	require.Len(t, caller.calls, 1)
	assert.Equal(t, pool, *caller.calls[0].To)
	assert.Equal(t, parsed.Methods["getPoolStats"].ID, caller.calls[0].Data)
}
