package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/smilepool/smilepool-executor/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseTxID = "9a0c2f6e1b7d4c3a8e5f0b2d6c9a1e4f7b3d8c0a5e2f6b9d1c4a7e0f3b6d9c2a"

var (
	poolAddress    = common.HexToAddress("0xFAACE8aD6dFE99023142d16eCe92408D9a2C7E30")
	smileTopic     = crypto.Keccak256Hash([]byte("SmileSubmitted(address,uint256,uint256,string,uint256)"))
	donatedTopic   = crypto.Keccak256Hash([]byte("Donated(address,uint256)"))
	errUnreachable = errors.New("connection refused")
)

type fakeLogSource struct {
	height    uint64
	logs      []types.Log
	heightErr error
	filterErr error
	query     ethereum.FilterQuery
}

func (f *fakeLogSource) BlockNumber(context.Context) (uint64, error) {
	return f.height, f.heightErr
}

func (f *fakeLogSource) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.query = q
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	var out []types.Log
	for _, l := range f.logs {
		if len(q.Topics) > 0 && l.Topics[0] != q.Topics[0][0] {
			continue
		}
		if l.BlockNumber < q.FromBlock.Uint64() || l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func newTestResolver(t *testing.T, source LogSource) *Resolver {
	r, err := New(source, Config{
		Pool:        poolAddress,
		ExplorerURL: "https://blockscout.staging.midl.xyz/",
		MempoolURL:  "https://mempool.staging.midl.xyz",
	}, &logger.EmptyLogger{})
	require.NoError(t, err)
	return r
}

func TestResolveSingleLog(t *testing.T) {
	txHash := common.HexToHash("0xabc1")
	source := &fakeLogSource{
		height: 1000,
		logs:   []types.Log{{Topics: []common.Hash{smileTopic}, BlockNumber: 995, TxHash: txHash}},
	}
	r := newTestResolver(t, source)

	result := r.Resolve(context.Background(), models.ActionClaim, baseTxID)

	assert.True(t, result.Resolved)
	assert.True(t, result.HasExecutionHash())
	assert.Equal(t, txHash, result.ExecutionTxHash)
	assert.Equal(t, baseTxID, result.BaseTxID)
	assert.Equal(t, "https://blockscout.staging.midl.xyz/tx/"+txHash.Hex(), result.ExplorerURL)

	assert.Equal(t, uint64(980), source.query.FromBlock.Uint64())
	assert.Equal(t, uint64(1000), source.query.ToBlock.Uint64())
	assert.Equal(t, []common.Address{poolAddress}, source.query.Addresses)
}

func TestResolveEmptyWindowFallsBack(t *testing.T) {
	source := &fakeLogSource{
		height: 1000,
		// outside the window and of the wrong event
		logs: []types.Log{
			{Topics: []common.Hash{smileTopic}, BlockNumber: 900, TxHash: common.HexToHash("0x01")},
			{Topics: []common.Hash{donatedTopic}, BlockNumber: 999, TxHash: common.HexToHash("0x02")},
		},
	}
	r := newTestResolver(t, source)

	result := r.Resolve(context.Background(), models.ActionClaim, baseTxID)

	assert.False(t, result.Resolved)
	assert.False(t, result.HasExecutionHash())
	assert.Equal(t, baseTxID, result.BaseTxID)
	assert.Equal(t, "https://mempool.staging.midl.xyz/tx/"+baseTxID, result.ExplorerURL)
}

func TestResolveReadErrorsFallBack(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeLogSource
	}{
		{name: "block number", source: &fakeLogSource{heightErr: errUnreachable}},
		{name: "filter logs", source: &fakeLogSource{height: 10, filterErr: errUnreachable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.source)
			result := r.Resolve(context.Background(), models.ActionDonate, baseTxID)
			assert.False(t, result.Resolved)
			assert.Equal(t, r.FallbackURL(baseTxID), result.ExplorerURL)
		})
	}
}

func TestResolvePicksMostRecentLog(t *testing.T) {
	source := &fakeLogSource{
		height: 50,
		logs: []types.Log{
			{Topics: []common.Hash{donatedTopic}, BlockNumber: 48, Index: 7, TxHash: common.HexToHash("0x01")},
			{Topics: []common.Hash{donatedTopic}, BlockNumber: 49, Index: 0, TxHash: common.HexToHash("0x02")},
			{Topics: []common.Hash{donatedTopic}, BlockNumber: 49, Index: 3, TxHash: common.HexToHash("0x03")},
			{Topics: []common.Hash{donatedTopic}, BlockNumber: 50, Index: 1, TxHash: common.HexToHash("0x04"), Removed: true},
		},
	}
	r := newTestResolver(t, source)

	result := r.Resolve(context.Background(), models.ActionDonate, baseTxID)
	require.True(t, result.Resolved)
	assert.Equal(t, common.HexToHash("0x03"), result.ExecutionTxHash)
}

func TestResolveWindowClampsAtGenesis(t *testing.T) {
	source := &fakeLogSource{height: 5}
	r := newTestResolver(t, source)

	r.Resolve(context.Background(), models.ActionClaim, baseTxID)
	assert.Equal(t, uint64(0), source.query.FromBlock.Uint64())
}
