package mempool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smilepool/smilepool-executor/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxID = "4c1fa6f4e3d2b1a09f8e7d6c5b4a39281706f5e4d3c2b1a09f8e7d6c5b4a3928"

// explorer serves a transaction that confirms after a number of polls
type explorer struct {
	confirmAfter int32
	height       uint64
	tip          uint64
	polls        atomic.Int32
	failFirst    bool
}

func (e *explorer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tx/"+testTxID+"/status", func(w http.ResponseWriter, r *http.Request) {
		n := e.polls.Add(1)
		if e.failFirst && n == 1 {
			http.Error(w, "upstream", http.StatusBadGateway)
			return
		}
		if n <= e.confirmAfter {
			fmt.Fprint(w, `{"confirmed":false}`)
			return
		}
		fmt.Fprintf(w, `{"confirmed":true,"block_height":%d,"block_hash":"00ab","block_time":1700000000}`, e.height)
	})
	mux.HandleFunc("/blocks/tip/height", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%d", e.tip)
	})
	return mux
}

func newTestClient(t *testing.T, e *explorer, timeout time.Duration) *Client {
	srv := httptest.NewServer(e.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", timeout, 10*time.Millisecond, &logger.EmptyLogger{})
}

func TestTxStatusAndTip(t *testing.T) {
	c := newTestClient(t, &explorer{height: 100, tip: 102}, time.Second)

	status, err := c.TxStatus(context.Background(), testTxID)
	require.NoError(t, err)
	assert.True(t, status.Confirmed)
	assert.Equal(t, uint64(100), status.BlockHeight)

	tip, err := c.TipHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(102), tip)
	assert.Equal(t, uint64(3), status.Depth(tip))
}

func TestTxStatusNotFound(t *testing.T) {
	c := newTestClient(t, &explorer{}, time.Second)
	_, err := c.TxStatus(context.Background(), "ff")
	assert.True(t, errors.Is(err, errNotFound))
}

func TestWaitForConfirmation(t *testing.T) {
	e := &explorer{confirmAfter: 2, height: 100, tip: 100, failFirst: true}
	c := newTestClient(t, e, 5*time.Second)

	require.NoError(t, c.WaitForConfirmation(context.Background(), testTxID, 1))
	assert.GreaterOrEqual(t, e.polls.Load(), int32(3))
}

func TestWaitForConfirmationDepth(t *testing.T) {
	tests := []struct {
		name    string
		tip     uint64
		depth   int
		wantErr error
	}{
		{name: "depth reached", tip: 102, depth: 3},
		{name: "depth not reached", tip: 101, depth: 3, wantErr: ErrConfirmationTimeout},
		{name: "zero depth means one", tip: 100, depth: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &explorer{height: 100, tip: tt.tip}, 100*time.Millisecond)
			err := c.WaitForConfirmation(context.Background(), testTxID, tt.depth)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWaitForConfirmationTimeout(t *testing.T) {
	c := newTestClient(t, &explorer{confirmAfter: 1 << 30}, 50*time.Millisecond)

	start := time.Now()
	err := c.WaitForConfirmation(context.Background(), testTxID, 1)
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitForConfirmationCancelled(t *testing.T) {
	c := newTestClient(t, &explorer{confirmAfter: 1 << 30}, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.WaitForConfirmation(ctx, testTxID, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, ErrConfirmationTimeout))
}
