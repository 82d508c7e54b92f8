package feed

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/smilepool/smilepool-executor/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0xAbC0000000000000000000000000000000000001"
	bob   = "0xabc0000000000000000000000000000000000002"
)

// exerciseStore runs the shared behaviour checks against a store
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	missing, err := store.ProfilePhoto(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.SaveProfilePhoto(ctx, models.ProfilePhoto{Address: alice, PhotoURL: "https://p/1.jpg", BestScore: 90, UpdatedAt: base}))
	require.NoError(t, store.SaveProfilePhoto(ctx, models.ProfilePhoto{Address: alice, PhotoURL: "https://p/2.jpg", BestScore: 80, UpdatedAt: base.Add(time.Hour)}))

	photo, err := store.ProfilePhoto(ctx, "0xabc0000000000000000000000000000000000001")
	require.NoError(t, err)
	require.NotNil(t, photo)
	assert.Equal(t, "https://p/2.jpg", photo.PhotoURL)
	assert.Equal(t, int64(90), photo.BestScore)

	for i, e := range []struct {
		address string
		score   int64
	}{{alice, 82}, {bob, 60}, {alice, 95}} {
		require.NoError(t, store.Append(ctx, models.FeedEntry{
			Address:   e.address,
			Score:     e.score,
			Message:   fmt.Sprintf("smile %d", i),
			TxHash:    fmt.Sprintf("0x%064d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "smile 2", all[0].Message)
	assert.Equal(t, "smile 0", all[2].Message)
	assert.NotEmpty(t, all[0].ID)

	mine, err := store.List(ctx, Filter{Address: alice, MinScore: 90})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(95), mine[0].Score)

	limited, err := store.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	assert.ErrorIs(t, store.Append(ctx, models.FeedEntry{}), ErrInvalidAddress)
	assert.ErrorIs(t, store.SaveProfilePhoto(ctx, models.ProfilePhoto{}), ErrInvalidAddress)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestProfilePhotosBatches(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var addresses []string
	for i := 0; i < 75; i++ {
		address := fmt.Sprintf("0x%040x", i)
		addresses = append(addresses, address)
		if i%2 == 0 {
			require.NoError(t, store.SaveProfilePhoto(ctx, models.ProfilePhoto{Address: address, PhotoURL: "https://p"}))
		}
	}
	addresses = append(addresses, addresses[0], "")

	photos, err := store.ProfilePhotos(ctx, addresses)
	require.NoError(t, err)
	assert.Len(t, photos, 38)
}

func TestChunks(t *testing.T) {
	var addresses []string
	for i := 0; i < 65; i++ {
		addresses = append(addresses, fmt.Sprintf("0x%040X", i))
	}

	batches := chunks(addresses)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], PhotoBatchSize)
	assert.Len(t, batches[2], 5)
	assert.Equal(t, "0x000000000000000000000000000000000000000a", batches[0][10])
	assert.Empty(t, chunks(nil))
}

func TestFilterLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, Filter{}.limit())
	assert.Equal(t, MaxLimit, Filter{Limit: 10000}.limit())
	assert.Equal(t, 5, Filter{Limit: 5}.limit())
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("FEED_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FEED_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.pool.Exec(ctx, `TRUNCATE profile_photos, feed_entries`)
	require.NoError(t, err)

	exerciseStore(t, store)
}

func TestNewPostgresStoreRequiresDSN(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), "")
	assert.Error(t, err)
}
