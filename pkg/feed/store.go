// Package feed keeps the off-chain records of claims: one profile photo per
// address and an append-only list of feed entries.
package feed

import (
	"context"
	"errors"
	"strings"

	"github.com/smilepool/smilepool-executor/pkg/models"
)

const (
	// PhotoBatchSize bounds the addresses looked up per query
	PhotoBatchSize = 30
	// DefaultLimit is the number of entries listed when no limit is given
	DefaultLimit = 20
	// MaxLimit caps a single listing
	MaxLimit = 200
)

// ErrInvalidAddress is returned for an empty address
var ErrInvalidAddress = errors.New("address is required")

// Filter narrows a listing of feed entries
type Filter struct {
	Address  string
	MinScore int64
	Limit    int
}

// Store persists the off-chain feed
type Store interface {
	SaveProfilePhoto(ctx context.Context, photo models.ProfilePhoto) error
	ProfilePhoto(ctx context.Context, address string) (*models.ProfilePhoto, error)
	ProfilePhotos(ctx context.Context, addresses []string) (map[string]models.ProfilePhoto, error)
	Append(ctx context.Context, entry models.FeedEntry) error
	List(ctx context.Context, filter Filter) ([]models.FeedEntry, error)
	Close()
}

// normalizeAddress lowercases an address so lookups are case-insensitive
func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

// chunks splits the unique normalized addresses into batches of PhotoBatchSize
func chunks(addresses []string) [][]string {
	seen := make(map[string]struct{}, len(addresses))
	unique := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = normalizeAddress(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		unique = append(unique, a)
	}

	var out [][]string
	for len(unique) > 0 {
		n := min(PhotoBatchSize, len(unique))
		out = append(out, unique[:n])
		unique = unique[n:]
	}
	return out
}
