package offline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sjohnston82/tome-tracker1/internal/library"
)

// ErrOfflineUnavailable means there is no connection and nothing cached.
var ErrOfflineUnavailable = errors.New("offline and no cached library available")

type Source string

const (
	SourceNetwork Source = "network"
	SourceCache   Source = "cache"
)

// Fetcher downloads the catalog snapshot from the server.
type Fetcher interface {
	FetchLibrary(ctx context.Context) (*library.SyncResponse, error)
}

// Result is the library as the client should display it.
type Result struct {
	Source   Source       `json:"source"`
	Stale    bool         `json:"stale"`
	Authors  []AuthorNode `json:"authors"`
	LastSync *time.Time   `json:"lastSync"`
}

// Library serves the catalog from the server when it can and from the
// mirror otherwise.
type Library struct {
	mirror  *Mirror
	fetcher Fetcher
	network *NetworkState
	timeout time.Duration
	now     func() time.Time
}

func NewLibrary(mirror *Mirror, fetcher Fetcher, network *NetworkState, timeout time.Duration) *Library {
	return &Library{
		mirror:  mirror,
		fetcher: fetcher,
		network: network,
		timeout: timeout,
		now:     time.Now,
	}
}

// Get returns the server's library and refreshes the mirror when online.
// When offline, or when the fetch fails or times out, it falls back to the
// mirror and marks the result stale.
func (l *Library) Get(ctx context.Context) (*Result, error) {
	if l.network.Online() {
		result, err := l.Sync(ctx)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[MIRROR] Sync failed, using cached library: %v", err)
	}
	return l.Cached(ctx)
}

// Sync fetches the snapshot and replaces the mirror with it. A transport
// failure marks the network offline.
func (l *Library) Sync(ctx context.Context) (*Result, error) {
	fetchCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	resp, err := l.fetcher.FetchLibrary(fetchCtx)
	if err != nil {
		var statusErr *StatusError
		if !errors.As(err, &statusErr) && ctx.Err() == nil {
			l.network.SetOnline(false)
		}
		return nil, fmt.Errorf("fetch library: %w", err)
	}

	authors, books := Flatten(&resp.Snapshot)
	syncedAt := l.now().UTC()
	if err := l.mirror.Replace(ctx, authors, books, syncedAt); err != nil {
		// The server data is still good; only the cache is behind.
		log.Printf("[MIRROR] Failed to update local mirror: %v", err)
	}

	return &Result{
		Source:   SourceNetwork,
		Authors:  BuildTree(authors, books),
		LastSync: &syncedAt,
	}, nil
}

// Cached reads the mirror. An empty, never-synced mirror is ErrOfflineUnavailable.
func (l *Library) Cached(ctx context.Context) (*Result, error) {
	tree, lastSync, err := l.mirror.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}
	if lastSync == nil && len(tree) == 0 {
		return nil, ErrOfflineUnavailable
	}
	return &Result{
		Source:   SourceCache,
		Stale:    true,
		Authors:  tree,
		LastSync: lastSync,
	}, nil
}
