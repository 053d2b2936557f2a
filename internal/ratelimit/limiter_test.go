package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T) (*Limiter, *clock) {
	store := NewMemoryStore(time.Hour)
	t.Cleanup(store.Stop)
	c := &clock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	return NewLimiter(store, WithClock(c.now)), c
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := limiter.Allow(ctx, "u1", ActionImport)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 5-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "u1", ActionImport)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Hour, d.RetryAfter)
	assert.Equal(t, "Too many imports. Please wait before importing again.", d.Message)
}

func TestLimiter_WindowReset(t *testing.T) {
	limiter, c := newTestLimiter(t)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "u1", ActionEnrich)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	c.advance(2 * time.Minute)
	d, err = limiter.Allow(ctx, "u1", ActionEnrich)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 3*time.Minute, d.RetryAfter)

	c.advance(3*time.Minute + time.Second)
	d, err = limiter.Allow(ctx, "u1", ActionEnrich)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_KeysIsolated(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "u1", ActionEnrich)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "u2", ActionEnrich)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "other user has its own window")

	d, err = limiter.Allow(ctx, "u1", ActionLookup)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "other action has its own window")
}

func TestLimiter_CustomRuleAndUnknownAction(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	limiter := NewLimiter(store, WithRule(ActionSearch, Rule{Limit: 1, Window: time.Second, Message: "slow down"}))

	rule, ok := limiter.Rule(ActionSearch)
	require.True(t, ok)
	assert.Equal(t, 1, rule.Limit)

	_, err := limiter.Allow(context.Background(), "u1", Action("export"))
	assert.Error(t, err)
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration, time.Time) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("unavailable")
}

func TestLimiter_StoreError(t *testing.T) {
	limiter := NewLimiter(failingStore{})
	_, err := limiter.Allow(context.Background(), "u1", ActionLookup)
	assert.Error(t, err)
}

func TestMemoryStore_Cleanup(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Stop()
	now := time.Now()

	_, _, err := store.Increment(context.Background(), "a", time.Minute, now)
	require.NoError(t, err)
	_, _, err = store.Increment(context.Background(), "b", time.Hour, now)
	require.NoError(t, err)

	store.cleanup(now.Add(2 * time.Minute))
	assert.Equal(t, 1, store.size())

	store.Stop()
	store.Stop()
}

func TestKey(t *testing.T) {
	assert.Equal(t, "lookup:user-1", Key(ActionLookup, "user-1"))
}
