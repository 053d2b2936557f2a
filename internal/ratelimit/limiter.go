// Package ratelimit throttles user-triggered actions with fixed windows.
//
// A Limiter holds the per-action rules and delegates counting to a Store, so
// a single process can use the in-memory store while several instances
// sharing a database use the database-backed one.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Action names a throttled kind of request.
type Action string

const (
	ActionLookup Action = "lookup"
	ActionSearch Action = "search"
	ActionImport Action = "import"
	ActionEnrich Action = "enrich"
)

// Rule allows Limit requests per Window.
type Rule struct {
	Limit   int
	Window  time.Duration
	Message string
}

// DefaultRules returns the built-in limits for every action.
func DefaultRules() map[Action]Rule {
	return map[Action]Rule{
		ActionLookup: {Limit: 30, Window: time.Minute, Message: "Too many lookup requests"},
		ActionSearch: {Limit: 20, Window: time.Minute, Message: "Too many search requests"},
		ActionImport: {Limit: 5, Window: time.Hour, Message: "Too many imports. Please wait before importing again."},
		ActionEnrich: {Limit: 1, Window: 5 * time.Minute, Message: "Enrichment already in progress"},
	}
}

// Store counts hits per key within a window.
type Store interface {
	// Increment records a hit and returns the count in the current window
	// and when that window ends. An expired window restarts at now.
	Increment(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error)
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Message    string
}

// Limiter applies rules to users.
type Limiter struct {
	store Store
	rules map[Action]Rule
	now   func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithRule overrides the rule for one action.
func WithRule(action Action, rule Rule) Option {
	return func(l *Limiter) { l.rules[action] = rule }
}

func NewLimiter(store Store, opts ...Option) *Limiter {
	l := &Limiter{
		store: store,
		rules: DefaultRules(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key is the counter key for a user and action.
func Key(action Action, userID string) string {
	return string(action) + ":" + userID
}

// Allow counts one request by userID for action. Every call is counted, even
// rejected ones.
func (l *Limiter) Allow(ctx context.Context, userID string, action Action) (Decision, error) {
	rule, ok := l.rules[action]
	if !ok {
		return Decision{}, fmt.Errorf("no rate limit rule for action %q", action)
	}

	now := l.now()
	count, resetAt, err := l.store.Increment(ctx, Key(action, userID), rule.Window, now)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit store: %w", err)
	}

	d := Decision{
		Allowed:   count <= rule.Limit,
		Remaining: max(rule.Limit-count, 0),
		ResetAt:   resetAt,
	}
	if !d.Allowed {
		d.RetryAfter = max(resetAt.Sub(now), 0)
		d.Message = rule.Message
	}
	return d, nil
}

// Rule returns the configured rule for action.
func (l *Limiter) Rule(action Action) (Rule, bool) {
	r, ok := l.rules[action]
	return r, ok
}
