package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs the catalog's background queues on a SQLite database of its own.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int
	started  atomic.Bool
}

// NewClient opens the queue database beside catalogPath (see QueuePath) and
// installs the backlite schema. Unset Config fields take their defaults.
func NewClient(catalogPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	db, err := openQueueDB(QueuePath(catalogPath), cfg.Workers)
	if err != nil {
		return nil, err
	}

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err == nil {
		err = bl.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up task queue: %w", err)
	}

	return &Client{backlite: bl, db: db, workers: cfg.Workers}, nil
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	// One connection per worker plus headroom for enqueues and status reads.
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Register adds queues. Must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start runs the workers until ctx is cancelled or Stop is called. Only the
// first call has any effect.
func (c *Client) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[TASK] Queue started with %d workers", c.workers)
	c.backlite.Start(ctx)
}

// Stop waits for running tasks. It reports false when ctx expired first.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.started.Load() {
		return true
	}

	log.Println("[TASK] Stopping queue...")
	if c.backlite.Stop(ctx) {
		log.Println("[TASK] Queue stopped")
		return true
	}
	log.Println("[TASK] Queue stop timed out, some tasks did not finish")
	return false
}

// Close releases the queue database. Call after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.backlite.Add(tasks...)
}

// EnqueueEnrichLibrary queues an enrichment run for userID and returns the task ID.
func (c *Client) EnqueueEnrichLibrary(ctx context.Context, userID string) (string, error) {
	return c.enqueueOne(ctx, EnrichLibraryTask{UserID: userID})
}

// EnqueueCleanupRateLimits queues a sweep of expired rate limit counters.
func (c *Client) EnqueueCleanupRateLimits(ctx context.Context) (string, error) {
	return c.enqueueOne(ctx, CleanupRateLimitsTask{})
}

func (c *Client) enqueueOne(ctx context.Context, task backlite.Task) (string, error) {
	ids, err := c.backlite.Add(task).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Config().Name, err)
	}
	if len(ids) == 0 {
		return "", errors.New("enqueue " + task.Config().Name + ": no task id returned")
	}
	return ids[0], nil
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.backlite.Status(ctx, taskID)
}

// queueLogger prints backlite's key/value log calls as "message k=v ...".
type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Print("[TASK] " + formatLogLine(message, params))
}

func (queueLogger) Error(message string, params ...any) {
	log.Print("[TASK ERROR] " + formatLogLine(message, params))
}

func formatLogLine(message string, params []any) string {
	var b strings.Builder
	b.WriteString(message)
	for i := 0; i < len(params); i += 2 {
		if i+1 < len(params) {
			fmt.Fprintf(&b, " %v=%v", params[i], params[i+1])
		} else {
			fmt.Fprintf(&b, " %v", params[i])
		}
	}
	return b.String()
}
