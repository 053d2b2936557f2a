package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sjohnston82/tome-tracker1/internal/offline"
)

// LibrarySyncer refreshes the local mirror from the server.
type LibrarySyncer interface {
	Sync(ctx context.Context) (*offline.Result, error)
}

// Prober checks whether the server is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}

type MirrorSyncConfig struct {
	Schedule      string
	SyncTimeout   time.Duration
	ProbeInterval time.Duration
}

// MirrorSyncScheduler keeps the offline mirror fresh. It syncs on a cron
// schedule while online and probes the server while offline, syncing as
// soon as the server answers again.
type MirrorSyncScheduler struct {
	library LibrarySyncer
	prober  Prober
	network *offline.NetworkState
	config  MirrorSyncConfig

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	lastResult *offline.Result
	lastError  error
}

func NewMirrorSyncScheduler(library LibrarySyncer, prober Prober, network *offline.NetworkState, cfg MirrorSyncConfig) *MirrorSyncScheduler {
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = 30 * time.Second
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 30 * time.Second
	}
	return &MirrorSyncScheduler{
		library: library,
		prober:  prober,
		network: network,
		config:  cfg,
		cron:    cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start schedules the sync and probe jobs. It stops when ctx is cancelled.
func (s *MirrorSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID
	s.cron.Schedule(cron.Every(s.config.ProbeInterval), cron.FuncJob(func() {
		s.probe(ctx)
	}))

	s.network.Subscribe(func(online bool) {
		if online {
			log.Printf("[MIRROR] Server reachable again, syncing")
			go s.runSync(ctx)
		} else {
			log.Printf("[MIRROR] Server unreachable, serving cached library")
		}
	})

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.config.Schedule, time.Now())
	log.Printf("[MIRROR] Sync scheduler started with schedule '%s' (%s). Next run: %v",
		s.config.Schedule, CronDescription(s.config.Schedule), nextRun)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for running jobs and stops the scheduler.
func (s *MirrorSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.isRunning = false

	log.Printf("[MIRROR] Sync scheduler stopped")
}

// RunNow triggers an immediate sync in the background.
func (s *MirrorSyncScheduler) RunNow(ctx context.Context) {
	go s.runSync(ctx)
}

func (s *MirrorSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *MirrorSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// LastResult returns the outcome of the most recent sync attempt.
func (s *MirrorSyncScheduler) LastResult() (*offline.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult, s.lastError
}

func (s *MirrorSyncScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *MirrorSyncScheduler) runSync(ctx context.Context) {
	if !s.network.Online() {
		log.Printf("[MIRROR] Sync skipped (offline)")
		return
	}

	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("[MIRROR] Sync skipped (already syncing)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	startTime := time.Now()
	result, err := s.library.Sync(ctx)

	s.mu.Lock()
	s.isSyncing = false
	s.lastResult, s.lastError = result, err
	s.mu.Unlock()

	if err != nil {
		log.Printf("[MIRROR] Sync failed: %v", err)
		return
	}

	books := 0
	for _, a := range result.Authors {
		books += len(a.Books)
	}
	log.Printf("[MIRROR] Synced %d authors and %d books in %v",
		len(result.Authors), books, time.Since(startTime).Round(time.Millisecond))
}

// probe flips the network state back online once the server answers.
func (s *MirrorSyncScheduler) probe(ctx context.Context) {
	if s.network.Online() {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.config.SyncTimeout)
	defer cancel()

	if err := s.prober.Ping(probeCtx); err != nil {
		return
	}
	s.network.SetOnline(true)
}
