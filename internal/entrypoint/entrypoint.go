package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/sjohnston82/tome-tracker1/internal/auth"
	"github.com/sjohnston82/tome-tracker1/internal/config"
	"github.com/sjohnston82/tome-tracker1/internal/database"
	"github.com/sjohnston82/tome-tracker1/internal/database/authors"
	"github.com/sjohnston82/tome-tracker1/internal/database/books"
	ratelimitdb "github.com/sjohnston82/tome-tracker1/internal/database/ratelimit"
	syncdb "github.com/sjohnston82/tome-tracker1/internal/database/sync"
	"github.com/sjohnston82/tome-tracker1/internal/database/users"
	"github.com/sjohnston82/tome-tracker1/internal/entities"
	http_controllers "github.com/sjohnston82/tome-tracker1/internal/http"
	"github.com/sjohnston82/tome-tracker1/internal/library"
	"github.com/sjohnston82/tome-tracker1/internal/metadata"
	"github.com/sjohnston82/tome-tracker1/internal/ratelimit"
	"github.com/sjohnston82/tome-tracker1/internal/services"
	"github.com/sjohnston82/tome-tracker1/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is SIGINT, plain kill is SIGTERM; SIGKILL can't be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so in-flight tasks finish first.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the catalog server from cfg and blocks until it is shut down.
func Run(cfg *config.Config, version string) error {
	log.Printf("Starting Tome Tracker v%s", version)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	authorRepo := authors.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)
	syncRepo := syncdb.NewRepository(db.DB)
	counterRepo := ratelimitdb.NewRepository(db.DB)

	var defaultUser *entities.User
	if cfg.Auth.Mode == config.AuthModeNone {
		defaultUser, err = userRepo.EnsureUser(context.Background(), cfg.Auth.DefaultUser)
		if err != nil {
			return fmt.Errorf("failed to ensure default user: %w", err)
		}
		log.Printf("Authentication mode: none (all requests run as %q)", defaultUser.Username)
	} else {
		log.Printf("Authentication mode: token")
	}
	authMiddleware := auth.NewMiddleware(cfg.Auth, userRepo, defaultUser)

	limiter, stopLimiter := newRateLimiter(cfg.RateLimits, counterRepo)
	defer stopLimiter()

	chain := metadata.NewDefaultChain(
		cfg.Metadata.GoogleBooksAPIKey,
		metadata.WithTimeout(cfg.Metadata.Timeout),
		metadata.WithRequestsPerSecond(cfg.Metadata.RequestsPerSecond),
	)
	enricher := metadata.NewEnricher(chain, bookRepo, metadata.EnricherConfig{
		BatchSize: cfg.Enrichment.BatchSize,
		Delay:     cfg.Enrichment.Delay,
	})
	enricher.SetProgressReporter(syncRepo)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var enrichQueue services.EnrichmentQueue
	var taskStatus http_controllers.TaskStatusReader
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewEnrichLibraryQueue(enricher),
			tasks.NewCleanupRateLimitsQueue(counterRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		enrichQueue = taskClient
		taskStatus = taskClient
	}

	cleanup, err := scheduleCounterCleanup(cfg, taskClient, counterRepo)
	if err != nil {
		return err
	}

	bookService := services.NewBookService(bookRepo, authorRepo)

	routerCfg := http_controllers.RouterConfig{
		Version:        version,
		Database:       db,
		AuthMiddleware: authMiddleware,
		Books:          bookService,
		Authors:        services.NewAuthorService(authorRepo),
		Importer:       services.NewImportService(services.NewCatalogImportStore(bookRepo)),
		Library:        library.NewService(authorRepo, bookRepo),
		Lookup:         services.NewLookupService(chain, bookService),
		Enrichment:     services.NewEnrichmentService(enricher, enrichQueue, bookRepo, syncRepo),
		Accounts:       services.NewAccountService(userRepo),
		RateLimiter:    limiter,
		TaskStatus:     taskStatus,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if cleanup != nil {
			<-cleanup.Stop().Done()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
	return nil
}

// newRateLimiter builds the limiter for the configured store. Messages keep
// their defaults; limits and windows come from the configuration.
func newRateLimiter(cfg config.RateLimits, counters ratelimit.Store) (*ratelimit.Limiter, func()) {
	stop := func() {}
	store := counters
	if cfg.Store == config.RateLimitStoreMemory {
		memory := ratelimit.NewMemoryStore(time.Minute)
		store = memory
		stop = memory.Stop
	}
	log.Printf("Rate limits (%s store): lookup=%s search=%s import=%s enrich=%s",
		cfg.Store, cfg.Lookup, cfg.Search, cfg.Import, cfg.Enrich)

	defaults := ratelimit.DefaultRules()
	rule := func(action ratelimit.Action, r config.RateRule) ratelimit.Option {
		return ratelimit.WithRule(action, ratelimit.Rule{
			Limit:   r.Limit,
			Window:  r.Window,
			Message: defaults[action].Message,
		})
	}

	return ratelimit.NewLimiter(store,
		rule(ratelimit.ActionLookup, cfg.Lookup),
		rule(ratelimit.ActionSearch, cfg.Search),
		rule(ratelimit.ActionImport, cfg.Import),
		rule(ratelimit.ActionEnrich, cfg.Enrich),
	), stop
}

// scheduleCounterCleanup periodically removes expired database counters,
// through the task queue when it is running. Nothing is scheduled for the
// memory store, which sweeps itself.
func scheduleCounterCleanup(cfg *config.Config, taskClient *tasks.Client, counters tasks.ExpiredCounterCleaner) (*cron.Cron, error) {
	if cfg.RateLimits.Store != config.RateLimitStoreDatabase {
		return nil, nil
	}

	interval := cfg.Tasks.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if taskClient != nil {
			if _, err := taskClient.EnqueueCleanupRateLimits(ctx); err != nil {
				log.Printf("[RATELIMIT] Failed to enqueue counter cleanup: %v", err)
			}
			return
		}
		if _, err := counters.DeleteExpired(ctx, time.Now()); err != nil {
			log.Printf("[RATELIMIT] Counter cleanup failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule rate limit cleanup: %w", err)
	}
	c.Start()
	log.Printf("Rate limit counter cleanup scheduled every %s", interval)
	return c, nil
}
