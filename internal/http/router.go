package http

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/sjohnston82/tome-tracker1/internal/auth"
	"github.com/sjohnston82/tome-tracker1/internal/ratelimit"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Controllers whose dependency is nil are not mounted.
func NewRouter(cfg RouterConfig) *gin.Engine {
	binding.Validator = requestValidator{}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	health := NewHealthController(cfg.Database, cfg.Version, map[string]bool{
		"tasks":        cfg.TaskStatus != nil,
		"rateLimiting": cfg.RateLimiter != nil,
		"enrichment":   cfg.Enrichment != nil,
	})
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api", auth.RequireUser())
	limit := func(action ratelimit.Action) gin.HandlerFunc {
		return RateLimitMiddleware(cfg.RateLimiter, action)
	}

	if cfg.Importer != nil {
		importController := NewImportController(cfg.Importer)
		api.POST("/import/preview", importController.Preview)
		api.POST("/import/execute", limit(ratelimit.ActionImport), importController.Execute)
	}

	if cfg.Books != nil {
		booksController := NewBooksController(cfg.Books)
		api.POST("/books", booksController.CreateBook)
		api.POST("/books/check-duplicate", booksController.CheckDuplicate)
		api.GET("/books/:id", booksController.GetBook)
		api.PATCH("/books/:id", booksController.UpdateBook)
		api.DELETE("/books/:id", booksController.DeleteBook)
	}

	if cfg.Books != nil && cfg.Library != nil {
		libraryController := NewLibraryController(cfg.Books, cfg.Library)
		api.GET("/library/check", libraryController.Check)
		api.GET("/library/sync", libraryController.Sync)
	}

	if cfg.Authors != nil {
		authorsController := NewAuthorsController(cfg.Authors)
		api.GET("/authors", authorsController.ListAuthors)
		api.GET("/authors/:id", authorsController.GetAuthor)
		api.PATCH("/authors/:id", authorsController.UpdateAuthor)
	}

	if cfg.Lookup != nil {
		lookupController := NewLookupController(cfg.Lookup)
		api.GET("/lookup/isbn/:code", limit(ratelimit.ActionLookup), lookupController.LookupCode)
		api.GET("/lookup/search", limit(ratelimit.ActionSearch), lookupController.Search)
	}

	if cfg.Enrichment != nil {
		enrichmentController := NewEnrichmentController(cfg.Enrichment)
		api.POST("/enrichment/trigger", limit(ratelimit.ActionEnrich), enrichmentController.Trigger)
		api.GET("/enrichment/status", enrichmentController.Status)
	}

	if cfg.Accounts != nil {
		accountController := NewAccountController(cfg.Accounts)
		api.DELETE("/account", accountController.DeleteAccount)
	}

	if cfg.TaskStatus != nil {
		tasksController := NewTasksController(cfg.TaskStatus)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
