// Package database provides the catalog's data access layer.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Book CRUD, ownership checks, enrichment queries
//	├── authors/         # Author upsert, listings, orphan cleanup
//	├── users/           # Identity lookup and account deletion
//	├── ratelimit/       # Shared fixed-window counters
//	└── sync/            # Background run progress per user
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./catalog.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	authorsRepo := authors.NewRepository(db.DB)
//
//	book, err := booksRepo.GetByID(ctx, userID, bookID)
//	author, err := authorsRepo.GetOrCreate(ctx, userID, "Ursula K. Le Guin")
//
// # Errors
//
// The connection is opened with TranslateError, so unique index violations
// surface as gorm.ErrDuplicatedKey and missing rows as gorm.ErrRecordNotFound.
// Repositories return these unchanged; the service layer maps them to domain
// errors.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
