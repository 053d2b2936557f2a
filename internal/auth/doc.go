// Package auth resolves the user every API request runs as.
//
// It supports two modes:
//   - "none": every request runs as one default user, created at startup (default)
//   - "token": requests carry "Authorization: Bearer <token>", resolved against users.token
//
// Issuing tokens is out of scope; tokens are created with the user record.
//
// # Configuration
//
//	AUTH_MODE=none          # Default, single-user
//	AUTH_MODE=token         # Bearer tokens
//	AUTH_DEFAULT_USER=alice # Username used in "none" mode
//
// # Usage
//
//	mw := auth.NewMiddleware(cfg.Auth, userRepo, defaultUser)
//	router.Use(mw.Handler())
//
// Extract the user in handlers:
//
//	userID := auth.GetUserID(c)
package auth
