package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LibraryController serves ownership checks and the full-library sync used
// by offline clients.
type LibraryController struct {
	books   BookManager
	library LibrarySyncer
}

func NewLibraryController(books BookManager, library LibrarySyncer) *LibraryController {
	return &LibraryController{books: books, library: library}
}

// Check handles GET /api/library/check?isbn=
func (lc *LibraryController) Check(c *gin.Context) {
	raw := c.Query("isbn")
	if raw == "" {
		respondBadRequest(c, "isbn is required")
		return
	}

	ownership, err := lc.books.CheckOwnership(c.Request.Context(), GetUserID(c), raw)
	if err != nil {
		respondServiceError(c, err, "book", "check ownership")
		return
	}
	c.JSON(http.StatusOK, ownership)
}

// Sync handles GET /api/library/sync
func (lc *LibraryController) Sync(c *gin.Context) {
	resp, err := lc.library.Sync(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondServiceError(c, err, "library", "library sync")
		return
	}
	c.JSON(http.StatusOK, resp)
}
