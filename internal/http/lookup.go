package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type LookupController struct {
	lookup MetadataLookup
}

func NewLookupController(lookup MetadataLookup) *LookupController {
	return &LookupController{lookup: lookup}
}

// LookupCode handles GET /api/lookup/isbn/:code
// The code may be a typed ISBN or raw barcode text.
func (lc *LookupController) LookupCode(c *gin.Context) {
	result, err := lc.lookup.Lookup(c.Request.Context(), GetUserID(c), c.Param("code"))
	if err != nil {
		respondServiceError(c, err, "book", "lookup")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Search handles GET /api/lookup/search?q=
func (lc *LookupController) Search(c *gin.Context) {
	results, err := lc.lookup.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondServiceError(c, err, "book", "search")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
