package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EnrichmentController fills missing book metadata from external catalogs.
type EnrichmentController struct {
	enrichment EnrichmentManager
}

func NewEnrichmentController(enrichment EnrichmentManager) *EnrichmentController {
	return &EnrichmentController{enrichment: enrichment}
}

// Trigger handles POST /api/enrichment/trigger
// Responds 202 when the run was queued, 200 with the result when it ran inline.
func (ec *EnrichmentController) Trigger(c *gin.Context) {
	result, err := ec.enrichment.Trigger(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondServiceError(c, err, "enrichment", "trigger enrichment")
		return
	}
	if result.Queued {
		respondAccepted(c, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Status handles GET /api/enrichment/status
func (ec *EnrichmentController) Status(c *gin.Context) {
	status, err := ec.enrichment.Status(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondServiceError(c, err, "enrichment", "enrichment status")
		return
	}
	c.JSON(http.StatusOK, status)
}
