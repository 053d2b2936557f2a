package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthPingTimeout = 2 * time.Second

type HealthResponse struct {
	Status   string            `json:"status"`
	Time     string            `json:"time"`
	Version  string            `json:"version,omitempty"`
	Checks   map[string]string `json:"checks"`
	Features map[string]bool   `json:"features,omitempty"`
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports catalog store reachability and which optional
// subsystems this server runs with.
type HealthController struct {
	db       Pinger
	version  string
	features map[string]bool
}

func NewHealthController(db Pinger, version string, features map[string]bool) *HealthController {
	return &HealthController{db: db, version: version, features: features}
}

// Status handles GET /health. Any failing check turns the response into a 503.
func (h *HealthController) Status(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		Time:     time.Now().UTC().Format(time.RFC3339),
		Version:  h.version,
		Checks:   map[string]string{"database": h.checkDatabase(c.Request.Context())},
		Features: h.features,
	}

	code := http.StatusOK
	for _, result := range resp.Checks {
		if result != "ok" && result != "not configured" {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	c.IndentedJSON(code, resp)
}

func (h *HealthController) checkDatabase(ctx context.Context) string {
	if h.db == nil {
		return "not configured"
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
