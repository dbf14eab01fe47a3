package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/newsloom/pkg/component/storage"
)

// HealthHandler reports liveness and storage backend health.
type HealthHandler struct {
	manager *storage.Manager
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(manager *storage.Manager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

type backendHealth struct {
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Healthz 返回各存储后端的健康状态。任一后端不健康时返回 503。
func (h *HealthHandler) Healthz(c *gin.Context) {
	statuses := h.manager.HealthCheckAll(c.Request.Context())

	healthy := true
	backends := make(map[string]backendHealth, len(statuses))
	for name, s := range statuses {
		b := backendHealth{
			Healthy:   s.Healthy,
			LatencyMS: s.Latency.Milliseconds(),
		}
		if s.Error != nil {
			b.Error = s.Error.Error()
		}
		if !s.Healthy {
			healthy = false
		}
		backends[name] = b
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":   overall,
		"backends": backends,
	})
}

// Ping is a trivial liveness probe.
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
