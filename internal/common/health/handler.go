package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Pinger is a dependency the readiness probe checks.
type Pinger func(ctx context.Context) error

// Handler serves liveness and readiness probes.
type Handler struct {
	db      *gorm.DB
	service string
	checks  map[string]Pinger
}

// NewHandler creates a probe handler. The database is always checked on /ready.
func NewHandler(db *gorm.DB, service string) *Handler {
	return &Handler{db: db, service: service, checks: make(map[string]Pinger)}
}

// AddCheck registers an extra readiness dependency.
func (h *Handler) AddCheck(name string, check Pinger) *Handler {
	h.checks[name] = check
	return h
}

// RegisterRoutes mounts /health and /ready on the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

// Health reports that the process is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready reports whether every dependency answers within a short deadline.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks)+1)
	ready := true

	if err := h.pingDB(ctx); err != nil {
		results["database"] = err.Error()
		ready = false
	} else {
		results["database"] = "ok"
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			ready = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "service": h.service, "checks": results})
}

func (h *Handler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
