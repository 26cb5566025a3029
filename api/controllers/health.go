package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/wecantrust/donations-backend/api/responses"
	"github.com/wecantrust/donations-backend/pkg/logger"
)

// Pinger is anything with a liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports service and dependency health.
type HealthController struct {
	logg    *logger.Logger
	checks  map[string]Pinger
	version string
}

func NewHealthController(logg *logger.Logger, version string, checks map[string]Pinger) *HealthController {
	return &HealthController{logg: logg, checks: checks, version: version}
}

func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	deps := map[string]string{}
	healthy := true
	for name, pinger := range c.checks {
		if pinger == nil {
			deps[name] = "disabled"
			continue
		}
		if err := pinger.Ping(ctx); err != nil {
			deps[name] = "down"
			healthy = false
			c.logg.Error(ctx, "health check failed: "+name, err)
			continue
		}
		deps[name] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	responses.WriteSuccessStatus(w, code, map[string]any{
		"status":       status,
		"version":      c.version,
		"dependencies": deps,
	})
}
