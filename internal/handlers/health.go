package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks a backing service. *redis.Client and *sqlx.DB adapt to it in main.
type Pinger func(ctx context.Context) error

type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Health reports "ok" when every dependency answers, "degraded" otherwise.
func Health(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ok", Services: make(map[string]string, len(deps))}
		for name, ping := range deps {
			if err := ping(ctx); err != nil {
				resp.Status = "degraded"
				resp.Services[name] = "unavailable"
				continue
			}
			resp.Services[name] = "ok"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, r, status, resp)
	}
}
