package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Pinger is implemented by dependencies the health check probes, such as
// the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// videoCounter is optionally implemented by the database to report the size
// of the video metadata cache.
type videoCounter interface {
	CachedVideoCount(ctx context.Context) (int, error)
}

type HealthHandler struct {
	monitor  *Monitor
	database Pinger
}

func NewHealthHandler(monitor *Monitor, database Pinger) *HealthHandler {
	return &HealthHandler{monitor: monitor, database: database}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database     string `json:"database"`
	CachedVideos *int   `json:"cachedVideos,omitempty"`
	Monitor      Status `json:"monitor"`
}

// ServeHealth answers GET /health with a JSON report, 503 when unhealthy.
func (h *HealthHandler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	status := h.monitor.Status()
	resp := healthResponse{Status: "ok", Database: "ok", Monitor: status}
	code := http.StatusOK

	if h.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.database.Ping(ctx); err != nil {
			resp.Database = "unreachable"
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		} else if counter, ok := h.database.(videoCounter); ok {
			if n, err := counter.CachedVideoCount(ctx); err == nil {
				resp.CachedVideos = &n
			}
		}
	}
	if !status.Healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// ServeStatus answers GET /status with the plain-text summary.
func (h *HealthHandler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", h.monitor.GetStatusSummary())
}
