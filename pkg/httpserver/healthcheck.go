package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/dmitrymomot/clinicdesk/pkg/logger"
)

// Check probes a single dependency.
type Check func(context.Context) error

// Status values reported by the health handlers.
const (
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthReport is the JSON body written by the probe handlers.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler always answers 200 while the process can serve requests.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeReport(w, http.StatusOK, HealthReport{Status: StatusAlive})
	}
}

// ReadinessHandler runs every check with the given per-probe timeout and
// answers 503 if any of them fails. A nil check map means ready.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		report := HealthReport{Status: StatusReady, Checks: make(map[string]string, len(names))}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				log.WarnContext(ctx, "readiness check failed",
					logger.Component(name),
					logger.Error(err),
				)
				report.Status = StatusNotReady
				report.Checks[name] = "failed"
				continue
			}
			report.Checks[name] = "ok"
		}

		code := http.StatusOK
		if report.Status != StatusReady {
			code = http.StatusServiceUnavailable
		}
		writeReport(w, code, report)
	}
}

func writeReport(w http.ResponseWriter, code int, report HealthReport) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}
