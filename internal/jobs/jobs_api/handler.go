package jobs_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"yard-ticketing/internal/catalog"
	"yard-ticketing/internal/jobs"
	"yard-ticketing/internal/logger"
)

type Handler struct {
	Synchronizer *jobs.Synchronizer
	Catalog      *catalog.Store
	Logger       *logger.Logger
}

// RefreshJobs handles POST /api/jobs/refresh. A configuration or source
// failure aborts the whole sync and leaves the cache unchanged.
func (h *Handler) RefreshJobs(w http.ResponseWriter, r *http.Request) {
	count, err := h.Synchronizer.Sync(r.Context())
	if err != nil {
		var configErr *jobs.ConfigError
		var sourceErr *jobs.SourceError
		switch {
		case errors.As(err, &configErr):
			h.Logger.Warn("JOBS", fmt.Sprintf("Jobs refresh misconfigured: %v", err))
			http.Error(w, configErr.Message, http.StatusBadRequest)
		case errors.As(err, &sourceErr):
			h.Logger.Error("JOBS", fmt.Sprintf("Jobs refresh source failure: %v", err))
			http.Error(w, sourceErr.Error(), http.StatusBadGateway)
		default:
			h.Logger.Error("JOBS", fmt.Sprintf("Jobs refresh failed: %v", err))
			http.Error(w, "jobs refresh failed", http.StatusInternalServerError)
		}
		return
	}

	h.Logger.Info("JOBS", fmt.Sprintf("Jobs refresh complete, %d rows synced", count))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"synced": count})
}

// ListJobs handles GET /api/jobs: the active jobs offered for ticket entry.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Catalog.ListActiveJobs(r.Context())
	if err != nil {
		h.Logger.Error("JOBS", fmt.Sprintf("Jobs listing failed: %v", err))
		http.Error(w, "jobs listing failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}
