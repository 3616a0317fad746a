package catalog_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"yard-ticketing/internal/catalog"
	"yard-ticketing/internal/logger"
	"yard-ticketing/internal/models"
)

type Handler struct {
	Catalog *catalog.Store
	Logger  *logger.Logger
}

// ListTrucks handles GET /api/trucks. active_only=1 restricts to the entry
// picker's view; the admin listing includes deactivated rows.
func (h *Handler) ListTrucks(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") == "1"
	trucks, err := h.Catalog.ListTrucks(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, "truck listing failed", err)
		return
	}
	writeJSON(w, http.StatusOK, trucks)
}

func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") == "1"
	materials, err := h.Catalog.ListMaterials(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, "material listing failed", err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

// AddTruck handles POST /api/admin/trucks.
func (h *Handler) AddTruck(w http.ResponseWriter, r *http.Request) {
	var truck models.Truck
	if err := json.NewDecoder(r.Body).Decode(&truck); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Catalog.AddTruck(r.Context(), &truck); err != nil {
		var dup *catalog.DuplicateError
		if errors.As(err, &dup) {
			http.Error(w, dup.Message, http.StatusBadRequest)
			return
		}
		h.fail(w, "failed to add truck", err)
		return
	}
	writeJSON(w, http.StatusCreated, truck)
}

// ToggleTruck handles POST /api/admin/trucks/{id}/toggle.
func (h *Handler) ToggleTruck(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid truck id", http.StatusBadRequest)
		return
	}
	if err := h.Catalog.ToggleTruck(r.Context(), id); err != nil {
		h.fail(w, "failed to toggle truck", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "toggled"})
}

func (h *Handler) AddMaterial(w http.ResponseWriter, r *http.Request) {
	var material models.Material
	if err := json.NewDecoder(r.Body).Decode(&material); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Catalog.AddMaterial(r.Context(), &material); err != nil {
		var dup *catalog.DuplicateError
		if errors.As(err, &dup) {
			http.Error(w, dup.Message, http.StatusBadRequest)
			return
		}
		h.fail(w, "failed to add material", err)
		return
	}
	writeJSON(w, http.StatusCreated, material)
}

func (h *Handler) ToggleMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid material id", http.StatusBadRequest)
		return
	}
	if err := h.Catalog.ToggleMaterial(r.Context(), id); err != nil {
		h.fail(w, "failed to toggle material", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "toggled"})
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	h.Logger.Error("CATALOG", fmt.Sprintf("%s: %v", message, err))
	http.Error(w, message, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
