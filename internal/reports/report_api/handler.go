package report_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"yard-ticketing/internal/logger"
	"yard-ticketing/internal/models"
	"yard-ticketing/internal/printing"
	"yard-ticketing/internal/reports"
)

type ReportRenderer interface {
	RenderReport(tickets []models.Ticket, unitTotals []models.UnitTotal, materialTotals []models.MaterialTotal) ([]byte, error)
}

type Handler struct {
	Reports      *reports.Service
	Renderer     ReportRenderer
	Spooler      *printing.Spooler
	ReportPDFDir string
	Logger       *logger.Logger
}

// parseFilter reads the shared filter query parameters and applies the
// default date window, so the JSON view, the printable variant and the CSV
// export always answer the same implicit question.
func parseFilter(r *http.Request) reports.Filter {
	q := r.URL.Query()
	filter := reports.Filter{
		DateFrom:  strings.TrimSpace(q.Get("date_from")),
		DateTo:    strings.TrimSpace(q.Get("date_to")),
		Direction: strings.ToUpper(strings.TrimSpace(q.Get("direction"))),
	}
	filter.JobID, _ = strconv.ParseInt(q.Get("job_id"), 10, 64)
	filter.MaterialID, _ = strconv.ParseInt(q.Get("material_id"), 10, 64)
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	filter.ApplyDefaultWindow(time.Now())
	return filter
}

// GetReport handles GET /api/reports.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)
	report, err := h.Reports.Report(r.Context(), filter)
	if err != nil {
		h.Logger.Error("REPORT", fmt.Sprintf("Report query failed: %v", err))
		http.Error(w, "report query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

// ExportCSV handles GET /api/reports/export.csv: the same filtered set and
// totals as the interactive view, as a downloadable CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	tickets, err := h.Reports.ExportTickets(r.Context(), filter)
	if err != nil {
		h.Logger.Error("REPORT", fmt.Sprintf("CSV export query failed: %v", err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	unitTotals, err := h.Reports.TotalsByUnit(r.Context(), filter)
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	materialTotals, err := h.Reports.TotalsByMaterial(r.Context(), filter)
	if err != nil {
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	name := fmt.Sprintf("ticket_report_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := reports.WriteCSV(w, tickets, unitTotals, materialTotals); err != nil {
		h.Logger.Error("REPORT", fmt.Sprintf("CSV write failed: %v", err))
	}
}

// PrintReport handles GET /api/reports/print: renders the full filtered set
// to PDF, persists a copy, spools it best-effort, and returns the bytes.
func (h *Handler) PrintReport(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)

	tickets, err := h.Reports.AllTickets(r.Context(), filter)
	if err != nil {
		h.Logger.Error("REPORT", fmt.Sprintf("Report query failed: %v", err))
		http.Error(w, "report query failed", http.StatusInternalServerError)
		return
	}
	unitTotals, err := h.Reports.TotalsByUnit(r.Context(), filter)
	if err != nil {
		http.Error(w, "report query failed", http.StatusInternalServerError)
		return
	}
	materialTotals, err := h.Reports.TotalsByMaterial(r.Context(), filter)
	if err != nil {
		http.Error(w, "report query failed", http.StatusInternalServerError)
		return
	}

	blob, err := h.Renderer.RenderReport(tickets, unitTotals, materialTotals)
	if err != nil {
		h.Logger.Error("REPORT", fmt.Sprintf("Report render failed: %v", err))
		http.Error(w, "report render failed", http.StatusInternalServerError)
		return
	}

	name := fmt.Sprintf("ticket_report_%s_%s.pdf",
		time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	if err := os.MkdirAll(h.ReportPDFDir, 0o755); err == nil {
		path := filepath.Join(h.ReportPDFDir, name)
		if err := os.WriteFile(path, blob, 0o644); err == nil {
			if err := h.Spooler.Spool(path); err != nil {
				h.Logger.Warn("PRINT", fmt.Sprintf("Report print failed: %v", err))
			}
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(blob)
}
