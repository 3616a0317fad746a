// Package reports filters stored tickets and computes grouped quantity
// totals. Every consumer of an aggregate (interactive view, printable PDF,
// CSV export) goes through the same Filter so the three views always agree.
package reports

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"yard-ticketing/internal/models"
)

const (
	// PageSize bounds the interactive line-item page.
	PageSize = 20
	// ExportLimit bounds the CSV export.
	ExportLimit = 1000
	// DefaultWindowDays is the implicit date range when none is supplied.
	DefaultWindowDays = 14
)

// Filter is the report criteria. Dates are inclusive and compare on the
// ticket's creation date only, ignoring time of day.
type Filter struct {
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
	Direction  string `json:"direction"`
	JobID      int64  `json:"job_id,omitempty"`
	MaterialID int64  `json:"material_id,omitempty"`
	Offset     int    `json:"offset"`
}

// ApplyDefaultWindow fills an empty date range with the last 14 days through
// today. Applied before any query so every aggregate consumer sees the same
// implicit window.
func (f *Filter) ApplyDefaultWindow(now time.Time) {
	if f.DateFrom == "" && f.DateTo == "" {
		f.DateTo = now.Format("2006-01-02")
		f.DateFrom = now.AddDate(0, 0, -DefaultWindowDays).Format("2006-01-02")
	}
}

// Report is the bundle served to the interactive view.
type Report struct {
	Tickets        []models.Ticket        `json:"tickets"`
	UnitTotals     []models.UnitTotal     `json:"totals_by_unit"`
	MaterialTotals []models.MaterialTotal `json:"totals_by_material"`
	Filter         Filter                 `json:"filters"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

func applyFilter(q *bun.SelectQuery, f Filter) *bun.SelectQuery {
	if f.DateFrom != "" {
		q = q.Where("date(created_at) >= date(?)", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("date(created_at) <= date(?)", f.DateTo)
	}
	if f.Direction == models.DirectionIn || f.Direction == models.DirectionOut {
		q = q.Where("direction = ?", f.Direction)
	}
	if f.JobID != 0 {
		q = q.Where("job_id = ?", f.JobID)
	}
	if f.MaterialID != 0 {
		q = q.Where("material_id = ?", f.MaterialID)
	}
	return q
}

// reportOrder sorts by customer ascending, then IN before OUT with anything
// else last, then newest insert first.
func reportOrder(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Order("customer_snapshot ASC").
		OrderExpr("CASE WHEN direction = 'IN' THEN 1 WHEN direction = 'OUT' THEN 2 ELSE 3 END").
		Order("id DESC")
}

// Tickets returns one page of matching tickets.
func (s *Service) Tickets(ctx context.Context, f Filter) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0, PageSize)
	q := applyFilter(s.db.NewSelect().Model(&tickets), f)
	err := reportOrder(q).Limit(PageSize).Offset(f.Offset).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// AllTickets returns the full filtered set in report order, for the
// printable variant.
func (s *Service) AllTickets(ctx context.Context, f Filter) ([]models.Ticket, error) {
	var tickets []models.Ticket
	q := applyFilter(s.db.NewSelect().Model(&tickets), f)
	if err := reportOrder(q).Scan(ctx); err != nil {
		return nil, err
	}
	return tickets, nil
}

// ExportTickets returns the filtered set for CSV export, newest insert
// first, bounded by ExportLimit.
func (s *Service) ExportTickets(ctx context.Context, f Filter) ([]models.Ticket, error) {
	var tickets []models.Ticket
	q := applyFilter(s.db.NewSelect().Model(&tickets), f)
	if err := q.Order("id DESC").Limit(ExportLimit).Scan(ctx); err != nil {
		return nil, err
	}
	return tickets, nil
}

// TotalsByUnit sums quantity per unit over the whole filtered set, not the
// paginated page.
func (s *Service) TotalsByUnit(ctx context.Context, f Filter) ([]models.UnitTotal, error) {
	var totals []models.UnitTotal
	q := s.db.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("unit").
		ColumnExpr("COALESCE(SUM(quantity), 0) AS total_quantity").
		Group("unit").
		Order("unit")
	if err := applyFilter(q, f).Scan(ctx, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}

// TotalsByMaterial sums quantity per (material, unit) pair over the whole
// filtered set.
func (s *Service) TotalsByMaterial(ctx context.Context, f Filter) ([]models.MaterialTotal, error) {
	var totals []models.MaterialTotal
	q := s.db.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("material_name_snapshot").
		ColumnExpr("unit").
		ColumnExpr("COALESCE(SUM(quantity), 0) AS total_quantity").
		Group("material_name_snapshot").
		Group("unit").
		Order("material_name_snapshot").
		Order("unit")
	if err := applyFilter(q, f).Scan(ctx, &totals); err != nil {
		return nil, err
	}
	return totals, nil
}

// Report runs the paged query and both total aggregates for one filter.
func (s *Service) Report(ctx context.Context, f Filter) (*Report, error) {
	tickets, err := s.Tickets(ctx, f)
	if err != nil {
		return nil, err
	}
	unitTotals, err := s.TotalsByUnit(ctx, f)
	if err != nil {
		return nil, err
	}
	materialTotals, err := s.TotalsByMaterial(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Report{
		Tickets:        tickets,
		UnitTotals:     unitTotals,
		MaterialTotals: materialTotals,
		Filter:         f,
	}, nil
}
