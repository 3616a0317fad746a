package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"yard-ticketing/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// nextTicketNumber allocates the next sequence value for year inside tx. The
// single-statement increment never observes a stale counter, and the value
// rolls back with the transaction so an aborted creation consumes no number.
func (d *DB) nextTicketNumber(ctx context.Context, tx bun.Tx, year int) (string, int64, error) {
	_, err := tx.NewInsert().
		Model(&models.SequenceCounter{TicketYear: year, LastValue: 0}).
		On("CONFLICT (ticket_year) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to seed sequence counter for %d: %w", year, err)
	}

	var next int64
	err = tx.NewRaw(
		"UPDATE ticket_sequence SET last_value = last_value + 1 WHERE ticket_year = ? RETURNING last_value",
		year,
	).Scan(ctx, &next)
	if err != nil {
		return "", 0, fmt.Errorf("failed to increment sequence counter for %d: %w", year, err)
	}

	return fmt.Sprintf("DT-%d-%06d", year, next), next, nil
}

// CreateTicket allocates a ticket number, renders the document, and inserts
// the ticket row in one transaction. A render or insert failure rolls back
// the sequence increment; a file already written by render is tolerated
// orphaned storage, the row blob is the source of truth.
func (d *DB) CreateTicket(ctx context.Context, ticket *models.Ticket, render models.RenderFunc) error {
	if ticket.TicketYear == 0 {
		ticket.TicketYear = time.Now().Year()
	}

	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		number, seq, err := d.nextTicketNumber(ctx, tx, ticket.TicketYear)
		if err != nil {
			return err
		}
		ticket.TicketNumber = number
		ticket.TicketSequence = seq

		blob, path, err := render(ticket)
		if err != nil {
			return fmt.Errorf("failed to render ticket document: %w", err)
		}
		ticket.PDFBlob = blob
		ticket.PDFPath = path

		if _, err := tx.NewInsert().Model(ticket).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert ticket %s: %w", number, err)
		}
		return nil
	})
}

func (d *DB) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// SearchFilter matches tickets by substring on number/truck/job plus an
// inclusive creation-date range.
type SearchFilter struct {
	TicketNumber string
	Truck        string
	Job          string
	DateFrom     string
	DateTo       string
}

const searchLimit = 200

func (d *DB) SearchTickets(ctx context.Context, filter SearchFilter) ([]models.Ticket, error) {
	var tickets []models.Ticket
	q := d.Bun.NewSelect().Model(&tickets)

	if filter.TicketNumber != "" {
		q = q.Where("ticket_number LIKE ?", "%"+filter.TicketNumber+"%")
	}
	if filter.Truck != "" {
		q = q.Where("truck_number_snapshot LIKE ?", "%"+filter.Truck+"%")
	}
	if filter.Job != "" {
		q = q.Where("job_code_snapshot LIKE ?", "%"+filter.Job+"%")
	}
	if filter.DateFrom != "" {
		q = q.Where("date(created_at) >= date(?)", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("date(created_at) <= date(?)", filter.DateTo)
	}

	err := q.Order("id DESC").Limit(searchLimit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// Reference lookups used to resolve a ticket-entry selection into snapshot
// values. All read-only.

func (d *DB) GetJobByID(ctx context.Context, id int64) (*models.JobCacheEntry, error) {
	var job models.JobCacheEntry
	err := d.Bun.NewSelect().
		Model(&job).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (d *DB) GetTruckByID(ctx context.Context, id int64) (*models.Truck, error) {
	var truck models.Truck
	err := d.Bun.NewSelect().
		Model(&truck).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &truck, nil
}

func (d *DB) GetMaterialByID(ctx context.Context, id int64) (*models.Material, error) {
	var material models.Material
	err := d.Bun.NewSelect().
		Model(&material).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &material, nil
}
