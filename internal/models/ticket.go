package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket is an immutable record of one inbound/outbound load event. The
// *_snapshot columns hold the job/truck/material/customer values as they were
// at creation time; the nullable id columns are weak references kept for
// report filtering only and are never dereferenced for display.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID                   int64     `bun:"id,pk,autoincrement" json:"id"`
	TicketNumber         string    `bun:"ticket_number,unique,notnull" json:"ticket_number"`
	TicketYear           int       `bun:"ticket_year,notnull" json:"ticket_year"`
	TicketSequence       int64     `bun:"ticket_sequence,notnull" json:"ticket_sequence"`
	Direction            string    `bun:"direction,notnull" json:"direction"`
	CreatedAt            time.Time `bun:"created_at,notnull" json:"created_at"`
	JobID                *int64    `bun:"job_id" json:"job_id,omitempty"`
	JobCodeSnapshot      string    `bun:"job_code_snapshot,notnull" json:"job_code_snapshot"`
	JobNameSnapshot      string    `bun:"job_name_snapshot,notnull" json:"job_name_snapshot"`
	CustomerSnapshot     string    `bun:"customer_snapshot,notnull,default:''" json:"customer_snapshot"`
	TruckID              *int64    `bun:"truck_id" json:"truck_id,omitempty"`
	TruckNumberSnapshot  string    `bun:"truck_number_snapshot,notnull" json:"truck_number_snapshot"`
	MaterialID           *int64    `bun:"material_id" json:"material_id,omitempty"`
	MaterialNameSnapshot string    `bun:"material_name_snapshot,notnull" json:"material_name_snapshot"`
	Quantity             float64   `bun:"quantity,notnull" json:"quantity"`
	Unit                 string    `bun:"unit,notnull" json:"unit"`
	Notes                string    `bun:"notes" json:"notes"`
	PDFPath              string    `bun:"pdf_path" json:"pdf_path"`
	PDFBlob              []byte    `bun:"pdf_blob" json:"-"`
}

// RenderFunc produces the printable document for a ticket whose number has
// just been allocated. It returns the document bytes and the path the bytes
// were persisted to. An error aborts the surrounding creation transaction.
type RenderFunc func(ticket *Ticket) (blob []byte, path string, err error)

const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)
