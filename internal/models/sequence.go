package models

import "github.com/uptrace/bun"

// SequenceCounter holds the last-issued ticket sequence value for one
// calendar year. For any year the set of issued values is exactly {1..N}
// with no gaps: the increment runs inside the same transaction as the
// ticket insert and rolls back with it.
type SequenceCounter struct {
	bun.BaseModel `bun:"table:ticket_sequence"`

	TicketYear int   `bun:"ticket_year,pk"`
	LastValue  int64 `bun:"last_value,notnull,default:0"`
}
