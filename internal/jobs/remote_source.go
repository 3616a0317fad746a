package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Default driver for the remote jobs database.
	_ "github.com/lib/pq"
)

// fetchRemote executes the configured query against the remote jobs
// database under a bounded timeout. Rows are treated as active unless the
// source says otherwise.
func (s *Synchronizer) fetchRemote(ctx context.Context) ([]sourceRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Cfg.RemoteTimeout)
	defer cancel()

	db, err := sql.Open(s.Cfg.RemoteDriver, s.Cfg.RemoteDSN)
	if err != nil {
		return nil, &SourceError{Err: fmt.Errorf("open remote connection: %w", err)}
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, &SourceError{Err: fmt.Errorf("connect to remote source: %w", err)}
	}

	queryRows, err := db.QueryContext(ctx, s.Cfg.RemoteQuery)
	if err != nil {
		return nil, &SourceError{Err: fmt.Errorf("query remote source: %w", err)}
	}
	defer queryRows.Close()

	var rows []sourceRow
	for queryRows.Next() {
		var (
			code, name, customer, updated sql.NullString
			active                        sql.NullInt64
		)
		if err := queryRows.Scan(&code, &name, &customer, &active, &updated); err != nil {
			return nil, &SourceError{Err: fmt.Errorf("scan remote row: %w", err)}
		}
		row := sourceRow{
			Code:            strings.TrimSpace(code.String),
			Name:            strings.TrimSpace(name.String),
			Customer:        strings.TrimSpace(customer.String),
			Active:          true,
			SourceUpdatedAt: strings.TrimSpace(updated.String),
		}
		if active.Valid {
			row.Active = active.Int64 != 0
		}
		rows = append(rows, row)
	}
	if err := queryRows.Err(); err != nil {
		return nil, &SourceError{Err: err}
	}
	return rows, nil
}
