// Package jobs reconciles the external jobs master list into the local
// lookup cache used by ticket entry.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/uptrace/bun"

	"yard-ticketing/internal/config"
	"yard-ticketing/internal/models"
)

// ConfigError reports an unusable synchronization setup: no resolvable
// source, or a source missing required columns. The cache is left unchanged.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// SourceError reports a failure talking to the remote jobs source. Same
// abort-and-report policy as ConfigError.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string { return fmt.Sprintf("jobs source failure: %v", e.Err) }
func (e *SourceError) Unwrap() error { return e.Err }

// sourceRow is the fixed-shape record every source is normalized into
// before any merge logic runs. Business logic never inspects raw source
// column names past this point.
type sourceRow struct {
	Code            string
	Name            string
	Customer        string
	Active          bool
	SourceUpdatedAt string
}

type Synchronizer struct {
	Bun *bun.DB
	Cfg config.JobsConfig
}

func NewSynchronizer(db *bun.DB, cfg config.JobsConfig) *Synchronizer {
	return &Synchronizer{Bun: db, Cfg: cfg}
}

// Sync pulls the first available source and merges every row into the cache
// by upsert, inside one transaction. It returns the number of rows merged.
// Rows absent from the pull are never deleted: historical ticket references
// must stay resolvable.
func (s *Synchronizer) Sync(ctx context.Context) (int, error) {
	rows, err := s.pull(ctx)
	if err != nil {
		return 0, err
	}

	refreshedAt := time.Now()
	merged := 0
	err = s.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, row := range rows {
			if row.Code == "" {
				continue
			}
			entry := &models.JobCacheEntry{
				JobCode:         row.Code,
				JobName:         row.Name,
				Customer:        row.Customer,
				Active:          row.Active,
				SourceUpdatedAt: row.SourceUpdatedAt,
				RefreshedAt:     refreshedAt,
			}
			_, err := tx.NewInsert().
				Model(entry).
				On("CONFLICT (job_code) DO UPDATE").
				Set("job_name = EXCLUDED.job_name").
				Set("customer = EXCLUDED.customer").
				Set("active = EXCLUDED.active").
				Set("source_updated_at = EXCLUDED.source_updated_at").
				Set("refreshed_at = EXCLUDED.refreshed_at").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to merge job %s: %w", row.Code, err)
			}
			merged++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

// pull selects the source in configured order: explicit file path, default
// file path, remote query.
func (s *Synchronizer) pull(ctx context.Context) ([]sourceRow, error) {
	if path := s.resolveSourceFile(); path != "" {
		return readSourceFile(path)
	}
	if s.Cfg.RemoteDSN != "" {
		return s.fetchRemote(ctx)
	}
	return nil, &ConfigError{Message: "no jobs source found: set JOBS_CSV_PATH, place a file at " +
		s.Cfg.DefaultPath + ", or configure REMOTE_SQL_DSN"}
}

func (s *Synchronizer) resolveSourceFile() string {
	candidates := []string{}
	if s.Cfg.SourcePath != "" {
		candidates = append(candidates, s.Cfg.SourcePath)
	} else if s.Cfg.DefaultPath != "" {
		candidates = append(candidates, s.Cfg.DefaultPath)
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
