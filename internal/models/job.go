package models

import (
	"time"

	"github.com/uptrace/bun"
)

// JobCacheEntry is the local copy of one externally-sourced job. Rows are
// created and updated only by the jobs synchronizer, upserted by job_code.
// Rows are never deleted; a retired job is marked inactive by the source so
// historical ticket references stay resolvable.
type JobCacheEntry struct {
	bun.BaseModel `bun:"table:jobs_cache"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	JobCode         string    `bun:"job_code,unique,notnull" json:"job_code"`
	JobName         string    `bun:"job_name,notnull" json:"job_name"`
	Customer        string    `bun:"customer" json:"customer"`
	Active          bool      `bun:"active,notnull,default:true" json:"active"`
	SourceUpdatedAt string    `bun:"source_updated_at" json:"source_updated_at,omitempty"`
	RefreshedAt     time.Time `bun:"refreshed_at" json:"refreshed_at"`
}
