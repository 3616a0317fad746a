package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"yard-ticketing/internal/models"
	"yard-ticketing/internal/tickets/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_txlock=immediate&_pragma=busy_timeout(10000)", uuid.NewString())
	return openStore(t, dsn)
}

// setupFileDB opens a store on a real database file with the same DSN
// parameters production uses, so transactions from pooled connections
// genuinely contend for the write lock.
func setupFileDB(t *testing.T) *db.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tickets.db")
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	return openStore(t, dsn)
}

func openStore(t *testing.T, dsn string) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*models.Ticket)(nil),
		(*models.SequenceCounter)(nil),
		(*models.JobCacheEntry)(nil),
		(*models.Truck)(nil),
		(*models.Material)(nil),
	} {
		require.NoError(t, bunDB.ResetModel(ctx, model))
	}

	return &db.DB{Bun: bunDB}
}

func stubRender(t *models.Ticket) ([]byte, string, error) {
	return []byte("%PDF-stub"), "tickets_pdf/" + t.TicketNumber + ".pdf", nil
}

func draftTicket() *models.Ticket {
	return &models.Ticket{
		Direction:            models.DirectionIn,
		CreatedAt:            time.Now(),
		JobCodeSnapshot:      "J100",
		JobNameSnapshot:      "Main St",
		CustomerSnapshot:     "Acme Hauling",
		TruckNumberSnapshot:  "T12",
		MaterialNameSnapshot: "Gravel",
		Quantity:             12.5,
		Unit:                 "Ton",
	}
}

func TestCreateTicketAssignsFirstNumberOfYear(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	ticket := draftTicket()
	require.NoError(t, store.CreateTicket(ctx, ticket, stubRender))

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("DT-%d-000001", year), ticket.TicketNumber)
	assert.Equal(t, int64(1), ticket.TicketSequence)
	assert.Equal(t, year, ticket.TicketYear)
	assert.Equal(t, []byte("%PDF-stub"), ticket.PDFBlob)
	assert.NotZero(t, ticket.ID)
}

func TestSequenceValuesAreGapless(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	const n = 25
	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		ticket := draftTicket()
		require.NoError(t, store.CreateTicket(ctx, ticket, stubRender))
		assert.False(t, seen[ticket.TicketSequence], "duplicate sequence %d", ticket.TicketSequence)
		seen[ticket.TicketSequence] = true
	}

	for v := int64(1); v <= n; v++ {
		assert.True(t, seen[v], "missing sequence %d", v)
	}
}

func TestConcurrentCreationNeverDuplicatesSequence(t *testing.T) {
	store := setupFileDB(t)
	ctx := context.Background()

	const workers = 8
	const perWorker = 3

	var mu sync.Mutex
	var sequences []int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ticket := draftTicket()
				if err := store.CreateTicket(ctx, ticket, stubRender); err != nil {
					t.Errorf("concurrent create failed: %v", err)
					return
				}
				mu.Lock()
				sequences = append(sequences, ticket.TicketSequence)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, sequences, workers*perWorker)
	sort.Slice(sequences, func(i, j int) bool { return sequences[i] < sequences[j] })
	for i, seq := range sequences {
		assert.Equal(t, int64(i+1), seq, "sequence set must be exactly {1..N}")
	}
}

func TestRenderFailureConsumesNoNumber(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	failingRender := func(*models.Ticket) ([]byte, string, error) {
		return nil, "", fmt.Errorf("font not found")
	}
	err := store.CreateTicket(ctx, draftTicket(), failingRender)
	require.Error(t, err)

	ticket := draftTicket()
	require.NoError(t, store.CreateTicket(ctx, ticket, stubRender))
	assert.Equal(t, int64(1), ticket.TicketSequence, "aborted creation must not consume a sequence value")

	count, err := store.Bun.NewSelect().Model((*models.Ticket)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSnapshotSurvivesReferenceEdits(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	truck := &models.Truck{TruckNumber: "T12", Active: true}
	_, err := store.Bun.NewInsert().Model(truck).Exec(ctx)
	require.NoError(t, err)

	ticket := draftTicket()
	ticket.TruckID = &truck.ID
	require.NoError(t, store.CreateTicket(ctx, ticket, stubRender))

	_, err = store.Bun.NewUpdate().
		Model((*models.Truck)(nil)).
		Set("truck_number = ?", "T99").
		Set("active = ?", false).
		Where("id = ?", truck.ID).
		Exec(ctx)
	require.NoError(t, err)

	stored, err := store.GetTicketByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "T12", stored.TruckNumberSnapshot, "snapshot must not follow later edits")
}

func TestSearchTickets(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	first := draftTicket()
	require.NoError(t, store.CreateTicket(ctx, first, stubRender))

	second := draftTicket()
	second.TruckNumberSnapshot = "T99"
	second.JobCodeSnapshot = "J200"
	require.NoError(t, store.CreateTicket(ctx, second, stubRender))

	byTruck, err := store.SearchTickets(ctx, db.SearchFilter{Truck: "T99"})
	require.NoError(t, err)
	require.Len(t, byTruck, 1)
	assert.Equal(t, second.TicketNumber, byTruck[0].TicketNumber)

	byNumber, err := store.SearchTickets(ctx, db.SearchFilter{TicketNumber: "000001"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, first.TicketNumber, byNumber[0].TicketNumber)

	all, err := store.SearchTickets(ctx, db.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.TicketNumber, all[0].TicketNumber, "newest insert first")
}
