package template

import (
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yard-ticketing/internal/models"
)

func TestTruncateNotes(t *testing.T) {
	short := "light rain, scale recalibrated at noon"
	assert.Equal(t, short, truncateNotes(short))
	assert.Equal(t, "", truncateNotes(""))

	long := strings.Repeat("x", notesLimit+50)
	got := truncateNotes(long)
	assert.Len(t, got, notesLimit)
	assert.True(t, strings.HasSuffix(got, "..."))

	exact := strings.Repeat("x", notesLimit)
	assert.Equal(t, exact, truncateNotes(exact))
}

func TestTruncateNotesMultiByte(t *testing.T) {
	// Two bytes per rune; the limit counts characters, not bytes, and the
	// cut must never land mid-rune.
	long := strings.Repeat("é", notesLimit+50)
	got := truncateNotes(long)
	require.True(t, utf8.ValidString(got))
	assert.Equal(t, notesLimit, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("é", notesLimit-3)+"...", got)

	within := strings.Repeat("é", notesLimit)
	assert.Equal(t, within, truncateNotes(within), "byte length alone must not trigger truncation")
}

func TestDirectionText(t *testing.T) {
	assert.Equal(t, "IN  [X]   OUT [ ]", directionText(models.DirectionIn))
	assert.Equal(t, "IN  [ ]   OUT [X]", directionText(models.DirectionOut))
	assert.Equal(t, "IN  [ ]   OUT [X]", directionText(""), "anything but IN marks OUT")
}

// findFont locates a usable TTF on the host; rendering tests skip when the
// machine has none installed.
func findFont(t *testing.T) string {
	t.Helper()
	candidates := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
		"/Library/Fonts/Arial.ttf",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("no TTF font available on this host")
	return ""
}

func sampleTicket() *models.Ticket {
	return &models.Ticket{
		TicketNumber:         "DT-2026-000042",
		TicketYear:           2026,
		TicketSequence:       42,
		Direction:            models.DirectionIn,
		CreatedAt:            time.Date(2026, 8, 26, 9, 15, 0, 0, time.Local),
		JobCodeSnapshot:      "J100",
		JobNameSnapshot:      "Main St Repave",
		CustomerSnapshot:     "Acme Hauling",
		TruckNumberSnapshot:  "T12",
		MaterialNameSnapshot: "Gravel",
		Quantity:             12.5,
		Unit:                 "Ton",
		Notes:                "light rain",
	}
}

func TestRenderTicketProducesPDF(t *testing.T) {
	font := findFont(t)
	gen := NewPDFGenerator(font, "", []string{
		"McCracken Materials LLC",
		"1420 Quarry Road",
	})

	blob, err := gen.RenderTicket(sampleTicket())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(blob), "%PDF"))
	assert.Greater(t, len(blob), 1000, "two full pages of content expected")
}

func TestRenderTicketFailsWithoutFont(t *testing.T) {
	gen := NewPDFGenerator("/nonexistent/font.ttf", "", nil)
	_, err := gen.RenderTicket(sampleTicket())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load font")
}

func TestRenderReportProducesPDF(t *testing.T) {
	font := findFont(t)
	gen := NewPDFGenerator(font, "", []string{"McCracken Materials LLC"})

	tickets := make([]models.Ticket, 0, 45)
	for i := 0; i < 45; i++ {
		tickets = append(tickets, *sampleTicket())
	}
	unitTotals := []models.UnitTotal{{Unit: "Ton", TotalQuantity: 562.5}}
	materialTotals := []models.MaterialTotal{{MaterialName: "Gravel", Unit: "Ton", TotalQuantity: 562.5}}

	blob, err := gen.RenderReport(tickets, unitTotals, materialTotals)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(blob), "%PDF"))
}
