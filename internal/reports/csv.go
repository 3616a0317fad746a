package reports

import (
	"encoding/csv"
	"fmt"
	"io"

	"yard-ticketing/internal/models"
	"yard-ticketing/internal/timefmt"
)

// WriteCSV writes the line items followed by both totals tables, separated
// by blank rows, matching the printable report's content for the same
// filter.
func WriteCSV(w io.Writer, tickets []models.Ticket, unitTotals []models.UnitTotal, materialTotals []models.MaterialTotal) error {
	writer := csv.NewWriter(w)

	header := []string{
		"Ticket Number", "Created At", "Direction", "Job Code", "Job Name",
		"Customer", "Truck", "Material", "Quantity", "Unit",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, t := range tickets {
		record := []string{
			t.TicketNumber,
			timefmt.Format(t.CreatedAt),
			t.Direction,
			t.JobCodeSnapshot,
			t.JobNameSnapshot,
			t.CustomerSnapshot,
			t.TruckNumberSnapshot,
			t.MaterialNameSnapshot,
			fmt.Sprintf("%.2f", t.Quantity),
			t.Unit,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Write([]string{})
	writer.Write([]string{"Totals by Unit"})
	writer.Write([]string{"Unit", "Total Quantity"})
	for _, total := range unitTotals {
		writer.Write([]string{total.Unit, fmt.Sprintf("%.2f", total.TotalQuantity)})
	}

	writer.Write([]string{})
	writer.Write([]string{"Totals by Material"})
	writer.Write([]string{"Material", "Unit", "Total Quantity"})
	for _, total := range materialTotals {
		writer.Write([]string{total.MaterialName, total.Unit, fmt.Sprintf("%.2f", total.TotalQuantity)})
	}

	writer.Flush()
	return writer.Error()
}
