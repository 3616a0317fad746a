package jobs

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column aliases, checked in order. The master list arrives under different
// header conventions depending on which system exported it.
var (
	codeAliases     = []string{"job_code", "Job #", "Job#", "Job Number"}
	nameAliases     = []string{"job_name", "Job Name"}
	customerAliases = []string{"customer", "Customer Name"}
	activeAliases   = []string{"active", "Job Status"}
	updatedAliases  = []string{"source_updated_at"}
)

// statusCodeAlias marks the header whose values follow the status-code
// convention: "A" means active, anything else inactive.
const statusCodeAlias = "Job Status"

// columnMap is the resolved header layout. Indexes are -1 when the column is
// absent.
type columnMap struct {
	code     int
	name     int
	customer int
	active   int
	updated  int

	statusConvention bool
}

func resolveColumns(header []string) (columnMap, error) {
	fields := make(map[string]int, len(header))
	for i, name := range header {
		fields[strings.TrimSpace(name)] = i
	}
	firstPresent := func(aliases []string) (int, string) {
		for _, alias := range aliases {
			if i, ok := fields[alias]; ok {
				return i, alias
			}
		}
		return -1, ""
	}

	cm := columnMap{}
	var activeAlias string
	cm.code, _ = firstPresent(codeAliases)
	cm.name, _ = firstPresent(nameAliases)
	cm.customer, _ = firstPresent(customerAliases)
	cm.active, activeAlias = firstPresent(activeAliases)
	cm.updated, _ = firstPresent(updatedAliases)
	cm.statusConvention = activeAlias == statusCodeAlias

	var missing []string
	if cm.code < 0 {
		missing = append(missing, "job_code or Job #")
	}
	if cm.name < 0 {
		missing = append(missing, "job_name or Job Name")
	}
	if len(missing) > 0 {
		return columnMap{}, &ConfigError{
			Message: fmt.Sprintf("jobs source missing required columns: %s", strings.Join(missing, ", ")),
		}
	}
	return cm, nil
}

func (cm columnMap) row(record []string) sourceRow {
	cell := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	return sourceRow{
		Code:            cell(cm.code),
		Name:            cell(cm.name),
		Customer:        cell(cm.customer),
		Active:          cm.decodeActive(cell(cm.active)),
		SourceUpdatedAt: cell(cm.updated),
	}
}

// decodeActive depends on which alias matched: the status-code convention
// treats exactly "A" as active; a plain flag parses as an integer and
// defaults to active on empty or unparseable input.
func (cm columnMap) decodeActive(raw string) bool {
	if cm.active < 0 {
		return true
	}
	if cm.statusConvention {
		return strings.EqualFold(raw, "A")
	}
	if raw == "" {
		return true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return true
	}
	return n != 0
}

func readSourceFile(path string) ([]sourceRow, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	return readCSV(path)
}

func readCSV(path string) ([]sourceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jobs file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs csv: %w", err)
	}
	if len(records) == 0 {
		return nil, &ConfigError{Message: "jobs csv is missing a header row"}
	}

	header := records[0]
	if len(header) > 0 {
		// Spreadsheet exports often lead with a UTF-8 BOM.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cm, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	rows := make([]sourceRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, cm.row(record))
	}
	return rows, nil
}

func readXLSX(path string) ([]sourceRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jobs spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ConfigError{Message: "jobs spreadsheet has no sheets"}
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs spreadsheet: %w", err)
	}
	if len(records) == 0 {
		return nil, &ConfigError{Message: "jobs spreadsheet is missing a header row"}
	}

	cm, err := resolveColumns(records[0])
	if err != nil {
		return nil, err
	}

	rows := make([]sourceRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, cm.row(record))
	}
	return rows, nil
}
