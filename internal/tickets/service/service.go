package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"yard-ticketing/internal/models"
	"yard-ticketing/internal/tickets/db"
	"yard-ticketing/internal/timefmt"
)

// ValidationError marks a recoverable request problem: reported to the
// caller before any database mutation, safe to retry.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(message string) error { return &ValidationError{Message: message} }

// TicketRequest carries one ticket-entry submission. Job, truck and material
// each arrive as an optional cache-row id plus the entry text.
type TicketRequest struct {
	Direction     string `json:"direction" validate:"required"`
	JobID         int64  `json:"job_id"`
	JobEntry      string `json:"job_entry" validate:"required"`
	TruckID       int64  `json:"truck_id"`
	TruckEntry    string `json:"truck_entry" validate:"required"`
	MaterialID    int64  `json:"material_id"`
	MaterialEntry string `json:"material_entry" validate:"required"`
	Customer      string `json:"customer"`
	Quantity      string `json:"quantity" validate:"required"`
	Unit          string `json:"unit" validate:"required"`
	Notes         string `json:"notes"`
	AutoPrint     bool   `json:"auto_print"`
	UseNow        bool   `json:"use_now"`
	CustomTime    string `json:"custom_datetime"`
}

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket, render models.RenderFunc) error
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
	SearchTickets(ctx context.Context, filter db.SearchFilter) ([]models.Ticket, error)
	GetJobByID(ctx context.Context, id int64) (*models.JobCacheEntry, error)
	GetTruckByID(ctx context.Context, id int64) (*models.Truck, error)
	GetMaterialByID(ctx context.Context, id int64) (*models.Material, error)
}

type Renderer interface {
	RenderTicket(ticket *models.Ticket) ([]byte, error)
}

type Printer interface {
	Spool(path string) error
}

type TicketService struct {
	DB       TicketDBLayer
	Renderer Renderer
	Printer  Printer
	PDFDir   string

	validate *validator.Validate
}

func NewTicketService(db TicketDBLayer, renderer Renderer, printer Printer, pdfDir string) *TicketService {
	return &TicketService{
		DB:       db,
		Renderer: renderer,
		Printer:  printer,
		PDFDir:   pdfDir,
		validate: validator.New(),
	}
}

// CreateTicket validates the request, resolves references into snapshot
// values, and creates the ticket with its rendered document in one
// transaction. Auto-print is the caller's concern: it runs after commit.
func (s *TicketService) CreateTicket(ctx context.Context, req TicketRequest) (*models.Ticket, error) {
	normalize(&req)

	if err := s.validate.Struct(req); err != nil {
		return nil, validationErr("job, truck, material, quantity, and unit are required")
	}
	if req.Direction != models.DirectionIn && req.Direction != models.DirectionOut {
		return nil, validationErr("direction must be IN or OUT")
	}

	quantity, err := strconv.ParseFloat(req.Quantity, 64)
	if err != nil {
		return nil, validationErr("quantity must be numeric")
	}

	createdAt, err := creationTime(req)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		Direction:  req.Direction,
		CreatedAt:  createdAt,
		TicketYear: time.Now().Year(),
		Quantity:   quantity,
		Unit:       req.Unit,
		Notes:      req.Notes,
	}
	if err := s.resolveReferences(ctx, req, ticket); err != nil {
		return nil, err
	}

	err = s.DB.CreateTicket(ctx, ticket, func(t *models.Ticket) ([]byte, string, error) {
		blob, err := s.Renderer.RenderTicket(t)
		if err != nil {
			return nil, "", err
		}
		path, err := s.savePDF(t, blob)
		if err != nil {
			return nil, "", err
		}
		return blob, path, nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func normalize(req *TicketRequest) {
	req.Direction = strings.ToUpper(strings.TrimSpace(req.Direction))
	req.JobEntry = strings.TrimSpace(req.JobEntry)
	req.TruckEntry = strings.TrimSpace(req.TruckEntry)
	req.MaterialEntry = strings.TrimSpace(req.MaterialEntry)
	req.Customer = strings.TrimSpace(req.Customer)
	req.Notes = strings.TrimSpace(req.Notes)

	req.Quantity = strings.TrimSpace(req.Quantity)
	if req.Quantity == "" {
		req.Quantity = "1"
	}
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Unit == "" {
		req.Unit = "Load"
	}
}

func creationTime(req TicketRequest) (time.Time, error) {
	if req.UseNow {
		return time.Now(), nil
	}
	if strings.TrimSpace(req.CustomTime) == "" {
		return time.Time{}, validationErr("please select a valid date and time")
	}
	t, err := timefmt.ParseInput(req.CustomTime)
	if err != nil {
		return time.Time{}, validationErr("invalid date format")
	}
	return t, nil
}

// resolveReferences fills the snapshot fields. A supplied id that resolves
// wins over the entry text; an id with no matching row falls back to the
// entry text, any other lookup failure aborts. The cached customer only
// fills in when the caller gave none. Free job text containing " - " splits
// into (code, name).
func (s *TicketService) resolveReferences(ctx context.Context, req TicketRequest, ticket *models.Ticket) error {
	customer := req.Customer

	if req.JobID != 0 {
		job, err := s.DB.GetJobByID(ctx, req.JobID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up job %d: %w", req.JobID, err)
		}
		if err == nil {
			id := job.ID
			ticket.JobID = &id
			ticket.JobCodeSnapshot = job.JobCode
			ticket.JobNameSnapshot = job.JobName
			if customer == "" {
				customer = strings.TrimSpace(job.Customer)
			}
		}
	}
	if ticket.JobID == nil {
		if code, name, ok := strings.Cut(req.JobEntry, " - "); ok {
			ticket.JobCodeSnapshot = strings.TrimSpace(code)
			ticket.JobNameSnapshot = strings.TrimSpace(name)
		} else {
			ticket.JobCodeSnapshot = req.JobEntry
			ticket.JobNameSnapshot = req.JobEntry
		}
	}
	ticket.CustomerSnapshot = customer

	if req.TruckID != 0 {
		truck, err := s.DB.GetTruckByID(ctx, req.TruckID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up truck %d: %w", req.TruckID, err)
		}
		if err == nil {
			id := truck.ID
			ticket.TruckID = &id
			ticket.TruckNumberSnapshot = truck.TruckNumber
		}
	}
	if ticket.TruckID == nil {
		ticket.TruckNumberSnapshot = req.TruckEntry
	}

	if req.MaterialID != 0 {
		material, err := s.DB.GetMaterialByID(ctx, req.MaterialID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up material %d: %w", req.MaterialID, err)
		}
		if err == nil {
			id := material.ID
			ticket.MaterialID = &id
			ticket.MaterialNameSnapshot = material.MaterialName
		}
	}
	if ticket.MaterialID == nil {
		ticket.MaterialNameSnapshot = req.MaterialEntry
	}

	return nil
}

// savePDF writes the rendered bytes under <dir>/<year>/<number>.pdf. It runs
// before the creation transaction commits; an orphan file after a rollback
// is acceptable, a committed row always carries the blob itself.
func (s *TicketService) savePDF(ticket *models.Ticket, blob []byte) (string, error) {
	yearDir := filepath.Join(s.PDFDir, strconv.Itoa(ticket.TicketYear))
	if err := os.MkdirAll(yearDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create ticket pdf directory: %w", err)
	}
	path := filepath.Join(yearDir, ticket.TicketNumber+".pdf")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("failed to write ticket pdf: %w", err)
	}
	return path, nil
}

func (s *TicketService) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ticket %d not found: %w", id, err)
	}
	return ticket, nil
}

func (s *TicketService) SearchTickets(ctx context.Context, filter db.SearchFilter) ([]models.Ticket, error) {
	return s.DB.SearchTickets(ctx, filter)
}

// PrintTicket spools the stored document. Best effort: the ticket is already
// durable, a failure here is reported but never unwinds the ticket.
func (s *TicketService) PrintTicket(ticket *models.Ticket) error {
	if ticket.PDFPath == "" {
		return fmt.Errorf("ticket %s has no stored document path", ticket.TicketNumber)
	}
	if err := s.Printer.Spool(ticket.PDFPath); err != nil {
		return fmt.Errorf("failed to print %s: %w", ticket.TicketNumber, err)
	}
	return nil
}
