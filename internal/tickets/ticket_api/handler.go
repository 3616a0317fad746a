package ticket_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"yard-ticketing/internal/logger"
	"yard-ticketing/internal/models"
	"yard-ticketing/internal/tickets/db"
	"yard-ticketing/internal/tickets/service"
)

type Handler struct {
	TicketService *service.TicketService
	Logger        *logger.Logger
}

type createResponse struct {
	Ticket     *models.Ticket `json:"ticket"`
	PrintError string         `json:"print_error,omitempty"`
}

// CreateTicket handles POST /api/tickets. Validation problems come back as
// 400 before any write; an auto-print failure after commit is reported in
// the response body, the ticket stays.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req service.TicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ticket, err := h.TicketService.CreateTicket(r.Context(), req)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Message, http.StatusBadRequest)
			return
		}
		h.Logger.Error("TICKET", fmt.Sprintf("Failed to create ticket: %v", err))
		http.Error(w, "failed to create ticket", http.StatusInternalServerError)
		return
	}
	h.Logger.Info("TICKET", fmt.Sprintf("Created %s (%s %s, %g %s)",
		ticket.TicketNumber, ticket.Direction, ticket.MaterialNameSnapshot, ticket.Quantity, ticket.Unit))

	resp := createResponse{Ticket: ticket}
	if req.AutoPrint {
		if err := h.TicketService.PrintTicket(ticket); err != nil {
			h.Logger.Warn("PRINT", fmt.Sprintf("Ticket %s saved, but print failed: %v", ticket.TicketNumber, err))
			resp.PrintError = err.Error()
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// SearchTickets handles GET /api/tickets.
func (h *Handler) SearchTickets(w http.ResponseWriter, r *http.Request) {
	filter := db.SearchFilter{
		TicketNumber: r.URL.Query().Get("ticket_number"),
		Truck:        r.URL.Query().Get("truck"),
		Job:          r.URL.Query().Get("job"),
		DateFrom:     r.URL.Query().Get("date_from"),
		DateTo:       r.URL.Query().Get("date_to"),
	}

	tickets, err := h.TicketService.SearchTickets(r.Context(), filter)
	if err != nil {
		h.Logger.Error("TICKET", fmt.Sprintf("Search failed: %v", err))
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// TicketPDF handles GET /api/tickets/{ticketID}/pdf, streaming the stored
// document bytes.
func (h *Handler) TicketPDF(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.ticketFromURL(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ticket.TicketNumber+".pdf"))
	w.Write(ticket.PDFBlob)
}

// PrintTicket handles POST /api/tickets/{ticketID}/print, a best-effort
// reprint of the stored document.
func (h *Handler) PrintTicket(w http.ResponseWriter, r *http.Request) {
	ticket, ok := h.ticketFromURL(w, r)
	if !ok {
		return
	}

	if err := h.TicketService.PrintTicket(ticket); err != nil {
		h.Logger.Warn("PRINT", fmt.Sprintf("Print failed for %s: %v", ticket.TicketNumber, err))
		http.Error(w, "print failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "print sent", "ticket_number": ticket.TicketNumber})
}

func (h *Handler) ticketFromURL(w http.ResponseWriter, r *http.Request) (*models.Ticket, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid ticket id", http.StatusBadRequest)
		return nil, false
	}
	ticket, err := h.TicketService.GetTicket(r.Context(), id)
	if err != nil {
		http.Error(w, "ticket not found", http.StatusNotFound)
		return nil, false
	}
	return ticket, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
