package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"yard-ticketing/internal/catalog"
	"yard-ticketing/internal/catalog/catalog_api"
	"yard-ticketing/internal/config"
	"yard-ticketing/internal/database/migrations"
	"yard-ticketing/internal/jobs"
	"yard-ticketing/internal/jobs/jobs_api"
	"yard-ticketing/internal/logger"
	"yard-ticketing/internal/printing"
	"yard-ticketing/internal/reports"
	"yard-ticketing/internal/reports/report_api"
	ticket_db "yard-ticketing/internal/tickets/db"
	"yard-ticketing/internal/tickets/service"
	"yard-ticketing/internal/tickets/template"
	"yard-ticketing/internal/tickets/ticket_api"
)

func openDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to create data directory: %v", err))
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.DSN())
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open SQLite: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to SQLite: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("SQLite connection successful (%s)", cfg.Database.Path))

	return bun.NewDB(sqldb, sqlitedialect.New())
}

func refreshJobsOnStartup(synchronizer *jobs.Synchronizer, cfg *config.Config, log *logger.Logger) {
	if !cfg.Jobs.RefreshOnStart {
		log.Info("JOBS", "Startup jobs refresh disabled by AUTO_REFRESH_JOBS_ON_STARTUP")
		return
	}
	count, err := synchronizer.Sync(context.Background())
	if err != nil {
		log.Warn("JOBS", fmt.Sprintf("Startup jobs refresh skipped/failed: %v", err))
		return
	}
	log.Info("JOBS", fmt.Sprintf("Startup jobs refresh complete, %d rows synced", count))
}

func main() {
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment variables from .env file")
	}

	cfg := config.Load()
	log := logger.NewLogger(cfg.LogDir)
	defer log.Close()

	log.Info("APP", "Starting yard ticketing service")

	bunDB := openDatabase(cfg, log)
	defer bunDB.Close()

	if err := migrations.Run(bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	log.Info("DATABASE", "Schema migrations applied")

	renderer := template.NewPDFGenerator(cfg.Documents.FontPath, cfg.Documents.FontBoldPath, cfg.Documents.CompanyHeader)
	spooler := printing.NewSpooler(cfg.Documents.PrintCommand)

	ticketStore := &ticket_db.DB{Bun: bunDB}
	ticketService := service.NewTicketService(ticketStore, renderer, spooler, cfg.Documents.TicketPDFDir)
	reportService := reports.NewService(bunDB)
	catalogStore := &catalog.Store{Bun: bunDB}
	synchronizer := jobs.NewSynchronizer(bunDB, cfg.Jobs)

	refreshJobsOnStartup(synchronizer, cfg, log)

	ticketHandler := &ticket_api.Handler{TicketService: ticketService, Logger: log}
	reportHandler := &report_api.Handler{
		Reports:      reportService,
		Renderer:     renderer,
		Spooler:      spooler,
		ReportPDFDir: cfg.Documents.ReportPDFDir,
		Logger:       log,
	}
	jobsHandler := &jobs_api.Handler{Synchronizer: synchronizer, Catalog: catalogStore, Logger: log}
	catalogHandler := &catalog_api.Handler{Catalog: catalogStore, Logger: log}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", ticketHandler.CreateTicket)
			r.Get("/", ticketHandler.SearchTickets)
			r.Get("/{ticketID}/pdf", ticketHandler.TicketPDF)
			r.Post("/{ticketID}/print", ticketHandler.PrintTicket)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", reportHandler.GetReport)
			r.Get("/export.csv", reportHandler.ExportCSV)
			r.Get("/print", reportHandler.PrintReport)
		})

		r.Post("/jobs/refresh", jobsHandler.RefreshJobs)
		r.Get("/jobs", jobsHandler.ListJobs)
		r.Get("/trucks", catalogHandler.ListTrucks)
		r.Get("/materials", catalogHandler.ListMaterials)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/trucks", catalogHandler.AddTruck)
			r.Post("/trucks/{id}/toggle", catalogHandler.ToggleTruck)
			r.Post("/materials", catalogHandler.AddMaterial)
			r.Post("/materials/{id}/toggle", catalogHandler.ToggleMaterial)
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Yard ticketing service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutdown signal received")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Shutdown complete")
	}
}
