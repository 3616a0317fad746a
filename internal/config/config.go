package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Documents DocumentConfig
	Jobs      JobsConfig
	LogDir    string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Path string
}

// DSN builds the SQLite connection string. _txlock=immediate makes every
// write transaction take the database write lock at BEGIN, which is what
// serializes concurrent ticket-number allocations.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", c.Path)
}

type DocumentConfig struct {
	CompanyHeader []string
	FontPath      string
	FontBoldPath  string
	TicketPDFDir  string
	ReportPDFDir  string
	PrintCommand  string
}

type JobsConfig struct {
	SourcePath     string
	DefaultPath    string
	RemoteDriver   string
	RemoteDSN      string
	RemoteQuery    string
	RemoteTimeout  time.Duration
	RefreshOnStart bool
}

const defaultJobsQuery = `
SELECT
    CAST(job_code AS VARCHAR(100)) AS job_code,
    CAST(job_name AS VARCHAR(255)) AS job_name,
    CAST(customer AS VARCHAR(255)) AS customer,
    CAST(active AS INT) AS active,
    source_updated_at
FROM jobs
`

var defaultCompanyHeader = []string{
	"McCracken Materials, LLC",
	"13675 McCracken Road",
	"Garfield Heights, Ohio 44125",
	"Phone: (216) 206-2600",
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "data/tickets.db"),
		},
		Documents: DocumentConfig{
			CompanyHeader: companyHeader(),
			FontPath:      getEnv("PDF_FONT_PATH", "fonts/DejaVuSans.ttf"),
			FontBoldPath:  getEnv("PDF_FONT_BOLD_PATH", "fonts/DejaVuSans-Bold.ttf"),
			TicketPDFDir:  getEnv("PDF_DIR", "tickets_pdf"),
			ReportPDFDir:  getEnv("REPORT_PDF_DIR", "reports_pdf"),
			PrintCommand:  getEnv("PRINT_COMMAND", ""),
		},
		Jobs: JobsConfig{
			SourcePath:     getEnv("JOBS_CSV_PATH", ""),
			DefaultPath:    getEnv("JOBS_DEFAULT_CSV_PATH", "data/jobs.csv"),
			RemoteDriver:   getEnv("REMOTE_SQL_DRIVER", "postgres"),
			RemoteDSN:      getEnv("REMOTE_SQL_DSN", ""),
			RemoteQuery:    getEnv("JOBS_SQL_QUERY", defaultJobsQuery),
			RemoteTimeout:  time.Duration(getEnvInt("REMOTE_SQL_TIMEOUT_SECONDS", 10)) * time.Second,
			RefreshOnStart: getEnvFlag("AUTO_REFRESH_JOBS_ON_STARTUP", true),
		},
		LogDir: getEnv("LOG_DIR", "logs"),
	}
}

// companyHeader parses COMPANY_HEADER as pipe-separated identity lines,
// falling back to the built-in default block.
func companyHeader() []string {
	raw := strings.TrimSpace(os.Getenv("COMPANY_HEADER"))
	if raw == "" {
		return defaultCompanyHeader
	}
	var lines []string
	for _, part := range strings.Split(raw, "|") {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, part)
		}
	}
	if len(lines) == 0 {
		return defaultCompanyHeader
	}
	return lines
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFlag accepts 1/true/yes/on as true, everything else as false.
func getEnvFlag(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
