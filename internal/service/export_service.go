package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumina-interiors/consultations-api/internal/models"
	"github.com/lumina-interiors/consultations-api/pkg/export"
	appErrors "github.com/lumina-interiors/consultations-api/pkg/errors"
)

// ExportFormat names the supported export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered export and its response metadata.
type ExportResult struct {
	Payload     []byte
	ContentType string
	Filename    string
}

// ExportService renders the consultation list for download. Exports are
// synchronous and returned inline; there is no background job or file store.
type ExportService struct {
	repo    consultationRepository
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	maxRows int
}

// NewExportService constructs an ExportService.
func NewExportService(repo consultationRepository, csv csvRenderer, pdf pdfRenderer, maxRows int, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &ExportService{repo: repo, csv: csv, pdf: pdf, logger: logger, maxRows: maxRows}
}

var exportHeaders = []string{"Name", "Email", "Phone", "Kind", "Date", "Project", "Status", "Source", "Created"}

// Generate renders the consultation list in the requested format.
func (s *ExportService) Generate(ctx context.Context, format ExportFormat, kind string) (*ExportResult, error) {
	filter := models.ConsultationFilter{Page: 1, PageSize: s.maxRows}
	if kind != "" {
		k := models.ConsultationKind(kind)
		if k != models.KindContact && k != models.KindBooking {
			return nil, appErrors.Validation(appErrors.FieldError{Field: "kind", Rule: "oneof", Detail: "must be contact or booking"})
		}
		filter.Kind = &k
	}

	consultations, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consultations for export")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(consultations))}
	for _, c := range consultations {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Name":    c.Name,
			"Email":   c.Email,
			"Phone":   c.Phone,
			"Kind":    string(c.Kind),
			"Date":    c.Date.Format(time.RFC3339),
			"Project": c.ProjectType,
			"Status":  string(c.Status),
			"Source":  c.Source,
			"Created": c.CreatedAt.Format(time.RFC3339),
		})
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Payload: payload, ContentType: "text/csv", Filename: fmt.Sprintf("consultations-%s.csv", stamp)}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Consultations")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Payload: payload, ContentType: "application/pdf", Filename: fmt.Sprintf("consultations-%s.pdf", stamp)}, nil
	default:
		return nil, appErrors.Validation(appErrors.FieldError{Field: "format", Rule: "oneof", Detail: fmt.Sprintf("unsupported format %q", strings.TrimSpace(string(format)))})
	}
}
