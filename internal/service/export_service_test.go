package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-interiors/consultations-api/internal/models"
	appErrors "github.com/lumina-interiors/consultations-api/pkg/errors"
)

func exportFixture() *mockConsultationRepo {
	now := time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)
	return &mockConsultationRepo{
		listResult: []models.Consultation{
			{
				ID: "c1", Kind: models.KindBooking, Name: "Jane Doe", Email: "jane@example.com",
				Phone: "08123456789", Date: now, ProjectType: "Full Home Renovation",
				Status: models.StatusPending, Source: models.SourceWebsite, CreatedAt: now,
			},
			{
				ID: "c2", Kind: models.KindContact, Name: "John Roe", Email: "john@example.com",
				Phone: "08198765432", Date: now, ProjectType: models.ContactFormProjectType,
				Status: models.StatusConfirmed, Source: models.SourceContactForm, CreatedAt: now,
			},
		},
		listTotal: 2,
	}
}

func TestExportCSV(t *testing.T) {
	repo := exportFixture()
	svc := NewExportService(repo, nil, nil, 0, nil)

	result, err := svc.Generate(context.Background(), ExportFormatCSV, "")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "consultations-"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	assert.Contains(t, body, "Name,Email,Phone,Kind,Date,Project,Status,Source,Created")
	assert.Contains(t, body, "Jane Doe")
	assert.Contains(t, body, "Full Home Renovation")
	assert.Contains(t, body, "john@example.com")
}

func TestExportPDF(t *testing.T) {
	repo := exportFixture()
	svc := NewExportService(repo, nil, nil, 0, nil)

	result, err := svc.Generate(context.Background(), ExportFormatPDF, "booking")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.True(t, len(result.Payload) > 0)
	assert.Equal(t, "%PDF", string(result.Payload[:4]))

	require.NotNil(t, repo.listFilter.Kind)
	assert.Equal(t, models.KindBooking, *repo.listFilter.Kind)
}

func TestExportUnknownFormat(t *testing.T) {
	repo := exportFixture()
	svc := NewExportService(repo, nil, nil, 0, nil)

	_, err := svc.Generate(context.Background(), ExportFormat("xlsx"), "")
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportUnknownKind(t *testing.T) {
	repo := exportFixture()
	svc := NewExportService(repo, nil, nil, 0, nil)

	_, err := svc.Generate(context.Background(), ExportFormatCSV, "newsletter")
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportCapsRowCount(t *testing.T) {
	repo := exportFixture()
	svc := NewExportService(repo, nil, nil, 25, nil)

	_, err := svc.Generate(context.Background(), ExportFormatCSV, "")
	require.NoError(t, err)
	assert.Equal(t, 25, repo.listFilter.PageSize)
	assert.Equal(t, 1, repo.listFilter.Page)
}
