package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-interiors/consultations-api/internal/models"
	"github.com/lumina-interiors/consultations-api/internal/service"
	appErrors "github.com/lumina-interiors/consultations-api/pkg/errors"
	"github.com/lumina-interiors/consultations-api/pkg/response"
)

type consultationServiceMock struct {
	contactResp  *models.Consultation
	contactErr   error
	bookingResp  *models.Consultation
	bookingErr   error
	getResp      *models.Consultation
	getErr       error
	listResp     []models.Consultation
	listPag      *models.Pagination
	listErr      error
	statusResp   *models.Consultation
	statusErr    error
	notesResp    *models.Consultation
	notesErr     error
	summaryResp  *models.ConsultationSummary
	summaryErr   error
	lastListReq  service.ConsultationListRequest
	lastStatusID string
	lastStatus   service.UpdateStatusRequest
	contactReq   service.ContactIntakeRequest
}

func (m *consultationServiceMock) SubmitContact(ctx context.Context, req service.ContactIntakeRequest) (*models.Consultation, error) {
	m.contactReq = req
	return m.contactResp, m.contactErr
}

func (m *consultationServiceMock) SubmitBooking(ctx context.Context, req service.BookingIntakeRequest) (*models.Consultation, error) {
	return m.bookingResp, m.bookingErr
}

func (m *consultationServiceMock) Get(ctx context.Context, id string) (*models.Consultation, error) {
	return m.getResp, m.getErr
}

func (m *consultationServiceMock) List(ctx context.Context, req service.ConsultationListRequest) ([]models.Consultation, *models.Pagination, error) {
	m.lastListReq = req
	return m.listResp, m.listPag, m.listErr
}

func (m *consultationServiceMock) UpdateStatus(ctx context.Context, id string, req service.UpdateStatusRequest) (*models.Consultation, error) {
	m.lastStatusID = id
	m.lastStatus = req
	return m.statusResp, m.statusErr
}

func (m *consultationServiceMock) UpdateNotes(ctx context.Context, id string, req service.UpdateNotesRequest) (*models.Consultation, error) {
	return m.notesResp, m.notesErr
}

func (m *consultationServiceMock) Summary(ctx context.Context) (*models.ConsultationSummary, error) {
	return m.summaryResp, m.summaryErr
}

type exportServiceMock struct {
	result     *service.ExportResult
	err        error
	lastFormat service.ExportFormat
	lastKind   string
}

func (m *exportServiceMock) Generate(ctx context.Context, format service.ExportFormat, kind string) (*service.ExportResult, error) {
	m.lastFormat = format
	m.lastKind = kind
	return m.result, m.err
}

func newTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestConsultationHandlerSubmitContact(t *testing.T) {
	mockSvc := &consultationServiceMock{
		contactResp: &models.Consultation{ID: "c1", Kind: models.KindContact, Status: models.StatusPending},
	}
	h := NewConsultationHandler(mockSvc, &exportServiceMock{})

	payload := []byte(`{"name":"Jane Doe","email":"jane@example.com","phone":"08123456789","message":"I would like a quote"}`)
	c, w := newTestContext(t, http.MethodPost, "/consultations/contact", payload)

	h.SubmitContact(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Jane Doe", mockSvc.contactReq.Name)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Data)
	assert.Nil(t, envelope.Error)
}

func TestConsultationHandlerSubmitContactMalformedJSON(t *testing.T) {
	h := NewConsultationHandler(&consultationServiceMock{}, &exportServiceMock{})

	c, w := newTestContext(t, http.MethodPost, "/consultations/contact", []byte(`{"name":"Jane`))

	h.SubmitContact(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}

func TestConsultationHandlerSubmitBookingValidationError(t *testing.T) {
	mockSvc := &consultationServiceMock{
		bookingErr: appErrors.Validation(
			appErrors.FieldError{Field: "name", Rule: "required"},
			appErrors.FieldError{Field: "date", Rule: "required"},
		),
	}
	h := NewConsultationHandler(mockSvc, &exportServiceMock{})

	c, w := newTestContext(t, http.MethodPost, "/consultations/bookings", []byte(`{}`))

	h.SubmitBooking(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Len(t, envelope.Error.Fields, 2)
}

func TestConsultationHandlerListForwardsFilters(t *testing.T) {
	mockSvc := &consultationServiceMock{
		listResp: []models.Consultation{{ID: "c1"}},
		listPag:  &models.Pagination{Page: 2, PageSize: 10, TotalCount: 21},
	}
	h := NewConsultationHandler(mockSvc, &exportServiceMock{})

	c, w := newTestContext(t, http.MethodGet, "/admin/consultations?kind=booking&status=pending&page=2&limit=10", nil)

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "booking", mockSvc.lastListReq.Kind)
	assert.Equal(t, "pending", mockSvc.lastListReq.Status)
	assert.Equal(t, 2, mockSvc.lastListReq.Page)
	assert.Equal(t, 10, mockSvc.lastListReq.PageSize)

	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 21, envelope.Pagination.TotalCount)
}

func TestConsultationHandlerGetNotFound(t *testing.T) {
	mockSvc := &consultationServiceMock{
		getErr: appErrors.Clone(appErrors.ErrNotFound, "consultation not found"),
	}
	h := NewConsultationHandler(mockSvc, &exportServiceMock{})

	c, w := newTestContext(t, http.MethodGet, "/admin/consultations/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, envelope.Error.Code)
}

func TestConsultationHandlerUpdateStatus(t *testing.T) {
	mockSvc := &consultationServiceMock{
		statusResp: &models.Consultation{ID: "c1", Status: models.StatusConfirmed},
	}
	h := NewConsultationHandler(mockSvc, &exportServiceMock{})

	c, w := newTestContext(t, http.MethodPatch, "/admin/consultations/c1/status", []byte(`{"status":"confirmed"}`))
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	h.UpdateStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", mockSvc.lastStatusID)
	assert.Equal(t, "confirmed", mockSvc.lastStatus.Status)
}

func TestConsultationHandlerSummary(t *testing.T) {
	mockSvc := &consultationServiceMock{
		summaryResp: &models.ConsultationSummary{Total: 3, Pending: 1, Contacts: 2, Bookings: 1},
	}
	h := NewConsultationHandler(mockSvc, &exportServiceMock{})

	c, w := newTestContext(t, http.MethodGet, "/admin/consultations/summary", nil)

	h.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Data)
}

func TestConsultationHandlerExport(t *testing.T) {
	mockExports := &exportServiceMock{
		result: &service.ExportResult{
			Payload:     []byte("Name,Email\n"),
			ContentType: "text/csv",
			Filename:    "consultations-20250715-100000.csv",
		},
	}
	h := NewConsultationHandler(&consultationServiceMock{}, mockExports)

	c, w := newTestContext(t, http.MethodGet, "/admin/consultations/export?format=csv&kind=contact", nil)

	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ExportFormatCSV, mockExports.lastFormat)
	assert.Equal(t, "contact", mockExports.lastKind)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "consultations-20250715-100000.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
