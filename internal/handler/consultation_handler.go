package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lumina-interiors/consultations-api/internal/models"
	"github.com/lumina-interiors/consultations-api/internal/service"
	appErrors "github.com/lumina-interiors/consultations-api/pkg/errors"
	"github.com/lumina-interiors/consultations-api/pkg/response"
)

type consultationService interface {
	SubmitContact(ctx context.Context, req service.ContactIntakeRequest) (*models.Consultation, error)
	SubmitBooking(ctx context.Context, req service.BookingIntakeRequest) (*models.Consultation, error)
	Get(ctx context.Context, id string) (*models.Consultation, error)
	List(ctx context.Context, req service.ConsultationListRequest) ([]models.Consultation, *models.Pagination, error)
	UpdateStatus(ctx context.Context, id string, req service.UpdateStatusRequest) (*models.Consultation, error)
	UpdateNotes(ctx context.Context, id string, req service.UpdateNotesRequest) (*models.Consultation, error)
	Summary(ctx context.Context) (*models.ConsultationSummary, error)
}

type exportService interface {
	Generate(ctx context.Context, format service.ExportFormat, kind string) (*service.ExportResult, error)
}

// ConsultationHandler exposes intake and admin consultation endpoints.
type ConsultationHandler struct {
	service consultationService
	exports exportService
}

// NewConsultationHandler constructs a consultation handler.
func NewConsultationHandler(svc consultationService, exports exportService) *ConsultationHandler {
	return &ConsultationHandler{service: svc, exports: exports}
}

// SubmitContact godoc
// @Summary Submit a contact-form message
// @Description Validates and stores a contact message as a pending consultation
// @Tags Consultations
// @Accept json
// @Produce json
// @Param payload body service.ContactIntakeRequest true "Contact payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /consultations/contact [post]
func (h *ConsultationHandler) SubmitContact(c *gin.Context) {
	var req service.ContactIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	consultation, err := h.service.SubmitContact(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, consultation)
}

// SubmitBooking godoc
// @Summary Submit a booking request
// @Description Validates and stores a booking as a pending consultation
// @Tags Consultations
// @Accept json
// @Produce json
// @Param payload body service.BookingIntakeRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /consultations/bookings [post]
func (h *ConsultationHandler) SubmitBooking(c *gin.Context) {
	var req service.BookingIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	consultation, err := h.service.SubmitBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, consultation)
}

// List godoc
// @Summary List consultations
// @Description List consultations with optional kind/status filters
// @Tags Consultations
// @Produce json
// @Param kind query string false "Filter by kind (contact|booking)"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/consultations [get]
func (h *ConsultationHandler) List(c *gin.Context) {
	req := service.ConsultationListRequest{
		Kind:   c.Query("kind"),
		Status: c.Query("status"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		req.PageSize = size
	}

	consultations, pagination, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultations, pagination)
}

// Get godoc
// @Summary Get a consultation
// @Tags Consultations
// @Produce json
// @Param id path string true "Consultation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/consultations/{id} [get]
func (h *ConsultationHandler) Get(c *gin.Context) {
	consultation, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation, nil)
}

// UpdateStatus godoc
// @Summary Update consultation status
// @Tags Consultations
// @Accept json
// @Produce json
// @Param id path string true "Consultation ID"
// @Param payload body service.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/consultations/{id}/status [patch]
func (h *ConsultationHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	consultation, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation, nil)
}

// UpdateNotes godoc
// @Summary Update consultation notes
// @Tags Consultations
// @Accept json
// @Produce json
// @Param id path string true "Consultation ID"
// @Param payload body service.UpdateNotesRequest true "Notes payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/consultations/{id}/notes [patch]
func (h *ConsultationHandler) UpdateNotes(c *gin.Context) {
	var req service.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	consultation, err := h.service.UpdateNotes(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation, nil)
}

// Summary godoc
// @Summary Consultation dashboard counts
// @Tags Consultations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/consultations/summary [get]
func (h *ConsultationHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export consultations
// @Description Download the consultation list as CSV or PDF
// @Tags Consultations
// @Produce octet-stream
// @Param format query string false "Export format (csv|pdf)"
// @Param kind query string false "Filter by kind"
// @Success 200 {file} binary
// @Router /admin/consultations/export [get]
func (h *ConsultationHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.Generate(c.Request.Context(), format, c.Query("kind"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
