package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumina-interiors/consultations-api/internal/models"
	appErrors "github.com/lumina-interiors/consultations-api/pkg/errors"
)

const summaryCacheKey = "consultations:summary"

type consultationRepository interface {
	Create(ctx context.Context, consultation *models.Consultation) error
	FindByID(ctx context.Context, id string) (*models.Consultation, error)
	List(ctx context.Context, filter models.ConsultationFilter) ([]models.Consultation, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ConsultationStatus, updatedAt time.Time) error
	UpdateNotes(ctx context.Context, id string, notes *string, updatedAt time.Time) error
	Summary(ctx context.Context) (*models.ConsultationSummary, error)
}

// ConsultationService handles intake, the status workflow and admin reads.
type ConsultationService struct {
	repo      consultationRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConsultationService constructs the service. The repository and cache are
// injected explicitly; there is no environment-driven store selection here.
func NewConsultationService(repo consultationRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ConsultationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// Report offending fields under their wire names.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	svc := &ConsultationService{repo: repo, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("consultation_status", func(fl validator.FieldLevel) bool {
		return models.ValidStatus(models.ConsultationStatus(fl.Field().String()))
	})
	return svc
}

// ContactIntakeRequest is the public contact-form payload.
type ContactIntakeRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=100"`
	Email   string  `json:"email" validate:"required,email,max=100"`
	Phone   string  `json:"phone" validate:"required,min=10,max=20"`
	Message string  `json:"message" validate:"required,min=10,max=1000"`
	Address *string `json:"address" validate:"omitempty,max=200"`
}

// BookingIntakeRequest is the public booking-form payload. Date stays a raw
// string through struct validation so an unparseable value can be echoed back.
type BookingIntakeRequest struct {
	Name                 string  `json:"name" validate:"required,min=2,max=100"`
	Email                string  `json:"email" validate:"required,email,max=100"`
	Phone                string  `json:"phone" validate:"required,min=10,max=20"`
	Date                 string  `json:"date" validate:"required"`
	ProjectType          string  `json:"project_type" validate:"required,max=100"`
	Requirements         string  `json:"requirements" validate:"required,min=10,max=1000"`
	Address              *string `json:"address" validate:"omitempty,max=200"`
	Budget               *string `json:"budget" validate:"omitempty,max=100"`
	PreferredContactTime *string `json:"preferred_contact_time" validate:"omitempty,max=100"`
}

// UpdateStatusRequest moves a consultation through its lifecycle.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,consultation_status"`
}

// UpdateNotesRequest replaces operator notes. An empty string clears them.
type UpdateNotesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ConsultationListRequest describes admin listing filters.
type ConsultationListRequest struct {
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// SubmitContact validates a contact-form submission and persists it as a
// pending consultation. The date is always submission time; the message
// doubles as the requirements text.
func (s *ConsultationService) SubmitContact(ctx context.Context, req ContactIntakeRequest) (*models.Consultation, error) {
	// Normalize before validating so length rules apply to the stored value.
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err)
	}
	now := time.Now().UTC()
	consultation := &models.Consultation{
		Kind:         models.KindContact,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Date:         now,
		ProjectType:  models.ContactFormProjectType,
		Requirements: req.Message,
		Status:       models.StatusPending,
		Address:      req.Address,
		Source:       models.SourceContactForm,
	}
	if err := s.repo.Create(ctx, consultation); err != nil {
		s.logger.Error("contact intake persist failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	s.invalidateSummary(ctx)
	s.logger.Info("contact consultation created", zap.String("id", consultation.ID))
	return consultation, nil
}

// SubmitBooking validates a booking submission and persists it as a pending
// consultation. Validation runs fully before any persistence attempt.
func (s *ConsultationService) SubmitBooking(ctx context.Context, req BookingIntakeRequest) (*models.Consultation, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err)
	}
	date, err := parseConsultationDate(req.Date)
	if err != nil {
		return nil, appErrors.Validation(appErrors.FieldError{
			Field:  "date",
			Rule:   "datetime",
			Detail: fmt.Sprintf("cannot parse %q as a timestamp", req.Date),
		})
	}
	consultation := &models.Consultation{
		Kind:                 models.KindBooking,
		Name:                 req.Name,
		Email:                req.Email,
		Phone:                req.Phone,
		Date:                 date,
		ProjectType:          req.ProjectType,
		Requirements:         req.Requirements,
		Status:               models.StatusPending,
		Address:              req.Address,
		Budget:               req.Budget,
		PreferredContactTime: req.PreferredContactTime,
		Source:               models.SourceWebsite,
	}
	if err := s.repo.Create(ctx, consultation); err != nil {
		s.logger.Error("booking intake persist failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	s.invalidateSummary(ctx)
	s.logger.Info("booking consultation created", zap.String("id", consultation.ID))
	return consultation, nil
}

// Get returns a single consultation. Identifiers are uuids; anything that
// cannot be one is treated as not found rather than sent to the store.
func (s *ConsultationService) Get(ctx context.Context, id string) (*models.Consultation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "consultation not found")
	}
	consultation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consultation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch consultation")
	}
	return consultation, nil
}

// List returns consultations with pagination. The kind filter partitions
// records into contact messages and bookings with no overlap.
func (s *ConsultationService) List(ctx context.Context, req ConsultationListRequest) ([]models.Consultation, *models.Pagination, error) {
	filter := models.ConsultationFilter{Page: req.Page, PageSize: req.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if req.Kind != "" {
		kind := models.ConsultationKind(req.Kind)
		if kind != models.KindContact && kind != models.KindBooking {
			return nil, nil, appErrors.Validation(appErrors.FieldError{Field: "kind", Rule: "oneof", Detail: "must be contact or booking"})
		}
		filter.Kind = &kind
	}
	if req.Status != "" {
		status := models.ConsultationStatus(req.Status)
		if !models.ValidStatus(status) {
			return nil, nil, appErrors.Validation(appErrors.FieldError{Field: "status", Rule: "consultation_status", Detail: "must be pending, confirmed or completed"})
		}
		filter.Status = &status
	}
	consultations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list consultations")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return consultations, pagination, nil
}

// UpdateStatus sets a new lifecycle status. Any of the defined values is
// accepted on any existing record; order is not enforced at this layer.
func (s *ConsultationService) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*models.Consultation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err)
	}
	consultation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, models.ConsultationStatus(req.Status), now); err != nil {
		s.logger.Error("status update persist failed", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	consultation.Status = models.ConsultationStatus(req.Status)
	consultation.UpdatedAt = now
	s.invalidateSummary(ctx)
	return consultation, nil
}

// UpdateNotes replaces the operator notes. An empty string clears the field.
func (s *ConsultationService) UpdateNotes(ctx context.Context, id string, req UpdateNotesRequest) (*models.Consultation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.FromValidator(err)
	}
	consultation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var notes *string
	if req.Notes != "" {
		value := req.Notes
		notes = &value
	}
	if err := s.repo.UpdateNotes(ctx, id, notes, now); err != nil {
		s.logger.Error("notes update persist failed", zap.String("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	consultation.Notes = notes
	consultation.UpdatedAt = now
	return consultation, nil
}

// Summary returns dashboard counts, served from cache when warm.
func (s *ConsultationService) Summary(ctx context.Context) (*models.ConsultationSummary, error) {
	var cached models.ConsultationSummary
	if hit, _ := s.cache.Get(ctx, summaryCacheKey, &cached); hit {
		return &cached, nil
	}
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise consultations")
	}
	if err := s.cache.Set(ctx, summaryCacheKey, summary, 0); err != nil {
		s.logger.Warn("summary cache set failed", zap.Error(err))
	}
	return summary, nil
}

func (s *ConsultationService) invalidateSummary(ctx context.Context) {
	if err := s.cache.Delete(ctx, summaryCacheKey); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Error(err))
	}
}

var consultationDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseConsultationDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range consultationDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date value %q", raw)
}
