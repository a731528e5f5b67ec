package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumina-interiors/consultations-api/internal/models"
)

const consultationColumns = `id, kind, name, email, phone, date, project_type, requirements, status, address, budget, preferred_contact_time, source, notes, created_at, updated_at`

// ConsultationRepository manages persistence for consultations.
type ConsultationRepository struct {
	db *sqlx.DB
}

// NewConsultationRepository constructs a new repository.
func NewConsultationRepository(db *sqlx.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

// Create inserts a new consultation row.
func (r *ConsultationRepository) Create(ctx context.Context, consultation *models.Consultation) error {
	if consultation.ID == "" {
		consultation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if consultation.CreatedAt.IsZero() {
		consultation.CreatedAt = now
	}
	consultation.UpdatedAt = now
	query := `INSERT INTO consultations (id, kind, name, email, phone, date, project_type, requirements, status, address, budget, preferred_contact_time, source, notes, created_at, updated_at)
VALUES (:id, :kind, :name, :email, :phone, :date, :project_type, :requirements, :status, :address, :budget, :preferred_contact_time, :source, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, consultation); err != nil {
		return fmt.Errorf("create consultation: %w", err)
	}
	return nil
}

// FindByID returns a consultation by identifier.
func (r *ConsultationRepository) FindByID(ctx context.Context, id string) (*models.Consultation, error) {
	query := fmt.Sprintf(`SELECT %s FROM consultations WHERE id = $1 LIMIT 1`, consultationColumns)
	var consultation models.Consultation
	if err := r.db.GetContext(ctx, &consultation, query, id); err != nil {
		return nil, err
	}
	return &consultation, nil
}

// List returns consultations per provided filter with total count.
func (r *ConsultationRepository) List(ctx context.Context, filter models.ConsultationFilter) ([]models.Consultation, int, error) {
	base := "FROM consultations"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Kind != nil {
		where = append(where, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, *filter.Kind)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT %s
%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, consultationColumns, base, whereClause, size, offset)
	var consultations []models.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count consultations: %w", err)
	}
	return consultations, total, nil
}

// UpdateStatus sets the lifecycle status on an existing row.
func (r *ConsultationRepository) UpdateStatus(ctx context.Context, id string, status models.ConsultationStatus, updatedAt time.Time) error {
	const query = `UPDATE consultations SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, updatedAt); err != nil {
		return fmt.Errorf("update consultation status: %w", err)
	}
	return nil
}

// UpdateNotes replaces the operator notes on an existing row. A nil value
// clears the column.
func (r *ConsultationRepository) UpdateNotes(ctx context.Context, id string, notes *string, updatedAt time.Time) error {
	const query = `UPDATE consultations SET notes = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, notes, updatedAt); err != nil {
		return fmt.Errorf("update consultation notes: %w", err)
	}
	return nil
}

// Summary aggregates counts by status and kind.
func (r *ConsultationRepository) Summary(ctx context.Context) (*models.ConsultationSummary, error) {
	const query = `SELECT COUNT(*) AS total,
        COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END),0) AS pending,
        COALESCE(SUM(CASE WHEN status = 'confirmed' THEN 1 ELSE 0 END),0) AS confirmed,
        COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END),0) AS completed,
        COALESCE(SUM(CASE WHEN kind = 'contact' THEN 1 ELSE 0 END),0) AS contacts,
        COALESCE(SUM(CASE WHEN kind = 'booking' THEN 1 ELSE 0 END),0) AS bookings
FROM consultations`
	var summary models.ConsultationSummary
	if err := r.db.QueryRowxContext(ctx, query).Scan(&summary.Total, &summary.Pending, &summary.Confirmed, &summary.Completed, &summary.Contacts, &summary.Bookings); err != nil {
		return nil, fmt.Errorf("consultation summary: %w", err)
	}
	return &summary, nil
}
