package models

import "time"

// ConsultationKind classifies how a consultation entered the system.
type ConsultationKind string

const (
	KindContact ConsultationKind = "contact"
	KindBooking ConsultationKind = "booking"
)

// ConsultationStatus tracks the operator-managed lifecycle of a consultation.
// The dashboard walks records pending -> confirmed -> completed, but the
// service accepts any of these values on any existing record.
type ConsultationStatus string

const (
	StatusPending   ConsultationStatus = "pending"
	StatusConfirmed ConsultationStatus = "confirmed"
	StatusCompleted ConsultationStatus = "completed"
)

// ValidStatus reports whether s is one of the defined lifecycle values.
func ValidStatus(s ConsultationStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	default:
		return false
	}
}

// ContactFormProjectType is written on contact-form submissions. The legacy
// site distinguished messages from bookings by this sentinel alone; the kind
// column is authoritative now but the sentinel is still stored for older
// dashboard exports that key off it.
const ContactFormProjectType = "Contact Form Message"

const (
	SourceWebsite     = "website"
	SourceContactForm = "contact_form"
)

// Consultation is the single persisted record behind both the contact form
// and the booking form on the marketing site.
type Consultation struct {
	ID                   string             `db:"id" json:"id"`
	Kind                 ConsultationKind   `db:"kind" json:"kind"`
	Name                 string             `db:"name" json:"name"`
	Email                string             `db:"email" json:"email"`
	Phone                string             `db:"phone" json:"phone"`
	Date                 time.Time          `db:"date" json:"date"`
	ProjectType          string             `db:"project_type" json:"project_type"`
	Requirements         string             `db:"requirements" json:"requirements"`
	Status               ConsultationStatus `db:"status" json:"status"`
	Address              *string            `db:"address" json:"address,omitempty"`
	Budget               *string            `db:"budget" json:"budget,omitempty"`
	PreferredContactTime *string            `db:"preferred_contact_time" json:"preferred_contact_time,omitempty"`
	Source               string             `db:"source" json:"source"`
	Notes                *string            `db:"notes" json:"notes,omitempty"`
	CreatedAt            time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `db:"updated_at" json:"updated_at"`
}

// ConsultationFilter captures listing criteria for the admin view.
type ConsultationFilter struct {
	Kind     *ConsultationKind
	Status   *ConsultationStatus
	Page     int
	PageSize int
}

// ConsultationSummary aggregates counts for the admin dashboard.
type ConsultationSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Contacts  int `json:"contacts"`
	Bookings  int `json:"bookings"`
}
