// Package worklog records daily worked hours against projects and drafts
// entries from free-form text via the external parser service.
package worklog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateEntry means an entry already exists for the same user,
	// project and day.
	ErrDuplicateEntry = errors.New("worklog: entry already exists for this day")
)

// Entry is one recorded block of work.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	ProjectID   string    `json:"project_id"`
	WorkDate    time.Time `json:"work_date"`
	Hours       float64   `json:"hours"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateEntryInput carries a new entry before validation.
type CreateEntryInput struct {
	UserID    string  `json:"user_id" validate:"required"`
	ProjectID string  `json:"project_id" validate:"required"`
	WorkDate  string  `json:"work_date" validate:"required,datetime=2006-01-02"`
	Hours     float64 `json:"hours" validate:"required,gt=0,lte=24"`
	Note      string  `json:"note" validate:"omitempty,max=500"`
}

// ListFilter selects entries for one user and month.
type ListFilter struct {
	UserID string `json:"user_id" validate:"required"`
	Year   int    `json:"year" validate:"required,gte=2000,lte=2100"`
	Month  int    `json:"month" validate:"required,gte=1,lte=12"`
}

// ParseInput is a free-form draft to send to the parser service.
type ParseInput struct {
	UserID        string `json:"user_id" validate:"required"`
	Draft         string `json:"draft" validate:"required,max=4000"`
	ReferenceDate string `json:"reference_date" validate:"omitempty,datetime=2006-01-02"`
}
