package model

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus is the lifecycle of a submitted quote.
type QuoteStatus string

const (
	QuoteSubmitted QuoteStatus = "SUBMITTED"
	QuoteWithdrawn QuoteStatus = "WITHDRAWN"
	QuoteAccepted  QuoteStatus = "ACCEPTED"
	QuoteRejected  QuoteStatus = "REJECTED"
)

// Active reports whether the quote still counts against duplicate and
// quota checks. Withdrawn quotes do not.
func (s QuoteStatus) Active() bool {
	return s != QuoteWithdrawn
}

// BillingMode records how a quote was paid for.
type BillingMode string

const (
	BillingFreeMonthlyTrial BillingMode = "FREE_MONTHLY_TRIAL"
	BillingSubscription     BillingMode = "SUBSCRIPTION"
)

// Quote is a priced bid submitted by a professional against a tender.
// The partial unique index enforces one active quote per viewer per
// tender at the store: withdrawn quotes are excluded so a withdrawal
// re-opens submission.
type Quote struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primarykey"`
	TenderID uuid.UUID `json:"tender_id" gorm:"type:uuid;not null;uniqueIndex:idx_quotes_active_tender_viewer,where:status <> 'WITHDRAWN'"`
	ViewerID uuid.UUID `json:"viewer_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_quotes_active_tender_viewer,where:status <> 'WITHDRAWN'"`

	PriceCents int64  `json:"price_cents" gorm:"not null"`
	Notes      string `json:"notes" gorm:"type:text"`

	Status QuoteStatus `json:"status" gorm:"type:varchar(32);not null;default:'SUBMITTED'"`

	BillingMode BillingMode `json:"billing_mode" gorm:"type:varchar(32);not null"`
	// BillingMonthKey pins the quote to the calendar month it was
	// submitted in, so monthly free quotas reset on the next boundary.
	BillingMonthKey string `json:"billing_month_key" gorm:"type:varchar(7);index;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MonthKey returns the stable sortable billing key for a point in time.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
