package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenderStatus is the owner-driven lifecycle state of a tender.
type TenderStatus string

const (
	TenderDraft           TenderStatus = "DRAFT"
	TenderPendingApproval TenderStatus = "PENDING_APPROVAL"
	TenderLive            TenderStatus = "LIVE"
	TenderPublished       TenderStatus = "PUBLISHED"
	TenderClosed          TenderStatus = "CLOSED"
	TenderCancelled       TenderStatus = "CANCELLED"
)

// Open reports whether the tender is in a state that accepts viewers.
// LIVE and PUBLISHED are treated as equivalent.
func (s TenderStatus) Open() bool {
	return s == TenderLive || s == TenderPublished
}

// ApprovalStatus is set by the moderation workflow; this service only
// reads it, never transitions it.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// TenderTier is the paid visibility level of a tender.
type TenderTier string

const (
	TierFreeTrial TenderTier = "FREE_TRIAL"
	TierBasic8    TenderTier = "BASIC_8"
	TierPremium14 TenderTier = "PREMIUM_14"
)

// RadiusRestricted reports whether the tier caps how far away a viewer
// may be. Unknown or malformed tiers default to restricted.
func (t TenderTier) RadiusRestricted() bool {
	return t != TierPremium14
}

// TenderRecord represents a posted project open for quoting.
type TenderRecord struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primarykey"`
	OwnerID        uuid.UUID      `json:"owner_id" gorm:"type:uuid;index;not null"`
	Name           string         `json:"name" gorm:"type:varchar(255);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Status         TenderStatus   `json:"status" gorm:"type:varchar(32);index;not null"`
	ApprovalStatus ApprovalStatus `json:"approval_status" gorm:"type:varchar(32);index;not null;default:'PENDING'"`
	Tier           TenderTier     `json:"tier" gorm:"type:varchar(32);not null;default:'FREE_TRIAL'"`

	// IsNameHidden masks the requester identity before signup.
	IsNameHidden bool `json:"is_name_hidden" gorm:"default:false"`

	// LimitedQuotesEnabled caps submissions for every viewer regardless
	// of role. QuoteCountTotal only ever increments; administrative
	// corrections happen outside this service.
	LimitedQuotesEnabled bool `json:"limited_quotes_enabled" gorm:"default:false"`
	QuoteCapTotal        *int `json:"quote_cap_total"`
	QuoteCountTotal      int  `json:"quote_count_total" gorm:"not null;default:0"`

	Suburb   string   `json:"suburb" gorm:"type:varchar(100)"`
	Postcode string   `json:"postcode" gorm:"type:varchar(10)"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`

	DesiredStart *time.Time `json:"desired_start"`
	DesiredEnd   *time.Time `json:"desired_end"`

	// Denormalized owner reputation used by the ranking modes.
	OwnerRating      float64 `json:"owner_rating" gorm:"default:0"`
	OwnerRatingCount int     `json:"owner_rating_count" gorm:"default:0"`
	OwnerPremium     bool    `json:"owner_premium" gorm:"default:false"`
	OwnerVerified    bool    `json:"owner_verified" gorm:"default:false"`

	TradeRequirements []TenderTradeRequirement `json:"trade_requirements" gorm:"foreignKey:TenderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// CapReached reports whether the aggregate quote cap has been exhausted.
// A tender without a cap never reports reached.
func (t *TenderRecord) CapReached() bool {
	return t.QuoteCapTotal != nil && t.QuoteCountTotal >= *t.QuoteCapTotal
}

// TenderTradeRequirement is one trade a tender needs, with an optional
// budget band in integer cents. Money is never stored as floats.
type TenderTradeRequirement struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	TenderID    uuid.UUID `json:"tender_id" gorm:"type:uuid;index;not null"`
	Trade       string    `json:"trade" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:text"`

	BudgetMinCents *int64 `json:"budget_min_cents"`
	BudgetMaxCents *int64 `json:"budget_max_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BudgetValid reports whether the budget band is well formed. A band
// with min > max is a data-quality problem, not a hard failure.
func (r *TenderTradeRequirement) BudgetValid() bool {
	if r.BudgetMinCents == nil || r.BudgetMaxCents == nil {
		return true
	}
	return *r.BudgetMinCents <= *r.BudgetMaxCents
}

// ConfigWarnings lists data-quality problems with a tender. These make
// the tender fail closed for non-owners and are surfaced to the owner
// as warnings on their own detail view.
func (t *TenderRecord) ConfigWarnings() []string {
	var warnings []string
	if len(t.TradeRequirements) == 0 {
		warnings = append(warnings, "no trades have been added, so this tender is not visible to any professional")
	}
	for _, req := range t.TradeRequirements {
		if !req.BudgetValid() {
			warnings = append(warnings, "budget minimum exceeds maximum for trade "+req.Trade)
		}
	}
	return warnings
}
