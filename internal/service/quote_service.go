package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tradehub/internal/eligibility"
	"tradehub/internal/model"
	"tradehub/internal/repository"
	"tradehub/internal/trade"
)

// RejectionKind classifies why a quote submission was refused. Kinds
// are stable identifiers for the UI; Reason carries the display text.
type RejectionKind string

const (
	RejectTenderUnavailable RejectionKind = "TENDER_UNAVAILABLE"
	RejectOwnTender         RejectionKind = "OWN_TENDER"
	RejectTradeMismatch     RejectionKind = "TRADE_MISMATCH"
	RejectABNRequired       RejectionKind = "ABN_REQUIRED"
	RejectABNUnverified     RejectionKind = "ABN_UNVERIFIED"
	RejectMonthlyQuota      RejectionKind = "MONTHLY_QUOTA_EXHAUSTED"
	RejectCapReached        RejectionKind = "QUOTE_CAP_REACHED"
	// RejectCapRaced is distinct from RejectCapReached: the cap filled
	// between this viewer's check and commit, so the UI can explain
	// "someone just took the last slot" instead of implying a stale view.
	RejectCapRaced  RejectionKind = "QUOTE_CAP_RACED"
	RejectDuplicate RejectionKind = "DUPLICATE_QUOTE"
)

// QuoteRejection is an expected, frequent outcome of the gate, returned
// as an ordinary error value and matched with errors.As.
type QuoteRejection struct {
	Kind   RejectionKind `json:"kind"`
	Reason string        `json:"reason"`
}

func (r *QuoteRejection) Error() string {
	return r.Reason
}

func reject(kind RejectionKind, reason string) error {
	return &QuoteRejection{Kind: kind, Reason: reason}
}

// QuoteService is the authoritative submission gate. It re-validates
// trade, ABN and cap state against current records at submission time,
// because listing-time state may be stale.
type QuoteService struct {
	tenders repository.TenderRepository
	quotes  repository.QuoteRepository

	monthlyFreeQuota int
	now              func() time.Time
}

// NewQuoteService wires the gate with its repositories.
// monthlyFreeQuota caps free-trial submissions per calendar month.
func NewQuoteService(tenders repository.TenderRepository, quotes repository.QuoteRepository, monthlyFreeQuota int) *QuoteService {
	return &QuoteService{
		tenders:          tenders,
		quotes:           quotes,
		monthlyFreeQuota: monthlyFreeQuota,
		now:              time.Now,
	}
}

// AttemptSubmitQuote runs the gate preconditions in order and, when all
// pass, persists the quote with an atomic check-and-increment of the
// tender's quote count. Each failing precondition maps to a distinct
// *QuoteRejection; anything else is an infrastructure fault.
func (s *QuoteService) AttemptSubmitQuote(ctx context.Context, viewer *model.ViewerProfile, tenderID uuid.UUID, priceCents int64, notes string) (*model.Quote, error) {
	tender, err := s.tenders.GetByID(ctx, tenderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, reject(RejectTenderUnavailable, eligibility.ReasonNotAvailable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tender for submission: %w", err)
	}

	// A tender closed or unapproved between listing and submission
	// rejects explicitly, never silently.
	if !tender.Status.Open() || tender.ApprovalStatus != model.ApprovalApproved {
		return nil, reject(RejectTenderUnavailable, eligibility.ReasonNotAvailable)
	}

	if viewer.ID == tender.OwnerID {
		return nil, reject(RejectOwnTender, eligibility.ReasonOwnTender)
	}

	if !tradeMatches(viewer.PrimaryTrade, tender) {
		return nil, reject(RejectTradeMismatch, eligibility.ReasonTradeMismatch)
	}

	if viewer.ABN == "" {
		return nil, reject(RejectABNRequired, eligibility.ReasonABNRequired)
	}
	if viewer.ABNStatus != model.ABNVerified {
		return nil, reject(RejectABNUnverified, eligibility.ReasonABNUnverified)
	}

	billingMode := model.BillingSubscription
	monthKey := model.MonthKey(s.now())
	if !viewer.Premium {
		billingMode = model.BillingFreeMonthlyTrial
		used, err := s.quotes.CountForMonth(ctx, viewer.ID, monthKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check monthly quota: %w", err)
		}
		if tender.LimitedQuotesEnabled && used >= int64(s.monthlyFreeQuota) {
			return nil, reject(RejectMonthlyQuota,
				fmt.Sprintf("free quote limit of %d reached for this month", s.monthlyFreeQuota))
		}
	}

	if tender.CapReached() {
		return nil, reject(RejectCapReached, eligibility.ReasonQuoteLimit)
	}

	already, err := s.quotes.HasActiveQuote(ctx, tenderID, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate quote: %w", err)
	}
	if already {
		return nil, reject(RejectDuplicate, eligibility.ReasonAlreadyQuoted)
	}

	quote := &model.Quote{
		ID:              uuid.New(),
		TenderID:        tenderID,
		ViewerID:        viewer.ID,
		PriceCents:      priceCents,
		Notes:           notes,
		Status:          model.QuoteSubmitted,
		BillingMode:     billingMode,
		BillingMonthKey: monthKey,
	}

	err = s.tenders.SubmitQuote(ctx, quote)
	if errors.Is(err, repository.ErrCapExhausted) {
		return nil, reject(RejectCapRaced, "someone just took the last quote slot")
	}
	// The unique index on active quotes catches what the pre-check
	// cannot: two submissions from the same viewer racing past it.
	if errors.Is(err, repository.ErrDuplicateQuote) {
		return nil, reject(RejectDuplicate, eligibility.ReasonAlreadyQuoted)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to submit quote: %w", err)
	}

	return quote, nil
}

// ListMine returns the viewer's quotes, newest first.
func (s *QuoteService) ListMine(ctx context.Context, viewer *model.ViewerProfile) ([]model.Quote, error) {
	return s.quotes.ListByViewer(ctx, viewer.ID)
}

// Withdraw marks one of the viewer's quotes withdrawn. The tender's
// quote count is not decremented; the count is monotonic and only
// administrative correction changes it.
func (s *QuoteService) Withdraw(ctx context.Context, viewer *model.ViewerProfile, quoteID uuid.UUID) error {
	return s.quotes.Withdraw(ctx, quoteID, viewer.ID)
}

func tradeMatches(primaryTrade string, t *model.TenderRecord) bool {
	for _, req := range t.TradeRequirements {
		if trade.Match(primaryTrade, req.Trade) {
			return true
		}
	}
	return false
}
