package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tradehub/internal/eligibility"
	"tradehub/internal/model"
	"tradehub/internal/repository"
	"tradehub/internal/service"
)

func ptr[T any](v T) *T { return &v }

// mockTenderRepo implements repository.TenderRepository with
// overridable behavior per test.
type mockTenderRepo struct {
	tender          *model.TenderRecord
	getErr          error
	SubmitQuoteFunc func(ctx context.Context, quote *model.Quote) error

	submitted []*model.Quote
}

func (m *mockTenderRepo) ListCandidates(ctx context.Context) ([]model.TenderRecord, error) {
	if m.tender == nil {
		return nil, nil
	}
	return []model.TenderRecord{*m.tender}, nil
}

func (m *mockTenderRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.TenderRecord, error) {
	return nil, nil
}

func (m *mockTenderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.TenderRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.tender == nil || m.tender.ID != id {
		return nil, repository.ErrNotFound
	}
	return m.tender, nil
}

func (m *mockTenderRepo) SubmitQuote(ctx context.Context, quote *model.Quote) error {
	if m.SubmitQuoteFunc != nil {
		return m.SubmitQuoteFunc(ctx, quote)
	}
	m.submitted = append(m.submitted, quote)
	m.tender.QuoteCountTotal++
	return nil
}

// mockQuoteRepo implements repository.QuoteRepository.
type mockQuoteRepo struct {
	hasActive  bool
	monthCount int64

	withdrawn []uuid.UUID
}

func (m *mockQuoteRepo) HasActiveQuote(ctx context.Context, tenderID, viewerID uuid.UUID) (bool, error) {
	return m.hasActive, nil
}

func (m *mockQuoteRepo) ActiveTenderIDs(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]bool, error) {
	return nil, nil
}

func (m *mockQuoteRepo) CountForMonth(ctx context.Context, viewerID uuid.UUID, monthKey string) (int64, error) {
	return m.monthCount, nil
}

func (m *mockQuoteRepo) ListByViewer(ctx context.Context, viewerID uuid.UUID) ([]model.Quote, error) {
	return nil, nil
}

func (m *mockQuoteRepo) Withdraw(ctx context.Context, id, viewerID uuid.UUID) error {
	m.withdrawn = append(m.withdrawn, id)
	return nil
}

func liveTender() *model.TenderRecord {
	return &model.TenderRecord{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		Name:           "Bathroom renovation",
		Status:         model.TenderLive,
		ApprovalStatus: model.ApprovalApproved,
		Tier:           model.TierBasic8,
		TradeRequirements: []model.TenderTradeRequirement{
			{Trade: "Electrician"},
		},
	}
}

func electrician() *model.ViewerProfile {
	return &model.ViewerProfile{
		ID:           uuid.New(),
		PrimaryTrade: "Electrician",
		ABN:          "51824753556",
		ABNStatus:    model.ABNVerified,
	}
}

const monthlyQuota = 3

func newGate(tenders *mockTenderRepo, quotes *mockQuoteRepo) *service.QuoteService {
	return service.NewQuoteService(tenders, quotes, monthlyQuota)
}

func requireRejection(t *testing.T, err error, kind service.RejectionKind) *service.QuoteRejection {
	t.Helper()
	var rejection *service.QuoteRejection
	require.ErrorAs(t, err, &rejection)
	require.Equal(t, kind, rejection.Kind)
	require.NotEmpty(t, rejection.Reason)
	return rejection
}

func TestSubmitQuoteSuccess(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	quotes := &mockQuoteRepo{}
	gate := newGate(tenders, quotes)

	viewer := electrician()
	quote, err := gate.AttemptSubmitQuote(context.Background(), viewer, tenders.tender.ID, 2_500_00, "can start next week")
	require.NoError(t, err)

	require.Equal(t, tenders.tender.ID, quote.TenderID)
	require.Equal(t, viewer.ID, quote.ViewerID)
	require.Equal(t, int64(2_500_00), quote.PriceCents)
	require.Equal(t, model.QuoteSubmitted, quote.Status)
	require.Equal(t, model.BillingFreeMonthlyTrial, quote.BillingMode)
	require.Equal(t, model.MonthKey(time.Now()), quote.BillingMonthKey)
	require.Len(t, tenders.submitted, 1)
	require.Equal(t, 1, tenders.tender.QuoteCountTotal)
}

func TestSubmitQuotePremiumBillsSubscription(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	gate := newGate(tenders, &mockQuoteRepo{})

	viewer := electrician()
	viewer.Premium = true

	quote, err := gate.AttemptSubmitQuote(context.Background(), viewer, tenders.tender.ID, 100_00, "")
	require.NoError(t, err)
	require.Equal(t, model.BillingSubscription, quote.BillingMode)
}

func TestSubmitQuoteTenderMissing(t *testing.T) {
	gate := newGate(&mockTenderRepo{}, &mockQuoteRepo{})

	_, err := gate.AttemptSubmitQuote(context.Background(), electrician(), uuid.New(), 100_00, "")
	requireRejection(t, err, service.RejectTenderUnavailable)
}

func TestSubmitQuoteTenderClosedBetweenListingAndSubmission(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	tenders.tender.Status = model.TenderClosed
	gate := newGate(tenders, &mockQuoteRepo{})

	_, err := gate.AttemptSubmitQuote(context.Background(), electrician(), tenders.tender.ID, 100_00, "")
	requireRejection(t, err, service.RejectTenderUnavailable)
}

func TestSubmitQuoteOwnTender(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	gate := newGate(tenders, &mockQuoteRepo{})

	owner := electrician()
	owner.ID = tenders.tender.OwnerID

	_, err := gate.AttemptSubmitQuote(context.Background(), owner, tenders.tender.ID, 100_00, "")
	requireRejection(t, err, service.RejectOwnTender)
}

func TestSubmitQuoteTradeMismatch(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	gate := newGate(tenders, &mockQuoteRepo{})

	viewer := electrician()
	viewer.PrimaryTrade = "Plumber"

	_, err := gate.AttemptSubmitQuote(context.Background(), viewer, tenders.tender.ID, 100_00, "")
	rejection := requireRejection(t, err, service.RejectTradeMismatch)
	require.Equal(t, eligibility.ReasonTradeMismatch, rejection.Reason)
}

func TestSubmitQuoteABNPolicy(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	gate := newGate(tenders, &mockQuoteRepo{})

	viewer := electrician()
	viewer.ABN = ""
	_, err := gate.AttemptSubmitQuote(context.Background(), viewer, tenders.tender.ID, 100_00, "")
	requireRejection(t, err, service.RejectABNRequired)

	viewer = electrician()
	viewer.ABNStatus = model.ABNPending
	_, err = gate.AttemptSubmitQuote(context.Background(), viewer, tenders.tender.ID, 100_00, "")
	requireRejection(t, err, service.RejectABNUnverified)
}

func TestSubmitQuoteCapReachedRegardlessOfViewer(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	tenders.tender.LimitedQuotesEnabled = true
	tenders.tender.QuoteCapTotal = ptr(3)
	tenders.tender.QuoteCountTotal = 3
	gate := newGate(tenders, &mockQuoteRepo{})

	// The limited-quotes flag is role-agnostic: premium status does not
	// bypass an exhausted cap.
	viewer := electrician()
	viewer.Premium = true

	_, err := gate.AttemptSubmitQuote(context.Background(), viewer, tenders.tender.ID, 100_00, "")
	rejection := requireRejection(t, err, service.RejectCapReached)
	require.Equal(t, eligibility.ReasonQuoteLimit, rejection.Reason)
}

func TestSubmitQuoteMonthlyQuotaExhausted(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	tenders.tender.LimitedQuotesEnabled = true
	quotes := &mockQuoteRepo{monthCount: monthlyQuota}
	gate := newGate(tenders, quotes)

	_, err := gate.AttemptSubmitQuote(context.Background(), electrician(), tenders.tender.ID, 100_00, "")
	requireRejection(t, err, service.RejectMonthlyQuota)
}

func TestSubmitQuoteMonthlyQuotaIgnoredForSubscribers(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	tenders.tender.LimitedQuotesEnabled = true
	quotes := &mockQuoteRepo{monthCount: monthlyQuota}
	gate := newGate(tenders, quotes)

	viewer := electrician()
	viewer.Premium = true

	_, err := gate.AttemptSubmitQuote(context.Background(), viewer, tenders.tender.ID, 100_00, "")
	require.NoError(t, err)
}

func TestSubmitQuoteDuplicate(t *testing.T) {
	tenders := &mockTenderRepo{tender: liveTender()}
	quotes := &mockQuoteRepo{hasActive: true}
	gate := newGate(tenders, quotes)

	_, err := gate.AttemptSubmitQuote(context.Background(), electrician(), tenders.tender.ID, 100_00, "")
	requireRejection(t, err, service.RejectDuplicate)
	require.Empty(t, tenders.submitted)
}

func TestSubmitQuoteCapRace(t *testing.T) {
	// The pre-check saw a free slot but the conditional increment
	// matched no row: another submission won the race.
	tenders := &mockTenderRepo{tender: liveTender()}
	tenders.tender.QuoteCapTotal = ptr(3)
	tenders.tender.QuoteCountTotal = 2
	tenders.SubmitQuoteFunc = func(ctx context.Context, quote *model.Quote) error {
		return repository.ErrCapExhausted
	}
	gate := newGate(tenders, &mockQuoteRepo{})

	_, err := gate.AttemptSubmitQuote(context.Background(), electrician(), tenders.tender.ID, 100_00, "")
	rejection := requireRejection(t, err, service.RejectCapRaced)
	require.NotEqual(t, eligibility.ReasonQuoteLimit, rejection.Reason)
}

func TestSubmitQuoteDuplicateInsertRace(t *testing.T) {
	// Two submissions from the same viewer both passed the duplicate
	// pre-check before either insert landed. The store's unique index
	// on active quotes rejects the loser, which must surface as a
	// duplicate rejection, not an infrastructure failure.
	tenders := &mockTenderRepo{tender: liveTender()}
	tenders.SubmitQuoteFunc = func(ctx context.Context, quote *model.Quote) error {
		return repository.ErrDuplicateQuote
	}
	gate := newGate(tenders, &mockQuoteRepo{})

	_, err := gate.AttemptSubmitQuote(context.Background(), electrician(), tenders.tender.ID, 100_00, "")
	rejection := requireRejection(t, err, service.RejectDuplicate)
	require.Equal(t, eligibility.ReasonAlreadyQuoted, rejection.Reason)
}

func TestSubmitQuoteStoreFailureIsNotARejection(t *testing.T) {
	tenders := &mockTenderRepo{getErr: errors.New("connection refused")}
	gate := newGate(tenders, &mockQuoteRepo{})

	_, err := gate.AttemptSubmitQuote(context.Background(), electrician(), uuid.New(), 100_00, "")
	require.Error(t, err)
	var rejection *service.QuoteRejection
	require.False(t, errors.As(err, &rejection))
}

func TestWithdraw(t *testing.T) {
	quotes := &mockQuoteRepo{}
	gate := newGate(&mockTenderRepo{tender: liveTender()}, quotes)

	viewer := electrician()
	quoteID := uuid.New()
	require.NoError(t, gate.Withdraw(context.Background(), viewer, quoteID))
	require.Equal(t, []uuid.UUID{quoteID}, quotes.withdrawn)
}
