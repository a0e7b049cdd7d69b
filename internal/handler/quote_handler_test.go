package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"tradehub/internal/eligibility"
	"tradehub/internal/handler"
	"tradehub/internal/middleware"
	"tradehub/internal/model"
	"tradehub/internal/repository"
	"tradehub/internal/service"
)

type mockQuoteSubmitter struct {
	SubmitFunc   func(ctx context.Context, viewer *model.ViewerProfile, tenderID uuid.UUID, priceCents int64, notes string) (*model.Quote, error)
	MineFunc     func(ctx context.Context, viewer *model.ViewerProfile) ([]model.Quote, error)
	WithdrawFunc func(ctx context.Context, viewer *model.ViewerProfile, quoteID uuid.UUID) error
}

func (m *mockQuoteSubmitter) AttemptSubmitQuote(ctx context.Context, viewer *model.ViewerProfile, tenderID uuid.UUID, priceCents int64, notes string) (*model.Quote, error) {
	return m.SubmitFunc(ctx, viewer, tenderID, priceCents, notes)
}

func (m *mockQuoteSubmitter) ListMine(ctx context.Context, viewer *model.ViewerProfile) ([]model.Quote, error) {
	return m.MineFunc(ctx, viewer)
}

func (m *mockQuoteSubmitter) Withdraw(ctx context.Context, viewer *model.ViewerProfile, quoteID uuid.UUID) error {
	return m.WithdrawFunc(ctx, viewer, quoteID)
}

func submitContext(t *testing.T, tenderID, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := newContext(newEcho(), http.MethodPost, "/api/tenders/"+tenderID+"/quotes", body)
	c.SetParamNames("id")
	c.SetParamValues(tenderID)
	middleware.SetViewer(c, verifiedElectrician())
	return c, rec
}

func TestQuoteSubmitAccepted(t *testing.T) {
	tenderID := uuid.New()
	gate := &mockQuoteSubmitter{
		SubmitFunc: func(ctx context.Context, viewer *model.ViewerProfile, id uuid.UUID, priceCents int64, notes string) (*model.Quote, error) {
			require.Equal(t, tenderID, id)
			require.Equal(t, int64(250000), priceCents)
			require.Equal(t, "can start next week", notes)
			return &model.Quote{
				ID:         uuid.New(),
				TenderID:   id,
				ViewerID:   viewer.ID,
				PriceCents: priceCents,
				Status:     model.QuoteSubmitted,
			}, nil
		},
	}
	h := handler.NewQuoteHandler(gate)

	c, rec := submitContext(t, tenderID.String(), `{"price_cents":250000,"notes":"can start next week"}`)
	require.NoError(t, h.Submit(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, string(model.QuoteSubmitted), body["status"])
}

func TestQuoteSubmitInvalidTenderID(t *testing.T) {
	h := handler.NewQuoteHandler(&mockQuoteSubmitter{})

	c, rec := submitContext(t, "not-a-uuid", `{"price_cents":100}`)
	require.NoError(t, h.Submit(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteSubmitValidatesPrice(t *testing.T) {
	h := handler.NewQuoteHandler(&mockQuoteSubmitter{
		SubmitFunc: func(ctx context.Context, viewer *model.ViewerProfile, id uuid.UUID, priceCents int64, notes string) (*model.Quote, error) {
			t.Fatal("gate must not be called with an invalid payload")
			return nil, nil
		},
	})

	for _, body := range []string{
		`{"price_cents":0}`,
		`{"price_cents":-500}`,
		`{"notes":"no price"}`,
	} {
		c, rec := submitContext(t, uuid.New().String(), body)
		require.NoError(t, h.Submit(c))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestQuoteSubmitRejectionStatuses(t *testing.T) {
	cases := []struct {
		kind   service.RejectionKind
		reason string
		status int
	}{
		{service.RejectTenderUnavailable, eligibility.ReasonNotAvailable, http.StatusNotFound},
		{service.RejectCapRaced, "someone just took the last quote slot", http.StatusConflict},
		{service.RejectTradeMismatch, eligibility.ReasonTradeMismatch, http.StatusUnprocessableEntity},
		{service.RejectABNUnverified, eligibility.ReasonABNUnverified, http.StatusUnprocessableEntity},
		{service.RejectCapReached, eligibility.ReasonQuoteLimit, http.StatusUnprocessableEntity},
		{service.RejectDuplicate, eligibility.ReasonAlreadyQuoted, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		h := handler.NewQuoteHandler(&mockQuoteSubmitter{
			SubmitFunc: func(ctx context.Context, viewer *model.ViewerProfile, id uuid.UUID, priceCents int64, notes string) (*model.Quote, error) {
				return nil, &service.QuoteRejection{Kind: tc.kind, Reason: tc.reason}
			},
		})

		c, rec := submitContext(t, uuid.New().String(), `{"price_cents":100}`)
		require.NoError(t, h.Submit(c))
		require.Equal(t, tc.status, rec.Code, string(tc.kind))

		body := decodeBody(t, rec)
		require.Equal(t, string(tc.kind), body["kind"])
		require.Equal(t, tc.reason, body["reason"])
	}
}

func TestQuoteSubmitInfrastructureFailure(t *testing.T) {
	h := handler.NewQuoteHandler(&mockQuoteSubmitter{
		SubmitFunc: func(ctx context.Context, viewer *model.ViewerProfile, id uuid.UUID, priceCents int64, notes string) (*model.Quote, error) {
			return nil, errors.New("connection refused")
		},
	})

	c, rec := submitContext(t, uuid.New().String(), `{"price_cents":100}`)
	require.NoError(t, h.Submit(c))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestQuoteMine(t *testing.T) {
	viewer := verifiedElectrician()
	h := handler.NewQuoteHandler(&mockQuoteSubmitter{
		MineFunc: func(ctx context.Context, v *model.ViewerProfile) ([]model.Quote, error) {
			require.Equal(t, viewer, v)
			return []model.Quote{{ID: uuid.New(), ViewerID: v.ID}}, nil
		},
	})

	c, rec := newContext(newEcho(), http.MethodGet, "/api/quotes/mine", "")
	middleware.SetViewer(c, viewer)

	require.NoError(t, h.Mine(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody(t, rec)["quotes"], 1)
}

func TestQuoteWithdraw(t *testing.T) {
	quoteID := uuid.New()
	h := handler.NewQuoteHandler(&mockQuoteSubmitter{
		WithdrawFunc: func(ctx context.Context, viewer *model.ViewerProfile, id uuid.UUID) error {
			require.Equal(t, quoteID, id)
			return nil
		},
	})

	c, rec := newContext(newEcho(), http.MethodPut, "/api/quotes/"+quoteID.String()+"/withdraw", "")
	c.SetParamNames("id")
	c.SetParamValues(quoteID.String())
	middleware.SetViewer(c, verifiedElectrician())

	require.NoError(t, h.WithdrawQuote(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(model.QuoteWithdrawn), decodeBody(t, rec)["status"])
}

func TestQuoteWithdrawNotOwned(t *testing.T) {
	// Withdrawing someone else's quote reads as not found, same as a
	// quote that never existed.
	h := handler.NewQuoteHandler(&mockQuoteSubmitter{
		WithdrawFunc: func(ctx context.Context, viewer *model.ViewerProfile, id uuid.UUID) error {
			return repository.ErrNotFound
		},
	})

	id := uuid.New().String()
	c, rec := newContext(newEcho(), http.MethodPut, "/api/quotes/"+id+"/withdraw", "")
	c.SetParamNames("id")
	c.SetParamValues(id)
	middleware.SetViewer(c, verifiedElectrician())

	require.NoError(t, h.WithdrawQuote(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
