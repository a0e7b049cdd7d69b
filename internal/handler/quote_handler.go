package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tradehub/internal/middleware"
	"tradehub/internal/model"
	"tradehub/internal/repository"
	"tradehub/internal/service"
	"tradehub/pkg/logger"
	"tradehub/prometheus"
)

// QuoteSubmitter is the write side of the engine consumed by the
// handlers.
type QuoteSubmitter interface {
	AttemptSubmitQuote(ctx context.Context, viewer *model.ViewerProfile, tenderID uuid.UUID, priceCents int64, notes string) (*model.Quote, error)
	ListMine(ctx context.Context, viewer *model.ViewerProfile) ([]model.Quote, error)
	Withdraw(ctx context.Context, viewer *model.ViewerProfile, quoteID uuid.UUID) error
}

// SubmitQuoteRequest is the submission payload. Money is integer cents.
type SubmitQuoteRequest struct {
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
	Notes      string `json:"notes" validate:"max=2000"`
}

// QuoteHandler serves quote submission and management endpoints. All of
// them require an authenticated viewer.
type QuoteHandler struct {
	quotes QuoteSubmitter
}

// NewQuoteHandler wires the handler with the submission gate.
func NewQuoteHandler(quotes QuoteSubmitter) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Submit handles POST /api/tenders/:id/quotes. Rejections carry the
// specific reason inline so the UI never shows a generic failure for an
// eligibility rule.
func (h *QuoteHandler) Submit(c echo.Context) error {
	log := logger.FromEcho(c)
	viewer := middleware.Viewer(c)

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tender id"})
	}

	var req SubmitQuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must be a positive integer amount in cents"})
	}

	quote, err := h.quotes.AttemptSubmitQuote(c.Request().Context(), viewer, tenderID, req.PriceCents, req.Notes)

	var rejection *service.QuoteRejection
	if errors.As(err, &rejection) {
		prometheus.RecordQuoteSubmission(string(rejection.Kind))
		prometheus.RecordEligibilityRejection(rejection.Reason)
		log.Info("Quote submission rejected",
			zap.String("tender_id", tenderID.String()),
			zap.String("kind", string(rejection.Kind)))
		return c.JSON(rejectionStatus(rejection.Kind), rejection)
	}
	if err != nil {
		prometheus.RecordQuoteSubmission("error")
		log.Error("Failed to submit quote",
			zap.String("tender_id", tenderID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to submit quote"})
	}

	prometheus.RecordQuoteSubmission("accepted")
	log.Info("Quote submitted",
		zap.String("quote_id", quote.ID.String()),
		zap.String("tender_id", tenderID.String()),
		zap.Int64("price_cents", quote.PriceCents))
	return c.JSON(http.StatusCreated, quote)
}

// Mine handles GET /api/quotes/mine.
func (h *QuoteHandler) Mine(c echo.Context) error {
	log := logger.FromEcho(c)
	viewer := middleware.Viewer(c)

	quotes, err := h.quotes.ListMine(c.Request().Context(), viewer)
	if err != nil {
		log.Error("Failed to list quotes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load quotes"})
	}

	return c.JSON(http.StatusOK, echo.Map{"quotes": quotes})
}

// WithdrawQuote handles PUT /api/quotes/:id/withdraw. The tender's
// quote count stays as it is; withdrawal only stops the quote from
// blocking a re-submission.
func (h *QuoteHandler) WithdrawQuote(c echo.Context) error {
	log := logger.FromEcho(c)
	viewer := middleware.Viewer(c)

	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quote id"})
	}

	err = h.quotes.Withdraw(c.Request().Context(), viewer, quoteID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "quote not found"})
	}
	if err != nil {
		log.Error("Failed to withdraw quote", zap.String("quote_id", quoteID.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to withdraw quote"})
	}

	log.Info("Quote withdrawn", zap.String("quote_id", quoteID.String()))
	return c.JSON(http.StatusOK, echo.Map{"status": string(model.QuoteWithdrawn)})
}

// rejectionStatus maps gate rejection kinds to HTTP statuses. The cap
// race gets its own status so clients can tell "someone just took the
// last slot" apart from a stale listing.
func rejectionStatus(kind service.RejectionKind) int {
	switch kind {
	case service.RejectTenderUnavailable:
		return http.StatusNotFound
	case service.RejectCapRaced:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
