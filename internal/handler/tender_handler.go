package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tradehub/internal/middleware"
	"tradehub/internal/model"
	"tradehub/internal/repository"
	"tradehub/internal/search"
	"tradehub/internal/service"
	"tradehub/pkg/logger"
	"tradehub/prometheus"
)

// TenderReader is the read side of the engine consumed by the handlers.
type TenderReader interface {
	ListEligibleTenders(ctx context.Context, viewer *model.ViewerProfile, filters search.Filters) ([]search.Item, error)
	EvaluateTender(ctx context.Context, viewer *model.ViewerProfile, tenderID uuid.UUID) (*service.TenderDetail, error)
	ListOwned(ctx context.Context, viewer *model.ViewerProfile) ([]service.TenderDetail, error)
}

// TenderHandler serves the listing and detail endpoints.
type TenderHandler struct {
	tenders TenderReader
}

// NewTenderHandler wires the handler with the listing service.
func NewTenderHandler(tenders TenderReader) *TenderHandler {
	return &TenderHandler{tenders: tenders}
}

// List handles GET /api/tenders. Anonymous viewers get the same result
// set with detail fields masked.
func (h *TenderHandler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.TenderListCounter.Inc()

	filters, err := parseFilters(c)
	if err != nil {
		log.Warn("Invalid listing filters", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	viewer := middleware.Viewer(c)
	items, err := h.tenders.ListEligibleTenders(c.Request().Context(), viewer, filters)
	if err != nil {
		log.Error("Failed to list tenders", zap.Error(err))
		// Degrade to an explicit error state, never partial data.
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":     "failed to load tenders",
			"retryable": true,
		})
	}

	log.Info("Tenders listed",
		zap.Int("count", len(items)),
		zap.Bool("anonymous", viewer == nil))
	return c.JSON(http.StatusOK, echo.Map{"tenders": items})
}

// Get handles GET /api/tenders/:id, the detail-page evaluation.
func (h *TenderHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tender id"})
	}

	viewer := middleware.Viewer(c)
	detail, err := h.tenders.EvaluateTender(c.Request().Context(), viewer, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tender not found"})
	}
	if err != nil {
		log.Error("Failed to evaluate tender", zap.String("tender_id", id.String()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tender"})
	}

	prometheus.RecordTenderView()
	return c.JSON(http.StatusOK, detail)
}

// Mine handles GET /api/tenders/mine: the owner's tenders regardless of
// lifecycle state, with data-quality warnings.
func (h *TenderHandler) Mine(c echo.Context) error {
	log := logger.FromEcho(c)
	viewer := middleware.Viewer(c)

	details, err := h.tenders.ListOwned(c.Request().Context(), viewer)
	if err != nil {
		log.Error("Failed to list owned tenders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tenders"})
	}

	return c.JSON(http.StatusOK, echo.Map{"tenders": details})
}

// parseFilters reads the user-entered listing filters from the query
// string. Dates are ISO-8601 calendar dates; money is integer cents.
func parseFilters(c echo.Context) (search.Filters, error) {
	filters := search.NewFilters()

	filters.Query = c.QueryParam("q")

	if raw := c.QueryParam("trades"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filters.Trades = append(filters.Trades, t)
			}
		}
	}

	var err error
	if filters.BudgetMinCents, err = parseCents(c.QueryParam("budget_min")); err != nil {
		return filters, errors.New("budget_min must be an integer amount in cents")
	}
	if filters.BudgetMaxCents, err = parseCents(c.QueryParam("budget_max")); err != nil {
		return filters, errors.New("budget_max must be an integer amount in cents")
	}

	if raw := c.QueryParam("include_no_budget"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, errors.New("include_no_budget must be a boolean")
		}
		filters.IncludeNoBudget = include
	}

	if filters.From, err = parseDate(c.QueryParam("from")); err != nil {
		return filters, errors.New("from must be an ISO-8601 date")
	}
	if filters.To, err = parseDate(c.QueryParam("to")); err != nil {
		return filters, errors.New("to must be an ISO-8601 date")
	}

	if raw := c.QueryParam("sort"); raw != "" {
		switch mode := search.SortMode(raw); mode {
		case search.SortRecommended, search.SortPremiumFirst, search.SortNearest, search.SortRating, search.SortName:
			filters.Sort = mode
		default:
			return filters, errors.New("unknown sort mode")
		}
	}

	if filters.Limit, err = parseCount(c.QueryParam("limit")); err != nil {
		return filters, errors.New("limit must be a non-negative integer")
	}
	if filters.Offset, err = parseCount(c.QueryParam("offset")); err != nil {
		return filters, errors.New("offset must be a non-negative integer")
	}

	return filters, nil
}

func parseCount(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative count")
	}
	return n, nil
}

func parseCents(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	cents, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &cents, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
