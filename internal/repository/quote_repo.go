package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradehub/internal/model"
	"tradehub/prometheus"
)

// QuoteRepository reads and mutates quote records.
type QuoteRepository interface {
	// HasActiveQuote reports whether the viewer already holds a
	// non-withdrawn quote on the tender.
	HasActiveQuote(ctx context.Context, tenderID, viewerID uuid.UUID) (bool, error)

	// ActiveTenderIDs returns the set of tender ids the viewer has a
	// non-withdrawn quote on, for listing-time duplicate marking.
	ActiveTenderIDs(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]bool, error)

	// CountForMonth counts the viewer's free-trial quotes in the given
	// billing month.
	CountForMonth(ctx context.Context, viewerID uuid.UUID, monthKey string) (int64, error)

	// ListByViewer returns the viewer's quotes, newest first.
	ListByViewer(ctx context.Context, viewerID uuid.UUID) ([]model.Quote, error)

	// Withdraw marks the viewer's quote withdrawn. ErrNotFound when the
	// quote does not exist, belongs to someone else, or is already
	// withdrawn.
	Withdraw(ctx context.Context, id, viewerID uuid.UUID) error
}

type gormQuoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository returns a GORM-backed QuoteRepository.
func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &gormQuoteRepository{db: db}
}

func (r *gormQuoteRepository) HasActiveQuote(ctx context.Context, tenderID, viewerID uuid.UUID) (bool, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Quote{}).
		Where("tender_id = ? AND viewer_id = ? AND status <> ?", tenderID, viewerID, model.QuoteWithdrawn).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check for existing quote: %w", err)
	}
	return count > 0, nil
}

func (r *gormQuoteRepository) ActiveTenderIDs(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]bool, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Quote{}).
		Where("viewer_id = ? AND status <> ?", viewerID, model.QuoteWithdrawn).
		Pluck("tender_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load quoted tender ids: %w", err)
	}

	quoted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		quoted[id] = true
	}
	return quoted, nil
}

func (r *gormQuoteRepository) CountForMonth(ctx context.Context, viewerID uuid.UUID, monthKey string) (int64, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Quote{}).
		Where("viewer_id = ? AND billing_month_key = ? AND billing_mode = ? AND status <> ?",
			viewerID, monthKey, model.BillingFreeMonthlyTrial, model.QuoteWithdrawn).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count monthly quotes: %w", err)
	}
	return count, nil
}

func (r *gormQuoteRepository) ListByViewer(ctx context.Context, viewerID uuid.UUID) ([]model.Quote, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var quotes []model.Quote
	err := r.db.WithContext(ctx).
		Where("viewer_id = ?", viewerID).
		Order("created_at DESC").
		Find(&quotes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

func (r *gormQuoteRepository) Withdraw(ctx context.Context, id, viewerID uuid.UUID) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	res := r.db.WithContext(ctx).Model(&model.Quote{}).
		Where("id = ? AND viewer_id = ? AND status <> ?", id, viewerID, model.QuoteWithdrawn).
		Update("status", model.QuoteWithdrawn)
	if res.Error != nil {
		return fmt.Errorf("failed to withdraw quote %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
