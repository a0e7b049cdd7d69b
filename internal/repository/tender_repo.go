package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradehub/internal/model"
	"tradehub/prometheus"
)

// TenderRepository supplies tender records for the engine. Queries are
// deliberately coarse; eligibility filtering happens in-memory.
type TenderRepository interface {
	// ListCandidates returns all non-deleted tenders with their trade
	// requirements preloaded.
	ListCandidates(ctx context.Context) ([]model.TenderRecord, error)

	// ListByOwner returns the owner's tenders regardless of lifecycle
	// state.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.TenderRecord, error)

	// GetByID returns one tender with trade requirements preloaded, or
	// ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*model.TenderRecord, error)

	// SubmitQuote atomically increments the tender's quote count and
	// persists the quote in one transaction. The increment is a
	// conditional write guarded by the cap: when the cap filled
	// concurrently it returns ErrCapExhausted and writes nothing.
	SubmitQuote(ctx context.Context, quote *model.Quote) error
}

type gormTenderRepository struct {
	db *gorm.DB
}

// NewTenderRepository returns a GORM-backed TenderRepository.
func NewTenderRepository(db *gorm.DB) TenderRepository {
	return &gormTenderRepository{db: db}
}

func (r *gormTenderRepository) ListCandidates(ctx context.Context) ([]model.TenderRecord, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var tenders []model.TenderRecord
	err := r.db.WithContext(ctx).
		Preload("TradeRequirements").
		Find(&tenders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenders: %w", err)
	}
	return tenders, nil
}

func (r *gormTenderRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.TenderRecord, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var tenders []model.TenderRecord
	err := r.db.WithContext(ctx).
		Preload("TradeRequirements").
		Where("owner_id = ?", ownerID).
		Find(&tenders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenders for owner %s: %w", ownerID, err)
	}
	return tenders, nil
}

func (r *gormTenderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TenderRecord, error) {
	defer prometheus.TrackDBOperation("select")(time.Now())

	var tender model.TenderRecord
	err := r.db.WithContext(ctx).
		Preload("TradeRequirements").
		First(&tender, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tender %s: %w", id, err)
	}
	return &tender, nil
}

func (r *gormTenderRepository) SubmitQuote(ctx context.Context, quote *model.Quote) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Increment only while below the cap. Two submissions racing
		// for the last slot cannot both match this predicate.
		res := tx.Model(&model.TenderRecord{}).
			Where("id = ? AND (quote_cap_total IS NULL OR quote_count_total < quote_cap_total)", quote.TenderID).
			UpdateColumn("quote_count_total", gorm.Expr("quote_count_total + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to increment quote count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCapExhausted
		}

		if err := tx.Create(quote).Error; err != nil {
			// The whole transaction rolls back, so the count increment
			// above never leaks on a duplicate.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateQuote
			}
			return fmt.Errorf("failed to persist quote: %w", err)
		}
		return nil
	})
}
