package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tradehub/internal/eligibility"
	"tradehub/internal/model"
	"tradehub/internal/repository"
	"tradehub/internal/search"
)

// TenderDetail is the single-tender view: the (possibly masked) record,
// the eligibility decision, and data-quality warnings when the viewer
// owns the tender.
type TenderDetail struct {
	Tender     model.TenderRecord   `json:"tender"`
	Decision   eligibility.Decision `json:"decision"`
	Masked     bool                 `json:"masked,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
	DistanceKm *float64             `json:"distance_km,omitempty"`
}

// TenderService exposes the read-side operations: listing with filters
// and single-tender evaluation. It is stateless per request.
type TenderService struct {
	tenders  repository.TenderRepository
	quotes   repository.QuoteRepository
	pipeline *search.Pipeline
}

// NewTenderService wires the listing service.
func NewTenderService(tenders repository.TenderRepository, quotes repository.QuoteRepository, defaultRadiusKm float64) *TenderService {
	return &TenderService{
		tenders:  tenders,
		quotes:   quotes,
		pipeline: &search.Pipeline{DefaultRadiusKm: defaultRadiusKm},
	}
}

// ListEligibleTenders loads the candidate set and runs the filter and
// rank pipeline for the viewer. A nil viewer is an anonymous browse and
// yields a masked result.
func (s *TenderService) ListEligibleTenders(ctx context.Context, viewer *model.ViewerProfile, filters search.Filters) ([]search.Item, error) {
	candidates, err := s.tenders.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tender candidates: %w", err)
	}

	var quoted map[uuid.UUID]bool
	if viewer != nil {
		quoted, err = s.quotes.ActiveTenderIDs(ctx, viewer.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load quote state: %w", err)
		}
	}

	return s.pipeline.Run(viewer, quoted, candidates, filters), nil
}

// EvaluateTender is the detail-page operation: one tender, one viewer.
// Owners additionally receive configuration warnings.
func (s *TenderService) EvaluateTender(ctx context.Context, viewer *model.ViewerProfile, tenderID uuid.UUID) (*TenderDetail, error) {
	tender, err := s.tenders.GetByID(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	alreadyQuoted := false
	if viewer != nil {
		alreadyQuoted, err = s.quotes.HasActiveQuote(ctx, tenderID, viewer.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load quote state: %w", err)
		}
	}

	decision := eligibility.Evaluate(eligibility.Viewer{
		Profile:         viewer,
		DefaultRadiusKm: s.pipeline.DefaultRadiusKm,
		AlreadyQuoted:   alreadyQuoted,
	}, tender)
	if !decision.Visible {
		return nil, repository.ErrNotFound
	}

	detail := &TenderDetail{
		Tender:   *tender,
		Decision: decision,
	}

	if viewer == nil {
		detail.Tender = search.MaskTender(*tender)
		detail.Masked = true
	} else if viewer.ID == tender.OwnerID {
		detail.Warnings = tender.ConfigWarnings()
	}

	return detail, nil
}

// ListOwned returns the viewer's own tenders regardless of lifecycle
// state, with their data-quality warnings attached.
func (s *TenderService) ListOwned(ctx context.Context, viewer *model.ViewerProfile) ([]TenderDetail, error) {
	tenders, err := s.tenders.ListByOwner(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	details := make([]TenderDetail, 0, len(tenders))
	for i := range tenders {
		t := tenders[i]
		decision := eligibility.Evaluate(eligibility.Viewer{
			Profile:         viewer,
			DefaultRadiusKm: s.pipeline.DefaultRadiusKm,
		}, &t)
		details = append(details, TenderDetail{
			Tender:   t,
			Decision: decision,
			Warnings: t.ConfigWarnings(),
		})
	}
	return details, nil
}
