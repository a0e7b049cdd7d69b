// Package search composes the eligibility evaluator over a candidate
// tender set with user-supplied filters and produces the ordered list
// shown to the UI.
package search

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradehub/internal/eligibility"
	"tradehub/internal/geo"
	"tradehub/internal/model"
	"tradehub/internal/trade"
)

// SortMode selects the ordering of the result list.
type SortMode string

const (
	SortRecommended  SortMode = "recommended"
	SortPremiumFirst SortMode = "premium"
	SortNearest      SortMode = "nearest"
	SortRating       SortMode = "rating"
	SortName         SortMode = "name"
)

// Filters are the user-entered listing filters. The zero value means
// "no filtering"; NewFilters sets the defaults that differ from zero.
type Filters struct {
	Query  string
	Trades []string

	BudgetMinCents *int64
	BudgetMaxCents *int64
	// IncludeNoBudget keeps tenders with no budget band in a
	// budget-filtered result. Defaults to true.
	IncludeNoBudget bool

	From *time.Time
	To   *time.Time

	Sort SortMode

	// Limit and Offset page the sorted result. A zero limit means no
	// cap.
	Limit  int
	Offset int
}

// NewFilters returns Filters with defaults applied.
func NewFilters() Filters {
	return Filters{IncludeNoBudget: true, Sort: SortRecommended}
}

// Item is one row of the listing result.
type Item struct {
	Tender     model.TenderRecord   `json:"tender"`
	Decision   eligibility.Decision `json:"decision"`
	DistanceKm *float64             `json:"distance_km,omitempty"`
	// Masked marks the degraded anonymous rendering. Masking never
	// changes which tenders are included, only how fields render.
	Masked bool `json:"masked,omitempty"`
}

// Pipeline runs eligibility, filtering, ranking and masking. It is a
// pure computation over data fetched at request time: identical inputs
// with no intervening writes yield identical ordered output.
type Pipeline struct {
	DefaultRadiusKm float64
}

// Run produces the final ordered list for a viewer. quoted holds the
// ids of tenders the viewer already has an active quote on; it is nil
// for anonymous viewers.
func (p *Pipeline) Run(profile *model.ViewerProfile, quoted map[uuid.UUID]bool, candidates []model.TenderRecord, f Filters) []Item {
	items := make([]Item, 0, len(candidates))

	for i := range candidates {
		t := &candidates[i]

		viewer := eligibility.Viewer{
			Profile:         profile,
			DefaultRadiusKm: p.DefaultRadiusKm,
			AlreadyQuoted:   quoted[t.ID],
		}
		decision := eligibility.Evaluate(viewer, t)
		if !decision.Visible {
			continue
		}

		if !matchesQuery(t, f.Query) {
			continue
		}
		if !matchesTrades(t, f.Trades) {
			continue
		}
		if !matchesBudget(t, f) {
			continue
		}
		if !datesOverlap(t.DesiredStart, t.DesiredEnd, f.From, f.To) {
			continue
		}

		items = append(items, Item{
			Tender:     *t,
			Decision:   decision,
			DistanceKm: distanceTo(profile, t),
		})
	}

	sortItems(items, f.Sort)
	items = page(items, f.Offset, f.Limit)

	if profile == nil {
		for i := range items {
			maskItem(&items[i])
		}
	}

	return items
}

// page slices the sorted items. An offset past the end yields an empty
// result, not an error.
func page(items []Item, offset, limit int) []Item {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// matchesQuery is a case-insensitive substring match against the
// project name and suburb.
func matchesQuery(t *model.TenderRecord, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Name), query) ||
		strings.Contains(strings.ToLower(t.Suburb), query)
}

// matchesTrades keeps the tender when any selected trade appears in its
// requirements. An empty selection matches everything.
func matchesTrades(t *model.TenderRecord, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		for _, req := range t.TradeRequirements {
			if trade.Match(s, req.Trade) {
				return true
			}
		}
	}
	return false
}

// matchesBudget checks band overlap between the filter range and any of
// the tender's per-trade budget bands. A tender with no budget set is
// kept only when the viewer opted to include no-budget tenders.
func matchesBudget(t *model.TenderRecord, f Filters) bool {
	if f.BudgetMinCents == nil && f.BudgetMaxCents == nil {
		return true
	}

	hasBand := false
	for _, req := range t.TradeRequirements {
		if req.BudgetMinCents == nil && req.BudgetMaxCents == nil {
			continue
		}
		hasBand = true
		if bandsOverlap(req.BudgetMinCents, req.BudgetMaxCents, f.BudgetMinCents, f.BudgetMaxCents) {
			return true
		}
	}

	if !hasBand {
		return f.IncludeNoBudget
	}
	return false
}

// bandsOverlap treats a missing bound as unbounded on that side.
func bandsOverlap(aMin, aMax, bMin, bMax *int64) bool {
	if aMax != nil && bMin != nil && *aMax < *bMin {
		return false
	}
	if bMax != nil && aMin != nil && *bMax < *aMin {
		return false
	}
	return true
}

// datesOverlap treats tenders with no dates and filters with no dates
// as "always overlaps", so sparse data is never over-filtered.
func datesOverlap(start, end, from, to *time.Time) bool {
	if to != nil && start != nil && start.After(*to) {
		return false
	}
	if from != nil && end != nil && end.Before(*from) {
		return false
	}
	return true
}

func distanceTo(profile *model.ViewerProfile, t *model.TenderRecord) *float64 {
	if profile == nil || profile.SearchLat == nil || profile.SearchLng == nil {
		return nil
	}
	if t.Lat == nil || t.Lng == nil {
		return nil
	}
	return geo.DistanceKm(
		&geo.Point{Lat: *profile.SearchLat, Lng: *profile.SearchLng},
		&geo.Point{Lat: *t.Lat, Lng: *t.Lng},
	)
}

func sortItems(items []Item, mode SortMode) {
	switch mode {
	case SortPremiumFirst:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := &items[i].Tender, &items[j].Tender
			if a.OwnerPremium != b.OwnerPremium {
				return a.OwnerPremium
			}
			if a.OwnerVerified != b.OwnerVerified {
				return a.OwnerVerified
			}
			if a.OwnerRating != b.OwnerRating {
				return a.OwnerRating > b.OwnerRating
			}
			return a.Name < b.Name
		})
	case SortNearest:
		// Unknown-distance entries sort last, never drop out.
		sort.SliceStable(items, func(i, j int) bool {
			di, dj := items[i].DistanceKm, items[j].DistanceKm
			if di == nil && dj == nil {
				return items[i].Tender.Name < items[j].Tender.Name
			}
			if di == nil {
				return false
			}
			if dj == nil {
				return true
			}
			if *di != *dj {
				return *di < *dj
			}
			return items[i].Tender.Name < items[j].Tender.Name
		})
	case SortRating:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := &items[i].Tender, &items[j].Tender
			if a.OwnerRating != b.OwnerRating {
				return a.OwnerRating > b.OwnerRating
			}
			return a.Name < b.Name
		})
	case SortName:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Tender.Name < items[j].Tender.Name
		})
	default: // SortRecommended
		sort.SliceStable(items, func(i, j int) bool {
			si := recommendedScore(&items[i].Tender)
			sj := recommendedScore(&items[j].Tender)
			if si != sj {
				return si > sj
			}
			return items[i].Tender.Name < items[j].Tender.Name
		})
	}
}

// recommendedScore weights the average rating by a log-damped rating
// count so a single five-star review does not outrank an established
// business.
func recommendedScore(t *model.TenderRecord) float64 {
	return t.OwnerRating * math.Log1p(float64(t.OwnerRatingCount))
}
