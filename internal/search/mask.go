package search

import "tradehub/internal/model"

// MaskedPlaceholder replaces project detail fields for viewers who have
// not signed in.
const MaskedPlaceholder = "Sign in to view"

// maskItem redacts project name, description, budget and timeline for
// anonymous viewers. This is presentational only: inclusion in the list
// was already decided by the evaluator.
func maskItem(item *Item) {
	item.Masked = true

	t := &item.Tender
	t.Name = MaskedPlaceholder
	t.Description = MaskedPlaceholder
	t.DesiredStart = nil
	t.DesiredEnd = nil

	// Copy before redacting: the requirements slice still backs the
	// caller's candidate records.
	reqs := make([]model.TenderTradeRequirement, len(t.TradeRequirements))
	copy(reqs, t.TradeRequirements)
	for i := range reqs {
		reqs[i].Description = MaskedPlaceholder
		reqs[i].BudgetMinCents = nil
		reqs[i].BudgetMaxCents = nil
	}
	t.TradeRequirements = reqs
}

// MaskTender returns a redacted copy of a tender for the anonymous
// detail view.
func MaskTender(t model.TenderRecord) model.TenderRecord {
	item := Item{Tender: t}
	maskItem(&item)
	return item.Tender
}
