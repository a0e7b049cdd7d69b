// Package eligibility is the single source of truth for deciding what a
// viewer may see and do with a tender. Both the listing pipeline and
// the quote submission gate call Evaluate; there are no parallel
// reimplementations of these rules anywhere else in the service.
package eligibility

import (
	"tradehub/internal/geo"
	"tradehub/internal/model"
	"tradehub/internal/trade"
)

// Human-readable reasons returned alongside canQuote=false, suitable
// for direct display next to the quote action.
const (
	ReasonNotAvailable   = "tender is not available"
	ReasonTradeMismatch  = "trade mismatch"
	ReasonOutsideRadius  = "outside your search radius"
	ReasonQuoteLimit     = "quote limit reached for this tender"
	ReasonSignInRequired = "sign in to quote"
	ReasonABNRequired    = "ABN required"
	ReasonABNUnverified  = "ABN verification required"
	ReasonAlreadyQuoted  = "you have already quoted on this tender"
	ReasonOwnTender      = "you cannot quote on your own tender"
)

// Viewer is everything Evaluate needs to know about the requesting
// professional. Profile is nil for anonymous browsing. AlreadyQuoted is
// resolved by the caller against current quote state.
type Viewer struct {
	Profile         *model.ViewerProfile
	DefaultRadiusKm float64
	AlreadyQuoted   bool
}

// Decision is the outcome for one (viewer, tender) pair. Reason is set
// whenever CanQuote is false on a visible tender, or when visibility
// itself was denied.
type Decision struct {
	Visible  bool   `json:"visible"`
	CanQuote bool   `json:"can_quote"`
	Reason   string `json:"reason,omitempty"`
}

func hidden(reason string) Decision {
	return Decision{Visible: false, CanQuote: false, Reason: reason}
}

func visibleNoQuote(reason string) Decision {
	return Decision{Visible: true, CanQuote: false, Reason: reason}
}

// Evaluate runs the ordered rule chain for a viewer against a tender.
// The first failing rule determines the outcome; this is a
// short-circuit procedure, not a scoring function.
func Evaluate(v Viewer, t *model.TenderRecord) Decision {
	profile := v.Profile
	isOwner := profile != nil && profile.ID == t.OwnerID
	isAdmin := profile != nil && profile.IsAdmin

	// Lifecycle gate. Owners and admins bypass it so drafts and
	// pending tenders stay reviewable by their author.
	if !isOwner && !isAdmin {
		if !t.Status.Open() || t.ApprovalStatus != model.ApprovalApproved {
			return hidden(ReasonNotAvailable)
		}
	}

	if isOwner {
		return visibleNoQuote(ReasonOwnTender)
	}

	// Trade match. A tender with zero trade requirements matches
	// nobody: an incompletely configured tender must not appear to
	// everyone. Anonymous viewers carry no trade, so the rule cannot
	// apply; the read path fails open for them and the write path is
	// closed below.
	if !isAdmin && profile != nil {
		if !tradeMatches(profile.PrimaryTrade, t) {
			return hidden(ReasonTradeMismatch)
		}
	}
	if profile == nil && len(t.TradeRequirements) == 0 {
		return hidden(ReasonTradeMismatch)
	}

	// Radius gate. Premium tiers lift the cap entirely. A nil distance
	// (either side not geocoded) never excludes.
	if t.Tier.RadiusRestricted() {
		d := geo.DistanceKm(viewerPoint(profile), tenderPoint(t))
		if d != nil && *d > effectiveRadiusKm(profile, v.DefaultRadiusKm) {
			return hidden(ReasonOutsideRadius)
		}
	}

	// From here the tender is visible; the remaining rules only decide
	// whether the quote action is open.

	// Quote-cap gate. LimitedQuotesEnabled is deliberately
	// role-agnostic: when the cap is exhausted every viewer is blocked.
	if t.CapReached() {
		return visibleNoQuote(ReasonQuoteLimit)
	}

	// ABN gate. Affects the write path only; browsing stays open.
	if profile == nil {
		return visibleNoQuote(ReasonSignInRequired)
	}
	if profile.ABN == "" {
		return visibleNoQuote(ReasonABNRequired)
	}
	if profile.ABNStatus != model.ABNVerified {
		return visibleNoQuote(ReasonABNUnverified)
	}

	if v.AlreadyQuoted {
		return visibleNoQuote(ReasonAlreadyQuoted)
	}

	return Decision{Visible: true, CanQuote: true}
}

func tradeMatches(primaryTrade string, t *model.TenderRecord) bool {
	for _, req := range t.TradeRequirements {
		if trade.Match(primaryTrade, req.Trade) {
			return true
		}
	}
	return false
}

// effectiveRadiusKm is the viewer's custom override when they hold the
// premium capability, otherwise the service default.
func effectiveRadiusKm(profile *model.ViewerProfile, defaultKm float64) float64 {
	if profile != nil && profile.Premium && profile.SearchRadiusKm > 0 {
		return profile.SearchRadiusKm
	}
	return defaultKm
}

func viewerPoint(profile *model.ViewerProfile) *geo.Point {
	if profile == nil || profile.SearchLat == nil || profile.SearchLng == nil {
		return nil
	}
	return &geo.Point{Lat: *profile.SearchLat, Lng: *profile.SearchLng}
}

func tenderPoint(t *model.TenderRecord) *geo.Point {
	if t.Lat == nil || t.Lng == nil {
		return nil
	}
	return &geo.Point{Lat: *t.Lat, Lng: *t.Lng}
}
