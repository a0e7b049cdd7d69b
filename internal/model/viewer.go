package model

import "github.com/google/uuid"

// ABNStatus is the verification state of a professional's business
// registration.
type ABNStatus string

const (
	ABNVerified ABNStatus = "VERIFIED"
	ABNPending  ABNStatus = "PENDING"
	ABNRejected ABNStatus = "REJECTED"
	ABNNone     ABNStatus = "NONE"
)

// ViewerProfile is the professional evaluating or quoting on tenders.
// It is supplied by the identity provider and only ever read here; a
// nil profile means an anonymous viewer.
type ViewerProfile struct {
	ID           uuid.UUID `json:"id"`
	PrimaryTrade string    `json:"primary_trade"`

	ABN       string    `json:"abn"`
	ABNStatus ABNStatus `json:"abn_status"`

	// Premium unlocks the custom search radius and bills quotes against
	// a subscription instead of the monthly free quota.
	Premium bool `json:"premium"`

	SearchRadiusKm float64  `json:"search_radius_km"`
	SearchLat      *float64 `json:"search_lat"`
	SearchLng      *float64 `json:"search_lng"`

	IsAdmin bool `json:"is_admin"`
}

// ABNCleared reports whether the viewer's ABN clears the write path:
// present and verified. Browsing is never gated on this.
func (v *ViewerProfile) ABNCleared() bool {
	return v != nil && v.ABN != "" && v.ABNStatus == ABNVerified
}
