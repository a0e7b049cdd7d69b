package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"tradehub/internal/model"
	"tradehub/pkg/config"
)

// ViewerClaims carries the professional's profile in the session token.
// The identity provider mints these; this service only reads them.
type ViewerClaims struct {
	ViewerID     string   `json:"viewer_id"`
	PrimaryTrade string   `json:"primary_trade"`
	ABN          string   `json:"abn,omitempty"`
	ABNStatus    string   `json:"abn_status,omitempty"`
	Premium      bool     `json:"premium,omitempty"`
	RadiusKm     float64  `json:"radius_km,omitempty"`
	SearchLat    *float64 `json:"search_lat,omitempty"`
	SearchLng    *float64 `json:"search_lng,omitempty"`
	IsAdmin      bool     `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// Profile converts the claims into the canonical ViewerProfile. This is
// the single place token fields become the profile structure; nothing
// downstream re-reads raw claims.
func (c *ViewerClaims) Profile() (*model.ViewerProfile, error) {
	id, err := uuid.Parse(c.ViewerID)
	if err != nil {
		return nil, fmt.Errorf("invalid viewer id in token: %w", err)
	}

	status := model.ABNStatus(c.ABNStatus)
	switch status {
	case model.ABNVerified, model.ABNPending, model.ABNRejected, model.ABNNone:
	default:
		// Unknown status fails closed on the write path.
		status = model.ABNNone
	}

	return &model.ViewerProfile{
		ID:             id,
		PrimaryTrade:   c.PrimaryTrade,
		ABN:            c.ABN,
		ABNStatus:      status,
		Premium:        c.Premium,
		SearchRadiusKm: c.RadiusKm,
		SearchLat:      c.SearchLat,
		SearchLng:      c.SearchLng,
		IsAdmin:        c.IsAdmin,
	}, nil
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *config.JWTConfig
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: config}
}

// GenerateToken creates a signed token for a viewer profile. Used by
// tests and local tooling; production tokens come from the identity
// provider.
func (j *JWTUtil) GenerateToken(profile *model.ViewerProfile) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}

	claims := ViewerClaims{
		ViewerID:     profile.ID.String(),
		PrimaryTrade: profile.PrimaryTrade,
		ABN:          profile.ABN,
		ABNStatus:    string(profile.ABNStatus),
		Premium:      profile.Premium,
		RadiusKm:     profile.SearchRadiusKm,
		SearchLat:    profile.SearchLat,
		SearchLng:    profile.SearchLng,
		IsAdmin:      profile.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*ViewerClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&ViewerClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ViewerClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
