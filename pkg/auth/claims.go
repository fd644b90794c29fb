package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Identity is the caller's opaque signing identity; authorization inside the
// engine is always an equality check against a stored identity.
type AccessTokenPayload struct {
	Identity uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	Identity uuid.UUID `json:"identity"`
	jwt.RegisteredClaims
}
