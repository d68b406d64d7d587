package jwttoken

import (
	"tombola/internal/platform/middleware"
)

func ToMiddlewareClaims(claims *Claims) *middleware.TokenClaims {
	return &middleware.TokenClaims{
		Identity: claims.Identity,
		TokenID:  claims.ID,
	}
}

// JWTServiceAdapter narrows JWTService to the middleware's validator
// interface.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
