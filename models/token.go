package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, access token içeriği.
// RegisteredClaims.ID (jti) sunucu tarafındaki session kaydının ID'sidir;
// logout session'ı sildiğinde token da geçersiz olur.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
