package models

import "time"

// Session, bir giriş oturumu. Access token'ın jti'si bu kaydın ID'sidir.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
