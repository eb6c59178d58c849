// Package repository, veritabanı erişim katmanıdır.
//
// Her varlık için bir interface (xxx_repository.go) ve SQLite implementasyonu
// (sqlite_xxx.go) vardır. Service'ler sadece interface'i görür.
// Constructor'lar database.TxQuerier alır; aynı repo hem *sql.DB hem *sql.Tx ile çalışır.
package repository

import (
	"context"
	"time"

	"github.com/akinalp/sohbet/models"
)

// UserRepository, kullanıcı kayıtları.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListExcept(ctx context.Context, userID string) ([]models.UserSummary, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string, at time.Time) error
	SetOnline(ctx context.Context, userID string, online bool, at time.Time) error
}
