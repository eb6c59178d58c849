package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

// isUniqueViolation, SQLite'ın UNIQUE / PRIMARY KEY ihlali hatasını tanır.
// modernc driver'ı hatayı metin olarak taşır.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// notFound, sql.ErrNoRows'u pkg.ErrNotFound'a çevirir; diğer hataları wrap eder.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", pkg.ErrNotFound, what)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// placeholders, IN (...) listesi için "?, ?, ?" üretir.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// summaryColumns, UserSummary için SELECT kolonları (alias ile).
func summaryColumns(alias string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.username, %[1]s.fullname, %[1]s.profile_pic, %[1]s.is_online, %[1]s.last_seen", alias)
}

// summaryDest, summaryColumns sırasıyla Scan hedefleri.
func summaryDest(s *models.UserSummary) []any {
	return []any{&s.ID, &s.Username, &s.Fullname, &s.ProfilePic, &s.IsOnline, &s.LastSeen}
}

// mustAffect, UPDATE/DELETE sonucunda satır etkilenmediyse ErrNotFound döner.
func mustAffect(result sql.Result, what string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", pkg.ErrNotFound, what)
	}
	return nil
}
