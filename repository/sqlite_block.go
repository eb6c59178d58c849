package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

type sqliteBlockRepo struct {
	db database.TxQuerier
}

func NewSQLiteBlockRepo(db database.TxQuerier) BlockRepository {
	return &sqliteBlockRepo{db: db}
}

func (r *sqliteBlockRepo) Create(ctx context.Context, b *models.Block) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocks (id, blocker_id, blocked_id, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.BlockerID, b.BlockedID, b.Reason, b.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user is already blocked", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create block: %w", err)
	}
	return nil
}

func (r *sqliteBlockRepo) Delete(ctx context.Context, blockerID, blockedID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?`, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	return mustAffect(result, "block")
}

func (r *sqliteBlockRepo) ExistsBetween(ctx context.Context, userA, userB string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM blocks
		WHERE (blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)`,
		userA, userB, userB, userA,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteBlockRepo) IsBlockedBy(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blocks WHERE blocker_id = ? AND blocked_id = ?`, blockerID, blockedID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteBlockRepo) ListByBlocker(ctx context.Context, blockerID string) ([]models.BlockWithUser, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.blocker_id, b.blocked_id, b.reason, b.created_at, `+summaryColumns("u")+`
		FROM blocks b
		JOIN users u ON u.id = b.blocked_id
		WHERE b.blocker_id = ?
		ORDER BY b.created_at DESC`, blockerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	blocks := []models.BlockWithUser{}
	for rows.Next() {
		var b models.BlockWithUser
		dest := append([]any{&b.ID, &b.BlockerID, &b.BlockedID, &b.Reason, &b.CreatedAt}, summaryDest(&b.User)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan block row: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
