package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

type sqliteReactionRepo struct {
	db database.TxQuerier
}

func NewSQLiteReactionRepo(db database.TxQuerier) ReactionRepository {
	return &sqliteReactionRepo{db: db}
}

const reactionSelect = `
	SELECT r.id, r.message_id, r.user_id, r.emoji, r.created_at,
	       u.id, u.username, u.fullname, u.profile_pic, u.is_online, u.last_seen
	FROM reactions r
	JOIN users u ON u.id = r.user_id`

func scanReaction(row interface{ Scan(...any) error }) (*models.Reaction, error) {
	var rc models.Reaction
	var user models.UserSummary
	dest := []any{&rc.ID, &rc.MessageID, &rc.UserID, &rc.Emoji, &rc.CreatedAt}
	if err := row.Scan(append(dest, summaryDest(&user)...)...); err != nil {
		return nil, err
	}
	rc.User = &user
	return &rc, nil
}

func (r *sqliteReactionRepo) Create(ctx context.Context, rc *models.Reaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reactions (id, message_id, user_id, emoji, created_at) VALUES (?, ?, ?, ?, ?)`,
		rc.ID, rc.MessageID, rc.UserID, rc.Emoji, rc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: reaction already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create reaction: %w", err)
	}
	return nil
}

func (r *sqliteReactionRepo) GetByID(ctx context.Context, id string) (*models.Reaction, error) {
	rc, err := scanReaction(r.db.QueryRowContext(ctx, reactionSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "reaction")
	}
	return rc, nil
}

func (r *sqliteReactionRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}
	return mustAffect(result, "reaction")
}

func (r *sqliteReactionRepo) ListByMessage(ctx context.Context, messageID string) ([]models.Reaction, error) {
	rows, err := r.db.QueryContext(ctx, reactionSelect+`
		WHERE r.message_id = ? ORDER BY r.created_at, r.rowid`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer rows.Close()

	reactions := []models.Reaction{}
	err = eachReaction(rows, func(rc *models.Reaction) { reactions = append(reactions, *rc) })
	return reactions, err
}

func (r *sqliteReactionRepo) ListByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]models.Reaction, error) {
	result := make(map[string][]models.Reaction, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx, reactionSelect+`
		WHERE r.message_id IN (`+placeholders(len(messageIDs))+`)
		ORDER BY r.created_at, r.rowid`, toArgs(messageIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch list reactions: %w", err)
	}
	defer rows.Close()

	err = eachReaction(rows, func(rc *models.Reaction) {
		result[rc.MessageID] = append(result[rc.MessageID], *rc)
	})
	return result, err
}

func eachReaction(rows *sql.Rows, fn func(*models.Reaction)) error {
	for rows.Next() {
		rc, err := scanReaction(rows)
		if err != nil {
			return fmt.Errorf("failed to scan reaction row: %w", err)
		}
		fn(rc)
	}
	return rows.Err()
}
