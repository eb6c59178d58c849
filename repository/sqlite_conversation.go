package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

type sqliteConversationRepo struct {
	db database.TxQuerier
}

func NewSQLiteConversationRepo(db database.TxQuerier) ConversationRepository {
	return &sqliteConversationRepo{db: db}
}

const conversationColumns = `id, user1_id, user2_id, created_at, updated_at`

func (r *sqliteConversationRepo) Create(ctx context.Context, c *models.Conversation) error {
	c.User1ID, c.User2ID = models.SortedPair(c.User1ID, c.User2ID)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (`+conversationColumns+`) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.User1ID, c.User2ID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: conversation already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *sqliteConversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	return r.getOne(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
}

func (r *sqliteConversationRepo) GetByPair(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	low, high := models.SortedPair(userA, userB)
	return r.getOne(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE user1_id = ? AND user2_id = ?`, low, high)
}

func (r *sqliteConversationRepo) getOne(ctx context.Context, query string, args ...any) (*models.Conversation, error) {
	var c models.Conversation
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.User1ID, &c.User2ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "conversation")
	}
	return &c, nil
}

// DeleteByPair, konuşmayı ve (cascade ile) mesajlarını siler. Konuşma yoksa hata değil.
func (r *sqliteConversationRepo) DeleteByPair(ctx context.Context, userA, userB string) error {
	low, high := models.SortedPair(userA, userB)
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE user1_id = ? AND user2_id = ?`, low, high); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (r *sqliteConversationRepo) Touch(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return mustAffect(result, "conversation")
}

func (r *sqliteConversationRepo) ListForUser(ctx context.Context, userID string, page models.PageRequest) ([]models.ConversationPreview, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE user1_id = ? OR user2_id = ?`, userID, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.user1_id, c.user2_id, c.created_at, c.updated_at, `+summaryColumns("u")+`,
			(SELECT COUNT(*) FROM messages m
			 WHERE m.conversation_id = c.id AND m.sender_id <> ? AND m.status <> 'read'
			   AND NOT EXISTS (SELECT 1 FROM message_hidden h WHERE h.message_id = m.id AND h.user_id = ?))
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.user1_id = ? THEN c.user2_id ELSE c.user1_id END
		WHERE c.user1_id = ? OR c.user2_id = ?
		ORDER BY c.updated_at DESC, c.rowid DESC
		LIMIT ? OFFSET ?`,
		userID, userID, userID, userID, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	previews := []models.ConversationPreview{}
	for rows.Next() {
		var p models.ConversationPreview
		dest := []any{&p.ID, &p.User1ID, &p.User2ID, &p.CreatedAt, &p.UpdatedAt}
		dest = append(dest, summaryDest(&p.Participant)...)
		dest = append(dest, &p.UnreadCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		previews = append(previews, p)
	}
	return previews, total, rows.Err()
}
