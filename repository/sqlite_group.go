package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

type sqliteGroupRepo struct {
	db database.TxQuerier
}

func NewSQLiteGroupRepo(db database.TxQuerier) GroupRepository {
	return &sqliteGroupRepo{db: db}
}

// Create, grubu ve üyeleri yazar. Atomiklik için çağıran WithTx içinde
// tx-bound bir repo ile çağırmalıdır.
func (r *sqliteGroupRepo) Create(ctx context.Context, g *models.GroupConversation, memberIDs []string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO group_conversations (id, name, admin_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, g.ID, g.Name, g.AdminID, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	for i, userID := range memberIDs {
		// Katılma sırası = memberIDs sırası.
		joined := g.CreatedAt.Add(time.Duration(i))
		if err := r.AddMember(ctx, g.ID, userID, joined); err != nil {
			return err
		}
	}
	return nil
}

func (r *sqliteGroupRepo) GetByID(ctx context.Context, id string) (*models.GroupConversation, error) {
	var g models.GroupConversation
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, admin_id, created_at, updated_at FROM group_conversations WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.AdminID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "group")
	}

	members, err := r.members(ctx, []string{g.ID})
	if err != nil {
		return nil, err
	}
	g.Members = members[g.ID]
	return &g, nil
}

// members, verilen grupların üyelerini katılma sırasıyla tek sorguda yükler.
func (r *sqliteGroupRepo) members(ctx context.Context, groupIDs []string) (map[string][]models.UserSummary, error) {
	result := make(map[string][]models.UserSummary, len(groupIDs))
	if len(groupIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT gm.group_id, `+summaryColumns("u")+`
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id IN (`+placeholders(len(groupIDs))+`)
		ORDER BY gm.joined_at, gm.rowid`, toArgs(groupIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID string
		var s models.UserSummary
		if err := rows.Scan(append([]any{&groupID}, summaryDest(&s)...)...); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		result[groupID] = append(result[groupID], s)
	}
	return result, rows.Err()
}

func (r *sqliteGroupRepo) Update(ctx context.Context, id, name, adminID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE group_conversations SET name = ?, admin_id = ?, updated_at = ? WHERE id = ?`,
		name, adminID, at, id)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return mustAffect(result, "group")
}

func (r *sqliteGroupRepo) Touch(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE group_conversations SET updated_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to touch group: %w", err)
	}
	return mustAffect(result, "group")
}

func (r *sqliteGroupRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return mustAffect(result, "group")
}

func (r *sqliteGroupRepo) AddMember(ctx context.Context, groupID, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`, groupID, userID, at)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user is already a member", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

func (r *sqliteGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return mustAffect(result, "group member")
}

func (r *sqliteGroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return n > 0, nil
}

func (r *sqliteGroupRepo) OldestMember(ctx context.Context, groupID string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id FROM group_members WHERE group_id = ?
		ORDER BY joined_at, rowid LIMIT 1`, groupID).Scan(&userID)
	if err != nil {
		return "", notFound(err, "group member")
	}
	return userID, nil
}

func (r *sqliteGroupRepo) ListForUser(ctx context.Context, userID string, page models.PageRequest) ([]models.GroupPreview, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.admin_id, g.created_at, g.updated_at,
			(SELECT COUNT(*) FROM messages m
			 WHERE m.group_id = g.id AND m.sender_id <> ? AND m.status <> 'read'
			   AND NOT EXISTS (SELECT 1 FROM message_hidden h WHERE h.message_id = m.id AND h.user_id = ?))
		FROM group_conversations g
		JOIN group_members gm ON gm.group_id = g.id AND gm.user_id = ?
		ORDER BY g.updated_at DESC, g.rowid DESC
		LIMIT ? OFFSET ?`, userID, userID, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.GroupPreview{}
	ids := []string{}
	for rows.Next() {
		var p models.GroupPreview
		if err := rows.Scan(&p.ID, &p.Name, &p.AdminID, &p.CreatedAt, &p.UpdatedAt, &p.UnreadCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	members, err := r.members(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range groups {
		groups[i].Members = members[groups[i].ID]
	}
	return groups, total, nil
}
