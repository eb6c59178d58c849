package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
)

type sqliteMessageRepo struct {
	db database.TxQuerier
}

func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

// statusRank, status kolonunun sayısal karşılığı (models.MessageStatus.Rank ile aynı).
const statusRank = `CASE status WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 ELSE 3 END`

const messageSelect = `
	SELECT m.id, m.conversation_id, m.group_id, m.sender_id, m.body,
	       m.attachment_url, m.attachment_name, m.attachment_type,
	       m.status, m.created_at, m.updated_at,
	       u.id, u.username, u.fullname, u.profile_pic, u.is_online, u.last_seen
	FROM messages m
	JOIN users u ON u.id = m.sender_id`

// notHidden, viewer'ın "benden sil" dediği mesajları eler. İlk parametre viewerID.
const notHidden = `NOT EXISTS (SELECT 1 FROM message_hidden h WHERE h.message_id = m.id AND h.user_id = ?)`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	var sender models.UserSummary
	var attURL, attName, attType sql.NullString

	dest := []any{
		&m.ID, &m.ConversationID, &m.GroupID, &m.SenderID, &m.Body,
		&attURL, &attName, &attType,
		&m.Status, &m.CreatedAt, &m.UpdatedAt,
	}
	if err := row.Scan(append(dest, summaryDest(&sender)...)...); err != nil {
		return nil, err
	}

	if attURL.Valid {
		m.Attachment = &models.Attachment{URL: attURL.String, Name: attName.String, MimeType: attType.String}
	}
	m.Sender = &sender
	return &m, nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func (r *sqliteMessageRepo) Create(ctx context.Context, m *models.Message) error {
	var attURL, attName, attType *string
	if m.Attachment != nil {
		attURL, attName, attType = &m.Attachment.URL, &m.Attachment.Name, &m.Attachment.MimeType
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, group_id, sender_id, body,
			attachment_url, attachment_name, attachment_type, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.GroupID, m.SenderID, m.Body,
		attURL, attName, attType, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, messageSelect+` WHERE m.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "message")
	}
	return m, nil
}

// ListByConversation, konuşmanın tüm mesajlarını eskiden yeniye döner.
func (r *sqliteMessageRepo) ListByConversation(ctx context.Context, conversationID, viewerID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, messageSelect+`
		WHERE m.conversation_id = ? AND `+notHidden+`
		ORDER BY m.created_at, m.rowid`, conversationID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation messages: %w", err)
	}
	return scanMessages(rows)
}

// ListByGroup, grup mesajlarını yeniden eskiye sayfalı döner.
func (r *sqliteMessageRepo) ListByGroup(ctx context.Context, groupID, viewerID string, page models.PageRequest) ([]models.Message, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages m WHERE m.group_id = ? AND `+notHidden, groupID, viewerID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count group messages: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, messageSelect+`
		WHERE m.group_id = ? AND `+notHidden+`
		ORDER BY m.created_at DESC, m.rowid DESC
		LIMIT ? OFFSET ?`, groupID, viewerID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list group messages: %w", err)
	}
	messages, err := scanMessages(rows)
	return messages, total, err
}

func (r *sqliteMessageRepo) LastInConversation(ctx context.Context, conversationID, viewerID string) (*models.Message, error) {
	return r.last(ctx, `m.conversation_id = ?`, conversationID, viewerID)
}

func (r *sqliteMessageRepo) LastInGroup(ctx context.Context, groupID, viewerID string) (*models.Message, error) {
	return r.last(ctx, `m.group_id = ?`, groupID, viewerID)
}

func (r *sqliteMessageRepo) last(ctx context.Context, where, scopeID, viewerID string) (*models.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, messageSelect+`
		WHERE `+where+` AND `+notHidden+`
		ORDER BY m.created_at DESC, m.rowid DESC
		LIMIT 1`, scopeID, viewerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last message: %w", err)
	}
	return m, nil
}

func (r *sqliteMessageRepo) UpdateBody(ctx context.Context, id, body string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET body = ?, updated_at = ? WHERE id = ?`, body, at, id)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return mustAffect(result, "message")
}

// AdvanceStatus, mesajın durumu hedeften gerideyse ilerletir.
// Satır değiştiyse true döner.
func (r *sqliteMessageRepo) AdvanceStatus(ctx context.Context, id string, status models.MessageStatus, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages SET status = ?, updated_at = ?
		WHERE id = ? AND `+statusRank+` < ?`, status, at, id, status.Rank())
	if err != nil {
		return false, fmt.Errorf("failed to update message status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}

// AdvanceConversationStatus, karşı tarafın gönderdiği ve hedeften geride olan
// tüm mesajları tek UPDATE ile ilerletir.
func (r *sqliteMessageRepo) AdvanceConversationStatus(ctx context.Context, conversationID, readerID string, status models.MessageStatus, at time.Time) ([]StatusChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE messages SET status = ?, updated_at = ?
		WHERE conversation_id = ? AND sender_id <> ? AND `+statusRank+` < ?
		RETURNING id, sender_id`, status, at, conversationID, readerID, status.Rank())
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation status: %w", err)
	}
	return scanStatusChanges(rows)
}

// MarkGroupMessagesRead, verilen grup mesajlarından okuyucuya ait olmayanları read yapar.
func (r *sqliteMessageRepo) MarkGroupMessagesRead(ctx context.Context, groupID, readerID string, messageIDs []string, at time.Time) ([]StatusChange, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	args := []any{models.MessageStatusRead, at, groupID, readerID}
	args = append(args, toArgs(messageIDs)...)

	rows, err := r.db.QueryContext(ctx, `
		UPDATE messages SET status = ?, updated_at = ?
		WHERE group_id = ? AND sender_id <> ? AND status <> 'read'
		  AND id IN (`+placeholders(len(messageIDs))+`)
		RETURNING id, sender_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to mark group messages read: %w", err)
	}
	return scanStatusChanges(rows)
}

func scanStatusChanges(rows *sql.Rows) ([]StatusChange, error) {
	defer rows.Close()

	var changes []StatusChange
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.MessageID, &c.SenderID); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Hide, mesajı sadece bu kullanıcı için gizler. Tekrar çağrılması hata değil.
func (r *sqliteMessageRepo) Hide(ctx context.Context, messageID, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO message_hidden (message_id, user_id, hidden_at) VALUES (?, ?, ?)`,
		messageID, userID, at)
	if err != nil {
		return fmt.Errorf("failed to hide message: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return mustAffect(result, "message")
}

func (r *sqliteMessageRepo) DeleteByGroup(ctx context.Context, groupID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("failed to delete group messages: %w", err)
	}
	return nil
}

// AttachmentURLsByPair, çiftin DM konuşmasındaki eklerin URL'leri.
// Konuşma silinmeden önce çağrılır; satırlar cascade ile gider, dosyalar gitmez.
func (r *sqliteMessageRepo) AttachmentURLsByPair(ctx context.Context, userA, userB string) ([]string, error) {
	low, high := models.SortedPair(userA, userB)
	return r.attachmentURLs(ctx, `
		SELECT m.attachment_url FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.user1_id = ? AND c.user2_id = ? AND m.attachment_url IS NOT NULL`, low, high)
}

func (r *sqliteMessageRepo) AttachmentURLsByGroup(ctx context.Context, groupID string) ([]string, error) {
	return r.attachmentURLs(ctx, `
		SELECT attachment_url FROM messages
		WHERE group_id = ? AND attachment_url IS NOT NULL`, groupID)
}

func (r *sqliteMessageRepo) attachmentURLs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan attachment url: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
