package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

type sqliteFriendshipRepo struct {
	db database.TxQuerier
}

func NewSQLiteFriendshipRepo(db database.TxQuerier) FriendshipRepository {
	return &sqliteFriendshipRepo{db: db}
}

const friendRequestColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

func scanFriendRequest(row interface{ Scan(...any) error }) (*models.FriendRequest, error) {
	var f models.FriendRequest
	err := row.Scan(&f.ID, &f.SenderID, &f.ReceiverID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	return &f, err
}

func (r *sqliteFriendshipRepo) Create(ctx context.Context, f *models.FriendRequest) error {
	low, high := models.SortedPair(f.SenderID, f.ReceiverID)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO friend_requests (id, sender_id, receiver_id, user_low, user_high, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.SenderID, f.ReceiverID, low, high, f.Status, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: friend request already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

func (r *sqliteFriendshipRepo) GetByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	f, err := scanFriendRequest(r.db.QueryRowContext(ctx,
		`SELECT `+friendRequestColumns+` FROM friend_requests WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "friend request")
	}
	return f, nil
}

func (r *sqliteFriendshipRepo) GetByPair(ctx context.Context, userA, userB string) (*models.FriendRequest, error) {
	low, high := models.SortedPair(userA, userB)
	f, err := scanFriendRequest(r.db.QueryRowContext(ctx,
		`SELECT `+friendRequestColumns+` FROM friend_requests WHERE user_low = ? AND user_high = ?`, low, high))
	if err != nil {
		return nil, notFound(err, "friend request")
	}
	return f, nil
}

func (r *sqliteFriendshipRepo) Reopen(ctx context.Context, id, senderID, receiverID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE friend_requests SET sender_id = ?, receiver_id = ?, status = 'pending', updated_at = ?
		WHERE id = ?`, senderID, receiverID, at, id)
	if err != nil {
		return fmt.Errorf("failed to reopen friend request: %w", err)
	}
	return mustAffect(result, "friend request")
}

func (r *sqliteFriendshipRepo) UpdateStatus(ctx context.Context, id string, status models.FriendRequestStatus, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE friend_requests SET status = ?, updated_at = ? WHERE id = ?`, status, at, id)
	if err != nil {
		return fmt.Errorf("failed to update friend request: %w", err)
	}
	return mustAffect(result, "friend request")
}

// MarkPairBlocked, çiftin isteğini (durumu ne olursa olsun) blocked yapar.
// Satır yoksa bir şey yapmaz.
func (r *sqliteFriendshipRepo) MarkPairBlocked(ctx context.Context, userA, userB string, at time.Time) error {
	low, high := models.SortedPair(userA, userB)
	_, err := r.db.ExecContext(ctx, `
		UPDATE friend_requests SET status = 'blocked', updated_at = ?
		WHERE user_low = ? AND user_high = ?`, at, low, high)
	if err != nil {
		return fmt.Errorf("failed to mark friend request blocked: %w", err)
	}
	return nil
}

// MarkPairUnblocked, blocked → rejected. İstek tekrar pending'e açılmaz.
func (r *sqliteFriendshipRepo) MarkPairUnblocked(ctx context.Context, userA, userB string, at time.Time) error {
	low, high := models.SortedPair(userA, userB)
	_, err := r.db.ExecContext(ctx, `
		UPDATE friend_requests SET status = 'rejected', updated_at = ?
		WHERE user_low = ? AND user_high = ? AND status = 'blocked'`, at, low, high)
	if err != nil {
		return fmt.Errorf("failed to reset friend request: %w", err)
	}
	return nil
}

func (r *sqliteFriendshipRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete friend request: %w", err)
	}
	return mustAffect(result, "friend request")
}

func (r *sqliteFriendshipRepo) ListFriends(ctx context.Context, userID string) ([]models.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+summaryColumns("u")+`
		FROM friend_requests f
		JOIN users u ON u.id = CASE WHEN f.sender_id = ? THEN f.receiver_id ELSE f.sender_id END
		WHERE (f.sender_id = ? OR f.receiver_id = ?) AND f.status = 'accepted'
		ORDER BY u.fullname`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	friends := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(summaryDest(&s)...); err != nil {
			return nil, fmt.Errorf("failed to scan friend row: %w", err)
		}
		friends = append(friends, s)
	}
	return friends, rows.Err()
}

func (r *sqliteFriendshipRepo) ListIncoming(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	return r.listPending(ctx, `
		SELECT f.id, f.sender_id, f.receiver_id, f.status, f.created_at, f.updated_at, `+summaryColumns("u")+`
		FROM friend_requests f
		JOIN users u ON u.id = f.sender_id
		WHERE f.receiver_id = ? AND f.status = 'pending'
		ORDER BY f.created_at DESC`, userID)
}

func (r *sqliteFriendshipRepo) ListOutgoing(ctx context.Context, userID string) ([]models.FriendRequestWithUser, error) {
	return r.listPending(ctx, `
		SELECT f.id, f.sender_id, f.receiver_id, f.status, f.created_at, f.updated_at, `+summaryColumns("u")+`
		FROM friend_requests f
		JOIN users u ON u.id = f.receiver_id
		WHERE f.sender_id = ? AND f.status = 'pending'
		ORDER BY f.created_at DESC`, userID)
}

func (r *sqliteFriendshipRepo) listPending(ctx context.Context, query, userID string) ([]models.FriendRequestWithUser, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FriendRequestWithUser{}
	for rows.Next() {
		var fr models.FriendRequestWithUser
		dest := append([]any{
			&fr.ID, &fr.SenderID, &fr.ReceiverID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt,
		}, summaryDest(&fr.User)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan friend request row: %w", err)
		}
		requests = append(requests, fr)
	}
	return requests, rows.Err()
}

func (r *sqliteFriendshipRepo) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	low, high := models.SortedPair(userA, userB)
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM friend_requests
		WHERE user_low = ? AND user_high = ? AND status = 'accepted'`, low, high).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return n > 0, nil
}

// FilterFriends, candidates içinden userID'nin kabul edilmiş arkadaşı olanları döner.
func (r *sqliteFriendshipRepo) FilterFriends(ctx context.Context, userID string, candidates []string) (map[string]bool, error) {
	friends := make(map[string]bool, len(candidates))
	if len(candidates) == 0 {
		return friends, nil
	}

	in := placeholders(len(candidates))
	args := []any{userID}
	args = append(args, toArgs(candidates)...)
	args = append(args, userID)
	args = append(args, toArgs(candidates)...)

	rows, err := r.db.QueryContext(ctx, `
		SELECT receiver_id FROM friend_requests
		WHERE status = 'accepted' AND sender_id = ? AND receiver_id IN (`+in+`)
		UNION
		SELECT sender_id FROM friend_requests
		WHERE status = 'accepted' AND receiver_id = ? AND sender_id IN (`+in+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter friends: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		friends[id] = true
	}
	return friends, rows.Err()
}
