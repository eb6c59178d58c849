package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
)

type sqliteCallLogRepo struct {
	db database.TxQuerier
}

func NewSQLiteCallLogRepo(db database.TxQuerier) CallLogRepository {
	return &sqliteCallLogRepo{db: db}
}

const callLogSelect = `
	SELECT c.id, c.caller_id, c.receiver_id, c.call_type, c.duration, c.created_at,
	       ca.id, ca.username, ca.fullname, ca.profile_pic, ca.is_online, ca.last_seen,
	       re.id, re.username, re.fullname, re.profile_pic, re.is_online, re.last_seen
	FROM call_logs c
	JOIN users ca ON ca.id = c.caller_id
	JOIN users re ON re.id = c.receiver_id`

func scanCallLog(row interface{ Scan(...any) error }) (*models.CallLog, error) {
	var l models.CallLog
	var caller, receiver models.UserSummary
	dest := []any{&l.ID, &l.CallerID, &l.ReceiverID, &l.CallType, &l.Duration, &l.CreatedAt}
	dest = append(dest, summaryDest(&caller)...)
	dest = append(dest, summaryDest(&receiver)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	l.Caller, l.Receiver = &caller, &receiver
	return &l, nil
}

func (r *sqliteCallLogRepo) Create(ctx context.Context, l *models.CallLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO call_logs (id, caller_id, receiver_id, call_type, duration, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.CallerID, l.ReceiverID, l.CallType, l.Duration, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create call log: %w", err)
	}
	return nil
}

func (r *sqliteCallLogRepo) GetByID(ctx context.Context, id string) (*models.CallLog, error) {
	l, err := scanCallLog(r.db.QueryRowContext(ctx, callLogSelect+` WHERE c.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "call log")
	}
	return l, nil
}

func (r *sqliteCallLogRepo) ListForUser(ctx context.Context, userID string) ([]models.CallLog, error) {
	return r.list(ctx, callLogSelect+`
		WHERE c.caller_id = ? OR c.receiver_id = ?
		ORDER BY c.created_at DESC, c.rowid DESC`, userID, userID)
}

func (r *sqliteCallLogRepo) ListBetween(ctx context.Context, userA, userB string) ([]models.CallLog, error) {
	return r.list(ctx, callLogSelect+`
		WHERE (c.caller_id = ? AND c.receiver_id = ?) OR (c.caller_id = ? AND c.receiver_id = ?)
		ORDER BY c.created_at DESC, c.rowid DESC`, userA, userB, userB, userA)
}

func (r *sqliteCallLogRepo) list(ctx context.Context, query string, args ...any) ([]models.CallLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list call logs: %w", err)
	}
	defer rows.Close()

	logs := []models.CallLog{}
	for rows.Next() {
		l, err := scanCallLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call log row: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}
