package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tOgg1/chatroom/internal/models"
)

// MessageRepository handles message persistence.
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append stores msg, assigning its ID. The room must exist.
func (r *MessageRepository) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	if err := msg.Validate(); err != nil {
		return models.Message{}, fmt.Errorf("invalid message: %w", err)
	}
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE id = ?`, msg.RoomID).Scan(&exists); err != nil {
		return models.Message{}, fmt.Errorf("check room: %w", err)
	}
	if exists == 0 {
		return models.Message{}, ErrRoomNotFound
	}

	msg.ID = uuid.New().String()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.execWithRetry(ctx, `
		INSERT INTO messages (id, room_id, sender_id, text, type, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.RoomID, msg.SenderID, msg.Text, string(msg.Kind), boolToInt(msg.Read), formatTime(msg.CreatedAt))
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// ListByRoom returns the full history of a room in insertion order.
func (r *MessageRepository) ListByRoom(ctx context.Context, roomID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_id, sender_id, text, type, read, created_at
		FROM messages WHERE room_id = ? ORDER BY seq
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]models.Message, 0, 32)
	for rows.Next() {
		var (
			msg       models.Message
			kind      string
			read      int
			createdAt string
		)
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Text, &kind, &read, &createdAt); err != nil {
			return nil, err
		}
		msg.Kind = models.MessageKind(kind)
		msg.Read = read != 0
		msg.CreatedAt = parseTime(createdAt)
		out = append(out, msg)
	}
	return out, rows.Err()
}

// LatestSeq is the change cursor for a room: it grows with every append and
// is 0 for an empty room.
func (r *MessageRepository) LatestSeq(ctx context.Context, roomID string) (int64, error) {
	var seq sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM messages WHERE room_id = ?`, roomID).Scan(&seq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("latest seq: %w", err)
	}
	return seq.Int64, nil
}
