package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tOgg1/chatroom/internal/models"
)

// Room repository errors.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomNotGroup   = errors.New("room is not a group")
	ErrNotParticipant = errors.New("user is not a participant")
)

// RoomRepository handles conversation persistence.
type RoomRepository struct {
	db *DB
}

// NewRoomRepository creates a new RoomRepository.
func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create stores a conversation and its participants. An empty id is filled
// with a new UUID and returned.
func (r *RoomRepository) Create(ctx context.Context, conv models.Conversation) (string, error) {
	id := conv.ConversationID()
	if strings.TrimSpace(id) == "" {
		id = uuid.New().String()
		conv = withID(conv, id)
	}
	if err := models.ValidateConversation(conv); err != nil {
		return "", fmt.Errorf("invalid room: %w", err)
	}

	var name, photo string
	if group, ok := conv.(models.GroupConversation); ok {
		name = group.Group.Name
		photo = group.Group.PhotoURL
	}
	now := formatTime(time.Now())

	err := r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (id, type, group_name, group_photo_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, string(conv.Kind()), name, photo, now, now); err != nil {
			return fmt.Errorf("insert room: %w", err)
		}
		for i, userID := range conv.ParticipantIDs() {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO room_participants (room_id, user_id, position) VALUES (?, ?, ?)
			`, id, userID, i); err != nil {
				return fmt.Errorf("insert participant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func withID(conv models.Conversation, id string) models.Conversation {
	switch typed := conv.(type) {
	case models.PrivateConversation:
		typed.ID = id
		return typed
	case models.GroupConversation:
		typed.ID = id
		return typed
	default:
		return conv
	}
}

// Get loads one conversation.
func (r *RoomRepository) Get(ctx context.Context, id string) (models.Conversation, error) {
	var kind, name, photo string
	err := r.db.QueryRowContext(ctx, `
		SELECT type, group_name, group_photo_url FROM rooms WHERE id = ?
	`, id).Scan(&kind, &name, &photo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}

	participants, err := r.participants(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildConversation(id, kind, name, photo, participants)
}

func buildConversation(id, kind, name, photo string, participants []string) (models.Conversation, error) {
	parsed, err := models.ParseConversationKind(kind)
	if err != nil {
		return nil, err
	}
	if parsed == models.ConversationGroup {
		return models.GroupConversation{
			ID:           id,
			Participants: participants,
			Group:        models.GroupInfo{Name: name, PhotoURL: photo},
		}, nil
	}
	return models.PrivateConversation{ID: id, Participants: participants}, nil
}

func (r *RoomRepository) participants(ctx context.Context, roomID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM room_participants WHERE room_id = ? ORDER BY position, user_id
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 4)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		out = append(out, userID)
	}
	return out, rows.Err()
}

// ListForUser returns every room userID participates in, most recently
// active first.
func (r *RoomRepository) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id
		FROM rooms r
		JOIN room_participants p ON p.room_id = r.id
		LEFT JOIN (SELECT room_id, MAX(seq) AS last_seq FROM messages GROUP BY room_id) m ON m.room_id = r.id
		WHERE p.user_id = ?
		ORDER BY COALESCE(m.last_seq, 0) DESC, r.created_at DESC, r.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	ids := make([]string, 0, 8)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]models.Conversation, 0, len(ids))
	for _, id := range ids {
		conv, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, nil
}

// Rename sets a group's display name.
func (r *RoomRepository) Rename(ctx context.Context, roomID, name string) error {
	return r.updateGroupField(ctx, roomID, "group_name", name)
}

// SetPhoto sets a group's photo reference.
func (r *RoomRepository) SetPhoto(ctx context.Context, roomID, photoURL string) error {
	return r.updateGroupField(ctx, roomID, "group_photo_url", photoURL)
}

func (r *RoomRepository) updateGroupField(ctx context.Context, roomID, column, value string) error {
	if err := r.requireGroup(ctx, roomID); err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE rooms SET %s = ?, updated_at = ? WHERE id = ?`, column)
	if _, err := r.db.execWithRetry(ctx, query, value, formatTime(time.Now()), roomID); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

func (r *RoomRepository) requireGroup(ctx context.Context, roomID string) error {
	var kind string
	err := r.db.QueryRowContext(ctx, `SELECT type FROM rooms WHERE id = ?`, roomID).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("get room: %w", err)
	}
	if kind != string(models.ConversationGroup) {
		return ErrRoomNotGroup
	}
	return nil
}

// RemoveParticipant drops userID from a group.
func (r *RoomRepository) RemoveParticipant(ctx context.Context, roomID, userID string) error {
	if err := r.requireGroup(ctx, roomID); err != nil {
		return err
	}
	result, err := r.db.execWithRetry(ctx, `
		DELETE FROM room_participants WHERE room_id = ? AND user_id = ?
	`, roomID, userID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotParticipant
	}
	return nil
}
