package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tOgg1/chatroom/internal/models"
)

// User and contact repository errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrContactNotFound = errors.New("contact not found")
)

// UserRepository handles profiles and contact lists.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert writes a profile.
func (r *UserRepository) Upsert(ctx context.Context, profile models.Profile) error {
	if strings.TrimSpace(profile.ID) == "" {
		return fmt.Errorf("invalid user: %w", models.ErrMissingID)
	}
	_, err := r.db.execWithRetry(ctx, `
		INSERT INTO users (id, display_name, photo_url, online, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			photo_url = excluded.photo_url,
			online = excluded.online,
			updated_at = excluded.updated_at
	`, profile.ID, profile.DisplayName, profile.PhotoURL, boolToInt(profile.Online), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// Get loads a profile.
func (r *UserRepository) Get(ctx context.Context, id string) (models.Profile, error) {
	profile := models.Profile{ID: id}
	var online int
	err := r.db.QueryRowContext(ctx, `
		SELECT display_name, photo_url, online FROM users WHERE id = ?
	`, id).Scan(&profile.DisplayName, &profile.PhotoURL, &online)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrUserNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("get user: %w", err)
	}
	profile.Online = online != 0
	return profile, nil
}

// AddContact links owner and contact in both directions.
func (r *UserRepository) AddContact(ctx context.Context, ownerID, contactID string) error {
	now := formatTime(time.Now())
	return r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		for _, pair := range [][2]string{{ownerID, contactID}, {contactID, ownerID}} {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO contacts (owner_id, contact_id, created_at) VALUES (?, ?, ?)
			`, pair[0], pair[1], now); err != nil {
				return fmt.Errorf("add contact: %w", err)
			}
		}
		return nil
	})
}

// RemoveContact unlinks owner and contact in both directions. It reports
// ErrContactNotFound when neither direction existed.
func (r *UserRepository) RemoveContact(ctx context.Context, ownerID, contactID string) error {
	var removed int64
	err := r.db.WriteTx(ctx, func(tx *sql.Tx) error {
		removed = 0
		result, err := tx.ExecContext(ctx, `
			DELETE FROM contacts
			WHERE (owner_id = ? AND contact_id = ?) OR (owner_id = ? AND contact_id = ?)
		`, ownerID, contactID, contactID, ownerID)
		if err != nil {
			return fmt.Errorf("remove contact: %w", err)
		}
		removed, _ = result.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrContactNotFound
	}
	return nil
}

// ListContacts returns the ids ownerID has as contacts.
func (r *UserRepository) ListContacts(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT contact_id FROM contacts WHERE owner_id = ? ORDER BY contact_id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
