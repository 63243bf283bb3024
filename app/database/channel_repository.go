package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChannelRepo handles database operations for channels
type ChannelRepo struct {
	db *DB
}

var _ ChannelRepository = (*ChannelRepo)(nil)

func NewChannelRepository(db *DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

// UpsertChannel registers a channel for an owner, returning its database id
// and whether the row was newly created. A freshly created channel is the
// trigger for a one-time backfill.
func (r *ChannelRepo) UpsertChannel(ownerID, name, url string) (string, bool, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM channels WHERE owner_id = ? AND url = ?
	`, ownerID, url).Scan(&id)
	if err == nil {
		_, err = r.db.Exec(`UPDATE channels SET name = ? WHERE id = ?`, name, id)
		if err != nil {
			return "", false, fmt.Errorf("failed to update channel: %w", err)
		}
		return id, false, nil
	}
	if err != sql.ErrNoRows {
		return "", false, fmt.Errorf("failed to check existing channel: %w", err)
	}

	id = uuid.NewString()
	_, err = r.db.Exec(`
		INSERT INTO channels (id, owner_id, name, url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, ownerID, name, url, time.Now().UTC())
	if err != nil {
		return "", false, fmt.Errorf("failed to insert channel: %w", err)
	}

	return id, true, nil
}

func (r *ChannelRepo) GetChannel(id string) (*Channel, error) {
	row := r.db.QueryRow(`
		SELECT id, owner_id, name, url, feed_url, last_checked, created_at
		FROM channels
		WHERE id = ?
	`, id)

	ch, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

func (r *ChannelRepo) GetChannels() ([]Channel, error) {
	rows, err := r.db.Query(`
		SELECT id, owner_id, name, url, feed_url, last_checked, created_at
		FROM channels
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, *ch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}

	return channels, nil
}

func (r *ChannelRepo) GetChannelCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM channels").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get channel count: %w", err)
	}
	return count, nil
}

// UpdateFeedURL persists a resolved feed URL after adapter normalization.
func (r *ChannelRepo) UpdateFeedURL(id, feedURL string) error {
	_, err := r.db.Exec(`
		UPDATE channels SET feed_url = ? WHERE id = ?
	`, feedURL, id)
	if err != nil {
		return fmt.Errorf("failed to update channel feed URL: %w", err)
	}
	return nil
}

func (r *ChannelRepo) UpdateLastChecked(id string, checkedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE channels SET last_checked = ? WHERE id = ?
	`, checkedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update channel last checked: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (*Channel, error) {
	var ch Channel
	var lastChecked sql.NullTime
	err := row.Scan(&ch.ID, &ch.OwnerID, &ch.Name, &ch.URL, &ch.FeedURL, &lastChecked, &ch.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastChecked.Valid {
		ch.LastChecked = &lastChecked.Time
	}
	return &ch, nil
}
