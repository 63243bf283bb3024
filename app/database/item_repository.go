package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemRepo handles database operations for channel items
type ItemRepo struct {
	db *DB
}

var _ ItemRepository = (*ItemRepo)(nil)

func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// InsertItem stores a discovered item, ignoring the insert when the
// (channel_id, source_id) pair is already known. Returns whether a new row
// was actually created, which is the dedup signal the ingestion engine
// keys notifications off.
func (r *ItemRepo) InsertItem(channelID string, item ChannelItem) (bool, error) {
	res, err := r.db.Exec(`
		INSERT INTO items (
			id, channel_id, source_id, title, link, published_at,
			thumbnail, content, summary, content_kind, notified, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', ?, ?, ?)
		ON CONFLICT (channel_id, source_id) DO NOTHING
	`, uuid.NewString(), channelID, item.SourceID, item.Title, item.Link,
		nullableTime(item.PublishedAt), item.Thumbnail, item.Content,
		item.ContentKind, item.Notified, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *ItemRepo) GetItem(id string) (*Item, error) {
	return r.getItem(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
}

func (r *ItemRepo) GetItemBySourceID(channelID, sourceID string) (*Item, error) {
	return r.getItem(`SELECT `+itemColumns+` FROM items WHERE channel_id = ? AND source_id = ?`, channelID, sourceID)
}

func (r *ItemRepo) GetItemByLink(link string) (*Item, error) {
	return r.getItem(`SELECT `+itemColumns+` FROM items WHERE link = ? LIMIT 1`, link)
}

// GetItemByLinkPrefix resolves an item whose stored link starts with the
// given prefix. Covers query-string drift between the link embedded in a
// notification and the link stored at ingestion time.
func (r *ItemRepo) GetItemByLinkPrefix(prefix string) (*Item, error) {
	return r.getItem(`SELECT `+itemColumns+` FROM items WHERE link LIKE ? || '%' ORDER BY created_at DESC LIMIT 1`, prefix)
}

func (r *ItemRepo) GetItems(channelID string, limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE channel_id = ?
		ORDER BY COALESCE(published_at, created_at) DESC
		LIMIT ?
	`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func (r *ItemRepo) GetItemCount(channelID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM items WHERE channel_id = ?", channelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func (r *ItemRepo) UpdateContent(itemID, content string) error {
	_, err := r.db.Exec(`UPDATE items SET content = ? WHERE id = ?`, content, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item content: %w", err)
	}
	return nil
}

func (r *ItemRepo) UpdateSummary(itemID, summary string) error {
	_, err := r.db.Exec(`UPDATE items SET summary = ? WHERE id = ?`, summary, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item summary: %w", err)
	}
	return nil
}

// MarkNotified flips the notified flag. The flag never transitions back.
func (r *ItemRepo) MarkNotified(itemID string) error {
	_, err := r.db.Exec(`UPDATE items SET notified = 1 WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to mark item notified: %w", err)
	}
	return nil
}

const itemColumns = `id, channel_id, source_id, title, link, published_at,
	thumbnail, content, summary, content_kind, notified, created_at`

func (r *ItemRepo) getItem(query string, args ...any) (*Item, error) {
	item, err := scanItem(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var publishedAt sql.NullTime
	err := row.Scan(
		&item.ID, &item.ChannelID, &item.SourceID, &item.Title, &item.Link,
		&publishedAt, &item.Thumbnail, &item.Content, &item.Summary,
		&item.ContentKind, &item.Notified, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		item.PublishedAt = &publishedAt.Time
	}
	return &item, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
