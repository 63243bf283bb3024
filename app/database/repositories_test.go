package database

import (
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestUpsertChannel(t *testing.T) {
	db := newTestDB(t)
	repo := NewChannelRepository(db)

	id, created, err := repo.UpsertChannel("owner-1", "Test Channel", "https://example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !created {
		t.Error("Expected first upsert to create the channel")
	}
	if id == "" {
		t.Error("Expected non-empty channel id")
	}

	id2, created2, err := repo.UpsertChannel("owner-1", "Renamed Channel", "https://example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if created2 {
		t.Error("Expected second upsert to not create a new channel")
	}
	if id2 != id {
		t.Errorf("Expected same channel id, got %s and %s", id, id2)
	}

	ch, err := repo.GetChannel(id)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if ch == nil {
		t.Fatal("Expected channel to exist")
	}
	if ch.Name != "Renamed Channel" {
		t.Errorf("Expected name to be updated, got: %s", ch.Name)
	}

	// Same URL under a different owner is a distinct channel
	_, created3, err := repo.UpsertChannel("owner-2", "Other", "https://example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !created3 {
		t.Error("Expected channel creation for a different owner")
	}
}

func TestUpdateLastChecked(t *testing.T) {
	db := newTestDB(t)
	repo := NewChannelRepository(db)

	id, _, err := repo.UpsertChannel("owner-1", "Test", "https://example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ch, _ := repo.GetChannel(id)
	if ch.LastChecked != nil {
		t.Error("Expected last checked to be unset for a new channel")
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdateLastChecked(id, now); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	ch, _ = repo.GetChannel(id)
	if ch.LastChecked == nil {
		t.Fatal("Expected last checked to be set")
	}
	if !ch.LastChecked.Equal(now) {
		t.Errorf("Expected last checked %v, got %v", now, ch.LastChecked)
	}
}

func TestInsertItemDeduplication(t *testing.T) {
	db := newTestDB(t)
	channelRepo := NewChannelRepository(db)
	itemRepo := NewItemRepository(db)

	channelID, _, err := channelRepo.UpsertChannel("owner-1", "Test", "https://example.com/feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	item := ChannelItem{
		SourceID:    "abc123",
		Title:       "First Item",
		Link:        "https://example.com/item1",
		ContentKind: "longform",
	}

	inserted, err := itemRepo.InsertItem(channelID, item)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !inserted {
		t.Error("Expected first insert to create a row")
	}

	// Same (channel, source id) again is silently ignored
	item.Title = "Changed Title"
	inserted, err = itemRepo.InsertItem(channelID, item)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if inserted {
		t.Error("Expected duplicate insert to be a no-op")
	}

	count, err := itemRepo.GetItemCount(channelID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 item, got %d", count)
	}

	stored, err := itemRepo.GetItemBySourceID(channelID, "abc123")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stored.Title != "First Item" {
		t.Errorf("Expected original title to survive, got: %s", stored.Title)
	}
	if stored.Notified {
		t.Error("Expected new item to start unnotified")
	}
}

func TestGetItemByLink(t *testing.T) {
	db := newTestDB(t)
	channelRepo := NewChannelRepository(db)
	itemRepo := NewItemRepository(db)

	channelID, _, _ := channelRepo.UpsertChannel("owner-1", "Test", "https://example.com/feed")

	_, err := itemRepo.InsertItem(channelID, ChannelItem{
		SourceID:    "vid1",
		Title:       "Video",
		Link:        "https://www.youtube.com/watch?v=vid1&feature=share",
		ContentKind: "longform",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	exact, err := itemRepo.GetItemByLink("https://www.youtube.com/watch?v=vid1&feature=share")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if exact == nil {
		t.Fatal("Expected exact link match")
	}

	missing, err := itemRepo.GetItemByLink("https://www.youtube.com/watch?v=vid1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if missing != nil {
		t.Error("Expected no exact match for truncated link")
	}

	prefix, err := itemRepo.GetItemByLinkPrefix("https://www.youtube.com/watch?v=vid1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if prefix == nil {
		t.Fatal("Expected prefix link match")
	}
	if prefix.SourceID != "vid1" {
		t.Errorf("Expected source id 'vid1', got: %s", prefix.SourceID)
	}
}

func TestMarkNotified(t *testing.T) {
	db := newTestDB(t)
	channelRepo := NewChannelRepository(db)
	itemRepo := NewItemRepository(db)

	channelID, _, _ := channelRepo.UpsertChannel("owner-1", "Test", "https://example.com/feed")
	_, err := itemRepo.InsertItem(channelID, ChannelItem{SourceID: "x", ContentKind: "longform"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	item, _ := itemRepo.GetItemBySourceID(channelID, "x")
	if err := itemRepo.MarkNotified(item.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	item, _ = itemRepo.GetItemBySourceID(channelID, "x")
	if !item.Notified {
		t.Error("Expected item to be notified")
	}
}

func TestAccountConfigUpsertChatID(t *testing.T) {
	db := newTestDB(t)
	repo := NewAccountConfigRepository(db)

	cfg, err := repo.GetConfig("owner-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg != nil {
		t.Fatal("Expected no config for unknown owner")
	}

	if err := repo.UpsertChatID("owner-1", "12345"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cfg, err = repo.GetConfig("owner-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected config to be created")
	}
	if cfg.ChatID != "12345" {
		t.Errorf("Expected chat id '12345', got: %s", cfg.ChatID)
	}
	if cfg.BotToken != "" {
		t.Errorf("Expected empty bot token, got: %s", cfg.BotToken)
	}

	// Re-linking overwrites the chat id only
	if err := repo.UpsertChatID("owner-1", "67890"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	cfg, _ = repo.GetConfig("owner-1")
	if cfg.ChatID != "67890" {
		t.Errorf("Expected chat id '67890', got: %s", cfg.ChatID)
	}
}
