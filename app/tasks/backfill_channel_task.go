package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/ingest"
)

// BackfillChannelTask seeds a freshly registered channel with its recent
// history, marked as already notified so no messages go out for old items.
type BackfillChannelTask struct {
	Task
	Channel      database.Channel
	engine       *ingest.Engine
	fetchTimeout time.Duration
}

func NewBackfillChannelTask(ch database.Channel, engine *ingest.Engine, fetchTimeout time.Duration) *BackfillChannelTask {
	return &BackfillChannelTask{
		Task:         NewTask(TaskTypeBackfillChannel, ch.Name),
		Channel:      ch,
		engine:       engine,
		fetchTimeout: fetchTimeout,
	}
}

func (t *BackfillChannelTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, t.fetchTimeout)
	defer cancel()

	if err := t.engine.Backfill(timeoutCtx, t.Channel); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	slog.Info("Task completed",
		"type", "BackfillChannel",
		"channel", t.ChannelName,
		"duration", t.GetDuration())

	return nil
}
