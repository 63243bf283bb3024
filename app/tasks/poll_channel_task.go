package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/ingest"
)

type PollChannelTask struct {
	Task
	Channel      database.Channel
	engine       *ingest.Engine
	fetchTimeout time.Duration
}

func NewPollChannelTask(ch database.Channel, engine *ingest.Engine, fetchTimeout time.Duration) *PollChannelTask {
	return &PollChannelTask{
		Task:         NewTask(TaskTypePollChannel, ch.Name),
		Channel:      ch,
		engine:       engine,
		fetchTimeout: fetchTimeout,
	}
}

func (t *PollChannelTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, t.fetchTimeout)
	defer cancel()

	if err := t.engine.PollChannel(timeoutCtx, t.Channel); err != nil {
		return fmt.Errorf("poll failed: %w", err)
	}

	slog.Info("Task completed",
		"type", "PollChannel",
		"channel", t.ChannelName,
		"duration", t.GetDuration())

	return nil
}
