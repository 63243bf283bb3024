package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/ingest"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	channelRepo  database.ChannelRepository
	engine       *ingest.Engine
	interval     time.Duration
	startupDelay time.Duration
	fetchTimeout time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
	cycleRunning atomic.Int64
}

func NewScheduler(channelRepo database.ChannelRepository, engine *ingest.Engine,
	interval, startupDelay, fetchTimeout time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		channelRepo:  channelRepo,
		engine:       engine,
		interval:     interval,
		startupDelay: startupDelay,
		fetchTimeout: fetchTimeout,
		workerCount:  workerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.startupDelay):
		}

		if err := s.EnqueueFullCycle(); err != nil {
			slog.Warn("Failed to enqueue startup poll cycle", "error", err)
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if err := s.EnqueueFullCycle(); err != nil {
					slog.Warn("Failed to enqueue poll cycle", "error", err)
				}
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueFullCycle queues a PollChannelTask for every registered channel.
// A cycle still draining from the queue is not stacked on: the call is a
// no-op until the previous batch has been executed.
func (s *Scheduler) EnqueueFullCycle() error {
	if s.cycleRunning.Load() > 0 {
		slog.Debug("Previous poll cycle still running, skipping")
		return nil
	}

	channels, err := s.channelRepo.GetChannels()
	if err != nil {
		return fmt.Errorf("failed to load channels: %w", err)
	}
	if len(channels) == 0 {
		slog.Debug("No channels registered")
		return nil
	}

	slog.Debug("Scheduling poll cycle", "count", len(channels))

	for _, ch := range channels {
		task := NewPollChannelTask(ch, s.engine, s.fetchTimeout)
		// Count before handing the task to a worker so a fast execution
		// cannot decrement first and dip the counter negative.
		s.cycleRunning.Add(1)
		if err := s.EnqueueTask(task); err != nil {
			s.cycleRunning.Add(-1)
			slog.Warn("Failed to enqueue PollChannelTask", "channel", ch.Name, "error", err)
		}
	}

	return nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	if task.GetType() == TaskTypePollChannel {
		defer s.cycleRunning.Add(-1)
	}

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed",
			"worker_id", workerID,
			"type", string(task.GetType()),
			"id", task.GetID(),
			"channel", task.GetChannelName(),
			"error", err)
	}
}
