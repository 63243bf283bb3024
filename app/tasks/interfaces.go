package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the HTTP API to manage background work.
// Example usage:
//
//	scheduler := NewScheduler(channelRepo, engine)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewBackfillChannelTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueFullCycle() error
}
