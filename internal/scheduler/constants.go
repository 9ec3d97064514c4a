package scheduler

// Log messages
const (
	LogMsgJobScheduled   = "Job scheduled"
	LogMsgEnqueueSkipped = "Scheduled job not enqueued"
	LogMsgStopTimeout    = "Scheduler stop timed out"
)
