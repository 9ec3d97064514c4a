package worker

import "time"

// Pool defaults
const (
	DefaultWorkers    = 4
	DefaultQueueSize  = 256
	DefaultJobTimeout = 60 * time.Second
)

// Job names
const (
	JobNameNotification = "calendar_notification"
	JobNameRenewal      = "webhook_renewal"
)

// Log messages
const (
	LogMsgWorkerJobFailed   = "Worker job failed"
	LogMsgWorkerJobPanicked = "Worker job panicked"
	LogMsgWorkerJobDone     = "Worker job completed"
	LogMsgNotificationNoop  = "Notification dropped"
)

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount  = 2
	TestQueueSize    = 10
	TestJobTimeout   = time.Second
	TestWaitDeadline = 2 * time.Second
)
