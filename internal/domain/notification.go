package domain

// ResourceState is the provider's description of a push notification.
type ResourceState string

const (
	// ResourceStateSync is the handshake sent when a channel opens.
	ResourceStateSync      ResourceState = "sync"
	ResourceStateExists    ResourceState = "exists"
	ResourceStateNotExists ResourceState = "not_exists"
)

// Valid reports whether the state is one the engine understands.
func (s ResourceState) Valid() bool {
	switch s {
	case ResourceStateSync, ResourceStateExists, ResourceStateNotExists:
		return true
	}
	return false
}

// Notification is an inbound push notification from the provider.
// It only identifies what changed; details are fetched separately.
type Notification struct {
	ChannelID     string        `json:"channelId"`
	ResourceID    string        `json:"resourceId"`
	ResourceState ResourceState `json:"resourceState"`
	ChannelToken  string        `json:"channelToken,omitempty"`
	MessageNumber string        `json:"messageNumber,omitempty"`
	// EventID is set when the sender identifies the changed event directly.
	EventID string `json:"eventId,omitempty"`
}

// Conflict is a busy interval overlapping a requested window.
type Conflict struct {
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Availability is the answer to a free/busy question.
// A conflict is a normal result, not an error.
type Availability struct {
	Available      bool       `json:"available"`
	Conflicts      []Conflict `json:"conflicts,omitempty"`
	SuggestedTimes []string   `json:"suggestedTimes,omitempty"`
}

// MirrorStatus describes what MirrorTask or UnmirrorTask did.
type MirrorStatus string

const (
	MirrorStatusCreated      MirrorStatus = "created"
	MirrorStatusUpdated      MirrorStatus = "updated"
	MirrorStatusDeleted      MirrorStatus = "deleted"
	MirrorStatusUnchanged    MirrorStatus = "unchanged"
	MirrorStatusSkipped      MirrorStatus = "skipped"
	MirrorStatusNotConnected MirrorStatus = "not_connected"
	MirrorStatusFailed       MirrorStatus = "failed"
)

// MirrorResult reports the outcome of a mirror operation.
// Failures are reported here so the task operation itself can still succeed.
type MirrorResult struct {
	TaskID  string       `json:"task_id"`
	Status  MirrorStatus `json:"status"`
	EventID string       `json:"event_id,omitempty"`
	Warning string       `json:"warning,omitempty"`
	Err     error        `json:"-"`
}

// Degraded reports whether the mirror could not be completed.
func (r MirrorResult) Degraded() bool {
	return r.Status == MirrorStatusFailed || r.Status == MirrorStatusNotConnected
}
