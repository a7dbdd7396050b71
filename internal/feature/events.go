package feature

import "time"

// Event hub channels.
const (
	ChannelEnabled    = "feature.enabled"
	ChannelDisabled   = "feature.disabled"
	ChannelJobChanged = "feature.job_changed"
	ChannelStepFailed = "feature.step_failed"
	ChannelFault      = "feature.fault"
)

// Event is the payload broadcast on the feature channels.
type Event struct {
	Key   string    `json:"key"`
	Name  string    `json:"name"`
	JobID *uint32   `json:"job_id,omitempty"`
	Step  string    `json:"step,omitempty"`
	Error string    `json:"error,omitempty"`
	Time  time.Time `json:"time"`
}

// Broadcaster publishes events to interested clients. The API event hub
// implements it.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(string, any) {}
