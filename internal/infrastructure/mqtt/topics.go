package mqtt

import "fmt"

// Topic prefixes.
const (
	// TopicPrefixHost is the base for everything exchanged with the
	// game-client adapter.
	TopicPrefixHost = "tickpilot/host"

	// TopicPrefixSystem is the base for TickPilot's own status topics.
	TopicPrefixSystem = "tickpilot/system"
)

// Command kinds published under HostCommand.
const (
	CommandSelect  = "select"
	CommandConfirm = "confirm"
)

// Topics provides builders for TickPilot MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.HostCommand(mqtt.CommandSelect) // "tickpilot/host/command/select"
type Topics struct{}

// HostSnapshot is where the adapter publishes its retained UI snapshot.
func (Topics) HostSnapshot() string {
	return TopicPrefixHost + "/snapshot"
}

// HostTick carries one message per host frame when the engine is driven by
// host ticks instead of a local ticker.
func (Topics) HostTick() string {
	return TopicPrefixHost + "/tick"
}

// HostCommand returns the topic for a simulated-input command of the given kind.
//
// Example: tickpilot/host/command/select
func (Topics) HostCommand(kind string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefixHost, kind)
}

// AllHostCommands matches every command kind. Used by the adapter and tests.
func (Topics) AllHostCommands() string {
	return TopicPrefixHost + "/command/+"
}

// HostChat carries feature-attributed messages for the in-game chat log.
func (Topics) HostChat() string {
	return TopicPrefixHost + "/chat"
}

// SystemStatus carries TickPilot's online/offline status (retained, LWT).
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
