package types

// LeaderEvent is a tag describing why the leader loop woke up.
//
// Events are produced only by the watch adapters and consumed only by the
// leader event loop. They carry no payload: the loop re-reads the relevant
// state (config document, endpoint list) at consumption time, so a stale
// event can never deliver stale data.
type LeaderEvent int

const (
	// EventMembershipChange indicates the set of live workers changed.
	EventMembershipChange LeaderEvent = iota

	// EventConfigChange indicates the connector configuration document
	// was created or modified.
	EventConfigChange

	// EventPause indicates the control document requested a pause.
	EventPause

	// EventResume indicates the control document cleared the pause flag.
	EventResume

	// EventFatalError indicates a watch subscription failed. The leader
	// loop terminates when it consumes this event.
	EventFatalError
)

// String returns the string representation of the event.
func (e LeaderEvent) String() string {
	switch e {
	case EventMembershipChange:
		return "MembershipChange"
	case EventConfigChange:
		return "ConfigChange"
	case EventPause:
		return "Pause"
	case EventResume:
		return "Resume"
	case EventFatalError:
		return "FatalError"
	default:
		return "Unknown"
	}
}
