package tracker

// Kind distinguishes step event kinds.
type Kind int

const (
	// KindAdvance reports a train moving from a source berth to a
	// destination berth within one area.
	KindAdvance Kind = iota + 1
	// KindCancel withdraws a previously reported occupancy.
	KindCancel
	// KindHeartbeat is a periodic timestamp-only liveness signal per area.
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindAdvance:
		return "advance"
	case KindCancel:
		return "cancel"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// StepEvent is one decoded feed message. From is empty for interpose
// steps (a train description placed directly into a berth) and for
// heartbeats; To is empty for cancels and heartbeats. At is epoch
// milliseconds from the originating event.
type StepEvent struct {
	Kind Kind
	Area string
	Code string
	From string
	To   string
	At   int64
}
