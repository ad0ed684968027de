package engine

// EventKind tags engine events published to the host.
type EventKind string

const (
	EventSweepCompleted EventKind = "sweep_completed"
	EventPointsAwarded  EventKind = "points_awarded"
)

// Event is a fire-and-forget signal for downstream bookkeeping. The engine
// never depends on anyone consuming these.
type Event struct {
	Kind      EventKind
	ContactID string      // set for points_awarded
	Points    int         // set for points_awarded
	Stats     *SweepStats // set for sweep_completed
}

// eventBuffer bounds the event channel; publishes to a full buffer are
// dropped rather than blocking the sweep.
const eventBuffer = 16

// Events returns the engine's event stream.
func (e *Engine) Events() <-chan Event {
	return e.events
}

func (e *Engine) publish(ev Event) {
	select {
	case e.events <- ev:
	default:
	}
}
