package player

// Notification is an update published to subscribers.
// It is one of StateChanged, ProgressUpdated, Finished or Failed.
type Notification interface {
	notification()
}

// StateChanged reports the phase after a transition.
type StateChanged struct {
	Phase Phase
}

// ProgressUpdated reports a position update for a track of known length.
type ProgressUpdated struct {
	ProgressSnapshot
}

// Finished reports that the current track will not play any further,
// either because it ended, failed to load or stalled while loading.
type Finished struct{}

// Failed reports an error the caller cannot recover from by retrying a command.
type Failed struct {
	Err error
}

func (StateChanged) notification()    {}
func (ProgressUpdated) notification() {}
func (Finished) notification()        {}
func (Failed) notification()          {}

// notifier delivers notifications in emission order without ever blocking the emitter.
type notifier struct {
	in  chan Notification
	out chan Notification
}

func newNotifier() *notifier {
	n := &notifier{
		in:  make(chan Notification),
		out: make(chan Notification),
	}
	go n.pump()
	return n
}

func (n *notifier) pump() {
	defer close(n.out)

	var queue []Notification
	in := n.in
	for in != nil || len(queue) > 0 {
		var (
			out  chan Notification
			next Notification
		)
		if len(queue) > 0 {
			out = n.out
			next = queue[0]
		}

		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, v)
		case out <- next:
			queue[0] = nil
			queue = queue[1:]
		}
	}
}

func (n *notifier) emit(v Notification) {
	n.in <- v
}

func (n *notifier) close() {
	close(n.in)
}
