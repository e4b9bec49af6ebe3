package component

// Notifier wakes a worker routine when new work arrived. Notifications are
// coalesced: any number of Notify calls before the worker reads the channel
// result in a single wake-up. Copies share state, like a channel.
type Notifier struct {
	notifier chan struct{}
}

func NewNotifier() Notifier {
	return Notifier{make(chan struct{}, 1)}
}

// Notify never blocks.
func (n Notifier) Notify() {
	select {
	case n.notifier <- struct{}{}:
	default:
	}
}

func (n Notifier) Channel() <-chan struct{} {
	return n.notifier
}
