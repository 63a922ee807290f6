package session

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/treefix50/playhead/internal/log"
	"github.com/treefix50/playhead/internal/media"
	"github.com/treefix50/playhead/internal/user"
)

// EventType identifies a playback lifecycle event.
type EventType string

const (
	EventPlaybackStart    EventType = "playback.start"
	EventPlaybackProgress EventType = "playback.progress"
	EventPlaybackStopped  EventType = "playback.stopped"
)

// Event is the payload delivered to subscribers.
type Event struct {
	Type          EventType
	Item          *media.Item
	User          *user.User // nil for anonymous sessions
	PositionTicks *int64
	SessionID     string
}

// Subscriber receives playback lifecycle events.
type Subscriber interface {
	HandlePlaybackEvent(Event) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Event) error

func (f SubscriberFunc) HandlePlaybackEvent(ev Event) error { return f(ev) }

// Notifier fans playback events out to registered subscribers. Delivery is
// synchronous and sequential; a failing or panicking subscriber is logged
// and skipped without affecting the others or the triggering operation.
type Notifier struct {
	mu     sync.RWMutex
	subs   []Subscriber
	logger zerolog.Logger
}

// NewNotifier creates a notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{logger: log.WithComponent("events")}
}

// Subscribe registers a subscriber for all subsequent events.
func (n *Notifier) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, sub)
}

// Notify delivers the event to every registered subscriber before
// returning. Failures are per-subscriber and never propagate.
func (n *Notifier) Notify(ev Event) {
	n.mu.RLock()
	subs := make([]Subscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for i, sub := range subs {
		if err := n.deliver(sub, ev); err != nil {
			subscriberFailuresTotal.Inc()
			n.logger.Warn().
				Err(err).
				Str("event", string(ev.Type)).
				Int("subscriber", i).
				Msg("event subscriber failed")
		}
	}
}

func (n *Notifier) deliver(sub Subscriber, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return sub.HandlePlaybackEvent(ev)
}
