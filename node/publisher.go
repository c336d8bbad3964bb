package node

import (
	"fmt"
	"time"

	"github.com/annchain/gcache"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/annchain/schain-manager/eventbus"
)

const (
	complaintErrorCacheSize = 1024
	complaintErrorQuiet     = time.Minute
)

// EventLogger logs every routed event and counts them per type. Repeated
// ComplaintError events for the same accusation are logged once a minute.
type EventLogger struct {
	seen   gcache.Cache
	counts map[eventbus.EventType]*atomic.Uint64
}

func NewEventLogger() *EventLogger {
	l := &EventLogger{
		seen:   gcache.New(complaintErrorCacheSize).LRU().Expiration(complaintErrorQuiet).Build(),
		counts: make(map[eventbus.EventType]*atomic.Uint64),
	}
	for t := eventbus.EventComplaintError; t <= eventbus.EventNodeLeft; t++ {
		l.counts[t] = atomic.NewUint64(0)
	}
	return l
}

func (l *EventLogger) Name() string {
	return "EventLogger"
}

func (l *EventLogger) HandlerDescription(t eventbus.EventType) string {
	return "log " + t.String()
}

func (l *EventLogger) HandleEvent(ev eventbus.Event) {
	if c, ok := l.counts[ev.GetEventType()]; ok {
		c.Inc()
	}
	entry := logrus.WithField("event", ev.GetEventType().String())
	switch e := ev.(type) {
	case *eventbus.ComplaintErrorEvent:
		key := fmt.Sprintf("%s/%d/%d/%s", e.Group.Hex(), e.From, e.To, e.Reason)
		if _, err := l.seen.GetIFPresent(key); err == nil {
			return
		}
		_ = l.seen.Set(key, struct{}{})
		entry.WithField("group", e.Group.TerminalString()).WithField("reason", e.Reason).Info("complaint error")
	case *eventbus.BadGuyEvent:
		entry.WithField("group", e.Group.TerminalString()).WithField("node", e.Node).Warn("bad guy")
	case *eventbus.NodeRotatedEvent:
		entry.WithField("group", e.Group.TerminalString()).WithField("leaving", e.Leaving).
			WithField("new", e.New).WithField("position", e.Position).Info("node rotated")
	default:
		entry.WithField("v", ev).Debug("event")
	}
}

// Counts returns how many events of each type were seen.
func (l *EventLogger) Counts() map[string]uint64 {
	out := make(map[string]uint64, len(l.counts))
	for t, c := range l.counts {
		out[t.String()] = c.Load()
	}
	return out
}
