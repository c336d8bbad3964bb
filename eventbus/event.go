package eventbus

import (
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

type EventType uint8

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return strconv.Itoa(int(t))
}

type Event interface {
	GetEventType() EventType
}

type EventHandler interface {
	HandlerDescription(EventType) string
	HandleEvent(Event)
	Name() string
}

// Router is what components publish into.
type Router interface {
	Route(ev Event)
}

type EventHandlerRegisterInfo struct {
	Type    EventType
	Name    string
	Handler EventHandler
}

type DefaultEventBus struct {
	ID         int
	knownNames map[EventType]string
	listeners  map[EventType][]EventHandler
	inited     bool       // listeners are read-only once built
	mu         sync.Mutex // registration only
}

func (e *DefaultEventBus) InitDefault() {
	e.listeners = make(map[EventType][]EventHandler)
	e.knownNames = make(map[EventType]string)
}

func (e *DefaultEventBus) ListenTo(regInfo EventHandlerRegisterInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inited {
		panic("bad code. register handlers before building eventbus")
	}
	e.listeners[regInfo.Type] = append(e.listeners[regInfo.Type], regInfo.Handler)
	e.knownNames[regInfo.Type] = regInfo.Name
}

// ListenToAll registers handler for every known event type.
func (e *DefaultEventBus) ListenToAll(handler EventHandler) {
	for t, name := range eventTypeNames {
		e.ListenTo(EventHandlerRegisterInfo{Type: t, Name: name, Handler: handler})
	}
}

// Build marks the bus ready. Routing before Build is a programming error.
func (e *DefaultEventBus) Build() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inited = true
}

func (e *DefaultEventBus) Route(ev Event) {
	if !e.inited {
		panic("bad code. build eventbus before routing")
	}
	name, ok := e.knownNames[ev.GetEventType()]
	if !ok {
		name = ev.GetEventType().String()
	}
	handlers, ok := e.listeners[ev.GetEventType()]
	if !ok {
		logrus.WithField("me", e.ID).WithField("type", name).Trace("no event handler to handle event type")
		return
	}
	for _, handler := range handlers {
		logrus.WithFields(logrus.Fields{
			"me":      e.ID,
			"handler": handler.Name(),
			"desc":    handler.HandlerDescription(ev.GetEventType()),
		}).Trace("handling")
		handler.HandleEvent(ev)
	}
	logrus.WithField("me", e.ID).WithField("type", name).WithField("v", ev).Debug("router handled event")
}

// HandlerFunc adapts a function into an EventHandler.
type HandlerFunc struct {
	HandlerName string
	Fn          func(Event)
}

func (h *HandlerFunc) HandlerDescription(t EventType) string {
	return h.HandlerName + " handles " + t.String()
}

func (h *HandlerFunc) HandleEvent(ev Event) {
	h.Fn(ev)
}

func (h *HandlerFunc) Name() string {
	return h.HandlerName
}
