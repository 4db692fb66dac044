package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/tabflow/dag"
	"github.com/kbukum/tabflow/logger"
	"github.com/kbukum/tabflow/scheduler"
)

// Stream event names.
const (
	EventConnected = "connected"
	EventStatus    = "status"
	EventFailure   = "failure"
	EventRun       = "run"
)

const (
	subscriberBuffer = 256
	keepAliveEvery   = 30 * time.Second
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data any
}

// StatusPayload is the data of a status event.
type StatusPayload struct {
	Node   int        `json:"node"`
	Status dag.Status `json:"status"`
}

// FailurePayload is the data of a failure event.
type FailurePayload struct {
	Node  int             `json:"node"`
	Fault scheduler.Fault `json:"fault"`
}

type subscriber struct {
	id     string
	events chan Event
}

// EventHub is a scheduler.Listener that fans run events out to stream
// subscribers. Publishing never blocks: a subscriber whose buffer is full
// misses the event.
type EventHub struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	closed bool
	log    *logger.Logger
}

// NewEventHub creates a hub with no subscribers.
func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[string]*subscriber),
		log:  logger.WithComponent("events"),
	}
}

// Subscribe registers a subscriber under id. The returned cancel
// unregisters it; the channel is closed on cancel or Close.
func (h *EventHub) Subscribe(id string) (<-chan Event, func()) {
	sub := &subscriber{id: id, events: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.events)
		return sub.events, func() {}
	}
	if old, ok := h.subs[id]; ok {
		close(old.events)
	}
	h.subs[id] = sub
	count := len(h.subs)
	h.mu.Unlock()

	h.log.Debug("subscriber registered", logger.Fields("subscriber", id, "subscribers", count))
	return sub.events, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if cur, ok := h.subs[id]; ok && cur == sub {
			delete(h.subs, id)
			close(sub.events)
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later publishes are dropped.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.events)
		delete(h.subs, id)
	}
}

func (h *EventHub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			h.log.Warn("subscriber buffer full, dropping event",
				logger.Fields("subscriber", sub.id, "event", ev.Name))
		}
	}
}

func (h *EventHub) StatusChanged(nodeID int, status dag.Status) {
	h.publish(Event{Name: EventStatus, Data: StatusPayload{Node: nodeID, Status: status}})
}

func (h *EventHub) NodeFailed(nodeID int, fault scheduler.Fault) {
	h.publish(Event{Name: EventFailure, Data: FailurePayload{Node: nodeID, Fault: fault}})
}

func (h *EventHub) RunCompleted(summary scheduler.RunSummary) {
	h.publish(Event{Name: EventRun, Data: summary})
}

// streamEvents serves GET /run/events as a text/event-stream until the
// client goes away or the hub closes.
func (s *Server) streamEvents(c *gin.Context) {
	id := c.GetHeader(HeaderRequestID)
	events, cancel := s.pipeline.Events.Subscribe(id)
	defer cancel()

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent(EventConnected, gin.H{"subscriber": id})
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(ev.Name, ev.Data)
			c.Writer.Flush()
		case <-ticker.C:
			if _, err := c.Writer.WriteString(": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
