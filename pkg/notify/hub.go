package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBuffer  = 32
	defaultHistory = 20
)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets the per-subscriber channel size.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithHistory bounds how many recent toasts Active considers.
func WithHistory(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.history = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithNow overrides the clock used by Active.
func WithNow(now func() time.Time) HubOption {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// Hub fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	buffer  int
	history int
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	recent []Notification
	closed bool
}

var _ Notifier = (*Hub)(nil)

// NewHub returns an empty hub.
func NewHub(options ...HubOption) *Hub {
	h := &Hub{
		buffer:  defaultBuffer,
		history: defaultHistory,
		logger:  zap.NewNop(),
		now:     time.Now,
		subs:    make(map[int]chan Event),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h
}

// Subscribe registers a listener. The returned func unsubscribes and closes
// the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers ev to every subscriber.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("notify: subscriber buffer full, event dropped",
				zap.Int("subscriber", id),
				zap.String("event", string(ev.Type)))
		}
	}
}

// Notify records the toast and publishes it as an EventToast.
func (h *Hub) Notify(n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = h.now()
	}
	h.mu.Lock()
	h.recent = append(h.recent, n)
	if len(h.recent) > h.history {
		h.recent = append([]Notification(nil), h.recent[len(h.recent)-h.history:]...)
	}
	h.mu.Unlock()

	h.logger.Info("notification",
		zap.String("kind", string(n.Kind)),
		zap.String("title", n.Title),
		zap.String("description", n.Description),
		zap.String("question_id", n.QuestionID))

	toast := n
	h.Publish(Event{Type: EventToast, QuestionID: n.QuestionID, Notification: &toast})
}

// Active returns the toasts that have not yet auto-dismissed, oldest first.
func (h *Hub) Active() []Notification {
	now := h.now()

	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Notification
	for _, n := range h.recent {
		if !n.Expired(now) {
			out = append(out, n)
		}
	}
	return out
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
