package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/HSouheill/carrental_backend/models"
)

// Event types written to streams.
const (
	EventConnected       = "connected"
	EventNotificationNew = "notification:new"
)

// Event is the JSON payload of one stream frame.
type Event struct {
	Type         string               `json:"type"`
	Message      string               `json:"message,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// Target selects subscribers by user id, role, or both. A subscriber matching
// either receives the event once.
type Target struct {
	UserID string      `json:"userId,omitempty"`
	Role   models.Role `json:"role,omitempty"`
}

func (t Target) matches(s *Subscriber) bool {
	if t.UserID != "" && s.userID == t.UserID {
		return true
	}
	return t.Role != "" && models.NormalizeRole(string(t.Role)) == s.role
}

// Outcome of a publish.
type Outcome string

const (
	Delivered        Outcome = "delivered"
	NoLiveConnection Outcome = "no_live_connection"
	PushFailed       Outcome = "push_failed"
)

// DeliveryResult reports what a publish reached on this instance.
type DeliveryResult struct {
	Outcome   Outcome
	Delivered int
	Failed    int
}

// Relay forwards published events to other instances.
type Relay interface {
	Relay(ctx context.Context, target Target, event Event) error
}

const defaultBuffer = 16

// Hub is the in-process registry of open streams. Pushes never block: every
// subscriber has a buffered queue and a subscriber whose queue is full is
// dropped so the client reconnects and re-fetches.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscriber
	nextID uint64
	buffer int
	relay  Relay
	closed bool
	logger *zap.Logger
}

type Option func(*Hub)

// WithBuffer sets the per-subscriber queue length.
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		subs:   make(map[uint64]*Subscriber),
		buffer: defaultBuffer,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetRelay installs the cross-instance relay. Call before serving traffic.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
}

// Register adds a subscriber for the identity in the connecting state. After
// Close it returns a subscriber that is already closed.
func (h *Hub) Register(identity models.Identity) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Subscriber{
		id:     h.nextID,
		userID: identity.ID(),
		role:   identity.Role(),
		send:   make(chan []byte, h.buffer),
		done:   make(chan struct{}),
	}
	if h.closed {
		s.close()
		return s
	}
	h.subs[s.id] = s
	openStreams.Inc()
	return s
}

// Unregister removes the subscriber and closes it. Safe to call twice.
func (h *Hub) Unregister(s *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	h.mu.Unlock()

	if ok {
		openStreams.Dec()
	}
	s.close()
}

// Close ends every open stream and refuses new ones. Call it before shutting
// the HTTP server down, which does not cancel hijacked or streaming requests.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscriber, 0, len(h.subs))
	for id, s := range h.subs {
		subs = append(subs, s)
		delete(h.subs, id)
	}
	h.mu.Unlock()

	for _, s := range subs {
		openStreams.Dec()
		s.close()
	}
	if len(subs) > 0 {
		h.logger.Info("Closed realtime streams", zap.Int("count", len(subs)))
	}
}

// Publish delivers the event to matching local subscribers and hands it to the
// relay, if any. The result only covers this instance.
func (h *Hub) Publish(ctx context.Context, target Target, event Event) DeliveryResult {
	res := h.Deliver(target, event)

	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay != nil {
		if err := relay.Relay(ctx, target, event); err != nil {
			h.logger.Warn("Failed to relay realtime event",
				zap.String("type", event.Type),
				zap.Error(err),
			)
		}
	}
	return res
}

// Deliver pushes to local subscribers only.
func (h *Hub) Deliver(target Target, event Event) DeliveryResult {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode realtime event", zap.String("type", event.Type), zap.Error(err))
		pushTotal.WithLabelValues(string(PushFailed)).Inc()
		return DeliveryResult{Outcome: PushFailed}
	}

	h.mu.RLock()
	matched := make([]*Subscriber, 0, 4)
	for _, s := range h.subs {
		if target.matches(s) {
			matched = append(matched, s)
		}
	}
	h.mu.RUnlock()

	var res DeliveryResult
	var slow []*Subscriber
	for _, s := range matched {
		if s.push(payload) {
			res.Delivered++
			continue
		}
		res.Failed++
		slow = append(slow, s)
	}
	for _, s := range slow {
		h.logger.Warn("Dropping slow realtime subscriber", zap.String("user_id", s.userID))
		h.Unregister(s)
	}

	switch {
	case len(matched) == 0:
		res.Outcome = NoLiveConnection
	case res.Delivered > 0:
		res.Outcome = Delivered
	default:
		res.Outcome = PushFailed
	}
	pushTotal.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// CountUser returns the number of subscribers owned by a user.
func (h *Hub) CountUser(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.subs {
		if s.userID == userID {
			n++
		}
	}
	return n
}

// State of a stream registration.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Subscriber is one open stream. The send queue is never closed; writers
// select on Done to stop.
type Subscriber struct {
	id     uint64
	userID string
	role   models.Role
	send   chan []byte
	done   chan struct{}
	state  atomic.Int32
	once   sync.Once
}

func (s *Subscriber) UserID() string        { return s.userID }
func (s *Subscriber) Role() models.Role     { return s.role }
func (s *Subscriber) Send() <-chan []byte   { return s.send }
func (s *Subscriber) Done() <-chan struct{} { return s.done }
func (s *Subscriber) State() State          { return State(s.state.Load()) }

// Open marks the handshake as complete. It has no effect once closed.
func (s *Subscriber) Open() {
	s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

func (s *Subscriber) push(payload []byte) bool {
	if s.State() == StateClosed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
	})
}
