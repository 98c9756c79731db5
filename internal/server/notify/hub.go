// Package notify fans out server events (new sales, stock warnings) to
// connected listeners. Publishing never blocks the caller: a listener that
// cannot keep up loses events instead of slowing down the writer.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Event types.
const (
	TypeNewSale         = "new_sale"
	TypeLowStock        = "low_stock"
	TypeInventoryUpdate = "inventory_update"
	TypeStockUpdate     = "stock_update"
)

// Event is one notification pushed to listeners.
type Event struct {
	Type        string           `json:"type"`
	ProductID   int64            `json:"product_id,omitempty"`
	ProductName string           `json:"product_name,omitempty"`
	Quantity    int              `json:"quantity,omitempty"`
	Stock       int              `json:"stock"`
	Total       *decimal.Decimal `json:"total,omitempty"`
	SaleID      int64            `json:"sale_id,omitempty"`
	Message     string           `json:"message,omitempty"`
	At          time.Time        `json:"at"`
}

const DefaultBuffer = 32

type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	next    uint64
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// NewHub returns a hub whose listeners each buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[uint64]chan Event), buffer: buffer}
}

// Subscribe registers a listener. The returned function unregisters it and
// closes the channel; calling it more than once is safe. After Close the
// returned channel is already closed.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.next
	h.next++
	h.subs[id] = ch

	return ch, func() { h.remove(id) }
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers e to every listener with room in its buffer.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a listener was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every listener. Later publishes are no-ops.
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
