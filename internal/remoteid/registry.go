package remoteid

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of devices tracked at once.
const DefaultCapacity = 8

// stolenSlot is reused when every slot holds another address.
const stolenSlot = 0

// Resolution describes how an address was mapped to a slot.
type Resolution struct {
	// Slot is the index of the record in slot order.
	Slot int

	// Created is true when the address was not already tracked.
	Created bool

	// Evicted holds the previous occupant when Slot was taken over.
	// It is the zero Address otherwise.
	Evicted Address
}

// Stolen reports whether the resolution discarded another device.
func (r Resolution) Stolen() bool {
	return !r.Evicted.IsZero()
}

type slot struct {
	record  DeviceRecord
	pending bool
}

// Registry is a fixed array of device slots keyed by address.
//
// Lookups are a linear scan in slot order. A new address takes the first
// empty slot; when there is none it takes over slot 0, whatever is there.
//
// The all-zero address doubles as the empty-slot marker. An advertisement
// from 00:00:00:00:00:00 therefore resolves to the first empty slot with
// Created false; its update is pending but the slot still counts as empty,
// and the next new address claims it and discards that update.
//
// All public methods are thread-safe. Resolve and Merge are each atomic,
// but callers that share the registry across goroutines must use Ingest so
// that nothing can reuse the slot between the two steps.
type Registry struct {
	mu     sync.Mutex
	slots  []slot
	logger Logger
}

// NewRegistry creates an empty registry with room for capacity devices.
// A capacity below 1 selects DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Registry{
		slots:  make([]slot, capacity),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Capacity returns the number of slots.
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// Resolve maps addr to a slot, claiming or taking over one if necessary.
func (r *Registry) Resolve(addr Address) Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(addr)
}

// Merge records a sighting of the device in slot.
//
// Last-seen time and RSSI are always updated and the record is marked as
// having an unreported update, even when the message repeats known values.
// Only the fields carried by msg change. An out-of-range slot is ignored.
func (r *Registry) Merge(slot int, msg Message, rssi int, ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mergeLocked(slot, msg, rssi, ts)
}

// Ingest resolves addr and merges msg into its slot as one atomic step.
func (r *Registry) Ingest(addr Address, msg Message, rssi int, ts time.Time) Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.resolveLocked(addr)
	r.mergeLocked(res.Slot, msg, rssi, ts)
	return res
}

// Drain passes a copy of every record with an unreported update to emit, in
// slot order, and clears the update marker.
//
// The lock is held only while one slot is copied. The marker is cleared
// before the copy, so a merge that lands while emit runs marks the record
// again for the next drain. Returns the number of records emitted.
func (r *Registry) Drain(emit func(DeviceRecord)) int {
	emitted := 0
	for i := range r.slots {
		r.mu.Lock()
		s := &r.slots[i]
		if !s.pending {
			r.mu.Unlock()
			continue
		}
		s.pending = false
		rec := s.record
		r.mu.Unlock()

		emit(rec)
		emitted++
	}
	return emitted
}

// Snapshot returns copies of all occupied records in slot order without
// touching update markers.
func (r *Registry) Snapshot() []DeviceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]DeviceRecord, 0, len(r.slots))
	for i := range r.slots {
		if !r.slots[i].record.Address.IsZero() {
			records = append(records, r.slots[i].record)
		}
	}
	return records
}

// Lookup returns a copy of the record for addr.
func (r *Registry) Lookup(addr Address) (DeviceRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.findLocked(addr); i >= 0 {
		return r.slots[i].record, true
	}
	return DeviceRecord{}, false
}

// Occupied returns the number of slots holding a device.
func (r *Registry) Occupied() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.slots {
		if !r.slots[i].record.Address.IsZero() {
			n++
		}
	}
	return n
}

func (r *Registry) findLocked(addr Address) int {
	for i := range r.slots {
		if r.slots[i].record.Address == addr {
			return i
		}
	}
	return -1
}

func (r *Registry) resolveLocked(addr Address) Resolution {
	if i := r.findLocked(addr); i >= 0 {
		return Resolution{Slot: i}
	}

	for i := range r.slots {
		if r.slots[i].record.Address.IsZero() {
			r.slots[i] = slot{record: DeviceRecord{Address: addr}}
			return Resolution{Slot: i, Created: true}
		}
	}

	evicted := r.slots[stolenSlot].record.Address
	r.slots[stolenSlot] = slot{record: DeviceRecord{Address: addr}}
	r.logger.Warn("registry full, reusing slot",
		"slot", stolenSlot,
		"evicted", evicted.String(),
		"address", addr.String(),
	)
	return Resolution{Slot: stolenSlot, Created: true, Evicted: evicted}
}

func (r *Registry) mergeLocked(i int, msg Message, rssi int, ts time.Time) {
	if i < 0 || i >= len(r.slots) {
		return
	}
	s := &r.slots[i]
	s.record.LastSeen = ts
	s.record.RSSI = rssi
	s.pending = true
	s.record.apply(msg)
}
