package protocol

// DefaultDedupCapacity bounds how many envelope keys a participant remembers.
// Relays redeliver on reconnect, so duplicates cluster close together; a few
// hundred keys covers several full games.
const DefaultDedupCapacity = 256

// Deduper remembers recently seen envelopes by their (type, timestamp) key.
// Once at capacity it forgets the oldest key for each new one.
type Deduper struct {
	capacity int
	seen     map[string]struct{}
	ring     []string
	next     int
}

// NewDeduper returns a Deduper holding at most capacity keys. A capacity
// below one falls back to DefaultDedupCapacity.
func NewDeduper(capacity int) *Deduper {
	if capacity < 1 {
		capacity = DefaultDedupCapacity
	}
	return &Deduper{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
		ring:     make([]string, 0, capacity),
	}
}

// Seen records the envelope's key and reports whether it was already present.
// The first delivery returns false, every redelivery true.
func (d *Deduper) Seen(e *Envelope) bool {
	key := e.DedupKey()
	if _, ok := d.seen[key]; ok {
		return true
	}
	if len(d.ring) < d.capacity {
		d.ring = append(d.ring, key)
	} else {
		delete(d.seen, d.ring[d.next])
		d.ring[d.next] = key
		d.next = (d.next + 1) % d.capacity
	}
	d.seen[key] = struct{}{}
	return false
}

// Len reports how many keys are currently remembered.
func (d *Deduper) Len() int {
	return len(d.seen)
}
