package mqtt

import "github.com/rs/zerolog/log"

// priority orders buffered messages for eviction. Lower values go first.
type priority int

const (
	priorityTelemetry priority = iota
	priorityEvent
	priorityCritical // responses and system events
)

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool

	prio priority
	// key coalesces telemetry: a newer sample with the same key replaces
	// the buffered one. Empty means never coalesced.
	key string
}

// outbox holds outbound messages while disconnected, in publish order.
// Telemetry keeps only the latest sample per channel. When full, the oldest
// message of the lowest priority present is evicted; an incoming message of
// lower priority than everything held is dropped instead.
// Not safe for concurrent use; RealClient guards it with its mutex.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	dropped  int // since last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
	}
}

func (o *outbox) push(msg bufferedMsg) {
	if msg.key != "" {
		for i, m := range o.msgs {
			if m.topic == msg.topic && m.key == msg.key {
				o.remove(i)
				break
			}
		}
	}

	if len(o.msgs) == o.capacity {
		victim := o.lowest()
		if msg.prio < o.msgs[victim].prio {
			o.drop(msg)
			return
		}
		o.drop(o.msgs[victim])
		o.remove(victim)
	}
	o.msgs = append(o.msgs, msg)
}

// lowest returns the index of the oldest message with the lowest priority.
func (o *outbox) lowest() int {
	idx := 0
	for i, m := range o.msgs {
		if m.prio < o.msgs[idx].prio {
			idx = i
		}
	}
	return idx
}

func (o *outbox) remove(i int) {
	o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
}

func (o *outbox) drop(m bufferedMsg) {
	if o.dropped == 0 {
		log.Warn().Int("capacity", o.capacity).Str("topic", m.topic).Msg("mqtt: buffer full, dropping")
	}
	o.dropped++
}

// drainAll returns the buffered messages in publish order and empties the outbox.
func (o *outbox) drainAll() []bufferedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	if o.dropped > 0 {
		log.Warn().Int("dropped", o.dropped).Msg("mqtt: messages dropped while disconnected")
	}
	result := o.msgs
	o.msgs = make([]bufferedMsg, 0, o.capacity)
	o.dropped = 0
	return result
}

func (o *outbox) len() int {
	return len(o.msgs)
}
