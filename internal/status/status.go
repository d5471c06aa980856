// Package status provides a thread-safe status tracker for the led-blinker daemon.
// The control loop writes it every tick; HTTP handlers and system events read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/led-blinker/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	ParamsPath  string
	Pixel       string // driver description, e.g. "nrzled{/dev/spidev0.0}"
	SwitchLine  int    // -1 when no switch is configured
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	LED           logic.State
	Blinking      bool
	Count         uint32
	Transitions   uint32
	Interval      uint32
	IntervalValid logic.ParamValid
	Color         logic.RGB
	Switch        logic.State // "" until the switch has a stable reading
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			LED:       logic.StateOff,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the blinker state, the shown colour and the interval.
// Called from runLoop on every tick and after every command.
func (t *Tracker) Update(b logic.BlinkerState, color logic.RGB, interval uint32, valid logic.ParamValid) {
	t.mu.Lock()
	t.snap.LED = b.LED
	t.snap.Blinking = b.Blinking
	t.snap.Count = b.Count
	t.snap.Transitions = b.Transitions
	t.snap.Color = color
	t.snap.Interval = interval
	t.snap.IntervalValid = valid
	t.mu.Unlock()
}

// SetSwitch records the debounced switch position.
func (t *Tracker) SetSwitch(s logic.State) {
	t.mu.Lock()
	t.snap.Switch = s
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
