package modem

import "sync"

// ControlSurface is the single mutex-guarded home for the four fields
// the control (UI) thread and the dataflow thread both touch:
// state, monitor, secret, and seqno. Every mutation and read takes the
// mutex for a critical section containing only the field access and a
// simple precondition test -- per spec section 5, never more than
// that, so the dataflow thread's per-tick snapshot stays cheap.
type ControlSurface struct {
	mu sync.Mutex

	state   State
	monitor bool
	secret  uint32
	seqno   uint32

	// secretSet and seqnoSet track whether SetSecret/SetSeqno have ever
	// been applied. The original uses negative sentinels on signed
	// fields to mean "never set"; secret and seqno are unsigned here
	// (they're opaque wire fields, never compared as numbers), so the
	// sentinel becomes these two bools instead (spec section 6: "both
	// fields to have been set at least once").
	secretSet bool
	seqnoSet  bool

	display Display
}

// NewControlSurface returns a surface starting in IDLE with monitor off.
func NewControlSurface(display Display) *ControlSurface {
	return &ControlSurface{display: display}
}

// Snapshot is a single locked read of state and monitor, for the
// dataflow thread's once-per-tick read (spec section 4.5 step 1).
type Snapshot struct {
	State   State
	Monitor bool
}

func (c *ControlSurface) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Monitor: c.monitor}
}

// SetMonitor enables or disables continuous RX decoding while IDLE and
// reports the change on the status display.
func (c *ControlSurface) SetMonitor(on bool) {
	c.mu.Lock()
	c.monitor = on
	c.mu.Unlock()
	if on {
		c.display.DisplayStatus("Monitor on")
	} else {
		c.display.DisplayStatus("Monitor off")
	}
}

// StartStatus attempts the IDLE -> STATUS transition. It logs either
// "Status protocol starting" or "Transaction already in progress" and
// reports whether the transition was taken.
func (c *ControlSurface) StartStatus() bool {
	c.mu.Lock()
	ok := c.state == StateIdle && c.secretSet && c.seqnoSet
	if ok {
		c.state = StateStatus
	}
	c.mu.Unlock()

	if ok {
		c.display.DisplayStatus("Status protocol starting")
	} else {
		c.display.DisplayStatus("Transaction already in progress")
	}
	return ok
}

// SetSecret sets secret, but only while IDLE; reports whether applied.
func (c *ControlSurface) SetSecret(v uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return false
	}
	c.secret = v
	c.secretSet = true
	return true
}

// SetSeqno sets seqno, but only while IDLE; reports whether applied.
func (c *ControlSurface) SetSeqno(v uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return false
	}
	c.seqno = v
	c.seqnoSet = true
	return true
}

// GetState reports the current protocol state.
func (c *ControlSurface) GetState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GetMonitor reports whether monitor mode is on.
func (c *ControlSurface) GetMonitor() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.monitor
}

// secretSeqno reads secret and seqno together, used once STATUS has
// been entered and the status-on packet needs building.
func (c *ControlSurface) secretSeqno() (uint32, uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secret, c.seqno
}

// transitionDataflow applies a dataflow-thread-driven state change
// (STATUS -> STATUS_ON_SENT, STATUS_ON_SENT -> IDLE) under the same
// mutex the control thread uses, compare-and-swap style, so the two
// threads never race on state even though both can write it.
func (c *ControlSurface) transitionDataflow(from, to State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return false
	}
	c.state = to
	return true
}
