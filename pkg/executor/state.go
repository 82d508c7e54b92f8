package executor

import (
	"sync"
	"time"

	"github.com/smilepool/smilepool-executor/pkg/models"
)

// State is a step of one action
type State int

const (
	StateIdle State = iota
	StateBuilding
	StateFinalizing
	StateSigning
	StateBroadcasting
	StateConfirming
	StateResolvingHash
	StateSucceeded
	StateFailed
	// StateOutcomeUnknown is reached when confirmation timed out after a
	// successful broadcast. The transaction may still land.
	StateOutcomeUnknown
)

var stateNames = map[State]string{
	StateIdle:           "idle",
	StateBuilding:       "building",
	StateFinalizing:     "finalizing",
	StateSigning:        "signing",
	StateBroadcasting:   "broadcasting",
	StateConfirming:     "confirming",
	StateResolvingHash:  "resolving_hash",
	StateSucceeded:      "succeeded",
	StateFailed:         "failed",
	StateOutcomeUnknown: "outcome_unknown",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition follows
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateOutcomeUnknown
}

// next lists the forward transitions. Failed is reachable from every
// non-terminal state and is handled separately.
var next = map[State]State{
	StateIdle:          StateBuilding,
	StateBuilding:      StateFinalizing,
	StateFinalizing:    StateSigning,
	StateSigning:       StateBroadcasting,
	StateBroadcasting:  StateConfirming,
	StateConfirming:    StateResolvingHash,
	StateResolvingHash: StateSucceeded,
}

func validTransition(from, to State) bool {
	switch {
	case from.Terminal():
		// a new action always starts over from idle
		return to == StateIdle
	case to == StateFailed:
		return true
	case to == StateOutcomeUnknown:
		return from == StateConfirming
	case from == StateSigning && to == StateSigning:
		return true
	default:
		return next[from] == to
	}
}

// Status is a snapshot of the state machine
type Status struct {
	ActionID  string           `json:"action_id,omitempty"`
	Action    models.Action    `json:"action,omitempty"`
	State     State            `json:"state"`
	BaseTxID  string           `json:"base_tx_id,omitempty"`
	Signing   int              `json:"signing,omitempty"`
	Total     int              `json:"total,omitempty"`
	Error     string           `json:"error,omitempty"`
	Category  Category         `json:"category,omitempty"`
	Result    *models.TxResult `json:"result,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// machine holds the current status and fans transitions out to subscribers
type machine struct {
	mu          sync.Mutex
	status      Status
	subscribers map[int]chan Status
	nextID      int
}

func newMachine() *machine {
	return &machine{
		status:      Status{State: StateIdle, UpdatedAt: time.Now()},
		subscribers: make(map[int]chan Status),
	}
}

func (m *machine) current() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// transition applies update to the status when moving to the given state.
// Invalid transitions are ignored and reported as false.
func (m *machine) transition(to State, update func(*Status)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !validTransition(m.status.State, to) {
		return false
	}
	m.status.State = to
	if update != nil {
		update(&m.status)
	}
	m.status.UpdatedAt = time.Now()

	for _, ch := range m.subscribers {
		// slow observers miss intermediate states rather than blocking the action
		select {
		case ch <- m.status:
		default:
		}
	}
	return true
}

func (m *machine) subscribe(buffer int) (<-chan Status, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Status, buffer)
	m.subscribers[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(ch)
		}
	}
}
