package checkout

import (
	"fmt"

	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
)

// Event drives the checkout state machine.
type Event string

const (
	EventSubmit      Event = "submit"
	EventInvalid     Event = "invalid"
	EventValid       Event = "valid"
	EventTokenFailed Event = "token_failed"
	EventTokenOK     Event = "token_ok"
	EventApproved    Event = "approved"
	EventRejected    Event = "rejected"
	EventFailed      Event = "failed"
)

var transitions = map[enums.CheckoutState]map[Event]enums.CheckoutState{
	enums.CheckoutStateEditing: {
		EventSubmit: enums.CheckoutStateValidating,
	},
	enums.CheckoutStateValidating: {
		EventInvalid: enums.CheckoutStateEditing,
		EventFailed:  enums.CheckoutStateEditing,
		// EventValid resolves to Tokenizing or Submitting in Fire.
		EventValid: enums.CheckoutStateTokenizing,
	},
	enums.CheckoutStateTokenizing: {
		EventTokenFailed: enums.CheckoutStateEditing,
		EventTokenOK:     enums.CheckoutStateSubmitting,
	},
	enums.CheckoutStateSubmitting: {
		EventApproved: enums.CheckoutStateCompleted,
		EventRejected: enums.CheckoutStateEditing,
		EventFailed:   enums.CheckoutStateEditing,
	},
}

// Machine tracks one submission through the checkout states.
type Machine struct {
	method enums.PaymentMethod
	state  enums.CheckoutState
	trail  []enums.CheckoutState
}

func NewMachine(method enums.PaymentMethod) *Machine {
	return &Machine{
		method: method,
		state:  enums.CheckoutStateEditing,
		trail:  []enums.CheckoutState{enums.CheckoutStateEditing},
	}
}

func (m *Machine) State() enums.CheckoutState {
	return m.state
}

// Trail lists every state visited, starting with Editing.
func (m *Machine) Trail() []enums.CheckoutState {
	out := make([]enums.CheckoutState, len(m.trail))
	copy(out, m.trail)
	return out
}

// Fire applies ev. Illegal transitions return STATE_CONFLICT and leave the
// state unchanged.
func (m *Machine) Fire(ev Event) error {
	next, ok := transitions[m.state][ev]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s while %s", ev, m.state)).
			WithDetails(map[string]string{"state": m.state.String(), "event": string(ev)})
	}
	if ev == EventValid && !m.method.RequiresCardToken() {
		next = enums.CheckoutStateSubmitting
	}
	m.state = next
	m.trail = append(m.trail, next)
	return nil
}
