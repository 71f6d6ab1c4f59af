package booking

import "github.com/iliyamo/resource-reservation/internal/model"

// Machine validates reservation status transitions against a per-family
// table. The check is table-driven so a new resource family only needs a
// new table, not new code paths. A status with no outgoing entries is
// terminal.
//
// Note the deliberate asymmetry: no table contains CONFIRMED -> CANCELLED
// or CONFIRMED -> PENDING. A confirmed reservation never regresses through
// the generic status-update path; cancelling a confirmed reservation goes
// through the engine's administrative cancel only.
type Machine struct {
	table map[model.Status][]model.Status
}

// NewMachine builds a Machine from an explicit transition table. The map
// is used as-is; callers must not mutate it afterwards.
func NewMachine(table map[model.Status][]model.Status) *Machine {
	return &Machine{table: table}
}

// NewBaseMachine returns the transition table shared by all families:
//
//	PENDING -> CONFIRMED | REJECTED | CANCELLED
//	everything else is terminal.
func NewBaseMachine() *Machine {
	return NewMachine(map[model.Status][]model.Status{
		model.StatusPending: {model.StatusConfirmed, model.StatusRejected, model.StatusCancelled},
	})
}

// NewHotelMachine extends the base table with the check-in flow:
//
//	CONFIRMED  -> CHECKED_IN
//	CHECKED_IN -> CHECKED_OUT
func NewHotelMachine() *Machine {
	return NewMachine(map[model.Status][]model.Status{
		model.StatusPending:   {model.StatusConfirmed, model.StatusRejected, model.StatusCancelled},
		model.StatusConfirmed: {model.StatusCheckedIn},
		model.StatusCheckedIn: {model.StatusCheckedOut},
	})
}

// NewTravelMachine extends the base table with the travel-specific
// terminal states: a pending slot may expire before confirmation and a
// confirmed slot is finalized as RESERVED when ticketing completes.
func NewTravelMachine() *Machine {
	return NewMachine(map[model.Status][]model.Status{
		model.StatusPending:   {model.StatusConfirmed, model.StatusRejected, model.StatusCancelled, model.StatusExpired},
		model.StatusConfirmed: {model.StatusReserved},
	})
}

// MachineFor selects the state machine for a resource family. Unknown
// families fall back to the base table.
func MachineFor(f model.Family) *Machine {
	switch f {
	case model.FamilyRoom:
		return NewHotelMachine()
	case model.FamilyTravel:
		return NewTravelMachine()
	default:
		return NewBaseMachine()
	}
}

// Allowed reports whether the table permits from -> to.
func (m *Machine) Allowed(from, to model.Status) bool {
	for _, next := range m.table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func (m *Machine) Terminal(s model.Status) bool {
	return len(m.table[s]) == 0
}

// Apply sets the reservation's status to next if the table allows it,
// returning a *TransitionError carrying both statuses otherwise. It does
// not persist; the caller owns the write.
func (m *Machine) Apply(r *model.Reservation, next model.Status) error {
	if !m.Allowed(r.Status, next) {
		return &TransitionError{From: r.Status, To: next}
	}
	r.Status = next
	return nil
}
