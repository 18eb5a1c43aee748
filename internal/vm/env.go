package vm

// Environment is the slot store for one activation: a fixed-size sequence of
// local variable slots, exclusively owned by the invocation it was created
// for. Slots are pre-filled with Unit; the emitter guarantees every slot a
// program touches is in range, so an out-of-range slot is an internal error.
type Environment struct {
	slots []Value
}

// NewEnvironment creates an environment of slotCount Unit-initialized slots.
func NewEnvironment(slotCount int) *Environment {
	slots := make([]Value, slotCount)
	for i := range slots {
		slots[i] = MakeUnit()
	}
	return &Environment{slots: slots}
}

// Len returns the slot count.
func (e *Environment) Len() int {
	return len(e.slots)
}

// Load returns a copy of the value in the slot.
func (e *Environment) Load(slot int) (Value, error) {
	if slot < 0 || slot >= len(e.slots) {
		return Value{}, internalErrorf("load from slot %d out of range (%d slots)", slot, len(e.slots))
	}
	return e.slots[slot], nil
}

// Store writes v into the slot.
func (e *Environment) Store(slot int, v Value) error {
	if slot < 0 || slot >= len(e.slots) {
		return internalErrorf("store to slot %d out of range (%d slots)", slot, len(e.slots))
	}
	e.slots[slot] = v
	return nil
}
