package cpu

// State is the serialisable part of the CPU. Counters in Stats are not part
// of machine state.
type State struct {
	R                     [8]uint16
	S, Z, O, C, I, D      bool
	Interruptible, Halted bool
	IntRM, IntServiced    bool
	BusRq, BusAk          bool
}

func (c *CPU) Snapshot() State {
	return State{
		R: c.R,
		S: c.S, Z: c.Z, O: c.O, C: c.C, I: c.I, D: c.D,
		Interruptible: c.interruptible, Halted: c.halted,
		IntRM: c.intRM, IntServiced: c.intServiced,
		BusRq: c.busRq, BusAk: c.busAk,
	}
}

func (c *CPU) Restore(s State) {
	c.R = s.R
	c.S, c.Z, c.O, c.C, c.I, c.D = s.S, s.Z, s.O, s.C, s.I, s.D
	c.interruptible, c.halted = s.Interruptible, s.Halted
	c.intRM, c.intServiced = s.IntRM, s.IntServiced
	c.busRq, c.busAk = s.BusRq, s.BusAk
}
