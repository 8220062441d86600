package stic

// State is everything needed to resume the chip except GRAM, which is saved
// as its own memory region.
type State struct {
	Regs          [0x40]uint16
	Cycle         int
	Frame         int
	ColorStack    bool
	Display       bool
	EnablePending bool
	SR1, SR2, SST bool
	RowFetched    [CardRows]bool
	Backtab       [CardRows * CardColumns]uint16
}

func (s *STIC) Snapshot() State {
	return State{
		Regs:          s.regs,
		Cycle:         s.cycle,
		Frame:         s.frame,
		ColorStack:    s.colorStack,
		Display:       s.display,
		EnablePending: s.enablePending,
		SR1:           s.sr1,
		SR2:           s.sr2,
		SST:           s.sst,
		RowFetched:    s.rowFetched,
		Backtab:       s.backtab,
	}
}

func (s *STIC) Restore(st State) {
	s.regs = st.Regs
	s.cycle = st.Cycle
	s.frame = st.Frame
	s.colorStack = st.ColorStack
	s.display = st.Display
	s.enablePending = st.EnablePending
	s.sr1, s.sr2, s.sst = st.SR1, st.SR2, st.SST
	s.rowFetched = st.RowFetched
	s.backtab = st.Backtab
}
