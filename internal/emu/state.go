package emu

import (
	"github.com/Gabepowell344/bizhawk/internal/cart"
	"github.com/Gabepowell344/bizhawk/internal/core"
	"github.com/Gabepowell344/bizhawk/internal/cpu"
	"github.com/Gabepowell344/bizhawk/internal/faults"
	"github.com/Gabepowell344/bizhawk/internal/psg"
	"github.com/Gabepowell344/bizhawk/internal/savestate"
	"github.com/Gabepowell344/bizhawk/internal/sched"
	"github.com/Gabepowell344/bizhawk/internal/stic"
)

// Section tags in the order they appear in a save state.
var sectionTags = []string{"CPU0", "STIC", "PSG0", "SCRA", "SRAM", "GRAM", "CART", "SCHD"}

// frameState is the scheduler and counter section.
type frameState struct {
	Sched    sched.State
	OpenBus  uint16
	Frame    int
	LagCount int
	IsLag    bool
}

// SaveState serialises the whole machine. It fails while a frame is running.
func (m *Machine) SaveState() ([]byte, error) {
	if m.closed {
		return nil, core.ErrClosed
	}
	if m.sched.Running() {
		return nil, sched.ErrReentrant
	}
	values := []any{
		m.cpu.Snapshot(),
		m.stic.Snapshot(),
		m.psg.Snapshot(),
		m.scratch,
		m.sysram,
		m.stic.GRAM(),
		m.cart.Snapshot(),
		frameState{
			Sched:    m.sched.Snapshot(),
			OpenBus:  m.bus.OpenBus(),
			Frame:    m.frame,
			LagCount: m.lagCount,
			IsLag:    m.isLag,
		},
	}
	sections := make([]savestate.Section, len(values))
	for i, v := range values {
		s, err := savestate.Gob(sectionTags[i], v)
		if err != nil {
			return nil, err
		}
		sections[i] = s
	}
	return savestate.Encode(sections)
}

// LoadState replaces the machine state with blob. Every section is decoded
// and checked before anything changes, so a failed load leaves the machine
// as it was.
func (m *Machine) LoadState(blob []byte) error {
	if m.closed {
		return core.ErrClosed
	}
	if m.sched.Running() {
		return sched.ErrReentrant
	}
	parts, err := savestate.Decode(blob, sectionTags)
	if err != nil {
		return err
	}
	var (
		cpuSt   cpu.State
		sticSt  stic.State
		psgSt   psg.State
		scratch [scratchSize]uint16
		sysram  [sysramSize]uint16
		gram    []byte
		cartSt  cart.State
		frameSt frameState
	)
	targets := []any{&cpuSt, &sticSt, &psgSt, &scratch, &sysram, &gram, &cartSt, &frameSt}
	for i, t := range targets {
		if err := savestate.Ungob(sectionTags[i], parts[i], t); err != nil {
			return err
		}
	}
	if len(gram) != stic.GRAMSize {
		return faults.State("GRAM is %d bytes, want %d", len(gram), stic.GRAMSize)
	}
	if err := m.cart.Restore(cartSt); err != nil {
		return err
	}

	m.cpu.Restore(cpuSt)
	m.stic.Restore(sticSt)
	m.psg.Restore(psgSt)
	m.scratch = scratch
	m.sysram = sysram
	copy(m.stic.GRAM(), gram)
	m.sched.Restore(frameSt.Sched)
	m.bus.SetOpenBus(frameSt.OpenBus)
	m.frame = frameSt.Frame
	m.lagCount = frameSt.LagCount
	m.isLag = frameSt.IsLag
	return nil
}
