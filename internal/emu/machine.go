// Package emu assembles the Intellivision: CP1610, STIC, PSG, RAMs,
// firmware and cartridge on one bus, paced one video frame at a time.
package emu

import (
	"fmt"

	"github.com/Gabepowell344/bizhawk/internal/bus"
	"github.com/Gabepowell344/bizhawk/internal/cart"
	"github.com/Gabepowell344/bizhawk/internal/core"
	"github.com/Gabepowell344/bizhawk/internal/cpu"
	"github.com/Gabepowell344/bizhawk/internal/faults"
	"github.com/Gabepowell344/bizhawk/internal/logger"
	"github.com/Gabepowell344/bizhawk/internal/memory"
	"github.com/Gabepowell344/bizhawk/internal/psg"
	"github.com/Gabepowell344/bizhawk/internal/sched"
	"github.com/Gabepowell344/bizhawk/internal/stic"
)

const SystemID = "INTV"

// Firmware sizes in bytes.
const (
	ExecSize = 8192
	GROMSize = stic.GROMSize
)

// Memory map.
const (
	scratchBase = 0x0100
	scratchSize = 240
	sysramBase  = 0x0200
	sysramSize  = 352
	execBase    = 0x1000
	execWords   = ExecSize / 2
)

// Machine is one Intellivision with a cartridge inserted. It is not safe for
// concurrent use.
type Machine struct {
	cfg Config

	bus   *bus.Bus
	cpu   *cpu.CPU
	stic  *stic.STIC
	psg   *psg.PSG
	cart  cart.Mapper
	sched *sched.Scheduler

	exec    [execWords]uint16
	grom    []byte
	scratch [scratchSize]uint16 // 8-bit RAM, one byte per word
	sysram  [sysramSize]uint16

	domains *memory.Registry

	inputs   core.Inputs
	frame    int
	lagCount int
	isLag    bool
	last     sched.FrameStats
	closed   bool
}

var _ core.Core = (*Machine)(nil)

// New builds a machine from the executive ROM, the graphics ROM and a
// cartridge image. Nothing is built unless all three are valid.
func New(cfg Config, exec, grom, image []byte) (*Machine, error) {
	cfg.Defaults()
	if len(exec) != ExecSize {
		return nil, faults.FirmwareSize("executive ROM", len(exec), ExecSize)
	}
	if len(grom) != GROMSize {
		return nil, faults.FirmwareSize("graphics ROM", len(grom), GROMSize)
	}
	mapper, err := cart.Load(image)
	if err != nil {
		return nil, err
	}

	m := &Machine{cfg: cfg, cart: mapper, grom: append([]byte(nil), grom...)}
	for i := range m.exec {
		m.exec[i] = uint16(exec[2*i])<<8 | uint16(exec[2*i+1])
	}

	var observers []bus.Observer
	if cfg.BusObserver != nil {
		observers = append(observers, cfg.BusObserver)
	}
	m.bus = bus.New(observers...)
	m.cpu = cpu.New(m.bus)
	m.cpu.SetTracer(cfg.Tracer)
	m.stic = stic.New(m.grom, m.bus.Peek)
	m.psg = psg.New(cfg.SampleRate)

	if err := m.mapBus(); err != nil {
		return nil, err
	}
	if m.domains, err = m.buildDomains(); err != nil {
		return nil, err
	}

	ic := &sched.Interconnect{CPU: m.cpu, Chips: []sched.Chip{m.stic, m.psg}}
	ic.Propagate()
	m.sched = sched.New(ic, stic.CyclesPerFrame, cfg.Slice)

	logger.Logf("emu", "machine ready: %s cartridge, %d bus regions", mapper.Name(), len(m.bus.Regions()))
	return m, nil
}

// mapBus declares every region in priority order. Reads from cartridge
// memory win over the STIC register mirrors, but a write reaches every
// region decoding the address, so a cartridge RAM write inside a mirror
// also lands in the STIC during vertical blank. Everything else in the
// 16-bit space is decoded by the board but undriven, and reads back open
// bus.
func (m *Machine) mapBus() error {
	sticRegions := m.stic.Regions()
	regions := []bus.Region{
		sticRegions[0],
		{
			Name: "Scratchpad RAM", Start: scratchBase, End: scratchBase + scratchSize - 1,
			Read:  func(a uint16) (uint16, bool) { return m.scratch[a-scratchBase], true },
			Write: func(a uint16, v uint16) { m.scratch[a-scratchBase] = v & 0xFF },
		},
		m.psg.Region(),
		{
			Name: "System RAM", Start: sysramBase, End: sysramBase + sysramSize - 1,
			Read:  func(a uint16) (uint16, bool) { return m.sysram[a-sysramBase], true },
			Write: func(a uint16, v uint16) { m.sysram[a-sysramBase] = v },
		},
		{
			Name: "Executive ROM", Start: execBase, End: execBase + execWords - 1,
			Read: func(a uint16) (uint16, bool) { return m.exec[a-execBase], true },
		},
		sticRegions[1],
		sticRegions[2],
	}
	for _, r := range m.cart.Ranges() {
		regions = append(regions, bus.Region{
			Name: "Cartridge", Start: r.Start, End: r.End,
			Read:  m.cart.Read,
			Write: m.cart.Write,
		})
	}
	regions = append(regions, m.stic.AliasRegions()...)
	regions = append(regions, bus.Region{Name: "Open bus", Start: 0x0000, End: 0xFFFF})

	for _, r := range regions {
		if err := m.bus.Map(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) SystemID() string { return SystemID }

func (m *Machine) DeterministicEmulation() bool { return true }

// Reset is the console's reset button: every chip and the CPU restart, RAM
// and the frame counters are kept.
func (m *Machine) Reset() error {
	if m.closed {
		return core.ErrClosed
	}
	if m.sched.Running() {
		return sched.ErrReentrant
	}
	m.reset()
	return nil
}

func (m *Machine) reset() {
	m.cpu.Reset()
	m.stic.Reset()
	m.psg.Reset()
	m.cart.Reset()
	m.sched.Reset()
	logger.Log("emu", "reset")
}

// AdvanceFrame latches the inputs and runs one frame. A CPU fault is fatal
// and is returned from every later call until a state is loaded.
func (m *Machine) AdvanceFrame(render, renderAudio bool) error {
	if m.closed {
		return core.ErrClosed
	}
	if m.sched.Running() {
		return sched.ErrReentrant
	}
	if err := m.sched.Err(); err != nil {
		return err
	}
	if m.inputs.Buttons["Reset"] {
		m.reset()
	}
	m.psg.SetPort(0, portCode(m.inputs, "P1"))
	m.psg.SetPort(1, portCode(m.inputs, "P2"))
	m.psg.ClearPolled()
	m.psg.ClearSamples()

	st, err := m.sched.AdvanceFrame(render, renderAudio)
	m.last = st
	if err != nil {
		return fmt.Errorf("emu: %w", err)
	}
	m.frame++
	m.isLag = !m.psg.Polled()
	if m.isLag {
		m.lagCount++
	}
	return nil
}

func (m *Machine) VideoFrame() core.VideoFrame {
	return core.VideoFrame{Pix: m.stic.Framebuffer(), Width: stic.Width, Height: stic.Height}
}

func (m *Machine) AudioSamples() []int16 { return m.psg.Samples() }

func (m *Machine) SampleRate() int { return m.psg.SampleRate() }

func (m *Machine) MemoryDomains() *memory.Registry { return m.domains }

func (m *Machine) Frame() int { return m.frame }

func (m *Machine) LagCount() int { return m.lagCount }

func (m *Machine) IsLagFrame() bool { return m.isLag }

// ResetCounters zeroes the frame and lag counters.
func (m *Machine) ResetCounters() {
	m.frame = 0
	m.lagCount = 0
	m.isLag = false
}

// ReadSaveRAM returns the cartridge's battery RAM, or nil when it has none.
func (m *Machine) ReadSaveRAM() []byte {
	if bb, ok := m.cart.(cart.BatteryBacked); ok {
		return bb.SaveRAM()
	}
	return nil
}

func (m *Machine) WriteSaveRAM(data []byte) error {
	bb, ok := m.cart.(cart.BatteryBacked)
	if !ok {
		if len(data) == 0 {
			return nil
		}
		return faults.State("cartridge has no save RAM, got %d bytes", len(data))
	}
	if want := len(bb.SaveRAM()); len(data) != want {
		return faults.State("save RAM is %d bytes, want %d", len(data), want)
	}
	bb.LoadRAM(data)
	return nil
}

func (m *Machine) ClearSaveRAM() {
	if bb, ok := m.cart.(cart.BatteryBacked); ok {
		bb.LoadRAM(make([]byte, len(bb.SaveRAM())))
	}
}

func (m *Machine) Close() error {
	m.closed = true
	return nil
}

// Diagnostics for tools.

// LastFrame returns the accounting of the most recent frame.
func (m *Machine) LastFrame() sched.FrameStats { return m.last }

func (m *Machine) CPUStats() cpu.Stats { return m.cpu.Stats() }

func (m *Machine) BusStats() bus.Stats { return m.bus.Stats() }

func (m *Machine) CartridgeName() string { return m.cart.Name() }

func (m *Machine) PC() uint16 { return m.cpu.PC() }

// Disassemble decodes the instruction at addr without side effects.
func (m *Machine) Disassemble(addr uint16) (string, int) {
	return cpu.Disassemble(m.bus.Peek, addr)
}
