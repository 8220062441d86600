// Package stic emulates the AY-3-8900 Standard Television Interface Chip:
// the Intellivision's video generator and, while it fetches display data,
// the master of the system bus.
package stic

import (
	"github.com/Gabepowell344/bizhawk/internal/bus"
	"github.com/Gabepowell344/bizhawk/internal/logger"
)

// NTSC timing in CPU cycles. The STIC runs 1:1 with the CPU clock.
const (
	CyclesPerLine  = 57
	LinesPerFrame  = 262
	CyclesPerFrame = CyclesPerLine * LinesPerFrame // 14934

	VBlankLines  = 70
	VBlankCycles = VBlankLines * CyclesPerLine

	// each card row is 8 pixel rows of 2 scanlines
	CardRows       = 12
	CardColumns    = 20
	LinesPerRow    = 16
	CyclesPerRow   = LinesPerRow * CyclesPerLine
	LockoutCycles  = 110
	BacktabAddress = 0x0200
)

// Frame geometry: a 160x192 display area with an 8 pixel border on every
// side. Vertical resolution is in scanlines.
const (
	Width  = 176
	Height = 208
	border = 8
)

const (
	GROMSize = 2048
	GRAMSize = 512
)

// STIC is the video chip. It owns GRAM and reads GROM and BACKTAB through
// the capabilities handed to New.
type STIC struct {
	regs [0x40]uint16
	grom []byte
	gram [GRAMSize]byte

	fetch func(addr uint16) uint16

	cycle         int
	frame         int
	colorStack    bool
	display       bool // display enabled for the current frame
	enablePending bool // handshake written during this vertical blank

	sr1, sr2, sst bool

	rowFetched [CardRows]bool
	backtab    [CardRows * CardColumns]uint16

	index  []byte // colour index per pixel of the last frame
	fgMask []bool
	cover  []uint8
	rgba   []byte
}

// New returns a STIC drawing from grom. fetch reads a system bus word without
// side effects and is used for BACKTAB DMA.
func New(grom []byte, fetch func(addr uint16) uint16) *STIC {
	s := &STIC{
		grom:   grom,
		fetch:  fetch,
		index:  make([]byte, Width*Height),
		fgMask: make([]bool, Width*Height),
		cover:  make([]uint8, Width*Height),
		rgba:   make([]byte, Width*Height*4),
	}
	s.Reset()
	return s
}

func (s *STIC) Reset() {
	s.regs = [0x40]uint16{}
	s.cycle = 0
	s.colorStack = true
	s.display = false
	s.enablePending = false
	s.sst = false
	s.rowFetched = [CardRows]bool{}
	s.updateLines()
}

// Interrupt is SR1: high for the whole of vertical blank.
func (s *STIC) Interrupt() bool { return s.sr1 }

// BusRequest is SR2: high during a card row's lockout window.
func (s *STIC) BusRequest() bool { return s.sr2 }

// SetBusAcknowledge drives SST from the CPU's BUSAK.
func (s *STIC) SetBusAcknowledge(level bool) { s.sst = level }

func (s *STIC) Frame() int { return s.frame }

// Cycle is the position within the frame, 0 at the start of vertical blank.
func (s *STIC) Cycle() int { return s.cycle }

func (s *STIC) InVBlank() bool { return s.cycle < VBlankCycles }

func (s *STIC) Displaying() bool { return s.display }

func (s *STIC) ColorStackMode() bool { return s.colorStack }

// accessible reports whether the CPU can reach registers, GROM and GRAM.
// Outside vertical blank they belong to the STIC unless display is off.
func (s *STIC) accessible() bool { return s.InVBlank() || !s.display }

// Step advances the chip by cycles CPU cycles. Collisions and the colour
// index frame are always produced at the frame boundary; wantVideo only
// controls conversion to RGBA.
func (s *STIC) Step(cycles int, wantVideo, wantAudio bool) {
	for ; cycles > 0; cycles-- {
		s.cycle++
		switch s.cycle {
		case VBlankCycles:
			if s.enablePending != s.display {
				logger.Logf("stic", "display enabled: %v", s.enablePending)
			}
			s.display = s.enablePending
			s.enablePending = false
		case CyclesPerFrame:
			s.endFrame(wantVideo)
			s.cycle = 0
		}
		s.updateLines()
	}
}

func (s *STIC) updateLines() {
	s.sr1 = s.cycle < VBlankCycles
	s.sr2 = false
	if s.sr1 || !s.display {
		return
	}
	off := s.cycle - VBlankCycles
	row := off / CyclesPerRow
	if off%CyclesPerRow >= LockoutCycles {
		return
	}
	s.sr2 = true
	if s.sst && !s.rowFetched[row] {
		base := uint16(BacktabAddress + row*CardColumns)
		for c := 0; c < CardColumns; c++ {
			s.backtab[row*CardColumns+c] = s.fetch(base + uint16(c))
		}
		s.rowFetched[row] = true
	}
}

func (s *STIC) endFrame(wantVideo bool) {
	s.frame++
	s.compose()
	if wantVideo {
		for i, c := range s.index {
			p := palette[c&0xF]
			s.rgba[i*4+0] = p[0]
			s.rgba[i*4+1] = p[1]
			s.rgba[i*4+2] = p[2]
			s.rgba[i*4+3] = 0xFF
		}
	}
	s.rowFetched = [CardRows]bool{}
}

// Framebuffer returns the RGBA image of the last frame rendered with
// wantVideo set.
func (s *STIC) Framebuffer() []byte { return s.rgba }

// Indices returns the colour index image of the last frame.
func (s *STIC) Indices() []byte { return s.index }

// Regions returns the bus regions the STIC decodes: registers with their
// two aliases, GROM and GRAM.
func (s *STIC) Regions() []bus.Region {
	regs := func(name string, base uint16) bus.Region {
		return bus.Region{
			Name: name, Start: base, End: base + 0x3F,
			Read: func(a uint16) (uint16, bool) {
				if !s.accessible() {
					return 0, false
				}
				return s.ReadRegister(a & 0x3F)
			},
			Peek: func(a uint16) (uint16, bool) { return s.PeekRegister(a & 0x3F) },
			Write: func(a uint16, v uint16) {
				if s.accessible() {
					s.WriteRegister(a&0x3F, v)
				}
			},
		}
	}
	return []bus.Region{
		regs("STIC", 0x0000),
		{
			Name: "GROM", Start: 0x3000, End: 0x37FF,
			Read: func(a uint16) (uint16, bool) {
				if !s.accessible() {
					return 0, false
				}
				return uint16(s.grom[a-0x3000]), true
			},
			Peek: func(a uint16) (uint16, bool) { return uint16(s.grom[a-0x3000]), true },
		},
		{
			Name: "GRAM", Start: 0x3800, End: 0x3FFF,
			Read: func(a uint16) (uint16, bool) {
				if !s.accessible() {
					return 0, false
				}
				return uint16(s.gram[a&0x1FF]), true
			},
			Peek: func(a uint16) (uint16, bool) { return uint16(s.gram[a&0x1FF]), true },
			Write: func(a uint16, v uint16) {
				if s.accessible() {
					s.gram[a&0x1FF] = byte(v)
				}
			},
		},
	}
}

// AliasRegions are the STIC register mirrors at $4000 and $8000. They are
// mapped after the cartridge so that cartridge memory wins.
func (s *STIC) AliasRegions() []bus.Region {
	r := s.Regions()[0]
	a, b := r, r
	a.Name, a.Start, a.End = "STIC alias", 0x4000, 0x403F
	b.Name, b.Start, b.End = "STIC alias", 0x8000, 0x803F
	return []bus.Region{a, b}
}

// GRAM is the chip's graphics RAM.
func (s *STIC) GRAM() []byte { return s.gram[:] }

func (s *STIC) GROM() []byte { return s.grom }
