package stic

// Register file layout.
const (
	regX         = 0x00
	regY         = 0x08
	regA         = 0x10
	regCollision = 0x18
	regDisplay   = 0x20
	regMode      = 0x21
	regStack     = 0x28
	regBorder    = 0x2C
	regHDelay    = 0x30
	regVDelay    = 0x31
	regBorderExt = 0x32
)

// ReadRegister is a CPU read of register a (0-0x3F). Reading the mode
// register selects Color Stack mode. Undriven addresses and write-only
// registers return false so the bus yields open bus.
func (s *STIC) ReadRegister(a uint16) (uint16, bool) {
	if a == regMode {
		s.colorStack = true
		return 0, false
	}
	return s.PeekRegister(a)
}

// PeekRegister reads register a without side effects. Unused bits read as 1.
func (s *STIC) PeekRegister(a uint16) (uint16, bool) {
	v := s.regs[a&0x3F]
	switch {
	case a < regY:
		return v | 0x3800, true
	case a < regA:
		return v | 0x3000, true
	case a < regCollision:
		return v, true
	case a < regDisplay:
		return v | 0x3C00, true
	case a >= regStack && a <= regBorder:
		return v | 0x3FF0, true
	case a == regHDelay || a == regVDelay:
		return v | 0x3FF8, true
	case a == regBorderExt:
		return v | 0x3FFC, true
	}
	return 0, false
}

// WriteRegister is a CPU write. Bits beyond a register's width are
// dropped; writes to unused addresses are discarded.
func (s *STIC) WriteRegister(a uint16, v uint16) {
	a &= 0x3F
	switch {
	case a < regY:
		s.regs[a] = v & 0x7FF
	case a < regA:
		s.regs[a] = v & 0xFFF
	case a < regCollision:
		s.regs[a] = v & 0x3FFF
	case a < regDisplay:
		s.regs[a] = v & 0x3FF
	case a == regDisplay:
		s.enablePending = true
	case a == regMode:
		s.colorStack = false
	case a >= regStack && a <= regBorder:
		s.regs[a] = v & 0xF
	case a == regHDelay || a == regVDelay:
		s.regs[a] = v & 0x7
	case a == regBorderExt:
		s.regs[a] = v & 0x3
	}
}

// PokeRegister stores a raw register value for tools. Width masks still
// apply; the display and mode strobes are not triggered.
func (s *STIC) PokeRegister(a uint16, v uint16) {
	a &= 0x3F
	if a == regDisplay || a == regMode {
		return
	}
	s.WriteRegister(a, v)
}
