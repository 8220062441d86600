package cpu

import (
	"fmt"
)

// Bus is the CPU's only view of the machine. Every fetch, operand read and
// store goes through it.
type Bus interface {
	Read(addr uint16) (uint16, error)
	Write(addr uint16, v uint16) error
}

// Reset vector and interrupt vector of the CP1610 as wired in the
// Intellivision.
const (
	ResetVector     uint16 = 0x1000
	InterruptVector uint16 = 0x1004
)

// Cycle cost of taking an interrupt (push PC, jump to the vector).
const interruptCycles = 28

// CPU implements the General Instrument CP1610.
type CPU struct {
	// R6 is the stack pointer, R7 the program counter
	R [8]uint16

	// Status flags
	S, Z, O, C bool
	I          bool // interrupts enabled
	D          bool // SDBD in effect for the next instruction

	interruptible bool // previous instruction allows an interrupt after it
	halted        bool

	// input lines and the deferred-interrupt latch
	intRM       bool
	intServiced bool
	busRq       bool
	// output line
	busAk bool

	bus    Bus
	stats  Stats
	tracer func(pc uint16)
}

// Stats counts CPU activity since the last Reset.
type Stats struct {
	Instructions  uint64
	Reads         uint64
	Writes        uint64
	StalledCycles uint64
	HaltedCycles  uint64
	Interrupts    uint64
}

func New(b Bus) *CPU {
	c := &CPU{bus: b}
	c.Reset()
	return c
}

// Reset puts the CPU in its power-on state: registers clear except the
// program counter, which points at the executive ROM entry.
func (c *CPU) Reset() {
	c.R = [8]uint16{}
	c.R[7] = ResetVector
	c.S, c.Z, c.O, c.C = false, false, false, false
	c.I, c.D = false, false
	c.interruptible = true
	c.halted = false
	c.intRM, c.intServiced = false, false
	c.busRq, c.busAk = false, false
	c.stats = Stats{}
}

func (c *CPU) PC() uint16 { return c.R[7] }

func (c *CPU) SetPC(pc uint16) { c.R[7] = pc }

func (c *CPU) Halted() bool { return c.halted }

func (c *CPU) Stats() Stats { return c.stats }

// SetTracer installs a hook called with the address of every instruction
// before it is fetched. nil removes it.
func (c *CPU) SetTracer(fn func(pc uint16)) { c.tracer = fn }

// BusAcknowledge is the BUSAK output line.
func (c *CPU) BusAcknowledge() bool { return c.busAk }

// SetInterruptLine sets the level of INTRM. The line is sampled at
// instruction boundaries. One assertion is serviced once; the latch clears
// when the line drops.
func (c *CPU) SetInterruptLine(level bool) {
	c.intRM = level
	if !level {
		c.intServiced = false
	}
}

// SetBusRequest sets the level of BUSRQ. The CPU yields the bus at the next
// instruction boundary and holds BUSAK until the request drops.
func (c *CPU) SetBusRequest(level bool) { c.busRq = level }

// Execute runs whole instructions until at least budget cycles have been
// spent and returns the cycles actually spent. While the bus is granted to
// another master, or after HLT, no instruction runs and no bus access is
// made; the remainder of the budget passes as idle cycles.
func (c *CPU) Execute(budget int) (int, error) {
	consumed := 0
	for consumed < budget {
		if c.busRq {
			c.busAk = true
			idle := budget - consumed
			c.stats.StalledCycles += uint64(idle)
			return budget, nil
		}
		c.busAk = false
		if c.halted {
			idle := budget - consumed
			c.stats.HaltedCycles += uint64(idle)
			return budget, nil
		}
		if c.intRM && !c.intServiced && c.I && c.interruptible {
			n, err := c.interrupt()
			consumed += n
			if err != nil {
				return consumed, err
			}
			continue
		}
		n, err := c.step()
		consumed += n
		if err != nil {
			return consumed, err
		}
	}
	return consumed, nil
}

func (c *CPU) interrupt() (int, error) {
	c.intServiced = true
	if err := c.write(c.R[6], c.R[7]); err != nil {
		return interruptCycles, fmt.Errorf("cpu: interrupt push: %w", err)
	}
	c.R[6]++
	c.R[7] = InterruptVector
	c.stats.Interrupts++
	return interruptCycles, nil
}

func (c *CPU) read(addr uint16) (uint16, error) {
	c.stats.Reads++
	return c.bus.Read(addr)
}

func (c *CPU) write(addr, v uint16) error {
	c.stats.Writes++
	return c.bus.Write(addr, v)
}

func (c *CPU) fetch() (uint16, error) {
	v, err := c.read(c.R[7])
	c.R[7]++
	return v, err
}

// step decodes and runs one instruction.
func (c *CPU) step() (int, error) {
	pc := c.R[7]
	if c.tracer != nil {
		c.tracer(pc)
	}
	w, err := c.fetch()
	if err != nil {
		return 0, fmt.Errorf("cpu: fetch at %04X: %w", pc, err)
	}
	op := w & 0x3FF
	dbd := c.D
	c.D = false
	c.interruptible = true
	c.stats.Instructions++

	var cycles int
	switch {
	case op < 0x008:
		cycles, err = c.control(op)
	case op < 0x040:
		cycles = c.register1(op)
	case op < 0x080:
		cycles = c.shift(op)
	case op < 0x200:
		cycles = c.register2(op)
	case op < 0x240:
		cycles, err = c.branch(op)
	case op < 0x280:
		cycles, err = c.store(op)
	default:
		cycles, err = c.load(op, dbd)
	}
	if err != nil {
		return cycles, fmt.Errorf("cpu: %04X at %04X: %w", op, pc, err)
	}
	return cycles, nil
}

func (c *CPU) control(op uint16) (int, error) {
	switch op {
	case 0x000: // HLT
		c.halted = true
		return 4, nil
	case 0x001: // SDBD
		c.D = true
		c.interruptible = false
		return 4, nil
	case 0x002: // EIS
		c.I = true
		c.interruptible = false
		return 4, nil
	case 0x003: // DIS
		c.I = false
		c.interruptible = false
		return 4, nil
	case 0x004:
		return c.jump()
	case 0x005: // TCI
		c.interruptible = false
		return 4, nil
	case 0x006: // CLRC
		c.C = false
		c.interruptible = false
		return 4, nil
	default: // SETC
		c.C = true
		c.interruptible = false
		return 4, nil
	}
}

// jump handles J, JE, JD, JSR, JSRE and JSRD. The two operand decles carry
// the link register, the interrupt-enable action and the 16-bit target.
func (c *CPU) jump() (int, error) {
	a1, err := c.fetch()
	if err != nil {
		return 0, err
	}
	a2, err := c.fetch()
	if err != nil {
		return 0, err
	}
	target := (a1&0xFC)<<8 | a2&0x3FF
	if link := (a1 >> 8) & 3; link != 3 {
		c.R[4+link] = c.R[7]
	}
	switch a1 & 3 {
	case 1:
		c.I = true
	case 2:
		c.I = false
	}
	c.R[7] = target
	return 12, nil
}

func regCycles(dst uint16) int {
	if dst >= 6 {
		return 7
	}
	return 6
}

// register1 covers the single-register group 0x008-0x03F.
func (c *CPU) register1(op uint16) int {
	r := op & 7
	switch op >> 3 {
	case 1: // INCR
		c.R[r]++
		c.setSZ(c.R[r])
	case 2: // DECR
		c.R[r]--
		c.setSZ(c.R[r])
	case 3: // COMR
		c.R[r] = ^c.R[r]
		c.setSZ(c.R[r])
	case 4: // NEGR
		c.R[r] = c.add(0, ^c.R[r], 1)
	case 5: // ADCR
		var carry uint16
		if c.C {
			carry = 1
		}
		c.R[r] = c.add(c.R[r], 0, carry)
	case 6:
		switch {
		case r < 4: // GSWD
			c.R[r&3] = c.statusWord()
		case r < 6: // NOP
		default: // SIN
			c.interruptible = false
		}
		return 6
	default: // RSWD
		v := c.R[r]
		c.S = v&0x80 != 0
		c.Z = v&0x40 != 0
		c.O = v&0x20 != 0
		c.C = v&0x10 != 0
		return 6
	}
	return regCycles(r)
}

func (c *CPU) statusWord() uint16 {
	var n uint16
	if c.S {
		n |= 8
	}
	if c.Z {
		n |= 4
	}
	if c.O {
		n |= 2
	}
	if c.C {
		n |= 1
	}
	return n<<12 | n<<4
}

func (c *CPU) shift(op uint16) int {
	r := op & 3
	two := op&4 != 0
	v := c.R[r]
	n := uint16(1)
	cycles := 6
	if two {
		n = 2
		cycles = 8
	}
	var carry, over uint16
	if c.C {
		carry = 1
	}
	if c.O {
		over = 1
	}

	var res uint16
	right := false
	switch (op >> 3) & 7 {
	case 0: // SWAP
		if two {
			res = v&0xFF | v<<8
		} else {
			res = v<<8 | v>>8
		}
		right = true
	case 1: // SLL
		res = v << n
	case 2: // RLC
		if two {
			res = v<<2 | carry<<1 | over
			c.O = v&0x4000 != 0
		} else {
			res = v<<1 | carry
		}
		c.C = v&0x8000 != 0
	case 3: // SLLC
		res = v << n
		if two {
			c.O = v&0x4000 != 0
		}
		c.C = v&0x8000 != 0
	case 4: // SLR
		res = v >> n
		right = true
	case 5: // SAR
		res = uint16(int16(v) >> n)
		right = true
	case 6: // RRC
		if two {
			res = v>>2 | carry<<14 | over<<15
			c.O = v&2 != 0
		} else {
			res = v>>1 | carry<<15
		}
		c.C = v&1 != 0
		right = true
	case 7: // SARC
		res = uint16(int16(v) >> n)
		if two {
			c.O = v&2 != 0
		}
		c.C = v&1 != 0
		right = true
	}
	c.R[r] = res
	if right {
		c.S = res&0x80 != 0
	} else {
		c.S = res&0x8000 != 0
	}
	c.Z = res == 0
	c.interruptible = false
	return cycles
}

// register2 covers MOVR, ADDR, SUBR, CMPR, ANDR and XORR.
func (c *CPU) register2(op uint16) int {
	src := (op >> 3) & 7
	dst := op & 7
	a, b := c.R[dst], c.R[src]
	switch op >> 6 {
	case 2: // MOVR
		c.R[dst] = b
		c.setSZ(b)
	case 3: // ADDR
		c.R[dst] = c.add(a, b, 0)
	case 4: // SUBR
		c.R[dst] = c.add(a, ^b, 1)
	case 5: // CMPR
		c.add(a, ^b, 1)
	case 6: // ANDR
		c.R[dst] = a & b
		c.setSZ(c.R[dst])
	case 7: // XORR
		c.R[dst] = a ^ b
		c.setSZ(c.R[dst])
	}
	return regCycles(dst)
}

func (c *CPU) branch(op uint16) (int, error) {
	disp, err := c.fetch()
	if err != nil {
		return 0, err
	}
	taken := false
	if op&0x10 == 0 {
		taken = c.condition(op&7) != (op&8 != 0)
	}
	if !taken {
		return 7, nil
	}
	if op&0x20 != 0 {
		c.R[7] = c.R[7] - disp - 1
	} else {
		c.R[7] += disp
	}
	return 9, nil
}

func (c *CPU) condition(cc uint16) bool {
	switch cc {
	case 0:
		return true
	case 1:
		return c.C
	case 2:
		return c.O
	case 3:
		return !c.S
	case 4:
		return c.Z
	case 5:
		return c.S != c.O
	case 6:
		return c.Z || c.S != c.O
	default:
		return c.C != c.S
	}
}

// store is MVO in all its addressing modes.
func (c *CPU) store(op uint16) (int, error) {
	mode := (op >> 3) & 7
	v := c.R[op&7]
	c.interruptible = false
	if mode == 0 {
		addr, err := c.fetch()
		if err != nil {
			return 0, err
		}
		return 11, c.write(addr, v)
	}
	if err := c.write(c.R[mode], v); err != nil {
		return 9, err
	}
	if mode >= 4 {
		c.R[mode]++
	}
	return 9, nil
}

// load covers MVI, ADD, SUB, CMP, AND and XOR with a memory operand.
func (c *CPU) load(op uint16, dbd bool) (int, error) {
	mode := (op >> 3) & 7
	dst := op & 7
	v, cycles, err := c.operand(mode, dbd)
	if err != nil {
		return cycles, err
	}
	a := c.R[dst]
	switch (op >> 6) & 7 {
	case 2: // MVI
		c.R[dst] = v
	case 3: // ADD
		c.R[dst] = c.add(a, v, 0)
	case 4: // SUB
		c.R[dst] = c.add(a, ^v, 1)
	case 5: // CMP
		c.add(a, ^v, 1)
	case 6: // AND
		c.R[dst] = a & v
		c.setSZ(c.R[dst])
	case 7: // XOR
		c.R[dst] = a ^ v
		c.setSZ(c.R[dst])
	}
	return cycles, nil
}

// operand reads the source of a memory-operand instruction. With SDBD in
// effect the value is assembled from the low bytes of two reads, low byte
// first.
func (c *CPU) operand(mode uint16, dbd bool) (uint16, int, error) {
	switch mode {
	case 0:
		addr, err := c.fetch()
		if err != nil {
			return 0, 10, err
		}
		v, err := c.read(addr)
		return v, 10, err
	case 6:
		c.R[6]--
		v, err := c.read(c.R[6])
		if err != nil || !dbd {
			return v, 11, err
		}
		c.R[6]--
		hi, err := c.read(c.R[6])
		return v&0xFF | (hi&0xFF)<<8, 13, err
	}

	step := mode >= 4
	next := func() (uint16, error) {
		v, err := c.read(c.R[mode])
		if step {
			c.R[mode]++
		}
		return v, err
	}
	v, err := next()
	if err != nil || !dbd {
		return v, 8, err
	}
	hi, err := next()
	return v&0xFF | (hi&0xFF)<<8, 10, err
}

// add is the adder shared by every arithmetic instruction; subtraction is
// a + ^b + 1. It sets S, Z, O and C.
func (c *CPU) add(a, b, carry uint16) uint16 {
	r := uint32(a) + uint32(b) + uint32(carry)
	res := uint16(r)
	c.C = r > 0xFFFF
	c.O = (a^res)&(b^res)&0x8000 != 0
	c.setSZ(res)
	return res
}

func (c *CPU) setSZ(v uint16) {
	c.S = v&0x8000 != 0
	c.Z = v == 0
}
