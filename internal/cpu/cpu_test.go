package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/Gabepowell344/bizhawk/internal/faults"
)

// wordBus is flat 64K-word memory. Addresses at or above limit are
// undeclared when limit is non-zero.
type wordBus struct {
	mem           [0x10000]uint16
	reads, writes int
	limit         int
}

func (b *wordBus) Read(addr uint16) (uint16, error) {
	if b.limit != 0 && int(addr) >= b.limit {
		return 0, &faults.AddressError{Domain: "test", Addr: int(addr)}
	}
	b.reads++
	return b.mem[addr], nil
}

func (b *wordBus) Write(addr uint16, v uint16) error {
	if b.limit != 0 && int(addr) >= b.limit {
		return &faults.AddressError{Domain: "test", Addr: int(addr), Write: true}
	}
	b.writes++
	b.mem[addr] = v
	return nil
}

func newCPUWithProgram(code ...uint16) (*CPU, *wordBus) {
	b := &wordBus{}
	copy(b.mem[ResetVector:], code)
	return New(b), b
}

func jsr(link uint16, target uint16, ff uint16) []uint16 {
	return []uint16{0x004, link<<8 | (target>>8)&0xFC | ff, target & 0x3FF}
}

func step(t *testing.T, c *CPU) int {
	t.Helper()
	n, err := c.Execute(1)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return n
}

func TestCPU_Reset(t *testing.T) {
	c, _ := newCPUWithProgram()
	c.R[3] = 9
	c.C = true
	c.Reset()
	if c.PC() != 0x1000 || c.R[3] != 0 || c.C || c.I {
		t.Fatalf("reset state wrong: PC=%04X R3=%d C=%v I=%v", c.PC(), c.R[3], c.C, c.I)
	}
}

func TestCPU_MVIIAndADDR(t *testing.T) {
	c, _ := newCPUWithProgram(0x2B8, 5, 0x2B9, 3, 0x0C1) // MVII #5,R0; MVII #3,R1; ADDR R0,R1
	if n := step(t, c); n != 8 {
		t.Fatalf("MVII cycles got %d want 8", n)
	}
	step(t, c)
	if n := step(t, c); n != 6 {
		t.Fatalf("ADDR cycles got %d want 6", n)
	}
	if c.R[1] != 8 || c.Z || c.S || c.C {
		t.Fatalf("R1 got %d flags S=%v Z=%v C=%v", c.R[1], c.S, c.Z, c.C)
	}
}

func TestCPU_SubtractFlags(t *testing.T) {
	// MVII #1,R0; MVII #2,R1; SUBR R1,R0; CMPR R0,R0
	c, _ := newCPUWithProgram(0x2B8, 1, 0x2B9, 2, 0x108, 0x140)
	step(t, c)
	step(t, c)
	step(t, c)
	if c.R[0] != 0xFFFF || !c.S || c.Z || c.C {
		t.Fatalf("1-2 got %04X S=%v Z=%v C=%v", c.R[0], c.S, c.Z, c.C)
	}
	step(t, c)
	if !c.Z || !c.C || c.O {
		t.Fatalf("CMPR equal flags Z=%v C=%v O=%v", c.Z, c.C, c.O)
	}
}

func TestCPU_AddOverflow(t *testing.T) {
	// MVII #$7FFF,R0; ADDI #1,R0
	c, _ := newCPUWithProgram(0x2B8, 0x7FFF, 0x2F8, 1)
	step(t, c)
	step(t, c)
	if c.R[0] != 0x8000 || !c.O || !c.S || c.C {
		t.Fatalf("7FFF+1 got %04X O=%v S=%v C=%v", c.R[0], c.O, c.S, c.C)
	}
}

func TestCPU_BranchBackward(t *testing.T) {
	c, _ := newCPUWithProgram(0x220, 1) // B $1000
	if n := step(t, c); n != 9 {
		t.Fatalf("taken branch cycles got %d want 9", n)
	}
	if c.PC() != 0x1000 {
		t.Fatalf("PC got %04X want 1000", c.PC())
	}
}

func TestCPU_BranchNotTaken(t *testing.T) {
	c, _ := newCPUWithProgram(0x204, 5) // BEQ +5 with Z clear
	if n := step(t, c); n != 7 {
		t.Fatalf("not-taken cycles got %d want 7", n)
	}
	if c.PC() != 0x1002 {
		t.Fatalf("PC got %04X want 1002", c.PC())
	}
	c.Reset()
	c.Z = true
	step(t, c)
	if c.PC() != 0x1007 {
		t.Fatalf("BEQ taken PC got %04X want 1007", c.PC())
	}
}

func TestCPU_JSRLinksAndEnables(t *testing.T) {
	c, _ := newCPUWithProgram(jsr(1, 0x1234, 1)...) // JSRE R5,$1234
	if n := step(t, c); n != 12 {
		t.Fatalf("JSR cycles got %d want 12", n)
	}
	if c.PC() != 0x1234 || c.R[5] != 0x1003 || !c.I {
		t.Fatalf("JSRE PC=%04X R5=%04X I=%v", c.PC(), c.R[5], c.I)
	}
}

func TestCPU_StackPushPull(t *testing.T) {
	// MVII #$200,R6; MVII #$ABCD,R0; PSHR R0; PULR R1
	c, b := newCPUWithProgram(0x2BE, 0x200, 0x2B8, 0xABCD, 0x270, 0x2B1)
	step(t, c)
	step(t, c)
	if n := step(t, c); n != 9 {
		t.Fatalf("PSHR cycles got %d want 9", n)
	}
	if b.mem[0x200] != 0xABCD || c.R[6] != 0x201 {
		t.Fatalf("push mem=%04X R6=%04X", b.mem[0x200], c.R[6])
	}
	if n := step(t, c); n != 11 {
		t.Fatalf("PULR cycles got %d want 11", n)
	}
	if c.R[1] != 0xABCD || c.R[6] != 0x200 {
		t.Fatalf("pull R1=%04X R6=%04X", c.R[1], c.R[6])
	}
}

func TestCPU_SDBDImmediate(t *testing.T) {
	c, _ := newCPUWithProgram(0x001, 0x2B8, 0x34, 0x12)
	step(t, c)
	if !c.D {
		t.Fatalf("SDBD did not set D")
	}
	if n := step(t, c); n != 10 {
		t.Fatalf("SDBD MVII cycles got %d want 10", n)
	}
	if c.R[0] != 0x1234 || c.D || c.PC() != 0x1004 {
		t.Fatalf("R0=%04X D=%v PC=%04X", c.R[0], c.D, c.PC())
	}
}

func TestCPU_Shifts(t *testing.T) {
	// SLL R0,2; SWAP R1; SARC R2
	c, _ := newCPUWithProgram(0x04C, 0x041, 0x07A)
	c.R[0] = 0x4001
	c.R[1] = 0x1234
	c.R[2] = 0x8001
	if n := step(t, c); n != 8 {
		t.Fatalf("SLL ,2 cycles got %d want 8", n)
	}
	if c.R[0] != 0x0004 {
		t.Fatalf("SLL got %04X want 0004", c.R[0])
	}
	step(t, c)
	if c.R[1] != 0x3412 {
		t.Fatalf("SWAP got %04X want 3412", c.R[1])
	}
	step(t, c)
	if c.R[2] != 0xC000 || !c.C {
		t.Fatalf("SARC got %04X C=%v", c.R[2], c.C)
	}
}

func TestCPU_StatusWord(t *testing.T) {
	c, _ := newCPUWithProgram(0x007, 0x030, 0x039) // SETC; GSWD R0; RSWD R1
	step(t, c)
	step(t, c)
	if c.R[0] != 0x1010 {
		t.Fatalf("GSWD got %04X want 1010", c.R[0])
	}
	c.R[1] = 0x00C0
	step(t, c)
	if !c.S || !c.Z || c.O || c.C {
		t.Fatalf("RSWD flags S=%v Z=%v O=%v C=%v", c.S, c.Z, c.O, c.C)
	}
}

func TestCPU_InterruptTakenOncePerAssertion(t *testing.T) {
	c, b := newCPUWithProgram(0x002, 0x034, 0x034, 0x034, 0x034, 0x034)
	b.mem[InterruptVector] = 0x034
	b.mem[InterruptVector+1] = 0x034
	c.R[6] = 0x300
	c.SetInterruptLine(true)

	step(t, c) // EIS, not interruptible
	step(t, c) // NOP at 1001
	if c.PC() != 0x1002 {
		t.Fatalf("interrupt taken after EIS: PC=%04X", c.PC())
	}
	if n := step(t, c); n != interruptCycles {
		t.Fatalf("interrupt cycles got %d want %d", n, interruptCycles)
	}
	if c.PC() != InterruptVector || b.mem[0x300] != 0x1002 || c.R[6] != 0x301 {
		t.Fatalf("interrupt entry PC=%04X pushed=%04X R6=%04X", c.PC(), b.mem[0x300], c.R[6])
	}
	step(t, c)
	if c.PC() != InterruptVector+1 {
		t.Fatalf("held line re-entered the handler: PC=%04X", c.PC())
	}
	c.SetInterruptLine(false)
	c.SetInterruptLine(true)
	step(t, c)
	if c.PC() != InterruptVector || c.Stats().Interrupts != 2 {
		t.Fatalf("second assertion not serviced: PC=%04X n=%d", c.PC(), c.Stats().Interrupts)
	}
}

func TestCPU_BusRequestStalls(t *testing.T) {
	c, b := newCPUWithProgram(0x034, 0x034)
	c.SetBusRequest(true)
	n, err := c.Execute(40)
	if err != nil || n != 40 {
		t.Fatalf("stall got %d,%v want 40", n, err)
	}
	if b.reads != 0 || b.writes != 0 || !c.BusAcknowledge() || c.PC() != 0x1000 {
		t.Fatalf("stalled CPU touched the bus: reads=%d ack=%v PC=%04X", b.reads, c.BusAcknowledge(), c.PC())
	}
	if c.Stats().StalledCycles != 40 {
		t.Fatalf("stalled cycles got %d", c.Stats().StalledCycles)
	}
	c.SetBusRequest(false)
	step(t, c)
	if c.BusAcknowledge() || c.PC() != 0x1001 {
		t.Fatalf("CPU did not resume: ack=%v PC=%04X", c.BusAcknowledge(), c.PC())
	}
}

func TestCPU_HaltIdles(t *testing.T) {
	c, b := newCPUWithProgram(0x000)
	step(t, c)
	reads := b.reads
	n, err := c.Execute(100)
	if err != nil || n != 100 || b.reads != reads || !c.Halted() {
		t.Fatalf("halted execute got %d,%v reads=%d", n, err, b.reads-reads)
	}
}

func TestCPU_BusErrorIsFatal(t *testing.T) {
	c, b := newCPUWithProgram(0x280, 0x9000) // MVI $9000,R0
	b.limit = 0x8000
	_, err := c.Execute(10)
	if !errors.Is(err, faults.ErrAddress) {
		t.Fatalf("got %v want ErrAddress", err)
	}
}

func TestCPU_ExecuteOverrunsBudget(t *testing.T) {
	c, _ := newCPUWithProgram(0x2B8, 1, 0x2B8, 2)
	n, err := c.Execute(9)
	if err != nil || n != 16 {
		t.Fatalf("got %d,%v want 16 (two whole instructions)", n, err)
	}
}

func TestCPU_SnapshotRestore(t *testing.T) {
	c, _ := newCPUWithProgram(0x2B8, 7, 0x007)
	step(t, c)
	step(t, c)
	s := c.Snapshot()
	c.Reset()
	c.Restore(s)
	if c.R[0] != 7 || !c.C || c.PC() != 0x1003 {
		t.Fatalf("restore R0=%d C=%v PC=%04X", c.R[0], c.C, c.PC())
	}
}

func TestDisassemble(t *testing.T) {
	mem := map[uint16]uint16{}
	peek := func(a uint16) uint16 { return mem[a] }
	cases := []struct {
		code []uint16
		want string
		n    int
	}{
		{[]uint16{0x2B8, 5}, "MVII #$0005, R0", 2},
		{[]uint16{0x0C1}, "ADDR R0, R1", 1},
		{jsr(1, 0x1234, 0), "JSR R5, $1234", 3},
		{[]uint16{0x220, 1}, "B $1000", 2},
		{[]uint16{0x270}, "MVO@ R0, R6", 1},
		{[]uint16{0x04C}, "SLL R0, 2", 1},
	}
	for _, tc := range cases {
		for i, w := range tc.code {
			mem[0x1000+uint16(i)] = w
		}
		got, n := Disassemble(peek, 0x1000)
		if got != tc.want || n != tc.n {
			t.Fatalf("disassemble %v got %q/%d want %q/%d", tc.code, got, n, tc.want, tc.n)
		}
		if strings.Contains(got, "%!") {
			t.Fatalf("bad format: %q", got)
		}
	}
}
