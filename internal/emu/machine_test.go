package emu

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/Gabepowell344/bizhawk/internal/cart"
	"github.com/Gabepowell344/bizhawk/internal/core"
	"github.com/Gabepowell344/bizhawk/internal/faults"
)

// Words of the test executive. Addresses are CPU addresses.
const (
	counterAddr = 0x0300 // main loop increments and stores R0 here
	portAddr    = 0x0301 // the ISR copies port $1FF here
)

// buildExec assembles a small executive: init sets the stack, starts a tone,
// runs setup and enables interrupts; the ISR performs the display handshake
// and reads the left controller; the main loop counts.
func buildExec(readPorts bool, setup ...uint16) []byte {
	prog := map[uint16][]uint16{
		0x1000: {0x004, 0x310, 0x020}, // J $1020
		0x1003: {0x034},               // NOP
		0x1004: {0x240, 0x0020},       // MVO R0, $0020
		0x1006: {0x281, 0x01FF},       // MVI $01FF, R1
		0x1008: {0x241, portAddr},     // MVO R1, $0301
		0x100A: {0x2B7},               // PULR R7
		0x1020: {
			0x2BE, 0x02F0, // MVII #$02F0, R6
			0x2B8, 0x0040, // MVII #$0040, R0
			0x240, 0x01F0, // MVO R0, $01F0
			0x2B8, 0x003E, // MVII #$003E, R0
			0x240, 0x01F8, // MVO R0, $01F8
			0x2B8, 0x000F, // MVII #$000F, R0
			0x240, 0x01FB, // MVO R0, $01FB
		},
	}
	loop := append(setup[:len(setup):len(setup)],
		0x2B8, 0x0000,      // MVII #0, R0
		0x002,              // EIS
		0x008,              // loop: INCR R0
		0x240, counterAddr, // MVO R0, $0300
		0x220, 0x0004,      // B loop
	)
	prog[0x102E] = loop
	if !readPorts {
		prog[0x1006] = []uint16{0x034, 0x034}
	}
	out := make([]byte, ExecSize)
	for base, words := range prog {
		for i, w := range words {
			a := 2 * (int(base) - execBase + i)
			out[a], out[a+1] = byte(w>>8), byte(w)
		}
	}
	return out
}

func buildGROM() []byte {
	g := make([]byte, GROMSize)
	for i := range g {
		g[i] = byte(i * 37)
	}
	return g
}

func buildFlatCart() []byte {
	img := make([]byte, 2*0x2000)
	for i := range img {
		img[i] = byte(i)
	}
	return img
}

// buildIntellicart is an Intellicart with ROM data at $5000-$57FF and the
// given page attributes.
func buildIntellicart(attr map[int]byte) []byte {
	body := []byte{0x50, 0x57}
	data := make([]byte, 2*0x800)
	for i := range data {
		data[i] = byte(i)
	}
	crc := cart.CRC16(cart.CRC16(0xFFFF, body), data)
	img := []byte{0xA8, 0x01, 0xFE}
	img = append(img, body...)
	img = append(img, data...)
	img = append(img, byte(crc>>8), byte(crc))
	table := make([]byte, 16)
	for pg, a := range attr {
		table[pg/2] |= a << (4 * (pg & 1))
	}
	return append(img, table...)
}

// buildBankedCart has ROM at $5000 and a bank-switched RAM page at $8000.
func buildBankedCart() []byte {
	return buildIntellicart(map[int]byte{
		0x0A: 0x1,             // read
		0x10: 0x1 | 0x2 | 0x8, // read, write, bank
	})
}

// bankedSetup points page $8000 at page $8800 and stores $0155 at $8100.
var bankedSetup = []uint16{
	0x2B8, 0x0011, // MVII #$11, R0
	0x240, 0x0050, // MVO R0, $0050
	0x2B8, 0x0155, // MVII #$155, R0
	0x240, 0x8100, // MVO R0, $8100
}

func newBankedMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := New(Config{}, buildExec(true, bankedSetup...), buildGROM(), buildBankedCart())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	runFrames(t, m, 2)
	return m
}

func newTestMachine(t *testing.T, readPorts bool) *Machine {
	t.Helper()
	m, err := New(Config{}, buildExec(readPorts), buildGROM(), buildFlatCart())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return m
}

func runFrames(t *testing.T, m *Machine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := m.AdvanceFrame(true, true); err != nil {
			t.Fatalf("frame %d: %v", m.Frame(), err)
		}
	}
}

func TestNew_FirmwareSize(t *testing.T) {
	if _, err := New(Config{}, make([]byte, 100), buildGROM(), buildFlatCart()); !errors.Is(err, faults.ErrFirmwareSize) || !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("short exec got %v", err)
	}
	if _, err := New(Config{}, buildExec(true), make([]byte, 2049), buildFlatCart()); !errors.Is(err, faults.ErrFirmwareSize) {
		t.Fatalf("long grom got %v", err)
	}
	if _, err := New(Config{}, buildExec(true), buildGROM(), []byte{1, 2, 3}); !errors.Is(err, faults.ErrUnrecognizedImage) {
		t.Fatalf("bad image got %v", err)
	}
}

func TestMachine_RunsExecutive(t *testing.T) {
	m := newTestMachine(t, true)
	runFrames(t, m, 3)
	if m.Frame() != 3 {
		t.Fatalf("frame got %d want 3", m.Frame())
	}
	if m.sysram[counterAddr-sysramBase] == 0 {
		t.Fatalf("main loop never stored its counter")
	}
	if !m.stic.Displaying() {
		t.Fatalf("display handshake not seen")
	}
	if m.CPUStats().Interrupts != 3 {
		t.Fatalf("interrupts got %d want 3", m.CPUStats().Interrupts)
	}
	if m.CPUStats().StalledCycles == 0 {
		t.Fatalf("CPU never stalled for BACKTAB fetch")
	}
	st := m.LastFrame()
	if st.Consumed != st.Budget+st.CarryIn-st.Carry || st.Carry > 0 {
		t.Fatalf("frame accounting %+v", st)
	}
	v := m.VideoFrame()
	if v.Width != 176 || v.Height != 208 || len(v.Pix) != 176*208*4 {
		t.Fatalf("video %dx%d len %d", v.Width, v.Height, len(v.Pix))
	}
	if n := len(m.AudioSamples()); n < 730 || n > 740 {
		t.Fatalf("samples per frame got %d", n)
	}
	if !slices.ContainsFunc(m.AudioSamples(), func(s int16) bool { return s != 0 }) {
		t.Fatalf("tone produced only silence")
	}
}

func TestMachine_ControllerAndLag(t *testing.T) {
	m := newTestMachine(t, true)
	m.SetInputs(core.Pressed("P1 Key1"))
	runFrames(t, m, 1)
	if got := m.sysram[portAddr-sysramBase]; got != 0x7E {
		t.Fatalf("port read got %02X want 7E", got)
	}
	if m.IsLagFrame() || m.LagCount() != 0 {
		t.Fatalf("polled frame counted as lag")
	}
	m.SetInputs(core.Pressed("P1 Up", "P1 Right"))
	runFrames(t, m, 1)
	if got := m.sysram[portAddr-sysramBase]; got != 0xFF&^discNE {
		t.Fatalf("disc NE got %02X want %02X", got, 0xFF&^discNE)
	}

	lazy := newTestMachine(t, false)
	runFrames(t, lazy, 4)
	if !lazy.IsLagFrame() || lazy.LagCount() != 4 {
		t.Fatalf("lag got %v/%d want true/4", lazy.IsLagFrame(), lazy.LagCount())
	}
	lazy.ResetCounters()
	if lazy.Frame() != 0 || lazy.LagCount() != 0 || lazy.IsLagFrame() {
		t.Fatalf("counters not cleared")
	}
}

func TestMachine_ResetInput(t *testing.T) {
	m := newTestMachine(t, true)
	runFrames(t, m, 5)
	before := m.sysram[counterAddr-sysramBase]
	m.SetInputs(core.Pressed("Reset"))
	runFrames(t, m, 1)
	after := m.sysram[counterAddr-sysramBase]
	if after >= before {
		t.Fatalf("counter %d after reset, %d before", after, before)
	}
	if m.Frame() != 6 {
		t.Fatalf("reset changed frame counter: %d", m.Frame())
	}
	st := m.LastFrame()
	if st.CarryIn != 0 || st.Consumed != st.Budget-st.Carry {
		t.Fatalf("reset frame accounting %+v", st)
	}
}

func TestMachine_Determinism(t *testing.T) {
	a := newTestMachine(t, true)
	b := newTestMachine(t, true)
	for f := 0; f < 30; f++ {
		in := core.Pressed()
		if f%3 == 0 {
			in = core.Pressed("P1 Key5", "P2 Left")
		}
		a.SetInputs(in)
		b.SetInputs(in)
		runFrames(t, a, 1)
		runFrames(t, b, 1)
		if !bytes.Equal(a.VideoFrame().Pix, b.VideoFrame().Pix) {
			t.Fatalf("frame %d: video differs", f)
		}
		if !slices.Equal(a.AudioSamples(), b.AudioSamples()) {
			t.Fatalf("frame %d: audio differs", f)
		}
	}
	sa, _ := a.SaveState()
	sb, _ := b.SaveState()
	if !bytes.Equal(sa, sb) {
		t.Fatalf("states differ after 30 frames")
	}
}

func TestMachine_SaveStateRoundTrip(t *testing.T) {
	a := newTestMachine(t, true)
	runFrames(t, a, 10)
	blob, err := a.SaveState()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	runFrames(t, a, 1)
	wantState, _ := a.SaveState()
	wantPix := append([]byte(nil), a.VideoFrame().Pix...)
	wantAudio := append([]int16(nil), a.AudioSamples()...)

	b := newTestMachine(t, true)
	runFrames(t, b, 2)
	if err := b.LoadState(blob); err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.Frame() != 10 {
		t.Fatalf("frame after load got %d want 10", b.Frame())
	}
	runFrames(t, b, 1)
	gotState, _ := b.SaveState()
	if !bytes.Equal(gotState, wantState) {
		t.Fatalf("state diverged after load")
	}
	if !bytes.Equal(b.VideoFrame().Pix, wantPix) || !slices.Equal(b.AudioSamples(), wantAudio) {
		t.Fatalf("output diverged after load")
	}
}

func TestMachine_LoadStateRejectsGarbage(t *testing.T) {
	m := newTestMachine(t, true)
	runFrames(t, m, 2)
	before, _ := m.SaveState()
	for _, blob := range [][]byte{nil, []byte("IVSS"), before[:len(before)-3]} {
		if err := m.LoadState(blob); !errors.Is(err, faults.ErrState) {
			t.Fatalf("len %d: got %v want state error", len(blob), err)
		}
	}
	after, _ := m.SaveState()
	if !bytes.Equal(before, after) {
		t.Fatalf("failed load modified the machine")
	}
}

func TestMachine_DomainBounds(t *testing.T) {
	m := newTestMachine(t, true)
	reg := m.MemoryDomains()
	want := []string{"Main RAM", "Scratchpad RAM", "Graphics RAM", "Graphics ROM",
		"Executive ROM", "STIC Registers", "PSG Registers", "Cartridge", "System Bus"}
	if reg.Len() != len(want) {
		t.Fatalf("domains got %d want %d", reg.Len(), len(want))
	}
	for i, d := range reg.All() {
		if d.Name() != want[i] {
			t.Fatalf("domain %d got %q want %q", i, d.Name(), want[i])
		}
		for _, a := range []int{0, d.Size() - 1} {
			v, err := d.Read(a)
			if err != nil {
				t.Fatalf("%s: read %d: %v", d.Name(), a, err)
			}
			if err := d.Write(a, v); err != nil {
				t.Fatalf("%s: write %d: %v", d.Name(), a, err)
			}
		}
		for _, a := range []int{-1, d.Size()} {
			if _, err := d.Read(a); !errors.Is(err, faults.ErrAddress) {
				t.Fatalf("%s: read %d got %v", d.Name(), a, err)
			}
			if err := d.Write(a, 0); !errors.Is(err, faults.ErrAddress) {
				t.Fatalf("%s: write %d got %v", d.Name(), a, err)
			}
		}
	}
	if sb, _ := reg.Get("System Bus"); sb.Size() != 0x20000 {
		t.Fatalf("system bus size %#x", sb.Size())
	}
}

func TestMachine_ObserverSeesEveryDomain(t *testing.T) {
	seen := map[int]int{}
	obs := func(addr int, _ byte, _ bool) { seen[addr]++ }
	m, err := New(Config{MemoryObserver: obs}, buildExec(true), buildGROM(), buildFlatCart())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, d := range m.MemoryDomains().All() {
		clear(seen)
		a := d.Size() - 1
		v, _ := d.Read(a)
		d.Write(a, v)
		if seen[a] != 2 {
			t.Fatalf("%s: observer saw %d accesses at %d, want 2", d.Name(), seen[a], a)
		}
	}
}

func TestMachine_IntellicartBankSwitch(t *testing.T) {
	m := newBankedMachine(t)
	if m.CartridgeName() != "intellicart" {
		t.Fatalf("mapper got %s want intellicart", m.CartridgeName())
	}
	if v := m.bus.Peek(0x8100); v != 0x0155 {
		t.Fatalf("banked read $8100 got %04X want 0155", v)
	}
	d, _ := m.MemoryDomains().Get("Cartridge")
	if hi, _ := d.Read(2 * 0x8900); hi != 0x01 {
		t.Fatalf("page $8800 high byte got %02X want 01", hi)
	}
	if lo, _ := d.Read(2*0x8900 + 1); lo != 0x55 {
		t.Fatalf("page $8800 low byte got %02X want 55", lo)
	}
	if lo, _ := d.Read(2*0x8100 + 1); lo != 0 {
		t.Fatalf("write landed on the unswitched page: %02X", lo)
	}
	if v := m.bus.Peek(0x5001); v != 0x0203 {
		t.Fatalf("ROM word got %04X want 0203", v)
	}
}

func TestMachine_CartridgeWriteReachesSTICMirror(t *testing.T) {
	img := buildIntellicart(map[int]byte{0x0A: 0x1, 0x08: 0x1 | 0x2}) // RAM at $4000
	m, err := New(Config{}, buildExec(true), buildGROM(), img)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.bus.Write(0x4000, 0x0055); err != nil {
		t.Fatalf("write: %v", err)
	}
	if v, _ := m.bus.Read(0x4000); v != 0x0055 {
		t.Fatalf("read $4000 got %04X want cartridge RAM 0055", v)
	}
	if v, _ := m.stic.PeekRegister(0); v&0xFF != 0x55 {
		t.Fatalf("STIC MOB 0 X got %04X, mirror write lost", v)
	}
}

func TestMachine_IntellicartSaveStateRoundTrip(t *testing.T) {
	a := newBankedMachine(t)
	blob, err := a.SaveState()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	runFrames(t, a, 1)
	want, _ := a.SaveState()

	d, _ := a.MemoryDomains().Get("Cartridge")
	d.Write(2*0x8900+1, 0xEE)
	if err := a.LoadState(blob); err != nil {
		t.Fatalf("load: %v", err)
	}
	if v := a.bus.Peek(0x8100); v != 0x0155 {
		t.Fatalf("banked RAM after load got %04X want 0155", v)
	}
	runFrames(t, a, 1)
	if got, _ := a.SaveState(); !bytes.Equal(got, want) {
		t.Fatalf("state diverged after load")
	}
}

func TestMachine_IntellicartSaveRAM(t *testing.T) {
	m := newBankedMachine(t)
	sr := m.ReadSaveRAM()
	// every page but the ROM at $5000
	if len(sr) != 31*0x800*2 {
		t.Fatalf("save RAM bytes got %d want %d", len(sr), 31*0x800*2)
	}
	m.ClearSaveRAM()
	if v := m.bus.Peek(0x8100); v != 0 {
		t.Fatalf("cleared save RAM reads %04X", v)
	}
	if v := m.bus.Peek(0x5001); v != 0x0203 {
		t.Fatalf("clearing save RAM erased ROM: %04X", v)
	}
	if err := m.WriteSaveRAM(sr[:10]); !errors.Is(err, faults.ErrState) {
		t.Fatalf("short save RAM got %v want state error", err)
	}
	if err := m.WriteSaveRAM(sr); err != nil {
		t.Fatalf("write save RAM: %v", err)
	}
	if v := m.bus.Peek(0x8100); v != 0x0155 {
		t.Fatalf("restored save RAM reads %04X want 0155", v)
	}
}

func TestMachine_SystemBusDomain(t *testing.T) {
	m := newTestMachine(t, true)
	sb, _ := m.MemoryDomains().Get("System Bus")
	if err := sb.Write(2*0x0310, 0x12); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sb.Write(2*0x0310+1, 0x34); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := m.sysram[0x110]; got != 0x1234 {
		t.Fatalf("system RAM got %04X want 1234", got)
	}
	hi, _ := sb.Read(2 * 0x1000)
	lo, _ := sb.Read(2*0x1000 + 1)
	if hi != 0x00 || lo != 0x04 {
		t.Fatalf("exec word got %02X%02X want 0004", hi, lo)
	}
	sb.Write(2*0x1000+1, 0xFF)
	if m.exec[0] != 0x0004 {
		t.Fatalf("poke changed executive ROM")
	}
	if m.BusStats().Reads != 0 {
		t.Fatalf("domain access counted as CPU reads")
	}
}

func TestMachine_SaveRAMWithoutBattery(t *testing.T) {
	m := newTestMachine(t, true)
	if m.ReadSaveRAM() != nil {
		t.Fatalf("flat cartridge reported save RAM")
	}
	if err := m.WriteSaveRAM(nil); err != nil {
		t.Fatalf("empty write: %v", err)
	}
	if err := m.WriteSaveRAM([]byte{1}); !errors.Is(err, faults.ErrState) {
		t.Fatalf("got %v want state error", err)
	}
}

func TestMachine_Close(t *testing.T) {
	m := newTestMachine(t, true)
	m.Close()
	if err := m.AdvanceFrame(false, false); !errors.Is(err, core.ErrClosed) {
		t.Fatalf("got %v want ErrClosed", err)
	}
	if m.SystemID() != "INTV" {
		t.Fatalf("system id %q", m.SystemID())
	}
	if !m.ControllerDefinition().Has("P2 Key9") || !m.ControllerDefinition().Has("Reset") {
		t.Fatalf("controller definition incomplete")
	}
}
