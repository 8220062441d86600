// Package psg emulates the AY-3-8914 Programmable Sound Generator. On the
// Intellivision the chip also carries the two hand controller ports.
package psg

import (
	"math"

	"github.com/Gabepowell344/bizhawk/internal/bus"
)

const (
	// ClockHz is the CPU clock the PSG is driven from.
	ClockHz = 894886

	// EpochCycles is the number of CPU cycles per generator tick.
	EpochCycles = 16

	DefaultSampleRate = 44100

	Base = 0x01F0
)

// Register indices relative to Base.
const (
	regToneLowA  = 0x0
	regEnvLow    = 0x3
	regToneHighA = 0x4
	regEnvHigh   = 0x7
	regMixer     = 0x8
	regNoise     = 0x9
	regEnvShape  = 0xA
	regVolumeA   = 0xB
	regPort1     = 0xE
	regPort0     = 0xF
)

// volumes is the 4-bit logarithmic DAC, scaled so three channels at full
// volume fit in an int16.
var volumes [16]int32

func init() {
	for i := 1; i < 16; i++ {
		volumes[i] = int32(10922 * math.Pow(10, float64(i-15)*1.5/20))
	}
}

// PSG is the sound chip.
type PSG struct {
	regs  [14]uint8
	ports [2]uint8 // active-high controller state, inverted on read

	sampleRate int

	tone     [3]int
	toneOut  [3]bool
	noise    int
	noiseOut bool
	lfsr     uint32

	env        int
	envStep    int
	envAttack  bool
	envHolding bool
	envVol     int

	rem int // cycles not yet forming a whole epoch
	acc int // sample-rate accumulator

	polled  bool
	samples []int16
}

func New(sampleRate int) *PSG {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	p := &PSG{sampleRate: sampleRate}
	p.Reset()
	return p
}

func (p *PSG) Reset() {
	p.regs = [14]uint8{}
	p.regs[regMixer] = 0x3F
	p.tone = [3]int{}
	p.toneOut = [3]bool{}
	p.noise = 0
	p.noiseOut = false
	p.lfsr = 1
	p.env, p.envStep, p.envVol = 0, 0, 0
	p.envAttack, p.envHolding = false, true
	p.rem, p.acc = 0, 0
	p.samples = p.samples[:0]
}

func (p *PSG) SampleRate() int { return p.sampleRate }

// The PSG never requests the bus or interrupts the CPU.
func (p *PSG) Interrupt() bool { return false }

func (p *PSG) BusRequest() bool { return false }

func (p *PSG) SetBusAcknowledge(bool) {}

// SetPort sets controller port n (0 is $1FF, 1 is $1FE) to an active-high
// code.
func (p *PSG) SetPort(n int, code uint8) { p.ports[n&1] = code }

// Polled reports whether a controller port was read since ClearPolled.
func (p *PSG) Polled() bool { return p.polled }

func (p *PSG) ClearPolled() { p.polled = false }

// Samples returns the PCM produced since the last ClearSamples.
func (p *PSG) Samples() []int16 { return p.samples }

func (p *PSG) ClearSamples() { p.samples = p.samples[:0] }

// Step consumes whole 16-cycle epochs and keeps the remainder for the next
// call, so no generator tick is ever lost. wantAudio=false advances
// everything but does not store samples.
func (p *PSG) Step(cycles int, wantVideo, wantAudio bool) {
	p.rem += cycles
	for p.rem >= EpochCycles {
		p.rem -= EpochCycles
		p.epoch(wantAudio)
	}
}

func (p *PSG) tonePeriod(ch int) int {
	n := int(p.regs[regToneHighA+ch]&0x0F)<<8 | int(p.regs[regToneLowA+ch])
	if n == 0 {
		n = 1
	}
	return n
}

func (p *PSG) epoch(wantAudio bool) {
	for ch := 0; ch < 3; ch++ {
		p.tone[ch]++
		if p.tone[ch] >= p.tonePeriod(ch) {
			p.tone[ch] = 0
			p.toneOut[ch] = !p.toneOut[ch]
		}
	}

	p.noise++
	if n := int(p.regs[regNoise] & 0x1F); p.noise >= max(n, 1) {
		p.noise = 0
		bit := (p.lfsr ^ p.lfsr>>3) & 1
		p.lfsr = p.lfsr>>1 | bit<<16
		p.noiseOut = p.lfsr&1 != 0
	}

	p.env++
	if p.env >= max(int(p.regs[regEnvHigh])<<8|int(p.regs[regEnvLow]), 1) {
		p.env = 0
		p.stepEnvelope()
	}

	// rates above ClockHz/EpochCycles repeat the epoch's output
	p.acc += p.sampleRate * EpochCycles
	if p.acc < ClockHz {
		return
	}
	out := p.mix()
	for ; p.acc >= ClockHz; p.acc -= ClockHz {
		if wantAudio {
			p.samples = append(p.samples, out)
		}
	}
}

func (p *PSG) stepEnvelope() {
	if p.envHolding {
		return
	}
	p.envStep++
	if p.envStep > 15 {
		shape := p.regs[regEnvShape]
		cont, alt, hold := shape&8 != 0, shape&2 != 0, shape&1 != 0
		switch {
		case !cont:
			p.envHolding = true
			p.envVol = 0
			return
		case hold:
			p.envHolding = true
			if alt {
				p.envAttack = !p.envAttack
			}
			if p.envAttack {
				p.envVol = 15
			} else {
				p.envVol = 0
			}
			return
		default:
			p.envStep = 0
			if alt {
				p.envAttack = !p.envAttack
			}
		}
	}
	if p.envAttack {
		p.envVol = p.envStep
	} else {
		p.envVol = 15 - p.envStep
	}
}

func (p *PSG) restartEnvelope() {
	p.env = 0
	p.envStep = 0
	p.envHolding = false
	p.envAttack = p.regs[regEnvShape]&4 != 0
	if p.envAttack {
		p.envVol = 0
	} else {
		p.envVol = 15
	}
}

func (p *PSG) mix() int16 {
	mixer := p.regs[regMixer]
	var out int32
	for ch := 0; ch < 3; ch++ {
		toneOff := mixer&(1<<ch) != 0
		noiseOff := mixer&(8<<ch) != 0
		if !(toneOff || p.toneOut[ch]) || !(noiseOff || p.noiseOut) {
			continue
		}
		v := p.regs[regVolumeA+ch]
		vol := int(v & 0x0F)
		if m := (v >> 4) & 3; m != 0 {
			vol = p.envVol >> (m - 1)
		}
		out += volumes[vol]
	}
	return int16(out)
}

// Read is a CPU read of register a (0-15). Controller port reads are active
// low and mark the frame as polled.
func (p *PSG) Read(a uint16) uint16 {
	a &= 0xF
	if a == regPort0 || a == regPort1 {
		p.polled = true
	}
	return p.Peek(a)
}

// Peek reads register a without side effects.
func (p *PSG) Peek(a uint16) uint16 {
	switch a &= 0xF; a {
	case regPort0:
		return uint16(^p.ports[0])
	case regPort1:
		return uint16(^p.ports[1])
	}
	return uint16(p.regs[a])
}

// Write is a CPU write. Writes to the input ports are ignored.
func (p *PSG) Write(a uint16, v uint16) {
	a &= 0xF
	if a >= regPort1 {
		return
	}
	b := uint8(v)
	switch {
	case a >= regToneHighA && a < regEnvHigh:
		b &= 0x0F
	case a == regNoise:
		b &= 0x1F
	case a == regEnvShape:
		b &= 0x0F
	case a >= regVolumeA:
		b &= 0x3F
	}
	p.regs[a] = b
	if a == regEnvShape {
		p.restartEnvelope()
	}
}

// Region is the bus region at $01F0-$01FF.
func (p *PSG) Region() bus.Region {
	return bus.Region{
		Name: "PSG", Start: Base, End: Base + 0xF,
		Read:  func(a uint16) (uint16, bool) { return p.Read(a), true },
		Peek:  func(a uint16) (uint16, bool) { return p.Peek(a), true },
		Write: func(a uint16, v uint16) { p.Write(a, v) },
	}
}
