package psg

// State is the generator state. Pending samples are not part of it.
type State struct {
	Regs       [14]uint8
	Ports      [2]uint8
	Tone       [3]int
	ToneOut    [3]bool
	Noise      int
	NoiseOut   bool
	LFSR       uint32
	Env        int
	EnvStep    int
	EnvAttack  bool
	EnvHolding bool
	EnvVol     int
	Rem        int
	Acc        int
	Polled     bool
}

func (p *PSG) Snapshot() State {
	return State{
		Regs: p.regs, Ports: p.ports,
		Tone: p.tone, ToneOut: p.toneOut,
		Noise: p.noise, NoiseOut: p.noiseOut, LFSR: p.lfsr,
		Env: p.env, EnvStep: p.envStep, EnvAttack: p.envAttack,
		EnvHolding: p.envHolding, EnvVol: p.envVol,
		Rem: p.rem, Acc: p.acc, Polled: p.polled,
	}
}

func (p *PSG) Restore(s State) {
	p.regs, p.ports = s.Regs, s.Ports
	p.tone, p.toneOut = s.Tone, s.ToneOut
	p.noise, p.noiseOut, p.lfsr = s.Noise, s.NoiseOut, s.LFSR
	p.env, p.envStep, p.envAttack = s.Env, s.EnvStep, s.EnvAttack
	p.envHolding, p.envVol = s.EnvHolding, s.EnvVol
	p.rem, p.acc, p.polled = s.Rem, s.Acc, s.Polled
	p.samples = p.samples[:0]
}
