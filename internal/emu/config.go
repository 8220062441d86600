package emu

import (
	"github.com/Gabepowell344/bizhawk/internal/bus"
	"github.com/Gabepowell344/bizhawk/internal/memory"
	"github.com/Gabepowell344/bizhawk/internal/psg"
)

// Config contains settings that affect how the machine is built. None of
// them change emulated behaviour.
type Config struct {
	SampleRate int // PSG output rate in Hz
	Slice      int // max CPU cycles between arbitration points

	// Observers are attached at construction and called synchronously.
	BusObserver    bus.Observer    // every CPU-side access
	MemoryObserver memory.Observer // every access through a memory domain

	Tracer func(pc uint16) // called before every instruction
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = psg.DefaultSampleRate
	}
	if c.Slice <= 0 {
		c.Slice = 1
	}
}
