// Package core is the contract every emulated system offers to a host.
package core

import (
	"errors"
	"slices"

	"github.com/Gabepowell344/bizhawk/internal/memory"
)

// ErrClosed is returned by every call on a core after Close.
var ErrClosed = errors.New("core closed")

// Core is one loaded game session.
type Core interface {
	SystemID() string
	// DeterministicEmulation reports whether identical inputs always give
	// identical outputs, which movie recording relies on.
	DeterministicEmulation() bool

	// Reset is a soft reset of the whole machine.
	Reset() error

	// AdvanceFrame runs exactly one video frame. render and renderAudio are
	// hints: when false the core may skip producing pixels or samples, but
	// emulated state advances identically.
	AdvanceFrame(render, renderAudio bool) error

	ControllerDefinition() ControllerDefinition
	// SetInputs latches the controller state used by the next frame.
	SetInputs(Inputs)

	VideoFrame() VideoFrame
	AudioSamples() []int16
	SampleRate() int

	SaveState() ([]byte, error)
	LoadState([]byte) error

	MemoryDomains() *memory.Registry

	ReadSaveRAM() []byte
	WriteSaveRAM([]byte) error
	ClearSaveRAM()

	Frame() int
	LagCount() int
	IsLagFrame() bool
	ResetCounters()

	Close() error
}

// ControllerDefinition names the inputs a core understands.
type ControllerDefinition struct {
	Name    string
	Buttons []string
	Analog  []string
}

// Has reports whether button is part of the definition.
func (d ControllerDefinition) Has(button string) bool {
	return slices.Contains(d.Buttons, button)
}

// Inputs is a controller snapshot. Missing buttons are released.
type Inputs struct {
	Buttons map[string]bool
	Analog  map[string]float64
}

// Pressed returns a set of held buttons.
func Pressed(buttons ...string) Inputs {
	in := Inputs{Buttons: make(map[string]bool, len(buttons))}
	for _, b := range buttons {
		in.Buttons[b] = true
	}
	return in
}

// VideoFrame is an RGBA image, 4 bytes per pixel, row major.
type VideoFrame struct {
	Pix           []byte
	Width, Height int
}
