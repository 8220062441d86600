// Package native adapts an externally supplied emulation engine to the
// core contract. The engine is assumed to be thread-affine: every call is
// made from one goroutine locked to one OS thread.
package native

import (
	"github.com/Gabepowell344/bizhawk/internal/core"
	"github.com/Gabepowell344/bizhawk/internal/memory"
)

// Region is a block of engine-owned memory exposed for inspection.
type Region struct {
	Name   string
	Endian memory.Endian
	Mem    []byte
}

// Engine is the native library's surface. Implementations are only ever
// called from the adapter's worker thread.
type Engine interface {
	FrameAdvance(in core.Inputs, render, renderAudio bool) error
	SoftReset() error
	HardReset() error

	SaveState() ([]byte, error)
	LoadState([]byte) error

	SaveRAM() []byte
	LoadSaveRAM([]byte) error
	InitSaveRAM() error

	// MemoryRegions is called once after the engine is opened. The slices
	// must stay valid until Close.
	MemoryRegions() []Region

	Video() core.VideoFrame
	Audio() []int16
	SampleRate() int

	// InputPolled reports whether the last frame read any controller.
	InputPolled() bool

	Close() error
}
