package native

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Gabepowell344/bizhawk/internal/core"
	"github.com/Gabepowell344/bizhawk/internal/faults"
	"github.com/Gabepowell344/bizhawk/internal/logger"
	"github.com/Gabepowell344/bizhawk/internal/memory"
	"github.com/Gabepowell344/bizhawk/internal/savestate"
)

// ErrBusy is returned by state calls made while a frame is running.
var ErrBusy = errors.New("native: frame in progress")

var sectionTags = []string{"NENG", "NSRM", "NMEM", "NCNT"}

// Adapter runs an Engine on a dedicated OS thread. Each call parks an action
// in the pending slot, signals the worker and waits for completion.
type Adapter struct {
	systemID string
	def      core.ControllerDefinition

	mu        sync.Mutex // one call at a time
	pending   func()
	work      chan struct{}
	done      chan struct{}
	terminate bool
	closed    bool
	inFrame   atomic.Bool

	engine  Engine
	regions []Region
	domains *memory.Registry

	inputs   core.Inputs
	video    core.VideoFrame
	audio    []int16
	rate     int
	frame    int
	lagCount int
	isLag    bool
}

var _ core.Core = (*Adapter)(nil)

// New starts the worker thread and opens the engine on it.
func New(systemID string, def core.ControllerDefinition, open func() (Engine, error)) (*Adapter, error) {
	a := &Adapter{
		systemID: systemID,
		def:      def,
		work:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go a.worker()

	err := a.call(func() error {
		e, err := open()
		if err != nil {
			a.terminate = true
			return faults.Device("open", err)
		}
		a.engine = e
		a.regions = e.MemoryRegions()
		a.rate = e.SampleRate()
		return nil
	})
	if err != nil {
		a.closed = true
		return nil, err
	}

	domains := make([]*memory.Domain, len(a.regions))
	for i, r := range a.regions {
		mem := r.Mem
		domains[i] = memory.NewDomain(r.Name, len(mem), r.Endian,
			func(addr int) byte { return mem[addr] },
			func(addr int, v byte) { mem[addr] = v })
	}
	if a.domains, err = memory.NewRegistry(domains...); err != nil {
		a.Close()
		return nil, err
	}
	logger.Logf("native", "%s engine open, %d memory regions", systemID, len(a.regions))
	return a, nil
}

func (a *Adapter) worker() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for range a.work {
		a.pending()
		a.pending = nil
		stop := a.terminate
		a.done <- struct{}{}
		if stop {
			return
		}
	}
}

// call runs fn on the worker thread and waits for it.
func (a *Adapter) call(fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return core.ErrClosed
	}
	var err error
	a.pending = func() { err = fn() }
	a.work <- struct{}{}
	<-a.done
	if a.terminate {
		a.closed = true
	}
	return err
}

func (a *Adapter) SystemID() string { return a.systemID }

func (a *Adapter) DeterministicEmulation() bool { return true }

func (a *Adapter) ControllerDefinition() core.ControllerDefinition { return a.def }

func (a *Adapter) SetInputs(in core.Inputs) { a.inputs = in }

// Reset is a soft reset. A "Reset" button in the inputs does the same at
// the start of the next frame, and "Power" does a hard reset.
func (a *Adapter) Reset() error {
	return a.call(func() error { return wrap("soft reset", a.engine.SoftReset()) })
}

// HardReset power cycles the engine.
func (a *Adapter) HardReset() error {
	return a.call(func() error { return wrap("hard reset", a.engine.HardReset()) })
}

func (a *Adapter) AdvanceFrame(render, renderAudio bool) error {
	a.inFrame.Store(true)
	defer a.inFrame.Store(false)
	in := a.inputs
	var polled bool
	err := a.call(func() error {
		switch {
		case in.Buttons["Power"]:
			if err := a.engine.HardReset(); err != nil {
				return faults.Device("hard reset", err)
			}
		case in.Buttons["Reset"]:
			if err := a.engine.SoftReset(); err != nil {
				return faults.Device("soft reset", err)
			}
		}
		if err := a.engine.FrameAdvance(in, render, renderAudio); err != nil {
			return faults.Device("frame advance", err)
		}
		v := a.engine.Video()
		a.video = core.VideoFrame{Pix: append(a.video.Pix[:0], v.Pix...), Width: v.Width, Height: v.Height}
		a.audio = append(a.audio[:0], a.engine.Audio()...)
		polled = a.engine.InputPolled()
		return nil
	})
	if err != nil {
		return err
	}
	a.frame++
	a.isLag = !polled
	if a.isLag {
		a.lagCount++
	}
	return nil
}

func (a *Adapter) VideoFrame() core.VideoFrame { return a.video }

func (a *Adapter) AudioSamples() []int16 { return a.audio }

func (a *Adapter) SampleRate() int { return a.rate }

// MemoryDomains views engine memory directly. Views are not synchronised
// with the worker; use them between frames.
func (a *Adapter) MemoryDomains() *memory.Registry { return a.domains }

func (a *Adapter) ReadSaveRAM() []byte {
	var out []byte
	_ = a.call(func() error {
		out = append([]byte(nil), a.engine.SaveRAM()...)
		return nil
	})
	return out
}

func (a *Adapter) WriteSaveRAM(data []byte) error {
	return a.call(func() error { return wrap("load save RAM", a.engine.LoadSaveRAM(data)) })
}

func (a *Adapter) ClearSaveRAM() {
	if err := a.call(func() error { return a.engine.InitSaveRAM() }); err != nil {
		logger.Logf("native", "clear save RAM: %v", err)
	}
}

func (a *Adapter) Frame() int { return a.frame }

func (a *Adapter) LagCount() int { return a.lagCount }

func (a *Adapter) IsLagFrame() bool { return a.isLag }

func (a *Adapter) ResetCounters() {
	a.frame = 0
	a.lagCount = 0
	a.isLag = false
}

type counters struct {
	Frame    int
	LagCount int
	IsLag    bool
}

// SaveState captures the engine's own state blob, its save RAM, every
// memory region by value and the frame counters.
func (a *Adapter) SaveState() ([]byte, error) {
	if a.inFrame.Load() {
		return nil, ErrBusy
	}
	var blob, sram []byte
	mem := make([][]byte, len(a.regions))
	err := a.call(func() error {
		var err error
		if blob, err = a.engine.SaveState(); err != nil {
			return faults.Device("save state", err)
		}
		sram = append([]byte(nil), a.engine.SaveRAM()...)
		for i, r := range a.regions {
			mem[i] = append([]byte(nil), r.Mem...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	memSec, err := savestate.Gob(sectionTags[2], mem)
	if err != nil {
		return nil, err
	}
	cntSec, err := savestate.Gob(sectionTags[3], counters{a.frame, a.lagCount, a.isLag})
	if err != nil {
		return nil, err
	}
	return savestate.Encode([]savestate.Section{
		{Tag: sectionTags[0], Data: blob},
		{Tag: sectionTags[1], Data: sram},
		memSec,
		cntSec,
	})
}

// LoadState checks the envelope and region sizes before handing anything to
// the engine.
func (a *Adapter) LoadState(data []byte) error {
	if a.inFrame.Load() {
		return ErrBusy
	}
	parts, err := savestate.Decode(data, sectionTags)
	if err != nil {
		return err
	}
	var mem [][]byte
	if err := savestate.Ungob(sectionTags[2], parts[2], &mem); err != nil {
		return err
	}
	var cnt counters
	if err := savestate.Ungob(sectionTags[3], parts[3], &cnt); err != nil {
		return err
	}
	if len(mem) != len(a.regions) {
		return faults.State("%d memory regions, want %d", len(mem), len(a.regions))
	}
	for i, r := range a.regions {
		if len(mem[i]) != len(r.Mem) {
			return faults.State("region %s is %d bytes, want %d", r.Name, len(mem[i]), len(r.Mem))
		}
	}
	err = a.call(func() error {
		prev, err := a.engine.SaveState()
		if err != nil {
			return faults.Device("load state", err)
		}
		if err := a.engine.LoadState(parts[0]); err != nil {
			return faults.Device("load state", err)
		}
		if len(parts[1]) > 0 {
			if err := a.engine.LoadSaveRAM(parts[1]); err != nil {
				// put the engine back the way it was
				if rerr := a.engine.LoadState(prev); rerr != nil {
					logger.Logf("native", "rollback after failed save RAM load: %v", rerr)
				}
				return faults.Device("load save RAM", err)
			}
		}
		for i, r := range a.regions {
			copy(r.Mem, mem[i])
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.frame, a.lagCount, a.isLag = cnt.Frame, cnt.LagCount, cnt.IsLag
	return nil
}

// Close stops the worker after the engine is closed. Later calls return
// core.ErrClosed.
func (a *Adapter) Close() error {
	err := a.call(func() error {
		a.terminate = true
		return wrap("close", a.engine.Close())
	})
	if errors.Is(err, core.ErrClosed) {
		return nil
	}
	return err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return faults.Device(op, err)
}
