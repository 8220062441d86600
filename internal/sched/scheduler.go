package sched

import (
	"errors"
	"fmt"

	"github.com/Gabepowell344/bizhawk/internal/logger"
)

// ErrReentrant is returned by AdvanceFrame when called from inside a frame,
// for example from a bus observer.
var ErrReentrant = errors.New("sched: frame already running")

// FrameStats describes one call to AdvanceFrame. Budget + CarryIn is what the
// frame had to spend; Consumed is what was spent; Carry is the overrun
// handed to the next frame (zero or negative).
type FrameStats struct {
	Budget   int
	CarryIn  int
	Consumed int
	Carry    int
	Slices   int
}

// Scheduler runs the frame loop. It owns the CPU's pending-cycle counter.
type Scheduler struct {
	ic             *Interconnect
	cyclesPerFrame int
	slice          int

	pending int
	frame   int
	running bool
	dead    error
}

// New returns a scheduler that grants the CPU at most slice cycles between
// arbitration points. A slice of 1 arbitrates at every instruction boundary.
func New(ic *Interconnect, cyclesPerFrame, slice int) *Scheduler {
	if slice < 1 {
		slice = 1
	}
	return &Scheduler{ic: ic, cyclesPerFrame: cyclesPerFrame, slice: slice}
}

func (s *Scheduler) Frame() int { return s.frame }

// Running reports whether a frame is in progress.
func (s *Scheduler) Running() bool { return s.running }

// Err returns the error that stopped the machine, if any.
func (s *Scheduler) Err() error { return s.dead }

// AdvanceFrame runs one frame of machine time. A CPU error is fatal: it is
// returned from this and every later call until Reset or Restore.
func (s *Scheduler) AdvanceFrame(wantVideo, wantAudio bool) (FrameStats, error) {
	if s.dead != nil {
		return FrameStats{}, s.dead
	}
	if s.running {
		return FrameStats{}, ErrReentrant
	}
	s.running = true
	defer func() { s.running = false }()

	st := FrameStats{Budget: s.cyclesPerFrame, CarryIn: s.pending}
	s.pending += s.cyclesPerFrame
	for s.pending > 0 {
		n, err := s.ic.CPU.Execute(min(s.pending, s.slice))
		for _, c := range s.ic.Chips {
			c.Step(n, wantVideo, wantAudio)
		}
		s.ic.Propagate()
		s.pending -= n
		st.Slices++
		if err != nil {
			s.dead = fmt.Errorf("frame %d: %w", s.frame, err)
			logger.Log("sched", s.dead.Error())
			return st, s.dead
		}
	}
	st.Carry = s.pending
	st.Consumed = st.Budget + st.CarryIn - st.Carry
	s.frame++
	return st, nil
}

// Reset clears the counters and the fatal error. The carried overrun is
// dropped with them: the chips restart at cycle zero of a frame, and the
// first frame after a reset has CarryIn 0.
func (s *Scheduler) Reset() {
	s.pending = 0
	s.frame = 0
	s.dead = nil
}

// State is the scheduler's part of a save state.
type State struct {
	Pending int
	Frame   int
}

func (s *Scheduler) Snapshot() State { return State{Pending: s.pending, Frame: s.frame} }

// Restore also revives a machine stopped by a fatal error.
func (s *Scheduler) Restore(st State) {
	s.pending = st.Pending
	s.frame = st.Frame
	s.dead = nil
}
