// Package sched paces a CPU and its peripheral chips through video frames
// and routes the control lines between them.
package sched

// Processor is the bus master the scheduler drives.
type Processor interface {
	Execute(budget int) (int, error)
	SetInterruptLine(level bool)
	SetBusRequest(level bool)
	BusAcknowledge() bool
}

// Chip is a peripheral clocked in lockstep with the processor.
type Chip interface {
	Step(cycles int, wantVideo, wantAudio bool)
	Interrupt() bool
	BusRequest() bool
	SetBusAcknowledge(level bool)
}

// Interconnect wires chip outputs to CPU inputs and back. It holds no state
// of its own: every Propagate recomputes the lines from current levels.
type Interconnect struct {
	CPU   Processor
	Chips []Chip
}

// Propagate drives INTRM with the OR of every chip's interrupt output,
// BUSRQ with the OR of every bus request, and every chip's SST input with
// BUSAK.
func (ic *Interconnect) Propagate() {
	var intr, busrq bool
	for _, c := range ic.Chips {
		intr = intr || c.Interrupt()
		busrq = busrq || c.BusRequest()
	}
	ic.CPU.SetInterruptLine(intr)
	ic.CPU.SetBusRequest(busrq)
	ack := ic.CPU.BusAcknowledge()
	for _, c := range ic.Chips {
		c.SetBusAcknowledge(ack)
	}
}
