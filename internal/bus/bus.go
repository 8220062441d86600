// Package bus implements the CPU-side address space: an ordered table of
// decoded regions with open-bus behaviour for addresses nobody drives.
package bus

import (
	"fmt"

	"github.com/Gabepowell344/bizhawk/internal/faults"
)

// Region is one decoded address range. Start and End are inclusive.
//
// Read reports whether the device drove the data lines; a device that is
// gated off (the STIC outside vertical blank, an unmapped cartridge page)
// returns false and the bus yields its open-bus value. Peek is an optional
// side-effect-free read for tools; when nil Read is used.
type Region struct {
	Name       string
	Start, End uint16
	Read       func(addr uint16) (uint16, bool)
	Peek       func(addr uint16) (uint16, bool)
	Write      func(addr uint16, v uint16)
}

func (r *Region) contains(addr uint16) bool { return addr >= r.Start && addr <= r.End }

// Observer sees every CPU-side access after it completes.
type Observer func(addr, value uint16, write bool)

// Stats counts CPU-side accesses.
type Stats struct {
	Reads  uint64
	Writes uint64
}

// Bus decodes 16-bit addresses to regions. Regions are consulted in the
// order they were mapped; the first one that drives a read wins, and writes
// are delivered to every region containing the address.
type Bus struct {
	regions   []Region
	openBus   uint16
	stats     Stats
	observers []Observer
}

func New(observers ...Observer) *Bus {
	return &Bus{observers: observers}
}

// Map appends a region.
func (b *Bus) Map(r Region) error {
	if r.End < r.Start {
		return fmt.Errorf("%w: region %q ends before it starts", faults.ErrConfiguration, r.Name)
	}
	if r.Read == nil {
		r.Read = func(uint16) (uint16, bool) { return 0, false }
	}
	b.regions = append(b.regions, r)
	return nil
}

// Regions returns the mapped regions in priority order.
func (b *Bus) Regions() []Region { return b.regions }

func (b *Bus) Read(addr uint16) (uint16, error) {
	v, err := b.read(addr, false)
	if err != nil {
		return 0, err
	}
	b.stats.Reads++
	for _, o := range b.observers {
		o(addr, v, false)
	}
	return v, nil
}

func (b *Bus) Write(addr uint16, v uint16) error {
	hit := false
	for i := range b.regions {
		r := &b.regions[i]
		if !r.contains(addr) {
			continue
		}
		hit = true
		if r.Write != nil {
			r.Write(addr, v)
		}
	}
	if !hit {
		return &faults.AddressError{Domain: "System Bus", Addr: int(addr), Write: true}
	}
	b.openBus = v
	b.stats.Writes++
	for _, o := range b.observers {
		o(addr, v, true)
	}
	return nil
}

// Peek reads without side effects, counters or observers. Undriven
// addresses return the current open-bus value; undeclared ones return 0.
func (b *Bus) Peek(addr uint16) uint16 {
	v, err := b.read(addr, true)
	if err != nil {
		return 0
	}
	return v
}

// Poke writes without touching counters, observers or the open-bus latch.
func (b *Bus) Poke(addr uint16, v uint16) {
	for i := range b.regions {
		r := &b.regions[i]
		if r.contains(addr) && r.Write != nil {
			r.Write(addr, v)
		}
	}
}

func (b *Bus) read(addr uint16, peek bool) (uint16, error) {
	hit := false
	for i := range b.regions {
		r := &b.regions[i]
		if !r.contains(addr) {
			continue
		}
		hit = true
		read := r.Read
		if peek && r.Peek != nil {
			read = r.Peek
		}
		if v, ok := read(addr); ok {
			if !peek {
				b.openBus = v
			}
			return v, nil
		}
	}
	if !hit {
		return 0, &faults.AddressError{Domain: "System Bus", Addr: int(addr)}
	}
	return b.openBus, nil
}

func (b *Bus) Stats() Stats { return b.stats }

// OpenBus is the value left on the data lines by the last driven access.
func (b *Bus) OpenBus() uint16 { return b.openBus }

func (b *Bus) SetOpenBus(v uint16) { b.openBus = v }
