package cart

import (
	"errors"

	"github.com/Gabepowell344/bizhawk/internal/faults"
	"github.com/Gabepowell344/bizhawk/internal/memory"
)

// flatLayout is where successive chunks of a raw image land. Images larger
// than the sum are not flat images.
var flatLayout = []struct {
	base  uint16
	words int
}{
	{0x5000, 0x2000},
	{0xD000, 0x1000},
	{0xF000, 0x1000},
}

// Flat is a raw ROM dump of big-endian words with no header.
type Flat struct {
	words  []uint16
	ranges []Range
	offs   []int // word offset of each range within words
}

func ParseFlat(image []byte) (*Flat, error) {
	if len(image) == 0 || len(image)%2 != 0 {
		return nil, errors.New("flat: length must be even and non-zero")
	}
	n := len(image) / 2
	f := &Flat{words: make([]uint16, n)}
	for i := range f.words {
		f.words[i] = uint16(image[2*i])<<8 | uint16(image[2*i+1])
	}
	off := 0
	for _, l := range flatLayout {
		if off >= n {
			break
		}
		size := min(l.words, n-off)
		f.ranges = append(f.ranges, Range{Start: l.base, End: l.base + uint16(size-1)})
		f.offs = append(f.offs, off)
		off += size
	}
	if off < n {
		return nil, errors.New("flat: image too large")
	}
	return f, nil
}

func (f *Flat) Name() string { return "flat" }

func (f *Flat) Ranges() []Range { return f.ranges }

func (f *Flat) Read(addr uint16) (uint16, bool) {
	for i, r := range f.ranges {
		if addr >= r.Start && addr <= r.End {
			return f.words[f.offs[i]+int(addr-r.Start)], true
		}
	}
	return 0, false
}

// Write is ignored: flat images are ROM.
func (f *Flat) Write(uint16, uint16) {}

func (f *Flat) Reset() {}

func (f *Flat) Snapshot() State { return State{} }

func (f *Flat) Restore(s State) error {
	if len(s.Banks) != 0 || len(s.RAM) != 0 {
		return faults.State("flat cartridge has no state, got %d banks %d words", len(s.Banks), len(s.RAM))
	}
	return nil
}

func (f *Flat) Domain(obs ...memory.Observer) *memory.Domain {
	return memory.Words("Cartridge", f.words, 0xFFFF, obs...)
}
