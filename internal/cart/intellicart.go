package cart

import (
	"errors"
	"fmt"

	"github.com/Gabepowell344/bizhawk/internal/faults"
	"github.com/Gabepowell344/bizhawk/internal/memory"
)

const (
	icSignature = 0xA8
	icPages     = 32 // 2K-word pages in the 64K address space
	icPageShift = 11

	// bank select registers, one per page
	BankBase = 0x0040
	BankEnd  = BankBase + icPages - 1
)

// page attributes
const (
	attrRead   = 1 << 0
	attrWrite  = 1 << 1
	attrNarrow = 1 << 2
	attrBank   = 1 << 3
)

// Intellicart is the .ROM format: a header, CRC-checked segments and a page
// attribute table. Pages with the bank attribute are remapped through the
// bank registers at $0040-$005F.
type Intellicart struct {
	words    [1 << 16]uint16
	attr     [icPages]uint8
	banks    [icPages]uint16
	loaded   [icPages]bool // pages holding image data
	segments int
}

// ParseIntellicart decodes a .ROM image. The layout is:
//
//	A8 n ^n
//	n x { start_hi end_hi words... crc_hi crc_lo }
//	16 bytes of attributes, two pages per byte (even page in the low nibble)
//
// Anything after the attribute table (the fine address table) is ignored.
func ParseIntellicart(image []byte) (*Intellicart, error) {
	if len(image) < 3 || image[0] != icSignature || image[1]^image[2] != 0xFF {
		return nil, errors.New("intellicart: bad signature")
	}
	ic := &Intellicart{segments: int(image[1])}
	p := 3
	for seg := 0; seg < ic.segments; seg++ {
		if p+2 > len(image) {
			return nil, fmt.Errorf("intellicart: segment %d header truncated", seg)
		}
		start := int(image[p]) << 8
		end := int(image[p+1])<<8 | 0xFF
		if end < start {
			return nil, fmt.Errorf("intellicart: segment %d ends before it starts", seg)
		}
		n := end - start + 1
		body := image[p : p+2]
		if p+2+2*n+2 > len(image) {
			return nil, fmt.Errorf("intellicart: segment %d truncated", seg)
		}
		data := image[p+2 : p+2+2*n]
		for i := 0; i < n; i++ {
			ic.words[start+i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
		}
		for pg := start >> icPageShift; pg <= end>>icPageShift; pg++ {
			ic.loaded[pg] = true
		}
		want := uint16(image[p+2+2*n])<<8 | uint16(image[p+2+2*n+1])
		if got := CRC16(CRC16(0xFFFF, body), data); got != want {
			return nil, fmt.Errorf("intellicart: segment %d crc %04X want %04X", seg, got, want)
		}
		p += 2 + 2*n + 2
	}
	if p+icPages/2 > len(image) {
		return nil, errors.New("intellicart: attribute table truncated")
	}
	for i := 0; i < icPages/2; i++ {
		b := image[p+i]
		ic.attr[2*i] = b & 0x0F
		ic.attr[2*i+1] = b >> 4
	}
	ic.Reset()
	return ic, nil
}

func (ic *Intellicart) Name() string { return "intellicart" }

// Ranges merges adjacent mapped pages and adds the bank registers when any
// page is bank switched.
func (ic *Intellicart) Ranges() []Range {
	var out []Range
	banked := false
	for pg := 0; pg < icPages; pg++ {
		a := ic.attr[pg]
		banked = banked || a&attrBank != 0
		if a&(attrRead|attrWrite) == 0 {
			continue
		}
		start := uint16(pg << icPageShift)
		end := start + (1 << icPageShift) - 1
		if n := len(out); n > 0 && out[n-1].End+1 == start {
			out[n-1].End = end
			continue
		}
		out = append(out, Range{Start: start, End: end})
	}
	if banked {
		out = append(out, Range{Start: BankBase, End: BankEnd})
	}
	return out
}

func (ic *Intellicart) effective(addr uint16) (int, uint8) {
	pg := addr >> icPageShift
	a := ic.attr[pg]
	if a&attrBank == 0 {
		return int(addr), a
	}
	return int(ic.banks[pg]&0x1F)<<icPageShift | int(addr&0x7FF), a
}

func (ic *Intellicart) Read(addr uint16) (uint16, bool) {
	i, a := ic.effective(addr)
	if a&attrRead == 0 {
		return 0, false
	}
	v := ic.words[i]
	if a&attrNarrow != 0 {
		v &= 0xFF
	}
	return v, true
}

func (ic *Intellicart) Write(addr uint16, v uint16) {
	if addr >= BankBase && addr <= BankEnd {
		if pg := addr - BankBase; ic.attr[pg]&attrBank != 0 {
			ic.banks[pg] = v & 0x1F
		}
		return
	}
	i, a := ic.effective(addr)
	if a&attrWrite == 0 {
		return
	}
	if a&attrNarrow != 0 {
		v &= 0xFF
	}
	ic.words[i] = v
}

// Reset maps every page to itself. RAM contents survive.
func (ic *Intellicart) Reset() {
	for i := range ic.banks {
		ic.banks[i] = uint16(i)
	}
}

// bankedRAM reports whether a writable page is bank switched. Its register
// can point it at any page, so every page becomes reachable by writes.
func (ic *Intellicart) bankedRAM() bool {
	for _, a := range ic.attr {
		if a&(attrWrite|attrBank) == attrWrite|attrBank {
			return true
		}
	}
	return false
}

// statePages lists the pages a CPU write can reach, in address order.
func (ic *Intellicart) statePages() []int {
	banked := ic.bankedRAM()
	var pages []int
	for pg := 0; pg < icPages; pg++ {
		if banked || ic.attr[pg]&attrWrite != 0 {
			pages = append(pages, pg)
		}
	}
	return pages
}

// savePages is statePages without the pages loaded from the image, unless
// they are writable in place. Clearing save RAM never erases the program.
func (ic *Intellicart) savePages() []int {
	var pages []int
	for _, pg := range ic.statePages() {
		if !ic.loaded[pg] || ic.attr[pg]&attrWrite != 0 {
			pages = append(pages, pg)
		}
	}
	return pages
}

func (ic *Intellicart) ram(pages []int) []uint16 {
	out := make([]uint16, 0, len(pages)<<icPageShift)
	for _, pg := range pages {
		base := pg << icPageShift
		out = append(out, ic.words[base:base+1<<icPageShift]...)
	}
	return out
}

func (ic *Intellicart) setRAM(pages []int, ram []uint16) {
	for i, pg := range pages {
		base := pg << icPageShift
		copy(ic.words[base:base+1<<icPageShift], ram[i<<icPageShift:])
	}
}

func (ic *Intellicart) Snapshot() State {
	return State{Banks: append([]uint16(nil), ic.banks[:]...), RAM: ic.ram(ic.statePages())}
}

func (ic *Intellicart) Restore(s State) error {
	if len(s.Banks) != icPages {
		return faults.State("intellicart: %d bank registers, want %d", len(s.Banks), icPages)
	}
	pages := ic.statePages()
	if want := len(pages) << icPageShift; len(s.RAM) != want {
		return faults.State("intellicart: %d RAM words, want %d", len(s.RAM), want)
	}
	copy(ic.banks[:], s.Banks)
	ic.setRAM(pages, s.RAM)
	return nil
}

// SaveRAM returns the RAM pages as big-endian bytes.
func (ic *Intellicart) SaveRAM() []byte {
	ram := ic.ram(ic.savePages())
	out := make([]byte, 2*len(ram))
	for i, w := range ram {
		out[2*i] = byte(w >> 8)
		out[2*i+1] = byte(w)
	}
	return out
}

// LoadRAM is the inverse of SaveRAM. Data of the wrong size is ignored.
func (ic *Intellicart) LoadRAM(data []byte) {
	pages := ic.savePages()
	n := len(pages) << icPageShift
	if len(data) != 2*n {
		return
	}
	ram := make([]uint16, n)
	for i := range ram {
		ram[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	ic.setRAM(pages, ram)
}

func (ic *Intellicart) Domain(obs ...memory.Observer) *memory.Domain {
	return memory.Words("Cartridge", ic.words[:], 0xFFFF, obs...)
}
