package emu

import (
	"github.com/Gabepowell344/bizhawk/internal/memory"
)

// wordView adapts a word read/poke pair to a big-endian byte domain.
func wordView(name string, words int, peek func(int) uint16, poke func(int, uint16), obs []memory.Observer) *memory.Domain {
	return memory.NewDomain(name, 2*words, memory.EndianBig,
		func(a int) byte {
			w := peek(a >> 1)
			if a&1 == 0 {
				return byte(w >> 8)
			}
			return byte(w)
		},
		func(a int, v byte) {
			w := peek(a >> 1)
			if a&1 == 0 {
				w = w&0x00FF | uint16(v)<<8
			} else {
				w = w&0xFF00 | uint16(v)
			}
			poke(a>>1, w)
		},
		obs...)
}

func (m *Machine) buildDomains() (*memory.Registry, error) {
	var obs []memory.Observer
	if m.cfg.MemoryObserver != nil {
		obs = append(obs, m.cfg.MemoryObserver)
	}
	return memory.NewRegistry(
		memory.Words("Main RAM", m.sysram[:], 0xFFFF, obs...),
		memory.NarrowWords("Scratchpad RAM", m.scratch[:], obs...),
		memory.Bytes("Graphics RAM", m.stic.GRAM(), obs...),
		memory.ROMBytes("Graphics ROM", m.grom, obs...),
		memory.ROMWords("Executive ROM", m.exec[:], obs...),
		wordView("STIC Registers", 0x40,
			func(i int) uint16 {
				v, _ := m.stic.PeekRegister(uint16(i))
				return v
			},
			func(i int, v uint16) { m.stic.PokeRegister(uint16(i), v) },
			obs),
		memory.NewDomain("PSG Registers", 16, memory.EndianLittle,
			func(a int) byte { return byte(m.psg.Peek(uint16(a))) },
			func(a int, v byte) { m.psg.Write(uint16(a), uint16(v)) },
			obs...),
		m.cart.Domain(obs...),
		wordView("System Bus", 0x10000,
			func(i int) uint16 { return m.bus.Peek(uint16(i)) },
			func(i int, v uint16) { m.bus.Poke(uint16(i), v) },
			obs),
	)
}
