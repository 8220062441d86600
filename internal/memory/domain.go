// Package memory provides named, addressable byte views over machine memory.
// Views carry no emulation behaviour of their own; they exist so that tools
// can inspect and poke RAM, ROM and register banks without knowing which
// component owns them.
package memory

import (
	"github.com/Gabepowell344/bizhawk/internal/faults"
)

// Endian describes how multi-byte values are laid out in a domain.
type Endian int

const (
	EndianUnknown Endian = iota
	EndianLittle
	EndianBig
)

func (e Endian) String() string {
	switch e {
	case EndianLittle:
		return "little"
	case EndianBig:
		return "big"
	}
	return "unknown"
}

// Observer is called synchronously after every access through a Domain.
type Observer func(addr int, value byte, write bool)

// Domain is a fixed-size byte view. Every address in [0,Size) can be read
// and written; anything else returns a *faults.AddressError.
type Domain struct {
	name      string
	size      int
	endian    Endian
	read      func(addr int) byte
	write     func(addr int, v byte)
	observers []Observer
}

// NewDomain builds a view from accessor functions. A nil write drops writes,
// which is how read-only hardware behaves.
func NewDomain(name string, size int, endian Endian, read func(int) byte, write func(int, byte), observers ...Observer) *Domain {
	return &Domain{name: name, size: size, endian: endian, read: read, write: write, observers: observers}
}

func (d *Domain) Name() string   { return d.name }
func (d *Domain) Size() int      { return d.size }
func (d *Domain) Endian() Endian { return d.endian }

func (d *Domain) Read(addr int) (byte, error) {
	if addr < 0 || addr >= d.size {
		return 0, &faults.AddressError{Domain: d.name, Addr: addr, Size: d.size}
	}
	v := d.read(addr)
	for _, o := range d.observers {
		o(addr, v, false)
	}
	return v, nil
}

func (d *Domain) Write(addr int, v byte) error {
	if addr < 0 || addr >= d.size {
		return &faults.AddressError{Domain: d.name, Addr: addr, Size: d.size, Write: true}
	}
	if d.write != nil {
		d.write(addr, v)
	}
	for _, o := range d.observers {
		o(addr, v, true)
	}
	return nil
}

// Snapshot copies the whole domain. Used to capture memory owned elsewhere by
// value.
func (d *Domain) Snapshot() []byte {
	out := make([]byte, d.size)
	for i := range out {
		out[i] = d.read(i)
	}
	return out
}

// Bytes is a view over a byte slice.
func Bytes(name string, buf []byte, observers ...Observer) *Domain {
	return NewDomain(name, len(buf), EndianLittle,
		func(a int) byte { return buf[a] },
		func(a int, v byte) { buf[a] = v },
		observers...)
}

// ROMBytes is like Bytes but drops writes.
func ROMBytes(name string, buf []byte, observers ...Observer) *Domain {
	return NewDomain(name, len(buf), EndianLittle, func(a int) byte { return buf[a] }, nil, observers...)
}

// Words is a big-endian byte view over 16-bit words; every word contributes
// two bytes, high byte first. mask limits the bits a write can set, which is
// how narrow RAM keeps its undriven bits clear.
func Words(name string, words []uint16, mask uint16, observers ...Observer) *Domain {
	return NewDomain(name, len(words)*2, EndianBig,
		func(a int) byte {
			w := words[a>>1]
			if a&1 == 0 {
				return byte(w >> 8)
			}
			return byte(w)
		},
		func(a int, v byte) {
			w := words[a>>1]
			if a&1 == 0 {
				w = w&0x00FF | uint16(v)<<8
			} else {
				w = w&0xFF00 | uint16(v)
			}
			words[a>>1] = w & mask
		},
		observers...)
}

// NarrowWords views 8-bit memory stored one byte per word. Address n is word n.
func NarrowWords(name string, words []uint16, observers ...Observer) *Domain {
	return NewDomain(name, len(words), EndianLittle,
		func(a int) byte { return byte(words[a]) },
		func(a int, v byte) { words[a] = uint16(v) },
		observers...)
}

// ROMWords is like Words but drops writes.
func ROMWords(name string, words []uint16, observers ...Observer) *Domain {
	d := Words(name, words, 0xFFFF, observers...)
	d.write = nil
	return d
}
