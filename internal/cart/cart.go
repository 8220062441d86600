// Package cart decodes Intellivision cartridge images into address mappers.
package cart

import (
	"fmt"

	"github.com/Gabepowell344/bizhawk/internal/faults"
	"github.com/Gabepowell344/bizhawk/internal/logger"
	"github.com/Gabepowell344/bizhawk/internal/memory"
)

// Range is an inclusive span of CPU addresses a mapper decodes.
type Range struct {
	Start, End uint16
}

// Mapper answers the CPU for the address ranges it declares. Read reports
// false when the mapper does not drive the bus for that address.
type Mapper interface {
	Name() string
	Ranges() []Range
	Read(addr uint16) (uint16, bool)
	Write(addr uint16, v uint16)
	Reset()

	// Snapshot and Restore cover bank registers and writable memory.
	// Restore is all or nothing: on error the mapper is unchanged.
	Snapshot() State
	Restore(State) error

	// Domain is a byte view over the whole cartridge address space. The
	// observers see every access through it.
	Domain(obs ...memory.Observer) *memory.Domain
}

// BatteryBacked is an optional interface for cartridges with RAM to be
// persisted between sessions.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// State is the serialisable part of a mapper.
type State struct {
	Banks []uint16
	RAM   []uint16
}

// Load tries each image format in turn, Intellicart first. The first parser
// that accepts the image wins.
func Load(image []byte) (Mapper, error) {
	ic, err := ParseIntellicart(image)
	if err == nil {
		logger.Logf("cart", "intellicart image, %d segments", ic.segments)
		return ic, nil
	}
	logger.Logf("cart", "not an intellicart image: %v", err)
	if f, err := ParseFlat(image); err == nil {
		logger.Logf("cart", "flat image, %d words", len(f.words))
		return f, nil
	}
	return nil, fmt.Errorf("%w: %d bytes", faults.ErrUnrecognizedImage, len(image))
}
