// Package faults holds the error values shared by every emulation core.
// Callers test for a class of failure with errors.Is against one of the
// sentinels below; the concrete error carries the detail.
package faults

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a machine cannot be built from the
	// supplied firmware or cartridge image. No partial machine exists.
	ErrConfiguration = errors.New("configuration error")

	// ErrAddress is returned for an access outside every declared region.
	// It always indicates an interpreter or mapper defect.
	ErrAddress = errors.New("address error")

	// ErrState is returned when a save-state blob is malformed, of the wrong
	// size or of an unknown version. The machine is left untouched.
	ErrState = errors.New("state error")

	// ErrTransientDevice is returned when a native engine call fails. The
	// operation is not retried.
	ErrTransientDevice = errors.New("device error")
)

var (
	// ErrFirmwareSize refines ErrConfiguration for firmware of the wrong length.
	ErrFirmwareSize = fmt.Errorf("%w: firmware size mismatch", ErrConfiguration)

	// ErrUnrecognizedImage refines ErrConfiguration for a cartridge image no
	// mapper could host.
	ErrUnrecognizedImage = fmt.Errorf("%w: unrecognized image", ErrConfiguration)
)

// AddressError describes an access outside a region.
type AddressError struct {
	Domain string
	Addr   int
	Size   int
	Write  bool
}

func (e *AddressError) Error() string {
	dir := "read"
	if e.Write {
		dir = "write"
	}
	if e.Size > 0 {
		return fmt.Sprintf("address error: %s %s at %#x outside [0,%#x)", e.Domain, dir, e.Addr, e.Size)
	}
	return fmt.Sprintf("address error: %s %s at %#x is not mapped", e.Domain, dir, e.Addr)
}

func (e *AddressError) Unwrap() error { return ErrAddress }

// FirmwareSize returns an error for a firmware image of the wrong length.
func FirmwareSize(name string, got, want int) error {
	return fmt.Errorf("%w: %s is %d bytes, expected %d", ErrFirmwareSize, name, got, want)
}

// State returns an ErrState with detail.
func State(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

// Device wraps a native engine failure.
func Device(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s failed", ErrTransientDevice, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransientDevice, op, err)
}
