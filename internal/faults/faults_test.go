package faults

import (
	"errors"
	"io"
	"testing"
)

func TestAddressErrorUnwraps(t *testing.T) {
	var err error = &AddressError{Domain: "Main RAM", Addr: 0x160, Size: 0x160}
	if !errors.Is(err, ErrAddress) {
		t.Fatalf("AddressError does not match ErrAddress")
	}
	var ae *AddressError
	if !errors.As(err, &ae) || ae.Addr != 0x160 {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestRefinedConfigurationErrors(t *testing.T) {
	err := FirmwareSize("GROM", 100, 2048)
	if !errors.Is(err, ErrFirmwareSize) || !errors.Is(err, ErrConfiguration) {
		t.Fatalf("firmware error chain broken: %v", err)
	}
	if !errors.Is(ErrUnrecognizedImage, ErrConfiguration) {
		t.Fatalf("unrecognized image is not a configuration error")
	}
	if errors.Is(ErrUnrecognizedImage, ErrState) {
		t.Fatalf("unexpected match against ErrState")
	}
}

func TestDeviceKeepsCause(t *testing.T) {
	err := Device("frame advance", io.ErrUnexpectedEOF)
	if !errors.Is(err, ErrTransientDevice) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("device error chain broken: %v", err)
	}
}
