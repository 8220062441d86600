package emu

import (
	"maps"

	"github.com/Gabepowell344/bizhawk/internal/core"
)

var controller = func() core.ControllerDefinition {
	d := core.ControllerDefinition{Name: "Intellivision Controller"}
	for _, p := range []string{"P1", "P2"} {
		for _, b := range []string{"Up", "Down", "Left", "Right", "L", "R", "Top",
			"Key0", "Key1", "Key2", "Key3", "Key4", "Key5", "Key6", "Key7", "Key8", "Key9",
			"Enter", "Clear"} {
			d.Buttons = append(d.Buttons, p+" "+b)
		}
	}
	d.Buttons = append(d.Buttons, "Reset")
	return d
}()

func (m *Machine) ControllerDefinition() core.ControllerDefinition { return controller }

// SetInputs latches the controller state for the next frame.
func (m *Machine) SetInputs(in core.Inputs) {
	m.inputs = core.Inputs{Buttons: maps.Clone(in.Buttons), Analog: maps.Clone(in.Analog)}
}

// Hand controller codes as seen on a port, active high. Keypad keys, side
// buttons and the disc each pull a distinct combination of lines; pressing
// several at once ORs them together.
var keypad = map[string]uint8{
	"Key1": 0x81, "Key2": 0x41, "Key3": 0x21,
	"Key4": 0x82, "Key5": 0x42, "Key6": 0x22,
	"Key7": 0x84, "Key8": 0x44, "Key9": 0x24,
	"Clear": 0x88, "Key0": 0x48, "Enter": 0x28,
	"Top": 0xA0, "L": 0x60, "R": 0xC0,
}

const (
	discN  = 0x04
	discNE = 0x16
	discE  = 0x02
	discSE = 0x13
	discS  = 0x01
	discSW = 0x19
	discW  = 0x08
	discNW = 0x1C
)

func portCode(in core.Inputs, player string) uint8 {
	held := func(b string) bool { return in.Buttons[player+" "+b] }
	var code uint8
	for b, c := range keypad {
		if held(b) {
			code |= c
		}
	}
	up, down := held("Up"), held("Down")
	left, right := held("Left"), held("Right")
	if up && down {
		up, down = false, false
	}
	if left && right {
		left, right = false, false
	}
	switch {
	case up && right:
		code |= discNE
	case up && left:
		code |= discNW
	case down && right:
		code |= discSE
	case down && left:
		code |= discSW
	case up:
		code |= discN
	case down:
		code |= discS
	case left:
		code |= discW
	case right:
		code |= discE
	}
	return code
}
