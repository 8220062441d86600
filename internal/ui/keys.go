package ui

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Gabepowell344/bizhawk/internal/core"
)

type binding struct {
	key    ebiten.Key
	button string
}

// Player 1 keyboard layout. The keypad is on the number row.
var bindings = []binding{
	{ebiten.KeyArrowUp, "P1 Up"},
	{ebiten.KeyArrowDown, "P1 Down"},
	{ebiten.KeyArrowLeft, "P1 Left"},
	{ebiten.KeyArrowRight, "P1 Right"},
	{ebiten.KeyZ, "P1 L"},
	{ebiten.KeyX, "P1 R"},
	{ebiten.KeyC, "P1 Top"},
	{ebiten.KeyDigit0, "P1 Key0"},
	{ebiten.KeyDigit1, "P1 Key1"},
	{ebiten.KeyDigit2, "P1 Key2"},
	{ebiten.KeyDigit3, "P1 Key3"},
	{ebiten.KeyDigit4, "P1 Key4"},
	{ebiten.KeyDigit5, "P1 Key5"},
	{ebiten.KeyDigit6, "P1 Key6"},
	{ebiten.KeyDigit7, "P1 Key7"},
	{ebiten.KeyDigit8, "P1 Key8"},
	{ebiten.KeyDigit9, "P1 Key9"},
	{ebiten.KeyEnter, "P1 Enter"},
	{ebiten.KeyBackspace, "P1 Clear"},
}

// pollInputs reads the keyboard. Buttons the core does not define are
// left out.
func pollInputs(def core.ControllerDefinition) core.Inputs {
	in := core.Inputs{Buttons: map[string]bool{}}
	for _, b := range bindings {
		if ebiten.IsKeyPressed(b.key) && def.Has(b.button) {
			in.Buttons[b.button] = true
		}
	}
	return in
}
