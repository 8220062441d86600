package ui

import (
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const slots = 4

func (a *App) updateMenu() error {
	switch a.menuMode {
	case "slot":
		a.updateSlotMenu()
	case "keys":
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
			a.menuMode = "main"
		}
	default:
		a.updateMainMenu()
	}
	return nil
}

func (a *App) updateMainMenu() {
	last := 5
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < last {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		switch a.menuIdx {
		case 0:
			a.saveSlotToast()
		case 1:
			a.loadSlotToast()
		case 2:
			a.menuMode = "slot"
			a.menuIdx = a.currentSlot
		case 3:
			if err := a.c.Reset(); err != nil {
				a.toast("Reset failed: " + err.Error())
			} else {
				a.toast("Reset")
			}
			a.showMenu = false
		case 4:
			a.menuMode = "keys"
		case 5:
			a.showMenu = false
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.showMenu = false
	}
}

func (a *App) updateSlotMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < slots-1 {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.currentSlot = a.menuIdx
		a.toast(fmt.Sprintf("Slot set to %d", a.currentSlot+1))
		a.menuMode = "main"
		a.menuIdx = 2
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.menuMode = "main"
		a.menuIdx = 2
	}
}

func (a *App) drawMenu(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, float32(a.w), float32(a.h), color.RGBA{0, 0, 0, 160}, false)
	var lines []string
	switch a.menuMode {
	case "slot":
		lines = []string{"Select Slot:"}
		for i := 0; i < slots; i++ {
			state := "[empty]"
			if _, err := os.Stat(a.statePath(i)); err == nil {
				state = ""
			}
			lines = append(lines, fmt.Sprintf("%d %s", i+1, state))
		}
	case "keys":
		lines = []string{"Keys:"}
		for _, b := range bindings {
			lines = append(lines, fmt.Sprintf("%-10s %s", b.key, b.button))
		}
		lines = append(lines, "P pause  N step  Tab fast  M mute", "F1 reset  F5 save  F9 load  F12 shot")
		for i, s := range lines {
			ebitenutil.DebugPrintAt(screen, s, 4, 4+i*10)
		}
		return
	default:
		lines = []string{
			"Menu:",
			fmt.Sprintf("Save state (slot %d)", a.currentSlot+1),
			fmt.Sprintf("Load state (slot %d)", a.currentSlot+1),
			"Select slot",
			"Reset",
			"Keybindings",
			"Close",
		}
	}
	for i, s := range lines {
		prefix := "  "
		if i == a.menuIdx+1 {
			prefix = "> "
		}
		if i == 0 {
			prefix = ""
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 10, 10+i*14)
	}
}
