// Package ui is the window player: an ebiten game driving any core.Core.
package ui

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Gabepowell344/bizhawk/internal/core"
	"github.com/Gabepowell344/bizhawk/internal/logger"
)

// fallback geometry until the core has produced a frame
const (
	defaultWidth  = 176
	defaultHeight = 208
)

type App struct {
	cfg    Config
	c      core.Core
	tex    *ebiten.Image
	w, h   int
	paused bool
	fast   bool

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	stream      *pcmStream

	// overlay/menu
	showMenu    bool
	menuMode    string // "main", "slot", "keys"
	menuIdx     int
	currentSlot int
	toastMsg    string
	toastUntil  time.Time
}

func NewApp(cfg Config, c core.Core) (*App, error) {
	cfg.Defaults()
	a := &App{cfg: cfg, c: c, w: defaultWidth, h: defaultHeight, menuMode: "main"}
	if v := c.VideoFrame(); v.Width > 0 && v.Height > 0 {
		a.w, a.h = v.Width, v.Height
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(a.w*cfg.Scale, a.h*cfg.Scale)
	ebiten.SetTPS(60)

	rate := c.SampleRate()
	a.stream = newPCMStream(rate / 4)
	a.stream.SetMuted(cfg.Muted)
	a.audioCtx = audio.NewContext(rate)
	p, err := a.audioCtx.NewPlayer(a.stream)
	if err != nil {
		return nil, fmt.Errorf("ui: audio player: %w", err)
	}
	a.audioPlayer = p
	a.applyPlayerBufferSize()
	a.audioPlayer.Play()
	return a, nil
}

func (a *App) Run() error { return ebiten.RunGame(a) }

// applyPlayerBufferSize halves the buffer during fast-forward.
func (a *App) applyPlayerBufferSize() {
	ms := a.cfg.AudioBufferMs
	if a.fast {
		ms /= 2
	}
	a.audioPlayer.SetBufferSize(time.Duration(ms) * time.Millisecond)
}

func (a *App) toast(msg string) {
	logger.Log("ui", msg)
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.showMenu = !a.showMenu
		a.menuMode = "main"
		a.menuIdx = 0
	}
	if a.showMenu {
		return a.updateMenu()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.cfg.Muted = !a.cfg.Muted
		a.stream.SetMuted(a.cfg.Muted)
	}
	if fast := ebiten.IsKeyPressed(ebiten.KeyTab); fast != a.fast {
		a.fast = fast
		a.applyPlayerBufferSize()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		if err := a.c.Reset(); err != nil {
			a.toast("Reset failed: " + err.Error())
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.saveSlotToast()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.loadSlotToast()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if name, err := a.saveScreenshot(); err != nil {
			a.toast("Screenshot failed: " + err.Error())
		} else {
			a.toast("Saved " + name)
		}
	}

	a.c.SetInputs(pollInputs(a.c.ControllerDefinition()))

	frames := 0
	switch {
	case a.paused && inpututil.IsKeyJustPressed(ebiten.KeyN):
		frames = 1
	case a.paused:
	case a.fast:
		frames = 5
	default:
		frames = 1
	}
	for i := 0; i < frames; i++ {
		// only the last frame of a fast-forward burst is drawn
		if err := a.c.AdvanceFrame(i == frames-1, true); err != nil {
			a.paused = true
			a.toast("Emulation stopped: " + err.Error())
			break
		}
		a.stream.Push(a.c.AudioSamples())
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	v := a.c.VideoFrame()
	if v.Width > 0 && v.Height > 0 && len(v.Pix) == v.Width*v.Height*4 {
		if a.tex == nil || v.Width != a.w || v.Height != a.h {
			a.w, a.h = v.Width, v.Height
			a.tex = ebiten.NewImage(a.w, a.h)
		}
		a.tex.WritePixels(v.Pix)
		screen.DrawImage(a.tex, nil)
	}
	if a.showMenu {
		a.drawMenu(screen)
	} else if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED", 4, 4)
	}
	if time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, a.h-16)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return a.w, a.h }

func (a *App) statePath(slot int) string {
	return filepath.Join(a.cfg.StateDir, fmt.Sprintf("%s.slot%d.state", a.cfg.GameName, slot+1))
}

func (a *App) saveSlot(slot int) error {
	blob, err := a.c.SaveState()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.StateDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(a.statePath(slot), blob, 0o644)
}

func (a *App) loadSlot(slot int) error {
	blob, err := os.ReadFile(a.statePath(slot))
	if err != nil {
		return err
	}
	return a.c.LoadState(blob)
}

func (a *App) saveSlotToast() {
	if err := a.saveSlot(a.currentSlot); err != nil {
		a.toast("Save failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Saved slot %d", a.currentSlot+1))
}

func (a *App) loadSlotToast() {
	if _, err := os.Stat(a.statePath(a.currentSlot)); err != nil {
		a.toast("Slot is empty")
		return
	}
	if err := a.loadSlot(a.currentSlot); err != nil {
		a.toast("Load failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Loaded slot %d", a.currentSlot+1))
}

func (a *App) saveScreenshot() (string, error) {
	v := a.c.VideoFrame()
	img := &image.RGBA{
		Pix:    append([]byte(nil), v.Pix...),
		Stride: 4 * v.Width,
		Rect:   image.Rect(0, 0, v.Width, v.Height),
	}
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return name, png.Encode(f, img)
}
