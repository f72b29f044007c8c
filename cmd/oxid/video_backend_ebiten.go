//go:build !headless

// video_backend_ebiten.go - Ebiten window, keyboard input and status bar

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"context"
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/intuitionamiga/oxid"
)

const (
	STATUS_BAR_HEIGHT = 16
	PASTE_LIMIT       = 4096
)

// ebitenKeys maps host keys onto the machine key model. Both shift and
// control keys fold onto one machine key each.
var ebitenKeys = map[ebiten.Key]oxid.Key{
	ebiten.KeyA: oxid.KeyA, ebiten.KeyB: oxid.KeyB, ebiten.KeyC: oxid.KeyC, ebiten.KeyD: oxid.KeyD,
	ebiten.KeyE: oxid.KeyE, ebiten.KeyF: oxid.KeyF, ebiten.KeyG: oxid.KeyG, ebiten.KeyH: oxid.KeyH,
	ebiten.KeyI: oxid.KeyI, ebiten.KeyJ: oxid.KeyJ, ebiten.KeyK: oxid.KeyK, ebiten.KeyL: oxid.KeyL,
	ebiten.KeyM: oxid.KeyM, ebiten.KeyN: oxid.KeyN, ebiten.KeyO: oxid.KeyO, ebiten.KeyP: oxid.KeyP,
	ebiten.KeyQ: oxid.KeyQ, ebiten.KeyR: oxid.KeyR, ebiten.KeyS: oxid.KeyS, ebiten.KeyT: oxid.KeyT,
	ebiten.KeyU: oxid.KeyU, ebiten.KeyV: oxid.KeyV, ebiten.KeyW: oxid.KeyW, ebiten.KeyX: oxid.KeyX,
	ebiten.KeyY: oxid.KeyY, ebiten.KeyZ: oxid.KeyZ,

	ebiten.KeyDigit0: oxid.Key0, ebiten.KeyDigit1: oxid.Key1, ebiten.KeyDigit2: oxid.Key2,
	ebiten.KeyDigit3: oxid.Key3, ebiten.KeyDigit4: oxid.Key4, ebiten.KeyDigit5: oxid.Key5,
	ebiten.KeyDigit6: oxid.Key6, ebiten.KeyDigit7: oxid.Key7, ebiten.KeyDigit8: oxid.Key8,
	ebiten.KeyDigit9: oxid.Key9,

	ebiten.KeyEnter:        oxid.KeyEnter,
	ebiten.KeyNumpadEnter:  oxid.KeyEnter,
	ebiten.KeySpace:        oxid.KeySpace,
	ebiten.KeyBackspace:    oxid.KeyBackspace,
	ebiten.KeyTab:          oxid.KeyTab,
	ebiten.KeyEscape:       oxid.KeyEscape,
	ebiten.KeyShiftLeft:    oxid.KeyShift,
	ebiten.KeyShiftRight:   oxid.KeyShift,
	ebiten.KeyControlLeft:  oxid.KeyControl,
	ebiten.KeyControlRight: oxid.KeyControl,
	ebiten.KeyAltLeft:      oxid.KeyAlt,
	ebiten.KeyAltRight:     oxid.KeyAlt,
	ebiten.KeyMetaLeft:     oxid.KeyMeta,
	ebiten.KeyMetaRight:    oxid.KeyMeta,
	ebiten.KeyCapsLock:     oxid.KeyCapsLock,

	ebiten.KeyArrowUp:    oxid.KeyUp,
	ebiten.KeyArrowDown:  oxid.KeyDown,
	ebiten.KeyArrowLeft:  oxid.KeyLeft,
	ebiten.KeyArrowRight: oxid.KeyRight,

	ebiten.KeyMinus:        oxid.KeyMinus,
	ebiten.KeyEqual:        oxid.KeyEqual,
	ebiten.KeyBracketLeft:  oxid.KeyLeftBracket,
	ebiten.KeyBracketRight: oxid.KeyRightBracket,
	ebiten.KeyBackslash:    oxid.KeyBackslash,
	ebiten.KeySemicolon:    oxid.KeySemicolon,
	ebiten.KeyQuote:        oxid.KeyQuote,
	ebiten.KeyBackquote:    oxid.KeyGrave,
	ebiten.KeyComma:        oxid.KeyComma,
	ebiten.KeyPeriod:       oxid.KeyPeriod,
	ebiten.KeySlash:        oxid.KeySlash,
}

// translateKey returns the machine key for a host key.
func translateKey(k ebiten.Key) (oxid.Key, bool) {
	mk, ok := ebitenKeys[k]
	return mk, ok
}

type EbitenOutput struct {
	runner *Runner
	cancel context.CancelFunc
	errCh  <-chan error
	done   bool
	err    error

	window      *ebiten.Image
	frameBuffer []byte
	width       int
	height      int
	scale       int
	fullscreen  bool

	clipboardOnce sync.Once
	clipboardOK   bool
	showStatusBar bool
	showHelp      bool
}

// runWindow opens the window on the calling goroutine, which ebiten
// requires to be the main one, and runs the machine on another.
func runWindow(ctx context.Context, runner *Runner, scale int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- runner.Run(ctx)
	}()

	eo := &EbitenOutput{
		runner:        runner,
		cancel:        cancel,
		errCh:         errCh,
		scale:         scale,
		showStatusBar: true,
	}
	_, w, h, _ := runner.Snapshot().CopyTo(nil)
	eo.width, eo.height = w, h

	ebiten.SetWindowSize(w*scale, (h+STATUS_BAR_HEIGHT)*scale)
	ebiten.SetWindowTitle("oxid - " + runner.Name())
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	if err := ebiten.RunGame(eo); err != nil {
		return fmt.Errorf("ebiten: %w", err)
	}
	cancel()
	if eo.done {
		return eo.err
	}
	return <-errCh
}

func (eo *EbitenOutput) Update() error {
	select {
	case err := <-eo.errCh:
		eo.done, eo.err = true, err
		return ebiten.Termination
	default:
	}
	if ebiten.IsWindowBeingClosed() {
		eo.cancel()
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		eo.fullscreen = !eo.fullscreen
		ebiten.SetFullscreen(eo.fullscreen)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		eo.runner.RequestReset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		eo.showStatusBar = !eo.showStatusBar
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		eo.showHelp = !eo.showHelp
	}
	eo.handleKeyboardInput()
	return nil
}

func (eo *EbitenOutput) handleKeyboardInput() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		eo.handleClipboardPaste()
		return
	}

	keys := eo.runner.Keys()
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if mk, ok := translateKey(k); ok {
			keys.Push(mk, true)
		}
	}
	for _, k := range inpututil.AppendJustReleasedKeys(nil) {
		if mk, ok := translateKey(k); ok {
			keys.Push(mk, false)
		}
	}
}

func (eo *EbitenOutput) handleClipboardPaste() {
	eo.clipboardOnce.Do(func() {
		eo.clipboardOK = clipboard.Init() == nil
	})
	if !eo.clipboardOK {
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return
	}
	data = normalizePasteText(data)
	if len(data) > PASTE_LIMIT {
		data = data[:PASTE_LIMIT]
	}
	eo.runner.Typer().Type(string(data))
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	var w, h int
	eo.frameBuffer, w, h, _ = eo.runner.Snapshot().CopyTo(eo.frameBuffer)
	if eo.window == nil || w != eo.width || h != eo.height {
		if eo.window != nil {
			eo.window.Dispose()
		}
		eo.width, eo.height = w, h
		eo.window = ebiten.NewImage(w, h)
	}
	eo.window.WritePixels(eo.frameBuffer)
	screen.DrawImage(eo.window, nil)

	if eo.showStatusBar {
		eo.drawStatusBar(screen)
	}
	if eo.showHelp {
		ebitenutil.DebugPrintAt(screen, "F1 help  F10 reset  F11 fullscreen  F12 status\nCtrl+Shift+V paste", 4, 4)
	}
}

func (eo *EbitenOutput) drawStatusBar(screen *ebiten.Image) {
	y := eo.height
	ebitenutil.DrawRect(screen, 0, float64(y), float64(eo.width), STATUS_BAR_HEIGHT, color.RGBA{0, 0, 0, 255})

	status := fmt.Sprintf("%s  frame %d  %.1f fps", eo.runner.Name(), eo.runner.Frames(), ebiten.ActualTPS())
	if eo.runner.Typer().Pending() {
		status += "  typing"
	}
	face := basicfont.Face7x13
	text.Draw(screen, status, face, 4, y+12, color.RGBA{0xC0, 0xC0, 0xC0, 0xFF})
}

func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	if eo.showStatusBar {
		return eo.width, eo.height + STATUS_BAR_HEIGHT
	}
	return eo.width, eo.height
}
