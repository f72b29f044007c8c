package oxid

/*
machine.go - Host key model and the Machine interface

Core Features:

    Key: host-neutral key identities. Each machine maps them onto its own
    keyboard hardware (Spectrum matrix, Master System pad bits, Mac
    keyboard transition codes).
    Machine: what a front end drives once per host frame.
    NewMachine builds one from a MachineConfig and a ROM image.
*/

import (
	"fmt"
	"strings"
)

type Key int

const (
	KeyNone Key = iota

	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	KeyEnter
	KeySpace
	KeyBackspace
	KeyTab
	KeyEscape
	KeyShift
	KeyControl
	KeyAlt
	KeyMeta
	KeyCapsLock

	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	KeyMinus
	KeyEqual
	KeyLeftBracket
	KeyRightBracket
	KeyBackslash
	KeySemicolon
	KeyQuote
	KeyGrave
	KeyComma
	KeyPeriod
	KeySlash

	keyCount
)

var keyNames = [keyCount]string{
	KeyNone: "none",
	KeyA:    "a", KeyB: "b", KeyC: "c", KeyD: "d", KeyE: "e", KeyF: "f", KeyG: "g",
	KeyH: "h", KeyI: "i", KeyJ: "j", KeyK: "k", KeyL: "l", KeyM: "m", KeyN: "n",
	KeyO: "o", KeyP: "p", KeyQ: "q", KeyR: "r", KeyS: "s", KeyT: "t", KeyU: "u",
	KeyV: "v", KeyW: "w", KeyX: "x", KeyY: "y", KeyZ: "z",
	Key0: "0", Key1: "1", Key2: "2", Key3: "3", Key4: "4",
	Key5: "5", Key6: "6", Key7: "7", Key8: "8", Key9: "9",
	KeyEnter:        "enter",
	KeySpace:        "space",
	KeyBackspace:    "backspace",
	KeyTab:          "tab",
	KeyEscape:       "escape",
	KeyShift:        "shift",
	KeyControl:      "control",
	KeyAlt:          "alt",
	KeyMeta:         "meta",
	KeyCapsLock:     "capslock",
	KeyUp:           "up",
	KeyDown:         "down",
	KeyLeft:         "left",
	KeyRight:        "right",
	KeyMinus:        "-",
	KeyEqual:        "=",
	KeyLeftBracket:  "[",
	KeyRightBracket: "]",
	KeyBackslash:    "\\",
	KeySemicolon:    ";",
	KeyQuote:        "'",
	KeyGrave:        "`",
	KeyComma:        ",",
	KeyPeriod:       ".",
	KeySlash:        "/",
}

func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyNames[k]
}

// ParseKey looks a key up by its String name, case-insensitively.
func ParseKey(name string) (Key, bool) {
	name = strings.ToLower(name)
	for k, n := range keyNames {
		if n == name {
			return Key(k), true
		}
	}
	return KeyNone, false
}

// KeyForRune maps a typed character to the key and whether shift is
// needed. It covers the unshifted US layout plus upper case letters.
func KeyForRune(r rune) (k Key, shift bool, ok bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return KeyA + Key(r-'a'), false, true
	case r >= 'A' && r <= 'Z':
		return KeyA + Key(r-'A'), true, true
	case r >= '0' && r <= '9':
		return Key0 + Key(r-'0'), false, true
	}
	switch r {
	case '\r', '\n':
		return KeyEnter, false, true
	case ' ':
		return KeySpace, false, true
	case '\t':
		return KeyTab, false, true
	case 0x7F, '\b':
		return KeyBackspace, false, true
	case 0x1B:
		return KeyEscape, false, true
	}
	for k := KeyMinus; k <= KeySlash; k++ {
		if keyNames[k] == string(r) {
			return k, false, true
		}
	}
	return KeyNone, false, false
}

// Machine is a complete emulated computer.
type Machine interface {
	Name() string
	Reset() error
	// RunFrame advances one video frame.
	RunFrame() error
	Frame() []byte
	FrameSize() (w, h int)
	// FrameRate is the native refresh rate in Hz.
	FrameRate() float64
	KeyDown(k Key)
	KeyUp(k Key)
	System() *System
	Sound() *SoundStub
}

// NewMachine builds the machine cfg names around rom.
func NewMachine(cfg MachineConfig, rom []byte) (Machine, error) {
	if err := cfg.Validate(false); err != nil {
		return nil, err
	}
	switch cfg.Model {
	case ModelMacPlus:
		return NewMacPlus(rom, cfg)
	case ModelSMS:
		return NewMasterSystem(rom, cfg)
	case ModelSpectrum:
		return NewSpectrum48K(rom, cfg)
	}
	return nil, &ConfigError{Field: "model", Value: cfg.Model, Reason: "unknown model"}
}
