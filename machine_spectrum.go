package oxid

/*
machine_spectrum.go - ZX Spectrum 48K

Core Features:

    16K ROM at 0x0000, 48K RAM at 0x4000 (the first 6912 bytes of which
    the ULA displays), the ULA on every even port.
    Z80 at 3.5 MHz, one frame interrupt every 69888 T-states in IM 1.
    Host keys become matrix positions; cursor keys and backspace press
    CAPS SHIFT with their digit, punctuation presses SYMBOL SHIFT with
    its letter, the way the Spectrum keyboard prints them.
*/

import (
	"fmt"

	"github.com/intuitionamiga/oxid/logger"
)

const (
	SPECTRUM_ROM_SIZE = 0x4000
	SPECTRUM_CLOCK_HZ = 3500000
)

// spectrumKey is one position in the 8x5 matrix.
type spectrumKey struct {
	row, bit int
}

var (
	spectrumCaps = spectrumKey{0, 0}
	spectrumSym  = spectrumKey{7, 1}
)

var spectrumMatrix = map[Key]spectrumKey{
	KeyShift: spectrumCaps, KeyZ: {0, 1}, KeyX: {0, 2}, KeyC: {0, 3}, KeyV: {0, 4},
	KeyA: {1, 0}, KeyS: {1, 1}, KeyD: {1, 2}, KeyF: {1, 3}, KeyG: {1, 4},
	KeyQ: {2, 0}, KeyW: {2, 1}, KeyE: {2, 2}, KeyR: {2, 3}, KeyT: {2, 4},
	Key1: {3, 0}, Key2: {3, 1}, Key3: {3, 2}, Key4: {3, 3}, Key5: {3, 4},
	Key0: {4, 0}, Key9: {4, 1}, Key8: {4, 2}, Key7: {4, 3}, Key6: {4, 4},
	KeyP: {5, 0}, KeyO: {5, 1}, KeyI: {5, 2}, KeyU: {5, 3}, KeyY: {5, 4},
	KeyEnter: {6, 0}, KeyL: {6, 1}, KeyK: {6, 2}, KeyJ: {6, 3}, KeyH: {6, 4},
	KeySpace: {7, 0}, KeyControl: spectrumSym, KeyM: {7, 2}, KeyN: {7, 3}, KeyB: {7, 4},
}

// Host keys that the Spectrum types as a shifted combination.
var spectrumCombos = map[Key][2]spectrumKey{
	KeyBackspace: {spectrumCaps, {4, 0}},
	KeyLeft:      {spectrumCaps, {3, 4}},
	KeyDown:      {spectrumCaps, {4, 4}},
	KeyUp:        {spectrumCaps, {4, 3}},
	KeyRight:     {spectrumCaps, {4, 2}},
	KeyComma:     {spectrumSym, {7, 3}},
	KeyPeriod:    {spectrumSym, {7, 2}},
	KeySemicolon: {spectrumSym, {5, 1}},
	KeyQuote:     {spectrumSym, {5, 0}},
	KeyMinus:     {spectrumSym, {6, 3}},
	KeyEqual:     {spectrumSym, {6, 1}},
	KeySlash:     {spectrumSym, {0, 4}},
}

type Spectrum48K struct {
	sys   *System
	cpu   *Z80CPU
	ports *Z80BusAdapter
	ram   *RAM
	ula   *ULA
	sound *SoundStub

	held map[Key]bool
}

// NewSpectrum48K builds a 48K Spectrum around a 16K ROM. Shorter images
// are padded with 0xFF.
func NewSpectrum48K(rom []byte, cfg MachineConfig) (*Spectrum48K, error) {
	if len(rom) == 0 || len(rom) > SPECTRUM_ROM_SIZE {
		return nil, fmt.Errorf("spectrum: %d byte ROM: %w", len(rom), ErrROMSize)
	}
	image := make([]byte, SPECTRUM_ROM_SIZE)
	for i := range image {
		image[i] = openBus
	}
	copy(image, rom)

	ram := NewRAM(SPECTRUM_RAM_SIZE, 0)
	bus, err := NewBus(Z80BusPolicy,
		ROMRegion("rom", 0x0000, SPECTRUM_ROM_SIZE, NewROM(image)),
		RAMRegion("ram", ULA_VRAM_BASE, SPECTRUM_RAM_SIZE, ram),
	)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}

	m := &Spectrum48K{
		ram:   ram,
		sound: NewSoundStub(),
		held:  make(map[Key]bool),
	}
	m.ula = NewULA(ram.Bytes(), m.sound)
	m.ports = NewZ80BusAdapter(bus, PortRange{
		Name:  "ula",
		Mask:  ULA_PORT_MASK,
		Value: 0,
		In:    m.ula.In,
		Out:   m.ula.Out,
	})

	ic := NewInterruptController()
	id, err := ic.AddSource(InterruptSource{Name: "ula"})
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}
	m.ula.Connect(ic, id)

	m.cpu = NewZ80CPU(m.ports, ic)
	m.sys = NewSystem("spectrum", m.cpu, bus, ic, ULA_FRAME_CYCLES)
	m.sys.AddDevice(m.ula)
	m.sys.AddDevice(m.sound)

	logger.Logf(logger.Allow, "spectrum", "48K, %d byte ROM", len(rom))
	if err := m.Reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Spectrum48K) Name() string {
	return "ZX Spectrum 48K"
}

func (m *Spectrum48K) Reset() error {
	m.ram.Clear()
	clear(m.held)
	m.sys.Reset()
	return nil
}

func (m *Spectrum48K) RunFrame() error {
	return m.sys.RunFrame()
}

func (m *Spectrum48K) Frame() []byte {
	return m.ula.Frame()
}

func (m *Spectrum48K) FrameSize() (int, int) {
	return m.ula.FrameSize()
}

func (m *Spectrum48K) FrameRate() float64 {
	return float64(SPECTRUM_CLOCK_HZ) / ULA_FRAME_CYCLES
}

func (m *Spectrum48K) KeyDown(k Key) {
	m.held[k] = true
	m.updateMatrix()
}

func (m *Spectrum48K) KeyUp(k Key) {
	delete(m.held, k)
	m.updateMatrix()
}

// updateMatrix rebuilds the matrix from the held set so a combination and
// a plain key sharing CAPS or SYMBOL SHIFT release independently.
func (m *Spectrum48K) updateMatrix() {
	m.ula.ClearKeys()
	for k := range m.held {
		if pos, ok := spectrumMatrix[k]; ok {
			m.ula.SetKey(pos.row, pos.bit, true)
			continue
		}
		for _, pos := range spectrumCombos[k] {
			m.ula.SetKey(pos.row, pos.bit, true)
		}
	}
}

func (m *Spectrum48K) System() *System {
	return m.sys
}

func (m *Spectrum48K) Sound() *SoundStub {
	return m.sound
}

func (m *Spectrum48K) CPU() *Z80CPU {
	return m.cpu
}

func (m *Spectrum48K) ULA() *ULA {
	return m.ula
}

// Ports is the Z80's I/O view, for scripts and tests.
func (m *Spectrum48K) Ports() *Z80BusAdapter {
	return m.ports
}
