// machine_mac.go - Macintosh Plus machine for oxid

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
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package oxid

/*
machine_mac.go - Macintosh Plus

Core Features:

    68000 at 7.8336 MHz on a 24-bit bus that raises bus errors for
    unmapped addresses and ROM writes.
    Memory map: RAM from 0x000000 (mirrored when smaller than the
    threshold), ROM at 0x400000 repeated across its megabyte, the SCSI,
    SCC and IWM windows answering with fixed values, the VIA at 0xE80000
    and the autovector window at 0xF00000.
    At reset the ROM also appears at address 0 so the 68000 can fetch its
    vectors. The overlay goes away on the first write to low RAM or when
    the ROM clears bit 4 of VIA port A.
    VIA interrupts on IPL1 (autovectored). The video pulses CA1 at
    vertical blank and a one-second clock pulses CA2.
    Host keys are queued as keyboard transitions for the VIA shift
    register.
*/

import (
	"fmt"

	"github.com/intuitionamiga/oxid/logger"
)

const (
	MAC_RAM_WINDOW = 0x400000
	MAC_ROM_BASE   = 0x400000
	MAC_ROM_WINDOW = 0x100000
	// A write below this address disables the ROM overlay
	MAC_OVERLAY_WRITE_LIMIT = 0x8000

	MAC_SCSI_BASE = 0x580000
	MAC_SCC_BASE  = 0x900000
	MAC_IWM_BASE  = 0xC00000
	MAC_VIA_BASE  = 0xE80000
	MAC_AUTO_BASE = 0xF00000

	MAC_VIA_LEVEL         = 1
	MAC_VIA_CLOCK_DIVIDER = 10

	// VIA port A bit 6: set shows the main screen buffer
	MAC_ORA_PAGE2 = 0x40
)

// macKeyCodes are the keyboard's virtual key codes.
var macKeyCodes = map[Key]byte{
	KeyA: 0x00, KeyS: 0x01, KeyD: 0x02, KeyF: 0x03, KeyH: 0x04, KeyG: 0x05,
	KeyZ: 0x06, KeyX: 0x07, KeyC: 0x08, KeyV: 0x09, KeyB: 0x0B, KeyQ: 0x0C,
	KeyW: 0x0D, KeyE: 0x0E, KeyR: 0x0F, KeyY: 0x10, KeyT: 0x11,
	Key1: 0x12, Key2: 0x13, Key3: 0x14, Key4: 0x15, Key6: 0x16, Key5: 0x17,
	KeyEqual: 0x18, Key9: 0x19, Key7: 0x1A, KeyMinus: 0x1B, Key8: 0x1C, Key0: 0x1D,
	KeyRightBracket: 0x1E, KeyO: 0x1F, KeyU: 0x20, KeyLeftBracket: 0x21,
	KeyI: 0x22, KeyP: 0x23, KeyEnter: 0x24, KeyL: 0x25, KeyJ: 0x26,
	KeyQuote: 0x27, KeyK: 0x28, KeySemicolon: 0x29, KeyBackslash: 0x2A,
	KeyComma: 0x2B, KeySlash: 0x2C, KeyN: 0x2D, KeyM: 0x2E, KeyPeriod: 0x2F,
	KeyTab: 0x30, KeySpace: 0x31, KeyGrave: 0x32, KeyBackspace: 0x33,
	KeyMeta: 0x37, KeyShift: 0x38, KeyCapsLock: 0x39, KeyAlt: 0x3A,
}

// macFixed answers every read of its window with one value. The Mac Plus
// disk, serial and SCSI chips are not emulated; these are the values their
// status registers settle to with nothing attached.
type macFixed struct {
	value byte
}

func (d macFixed) Read(addr uint32) byte         { return d.value }
func (d macFixed) Peek(addr uint32) byte         { return d.value }
func (d macFixed) Write(addr uint32, value byte) {}
func (d macFixed) Tick(cycles int)               {}
func (d macFixed) InterruptPending() bool        { return false }

// macSecondTimer pulses VIA CA2 once per emulated second.
type macSecondTimer struct {
	via   *VIA
	cycle int
}

func (t *macSecondTimer) Reset() {
	t.cycle = 0
}

func (t *macSecondTimer) Tick(cycles int) {
	t.cycle += cycles
	for t.cycle >= MAC_CLOCK_HZ {
		t.cycle -= MAC_CLOCK_HZ
		t.via.PulseCA2()
	}
}

func (t *macSecondTimer) Read(addr uint32) byte         { return openBus }
func (t *macSecondTimer) Write(addr uint32, value byte) {}
func (t *macSecondTimer) InterruptPending() bool        { return false }

type MacPlus struct {
	sys   *System
	cpu   *M68KCPU
	ram   *RAM
	via   *VIA
	video *MacVideo
	sound *SoundStub
	clock *macSecondTimer

	held map[Key]bool
}

// NewMacPlus builds a Mac Plus around a 64K to 1M ROM image.
func NewMacPlus(rom []byte, cfg MachineConfig) (*MacPlus, error) {
	n := len(rom)
	if n < 64<<10 || n > MAC_ROM_WINDOW || n&(n-1) != 0 {
		return nil, fmt.Errorf("mac: %d byte ROM: %w", n, ErrROMSize)
	}
	if cfg.RAMSize <= 0 || cfg.RAMSize > MAC_RAM_WINDOW {
		return nil, &ConfigError{Field: "ram", Value: fmt.Sprint(cfg.RAMSize), Reason: "does not fit the 4M RAM window"}
	}

	m := &MacPlus{
		ram:   NewRAM(cfg.RAMSize, cfg.MirrorThreshold),
		via:   NewVIA(MacRegisterShift, MAC_VIA_CLOCK_DIVIDER),
		sound: NewSoundStub(),
		held:  make(map[Key]bool),
	}
	m.video = NewMacVideo(m.ram.Bytes(), m.via)
	m.clock = &macSecondTimer{via: m.via}

	store := NewROM(rom)
	overlay := ROMRegion("overlay", 0, uint32(n), store)
	overlay.Overlay = true
	bus, err := NewBus(M68KBusPolicy,
		RAMRegion("ram", 0, MAC_RAM_WINDOW, m.ram),
		overlay,
		ROMRegion("rom", MAC_ROM_BASE, MAC_ROM_WINDOW, store),
		DeviceRegion("scsi", MAC_SCSI_BASE, 0x080000, macFixed{0x00}),
		DeviceRegion("scc", MAC_SCC_BASE, 0x300000, macFixed{0x04}),
		DeviceRegion("iwm", MAC_IWM_BASE, 0x200000, macFixed{0x1F}),
		DeviceRegion("via", MAC_VIA_BASE, 0x080000, m.via),
		DeviceRegion("autovector", MAC_AUTO_BASE, 0x100000, macFixed{0x00}),
	)
	if err != nil {
		return nil, fmt.Errorf("mac: %w", err)
	}
	bus.Tap(0, MAC_OVERLAY_WRITE_LIMIT, func(addr uint32, value byte) {
		if bus.OverlayEnabled("overlay") {
			bus.SetOverlay("overlay", false)
			logger.Logf(logger.Allow, "mac", "ROM overlay off (write to %06X)", addr)
		}
	})
	m.via.OnPortA = func(value byte) {
		on := value&VIA_ORA_OVERLAY != 0
		if on != bus.OverlayEnabled("overlay") {
			bus.SetOverlay("overlay", on)
			logger.Logf(logger.Allow, "mac", "ROM overlay %v from VIA port A", on)
		}
		m.video.SelectAlternate(value&MAC_ORA_PAGE2 == 0)
	}

	ic := NewInterruptController()
	id, err := ic.AddSource(InterruptSource{Name: "via", Level: MAC_VIA_LEVEL})
	if err != nil {
		return nil, fmt.Errorf("mac: %w", err)
	}
	m.via.Connect(ic, id)

	m.cpu = NewM68KCPU(bus, ic)
	m.cpu.IllegalPolicy = cfg.IllegalPolicy
	m.cpu.ResetHook = func() {
		m.via.Reset()
		logger.Log(logger.Allow, "mac", "RESET instruction")
	}

	m.sys = NewSystem("mac", m.cpu, bus, ic, MAC_FRAME_CYCLES)
	m.sys.AddDevice(m.via)
	m.sys.AddDevice(m.video)
	m.sys.AddDevice(m.clock)
	m.sys.AddDevice(m.sound)

	logger.Logf(logger.Allow, "mac", "%dK RAM (mirrored %v), %dK ROM", cfg.RAMSize>>10, m.ram.Mirrored(), n>>10)
	if err := m.Reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MacPlus) Name() string {
	return "Macintosh Plus"
}

// Reset re-enables the overlay before the CPU fetches its vectors.
func (m *MacPlus) Reset() error {
	m.ram.Clear()
	clear(m.held)
	if err := m.sys.Bus.SetOverlay("overlay", true); err != nil {
		return err
	}
	m.sys.Reset()
	if err := m.cpu.HaltReason(); err != nil {
		return fmt.Errorf("mac reset: %w", err)
	}
	return nil
}

func (m *MacPlus) RunFrame() error {
	return m.sys.RunFrame()
}

func (m *MacPlus) Frame() []byte {
	return m.video.Frame()
}

func (m *MacPlus) FrameSize() (int, int) {
	return m.video.FrameSize()
}

func (m *MacPlus) FrameRate() float64 {
	return float64(MAC_CLOCK_HZ) / MAC_FRAME_CYCLES
}

func (m *MacPlus) KeyDown(k Key) {
	code, ok := macKeyCodes[k]
	if !ok || m.held[k] {
		return
	}
	m.held[k] = true
	m.via.QueueKey(code, true)
}

func (m *MacPlus) KeyUp(k Key) {
	code, ok := macKeyCodes[k]
	if !ok || !m.held[k] {
		return
	}
	delete(m.held, k)
	m.via.QueueKey(code, false)
}

func (m *MacPlus) System() *System {
	return m.sys
}

func (m *MacPlus) Sound() *SoundStub {
	return m.sound
}

func (m *MacPlus) CPU() *M68KCPU {
	return m.cpu
}

func (m *MacPlus) VIA() *VIA {
	return m.via
}

func (m *MacPlus) Video() *MacVideo {
	return m.video
}
