package oxid

/*
machine_sms.go - Sega Master System

Core Features:

    Cartridge mapper: three 16K slots at 0x0000-0xBFFF, the first 1K fixed
    to bank 0, slot banks selected by writes to 0xFFFD-0xFFFF. The
    registers sit in the RAM mirror, so the written value is also kept in
    RAM as on the real board.
    8K RAM at 0xC000, mirrored at 0xE000.
    Ports decoded on A7/A6 (and A0): V/H counters and PSG at 0x40-0x7F,
    VDP at 0x80-0xBF, joypads at 0xC0-0xFF.
    VDP interrupt on the maskable input, the PAUSE button on NMI.
*/

import (
	"fmt"

	"github.com/intuitionamiga/oxid/logger"
)

const (
	SMS_CLOCK_HZ      = 3579545
	SMS_BANK_SIZE     = 0x4000
	SMS_FIXED_SIZE    = 0x0400
	SMS_CART_WINDOW   = 0xC000
	SMS_RAM_BASE      = 0xC000
	SMS_RAM_WINDOW    = 0x4000
	SMS_MAPPER_BASE   = 0xFFFC
	SMS_MAPPER_LENGTH = 4
	SMS_PSG_PORT      = 0x7F
)

// Joypad 1 bits on port 0xDC, active low
const (
	SMS_PAD_UP      = 0x01
	SMS_PAD_DOWN    = 0x02
	SMS_PAD_LEFT    = 0x04
	SMS_PAD_RIGHT   = 0x08
	SMS_PAD_BUTTON1 = 0x10
	SMS_PAD_BUTTON2 = 0x20
)

var smsPadKeys = map[Key]byte{
	KeyUp:    SMS_PAD_UP,
	KeyDown:  SMS_PAD_DOWN,
	KeyLeft:  SMS_PAD_LEFT,
	KeyRight: SMS_PAD_RIGHT,
	KeyZ:     SMS_PAD_BUTTON1,
	KeyX:     SMS_PAD_BUTTON2,
}

// smsMapper is the Sega cartridge mapper. It implements Device over the
// 48K cartridge window.
type smsMapper struct {
	rom  []byte
	mask int
	// Byte offset of the bank in each slot
	slots   [3]int
	control byte
}

func newSMSMapper(image []byte) *smsMapper {
	size := SMS_BANK_SIZE
	for size < len(image) {
		size <<= 1
	}
	rom := make([]byte, size)
	for i := range rom {
		rom[i] = openBus
	}
	copy(rom, image)
	m := &smsMapper{rom: rom, mask: size - 1}
	m.Reset()
	return m
}

func (m *smsMapper) Reset() {
	m.slots = [3]int{0, SMS_BANK_SIZE & m.mask, (2 * SMS_BANK_SIZE) & m.mask}
	m.control = 0
}

func (m *smsMapper) Read(addr uint32) byte {
	if addr < SMS_FIXED_SIZE {
		return m.rom[addr]
	}
	slot := int(addr / SMS_BANK_SIZE)
	if slot > 2 {
		return openBus
	}
	return m.rom[(m.slots[slot]+int(addr%SMS_BANK_SIZE))&m.mask]
}

func (m *smsMapper) Write(addr uint32, value byte) {}

func (m *smsMapper) Tick(cycles int) {}

func (m *smsMapper) InterruptPending() bool {
	return false
}

// Select handles a write to one of the paging registers at 0xFFFC-0xFFFF.
func (m *smsMapper) Select(addr uint32, value byte) {
	if addr == SMS_MAPPER_BASE {
		m.control = value
		logger.Logf(logger.Allow, "sms", "mapper control %02X", value)
		return
	}
	slot := int(addr - SMS_MAPPER_BASE - 1)
	m.slots[slot] = (int(value) * SMS_BANK_SIZE) & m.mask
	logger.Logf(logger.Allow, "sms", "slot %d -> bank %d", slot, m.slots[slot]/SMS_BANK_SIZE)
}

// Bank returns the bank number paged into slot.
func (m *smsMapper) Bank(slot int) int {
	return m.slots[slot] / SMS_BANK_SIZE
}

type MasterSystem struct {
	sys    *System
	cpu    *Z80CPU
	ports  *Z80BusAdapter
	ram    *RAM
	vdp    *VDP
	mapper *smsMapper
	sound  *SoundStub

	pause SourceID
	padA  byte
	held  map[Key]bool
}

func NewMasterSystem(rom []byte, cfg MachineConfig) (*MasterSystem, error) {
	if len(rom) == 0 || len(rom) > 4<<20 {
		return nil, fmt.Errorf("sms: %d byte cartridge: %w", len(rom), ErrROMSize)
	}
	m := &MasterSystem{
		ram:    NewRAM(SMS_RAM_SIZE, SMS_RAM_WINDOW),
		vdp:    NewVDP(),
		mapper: newSMSMapper(rom),
		sound:  NewSoundStub(),
		padA:   0xFF,
		held:   make(map[Key]bool),
	}

	bus, err := NewBus(Z80BusPolicy,
		DeviceRegion("cartridge", 0x0000, SMS_CART_WINDOW, m.mapper),
		RAMRegion("ram", SMS_RAM_BASE, SMS_RAM_WINDOW, m.ram),
	)
	if err != nil {
		return nil, fmt.Errorf("sms: %w", err)
	}
	bus.Tap(SMS_MAPPER_BASE, SMS_MAPPER_LENGTH, m.mapper.Select)

	m.ports = NewZ80BusAdapter(bus,
		// Memory and I/O control; ignored
		PortRange{Name: "control", Mask: 0xC0, Value: 0x00},
		PortRange{Name: "counters", Mask: 0xC0, Value: 0x40, In: m.readCounter, Out: m.writePSG},
		PortRange{Name: "vdp", Mask: 0xC0, Value: 0x80, In: m.readVDP, Out: m.writeVDP},
		PortRange{Name: "io", Mask: 0xC0, Value: 0xC0, In: m.readPads},
	)

	ic := NewInterruptController()
	vdpID, err := ic.AddSource(InterruptSource{Name: "vdp"})
	if err != nil {
		return nil, fmt.Errorf("sms: %w", err)
	}
	if m.pause, err = ic.AddSource(InterruptSource{Name: "pause", NMI: true}); err != nil {
		return nil, fmt.Errorf("sms: %w", err)
	}
	m.vdp.Connect(ic, vdpID)

	m.cpu = NewZ80CPU(m.ports, ic)
	m.sys = NewSystem("sms", m.cpu, bus, ic, VDP_FRAME_CYCLES)
	m.sys.AddDevice(m.vdp)
	m.sys.AddDevice(m.sound)
	m.sys.AddDevice(m.mapper)

	logger.Logf(logger.Allow, "sms", "%d byte cartridge, %d banks", len(rom), len(m.mapper.rom)/SMS_BANK_SIZE)
	if err := m.Reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MasterSystem) readCounter(port uint16) byte {
	if port&1 == 0 {
		return m.vdp.VCounter()
	}
	return m.vdp.HCounter()
}

func (m *MasterSystem) writePSG(port uint16, value byte) {
	m.sound.Write(SMS_PSG_PORT, value)
}

func (m *MasterSystem) readVDP(port uint16) byte {
	return m.vdp.Read(uint32(port))
}

func (m *MasterSystem) writeVDP(port uint16, value byte) {
	m.vdp.Write(uint32(port), value)
}

// readPads returns joypad 1 on even ports. Port B (pad 2, reset, light
// guns) reads as nothing pressed.
func (m *MasterSystem) readPads(port uint16) byte {
	if port&1 == 0 {
		return m.padA
	}
	return 0xFF
}

func (m *MasterSystem) Name() string {
	return "Sega Master System"
}

func (m *MasterSystem) Reset() error {
	m.ram.Clear()
	clear(m.held)
	m.padA = 0xFF
	m.sys.Reset()
	return nil
}

func (m *MasterSystem) RunFrame() error {
	return m.sys.RunFrame()
}

func (m *MasterSystem) Frame() []byte {
	return m.vdp.Frame()
}

func (m *MasterSystem) FrameSize() (int, int) {
	return m.vdp.FrameSize()
}

func (m *MasterSystem) FrameRate() float64 {
	return float64(SMS_CLOCK_HZ) / VDP_FRAME_CYCLES
}

// KeyDown presses a pad direction or button. Enter is the console's PAUSE
// button.
func (m *MasterSystem) KeyDown(k Key) {
	if m.held[k] {
		return
	}
	m.held[k] = true
	if k == KeyEnter {
		m.sys.IC.Raise(m.pause)
		return
	}
	if bit, ok := smsPadKeys[k]; ok {
		m.padA &^= bit
	}
}

func (m *MasterSystem) KeyUp(k Key) {
	delete(m.held, k)
	if bit, ok := smsPadKeys[k]; ok {
		m.padA |= bit
	}
}

func (m *MasterSystem) System() *System {
	return m.sys
}

func (m *MasterSystem) Sound() *SoundStub {
	return m.sound
}

func (m *MasterSystem) CPU() *Z80CPU {
	return m.cpu
}

func (m *MasterSystem) VDP() *VDP {
	return m.vdp
}

func (m *MasterSystem) Ports() *Z80BusAdapter {
	return m.ports
}
