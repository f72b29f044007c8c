// via.go - MOS 6522 VIA emulation for oxid

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
via.go - 6522 Versatile Interface Adapter (Macintosh wiring)

Core Features:

    Sixteen registers at a configurable spacing: the Mac decodes the
    register number from address bits 9-12, so register r lives at r<<9.
    Two timers: T1 with free-run reload (ACR bit 6) and one-shot T2.
    Keyboard shift register. A write is a command to the keyboard and a
    read collects its answer; both complete at once and set the shift
    flag, since firmware spins on that flag.
    Clear-on-read interrupt flags: reading IFR reports and clears the
    pending flags. Peek returns the same value with no side effect.
    Port B input bits: the RTC serial data line, the mouse button and a
    toggling horizontal blank bit that the ROM polls.
    Port A output notifies OnPortA (the Mac ROM overlay select).

The VIA never calls the CPU. Its interrupt line goes to an InterruptSink.
*/

// VIA register numbers.
const (
	VIA_ORB  = 0x0
	VIA_ORA  = 0x1
	VIA_DDRB = 0x2
	VIA_DDRA = 0x3
	VIA_T1CL = 0x4
	VIA_T1CH = 0x5
	VIA_T1LL = 0x6
	VIA_T1LH = 0x7
	VIA_T2CL = 0x8
	VIA_T2CH = 0x9
	VIA_SR   = 0xA
	VIA_ACR  = 0xB
	VIA_PCR  = 0xC
	VIA_IFR  = 0xD
	VIA_IER  = 0xE
	VIA_ORA2 = 0xF // port A without handshake
)

// IFR and IER bits.
const (
	VIA_INT_CA2 = 1 << 0
	VIA_INT_CA1 = 1 << 1
	VIA_INT_SR  = 1 << 2
	VIA_INT_CB2 = 1 << 3
	VIA_INT_CB1 = 1 << 4
	VIA_INT_T2  = 1 << 5
	VIA_INT_T1  = 1 << 6
	VIA_INT_ANY = 1 << 7
)

const (
	VIA_ACR_T1_FREERUN = 1 << 6

	// MacRegisterShift places register r at r<<9, as on the Mac.
	MacRegisterShift = 9

	// Port B bits on the Mac.
	VIA_ORB_RTC_DATA  = 1 << 0
	VIA_ORB_RTC_CLOCK = 1 << 1
	VIA_ORB_RTC_EN    = 1 << 2 // active low
	VIA_ORB_MOUSE_UP  = 1 << 3
	VIA_ORB_HBLANK    = 1 << 6

	// Port A bit selecting the ROM overlay at address 0.
	VIA_ORA_OVERLAY = 1 << 4
)

// Keyboard protocol bytes.
const (
	KBD_CMD_INQUIRY  = 0x10
	KBD_CMD_INSTANT  = 0x14
	KBD_CMD_MODEL    = 0x16
	KBD_CMD_TEST     = 0x36
	KBD_CMD_INQUIRY2 = 0x12

	KBD_ID_MACPLUS = 0x0B // Mac Plus keyboard with keypad
	KBD_NULL       = 0x7B
	KBD_TEST_ACK   = 0x7D
)

type VIA struct {
	ora, orb   byte
	ddra, ddrb byte
	acr, pcr   byte
	ier, ifr   byte

	t1c, t1l uint16
	t1Armed  bool
	t2c      uint16
	t2l      byte
	t2Armed  bool

	sr       byte
	kbdQueue []byte

	rtc    viaRTC
	hblank uint32

	shift   uint
	divider int
	accum   int

	irq irqLine

	// OnPortA receives every port A output write.
	OnPortA func(value byte)
}

// NewVIA returns a VIA whose register r is decoded at r<<shift. divider
// converts Tick cycles to VIA clocks (the Mac runs the VIA at CPU/10).
func NewVIA(shift uint, divider int) *VIA {
	if divider < 1 {
		divider = 1
	}
	v := &VIA{shift: shift, divider: divider}
	v.Reset()
	return v
}

// Connect routes the VIA interrupt output to sink.
func (v *VIA) Connect(sink InterruptSink, id SourceID) {
	v.irq.connect(sink, id)
	v.updateIRQ()
}

func (v *VIA) Reset() {
	v.ora, v.orb, v.ddra, v.ddrb = 0, 0, 0, 0
	v.acr, v.pcr, v.ier, v.ifr = 0, 0, 0, 0
	v.t1c, v.t1l, v.t1Armed = 0xFFFF, 0xFFFF, false
	v.t2c, v.t2l, v.t2Armed = 0xFFFF, 0xFF, false
	v.sr = KBD_NULL
	v.kbdQueue = v.kbdQueue[:0]
	v.rtc.reset()
	v.accum = 0
	v.irq.force(v.InterruptPending())
}

func (v *VIA) register(addr uint32) uint32 {
	return (addr >> v.shift) & 0xF
}

func (v *VIA) setFlag(bits byte) {
	v.ifr |= bits & 0x7F
	v.updateIRQ()
}

func (v *VIA) clearFlag(bits byte) {
	v.ifr &^= bits
	v.updateIRQ()
}

func (v *VIA) updateIRQ() {
	v.irq.set(v.InterruptPending())
}

// ifrValue is IFR with bit 7 computed from the enabled flags.
func (v *VIA) ifrValue() byte {
	if v.ifr&v.ier&0x7F != 0 {
		return v.ifr | VIA_INT_ANY
	}
	return v.ifr &^ VIA_INT_ANY
}

func (v *VIA) InterruptPending() bool {
	return v.ifr&v.ier&0x7F != 0
}

// PeekIFR returns the flag register without clearing it.
func (v *VIA) PeekIFR() byte {
	return v.ifrValue()
}

// ConsumeIFR returns the flag register and clears the flags it reported.
func (v *VIA) ConsumeIFR() byte {
	val := v.ifrValue()
	v.clearFlag(0x7F)
	return val
}

func (v *VIA) portB() byte {
	in := byte(VIA_ORB_MOUSE_UP)
	if v.rtc.dataOut {
		in |= VIA_ORB_RTC_DATA
	}
	// The ROM polls hblank; one read in five sees it low.
	v.hblank++
	if v.hblank%5 != 0 {
		in |= VIA_ORB_HBLANK
	}
	return v.orb&v.ddrb | in&^v.ddrb
}

// Read returns register contents with the 6522 read side effects.
func (v *VIA) Read(addr uint32) byte {
	switch v.register(addr) {
	case VIA_ORB:
		v.clearFlag(VIA_INT_CB1 | VIA_INT_CB2)
		return v.portB()
	case VIA_ORA:
		v.clearFlag(VIA_INT_CA1 | VIA_INT_CA2)
		return v.ora
	case VIA_ORA2:
		return v.ora
	case VIA_T1CL:
		v.clearFlag(VIA_INT_T1)
		return byte(v.t1c)
	case VIA_T2CL:
		v.clearFlag(VIA_INT_T2)
		return byte(v.t2c)
	case VIA_SR:
		v.setFlag(VIA_INT_SR)
		return v.sr
	case VIA_IFR:
		return v.ConsumeIFR()
	}
	return v.Peek(addr)
}

// Peek returns what Read would without touching flags or input state.
func (v *VIA) Peek(addr uint32) byte {
	switch v.register(addr) {
	case VIA_ORB:
		in := byte(VIA_ORB_MOUSE_UP | VIA_ORB_HBLANK)
		if v.rtc.dataOut {
			in |= VIA_ORB_RTC_DATA
		}
		return v.orb&v.ddrb | in&^v.ddrb
	case VIA_ORA, VIA_ORA2:
		return v.ora
	case VIA_DDRB:
		return v.ddrb
	case VIA_DDRA:
		return v.ddra
	case VIA_T1CL:
		return byte(v.t1c)
	case VIA_T1CH:
		return byte(v.t1c >> 8)
	case VIA_T1LL:
		return byte(v.t1l)
	case VIA_T1LH:
		return byte(v.t1l >> 8)
	case VIA_T2CL:
		return byte(v.t2c)
	case VIA_T2CH:
		return byte(v.t2c >> 8)
	case VIA_SR:
		return v.sr
	case VIA_ACR:
		return v.acr
	case VIA_PCR:
		return v.pcr
	case VIA_IFR:
		return v.ifrValue()
	case VIA_IER:
		return v.ier | 0x80
	}
	return 0
}

func (v *VIA) Write(addr uint32, value byte) {
	switch v.register(addr) {
	case VIA_ORB:
		v.orb = value
		v.clearFlag(VIA_INT_CB1 | VIA_INT_CB2)
		v.rtc.drive(v.orb | ^v.ddrb&VIA_ORB_RTC_EN)
	case VIA_ORA, VIA_ORA2:
		v.ora = value
		if v.register(addr) == VIA_ORA {
			v.clearFlag(VIA_INT_CA1 | VIA_INT_CA2)
		}
		if v.OnPortA != nil {
			v.OnPortA(value)
		}
	case VIA_DDRB:
		v.ddrb = value
	case VIA_DDRA:
		v.ddra = value
	case VIA_T1CL, VIA_T1LL:
		v.t1l = v.t1l&0xFF00 | uint16(value)
	case VIA_T1CH:
		v.t1l = v.t1l&0x00FF | uint16(value)<<8
		v.t1c = v.t1l
		v.t1Armed = true
		v.clearFlag(VIA_INT_T1)
	case VIA_T1LH:
		v.t1l = v.t1l&0x00FF | uint16(value)<<8
		v.clearFlag(VIA_INT_T1)
	case VIA_T2CL:
		v.t2l = value
	case VIA_T2CH:
		v.t2c = uint16(value)<<8 | uint16(v.t2l)
		v.t2Armed = true
		v.clearFlag(VIA_INT_T2)
	case VIA_SR:
		v.command(value)
		v.setFlag(VIA_INT_SR)
	case VIA_ACR:
		v.acr = value
	case VIA_PCR:
		v.pcr = value
	case VIA_IFR:
		v.clearFlag(value & 0x7F)
	case VIA_IER:
		if value&0x80 != 0 {
			v.ier |= value & 0x7F
		} else {
			v.ier &^= value & 0x7F
		}
		v.updateIRQ()
	}
}

// command answers a keyboard command byte. Inquiry answers the next queued
// transition when there is one, and the keyboard identity otherwise.
func (v *VIA) command(cmd byte) {
	switch cmd {
	case KBD_CMD_INQUIRY, KBD_CMD_INQUIRY2, KBD_CMD_INSTANT:
		if len(v.kbdQueue) > 0 {
			v.sr = v.kbdQueue[0]
			v.kbdQueue = v.kbdQueue[1:]
			return
		}
		if cmd == KBD_CMD_INSTANT {
			v.sr = KBD_NULL
			return
		}
		v.sr = KBD_ID_MACPLUS
	case KBD_CMD_MODEL:
		v.sr = KBD_ID_MACPLUS
	case KBD_CMD_TEST:
		v.sr = KBD_TEST_ACK
	default:
		v.sr = KBD_NULL
	}
}

// QueueKey records a key transition for the keyboard to report. code is the
// 6-bit Mac key code.
func (v *VIA) QueueKey(code byte, down bool) {
	b := (code&0x3F)<<1 | 1
	if !down {
		b |= 0x80
	}
	v.kbdQueue = append(v.kbdQueue, b)
}

// QueuedKeys is the number of transitions not yet collected.
func (v *VIA) QueuedKeys() int {
	return len(v.kbdQueue)
}

// PulseCA1 signals an active CA1 transition (Mac vertical blank).
func (v *VIA) PulseCA1() {
	v.setFlag(VIA_INT_CA1)
}

// PulseCA2 signals an active CA2 transition (Mac one-second clock). The
// RTC seconds counter advances with it.
func (v *VIA) PulseCA2() {
	v.rtc.Seconds++
	v.setFlag(VIA_INT_CA2)
}

// Tick advances the timers by cycles CPU clocks.
func (v *VIA) Tick(cycles int) {
	v.accum += cycles
	n := v.accum / v.divider
	v.accum -= n * v.divider
	for range n {
		v.clock()
	}
}

func (v *VIA) clock() {
	if v.t1c == 0 {
		if v.t1Armed {
			v.setFlag(VIA_INT_T1)
			if v.acr&VIA_ACR_T1_FREERUN == 0 {
				v.t1Armed = false
			}
		}
		if v.acr&VIA_ACR_T1_FREERUN != 0 {
			v.t1c = v.t1l
		} else {
			v.t1c = 0xFFFF
		}
	} else {
		v.t1c--
	}

	if v.t2c == 0 && v.t2Armed {
		v.t2Armed = false
		v.setFlag(VIA_INT_T2)
	}
	v.t2c--
}

// RTC returns the real-time clock behind port B.
func (v *VIA) RTC() *MacRTC {
	return &v.rtc.MacRTC
}

// MacRTC is the clock chip state visible to the host: the seconds counter
// and 20 bytes of parameter RAM.
type MacRTC struct {
	Seconds uint32
	PRAM    [20]byte
}

// viaRTC speaks the RTC serial protocol on port B: enable low, data
// shifted MSB first on clock rising edges. The first byte is a command
// (bit 7 set for reads); a write command is followed by one data byte.
type viaRTC struct {
	MacRTC

	enabled bool
	clock   bool
	bits    int
	shiftIn byte
	cmd     byte
	phase   int
	out     byte
	dataOut bool
}

const (
	rtcPhaseCommand = iota
	rtcPhaseWrite
	rtcPhaseRead
)

func (r *viaRTC) reset() {
	r.enabled, r.clock = false, false
	r.bits, r.shiftIn, r.phase = 0, 0, rtcPhaseCommand
	r.dataOut = true
}

// drive takes the port B output lines.
func (r *viaRTC) drive(orb byte) {
	enabled := orb&VIA_ORB_RTC_EN == 0
	if !enabled {
		if r.enabled {
			r.bits, r.shiftIn, r.phase = 0, 0, rtcPhaseCommand
			r.dataOut = true
		}
		r.enabled = false
		r.clock = orb&VIA_ORB_RTC_CLOCK != 0
		return
	}
	r.enabled = true
	clock := orb&VIA_ORB_RTC_CLOCK != 0
	rising := clock && !r.clock
	r.clock = clock
	if !rising {
		return
	}

	if r.phase == rtcPhaseRead {
		r.out <<= 1
		r.dataOut = r.out&0x80 != 0
		r.bits++
		if r.bits == 8 {
			r.bits, r.phase = 0, rtcPhaseCommand
		}
		return
	}

	r.shiftIn = r.shiftIn<<1 | orb&VIA_ORB_RTC_DATA
	r.bits++
	if r.bits < 8 {
		return
	}
	r.bits = 0
	b := r.shiftIn
	if r.phase == rtcPhaseWrite {
		r.store(r.cmd, b)
		r.phase = rtcPhaseCommand
		return
	}
	r.cmd = b
	if b&0x80 != 0 {
		r.out = r.load(b)
		r.dataOut = r.out&0x80 != 0
		r.phase = rtcPhaseRead
	} else {
		r.phase = rtcPhaseWrite
	}
}

// rtcAddress decodes a command to a seconds byte (0-3), a PRAM byte
// (0x10 + index) or -1 for the test and write-protect registers.
func rtcAddress(cmd byte) int {
	c := cmd & 0x7F
	switch {
	case c&0x73 == 0x01:
		return int(c>>2) & 3
	case c&0x73 == 0x21:
		return 0x20 + int(c>>2)&3
	case c&0x43 == 0x41:
		return 0x10 + int(c>>2)&0xF
	}
	return -1
}

func (r *viaRTC) load(cmd byte) byte {
	a := rtcAddress(cmd)
	switch {
	case a < 0:
		return 0
	case a < 4:
		return byte(r.Seconds >> (8 * uint(a)))
	}
	return r.PRAM[a-0x10]
}

func (r *viaRTC) store(cmd, value byte) {
	a := rtcAddress(cmd)
	switch {
	case a < 0:
	case a < 4:
		shift := 8 * uint(a)
		r.Seconds = r.Seconds&^(0xFF<<shift) | uint32(value)<<shift
	default:
		r.PRAM[a-0x10] = value
	}
}
