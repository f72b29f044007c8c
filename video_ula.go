// video_ula.go - ZX Spectrum ULA video chip emulation for oxid

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
video_ula.go - ZX Spectrum ULA

Core Features:

    Port 0xFE device: keyboard matrix in, border and EAR/MIC out (the
    EAR/MIC bits are forwarded to the sound stub).
    Frame timing driven by Tick: the interrupt line is held for the first
    32 T-states of each 69888 T-state frame, and the frame is rendered as
    the beam wraps.
    Non-linear bitmap addressing through a precomputed row table,
    attribute colour with BRIGHT and FLASH, 32 pixel border.

The ULA reads display memory straight from the slice of RAM that starts at
0x4000; it never goes through the bus.
*/

// ULA implements Device. Its local address is the 16-bit port.
type ULA struct {
	vram []byte

	border byte
	out    byte

	// keys[row] has bit n set while key n of that half-row is held
	keys [ULA_KEY_ROWS]byte

	cycle  int
	frames uint64
	flash  bool

	rowStartAddr [ULA_DISPLAY_HEIGHT]uint16
	// [0..7] normal, [8..15] bright
	colorU32 [16]uint32

	frame []byte
	sound *SoundStub
	irq   irqLine
}

// NewULA returns a ULA displaying vram, the RAM from 0x4000 upwards. sound
// may be nil.
func NewULA(vram []byte, sound *SoundStub) *ULA {
	u := &ULA{
		vram:  vram,
		sound: sound,
		frame: make([]byte, ULA_FRAME_WIDTH*ULA_FRAME_HEIGHT*4),
	}
	for i := range 8 {
		c := ULAColorNormal[i]
		u.colorU32[i] = packRGBA(c[0], c[1], c[2])
		c = ULAColorBright[i]
		u.colorU32[8+i] = packRGBA(c[0], c[1], c[2])
	}
	// Address bits: 0 1 0 Y7 Y6 Y2 Y1 Y0 Y5 Y4 Y3 X4..X0
	for y := range ULA_DISPLAY_HEIGHT {
		u.rowStartAddr[y] = uint16((y&0xC0)<<5 + (y&0x07)<<8 + (y&0x38)<<2)
	}
	u.Reset()
	return u
}

func (u *ULA) Connect(sink InterruptSink, id SourceID) {
	u.irq.connect(sink, id)
	u.updateIRQ()
}

func (u *ULA) Reset() {
	u.border = 7
	u.out = 0
	u.keys = [ULA_KEY_ROWS]byte{}
	u.cycle, u.frames, u.flash = 0, 0, false
	u.irq.force(u.InterruptPending())
}

func (u *ULA) Read(addr uint32) byte {
	return u.In(uint16(addr))
}

func (u *ULA) Write(addr uint32, value byte) {
	u.Out(uint16(addr), value)
}

// In returns the half-rows whose select bit in the high port byte is low,
// ANDed together, active low.
func (u *ULA) In(port uint16) byte {
	sel := byte(port >> 8)
	var held byte
	for row := range ULA_KEY_ROWS {
		if sel&(1<<row) == 0 {
			held |= u.keys[row]
		}
	}
	v := ^held&0x1F | ULA_IN_FIXED
	if u.out&ULA_OUT_EAR != 0 {
		v |= ULA_IN_EAR
	}
	return v
}

func (u *ULA) Out(port uint16, value byte) {
	u.border = value & ULA_OUT_BORDER
	u.out = value
	if u.sound != nil {
		u.sound.Write(ULA_PORT, value&(ULA_OUT_EAR|ULA_OUT_MIC))
	}
}

// SetKey presses or releases key bit (0-4) of half-row row (0-7).
func (u *ULA) SetKey(row, bit int, down bool) {
	if row < 0 || row >= ULA_KEY_ROWS || bit < 0 || bit > 4 {
		return
	}
	if down {
		u.keys[row] |= 1 << bit
	} else {
		u.keys[row] &^= 1 << bit
	}
}

// ClearKeys releases the whole matrix.
func (u *ULA) ClearKeys() {
	u.keys = [ULA_KEY_ROWS]byte{}
}

func (u *ULA) Border() byte {
	return u.border
}

// Speaker reports the EAR and MIC output bits.
func (u *ULA) Speaker() (ear, mic bool) {
	return u.out&ULA_OUT_EAR != 0, u.out&ULA_OUT_MIC != 0
}

func (u *ULA) Frames() uint64 {
	return u.frames
}

// FrameCycle is the T-state position within the current frame.
func (u *ULA) FrameCycle() int {
	return u.cycle
}

func (u *ULA) InterruptPending() bool {
	return u.cycle < ULA_IRQ_CYCLES
}

func (u *ULA) updateIRQ() {
	u.irq.set(u.InterruptPending())
}

func (u *ULA) Tick(cycles int) {
	u.cycle += cycles
	for u.cycle >= ULA_FRAME_CYCLES {
		u.cycle -= ULA_FRAME_CYCLES
		u.RenderFrame()
		u.frames++
		if u.frames%ULA_FLASH_FRAMES == 0 {
			u.flash = !u.flash
		}
	}
	u.updateIRQ()
}

func (u *ULA) Frame() []byte {
	return u.frame
}

func (u *ULA) FrameSize() (int, int) {
	return ULA_FRAME_WIDTH, ULA_FRAME_HEIGHT
}

// RenderFrame draws the border and display area into the frame buffer.
func (u *ULA) RenderFrame() []byte {
	fillPixels(u.frame, u.colorU32[u.border&0x07])
	if len(u.vram) < ULA_VRAM_SIZE {
		return u.frame
	}

	for screenY := range ULA_DISPLAY_HEIGHT {
		rowAddr := u.rowStartAddr[screenY]
		attrRowBase := ULA_ATTR_OFFSET + (screenY>>3)*ULA_CELLS_X
		frameRowBase := (ULA_BORDER_TOP + screenY) * ULA_FRAME_WIDTH * 4

		for cellX := range ULA_CELLS_X {
			bitmap := u.vram[int(rowAddr)+cellX]
			attr := u.vram[attrRowBase+cellX]

			ink := attr & 0x07
			paper := (attr >> 3) & 0x07
			if attr&0x80 != 0 && u.flash {
				ink, paper = paper, ink
			}
			if attr&0x40 != 0 {
				ink += 8
				paper += 8
			}
			fg, bg := u.colorU32[ink], u.colorU32[paper]

			base := frameRowBase + (ULA_BORDER_LEFT+cellX*8)*4
			for bit := 7; bit >= 0; bit-- {
				off := base + (7-bit)*4
				if bitmap>>bit&1 != 0 {
					putPixel(u.frame, off, fg)
				} else {
					putPixel(u.frame, off, bg)
				}
			}
		}
	}
	return u.frame
}
