// video_vdp.go - Sega Master System VDP emulation for oxid

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
video_vdp.go - Sega Master System VDP (mode 4)

Core Features:

    16K VRAM, 32 bytes of CRAM and 16 registers behind two ports: data
    (local address 0) and control/status (local address 1).
    Two-byte control latch: the second byte carries the access code
    (0 VRAM read, 1 VRAM write, 2 register write, 3 CRAM write).
    Read-ahead buffer on the data port.
    Status flags VBLANK, sprite overflow and sprite collision. Reading
    status (ConsumeStatus) clears them with the line interrupt and the
    latch; PeekStatus does not.
    Beam timing driven by Tick: 228 CPU cycles per line, 262 lines per
    NTSC frame, line counter reloaded from register 10, VBLANK on entry to
    line 192. Visible lines are rendered as the beam leaves them.
    Background with horizontal/vertical scroll, scroll locks, tile flip,
    palette select and priority; up to eight sprites per line.

The interrupt output is a level: frame interrupt when VBLANK and register 1
bit 5 are set, line interrupt when pending and register 0 bit 4 is set.
*/

const (
	VDP_VRAM_SIZE = 0x4000
	VDP_CRAM_SIZE = 0x20

	VDP_WIDTH  = 256
	VDP_HEIGHT = 192

	VDP_CYCLES_PER_LINE = 228
	VDP_LINES_PER_FRAME = 262
	VDP_FRAME_CYCLES    = VDP_CYCLES_PER_LINE * VDP_LINES_PER_FRAME

	VDP_STATUS_VBLANK    = 0x80
	VDP_STATUS_OVERFLOW  = 0x40
	VDP_STATUS_COLLISION = 0x20

	VDP_CODE_VRAM_READ  = 0
	VDP_CODE_VRAM_WRITE = 1
	VDP_CODE_REGISTER   = 2
	VDP_CODE_CRAM_WRITE = 3

	VDP_PORT_DATA    = 0
	VDP_PORT_CONTROL = 1

	vdpSpriteEnd     = 0xD0
	vdpMaxLineSprite = 8
	vdpBGHeight      = 224
)

// Register bits used by the renderer and interrupt logic.
const (
	VDP_R0_MASK_COL0   = 0x20
	VDP_R0_LINE_IRQ    = 0x10
	VDP_R0_SPRITE_LEFT = 0x08
	VDP_R0_HLOCK       = 0x40
	VDP_R0_VLOCK       = 0x80

	VDP_R1_DISPLAY     = 0x40
	VDP_R1_FRAME_IRQ   = 0x20
	VDP_R1_SPRITE_8X16 = 0x02
)

type VDP struct {
	vram [VDP_VRAM_SIZE]byte
	cram [VDP_CRAM_SIZE]byte
	regs [16]byte

	status      byte
	addr        uint16
	code        byte
	readBuffer  byte
	latch       bool
	lineCounter byte
	linePending bool

	line   int // current beam line, 0-261
	cycle  int // CPU cycles into the line
	frames uint64

	frame   []byte
	palette [VDP_CRAM_SIZE]uint32

	irq irqLine
}

func NewVDP() *VDP {
	v := &VDP{frame: make([]byte, VDP_WIDTH*VDP_HEIGHT*4)}
	v.Reset()
	return v
}

// Connect routes the interrupt output to sink.
func (v *VDP) Connect(sink InterruptSink, id SourceID) {
	v.irq.connect(sink, id)
	v.updateIRQ()
}

func (v *VDP) Reset() {
	v.vram = [VDP_VRAM_SIZE]byte{}
	v.cram = [VDP_CRAM_SIZE]byte{}
	v.regs = [16]byte{}
	v.status, v.addr, v.code, v.readBuffer = 0, 0, 0, 0
	v.latch, v.linePending = false, false
	v.lineCounter = 0
	v.line, v.cycle = 0, 0
	for i := range v.palette {
		v.palette[i] = packRGBA(0, 0, 0)
	}
	v.irq.force(v.InterruptPending())
}

func (v *VDP) InterruptPending() bool {
	frame := v.status&VDP_STATUS_VBLANK != 0 && v.regs[1]&VDP_R1_FRAME_IRQ != 0
	line := v.linePending && v.regs[0]&VDP_R0_LINE_IRQ != 0
	return frame || line
}

func (v *VDP) updateIRQ() {
	v.irq.set(v.InterruptPending())
}

func (v *VDP) Read(addr uint32) byte {
	if addr&1 == VDP_PORT_DATA {
		return v.ReadData()
	}
	return v.ConsumeStatus()
}

func (v *VDP) Peek(addr uint32) byte {
	if addr&1 == VDP_PORT_DATA {
		return v.readBuffer
	}
	return v.PeekStatus()
}

func (v *VDP) Write(addr uint32, value byte) {
	if addr&1 == VDP_PORT_DATA {
		v.WriteData(value)
		return
	}
	v.WriteControl(value)
}

// WriteControl feeds the two-byte address/code latch.
func (v *VDP) WriteControl(value byte) {
	if !v.latch {
		v.addr = v.addr&0xFF00 | uint16(value)
		v.latch = true
		return
	}
	v.latch = false
	v.addr = v.addr&0x00FF | uint16(value&0x3F)<<8
	v.code = value >> 6

	switch v.code {
	case VDP_CODE_VRAM_READ:
		v.readBuffer = v.vram[v.addr&0x3FFF]
		v.addr = (v.addr + 1) & 0x3FFF
	case VDP_CODE_REGISTER:
		if r := value & 0x0F; r < 11 {
			v.regs[r] = byte(v.addr)
		}
		v.updateIRQ()
	}
}

func (v *VDP) WriteData(value byte) {
	v.latch = false
	if v.code == VDP_CODE_CRAM_WRITE {
		i := v.addr & 0x1F
		v.cram[i] = value
		v.palette[i] = vdpColor(value)
	} else {
		v.vram[v.addr&0x3FFF] = value
	}
	v.readBuffer = value
	v.addr = (v.addr + 1) & 0x3FFF
}

// ReadData returns the read-ahead buffer and refills it.
func (v *VDP) ReadData() byte {
	v.latch = false
	out := v.readBuffer
	v.readBuffer = v.vram[v.addr&0x3FFF]
	v.addr = (v.addr + 1) & 0x3FFF
	return out
}

// PeekStatus returns the status flags with no side effect.
func (v *VDP) PeekStatus() byte {
	return v.status
}

// ConsumeStatus returns the status flags and clears them, the pending line
// interrupt and the control latch.
func (v *VDP) ConsumeStatus() byte {
	out := v.PeekStatus()
	v.status = 0
	v.linePending = false
	v.latch = false
	v.updateIRQ()
	return out
}

// VCounter is the port 0x7E value: NTSC lines 0-0xDA map directly, later
// lines jump back by 6 (0xD5-0xFF).
func (v *VDP) VCounter() byte {
	if v.line <= 0xDA {
		return byte(v.line)
	}
	return byte(v.line - 6)
}

// HCounter is the port 0x7F value, half the pixel position across the
// 342 pixel line.
func (v *VDP) HCounter() byte {
	return byte(v.cycle * 342 / VDP_CYCLES_PER_LINE / 2)
}

// Line returns the beam line.
func (v *VDP) Line() int {
	return v.line
}

// Frames counts completed frames.
func (v *VDP) Frames() uint64 {
	return v.frames
}

func (v *VDP) Register(r int) byte {
	return v.regs[r&0xF]
}

func (v *VDP) VRAM() []byte {
	return v.vram[:]
}

func (v *VDP) CRAM() []byte {
	return v.cram[:]
}

func (v *VDP) Frame() []byte {
	return v.frame
}

func (v *VDP) FrameSize() (int, int) {
	return VDP_WIDTH, VDP_HEIGHT
}

// Tick advances the beam by cycles CPU clocks.
func (v *VDP) Tick(cycles int) {
	v.cycle += cycles
	for v.cycle >= VDP_CYCLES_PER_LINE {
		v.cycle -= VDP_CYCLES_PER_LINE
		v.endLine()
	}
}

func (v *VDP) endLine() {
	y := v.line
	if y < VDP_HEIGHT {
		v.RenderScanline(y)
	}
	if y <= VDP_HEIGHT {
		if v.lineCounter == 0 {
			v.lineCounter = v.regs[10]
			v.linePending = true
		} else {
			v.lineCounter--
		}
	} else {
		v.lineCounter = v.regs[10]
	}

	v.line++
	if v.line == VDP_LINES_PER_FRAME {
		v.line = 0
		v.frames++
	}
	if v.line == VDP_HEIGHT {
		v.status |= VDP_STATUS_VBLANK
	}
	v.updateIRQ()
}

// vdpColor expands a --BBGGRR CRAM entry.
func vdpColor(c byte) uint32 {
	return packRGBA((c&3)*85, (c>>2&3)*85, (c>>4&3)*85)
}

type vdpPixel struct {
	index    byte // CRAM index, bit 4 selects the sprite palette
	priority bool
}

// RenderScanline draws visible line y into the frame buffer.
func (v *VDP) RenderScanline(y int) {
	if y < 0 || y >= VDP_HEIGHT {
		return
	}
	row := v.frame[y*VDP_WIDTH*4 : (y+1)*VDP_WIDTH*4]
	backdrop := v.palette[16+v.regs[7]&0x0F]
	if v.regs[1]&VDP_R1_DISPLAY == 0 {
		fillPixels(row, backdrop)
		return
	}

	var bg [VDP_WIDTH]vdpPixel
	var spr [VDP_WIDTH]byte
	v.renderBackground(y, &bg)
	v.renderSprites(y, &spr)

	maskCol0 := v.regs[0]&VDP_R0_MASK_COL0 != 0
	for x := range VDP_WIDTH {
		var c uint32
		b, s := bg[x], spr[x]
		switch {
		case maskCol0 && x < 8:
			c = backdrop
		case s&0x0F != 0 && !(b.priority && b.index&0x0F != 0):
			c = v.palette[s]
		default:
			c = v.palette[b.index]
		}
		putPixel(row, x*4, c)
	}
}

func (v *VDP) tileRow(addr int) (b0, b1, b2, b3 byte) {
	return v.vram[addr&0x3FFF], v.vram[(addr+1)&0x3FFF], v.vram[(addr+2)&0x3FFF], v.vram[(addr+3)&0x3FFF]
}

func planarPixel(b0, b1, b2, b3 byte, bit uint) byte {
	return b0>>bit&1 | (b1>>bit&1)<<1 | (b2>>bit&1)<<2 | (b3>>bit&1)<<3
}

func (v *VDP) renderBackground(y int, out *[VDP_WIDTH]vdpPixel) {
	nameTable := int(v.regs[2]&0x0E) << 10
	scrollX := int(v.regs[8])
	if v.regs[0]&VDP_R0_HLOCK != 0 && y < 16 {
		scrollX = 0
	}
	for x := range VDP_WIDTH {
		scrollY := int(v.regs[9])
		if v.regs[0]&VDP_R0_VLOCK != 0 && x >= 192 {
			scrollY = 0
		}
		bx := (x - scrollX) & 0xFF
		by := (y + scrollY) % vdpBGHeight

		entryAddr := nameTable + (by/8)*64 + (bx/8)*2
		entry := uint16(v.vram[(entryAddr+1)&0x3FFF])<<8 | uint16(v.vram[entryAddr&0x3FFF])

		py, px := by&7, bx&7
		if entry&0x0400 != 0 {
			py = 7 - py
		}
		if entry&0x0200 != 0 {
			px = 7 - px
		}
		b0, b1, b2, b3 := v.tileRow(int(entry&0x01FF)*32 + py*4)
		idx := planarPixel(b0, b1, b2, b3, uint(7-px))
		if entry&0x0800 != 0 {
			idx |= 0x10
		}
		out[x] = vdpPixel{index: idx, priority: entry&0x1000 != 0}
	}
}

// renderSprites fills out with sprite palette indices (0 is transparent)
// and sets the overflow and collision flags.
func (v *VDP) renderSprites(y int, out *[VDP_WIDTH]byte) {
	sat := int(v.regs[5]&0x7E) << 7
	patterns := 0
	if v.regs[6]&0x04 != 0 {
		patterns = 0x2000
	}
	height := 8
	if v.regs[1]&VDP_R1_SPRITE_8X16 != 0 {
		height = 16
	}
	shift := 0
	if v.regs[0]&VDP_R0_SPRITE_LEFT != 0 {
		shift = 8
	}

	drawn := 0
	for i := range 64 {
		sy := int(v.vram[sat+i])
		if sy == vdpSpriteEnd {
			break
		}
		if sy > 240 {
			sy -= 256
		}
		sy++
		if y < sy || y >= sy+height {
			continue
		}
		if drawn == vdpMaxLineSprite {
			v.status |= VDP_STATUS_OVERFLOW
			break
		}
		drawn++

		sx := int(v.vram[sat+0x80+i*2]) - shift
		tile := int(v.vram[sat+0x81+i*2])
		if height == 16 {
			tile &^= 1
		}
		b0, b1, b2, b3 := v.tileRow(patterns + tile*32 + (y-sy)*4)
		for px := range 8 {
			x := sx + px
			if x < 0 || x >= VDP_WIDTH {
				continue
			}
			c := planarPixel(b0, b1, b2, b3, uint(7-px))
			if c == 0 {
				continue
			}
			if out[x] != 0 {
				v.status |= VDP_STATUS_COLLISION
				continue
			}
			out[x] = 0x10 | c
		}
	}
}
