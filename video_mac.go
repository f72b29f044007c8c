// video_mac.go - Macintosh Plus bitmap video for oxid

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
video_mac.go - Macintosh Plus video

Core Features:

    512x342 1bpp framebuffer read straight from the top of RAM: the main
    screen starts 0x5900 bytes below the end of RAM, the alternate screen
    0xD900 below. Set bits are black.
    Beam timing driven by Tick at one CPU cycle per two pixels: 352
    cycles per line, 370 lines per 60.15 Hz frame.
    On entry to line 342 the frame is rendered and the vblank edge is
    pulsed into the VIA CA1 input.
*/

const (
	MAC_SCREEN_WIDTH  = 512
	MAC_SCREEN_HEIGHT = 342
	MAC_ROW_BYTES     = MAC_SCREEN_WIDTH / 8
	MAC_SCREEN_BYTES  = MAC_ROW_BYTES * MAC_SCREEN_HEIGHT

	MAC_SCREEN_MAIN = 0x5900
	MAC_SCREEN_ALT  = 0xD900

	MAC_CYCLES_PER_LINE = 352
	MAC_LINES_PER_FRAME = 370
	MAC_FRAME_CYCLES    = MAC_CYCLES_PER_LINE * MAC_LINES_PER_FRAME
	MAC_CLOCK_HZ        = 7833600
)

var (
	macWhite = packRGBA(0xFF, 0xFF, 0xFF)
	macBlack = packRGBA(0x00, 0x00, 0x00)
)

// VBlankInput receives the vertical blanking edge.
type VBlankInput interface {
	PulseCA1()
}

// MacVideo implements Device. It occupies no bus addresses; reads return
// open bus.
type MacVideo struct {
	ram   []byte
	alt   bool
	cycle int
	line  int

	frames uint64
	frame  []byte
	vblank VBlankInput
}

func NewMacVideo(ram []byte, vblank VBlankInput) *MacVideo {
	return &MacVideo{
		ram:    ram,
		vblank: vblank,
		frame:  make([]byte, MAC_SCREEN_WIDTH*MAC_SCREEN_HEIGHT*4),
	}
}

func (m *MacVideo) Reset() {
	m.alt = false
	m.cycle, m.line, m.frames = 0, 0, 0
}

func (m *MacVideo) Read(addr uint32) byte {
	return openBus
}

func (m *MacVideo) Write(addr uint32, value byte) {}

func (m *MacVideo) InterruptPending() bool {
	return false
}

// SelectAlternate switches between the main and alternate screen buffers.
func (m *MacVideo) SelectAlternate(alt bool) {
	m.alt = alt
}

// ScreenBase is the RAM offset of the displayed buffer.
func (m *MacVideo) ScreenBase() int {
	if m.alt {
		return len(m.ram) - MAC_SCREEN_ALT
	}
	return len(m.ram) - MAC_SCREEN_MAIN
}

func (m *MacVideo) Line() int {
	return m.line
}

func (m *MacVideo) Frames() uint64 {
	return m.frames
}

// InVBlank reports whether the beam is below the visible area.
func (m *MacVideo) InVBlank() bool {
	return m.line >= MAC_SCREEN_HEIGHT
}

func (m *MacVideo) Tick(cycles int) {
	m.cycle += cycles
	for m.cycle >= MAC_CYCLES_PER_LINE {
		m.cycle -= MAC_CYCLES_PER_LINE
		m.line++
		switch m.line {
		case MAC_SCREEN_HEIGHT:
			m.Render()
			if m.vblank != nil {
				m.vblank.PulseCA1()
			}
		case MAC_LINES_PER_FRAME:
			m.line = 0
			m.frames++
		}
	}
}

func (m *MacVideo) Frame() []byte {
	return m.frame
}

func (m *MacVideo) FrameSize() (int, int) {
	return MAC_SCREEN_WIDTH, MAC_SCREEN_HEIGHT
}

// Render converts the displayed buffer to RGBA, MSB leftmost.
func (m *MacVideo) Render() []byte {
	base := m.ScreenBase()
	if base < 0 || base+MAC_SCREEN_BYTES > len(m.ram) {
		fillPixels(m.frame, macWhite)
		return m.frame
	}
	src := m.ram[base : base+MAC_SCREEN_BYTES]
	off := 0
	for _, b := range src {
		for bit := 7; bit >= 0; bit-- {
			if b>>bit&1 != 0 {
				putPixel(m.frame, off, macBlack)
			} else {
				putPixel(m.frame, off, macWhite)
			}
			off += 4
		}
	}
	return m.frame
}
