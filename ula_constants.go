// ula_constants.go - ZX Spectrum ULA port bits and timing constants for oxid

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

/*
ula_constants.go - ZX Spectrum ULA Constants

Display memory layout, frame geometry, timing and palette for the 48K
Spectrum ULA.

Port Decoding:
  Any even port reaches the ULA (A0 low). Reads return the keyboard
  half-rows selected by the low bits of the high address byte; writes
  set the border (bits 0-2), MIC (bit 3) and EAR (bit 4).

Display Specifications:
  - Resolution: 256x192 pixels (32x24 character cells of 8x8 pixels)
  - Border: 32 pixels on each side, 320x256 total frame
  - VRAM: 6144 bytes bitmap + 768 bytes attributes at 0x4000
  - FLASH swaps INK/PAPER, toggling every 16 frames

Attribute Byte Format:
  Bit 7: FLASH
  Bit 6: BRIGHT
  Bits 5-3: PAPER
  Bits 2-0: INK
*/

package oxid

const (
	ULA_PORT      = 0xFE
	ULA_PORT_MASK = 0x0001

	ULA_OUT_BORDER = 0x07
	ULA_OUT_MIC    = 0x08
	ULA_OUT_EAR    = 0x10

	// Bits 5 and 7 of a port read are always high
	ULA_IN_FIXED = 0xA0
	ULA_IN_EAR   = 0x40
)

const (
	ULA_VRAM_BASE   = 0x4000
	ULA_BITMAP_SIZE = 6144
	ULA_ATTR_OFFSET = 0x1800
	ULA_ATTR_SIZE   = 768
	ULA_VRAM_SIZE   = ULA_BITMAP_SIZE + ULA_ATTR_SIZE
)

const (
	ULA_DISPLAY_WIDTH  = 256
	ULA_DISPLAY_HEIGHT = 192
	ULA_CELLS_X        = 32

	ULA_BORDER_LEFT = 32
	ULA_BORDER_TOP  = 32

	ULA_FRAME_WIDTH  = ULA_DISPLAY_WIDTH + 2*ULA_BORDER_LEFT  // 320
	ULA_FRAME_HEIGHT = ULA_DISPLAY_HEIGHT + 2*ULA_BORDER_TOP // 256
)

const (
	// T-states per 50.08 Hz frame at 3.5 MHz
	ULA_FRAME_CYCLES = 69888
	// The frame interrupt is held for the first 32 T-states
	ULA_IRQ_CYCLES   = 32
	ULA_FLASH_FRAMES = 16
	ULA_KEY_ROWS     = 8
)

// Normal colors (BRIGHT clear)
var ULAColorNormal = [8][3]uint8{
	{0, 0, 0},       // 0: Black
	{0, 0, 205},     // 1: Blue
	{205, 0, 0},     // 2: Red
	{205, 0, 205},   // 3: Magenta
	{0, 205, 0},     // 4: Green
	{0, 205, 205},   // 5: Cyan
	{205, 205, 0},   // 6: Yellow
	{205, 205, 205}, // 7: White
}

// Bright colors (BRIGHT set)
var ULAColorBright = [8][3]uint8{
	{0, 0, 0},
	{0, 0, 255},
	{255, 0, 0},
	{255, 0, 255},
	{0, 255, 0},
	{0, 255, 255},
	{255, 255, 0},
	{255, 255, 255},
}
