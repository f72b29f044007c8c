package oxid

import "testing"

type vblankCounter struct {
	n int
}

func (v *vblankCounter) PulseCA1() { v.n++ }

func TestMacVideoScreenBase(t *testing.T) {
	ram := make([]byte, 4<<20)
	m := NewMacVideo(ram, nil)
	if m.ScreenBase() != 0x3FA700 {
		t.Fatalf("main screen = 0x%X", m.ScreenBase())
	}
	m.SelectAlternate(true)
	if m.ScreenBase() != 0x3F2700 {
		t.Fatalf("alternate screen = 0x%X", m.ScreenBase())
	}
}

func TestMacVideoRender(t *testing.T) {
	ram := make([]byte, 1<<20)
	m := NewMacVideo(ram, nil)
	base := m.ScreenBase()
	ram[base] = 0x80
	ram[base+MAC_ROW_BYTES+63] = 0x01

	f := m.Render()
	if got := rgbaAt(f, MAC_SCREEN_WIDTH, 0, 0); got != [4]byte{0, 0, 0, 255} {
		t.Fatalf("pixel 0 = %v, want black", got)
	}
	if got := rgbaAt(f, MAC_SCREEN_WIDTH, 1, 0); got != [4]byte{255, 255, 255, 255} {
		t.Fatalf("pixel 1 = %v, want white", got)
	}
	if got := rgbaAt(f, MAC_SCREEN_WIDTH, 511, 1); got != [4]byte{0, 0, 0, 255} {
		t.Fatalf("last pixel of line 1 = %v", got)
	}
}

func TestMacVideoVBlankTiming(t *testing.T) {
	vb := &vblankCounter{}
	m := NewMacVideo(make([]byte, 1<<20), vb)

	m.Tick(MAC_CYCLES_PER_LINE*MAC_SCREEN_HEIGHT - 1)
	if vb.n != 0 || m.InVBlank() {
		t.Fatalf("vblank before line 342")
	}
	m.Tick(1)
	if vb.n != 1 || !m.InVBlank() {
		t.Fatalf("vblank pulses = %d at line %d", vb.n, m.Line())
	}
	m.Tick(MAC_FRAME_CYCLES - MAC_CYCLES_PER_LINE*MAC_SCREEN_HEIGHT)
	if m.Frames() != 1 || m.Line() != 0 || vb.n != 1 {
		t.Fatalf("frames=%d line=%d pulses=%d", m.Frames(), m.Line(), vb.n)
	}
	m.Tick(MAC_FRAME_CYCLES)
	if vb.n != 2 {
		t.Fatalf("one vblank per frame, got %d", vb.n)
	}
}

func TestMacFrameRate(t *testing.T) {
	hz := float64(MAC_CLOCK_HZ) / MAC_FRAME_CYCLES
	if hz < 60.14 || hz > 60.16 {
		t.Fatalf("frame rate = %.3f Hz", hz)
	}
}
