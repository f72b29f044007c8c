package oxid

import (
	"bytes"
	"testing"
)

func TestSoundStubRecordsWrites(t *testing.T) {
	s := NewSoundStub()
	s.Write(0x7F, 0x9F)
	s.Write(0x7F, 0xBF)
	s.Write(0xFE, 0x10)

	if s.Writes() != 3 {
		t.Fatalf("writes = %d", s.Writes())
	}
	if v, ok := s.Last(0x7F); !ok || v != 0xBF {
		t.Fatalf("last 0x7F = 0x%02X %v", v, ok)
	}
	if _, ok := s.Last(0x10); ok {
		t.Fatalf("unwritten register reported")
	}
	if regs := s.Registers(); len(regs) != 2 || regs[0] != 0x7F || regs[1] != 0xFE {
		t.Fatalf("registers = %v", regs)
	}
}

func TestSoundStubReadsOpenBusAndNeverInterrupts(t *testing.T) {
	s := NewSoundStub()
	s.Write(0, 0x12)
	s.Tick(100000)
	if s.Read(0) != 0xFF {
		t.Fatalf("read = 0x%02X", s.Read(0))
	}
	if s.InterruptPending() {
		t.Fatalf("stub interrupted")
	}
}

func TestSoundStubStreamIsSilent(t *testing.T) {
	s := NewSoundStub()
	buf := bytes.Repeat([]byte{0xAA}, 10)
	n, err := s.Stream().Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 8 {
		t.Fatalf("n = %d, want whole frames only", n)
	}
	for i := range n {
		if buf[i] != 0 {
			t.Fatalf("sample byte %d = 0x%02X", i, buf[i])
		}
	}
	if s.Streamed() != 8 {
		t.Fatalf("streamed = %d", s.Streamed())
	}
}
