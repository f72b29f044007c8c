package oxid

import "testing"

func TestDisassembleM68K(t *testing.T) {
	tests := []struct {
		words []uint16
		want  string
	}{
		{[]uint16{0x4E71}, "NOP"},
		{[]uint16{0x4E75}, "RTS"},
		{[]uint16{0x700A}, "MOVEQ #10,D0"},
		{[]uint16{0x72FF}, "MOVEQ #-1,D1"},
		{[]uint16{0x21FC, 0x0040, 0x0200, 0x0064}, "MOVE.L #$00400200,$0064.W"},
		{[]uint16{0x13FC, 0x0082, 0x00E8, 0x1C00}, "MOVE.B #$82,$00E81C00"},
		{[]uint16{0x46FC, 0x2000}, "MOVE #$2000,SR"},
		{[]uint16{0x5278, 0x0200}, "ADDQ.W #1,$0200.W"},
		{[]uint16{0x5380}, "SUBQ.L #1,D0"},
		{[]uint16{0x60FE}, "BRA.S $1000"},
		{[]uint16{0x66FC}, "BNE.S $FFE"},
		{[]uint16{0x6100, 0x0010}, "BSR.W $1012"},
		{[]uint16{0x51C8, 0xFFFE}, "DBF D0,$1000"},
		{[]uint16{0x4E72, 0x2700}, "STOP #$2700"},
		{[]uint16{0x3028, 0xFFFC}, "MOVE.W -4(A0),D0"},
		{[]uint16{0xE348}, "LSL.W #1,D0"},
		{[]uint16{0x4E7A}, "DC.W $4E7A"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			mem := map[uint32]uint16{}
			for i, w := range tc.words {
				mem[0x1000+uint32(i)*2] = w
			}
			text, n := DisassembleM68K(func(addr uint32) uint16 { return mem[addr] }, 0x1000)
			if text != tc.want {
				t.Fatalf("got %q, want %q", text, tc.want)
			}
			if n != 2*len(tc.words) {
				t.Fatalf("length %d, want %d", n, 2*len(tc.words))
			}
		})
	}
}
