package oxid

import "testing"

func TestDisassembleZ80(t *testing.T) {
	tests := []struct {
		bytes []byte
		want  string
		size  int
	}{
		{[]byte{0x00}, "NOP", 1},
		{[]byte{0x01, 0x34, 0x12}, "LD BC,$1234", 3},
		{[]byte{0x18, 0xFE}, "JR $1000", 2},
		{[]byte{0x20, 0x02}, "JR NZ,$1004", 2},
		{[]byte{0x36, 0x55}, "LD (HL),$55", 2},
		{[]byte{0x41}, "LD B,C", 1},
		{[]byte{0x76}, "HALT", 1},
		{[]byte{0x86}, "ADD A,(HL)", 1},
		{[]byte{0xFE, 0x10}, "CP $10", 2},
		{[]byte{0xC3, 0x00, 0x80}, "JP $8000", 3},
		{[]byte{0xF5}, "PUSH AF", 1},
		{[]byte{0xFF}, "RST $38", 1},
		{[]byte{0xCB, 0x30}, "SLL B", 2},
		{[]byte{0xCB, 0x7E}, "BIT 7,(HL)", 2},
		{[]byte{0xED, 0xB0}, "LDIR", 2},
		{[]byte{0xED, 0x5E}, "IM 2", 2},
		{[]byte{0xED, 0x43, 0x00, 0x90}, "LD ($9000),BC", 4},
		{[]byte{0xED, 0x00}, "DB $ED,$00", 2},
		{[]byte{0xDD, 0x21, 0x00, 0x40}, "LD IX,$4000", 4},
		{[]byte{0xDD, 0x66, 0x02}, "LD H,(IX+$02)", 3},
		{[]byte{0xFD, 0x36, 0xFE, 0x77}, "LD (IY-$02),$77", 4},
		{[]byte{0xDD, 0x44}, "LD B,IXH", 2},
		{[]byte{0xDD, 0xE9}, "JP (IX)", 2},
		{[]byte{0xDD, 0xCB, 0x01, 0x46}, "BIT 0,(IX+$01)", 4},
		{[]byte{0xFD, 0xCB, 0x01, 0x00}, "RLC (IY+$01),B", 4},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			var mem [0x10000]byte
			copy(mem[0x1000:], tc.bytes)
			got, size := DisassembleZ80(func(addr uint16) byte { return mem[addr] }, 0x1000)
			if got != tc.want {
				t.Fatalf("text = %q, want %q", got, tc.want)
			}
			if size != tc.size {
				t.Fatalf("size = %d, want %d", size, tc.size)
			}
		})
	}
}
