package oxid

import "testing"

func TestZ80InstructionCycles(t *testing.T) {
	tests := []struct {
		name   string
		prog   []byte
		setup  func(c *Z80CPU)
		cycles int
	}{
		{name: "NOP", prog: []byte{0x00}, cycles: 4},
		{name: "LD BC,nn", prog: []byte{0x01, 0x34, 0x12}, cycles: 10},
		{name: "LD (BC),A", prog: []byte{0x02}, cycles: 7},
		{name: "INC BC", prog: []byte{0x03}, cycles: 6},
		{name: "INC B", prog: []byte{0x04}, cycles: 4},
		{name: "LD B,n", prog: []byte{0x06, 0x01}, cycles: 7},
		{name: "ADD HL,BC", prog: []byte{0x09}, cycles: 11},
		{name: "DJNZ taken", prog: []byte{0x10, 0xFE}, setup: func(c *Z80CPU) { c.B = 2 }, cycles: 13},
		{name: "DJNZ not taken", prog: []byte{0x10, 0xFE}, setup: func(c *Z80CPU) { c.B = 1 }, cycles: 8},
		{name: "JR", prog: []byte{0x18, 0x00}, cycles: 12},
		{name: "JR NZ not taken", prog: []byte{0x20, 0x00}, setup: func(c *Z80CPU) { c.F = z80FlagZ }, cycles: 7},
		{name: "LD (nn),HL", prog: []byte{0x22, 0x00, 0x90}, cycles: 16},
		{name: "LD A,(nn)", prog: []byte{0x3A, 0x00, 0x90}, cycles: 13},
		{name: "INC (HL)", prog: []byte{0x34}, cycles: 11},
		{name: "LD (HL),n", prog: []byte{0x36, 0x55}, cycles: 10},
		{name: "LD B,C", prog: []byte{0x41}, cycles: 4},
		{name: "LD B,(HL)", prog: []byte{0x46}, cycles: 7},
		{name: "ADD A,(HL)", prog: []byte{0x86}, cycles: 7},
		{name: "RET NZ taken", prog: []byte{0xC0}, setup: func(c *Z80CPU) { c.F = 0 }, cycles: 11},
		{name: "RET NZ not taken", prog: []byte{0xC0}, setup: func(c *Z80CPU) { c.F = z80FlagZ }, cycles: 5},
		{name: "POP BC", prog: []byte{0xC1}, cycles: 10},
		{name: "JP nn", prog: []byte{0xC3, 0x00, 0x10}, cycles: 10},
		{name: "CALL Z not taken", prog: []byte{0xCC, 0x00, 0x10}, setup: func(c *Z80CPU) { c.F = 0 }, cycles: 10},
		{name: "PUSH BC", prog: []byte{0xC5}, cycles: 11},
		{name: "CALL nn", prog: []byte{0xCD, 0x00, 0x10}, cycles: 17},
		{name: "RST 38", prog: []byte{0xFF}, cycles: 11},
		{name: "OUT (n),A", prog: []byte{0xD3, 0xFE}, cycles: 11},
		{name: "IN A,(n)", prog: []byte{0xDB, 0xFE}, cycles: 11},
		{name: "EX (SP),HL", prog: []byte{0xE3}, cycles: 19},
		{name: "JP (HL)", prog: []byte{0xE9}, cycles: 4},
		{name: "LD SP,HL", prog: []byte{0xF9}, cycles: 6},
		{name: "RLC B", prog: []byte{0xCB, 0x00}, cycles: 8},
		{name: "RLC (HL)", prog: []byte{0xCB, 0x06}, cycles: 15},
		{name: "BIT 0,(HL)", prog: []byte{0xCB, 0x46}, cycles: 12},
		{name: "SET 0,(HL)", prog: []byte{0xCB, 0xC6}, cycles: 15},
		{name: "IN B,(C)", prog: []byte{0xED, 0x40}, cycles: 12},
		{name: "SBC HL,BC", prog: []byte{0xED, 0x42}, cycles: 15},
		{name: "LD (nn),BC", prog: []byte{0xED, 0x43, 0x00, 0x90}, cycles: 20},
		{name: "NEG", prog: []byte{0xED, 0x44}, cycles: 8},
		{name: "RETN", prog: []byte{0xED, 0x45}, cycles: 14},
		{name: "IM 1", prog: []byte{0xED, 0x56}, cycles: 8},
		{name: "LD A,I", prog: []byte{0xED, 0x57}, cycles: 9},
		{name: "RLD", prog: []byte{0xED, 0x6F}, cycles: 18},
		{name: "ED hole", prog: []byte{0xED, 0x00}, cycles: 8},
		{name: "LD IX,nn", prog: []byte{0xDD, 0x21, 0x00, 0x80}, cycles: 14},
		{name: "ADD IX,BC", prog: []byte{0xDD, 0x09}, cycles: 15},
		{name: "INC IX", prog: []byte{0xDD, 0x23}, cycles: 10},
		{name: "LD IXH,B", prog: []byte{0xDD, 0x60}, cycles: 8},
		{name: "LD B,(IX+d)", prog: []byte{0xDD, 0x46, 0x01}, cycles: 19},
		{name: "LD (IX+d),n", prog: []byte{0xDD, 0x36, 0x01, 0x55}, cycles: 19},
		{name: "INC (IX+d)", prog: []byte{0xDD, 0x34, 0x01}, cycles: 23},
		{name: "ADD A,(IY+d)", prog: []byte{0xFD, 0x86, 0x02}, cycles: 19},
		{name: "PUSH IX", prog: []byte{0xDD, 0xE5}, cycles: 15},
		{name: "POP IY", prog: []byte{0xFD, 0xE1}, cycles: 14},
		{name: "EX (SP),IX", prog: []byte{0xDD, 0xE3}, cycles: 23},
		{name: "JP (IX)", prog: []byte{0xDD, 0xE9}, cycles: 8},
		{name: "LD HL,(nn) via IY", prog: []byte{0xFD, 0x2A, 0x00, 0x90}, cycles: 20},
		{name: "BIT 1,(IX+d)", prog: []byte{0xDD, 0xCB, 0x01, 0x4E}, cycles: 20},
		{name: "RLC (IX+d)", prog: []byte{0xDD, 0xCB, 0x01, 0x06}, cycles: 23},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rig := newCPUZ80TestRig()
			rig.resetAndLoad(0x0100, tc.prog)
			rig.cpu.SP = 0xFF00
			rig.cpu.SetHL(0x8000)
			rig.cpu.IX = 0x8000
			rig.cpu.IY = 0x8000
			rig.cpu.SetBC(0x0010)
			if tc.setup != nil {
				tc.setup(rig.cpu)
			}
			requireZ80Cycles(t, rig.step(t), tc.cycles)
			if rig.cpu.Cycles != uint64(tc.cycles) {
				t.Fatalf("Cycles = %d, want %d", rig.cpu.Cycles, tc.cycles)
			}
		})
	}
}

func TestZ80CountdownProgram(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0x06, 0x0A, // LD B,10
		0x05,       // DEC B
		0x20, 0xFD, // JR NZ,-3
		0x76, // HALT
	})

	total := rig.run(t, 1000)

	requireZ80EqualU8(t, "B", rig.cpu.B, 0x00)
	if !rig.cpu.Halted {
		t.Fatalf("CPU should be halted")
	}
	// 7 + 10*4 + 9*12 + 7 + 4
	requireZ80Cycles(t, total, 166)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0006)
}

func TestZ80DJNZLoopCycles(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0x06, 0x0A, // LD B,10
		0x10, 0xFE, // DJNZ $
		0x76, // HALT
	})

	total := rig.run(t, 100)

	requireZ80EqualU8(t, "B", rig.cpu.B, 0x00)
	requireZ80Cycles(t, total, 7+9*13+8+4)
}
