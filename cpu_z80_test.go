package oxid

import "testing"

func TestZ80ResetState(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.cpu.PC = 0x1234
	rig.cpu.IFF1 = true
	rig.cpu.Halted = true

	rig.cpu.Reset()

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0000)
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0xFFFF)
	requireZ80EqualU16(t, "AF", rig.cpu.AF(), 0xFFFF)
	if rig.cpu.IFF1 || rig.cpu.IFF2 || rig.cpu.Halted {
		t.Fatalf("reset should clear IFF1/IFF2 and HALT")
	}
	if rig.cpu.IM != Z80IM0 {
		t.Fatalf("IM = %d, want 0", rig.cpu.IM)
	}
}

func TestZ80ALUFlags(t *testing.T) {
	tests := []struct {
		name  string
		prog  []byte
		a     byte
		wantA byte
		wantF byte
	}{
		{name: "ADD overflow", prog: []byte{0xC6, 0x01}, a: 0x7F, wantA: 0x80, wantF: 0x94},
		{name: "SUB borrow", prog: []byte{0xD6, 0x01}, a: 0x00, wantA: 0xFF, wantF: 0xBB},
		{name: "CP takes XY from operand", prog: []byte{0xFE, 0x28}, a: 0x00, wantA: 0x00, wantF: 0xBB},
		{name: "AND sets H", prog: []byte{0xE6, 0x0F}, a: 0xF0, wantA: 0x00, wantF: 0x54},
		{name: "XOR parity", prog: []byte{0xEE, 0xFF}, a: 0x0F, wantA: 0xF0, wantF: 0xA4},
		{name: "NEG", prog: []byte{0xED, 0x44}, a: 0x01, wantA: 0xFF, wantF: 0xBB},
		{name: "NEG duplicate encoding", prog: []byte{0xED, 0x4C}, a: 0x01, wantA: 0xFF, wantF: 0xBB},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rig := newCPUZ80TestRig()
			rig.resetAndLoad(0x0000, tc.prog)
			rig.cpu.A = tc.a
			rig.cpu.F = 0
			rig.step(t)
			requireZ80EqualU8(t, "A", rig.cpu.A, tc.wantA)
			requireZ80EqualU8(t, "F", rig.cpu.F, tc.wantF)
		})
	}
}

func TestZ80IncDecFlags(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x3C}) // INC A
	rig.cpu.A = 0x7F
	rig.cpu.F = z80FlagC
	rig.step(t)
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x80)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x95)

	rig.resetAndLoad(0x0000, []byte{0x3D}) // DEC A
	rig.cpu.A = 0x80
	rig.cpu.F = 0
	rig.step(t)
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x7F)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x3E)
}

func TestZ80DAAAfterAdd(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0x3E, 0x15, // LD A,0x15
		0xC6, 0x27, // ADD A,0x27
		0x27, // DAA
	})
	rig.cpu.F = 0
	rig.step(t)
	rig.step(t)
	rig.step(t)
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x42)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x14)
}

func TestZ80DAAAfterSub(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0x3E, 0x42, // LD A,0x42
		0xD6, 0x15, // SUB 0x15
		0x27, // DAA
	})
	rig.step(t)
	rig.step(t)
	rig.step(t)
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x27)
	requireZ80EqualU8(t, "F", rig.cpu.F, 0x26)
}

func TestZ80ShiftCarryOut(t *testing.T) {
	tests := []struct {
		name  string
		op    byte
		b     byte
		carry bool
		wantB byte
		wantC bool
	}{
		{name: "RLC", op: 0x00, b: 0x81, wantB: 0x03, wantC: true},
		{name: "RRC", op: 0x08, b: 0x01, wantB: 0x80, wantC: true},
		{name: "RL carry in", op: 0x10, b: 0x00, carry: true, wantB: 0x01, wantC: false},
		{name: "RR carry in", op: 0x18, b: 0x01, carry: true, wantB: 0x80, wantC: true},
		{name: "SLA", op: 0x20, b: 0x80, wantB: 0x00, wantC: true},
		{name: "SRA keeps sign", op: 0x28, b: 0x81, wantB: 0xC0, wantC: true},
		{name: "SLL sets bit 0", op: 0x30, b: 0x80, wantB: 0x01, wantC: true},
		{name: "SRL", op: 0x38, b: 0x01, wantB: 0x00, wantC: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rig := newCPUZ80TestRig()
			rig.resetAndLoad(0x0000, []byte{0xCB, tc.op})
			rig.cpu.B = tc.b
			rig.cpu.F = 0
			rig.cpu.SetFlag(z80FlagC, tc.carry)
			rig.step(t)
			requireZ80EqualU8(t, "B", rig.cpu.B, tc.wantB)
			if rig.cpu.Flag(z80FlagC) != tc.wantC {
				t.Fatalf("carry = %t, want %t", rig.cpu.Flag(z80FlagC), tc.wantC)
			}
		})
	}
}

func TestZ80IndexHalves(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0xDD, 0x21, 0x34, 0x12, // LD IX,0x1234
		0xDD, 0x44, // LD B,IXH
		0xDD, 0x4D, // LD C,IXL
		0xDD, 0x2C, // INC IXL
		0xFD, 0x26, 0x56, // LD IYH,0x56
	})
	for i := 0; i < 5; i++ {
		rig.step(t)
	}
	requireZ80EqualU8(t, "B", rig.cpu.B, 0x12)
	requireZ80EqualU8(t, "C", rig.cpu.C, 0x34)
	requireZ80EqualU16(t, "IX", rig.cpu.IX, 0x1235)
	requireZ80EqualU16(t, "IY", rig.cpu.IY, 0x5600)
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x0000)
}

func TestZ80IndexedLoadUsesPlainH(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xDD, 0x66, 0x02}) // LD H,(IX+2)
	rig.cpu.IX = 0x8000
	rig.bus.mem[0x8002] = 0x9A
	rig.step(t)
	requireZ80EqualU8(t, "H", rig.cpu.H, 0x9A)
	requireZ80EqualU16(t, "IX", rig.cpu.IX, 0x8000)
}

func TestZ80IndexedNegativeDisplacement(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xFD, 0x36, 0xFE, 0x77}) // LD (IY-2),0x77
	rig.cpu.IY = 0x8002
	rig.step(t)
	requireZ80EqualU8(t, "mem[0x8000]", rig.bus.mem[0x8000], 0x77)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0004)
}

func TestZ80IndexedCBRegisterCopy(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xDD, 0xCB, 0x01, 0x00}) // RLC (IX+1),B
	rig.cpu.IX = 0x8000
	rig.bus.mem[0x8001] = 0x81
	rig.step(t)
	requireZ80EqualU8(t, "mem", rig.bus.mem[0x8001], 0x03)
	requireZ80EqualU8(t, "B", rig.cpu.B, 0x03)
	if !rig.cpu.Flag(z80FlagC) {
		t.Fatalf("carry should be set")
	}
}

func TestZ80BitIndexedXYFromAddress(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xDD, 0xCB, 0x00, 0x46}) // BIT 0,(IX+0)
	rig.cpu.IX = 0x2800
	rig.bus.mem[0x2800] = 0x00
	rig.cpu.F = 0
	rig.step(t)
	// Z, PV and H from the test; X and Y from 0x28
	requireZ80EqualU8(t, "F", rig.cpu.F, z80FlagZ|z80FlagPV|z80FlagH|z80FlagX|z80FlagY)
}

func TestZ80ExchangeIgnoresIndexPrefix(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xDD, 0xEB}) // DD EX DE,HL
	rig.cpu.SetDE(0x1111)
	rig.cpu.SetHL(0x2222)
	rig.cpu.IX = 0x3333
	rig.step(t)
	requireZ80EqualU16(t, "DE", rig.cpu.DE(), 0x2222)
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x1111)
	requireZ80EqualU16(t, "IX", rig.cpu.IX, 0x3333)
}

func TestZ80RLDRRD(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xED, 0x6F, 0xED, 0x67}) // RLD; RRD
	rig.cpu.SetHL(0x8000)
	rig.cpu.A = 0x7A
	rig.bus.mem[0x8000] = 0x31

	rig.step(t)
	requireZ80EqualU8(t, "A after RLD", rig.cpu.A, 0x73)
	requireZ80EqualU8(t, "(HL) after RLD", rig.bus.mem[0x8000], 0x1A)

	rig.step(t)
	requireZ80EqualU8(t, "A after RRD", rig.cpu.A, 0x7A)
	requireZ80EqualU8(t, "(HL) after RRD", rig.bus.mem[0x8000], 0x31)
}

func TestZ80SixteenBitArithmetic(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0xED, 0x4A}) // ADC HL,BC
	rig.cpu.SetHL(0x7FFF)
	rig.cpu.SetBC(0x0000)
	rig.cpu.F = z80FlagC
	rig.step(t)
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x8000)
	if !rig.cpu.Flag(z80FlagPV) || !rig.cpu.Flag(z80FlagS) || !rig.cpu.Flag(z80FlagH) {
		t.Fatalf("ADC HL overflow flags wrong: F=0x%02X", rig.cpu.F)
	}

	rig.resetAndLoad(0x0000, []byte{0xED, 0x52}) // SBC HL,DE
	rig.cpu.SetHL(0x1000)
	rig.cpu.SetDE(0x1000)
	rig.cpu.F = 0
	rig.step(t)
	requireZ80EqualU16(t, "HL", rig.cpu.HL(), 0x0000)
	if !rig.cpu.Flag(z80FlagZ) || !rig.cpu.Flag(z80FlagN) || rig.cpu.Flag(z80FlagC) {
		t.Fatalf("SBC HL flags wrong: F=0x%02X", rig.cpu.F)
	}
}

func TestZ80PortIO(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0x3E, 0x12, // LD A,0x12
		0xD3, 0xFE, // OUT (0xFE),A
		0x01, 0x7F, 0x40, // LD BC,0x407F
		0xED, 0x78, // IN A,(C)
	})
	rig.bus.io[0x407F] = 0x80
	for i := 0; i < 4; i++ {
		rig.step(t)
	}
	requireZ80EqualU8(t, "io[0x12FE]", rig.bus.io[0x12FE], 0x12)
	requireZ80EqualU8(t, "A", rig.cpu.A, 0x80)
	if !rig.cpu.Flag(z80FlagS) || rig.cpu.Flag(z80FlagPV) {
		t.Fatalf("IN flags wrong: F=0x%02X", rig.cpu.F)
	}
}

func TestZ80RefreshRegister(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x00, 0xDD, 0x00, 0xCB, 0x00})
	rig.cpu.R = 0xFF
	rig.step(t)
	rig.step(t)
	rig.step(t)
	// Bit 7 is preserved; five M1 cycles advance the low seven bits
	requireZ80EqualU8(t, "R", rig.cpu.R, 0x84)
}
