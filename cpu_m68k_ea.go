package oxid

// Effective address resolution and operand access.

// m68kTarget is a resolved operand: a register, a memory address or an
// immediate value.
type m68kTarget struct {
	mode uint8
	reg  uint8
	addr uint32
	imm  uint32
}

// m68kEATimes holds the address calculation times for byte/word and long
// operands, indexed by M68K_AM_*.
var m68kEATimes = [2][M68K_AM_QUICK + 1]int{
	{0, 0, 4, 4, 6, 8, 10, 8, 12, 8, 10, 4, 0},
	{0, 0, 8, 8, 10, 12, 14, 12, 16, 12, 14, 8, 0},
}

func m68kEATime(mode uint8, size uint8) int {
	if size == M68K_SIZE_LONG {
		return m68kEATimes[1][mode]
	}
	return m68kEATimes[0][mode]
}

func (t m68kTarget) memory() bool {
	return t.mode >= M68K_AM_AR_IND && t.mode <= M68K_AM_PC_INDEX
}

// addrStep is the postincrement/predecrement amount; A7 stays word aligned.
func addrStep(size, reg uint8) uint32 {
	if size == M68K_SIZE_BYTE && reg == 7 {
		return 2
	}
	return m68kSizeLen[size]
}

func signExtend(value uint32, size uint8) uint32 {
	switch size {
	case M68K_SIZE_BYTE:
		return uint32(int32(int8(value)))
	case M68K_SIZE_WORD:
		return uint32(int32(int16(value)))
	}
	return value
}

// indexed reads a brief extension word and adds its displacement and index
// register to base.
func (cpu *M68KCPU) indexed(base uint32) uint32 {
	ext := cpu.fetch16()
	reg := (ext >> 12) & 7
	var idx uint32
	if ext&0x8000 != 0 {
		idx = cpu.AddrRegs[reg]
	} else {
		idx = cpu.DataRegs[reg]
	}
	if ext&0x0800 == 0 {
		idx = signExtend(idx, M68K_SIZE_WORD)
	}
	return base + signExtend(ext, M68K_SIZE_BYTE) + idx
}

// GetEffectiveAddress resolves op without charging calculation time,
// consuming extension words and applying postincrement and predecrement.
func (cpu *M68KCPU) GetEffectiveAddress(op m68kOperand, size uint8, quick uint8) m68kTarget {
	t := m68kTarget{mode: op.Mode, reg: op.Reg}
	switch op.Mode {
	case M68K_AM_AR_IND:
		t.addr = cpu.AddrRegs[op.Reg]
	case M68K_AM_AR_POST:
		t.addr = cpu.AddrRegs[op.Reg]
		cpu.AddrRegs[op.Reg] += addrStep(size, op.Reg)
	case M68K_AM_AR_PRE:
		cpu.AddrRegs[op.Reg] -= addrStep(size, op.Reg)
		t.addr = cpu.AddrRegs[op.Reg]
	case M68K_AM_AR_DISP:
		t.addr = cpu.AddrRegs[op.Reg] + signExtend(cpu.fetch16(), M68K_SIZE_WORD)
	case M68K_AM_AR_INDEX:
		t.addr = cpu.indexed(cpu.AddrRegs[op.Reg])
	case M68K_AM_ABS_SHORT:
		t.addr = signExtend(cpu.fetch16(), M68K_SIZE_WORD)
	case M68K_AM_ABS_LONG:
		t.addr = cpu.fetch32()
	case M68K_AM_PC_DISP:
		base := cpu.PC
		t.addr = base + signExtend(cpu.fetch16(), M68K_SIZE_WORD)
	case M68K_AM_PC_INDEX:
		t.addr = cpu.indexed(cpu.PC)
	case M68K_AM_IMM:
		if size == M68K_SIZE_LONG {
			t.imm = cpu.fetch32()
		} else {
			t.imm = cpu.fetch16() & m68kSizeMask[size]
		}
	case M68K_AM_QUICK:
		t.imm = uint32(quick)
	}
	return t
}

// resolve is GetEffectiveAddress plus the standard calculation time.
func (cpu *M68KCPU) resolve(op m68kOperand, size uint8, quick uint8) m68kTarget {
	cpu.tick(m68kEATime(op.Mode, size))
	return cpu.GetEffectiveAddress(op, size, quick)
}

func (cpu *M68KCPU) readTarget(t m68kTarget, size uint8) uint32 {
	switch t.mode {
	case M68K_AM_DR:
		return cpu.DataRegs[t.reg] & m68kSizeMask[size]
	case M68K_AM_AR:
		return cpu.AddrRegs[t.reg] & m68kSizeMask[size]
	case M68K_AM_IMM, M68K_AM_QUICK:
		return t.imm
	}
	return cpu.read(t.addr, size)
}

// writeTarget stores value; data registers keep their bits above size,
// address registers always take the full long.
func (cpu *M68KCPU) writeTarget(t m68kTarget, size uint8, value uint32) {
	switch t.mode {
	case M68K_AM_DR:
		m := m68kSizeMask[size]
		cpu.DataRegs[t.reg] = cpu.DataRegs[t.reg]&^m | value&m
	case M68K_AM_AR:
		cpu.AddrRegs[t.reg] = value
	default:
		cpu.write(t.addr, size, value)
	}
}

// Control addressing times for LEA, PEA, JMP, JSR and the MOVEM base cost, indexed by
// (An), d16(An), d8(An,Xn), abs.W, abs.L. PC relative forms cost the
// same as their address-register counterparts.
var (
	m68kLEATimes = [5]int{4, 8, 12, 8, 12}
	m68kPEATimes = [5]int{12, 16, 20, 16, 20}
	m68kJMPTimes = [5]int{8, 10, 14, 10, 12}
	m68kJSRTimes = [5]int{16, 18, 22, 18, 20}

	m68kMovemToMemTimes = [5]int{8, 12, 14, 12, 16}
	m68kMovemToRegTimes = [5]int{12, 16, 18, 16, 20}
)

func m68kControlTime(mode uint8, table *[5]int) int {
	switch mode {
	case M68K_AM_AR_IND:
		return table[0]
	case M68K_AM_AR_DISP, M68K_AM_PC_DISP:
		return table[1]
	case M68K_AM_AR_INDEX, M68K_AM_PC_INDEX:
		return table[2]
	case M68K_AM_ABS_SHORT:
		return table[3]
	}
	return table[4]
}

// MOVE destination costs, including the base 4 cycles, for byte/word and
// long operands.
var m68kMoveDstTimes = [2][M68K_AM_ABS_LONG + 1]int{
	{4, 4, 8, 8, 8, 12, 14, 12, 16},
	{4, 4, 12, 12, 12, 16, 18, 16, 20},
}

func m68kMoveDstTime(mode, size uint8) int {
	if size == M68K_SIZE_LONG {
		return m68kMoveDstTimes[1][mode]
	}
	return m68kMoveDstTimes[0][mode]
}
