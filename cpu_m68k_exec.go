package oxid

// Instruction execution. Each case charges the documented cycle cost;
// effective address time is added by resolve.

func (cpu *M68KCPU) execute(ins *m68kInstruction) error {
	switch ins.Kind {
	case m68kIllegal:
		return cpu.illegal()
	case m68kIllegalOp:
		cpu.exceptionAt(M68K_VEC_ILLEGAL, cpu.instrPC)
	case m68kLineA:
		cpu.exceptionAt(M68K_VEC_LINE_A, cpu.instrPC)
	case m68kLineF:
		cpu.exceptionAt(M68K_VEC_LINE_F, cpu.instrPC)

	case m68kOriToCCR, m68kAndiToCCR, m68kEoriToCCR:
		cpu.ExecLogicCCR(ins)
	case m68kOriToSR, m68kAndiToSR, m68kEoriToSR:
		cpu.ExecLogicSR(ins)
	case m68kOri, m68kAndi, m68kEori, m68kAddi, m68kSubi, m68kCmpi:
		cpu.ExecImmediate(ins)
	case m68kBtst, m68kBchg, m68kBclr, m68kBset:
		cpu.ExecBit(ins)
	case m68kMovep:
		cpu.ExecMovep(ins)

	case m68kMove:
		cpu.ExecMove(ins)
	case m68kMovea:
		src := cpu.resolve(ins.Src, ins.Size, 0)
		cpu.AddrRegs[ins.Dst.Reg] = signExtend(cpu.readTarget(src, ins.Size), ins.Size)
		cpu.tick(4)

	case m68kNegx, m68kClr, m68kNeg, m68kNot:
		cpu.ExecSingle(ins)
	case m68kMoveFromSR:
		dst := cpu.GetEffectiveAddress(ins.Dst, M68K_SIZE_WORD, 0)
		cpu.writeTarget(dst, M68K_SIZE_WORD, uint32(cpu.SR))
		if dst.mode == M68K_AM_DR {
			cpu.tick(6)
		} else {
			cpu.tick(8 + m68kEATime(dst.mode, M68K_SIZE_WORD))
		}
	case m68kMoveToCCR:
		src := cpu.resolve(ins.Src, M68K_SIZE_WORD, 0)
		cpu.SetCCR(uint8(cpu.readTarget(src, M68K_SIZE_WORD)))
		cpu.tick(12)
	case m68kMoveToSR:
		if !cpu.supervisor() {
			cpu.privilegeViolation()
			return nil
		}
		src := cpu.resolve(ins.Src, M68K_SIZE_WORD, 0)
		v := cpu.readTarget(src, M68K_SIZE_WORD)
		if !cpu.fault.pending {
			cpu.SetSR(uint16(v))
		}
		cpu.tick(12)
	case m68kChk:
		cpu.ExecChk(ins)
	case m68kLea:
		src := cpu.GetEffectiveAddress(ins.Src, M68K_SIZE_LONG, 0)
		cpu.AddrRegs[ins.Dst.Reg] = src.addr
		cpu.tick(m68kControlTime(src.mode, &m68kLEATimes))
	case m68kPea:
		src := cpu.GetEffectiveAddress(ins.Src, M68K_SIZE_LONG, 0)
		cpu.Push32(src.addr)
		cpu.tick(m68kControlTime(src.mode, &m68kPEATimes))
	case m68kNbcd:
		dst := cpu.GetEffectiveAddress(ins.Dst, M68K_SIZE_BYTE, 0)
		v := cpu.readTarget(dst, M68K_SIZE_BYTE)
		cpu.writeTarget(dst, M68K_SIZE_BYTE, cpu.sbcd(v, 0))
		if dst.mode == M68K_AM_DR {
			cpu.tick(6)
		} else {
			cpu.tick(8 + m68kEATime(dst.mode, M68K_SIZE_BYTE))
		}
	case m68kSwap:
		r := &cpu.DataRegs[ins.Dst.Reg]
		*r = *r<<16 | *r>>16
		cpu.SetFlagsNZ(*r, M68K_SIZE_LONG)
		cpu.tick(4)
	case m68kExt:
		r := &cpu.DataRegs[ins.Dst.Reg]
		if ins.Size == M68K_SIZE_WORD {
			*r = *r&0xFFFF0000 | signExtend(*r, M68K_SIZE_BYTE)&0xFFFF
		} else {
			*r = signExtend(*r, M68K_SIZE_WORD)
		}
		cpu.SetFlagsNZ(*r, ins.Size)
		cpu.tick(4)
	case m68kMovemToMem:
		cpu.ExecMovemToMem(ins)
	case m68kMovemToReg:
		cpu.ExecMovemToReg(ins)
	case m68kTst:
		src := cpu.resolve(ins.Dst, ins.Size, 0)
		cpu.SetFlagsNZ(cpu.readTarget(src, ins.Size), ins.Size)
		cpu.tick(4)
	case m68kTas:
		dst := cpu.GetEffectiveAddress(ins.Dst, M68K_SIZE_BYTE, 0)
		v := cpu.readTarget(dst, M68K_SIZE_BYTE)
		cpu.SetFlagsNZ(v, M68K_SIZE_BYTE)
		cpu.writeTarget(dst, M68K_SIZE_BYTE, v|0x80)
		if dst.mode == M68K_AM_DR {
			cpu.tick(4)
		} else {
			cpu.tick(10 + m68kEATime(dst.mode, M68K_SIZE_BYTE))
		}

	case m68kTrap:
		cpu.exceptionAt(M68K_VEC_TRAP_BASE+ins.Data, cpu.PC)
	case m68kLink:
		disp := signExtend(cpu.fetch16(), M68K_SIZE_WORD)
		if ins.Dst.Reg == 7 {
			// LINK A7 stacks the already decremented stack pointer
			cpu.AddrRegs[7] -= 4
			cpu.write(cpu.AddrRegs[7], M68K_SIZE_LONG, cpu.AddrRegs[7])
		} else {
			cpu.Push32(cpu.AddrRegs[ins.Dst.Reg])
			cpu.AddrRegs[ins.Dst.Reg] = cpu.AddrRegs[7]
		}
		cpu.AddrRegs[7] += disp
		cpu.tick(16)
	case m68kUnlk:
		cpu.AddrRegs[7] = cpu.AddrRegs[ins.Dst.Reg]
		cpu.AddrRegs[ins.Dst.Reg] = cpu.Pop32()
		cpu.tick(12)
	case m68kMoveToUSP, m68kMoveFromUSP:
		if !cpu.supervisor() {
			cpu.privilegeViolation()
			return nil
		}
		if ins.Kind == m68kMoveToUSP {
			cpu.USP = cpu.AddrRegs[ins.Src.Reg]
		} else {
			cpu.AddrRegs[ins.Dst.Reg] = cpu.USP
		}
		cpu.tick(4)
	case m68kReset:
		if !cpu.supervisor() {
			cpu.privilegeViolation()
			return nil
		}
		if cpu.ResetHook != nil {
			cpu.ResetHook()
		}
		cpu.tick(M68K_CYCLE_RESET_INSTR)
	case m68kNop:
		cpu.tick(4)
	case m68kStop:
		cpu.ExecSTOP()
	case m68kRte:
		cpu.ExecRTE()
	case m68kRts:
		cpu.PC = cpu.Pop32()
		cpu.tick(16)
	case m68kTrapv:
		if cpu.SR&M68K_SR_V != 0 {
			cpu.exceptionAt(M68K_VEC_TRAPV, cpu.PC)
		} else {
			cpu.tick(4)
		}
	case m68kRtr:
		ccr := cpu.Pop16()
		cpu.PC = cpu.Pop32()
		cpu.SetCCR(uint8(ccr))
		cpu.tick(20)
	case m68kJsr:
		src := cpu.GetEffectiveAddress(ins.Src, M68K_SIZE_LONG, 0)
		cpu.Push32(cpu.PC)
		cpu.PC = src.addr
		cpu.tick(m68kControlTime(src.mode, &m68kJSRTimes))
	case m68kJmp:
		src := cpu.GetEffectiveAddress(ins.Src, M68K_SIZE_LONG, 0)
		cpu.PC = src.addr
		cpu.tick(m68kControlTime(src.mode, &m68kJMPTimes))

	case m68kAddq, m68kSubq:
		cpu.ExecQuick(ins)
	case m68kScc:
		dst := cpu.GetEffectiveAddress(ins.Dst, M68K_SIZE_BYTE, 0)
		taken := cpu.CheckCondition(ins.Op)
		v := uint32(0)
		if taken {
			v = 0xFF
		}
		cpu.writeTarget(dst, M68K_SIZE_BYTE, v)
		switch {
		case dst.mode != M68K_AM_DR:
			cpu.tick(8 + m68kEATime(dst.mode, M68K_SIZE_BYTE))
		case taken:
			cpu.tick(6)
		default:
			cpu.tick(4)
		}
	case m68kDbcc:
		cpu.ExecDBcc(ins)
	case m68kBra, m68kBsr, m68kBcc:
		cpu.ExecBranch(ins)
	case m68kMoveq:
		cpu.DataRegs[ins.Dst.Reg] = signExtend(uint32(ins.Data), M68K_SIZE_BYTE)
		cpu.SetFlagsNZ(cpu.DataRegs[ins.Dst.Reg], M68K_SIZE_LONG)
		cpu.tick(4)

	case m68kOr, m68kAnd, m68kEor, m68kAdd, m68kSub, m68kCmp:
		cpu.ExecArith(ins)
	case m68kAdda, m68kSuba, m68kCmpa:
		cpu.ExecAddress(ins)
	case m68kAddx, m68kSubx, m68kAbcd, m68kSbcd:
		cpu.ExecExtended(ins)
	case m68kCmpm:
		src := cpu.GetEffectiveAddress(ins.Src, ins.Size, 0)
		s := cpu.readTarget(src, ins.Size)
		dst := cpu.GetEffectiveAddress(ins.Dst, ins.Size, 0)
		d := cpu.readTarget(dst, ins.Size)
		cpu.sub(s, d, ins.Size, false, true)
		if ins.Size == M68K_SIZE_LONG {
			cpu.tick(20)
		} else {
			cpu.tick(12)
		}
	case m68kMulu, m68kMuls:
		cpu.ExecMul(ins)
	case m68kDivu, m68kDivs:
		cpu.ExecDiv(ins)
	case m68kExg:
		a := cpu.regPtr(ins.Src)
		b := cpu.regPtr(ins.Dst)
		*a, *b = *b, *a
		cpu.tick(6)

	case m68kShiftReg:
		count := uint32(ins.Data)
		if ins.Src.Mode == M68K_AM_DR {
			count = cpu.DataRegs[ins.Src.Reg] & 63
		}
		dst := m68kTarget{mode: M68K_AM_DR, reg: ins.Dst.Reg}
		v := cpu.shift(ins.Op, ins.Left, cpu.readTarget(dst, ins.Size), count, ins.Size)
		cpu.writeTarget(dst, ins.Size, v)
		if ins.Size == M68K_SIZE_LONG {
			cpu.tick(8 + 2*int(count))
		} else {
			cpu.tick(6 + 2*int(count))
		}
	case m68kShiftMem:
		dst := cpu.resolve(ins.Dst, M68K_SIZE_WORD, 0)
		v := cpu.readTarget(dst, M68K_SIZE_WORD)
		cpu.writeTarget(dst, M68K_SIZE_WORD, cpu.shift(ins.Op, ins.Left, v, 1, M68K_SIZE_WORD))
		cpu.tick(8)
	}
	return nil
}

func (cpu *M68KCPU) regPtr(op m68kOperand) *uint32 {
	if op.Mode == M68K_AM_AR {
		return &cpu.AddrRegs[op.Reg]
	}
	return &cpu.DataRegs[op.Reg]
}

func (cpu *M68KCPU) logic(kind m68kKind, src, dst uint32) uint32 {
	switch kind {
	case m68kOri, m68kOriToCCR, m68kOriToSR, m68kOr:
		return dst | src
	case m68kAndi, m68kAndiToCCR, m68kAndiToSR, m68kAnd:
		return dst & src
	}
	return dst ^ src
}

func (cpu *M68KCPU) ExecLogicCCR(ins *m68kInstruction) {
	imm := cpu.fetch16() & 0xFF
	cpu.SetCCR(uint8(cpu.logic(ins.Kind, imm, uint32(cpu.GetCCR()))))
	cpu.tick(20)
}

func (cpu *M68KCPU) ExecLogicSR(ins *m68kInstruction) {
	if !cpu.supervisor() {
		cpu.privilegeViolation()
		return
	}
	imm := cpu.fetch16()
	if cpu.fault.pending {
		return
	}
	cpu.SetSR(uint16(cpu.logic(ins.Kind, imm, uint32(cpu.SR))))
	cpu.tick(20)
}

func (cpu *M68KCPU) ExecImmediate(ins *m68kInstruction) {
	size := ins.Size
	src := cpu.GetEffectiveAddress(ins.Src, size, 0)
	dst := cpu.GetEffectiveAddress(ins.Dst, size, 0)
	s := cpu.readTarget(src, size)
	d := cpu.readTarget(dst, size)

	long := size == M68K_SIZE_LONG
	var res uint32
	switch ins.Kind {
	case m68kAddi:
		res = cpu.add(s, d, size, false)
	case m68kSubi:
		res = cpu.sub(s, d, size, false, false)
	case m68kCmpi:
		cpu.sub(s, d, size, false, true)
		switch {
		case dst.mode != M68K_AM_DR && long:
			cpu.tick(12 + m68kEATime(dst.mode, size))
		case dst.mode != M68K_AM_DR:
			cpu.tick(8 + m68kEATime(dst.mode, size))
		case long:
			cpu.tick(14)
		default:
			cpu.tick(8)
		}
		return
	default:
		res = cpu.logic(ins.Kind, s, d)
		cpu.SetFlagsNZ(res, size)
	}
	cpu.writeTarget(dst, size, res)

	switch {
	case dst.mode != M68K_AM_DR && long:
		cpu.tick(20 + m68kEATime(dst.mode, size))
	case dst.mode != M68K_AM_DR:
		cpu.tick(12 + m68kEATime(dst.mode, size))
	case long:
		cpu.tick(16)
	default:
		cpu.tick(8)
	}
}

func (cpu *M68KCPU) ExecBit(ins *m68kInstruction) {
	static := ins.Src.Mode == M68K_AM_IMM
	var bit uint32
	if static {
		bit = cpu.fetch16() & 0xFF
	} else {
		bit = cpu.DataRegs[ins.Src.Reg]
	}
	dst := cpu.GetEffectiveAddress(ins.Dst, ins.Size, 0)
	reg := dst.mode == M68K_AM_DR
	if reg {
		bit &= 31
	} else {
		bit &= 7
	}
	mask := uint32(1) << bit
	v := cpu.readTarget(dst, ins.Size)
	cpu.setFlag(M68K_SR_Z, v&mask == 0)

	switch ins.Kind {
	case m68kBchg:
		cpu.writeTarget(dst, ins.Size, v^mask)
	case m68kBclr:
		cpu.writeTarget(dst, ins.Size, v&^mask)
	case m68kBset:
		cpu.writeTarget(dst, ins.Size, v|mask)
	}

	ea := m68kEATime(dst.mode, ins.Size)
	switch {
	case ins.Kind == m68kBtst && reg:
		cpu.tick(6)
	case ins.Kind == m68kBtst:
		cpu.tick(4 + ea)
	case reg && ins.Kind == m68kBclr:
		cpu.tick(10)
	case reg:
		cpu.tick(8)
	default:
		cpu.tick(8 + ea)
	}
	if static {
		cpu.tick(4)
	}
}

func (cpu *M68KCPU) ExecMovep(ins *m68kInstruction) {
	addr := cpu.AddrRegs[ins.Dst.Reg] + signExtend(cpu.fetch16(), M68K_SIZE_WORD)
	n := 2
	if ins.Size == M68K_SIZE_LONG {
		n = 4
	}
	r := &cpu.DataRegs[ins.Src.Reg]
	if ins.Left {
		for i := n - 1; i >= 0; i-- {
			cpu.write(addr, M68K_SIZE_BYTE, *r>>(8*i))
			addr += 2
		}
	} else {
		var v uint32
		for range n {
			v = v<<8 | cpu.read(addr, M68K_SIZE_BYTE)
			addr += 2
		}
		if n == 2 {
			*r = *r&0xFFFF0000 | v
		} else {
			*r = v
		}
	}
	cpu.tick(8 + 4*n)
}

func (cpu *M68KCPU) ExecMove(ins *m68kInstruction) {
	src := cpu.resolve(ins.Src, ins.Size, 0)
	v := cpu.readTarget(src, ins.Size)
	dst := cpu.GetEffectiveAddress(ins.Dst, ins.Size, 0)
	cpu.writeTarget(dst, ins.Size, v)
	cpu.SetFlagsNZ(v, ins.Size)
	cpu.tick(m68kMoveDstTime(dst.mode, ins.Size))
}

// ExecSingle runs NEGX, CLR, NEG and NOT. CLR reads its operand first, as
// the 68000 does.
func (cpu *M68KCPU) ExecSingle(ins *m68kInstruction) {
	size := ins.Size
	dst := cpu.GetEffectiveAddress(ins.Dst, size, 0)
	d := cpu.readTarget(dst, size)
	var res uint32
	switch ins.Kind {
	case m68kNegx:
		res = cpu.sub(d, 0, size, true, false)
	case m68kNeg:
		res = cpu.sub(d, 0, size, false, false)
	case m68kNot:
		res = ^d
		cpu.SetFlagsNZ(res, size)
	default:
		res = 0
		cpu.SetFlagsNZ(0, size)
	}
	cpu.writeTarget(dst, size, res)

	long := size == M68K_SIZE_LONG
	switch {
	case dst.mode == M68K_AM_DR && long:
		cpu.tick(6)
	case dst.mode == M68K_AM_DR:
		cpu.tick(4)
	case long:
		cpu.tick(12 + m68kEATime(dst.mode, size))
	default:
		cpu.tick(8 + m68kEATime(dst.mode, size))
	}
}

func (cpu *M68KCPU) ExecChk(ins *m68kInstruction) {
	src := cpu.resolve(ins.Src, M68K_SIZE_WORD, 0)
	bound := int16(cpu.readTarget(src, M68K_SIZE_WORD))
	v := int16(cpu.DataRegs[ins.Dst.Reg])
	if cpu.fault.pending {
		return
	}
	switch {
	case v < 0:
		cpu.SR |= M68K_SR_N
	case v > bound:
		cpu.SR &^= M68K_SR_N
	default:
		cpu.tick(10)
		return
	}
	cpu.ProcessException(M68K_VEC_CHK)
	cpu.tick(M68K_CYCLE_CHK)
}

func m68kMovemCount(mask uint16) int {
	n := 0
	for m := mask; m != 0; m &= m - 1 {
		n++
	}
	return n
}

func (cpu *M68KCPU) movemReg(i int) *uint32 {
	if i < 8 {
		return &cpu.DataRegs[i]
	}
	return &cpu.AddrRegs[i-8]
}

func (cpu *M68KCPU) ExecMovemToMem(ins *m68kInstruction) {
	mask := uint16(cpu.fetch16())
	size := ins.Size
	step := m68kSizeLen[size]
	n := m68kMovemCount(mask)

	if ins.Dst.Mode == M68K_AM_AR_PRE {
		// Mask bit 0 is A7, bit 15 is D0
		addr := cpu.AddrRegs[ins.Dst.Reg]
		for i := 0; i < 16; i++ {
			if mask&(1<<i) == 0 {
				continue
			}
			addr -= step
			cpu.write(addr, size, *cpu.movemReg(15 - i))
		}
		cpu.AddrRegs[ins.Dst.Reg] = addr
		cpu.tick(8 + n*int(step)*2)
		return
	}

	dst := cpu.GetEffectiveAddress(ins.Dst, size, 0)
	addr := dst.addr
	for i := 0; i < 16; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		cpu.write(addr, size, *cpu.movemReg(i))
		addr += step
	}
	cpu.tick(m68kControlTime(dst.mode, &m68kMovemToMemTimes) + n*int(step)*2)
}

func (cpu *M68KCPU) ExecMovemToReg(ins *m68kInstruction) {
	mask := uint16(cpu.fetch16())
	size := ins.Size
	step := m68kSizeLen[size]
	n := m68kMovemCount(mask)

	post := ins.Src.Mode == M68K_AM_AR_POST
	var addr uint32
	base := 12
	if post {
		addr = cpu.AddrRegs[ins.Src.Reg]
	} else {
		src := cpu.GetEffectiveAddress(ins.Src, size, 0)
		addr = src.addr
		base = m68kControlTime(src.mode, &m68kMovemToRegTimes)
	}
	for i := 0; i < 16; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		v := signExtend(cpu.read(addr, size), size)
		if cpu.fault.pending {
			break
		}
		*cpu.movemReg(i) = v
		addr += step
	}
	if post {
		cpu.AddrRegs[ins.Src.Reg] = addr
	}
	cpu.tick(base + n*int(step)*2)
}

func (cpu *M68KCPU) ExecSTOP() {
	if !cpu.supervisor() {
		cpu.privilegeViolation()
		return
	}
	sr := cpu.fetch16()
	if cpu.fault.pending {
		return
	}
	cpu.SetSR(uint16(sr))
	cpu.Stopped = true
	cpu.tick(M68K_CYCLE_STOP)
}

func (cpu *M68KCPU) ExecRTE() {
	if !cpu.supervisor() {
		cpu.privilegeViolation()
		return
	}
	sr := cpu.Pop16()
	pc := cpu.Pop32()
	if cpu.fault.pending {
		return
	}
	cpu.SetSR(sr)
	cpu.PC = pc
	cpu.tick(20)
}

func (cpu *M68KCPU) ExecQuick(ins *m68kInstruction) {
	data := uint32(ins.Data)
	size := ins.Size
	if ins.Dst.Mode == M68K_AM_AR {
		if ins.Kind == m68kAddq {
			cpu.AddrRegs[ins.Dst.Reg] += data
		} else {
			cpu.AddrRegs[ins.Dst.Reg] -= data
		}
		cpu.tick(8)
		return
	}
	dst := cpu.GetEffectiveAddress(ins.Dst, size, 0)
	d := cpu.readTarget(dst, size)
	var res uint32
	if ins.Kind == m68kAddq {
		res = cpu.add(data, d, size, false)
	} else {
		res = cpu.sub(data, d, size, false, false)
	}
	cpu.writeTarget(dst, size, res)

	long := size == M68K_SIZE_LONG
	switch {
	case dst.mode == M68K_AM_DR && long:
		cpu.tick(8)
	case dst.mode == M68K_AM_DR:
		cpu.tick(4)
	case long:
		cpu.tick(12 + m68kEATime(dst.mode, size))
	default:
		cpu.tick(8 + m68kEATime(dst.mode, size))
	}
}

func (cpu *M68KCPU) ExecDBcc(ins *m68kInstruction) {
	base := cpu.PC
	disp := signExtend(cpu.fetch16(), M68K_SIZE_WORD)
	if cpu.CheckCondition(ins.Op) {
		cpu.tick(12)
		return
	}
	r := &cpu.DataRegs[ins.Dst.Reg]
	count := uint16(*r) - 1
	*r = *r&0xFFFF0000 | uint32(count)
	if count == 0xFFFF {
		cpu.tick(14)
		return
	}
	cpu.PC = base + disp
	cpu.tick(10)
}

func (cpu *M68KCPU) ExecBranch(ins *m68kInstruction) {
	base := cpu.PC
	disp := signExtend(uint32(ins.Data), M68K_SIZE_BYTE)
	short := ins.Data != 0
	if !short {
		disp = signExtend(cpu.fetch16(), M68K_SIZE_WORD)
	}
	switch ins.Kind {
	case m68kBra:
		cpu.PC = base + disp
		cpu.tick(10)
	case m68kBsr:
		cpu.Push32(cpu.PC)
		cpu.PC = base + disp
		cpu.tick(18)
	default:
		switch {
		case cpu.CheckCondition(ins.Op):
			cpu.PC = base + disp
			cpu.tick(10)
		case short:
			cpu.tick(8)
		default:
			cpu.tick(12)
		}
	}
}

// ExecArith runs the two-operand data instructions. The register operand
// may be either side; memory destinations are read, modified and written.
func (cpu *M68KCPU) ExecArith(ins *m68kInstruction) {
	size := ins.Size
	src := cpu.resolve(ins.Src, size, 0)
	s := cpu.readTarget(src, size)
	toReg := ins.Dst.Mode == M68K_AM_DR
	var dst m68kTarget
	if toReg {
		dst = m68kTarget{mode: M68K_AM_DR, reg: ins.Dst.Reg}
	} else {
		dst = cpu.resolve(ins.Dst, size, 0)
	}
	d := cpu.readTarget(dst, size)

	var res uint32
	switch ins.Kind {
	case m68kAdd:
		res = cpu.add(s, d, size, false)
	case m68kSub:
		res = cpu.sub(s, d, size, false, false)
	case m68kCmp:
		cpu.sub(s, d, size, false, true)
	default:
		res = cpu.logic(ins.Kind, s, d)
		cpu.SetFlagsNZ(res, size)
	}
	if ins.Kind != m68kCmp {
		cpu.writeTarget(dst, size, res)
	}

	long := size == M68K_SIZE_LONG
	switch {
	case !toReg && long:
		cpu.tick(12)
	case !toReg:
		cpu.tick(8)
	case !long:
		cpu.tick(4)
	case ins.Kind == m68kCmp:
		cpu.tick(6)
	case ins.Kind == m68kEor, src.mode == M68K_AM_DR, src.mode == M68K_AM_AR, src.mode == M68K_AM_IMM:
		cpu.tick(8)
	default:
		cpu.tick(6)
	}
}

func (cpu *M68KCPU) ExecAddress(ins *m68kInstruction) {
	src := cpu.resolve(ins.Src, ins.Size, 0)
	s := signExtend(cpu.readTarget(src, ins.Size), ins.Size)
	a := &cpu.AddrRegs[ins.Dst.Reg]
	switch ins.Kind {
	case m68kAdda:
		*a += s
	case m68kSuba:
		*a -= s
	default:
		cpu.sub(s, *a, M68K_SIZE_LONG, false, true)
		cpu.tick(6)
		return
	}
	switch {
	case ins.Size == M68K_SIZE_WORD:
		cpu.tick(8)
	case src.mode == M68K_AM_DR, src.mode == M68K_AM_AR, src.mode == M68K_AM_IMM:
		cpu.tick(8)
	default:
		cpu.tick(6)
	}
}

// ExecExtended runs ADDX, SUBX, ABCD and SBCD in their register and
// predecrement forms.
func (cpu *M68KCPU) ExecExtended(ins *m68kInstruction) {
	size := ins.Size
	src := cpu.GetEffectiveAddress(ins.Src, size, 0)
	s := cpu.readTarget(src, size)
	dst := cpu.GetEffectiveAddress(ins.Dst, size, 0)
	d := cpu.readTarget(dst, size)

	var res uint32
	switch ins.Kind {
	case m68kAddx:
		res = cpu.add(s, d, size, true)
	case m68kSubx:
		res = cpu.sub(s, d, size, true, false)
	case m68kAbcd:
		res = cpu.abcd(s, d)
	default:
		res = cpu.sbcd(s, d)
	}
	cpu.writeTarget(dst, size, res)

	mem := dst.mode == M68K_AM_AR_PRE
	switch {
	case ins.Kind == m68kAbcd || ins.Kind == m68kSbcd:
		if mem {
			cpu.tick(18)
		} else {
			cpu.tick(6)
		}
	case mem && size == M68K_SIZE_LONG:
		cpu.tick(30)
	case mem:
		cpu.tick(18)
	case size == M68K_SIZE_LONG:
		cpu.tick(8)
	default:
		cpu.tick(4)
	}
}

func (cpu *M68KCPU) ExecMul(ins *m68kInstruction) {
	src := cpu.resolve(ins.Src, M68K_SIZE_WORD, 0)
	s := uint16(cpu.readTarget(src, M68K_SIZE_WORD))
	r := &cpu.DataRegs[ins.Dst.Reg]
	var res uint32
	if ins.Kind == m68kMulu {
		res = uint32(s) * (*r & 0xFFFF)
		cpu.tick(muluCycles(s))
	} else {
		res = uint32(int32(int16(s)) * int32(int16(*r)))
		cpu.tick(mulsCycles(s))
	}
	*r = res
	cpu.SetFlagsNZ(res, M68K_SIZE_LONG)
}

func (cpu *M68KCPU) ExecDiv(ins *m68kInstruction) {
	src := cpu.resolve(ins.Src, M68K_SIZE_WORD, 0)
	s := cpu.readTarget(src, M68K_SIZE_WORD)
	if cpu.fault.pending {
		return
	}
	r := &cpu.DataRegs[ins.Dst.Reg]
	if s == 0 {
		cpu.ProcessException(M68K_VEC_ZERO_DIVIDE)
		cpu.tick(M68K_CYCLE_ZERO_DIVIDE)
		return
	}
	cpu.SR &^= M68K_SR_C

	if ins.Kind == m68kDivu {
		cpu.tick(divuCycles(*r, uint16(s)))
		quot := *r / s
		rem := *r % s
		if quot > 0xFFFF {
			cpu.SR |= M68K_SR_V
			return
		}
		*r = rem<<16 | quot
		cpu.SetFlagsNZ(quot, M68K_SIZE_WORD)
		return
	}

	dividend := int64(int32(*r))
	divisor := int64(int16(s))
	cpu.tick(divsCycles(int32(dividend), int16(divisor)))
	quot := dividend / divisor
	rem := dividend % divisor
	if quot < -0x8000 || quot > 0x7FFF {
		cpu.SR |= M68K_SR_V
		return
	}
	*r = uint32(uint16(rem))<<16 | uint32(uint16(quot))
	cpu.SetFlagsNZ(uint32(quot), M68K_SIZE_WORD)
}
