package oxid

// Unprefixed opcode page. Handlers are built once per opcode from the
// x/y/z fields so register codes are bound at table construction.

type aluOp byte

const (
	aluAdd aluOp = iota
	aluAdc
	aluSub
	aluSbc
	aluAnd
	aluXor
	aluOr
	aluCp
)

func (c *Z80CPU) initBaseOps() {
	for i := 0; i < 256; i++ {
		op := byte(i)
		x, y, z := op>>6, (op>>3)&7, op&7
		switch x {
		case 0:
			c.baseOps[op] = z80Block0(y, z)
		case 1:
			if op == 0x76 {
				c.baseOps[op] = (*Z80CPU).opHALT
				continue
			}
			dst, src := y, z
			c.baseOps[op] = func(cpu *Z80CPU) { cpu.opLDRegReg(dst, src) }
		case 2:
			alu, src := aluOp(y), z
			c.baseOps[op] = func(cpu *Z80CPU) { cpu.opALUReg(alu, src) }
		default:
			c.baseOps[op] = z80Block3(y, z)
		}
	}
}

func z80Block0(y, z byte) func(*Z80CPU) {
	p, q := y>>1, y&1
	switch z {
	case 0:
		switch y {
		case 0:
			return (*Z80CPU).opNOP
		case 1:
			return (*Z80CPU).opEXAF
		case 2:
			return (*Z80CPU).opDJNZ
		case 3:
			return func(cpu *Z80CPU) { cpu.opJR(true) }
		}
		cc := y - 4
		return func(cpu *Z80CPU) { cpu.opJR(cpu.condition(cc)) }
	case 1:
		if q == 0 {
			return func(cpu *Z80CPU) {
				cpu.setReg16(p, cpu.fetchWord(), false)
				cpu.tick(10)
			}
		}
		return func(cpu *Z80CPU) { cpu.opADDHL(cpu.reg16(p, false)) }
	case 2:
		return z80IndirectLoad(p, q)
	case 3:
		if q == 0 {
			return func(cpu *Z80CPU) {
				cpu.setReg16(p, cpu.reg16(p, false)+1, false)
				cpu.tick(6)
			}
		}
		return func(cpu *Z80CPU) {
			cpu.setReg16(p, cpu.reg16(p, false)-1, false)
			cpu.tick(6)
		}
	case 4:
		r := y
		return func(cpu *Z80CPU) {
			cpu.setReg8(r, cpu.inc8(cpu.reg8(r, false)), false)
			cpu.tickMem(r, 4, 11)
		}
	case 5:
		r := y
		return func(cpu *Z80CPU) {
			cpu.setReg8(r, cpu.dec8(cpu.reg8(r, false)), false)
			cpu.tickMem(r, 4, 11)
		}
	case 6:
		r := y
		if r == 6 {
			return (*Z80CPU).opLDMemImm
		}
		return func(cpu *Z80CPU) {
			cpu.setReg8(r, cpu.fetchByte(), false)
			cpu.tick(7)
		}
	}
	switch y {
	case 0:
		return (*Z80CPU).opRLCA
	case 1:
		return (*Z80CPU).opRRCA
	case 2:
		return (*Z80CPU).opRLA
	case 3:
		return (*Z80CPU).opRRA
	case 4:
		return (*Z80CPU).opDAA
	case 5:
		return (*Z80CPU).opCPL
	case 6:
		return (*Z80CPU).opSCF
	}
	return (*Z80CPU).opCCF
}

func z80IndirectLoad(p, q byte) func(*Z80CPU) {
	if q == 0 {
		switch p {
		case 0:
			return func(cpu *Z80CPU) {
				cpu.write(cpu.BC(), cpu.A)
				cpu.WZ = uint16(cpu.A)<<8 | (cpu.BC()+1)&0xFF
				cpu.tick(7)
			}
		case 1:
			return func(cpu *Z80CPU) {
				cpu.write(cpu.DE(), cpu.A)
				cpu.WZ = uint16(cpu.A)<<8 | (cpu.DE()+1)&0xFF
				cpu.tick(7)
			}
		case 2:
			return func(cpu *Z80CPU) {
				addr := cpu.fetchWord()
				cpu.writeWord(addr, cpu.indexHL())
				cpu.WZ = addr + 1
				cpu.tick(16)
			}
		}
		return func(cpu *Z80CPU) {
			addr := cpu.fetchWord()
			cpu.write(addr, cpu.A)
			cpu.WZ = uint16(cpu.A)<<8 | (addr+1)&0xFF
			cpu.tick(13)
		}
	}
	switch p {
	case 0:
		return func(cpu *Z80CPU) {
			cpu.A = cpu.read(cpu.BC())
			cpu.WZ = cpu.BC() + 1
			cpu.tick(7)
		}
	case 1:
		return func(cpu *Z80CPU) {
			cpu.A = cpu.read(cpu.DE())
			cpu.WZ = cpu.DE() + 1
			cpu.tick(7)
		}
	case 2:
		return func(cpu *Z80CPU) {
			addr := cpu.fetchWord()
			cpu.setIndexHL(cpu.readWord(addr))
			cpu.WZ = addr + 1
			cpu.tick(16)
		}
	}
	return func(cpu *Z80CPU) {
		addr := cpu.fetchWord()
		cpu.A = cpu.read(addr)
		cpu.WZ = addr + 1
		cpu.tick(13)
	}
}

func z80Block3(y, z byte) func(*Z80CPU) {
	p, q := y>>1, y&1
	switch z {
	case 0:
		cc := y
		return func(cpu *Z80CPU) {
			if cpu.condition(cc) {
				cpu.PC = cpu.popWord()
				cpu.WZ = cpu.PC
				cpu.tick(11)
				return
			}
			cpu.tick(5)
		}
	case 1:
		if q == 0 {
			return func(cpu *Z80CPU) {
				cpu.setReg16(p, cpu.popWord(), true)
				cpu.tick(10)
			}
		}
		switch p {
		case 0:
			return (*Z80CPU).opRET
		case 1:
			return (*Z80CPU).opEXX
		case 2:
			return func(cpu *Z80CPU) {
				cpu.PC = cpu.indexHL()
				cpu.tick(4)
			}
		}
		return func(cpu *Z80CPU) {
			cpu.SP = cpu.indexHL()
			cpu.tick(6)
		}
	case 2:
		cc := y
		return func(cpu *Z80CPU) {
			addr := cpu.fetchWord()
			if cpu.condition(cc) {
				cpu.PC = addr
			}
			cpu.WZ = addr
			cpu.tick(10)
		}
	case 3:
		switch y {
		case 0:
			return func(cpu *Z80CPU) {
				cpu.PC = cpu.fetchWord()
				cpu.WZ = cpu.PC
				cpu.tick(10)
			}
		case 1:
			return (*Z80CPU).opCBPrefix
		case 2:
			return (*Z80CPU).opOUTNA
		case 3:
			return (*Z80CPU).opINAN
		case 4:
			return (*Z80CPU).opEXSPHL
		case 5:
			return (*Z80CPU).opEXDEHL
		case 6:
			return (*Z80CPU).opDI
		}
		return (*Z80CPU).opEI
	case 4:
		cc := y
		return func(cpu *Z80CPU) { cpu.opCALL(cpu.condition(cc)) }
	case 5:
		if q == 0 {
			return func(cpu *Z80CPU) {
				cpu.pushWord(cpu.reg16(p, true))
				cpu.tick(11)
			}
		}
		switch p {
		case 0:
			return func(cpu *Z80CPU) { cpu.opCALL(true) }
		case 1:
			return func(cpu *Z80CPU) { cpu.opIndexPrefix(z80PrefixDD) }
		case 2:
			return (*Z80CPU).opEDPrefix
		}
		return func(cpu *Z80CPU) { cpu.opIndexPrefix(z80PrefixFD) }
	case 6:
		alu := aluOp(y)
		return func(cpu *Z80CPU) {
			cpu.alu(alu, cpu.fetchByte())
			cpu.tick(7)
		}
	}
	vector := uint16(y) * 8
	return func(cpu *Z80CPU) {
		cpu.pushWord(cpu.PC)
		cpu.PC = vector
		cpu.WZ = vector
		cpu.tick(11)
	}
}

// tickMem charges reg or mem cycles depending on whether r names (HL).
func (c *Z80CPU) tickMem(r byte, reg, mem int) {
	if r == 6 {
		c.tick(mem)
	} else {
		c.tick(reg)
	}
}

func (c *Z80CPU) opNOP() {
	c.tick(4)
}

func (c *Z80CPU) opHALT() {
	c.Halted = true
	c.tick(4)
}

func (c *Z80CPU) opLDRegReg(dst, src byte) {
	// With a memory operand the other side is always the plain H/L
	plain := dst == 6 || src == 6
	c.setReg8(dst, c.reg8(src, plain), plain)
	if plain {
		c.tick(7)
	} else {
		c.tick(4)
	}
}

func (c *Z80CPU) opLDMemImm() {
	addr := c.memHL(5)
	c.write(addr, c.fetchByte())
	c.tick(10)
}

func (c *Z80CPU) opALUReg(op aluOp, src byte) {
	c.alu(op, c.reg8(src, false))
	c.tickMem(src, 4, 7)
}

func (c *Z80CPU) opEXAF() {
	c.A, c.A2 = c.A2, c.A
	c.F, c.F2 = c.F2, c.F
	c.tick(4)
}

func (c *Z80CPU) opEXX() {
	c.B, c.B2 = c.B2, c.B
	c.C, c.C2 = c.C2, c.C
	c.D, c.D2 = c.D2, c.D
	c.E, c.E2 = c.E2, c.E
	c.H, c.H2 = c.H2, c.H
	c.L, c.L2 = c.L2, c.L
	c.tick(4)
}

func (c *Z80CPU) opEXDEHL() {
	c.D, c.H = c.H, c.D
	c.E, c.L = c.L, c.E
	c.tick(4)
}

func (c *Z80CPU) opEXSPHL() {
	v := c.readWord(c.SP)
	c.writeWord(c.SP, c.indexHL())
	c.setIndexHL(v)
	c.WZ = v
	c.tick(19)
}

func (c *Z80CPU) opDJNZ() {
	d := int8(c.fetchByte())
	c.B--
	if c.B != 0 {
		c.PC += uint16(int16(d))
		c.WZ = c.PC
		c.tick(13)
		return
	}
	c.tick(8)
}

func (c *Z80CPU) opJR(taken bool) {
	d := int8(c.fetchByte())
	if taken {
		c.PC += uint16(int16(d))
		c.WZ = c.PC
		c.tick(12)
		return
	}
	c.tick(7)
}

func (c *Z80CPU) opCALL(taken bool) {
	addr := c.fetchWord()
	c.WZ = addr
	if taken {
		c.pushWord(c.PC)
		c.PC = addr
		c.tick(17)
		return
	}
	c.tick(10)
}

func (c *Z80CPU) opRET() {
	c.PC = c.popWord()
	c.WZ = c.PC
	c.tick(10)
}

func (c *Z80CPU) opOUTNA() {
	n := c.fetchByte()
	port := uint16(c.A)<<8 | uint16(n)
	c.bus.Out(port, c.A)
	c.WZ = uint16(c.A)<<8 | uint16(n+1)
	c.tick(11)
}

func (c *Z80CPU) opINAN() {
	n := c.fetchByte()
	port := uint16(c.A)<<8 | uint16(n)
	c.A = c.bus.In(port)
	c.WZ = port + 1
	c.tick(11)
}

func (c *Z80CPU) opDI() {
	c.IFF1, c.IFF2 = false, false
	c.tick(4)
}

func (c *Z80CPU) opEI() {
	c.IFF1, c.IFF2 = true, true
	c.eiDelay = true
	c.tick(4)
}

func (c *Z80CPU) opIndexPrefix(prefix byte) {
	c.tick(4)
	c.prefix = prefix
	c.dispValid = false
	op := c.fetchOpcode()
	c.baseOps[op](c)
}

func (c *Z80CPU) opEDPrefix() {
	// ED ignores a preceding DD/FD
	c.prefix = z80PrefixNone
	op := c.fetchOpcode()
	c.edOps[op](c)
}

// Accumulator and flag operations

func (c *Z80CPU) alu(op aluOp, v byte) {
	var carry byte
	if c.F&z80FlagC != 0 {
		carry = 1
	}
	switch op {
	case aluAdd:
		c.A = c.add8(c.A, v, 0)
	case aluAdc:
		c.A = c.add8(c.A, v, carry)
	case aluSub:
		c.A = c.sub8(c.A, v, 0)
	case aluSbc:
		c.A = c.sub8(c.A, v, carry)
	case aluAnd:
		c.A &= v
		c.F = szp(c.A) | z80FlagH
	case aluXor:
		c.A ^= v
		c.F = szp(c.A)
	case aluOr:
		c.A |= v
		c.F = szp(c.A)
	case aluCp:
		c.sub8(c.A, v, 0)
		// CP takes X and Y from the operand, not the result
		c.F = c.F&^z80FlagsXY | v&z80FlagsXY
	}
}

func (c *Z80CPU) add8(a, v, carry byte) byte {
	sum := uint16(a) + uint16(v) + uint16(carry)
	res := byte(sum)
	f := sz(res)
	if (a&0x0F)+(v&0x0F)+carry > 0x0F {
		f |= z80FlagH
	}
	if (^(a ^ v))&(a^res)&0x80 != 0 {
		f |= z80FlagPV
	}
	if sum > 0xFF {
		f |= z80FlagC
	}
	c.F = f
	return res
}

func (c *Z80CPU) sub8(a, v, carry byte) byte {
	diff := int(a) - int(v) - int(carry)
	res := byte(diff)
	f := sz(res) | z80FlagN
	if int(a&0x0F)-int(v&0x0F)-int(carry) < 0 {
		f |= z80FlagH
	}
	if (a^v)&(a^res)&0x80 != 0 {
		f |= z80FlagPV
	}
	if diff < 0 {
		f |= z80FlagC
	}
	c.F = f
	return res
}

func (c *Z80CPU) inc8(v byte) byte {
	res := v + 1
	f := c.F&z80FlagC | sz(res)
	if v&0x0F == 0x0F {
		f |= z80FlagH
	}
	if v == 0x7F {
		f |= z80FlagPV
	}
	c.F = f
	return res
}

func (c *Z80CPU) dec8(v byte) byte {
	res := v - 1
	f := c.F&z80FlagC | sz(res) | z80FlagN
	if v&0x0F == 0 {
		f |= z80FlagH
	}
	if v == 0x80 {
		f |= z80FlagPV
	}
	c.F = f
	return res
}

func (c *Z80CPU) opADDHL(v uint16) {
	hl := c.indexHL()
	sum := uint32(hl) + uint32(v)
	res := uint16(sum)
	f := c.F & (z80FlagS | z80FlagZ | z80FlagPV)
	f |= byte(res>>8) & z80FlagsXY
	if (hl&0x0FFF)+(v&0x0FFF) > 0x0FFF {
		f |= z80FlagH
	}
	if sum > 0xFFFF {
		f |= z80FlagC
	}
	c.F = f
	c.WZ = hl + 1
	c.setIndexHL(res)
	c.tick(11)
}

func (c *Z80CPU) opRLCA() {
	carry := c.A >> 7
	c.A = c.A<<1 | carry
	c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | c.A&z80FlagsXY | carry
	c.tick(4)
}

func (c *Z80CPU) opRRCA() {
	carry := c.A & 1
	c.A = c.A>>1 | carry<<7
	c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | c.A&z80FlagsXY | carry
	c.tick(4)
}

func (c *Z80CPU) opRLA() {
	carry := c.A >> 7
	c.A = c.A<<1 | c.F&z80FlagC
	c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | c.A&z80FlagsXY | carry
	c.tick(4)
}

func (c *Z80CPU) opRRA() {
	carry := c.A & 1
	c.A = c.A>>1 | (c.F&z80FlagC)<<7
	c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | c.A&z80FlagsXY | carry
	c.tick(4)
}

func (c *Z80CPU) opDAA() {
	a := c.A
	lo := a & 0x0F
	var adj byte
	carry := c.F&z80FlagC != 0
	if c.F&z80FlagH != 0 || lo > 9 {
		adj |= 0x06
	}
	if carry || a > 0x99 {
		adj |= 0x60
		carry = true
	}

	var half bool
	if c.F&z80FlagN != 0 {
		c.A = a - adj
		half = c.F&z80FlagH != 0 && lo < 6
	} else {
		c.A = a + adj
		half = lo > 9
	}

	f := szp(c.A) | c.F&z80FlagN
	if half {
		f |= z80FlagH
	}
	if carry {
		f |= z80FlagC
	}
	c.F = f
	c.tick(4)
}

func (c *Z80CPU) opCPL() {
	c.A = ^c.A
	c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV|z80FlagC) | z80FlagH | z80FlagN | c.A&z80FlagsXY
	c.tick(4)
}

func (c *Z80CPU) opSCF() {
	c.F = c.F&(z80FlagS|z80FlagZ|z80FlagPV) | c.A&z80FlagsXY | z80FlagC
	c.tick(4)
}

func (c *Z80CPU) opCCF() {
	f := c.F&(z80FlagS|z80FlagZ|z80FlagPV) | c.A&z80FlagsXY
	if c.F&z80FlagC != 0 {
		f |= z80FlagH
	} else {
		f |= z80FlagC
	}
	c.F = f
	c.tick(4)
}
