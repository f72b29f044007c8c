package oxid

// CB and ED opcode pages, and the indexed DDCB/FDCB forms.

func (c *Z80CPU) initCBOps() {
	for i := 0; i < 256; i++ {
		op := byte(i)
		y, r := (op>>3)&7, op&7
		switch op >> 6 {
		case 0:
			c.cbOps[op] = func(cpu *Z80CPU) {
				cpu.setReg8(r, cpu.rotate(y, cpu.reg8(r, true)), true)
				cpu.tickMem(r, 8, 15)
			}
		case 1:
			c.cbOps[op] = func(cpu *Z80CPU) {
				v := cpu.reg8(r, true)
				xy := v
				if r == 6 {
					xy = byte(cpu.WZ >> 8)
				}
				cpu.bit(y, v, xy)
				cpu.tickMem(r, 8, 12)
			}
		case 2:
			c.cbOps[op] = func(cpu *Z80CPU) {
				cpu.setReg8(r, cpu.reg8(r, true)&^(1<<y), true)
				cpu.tickMem(r, 8, 15)
			}
		default:
			c.cbOps[op] = func(cpu *Z80CPU) {
				cpu.setReg8(r, cpu.reg8(r, true)|1<<y, true)
				cpu.tickMem(r, 8, 15)
			}
		}
	}
}

func (c *Z80CPU) opCBPrefix() {
	if c.prefix != z80PrefixNone {
		c.opIndexedCB()
		return
	}
	op := c.fetchOpcode()
	c.cbOps[op](c)
}

// opIndexedCB runs DDCB d op / FDCB d op. The displacement precedes the
// opcode, which is not an M1 fetch. Results are also copied into the
// register named by the low bits unless that code is (HL).
func (c *Z80CPU) opIndexedCB() {
	d := int8(c.fetchByte())
	op := c.fetchByte()
	addr := c.indexHL() + uint16(int16(d))
	c.WZ = addr
	v := c.read(addr)
	y, r := (op>>3)&7, op&7

	var res byte
	switch op >> 6 {
	case 0:
		res = c.rotate(y, v)
	case 1:
		c.bit(y, v, byte(addr>>8))
		c.tick(16)
		return
	case 2:
		res = v &^ (1 << y)
	default:
		res = v | 1<<y
	}
	c.write(addr, res)
	if r != 6 {
		c.setReg8(r, res, true)
	}
	c.tick(19)
}

// rotate applies CB shift group y (RLC RRC RL RR SLA SRA SLL SRL) and sets
// the flags.
func (c *Z80CPU) rotate(y, v byte) byte {
	var res, carry byte
	switch y {
	case 0:
		carry = v >> 7
		res = v<<1 | carry
	case 1:
		carry = v & 1
		res = v>>1 | carry<<7
	case 2:
		carry = v >> 7
		res = v<<1 | c.F&z80FlagC
	case 3:
		carry = v & 1
		res = v>>1 | (c.F&z80FlagC)<<7
	case 4:
		carry = v >> 7
		res = v << 1
	case 5:
		carry = v & 1
		res = v>>1 | v&0x80
	case 6:
		carry = v >> 7
		res = v<<1 | 1
	default:
		carry = v & 1
		res = v >> 1
	}
	c.F = szp(res) | carry
	return res
}

// bit tests bit n of v. xy supplies the undocumented X/Y bits, which come
// from the operand for registers and from the address high byte otherwise.
func (c *Z80CPU) bit(n, v, xy byte) {
	f := c.F&z80FlagC | z80FlagH | xy&z80FlagsXY
	if v&(1<<n) == 0 {
		f |= z80FlagZ | z80FlagPV
	} else if n == 7 {
		f |= z80FlagS
	}
	c.F = f
}

var z80IMModes = [8]Z80InterruptMode{Z80IM0, Z80IM0, Z80IM1, Z80IM2, Z80IM0, Z80IM0, Z80IM1, Z80IM2}

func (c *Z80CPU) initEDOps() {
	for i := range c.edOps {
		// Unassigned ED opcodes execute as two-byte NOPs
		c.edOps[i] = func(cpu *Z80CPU) { cpu.tick(8) }
	}

	for i := 0x40; i < 0x80; i++ {
		op := byte(i)
		y, z := (op>>3)&7, op&7
		p, q := y>>1, y&1
		switch z {
		case 0:
			r := y
			c.edOps[op] = func(cpu *Z80CPU) {
				v := cpu.bus.In(cpu.BC())
				cpu.WZ = cpu.BC() + 1
				if r != 6 {
					cpu.setReg8(r, v, true)
				}
				cpu.F = cpu.F&z80FlagC | szp(v)
				cpu.tick(12)
			}
		case 1:
			r := y
			c.edOps[op] = func(cpu *Z80CPU) {
				var v byte
				if r != 6 {
					v = cpu.reg8(r, true)
				}
				cpu.bus.Out(cpu.BC(), v)
				cpu.WZ = cpu.BC() + 1
				cpu.tick(12)
			}
		case 2:
			if q == 0 {
				c.edOps[op] = func(cpu *Z80CPU) { cpu.sbcHL(cpu.reg16(p, false)) }
			} else {
				c.edOps[op] = func(cpu *Z80CPU) { cpu.adcHL(cpu.reg16(p, false)) }
			}
		case 3:
			if q == 0 {
				c.edOps[op] = func(cpu *Z80CPU) {
					addr := cpu.fetchWord()
					cpu.writeWord(addr, cpu.reg16(p, false))
					cpu.WZ = addr + 1
					cpu.tick(20)
				}
			} else {
				c.edOps[op] = func(cpu *Z80CPU) {
					addr := cpu.fetchWord()
					cpu.setReg16(p, cpu.readWord(addr), false)
					cpu.WZ = addr + 1
					cpu.tick(20)
				}
			}
		case 4:
			c.edOps[op] = (*Z80CPU).opNEG
		case 5:
			// RETI and RETN both restore IFF1 from IFF2
			c.edOps[op] = func(cpu *Z80CPU) {
				cpu.IFF1 = cpu.IFF2
				cpu.PC = cpu.popWord()
				cpu.WZ = cpu.PC
				cpu.tick(14)
			}
		case 6:
			mode := z80IMModes[y]
			c.edOps[op] = func(cpu *Z80CPU) {
				cpu.IM = mode
				cpu.tick(8)
			}
		case 7:
			switch y {
			case 0:
				c.edOps[op] = func(cpu *Z80CPU) { cpu.I = cpu.A; cpu.tick(9) }
			case 1:
				c.edOps[op] = func(cpu *Z80CPU) { cpu.R = cpu.A; cpu.tick(9) }
			case 2:
				c.edOps[op] = func(cpu *Z80CPU) { cpu.ldAIR(cpu.I) }
			case 3:
				c.edOps[op] = func(cpu *Z80CPU) { cpu.ldAIR(cpu.R) }
			case 4:
				c.edOps[op] = (*Z80CPU).opRRD
			case 5:
				c.edOps[op] = (*Z80CPU).opRLD
			}
		}
	}

	c.edOps[0xA0] = func(cpu *Z80CPU) { cpu.blockLoad(1, false) }
	c.edOps[0xA8] = func(cpu *Z80CPU) { cpu.blockLoad(-1, false) }
	c.edOps[0xB0] = func(cpu *Z80CPU) { cpu.blockLoad(1, true) }
	c.edOps[0xB8] = func(cpu *Z80CPU) { cpu.blockLoad(-1, true) }
	c.edOps[0xA1] = func(cpu *Z80CPU) { cpu.blockCompare(1, false) }
	c.edOps[0xA9] = func(cpu *Z80CPU) { cpu.blockCompare(-1, false) }
	c.edOps[0xB1] = func(cpu *Z80CPU) { cpu.blockCompare(1, true) }
	c.edOps[0xB9] = func(cpu *Z80CPU) { cpu.blockCompare(-1, true) }
	c.edOps[0xA2] = func(cpu *Z80CPU) { cpu.blockIn(1, false) }
	c.edOps[0xAA] = func(cpu *Z80CPU) { cpu.blockIn(-1, false) }
	c.edOps[0xB2] = func(cpu *Z80CPU) { cpu.blockIn(1, true) }
	c.edOps[0xBA] = func(cpu *Z80CPU) { cpu.blockIn(-1, true) }
	c.edOps[0xA3] = func(cpu *Z80CPU) { cpu.blockOut(1, false) }
	c.edOps[0xAB] = func(cpu *Z80CPU) { cpu.blockOut(-1, false) }
	c.edOps[0xB3] = func(cpu *Z80CPU) { cpu.blockOut(1, true) }
	c.edOps[0xBB] = func(cpu *Z80CPU) { cpu.blockOut(-1, true) }
}

func (c *Z80CPU) opNEG() {
	v := c.A
	c.A = c.sub8(0, v, 0)
	c.tick(8)
}

func (c *Z80CPU) ldAIR(v byte) {
	c.A = v
	f := c.F&z80FlagC | sz(v)
	if c.IFF2 {
		f |= z80FlagPV
	}
	c.F = f
	c.tick(9)
}

func (c *Z80CPU) opRRD() {
	hl := c.HL()
	t := c.read(hl)
	c.write(hl, c.A<<4|t>>4)
	c.A = c.A&0xF0 | t&0x0F
	c.F = c.F&z80FlagC | szp(c.A)
	c.WZ = hl + 1
	c.tick(18)
}

func (c *Z80CPU) opRLD() {
	hl := c.HL()
	t := c.read(hl)
	c.write(hl, t<<4|c.A&0x0F)
	c.A = c.A&0xF0 | t>>4
	c.F = c.F&z80FlagC | szp(c.A)
	c.WZ = hl + 1
	c.tick(18)
}

func (c *Z80CPU) adcHL(v uint16) {
	hl := c.HL()
	carry := uint32(c.F & z80FlagC)
	sum := uint32(hl) + uint32(v) + carry
	res := uint16(sum)
	f := byte(res>>8) & (z80FlagS | z80FlagsXY)
	if res == 0 {
		f |= z80FlagZ
	}
	if uint32(hl&0x0FFF)+uint32(v&0x0FFF)+carry > 0x0FFF {
		f |= z80FlagH
	}
	if (^(hl ^ v))&(hl^res)&0x8000 != 0 {
		f |= z80FlagPV
	}
	if sum > 0xFFFF {
		f |= z80FlagC
	}
	c.F = f
	c.WZ = hl + 1
	c.SetHL(res)
	c.tick(15)
}

func (c *Z80CPU) sbcHL(v uint16) {
	hl := c.HL()
	carry := int(c.F & z80FlagC)
	diff := int(hl) - int(v) - carry
	res := uint16(diff)
	f := byte(res>>8)&(z80FlagS|z80FlagsXY) | z80FlagN
	if res == 0 {
		f |= z80FlagZ
	}
	if int(hl&0x0FFF)-int(v&0x0FFF)-carry < 0 {
		f |= z80FlagH
	}
	if (hl^v)&(hl^res)&0x8000 != 0 {
		f |= z80FlagPV
	}
	if diff < 0 {
		f |= z80FlagC
	}
	c.F = f
	c.WZ = hl + 1
	c.SetHL(res)
	c.tick(15)
}

// Block instructions. A repeating form that has not terminated rewinds PC
// onto itself and costs 21 T-states; the final iteration costs 16.

func (c *Z80CPU) repeatBlock(again bool) {
	if again {
		c.PC -= 2
		c.WZ = c.PC + 1
		c.tick(21)
		return
	}
	c.tick(16)
}

func (c *Z80CPU) blockLoad(dir int16, repeat bool) {
	v := c.read(c.HL())
	c.write(c.DE(), v)
	c.SetHL(c.HL() + uint16(dir))
	c.SetDE(c.DE() + uint16(dir))
	c.SetBC(c.BC() - 1)

	n := v + c.A
	f := c.F & (z80FlagS | z80FlagZ | z80FlagC)
	f |= n & z80FlagX
	f |= (n << 4) & z80FlagY
	if c.BC() != 0 {
		f |= z80FlagPV
	}
	c.F = f
	c.repeatBlock(repeat && c.BC() != 0)
}

func (c *Z80CPU) blockCompare(dir int16, repeat bool) {
	v := c.read(c.HL())
	res := c.A - v
	half := c.A&0x0F < v&0x0F
	c.SetHL(c.HL() + uint16(dir))
	c.SetBC(c.BC() - 1)
	c.WZ += uint16(dir)

	f := c.F&z80FlagC | z80FlagN | res&z80FlagS
	if res == 0 {
		f |= z80FlagZ
	}
	n := res
	if half {
		f |= z80FlagH
		n--
	}
	f |= n & z80FlagX
	f |= (n << 4) & z80FlagY
	if c.BC() != 0 {
		f |= z80FlagPV
	}
	c.F = f
	c.repeatBlock(repeat && c.BC() != 0 && res != 0)
}

func (c *Z80CPU) blockIn(dir int16, repeat bool) {
	v := c.bus.In(c.BC())
	c.WZ = c.BC() + uint16(dir)
	c.write(c.HL(), v)
	c.SetHL(c.HL() + uint16(dir))
	c.B--
	c.blockIOFlags(v, uint16(c.C+byte(dir))+uint16(v))
	c.repeatBlock(repeat && c.B != 0)
}

func (c *Z80CPU) blockOut(dir int16, repeat bool) {
	v := c.read(c.HL())
	c.B--
	c.bus.Out(c.BC(), v)
	c.WZ = c.BC() + uint16(dir)
	c.SetHL(c.HL() + uint16(dir))
	c.blockIOFlags(v, uint16(c.L)+uint16(v))
	c.repeatBlock(repeat && c.B != 0)
}

func (c *Z80CPU) blockIOFlags(v byte, k uint16) {
	f := sz(c.B)
	if v&0x80 != 0 {
		f |= z80FlagN
	}
	if k > 0xFF {
		f |= z80FlagH | z80FlagC
	}
	if parity8(byte(k&7) ^ c.B) {
		f |= z80FlagPV
	}
	c.F = f
}
