package oxid

import "fmt"

// Z80 disassembler. Opcodes are split into x (bits 7-6), y (5-3) and z (2-0)
// and looked up in the operand tables below; DD/FD substitute the index
// register for HL.

var (
	z80DisReg     = [8]string{"B", "C", "D", "E", "H", "L", "(HL)", "A"}
	z80DisPair    = [4]string{"BC", "DE", "HL", "SP"}
	z80DisPairAF  = [4]string{"BC", "DE", "HL", "AF"}
	z80DisCond    = [8]string{"NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}
	z80DisALU     = [8]string{"ADD A,", "ADC A,", "SUB ", "SBC A,", "AND ", "XOR ", "OR ", "CP "}
	z80DisRot     = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SLL", "SRL"}
	z80DisIM      = [8]string{"0", "0", "1", "2", "0", "0", "1", "2"}
	z80DisAccRot  = [8]string{"RLCA", "RRCA", "RLA", "RRA", "DAA", "CPL", "SCF", "CCF"}
	z80DisBlock   = [4][4]string{{"LDI", "CPI", "INI", "OUTI"}, {"LDD", "CPD", "IND", "OUTD"}, {"LDIR", "CPIR", "INIR", "OTIR"}, {"LDDR", "CPDR", "INDR", "OTDR"}}
	z80DisSpecial = [8]string{"LD I,A", "LD R,A", "LD A,I", "LD A,R", "RRD", "RLD", "NOP", "NOP"}
)

type z80Disassembler struct {
	read  func(uint16) byte
	pc    uint16
	start uint16
	index string
	disp  int8
}

func (d *z80Disassembler) next() byte {
	v := d.read(d.pc)
	d.pc++
	return v
}

func (d *z80Disassembler) word() uint16 {
	lo := d.next()
	hi := d.next()
	return uint16(hi)<<8 | uint16(lo)
}

func (d *z80Disassembler) hl() string {
	if d.index != "" {
		return d.index
	}
	return "HL"
}

func (d *z80Disassembler) mem() string {
	if d.index == "" {
		return "(HL)"
	}
	d.disp = int8(d.next())
	if d.disp < 0 {
		return fmt.Sprintf("(%s-$%02X)", d.index, -int(d.disp))
	}
	return fmt.Sprintf("(%s+$%02X)", d.index, d.disp)
}

// reg names register code r. plain keeps H and L when the other operand
// is an indexed memory reference.
func (d *z80Disassembler) reg(r byte, plain bool) string {
	if r == 6 {
		return d.mem()
	}
	if d.index != "" && !plain && (r == 4 || r == 5) {
		if r == 4 {
			return d.index + "H"
		}
		return d.index + "L"
	}
	return z80DisReg[r]
}

func (d *z80Disassembler) pair(p byte, af bool) string {
	if p == 2 {
		return d.hl()
	}
	if af {
		return z80DisPairAF[p]
	}
	return z80DisPair[p]
}

func (d *z80Disassembler) relative() string {
	off := int8(d.next())
	return fmt.Sprintf("$%04X", d.pc+uint16(int16(off)))
}

// DisassembleZ80 decodes the instruction at pc and returns its text and
// length in bytes.
func DisassembleZ80(read func(uint16) byte, pc uint16) (string, int) {
	d := &z80Disassembler{read: read, pc: pc, start: pc}
	text := d.decode()
	return text, int(d.pc - d.start)
}

func (d *z80Disassembler) decode() string {
	op := d.next()
	for op == 0xDD || op == 0xFD {
		if op == 0xDD {
			d.index = "IX"
		} else {
			d.index = "IY"
		}
		op = d.next()
	}
	switch op {
	case 0xCB:
		return d.decodeCB()
	case 0xED:
		d.index = ""
		return d.decodeED()
	}

	x, y, z := op>>6, (op>>3)&7, op&7
	p, q := y>>1, y&1
	switch x {
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				return "NOP"
			case 1:
				return "EX AF,AF'"
			case 2:
				return "DJNZ " + d.relative()
			case 3:
				return "JR " + d.relative()
			}
			return fmt.Sprintf("JR %s,%s", z80DisCond[y-4], d.relative())
		case 1:
			if q == 0 {
				return fmt.Sprintf("LD %s,$%04X", d.pair(p, false), d.word())
			}
			return fmt.Sprintf("ADD %s,%s", d.hl(), d.pair(p, false))
		case 2:
			switch y {
			case 0:
				return "LD (BC),A"
			case 1:
				return "LD A,(BC)"
			case 2:
				return "LD (DE),A"
			case 3:
				return "LD A,(DE)"
			case 4:
				return fmt.Sprintf("LD ($%04X),%s", d.word(), d.hl())
			case 5:
				return fmt.Sprintf("LD %s,($%04X)", d.hl(), d.word())
			case 6:
				return fmt.Sprintf("LD ($%04X),A", d.word())
			}
			return fmt.Sprintf("LD A,($%04X)", d.word())
		case 3:
			if q == 0 {
				return "INC " + d.pair(p, false)
			}
			return "DEC " + d.pair(p, false)
		case 4:
			return "INC " + d.reg(y, false)
		case 5:
			return "DEC " + d.reg(y, false)
		case 6:
			dst := d.reg(y, false)
			return fmt.Sprintf("LD %s,$%02X", dst, d.next())
		}
		return z80DisAccRot[y]
	case 1:
		if op == 0x76 {
			return "HALT"
		}
		plain := y == 6 || z == 6
		dst := d.reg(y, plain)
		src := d.reg(z, plain)
		return fmt.Sprintf("LD %s,%s", dst, src)
	case 2:
		return z80DisALU[y] + d.reg(z, false)
	}

	switch z {
	case 0:
		return "RET " + z80DisCond[y]
	case 1:
		if q == 0 {
			return "POP " + d.pair(p, true)
		}
		switch p {
		case 0:
			return "RET"
		case 1:
			return "EXX"
		case 2:
			return fmt.Sprintf("JP (%s)", d.hl())
		}
		return "LD SP," + d.hl()
	case 2:
		return fmt.Sprintf("JP %s,$%04X", z80DisCond[y], d.word())
	case 3:
		switch y {
		case 0:
			return fmt.Sprintf("JP $%04X", d.word())
		case 2:
			return fmt.Sprintf("OUT ($%02X),A", d.next())
		case 3:
			return fmt.Sprintf("IN A,($%02X)", d.next())
		case 4:
			return fmt.Sprintf("EX (SP),%s", d.hl())
		case 5:
			return "EX DE,HL"
		case 6:
			return "DI"
		}
		return "EI"
	case 4:
		return fmt.Sprintf("CALL %s,$%04X", z80DisCond[y], d.word())
	case 5:
		if q == 0 {
			return "PUSH " + d.pair(p, true)
		}
		return fmt.Sprintf("CALL $%04X", d.word())
	case 6:
		return fmt.Sprintf("%s$%02X", z80DisALU[y], d.next())
	}
	return fmt.Sprintf("RST $%02X", y*8)
}

func (d *z80Disassembler) decodeCB() string {
	var target string
	indexed := d.index != ""
	if indexed {
		target = d.mem()
	}
	op := d.next()
	x, y, z := op>>6, (op>>3)&7, op&7
	if !indexed {
		target = z80DisReg[z]
	}

	var text string
	switch x {
	case 0:
		text = fmt.Sprintf("%s %s", z80DisRot[y], target)
	case 1:
		return fmt.Sprintf("BIT %d,%s", y, target)
	case 2:
		text = fmt.Sprintf("RES %d,%s", y, target)
	default:
		text = fmt.Sprintf("SET %d,%s", y, target)
	}
	if indexed && z != 6 {
		text += "," + z80DisReg[z]
	}
	return text
}

func (d *z80Disassembler) decodeED() string {
	op := d.next()
	x, y, z := op>>6, (op>>3)&7, op&7
	p, q := y>>1, y&1

	if x == 2 && z <= 3 && y >= 4 {
		return z80DisBlock[y-4][z]
	}
	if x != 1 {
		return fmt.Sprintf("DB $ED,$%02X", op)
	}

	switch z {
	case 0:
		if y == 6 {
			return "IN (C)"
		}
		return fmt.Sprintf("IN %s,(C)", z80DisReg[y])
	case 1:
		if y == 6 {
			return "OUT (C),0"
		}
		return fmt.Sprintf("OUT (C),%s", z80DisReg[y])
	case 2:
		if q == 0 {
			return "SBC HL," + z80DisPair[p]
		}
		return "ADC HL," + z80DisPair[p]
	case 3:
		if q == 0 {
			return fmt.Sprintf("LD ($%04X),%s", d.word(), z80DisPair[p])
		}
		return fmt.Sprintf("LD %s,($%04X)", z80DisPair[p], d.word())
	case 4:
		return "NEG"
	case 5:
		if y == 1 {
			return "RETI"
		}
		return "RETN"
	case 6:
		return "IM " + z80DisIM[y]
	}
	return z80DisSpecial[y]
}
