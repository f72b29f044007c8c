package oxid

/*
disasm_m68k.go - 68000 disassembler

Core Features:

    Reuses the executor's decode table, so the text always names the
    instruction Step would run. Extension words are consumed in the order
    the CPU fetches them.
    Motorola syntax in upper case like the Z80 listing, hex operands. MOVEM register lists are
    shown as the raw mask.
*/

import (
	"fmt"
	"strings"
)

var m68kMnemonics = map[m68kKind]string{
	m68kIllegalOp: "illegal", m68kOriToCCR: "ori", m68kOriToSR: "ori",
	m68kAndiToCCR: "andi", m68kAndiToSR: "andi", m68kEoriToCCR: "eori", m68kEoriToSR: "eori",
	m68kOri: "ori", m68kAndi: "andi", m68kSubi: "subi", m68kAddi: "addi", m68kEori: "eori", m68kCmpi: "cmpi",
	m68kBtst: "btst", m68kBchg: "bchg", m68kBclr: "bclr", m68kBset: "bset", m68kMovep: "movep",
	m68kMove: "move", m68kMovea: "movea", m68kNegx: "negx", m68kMoveFromSR: "move", m68kChk: "chk",
	m68kLea: "lea", m68kClr: "clr", m68kNeg: "neg", m68kMoveToCCR: "move", m68kNot: "not",
	m68kMoveToSR: "move", m68kNbcd: "nbcd", m68kSwap: "swap", m68kPea: "pea", m68kExt: "ext",
	m68kMovemToMem: "movem", m68kMovemToReg: "movem", m68kTst: "tst", m68kTas: "tas", m68kTrap: "trap",
	m68kLink: "link", m68kUnlk: "unlk", m68kMoveToUSP: "move", m68kMoveFromUSP: "move",
	m68kReset: "reset", m68kNop: "nop", m68kStop: "stop", m68kRte: "rte", m68kRts: "rts",
	m68kTrapv: "trapv", m68kRtr: "rtr", m68kJsr: "jsr", m68kJmp: "jmp",
	m68kAddq: "addq", m68kSubq: "subq", m68kMoveq: "moveq",
	m68kOr: "or", m68kDivu: "divu", m68kDivs: "divs", m68kSbcd: "sbcd", m68kSub: "sub",
	m68kSuba: "suba", m68kSubx: "subx", m68kCmp: "cmp", m68kCmpa: "cmpa", m68kEor: "eor",
	m68kCmpm: "cmpm", m68kAnd: "and", m68kMulu: "mulu", m68kMuls: "muls", m68kAbcd: "abcd",
	m68kExg: "exg", m68kAdd: "add", m68kAdda: "adda", m68kAddx: "addx",
}

var m68kConditions = [16]string{"t", "f", "hi", "ls", "cc", "cs", "ne", "eq", "vc", "vs", "pl", "mi", "ge", "lt", "gt", "le"}

var m68kShiftNames = [4]string{"as", "ls", "rox", "ro"}

// Kinds that print without a size suffix
var m68kUnsized = map[m68kKind]bool{
	m68kLea: true, m68kPea: true, m68kJsr: true, m68kJmp: true, m68kExg: true,
	m68kSwap: true, m68kMoveq: true, m68kLink: true, m68kUnlk: true, m68kTrap: true,
	m68kMoveToUSP: true, m68kMoveFromUSP: true, m68kStop: true, m68kChk: true,
	m68kDivu: true, m68kDivs: true, m68kMulu: true, m68kMuls: true,
	m68kMoveToCCR: true, m68kMoveToSR: true, m68kMoveFromSR: true,
	m68kLineA: true, m68kLineF: true, m68kIllegal: true, m68kIllegalOp: true,
	m68kReset: true, m68kNop: true, m68kRte: true, m68kRts: true, m68kTrapv: true, m68kRtr: true,
	m68kDbcc: true, m68kScc: true, m68kBra: true, m68kBsr: true, m68kBcc: true,
}

type m68kDisassembler struct {
	read func(uint32) uint16
	pc   uint32

	// index register of the last brief extension word
	lastIndex string
}

func (d *m68kDisassembler) word() uint16 {
	w := d.read(d.pc)
	d.pc += 2
	return w
}

func (d *m68kDisassembler) long() uint32 {
	hi := uint32(d.word())
	return hi<<16 | uint32(d.word())
}

// DisassembleM68K returns the instruction at pc and its length in bytes.
// read fetches a big-endian word.
func DisassembleM68K(read func(uint32) uint16, pc uint32) (string, int) {
	d := &m68kDisassembler{read: read, pc: pc}
	op := d.word()
	text := strings.ToUpper(d.decode(op, m68kDecoded()[op]))
	return text, int(d.pc - pc)
}

func (d *m68kDisassembler) operand(o m68kOperand, size uint8, data uint8) string {
	switch o.Mode {
	case M68K_AM_DR:
		return fmt.Sprintf("d%d", o.Reg)
	case M68K_AM_AR:
		return fmt.Sprintf("a%d", o.Reg)
	case M68K_AM_AR_IND:
		return fmt.Sprintf("(a%d)", o.Reg)
	case M68K_AM_AR_POST:
		return fmt.Sprintf("(a%d)+", o.Reg)
	case M68K_AM_AR_PRE:
		return fmt.Sprintf("-(a%d)", o.Reg)
	case M68K_AM_AR_DISP:
		return fmt.Sprintf("%d(a%d)", int16(d.word()), o.Reg)
	case M68K_AM_AR_INDEX:
		disp := d.indexDisp()
		return fmt.Sprintf("%s(a%d%s)", disp, o.Reg, d.lastIndex)
	case M68K_AM_ABS_SHORT:
		return fmt.Sprintf("$%04X.w", d.word())
	case M68K_AM_ABS_LONG:
		return fmt.Sprintf("$%08X", d.long())
	case M68K_AM_PC_DISP:
		base := d.pc
		return fmt.Sprintf("$%X(pc)", base+uint32(int32(int16(d.word()))))
	case M68K_AM_PC_INDEX:
		disp := d.indexDisp()
		return fmt.Sprintf("%s(pc%s)", disp, d.lastIndex)
	case M68K_AM_IMM:
		switch size {
		case M68K_SIZE_BYTE:
			return fmt.Sprintf("#$%02X", d.word()&0xFF)
		case M68K_SIZE_WORD:
			return fmt.Sprintf("#$%04X", d.word())
		}
		return fmt.Sprintf("#$%08X", d.long())
	case M68K_AM_QUICK:
		return fmt.Sprintf("#%d", data)
	}
	return "?"
}

// indexDisp consumes a brief extension word, leaving the index register
// text in lastIndex.
func (d *m68kDisassembler) indexDisp() string {
	ext := d.word()
	kind := "d"
	if ext&0x8000 != 0 {
		kind = "a"
	}
	width := "w"
	if ext&0x0800 != 0 {
		width = "l"
	}
	d.lastIndex = fmt.Sprintf(",%s%d.%s", kind, (ext>>12)&7, width)
	return fmt.Sprint(int8(ext))
}

func (d *m68kDisassembler) decode(op uint16, ins m68kInstruction) string {
	name, ok := m68kMnemonics[ins.Kind]
	var args []string
	src := func() { args = append(args, d.operand(ins.Src, ins.Size, ins.Data)) }
	dst := func() { args = append(args, d.operand(ins.Dst, ins.Size, ins.Data)) }

	switch ins.Kind {
	case m68kIllegal, m68kLineA, m68kLineF:
		return fmt.Sprintf("dc.w $%04X", op)
	case m68kIllegalOp, m68kReset, m68kNop, m68kRte, m68kRts, m68kTrapv, m68kRtr:
	case m68kOriToCCR, m68kAndiToCCR, m68kEoriToCCR:
		args = append(args, d.operand(m68kOperand{Mode: M68K_AM_IMM}, M68K_SIZE_BYTE, 0), "ccr")
	case m68kOriToSR, m68kAndiToSR, m68kEoriToSR:
		args = append(args, d.operand(m68kOperand{Mode: M68K_AM_IMM}, M68K_SIZE_WORD, 0), "sr")
	case m68kStop:
		args = append(args, d.operand(m68kOperand{Mode: M68K_AM_IMM}, M68K_SIZE_WORD, 0))
	case m68kTrap:
		args = append(args, fmt.Sprintf("#%d", ins.Data))
	case m68kLink:
		args = append(args, fmt.Sprintf("a%d", ins.Dst.Reg), fmt.Sprintf("#%d", int16(d.word())))
	case m68kUnlk, m68kSwap, m68kExt, m68kNegx, m68kClr, m68kNeg, m68kNot, m68kTst, m68kTas,
		m68kNbcd, m68kShiftMem:
		dst()
	case m68kScc:
		name = "s" + m68kConditions[ins.Op]
		dst()
	case m68kMoveToUSP:
		args = append(args, fmt.Sprintf("a%d", ins.Src.Reg), "usp")
	case m68kMoveFromUSP:
		args = append(args, "usp", fmt.Sprintf("a%d", ins.Dst.Reg))
	case m68kMoveFromSR:
		args = append(args, "sr")
		dst()
	case m68kMoveToCCR:
		src()
		args = append(args, "ccr")
	case m68kMoveToSR:
		src()
		args = append(args, "sr")
	case m68kPea, m68kJsr, m68kJmp:
		src()
	case m68kMovep:
		disp := fmt.Sprintf("%d(a%d)", int16(d.word()), ins.Dst.Reg)
		if ins.Left {
			args = append(args, fmt.Sprintf("d%d", ins.Src.Reg), disp)
		} else {
			args = append(args, disp, fmt.Sprintf("d%d", ins.Src.Reg))
		}
	case m68kMovemToMem:
		mask := fmt.Sprintf("#$%04X", d.word())
		args = append(args, mask)
		dst()
	case m68kMovemToReg:
		mask := fmt.Sprintf("#$%04X", d.word())
		src()
		args = append(args, mask)
	case m68kBtst, m68kBchg, m68kBclr, m68kBset:
		if ins.Src.Mode == M68K_AM_IMM {
			args = append(args, fmt.Sprintf("#%d", d.word()&0xFF))
		} else {
			src()
		}
		dst()
	case m68kMoveq:
		args = append(args, fmt.Sprintf("#%d", int8(ins.Data)))
		dst()
	case m68kDbcc:
		name = "db" + m68kConditions[ins.Op]
		base := d.pc
		args = append(args, fmt.Sprintf("d%d", ins.Dst.Reg), fmt.Sprintf("$%X", base+uint32(int32(int16(d.word())))))
	case m68kBra, m68kBsr, m68kBcc:
		name = map[m68kKind]string{m68kBra: "bra", m68kBsr: "bsr"}[ins.Kind]
		if ins.Kind == m68kBcc {
			name = "b" + m68kConditions[ins.Op]
		}
		base := d.pc
		disp, suffix := int32(int8(ins.Data)), ".s"
		if ins.Data == 0 {
			disp, suffix = int32(int16(d.word())), ".w"
		}
		name += suffix
		args = append(args, fmt.Sprintf("$%X", base+uint32(disp)))
	case m68kShiftReg:
		name = m68kShiftNames[ins.Op&3]
		if ins.Left {
			name += "l"
		} else {
			name += "r"
		}
		src()
		dst()
	default:
		if !ok {
			return fmt.Sprintf("dc.w $%04X", op)
		}
		src()
		dst()
	}

	if ins.Kind == m68kShiftMem {
		name = m68kShiftNames[ins.Op&3]
		if ins.Left {
			name += "l"
		} else {
			name += "r"
		}
	}
	if !m68kUnsized[ins.Kind] {
		name += [3]string{".b", ".w", ".l"}[ins.Size%3]
	}
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, ",")
}
