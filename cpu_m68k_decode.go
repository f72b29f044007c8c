package oxid

import "sync"

// 68000 instruction decoder. Every 16-bit opcode is decoded once into a
// tagged m68kInstruction; Step executes by switching on Kind. Encodings
// with invalid addressing modes decode as m68kIllegal.

type m68kKind uint8

const (
	m68kIllegal m68kKind = iota
	m68kIllegalOp
	m68kLineA
	m68kLineF

	m68kOriToCCR
	m68kOriToSR
	m68kAndiToCCR
	m68kAndiToSR
	m68kEoriToCCR
	m68kEoriToSR
	m68kOri
	m68kAndi
	m68kSubi
	m68kAddi
	m68kEori
	m68kCmpi
	m68kBtst
	m68kBchg
	m68kBclr
	m68kBset
	m68kMovep

	m68kMove
	m68kMovea

	m68kNegx
	m68kMoveFromSR
	m68kChk
	m68kLea
	m68kClr
	m68kNeg
	m68kMoveToCCR
	m68kNot
	m68kMoveToSR
	m68kNbcd
	m68kSwap
	m68kPea
	m68kExt
	m68kMovemToMem
	m68kMovemToReg
	m68kTst
	m68kTas
	m68kTrap
	m68kLink
	m68kUnlk
	m68kMoveToUSP
	m68kMoveFromUSP
	m68kReset
	m68kNop
	m68kStop
	m68kRte
	m68kRts
	m68kTrapv
	m68kRtr
	m68kJsr
	m68kJmp

	m68kAddq
	m68kSubq
	m68kScc
	m68kDbcc
	m68kBra
	m68kBsr
	m68kBcc
	m68kMoveq

	m68kOr
	m68kDivu
	m68kDivs
	m68kSbcd
	m68kSub
	m68kSuba
	m68kSubx
	m68kCmp
	m68kCmpa
	m68kEor
	m68kCmpm
	m68kAnd
	m68kMulu
	m68kMuls
	m68kAbcd
	m68kExg
	m68kAdd
	m68kAdda
	m68kAddx

	m68kShiftReg
	m68kShiftMem
)

// Addressing modes. M68K_AM_QUICK is an operand whose value lives in the
// instruction's Data field (ADDQ, MOVEQ, shift counts).
const (
	M68K_AM_DR = iota
	M68K_AM_AR
	M68K_AM_AR_IND
	M68K_AM_AR_POST
	M68K_AM_AR_PRE
	M68K_AM_AR_DISP
	M68K_AM_AR_INDEX
	M68K_AM_ABS_SHORT
	M68K_AM_ABS_LONG
	M68K_AM_PC_DISP
	M68K_AM_PC_INDEX
	M68K_AM_IMM
	M68K_AM_QUICK
)

// Shift and rotate operation types, bits 4-3 (register) or 10-9 (memory).
const (
	m68kShiftAS = iota
	m68kShiftLS
	m68kShiftROX
	m68kShiftRO
)

type m68kOperand struct {
	Mode uint8
	Reg  uint8
}

type m68kInstruction struct {
	Kind m68kKind
	Size uint8
	Src  m68kOperand
	Dst  m68kOperand
	// Data holds quick immediates, trap numbers and branch displacements.
	Data uint8
	// Op holds the condition code or the shift type.
	Op   uint8
	Left bool
}

// Addressing mode classes as bitmasks over the M68K_AM_* values.
const (
	m68kEAAll        = 1<<M68K_AM_IMM<<1 - 1
	m68kEAData       = m68kEAAll &^ (1 << M68K_AM_AR)
	m68kEAMemory     = m68kEAData &^ (1 << M68K_AM_DR)
	m68kEAAlterable  = m68kEAAll &^ (1<<M68K_AM_PC_DISP | 1<<M68K_AM_PC_INDEX | 1<<M68K_AM_IMM)
	m68kEADataAlt    = m68kEAAlterable &^ (1 << M68K_AM_AR)
	m68kEAMemAlt     = m68kEADataAlt &^ (1 << M68K_AM_DR)
	m68kEAControl    = 1<<M68K_AM_AR_IND | 1<<M68K_AM_AR_DISP | 1<<M68K_AM_AR_INDEX | 1<<M68K_AM_ABS_SHORT | 1<<M68K_AM_ABS_LONG | 1<<M68K_AM_PC_DISP | 1<<M68K_AM_PC_INDEX
	m68kEAControlAlt = m68kEAControl &^ (1<<M68K_AM_PC_DISP | 1<<M68K_AM_PC_INDEX)
)

var (
	m68kDecodeTable [0x10000]m68kInstruction
	m68kDecodeOnce  sync.Once
)

func m68kDecoded() *[0x10000]m68kInstruction {
	m68kDecodeOnce.Do(func() {
		for op := 0; op < 0x10000; op++ {
			m68kDecodeTable[op] = decodeM68K(uint16(op))
		}
	})
	return &m68kDecodeTable
}

// m68kEA maps the mode/register fields to an operand, if valid and in class.
func m68kEA(mode, reg uint16, class int) (m68kOperand, bool) {
	var am uint8
	if mode < 7 {
		am = uint8(mode)
	} else {
		switch reg {
		case 0:
			am = M68K_AM_ABS_SHORT
		case 1:
			am = M68K_AM_ABS_LONG
		case 2:
			am = M68K_AM_PC_DISP
		case 3:
			am = M68K_AM_PC_INDEX
		case 4:
			am = M68K_AM_IMM
		default:
			return m68kOperand{}, false
		}
		reg = 0
	}
	if class&(1<<am) == 0 {
		return m68kOperand{}, false
	}
	return m68kOperand{Mode: am, Reg: uint8(reg)}, true
}

func dataReg(r uint16) m68kOperand { return m68kOperand{Mode: M68K_AM_DR, Reg: uint8(r)} }
func addrReg(r uint16) m68kOperand { return m68kOperand{Mode: M68K_AM_AR, Reg: uint8(r)} }

var m68kIllegalInstruction = m68kInstruction{Kind: m68kIllegal}

func decodeM68K(op uint16) m68kInstruction {
	mode, reg := (op>>3)&7, op&7
	rx := (op >> 9) & 7
	size := uint8((op >> 6) & 3)

	switch op >> 12 {
	case 0x0:
		return decodeM68KGroup0(op, mode, reg, rx, size)
	case 0x1, 0x2, 0x3:
		return decodeM68KMove(op, mode, reg, rx)
	case 0x4:
		return decodeM68KGroup4(op, mode, reg, rx, size)
	case 0x5:
		return decodeM68KGroup5(op, mode, reg, rx, size)
	case 0x6:
		cond := uint8((op >> 8) & 0xF)
		ins := m68kInstruction{Kind: m68kBcc, Op: cond, Data: uint8(op)}
		switch cond {
		case 0:
			ins.Kind = m68kBra
		case 1:
			ins.Kind = m68kBsr
		}
		return ins
	case 0x7:
		if op&0x0100 != 0 {
			return m68kIllegalInstruction
		}
		return m68kInstruction{Kind: m68kMoveq, Size: M68K_SIZE_LONG, Dst: dataReg(rx), Data: uint8(op)}
	case 0x8:
		return decodeM68KArith(op, mode, reg, rx, size, m68kOr)
	case 0x9:
		return decodeM68KArith(op, mode, reg, rx, size, m68kSub)
	case 0xA:
		return m68kInstruction{Kind: m68kLineA}
	case 0xB:
		return decodeM68KGroupB(op, mode, reg, rx, size)
	case 0xC:
		return decodeM68KArith(op, mode, reg, rx, size, m68kAnd)
	case 0xD:
		return decodeM68KArith(op, mode, reg, rx, size, m68kAdd)
	case 0xE:
		return decodeM68KShift(op, mode, reg, rx, size)
	}
	return m68kInstruction{Kind: m68kLineF}
}

func decodeM68KGroup0(op, mode, reg, rx uint16, size uint8) m68kInstruction {
	switch op {
	case 0x003C:
		return m68kInstruction{Kind: m68kOriToCCR, Size: M68K_SIZE_BYTE}
	case 0x007C:
		return m68kInstruction{Kind: m68kOriToSR, Size: M68K_SIZE_WORD}
	case 0x023C:
		return m68kInstruction{Kind: m68kAndiToCCR, Size: M68K_SIZE_BYTE}
	case 0x027C:
		return m68kInstruction{Kind: m68kAndiToSR, Size: M68K_SIZE_WORD}
	case 0x0A3C:
		return m68kInstruction{Kind: m68kEoriToCCR, Size: M68K_SIZE_BYTE}
	case 0x0A7C:
		return m68kInstruction{Kind: m68kEoriToSR, Size: M68K_SIZE_WORD}
	}

	if op&0x0100 != 0 {
		// Dynamic bit operations and MOVEP
		if mode == 1 {
			ins := m68kInstruction{Kind: m68kMovep, Size: M68K_SIZE_WORD, Src: dataReg(rx), Dst: addrReg(reg)}
			if op&0x0040 != 0 {
				ins.Size = M68K_SIZE_LONG
			}
			ins.Left = op&0x0080 != 0 // register to memory
			return ins
		}
		return decodeM68KBit(op, mode, reg, dataReg(rx))
	}

	if rx == 4 {
		// Static bit operations, bit number in the extension word
		if op&0x0E00 != 0x0800 {
			return m68kIllegalInstruction
		}
		return decodeM68KBit(op, mode, reg, m68kOperand{Mode: M68K_AM_IMM})
	}

	if size == 3 {
		return m68kIllegalInstruction
	}
	kinds := [8]m68kKind{m68kOri, m68kAndi, m68kSubi, m68kAddi, m68kIllegal, m68kEori, m68kCmpi, m68kIllegal}
	kind := kinds[rx]
	if kind == m68kIllegal {
		return m68kIllegalInstruction
	}
	class := m68kEADataAlt
	dst, ok := m68kEA(mode, reg, class)
	if !ok {
		return m68kIllegalInstruction
	}
	return m68kInstruction{Kind: kind, Size: size, Src: m68kOperand{Mode: M68K_AM_IMM}, Dst: dst}
}

func decodeM68KBit(op, mode, reg uint16, src m68kOperand) m68kInstruction {
	kinds := [4]m68kKind{m68kBtst, m68kBchg, m68kBclr, m68kBset}
	kind := kinds[(op>>6)&3]
	class := m68kEADataAlt
	if kind == m68kBtst {
		class = m68kEAData
		if src.Mode == M68K_AM_IMM {
			class &^= 1 << M68K_AM_IMM
		}
	}
	dst, ok := m68kEA(mode, reg, class)
	if !ok {
		return m68kIllegalInstruction
	}
	size := uint8(M68K_SIZE_BYTE)
	if dst.Mode == M68K_AM_DR {
		size = M68K_SIZE_LONG
	}
	return m68kInstruction{Kind: kind, Size: size, Src: src, Dst: dst}
}

func decodeM68KMove(op, mode, reg, rx uint16) m68kInstruction {
	var size uint8
	switch op >> 12 {
	case 1:
		size = M68K_SIZE_BYTE
	case 2:
		size = M68K_SIZE_LONG
	default:
		size = M68K_SIZE_WORD
	}
	srcClass := m68kEAAll
	if size == M68K_SIZE_BYTE {
		srcClass = m68kEAData
	}
	src, ok := m68kEA(mode, reg, srcClass)
	if !ok {
		return m68kIllegalInstruction
	}
	dmode := (op >> 6) & 7
	if dmode == 1 {
		if size == M68K_SIZE_BYTE {
			return m68kIllegalInstruction
		}
		return m68kInstruction{Kind: m68kMovea, Size: size, Src: src, Dst: addrReg(rx)}
	}
	dst, ok := m68kEA(dmode, rx, m68kEADataAlt)
	if !ok {
		return m68kIllegalInstruction
	}
	return m68kInstruction{Kind: m68kMove, Size: size, Src: src, Dst: dst}
}

func decodeM68KGroup4(op, mode, reg, rx uint16, size uint8) m68kInstruction {
	switch op {
	case 0x4AFC:
		return m68kInstruction{Kind: m68kIllegalOp}
	case 0x4E70:
		return m68kInstruction{Kind: m68kReset}
	case 0x4E71:
		return m68kInstruction{Kind: m68kNop}
	case 0x4E72:
		return m68kInstruction{Kind: m68kStop}
	case 0x4E73:
		return m68kInstruction{Kind: m68kRte}
	case 0x4E75:
		return m68kInstruction{Kind: m68kRts}
	case 0x4E76:
		return m68kInstruction{Kind: m68kTrapv}
	case 0x4E77:
		return m68kInstruction{Kind: m68kRtr}
	}

	switch op & 0xFFF0 {
	case 0x4E40:
		return m68kInstruction{Kind: m68kTrap, Data: uint8(op & 0xF)}
	case 0x4E50:
		if op&8 == 0 {
			return m68kInstruction{Kind: m68kLink, Dst: addrReg(reg)}
		}
		return m68kInstruction{Kind: m68kUnlk, Dst: addrReg(reg)}
	case 0x4E60:
		if op&8 == 0 {
			return m68kInstruction{Kind: m68kMoveToUSP, Src: addrReg(reg)}
		}
		return m68kInstruction{Kind: m68kMoveFromUSP, Dst: addrReg(reg)}
	}

	if op&0x0100 != 0 {
		switch size {
		case 2:
			// CHK.W <ea>,Dn
			src, ok := m68kEA(mode, reg, m68kEAData)
			if !ok {
				return m68kIllegalInstruction
			}
			return m68kInstruction{Kind: m68kChk, Size: M68K_SIZE_WORD, Src: src, Dst: dataReg(rx)}
		case 3:
			src, ok := m68kEA(mode, reg, m68kEAControl)
			if !ok {
				return m68kIllegalInstruction
			}
			return m68kInstruction{Kind: m68kLea, Size: M68K_SIZE_LONG, Src: src, Dst: addrReg(rx)}
		}
		return m68kIllegalInstruction
	}

	single := func(kind m68kKind, class int) m68kInstruction {
		dst, ok := m68kEA(mode, reg, class)
		if !ok {
			return m68kIllegalInstruction
		}
		return m68kInstruction{Kind: kind, Size: size, Dst: dst}
	}

	switch rx {
	case 0:
		if size == 3 {
			ins := single(m68kMoveFromSR, m68kEADataAlt)
			ins.Size = M68K_SIZE_WORD
			return ins
		}
		return single(m68kNegx, m68kEADataAlt)
	case 1:
		if size == 3 {
			return m68kIllegalInstruction
		}
		return single(m68kClr, m68kEADataAlt)
	case 2:
		if size == 3 {
			src, ok := m68kEA(mode, reg, m68kEAData)
			if !ok {
				return m68kIllegalInstruction
			}
			return m68kInstruction{Kind: m68kMoveToCCR, Size: M68K_SIZE_WORD, Src: src}
		}
		return single(m68kNeg, m68kEADataAlt)
	case 3:
		if size == 3 {
			src, ok := m68kEA(mode, reg, m68kEAData)
			if !ok {
				return m68kIllegalInstruction
			}
			return m68kInstruction{Kind: m68kMoveToSR, Size: M68K_SIZE_WORD, Src: src}
		}
		return single(m68kNot, m68kEADataAlt)
	case 4:
		switch size {
		case 0:
			ins := single(m68kNbcd, m68kEADataAlt)
			ins.Size = M68K_SIZE_BYTE
			return ins
		case 1:
			if mode == 0 {
				return m68kInstruction{Kind: m68kSwap, Size: M68K_SIZE_LONG, Dst: dataReg(reg)}
			}
			src, ok := m68kEA(mode, reg, m68kEAControl)
			if !ok {
				return m68kIllegalInstruction
			}
			return m68kInstruction{Kind: m68kPea, Size: M68K_SIZE_LONG, Src: src}
		default:
			msize := uint8(M68K_SIZE_WORD)
			if size == 3 {
				msize = M68K_SIZE_LONG
			}
			if mode == 0 {
				return m68kInstruction{Kind: m68kExt, Size: msize, Dst: dataReg(reg)}
			}
			dst, ok := m68kEA(mode, reg, m68kEAControlAlt|1<<M68K_AM_AR_PRE)
			if !ok {
				return m68kIllegalInstruction
			}
			return m68kInstruction{Kind: m68kMovemToMem, Size: msize, Dst: dst}
		}
	case 5:
		if size == 3 {
			ins := single(m68kTas, m68kEADataAlt)
			ins.Size = M68K_SIZE_BYTE
			return ins
		}
		return single(m68kTst, m68kEADataAlt)
	case 6:
		if size < 2 {
			return m68kIllegalInstruction
		}
		msize := uint8(M68K_SIZE_WORD)
		if size == 3 {
			msize = M68K_SIZE_LONG
		}
		src, ok := m68kEA(mode, reg, m68kEAControl|1<<M68K_AM_AR_POST)
		if !ok {
			return m68kIllegalInstruction
		}
		return m68kInstruction{Kind: m68kMovemToReg, Size: msize, Src: src}
	case 7:
		switch size {
		case 2:
			src, ok := m68kEA(mode, reg, m68kEAControl)
			if !ok {
				return m68kIllegalInstruction
			}
			return m68kInstruction{Kind: m68kJsr, Src: src}
		case 3:
			src, ok := m68kEA(mode, reg, m68kEAControl)
			if !ok {
				return m68kIllegalInstruction
			}
			return m68kInstruction{Kind: m68kJmp, Src: src}
		}
	}
	return m68kIllegalInstruction
}

func decodeM68KGroup5(op, mode, reg, rx uint16, size uint8) m68kInstruction {
	if size == 3 {
		cond := uint8((op >> 8) & 0xF)
		if mode == 1 {
			return m68kInstruction{Kind: m68kDbcc, Size: M68K_SIZE_WORD, Op: cond, Dst: dataReg(reg)}
		}
		dst, ok := m68kEA(mode, reg, m68kEADataAlt)
		if !ok {
			return m68kIllegalInstruction
		}
		return m68kInstruction{Kind: m68kScc, Size: M68K_SIZE_BYTE, Op: cond, Dst: dst}
	}
	class := m68kEAAlterable
	if size == M68K_SIZE_BYTE {
		class = m68kEADataAlt
	}
	dst, ok := m68kEA(mode, reg, class)
	if !ok {
		return m68kIllegalInstruction
	}
	data := uint8(rx)
	if data == 0 {
		data = 8
	}
	kind := m68kAddq
	if op&0x0100 != 0 {
		kind = m68kSubq
	}
	return m68kInstruction{Kind: kind, Size: size, Src: m68kOperand{Mode: M68K_AM_QUICK}, Dst: dst, Data: data}
}

// decodeM68KArith covers lines 8, 9, C and D, which share the
// <ea>,Dn / Dn,<ea> layout plus their address, extended and special forms.
func decodeM68KArith(op, mode, reg, rx uint16, size uint8, base m68kKind) m68kInstruction {
	opmode := (op >> 6) & 7

	if opmode == 3 || opmode == 7 {
		switch base {
		case m68kSub, m68kAdd:
			kind := m68kSuba
			if base == m68kAdd {
				kind = m68kAdda
			}
			src, ok := m68kEA(mode, reg, m68kEAAll)
			if !ok {
				return m68kIllegalInstruction
			}
			s := uint8(M68K_SIZE_WORD)
			if opmode == 7 {
				s = M68K_SIZE_LONG
			}
			return m68kInstruction{Kind: kind, Size: s, Src: src, Dst: addrReg(rx)}
		}
		kinds := map[m68kKind][2]m68kKind{
			m68kOr:  {m68kDivu, m68kDivs},
			m68kAnd: {m68kMulu, m68kMuls},
		}[base]
		kind := kinds[0]
		if opmode == 7 {
			kind = kinds[1]
		}
		src, ok := m68kEA(mode, reg, m68kEAData)
		if !ok {
			return m68kIllegalInstruction
		}
		return m68kInstruction{Kind: kind, Size: M68K_SIZE_WORD, Src: src, Dst: dataReg(rx)}
	}

	toEA := opmode >= 4
	if toEA && mode <= 1 {
		// Register and predecrement forms: ABCD/SBCD/ADDX/SUBX/EXG
		rm := mode == 1
		src, dst := dataReg(reg), dataReg(rx)
		if rm {
			src = m68kOperand{Mode: M68K_AM_AR_PRE, Reg: uint8(reg)}
			dst = m68kOperand{Mode: M68K_AM_AR_PRE, Reg: uint8(rx)}
		}
		switch base {
		case m68kOr, m68kAnd:
			if size == 0 {
				kind := m68kSbcd
				if base == m68kAnd {
					kind = m68kAbcd
				}
				return m68kInstruction{Kind: kind, Size: M68K_SIZE_BYTE, Src: src, Dst: dst}
			}
			if base == m68kAnd {
				switch opmode<<1 | mode {
				case 5<<1 | 0:
					return m68kInstruction{Kind: m68kExg, Size: M68K_SIZE_LONG, Src: dataReg(rx), Dst: dataReg(reg)}
				case 5<<1 | 1:
					return m68kInstruction{Kind: m68kExg, Size: M68K_SIZE_LONG, Src: addrReg(rx), Dst: addrReg(reg)}
				case 6<<1 | 1:
					return m68kInstruction{Kind: m68kExg, Size: M68K_SIZE_LONG, Src: dataReg(rx), Dst: addrReg(reg)}
				}
			}
			return m68kIllegalInstruction
		default:
			kind := m68kSubx
			if base == m68kAdd {
				kind = m68kAddx
			}
			return m68kInstruction{Kind: kind, Size: size, Src: src, Dst: dst}
		}
	}

	if !toEA {
		class := m68kEAAll
		if base == m68kOr || base == m68kAnd {
			class = m68kEAData
		}
		if size == M68K_SIZE_BYTE {
			class &^= 1 << M68K_AM_AR
		}
		src, ok := m68kEA(mode, reg, class)
		if !ok {
			return m68kIllegalInstruction
		}
		return m68kInstruction{Kind: base, Size: size, Src: src, Dst: dataReg(rx)}
	}
	dst, ok := m68kEA(mode, reg, m68kEAMemAlt)
	if !ok {
		return m68kIllegalInstruction
	}
	return m68kInstruction{Kind: base, Size: size, Src: dataReg(rx), Dst: dst}
}

func decodeM68KGroupB(op, mode, reg, rx uint16, size uint8) m68kInstruction {
	opmode := (op >> 6) & 7
	switch {
	case opmode == 3 || opmode == 7:
		src, ok := m68kEA(mode, reg, m68kEAAll)
		if !ok {
			return m68kIllegalInstruction
		}
		s := uint8(M68K_SIZE_WORD)
		if opmode == 7 {
			s = M68K_SIZE_LONG
		}
		return m68kInstruction{Kind: m68kCmpa, Size: s, Src: src, Dst: addrReg(rx)}
	case opmode < 3:
		class := m68kEAAll
		if size == M68K_SIZE_BYTE {
			class &^= 1 << M68K_AM_AR
		}
		src, ok := m68kEA(mode, reg, class)
		if !ok {
			return m68kIllegalInstruction
		}
		return m68kInstruction{Kind: m68kCmp, Size: size, Src: src, Dst: dataReg(rx)}
	case mode == 1:
		return m68kInstruction{Kind: m68kCmpm, Size: size,
			Src: m68kOperand{Mode: M68K_AM_AR_POST, Reg: uint8(reg)},
			Dst: m68kOperand{Mode: M68K_AM_AR_POST, Reg: uint8(rx)}}
	}
	dst, ok := m68kEA(mode, reg, m68kEADataAlt)
	if !ok {
		return m68kIllegalInstruction
	}
	return m68kInstruction{Kind: m68kEor, Size: size, Src: dataReg(rx), Dst: dst}
}

func decodeM68KShift(op, mode, reg, rx uint16, size uint8) m68kInstruction {
	left := op&0x0100 != 0
	if size == 3 {
		if op&0x0800 != 0 {
			return m68kIllegalInstruction
		}
		dst, ok := m68kEA(mode, reg, m68kEAMemAlt)
		if !ok {
			return m68kIllegalInstruction
		}
		return m68kInstruction{Kind: m68kShiftMem, Size: M68K_SIZE_WORD, Dst: dst, Op: uint8((op >> 9) & 3), Left: left, Data: 1}
	}
	ins := m68kInstruction{Kind: m68kShiftReg, Size: size, Dst: dataReg(reg), Op: uint8((op >> 3) & 3), Left: left}
	if op&0x0020 != 0 {
		ins.Src = dataReg(rx)
	} else {
		ins.Src = m68kOperand{Mode: M68K_AM_QUICK}
		ins.Data = uint8(rx)
		if ins.Data == 0 {
			ins.Data = 8
		}
	}
	return ins
}
