// cpu_z80.go - Zilog Z80 CPU emulation for oxid

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package oxid

/*
cpu_z80.go - Zilog Z80 interpreter

Core Features:

    Full documented instruction set plus the undocumented behaviour guest
    software relies on: SLL, IXH/IXL/IYH/IYL halves, DDCB/FDCB register
    copies, X/Y flag bits and duplicated ED encodings.
    Opcode-indexed dispatch tables for the unprefixed, CB and ED pages. DD and
    FD select an index register and re-enter the unprefixed table, so every
    HL form picks up its IX/IY counterpart without a separate table.
    Cycle costs are charged by each handler; Step returns the T-states used by
    one instruction plus any interrupt response taken after it.
    Interrupts are polled from the InterruptController after every
    instruction. EI delays acceptance by one instruction.

The CPU never touches devices directly: memory and ports go through Z80Bus.
*/

import "fmt"

// Z80Bus is the CPU's view of memory and the port space.
type Z80Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, value byte)
	In(port uint16) byte
	Out(port uint16, value byte)
}

type Z80CPU struct {
	// Main and alternate register sets
	A, F, B, C, D, E, H, L         byte
	A2, F2, B2, C2, D2, E2, H2, L2 byte

	IX uint16
	IY uint16
	SP uint16
	PC uint16

	I  byte
	R  byte
	IM Z80InterruptMode
	// WZ is the internal MEMPTR register; it leaks into BIT n,(HL) flags.
	WZ uint16

	IFF1 bool
	IFF2 bool

	Halted bool
	// Cycles is the running T-state total. Machines reset it per frame.
	Cycles uint64

	bus Z80Bus
	ic  *InterruptController

	baseOps [256]func(*Z80CPU)
	cbOps   [256]func(*Z80CPU)
	edOps   [256]func(*Z80CPU)

	// Per-step state
	stepCycles int
	eiDelay    bool
	prefix     byte
	dispAddr   uint16
	dispValid  bool

	// LastInterrupt records the most recent accepted interrupt for tracing.
	LastInterrupt AcceptedInterrupt
	Interrupts    uint64
}

const (
	z80FlagS  = 0x80
	z80FlagZ  = 0x40
	z80FlagY  = 0x20
	z80FlagH  = 0x10
	z80FlagX  = 0x08
	z80FlagPV = 0x04
	z80FlagN  = 0x02
	z80FlagC  = 0x01

	z80FlagsXY = z80FlagX | z80FlagY
)

const (
	z80PrefixNone byte = iota
	z80PrefixDD
	z80PrefixFD
)

// Interrupt response costs in T-states.
const (
	Z80_CYCLES_NMI = 11
	Z80_CYCLES_IM0 = 13
	Z80_CYCLES_IM1 = 13
	Z80_CYCLES_IM2 = 19
)

// NewZ80CPU builds a CPU on bus. ic may be nil for a machine without
// interrupt sources.
func NewZ80CPU(bus Z80Bus, ic *InterruptController) *Z80CPU {
	c := &Z80CPU{bus: bus, ic: ic}
	c.initBaseOps()
	c.initCBOps()
	c.initEDOps()
	c.Reset()
	return c
}

// Reset loads the power-on state: PC, I, R and the interrupt state cleared,
// AF and SP at 0xFFFF.
func (c *Z80CPU) Reset() {
	c.A, c.F = 0xFF, 0xFF
	c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0
	c.A2, c.F2, c.B2, c.C2, c.D2, c.E2, c.H2, c.L2 = 0, 0, 0, 0, 0, 0, 0, 0
	c.IX, c.IY = 0, 0
	c.SP = 0xFFFF
	c.PC = 0
	c.I, c.R = 0, 0
	c.IM = Z80IM0
	c.WZ = 0
	c.IFF1, c.IFF2 = false, false
	c.Halted = false
	c.Cycles = 0
	c.eiDelay = false
	c.prefix = z80PrefixNone
	c.Interrupts = 0
}

func (c *Z80CPU) AF() uint16 { return uint16(c.A)<<8 | uint16(c.F) }
func (c *Z80CPU) BC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *Z80CPU) DE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *Z80CPU) HL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }

func (c *Z80CPU) SetAF(v uint16) { c.A, c.F = byte(v>>8), byte(v) }
func (c *Z80CPU) SetBC(v uint16) { c.B, c.C = byte(v>>8), byte(v) }
func (c *Z80CPU) SetDE(v uint16) { c.D, c.E = byte(v>>8), byte(v) }
func (c *Z80CPU) SetHL(v uint16) { c.H, c.L = byte(v>>8), byte(v) }

func (c *Z80CPU) Flag(mask byte) bool {
	return c.F&mask != 0
}

func (c *Z80CPU) SetFlag(mask byte, on bool) {
	if on {
		c.F |= mask
	} else {
		c.F &^= mask
	}
}

// Step executes one instruction, then takes a pending interrupt if the
// enable state allows it. The returned count covers both.
func (c *Z80CPU) Step() (int, error) {
	c.stepCycles = 0
	c.eiDelay = false

	if c.Halted {
		// HALT re-executes NOP cycles until an interrupt wakes the CPU
		c.incrementR()
		c.tick(4)
	} else {
		c.prefix = z80PrefixNone
		c.dispValid = false
		op := c.fetchOpcode()
		c.baseOps[op](c)
		c.prefix = z80PrefixNone
	}

	// No interrupt is accepted directly after EI
	if !c.eiDelay {
		c.pollInterrupt()
	}
	return c.stepCycles, nil
}

func (c *Z80CPU) pollInterrupt() {
	if c.ic == nil {
		return
	}
	acc, ok := c.ic.Poll(Z80Gate(c.IFF1, c.IM, c.I))
	if !ok {
		return
	}
	c.respond(acc)
}

func (c *Z80CPU) respond(acc AcceptedInterrupt) {
	c.Halted = false
	c.incrementR()
	c.LastInterrupt = acc
	c.Interrupts++

	if acc.NMI {
		c.IFF1 = false
		c.pushWord(c.PC)
		c.PC = 0x0066
		c.WZ = c.PC
		c.tick(Z80_CYCLES_NMI)
		return
	}

	c.IFF1, c.IFF2 = false, false
	c.pushWord(c.PC)
	switch acc.Mode {
	case Z80IM0:
		c.PC = acc.Handler
		c.tick(Z80_CYCLES_IM0)
	case Z80IM1:
		c.PC = 0x0038
		c.tick(Z80_CYCLES_IM1)
	default:
		c.PC = c.readWord(acc.TableAddr)
		c.tick(Z80_CYCLES_IM2)
	}
	c.WZ = c.PC
}

func (c *Z80CPU) String() string {
	return fmt.Sprintf("PC=%04X SP=%04X AF=%04X BC=%04X DE=%04X HL=%04X IX=%04X IY=%04X I=%02X R=%02X IM%d IFF=%t/%t",
		c.PC, c.SP, c.AF(), c.BC(), c.DE(), c.HL(), c.IX, c.IY, c.I, c.R, c.IM, c.IFF1, c.IFF2)
}

func (c *Z80CPU) incrementR() {
	c.R = (c.R & 0x80) | ((c.R + 1) & 0x7F)
}

func (c *Z80CPU) fetchOpcode() byte {
	op := c.bus.Read(c.PC)
	c.PC++
	c.incrementR()
	return op
}

func (c *Z80CPU) fetchByte() byte {
	v := c.bus.Read(c.PC)
	c.PC++
	return v
}

func (c *Z80CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *Z80CPU) read(addr uint16) byte {
	return c.bus.Read(addr)
}

func (c *Z80CPU) write(addr uint16, value byte) {
	c.bus.Write(addr, value)
}

func (c *Z80CPU) readWord(addr uint16) uint16 {
	lo := c.bus.Read(addr)
	hi := c.bus.Read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *Z80CPU) writeWord(addr uint16, value uint16) {
	c.bus.Write(addr, byte(value))
	c.bus.Write(addr+1, byte(value>>8))
}

func (c *Z80CPU) pushWord(value uint16) {
	c.SP--
	c.bus.Write(c.SP, byte(value>>8))
	c.SP--
	c.bus.Write(c.SP, byte(value))
}

func (c *Z80CPU) popWord() uint16 {
	lo := c.bus.Read(c.SP)
	c.SP++
	hi := c.bus.Read(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

func (c *Z80CPU) tick(cycles int) {
	c.stepCycles += cycles
	c.Cycles += uint64(cycles)
}

// Index register selection. Under DD/FD the HL forms address IX/IY.

func (c *Z80CPU) indexHL() uint16 {
	switch c.prefix {
	case z80PrefixDD:
		return c.IX
	case z80PrefixFD:
		return c.IY
	}
	return c.HL()
}

func (c *Z80CPU) setIndexHL(v uint16) {
	switch c.prefix {
	case z80PrefixDD:
		c.IX = v
	case z80PrefixFD:
		c.IY = v
	default:
		c.SetHL(v)
	}
}

// memHL resolves the (HL) operand. Under a prefix it fetches the
// displacement and charges the extra cycles for (IX+d); the address is
// computed once per instruction.
func (c *Z80CPU) memHL(extra int) uint16 {
	if c.prefix == z80PrefixNone {
		return c.HL()
	}
	if !c.dispValid {
		d := int8(c.fetchByte())
		c.dispAddr = c.indexHL() + uint16(int16(d))
		c.dispValid = true
		c.WZ = c.dispAddr
		c.tick(extra)
	}
	return c.dispAddr
}

// reg8 reads register code r (B C D E H L (HL) A). H and L follow the
// index prefix unless plain is set.
func (c *Z80CPU) reg8(r byte, plain bool) byte {
	switch r {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		if !plain && c.prefix != z80PrefixNone {
			return byte(c.indexHL() >> 8)
		}
		return c.H
	case 5:
		if !plain && c.prefix != z80PrefixNone {
			return byte(c.indexHL())
		}
		return c.L
	case 6:
		return c.read(c.memHL(8))
	}
	return c.A
}

func (c *Z80CPU) setReg8(r byte, v byte, plain bool) {
	switch r {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		if !plain && c.prefix != z80PrefixNone {
			c.setIndexHL(c.indexHL()&0x00FF | uint16(v)<<8)
			return
		}
		c.H = v
	case 5:
		if !plain && c.prefix != z80PrefixNone {
			c.setIndexHL(c.indexHL()&0xFF00 | uint16(v))
			return
		}
		c.L = v
	case 6:
		c.write(c.memHL(8), v)
	default:
		c.A = v
	}
}

// reg16 reads pair code rp (BC DE HL SP); af selects AF in place of SP.
func (c *Z80CPU) reg16(rp byte, af bool) uint16 {
	switch rp {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.indexHL()
	}
	if af {
		return c.AF()
	}
	return c.SP
}

func (c *Z80CPU) setReg16(rp byte, v uint16, af bool) {
	switch rp {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.setIndexHL(v)
	default:
		if af {
			c.SetAF(v)
		} else {
			c.SP = v
		}
	}
}

// condition evaluates cc: NZ Z NC C PO PE P M.
func (c *Z80CPU) condition(cc byte) bool {
	switch cc {
	case 0:
		return !c.Flag(z80FlagZ)
	case 1:
		return c.Flag(z80FlagZ)
	case 2:
		return !c.Flag(z80FlagC)
	case 3:
		return c.Flag(z80FlagC)
	case 4:
		return !c.Flag(z80FlagPV)
	case 5:
		return c.Flag(z80FlagPV)
	case 6:
		return !c.Flag(z80FlagS)
	}
	return c.Flag(z80FlagS)
}

func parity8(value byte) bool {
	value ^= value >> 4
	value ^= value >> 2
	value ^= value >> 1
	return value&1 == 0
}

// szp returns S, Z, P/V (parity) and X/Y for value.
func szp(value byte) byte {
	f := value & (z80FlagS | z80FlagsXY)
	if value == 0 {
		f |= z80FlagZ
	}
	if parity8(value) {
		f |= z80FlagPV
	}
	return f
}

// sz returns S, Z and X/Y for value.
func sz(value byte) byte {
	f := value & (z80FlagS | z80FlagsXY)
	if value == 0 {
		f |= z80FlagZ
	}
	return f
}
