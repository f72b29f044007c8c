// cpu_m68k.go - Motorola 68000 CPU emulation for oxid

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
cpu_m68k.go - Motorola 68000 interpreter

Core Features:

    Complete 68000 user and supervisor instruction set, decoded once into a
    64K table of tagged instructions (cpu_m68k_decode.go) and executed by a
    switch on the instruction kind (cpu_m68k_exec.go).
    Effective address resolution for all twelve 68000 modes with the
    documented calculation times (cpu_m68k_ea.go).
    Exception processing: group 1/2 frames (PC, SR) for traps, interrupts,
    privilege violations and line A/F; seven word group 0 frames for bus and
    address errors. A fault while dispatching a group 0 exception halts the
    CPU with a DoubleFaultError.
    Bus faults abort the instruction: the CPU stops issuing accesses after
    the first fault, restores the register file to instruction start and
    takes vector 2 with the faulting instruction's PC in the frame.
    Interrupts are polled from the InterruptController before each fetch;
    STOP idles until one is accepted.

The interpreter is single threaded and owns no devices. Step executes one
instruction (or one exception response) and returns its cycle cost.
*/

import (
	"fmt"

	"github.com/intuitionamiga/oxid/logger"
)

const (
	M68K_SR_C     = 0x0001
	M68K_SR_V     = 0x0002
	M68K_SR_Z     = 0x0004
	M68K_SR_N     = 0x0008
	M68K_SR_X     = 0x0010
	M68K_SR_CCR   = 0x001F
	M68K_SR_IPL   = 0x0700
	M68K_SR_S     = 0x2000
	M68K_SR_T     = 0x8000
	M68K_SR_MASK  = 0xA71F // bits implemented by the 68000
	M68K_SR_SHIFT = 8
)

const (
	M68K_VEC_RESET_SSP       = 0
	M68K_VEC_RESET           = 1
	M68K_VEC_BUS_ERROR       = 2
	M68K_VEC_ADDRESS_ERROR   = 3
	M68K_VEC_ILLEGAL         = 4
	M68K_VEC_ZERO_DIVIDE     = 5
	M68K_VEC_CHK             = 6
	M68K_VEC_TRAPV           = 7
	M68K_VEC_PRIVILEGE       = 8
	M68K_VEC_TRACE           = 9
	M68K_VEC_LINE_A          = 10
	M68K_VEC_LINE_F          = 11
	M68K_VEC_SPURIOUS        = 24
	M68K_VEC_AUTOVECTOR_BASE = 24
	M68K_VEC_LEVEL1          = 25
	M68K_VEC_LEVEL7          = 31
	M68K_VEC_TRAP_BASE       = 32
)

const (
	M68K_CC_T = iota
	M68K_CC_F
	M68K_CC_HI
	M68K_CC_LS
	M68K_CC_CC
	M68K_CC_CS
	M68K_CC_NE
	M68K_CC_EQ
	M68K_CC_VC
	M68K_CC_VS
	M68K_CC_PL
	M68K_CC_MI
	M68K_CC_GE
	M68K_CC_LT
	M68K_CC_GT
	M68K_CC_LE
)

const (
	M68K_SIZE_BYTE = iota
	M68K_SIZE_WORD
	M68K_SIZE_LONG
)

// Exception and control timings in clock cycles.
const (
	M68K_CYCLE_RESET       = 40
	M68K_CYCLE_INTERRUPT   = 44
	M68K_CYCLE_EXCEPTION   = 34
	M68K_CYCLE_BUS_ERROR   = 50
	M68K_CYCLE_ZERO_DIVIDE = 38
	M68K_CYCLE_CHK         = 40
	M68K_CYCLE_STOP        = 4
	M68K_CYCLE_RESET_INSTR = 132
)

var (
	m68kSizeMask = [3]uint32{0xFF, 0xFFFF, 0xFFFFFFFF}
	m68kSizeMSB  = [3]uint32{0x80, 0x8000, 0x80000000}
	m68kSizeLen  = [3]uint32{1, 2, 4}
)

// M68KBus is the CPU's view of the address space. *Bus implements it.
type M68KBus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, value uint8)
	Write16(addr uint32, value uint16)
	Write32(addr uint32, value uint32)
	PendingFault() (BusFault, bool)
	AckFault()
}

// M68KIllegalPolicy selects what an unimplemented opcode does.
type M68KIllegalPolicy int

const (
	// M68KHaltIllegal stops the CPU and returns IllegalInstructionError.
	M68KHaltIllegal M68KIllegalPolicy = iota
	// M68KTrapIllegal takes the illegal instruction exception (vector 4).
	M68KTrapIllegal
)

type m68kFault struct {
	pending bool
	vector  uint8
	addr    uint32
	write   bool
	fetch   bool
}

type m68kRegisters struct {
	data     [8]uint32
	addr     [8]uint32
	pc       uint32
	sr       uint16
	usp, ssp uint32
}

type M68KCPU struct {
	DataRegs [8]uint32
	AddrRegs [8]uint32 // A7 is the active stack pointer
	PC       uint32
	SR       uint16
	USP      uint32 // inactive user stack pointer
	SSP      uint32 // inactive supervisor stack pointer

	Stopped bool
	Halted  bool
	Cycles  uint64

	IllegalPolicy M68KIllegalPolicy
	// ResetHook is called by the RESET instruction to reset external devices.
	ResetHook func()

	LastInterrupt AcceptedInterrupt
	Interrupts    uint64
	LastException Exception

	bus M68KBus
	ic  *InterruptController

	stepCycles int
	opcode     uint16
	instrPC    uint32
	fault      m68kFault
	saved      m68kRegisters
	haltErr    error
	decode     *[0x10000]m68kInstruction
}

// NewM68KCPU builds a CPU on bus. ic may be nil for a CPU without
// interrupt inputs. Call Reset before stepping.
func NewM68KCPU(bus M68KBus, ic *InterruptController) *M68KCPU {
	return &M68KCPU{
		SR:     M68K_SR_S | M68K_SR_IPL,
		bus:    bus,
		ic:     ic,
		decode: m68kDecoded(),
	}
}

// Reset performs the power-on sequence: supervisor mode, mask 7, SSP from
// vector 0 and PC from vector 1. A fault while fetching either vector halts
// the CPU.
func (cpu *M68KCPU) Reset() {
	cpu.DataRegs = [8]uint32{}
	cpu.AddrRegs = [8]uint32{}
	cpu.USP = 0
	cpu.SR = M68K_SR_S | M68K_SR_IPL
	cpu.Stopped = false
	cpu.Halted = false
	cpu.haltErr = nil
	cpu.fault = m68kFault{}
	cpu.bus.AckFault()

	ssp := cpu.read(M68K_VEC_RESET_SSP*4, M68K_SIZE_LONG)
	pc := cpu.read(M68K_VEC_RESET*4, M68K_SIZE_LONG)
	cpu.AddrRegs[7] = ssp
	cpu.SSP = ssp
	cpu.PC = pc
	cpu.Cycles += M68K_CYCLE_RESET
	cpu.LastException = Exception{Kind: ExceptionReset, Vector: M68K_VEC_RESET}

	if cpu.fault.pending {
		f := cpu.fault
		cpu.fault = m68kFault{}
		cpu.halt(&DoubleFaultError{CPU: "m68k", PC: pc, Addr: f.addr, Vector: f.vector})
		return
	}
	logger.Logf(logger.Allow, "m68k", "reset: SSP=%08X PC=%08X", ssp, pc)
}

// Bus returns the bus the CPU was built on.
func (cpu *M68KCPU) Bus() M68KBus {
	return cpu.bus
}

// HaltReason returns the error that stopped the CPU, or nil.
func (cpu *M68KCPU) HaltReason() error {
	return cpu.haltErr
}

// Step runs one instruction or takes one pending exception and returns
// the cycles consumed.
func (cpu *M68KCPU) Step() (int, error) {
	if cpu.Halted {
		return 0, fmt.Errorf("m68k: %w: %v", ErrCPUHalted, cpu.haltErr)
	}
	cpu.stepCycles = 0
	err := cpu.step()
	cpu.Cycles += uint64(cpu.stepCycles)
	return cpu.stepCycles, err
}

func (cpu *M68KCPU) step() error {
	cpu.saveRegisters()
	cpu.instrPC = cpu.PC

	if cpu.pollInterrupt() {
		if cpu.fault.pending {
			return cpu.processFault()
		}
		return nil
	}
	if cpu.Stopped {
		cpu.tick(M68K_CYCLE_STOP)
		return nil
	}

	tracing := cpu.SR&M68K_SR_T != 0
	cpu.opcode = uint16(cpu.fetch16())
	if !cpu.fault.pending {
		if err := cpu.execute(&cpu.decode[cpu.opcode]); err != nil {
			return err
		}
	}
	if cpu.fault.pending {
		return cpu.processFault()
	}
	if tracing && !cpu.Halted {
		cpu.ProcessException(M68K_VEC_TRACE)
		cpu.tick(M68K_CYCLE_EXCEPTION)
		if cpu.fault.pending {
			return cpu.processFault()
		}
	}
	return nil
}

func (cpu *M68KCPU) tick(cycles int) {
	cpu.stepCycles += cycles
}

func (cpu *M68KCPU) saveRegisters() {
	cpu.saved = m68kRegisters{
		data: cpu.DataRegs, addr: cpu.AddrRegs,
		pc: cpu.PC, sr: cpu.SR, usp: cpu.USP, ssp: cpu.SSP,
	}
}

func (cpu *M68KCPU) restoreRegisters() {
	s := &cpu.saved
	cpu.DataRegs, cpu.AddrRegs = s.data, s.addr
	cpu.PC, cpu.SR, cpu.USP, cpu.SSP = s.pc, s.sr, s.usp, s.ssp
}

func (cpu *M68KCPU) halt(err error) {
	cpu.Halted = true
	cpu.Stopped = false
	cpu.haltErr = err
	logger.Logf(logger.Allow, "m68k", "halted: %v", err)
}

func (cpu *M68KCPU) supervisor() bool {
	return cpu.SR&M68K_SR_S != 0
}

// SetSR writes the status register, switching stacks when S changes.
func (cpu *M68KCPU) SetSR(value uint16) {
	old := cpu.SR
	cpu.SR = value & M68K_SR_MASK
	if (old^cpu.SR)&M68K_SR_S != 0 {
		cpu.swapStacksForMode(old&M68K_SR_S != 0)
	}
}

func (cpu *M68KCPU) swapStacksForMode(wasSupervisor bool) {
	if wasSupervisor {
		cpu.SSP = cpu.AddrRegs[7]
		cpu.AddrRegs[7] = cpu.USP
	} else {
		cpu.USP = cpu.AddrRegs[7]
		cpu.AddrRegs[7] = cpu.SSP
	}
}

func (cpu *M68KCPU) GetCCR() uint8 {
	return uint8(cpu.SR & M68K_SR_CCR)
}

func (cpu *M68KCPU) SetCCR(value uint8) {
	cpu.SR = cpu.SR&^M68K_SR_CCR | uint16(value)&M68K_SR_CCR
}

// InterruptMask returns the SR priority mask.
func (cpu *M68KCPU) InterruptMask() uint8 {
	return uint8((cpu.SR & M68K_SR_IPL) >> M68K_SR_SHIFT)
}

// Memory access. After the first fault of an instruction every further
// access is suppressed, so a faulting instruction has no later side effects.

func (cpu *M68KCPU) raiseFault(vector uint8, addr uint32, write, fetch bool) {
	if cpu.fault.pending {
		return
	}
	cpu.fault = m68kFault{pending: true, vector: vector, addr: addr & 0xFFFFFF, write: write, fetch: fetch}
}

func (cpu *M68KCPU) canAccess(addr uint32, size uint8, write, fetch bool) bool {
	if cpu.fault.pending {
		return false
	}
	if size != M68K_SIZE_BYTE && addr&1 != 0 {
		cpu.raiseFault(M68K_VEC_ADDRESS_ERROR, addr, write, fetch)
		return false
	}
	return true
}

func (cpu *M68KCPU) collectBusFault(write, fetch bool) {
	if f, ok := cpu.bus.PendingFault(); ok {
		cpu.bus.AckFault()
		cpu.raiseFault(M68K_VEC_BUS_ERROR, f.Addr, write, fetch)
	}
}

func (cpu *M68KCPU) access(addr uint32, size uint8, fetch bool) uint32 {
	if !cpu.canAccess(addr, size, false, fetch) {
		return 0
	}
	var v uint32
	switch size {
	case M68K_SIZE_BYTE:
		v = uint32(cpu.bus.Read8(addr))
	case M68K_SIZE_WORD:
		v = uint32(cpu.bus.Read16(addr))
	default:
		v = cpu.bus.Read32(addr)
	}
	cpu.collectBusFault(false, fetch)
	return v
}

func (cpu *M68KCPU) read(addr uint32, size uint8) uint32 {
	return cpu.access(addr, size, false)
}

func (cpu *M68KCPU) write(addr uint32, size uint8, value uint32) {
	if !cpu.canAccess(addr, size, true, false) {
		return
	}
	switch size {
	case M68K_SIZE_BYTE:
		cpu.bus.Write8(addr, uint8(value))
	case M68K_SIZE_WORD:
		cpu.bus.Write16(addr, uint16(value))
	default:
		cpu.bus.Write32(addr, value)
	}
	cpu.collectBusFault(true, false)
}

func (cpu *M68KCPU) fetch16() uint32 {
	v := cpu.access(cpu.PC, M68K_SIZE_WORD, true)
	cpu.PC += 2
	return v
}

func (cpu *M68KCPU) fetch32() uint32 {
	hi := cpu.fetch16()
	return hi<<16 | cpu.fetch16()
}

func (cpu *M68KCPU) Push16(value uint16) {
	cpu.AddrRegs[7] -= 2
	cpu.write(cpu.AddrRegs[7], M68K_SIZE_WORD, uint32(value))
}

func (cpu *M68KCPU) Push32(value uint32) {
	cpu.AddrRegs[7] -= 4
	cpu.write(cpu.AddrRegs[7], M68K_SIZE_LONG, value)
}

func (cpu *M68KCPU) Pop16() uint16 {
	v := cpu.read(cpu.AddrRegs[7], M68K_SIZE_WORD)
	cpu.AddrRegs[7] += 2
	return uint16(v)
}

func (cpu *M68KCPU) Pop32() uint32 {
	v := cpu.read(cpu.AddrRegs[7], M68K_SIZE_LONG)
	cpu.AddrRegs[7] += 4
	return v
}

// Exceptions

func (cpu *M68KCPU) enterException() uint16 {
	old := cpu.SR
	cpu.SetSR((cpu.SR | M68K_SR_S) &^ M68K_SR_T)
	return old
}

// ProcessException takes a group 1 or 2 exception: the current PC and SR
// are stacked and execution continues at the vector.
func (cpu *M68KCPU) ProcessException(vector uint8) {
	old := cpu.enterException()
	cpu.Push32(cpu.PC)
	cpu.Push16(old)
	cpu.PC = cpu.read(uint32(vector)*4, M68K_SIZE_LONG)
	cpu.Stopped = false

	kind := ExceptionTrap
	switch vector {
	case M68K_VEC_ILLEGAL, M68K_VEC_LINE_A, M68K_VEC_LINE_F, M68K_VEC_PRIVILEGE:
		kind = ExceptionIllegal
	}
	cpu.LastException = Exception{Kind: kind, Vector: vector, Opcode: cpu.opcode, Addr: cpu.instrPC}
}

// ProcessInterrupt responds to an accepted request, raising the mask to
// the request's level.
func (cpu *M68KCPU) ProcessInterrupt(acc AcceptedInterrupt) {
	old := cpu.enterException()
	cpu.SR = cpu.SR&^M68K_SR_IPL | uint16(acc.Level&7)<<M68K_SR_SHIFT
	cpu.Push32(cpu.PC)
	cpu.Push16(old)
	cpu.PC = cpu.read(uint32(acc.Vector)*4, M68K_SIZE_LONG)
	cpu.Stopped = false
	cpu.tick(M68K_CYCLE_INTERRUPT)

	cpu.LastInterrupt = acc
	cpu.Interrupts++
	cpu.LastException = Exception{Kind: ExceptionInterrupt, Level: acc.Level, Vector: acc.Vector}
}

func (cpu *M68KCPU) pollInterrupt() bool {
	if cpu.ic == nil {
		return false
	}
	acc, ok := cpu.ic.Poll(M68KGate(cpu.InterruptMask()))
	if !ok {
		return false
	}
	cpu.ProcessInterrupt(acc)
	return true
}

// exceptionAt takes vector with pc as the stacked return address.
func (cpu *M68KCPU) exceptionAt(vector uint8, pc uint32) {
	cpu.PC = pc
	cpu.ProcessException(vector)
	cpu.tick(M68K_CYCLE_EXCEPTION)
}

func (cpu *M68KCPU) privilegeViolation() {
	cpu.exceptionAt(M68K_VEC_PRIVILEGE, cpu.instrPC)
}

// illegal handles an undecodable opcode under the configured policy.
func (cpu *M68KCPU) illegal() error {
	if cpu.IllegalPolicy == M68KTrapIllegal {
		cpu.exceptionAt(M68K_VEC_ILLEGAL, cpu.instrPC)
		return nil
	}
	cpu.restoreRegisters()
	err := &IllegalInstructionError{CPU: "m68k", PC: cpu.instrPC, Opcode: cpu.opcode}
	cpu.LastException = err.Exception()
	cpu.halt(err)
	return err
}

// processFault takes the bus or address error recorded during this step.
// The register file is rolled back to instruction start and a group 0
// frame is built: PC, SR, instruction register, access address and the
// access descriptor word.
func (cpu *M68KCPU) processFault() error {
	f := cpu.fault
	cpu.fault = m68kFault{}
	cpu.restoreRegisters()

	status := uint16(1) // user data
	if cpu.SR&M68K_SR_S != 0 {
		status = 5
	}
	if f.fetch {
		status++
	} else {
		status |= 0x08
	}
	if !f.write {
		status |= 0x10
	}

	old := cpu.enterException()
	cpu.Push32(cpu.instrPC)
	cpu.Push16(old)
	cpu.Push16(cpu.opcode)
	cpu.Push32(f.addr)
	cpu.Push16(status)
	cpu.PC = cpu.read(uint32(f.vector)*4, M68K_SIZE_LONG)
	// The dispatch prefetches the handler's first word; a bad handler
	// address is a double fault.
	cpu.access(cpu.PC, M68K_SIZE_WORD, true)
	cpu.Stopped = false
	cpu.tick(M68K_CYCLE_BUS_ERROR)

	kind := ExceptionBusError
	if f.vector == M68K_VEC_ADDRESS_ERROR {
		kind = ExceptionAddressError
	}
	cpu.LastException = Exception{Kind: kind, Addr: f.addr, Vector: f.vector, Opcode: cpu.opcode}

	if cpu.fault.pending {
		second := cpu.fault
		cpu.fault = m68kFault{}
		err := &DoubleFaultError{CPU: "m68k", PC: cpu.instrPC, Addr: second.addr, Vector: second.vector}
		cpu.halt(err)
		return err
	}
	return nil
}

// CheckCondition evaluates one of the sixteen condition codes against CCR.
func (cpu *M68KCPU) CheckCondition(cond uint8) bool {
	sr := cpu.SR
	c := sr&M68K_SR_C != 0
	v := sr&M68K_SR_V != 0
	z := sr&M68K_SR_Z != 0
	n := sr&M68K_SR_N != 0
	switch cond & 0xF {
	case M68K_CC_T:
		return true
	case M68K_CC_F:
		return false
	case M68K_CC_HI:
		return !c && !z
	case M68K_CC_LS:
		return c || z
	case M68K_CC_CC:
		return !c
	case M68K_CC_CS:
		return c
	case M68K_CC_NE:
		return !z
	case M68K_CC_EQ:
		return z
	case M68K_CC_VC:
		return !v
	case M68K_CC_VS:
		return v
	case M68K_CC_PL:
		return !n
	case M68K_CC_MI:
		return n
	case M68K_CC_GE:
		return n == v
	case M68K_CC_LT:
		return n != v
	case M68K_CC_GT:
		return !z && n == v
	}
	return z || n != v
}

func (cpu *M68KCPU) String() string {
	return fmt.Sprintf("PC=%06X SR=%04X D=%08X A=%08X", cpu.PC, cpu.SR, cpu.DataRegs, cpu.AddrRegs)
}
