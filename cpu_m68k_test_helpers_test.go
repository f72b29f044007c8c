package oxid

import (
	"fmt"
	"testing"
)

const (
	m68kTestRAMSize  = 0x100000
	m68kTestROMBase  = 0x400000
	m68kTestStack    = 0x8000
	m68kTestStart    = 0x1000
	m68kTestHandlers = 0x3000
	m68kTestUnmapped = 0x200000
)

// m68kTestHandler is where the rig points vector v.
func m68kTestHandler(v uint8) uint32 {
	return m68kTestHandlers + uint32(v)*4
}

type m68kTestRig struct {
	ram *RAM
	bus *Bus
	ic  *InterruptController
	cpu *M68KCPU
}

// newM68KTestRig builds a CPU over 1MB of RAM and a 64K ROM, with every
// vector pointing at its own NOP-filled handler slot, and resets it.
func newM68KTestRig(t *testing.T) *m68kTestRig {
	t.Helper()
	ram := NewRAM(m68kTestRAMSize, 0)
	rom := NewROM(make([]byte, 0x10000))
	bus, err := NewBus(M68KBusPolicy,
		RAMRegion("ram", 0, m68kTestRAMSize, ram),
		ROMRegion("rom", m68kTestROMBase, 0x10000, rom),
	)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	rig := &m68kTestRig{ram: ram, bus: bus, ic: NewInterruptController()}
	rig.poke32(0, m68kTestStack)
	rig.poke32(4, m68kTestStart)
	for v := 2; v < 256; v++ {
		rig.poke32(uint32(v)*4, m68kTestHandler(uint8(v)))
	}
	for addr := uint32(m68kTestHandlers); addr < m68kTestHandlers+0x400; addr += 2 {
		rig.poke16(addr, 0x4E71)
	}
	rig.cpu = NewM68KCPU(bus, rig.ic)
	rig.cpu.Reset()
	return rig
}

func (r *m68kTestRig) poke8(addr uint32, v uint8) {
	r.ram.Bytes()[addr] = v
}

func (r *m68kTestRig) poke16(addr uint32, v uint16) {
	b := r.ram.Bytes()
	b[addr], b[addr+1] = byte(v>>8), byte(v)
}

func (r *m68kTestRig) poke32(addr uint32, v uint32) {
	r.poke16(addr, uint16(v>>16))
	r.poke16(addr+2, uint16(v))
}

func (r *m68kTestRig) peek8(addr uint32) uint8 {
	return r.ram.Bytes()[addr]
}

func (r *m68kTestRig) peek16(addr uint32) uint16 {
	b := r.ram.Bytes()
	return uint16(b[addr])<<8 | uint16(b[addr+1])
}

func (r *m68kTestRig) peek32(addr uint32) uint32 {
	return uint32(r.peek16(addr))<<16 | uint32(r.peek16(addr+2))
}

// load places program words at addr and points PC at them.
func (r *m68kTestRig) load(addr uint32, words ...uint16) {
	for i, w := range words {
		r.poke16(addr+uint32(i*2), w)
	}
	r.cpu.PC = addr
}

func (r *m68kTestRig) step(t *testing.T) int {
	t.Helper()
	cycles, err := r.cpu.Step()
	if err != nil {
		t.Fatalf("Step at PC=0x%06X: %v", r.cpu.PC, err)
	}
	return cycles
}

// runUntilStopped steps until STOP and returns the cycles used, including
// the STOP itself.
func (r *m68kTestRig) runUntilStopped(t *testing.T, limit int) int {
	t.Helper()
	total := 0
	for i := 0; i < limit; i++ {
		total += r.step(t)
		if r.cpu.Stopped {
			return total
		}
	}
	t.Fatalf("CPU did not reach STOP within %d steps (PC=0x%06X)", limit, r.cpu.PC)
	return total
}

// FlagExpectation holds expected CCR bits: -1 ignores the flag, 0 expects
// it clear and 1 set.
type FlagExpectation struct {
	N, Z, V, C, X int8
}

func FlagDontCare() FlagExpectation {
	return FlagExpectation{N: -1, Z: -1, V: -1, C: -1, X: -1}
}

func FlagsNZ(n, z int8) FlagExpectation {
	return FlagExpectation{N: n, Z: z, V: -1, C: -1, X: -1}
}

func FlagsNZVC(n, z, v, c int8) FlagExpectation {
	return FlagExpectation{N: n, Z: z, V: v, C: c, X: -1}
}

func FlagsAll(n, z, v, c, x int8) FlagExpectation {
	return FlagExpectation{N: n, Z: z, V: v, C: c, X: x}
}

type MemoryExpectation struct {
	Address uint32
	Size    int
	Value   uint32
}

func ExpectByte(addr uint32, v uint8) MemoryExpectation {
	return MemoryExpectation{Address: addr, Size: 1, Value: uint32(v)}
}

func ExpectWord(addr uint32, v uint16) MemoryExpectation {
	return MemoryExpectation{Address: addr, Size: 2, Value: uint32(v)}
}

func ExpectLong(addr uint32, v uint32) MemoryExpectation {
	return MemoryExpectation{Address: addr, Size: 4, Value: v}
}

// Regs builds a register expectation map from name/value pairs.
func Regs(pairs ...any) map[string]uint32 {
	out := make(map[string]uint32)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i].(string)] = uint32(pairs[i+1].(int))
	}
	return out
}

// M68KTestCase runs one instruction from m68kTestStart. Zero address
// registers keep their reset values; SR 0 keeps the reset SR.
type M68KTestCase struct {
	Name string

	Setup    func(*m68kTestRig)
	DataRegs [8]uint32
	AddrRegs [8]uint32
	SR       uint16

	InitialMem map[uint32]any
	Opcodes    []uint16

	ExpectedRegs    map[string]uint32
	ExpectedMem     []MemoryExpectation
	ExpectedFlags   FlagExpectation
	ExpectedCycles  int
	ExpectedPCDelta uint32
}

func RunM68KTests(t *testing.T, tests []M68KTestCase) {
	t.Helper()
	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			rig := newM68KTestRig(t)
			runSingleM68KTest(t, rig, tc)
		})
	}
}

func runSingleM68KTest(t *testing.T, rig *m68kTestRig, tc M68KTestCase) {
	t.Helper()
	cpu := rig.cpu
	cpu.DataRegs = tc.DataRegs
	for i, v := range tc.AddrRegs {
		if v != 0 {
			cpu.AddrRegs[i] = v
		}
	}
	if tc.SR != 0 {
		cpu.SR = tc.SR
	}
	for addr, value := range tc.InitialMem {
		switch v := value.(type) {
		case uint8:
			rig.poke8(addr, v)
		case uint16:
			rig.poke16(addr, v)
		case uint32:
			rig.poke32(addr, v)
		case int:
			rig.poke32(addr, uint32(v))
		default:
			t.Fatalf("InitialMem[0x%X]: unsupported %T", addr, value)
		}
	}
	rig.load(m68kTestStart, tc.Opcodes...)
	if tc.Setup != nil {
		tc.Setup(rig)
	}

	cycles := rig.step(t)

	for name, want := range tc.ExpectedRegs {
		if got := getRegisterValue(cpu, name); got != want {
			t.Errorf("%s: got 0x%08X, expected 0x%08X", name, got, want)
		}
	}
	for _, m := range tc.ExpectedMem {
		var got uint32
		switch m.Size {
		case 1:
			got = uint32(rig.peek8(m.Address))
		case 2:
			got = uint32(rig.peek16(m.Address))
		default:
			got = rig.peek32(m.Address)
		}
		if got != m.Value {
			t.Errorf("Memory[0x%06X]: got 0x%X, expected 0x%X", m.Address, got, m.Value)
		}
	}
	checkFlags(t, cpu, tc.ExpectedFlags)
	if tc.ExpectedCycles != 0 && cycles != tc.ExpectedCycles {
		t.Errorf("cycles: got %d, expected %d", cycles, tc.ExpectedCycles)
	}
	if tc.ExpectedPCDelta != 0 && cpu.PC-m68kTestStart != tc.ExpectedPCDelta {
		t.Errorf("PC delta: got %d, expected %d", cpu.PC-m68kTestStart, tc.ExpectedPCDelta)
	}
}

func getRegisterValue(cpu *M68KCPU, name string) uint32 {
	switch {
	case len(name) == 2 && name[0] == 'D' && name[1] >= '0' && name[1] <= '7':
		return cpu.DataRegs[name[1]-'0']
	case len(name) == 2 && name[0] == 'A' && name[1] >= '0' && name[1] <= '7':
		return cpu.AddrRegs[name[1]-'0']
	}
	switch name {
	case "SP":
		return cpu.AddrRegs[7]
	case "PC":
		return cpu.PC
	case "SR":
		return uint32(cpu.SR)
	case "USP":
		return cpu.USP
	case "SSP":
		return cpu.SSP
	}
	panic(fmt.Sprintf("unknown register: %s", name))
}

func checkFlags(t *testing.T, cpu *M68KCPU, want FlagExpectation) {
	t.Helper()
	check := func(name string, flag uint16, expect int8) {
		if expect < 0 {
			return
		}
		got := int8(0)
		if cpu.SR&flag != 0 {
			got = 1
		}
		if got != expect {
			t.Errorf("%s flag: got %d, expected %d (SR=0x%04X)", name, got, expect, cpu.SR)
		}
	}
	check("N", M68K_SR_N, want.N)
	check("Z", M68K_SR_Z, want.Z)
	check("V", M68K_SR_V, want.V)
	check("C", M68K_SR_C, want.C)
	check("X", M68K_SR_X, want.X)
}
