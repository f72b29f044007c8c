package oxid

import (
	"errors"
	"testing"
)

func TestM68KTrapFrame(t *testing.T) {
	rig := newM68KTestRig(t)
	rig.load(m68kTestStart, 0x4E43) // TRAP #3

	if c := rig.step(t); c != M68K_CYCLE_EXCEPTION {
		t.Fatalf("TRAP cycles = %d, want %d", c, M68K_CYCLE_EXCEPTION)
	}
	cpu := rig.cpu
	if cpu.PC != m68kTestHandler(35) {
		t.Fatalf("PC = 0x%06X, want vector 35 handler", cpu.PC)
	}
	if cpu.AddrRegs[7] != 0x7FFA {
		t.Fatalf("A7 = 0x%08X, want 0x7FFA", cpu.AddrRegs[7])
	}
	if sr := rig.peek16(0x7FFA); sr != 0x2700 {
		t.Fatalf("stacked SR = 0x%04X, want 0x2700", sr)
	}
	if pc := rig.peek32(0x7FFC); pc != 0x1002 {
		t.Fatalf("stacked PC = 0x%06X, want 0x1002", pc)
	}
}

func TestM68KIllegalHaltsByDefault(t *testing.T) {
	rig := newM68KTestRig(t)
	rig.load(m68kTestStart, 0x4E7A)

	_, err := rig.cpu.Step()
	var ill *IllegalInstructionError
	if !errors.As(err, &ill) {
		t.Fatalf("Step error = %v, want IllegalInstructionError", err)
	}
	if ill.Opcode != 0x4E7A || ill.PC != m68kTestStart {
		t.Fatalf("error = %+v", ill)
	}
	if !rig.cpu.Halted || rig.cpu.PC != m68kTestStart {
		t.Fatalf("CPU should halt at the opcode: halted=%v PC=0x%06X", rig.cpu.Halted, rig.cpu.PC)
	}
	if ex := rig.cpu.LastException; ex.Kind != ExceptionIllegal || ex.Vector != M68K_VEC_ILLEGAL {
		t.Fatalf("LastException = %v", ex)
	}

	if _, err := rig.cpu.Step(); !errors.Is(err, ErrCPUHalted) {
		t.Fatalf("second Step error = %v, want ErrCPUHalted", err)
	}

	rig.cpu.Reset()
	rig.load(m68kTestStart, 0x4E71)
	if _, err := rig.cpu.Step(); err != nil {
		t.Fatalf("Step after Reset: %v", err)
	}
}

func TestM68KIllegalTrapPolicy(t *testing.T) {
	rig := newM68KTestRig(t)
	rig.cpu.IllegalPolicy = M68KTrapIllegal
	rig.load(m68kTestStart, 0x4E7A)

	rig.step(t)
	if rig.cpu.PC != m68kTestHandler(M68K_VEC_ILLEGAL) {
		t.Fatalf("PC = 0x%06X, want illegal handler", rig.cpu.PC)
	}
	if pc := rig.peek32(0x7FFC); pc != m68kTestStart {
		t.Fatalf("stacked PC = 0x%06X, want the illegal opcode", pc)
	}
}

func TestM68KIllegalOpcodeAndLineTrapsAlwaysVector(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		vector uint8
	}{
		{"ILLEGAL", 0x4AFC, M68K_VEC_ILLEGAL},
		{"line A", 0xA123, M68K_VEC_LINE_A},
		{"line F", 0xF000, M68K_VEC_LINE_F},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rig := newM68KTestRig(t)
			rig.load(m68kTestStart, tc.opcode)
			rig.step(t)
			if rig.cpu.PC != m68kTestHandler(tc.vector) {
				t.Fatalf("PC = 0x%06X, want vector %d handler", rig.cpu.PC, tc.vector)
			}
			if pc := rig.peek32(0x7FFC); pc != m68kTestStart {
				t.Fatalf("stacked PC = 0x%06X, want 0x%06X", pc, m68kTestStart)
			}
		})
	}
}

func TestM68KPrivilegeViolation(t *testing.T) {
	rig := newM68KTestRig(t)
	cpu := rig.cpu
	cpu.USP = 0x6000
	cpu.SetSR(0x0000)
	if cpu.AddrRegs[7] != 0x6000 {
		t.Fatalf("user A7 = 0x%08X, want 0x6000", cpu.AddrRegs[7])
	}
	rig.load(m68kTestStart, 0x4E72, 0x2700) // STOP #$2700

	rig.step(t)
	if cpu.PC != m68kTestHandler(M68K_VEC_PRIVILEGE) {
		t.Fatalf("PC = 0x%06X, want privilege handler", cpu.PC)
	}
	if cpu.Stopped {
		t.Fatalf("STOP must not execute in user mode")
	}
	if cpu.AddrRegs[7] != 0x7FFA || cpu.USP != 0x6000 {
		t.Fatalf("A7=0x%08X USP=0x%08X, want supervisor frame at 0x7FFA", cpu.AddrRegs[7], cpu.USP)
	}
	if sr := rig.peek16(0x7FFA); sr != 0x0000 {
		t.Fatalf("stacked SR = 0x%04X", sr)
	}
	if pc := rig.peek32(0x7FFC); pc != m68kTestStart {
		t.Fatalf("stacked PC = 0x%06X", pc)
	}
}

func TestM68KBusErrorRestoresRegisters(t *testing.T) {
	rig := newM68KTestRig(t)
	cpu := rig.cpu
	cpu.AddrRegs[0] = 0x4000
	rig.poke32(0x4000, 0x12345678)
	// MOVE.L (A0)+,$200000
	rig.load(m68kTestStart, 0x23D8, 0x0020, 0x0000)

	cycles := rig.step(t)

	if cycles < M68K_CYCLE_BUS_ERROR {
		t.Fatalf("cycles = %d, want at least %d", cycles, M68K_CYCLE_BUS_ERROR)
	}
	if cpu.PC != m68kTestHandler(M68K_VEC_BUS_ERROR) {
		t.Fatalf("PC = 0x%06X, want bus error handler", cpu.PC)
	}
	if cpu.AddrRegs[0] != 0x4000 {
		t.Fatalf("A0 = 0x%08X, postincrement should be rolled back", cpu.AddrRegs[0])
	}
	if cpu.AddrRegs[7] != 0x8000-14 {
		t.Fatalf("A7 = 0x%08X, want a 7 word frame", cpu.AddrRegs[7])
	}
	frame := cpu.AddrRegs[7]
	if status := rig.peek16(frame); status != 0x0D {
		t.Fatalf("status word = 0x%04X, want 0x000D (supervisor data write)", status)
	}
	if addr := rig.peek32(frame + 2); addr != m68kTestUnmapped {
		t.Fatalf("access address = 0x%06X", addr)
	}
	if ir := rig.peek16(frame + 6); ir != 0x23D8 {
		t.Fatalf("instruction register = 0x%04X", ir)
	}
	if sr := rig.peek16(frame + 8); sr != 0x2700 {
		t.Fatalf("stacked SR = 0x%04X", sr)
	}
	if pc := rig.peek32(frame + 10); pc != m68kTestStart {
		t.Fatalf("stacked PC = 0x%06X, want the faulting instruction", pc)
	}
	if _, pending := rig.bus.PendingFault(); pending {
		t.Fatalf("fault should be acknowledged")
	}
	if ex := cpu.LastException; ex.Kind != ExceptionBusError || ex.Addr != m68kTestUnmapped {
		t.Fatalf("LastException = %v", ex)
	}
}

func TestM68KBusErrorOnReadAndROMWrite(t *testing.T) {
	tests := []struct {
		name   string
		prog   []uint16
		status uint16
		addr   uint32
	}{
		{"read unmapped", []uint16{0x3039, 0x0020, 0x0000}, 0x1D, m68kTestUnmapped}, // MOVE.W $200000,D0
		{"write ROM", []uint16{0x13C0, 0x0040, 0x0000}, 0x0D, m68kTestROMBase},      // MOVE.B D0,$400000
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rig := newM68KTestRig(t)
			rig.load(m68kTestStart, tc.prog...)
			rig.step(t)
			frame := rig.cpu.AddrRegs[7]
			if rig.cpu.PC != m68kTestHandler(M68K_VEC_BUS_ERROR) {
				t.Fatalf("PC = 0x%06X", rig.cpu.PC)
			}
			if s := rig.peek16(frame); s != tc.status {
				t.Fatalf("status = 0x%04X, want 0x%04X", s, tc.status)
			}
			if a := rig.peek32(frame + 2); a != tc.addr {
				t.Fatalf("access address = 0x%06X, want 0x%06X", a, tc.addr)
			}
		})
	}
}

func TestM68KAddressErrorOnOddWord(t *testing.T) {
	rig := newM68KTestRig(t)
	cpu := rig.cpu
	cpu.AddrRegs[0] = 0x4001
	cpu.DataRegs[0] = 0xAAAA5555
	rig.load(m68kTestStart, 0x3010) // MOVE.W (A0),D0

	rig.step(t)

	if cpu.PC != m68kTestHandler(M68K_VEC_ADDRESS_ERROR) {
		t.Fatalf("PC = 0x%06X, want address error handler", cpu.PC)
	}
	if cpu.DataRegs[0] != 0xAAAA5555 {
		t.Fatalf("D0 = 0x%08X, destination must be untouched", cpu.DataRegs[0])
	}
	frame := cpu.AddrRegs[7]
	if s := rig.peek16(frame); s != 0x1D {
		t.Fatalf("status = 0x%04X, want 0x001D", s)
	}
	if a := rig.peek32(frame + 2); a != 0x4001 {
		t.Fatalf("access address = 0x%06X", a)
	}
	if cpu.LastException.Kind != ExceptionAddressError {
		t.Fatalf("LastException = %v", cpu.LastException)
	}
}

func TestM68KAddressErrorOnOddJumpTarget(t *testing.T) {
	rig := newM68KTestRig(t)
	cpu := rig.cpu
	cpu.AddrRegs[0] = 0x2001
	rig.load(m68kTestStart, 0x4ED0) // JMP (A0)

	rig.step(t)
	if cpu.PC != 0x2001 {
		t.Fatalf("PC = 0x%06X after JMP", cpu.PC)
	}
	rig.step(t)
	if cpu.PC != m68kTestHandler(M68K_VEC_ADDRESS_ERROR) {
		t.Fatalf("PC = 0x%06X, want address error handler", cpu.PC)
	}
	frame := cpu.AddrRegs[7]
	if s := rig.peek16(frame); s != 0x16 {
		t.Fatalf("status = 0x%04X, want 0x0016 (supervisor program read)", s)
	}
	if pc := rig.peek32(frame + 10); pc != 0x2001 {
		t.Fatalf("stacked PC = 0x%06X", pc)
	}
}

func TestM68KDoubleFaultHalts(t *testing.T) {
	rig := newM68KTestRig(t)
	cpu := rig.cpu
	cpu.AddrRegs[7] = m68kTestUnmapped + 0x100
	rig.load(m68kTestStart, 0x3039, 0x0020, 0x0000) // MOVE.W $200000,D0

	_, err := cpu.Step()
	var df *DoubleFaultError
	if !errors.As(err, &df) {
		t.Fatalf("Step error = %v, want DoubleFaultError", err)
	}
	if df.PC != m68kTestStart {
		t.Fatalf("double fault PC = 0x%06X", df.PC)
	}
	if !cpu.Halted {
		t.Fatalf("CPU should be halted")
	}
	if _, err := cpu.Step(); !errors.Is(err, ErrCPUHalted) {
		t.Fatalf("Step after double fault = %v, want ErrCPUHalted", err)
	}
	if !errors.As(cpu.HaltReason(), &df) {
		t.Fatalf("HaltReason = %v", cpu.HaltReason())
	}
}

func TestM68KBadFaultHandlerIsDoubleFault(t *testing.T) {
	tests := []struct {
		name    string
		handler uint32
		vector  uint8
	}{
		{"unmapped handler", m68kTestUnmapped, M68K_VEC_BUS_ERROR},
		{"odd handler", m68kTestHandlers + 1, M68K_VEC_ADDRESS_ERROR},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rig := newM68KTestRig(t)
			cpu := rig.cpu
			rig.poke32(uint32(M68K_VEC_BUS_ERROR)*4, tc.handler)
			rig.load(m68kTestStart, 0x3039, 0x0020, 0x0000) // MOVE.W $200000,D0

			_, err := cpu.Step()
			var df *DoubleFaultError
			if !errors.As(err, &df) {
				t.Fatalf("Step error = %v, want DoubleFaultError", err)
			}
			if df.Addr != tc.handler&0xFFFFFF || df.Vector != tc.vector {
				t.Fatalf("double fault at 0x%06X vector %d", df.Addr, df.Vector)
			}
			if !cpu.Halted {
				t.Fatalf("CPU should be halted")
			}
			// Only the one frame was stacked
			if cpu.AddrRegs[7] != m68kTestStack-14 {
				t.Fatalf("A7 = 0x%08X", cpu.AddrRegs[7])
			}
			for range 10 {
				if _, err := cpu.Step(); !errors.Is(err, ErrCPUHalted) {
					t.Fatalf("Step after double fault = %v", err)
				}
			}
			if cpu.AddrRegs[7] != m68kTestStack-14 {
				t.Fatalf("halted CPU kept stacking: A7 = 0x%08X", cpu.AddrRegs[7])
			}
		})
	}
}

func TestM68KStraddlingWriteFaultStoresNothing(t *testing.T) {
	rig := newM68KTestRig(t)
	cpu := rig.cpu
	cpu.DataRegs[0] = 0xDEADBEEF
	// The long at the last RAM word runs into unmapped space
	cpu.AddrRegs[0] = m68kTestRAMSize - 2
	rig.poke16(m68kTestRAMSize-2, 0x1234)
	rig.load(m68kTestStart, 0x2080) // MOVE.L D0,(A0)

	rig.step(t)

	if cpu.PC != m68kTestHandler(M68K_VEC_BUS_ERROR) {
		t.Fatalf("PC = 0x%06X, want bus error handler", cpu.PC)
	}
	if got := rig.peek16(m68kTestRAMSize - 2); got != 0x1234 {
		t.Fatalf("faulting MOVE.L left 0x%04X in RAM", got)
	}
	if addr := rig.peek32(cpu.AddrRegs[7] + 2); addr != m68kTestRAMSize {
		t.Fatalf("access address = 0x%06X", addr)
	}
}

func TestM68KResetVectorFaultHalts(t *testing.T) {
	bus, err := NewBus(M68KBusPolicy)
	if err != nil {
		t.Fatal(err)
	}
	cpu := NewM68KCPU(bus, nil)
	cpu.Reset()
	if !cpu.Halted {
		t.Fatalf("reset on an empty bus should halt")
	}
	if _, err := cpu.Step(); !errors.Is(err, ErrCPUHalted) {
		t.Fatalf("Step = %v, want ErrCPUHalted", err)
	}
}

func TestM68KChkAndZeroDivide(t *testing.T) {
	tests := []struct {
		name   string
		d0, d1 uint32
		prog   []uint16
		vector uint8
	}{
		{"CHK negative", 0xFFFF, 10, []uint16{0x4181}, M68K_VEC_CHK},
		{"CHK above bound", 11, 10, []uint16{0x4181}, M68K_VEC_CHK},
		{"DIVU by zero", 100, 0, []uint16{0x80C1}, M68K_VEC_ZERO_DIVIDE},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rig := newM68KTestRig(t)
			rig.cpu.DataRegs[0], rig.cpu.DataRegs[1] = tc.d0, tc.d1
			rig.load(m68kTestStart, tc.prog...)
			rig.step(t)
			if rig.cpu.PC != m68kTestHandler(tc.vector) {
				t.Fatalf("PC = 0x%06X, want vector %d handler", rig.cpu.PC, tc.vector)
			}
			if pc := rig.peek32(0x7FFC); pc != 0x1002 {
				t.Fatalf("stacked PC = 0x%06X, want next instruction", pc)
			}
		})
	}

	rig := newM68KTestRig(t)
	rig.cpu.DataRegs[0], rig.cpu.DataRegs[1] = 5, 10
	rig.load(m68kTestStart, 0x4181)
	if c := rig.step(t); c != 10 || rig.cpu.PC != 0x1002 {
		t.Fatalf("CHK in bounds: cycles=%d PC=0x%06X", c, rig.cpu.PC)
	}
}

func TestM68KTrace(t *testing.T) {
	rig := newM68KTestRig(t)
	rig.cpu.SR = 0xA700
	rig.load(m68kTestStart, 0x4E71)

	rig.step(t)
	if rig.cpu.PC != m68kTestHandler(M68K_VEC_TRACE) {
		t.Fatalf("PC = 0x%06X, want trace handler", rig.cpu.PC)
	}
	if rig.cpu.SR&M68K_SR_T != 0 {
		t.Fatalf("trace handler must run with T clear")
	}
	if pc := rig.peek32(0x7FFC); pc != 0x1002 {
		t.Fatalf("stacked PC = 0x%06X", pc)
	}
}

func TestM68KAutovectorInterrupt(t *testing.T) {
	rig := newM68KTestRig(t)
	src, err := rig.ic.AddSource(InterruptSource{Name: "via", Level: 2})
	if err != nil {
		t.Fatal(err)
	}
	cpu := rig.cpu
	cpu.SR = 0x2000
	rig.load(m68kTestStart, 0x4E71)
	rig.ic.Raise(src)

	if c := rig.step(t); c != M68K_CYCLE_INTERRUPT {
		t.Fatalf("cycles = %d, want %d", c, M68K_CYCLE_INTERRUPT)
	}
	if cpu.PC != m68kTestHandler(M68K_VEC_AUTOVECTOR_BASE+2) {
		t.Fatalf("PC = 0x%06X, want level 2 autovector handler", cpu.PC)
	}
	if cpu.InterruptMask() != 2 {
		t.Fatalf("mask = %d, want 2", cpu.InterruptMask())
	}
	if sr := rig.peek16(0x7FFA); sr != 0x2000 {
		t.Fatalf("stacked SR = 0x%04X", sr)
	}
	if pc := rig.peek32(0x7FFC); pc != m68kTestStart {
		t.Fatalf("stacked PC = 0x%06X, want the interrupted instruction", pc)
	}
	if !cpu.LastInterrupt.Autovector || cpu.Interrupts != 1 {
		t.Fatalf("LastInterrupt = %+v, count %d", cpu.LastInterrupt, cpu.Interrupts)
	}

	// Still asserted but now masked at its own level
	pc := cpu.PC
	rig.step(t)
	if cpu.PC != pc+2 {
		t.Fatalf("masked request re-entered: PC = 0x%06X", cpu.PC)
	}
}

func TestM68KInterruptMaskedAndVectored(t *testing.T) {
	rig := newM68KTestRig(t)
	low, _ := rig.ic.AddSource(InterruptSource{Name: "low", Level: 2})
	vec, _ := rig.ic.AddSource(InterruptSource{Name: "scc", Level: 4, Vectored: true, Vector: 0x40})
	cpu := rig.cpu
	cpu.SR = 0x2300
	rig.load(m68kTestStart, 0x4E71, 0x4E71)

	rig.ic.Raise(low)
	rig.step(t)
	if cpu.PC != 0x1002 {
		t.Fatalf("level 2 under mask 3 should be ignored, PC = 0x%06X", cpu.PC)
	}

	rig.ic.Raise(vec)
	rig.step(t)
	if cpu.PC != m68kTestHandler(0x40) {
		t.Fatalf("PC = 0x%06X, want vector 0x40 handler", cpu.PC)
	}
}

func TestM68KLevel7IsEdgeSensitiveAtMask7(t *testing.T) {
	rig := newM68KTestRig(t)
	nmi, _ := rig.ic.AddSource(InterruptSource{Name: "nmi", Level: 7})
	cpu := rig.cpu
	rig.load(m68kTestStart, 0x4E71)
	rig.ic.Raise(nmi)

	rig.step(t)
	if cpu.PC != m68kTestHandler(M68K_VEC_LEVEL7) {
		t.Fatalf("level 7 at mask 7 should be taken once, PC = 0x%06X", cpu.PC)
	}
	pc := cpu.PC
	rig.step(t)
	if cpu.PC != pc+2 {
		t.Fatalf("held level 7 must not re-enter, PC = 0x%06X", cpu.PC)
	}
}

func TestM68KStopWaitsForInterrupt(t *testing.T) {
	rig := newM68KTestRig(t)
	src, _ := rig.ic.AddSource(InterruptSource{Name: "vbl", Level: 1, Edge: true})
	cpu := rig.cpu
	rig.load(m68kTestStart, 0x4E72, 0x2000)

	if c := rig.step(t); c != M68K_CYCLE_STOP || !cpu.Stopped {
		t.Fatalf("STOP: cycles=%d stopped=%v", c, cpu.Stopped)
	}
	if cpu.SR != 0x2000 {
		t.Fatalf("SR = 0x%04X, want 0x2000", cpu.SR)
	}
	for range 3 {
		if c := rig.step(t); c != M68K_CYCLE_STOP {
			t.Fatalf("stopped step cost %d", c)
		}
	}
	if cpu.PC != 0x1004 {
		t.Fatalf("PC = 0x%06X while stopped", cpu.PC)
	}

	rig.ic.Raise(src)
	rig.step(t)
	if cpu.Stopped {
		t.Fatalf("interrupt should end STOP")
	}
	if pc := rig.peek32(cpu.AddrRegs[7] + 2); pc != 0x1004 {
		t.Fatalf("stacked PC = 0x%06X, want the instruction after STOP", pc)
	}
}

func TestM68KResetInstructionCallsHook(t *testing.T) {
	rig := newM68KTestRig(t)
	called := 0
	rig.cpu.ResetHook = func() { called++ }
	rig.load(m68kTestStart, 0x4E70)

	if c := rig.step(t); c != M68K_CYCLE_RESET_INSTR {
		t.Fatalf("RESET cycles = %d", c)
	}
	if called != 1 {
		t.Fatalf("hook called %d times", called)
	}
}
