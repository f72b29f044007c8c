package oxid

import "testing"

func TestZ80DIAndEIDelay(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{
		0xF3, // DI
		0xFB, // EI
		0x00, // NOP
		0x00, // NOP
	})
	rig.cpu.IM = Z80IM1
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true

	rig.step(t)
	if rig.cpu.IFF1 || rig.cpu.IFF2 {
		t.Fatalf("DI should clear IFF1/IFF2")
	}

	rig.ic.Raise(rig.irq)
	rig.step(t)
	if !rig.cpu.IFF1 {
		t.Fatalf("EI should set IFF1")
	}
	requireZ80EqualU16(t, "PC after EI", rig.cpu.PC, 0x0002)

	rig.step(t)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0038)
}

func TestZ80IM1Interrupt(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x1000, []byte{0x00})
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = Z80IM1
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.ic.Raise(rig.irq)

	// NOP then the 13-cycle response
	requireZ80Cycles(t, rig.step(t), 4+Z80_CYCLES_IM1)

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0038)
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0xFEFE)
	requireZ80EqualU8(t, "pushed low", rig.bus.mem[0xFEFE], 0x01)
	requireZ80EqualU8(t, "pushed high", rig.bus.mem[0xFEFF], 0x10)
	if rig.cpu.IFF1 || rig.cpu.IFF2 {
		t.Fatalf("IRQ should clear IFF1/IFF2")
	}
	if !rig.ic.Pending(rig.irq) {
		t.Fatalf("level-triggered request should stay asserted until cleared")
	}
}

func TestZ80IM0ExecutesDeviceRST(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x1000, []byte{0x00})
	rst, err := rig.ic.AddSource(InterruptSource{Name: "rst10", Vectored: true, Vector: 0xD7})
	if err != nil {
		t.Fatal(err)
	}
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = Z80IM0
	rig.cpu.IFF1 = true
	rig.ic.Raise(rst)

	requireZ80Cycles(t, rig.step(t), 4+Z80_CYCLES_IM0)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0010)
}

func TestZ80IM2VectorTable(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x1000, []byte{0x00})
	dev, err := rig.ic.AddSource(InterruptSource{Name: "ctc", Vectored: true, Vector: 0x20})
	if err != nil {
		t.Fatal(err)
	}
	rig.bus.mem[0x8020] = 0x34
	rig.bus.mem[0x8021] = 0x12
	rig.cpu.SP = 0xFF00
	rig.cpu.I = 0x80
	rig.cpu.IM = Z80IM2
	rig.cpu.IFF1 = true
	rig.ic.Raise(dev)

	requireZ80Cycles(t, rig.step(t), 4+Z80_CYCLES_IM2)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x1234)
	requireZ80EqualU16(t, "SP", rig.cpu.SP, 0xFEFE)
}

func TestZ80MaskedInterruptIgnored(t *testing.T) {
	for _, mode := range []Z80InterruptMode{Z80IM0, Z80IM1, Z80IM2} {
		rig := newCPUZ80TestRig()
		rig.resetAndLoad(0x1000, []byte{0x00})
		rig.cpu.IM = mode
		rig.cpu.IFF1 = false
		rig.ic.Raise(rig.irq)

		requireZ80Cycles(t, rig.step(t), 4)
		requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x1001)
		if !rig.ic.Pending(rig.irq) {
			t.Fatalf("IM%d: masked request should remain pending", mode)
		}
	}
}

func TestZ80NMIInterrupt(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x2000, []byte{0x00})
	rig.cpu.SP = 0xFF00
	rig.cpu.IFF1 = true
	rig.cpu.IFF2 = true
	rig.ic.Raise(rig.nmi)

	requireZ80Cycles(t, rig.step(t), 4+Z80_CYCLES_NMI)

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0066)
	if rig.cpu.IFF1 {
		t.Fatalf("NMI should clear IFF1")
	}
	if !rig.cpu.IFF2 {
		t.Fatalf("NMI should preserve IFF2")
	}
	if rig.ic.Pending(rig.nmi) {
		t.Fatalf("NMI is edge triggered and should be consumed")
	}
}

func TestZ80NMIIgnoresIFF1(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x2000, []byte{0x00})
	rig.cpu.SP = 0xFF00
	rig.ic.Raise(rig.nmi)
	rig.step(t)
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0066)
}

func TestZ80RETNRestoresIFF1(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0066, []byte{0xED, 0x45})
	rig.cpu.SP = 0xFEFE
	rig.bus.mem[0xFEFE] = 0x00
	rig.bus.mem[0xFEFF] = 0x20
	rig.cpu.IFF1 = false
	rig.cpu.IFF2 = true

	rig.step(t)

	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x2000)
	if !rig.cpu.IFF1 {
		t.Fatalf("RETN should copy IFF2 into IFF1")
	}
}

func TestZ80HaltWaitsForInterrupt(t *testing.T) {
	rig := newCPUZ80TestRig()
	rig.resetAndLoad(0x0000, []byte{0x76})
	rig.cpu.SP = 0xFF00
	rig.cpu.IM = Z80IM1
	rig.cpu.IFF1 = true

	requireZ80Cycles(t, rig.step(t), 4)
	requireZ80Cycles(t, rig.step(t), 4)
	if !rig.cpu.Halted {
		t.Fatalf("CPU should stay halted without a request")
	}

	rig.ic.Raise(rig.irq)
	requireZ80Cycles(t, rig.step(t), 4+Z80_CYCLES_IM1)
	if rig.cpu.Halted {
		t.Fatalf("interrupt should leave HALT")
	}
	requireZ80EqualU16(t, "PC", rig.cpu.PC, 0x0038)
	requireZ80EqualU8(t, "return address", rig.bus.mem[0xFEFE], 0x01)
}
