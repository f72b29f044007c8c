package oxid

import "testing"

type z80TestBus struct {
	mem [0x10000]byte
	io  [0x10000]byte
}

func (b *z80TestBus) Read(addr uint16) byte {
	return b.mem[addr]
}

func (b *z80TestBus) Write(addr uint16, value byte) {
	b.mem[addr] = value
}

func (b *z80TestBus) In(port uint16) byte {
	return b.io[port]
}

func (b *z80TestBus) Out(port uint16, value byte) {
	b.io[port] = value
}

type cpuZ80TestRig struct {
	bus *z80TestBus
	ic  *InterruptController
	cpu *Z80CPU
	irq SourceID
	nmi SourceID
}

func newCPUZ80TestRig() *cpuZ80TestRig {
	r := &cpuZ80TestRig{}
	r.resetAndLoad(0, nil)
	return r
}

func (r *cpuZ80TestRig) resetAndLoad(start uint16, program []byte) {
	r.bus = &z80TestBus{}
	r.ic = NewInterruptController()
	r.irq, _ = r.ic.AddSource(InterruptSource{Name: "irq"})
	r.nmi, _ = r.ic.AddSource(InterruptSource{Name: "nmi", NMI: true})
	r.cpu = NewZ80CPU(r.bus, r.ic)
	for i, value := range program {
		r.bus.mem[start+uint16(i)] = value
	}
	r.cpu.PC = start
}

// run steps until the CPU halts or limit instructions have executed and
// returns the total cycle count.
func (r *cpuZ80TestRig) run(t *testing.T, limit int) int {
	t.Helper()
	total := 0
	for i := 0; i < limit && !r.cpu.Halted; i++ {
		n, err := r.cpu.Step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		total += n
	}
	return total
}

func (r *cpuZ80TestRig) step(t *testing.T) int {
	t.Helper()
	n, err := r.cpu.Step()
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	return n
}

func requireZ80EqualU16(t *testing.T, name string, got, want uint16) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%04X, want 0x%04X", name, got, want)
	}
}

func requireZ80EqualU8(t *testing.T, name string, got, want byte) {
	t.Helper()
	if got != want {
		t.Fatalf("%s = 0x%02X, want 0x%02X", name, got, want)
	}
}

func requireZ80Cycles(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Fatalf("cycles = %d, want %d", got, want)
	}
}
