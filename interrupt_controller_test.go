package oxid

import (
	"errors"
	"testing"
)

func mustAddSource(t *testing.T, ic *InterruptController, src InterruptSource) SourceID {
	t.Helper()
	id, err := ic.AddSource(src)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestInterruptSourceRegistration(t *testing.T) {
	ic := NewInterruptController()
	mustAddSource(t, ic, InterruptSource{Name: "vdp"})
	for _, src := range []InterruptSource{
		{},
		{Name: "vdp"},
		{Name: "bad", Level: 8},
	} {
		if _, err := ic.AddSource(src); !errors.Is(err, ErrBadSource) {
			t.Errorf("%+v: err = %v", src, err)
		}
	}
	if _, err := ic.Source(42); !errors.Is(err, ErrBadSource) {
		t.Fatalf("unknown id: err = %v", err)
	}
	// Out of range handles are ignored rather than panicking
	ic.Raise(42)
	ic.Clear(-1)
}

func TestZ80PollModes(t *testing.T) {
	tests := []struct {
		name    string
		src     InterruptSource
		mode    Z80InterruptMode
		handler uint16
		table   uint16
	}{
		{"IM0 RST 28", InterruptSource{Name: "dev", Vectored: true, Vector: 0xEF}, Z80IM0, 0x0028, 0},
		{"IM0 floating bus", InterruptSource{Name: "dev"}, Z80IM0, 0x0038, 0},
		{"IM1", InterruptSource{Name: "dev", Vectored: true, Vector: 0xEF}, Z80IM1, 0x0038, 0},
		{"IM2", InterruptSource{Name: "dev", Vectored: true, Vector: 0x40}, Z80IM2, 0, 0x8040},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ic := NewInterruptController()
			id := mustAddSource(t, ic, tc.src)
			ic.Raise(id)

			if _, ok := ic.Poll(Z80Gate(false, tc.mode, 0x80)); ok {
				t.Fatalf("accepted with IFF1 clear")
			}
			acc, ok := ic.Poll(Z80Gate(true, tc.mode, 0x80))
			if !ok {
				t.Fatalf("not accepted")
			}
			if acc.Mode != tc.mode || acc.Handler != tc.handler || acc.TableAddr != tc.table {
				t.Fatalf("accepted %+v", acc)
			}
			// Level triggered: still pending until the device clears it
			if !ic.Pending(id) {
				t.Fatalf("level source consumed on acceptance")
			}
			ic.Clear(id)
			if _, ok := ic.Poll(Z80Gate(true, tc.mode, 0x80)); ok {
				t.Fatalf("accepted after clear")
			}
		})
	}
}

func TestZ80NMIBeatsMaskableAndIgnoresIFF1(t *testing.T) {
	ic := NewInterruptController()
	irq := mustAddSource(t, ic, InterruptSource{Name: "vdp", Priority: 10})
	nmi := mustAddSource(t, ic, InterruptSource{Name: "pause", NMI: true})
	ic.Raise(irq)
	ic.Raise(nmi)

	acc, ok := ic.Poll(Z80Gate(false, Z80IM1, 0))
	if !ok || !acc.NMI || acc.Handler != 0x0066 || acc.Source != nmi {
		t.Fatalf("accepted %+v, %v", acc, ok)
	}
	if ic.Pending(nmi) {
		t.Fatalf("NMI edge not consumed")
	}
	acc, ok = ic.Poll(Z80Gate(true, Z80IM1, 0))
	if !ok || acc.Source != irq {
		t.Fatalf("maskable request lost: %+v", acc)
	}
}

func TestM68KPollPriorityAndMask(t *testing.T) {
	ic := NewInterruptController()
	via := mustAddSource(t, ic, InterruptSource{Name: "via", Level: 1})
	scc := mustAddSource(t, ic, InterruptSource{Name: "scc", Level: 2, Vectored: true, Vector: 0x40})
	ic.Raise(via)
	ic.Raise(scc)

	acc, ok := ic.Poll(M68KGate(0))
	if !ok || acc.Source != scc || acc.Vector != 0x40 || acc.Autovector {
		t.Fatalf("accepted %+v, %v", acc, ok)
	}
	if _, ok := ic.Poll(M68KGate(2)); ok {
		t.Fatalf("accepted at or below the mask")
	}
	ic.Clear(scc)
	acc, ok = ic.Poll(M68KGate(0))
	if !ok || acc.Source != via || !acc.Autovector || acc.Vector != M68K_VEC_AUTOVECTOR_BASE+1 {
		t.Fatalf("accepted %+v, %v", acc, ok)
	}
}

func TestM68KEqualLevelsUseSourcePriority(t *testing.T) {
	ic := NewInterruptController()
	low := mustAddSource(t, ic, InterruptSource{Name: "low", Level: 3, Priority: 1})
	high := mustAddSource(t, ic, InterruptSource{Name: "high", Level: 3, Priority: 5})
	ic.Raise(low)
	ic.Raise(high)
	if acc, _ := ic.Poll(M68KGate(0)); acc.Source != high {
		t.Fatalf("tie went to %s", acc.Name)
	}
}

func TestM68KLevel7NeedsFreshAssertionAtMask7(t *testing.T) {
	ic := NewInterruptController()
	nmi := mustAddSource(t, ic, InterruptSource{Name: "nmi", Level: 7})
	ic.Raise(nmi)
	if _, ok := ic.Poll(M68KGate(7)); !ok {
		t.Fatalf("fresh level 7 masked")
	}
	if _, ok := ic.Poll(M68KGate(7)); ok {
		t.Fatalf("held level 7 retaken at mask 7")
	}
	// A held request is still taken once the mask drops
	if _, ok := ic.Poll(M68KGate(6)); !ok {
		t.Fatalf("level 7 masked at 6")
	}
	ic.Clear(nmi)
	ic.Raise(nmi)
	if _, ok := ic.Poll(M68KGate(7)); !ok {
		t.Fatalf("new assertion not taken")
	}
}

func TestEdgeSourceConsumedOnAcceptance(t *testing.T) {
	ic := NewInterruptController()
	id := mustAddSource(t, ic, InterruptSource{Name: "timer", Level: 4, Edge: true})
	ic.Raise(id)
	if _, ok := ic.Poll(M68KGate(0)); !ok {
		t.Fatalf("edge not accepted")
	}
	if _, ok := ic.Poll(M68KGate(0)); ok {
		t.Fatalf("edge accepted twice")
	}
}

func TestInterruptControllerReset(t *testing.T) {
	ic := NewInterruptController()
	a := mustAddSource(t, ic, InterruptSource{Name: "a", Level: 1})
	b := mustAddSource(t, ic, InterruptSource{Name: "b", NMI: true})
	ic.Raise(a)
	ic.SetLine(b, true)
	ic.Reset()
	if ic.Pending(a) || ic.Pending(b) {
		t.Fatalf("requests survived reset")
	}
	if id, ok := ic.Lookup("b"); !ok || id != b {
		t.Fatalf("lookup lost the source")
	}
}
