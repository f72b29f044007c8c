package oxid

/*
interrupt_controller.go - Interrupt request aggregation

Devices drive their request lines with Raise and Clear. The CPU asks Poll,
between instructions, whether anything is accepted under its current
enable state. Everything the acceptance rule depends on is passed in the
InterruptGate: the controller holds no CPU state, so the Z80 interrupt mode
and the 68000 priority mask are parameters of each poll, not controller
configuration.

Z80 family:

    NMI sources win regardless of IFF1 and vector to 0x0066.
    With IFF1 set, the highest Priority pending source is accepted and its
    data-bus byte shapes the response: IM0 executes RST (byte & 0x38), IM1
    ignores it and uses 0x0038, IM2 builds the table pointer I<<8 | byte.

68000 family:

    A source is accepted when its level exceeds the mask. Level 7 is
    non-maskable but, as on the real part, only a fresh assertion is taken
    while the mask is already 7. Among equal levels the highest Priority
    wins; sources without their own vector use the autovector 24+level.

Level-triggered sources stay pending until their device clears them.
Edge-triggered sources are consumed by the Poll that accepts them.
*/

import "fmt"

// SourceID is the controller's handle for one request line.
type SourceID int

type CPUFamily int

const (
	FamilyZ80 CPUFamily = iota
	FamilyM68K
)

// Z80InterruptMode is the mode selected by IM 0/1/2.
type Z80InterruptMode uint8

const (
	Z80IM0 Z80InterruptMode = iota
	Z80IM1
	Z80IM2
)

// InterruptSource registers a request line.
type InterruptSource struct {
	Name string

	// Level is the 68000 priority level, 1 to 7. Z80 sources leave it 0.
	Level uint8
	// Priority breaks ties between pending sources; higher wins.
	Priority int

	// Vectored sources supply Vector on acknowledge: the data-bus byte for
	// the Z80, the vector number for the 68000.
	Vectored bool
	Vector   uint8

	Edge bool
	// NMI marks the Z80 non-maskable input. NMI sources are always edge
	// triggered.
	NMI bool
}

// InterruptGate is the CPU-side state an acceptance decision depends on.
type InterruptGate struct {
	Family CPUFamily

	// Z80
	Enabled bool
	Mode    Z80InterruptMode
	I       uint8

	// 68000
	Mask uint8
}

// Z80Gate builds the gate for a Z80 with the given IFF1, mode and I register.
func Z80Gate(iff1 bool, mode Z80InterruptMode, i uint8) InterruptGate {
	return InterruptGate{Family: FamilyZ80, Enabled: iff1, Mode: mode, I: i}
}

// M68KGate builds the gate for a 68000 with the given SR interrupt mask.
func M68KGate(mask uint8) InterruptGate {
	return InterruptGate{Family: FamilyM68K, Mask: mask & 7}
}

// AcceptedInterrupt is the vector information handed to the CPU.
type AcceptedInterrupt struct {
	Source SourceID
	Name   string

	// Z80
	NMI       bool
	Mode      Z80InterruptMode
	DataBus   uint8
	Handler   uint16 // IM0, IM1 and NMI
	TableAddr uint16 // IM2

	// 68000
	Level      uint8
	Vector     uint8
	Autovector bool
}

type sourceState struct {
	InterruptSource
	pending bool
	fresh   bool
}

type InterruptController struct {
	sources []sourceState
	byName  map[string]SourceID
}

func NewInterruptController() *InterruptController {
	return &InterruptController{byName: make(map[string]SourceID)}
}

// AddSource registers src and returns its handle.
func (ic *InterruptController) AddSource(src InterruptSource) (SourceID, error) {
	if src.Name == "" {
		return -1, fmt.Errorf("interrupt source without a name: %w", ErrBadSource)
	}
	if _, dup := ic.byName[src.Name]; dup {
		return -1, fmt.Errorf("interrupt source %q registered twice: %w", src.Name, ErrBadSource)
	}
	if src.Level > 7 {
		return -1, fmt.Errorf("interrupt source %q level %d: %w", src.Name, src.Level, ErrBadSource)
	}
	if src.NMI {
		src.Edge = true
	}
	id := SourceID(len(ic.sources))
	ic.sources = append(ic.sources, sourceState{InterruptSource: src})
	ic.byName[src.Name] = id
	return id, nil
}

// Source returns the registration for id.
func (ic *InterruptController) Source(id SourceID) (InterruptSource, error) {
	if !ic.Valid(id) {
		return InterruptSource{}, fmt.Errorf("interrupt source %d: %w", id, ErrBadSource)
	}
	return ic.sources[id].InterruptSource, nil
}

// Lookup finds a source by name.
func (ic *InterruptController) Lookup(name string) (SourceID, bool) {
	id, ok := ic.byName[name]
	return id, ok
}

func (ic *InterruptController) Valid(id SourceID) bool {
	return id >= 0 && int(id) < len(ic.sources)
}

// Raise asserts the line. Unknown handles are ignored; handles come from
// AddSource at construction.
func (ic *InterruptController) Raise(id SourceID) {
	if !ic.Valid(id) {
		return
	}
	s := &ic.sources[id]
	if !s.pending || s.Edge {
		s.fresh = true
	}
	s.pending = true
}

// Clear deasserts the line.
func (ic *InterruptController) Clear(id SourceID) {
	if !ic.Valid(id) {
		return
	}
	ic.sources[id].pending = false
	ic.sources[id].fresh = false
}

// SetLine raises or clears according to level.
func (ic *InterruptController) SetLine(id SourceID, level bool) {
	if level {
		ic.Raise(id)
	} else {
		ic.Clear(id)
	}
}

// Pending reports whether the line is asserted.
func (ic *InterruptController) Pending(id SourceID) bool {
	return ic.Valid(id) && ic.sources[id].pending
}

// Reset drops every request.
func (ic *InterruptController) Reset() {
	for i := range ic.sources {
		ic.sources[i].pending = false
		ic.sources[i].fresh = false
	}
}

// Poll returns the interrupt the CPU should take now, if any.
func (ic *InterruptController) Poll(gate InterruptGate) (AcceptedInterrupt, bool) {
	if gate.Family == FamilyM68K {
		return ic.pollM68K(gate)
	}
	return ic.pollZ80(gate)
}

func (ic *InterruptController) best(accept func(s *sourceState) bool) int {
	best := -1
	for i := range ic.sources {
		s := &ic.sources[i]
		if !s.pending || !accept(s) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := &ic.sources[best]
		if s.Level > b.Level || (s.Level == b.Level && s.Priority > b.Priority) {
			best = i
		}
	}
	return best
}

func (ic *InterruptController) consume(i int) {
	s := &ic.sources[i]
	s.fresh = false
	if s.Edge {
		s.pending = false
	}
}

func (ic *InterruptController) pollZ80(gate InterruptGate) (AcceptedInterrupt, bool) {
	if i := ic.best(func(s *sourceState) bool { return s.NMI }); i >= 0 {
		s := &ic.sources[i]
		ic.consume(i)
		return AcceptedInterrupt{Source: SourceID(i), Name: s.Name, NMI: true, Handler: 0x0066}, true
	}
	if !gate.Enabled {
		return AcceptedInterrupt{}, false
	}
	i := ic.best(func(s *sourceState) bool { return !s.NMI })
	if i < 0 {
		return AcceptedInterrupt{}, false
	}
	s := &ic.sources[i]
	data := uint8(0xFF)
	if s.Vectored {
		data = s.Vector
	}
	acc := AcceptedInterrupt{Source: SourceID(i), Name: s.Name, Mode: gate.Mode, DataBus: data}
	switch gate.Mode {
	case Z80IM0:
		acc.Handler = uint16(data & 0x38)
	case Z80IM1:
		acc.Handler = 0x0038
	default:
		acc.TableAddr = uint16(gate.I)<<8 | uint16(data)
	}
	ic.consume(i)
	return acc, true
}

func (ic *InterruptController) pollM68K(gate InterruptGate) (AcceptedInterrupt, bool) {
	mask := gate.Mask & 7
	i := ic.best(func(s *sourceState) bool {
		if s.Level == 0 {
			return false
		}
		if s.Level == 7 && mask == 7 {
			return s.fresh
		}
		return s.Level > mask
	})
	if i < 0 {
		return AcceptedInterrupt{}, false
	}
	s := &ic.sources[i]
	acc := AcceptedInterrupt{Source: SourceID(i), Name: s.Name, Level: s.Level}
	if s.Vectored {
		acc.Vector = s.Vector
	} else {
		acc.Vector = M68K_VEC_AUTOVECTOR_BASE + s.Level
		acc.Autovector = true
	}
	ic.consume(i)
	return acc, true
}
