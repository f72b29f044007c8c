package oxid

// Device is a register-mapped peripheral. Addresses are local to the
// device: the bus subtracts the region base before forwarding.
type Device interface {
	Read(addr uint32) byte
	Write(addr uint32, value byte)
	Tick(cycles int)
	InterruptPending() bool
}

// Peeker is implemented by devices whose reads have side effects. Peek
// returns what Read would without changing device state, for monitors and
// scripted inspection.
type Peeker interface {
	Peek(addr uint32) byte
}

// InterruptSink receives interrupt line changes from devices. The interrupt
// controller implements it; devices hold the sink and their source id but
// never a reference to the CPU.
type InterruptSink interface {
	Raise(id SourceID)
	Clear(id SourceID)
}

// irqLine is a device's binding to one controller source. The zero value is
// unconnected and ignores updates.
type irqLine struct {
	sink     InterruptSink
	id       SourceID
	asserted bool
}

func (l *irqLine) connect(sink InterruptSink, id SourceID) {
	l.sink = sink
	l.id = id
	l.asserted = false
}

// set drives the line, forwarding only transitions.
func (l *irqLine) set(level bool) {
	if l.sink == nil || level == l.asserted {
		return
	}
	l.asserted = level
	if level {
		l.sink.Raise(l.id)
	} else {
		l.sink.Clear(l.id)
	}
}

// pulse raises an edge-triggered source regardless of the previous level.
func (l *irqLine) pulse() {
	if l.sink == nil {
		return
	}
	l.sink.Raise(l.id)
}

// force forwards level even if unchanged. Device resets use it after the
// controller has dropped its pending state.
func (l *irqLine) force(level bool) {
	if l.sink == nil {
		return
	}
	l.asserted = !level
	l.set(level)
}
