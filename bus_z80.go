package oxid

// PortRange claims the Z80 ports for which port&Mask == Value. Either
// handler may be nil; a nil In reads as open bus and a nil Out drops the
// write.
type PortRange struct {
	Name  string
	Mask  uint16
	Value uint16
	In    func(port uint16) byte
	Out   func(port uint16, value byte)
}

func (p *PortRange) matches(port uint16) bool {
	return port&p.Mask == p.Value
}

// Z80BusAdapter gives a Z80 its 16-bit view of a Bus plus a decoded port
// space. The first matching range handles an access.
type Z80BusAdapter struct {
	bus   *Bus
	ports []PortRange

	// Unclaimed port reads return OpenBus
	OpenBus byte
}

func NewZ80BusAdapter(bus *Bus, ports ...PortRange) *Z80BusAdapter {
	return &Z80BusAdapter{bus: bus, ports: ports, OpenBus: openBus}
}

// AddPorts appends ranges after the existing ones.
func (a *Z80BusAdapter) AddPorts(ports ...PortRange) {
	a.ports = append(a.ports, ports...)
}

func (a *Z80BusAdapter) Bus() *Bus {
	return a.bus
}

func (a *Z80BusAdapter) Read(addr uint16) byte {
	return a.bus.Read8(uint32(addr))
}

func (a *Z80BusAdapter) Write(addr uint16, value byte) {
	a.bus.Write8(uint32(addr), value)
}

func (a *Z80BusAdapter) In(port uint16) byte {
	for i := range a.ports {
		p := &a.ports[i]
		if p.matches(port) {
			if p.In == nil {
				return a.OpenBus
			}
			return p.In(port)
		}
	}
	return a.OpenBus
}

func (a *Z80BusAdapter) Out(port uint16, value byte) {
	for i := range a.ports {
		p := &a.ports[i]
		if p.matches(port) {
			if p.Out != nil {
				p.Out(port, value)
			}
			return
		}
	}
}
