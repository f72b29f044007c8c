// bus.go - Region based system bus for oxid

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
bus.go - Shared address-space bus

The Bus resolves every address to exactly one region (RAM, ROM or a device)
or to "unmapped", and forwards byte, word and long accesses to it. Word and
long accesses are big endian; the Z80 builds its little-endian words from
byte accesses through Z80BusAdapter.

Core Features:

    Region table checked for overlaps at construction (fails fast).
    Per-region mirroring: RAM stores decide their own aliasing, and an
    explicit Mirror period masks the local address before the store sees it.
    Read overlays: a region flagged Overlay shadows reads underneath it while
    enabled; writes always reach the base region (Mac boot ROM overlay).
    Write taps: callbacks that observe completed writes in a range (bank
    mapper registers living inside RAM).
    Fault side channel: under a faulting policy an unmapped access or a ROM
    write records a BusFault and has no other effect. The CPU collects it
    with PendingFault and clears it with AckFault. Only the first fault is
    kept until acknowledged, so one bad access is one fault.

The bus holds no lock. Everything on it is driven from the single emulation
thread; front ends exchange snapshots with the machine, not bus accesses.
*/

import (
	"fmt"
	"sort"
)

type RegionKind int

const (
	RegionRAM RegionKind = iota
	RegionROM
	RegionDevice
)

func (k RegionKind) String() string {
	switch k {
	case RegionRAM:
		return "RAM"
	case RegionROM:
		return "ROM"
	case RegionDevice:
		return "device"
	}
	return "unknown"
}

type Region struct {
	/*
		Region describes one window of the address space. Exactly one of
		RAM, ROM or Device is set, matching Kind.

		Mirror, when non-zero, reduces the region-local address modulo
		Mirror before it reaches the store, so a small store repeats
		across a larger window regardless of its own mirroring rules.
	*/

	Name    string
	Base    uint32
	Length  uint32
	Kind    RegionKind
	Mirror  uint32
	Overlay bool

	RAM    *RAM
	ROM    *ROM
	Device Device
}

// RAMRegion maps ram at base for length bytes.
func RAMRegion(name string, base, length uint32, ram *RAM) Region {
	return Region{Name: name, Base: base, Length: length, Kind: RegionRAM, RAM: ram}
}

// ROMRegion maps rom at base for length bytes.
func ROMRegion(name string, base, length uint32, rom *ROM) Region {
	return Region{Name: name, Base: base, Length: length, Kind: RegionROM, ROM: rom}
}

// DeviceRegion maps dev at base for length bytes.
func DeviceRegion(name string, base, length uint32, dev Device) Region {
	return Region{Name: name, Base: base, Length: length, Kind: RegionDevice, Device: dev}
}

func (r *Region) end() uint64 {
	return uint64(r.Base) + uint64(r.Length)
}

func (r *Region) contains(addr uint32) bool {
	return addr >= r.Base && uint64(addr) < r.end()
}

func (r *Region) local(addr uint32) uint32 {
	off := addr - r.Base
	if r.Mirror != 0 {
		off %= r.Mirror
	}
	return off
}

// BusPolicy is the per-family behaviour of accesses that hit nothing
// writable. The 68000 family faults; the Z80 family absorbs.
type BusPolicy struct {
	AddressBits   int
	FaultUnmapped bool
	FaultROMWrite bool
	Fill          byte
}

var (
	// M68KBusPolicy is a 24-bit bus that raises bus errors.
	M68KBusPolicy = BusPolicy{AddressBits: 24, FaultUnmapped: true, FaultROMWrite: true, Fill: openBus}
	// Z80BusPolicy is a 16-bit bus that silently absorbs bad accesses.
	Z80BusPolicy = BusPolicy{AddressBits: 16, Fill: openBus}
)

// BusFault describes the access that failed.
type BusFault struct {
	Addr  uint32
	Write bool
	Width int
	ROM   bool
}

func (f BusFault) String() string {
	dir := "read"
	if f.Write {
		dir = "write"
	}
	if f.ROM {
		return fmt.Sprintf("%s.%d to ROM at 0x%06X", dir, f.Width*8, f.Addr)
	}
	return fmt.Sprintf("unmapped %s.%d at 0x%06X", dir, f.Width*8, f.Addr)
}

type writeTap struct {
	base   uint32
	length uint32
	fn     func(addr uint32, value byte)
}

type overlayRegion struct {
	Region
	enabled bool
}

type Bus struct {
	policy   BusPolicy
	addrMask uint32

	// sorted by Base, non-overlapping
	regions  []Region
	overlays []overlayRegion
	taps     []writeTap

	// index of the region that served the last access
	last int

	fault      BusFault
	faultValid bool
	faultCount uint64
}

// NewBus builds an address space from regions. Regions may be given in any
// order; overlapping or malformed regions fail construction.
func NewBus(policy BusPolicy, regions ...Region) (*Bus, error) {
	if policy.AddressBits <= 0 || policy.AddressBits > 32 {
		return nil, fmt.Errorf("bus: address width %d: %w", policy.AddressBits, ErrBadRegion)
	}
	b := &Bus{policy: policy}
	if policy.AddressBits == 32 {
		b.addrMask = 0xFFFFFFFF
	} else {
		b.addrMask = 1<<policy.AddressBits - 1
	}

	for _, r := range regions {
		if err := b.checkRegion(r); err != nil {
			return nil, err
		}
		if r.Overlay {
			b.overlays = append(b.overlays, overlayRegion{Region: r, enabled: true})
		} else {
			b.regions = append(b.regions, r)
		}
	}

	sort.Slice(b.regions, func(i, j int) bool { return b.regions[i].Base < b.regions[j].Base })
	if err := checkOverlaps(b.regions); err != nil {
		return nil, err
	}
	plain := make([]Region, len(b.overlays))
	for i := range b.overlays {
		plain[i] = b.overlays[i].Region
	}
	sort.Slice(plain, func(i, j int) bool { return plain[i].Base < plain[j].Base })
	if err := checkOverlaps(plain); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bus) checkRegion(r Region) error {
	if r.Length == 0 {
		return fmt.Errorf("bus: region %q has no length: %w", r.Name, ErrBadRegion)
	}
	if r.end()-1 > uint64(b.addrMask) {
		return fmt.Errorf("bus: region %q ends beyond 0x%X: %w", r.Name, b.addrMask, ErrBadRegion)
	}
	switch r.Kind {
	case RegionRAM:
		if r.RAM == nil {
			return fmt.Errorf("bus: RAM region %q has no store: %w", r.Name, ErrBadRegion)
		}
	case RegionROM:
		if r.ROM == nil {
			return fmt.Errorf("bus: ROM region %q has no store: %w", r.Name, ErrBadRegion)
		}
	case RegionDevice:
		if r.Device == nil {
			return fmt.Errorf("bus: device region %q has no device: %w", r.Name, ErrBadRegion)
		}
	default:
		return fmt.Errorf("bus: region %q has kind %d: %w", r.Name, r.Kind, ErrBadRegion)
	}
	if r.Overlay && r.Kind == RegionDevice {
		return fmt.Errorf("bus: overlay %q must be memory: %w", r.Name, ErrBadRegion)
	}
	return nil
}

func checkOverlaps(sorted []Region) error {
	for i := 1; i < len(sorted); i++ {
		prev, cur := &sorted[i-1], &sorted[i]
		if uint64(cur.Base) < prev.end() {
			return fmt.Errorf("bus: %q [0x%06X-0x%06X] and %q [0x%06X-0x%06X]: %w",
				prev.Name, prev.Base, prev.end()-1, cur.Name, cur.Base, cur.end()-1, ErrRegionOverlap)
		}
	}
	return nil
}

// find returns the region holding addr, or nil for unmapped.
func (b *Bus) find(addr uint32) *Region {
	if b.last < len(b.regions) && b.regions[b.last].contains(addr) {
		return &b.regions[b.last]
	}
	i := sort.Search(len(b.regions), func(i int) bool {
		return uint64(addr) < b.regions[i].end()
	})
	if i < len(b.regions) && b.regions[i].contains(addr) {
		b.last = i
		return &b.regions[i]
	}
	return nil
}

func (b *Bus) overlayFor(addr uint32) *Region {
	for i := range b.overlays {
		if b.overlays[i].enabled && b.overlays[i].contains(addr) {
			return &b.overlays[i].Region
		}
	}
	return nil
}

func (b *Bus) recordFault(f BusFault) {
	b.faultCount++
	if b.faultValid {
		return
	}
	b.fault = f
	b.faultValid = true
}

func (b *Bus) read8(addr uint32, width int) (byte, bool) {
	addr &= b.addrMask
	r := b.overlayFor(addr)
	if r == nil {
		r = b.find(addr)
	}
	if r == nil {
		if b.policy.FaultUnmapped {
			b.recordFault(BusFault{Addr: addr, Width: width})
			return b.policy.Fill, false
		}
		return b.policy.Fill, true
	}
	off := r.local(addr)
	switch r.Kind {
	case RegionRAM:
		return r.RAM.Read(off), true
	case RegionROM:
		return r.ROM.Read(off), true
	default:
		return r.Device.Read(off), true
	}
}

// writable reports whether a write of one byte at addr would succeed and
// records the fault when it would not. Under an absorbing policy every
// address is writable; bad writes are dropped by commit8.
func (b *Bus) writable(addr uint32, width int) bool {
	addr &= b.addrMask
	r := b.find(addr)
	switch {
	case r == nil && b.policy.FaultUnmapped:
		b.recordFault(BusFault{Addr: addr, Write: true, Width: width})
		return false
	case r != nil && r.Kind == RegionROM && b.policy.FaultROMWrite:
		b.recordFault(BusFault{Addr: addr, Write: true, Width: width, ROM: true})
		return false
	}
	return true
}

// commit8 stores a byte already checked by writable.
func (b *Bus) commit8(addr uint32, value byte) {
	addr &= b.addrMask
	r := b.find(addr)
	if r == nil {
		return
	}
	off := r.local(addr)
	switch r.Kind {
	case RegionRAM:
		r.RAM.Write(off, value)
	case RegionROM:
		return
	default:
		r.Device.Write(off, value)
	}
	for i := range b.taps {
		t := &b.taps[i]
		if addr >= t.base && addr-t.base < t.length {
			t.fn(addr, value)
		}
	}
}

// writeN checks every byte of a big-endian access before storing any, so
// a faulting access stores nothing.
func (b *Bus) writeN(addr uint32, value uint32, width int) {
	for i := range uint32(width) {
		if !b.writable(addr+i, width) {
			return
		}
	}
	for i := range uint32(width) {
		b.commit8(addr+i, byte(value>>(8*(uint32(width)-1-i))))
	}
}

func (b *Bus) Read8(addr uint32) uint8 {
	v, _ := b.read8(addr, 1)
	return v
}

// Read16 reads a big-endian word. A fault on the high byte suppresses the
// low byte access.
func (b *Bus) Read16(addr uint32) uint16 {
	hi, ok := b.read8(addr, 2)
	if !ok {
		return uint16(b.policy.Fill)<<8 | uint16(b.policy.Fill)
	}
	lo, _ := b.read8(addr+1, 2)
	return uint16(hi)<<8 | uint16(lo)
}

func (b *Bus) Read32(addr uint32) uint32 {
	var v uint32
	for i := range uint32(4) {
		x, ok := b.read8(addr+i, 4)
		if !ok {
			f := uint32(b.policy.Fill)
			return f<<24 | f<<16 | f<<8 | f
		}
		v = v<<8 | uint32(x)
	}
	return v
}

func (b *Bus) Write8(addr uint32, value uint8) {
	b.writeN(addr, uint32(value), 1)
}

// Write16 writes a big-endian word. Both bytes are checked first, so a
// faulting word write leaves the target untouched.
func (b *Bus) Write16(addr uint32, value uint16) {
	b.writeN(addr, uint32(value), 2)
}

func (b *Bus) Write32(addr uint32, value uint32) {
	b.writeN(addr, value, 4)
}

// Peek8 reads without side effects and without faulting. Devices that
// implement Peeker are asked for their passive view; others read as fill.
func (b *Bus) Peek8(addr uint32) uint8 {
	addr &= b.addrMask
	r := b.overlayFor(addr)
	if r == nil {
		r = b.find(addr)
	}
	if r == nil {
		return b.policy.Fill
	}
	off := r.local(addr)
	switch r.Kind {
	case RegionRAM:
		return r.RAM.Read(off)
	case RegionROM:
		return r.ROM.Read(off)
	}
	if p, ok := r.Device.(Peeker); ok {
		return p.Peek(off)
	}
	return b.policy.Fill
}

// Poke8 writes like Write8 but never records a fault; ROM writes are
// dropped.
func (b *Bus) Poke8(addr uint32, value uint8) {
	pending, valid := b.fault, b.faultValid
	count := b.faultCount
	b.writeN(addr, uint32(value), 1)
	b.fault, b.faultValid, b.faultCount = pending, valid, count
}

// PendingFault reports the first unacknowledged fault.
func (b *Bus) PendingFault() (BusFault, bool) {
	return b.fault, b.faultValid
}

// AckFault clears the fault side channel.
func (b *Bus) AckFault() {
	b.faultValid = false
	b.fault = BusFault{}
}

// FaultCount is the number of faulting accesses since construction.
func (b *Bus) FaultCount() uint64 {
	return b.faultCount
}

// SetOverlay enables or disables the named overlay region.
func (b *Bus) SetOverlay(name string, enabled bool) error {
	for i := range b.overlays {
		if b.overlays[i].Name == name {
			b.overlays[i].enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("bus: no overlay %q: %w", name, ErrBadRegion)
}

// OverlayEnabled reports the state of the named overlay.
func (b *Bus) OverlayEnabled(name string) bool {
	for i := range b.overlays {
		if b.overlays[i].Name == name {
			return b.overlays[i].enabled
		}
	}
	return false
}

// Tap registers fn to observe every completed write in [base, base+length).
func (b *Bus) Tap(base, length uint32, fn func(addr uint32, value byte)) {
	b.taps = append(b.taps, writeTap{base: base, length: length, fn: fn})
}

// Region returns the named region, overlays included.
func (b *Bus) Region(name string) (Region, bool) {
	for _, r := range b.regions {
		if r.Name == name {
			return r, true
		}
	}
	for _, o := range b.overlays {
		if o.Name == name {
			return o.Region, true
		}
	}
	return Region{}, false
}

// Regions returns the base regions in address order.
func (b *Bus) Regions() []Region {
	out := make([]Region, len(b.regions))
	copy(out, b.regions)
	return out
}

// Policy returns the bus policy.
func (b *Bus) Policy() BusPolicy {
	return b.policy
}
