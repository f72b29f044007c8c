package oxid

import (
	"errors"
	"fmt"
)

// ExceptionKind tags the reason a CPU leaves its normal instruction stream.
type ExceptionKind int

const (
	ExceptionReset ExceptionKind = iota
	ExceptionBusError
	ExceptionAddressError
	ExceptionInterrupt
	ExceptionIllegal
	ExceptionTrap
)

func (k ExceptionKind) String() string {
	switch k {
	case ExceptionReset:
		return "reset"
	case ExceptionBusError:
		return "bus error"
	case ExceptionAddressError:
		return "address error"
	case ExceptionInterrupt:
		return "interrupt"
	case ExceptionIllegal:
		return "illegal instruction"
	case ExceptionTrap:
		return "trap"
	}
	return fmt.Sprintf("exception(%d)", int(k))
}

// Exception is produced by the CPU or the bus and consumed by the CPU's own
// dispatch routine. Level is meaningful for interrupts, Opcode for illegal
// instructions, Addr for bus and address errors and Vector for every 68000
// variant.
type Exception struct {
	Kind   ExceptionKind
	Level  uint8
	Opcode uint16
	Addr   uint32
	Vector uint8
}

func (e Exception) String() string {
	switch e.Kind {
	case ExceptionInterrupt:
		return fmt.Sprintf("interrupt level %d", e.Level)
	case ExceptionIllegal:
		return fmt.Sprintf("illegal opcode 0x%04X", e.Opcode)
	case ExceptionBusError, ExceptionAddressError:
		return fmt.Sprintf("%s at 0x%06X", e.Kind, e.Addr)
	case ExceptionTrap:
		return fmt.Sprintf("trap vector %d", e.Vector)
	}
	return e.Kind.String()
}

var (
	// ErrRegionOverlap reports two address-space regions claiming the same byte.
	ErrRegionOverlap = errors.New("overlapping bus regions")
	// ErrBadRegion reports a region with no length or no backing store.
	ErrBadRegion = errors.New("invalid bus region")
	// ErrBadSource reports an interrupt source that cannot be registered or addressed.
	ErrBadSource = errors.New("invalid interrupt source")
	// ErrROMSize reports a ROM image the machine cannot map.
	ErrROMSize = errors.New("unsupported ROM size")
	// ErrCPUHalted is returned by Step once a CPU stopped on a fatal condition.
	ErrCPUHalted = errors.New("cpu halted")
)

// IllegalInstructionError is the only instruction-level condition that
// escapes a CPU. The CPU halts on it; a Reset recovers.
type IllegalInstructionError struct {
	CPU    string
	PC     uint32
	Opcode uint16
}

func (e *IllegalInstructionError) Error() string {
	return fmt.Sprintf("%s: illegal opcode 0x%04X at 0x%06X", e.CPU, e.Opcode, e.PC)
}

// Exception returns the tagged form of the error.
func (e *IllegalInstructionError) Exception() Exception {
	return Exception{Kind: ExceptionIllegal, Opcode: e.Opcode, Addr: e.PC, Vector: M68K_VEC_ILLEGAL}
}

// DoubleFaultError reports a bus or address error raised while the CPU was
// already dispatching one. The emulated system is dead at that point.
type DoubleFaultError struct {
	CPU    string
	PC     uint32
	Addr   uint32
	Vector uint8
}

func (e *DoubleFaultError) Error() string {
	return fmt.Sprintf("%s: double fault (vector %d) accessing 0x%06X, pc 0x%06X", e.CPU, e.Vector, e.Addr, e.PC)
}
