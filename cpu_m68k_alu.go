package oxid

import "math/bits"

// Condition code arithmetic shared by the instruction handlers.

func (cpu *M68KCPU) setFlag(flag uint16, on bool) {
	if on {
		cpu.SR |= flag
	} else {
		cpu.SR &^= flag
	}
}

// SetFlagsNZ sets N and Z from result and clears V and C, as every logical
// and move instruction does.
func (cpu *M68KCPU) SetFlagsNZ(result uint32, size uint8) {
	result &= m68kSizeMask[size]
	cpu.SR &^= M68K_SR_N | M68K_SR_Z | M68K_SR_V | M68K_SR_C
	if result == 0 {
		cpu.SR |= M68K_SR_Z
	}
	if result&m68kSizeMSB[size] != 0 {
		cpu.SR |= M68K_SR_N
	}
}

func addCarry(src, dst, res, msb uint32) bool {
	return (src&dst|^res&(src|dst))&msb != 0
}

func addOverflow(src, dst, res, msb uint32) bool {
	return (src^res)&(dst^res)&msb != 0
}

func subBorrow(src, dst, res, msb uint32) bool {
	return (src&^dst|res&^dst|src&res)&msb != 0
}

func subOverflow(src, dst, res, msb uint32) bool {
	return (src^dst)&(res^dst)&msb != 0
}

// add computes dst+src(+X) and its flags. extend selects ADDX semantics:
// the X input and a Z flag that is only ever cleared.
func (cpu *M68KCPU) add(src, dst uint32, size uint8, extend bool) uint32 {
	m, msb := m68kSizeMask[size], m68kSizeMSB[size]
	src, dst = src&m, dst&m
	res := dst + src
	if extend && cpu.SR&M68K_SR_X != 0 {
		res++
	}
	res &= m
	carry := addCarry(src, dst, res, msb)
	cpu.setFlag(M68K_SR_X|M68K_SR_C, carry)
	cpu.setFlag(M68K_SR_V, addOverflow(src, dst, res, msb))
	cpu.setFlag(M68K_SR_N, res&msb != 0)
	if extend {
		if res != 0 {
			cpu.SR &^= M68K_SR_Z
		}
	} else {
		cpu.setFlag(M68K_SR_Z, res == 0)
	}
	return res
}

// sub computes dst-src(-X). compare leaves X alone, as CMP does.
func (cpu *M68KCPU) sub(src, dst uint32, size uint8, extend, compare bool) uint32 {
	m, msb := m68kSizeMask[size], m68kSizeMSB[size]
	src, dst = src&m, dst&m
	res := dst - src
	if extend && cpu.SR&M68K_SR_X != 0 {
		res--
	}
	res &= m
	borrow := subBorrow(src, dst, res, msb)
	cpu.setFlag(M68K_SR_C, borrow)
	if !compare {
		cpu.setFlag(M68K_SR_X, borrow)
	}
	cpu.setFlag(M68K_SR_V, subOverflow(src, dst, res, msb))
	cpu.setFlag(M68K_SR_N, res&msb != 0)
	if extend {
		if res != 0 {
			cpu.SR &^= M68K_SR_Z
		}
	} else {
		cpu.setFlag(M68K_SR_Z, res == 0)
	}
	return res
}

// abcd adds packed BCD bytes with X. Z is only cleared; N follows bit 7
// and V is cleared.
func (cpu *M68KCPU) abcd(src, dst uint32) uint32 {
	x := uint32(0)
	if cpu.SR&M68K_SR_X != 0 {
		x = 1
	}
	res := src&0x0F + dst&0x0F + x
	if res > 9 {
		res += 6
	}
	res += src&0xF0 + dst&0xF0
	carry := res > 0x99
	if carry {
		res -= 0xA0
	}
	res &= 0xFF
	cpu.bcdFlags(res, carry)
	return res
}

// sbcd subtracts packed BCD src and X from dst.
func (cpu *M68KCPU) sbcd(src, dst uint32) uint32 {
	x := int32(0)
	if cpu.SR&M68K_SR_X != 0 {
		x = 1
	}
	res := int32(dst&0x0F) - int32(src&0x0F) - x
	if res < 0 {
		res -= 6
	}
	res += int32(dst&0xF0) - int32(src&0xF0)
	borrow := res < 0
	if borrow {
		res += 0xA0
	}
	out := uint32(res) & 0xFF
	cpu.bcdFlags(out, borrow)
	return out
}

func (cpu *M68KCPU) bcdFlags(res uint32, carry bool) {
	cpu.setFlag(M68K_SR_X|M68K_SR_C, carry)
	if res != 0 {
		cpu.SR &^= M68K_SR_Z
	}
	cpu.setFlag(M68K_SR_N, res&0x80 != 0)
	cpu.SR &^= M68K_SR_V
}

// shift runs one of the eight shift/rotate operations count times.
func (cpu *M68KCPU) shift(kind uint8, left bool, value, count uint32, size uint8) uint32 {
	m, msb := m68kSizeMask[size], m68kSizeMSB[size]
	v := value & m
	x := cpu.SR&M68K_SR_X != 0
	carry, overflow := false, false

	if count == 0 && kind == m68kShiftROX {
		carry = x
	}
	for range count {
		var out bool
		switch kind {
		case m68kShiftAS:
			if left {
				out = v&msb != 0
				v = (v << 1) & m
				if (v&msb != 0) != out {
					overflow = true
				}
			} else {
				out = v&1 != 0
				v = v>>1 | v&msb
			}
		case m68kShiftLS:
			if left {
				out = v&msb != 0
				v = (v << 1) & m
			} else {
				out = v&1 != 0
				v >>= 1
			}
		case m68kShiftROX:
			if left {
				out = v&msb != 0
				v = (v << 1) & m
				if x {
					v |= 1
				}
			} else {
				out = v&1 != 0
				v >>= 1
				if x {
					v |= msb
				}
			}
			x = out
		default:
			if left {
				out = v&msb != 0
				v = (v << 1) & m
				if out {
					v |= 1
				}
			} else {
				out = v&1 != 0
				v >>= 1
				if out {
					v |= msb
				}
			}
		}
		carry = out
		if kind != m68kShiftRO {
			x = out
		}
	}

	cpu.SetFlagsNZ(v, size)
	cpu.setFlag(M68K_SR_V, overflow)
	cpu.setFlag(M68K_SR_C, carry)
	if count > 0 && kind != m68kShiftRO {
		cpu.setFlag(M68K_SR_X, x)
	}
	return v
}

// MULU costs 38+2n where n is the number of set bits in the source; MULS
// counts the 01 and 10 transitions of the source with a zero appended.

func muluCycles(src uint16) int {
	return 38 + 2*bits.OnesCount16(src)
}

func mulsCycles(src uint16) int {
	return 38 + 2*bits.OnesCount16(src^src<<1)
}

// Division timing follows the microcode loop. DIVU depends on the partial
// remainder at each quotient bit and DIVS on the absolute quotient. Both
// return clock cycles excluding the effective address; an absolute overflow
// is detected before the loop.

func divuCycles(dividend uint32, divisor uint16) int {
	if dividend>>16 >= uint32(divisor) {
		return 10
	}
	mcycles := 38
	hdivisor := uint32(divisor) << 16
	for range 15 {
		carry := dividend&0x80000000 != 0
		dividend <<= 1
		if carry {
			dividend -= hdivisor
			continue
		}
		mcycles += 2
		if dividend >= hdivisor {
			dividend -= hdivisor
			mcycles--
		}
	}
	return mcycles * 2
}

func divsCycles(dividend int32, divisor int16) int {
	mcycles := 6
	if dividend < 0 {
		mcycles++
	}
	adividend := uint32(dividend)
	if dividend < 0 {
		adividend = -adividend
	}
	adivisor := uint32(uint16(divisor))
	if divisor < 0 {
		adivisor = uint32(uint16(-divisor))
	}
	if adividend>>16 >= adivisor {
		return (mcycles + 2) * 2
	}
	aquot := adividend / adivisor
	mcycles += 55
	if divisor >= 0 {
		if dividend >= 0 {
			mcycles--
		} else {
			mcycles++
		}
	}
	for range 15 {
		if aquot&0x8000 == 0 {
			mcycles++
		}
		aquot <<= 1
	}
	return mcycles * 2
}
