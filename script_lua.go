// script_lua.go - Lua scripting for oxid

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
script_lua.go - Lua scripting of a running machine

Core Features:

    A gopher-lua state with an "oxid" table bound to one Machine:
    memory (peek, poke, peek16, peek32), execution (step, run, frame,
    reset), registers (reg, setreg, regs), disassembly, host keys and the
    central logger.
    oxid.on_frame(fn) registers a callback the host calls after every
    emulated frame through Script.Frame.
    print is redirected to the writer given to NewScript.

Scripts run on the emulation goroutine. Script is not safe for concurrent
use.
*/

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/intuitionamiga/oxid/logger"
)

type Script struct {
	L       *lua.LState
	machine Machine
	out     io.Writer
	onFrame *lua.LFunction
}

// NewScript creates a Lua state bound to m. Output from print goes to out.
func NewScript(m Machine, out io.Writer) *Script {
	s := &Script{
		L:       lua.NewState(),
		machine: m,
		out:     out,
	}
	tbl := s.L.NewTable()
	s.L.SetFuncs(tbl, map[string]lua.LGFunction{
		"peek":     s.luaPeek,
		"peek16":   s.luaPeek16,
		"peek32":   s.luaPeek32,
		"poke":     s.luaPoke,
		"step":     s.luaStep,
		"run":      s.luaRun,
		"frame":    s.luaFrame,
		"reset":    s.luaReset,
		"reg":      s.luaReg,
		"setreg":   s.luaSetReg,
		"regs":     s.luaRegs,
		"disasm":   s.luaDisasm,
		"key":      s.luaKey,
		"log":      s.luaLog,
		"cycles":   s.luaCycles,
		"frames":   s.luaFrames,
		"on_frame": s.luaOnFrame,
	})
	s.L.SetField(tbl, "model", lua.LString(m.Name()))
	s.L.SetGlobal("oxid", tbl)
	s.L.SetGlobal("print", s.L.NewFunction(s.luaPrint))
	return s
}

func (s *Script) Close() {
	s.L.Close()
}

// SetContext makes a running script stop when ctx is cancelled.
func (s *Script) SetContext(ctx context.Context) {
	s.L.SetContext(ctx)
}

func (s *Script) DoString(src string) error {
	if err := s.L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

func (s *Script) DoFile(path string) error {
	if err := s.L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// Frame calls the on_frame callback, if one is registered, with the frame
// count.
func (s *Script) Frame() error {
	if s.onFrame == nil {
		return nil
	}
	frames := lua.LNumber(s.machine.System().Frames())
	if err := s.L.CallByParam(lua.P{Fn: s.onFrame, NRet: 0, Protect: true}, frames); err != nil {
		return fmt.Errorf("script on_frame: %w", err)
	}
	return nil
}

func (s *Script) bus() *Bus {
	return s.machine.System().Bus
}

func (s *Script) luaPeek(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	L.Push(lua.LNumber(s.bus().Peek8(addr)))
	return 1
}

func (s *Script) luaPeek16(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	b := s.bus()
	L.Push(lua.LNumber(uint16(b.Peek8(addr))<<8 | uint16(b.Peek8(addr+1))))
	return 1
}

func (s *Script) luaPeek32(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	b := s.bus()
	var v uint32
	for i := range uint32(4) {
		v = v<<8 | uint32(b.Peek8(addr+i))
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (s *Script) luaPoke(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	value := L.CheckInt(2)
	s.bus().Poke8(addr, byte(value))
	return 0
}

// step([n]) runs n instructions (default 1) and returns the cycles taken.
func (s *Script) luaStep(L *lua.LState) int {
	n := L.OptInt(1, 1)
	total := 0
	for range n {
		c, err := s.machine.System().Step()
		total += c
		if err != nil {
			L.RaiseError("step: %v", err)
			return 0
		}
	}
	L.Push(lua.LNumber(total))
	return 1
}

func (s *Script) luaRun(L *lua.LState) int {
	ran, err := s.machine.System().RunCycles(L.CheckInt(1))
	if err != nil {
		L.RaiseError("run: %v", err)
		return 0
	}
	L.Push(lua.LNumber(ran))
	return 1
}

// frame([n]) runs n frames (default 1), calling on_frame after each.
func (s *Script) luaFrame(L *lua.LState) int {
	n := L.OptInt(1, 1)
	for range n {
		if err := s.machine.RunFrame(); err != nil {
			L.RaiseError("frame: %v", err)
			return 0
		}
		if err := s.Frame(); err != nil {
			L.RaiseError("%v", err)
			return 0
		}
	}
	return 0
}

func (s *Script) luaReset(L *lua.LState) int {
	if err := s.machine.Reset(); err != nil {
		L.RaiseError("reset: %v", err)
	}
	return 0
}

func (s *Script) luaReg(L *lua.LState) int {
	name := L.CheckString(1)
	v, ok := CPURegister(s.machine.System().CPU, name)
	if !ok {
		L.ArgError(1, "unknown register "+name)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (s *Script) luaSetReg(L *lua.LState) int {
	name := L.CheckString(1)
	value := uint32(L.CheckInt64(2))
	if !SetCPURegister(s.machine.System().CPU, name, value) {
		L.ArgError(1, "unknown register "+name)
	}
	return 0
}

func (s *Script) luaRegs(L *lua.LState) int {
	cpu := s.machine.System().CPU
	tbl := L.NewTable()
	for _, name := range CPURegisterNames(cpu) {
		v, _ := CPURegister(cpu, name)
		L.SetField(tbl, name, lua.LNumber(v))
	}
	L.Push(tbl)
	return 1
}

// disasm([addr [, count]]) returns count lines starting at addr, which
// defaults to the PC.
func (s *Script) luaDisasm(L *lua.LState) int {
	cpu := s.machine.System().CPU
	pc, _ := CPURegister(cpu, "pc")
	addr := uint32(L.OptInt64(1, int64(pc)))
	count := L.OptInt(2, 1)
	lines := make([]string, 0, count)
	for range count {
		text, n := Disassemble(cpu, s.bus(), addr)
		lines = append(lines, fmt.Sprintf("%06X  %s", addr, text))
		addr += uint32(n)
	}
	L.Push(lua.LString(strings.Join(lines, "\n")))
	return 1
}

// key(name, down) presses or releases a host key.
func (s *Script) luaKey(L *lua.LState) int {
	name := L.CheckString(1)
	k, ok := ParseKey(name)
	if !ok {
		L.ArgError(1, "unknown key "+name)
		return 0
	}
	if L.OptBool(2, true) {
		s.machine.KeyDown(k)
	} else {
		s.machine.KeyUp(k)
	}
	return 0
}

func (s *Script) luaLog(L *lua.LState) int {
	logger.Log(logger.Allow, "script", L.CheckString(1))
	return 0
}

func (s *Script) luaCycles(L *lua.LState) int {
	L.Push(lua.LNumber(s.machine.System().Cycles()))
	return 1
}

func (s *Script) luaFrames(L *lua.LState) int {
	L.Push(lua.LNumber(s.machine.System().Frames()))
	return 1
}

func (s *Script) luaOnFrame(L *lua.LState) int {
	if L.Get(1) == lua.LNil {
		s.onFrame = nil
		return 0
	}
	s.onFrame = L.CheckFunction(1)
	return 0
}

func (s *Script) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	fmt.Fprintln(s.out, strings.Join(parts, "\t"))
	return 0
}

// CPURegister reads a register by its lower-case name.
func CPURegister(cpu CPU, name string) (uint32, bool) {
	name = strings.ToLower(name)
	switch c := cpu.(type) {
	case *Z80CPU:
		if p, ok := z80Registers8(c)[name]; ok {
			return uint32(*p), true
		}
		switch name {
		case "af":
			return uint32(c.AF()), true
		case "bc":
			return uint32(c.BC()), true
		case "de":
			return uint32(c.DE()), true
		case "hl":
			return uint32(c.HL()), true
		case "ix":
			return uint32(c.IX), true
		case "iy":
			return uint32(c.IY), true
		case "sp":
			return uint32(c.SP), true
		case "pc":
			return uint32(c.PC), true
		}
	case *M68KCPU:
		if p, ok := m68kRegisterSlots(c)[name]; ok {
			return *p, true
		}
		if name == "sr" {
			return uint32(c.SR), true
		}
	}
	return 0, false
}

// SetCPURegister writes a register by name. Values are truncated to the
// register width.
func SetCPURegister(cpu CPU, name string, value uint32) bool {
	name = strings.ToLower(name)
	switch c := cpu.(type) {
	case *Z80CPU:
		if p, ok := z80Registers8(c)[name]; ok {
			*p = byte(value)
			return true
		}
		v := uint16(value)
		switch name {
		case "af":
			c.SetAF(v)
		case "bc":
			c.SetBC(v)
		case "de":
			c.SetDE(v)
		case "hl":
			c.SetHL(v)
		case "ix":
			c.IX = v
		case "iy":
			c.IY = v
		case "sp":
			c.SP = v
		case "pc":
			c.PC = v
		default:
			return false
		}
		return true
	case *M68KCPU:
		if p, ok := m68kRegisterSlots(c)[name]; ok {
			*p = value
			return true
		}
		if name == "sr" {
			c.SetSR(uint16(value))
			return true
		}
	}
	return false
}

// CPURegisterNames lists the names CPURegister accepts for cpu, sorted.
func CPURegisterNames(cpu CPU) []string {
	var names []string
	switch c := cpu.(type) {
	case *Z80CPU:
		for name := range z80Registers8(c) {
			names = append(names, name)
		}
		names = append(names, "af", "bc", "de", "hl", "ix", "iy", "sp", "pc")
	case *M68KCPU:
		for name := range m68kRegisterSlots(c) {
			names = append(names, name)
		}
		names = append(names, "sr")
	}
	sort.Strings(names)
	return names
}

func z80Registers8(c *Z80CPU) map[string]*byte {
	return map[string]*byte{
		"a": &c.A, "f": &c.F, "b": &c.B, "c": &c.C,
		"d": &c.D, "e": &c.E, "h": &c.H, "l": &c.L,
		"i": &c.I, "r": &c.R,
	}
}

func m68kRegisterSlots(c *M68KCPU) map[string]*uint32 {
	slots := map[string]*uint32{"pc": &c.PC, "usp": &c.USP, "ssp": &c.SSP}
	for i := range 8 {
		slots[fmt.Sprintf("d%d", i)] = &c.DataRegs[i]
		slots[fmt.Sprintf("a%d", i)] = &c.AddrRegs[i]
	}
	slots["sp"] = &c.AddrRegs[7]
	return slots
}

// Disassemble decodes one instruction at addr for whichever CPU family
// cpu is, reading passively through bus.
func Disassemble(cpu CPU, bus *Bus, addr uint32) (string, int) {
	switch cpu.(type) {
	case *Z80CPU:
		return DisassembleZ80(func(a uint16) byte { return bus.Peek8(uint32(a)) }, uint16(addr))
	case *M68KCPU:
		return DisassembleM68K(func(a uint32) uint16 {
			return uint16(bus.Peek8(a))<<8 | uint16(bus.Peek8(a+1))
		}, addr)
	}
	return "?", 1
}
