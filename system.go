// system.go - CPU, bus and device lockstep for oxid

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
system.go - Lockstep system driver

Core Features:

    One CPU, one Bus, one InterruptController and the devices to clock.
    Step runs exactly one CPU step and then ticks every device by the
    cycles that step took, in registration order. RunCycles and RunFrame
    repeat Step with no batching; RunFrame carries the overshoot of the
    last instruction into the next frame so the long-run frame length is
    exact.
*/

import (
	"fmt"

	"github.com/intuitionamiga/oxid/logger"
)

// CPU is an interpreter core the System can drive.
type CPU interface {
	Reset()
	Step() (int, error)
}

// resetter is implemented by devices with power-on state.
type resetter interface {
	Reset()
}

type System struct {
	Name    string
	CPU     CPU
	Bus     *Bus
	IC      *InterruptController
	Devices []Device

	// FrameCycles is the CPU clock count of one video frame.
	FrameCycles int

	cycles uint64
	frames uint64
	// Cycles the last frame ran past its end
	carry int
}

func NewSystem(name string, cpu CPU, bus *Bus, ic *InterruptController, frameCycles int) *System {
	return &System{
		Name:        name,
		CPU:         cpu,
		Bus:         bus,
		IC:          ic,
		FrameCycles: frameCycles,
	}
}

// AddDevice appends d to the tick order.
func (s *System) AddDevice(d Device) {
	s.Devices = append(s.Devices, d)
}

// Reset clears pending interrupts and bus faults, resets every device that
// has power-on state and finally the CPU, which reloads its reset vectors.
func (s *System) Reset() {
	if s.IC != nil {
		s.IC.Reset()
	}
	if s.Bus != nil {
		if _, ok := s.Bus.PendingFault(); ok {
			s.Bus.AckFault()
		}
	}
	for _, d := range s.Devices {
		if r, ok := d.(resetter); ok {
			r.Reset()
		}
	}
	s.CPU.Reset()
	s.cycles, s.frames, s.carry = 0, 0, 0
	logger.Logf(logger.Allow, "system", "%s reset", s.Name)
}

// Step executes one instruction (or one idle HALT/STOP step) and clocks the
// devices by its cost.
func (s *System) Step() (int, error) {
	n, err := s.CPU.Step()
	if n > 0 {
		for _, d := range s.Devices {
			d.Tick(n)
		}
		s.cycles += uint64(n)
	}
	return n, err
}

// RunCycles steps until at least n cycles have elapsed and returns the
// count actually run.
func (s *System) RunCycles(n int) (int, error) {
	ran := 0
	for ran < n {
		c, err := s.Step()
		ran += c
		if err != nil {
			return ran, fmt.Errorf("%s after %d cycles: %w", s.Name, s.cycles, err)
		}
		if c == 0 {
			return ran, fmt.Errorf("%s: CPU made no progress: %w", s.Name, ErrCPUHalted)
		}
	}
	return ran, nil
}

// RunFrame runs one frame's worth of cycles.
func (s *System) RunFrame() error {
	target := s.FrameCycles - s.carry
	ran, err := s.RunCycles(target)
	if err != nil {
		return err
	}
	s.carry = ran - target
	s.frames++
	return nil
}

// Cycles is the total since the last Reset.
func (s *System) Cycles() uint64 {
	return s.cycles
}

func (s *System) Frames() uint64 {
	return s.frames
}
