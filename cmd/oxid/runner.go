package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/intuitionamiga/oxid"
	"github.com/intuitionamiga/oxid/logger"
)

// Runner owns the machine and drives it from a single goroutine. Host
// front ends reach it only through the key queue, the typer, the frame
// snapshot and the reset request.
type Runner struct {
	machine  oxid.Machine
	keys     oxid.KeyQueue
	typer    Typer
	snapshot oxid.FrameSnapshot

	script  *oxid.Script
	capture *WAVCapture

	frames       atomic.Uint64
	resetPending atomic.Bool
}

func NewRunner(m oxid.Machine) *Runner {
	r := &Runner{machine: m}
	w, h := m.FrameSize()
	r.snapshot.Publish(m.Frame(), w, h)
	return r
}

func (r *Runner) Keys() *oxid.KeyQueue          { return &r.keys }
func (r *Runner) Typer() *Typer                 { return &r.typer }
func (r *Runner) Snapshot() *oxid.FrameSnapshot { return &r.snapshot }
func (r *Runner) Frames() uint64                { return r.frames.Load() }
func (r *Runner) Name() string                  { return r.machine.Name() }

// RequestReset resets the machine before the next frame.
func (r *Runner) RequestReset() {
	r.resetPending.Store(true)
}

// Step runs one frame: pending host input, the frame itself, then the
// snapshot, the frame script and the WAV capture.
func (r *Runner) Step() error {
	m := r.machine
	if r.resetPending.CompareAndSwap(true, false) {
		if err := m.Reset(); err != nil {
			return err
		}
		logger.Log(logger.Allow, "host", "reset")
	}
	r.keys.Apply(m)
	r.typer.Tick(m)

	if err := m.RunFrame(); err != nil {
		return err
	}
	w, h := m.FrameSize()
	r.snapshot.Publish(m.Frame(), w, h)

	if r.script != nil {
		if err := r.script.Frame(); err != nil {
			return err
		}
	}
	if r.capture != nil {
		if err := r.capture.Frame(); err != nil {
			return err
		}
	}
	r.frames.Add(1)
	return nil
}

// FramePeriod is the host time one emulated frame takes.
func FramePeriod(m oxid.Machine) time.Duration {
	rate := m.FrameRate()
	if rate <= 0 {
		rate = 60
	}
	return time.Duration(float64(time.Second) / rate)
}

// Run paces Step at the machine's native frame rate until ctx is done or a
// frame fails.
func (r *Runner) Run(ctx context.Context) error {
	period := FramePeriod(r.machine)
	logger.Logf(logger.Allow, "host", "%s running at %.2f Hz", r.machine.Name(), r.machine.FrameRate())

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Step(); err != nil {
				return fmt.Errorf("frame %d: %w", r.Frames(), err)
			}
		}
	}
}
