package oxid

/*
sound_stub.go - Sound generator stub

Core Features:

    Accepts register writes from the guest (SMS PSG port, Spectrum
    EAR/MIC bits) and keeps the write count and the last value per
    register. Reads return 0xFF and the stub never interrupts.
    Stream supplies silent signed 16-bit stereo PCM to the host audio
    layer so the output device runs at the machine's frame pace.
*/

import (
	"io"
	"sync"
)

const (
	SOUND_SAMPLE_RATE = 44100
	SOUND_CHANNELS    = 2
	SOUND_FRAME_BYTES = SOUND_CHANNELS * 2
)

type SoundStub struct {
	mu     sync.Mutex
	writes uint64
	last   map[uint32]byte
	order  []uint32

	// PCM bytes handed to the host so far
	streamed uint64
}

func NewSoundStub() *SoundStub {
	return &SoundStub{last: make(map[uint32]byte)}
}

func (s *SoundStub) Read(addr uint32) byte {
	return openBus
}

func (s *SoundStub) Write(addr uint32, value byte) {
	s.mu.Lock()
	if _, seen := s.last[addr]; !seen {
		s.order = append(s.order, addr)
	}
	s.last[addr] = value
	s.writes++
	s.mu.Unlock()
}

func (s *SoundStub) Tick(cycles int) {}

func (s *SoundStub) InterruptPending() bool {
	return false
}

// Writes counts register writes since construction.
func (s *SoundStub) Writes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Last returns the most recent value written to reg.
func (s *SoundStub) Last(reg uint32) (byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.last[reg]
	return v, ok
}

// Registers lists the registers written so far in first-write order.
func (s *SoundStub) Registers() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.order...)
}

// Streamed reports how many PCM bytes the host has pulled.
func (s *SoundStub) Streamed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamed
}

// Stream returns the stub's PCM output. It is safe to read from the host
// audio goroutine.
func (s *SoundStub) Stream() io.Reader {
	return soundStream{s}
}

type soundStream struct {
	s *SoundStub
}

// Read fills p with whole frames of silence.
func (r soundStream) Read(p []byte) (int, error) {
	n := len(p) - len(p)%SOUND_FRAME_BYTES
	clear(p[:n])
	r.s.mu.Lock()
	r.s.streamed += uint64(n)
	r.s.mu.Unlock()
	return n, nil
}
