package oxid

/*
video_frame.go - RGBA frame buffers and host snapshots

Core Features:

    Packed little-endian RGBA pixels written as single uint32 stores.
    FrameSnapshot: the mutex-guarded frame copy a host front end reads
    from its own goroutine while the machine keeps running.
    KeyQueue: host key events queued for the emulation thread.
*/

import (
	"sync"
	"unsafe"
)

// FrameSource is implemented by the video devices.
type FrameSource interface {
	Frame() []byte
	FrameSize() (w, h int)
}

// packRGBA packs a colour in the byte order of an RGBA frame buffer.
func packRGBA(r, g, b uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | 0xFF000000
}

func putPixel(buf []byte, off int, c uint32) {
	*(*uint32)(unsafe.Pointer(&buf[off])) = c
}

func fillPixels(buf []byte, c uint32) {
	for i := 0; i+4 <= len(buf); i += 4 {
		putPixel(buf, i, c)
	}
}

// FrameSnapshot holds the latest frame published by the emulation thread.
type FrameSnapshot struct {
	mu   sync.Mutex
	buf  []byte
	w, h int
	seq  uint64
}

// Publish copies frame into the snapshot.
func (s *FrameSnapshot) Publish(frame []byte, w, h int) {
	s.mu.Lock()
	if len(s.buf) != len(frame) {
		s.buf = make([]byte, len(frame))
	}
	copy(s.buf, frame)
	s.w, s.h = w, h
	s.seq++
	s.mu.Unlock()
}

// CopyTo copies the latest frame into dst, growing it as needed, and
// returns it with its size and publish sequence number.
func (s *FrameSnapshot) CopyTo(dst []byte) ([]byte, int, int, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap(dst) < len(s.buf) {
		dst = make([]byte, len(s.buf))
	}
	dst = dst[:len(s.buf)]
	copy(dst, s.buf)
	return dst, s.w, s.h, s.seq
}

// KeyEvent is one host key transition.
type KeyEvent struct {
	Key  Key
	Down bool
}

// KeyQueue carries key events from a host goroutine to the machine.
type KeyQueue struct {
	mu     sync.Mutex
	events []KeyEvent
}

func (q *KeyQueue) Push(k Key, down bool) {
	q.mu.Lock()
	q.events = append(q.events, KeyEvent{Key: k, Down: down})
	q.mu.Unlock()
}

// Drain removes and returns everything queued so far.
func (q *KeyQueue) Drain() []KeyEvent {
	q.mu.Lock()
	out := q.events
	q.events = nil
	q.mu.Unlock()
	return out
}

// Apply drains the queue into m.
func (q *KeyQueue) Apply(m Machine) {
	for _, ev := range q.Drain() {
		if ev.Down {
			m.KeyDown(ev.Key)
		} else {
			m.KeyUp(ev.Key)
		}
	}
}
