package main

import (
	"sync"

	"github.com/intuitionamiga/oxid"
)

// Typed characters are held long enough for a keyboard scan to catch
// them, then released with a gap before the next one.
const (
	TYPER_HOLD_FRAMES = 3
	TYPER_GAP_FRAMES  = 2
	TYPER_MAX_PENDING = 4096
)

type typedKey struct {
	key   oxid.Key
	shift bool
}

// Typer turns host text (clipboard paste, terminal bytes) into timed key
// presses. Type is safe from any goroutine; Tick runs on the emulation
// goroutine once per frame.
type Typer struct {
	mu    sync.Mutex
	queue []typedKey
	held  *typedKey
	wait  int
}

// Type queues the characters of s that have a key. It returns how many
// were queued.
func (t *Typer) Type(s string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range s {
		if len(t.queue) >= TYPER_MAX_PENDING {
			break
		}
		k, shift, ok := oxid.KeyForRune(r)
		if !ok {
			continue
		}
		t.queue = append(t.queue, typedKey{key: k, shift: shift})
		n++
	}
	return n
}

// TypeKeys queues already translated keys.
func (t *Typer) TypeKeys(keys []typedKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	room := TYPER_MAX_PENDING - len(t.queue)
	if len(keys) > room {
		keys = keys[:max(room, 0)]
	}
	t.queue = append(t.queue, keys...)
}

// Pending reports whether characters are still being typed.
func (t *Typer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue) > 0 || t.held != nil
}

func (t *Typer) Tick(m oxid.Machine) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.wait > 0 {
		t.wait--
		return
	}
	if t.held != nil {
		m.KeyUp(t.held.key)
		if t.held.shift {
			m.KeyUp(oxid.KeyShift)
		}
		t.held = nil
		t.wait = TYPER_GAP_FRAMES
		return
	}
	if len(t.queue) == 0 {
		return
	}
	k := t.queue[0]
	t.queue = t.queue[1:]
	if k.shift {
		m.KeyDown(oxid.KeyShift)
	}
	m.KeyDown(k.key)
	t.held = &k
	t.wait = TYPER_HOLD_FRAMES
}

// normalizePasteText folds CR LF and lone CR line endings into LF.
func normalizePasteText(raw []byte) []byte {
	norm := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\r' {
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
			norm = append(norm, '\n')
			continue
		}
		norm = append(norm, raw[i])
	}
	return norm
}
