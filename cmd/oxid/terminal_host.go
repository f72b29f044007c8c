package main

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/intuitionamiga/oxid"
)

// TerminalHost reads stdin and types it into the machine. A terminal is
// put in raw mode; piped input is typed as it arrives. Ctrl+C ends the
// session, end of input does not.
type TerminalHost struct {
	typer        *Typer
	done         chan struct{}
	closeOnce    sync.Once
	fd           int
	oldTermState *term.State
}

func NewTerminalHost(typer *Typer) *TerminalHost {
	return &TerminalHost{
		typer: typer,
		done:  make(chan struct{}),
	}
}

// Done is closed when Ctrl+C is read.
func (h *TerminalHost) Done() <-chan struct{} {
	return h.done
}

func (h *TerminalHost) Start() error {
	h.fd = int(os.Stdin.Fd())
	if term.IsTerminal(h.fd) {
		oldState, err := term.MakeRaw(h.fd)
		if err != nil {
			return fmt.Errorf("terminal host: raw mode: %w", err)
		}
		h.oldTermState = oldState
	}

	go func() {
		buf := make([]byte, 256)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				keys, quit := decodeTerminalInput(buf[:n])
				h.typer.TypeKeys(keys)
				if quit {
					h.finish()
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

func (h *TerminalHost) finish() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Stop restores the terminal. The read goroutine ends with the process.
func (h *TerminalHost) Stop() {
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
	h.finish()
}

// ANSI cursor key final bytes after ESC [
var terminalArrows = map[byte]oxid.Key{
	'A': oxid.KeyUp,
	'B': oxid.KeyDown,
	'C': oxid.KeyRight,
	'D': oxid.KeyLeft,
}

// decodeTerminalInput translates raw terminal bytes into keys. Raw mode
// sends CR for Enter and DEL for Backspace; cursor keys arrive as
// ESC [ A-D. quit reports a Ctrl+C.
func decodeTerminalInput(b []byte) (keys []typedKey, quit bool) {
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == 0x03:
			return keys, true
		case c == 0x1B && i+2 < len(b) && b[i+1] == '[':
			if k, ok := terminalArrows[b[i+2]]; ok {
				keys = append(keys, typedKey{key: k})
				i += 2
				continue
			}
		}
		if k, shift, ok := oxid.KeyForRune(rune(c)); ok {
			keys = append(keys, typedKey{key: k, shift: shift})
		}
	}
	return keys, false
}
