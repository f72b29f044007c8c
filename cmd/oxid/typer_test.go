package main

import (
	"testing"

	"github.com/intuitionamiga/oxid"
)

type keyRecorder struct {
	oxid.Machine
	events []oxid.KeyEvent
}

func (r *keyRecorder) KeyDown(k oxid.Key) { r.events = append(r.events, oxid.KeyEvent{Key: k, Down: true}) }
func (r *keyRecorder) KeyUp(k oxid.Key)   { r.events = append(r.events, oxid.KeyEvent{Key: k, Down: false}) }

func TestTyper_Sequence(t *testing.T) {
	var typer Typer
	if n := typer.Type("aBé"); n != 2 {
		t.Fatalf("queued %d characters, want 2", n)
	}
	rec := &keyRecorder{}
	for range 12 {
		typer.Tick(rec)
	}
	want := []oxid.KeyEvent{
		{Key: oxid.KeyA, Down: true},
		{Key: oxid.KeyA, Down: false},
		{Key: oxid.KeyShift, Down: true},
		{Key: oxid.KeyB, Down: true},
		{Key: oxid.KeyB, Down: false},
		{Key: oxid.KeyShift, Down: false},
	}
	if len(rec.events) != len(want) {
		t.Fatalf("events %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, rec.events[i], want[i])
		}
	}
	if typer.Pending() {
		t.Fatalf("typer still pending")
	}
}

func TestTyper_HoldsKeyAcrossFrames(t *testing.T) {
	var typer Typer
	typer.Type("z")
	rec := &keyRecorder{}
	for range TYPER_HOLD_FRAMES + 1 {
		typer.Tick(rec)
	}
	if len(rec.events) != 1 || !rec.events[0].Down {
		t.Fatalf("key released early: %v", rec.events)
	}
	typer.Tick(rec)
	if len(rec.events) != 2 || rec.events[1].Down {
		t.Fatalf("key not released: %v", rec.events)
	}
}

func TestTyper_Limit(t *testing.T) {
	var typer Typer
	keys := make([]typedKey, TYPER_MAX_PENDING+10)
	typer.TypeKeys(keys)
	typer.TypeKeys(keys[:1])
	if n := typer.Type("abc"); n != 0 {
		t.Fatalf("queued %d past the limit", n)
	}
	if len(typer.queue) != TYPER_MAX_PENDING {
		t.Fatalf("queue length %d", len(typer.queue))
	}
}

func TestNormalizePasteText(t *testing.T) {
	got := normalizePasteText([]byte("a\r\nb\rc\n"))
	if string(got) != "a\nb\nc\n" {
		t.Fatalf("got %q", got)
	}
}
