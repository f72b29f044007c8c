package main

import (
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/intuitionamiga/oxid"
)

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags("oxid", []string{"game.rom"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	cfg := opts.cfg
	if cfg.Model != oxid.ModelSpectrum || cfg.ROMPath != "game.rom" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RAMSize != oxid.SPECTRUM_RAM_SIZE || cfg.Scale != 2 || !cfg.Audio {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if opts.logEcho {
		t.Fatalf("log echo on by default")
	}
}

func TestParseFlags_MacOptions(t *testing.T) {
	args := []string{"-model", "mac", "-ram", "512K", "-trap-illegal", "-headless", "-log", "-script", "boot.lua", "plus.rom"}
	opts, err := parseFlags("oxid", args, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	cfg := opts.cfg
	if cfg.Model != oxid.ModelMacPlus || cfg.RAMSize != 512<<10 {
		t.Fatalf("model/ram = %s/%d", cfg.Model, cfg.RAMSize)
	}
	if cfg.IllegalPolicy != oxid.M68KTrapIllegal {
		t.Fatalf("illegal policy not set")
	}
	if !cfg.Headless || cfg.Audio {
		t.Fatalf("headless runs without audio: %+v", cfg)
	}
	if cfg.ScriptPath != "boot.lua" || !opts.logEcho {
		t.Fatalf("script/log not set: %+v", opts)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"no rom", []string{"-model", "sms"}, "rom"},
		{"two roms", []string{"a.rom", "b.rom"}, "rom"},
		{"unknown model", []string{"-model", "c64", "a.rom"}, "model"},
		{"bad size", []string{"-model", "mac", "-ram", "lots", "a.rom"}, "ram"},
		{"odd mac ram", []string{"-model", "mac", "-ram", "3M", "a.rom"}, "ram"},
		{"sms ram", []string{"-model", "sms", "-ram", "16K", "a.rom"}, "ram"},
		{"scale", []string{"-scale", "9", "a.rom"}, "scale"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseFlags("oxid", tc.args, io.Discard)
			var cerr *oxid.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("err = %v, want ConfigError", err)
			}
			if cerr.Field != tc.field {
				t.Fatalf("field %q, want %q", cerr.Field, tc.field)
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	_, err := parseFlags("oxid", []string{"-h"}, io.Discard)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("err = %v, want flag.ErrHelp", err)
	}
}
