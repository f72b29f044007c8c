package oxid

/*
config.go - Machine configuration

Core Features:

    MachineConfig carries everything a machine constructor and the host
    front end need: model, ROM, RAM size and mirroring, 68000 illegal
    opcode policy and the host options (scale, audio, headless, script,
    WAV capture, statistics server).
    DefaultConfig fills in per-model defaults; Validate rejects
    combinations the hardware never had.
    ParseSize accepts "4M", "512K", "0x80000" or plain decimal.
*/

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	ModelMacPlus  = "mac"
	ModelSMS      = "sms"
	ModelSpectrum = "spectrum"
)

// Models lists the machines NewMachine can build.
var Models = []string{ModelMacPlus, ModelSMS, ModelSpectrum}

// Mac Plus boards shipped with these RAM sizes.
var macRAMSizes = []int{128 << 10, 512 << 10, 1 << 20, 2 << 20, 2560 << 10, 4 << 20}

const (
	SMS_RAM_SIZE      = 8 << 10
	SPECTRUM_RAM_SIZE = 48 << 10
)

type MachineConfig struct {
	Model   string
	ROMPath string

	RAMSize int
	// RAM below this size mirrors across its window (Mac only)
	MirrorThreshold int
	IllegalPolicy   M68KIllegalPolicy

	// Host options
	Scale      int
	Audio      bool
	Headless   bool
	ScriptPath string
	WAVPath    string
	StatsView  bool
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s=%q: %s", e.Field, e.Value, e.Reason)
}

// DefaultConfig returns the stock configuration of model.
func DefaultConfig(model string) MachineConfig {
	cfg := MachineConfig{
		Model:         model,
		Scale:         2,
		Audio:         true,
		IllegalPolicy: M68KHaltIllegal,
	}
	switch model {
	case ModelMacPlus:
		cfg.RAMSize = 4 << 20
		cfg.MirrorThreshold = MacMirrorThreshold
		cfg.Scale = 1
	case ModelSMS:
		cfg.RAMSize = SMS_RAM_SIZE
	case ModelSpectrum:
		cfg.RAMSize = SPECTRUM_RAM_SIZE
	}
	return cfg
}

// Validate checks the model, its RAM size and, when requireROM is set, that
// a ROM path was given.
func (c *MachineConfig) Validate(requireROM bool) error {
	if !slices.Contains(Models, c.Model) {
		return &ConfigError{Field: "model", Value: c.Model, Reason: "unknown model, want one of " + strings.Join(Models, "|")}
	}
	size := strconv.Itoa(c.RAMSize)
	switch c.Model {
	case ModelMacPlus:
		if !slices.Contains(macRAMSizes, c.RAMSize) {
			return &ConfigError{Field: "ram", Value: size, Reason: "not a Mac Plus RAM size"}
		}
	case ModelSMS:
		if c.RAMSize != SMS_RAM_SIZE {
			return &ConfigError{Field: "ram", Value: size, Reason: "the Master System has 8K"}
		}
	case ModelSpectrum:
		if c.RAMSize != SPECTRUM_RAM_SIZE {
			return &ConfigError{Field: "ram", Value: size, Reason: "the Spectrum 48K has 48K"}
		}
	}
	if c.MirrorThreshold < 0 {
		return &ConfigError{Field: "mirror", Value: strconv.Itoa(c.MirrorThreshold), Reason: "negative threshold"}
	}
	if c.Scale < 1 || c.Scale > 8 {
		return &ConfigError{Field: "scale", Value: strconv.Itoa(c.Scale), Reason: "want 1-8"}
	}
	if requireROM && c.ROMPath == "" {
		return &ConfigError{Field: "rom", Reason: "no ROM image given"}
	}
	return nil
}

// ParseSize parses a byte count with an optional K or M suffix. Hex and
// octal prefixes are accepted as by strconv.
func ParseSize(value string) (int, error) {
	s := strings.TrimSpace(value)
	mult := 1
	if n := len(s); n > 0 && !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		switch s[n-1] {
		case 'k', 'K':
			mult, s = 1<<10, s[:n-1]
		case 'm', 'M':
			mult, s = 1<<20, s[:n-1]
		}
	}
	parsed, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("size %q: %w", value, err)
	}
	if parsed*uint64(mult) > 1<<30 {
		return 0, fmt.Errorf("size %q: value out of range", value)
	}
	return int(parsed) * mult, nil
}
