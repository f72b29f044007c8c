// main.go - oxid command line front end

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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/intuitionamiga/oxid"
	"github.com/intuitionamiga/oxid/logger"
)

func boilerPlate() {
	fmt.Println("\noxid: Macintosh Plus, Sega Master System and ZX Spectrum 48K")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("License: GPLv3 or later")
}

// options holds everything parsed from the command line.
type options struct {
	cfg     oxid.MachineConfig
	logEcho bool
}

// parseFlags turns args (without the program name) into a validated
// configuration. flag.ErrHelp is returned untouched for -h.
func parseFlags(name string, args []string, usageOut io.Writer) (options, error) {
	var (
		model       string
		ramSize     string
		scale       int
		headless    bool
		noAudio     bool
		script      string
		wavPath     string
		stats       bool
		logEcho     bool
		trapIllegal bool
	)

	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&model, "model", oxid.ModelSpectrum, "Machine to emulate ("+strings.Join(oxid.Models, "|")+")")
	flagSet.StringVar(&ramSize, "ram", "", "RAM size, e.g. 4M, 512K or 0x80000 (Mac only, default per model)")
	flagSet.IntVar(&scale, "scale", 0, "Window scale factor 1-8 (default per model)")
	flagSet.BoolVar(&headless, "headless", false, "Run without a window; stdin drives the keyboard")
	flagSet.BoolVar(&noAudio, "no-audio", false, "Disable audio output")
	flagSet.StringVar(&script, "script", "", "Lua script to run before the first frame")
	flagSet.StringVar(&wavPath, "wav", "", "Capture the sound output to a WAV file")
	flagSet.BoolVar(&stats, "statsview", false, "Serve runtime statistics at "+statsAddress+statsURL)
	flagSet.BoolVar(&logEcho, "log", false, "Echo the diagnostic log to stderr")
	flagSet.BoolVar(&trapIllegal, "trap-illegal", false, "68000: take the illegal instruction exception instead of halting")
	flagSet.Usage = func() {
		flagSet.SetOutput(usageOut)
		fmt.Fprintf(usageOut, "Usage: %s [-model %s] [options] rom\n", name, strings.Join(oxid.Models, "|"))
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return options{}, &oxid.ConfigError{Field: "rom", Reason: "want exactly one ROM image"}
	}

	cfg := oxid.DefaultConfig(model)
	cfg.ROMPath = flagSet.Arg(0)
	if ramSize != "" {
		n, err := oxid.ParseSize(ramSize)
		if err != nil {
			return options{}, &oxid.ConfigError{Field: "ram", Value: ramSize, Reason: err.Error()}
		}
		cfg.RAMSize = n
	}
	if scale != 0 {
		cfg.Scale = scale
	}
	if trapIllegal {
		cfg.IllegalPolicy = oxid.M68KTrapIllegal
	}
	cfg.Headless = headless
	cfg.Audio = !noAudio && !headless
	cfg.ScriptPath = script
	cfg.WAVPath = wavPath
	cfg.StatsView = stats

	if err := cfg.Validate(true); err != nil {
		return options{}, err
	}
	return options{cfg: cfg, logEcho: logEcho}, nil
}

func main() {
	opts, err := parseFlags(os.Args[0], os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if err := run(opts); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := opts.cfg
	if opts.logEcho {
		logger.SetEcho(os.Stderr)
		defer logger.SetEcho(nil)
	}
	if !cfg.Headless {
		boilerPlate()
	}

	rom, err := os.ReadFile(cfg.ROMPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}
	machine, err := oxid.NewMachine(cfg, rom)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := NewRunner(machine)

	if cfg.ScriptPath != "" {
		script := oxid.NewScript(machine, os.Stdout)
		defer script.Close()
		script.SetContext(ctx)
		if err := script.DoFile(cfg.ScriptPath); err != nil {
			return err
		}
		runner.script = script
	}
	if cfg.WAVPath != "" {
		capture, err := NewWAVCapture(cfg.WAVPath, machine.Sound().Stream(), machine.FrameRate())
		if err != nil {
			return err
		}
		defer func() {
			if err := capture.Close(); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}()
		runner.capture = capture
	}
	if cfg.StatsView {
		launchStatsView(os.Stdout)
	}
	if cfg.Audio {
		player, err := NewAudioOutput(machine.Sound().Stream())
		if err != nil {
			// a machine without sound still runs
			logger.Logf(logger.Allow, "audio", "disabled: %v", err)
		} else {
			defer player.Close()
			player.Start()
		}
	}

	if cfg.Headless {
		host := NewTerminalHost(runner.Typer())
		if err := host.Start(); err != nil {
			return err
		}
		defer host.Stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-host.Done():
				cancel()
			case <-ctx.Done():
			}
		}()
		return runner.Run(ctx)
	}
	return runWindow(ctx, runner, cfg.Scale)
}
