package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Gabepowell344/bizhawk/internal/emu"
	"github.com/Gabepowell344/bizhawk/internal/logger"
)

// machineFlags are shared by every subcommand that builds a machine.
type machineFlags struct {
	Exec       string
	GROM       string
	ROM        string
	SampleRate int
	Slice      int
	Verbose    bool
}

func (f *machineFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.Exec, "exec", "exec.bin", "path to the 8 KiB executive ROM")
	fs.StringVar(&f.GROM, "grom", "grom.bin", "path to the 2 KiB graphics ROM")
	fs.StringVar(&f.ROM, "rom", "", "path to the cartridge image")
	fs.IntVar(&f.SampleRate, "sample-rate", 0, "audio rate in Hz (0 = default)")
	fs.IntVar(&f.Slice, "slice", 0, "max CPU cycles between arbitration points (0 = default)")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "echo the log to stderr")
}

// build loads the firmware and cartridge and returns a powered-on machine.
// tracer may be nil.
func (f *machineFlags) build(tracer func(pc uint16)) (*emu.Machine, error) {
	if f.Verbose {
		logger.SetEcho(os.Stderr)
	}
	if f.ROM == "" {
		return nil, fmt.Errorf("--rom is required")
	}
	exec, err := os.ReadFile(f.Exec)
	if err != nil {
		return nil, fmt.Errorf("read exec: %w", err)
	}
	grom, err := os.ReadFile(f.GROM)
	if err != nil {
		return nil, fmt.Errorf("read grom: %w", err)
	}
	rom, err := os.ReadFile(f.ROM)
	if err != nil {
		return nil, fmt.Errorf("read rom: %w", err)
	}
	cfg := emu.Config{SampleRate: f.SampleRate, Slice: f.Slice, Tracer: tracer}
	return emu.New(cfg, exec, grom, rom)
}

// gameName is the cartridge file name without directory or extension.
func (f *machineFlags) gameName() string {
	base := filepath.Base(f.ROM)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// savePath is where battery RAM is kept, next to the image.
func (f *machineFlags) savePath() string {
	return strings.TrimSuffix(f.ROM, filepath.Ext(f.ROM)) + ".sav"
}

func main() {
	var mf machineFlags
	root := &cobra.Command{
		Use:           "intvemu",
		Short:         "Intellivision emulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	mf.register(root.PersistentFlags())

	root.AddCommand(
		runCmd(&mf),
		headlessCmd(&mf),
		infoCmd(&mf),
		traceCmd(&mf),
		verifyCmd(&mf),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error:"), err)
		os.Exit(1)
	}
}
