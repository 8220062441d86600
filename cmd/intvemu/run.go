package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/Gabepowell344/bizhawk/internal/logger"
	"github.com/Gabepowell344/bizhawk/internal/ui"
)

func runCmd(mf *machineFlags) *cobra.Command {
	var cfg ui.Config
	var saveRAM bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play in a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.build(nil)
			if err != nil {
				return err
			}
			defer m.Close()

			if saveRAM {
				if b, err := os.ReadFile(mf.savePath()); err == nil {
					if err := m.WriteSaveRAM(b); err != nil {
						logger.Logf("run", "ignoring %s: %v", mf.savePath(), err)
					}
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			cfg.GameName = mf.gameName()
			app, err := ui.NewApp(cfg, m)
			if err != nil {
				return err
			}
			if err := app.Run(); err != nil {
				return err
			}

			if b := m.ReadSaveRAM(); saveRAM && len(b) > 0 {
				if err := os.WriteFile(mf.savePath(), b, 0o644); err != nil {
					return err
				}
				logger.Logf("run", "wrote %s", mf.savePath())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Scale, "scale", 3, "window scale")
	cmd.Flags().StringVar(&cfg.Title, "title", "intvemu", "window title")
	cmd.Flags().IntVar(&cfg.AudioBufferMs, "audio-buffer", 60, "audio buffer in ms")
	cmd.Flags().BoolVar(&cfg.Muted, "mute", false, "start muted")
	cmd.Flags().StringVar(&cfg.StateDir, "states", "states", "directory for save state slots")
	cmd.Flags().BoolVar(&saveRAM, "save", true, "persist battery RAM to ROM.sav on exit and load on start")
	return cmd
}
