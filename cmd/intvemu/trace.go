package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Gabepowell344/bizhawk/internal/emu"
)

func traceCmd(mf *machineFlags) *cobra.Command {
	var (
		frames int
		limit  int
		from   int
	)
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print every executed instruction",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := bufio.NewWriter(os.Stdout)
			defer out.Flush()

			var m *emu.Machine
			count := 0
			tracer := func(pc uint16) {
				count++
				if count <= from || (limit > 0 && count > limit+from) {
					return
				}
				text, _ := m.Disassemble(pc)
				fmt.Fprintf(out, "%8d %s  %s\n", count, pcStyle.Render(fmt.Sprintf("$%04X", pc)), text)
			}
			var err error
			m, err = mf.build(tracer)
			if err != nil {
				return err
			}
			defer m.Close()

			for i := 0; i < frames; i++ {
				if limit > 0 && count > limit+from {
					break
				}
				if err := m.AdvanceFrame(false, false); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 1, "frames to run")
	cmd.Flags().IntVar(&from, "skip", 0, "instructions to skip before printing")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop printing after this many instructions (0 = no limit)")
	return cmd
}
