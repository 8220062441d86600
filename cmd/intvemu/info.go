package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func infoCmd(mf *machineFlags) *cobra.Command {
	var frames int
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the cartridge and the machine's memory map",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.build(nil)
			if err != nil {
				return err
			}
			defer m.Close()

			fmt.Println(headStyle.Render("Cartridge"))
			fmt.Println(field("file", mf.ROM))
			fmt.Println(field("mapper", m.CartridgeName()))
			fmt.Println(field("save RAM", fmt.Sprintf("%d bytes", len(m.ReadSaveRAM()))))

			fmt.Println(headStyle.Render("Memory domains"))
			for _, d := range m.MemoryDomains().All() {
				fmt.Println(field(d.Name(), fmt.Sprintf("%6d bytes  %s", d.Size(), d.Endian())))
			}

			for i := 0; i < frames; i++ {
				if err := m.AdvanceFrame(false, false); err != nil {
					return err
				}
			}
			if frames > 0 {
				st := m.CPUStats()
				last := m.LastFrame()
				fmt.Println(headStyle.Render(fmt.Sprintf("After %d frames", frames)))
				fmt.Println(field("instructions", st.Instructions))
				fmt.Println(field("interrupts", st.Interrupts))
				fmt.Println(field("stalled cycles", st.StalledCycles))
				fmt.Println(field("bus reads", m.BusStats().Reads))
				fmt.Println(field("bus writes", m.BusStats().Writes))
				fmt.Println(field("lag frames", m.LagCount()))
				fmt.Println(field("last frame", fmt.Sprintf("budget=%d carry_in=%d consumed=%d carry=%d",
					last.Budget, last.CarryIn, last.Consumed, last.Carry)))
				fmt.Println(field("pc", fmt.Sprintf("$%04X", m.PC())))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 60, "frames to run before reporting counters")
	return cmd
}
