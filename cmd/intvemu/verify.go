package main

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// run is the observable outcome of one machine run.
type run struct {
	state []byte
	video uint32
	audio uint32
}

func verifyCmd(mf *machineFlags) *cobra.Command {
	var frames int
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run two machines side by side and check they agree",
		Long: "verify runs two independent machines on the same inputs, then a third " +
			"that is saved and restored halfway, and fails if their states differ.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var runs [3]run
			g, ctx := errgroup.WithContext(cmd.Context())
			for i := range runs {
				i := i
				g.Go(func() error {
					r, err := verifyRun(ctx, mf, frames, i == 2)
					runs[i] = r
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for i := 1; i < len(runs); i++ {
				if runs[i].video != runs[0].video || runs[i].audio != runs[0].audio ||
					!bytes.Equal(runs[i].state, runs[0].state) {
					return fmt.Errorf("run %d diverged: video %08x/%08x audio %08x/%08x",
						i, runs[i].video, runs[0].video, runs[i].audio, runs[0].audio)
				}
			}
			fmt.Println(okStyle.Render("ok"), fmt.Sprintf("%d frames, state %08x", frames, crc32.ChecksumIEEE(runs[0].state)))
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 600, "frames to run")
	return cmd
}

func verifyRun(ctx context.Context, mf *machineFlags, frames int, roundTrip bool) (run, error) {
	m, err := mf.build(nil)
	if err != nil {
		return run{}, err
	}
	defer m.Close()

	audio := crc32.NewIEEE()
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return run{}, err
		}
		if roundTrip && i == frames/2 {
			blob, err := m.SaveState()
			if err != nil {
				return run{}, err
			}
			if err := m.LoadState(blob); err != nil {
				return run{}, err
			}
		}
		if err := m.AdvanceFrame(true, true); err != nil {
			return run{}, err
		}
		for _, s := range m.AudioSamples() {
			audio.Write([]byte{byte(s), byte(s >> 8)})
		}
	}
	state, err := m.SaveState()
	if err != nil {
		return run{}, err
	}
	return run{
		state: state,
		video: crc32.ChecksumIEEE(m.VideoFrame().Pix),
		audio: audio.Sum32(),
	}, nil
}
