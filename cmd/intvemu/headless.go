package main

import (
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Gabepowell344/bizhawk/internal/core"
	"github.com/Gabepowell344/bizhawk/internal/emu"
	"github.com/Gabepowell344/bizhawk/internal/wavwriter"
)

type headlessFlags struct {
	Frames    int
	PNGOut    string
	WAVOut    string
	Expect    string // expected framebuffer CRC32 hex
	StateOut  string
	StateIn   string
	HoldInput []string
}

func headlessCmd(mf *machineFlags) *cobra.Command {
	var hf headlessFlags
	cmd := &cobra.Command{
		Use:   "headless",
		Short: "Run without a window and report the final frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.build(nil)
			if err != nil {
				return err
			}
			defer m.Close()
			return runHeadless(m, hf)
		},
	}
	cmd.Flags().IntVar(&hf.Frames, "frames", 300, "frames to run")
	cmd.Flags().StringVar(&hf.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	cmd.Flags().StringVar(&hf.WAVOut, "outwav", "", "write all audio to a WAV file")
	cmd.Flags().StringVar(&hf.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	cmd.Flags().StringVar(&hf.StateIn, "load-state", "", "load a save state before running")
	cmd.Flags().StringVar(&hf.StateOut, "save-state", "", "write a save state after running")
	cmd.Flags().StringSliceVar(&hf.HoldInput, "hold", nil, "buttons held for the whole run (e.g. \"P1 Key1\")")
	return cmd
}

func runHeadless(m *emu.Machine, hf headlessFlags) error {
	if hf.StateIn != "" {
		b, err := os.ReadFile(hf.StateIn)
		if err != nil {
			return err
		}
		if err := m.LoadState(b); err != nil {
			return fmt.Errorf("load state: %w", err)
		}
	}

	var wav *wavwriter.WavWriter
	if hf.WAVOut != "" {
		w, err := wavwriter.New(hf.WAVOut, m.SampleRate())
		if err != nil {
			return err
		}
		wav = w
	}

	in := core.Pressed(hf.HoldInput...)
	frames := max(hf.Frames, 1)
	start := time.Now()
	for i := 0; i < frames; i++ {
		m.SetInputs(in)
		if err := m.AdvanceFrame(i == frames-1, wav != nil); err != nil {
			return err
		}
		if wav != nil {
			wav.Append(m.AudioSamples())
		}
	}
	dur := time.Since(start)

	v := m.VideoFrame()
	crc := crc32.ChecksumIEEE(v.Pix)
	fmt.Printf("headless: frames=%d elapsed=%s fps=%.2f lag=%d fb_crc32=%08x\n",
		frames, dur.Truncate(time.Millisecond), float64(frames)/dur.Seconds(), m.LagCount(), crc)

	if wav != nil {
		if err := wav.Close(); err != nil {
			return fmt.Errorf("write WAV: %w", err)
		}
	}
	if hf.PNGOut != "" {
		if err := saveFramePNG(v.Pix, v.Width, v.Height, hf.PNGOut); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
	}
	if hf.StateOut != "" {
		b, err := m.SaveState()
		if err != nil {
			return err
		}
		if err := os.WriteFile(hf.StateOut, b, 0o644); err != nil {
			return err
		}
	}

	if hf.Expect != "" {
		want := strings.TrimPrefix(strings.ToLower(hf.Expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{
		Pix:    make([]byte, len(pix)),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	copy(img.Pix, pix)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
