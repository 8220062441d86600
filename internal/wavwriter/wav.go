// Package wavwriter captures PCM from a core and writes it as a WAV file.
// Samples are buffered in memory in their entirety and written on Close, so
// it is only suitable for short headless runs and tests.
package wavwriter

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Gabepowell344/bizhawk/internal/logger"
)

type WavWriter struct {
	filename   string
	sampleRate int
	buffer     []int
}

func New(filename string, sampleRate int) (*WavWriter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wavwriter: bad sample rate %d", sampleRate)
	}
	return &WavWriter{filename: filename, sampleRate: sampleRate}, nil
}

// Append queues mono 16-bit samples.
func (ww *WavWriter) Append(samples []int16) {
	for _, s := range samples {
		ww.buffer = append(ww.buffer, int(s))
	}
}

// Len is the number of samples queued.
func (ww *WavWriter) Len() int { return len(ww.buffer) }

// Close writes the file.
func (ww *WavWriter) Close() (rerr error) {
	f, err := os.Create(ww.filename)
	if err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wavwriter: %w", err)
		}
	}()

	enc := wav.NewEncoder(f, ww.sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: ww.sampleRate},
		Data:           ww.buffer,
		SourceBitDepth: 16,
	}
	logger.Logf("wavwriter", "writing %d samples to %s", len(ww.buffer), ww.filename)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavwriter: %w", err)
	}
	return nil
}
