package wavwriter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWavWriter_WritesPCM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	ww, err := New(path, 44100)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ww.Append([]int16{0, 1000, -1000})
	ww.Append([]int16{32767})
	if ww.Len() != 4 {
		t.Fatalf("len got %d want 4", ww.Len())
	}
	if err := ww.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		t.Fatalf("not a valid wav file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.SampleRate != 44100 || d.NumChans != 1 || d.BitDepth != 16 {
		t.Fatalf("format %d Hz %d ch %d bit", d.SampleRate, d.NumChans, d.BitDepth)
	}
	want := []int{0, 1000, -1000, 32767}
	if len(buf.Data) != len(want) {
		t.Fatalf("samples got %v want %v", buf.Data, want)
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Fatalf("sample %d got %d want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestWavWriter_BadRate(t *testing.T) {
	if _, err := New("x.wav", 0); err == nil {
		t.Fatalf("zero sample rate accepted")
	}
}
