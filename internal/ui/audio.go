package ui

import (
	"encoding/binary"
	"sync"
)

// pcmStream implements io.Reader for the ebiten audio player. The game loop
// pushes mono samples after each frame; Read duplicates them to 16-bit
// little-endian stereo.
type pcmStream struct {
	mu    sync.Mutex
	buf   []int16
	limit int // samples kept before the oldest are dropped
	muted bool

	underruns int
}

func newPCMStream(limit int) *pcmStream {
	return &pcmStream{limit: limit}
}

// Push appends samples, dropping the oldest beyond the limit so latency
// stays bounded during fast-forward.
func (s *pcmStream) Push(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, samples...)
	if over := len(s.buf) - s.limit; over > 0 {
		s.buf = append(s.buf[:0], s.buf[over:]...)
	}
}

func (s *pcmStream) SetMuted(m bool) {
	s.mu.Lock()
	s.muted = m
	s.mu.Unlock()
}

// Buffered is the number of mono samples waiting.
func (s *pcmStream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

func (s *pcmStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := len(p) / 4
	if frames == 0 {
		clear(p)
		return len(p), nil
	}
	n := min(frames, len(s.buf))
	if n == 0 {
		// keep the player fed with a little silence
		s.underruns++
		n = min(frames, 256)
		clear(p[:n*4])
		return n * 4, nil
	}
	for i, v := range s.buf[:n] {
		if s.muted {
			v = 0
		}
		binary.LittleEndian.PutUint16(p[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(v))
	}
	s.buf = append(s.buf[:0], s.buf[n:]...)
	return n * 4, nil
}
