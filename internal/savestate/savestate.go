// Package savestate frames component states into one versioned blob.
//
// Layout, all integers big-endian:
//
//	"IVSS" | version u16 | sections u16 | total length u32
//	sections x { tag [4]byte | length u32 | payload }
//
// The total length covers the whole blob including the header.
package savestate

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/Gabepowell344/bizhawk/internal/faults"
)

const (
	Magic   = "IVSS"
	Version = 1

	headerSize  = 12
	sectionHead = 8
)

// Section is one tagged payload.
type Section struct {
	Tag  string
	Data []byte
}

// Encode writes sections in the order given. Tags must be four bytes.
func Encode(sections []Section) ([]byte, error) {
	total := headerSize
	for _, s := range sections {
		if len(s.Tag) != 4 {
			return nil, faults.State("tag %q is not four bytes", s.Tag)
		}
		total += sectionHead + len(s.Data)
	}
	out := make([]byte, 0, total)
	out = append(out, Magic...)
	out = binary.BigEndian.AppendUint16(out, Version)
	out = binary.BigEndian.AppendUint16(out, uint16(len(sections)))
	out = binary.BigEndian.AppendUint32(out, uint32(total))
	for _, s := range sections {
		out = append(out, s.Tag...)
		out = binary.BigEndian.AppendUint32(out, uint32(len(s.Data)))
		out = append(out, s.Data...)
	}
	return out, nil
}

// Decode checks the envelope and returns the payloads in order. The tags
// must match want exactly, in order.
func Decode(blob []byte, want []string) ([][]byte, error) {
	if len(blob) < headerSize {
		return nil, faults.State("blob is %d bytes, shorter than the header", len(blob))
	}
	if string(blob[:4]) != Magic {
		return nil, faults.State("bad magic %q", blob[:4])
	}
	if v := binary.BigEndian.Uint16(blob[4:]); v != Version {
		return nil, faults.State("version %d, want %d", v, Version)
	}
	if n := int(binary.BigEndian.Uint16(blob[6:])); n != len(want) {
		return nil, faults.State("%d sections, want %d", n, len(want))
	}
	if n := int(binary.BigEndian.Uint32(blob[8:])); n != len(blob) {
		return nil, faults.State("length field %d, blob is %d bytes", n, len(blob))
	}
	out := make([][]byte, 0, len(want))
	p := headerSize
	for _, tag := range want {
		if p+sectionHead > len(blob) {
			return nil, faults.State("section %s truncated", tag)
		}
		if got := string(blob[p : p+4]); got != tag {
			return nil, faults.State("section %q where %q expected", got, tag)
		}
		n := int(binary.BigEndian.Uint32(blob[p+4:]))
		p += sectionHead
		if n > len(blob)-p {
			return nil, faults.State("section %s length %d overruns blob", tag, n)
		}
		out = append(out, blob[p:p+n])
		p += n
	}
	if p != len(blob) {
		return nil, faults.State("%d trailing bytes", len(blob)-p)
	}
	return out, nil
}

// Gob encodes v as a section payload.
func Gob(tag string, v any) (Section, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return Section{}, faults.State("encode %s: %v", tag, err)
	}
	return Section{Tag: tag, Data: buf.Bytes()}, nil
}

// Ungob decodes a section payload into v.
func Ungob(tag string, data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return faults.State("decode %s: %v", tag, err)
	}
	return nil
}
