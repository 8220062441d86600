package stic

// palette is the 16 colour STIC palette as RGB.
var palette = [16][3]byte{
	{0x0C, 0x00, 0x05}, // black
	{0x00, 0x2D, 0xFF}, // blue
	{0xFF, 0x3D, 0x10}, // red
	{0xC9, 0xCF, 0xAB}, // tan
	{0x38, 0x6B, 0x3F}, // dark green
	{0x00, 0xA7, 0x56}, // green
	{0xFA, 0xEA, 0x50}, // yellow
	{0xFF, 0xFC, 0xFF}, // white
	{0xBD, 0xAC, 0xC8}, // grey
	{0x24, 0xB8, 0xFF}, // cyan
	{0xFF, 0xB4, 0x1F}, // orange
	{0x54, 0x6E, 0x00}, // brown
	{0xFF, 0x4E, 0x57}, // pink
	{0xA4, 0x96, 0xFF}, // light blue
	{0x75, 0xCC, 0x80}, // yellow green
	{0xB5, 0x1A, 0x58}, // purple
}

// Palette returns the RGB value of colour index c.
func Palette(c byte) (r, g, b byte) {
	p := palette[c&0xF]
	return p[0], p[1], p[2]
}

type card struct {
	rows    [8]byte
	fg, bg  byte
	squares bool
	sq      [4]byte
}

func (s *STIC) cardRow(gram bool, n uint16, row int) byte {
	if gram {
		return s.gram[int(n&0x3F)*8+row]
	}
	return s.grom[int(n&0xFF)*8+row]
}

// inDisplay reports whether frame pixel (x, line) lies in the display area
// once border extension is applied.
func (s *STIC) inDisplay(x, y int) bool {
	left, top := border, border
	if s.regs[regBorderExt]&1 != 0 {
		left += 8
	}
	if s.regs[regBorderExt]&2 != 0 {
		top += 16
	}
	return x >= left && x < Width-border && y >= top && y < Height-border
}

func (s *STIC) compose() {
	for i := range s.index {
		s.cover[i] = 0
		s.fgMask[i] = false
	}
	if !s.display {
		for i := range s.index {
			s.index[i] = 0
		}
		return
	}
	borderColor := byte(s.regs[regBorder])
	for i := range s.index {
		s.index[i] = borderColor
	}
	s.drawBackground(borderColor)
	s.drawMOBs()
	s.collide()
}

// decodeCards resolves every BACKTAB word to its pixels and colours. The
// colour stack advances in BACKTAB order.
func (s *STIC) decodeCards() []card {
	cards := make([]card, len(s.backtab))
	stack := 0
	for i, w := range s.backtab {
		c := &cards[i]
		if s.colorStack {
			if w&0x1800 == 0x1000 {
				c.squares = true
				c.bg = byte(s.regs[regStack+stack])
				c.sq = [4]byte{byte(w & 7), byte(w>>3) & 7, byte(w>>6) & 7, byte(w>>9)&3 | byte(w>>11)&4}
				continue
			}
			if w&0x2000 != 0 {
				stack = (stack + 1) & 3
			}
			c.bg = byte(s.regs[regStack+stack])
			c.fg = byte(w&7 | (w>>9)&8)
			gram := w&0x800 != 0
			n := (w >> 3) & 0xFF
			for r := range c.rows {
				c.rows[r] = s.cardRow(gram, n, r)
			}
			continue
		}
		c.fg = byte(w & 7)
		c.bg = byte((w>>9)&3 | (w>>11)&4 | (w>>9)&8)
		gram := w&0x800 != 0
		n := (w >> 3) & 0x3F
		for r := range c.rows {
			c.rows[r] = s.cardRow(gram, n, r)
		}
	}
	return cards
}

func (s *STIC) drawBackground(borderColor byte) {
	cards := s.decodeCards()
	hd := int(s.regs[regHDelay])
	vd := int(s.regs[regVDelay])
	for y := border; y < Height-border; y++ {
		py := (y-border)/2 - vd
		for x := border; x < Width-border; x++ {
			if !s.inDisplay(x, y) {
				continue
			}
			p := y*Width + x
			px := x - border - hd
			if px < 0 || py < 0 {
				s.index[p] = borderColor
				continue
			}
			c := &cards[(py/8)*CardColumns+px/8]
			if c.squares {
				q := 0
				if py%8 >= 4 {
					q = 2
				}
				if px%8 >= 4 {
					q++
				}
				if col := c.sq[q]; col != 7 {
					s.index[p] = col
					s.fgMask[p] = true
				} else {
					s.index[p] = c.bg
				}
				continue
			}
			if c.rows[py%8]>>(7-px%8)&1 != 0 {
				s.index[p] = c.fg
				s.fgMask[p] = true
			} else {
				s.index[p] = c.bg
			}
		}
	}
}

// drawMOBs draws the eight moving objects. MOB 0 has the highest priority,
// so they are drawn from 7 down. Objects with INTR set record their coverage
// for collision detection whether visible or not.
func (s *STIC) drawMOBs() {
	for i := 7; i >= 0; i-- {
		xr, yr, ar := s.regs[regX+i], s.regs[regY+i], s.regs[regA+i]
		visible := xr&0x200 != 0
		intr := xr&0x100 != 0
		if !visible && !intr {
			continue
		}
		x0 := int(xr & 0xFF)
		y0 := 2*int(yr&0x7F) - border
		w := 1
		if xr&0x400 != 0 {
			w = 2
		}
		rows := 8
		if yr&0x80 != 0 {
			rows = 16
		}
		lh := 1 << ((yr >> 8) & 3)
		xflip := yr&0x400 != 0
		yflip := yr&0x800 != 0
		color := byte(ar&7 | (ar>>9)&8)
		prio := ar&0x2000 != 0
		gram := ar&0x800 != 0
		n := (ar >> 3) & 0xFF
		if rows == 16 {
			n &^= 1
		}

		for r := 0; r < rows; r++ {
			src := r
			if yflip {
				src = rows - 1 - r
			}
			data := s.cardRow(gram, n+uint16(src/8), src%8)
			if data == 0 {
				continue
			}
			for l := 0; l < lh; l++ {
				y := y0 + r*lh + l
				if y < 0 || y >= Height {
					continue
				}
				for c := 0; c < 8; c++ {
					bit := c
					if xflip {
						bit = 7 - c
					}
					if data>>(7-bit)&1 == 0 {
						continue
					}
					for xs := 0; xs < w; xs++ {
						x := x0 + c*w + xs
						if x < 0 || x >= Width {
							continue
						}
						p := y*Width + x
						if intr {
							s.cover[p] |= 1 << i
						}
						if visible && !(prio && s.fgMask[p]) {
							s.index[p] = color
						}
					}
				}
			}
		}
	}
}

// collide latches MOB-MOB (bits 0-7), MOB-background (bit 8) and
// MOB-border (bit 9) collisions. Bits accumulate until the CPU clears them.
func (s *STIC) collide() {
	for p, cv := range s.cover {
		if cv == 0 {
			continue
		}
		var extra uint16
		if s.fgMask[p] {
			extra |= 0x100
		}
		if !s.inDisplay(p%Width, p/Width) {
			extra |= 0x200
		}
		for i := 0; i < 8; i++ {
			if cv&(1<<i) == 0 {
				continue
			}
			s.regs[regCollision+i] |= uint16(cv&^(1<<i)) | extra
		}
	}
}
