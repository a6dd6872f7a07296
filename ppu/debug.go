package ppu

import "image/color"

func setPixel(dest []byte, width, x, y int, c color.RGBA) {
	idx := (y*width + x) * 4
	dest[idx] = c.R
	dest[idx+1] = c.G
	dest[idx+2] = c.B
	dest[idx+3] = 0xFF
}

// GetPatternTable extracts the requested pattern table (0 or 1) into a
// 128x128 RGBA byte slice using the specified palette (0-7).
func (p *PPU) GetPatternTable(i int, palette byte, dest []byte) {
	base := uint16(i&0x01) * 0x1000
	for tileY := 0; tileY < 16; tileY++ {
		for tileX := 0; tileX < 16; tileX++ {
			offset := base + uint16(tileY*256+tileX*16)
			for row := 0; row < 8; row++ {
				lo := p.PPUPeek(offset + uint16(row))
				hi := p.PPUPeek(offset + uint16(row) + 8)

				for col := 0; col < 8; col++ {
					pixel := hi>>(7-col)&0x01<<1 | lo>>(7-col)&0x01
					// Color 0 is drawn black rather than as the backdrop.
					c := color.RGBA{0, 0, 0, 0xFF}
					if pixel != 0 {
						c = Color(uint16(p.PPUPeek(paletteStart + uint16(palette&0x07)*4 + uint16(pixel))))
					}
					setPixel(dest, 128, tileX*8+col, tileY*8+row, c)
				}
			}
		}
	}
}

// GetNametables renders all four nametables, as currently mirrored, into a
// 512x480 RGBA byte slice.
func (p *PPU) GetNametables(dest []byte) {
	for nt := 0; nt < 4; nt++ {
		ntBase := ntStart + uint16(nt)*ntSize
		xOff := (nt % 2) * Width
		yOff := (nt / 2) * Height

		for ty := 0; ty < 30; ty++ {
			for tx := 0; tx < 32; tx++ {
				tile := uint16(p.PPUPeek(ntBase + uint16(ty*32+tx)))
				attr := p.PPUPeek(ntBase + 0x3C0 + uint16((ty/4)*8+tx/4))
				shift := (ty&0x02)<<1 | tx&0x02
				pal := (attr >> shift & 0x03) << 2

				addr := p.Ctrl.BgSelect | tile<<4
				for row := 0; row < 8; row++ {
					lo := p.PPUPeek(addr + uint16(row))
					hi := p.PPUPeek(addr + uint16(row) + 8)
					for col := 0; col < 8; col++ {
						pixel := hi>>(7-col)&0x01<<1 | lo>>(7-col)&0x01
						idx := uint16(0)
						if pixel != 0 {
							idx = uint16(pal | pixel)
						}
						c := p.peekPalette(paletteStart|idx) & p.Mask.grayscale()
						setPixel(dest, 2*Width, xOff+tx*8+col, yOff+ty*8+row, Color(uint16(c)))
					}
				}
			}
		}
	}
}

// GetPalettes renders the 32 palette RAM entries as a 16x2 RGBA byte slice:
// background palettes on the first row, sprite palettes on the second.
func (p *PPU) GetPalettes(dest []byte) {
	for i := 0; i < 32; i++ {
		c := p.palette[paletteIndex(uint16(i))]
		setPixel(dest, 16, i%16, i/16, Color(uint16(c)))
	}
}

// OAM returns a copy of sprite memory.
func (p *PPU) OAM() [oamSize]byte {
	return p.oam
}
