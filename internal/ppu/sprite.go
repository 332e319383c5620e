package ppu

import "sort"

// spriteEntry is one OAM entry selected for the current scanline.
type spriteEntry struct {
	index int
	y, x  uint8
	tile  uint8
	attr  uint8
}

// renderSprites scans all 40 OAM entries for the ones visible on the
// current line, keeps at most 10 (spec.md §4.6 point 5, §8 boundary
// behaviors), and composites them back-to-front so the highest-priority
// sprite ends up on top.
func (p *PPU) renderSprites(out, bgColorIndex *[160]uint8) {
	height := uint8(8)
	if p.lcdc&lcdcOBJSize != 0 {
		height = 16
	}

	var selected []spriteEntry
	for i := 0; i < 40; i++ {
		base := i * 4
		oy := p.oam[base]
		ox := p.oam[base+1]
		tile := p.oam[base+2]
		attr := p.oam[base+3]

		top := int(oy) - 16
		if int(p.ly) < top || int(p.ly) >= top+int(height) {
			continue
		}
		if ox == 0 || ox >= 168 {
			continue
		}

		selected = append(selected, spriteEntry{index: i, y: oy, x: ox, tile: tile, attr: attr})
		if len(selected) == 10 {
			break
		}
	}

	sort.SliceStable(selected, func(a, b int) bool {
		if selected[a].x != selected[b].x {
			return selected[a].x < selected[b].x
		}
		return selected[a].index < selected[b].index
	})

	for i := len(selected) - 1; i >= 0; i-- {
		p.drawSprite(&selected[i], height, out, bgColorIndex)
	}
}

func (p *PPU) drawSprite(s *spriteEntry, height uint8, out, bgColorIndex *[160]uint8) {
	top := int(s.y) - 16
	row := uint8(int(p.ly) - top)
	if s.attr&0x40 != 0 {
		row = height - 1 - row
	}

	tile := s.tile
	if height == 16 {
		tile &^= 0x01
		tile += row / 8
		row %= 8
	}

	base := 0x8000 + uint16(tile)*16 + uint16(row)*2
	lo := p.vram[base-0x8000]
	hi := p.vram[base+1-0x8000]

	xflip := s.attr&0x20 != 0
	palette := p.obp0
	tag := uint8(obj0Tag)
	if s.attr&0x10 != 0 {
		palette = p.obp1
		tag = obj1Tag
	}
	behindBG := s.attr&0x80 != 0

	for col := uint8(0); col < 8; col++ {
		screenX := int(s.x) - 8 + int(col)
		if screenX < 0 || screenX >= 160 {
			continue
		}
		texel := col
		if xflip {
			texel = 7 - col
		}
		bit := 7 - texel
		ci := (hi>>bit)&1<<1 | (lo>>bit)&1
		if ci == 0 {
			continue
		}
		if behindBG && bgColorIndex[screenX] != 0 {
			continue
		}
		out[screenX] = applyPalette(palette, ci) | tag
	}
}
