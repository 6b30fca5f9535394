package ppu

import "testing"

func TestComposeSpriteLinePriorityAndTransparency(t *testing.T) {
	mem := mockVRAM{}
	// Sprite tile with a single opaque leftmost pixel at bit7: lo=0x80, hi=0x00.
	base := uint16(0x8000)
	mem[base+0] = 0x80
	mem[base+1] = 0x00
	// Y=21 => screen top at ly=5 (Y-16=5), row 0 on that line.
	sprites := []Sprite{{X: 18, Y: 21, Tile: 0, Attr: 0, OAMIndex: 0}}
	var bgci [160]byte
	obp := []byte{0, 0}
	out := ComposeSpriteLine(mem, sprites, 5, bgci, obp, false)
	if out[10] == 0 {
		t.Fatalf("expected sprite pixel at x=10")
	}
	// With priority behind BG and bgci non-zero, pixel must be skipped.
	sprites[0].Attr = 1 << 7
	bgci[10] = 1
	out = ComposeSpriteLine(mem, sprites, 5, bgci, obp, false)
	if out[10] != 0 {
		t.Fatalf("expected sprite pixel to be hidden behind BG")
	}
}

func TestComposeSpriteLineTieBreaker(t *testing.T) {
	mem := mockVRAM{}
	// Two sprites overlap at x=20; both opaque full row (lo=0xFF, hi=0x00).
	base := uint16(0x8000)
	mem[base+0] = 0xFF
	mem[base+1] = 0x00
	s0 := Sprite{X: 27, Y: 16, Tile: 0, Attr: 0, OAMIndex: 5}
	s1 := Sprite{X: 28, Y: 16, Tile: 0, Attr: 0, OAMIndex: 3}
	var bgci [160]byte
	obp := []byte{0, 0}
	// Caller (scanOAM) is responsible for sort order; pass already sorted by X.
	out := ComposeSpriteLine(mem, []Sprite{s0, s1}, 0, bgci, obp, false)
	// At x=20, s0 (X=27, screen x=X-8) contributes its px1 and wins since it's listed first.
	if out[20] == 0 {
		t.Fatalf("expected a sprite at x=20")
	}
}

func TestComposeSpriteLineTallSprite(t *testing.T) {
	mem := mockVRAM{}
	// Tall (8x16) sprite using tile pair 0/1; bottom half (tile 1) row 1 opaque.
	mem[uint16(0x8000)+0] = 0x00
	mem[uint16(0x8000)+1] = 0x00
	mem[uint16(0x8012)+0] = 0xFF
	mem[uint16(0x8012)+1] = 0x00
	s := Sprite{X: 8, Y: 16, Tile: 0, Attr: 0, OAMIndex: 0}
	var bgci [160]byte
	obp := []byte{0, 0}
	out := ComposeSpriteLine(mem, []Sprite{s}, 9, bgci, obp, true) // row 9 -> bottom tile, row 1
	if out[0] == 0 {
		t.Fatalf("expected opaque pixel from bottom half of tall sprite")
	}
}
