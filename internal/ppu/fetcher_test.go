package ppu

import "testing"

func TestFIFO(t *testing.T) {
	var q fifo
	if q.Len() != 0 {
		t.Fatal("new fifo not empty")
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("pop from empty should fail")
	}
	for i := 0; i < 16; i++ {
		if !q.Push(byte(i)) {
			t.Fatal("unexpected full")
		}
	}
	if q.Push(0) {
		t.Fatal("should be full")
	}
	for i := 0; i < 16; i++ {
		v, ok := q.Pop()
		if !ok {
			t.Fatal("unexpected empty")
		}
		if v != byte(i)&3 {
			t.Fatalf("got %d want %d", v, byte(i)&3)
		}
	}
}

type mockVRAM map[uint16]byte

func (m mockVRAM) Read(addr uint16) byte { return m[addr] }

// TestFetcherProducesRepeatingTileRow drives the PPU through one full
// visible line with a single repeating tile and checks the resulting BG
// row matches the tile's bit pattern pixel-for-pixel.
func TestFetcherProducesRepeatingTileRow(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80|0x10|0x01) // LCD+BG on, map 0x9800, data 0x8000
	p.CPUWrite(0xFF47, 0xE4)      // identity BGP so shades match raw color indices
	for i := uint16(0); i < 32; i++ {
		p.CPUWrite(0x9800+i, 0) // whole row uses tile 0
	}
	p.CPUWrite(0x8000, 0x55)
	p.CPUWrite(0x8001, 0x33)

	p.Tick(456) // one full line is enough for mode 3 to complete

	lo, hi := byte(0x55), byte(0x33)
	want := func(px int) byte {
		b := 7 - byte(px%8)
		return ((hi>>b)&1)<<1 | ((lo >> b) & 1)
	}
	frame := p.Frame()
	for x := 0; x < 160; x++ {
		if frame[x] != want(x) {
			t.Fatalf("px %d got %d want %d", x, frame[x], want(x))
		}
	}
}

func TestFetcherSCXDiscardsLeadingPixelsNotOutputCount(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80|0x10|0x01) // LCD+BG on, map 0x9800, data 0x8000
	p.CPUWrite(0xFF47, 0xE4) // identity BGP so shades match raw color indices
	p.CPUWrite(0xFF43, 3)    // SCX=3, not tile-aligned
	for i := uint16(0); i < 32; i++ {
		p.CPUWrite(0x9800+i, 0)
	}
	p.CPUWrite(0x8000, 0xFF)
	p.CPUWrite(0x8001, 0x00)
	p.Tick(456)
	frame := p.Frame()
	for x := 0; x < 160; x++ {
		if frame[x] != 1 {
			t.Fatalf("expected solid color-index 1 row regardless of SCX discard, px %d got %d", x, frame[x])
		}
	}
}

func TestTileDataSignedAddressingMatchesUnsigned(t *testing.T) {
	// Index 0xFF under 0x8800-signed addressing lands at 0x8FF0 (== -1*16
	// offset from the 0x9000 base); verify the fetcher reads that address.
	p := New(nil)
	p.CPUWrite(0xFF40, 0x80|0x01) // data select bit (0x10) left clear -> 0x8800 mode
	p.CPUWrite(0xFF47, 0xE4)      // identity BGP so shades match raw color indices
	for i := uint16(0); i < 32; i++ {
		p.CPUWrite(0x9800+i, 0xFF)
	}
	p.CPUWrite(0x8FF0, 0xA5)
	p.CPUWrite(0x8FF1, 0x5A)
	p.Tick(456)
	lo, hi := byte(0xA5), byte(0x5A)
	want := func(px int) byte {
		b := 7 - byte(px%8)
		return ((hi>>b)&1)<<1 | ((lo >> b) & 1)
	}
	frame := p.Frame()
	for x := 0; x < 8; x++ {
		if frame[x] != want(x) {
			t.Fatalf("px %d got %d want %d", x, frame[x], want(x))
		}
	}
}
