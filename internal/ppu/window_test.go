package ppu

import "testing"

// TestWindowEngagesAtWYAndAdvancesOwnLineCounter exercises the mid-scanline
// window trigger (spec.md §4.4): the window uses its own line cursor,
// separate from LY, that only advances on lines where the window was
// actually drawn.
func TestWindowEngagesAtWYAndAdvancesOwnLineCounter(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF4A, 2) // WY=2
	p.CPUWrite(0xFF4B, 7) // WX=7 -> window visible from pixel 0
	p.CPUWrite(0xFF40, 0x80|0x01|0x20)

	p.Tick(3 * 456) // lines 0,1,2
	if p.WindowLineCounter() != 1 {
		t.Fatalf("expected window line counter to have advanced once by LY=3, got %d", p.WindowLineCounter())
	}

	p.Tick(456)
	if p.WindowLineCounter() != 2 {
		t.Fatalf("expected window line counter 2 at LY=4, got %d", p.WindowLineCounter())
	}
}

func TestWindowNeverTriggersBeforeWY(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF4A, 50)
	p.CPUWrite(0xFF4B, 7)
	p.CPUWrite(0xFF40, 0x80|0x01|0x20)

	p.Tick(10 * 456)
	if p.WindowLineCounter() != 0 {
		t.Fatalf("window should not engage before LY reaches WY, counter=%d", p.WindowLineCounter())
	}
}

func TestWindowDisabledByWXOutOfRange(t *testing.T) {
	p := New(nil)
	p.CPUWrite(0xFF4A, 0)
	p.CPUWrite(0xFF4B, 200) // WX far out of the visible 0..166 range
	p.CPUWrite(0xFF40, 0x80|0x01|0x20)

	p.Tick(5 * 456)
	if p.WindowLineCounter() != 0 {
		t.Fatalf("window should stay disengaged when WX is out of range, counter=%d", p.WindowLineCounter())
	}
}
