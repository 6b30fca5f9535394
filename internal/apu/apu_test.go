package apu

import "testing"

func newSquareOn(a *APU) {
	// CH1: duty 2 (50%), full volume, no sweep
	a.CPUWrite(0xFF11, 0x80) // duty=2<<6=0x80, length irrelevant
	a.CPUWrite(0xFF12, 0xF0) // vol=15, increasing=0 -> envDir negative but DAC on (upper 5 bits nonzero)
	a.CPUWrite(0xFF13, 0x00)
	a.CPUWrite(0xFF14, 0x87) // trigger, freq hi bits
}

func TestChannelMuteSilencesMix(t *testing.T) {
	a := New(48000)
	newSquareOn(a)
	if !a.ch1.enabled {
		t.Fatalf("expected channel 1 to be enabled after trigger")
	}
	// advance enough cycles to get a nonzero phase/volume state
	a.Tick(100)
	l, r := a.mixSampleStereo()
	if l == 0 && r == 0 {
		t.Fatalf("expected nonzero output with channel 1 unmuted")
	}
	a.SetChannelMute(1, true)
	if !a.ChannelMuted(1) {
		t.Fatalf("ChannelMuted(1) should report true after SetChannelMute(1, true)")
	}
	l, r = a.mixSampleStereo()
	if l != 0 || r != 0 {
		t.Fatalf("expected silence with channel 1 muted, got l=%d r=%d", l, r)
	}
	a.SetChannelMute(1, false)
	if a.ChannelMuted(1) {
		t.Fatalf("ChannelMuted(1) should report false after unmuting")
	}
}

func TestSetChannelMuteIgnoresOutOfRange(t *testing.T) {
	a := New(48000)
	a.SetChannelMute(0, true)
	a.SetChannelMute(5, true)
	for ch := 1; ch <= 4; ch++ {
		if a.ChannelMuted(ch) {
			t.Fatalf("channel %d should not be muted by an out-of-range call", ch)
		}
	}
}

func TestPowerOffPreservesMutePreference(t *testing.T) {
	a := New(48000)
	a.SetChannelMute(2, true)
	a.CPUWrite(0xFF26, 0x00) // power off, clears register state
	if !a.ChannelMuted(2) {
		t.Fatalf("expected channel mute preference to survive an APU power-off")
	}
	if a.enabled {
		t.Fatalf("expected APU to be disabled after power-off write")
	}
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	a := New(48000)
	newSquareOn(a)
	a.Tick(1000)
	data := a.SaveState()

	b := New(48000)
	b.LoadState(data)
	if b.ch1.freq != a.ch1.freq || b.ch1.duty != a.ch1.duty || b.ch1.enabled != a.ch1.enabled {
		t.Fatalf("channel 1 state mismatch after LoadState: got %+v want %+v", b.ch1, a.ch1)
	}
}
