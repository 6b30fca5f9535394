package emu

import (
	"bytes"
	"encoding/gob"
	"io"
	"log"
	"os"
	"time"

	"github.com/itytophile/gebeh-sub000/internal/bus"
	"github.com/itytophile/gebeh-sub000/internal/cart"
	"github.com/itytophile/gebeh-sub000/internal/cpu"
)

// dotsPerFrame is the fixed per-scanline dot budget (456) times the full
// frame's 154 scanlines (spec.md §3 "Invariant: the total dot budget per
// scanline is exactly 456... full frame is 154 scanlines").
const dotsPerFrame = 456 * 154

// dmgClockHz is the DMG's fixed master clock rate; dividing it by
// dotsPerFrame gives the real hardware's ~59.7Hz frame cadence.
const dmgClockHz = 4194304

const frameDuration = time.Second * dotsPerFrame / dmgClockHz

// Buttons is the joypad input snapshot the host polls once per frame.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() byte {
	var m byte
	if b.Right {
		m |= bus.JoypRight
	}
	if b.Left {
		m |= bus.JoypLeft
	}
	if b.Up {
		m |= bus.JoypUp
	}
	if b.Down {
		m |= bus.JoypDown
	}
	if b.A {
		m |= bus.JoypA
	}
	if b.B {
		m |= bus.JoypB
	}
	if b.Select {
		m |= bus.JoypSelectBtn
	}
	if b.Start {
		m |= bus.JoypStart
	}
	return m
}

// Machine composes a bus/CPU pair plus host-facing framebuffer/audio/input
// glue: the orchestrator spec.md describes as "the emulator" itself.
type Machine struct {
	cfg  Config
	w, h int
	fb   []byte // RGBA 160x144*4

	c *cpu.CPU
	b *bus.Bus

	rom      []byte
	bootROM  []byte
	header   *cart.Header
	romPath  string
	romTitle string

	buttons Buttons

	// DMG-colorization ("compat palette") state, cosmetic only (not real CGB
	// hardware emulation).
	isCGBCompat     bool
	wantCGBColors   bool
	useCGBBG        bool
	compatPaletteID int

	lastFrameAt time.Time // Config.LimitFPS pacing anchor
}

func New(cfg Config) *Machine {
	return &Machine{
		cfg: cfg, w: 160, h: 144,
		fb: make([]byte, 160*144*4),
	}
}

// ResetPostBoot rebuilds the bus/CPU from the currently loaded ROM bytes in
// typical DMG post-boot state (no boot ROM run), round-tripping any
// battery-backed cartridge RAM through the rebuild.
func (m *Machine) ResetPostBoot() {
	if len(m.rom) == 0 {
		return
	}
	var saved []byte
	if bb, ok := cartBattery(m.b); ok {
		saved = bb.SaveRAM()
	}
	m.buildFromROM(m.rom, false)
	if saved != nil {
		if bb, ok := cartBattery(m.b); ok {
			bb.LoadRAM(saved)
		}
	}
}

// ResetWithBoot rebuilds the bus/CPU running from the stored boot ROM
// (SetBootROM), if one is set; otherwise behaves like ResetPostBoot.
func (m *Machine) ResetWithBoot() {
	if len(m.rom) == 0 {
		return
	}
	var saved []byte
	if bb, ok := cartBattery(m.b); ok {
		saved = bb.SaveRAM()
	}
	m.buildFromROM(m.rom, true)
	if saved != nil {
		if bb, ok := cartBattery(m.b); ok {
			bb.LoadRAM(saved)
		}
	}
}

// ResetCGBPostBoot rebuilds the machine post-boot and sets whether the
// DMG-colorization overlay is active going forward.
func (m *Machine) ResetCGBPostBoot(useCGB bool) {
	m.useCGBBG = useCGB
	m.ResetPostBoot()
}

func cartBattery(b *bus.Bus) (cart.BatteryBacked, bool) {
	if b == nil {
		return nil, false
	}
	bb, ok := b.Cart().(cart.BatteryBacked)
	return bb, ok
}

// LoadCartridge parses rom's header and wires a fresh bus/CPU pair. An
// unrecognised cartridge type surfaces cart.ErrUnsupportedCartType rather
// than silently degrading to ROM-only (spec.md §4.1). If boot is at least
// a full 256-byte DMG boot ROM it becomes the machine's stored boot ROM;
// otherwise the previously stored one, if any, is reused.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	if len(boot) >= 0x100 {
		m.bootROM = append([]byte(nil), boot...)
	}
	if err := m.buildFromROM(rom, len(m.bootROM) >= 0x100); err != nil {
		return err
	}
	m.rom = rom
	return nil
}

// LoadROMFromFile reads rom bytes from disk and loads them, tracking the
// path for save-file/title bookkeeping (ROMPath/ROMTitle). The previously
// stored boot ROM, if any, keeps being used.
func (m *Machine) LoadROMFromFile(path string) error {
	rom, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.buildFromROM(rom, len(m.bootROM) >= 0x100); err != nil {
		return err
	}
	m.rom = rom
	m.romPath = path
	return nil
}

// ROMPath returns the path LoadROMFromFile loaded the current ROM from, or
// "" if the ROM was loaded via LoadCartridge directly.
func (m *Machine) ROMPath() string { return m.romPath }

// ROMTitle returns the cartridge header's title field, or "" if no ROM is
// loaded.
func (m *Machine) ROMTitle() string { return m.romTitle }

func (m *Machine) buildFromROM(rom []byte, runBoot bool) error {
	c, err := cart.NewCartridge(rom)
	if err != nil {
		return err
	}
	b := bus.NewWithCartridge(c)
	if len(m.bootROM) >= 0x100 {
		b.SetBootROM(m.bootROM)
	}
	cc := cpu.New(b)
	cc.SetStrict(m.cfg.StrictMode)
	if runBoot && len(m.bootROM) >= 0x100 {
		cc.SetPC(0x0000)
	} else {
		cc.ResetNoBoot()
		cc.SetPC(0x0100)
		applyDMGPostBootIO(b)
	}

	h, herr := cart.ParseHeader(rom)
	if herr == nil {
		m.header = h
		m.romTitle = h.Title
	} else {
		m.header = nil
		m.romTitle = ""
	}

	m.b = b
	m.c = cc
	m.applyButtons()
	m.autoDetectCompatPalette()
	return nil
}

// applyDMGPostBootIO pokes the IO register bank to the values a real DMG
// boot ROM leaves behind, for the no-boot-ROM startup path (mirrors
// cmd/cpurunner's post-boot defaults).
func applyDMGPostBootIO(b *bus.Bus) {
	b.Write(0xFF00, 0xCF)
	b.Write(0xFF05, 0x00)
	b.Write(0xFF06, 0x00)
	b.Write(0xFF07, 0x00)
	b.Write(0xFF40, 0x91)
	b.Write(0xFF42, 0x00)
	b.Write(0xFF43, 0x00)
	b.Write(0xFF45, 0x00)
	b.Write(0xFF47, 0xFC)
	b.Write(0xFF48, 0xFF)
	b.Write(0xFF49, 0xFF)
	b.Write(0xFF4A, 0x00)
	b.Write(0xFF4B, 0x00)
	b.Write(0xFFFF, 0x00)
}

// SetBootROM stores the boot ROM image used on the next cartridge load or
// ResetWithBoot.
func (m *Machine) SetBootROM(data []byte) {
	if len(data) >= 0x100 {
		m.bootROM = append([]byte(nil), data...)
	} else {
		m.bootROM = nil
	}
}

// SetSerialWriter attaches a sink for bytes written to the serial port;
// nil detaches it.
func (m *Machine) SetSerialWriter(w io.Writer) {
	if m.b != nil {
		m.b.SetSerialWriter(w)
	}
}

// SetButtons records the joypad state to apply on the next step.
func (m *Machine) SetButtons(b Buttons) {
	m.buttons = b
	m.applyButtons()
}

func (m *Machine) applyButtons() {
	if m.b != nil {
		m.b.SetJoypadState(m.buttons.mask())
	}
}

// SetUseFetcherBG is a no-op hook kept for host compatibility: the PPU
// always drives BG/window through the per-dot fetcher now.
func (m *Machine) SetUseFetcherBG(bool) {}

// StepFrame advances the machine by one full frame's worth of dots and
// renders the result into Framebuffer(). When Config.LimitFPS is set it
// paces itself to the DMG's native ~59.7Hz cadence, for hosts (headless
// runs, conformance tooling) that don't already get pacing for free from
// a fixed-tick game loop.
func (m *Machine) StepFrame() {
	m.runFrame()
	m.render()
	if m.cfg.LimitFPS {
		m.pace()
	}
}

func (m *Machine) pace() {
	now := time.Now()
	if !m.lastFrameAt.IsZero() {
		if wait := frameDuration - now.Sub(m.lastFrameAt); wait > 0 {
			time.Sleep(wait)
			now = time.Now()
		}
	}
	m.lastFrameAt = now
}

// StepFrameNoRender advances one frame without touching the framebuffer,
// for headless conformance testing where only serial output matters.
func (m *Machine) StepFrameNoRender() {
	m.runFrame()
}

func (m *Machine) runFrame() {
	if m.c == nil {
		return
	}
	if m.cfg.Trace {
		for total := 0; total < dotsPerFrame; {
			m.traceStep()
			total += m.c.Step()
		}
		return
	}
	for total := 0; total < dotsPerFrame; {
		total += m.c.Step()
	}
}

// traceStep logs the instruction about to execute, in the style of
// cmd/cpurunner's -trace flag, gated by Config.Trace (SPEC_FULL §9).
func (m *Machine) traceStep() {
	in := cpu.Disassemble(m.b, m.c.PC)
	log.Printf("PC=%04X  %-24s  A=%02X F=%02X BC=%02X%02X DE=%02X%02X HL=%02X%02X SP=%04X IME=%v",
		m.c.PC, in.Text, m.c.A, m.c.F, m.c.B, m.c.C, m.c.D, m.c.E, m.c.H, m.c.L, m.c.SP, m.c.IME)
}

// render converts the PPU's finished shade buffer into the RGBA
// framebuffer, applying the DMG-colorization overlay if active.
func (m *Machine) render() {
	if m.b == nil {
		return
	}
	shades := m.b.PPU().Frame()
	if m.useCGBBG && m.isCGBCompat {
		pal := cgbCompatSets[m.compatPaletteID%len(cgbCompatSets)]
		for i, s := range shades {
			rgb := pal[s&0x03]
			o := i * 4
			m.fb[o+0], m.fb[o+1], m.fb[o+2], m.fb[o+3] = rgb[0], rgb[1], rgb[2], 0xFF
		}
		return
	}
	for i, s := range shades {
		v := byte(255 - int(s&0x03)*85)
		o := i * 4
		m.fb[o+0], m.fb[o+1], m.fb[o+2], m.fb[o+3] = v, v, v, 0xFF
	}
}

// Framebuffer returns the 160x144 RGBA pixel buffer rendered by the last
// StepFrame call.
func (m *Machine) Framebuffer() []byte { return m.fb }

// LoadBattery restores cartridge RAM (and RTC state for MBC3) from a
// previously saved .sav blob. Returns false if there is no loaded
// cartridge or it has no battery-backed RAM.
func (m *Machine) LoadBattery(data []byte) bool {
	bb, ok := cartBattery(m.b)
	if !ok {
		return false
	}
	bb.LoadRAM(data)
	return true
}

// SaveBattery returns a copy of the cartridge's battery-backed RAM (plus
// RTC state for MBC3), and whether the cartridge has any to save.
func (m *Machine) SaveBattery() ([]byte, bool) {
	bb, ok := cartBattery(m.b)
	if !ok {
		return nil, false
	}
	data := bb.SaveRAM()
	if data == nil {
		return nil, false
	}
	return data, true
}

type machineState struct {
	CPU  []byte
	Bus  []byte
	W, H int
}

// SaveStateToFile gob-serializes the full bus+CPU state to path.
func (m *Machine) SaveStateToFile(path string) error {
	if m.b == nil || m.c == nil {
		return os.ErrInvalid
	}
	var buf bytes.Buffer
	s := machineState{CPU: m.c.SaveState(), Bus: m.b.SaveState(), W: m.w, H: m.h}
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// LoadStateFromFile restores bus+CPU state previously written by
// SaveStateToFile. The currently loaded cartridge/ROM is left in place;
// only registers, RAM/VRAM/OAM, and IO register state are overwritten.
func (m *Machine) LoadStateFromFile(path string) error {
	if m.b == nil || m.c == nil {
		return os.ErrInvalid
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	m.c.LoadState(s.CPU)
	m.b.LoadState(s.Bus)
	return nil
}

// --- DMG colorization (compat-palette) ---

// WantCGBColors reports whether the host has asked for the colorization
// overlay (a standing preference, independent of whether it is currently
// applied to the loaded ROM).
func (m *Machine) WantCGBColors() bool { return m.wantCGBColors }

// SetUseCGBBG sets both the standing preference and whether the overlay is
// applied to the currently loaded ROM's next render.
func (m *Machine) SetUseCGBBG(use bool) {
	m.wantCGBColors = use
	m.useCGBBG = use
}

// UseCGBBG reports whether the overlay is currently applied.
func (m *Machine) UseCGBBG() bool { return m.useCGBBG }

// IsCGBCompat reports whether the loaded ROM is eligible for the
// DMG-colorization overlay: a plain DMG-only cartridge (CGB flag not set),
// since a native CGB/CGB-only game already carries its own palette data.
func (m *Machine) IsCGBCompat() bool { return m.isCGBCompat }

func (m *Machine) autoDetectCompatPalette() {
	m.isCGBCompat = m.header != nil && (m.header.CGBFlag&0xC0) == 0
	if !m.isCGBCompat {
		m.compatPaletteID = 0
		return
	}
	if id, ok := autoCompatPaletteFromHeader(m.header); ok {
		m.compatPaletteID = id % len(cgbCompatSets)
	}
}

// CurrentCompatPalette returns the active palette ID, indexable into
// CompatPaletteName.
func (m *Machine) CurrentCompatPalette() int { return m.compatPaletteID }

// CycleCompatPalette advances (or retreats, for a negative delta) the
// active palette by one, wrapping around the available set.
func (m *Machine) CycleCompatPalette(delta int) {
	n := len(cgbCompatSets)
	m.compatPaletteID = ((m.compatPaletteID+delta)%n + n) % n
}

// SetCompatPalette selects a palette by ID directly (clamped into range).
func (m *Machine) SetCompatPalette(id int) {
	n := len(cgbCompatSets)
	m.compatPaletteID = ((id % n) + n) % n
}

// CompatPaletteName returns the display name for a palette ID.
func (m *Machine) CompatPaletteName(id int) string {
	n := len(cgbCompatSetNames)
	id = ((id % n) + n) % n
	return cgbCompatSetNames[id]
}

// --- Audio ---

// APUBufferedStereo returns the number of stereo frames currently queued.
func (m *Machine) APUBufferedStereo() int {
	if m.b == nil {
		return 0
	}
	return m.b.APU().StereoAvailable()
}

// APUPullStereo pulls up to max interleaved [L0,R0,L1,R1,...] stereo
// frames for the host audio player.
func (m *Machine) APUPullStereo(max int) []int16 {
	if m.b == nil {
		return nil
	}
	return m.b.APU().PullStereo(max)
}

// APUCapBufferedStereo discards buffered stereo frames down to ceiling, to
// keep host audio latency bounded when the buffer runs away.
func (m *Machine) APUCapBufferedStereo(ceiling int) {
	if m.b == nil {
		return
	}
	a := m.b.APU()
	if extra := a.StereoAvailable() - ceiling; extra > 0 {
		a.PullStereo(extra)
	}
}

// APUClearAudioLatency drops all currently buffered audio, used when
// (re)starting the audio player to avoid an initial stall of stale frames.
func (m *Machine) APUClearAudioLatency() {
	if m.b == nil {
		return
	}
	a := m.b.APU()
	if n := a.StereoAvailable(); n > 0 {
		a.PullStereo(n)
	}
}

// SetChannelMute silences channel ch (1..4) in the mix without touching its
// register state, for isolating channels while debugging audio.
func (m *Machine) SetChannelMute(ch int, muted bool) {
	if m.b == nil {
		return
	}
	m.b.APU().SetChannelMute(ch, muted)
}

// ChannelMuted reports whether SetChannelMute silenced channel ch.
func (m *Machine) ChannelMuted(ch int) bool {
	if m.b == nil {
		return false
	}
	return m.b.APU().ChannelMuted(ch)
}
