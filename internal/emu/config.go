package emu

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace        bool // log CPU instructions
	LimitFPS     bool // throttle to ~60 Hz (useful for headless test mode)
	UseFetcherBG bool // not read: the PPU always renders BG/window through the fetcher/FIFO path
	StrictMode   bool // panic on unimplemented/invalid opcodes instead of a no-op
}
