// Command gebeh is a headless runner: load a ROM, run it for a fixed
// number of frames, and dump whatever the caller asked for (framebuffer
// PNG, serial output, a disassembly listing) without opening a window.
package main

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/itytophile/gebeh-sub000/internal/bus"
	"github.com/itytophile/gebeh-sub000/internal/cpu"
	"github.com/itytophile/gebeh-sub000/internal/emu"
)

func main() {
	app := &cli.App{
		Name:  "gebeh",
		Usage: "headless DMG emulator runner",
		Commands: []*cli.Command{
			runCommand(),
			conformanceCommand(),
			disasmCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("gebeh", "error", err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run a ROM for N frames and report the final framebuffer checksum",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rom", Required: true, Usage: "path to the ROM (.gb)"},
			&cli.StringFlag{Name: "bootrom", Usage: "optional DMG boot ROM"},
			&cli.IntFlag{Name: "frames", Value: 300, Usage: "number of frames to run"},
			&cli.StringFlag{Name: "outpng", Usage: "write the final framebuffer to this PNG path"},
			&cli.BoolFlag{Name: "serial", Usage: "echo serial port bytes to stdout"},
		},
		Action: func(c *cli.Context) error {
			m := emu.New(emu.Config{})
			if boot := c.String("bootrom"); boot != "" {
				data, err := os.ReadFile(boot)
				if err != nil {
					return fmt.Errorf("read boot rom: %w", err)
				}
				m.SetBootROM(data)
			}
			if err := m.LoadROMFromFile(c.String("rom")); err != nil {
				return fmt.Errorf("load rom: %w", err)
			}
			var serial bytes.Buffer
			if c.Bool("serial") {
				m.SetSerialWriter(&serial)
			}

			frames := c.Int("frames")
			start := time.Now()
			for i := 0; i < frames; i++ {
				m.StepFrame()
			}
			elapsed := time.Since(start)

			fb := m.Framebuffer()
			crc := crc32.ChecksumIEEE(fb)
			fps := float64(frames) / elapsed.Seconds()
			slog.Info("run complete", "rom", c.String("rom"), "frames", frames,
				"elapsed", elapsed.Truncate(time.Millisecond), "fps", fmt.Sprintf("%.1f", fps),
				"fb_crc32", fmt.Sprintf("%08x", crc))

			if c.Bool("serial") && serial.Len() > 0 {
				fmt.Fprintln(os.Stdout, serial.String())
			}
			if out := c.String("outpng"); out != "" {
				if err := writeFramePNG(fb, 160, 144, out); err != nil {
					return fmt.Errorf("write png: %w", err)
				}
				slog.Info("wrote framebuffer", "path", out)
			}
			return nil
		},
	}
}

func conformanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "conformance",
		Usage: "run a blargg/mooneye-style test ROM and report pass/fail from its serial output",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rom", Required: true, Usage: "path to the test ROM"},
			&cli.IntFlag{Name: "max-frames", Value: 3600, Usage: "give up after this many frames with no verdict"},
		},
		Action: func(c *cli.Context) error {
			m := emu.New(emu.Config{})
			if err := m.LoadROMFromFile(c.String("rom")); err != nil {
				return fmt.Errorf("load rom: %w", err)
			}
			var serial bytes.Buffer
			m.SetSerialWriter(&serial)

			maxFrames := c.Int("max-frames")
			for i := 0; i < maxFrames; i++ {
				m.StepFrameNoRender()
				out := serial.String()
				if bytes.Contains(serial.Bytes(), []byte("Passed")) {
					slog.Info("conformance PASSED", "rom", c.String("rom"), "frame", i, "serial", out)
					return nil
				}
				if bytes.Contains(serial.Bytes(), []byte("Failed")) {
					slog.Error("conformance FAILED", "rom", c.String("rom"), "frame", i, "serial", out)
					return fmt.Errorf("test ROM reported failure")
				}
			}
			return fmt.Errorf("no pass/fail verdict after %d frames; serial=%q", maxFrames, serial.String())
		},
	}
}

func disasmCommand() *cli.Command {
	return &cli.Command{
		Name:  "disasm",
		Usage: "disassemble instructions starting at an address in a ROM",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rom", Required: true, Usage: "path to the ROM (.gb)"},
			&cli.UintFlag{Name: "addr", Value: 0x0100, Usage: "starting address"},
			&cli.IntFlag{Name: "count", Value: 32, Usage: "number of instructions to print"},
		},
		Action: func(c *cli.Context) error {
			rom, err := os.ReadFile(c.String("rom"))
			if err != nil {
				return fmt.Errorf("read rom: %w", err)
			}
			b := bus.New(rom)
			lines := cpu.DisassembleRange(b, uint16(c.Uint("addr")), c.Int("count"))
			for _, l := range lines {
				fmt.Printf("0x%04X: %s\n", l.Address, l.Text)
			}
			return nil
		},
	}
}

func writeFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{
		Pix:    append([]byte(nil), pix...),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
