package emu

// cgbCompatSetNames and cgbCompatSets implement the Super-Game-Boy-style
// "DMG colorization" compat-palette feature: a cosmetic tint applied on top
// of the same 2-bit shade buffer the core PPU already produces, selected by
// title/checksum heuristics in compat_tables.go. This is not CGB hardware
// emulation (an explicit non-goal) — it recolors the 4 DMG shades with one
// 4-color set for the whole frame; BG and OBJ pixels are not told apart.
//
// Each set holds 4 RGB colors indexed by shade 0..3 (lightest to darkest).
var cgbCompatSetNames = []string{
	"Green", "Sepia", "Blue", "Red", "Pastel", "Grayscale",
}

var cgbCompatSets = [][4][3]byte{
	// Green: classic DMG look.
	{{155, 188, 15}, {139, 172, 15}, {48, 98, 48}, {15, 56, 15}},
	// Sepia
	{{255, 246, 211}, {206, 173, 122}, {139, 94, 60}, {60, 40, 30}},
	// Blue
	{{224, 248, 255}, {148, 198, 227}, {74, 121, 168}, {20, 40, 80}},
	// Red
	{{255, 224, 224}, {230, 130, 130}, {170, 40, 40}, {70, 10, 10}},
	// Pastel
	{{255, 240, 245}, {200, 220, 255}, {180, 160, 220}, {90, 80, 120}},
	// Grayscale
	{{255, 255, 255}, {170, 170, 170}, {85, 85, 85}, {0, 0, 0}},
}
