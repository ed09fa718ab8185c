package pairing

// palette is the fixed set of match colors. Zone index maps deterministically
// into it; events never run enough simultaneous pairs to wrap in practice.
var palette = []string{
	"Crimson", "Cobalt", "Emerald", "Amber",
	"Violet", "Teal", "Coral", "Indigo",
	"Olive", "Magenta", "Slate", "Gold",
	"Mint", "Ruby", "Azure", "Plum",
}

// ZoneColor returns the color for a zone index.
func ZoneColor(zone int) string {
	if zone < 0 {
		zone = 0
	}
	return palette[zone%len(palette)]
}

// PaletteSize is exposed for the admin zone picker.
func PaletteSize() int { return len(palette) }
