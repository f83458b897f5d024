package identity

import (
	"crypto/sha256"
)

// palette is the fixed ordered set of chart colors. 20 visually distinct
// entries; assignment is by hash, so the order only matters for debug
// output and for keeping assignments stable across releases — do not
// reorder or remove entries, or every developer's color shifts.
var palette = []string{
	"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
	"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
	"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
	"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
}

// FallbackColor is a last-resort sentinel for callers that render series
// with no name at all. ColorFor never returns it: the hash path always
// lands inside the palette.
const FallbackColor = "#999999"

// ColorFor returns the display color for a developer name.
//
// The color is the palette entry at SHA-256(name) mod len(palette):
// deterministic across processes and restarts, with no persisted state and
// no registration step — any string gets a color, whether or not it is a
// configured canonical name. Distinct names can share a color once the
// roster approaches the palette size; that is accepted, bounded behavior.
func ColorFor(name string) string {
	sum := sha256.Sum256([]byte(name))

	// Reduce the full 256-bit digest modulo the palette size. Folding
	// byte-by-byte keeps the arithmetic in an int while matching
	// big-integer mod exactly.
	idx := 0
	for _, b := range sum {
		idx = (idx*256 + int(b)) % len(palette)
	}
	return palette[idx]
}

// ColorMap assigns a color to every name in names. Duplicates and order
// are irrelevant; the result has one entry per distinct name.
func ColorMap(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = ColorFor(name)
	}
	return out
}
