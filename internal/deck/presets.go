package deck

import (
	"fmt"
	"sort"
)

// Preset deck compositions. Counts are per rank 1..10; ten-valued face
// cards are bucketed into the rank-10 count.
var presets = map[string]Counts{
	// Four of each rank, no face cards.
	"standard40": {4, 4, 4, 4, 4, 4, 4, 4, 4, 4},
	// A full 52-card deck with 10/J/Q/K collapsed into rank 10.
	"tens52": {4, 4, 4, 4, 4, 4, 4, 4, 4, 16},
	// Short deck: ranks 1..7 plus twelve ten-valued cards.
	"short40": {4, 4, 4, 4, 4, 4, 4, 0, 0, 12},
	// Six-deck shoe: 24 of each rank 1..9 plus 96 ten-valued cards.
	"shoe336": {24, 24, 24, 24, 24, 24, 24, 24, 24, 96},
}

// Preset returns a named deck composition.
func Preset(name string) (Deck, error) {
	counts, ok := presets[name]
	if !ok {
		return Deck{}, fmt.Errorf("unknown deck preset %q (have: %v)", name, Presets())
	}
	return New(counts)
}

// Presets lists the available preset names, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
