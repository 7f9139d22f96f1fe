// Package nickname gives commits memorable names.
//
// A nickname is four words chosen deterministically from the BLAKE3 digest
// of a commit id, e.g. "cobalt-heron-sketches-softly". The same id always
// yields the same nickname.
package nickname

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/javanhut/artgit/internal/cas"
)

// Word lists for generating memorable names
var (
	colours = []string{
		"amber", "azure", "cobalt", "crimson", "ochre", "umber", "sienna", "indigo",
		"violet", "scarlet", "teal", "olive", "ivory", "ebony", "slate", "coral",
		"saffron", "cerulean", "vermilion", "viridian", "magenta", "cyan", "lilac", "mauve",
		"sepia", "carmine", "jade", "rust", "pearl", "charcoal", "gilded", "silver",
	}

	subjects = []string{
		"heron", "fox", "willow", "harbor", "lantern", "meadow", "comet", "orchard",
		"sparrow", "cliff", "tide", "ember", "moth", "fern", "quarry", "cathedral",
		"dune", "glacier", "kestrel", "lotus", "marsh", "nebula", "otter", "pine",
		"raven", "reef", "summit", "thistle", "valley", "wren", "bramble", "canyon",
	}

	actions = []string{
		"sketches", "paints", "blends", "glazes", "shades", "inks", "etches", "smudges",
		"washes", "layers", "scumbles", "stipples", "hatches", "masks", "tints", "burnishes",
		"dabs", "sweeps", "traces", "frames", "crops", "dodges", "burns", "sharpens",
		"blurs", "warps", "mirrors", "fills", "strokes", "erases", "lifts", "flattens",
	}

	manners = []string{
		"softly", "boldly", "lightly", "slowly", "quickly", "loosely", "tightly", "freely",
		"gently", "wildly", "calmly", "deftly", "brightly", "darkly", "warmly", "coolly",
		"quietly", "sharply", "smoothly", "roughly", "thinly", "thickly", "evenly", "subtly",
		"vividly", "faintly", "neatly", "grandly", "simply", "richly", "barely", "fully",
	}
)

// For returns the nickname of a commit id.
func For(id string) string {
	h := cas.SumB3([]byte(id))
	pick := func(words []string, off int) string {
		return words[binary.LittleEndian.Uint16(h[off:])%uint16(len(words))]
	}
	return fmt.Sprintf("%s-%s-%s-%s",
		pick(colours, 0), pick(subjects, 2), pick(actions, 4), pick(manners, 6))
}

// Valid reports whether name has the four-word nickname shape.
func Valid(name string) bool {
	parts := strings.Split(name, "-")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// Index maps nicknames back to commit ids.
type Index map[string][]string

// NewIndex builds an index over ids.
func NewIndex(ids []string) Index {
	idx := make(Index, len(ids))
	for _, id := range ids {
		n := For(id)
		idx[n] = append(idx[n], id)
	}
	return idx
}

// Lookup returns the ids carrying name. More than one id means the
// nickname collides and cannot identify a commit on its own.
func (idx Index) Lookup(name string) []string {
	return idx[name]
}
