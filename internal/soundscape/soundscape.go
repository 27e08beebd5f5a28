// Package soundscape synthesizes the ambient soundscapes played during a
// session. Every soundscape is a pure function of a sample count, a sample
// rate and a random source, so buffers can be regenerated at will.
package soundscape

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sahilm/fuzzy"
)

// ID identifies a soundscape. Valid identifiers are 1 through 6.
type ID int

const (
	// Rain is white noise at low level with occasional louder drops.
	Rain ID = iota + 1
	// Ocean is a pair of slow sine swells over light noise.
	Ocean
	// Forest is a quiet noise floor with rare bird-like chirps.
	Forest
	// CoffeeShop is a low murmur and rumble with the odd machine burst.
	CoffeeShop
	// BrownNoise is integrated white noise.
	BrownNoise
	// PinkNoise is 1/f filtered white noise.
	PinkNoise
)

// ErrUnknown is returned for identifiers or names that do not name a
// soundscape.
var ErrUnknown = errors.New("unknown soundscape")

var names = map[ID]string{
	Rain:       "Rain",
	Ocean:      "Ocean Waves",
	Forest:     "Forest",
	CoffeeShop: "Coffee Shop",
	BrownNoise: "Brown Noise",
	PinkNoise:  "Pink Noise",
}

var descriptions = map[ID]string{
	Rain:       "Gentle rainfall",
	Ocean:      "Rolling waves on the shore",
	Forest:     "Birds and leaves in the distance",
	CoffeeShop: "Soft chatter and a busy espresso machine",
	BrownNoise: "Deep, warm static",
	PinkNoise:  "Balanced, even static",
}

// All returns every soundscape in display order.
func All() []ID {
	return []ID{Rain, Ocean, Forest, CoffeeShop, BrownNoise, PinkNoise}
}

// Valid reports whether id names a soundscape.
func (id ID) Valid() bool {
	_, ok := names[id]
	return ok
}

// String returns the display name, or an empty string for invalid ids.
func (id ID) String() string {
	return names[id]
}

// Description returns a one-line description of the soundscape.
func (id ID) Description() string {
	return descriptions[id]
}

// Parse accepts either a numeric identifier or a (possibly partial) name.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		id := ID(n)
		if !id.Valid() {
			return 0, errors.Wrapf(ErrUnknown, "id %d", n)
		}
		return id, nil
	}
	return Lookup(s)
}

// Lookup finds the soundscape whose name best matches query. Matching is
// fuzzy and case-insensitive, so "brown", "cof" or "pnk" all resolve.
func Lookup(query string) (ID, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 0, errors.Wrap(ErrUnknown, "empty name")
	}

	ids := All()
	candidates := make([]string, len(ids))
	for i, id := range ids {
		candidates[i] = strings.ToLower(id.String())
	}

	matches := fuzzy.Find(query, candidates)
	if len(matches) == 0 {
		return 0, errors.Wrapf(ErrUnknown, "%q", query)
	}
	return ids[matches[0].Index], nil
}
