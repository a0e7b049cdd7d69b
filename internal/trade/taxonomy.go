// Package trade holds the fixed taxonomy of recognized trade categories
// and the normalizer every trade comparison in the service goes through.
// Stored and user-entered trade strings have drifted in casing and
// underscore conventions, so raw string equality is never used.
package trade

import "strings"

// Trades is the fixed, ordered set of canonical trade names.
var Trades = []string{
	"Electrician",
	"Plumber",
	"Carpenter",
	"Painter",
	"Tiler",
	"Roofer",
	"Plasterer",
	"Bricklayer",
	"Concreter",
	"Landscaper",
	"Cabinet Maker",
	"Glazier",
	"Flooring Installer",
	"Air Conditioning Technician",
	"Handyman",
	"Demolition Contractor",
	"Fencing Contractor",
	"Waterproofer",
}

var canonical = buildIndex()

func buildIndex() map[string]string {
	index := make(map[string]string, len(Trades))
	for _, t := range Trades {
		index[fold(t)] = t
	}
	return index
}

// fold collapses the casing and separator variants seen in stored data
// ("cabinet_maker", "Cabinet-Maker", " cabinet  maker ") to one key.
func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Normalize maps free text to a canonical trade name. Unmatched strings
// return ok=false and are treated as "no trade": they satisfy no
// trade-based filter and never widen into a wildcard match.
func Normalize(s string) (string, bool) {
	name, ok := canonical[fold(s)]
	return name, ok
}

// Match reports whether two trade strings name the same canonical
// trade. Either side failing to normalize means no match.
func Match(a, b string) bool {
	ca, ok := Normalize(a)
	if !ok {
		return false
	}
	cb, ok := Normalize(b)
	if !ok {
		return false
	}
	return ca == cb
}
