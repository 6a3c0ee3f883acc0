package signals

import (
	"sort"
	"strings"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

var tokenSynonyms = map[string]string{
	"boot":       "trunk",
	"tailgate":   "trunk",
	"bonnet":     "hood",
	"wing":       "fender",
	"headlamp":   "headlight",
	"taillamp":   "taillight",
	"windscreen": "windshield",
	"back":       "rear",
	"lh":         "left",
	"rh":         "right",
	"grill":      "grille",
}

var compoundTokens = map[[2]string]string{
	{"head", "light"}:  "headlight",
	{"head", "lamp"}:   "headlight",
	{"tail", "light"}:  "taillight",
	{"tail", "lamp"}:   "taillight",
	{"wind", "shield"}: "windshield",
	{"wind", "screen"}: "windshield",
	{"sun", "roof"}:    "sunroof",
}

var glassTokens = map[string]bool{
	"windshield": true,
	"window":     true,
	"glass":      true,
	"sunroof":    true,
}

// expectedParts is the fixed impact to expected-parts lookup. A detected part
// matches an entry when it carries every token of the entry; the opposite
// direction is rejected through conflictTokens.
var expectedParts = map[domain.ImpactPoint][][]string{
	domain.ImpactFront: {
		{"bumper"}, {"hood"}, {"headlight"}, {"grille"}, {"radiator"}, {"windshield"},
	},
	domain.ImpactRear: {
		{"bumper"}, {"trunk"}, {"taillight"}, {"quarter"}, {"rear", "windshield"}, {"exhaust"},
	},
	domain.ImpactLeft: {
		{"door"}, {"pillar"}, {"fender"}, {"mirror"}, {"quarter"}, {"rocker"},
	},
	domain.ImpactRight: {
		{"door"}, {"pillar"}, {"fender"}, {"mirror"}, {"quarter"}, {"rocker"},
	},
}

var conflictTokens = map[domain.ImpactPoint]string{
	domain.ImpactFront: "rear",
	domain.ImpactRear:  "front",
	domain.ImpactLeft:  "right",
	domain.ImpactRight: "left",
}

// PartTokens canonicalizes a CV part name into a sorted token set.
func PartTokens(name string) []string {
	raw := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for i := range raw {
		raw[i] = singular(raw[i])
	}

	merged := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if i+1 < len(raw) {
			if joined, ok := compoundTokens[[2]string{raw[i], raw[i+1]}]; ok {
				merged = append(merged, joined)
				i++
				continue
			}
		}
		merged = append(merged, raw[i])
	}

	seen := make(map[string]bool, len(merged))
	out := make([]string, 0, len(merged))
	for _, token := range merged {
		if syn, ok := tokenSynonyms[token]; ok {
			token = syn
		}
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// CanonicalPart renders the canonical token set as a stable part key.
func CanonicalPart(name string) string {
	return strings.Join(PartTokens(name), " ")
}

// IsGlassPart reports whether a part name refers to glazing.
func IsGlassPart(name string) bool {
	for _, token := range PartTokens(name) {
		if glassTokens[token] {
			return true
		}
	}
	return false
}

// ExpectedParts returns a display list of the expected parts for an impact.
func ExpectedParts(impact domain.ImpactPoint) []string {
	entries := expectedParts[impact]
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, strings.Join(entry, " "))
	}
	return out
}

// MatchesImpact reports whether a detected part is plausible for the impact.
// Multiple accepts every part; Unknown accepts none.
func MatchesImpact(partName string, impact domain.ImpactPoint) bool {
	if impact == domain.ImpactMultiple {
		return true
	}
	entries, ok := expectedParts[impact]
	if !ok {
		return false
	}
	tokens := PartTokens(partName)
	set := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		set[token] = true
	}
	if conflict := conflictTokens[impact]; set[conflict] {
		return false
	}
	for _, entry := range entries {
		if containsAll(set, entry) {
			return true
		}
	}
	return false
}

func containsAll(set map[string]bool, tokens []string) bool {
	for _, token := range tokens {
		if !set[token] {
			return false
		}
	}
	return true
}

func singular(token string) string {
	switch {
	case len(token) <= 3:
		return token
	case strings.HasSuffix(token, "ss"):
		return token
	case strings.HasSuffix(token, "ies"):
		return strings.TrimSuffix(token, "ies") + "y"
	case strings.HasSuffix(token, "s"):
		return strings.TrimSuffix(token, "s")
	default:
		return token
	}
}
