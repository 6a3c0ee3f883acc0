package signals

import (
	"strings"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

type impactCue struct {
	phrase string
	impact domain.ImpactPoint
	weight int
}

// impactCues are checked against the lower-cased narrative. Phrases carry a
// higher weight than bare direction words.
var impactCues = []impactCue{
	{"rear-ended", domain.ImpactRear, 3},
	{"rear ended", domain.ImpactRear, 3},
	{"from behind", domain.ImpactRear, 3},
	{"reversed into", domain.ImpactRear, 2},
	{"backed into", domain.ImpactRear, 2},
	{"head-on", domain.ImpactFront, 3},
	{"head on", domain.ImpactFront, 3},
	{"ran into", domain.ImpactFront, 2},
	{"crashed into", domain.ImpactFront, 2},
	{"left side", domain.ImpactLeft, 2},
	{"driver side", domain.ImpactLeft, 1},
	{"right side", domain.ImpactRight, 2},
	{"passenger side", domain.ImpactRight, 1},
	{"rolled over", domain.ImpactMultiple, 3},
	{"rollover", domain.ImpactMultiple, 3},
	{"multiple impacts", domain.ImpactMultiple, 3},
	{"rear", domain.ImpactRear, 1},
	{"front", domain.ImpactFront, 1},
	{"left", domain.ImpactLeft, 1},
	{"right", domain.ImpactRight, 1},
}

// InferImpact derives the point of impact from free narrative text. It returns
// Unknown when no cue is present or the strongest cues tie.
func InferImpact(narrative string) domain.ImpactPoint {
	text := " " + normalizeText(narrative) + " "
	if strings.TrimSpace(text) == "" {
		return domain.ImpactUnknown
	}

	scores := make(map[domain.ImpactPoint]int)
	for _, cue := range impactCues {
		if n := countPhrase(text, cue.phrase); n > 0 {
			scores[cue.impact] += n * cue.weight
		}
	}

	best := domain.ImpactUnknown
	bestScore := 0
	tie := false
	for _, impact := range []domain.ImpactPoint{
		domain.ImpactFront, domain.ImpactRear, domain.ImpactLeft, domain.ImpactRight, domain.ImpactMultiple,
	} {
		score := scores[impact]
		switch {
		case score > bestScore:
			best, bestScore, tie = impact, score, false
		case score == bestScore && score > 0:
			tie = true
		}
	}
	if tie {
		return domain.ImpactUnknown
	}
	return best
}

// WordCount counts whitespace separated words.
func WordCount(narrative string) int {
	return len(strings.Fields(narrative))
}

// NarrativeSufficient is the explicit completeness predicate for incident
// narratives: long enough to describe a sequence of events and naming an
// identifiable point of impact.
func NarrativeSufficient(narrative string, minWords int) bool {
	return WordCount(narrative) >= minWords && InferImpact(narrative) != domain.ImpactUnknown
}

func normalizeText(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// countPhrase counts whole-word occurrences of phrase in a space padded text.
func countPhrase(text, phrase string) int {
	return strings.Count(text, " "+phrase+" ")
}
