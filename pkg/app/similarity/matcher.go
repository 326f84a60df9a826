package similarity

import (
	"sort"

	"github.com/NeuralTrust/AltGuard/pkg/domain/actor"
	"github.com/NeuralTrust/AltGuard/pkg/domain/fingerprint"
)

type Match struct {
	ActorID     actor.ID `json:"actor_id"`
	MatchedName string   `json:"matched_name"`
	Ratio       float64  `json:"ratio"`
}

//go:generate mockery --name=Matcher --dir=. --output=./mocks --filename=matcher_mock.go --case=underscore --with-expecter
type Matcher interface {
	// FindSimilar compares names against every candidate except self. Matches
	// are sorted by ratio, highest first.
	FindSimilar(self actor.ID, names []string, candidates []*fingerprint.Fingerprint) (bool, []Match)
}

type matcher struct {
	threshold float64
}

func NewMatcher(threshold float64) Matcher {
	return &matcher{threshold: threshold}
}

func (m *matcher) FindSimilar(
	self actor.ID,
	names []string,
	candidates []*fingerprint.Fingerprint,
) (bool, []Match) {
	normalized := normalizeAll(names)
	if len(normalized) == 0 {
		return false, nil
	}

	var matches []Match
	for _, c := range candidates {
		if c == nil || c.ActorID == self {
			continue
		}
		best := Match{ActorID: c.ActorID, Ratio: -1}
		for _, other := range c.Names() {
			o := Normalize(other)
			if o == "" {
				continue
			}
			for _, n := range normalized {
				if r := Ratio(n, o); r > best.Ratio {
					best.Ratio = r
					best.MatchedName = other
				}
			}
		}
		if best.Ratio >= m.threshold {
			matches = append(matches, best)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Ratio == matches[j].Ratio {
			return matches[i].ActorID < matches[j].ActorID
		}
		return matches[i].Ratio > matches[j].Ratio
	})
	return len(matches) > 0, matches
}

// normalizeAll drops names that normalize to nothing, since an empty stem
// would match every other empty stem.
func normalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if v := Normalize(n); v != "" {
			out = append(out, v)
		}
	}
	return out
}
