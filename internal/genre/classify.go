package genre

import (
	"fmt"
	"strings"
)

// MatchPolicy decides which supergenre wins when several tags of one item
// match different supergenres.
type MatchPolicy int

const (
	// LastMatchWins scans every tag against every supergenre and keeps the last
	// match visited. This is the historical behaviour of the reports.
	LastMatchWins MatchPolicy = iota

	// FirstMatchWins stops at the first matching (tag, supergenre) pair.
	FirstMatchWins
)

func (p MatchPolicy) String() string {
	switch p {
	case LastMatchWins:
		return "last"
	case FirstMatchWins:
		return "first"
	default:
		return fmt.Sprintf("MatchPolicy(%d)", int(p))
	}
}

// ParseMatchPolicy accepts "last" or "first". An empty string is LastMatchWins.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last":
		return LastMatchWins, nil
	case "first":
		return FirstMatchWins, nil
	default:
		return LastMatchWins, fmt.Errorf("unknown match policy %q (want \"last\" or \"first\")", s)
	}
}

// Classifier assigns at most one supergenre to a set of genre tags.
type Classifier struct {
	Taxonomy *Taxonomy
	Policy   MatchPolicy
}

// Classify returns whether any tag belongs to a supergenre, and which
// supergenre key was assigned. Tags are visited in slice order and
// supergenres in declared order. Empty input returns (false, "").
func (c Classifier) Classify(tags []string) (isMatch bool, supergenre string) {
	if c.Taxonomy == nil {
		return false, ""
	}

	for _, tag := range tags {
		for i, g := range c.Taxonomy.groups {
			if !c.Taxonomy.contains(i, tag) {
				continue
			}
			isMatch = true
			supergenre = g.Key
			if c.Policy == FirstMatchWins {
				return isMatch, supergenre
			}
		}
	}
	return isMatch, supergenre
}
