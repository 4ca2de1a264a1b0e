package genre

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyTaxonomy = errors.New("taxonomy has no supergenres")

// Supergenre is a curated umbrella category grouping raw genre tags.
type Supergenre struct {
	// Key identifies the supergenre in reports, like "alt_rock".
	Key string

	// Display is the human readable name, like "Alt Rock". Optional.
	Display string

	Tags []string
}

// Name returns the display name, falling back to the key.
func (s Supergenre) Name() string {
	if s.Display != "" {
		return s.Display
	}
	return s.Key
}

// Taxonomy is an ordered, immutable mapping from supergenre to genre tags.
type Taxonomy struct {
	groups []Supergenre
	sets   []map[string]struct{}
}

// Overlap is a genre tag declared under more than one supergenre.
type Overlap struct {
	Tag  string
	Keys []string
}

// NewTaxonomy validates and copies groups. Declaration order is kept and is the
// order classification scans supergenres in.
func NewTaxonomy(groups []Supergenre) (*Taxonomy, error) {
	if len(groups) == 0 {
		return nil, ErrEmptyTaxonomy
	}

	t := &Taxonomy{
		groups: make([]Supergenre, 0, len(groups)),
		sets:   make([]map[string]struct{}, 0, len(groups)),
	}
	seen := make(map[string]bool, len(groups))
	for i, g := range groups {
		key := strings.TrimSpace(g.Key)
		if key == "" {
			return nil, fmt.Errorf("supergenre %d: empty key", i)
		}
		if seen[key] {
			return nil, fmt.Errorf("supergenre %q declared twice", key)
		}
		seen[key] = true

		tags := make([]string, 0, len(g.Tags))
		set := make(map[string]struct{}, len(g.Tags))
		for _, tag := range g.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, ok := set[tag]; ok {
				continue
			}
			set[tag] = struct{}{}
			tags = append(tags, tag)
		}

		t.groups = append(t.groups, Supergenre{Key: key, Display: g.Display, Tags: tags})
		t.sets = append(t.sets, set)
	}
	return t, nil
}

// Supergenres returns a copy of the supergenres in declared order.
func (t *Taxonomy) Supergenres() []Supergenre {
	out := make([]Supergenre, len(t.groups))
	for i, g := range t.groups {
		g.Tags = append([]string(nil), g.Tags...)
		out[i] = g
	}
	return out
}

func (t *Taxonomy) Len() int {
	return len(t.groups)
}

// contains reports whether the supergenre at index i declares tag.
func (t *Taxonomy) contains(i int, tag string) bool {
	_, ok := t.sets[i][tag]
	return ok
}

// DisplayName maps a supergenre key to its display name. Unknown keys are
// returned unchanged.
func (t *Taxonomy) DisplayName(key string) string {
	for _, g := range t.groups {
		if g.Key == key {
			return g.Name()
		}
	}
	return key
}

// Overlaps lists tags that appear under several supergenres, in the order they
// are first declared. Classification still works with overlaps; which
// supergenre wins depends on the match policy.
func (t *Taxonomy) Overlaps() []Overlap {
	owners := make(map[string][]string)
	var order []string
	for _, g := range t.groups {
		for _, tag := range g.Tags {
			if _, ok := owners[tag]; !ok {
				order = append(order, tag)
			}
			owners[tag] = append(owners[tag], g.Key)
		}
	}

	var overlaps []Overlap
	for _, tag := range order {
		if len(owners[tag]) > 1 {
			overlaps = append(overlaps, Overlap{Tag: tag, Keys: owners[tag]})
		}
	}
	return overlaps
}
