// Package analysis classifies fetched items and aggregates them into match
// percentages, genre rankings and supergenre shares.
package analysis

import (
	"sort"

	"github.com/ademuri/spotify-genre-tools/internal/catalog"
	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

const (
	// DefaultTopGenres is the length of the ranked genre tables.
	DefaultTopGenres = 15
	// DefaultTopCandidates is how many ranked entries are considered when
	// picking a single most common genre.
	DefaultTopCandidates = 5
	// DefaultOtherLabel names unclassified records in share tables.
	DefaultOtherLabel = "Other"
)

// Classify turns every item of every collection into a Record. Items without
// genres are kept (they count in raw tables) but never classified.
func Classify(collections []catalog.Collection, classifier genre.Classifier) []Record {
	var records []Record
	for _, c := range collections {
		for _, item := range c.Items {
			r := Record{Label: c.Label, Item: item}
			if r.HasGenres() {
				r.IsMatch, r.Supergenre = classifier.Classify(item.Genres)
			}
			records = append(records, r)
		}
	}
	return records
}

// MatchPercentages counts matching and non-matching records per label, in the
// order labels are first seen. Records without genres are ignored, and so are
// labels left with no qualifying records.
func MatchPercentages(records []Record) []MatchRow {
	var order []string
	rows := make(map[string]*MatchRow)
	for _, r := range records {
		if !r.HasGenres() {
			continue
		}
		row, ok := rows[r.Label]
		if !ok {
			row = &MatchRow{Label: r.Label}
			rows[r.Label] = row
			order = append(order, r.Label)
		}
		if r.IsMatch {
			row.True++
		} else {
			row.False++
		}
	}

	out := make([]MatchRow, 0, len(order))
	for _, label := range order {
		row := rows[label]
		row.Ratio = float64(row.True) / float64(row.True+row.False)
		out = append(out, *row)
	}
	return out
}

// rank counts entries and orders them by descending count, ties broken by
// first occurrence. k <= 0 keeps every entry.
func rank(entries []string, k int) []GenreCount {
	var counts []GenreCount
	index := make(map[string]int)
	for _, e := range entries {
		if i, ok := index[e]; ok {
			counts[i].Count++
			continue
		}
		index[e] = len(counts)
		counts = append(counts, GenreCount{Genre: e, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if k > 0 && len(counts) > k {
		counts = counts[:k]
	}
	return counts
}

// MostCommonGenres ranks the genre tags of all records, top k.
func MostCommonGenres(records []Record, k int) []GenreCount {
	var tags []string
	for _, r := range records {
		tags = append(tags, r.Genres...)
	}
	return rank(tags, k)
}

// MostCommonGenre picks the most common tag among records. A record without
// genres counts once as a missing tag: it takes a slot in the top k but can
// never be chosen. ok is false when the top k holds no real tag.
func MostCommonGenre(records []Record, k int) (genre string, ok bool) {
	var entries []string
	for _, r := range records {
		if !r.HasGenres() {
			entries = append(entries, "")
			continue
		}
		entries = append(entries, r.Genres...)
	}

	for _, c := range rank(entries, k) {
		if c.Genre != "" {
			return c.Genre, true
		}
	}
	return "", false
}

// MostCommonGenreByLabel computes MostCommonGenre separately for each label, in
// first-seen order. Labels without a result are left out.
func MostCommonGenreByLabel(records []Record, k int) []LabelGenre {
	var order []string
	byLabel := make(map[string][]Record)
	for _, r := range records {
		if _, ok := byLabel[r.Label]; !ok {
			order = append(order, r.Label)
		}
		byLabel[r.Label] = append(byLabel[r.Label], r)
	}

	var out []LabelGenre
	for _, label := range order {
		if g, ok := MostCommonGenre(byLabel[label], k); ok {
			out = append(out, LabelGenre{Label: label, Genre: g})
		}
	}
	return out
}

// Unclassified returns the records that fell into no supergenre.
func Unclassified(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.Supergenre == "" {
			out = append(out, r)
		}
	}
	return out
}

// SupergenreShares computes how many records fall into each supergenre,
// relative to all records. Supergenres come in taxonomy order under their
// display names, followed by otherLabel for everything unclassified. Empty
// groups are left out.
func SupergenreShares(records []Record, taxonomy *genre.Taxonomy, otherLabel string) []Share {
	if len(records) == 0 {
		return nil
	}
	if otherLabel == "" {
		otherLabel = DefaultOtherLabel
	}

	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Supergenre]++
	}

	total := float64(len(records))
	var out []Share
	add := func(name string, n int) {
		if n > 0 {
			out = append(out, Share{Supergenre: name, Count: n, Ratio: float64(n) / total})
		}
	}
	if taxonomy != nil {
		for _, sg := range taxonomy.Supergenres() {
			add(sg.Name(), counts[sg.Key])
			delete(counts, sg.Key)
		}
	}
	other := counts[""]
	delete(counts, "")
	// Keys the taxonomy no longer knows about are reported as Other too.
	for _, n := range counts {
		other += n
	}
	add(otherLabel, other)
	return out
}
