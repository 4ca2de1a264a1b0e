package analysis

import "github.com/ademuri/spotify-genre-tools/internal/catalog"

// Record is an item classified against a taxonomy, under its collection label.
type Record struct {
	Label string
	catalog.Item

	IsMatch bool
	// Supergenre is the matched supergenre key, empty when IsMatch is false.
	Supergenre string
}

// HasGenres reports whether the record takes part in match statistics.
func (r Record) HasGenres() bool {
	return len(r.Genres) > 0
}

type MatchRow struct {
	Label string  `yaml:"label"`
	True  int     `yaml:"true_count"`
	False int     `yaml:"false_count"`
	Ratio float64 `yaml:"match_ratio"`
}

type GenreCount struct {
	Genre string `yaml:"genre_tag"`
	Count int    `yaml:"recurrence_count"`
}

type LabelGenre struct {
	Label string `yaml:"label"`
	Genre string `yaml:"genre_tag"`
}

// Share is the fraction of all records falling into one supergenre.
type Share struct {
	Supergenre string  `yaml:"supergenre"`
	Count      int     `yaml:"count"`
	Ratio      float64 `yaml:"share"`
}

// SourceGenres is the ranked genre table of one source, e.g. "saved_tracks".
type SourceGenres struct {
	Source string
	Genres []GenreCount
}
