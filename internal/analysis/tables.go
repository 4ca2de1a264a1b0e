package analysis

import (
	"encoding/json"
	"strconv"

	"github.com/ademuri/spotify-genre-tools/internal/export"
)

var (
	RawColumns        = []string{"label", "name", "popularity", "release_date", "identifier", "artist_name", "artist_id", "genre_tags", "is_match", "supergenre"}
	MatchColumns      = []string{"label", "true_count", "false_count", "match_ratio"}
	GenreColumns      = []string{"genre_tag", "recurrence_count"}
	LabelGenreColumns = []string{"label", "genre_tag"}
	ShareColumns      = []string{"supergenre", "count", "share"}
	CombinedColumns   = []string{"source", "genre_tag", "recurrence_count"}
)

func formatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// RawTable lists every record with its genres encoded as a JSON array.
func RawTable(name string, records []Record) export.Table {
	t := export.Table{Name: name, Columns: RawColumns}
	for _, r := range records {
		popularity := ""
		if r.Popularity != nil {
			popularity = strconv.Itoa(*r.Popularity)
		}
		genres := r.Genres
		if genres == nil {
			genres = []string{}
		}
		tags, _ := json.Marshal(genres)

		t.Rows = append(t.Rows, []string{
			r.Label,
			r.Name,
			popularity,
			r.ReleaseDate,
			r.ID,
			r.ArtistName,
			r.ArtistID,
			string(tags),
			strconv.FormatBool(r.IsMatch),
			r.Supergenre,
		})
	}
	return t
}

func MatchTable(name string, rows []MatchRow) export.Table {
	t := export.Table{Name: name, Columns: MatchColumns}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Label, strconv.Itoa(r.True), strconv.Itoa(r.False), formatRatio(r.Ratio)})
	}
	return t
}

func GenreTable(name string, counts []GenreCount) export.Table {
	t := export.Table{Name: name, Columns: GenreColumns}
	for _, c := range counts {
		t.Rows = append(t.Rows, []string{c.Genre, strconv.Itoa(c.Count)})
	}
	return t
}

func LabelGenreTable(name string, rows []LabelGenre) export.Table {
	t := export.Table{Name: name, Columns: LabelGenreColumns}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Label, r.Genre})
	}
	return t
}

func ShareTable(name string, shares []Share) export.Table {
	t := export.Table{Name: name, Columns: ShareColumns}
	for _, s := range shares {
		t.Rows = append(t.Rows, []string{s.Supergenre, strconv.Itoa(s.Count), formatRatio(s.Ratio)})
	}
	return t
}

// CombineGenreTables concatenates the ranked genre tables of several sources,
// tagging each row with its source.
func CombineGenreTables(name string, sources []SourceGenres) export.Table {
	t := export.Table{Name: name, Columns: CombinedColumns}
	for _, s := range sources {
		for _, c := range s.Genres {
			t.Rows = append(t.Rows, []string{s.Source, c.Genre, strconv.Itoa(c.Count)})
		}
	}
	return t
}
