package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademuri/spotify-genre-tools/internal/catalog"
	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

func rec(label string, match bool, supergenre string, genres ...string) Record {
	if genres == nil {
		genres = []string{}
	}
	return Record{
		Label:      label,
		Item:       catalog.Item{ID: "id", Name: "n", Genres: genres},
		IsMatch:    match,
		Supergenre: supergenre,
	}
}

func TestClassify(t *testing.T) {
	tax, err := genre.NewTaxonomy([]genre.Supergenre{
		{Key: "urban", Tags: []string{"hip hop"}},
		{Key: "alt_rock", Tags: []string{"rock"}},
	})
	require.NoError(t, err)

	collections := []catalog.Collection{
		{Label: "DW1", Items: []catalog.Item{
			{ID: "1", Genres: []string{"hip hop", "rock"}},
			{ID: "2", Genres: []string{"polka"}},
			{ID: "3", Genres: []string{}},
		}},
		{Label: "DW2", Items: []catalog.Item{{ID: "4", Genres: []string{"rock"}}}},
	}

	records := Classify(collections, genre.Classifier{Taxonomy: tax})
	require.Len(t, records, 4)
	assert.Equal(t, "DW1", records[0].Label)
	assert.True(t, records[0].IsMatch)
	assert.Equal(t, "alt_rock", records[0].Supergenre)
	assert.False(t, records[1].IsMatch)
	assert.False(t, records[2].IsMatch)
	assert.Empty(t, records[2].Supergenre)
	assert.Equal(t, "DW2", records[3].Label)
}

func TestMatchPercentagesScenario(t *testing.T) {
	records := []Record{
		rec("Daily Mix 1", true, "urban", "hip hop"),
		rec("Daily Mix 1", true, "urban", "rap"),
		rec("Daily Mix 1", false, "", "polka"),
		rec("Daily Mix 1", true, "alt_rock", "rock"),
		// No genres: excluded from statistics.
		rec("Daily Mix 1", false, ""),
	}

	rows := MatchPercentages(records)
	require.Len(t, rows, 1)
	assert.Equal(t, MatchRow{Label: "Daily Mix 1", True: 3, False: 1, Ratio: 0.75}, rows[0])
}

func TestMatchPercentagesOmitsEmptyLabels(t *testing.T) {
	records := []Record{
		rec("b", false, "", "polka"),
		rec("empty", false, ""),
		rec("a", true, "urban", "rap"),
		rec("b", false, "", "jazz"),
	}

	rows := MatchPercentages(records)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].Label)
	assert.Equal(t, "a", rows[1].Label)
	for _, r := range rows {
		assert.Greater(t, r.True+r.False, 0)
		assert.GreaterOrEqual(t, r.Ratio, 0.0)
		assert.LessOrEqual(t, r.Ratio, 1.0)
	}
	assert.Equal(t, 0.0, rows[0].Ratio)
	assert.Equal(t, 1.0, rows[1].Ratio)
}

func TestMostCommonGenres(t *testing.T) {
	records := []Record{
		rec("x", false, "", "b", "a"),
		rec("x", false, "", "a", "c"),
		rec("x", false, "", "c"),
		rec("x", false, "", "d"),
	}

	assert.Equal(t, []GenreCount{{"a", 2}, {"c", 2}, {"b", 1}, {"d", 1}}, MostCommonGenres(records, 0))
	assert.Equal(t, []GenreCount{{"a", 2}, {"c", 2}}, MostCommonGenres(records, 2))
	assert.Empty(t, MostCommonGenres(nil, 15))
}

func TestMostCommonGenreSkipsMissing(t *testing.T) {
	records := []Record{
		rec("x", false, ""),
		rec("x", false, ""),
		rec("x", false, ""),
		rec("x", false, "", "rock"),
		rec("x", false, "", "rock", "pop"),
	}

	g, ok := MostCommonGenre(records, DefaultTopCandidates)
	require.True(t, ok)
	assert.Equal(t, "rock", g)

	_, ok = MostCommonGenre([]Record{rec("x", false, "")}, DefaultTopCandidates)
	assert.False(t, ok)

	// Missing entries take slots in the top k.
	_, ok = MostCommonGenre(records, 1)
	assert.False(t, ok)
}

func TestMostCommonGenreByLabel(t *testing.T) {
	records := []Record{
		rec("DW1", false, "", "rock"),
		rec("DW2", false, ""),
		rec("DW1", false, "", "rock", "pop"),
		rec("DW3", false, "", "jazz"),
	}

	assert.Equal(t, []LabelGenre{{"DW1", "rock"}, {"DW3", "jazz"}}, MostCommonGenreByLabel(records, DefaultTopCandidates))
}

func TestUnclassifiedAndShares(t *testing.T) {
	tax, err := genre.NewTaxonomy([]genre.Supergenre{
		{Key: "urban", Display: "Urban", Tags: []string{"rap"}},
		{Key: "emo", Display: "Emo", Tags: []string{"emo"}},
		{Key: "alt_rock", Display: "Alt Rock", Tags: []string{"rock"}},
	})
	require.NoError(t, err)

	records := []Record{
		rec("x", true, "alt_rock", "rock"),
		rec("x", true, "urban", "rap"),
		rec("x", true, "urban", "rap"),
		rec("x", false, "", "polka"),
	}

	assert.Len(t, Unclassified(records), 1)

	shares := SupergenreShares(records, tax, "")
	assert.Equal(t, []Share{
		{Supergenre: "Urban", Count: 2, Ratio: 0.5},
		{Supergenre: "Alt Rock", Count: 1, Ratio: 0.25},
		{Supergenre: "Other", Count: 1, Ratio: 0.25},
	}, shares)

	assert.Nil(t, SupergenreShares(nil, tax, "Otro"))
}

func TestTables(t *testing.T) {
	pop := 42
	r := rec("DW1", true, "urban", "hip hop", "rap")
	r.Popularity = &pop
	r.ArtistName = "Artist"

	raw := RawTable("discover_weeklies", []Record{r, rec("DW1", false, "")})
	require.NoError(t, raw.Validate())
	assert.Equal(t, []string{"DW1", "n", "42", "", "id", "Artist", "", `["hip hop","rap"]`, "true", "urban"}, raw.Rows[0])
	assert.Equal(t, "[]", raw.Rows[1][7])
	assert.Equal(t, "", raw.Rows[1][2])

	match := MatchTable("m", []MatchRow{{Label: "Daily Mix 1", True: 3, False: 1, Ratio: 0.75}})
	assert.Equal(t, []string{"Daily Mix 1", "3", "1", "0.75"}, match.Rows[0])

	combined := CombineGenreTables("flourish/all_mcg", []SourceGenres{
		{Source: "saved_tracks", Genres: []GenreCount{{"rock", 2}}},
		{Source: "top_tracks", Genres: []GenreCount{{"pop", 1}, {"jazz", 1}}},
	})
	require.NoError(t, combined.Validate())
	assert.Len(t, combined.Rows, 3)
	assert.Equal(t, []string{"top_tracks", "jazz", "1"}, combined.Rows[2])
}
