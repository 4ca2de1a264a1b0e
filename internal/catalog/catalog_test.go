package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

type pageCall struct {
	endpoint Endpoint
	playlist string
	limit    int
	offset   int
}

// fakeSource serves fixed listings, paging them by limit and offset.
type fakeSource struct {
	listings  map[Endpoint][]RawItem
	playlists map[string][]RawItem
	failAt    int
	calls     []pageCall
}

func slice(items []RawItem, limit, offset int) []RawItem {
	if offset >= len(items) {
		return nil
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func (f *fakeSource) Page(ctx context.Context, endpoint Endpoint, limit, offset int) ([]RawItem, error) {
	f.calls = append(f.calls, pageCall{endpoint: endpoint, limit: limit, offset: offset})
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return nil, errors.New("server error")
	}
	return slice(f.listings[endpoint], limit, offset), nil
}

func (f *fakeSource) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) ([]RawItem, error) {
	f.calls = append(f.calls, pageCall{playlist: playlistID, limit: limit, offset: offset})
	return slice(f.playlists[playlistID], limit, offset), nil
}

func (f *fakeSource) playlistCalls() map[string]int {
	calls := make(map[string]int)
	for _, c := range f.calls {
		if c.playlist != "" {
			calls[c.playlist]++
		}
	}
	return calls
}

func track(id, artistID string) RawItem {
	pop := 50
	return RawItem{
		ID:          id,
		Name:        "Track " + id,
		Popularity:  &pop,
		ReleaseDate: "2020-01-01",
		Artists:     []RawArtist{{ID: artistID, Name: "Artist " + artistID}, {ID: "other", Name: "Other"}},
	}
}

func lookup(genres map[string][]string) genre.Lookup {
	return genre.LookupFunc(func(ctx context.Context, a genre.Artist) ([]string, error) {
		tags, ok := genres[a.ID]
		if !ok {
			return nil, fmt.Errorf("no genres for %s", a.ID)
		}
		return tags, nil
	})
}

func TestPagesStopsOnEmptyPage(t *testing.T) {
	var offsets []int
	fetch := func(ctx context.Context, limit, offset int) ([]RawItem, error) {
		offsets = append(offsets, offset)
		if offset >= 2*limit {
			return nil, nil
		}
		return []RawItem{{ID: fmt.Sprint(offset)}}, nil
	}

	var got []Page
	for page, err := range Pages(context.Background(), 50, fetch) {
		require.NoError(t, err)
		got = append(got, page)
	}

	assert.Equal(t, []int{0, 50, 100}, offsets)
	require.Len(t, got, 2)
	assert.Equal(t, 50, got[1].Offset)
}

func TestPagesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	fetch := func(ctx context.Context, limit, offset int) ([]RawItem, error) {
		calls++
		return []RawItem{{ID: "x"}}, nil
	}
	for _, err := range Pages(ctx, 10, fetch) {
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Zero(t, calls)
}

func TestFetchTracks(t *testing.T) {
	src := &fakeSource{listings: map[Endpoint][]RawItem{
		SavedTracks: {track("t1", "a1"), track("t2", "a2"), track("t3", "a1")},
	}}
	resolver := genre.NewResolver(lookup(map[string][]string{"a1": {"rock"}, "a2": {"hip hop", "rap"}}))

	items, err := NewFetcher(src, resolver, nil).Fetch(context.Background(), SavedTracks, 2)
	require.NoError(t, err)

	// Two full pages then the empty one.
	assert.Len(t, src.calls, 3)
	require.Len(t, items, 3)
	assert.Equal(t, "t1", items[0].ID)
	assert.Equal(t, "a1", items[0].ArtistID)
	assert.Equal(t, "Artist a1", items[0].ArtistName)
	assert.Equal(t, []string{"rock"}, items[0].Genres)
	assert.Equal(t, []string{"hip hop", "rap"}, items[1].Genres)
	assert.Equal(t, 50, *items[2].Popularity)

	hits, lookups := resolver.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, lookups)
}

func TestFetchArtistsCarryOwnGenres(t *testing.T) {
	src := &fakeSource{listings: map[Endpoint][]RawItem{
		TopArtists: {{ID: "a1", Name: "Artist", Genres: []string{"emo", "emo", " "}}, {ID: "a2", Name: "Quiet"}},
	}}
	resolver := genre.NewResolver(lookup(nil))

	items, err := NewFetcher(src, resolver, nil).Fetch(context.Background(), TopArtists, 50)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a1", items[0].ArtistID)
	assert.Equal(t, []string{"emo"}, items[0].Genres)
	assert.Equal(t, []string{}, items[1].Genres)

	_, lookups := resolver.Stats()
	assert.Zero(t, lookups)
}

func TestFetchLookupFailureDegrades(t *testing.T) {
	src := &fakeSource{listings: map[Endpoint][]RawItem{
		SavedAlbums: {track("al1", "unknown")},
	}}
	resolver := genre.NewResolver(lookup(nil))

	items, err := NewFetcher(src, resolver, nil).Fetch(context.Background(), SavedAlbums, 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotNil(t, items[0].Genres)
	assert.Empty(t, items[0].Genres)
}

func TestFetchMalformedIsFatal(t *testing.T) {
	tests := []struct {
		name string
		raw  RawItem
	}{
		{"no id", RawItem{Name: "x", Artists: []RawArtist{{ID: "a", Name: "a"}}}},
		{"no name", RawItem{ID: "x", Artists: []RawArtist{{ID: "a", Name: "a"}}}},
		{"no artists", RawItem{ID: "x", Name: "x"}},
		{"no artist id", RawItem{ID: "x", Name: "x", Artists: []RawArtist{{Name: "a"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{listings: map[Endpoint][]RawItem{
				TopTracks: {track("ok", "a1"), tt.raw},
			}}
			_, err := NewFetcher(src, nil, nil).Fetch(context.Background(), TopTracks, 50)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestFetchSourceError(t *testing.T) {
	src := &fakeSource{
		listings: map[Endpoint][]RawItem{SavedTracks: {track("t1", "a1"), track("t2", "a1")}},
		failAt:   2,
	}
	_, err := NewFetcher(src, nil, nil).Fetch(context.Background(), SavedTracks, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 1")
}

func TestFetchRejectsBadArguments(t *testing.T) {
	f := NewFetcher(&fakeSource{}, nil, nil)
	_, err := f.Fetch(context.Background(), SavedTracks, 0)
	assert.Error(t, err)
	_, err = f.Fetch(context.Background(), Playlists, 10)
	assert.Error(t, err)
	_, err = f.FetchCollections(context.Background(), 10, "(")
	assert.Error(t, err)
}

func TestFetchCollectionsFiltersByName(t *testing.T) {
	src := &fakeSource{
		listings: map[Endpoint][]RawItem{
			Playlists: {{ID: "p1", Name: "DW1"}, {ID: "p2", Name: "Daily Mix"}, {ID: "p3", Name: "DW Special"}},
		},
		playlists: map[string][]RawItem{
			"p1": {track("t1", "a1"), track("t2", "a1")},
			"p2": {track("t3", "a1")},
			"p3": {track("t4", "a1")},
		},
	}
	resolver := genre.NewResolver(lookup(map[string][]string{"a1": {"rock"}}))

	collections, err := NewFetcher(src, resolver, nil).FetchCollections(context.Background(), 50, "DW.*")
	require.NoError(t, err)

	require.Len(t, collections, 2)
	assert.Equal(t, "DW1", collections[0].Label)
	assert.Len(t, collections[0].Items, 2)
	assert.Equal(t, "DW Special", collections[1].Label)
	assert.Equal(t, []string{"rock"}, collections[1].Items[0].Genres)

	calls := src.playlistCalls()
	assert.NotContains(t, calls, "p2")
	assert.Equal(t, 2, calls["p1"])
}

func TestFetchCollectionsAnchored(t *testing.T) {
	src := &fakeSource{
		listings: map[Endpoint][]RawItem{
			Playlists: {{ID: "p1", Name: "My DW"}, {ID: "p2", Name: "DW"}},
		},
		playlists: map[string][]RawItem{"p2": {track("t1", "a1")}},
	}

	collections, err := NewFetcher(src, nil, nil).FetchCollections(context.Background(), 50, "DW")
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "DW", collections[0].Label)
}

func TestParseEndpoint(t *testing.T) {
	e, err := ParseEndpoint("followed_artists")
	require.NoError(t, err)
	assert.Equal(t, FollowedArtists, e)

	_, err = ParseEndpoint("recently_played")
	assert.Error(t, err)
}
