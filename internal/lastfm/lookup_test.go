package lastfm

import (
	"context"
	"encoding/xml"
	"testing"
	"time"

	"github.com/ademuri/lastfm-go/lastfm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

type fakeArtists struct {
	calls  int
	errs   []error
	result string
	args   map[string]interface{}
}

func (f *fakeArtists) GetTopTags(args map[string]interface{}) (lastfm.ArtistGetTopTags, error) {
	f.calls++
	f.args = args
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return lastfm.ArtistGetTopTags{}, err
	}
	var tags lastfm.ArtistGetTopTags
	err := xml.Unmarshal([]byte(f.result), &tags)
	return tags, err
}

const topTagsXML = `<toptags artist="Burial">
  <tag><name>Electronic</name><count>100</count></tag>
  <tag><name>dubstep</name><count>90</count></tag>
  <tag><name>UK Garage</name><count>50</count></tag>
  <tag><name>electronic</name><count>10</count></tag>
</toptags>`

func testLookup(f *fakeArtists, opts ...Option) *Lookup {
	l := newLookup(f, opts...)
	l.limiter = rate.NewLimiter(rate.Inf, 1)
	l.delay = time.Millisecond
	return l
}

func TestArtistGenres(t *testing.T) {
	f := &fakeArtists{result: topTagsXML}
	l := testLookup(f, WithMaxTags(3))

	tags, err := l.ArtistGenres(context.Background(), genre.Artist{ID: "x", Name: "Burial"})
	require.NoError(t, err)
	assert.Equal(t, []string{"electronic", "dubstep", "uk garage"}, tags)
	assert.Equal(t, "Burial", f.args["artist"])
}

func TestArtistGenresDeduplicatesCase(t *testing.T) {
	f := &fakeArtists{result: topTagsXML}
	tags, err := testLookup(f).ArtistGenres(context.Background(), genre.Artist{Name: "Burial"})
	require.NoError(t, err)
	assert.Equal(t, []string{"electronic", "dubstep", "uk garage"}, tags)
}

func TestArtistGenresRetriesServerErrors(t *testing.T) {
	f := &fakeArtists{
		result: topTagsXML,
		errs:   []error{&lastfm.LastfmError{Code: 503, Message: "unavailable"}},
	}
	_, err := testLookup(f).ArtistGenres(context.Background(), genre.Artist{Name: "Burial"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}

func TestArtistGenresClientError(t *testing.T) {
	f := &fakeArtists{errs: []error{&lastfm.LastfmError{Code: 6, Message: "artist not found"}}}
	_, err := testLookup(f).ArtistGenres(context.Background(), genre.Artist{Name: "Nobody"})
	assert.Error(t, err)
	assert.Equal(t, 1, f.calls)
}

func TestArtistGenresNeedsName(t *testing.T) {
	f := &fakeArtists{}
	_, err := testLookup(f).ArtistGenres(context.Background(), genre.Artist{ID: "x"})
	assert.ErrorIs(t, err, genre.ErrNoArtist)
	assert.Zero(t, f.calls)
}
