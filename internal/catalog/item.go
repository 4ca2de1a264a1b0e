// Package catalog turns paginated, loosely validated records from a remote
// music catalog into normalized items grouped into named collections.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

// Endpoint names a paginated listing of the remote catalog.
type Endpoint string

const (
	SavedTracks     Endpoint = "saved_tracks"
	SavedAlbums     Endpoint = "saved_albums"
	FollowedArtists Endpoint = "followed_artists"
	TopTracks       Endpoint = "top_tracks"
	TopArtists      Endpoint = "top_artists"
	Playlists       Endpoint = "playlists"
)

var endpoints = []Endpoint{SavedTracks, SavedAlbums, FollowedArtists, TopTracks, TopArtists, Playlists}

// ParseEndpoint maps a name like "saved_tracks" to its Endpoint.
func ParseEndpoint(s string) (Endpoint, error) {
	for _, e := range endpoints {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown endpoint %q", s)
}

// carriesGenres reports whether items of this endpoint are artists, which
// come with their own genre tags. All other item endpoints are resolved
// through the first artist.
func (e Endpoint) carriesGenres() bool {
	return e == FollowedArtists || e == TopArtists
}

var ErrMalformed = errors.New("malformed item")

// RawArtist is an artist reference as returned by the source.
type RawArtist struct {
	ID   string
	Name string
}

// RawItem is a record as returned by a Source, before validation. Zero values
// mean the field was missing upstream.
type RawItem struct {
	ID          string
	Name        string
	Popularity  *int
	ReleaseDate string
	Artists     []RawArtist

	// Genres is only set for artist records.
	Genres []string
}

// Item is a validated track, album or artist record.
type Item struct {
	ID          string
	Name        string
	Popularity  *int
	ReleaseDate string
	ArtistID    string
	ArtistName  string

	// Genres is never nil once an item leaves the Fetcher; it is empty when
	// the artist has no tags or the lookup failed.
	Genres []string
}

// Collection is a labelled, ordered group of items. Several collections may
// share a label.
type Collection struct {
	Label string
	Items []Item
}

// Source is the remote catalog. Implementations own authentication, retries and
// rate limiting. An empty page means the listing is exhausted.
type Source interface {
	Page(ctx context.Context, endpoint Endpoint, limit, offset int) ([]RawItem, error)
	PlaylistItems(ctx context.Context, playlistID string, limit, offset int) ([]RawItem, error)
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformed, field)
}

// normalizeTrack validates a track or album record. The first listed artist is
// the one whose genres the item gets.
func normalizeTrack(raw RawItem) (Item, error) {
	if raw.ID == "" {
		return Item{}, missing("id")
	}
	if strings.TrimSpace(raw.Name) == "" {
		return Item{}, missing("name")
	}
	if len(raw.Artists) == 0 {
		return Item{}, missing("artists")
	}
	artist := raw.Artists[0]
	if artist.ID == "" {
		return Item{}, missing("artist id")
	}
	if artist.Name == "" {
		return Item{}, missing("artist name")
	}

	return Item{
		ID:          raw.ID,
		Name:        raw.Name,
		Popularity:  raw.Popularity,
		ReleaseDate: raw.ReleaseDate,
		ArtistID:    artist.ID,
		ArtistName:  artist.Name,
	}, nil
}

// normalizeArtist validates an artist record, which is its own artist.
func normalizeArtist(raw RawItem) (Item, error) {
	if raw.ID == "" {
		return Item{}, missing("id")
	}
	if strings.TrimSpace(raw.Name) == "" {
		return Item{}, missing("name")
	}

	return Item{
		ID:          raw.ID,
		Name:        raw.Name,
		Popularity:  raw.Popularity,
		ReleaseDate: raw.ReleaseDate,
		ArtistID:    raw.ID,
		ArtistName:  raw.Name,
		Genres:      genre.Tags(raw.Genres),
	}, nil
}

type container struct {
	ID   string
	Name string
}

func normalizeContainer(raw RawItem) (container, error) {
	if raw.ID == "" {
		return container{}, missing("id")
	}
	if raw.Name == "" {
		return container{}, missing("name")
	}
	return container{ID: raw.ID, Name: raw.Name}, nil
}
