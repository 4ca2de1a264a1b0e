package store

import (
	"context"
	"time"

	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

// CachedLookup serves artist genres from the store when they are younger than
// MaxAge and falls back to Next otherwise, saving what Next returns.
type CachedLookup struct {
	Store  *Store
	Next   genre.Lookup
	MaxAge time.Duration
}

func (c CachedLookup) ArtistGenres(ctx context.Context, artist genre.Artist) ([]string, error) {
	genres, ok, err := c.Store.GetArtistGenres(artist.ID, c.MaxAge)
	if err != nil {
		return nil, err
	}
	if ok {
		return genres, nil
	}

	genres, err = c.Next.ArtistGenres(ctx, artist)
	if err != nil {
		return nil, err
	}
	genres = genre.Tags(genres)
	if err := c.Store.SaveArtistGenres(artist, genres); err != nil {
		return nil, err
	}
	return genres, nil
}
