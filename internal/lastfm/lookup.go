// Package lastfm looks up artist genres as last.fm top tags.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ademuri/lastfm-go/lastfm"
	"github.com/avast/retry-go"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

const DefaultMaxTags = 10

type topTagser interface {
	GetTopTags(args map[string]interface{}) (lastfm.ArtistGetTopTags, error)
}

// Lookup implements genre.Lookup by artist name. Tags are lower-cased so they
// line up with Spotify-style genre names.
type Lookup struct {
	artists  topTagser
	limiter  *rate.Limiter
	maxTags  int
	attempts uint
	delay    time.Duration
	log      *log.Logger
}

type Option func(*Lookup)

func WithMaxTags(n int) Option {
	return func(l *Lookup) {
		l.maxTags = n
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Lookup) {
		if logger != nil {
			l.log = logger
		}
	}
}

func New(apiKey, secret string, opts ...Option) *Lookup {
	client := lastfm.New(apiKey, secret)
	client.SetUserAgent("spotify-genre-tools/1.0")
	return newLookup(client.Artist, opts...)
}

func newLookup(artists topTagser, opts ...Option) *Lookup {
	l := &Lookup{
		artists:  artists,
		limiter:  rate.NewLimiter(rate.Every(1*time.Second), 1),
		maxTags:  DefaultMaxTags,
		attempts: 5,
		delay:    time.Second,
		log:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func retryable(err error) bool {
	var lerr *lastfm.LastfmError
	if errors.As(err, &lerr) {
		return lerr.Code/100 == 5
	}
	return false
}

func (l *Lookup) ArtistGenres(ctx context.Context, artist genre.Artist) ([]string, error) {
	if artist.Name == "" {
		return nil, fmt.Errorf("%w: last.fm lookups need an artist name", genre.ErrNoArtist)
	}

	var topTags lastfm.ArtistGetTopTags
	err := retry.Do(
		func() error {
			if err := l.limiter.Wait(ctx); err != nil {
				return err
			}
			var err error
			topTags, err = l.artists.GetTopTags(lastfm.P{
				"artist":      artist.Name,
				"autocorrect": 1,
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(l.attempts),
		retry.Delay(l.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			l.log.Warn("last.fm errored, retrying", "artist", artist.Name, "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching tags for artist %s: %w", artist.Name, err)
	}

	var tags []string
	for _, t := range topTags.Tags {
		if l.maxTags > 0 && len(tags) == l.maxTags {
			break
		}
		tags = append(tags, strings.ToLower(t.Name))
	}
	return genre.Tags(tags), nil
}
