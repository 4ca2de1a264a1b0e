// Package spotify adapts the Spotify Web API to the catalog page source and
// the artist genre lookup.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/ademuri/spotify-genre-tools/internal/catalog"
	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

const artistURIPrefix = "spotify:artist:"

// Client implements catalog.Source and genre.Lookup on top of the Spotify Web
// API. Every request waits on a rate limiter and is retried on 429 and 5xx
// responses.
type Client struct {
	api        *spotify.Client
	limiter    *rate.Limiter
	timeRange  spotify.Range
	attempts   uint
	retryDelay time.Duration
	log        *log.Logger

	mu sync.Mutex
	// Followed artists are cursor paginated; cursors maps the offset of the
	// next page to the cursor that fetches it. An empty cursor marks the end.
	cursors map[int]string
}

type Option func(*Client)

// WithTimeRange sets the window of the top tracks and artists endpoints:
// "short_term", "medium_term" or "long_term".
func WithTimeRange(r string) Option {
	return func(c *Client) {
		c.timeRange = spotify.Range(r)
	}
}

func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithRetry sets how often and how quickly failed requests are retried.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// ParseTimeRange validates a time range name.
func ParseTimeRange(s string) (string, error) {
	switch spotify.Range(s) {
	case spotify.ShortTermRange, spotify.MediumTermRange, spotify.LongTermRange:
		return s, nil
	}
	return "", fmt.Errorf("unknown time range %q, want short_term, medium_term or long_term", s)
}

// New wraps an HTTP client that already carries credentials, usually the one
// returned by Authenticator.Client. Extra spotify options such as a base URL
// are passed through.
func New(httpClient *http.Client, opts []Option, apiOpts ...spotify.ClientOption) *Client {
	c := &Client{
		api:        spotify.New(httpClient, apiOpts...),
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		timeRange:  spotify.MediumTermRange,
		attempts:   5,
		retryDelay: time.Second,
		log:        log.New(io.Discard),
		cursors:    make(map[int]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current, possibly refreshed, OAuth token.
func (c *Client) Token() (*oauth2.Token, error) {
	return c.api.Token()
}

func retryable(err error) bool {
	var serr spotify.Error
	if errors.As(err, &serr) {
		return serr.Status == http.StatusTooManyRequests || serr.Status/100 == 5
	}
	return false
}

func (c *Client) call(ctx context.Context, what string, f func() error) error {
	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			return f()
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("Spotify errored, retrying", "call", what, "attempt", n+1, "err", err)
		}),
	)
}

func artists(in []spotify.SimpleArtist) []catalog.RawArtist {
	out := make([]catalog.RawArtist, 0, len(in))
	for _, a := range in {
		out = append(out, catalog.RawArtist{ID: string(a.ID), Name: a.Name})
	}
	return out
}

func popularity(p int) *int {
	return &p
}

func trackItem(t spotify.FullTrack) catalog.RawItem {
	return catalog.RawItem{
		ID:          string(t.ID),
		Name:        t.Name,
		Popularity:  popularity(int(t.Popularity)),
		ReleaseDate: t.Album.ReleaseDate,
		Artists:     artists(t.Artists),
	}
}

func albumItem(a spotify.FullAlbum) catalog.RawItem {
	return catalog.RawItem{
		ID:          string(a.ID),
		Name:        a.Name,
		Popularity:  popularity(int(a.Popularity)),
		ReleaseDate: a.ReleaseDate,
		Artists:     artists(a.Artists),
	}
}

func artistItem(a spotify.FullArtist) catalog.RawItem {
	return catalog.RawItem{
		ID:         string(a.ID),
		Name:       a.Name,
		Popularity: popularity(int(a.Popularity)),
		Genres:     a.Genres,
	}
}

// Page implements catalog.Source.
func (c *Client) Page(ctx context.Context, endpoint catalog.Endpoint, limit, offset int) ([]catalog.RawItem, error) {
	var items []catalog.RawItem
	paging := []spotify.RequestOption{spotify.Limit(limit), spotify.Offset(offset)}

	var err error
	switch endpoint {
	case catalog.SavedTracks:
		err = c.call(ctx, "saved tracks", func() error {
			page, err := c.api.CurrentUsersTracks(ctx, paging...)
			if err != nil {
				return err
			}
			items = items[:0]
			for _, t := range page.Tracks {
				items = append(items, trackItem(t.FullTrack))
			}
			return nil
		})
	case catalog.SavedAlbums:
		err = c.call(ctx, "saved albums", func() error {
			page, err := c.api.CurrentUsersAlbums(ctx, paging...)
			if err != nil {
				return err
			}
			items = items[:0]
			for _, a := range page.Albums {
				items = append(items, albumItem(a.FullAlbum))
			}
			return nil
		})
	case catalog.FollowedArtists:
		return c.followedArtists(ctx, limit, offset)
	case catalog.TopTracks:
		err = c.call(ctx, "top tracks", func() error {
			page, err := c.api.CurrentUsersTopTracks(ctx, append(paging, spotify.Timerange(c.timeRange))...)
			if err != nil {
				return err
			}
			items = items[:0]
			for _, t := range page.Tracks {
				items = append(items, trackItem(t))
			}
			return nil
		})
	case catalog.TopArtists:
		err = c.call(ctx, "top artists", func() error {
			page, err := c.api.CurrentUsersTopArtists(ctx, append(paging, spotify.Timerange(c.timeRange))...)
			if err != nil {
				return err
			}
			items = items[:0]
			for _, a := range page.Artists {
				items = append(items, artistItem(a))
			}
			return nil
		})
	case catalog.Playlists:
		err = c.call(ctx, "playlists", func() error {
			page, err := c.api.CurrentUsersPlaylists(ctx, paging...)
			if err != nil {
				return err
			}
			items = items[:0]
			for _, p := range page.Playlists {
				items = append(items, catalog.RawItem{ID: string(p.ID), Name: p.Name})
			}
			return nil
		})
	default:
		return nil, fmt.Errorf("unsupported endpoint %q", endpoint)
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) followedArtists(ctx context.Context, limit, offset int) ([]catalog.RawItem, error) {
	opts := []spotify.RequestOption{spotify.Limit(limit)}
	if offset > 0 {
		c.mu.Lock()
		after, ok := c.cursors[offset]
		c.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("followed artists must be read in order, no cursor for offset %d", offset)
		}
		if after == "" {
			return nil, nil
		}
		opts = append(opts, spotify.After(after))
	}

	var items []catalog.RawItem
	var next string
	err := c.call(ctx, "followed artists", func() error {
		page, err := c.api.CurrentUsersFollowedArtists(ctx, opts...)
		if err != nil {
			return err
		}
		items = items[:0]
		for _, a := range page.Artists {
			items = append(items, artistItem(a))
		}
		next = page.Cursor.After
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cursors[offset+limit] = next
	c.mu.Unlock()
	return items, nil
}

// PlaylistItems implements catalog.Source. Entries that are not tracks, such
// as podcast episodes, come back without an ID and fail validation.
func (c *Client) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) ([]catalog.RawItem, error) {
	var items []catalog.RawItem
	err := c.call(ctx, "playlist items", func() error {
		page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(limit), spotify.Offset(offset))
		if err != nil {
			return err
		}
		items = items[:0]
		for _, item := range page.Items {
			if item.Track.Track == nil {
				items = append(items, catalog.RawItem{})
				continue
			}
			items = append(items, trackItem(*item.Track.Track))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ArtistGenres implements genre.Lookup. IDs may be given as spotify:artist:
// URIs.
func (c *Client) ArtistGenres(ctx context.Context, artist genre.Artist) ([]string, error) {
	id := strings.TrimPrefix(artist.ID, artistURIPrefix)
	if id == "" {
		return nil, genre.ErrNoArtist
	}

	var genres []string
	err := c.call(ctx, "artist", func() error {
		a, err := c.api.GetArtist(ctx, spotify.ID(id))
		if err != nil {
			return err
		}
		genres = a.Genres
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting artist %s: %w", id, err)
	}
	return genres, nil
}
