package catalog

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/ademuri/spotify-genre-tools/internal/genre"
)

// Fetcher drives paginated retrieval from a Source into normalized items,
// resolving genres for track-like items.
type Fetcher struct {
	source   Source
	resolver *genre.Resolver
	log      *log.Logger
}

// NewFetcher creates a Fetcher. resolver may be nil, in which case track-like
// items keep empty genre sets. logger may be nil.
func NewFetcher(source Source, resolver *genre.Resolver, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{source: source, resolver: resolver, log: logger}
}

// Fetch returns every item of an item endpoint. A malformed record or a source
// error aborts the whole call.
func (f *Fetcher) Fetch(ctx context.Context, endpoint Endpoint, pageSize int) ([]Item, error) {
	if endpoint == Playlists {
		return nil, fmt.Errorf("fetching %s: use FetchCollections for containers", endpoint)
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("fetching %s: page size must be positive, got %d", endpoint, pageSize)
	}

	fetch := func(ctx context.Context, limit, offset int) ([]RawItem, error) {
		return f.source.Page(ctx, endpoint, limit, offset)
	}

	var items []Item
	for page, err := range Pages(ctx, pageSize, fetch) {
		if err != nil {
			return nil, fmt.Errorf("fetching %s (offset %d): %w", endpoint, page.Offset, err)
		}

		for i, raw := range page.Items {
			var item Item
			if endpoint.carriesGenres() {
				item, err = normalizeArtist(raw)
			} else {
				item, err = normalizeTrack(raw)
			}
			if err != nil {
				return nil, fmt.Errorf("fetching %s (offset %d, item %d): %w", endpoint, page.Offset, i, err)
			}

			if !endpoint.carriesGenres() {
				if item, err = f.withGenres(ctx, item); err != nil {
					return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
				}
			}
			items = append(items, item)
		}
		f.log.Info("Downloaded page", "endpoint", endpoint, "offset", page.Offset, "items", len(page.Items))
	}

	return items, nil
}

// FetchCollections lists playlists and returns one collection per playlist
// whose whole name matches nameFilter, labelled with the playlist name. Members
// of playlists that do not match are never fetched. An empty filter matches
// every playlist.
func (f *Fetcher) FetchCollections(ctx context.Context, pageSize int, nameFilter string) ([]Collection, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("fetching %s: page size must be positive, got %d", Playlists, pageSize)
	}
	if nameFilter == "" {
		nameFilter = ".*"
	}
	filter, err := regexp.Compile("^(?:" + nameFilter + ")$")
	if err != nil {
		return nil, fmt.Errorf("compiling name filter %q: %w", nameFilter, err)
	}

	fetch := func(ctx context.Context, limit, offset int) ([]RawItem, error) {
		return f.source.Page(ctx, Playlists, limit, offset)
	}

	var collections []Collection
	for page, err := range Pages(ctx, pageSize, fetch) {
		if err != nil {
			return nil, fmt.Errorf("fetching %s (offset %d): %w", Playlists, page.Offset, err)
		}

		for i, raw := range page.Items {
			c, err := normalizeContainer(raw)
			if err != nil {
				return nil, fmt.Errorf("fetching %s (offset %d, item %d): %w", Playlists, page.Offset, i, err)
			}
			if !filter.MatchString(c.Name) {
				f.log.Debug("Skipping playlist", "name", c.Name)
				continue
			}

			items, err := f.playlistItems(ctx, c, pageSize)
			if err != nil {
				return nil, err
			}
			f.log.Info("Fetched playlist", "name", c.Name, "items", len(items))
			collections = append(collections, Collection{Label: c.Name, Items: items})
		}
	}

	return collections, nil
}

func (f *Fetcher) playlistItems(ctx context.Context, c container, pageSize int) ([]Item, error) {
	fetch := func(ctx context.Context, limit, offset int) ([]RawItem, error) {
		return f.source.PlaylistItems(ctx, c.ID, limit, offset)
	}

	var items []Item
	for page, err := range Pages(ctx, pageSize, fetch) {
		if err != nil {
			return nil, fmt.Errorf("fetching playlist %q (offset %d): %w", c.Name, page.Offset, err)
		}
		for i, raw := range page.Items {
			item, err := normalizeTrack(raw)
			if err != nil {
				return nil, fmt.Errorf("fetching playlist %q (offset %d, item %d): %w", c.Name, page.Offset, i, err)
			}
			if item, err = f.withGenres(ctx, item); err != nil {
				return nil, fmt.Errorf("fetching playlist %q: %w", c.Name, err)
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// withGenres fills in the item's genres from its artist. Lookup failures
// degrade the item to an empty genre set; only cancellation is returned.
func (f *Fetcher) withGenres(ctx context.Context, item Item) (Item, error) {
	item.Genres = []string{}
	if f.resolver == nil {
		return item, nil
	}

	tags, err := f.resolver.Resolve(ctx, genre.Artist{ID: item.ArtistID, Name: item.ArtistName})
	if err != nil {
		if ctx.Err() != nil {
			return item, ctx.Err()
		}
		f.log.Warn("Genre lookup failed", "artist", item.ArtistName, "id", item.ArtistID, "err", err)
		return item, nil
	}
	item.Genres = tags
	return item, nil
}
