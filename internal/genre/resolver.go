package genre

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

var ErrNoArtist = errors.New("artist has no identifier")

// Artist identifies the artist whose genres are looked up. Lookups that work by
// name (last.fm) use Name; everything else uses ID.
type Artist struct {
	ID   string
	Name string
}

// Lookup fetches the genre tags of one artist from a remote catalog.
type Lookup interface {
	ArtistGenres(ctx context.Context, artist Artist) ([]string, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, artist Artist) ([]string, error)

func (f LookupFunc) ArtistGenres(ctx context.Context, artist Artist) ([]string, error) {
	return f(ctx, artist)
}

// Resolver memoizes artist genre lookups for the lifetime of a run. It is safe
// for concurrent use; concurrent misses for one artist share a single lookup.
type Resolver struct {
	lookup Lookup
	group  singleflight.Group

	mu      sync.Mutex
	cache   map[string][]string
	hits    int
	lookups int
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{
		lookup: lookup,
		cache:  make(map[string][]string),
	}
}

func (r *Resolver) cached(id string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tags, ok := r.cache[id]
	return tags, ok
}

// Resolve returns the genre tags of artist, calling the underlying lookup only
// on a cache miss. Callers waiting on another caller's lookup count as hits.
// Failed lookups are not cached.
func (r *Resolver) Resolve(ctx context.Context, artist Artist) ([]string, error) {
	if artist.ID == "" {
		return nil, ErrNoArtist
	}

	looked := false
	v, err, _ := r.group.Do(artist.ID, func() (any, error) {
		// The entry may have been stored since the previous flight ended.
		if tags, ok := r.cached(artist.ID); ok {
			return tags, nil
		}
		looked = true
		r.mu.Lock()
		r.lookups++
		r.mu.Unlock()

		tags, err := r.lookup.ArtistGenres(ctx, artist)
		if err != nil {
			return nil, err
		}
		tags = Tags(tags)

		r.mu.Lock()
		r.cache[artist.ID] = tags
		r.mu.Unlock()
		return tags, nil
	})
	if err != nil {
		return nil, err
	}

	if !looked {
		r.mu.Lock()
		r.hits++
		r.mu.Unlock()
	}
	return slices.Clone(v.([]string)), nil
}

// Stats returns the number of cache hits and underlying lookups so far.
func (r *Resolver) Stats() (hits, lookups int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits, r.lookups
}

// Tags trims tags, drops empty ones and removes duplicates, keeping first
// occurrence order. The result is never nil.
func Tags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
