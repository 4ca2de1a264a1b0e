package catalog

import (
	"context"
	"iter"
)

// PageFunc fetches one page of a listing.
type PageFunc func(ctx context.Context, limit, offset int) ([]RawItem, error)

// Page is one non-empty page of a listing.
type Page struct {
	Offset int
	Items  []RawItem
}

// Pages iterates a listing from offset 0, advancing by size, and stops at the
// first empty page. There is no upper bound on the offset. A fetch error is
// yielded once and ends the iteration.
func Pages(ctx context.Context, size int, fetch PageFunc) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		for offset := 0; ; offset += size {
			if err := ctx.Err(); err != nil {
				yield(Page{Offset: offset}, err)
				return
			}

			items, err := fetch(ctx, size, offset)
			if err != nil {
				yield(Page{Offset: offset}, err)
				return
			}
			if len(items) == 0 {
				return
			}
			if !yield(Page{Offset: offset, Items: items}, nil) {
				return
			}
		}
	}
}
