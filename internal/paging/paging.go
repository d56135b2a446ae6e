// Package paging reads page-numbered list resources until they are exhausted.
package paging

import (
	"context"
	"fmt"
)

// PageSize is the number of items requested per page.
const PageSize = 100

// PageFunc fetches one 1-indexed page of at most PageSize items.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, error)

// PageTransform filters or enriches one page. It returns the items to keep and
// whether later pages may still contain qualifying items.
type PageTransform[T, U any] func(ctx context.Context, items []T) (kept []U, more bool, err error)

// ReadAll concatenates every page until an empty or short page is returned.
func ReadAll[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	return ReadPages(ctx, fetch, func(_ context.Context, items []T) ([]T, bool, error) {
		return items, true, nil
	})
}

// ReadPages walks pages 1, 2, ... and concatenates the transformed output. It stops
// after an empty page, after a page shorter than PageSize, or when transform reports
// that no further page can qualify. There is no upper bound on the page count.
func ReadPages[T, U any](ctx context.Context, fetch PageFunc[T], transform PageTransform[T, U]) ([]U, error) {
	var all []U

	for page := 1; ; page++ {
		items, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}

		kept, more, err := transform(ctx, items)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, kept...)

		if !more || len(items) < PageSize {
			break
		}
	}

	if all == nil {
		all = []U{}
	}
	return all, nil
}
