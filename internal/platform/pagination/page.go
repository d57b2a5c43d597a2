// Package pagination normalizes page parameters for reverse-chronological
// list queries.
//
// Every list query shares one contract: an append-only log of length L is
// viewed newest-first, a page is the logical window [page*pageSize,
// page*pageSize+pageSize-1] clipped to the log, and a window past the end is
// an empty page, not an error. Bounds are computed with guarded arithmetic so
// small logs and first pages can never underflow or overflow.
package pagination

import "math"

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// Normalize converts a zero-indexed page request into a limit/offset pair.
// It reports ok=false for page sizes below one, negative pages, or windows
// whose starting position overflows int; callers treat that as an empty page.
func Normalize(pageSize, page int) (limit, offset int, ok bool) {
	if pageSize < 1 || page < 0 {
		return 0, 0, false
	}
	if page > 0 && pageSize > math.MaxInt/page {
		return 0, 0, false
	}
	return pageSize, page * pageSize, true
}
