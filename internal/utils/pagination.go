// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page describes one window over an ordered result set.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
	Total  int `json:"total"`
	Pages  int `json:"total_pages"`
}

// ClampPage normalizes a requested page number and size: page is at least
// 1, size falls back to def when non-positive and is capped at max.
func ClampPage(page, size, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if max > 0 && size > max {
		size = max
	}
	return page, size
}

// Paginate returns the items of the requested page together with its
// metadata. Pages past the end yield an empty, non-nil slice and are
// reported as the first page after the last one. page and size must already
// be clamped.
func Paginate[T any](items []T, page, size int) ([]T, Page) {
	total := len(items)
	meta := Page{Number: page, Size: size, Total: total}
	if size > 0 {
		meta.Pages = (total + size - 1) / size
	}
	// keeps (page-1)*size from overflowing
	if page > meta.Pages+1 {
		page = meta.Pages + 1
		meta.Number = page
	}
	start := (page - 1) * size
	if size <= 0 || start >= total || start < 0 {
		return []T{}, meta
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], meta
}
