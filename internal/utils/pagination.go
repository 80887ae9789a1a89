// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"math"
	"strconv"
)

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

// Clamp bounds n to [lo, hi]. A non-positive hi means no upper bound.
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if hi > 0 && n > hi {
		return hi
	}
	return n
}

// Window returns the [start, end) slice bounds of a 1-based page over total
// items. Out-of-range pages yield an empty window (start == end).
//
//	start, end := utils.Window(2, 20, 45) // 20, 40
//	start, end = utils.Window(3, 20, 45)  // 40, 45
//	start, end = utils.Window(9, 20, 45)  // 45, 45
func Window(page, pageSize, total int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	// Compare in pages so (page-1)*pageSize cannot overflow.
	if page-1 > total/pageSize {
		return total, total
	}
	start = (page - 1) * pageSize
	if pageSize >= total-start {
		return start, total
	}
	return start, start + pageSize
}

// Offset returns the row offset of a 1-based page, saturating at
// math.MaxInt for pages too large to address.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}
