package utils

import (
	"math"
	"testing"
)

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ n, lo, hi, want int }{
		{0, 1, 100, 1},
		{-5, 1, 100, 1},
		{50, 1, 100, 50},
		{101, 1, 100, 100},
		{1000, 1, 0, 1000}, // no upper bound
	}
	for _, tc := range cases {
		if got := Clamp(tc.n, tc.lo, tc.hi); got != tc.want {
			t.Fatalf("Clamp(%d, %d, %d) = %d; want %d", tc.n, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestWindow(t *testing.T) {
	cases := []struct {
		page, size, total int
		start, end        int
	}{
		{1, 20, 45, 0, 20},
		{2, 20, 45, 20, 40},
		{3, 20, 45, 40, 45},
		{9, 20, 45, 45, 45},
		{0, 20, 5, 0, 5},  // page floor
		{1, 0, 5, 0, 1},   // size floor
		{1, 20, 0, 0, 0},  // empty set
		{3, 20, 40, 40, 40},
		{1 << 62, 20, 45, 45, 45},
		{461168601842738792, 20, 45, 45, 45},
		{math.MaxInt, 100, 7, 7, 7},
		{1, math.MaxInt, 7, 0, 7},
	}
	for _, tc := range cases {
		s, e := Window(tc.page, tc.size, tc.total)
		if s != tc.start || e != tc.end {
			t.Fatalf("Window(%d, %d, %d) = (%d, %d); want (%d, %d)", tc.page, tc.size, tc.total, s, e, tc.start, tc.end)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1, 20); got != 0 {
		t.Fatalf("Offset(1,20) = %d", got)
	}
	if got := Offset(3, 20); got != 40 {
		t.Fatalf("Offset(3,20) = %d", got)
	}
	if got := Offset(-1, 20); got != 0 {
		t.Fatalf("Offset(-1,20) = %d", got)
	}
	if got := Offset(2, 0); got != 0 {
		t.Fatalf("Offset(2,0) = %d", got)
	}
}

func TestOffset_HugePagesSaturate(t *testing.T) {
	for _, page := range []int{1 << 62, 461168601842738792, math.MaxInt} {
		if got := Offset(page, 20); got != math.MaxInt {
			t.Errorf("Offset(%d, 20) = %d; want math.MaxInt", page, got)
		}
	}
	if got := Offset(math.MaxInt/20+1, 20); got != math.MaxInt/20*20 {
		t.Errorf("largest addressable page = %d", got)
	}
}
