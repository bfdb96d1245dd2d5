// Package testutil provides shared test infrastructure for the pitsim packages.
// It locates repository fixtures, writes throwaway input files and compares
// floating-point results with tolerance.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// RepoPath resolves a path relative to the repository root.
// The root is found relative to this source file: internal/testutil/ → ../../.
func RepoPath(t *testing.T, elem ...string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	parts := append([]string{filepath.Dir(thisFile), "..", ".."}, elem...)
	return filepath.Join(parts...)
}

// WriteFile writes content to name inside a fresh temp directory and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// FlatLapsCSV renders a lap CSV for laps first..last, all at the same pace.
func FlatLapsCSV(first, last int, pace float64) string {
	var b strings.Builder
	b.WriteString("lap,base_pace_s\n")
	for lap := first; lap <= last; lap++ {
		fmt.Fprintf(&b, "%d,%.3f\n", lap, pace)
	}
	return b.String()
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertOrdered fails when any element of lo exceeds mid or mid exceeds hi.
func AssertOrdered(t *testing.T, lo, mid, hi []float64) {
	t.Helper()
	if len(lo) != len(mid) || len(mid) != len(hi) {
		t.Fatalf("band lengths differ: %d, %d, %d", len(lo), len(mid), len(hi))
	}
	for i := range mid {
		if lo[i] > mid[i] || mid[i] > hi[i] {
			t.Errorf("index %d: want p10 <= p50 <= p90, got %v, %v, %v", i, lo[i], mid[i], hi[i])
		}
	}
}
