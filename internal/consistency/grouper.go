// Package consistency partitions regions into perceptually consistent groups
// and derives the pass/fail status.
package consistency

import (
	"strconv"
	"strings"

	"github.com/GriffinCanCode/swatchqc/internal/colorspace"
)

// Group is a set of region indices in ascending order.
type Group []int

// String renders the group with 1-based indices, e.g. "[1+2]".
func (g Group) String() string {
	parts := make([]string, len(g))
	for i, idx := range g {
		parts[i] = strconv.Itoa(idx + 1)
	}
	return "[" + strings.Join(parts, memberJoiner) + "]"
}

// Matrix is a symmetric pairwise distance matrix.
type Matrix [][]float64

// Distances computes CIEDE2000 between every pair of colors.
func Distances(colors []colorspace.Lab) Matrix {
	n := len(colors)
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := colorspace.CIEDE2000(colors[i], colors[j])
			m[i][j], m[j][i] = d, d
		}
	}
	return m
}

// MaxPairwise returns the largest off-diagonal distance, or 0 for fewer than
// two entries.
func (m Matrix) MaxPairwise() float64 {
	var best float64
	for i := range m {
		for j := i + 1; j < len(m); j++ {
			if m[i][j] > best {
				best = m[i][j]
			}
		}
	}
	return best
}

// Partition splits 0..len(m)-1 into groups whose members are all within
// threshold of each other.
//
// The search is greedy: at each step the largest consistent subset of the
// remaining indices is taken, and among equal sizes the lexicographically
// smallest index tuple wins. This does not always minimize the number of
// groups.
func Partition(m Matrix, threshold float64) []Group {
	remaining := make([]int, len(m))
	for i := range remaining {
		remaining[i] = i
	}

	var groups []Group
	for len(remaining) > 0 {
		g := largestConsistent(m, remaining, threshold)
		groups = append(groups, g)
		remaining = without(remaining, g)
	}
	return groups
}

func largestConsistent(m Matrix, pool []int, threshold float64) Group {
	for size := len(pool); size > 1; size-- {
		var found Group
		combinations(len(pool), size, func(idx []int) bool {
			if consistent(m, pool, idx, threshold) {
				found = make(Group, size)
				for i, k := range idx {
					found[i] = pool[k]
				}
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return Group{pool[0]}
}

func consistent(m Matrix, pool, idx []int, threshold float64) bool {
	for i := 0; i < len(idx); i++ {
		for j := i + 1; j < len(idx); j++ {
			if m[pool[idx[i]]][pool[idx[j]]] > threshold {
				return false
			}
		}
	}
	return true
}

// combinations visits every k-subset of 0..n-1 in lexicographic order until
// visit returns false.
func combinations(n, k int, visit func([]int) bool) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !visit(idx) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

func without(pool []int, g Group) []int {
	out := pool[:0:0]
	for _, p := range pool {
		taken := false
		for _, q := range g {
			if p == q {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, p)
		}
	}
	return out
}

// Status derives the label and message for a partition of regions indices.
func Status(groups []Group, regions int) (label, message string) {
	switch len(groups) {
	case 1:
		return StatusPass, messagePass
	case regions:
		return StatusFail, messageFail
	}
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = g.String()
	}
	return StatusMixed, mixedPrefix + strings.Join(parts, groupSep)
}

// Similarity expresses a distance as a percentage, floored at zero.
func Similarity(deltaE float64) float64 {
	return max(0, 100-deltaE)
}

// Result bundles everything derived from one set of region colors.
type Result struct {
	Distances Matrix
	Groups    []Group
	Status    string
	Message   string
	MaxDeltaE float64
}

// Evaluate groups colors with threshold and derives the status.
func Evaluate(colors []colorspace.Lab, threshold float64) Result {
	m := Distances(colors)
	groups := Partition(m, threshold)
	label, msg := Status(groups, len(colors))
	return Result{
		Distances: m,
		Groups:    groups,
		Status:    label,
		Message:   msg,
		MaxDeltaE: m.MaxPairwise(),
	}
}
