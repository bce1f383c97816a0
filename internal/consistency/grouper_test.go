package consistency

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GriffinCanCode/swatchqc/internal/colorspace"
)

func uniform(n int, d float64) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = d
			}
		}
	}
	return m
}

func TestEvaluateAllIdentical(t *testing.T) {
	c := colorspace.ToLab(colorspace.RGB{R: 200, G: 40, B: 40})
	r := Evaluate([]colorspace.Lab{c, c, c, c}, DefaultThreshold)

	if diff := cmp.Diff([]Group{{0, 1, 2, 3}}, r.Groups); diff != "" {
		t.Errorf("Groups mismatch (-want +got):\n%s", diff)
	}
	if r.Status != StatusPass || r.Message != "All 4 Match" {
		t.Errorf("status = %q %q, want PASS", r.Status, r.Message)
	}
	if r.MaxDeltaE != 0 {
		t.Errorf("MaxDeltaE = %v, want 0", r.MaxDeltaE)
	}
}

func TestEvaluateTwoPairs(t *testing.T) {
	red := colorspace.RGB{R: 200, G: 40, B: 40}
	blue := colorspace.RGB{R: 40, G: 40, B: 200}
	colors := []colorspace.Lab{
		colorspace.ToLab(red),
		colorspace.ToLab(colorspace.RGB{R: 201, G: 40, B: 40}),
		colorspace.ToLab(blue),
		colorspace.ToLab(colorspace.RGB{R: 40, G: 41, B: 200}),
	}
	r := Evaluate(colors, DefaultThreshold)

	if diff := cmp.Diff([]Group{{0, 1}, {2, 3}}, r.Groups); diff != "" {
		t.Errorf("Groups mismatch (-want +got):\n%s", diff)
	}
	if r.Status != StatusMixed {
		t.Errorf("Status = %q, want MIXED", r.Status)
	}
	if want := "Similar: [1+2], [3+4]"; r.Message != want {
		t.Errorf("Message = %q, want %q", r.Message, want)
	}
	if r.MaxDeltaE <= DefaultThreshold {
		t.Errorf("MaxDeltaE = %v, want > threshold", r.MaxDeltaE)
	}
}

func TestEvaluateAllDifferent(t *testing.T) {
	colors := []colorspace.Lab{
		colorspace.ToLab(colorspace.RGB{R: 255}),
		colorspace.ToLab(colorspace.RGB{G: 255}),
		colorspace.ToLab(colorspace.RGB{B: 255}),
		colorspace.ToLab(colorspace.RGB{R: 255, G: 255}),
	}
	r := Evaluate(colors, DefaultThreshold)

	if len(r.Groups) != 4 {
		t.Fatalf("len(Groups) = %d, want 4", len(r.Groups))
	}
	if r.Status != StatusFail || r.Message != "All Different" {
		t.Errorf("status = %q %q, want FAIL", r.Status, r.Message)
	}
}

func TestPartitionPrefersSmallestTuple(t *testing.T) {
	// 0~1, 0~2, 1~2 and 1~3, 2~3: {0,1,2} and {1,2,3} are both consistent.
	m := uniform(4, 10)
	for _, p := range [][2]int{{0, 1}, {0, 2}, {1, 2}, {1, 3}, {2, 3}} {
		m[p[0]][p[1]], m[p[1]][p[0]] = 1, 1
	}

	got := Partition(m, DefaultThreshold)
	if diff := cmp.Diff([]Group{{0, 1, 2}, {3}}, got); diff != "" {
		t.Errorf("Partition mismatch (-want +got):\n%s", diff)
	}
}

func TestPartitionIsGreedy(t *testing.T) {
	// {0,2},{1,3} would need two groups; taking {0,1} first strands 2 and 3.
	m := uniform(4, 10)
	for _, p := range [][2]int{{0, 1}, {0, 2}, {1, 3}} {
		m[p[0]][p[1]], m[p[1]][p[0]] = 1, 1
	}

	got := Partition(m, DefaultThreshold)
	if diff := cmp.Diff([]Group{{0, 1}, {2}, {3}}, got); diff != "" {
		t.Errorf("Partition mismatch (-want +got):\n%s", diff)
	}
	if label, _ := Status(got, 4); label != StatusMixed {
		t.Errorf("Status() = %q, want MIXED", label)
	}
}

func TestPartitionThresholdInclusive(t *testing.T) {
	got := Partition(uniform(4, DefaultThreshold), DefaultThreshold)
	if len(got) != 1 {
		t.Errorf("Partition at threshold = %v, want one group", got)
	}
}

func TestPartitionCoversEveryIndexOnce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 500; trial++ {
		m := uniform(4, 0)
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				d := rng.Float64() * 4
				m[i][j], m[j][i] = d, d
			}
		}

		seen := make(map[int]int)
		for _, g := range Partition(m, DefaultThreshold) {
			if len(g) == 0 {
				t.Fatalf("trial %d: empty group", trial)
			}
			for _, i := range g {
				seen[i]++
			}
			for a := 0; a < len(g); a++ {
				for b := a + 1; b < len(g); b++ {
					if m[g[a]][g[b]] > DefaultThreshold {
						t.Fatalf("trial %d: group %v not consistent", trial, g)
					}
				}
			}
		}
		for i := 0; i < 4; i++ {
			if seen[i] != 1 {
				t.Fatalf("trial %d: index %d seen %d times", trial, i, seen[i])
			}
		}
	}
}

func TestCombinationsLexicographic(t *testing.T) {
	var got [][]int
	combinations(4, 2, func(idx []int) bool {
		got = append(got, append([]int(nil), idx...))
		return true
	})

	want := [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("combinations mismatch (-want +got):\n%s", diff)
	}
}

func TestMaxPairwiseIgnoresGrouping(t *testing.T) {
	m := uniform(4, 1)
	m[0][3], m[3][0] = 7.5, 7.5
	if got := m.MaxPairwise(); got != 7.5 {
		t.Errorf("MaxPairwise() = %v, want 7.5", got)
	}
}

func TestStatusMixedMessage(t *testing.T) {
	label, msg := Status([]Group{{0, 2, 3}, {1}}, 4)
	if label != StatusMixed || msg != "Similar: [1+3+4], [2]" {
		t.Errorf("Status() = %q %q", label, msg)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		deltaE float64
		want   float64
	}{
		{0, 100},
		{1.25, 98.75},
		{150, 0},
	}
	for _, tt := range tests {
		if got := Similarity(tt.deltaE); got != tt.want {
			t.Errorf("Similarity(%v) = %v, want %v", tt.deltaE, got, tt.want)
		}
	}
}
