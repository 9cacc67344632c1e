package chart

import (
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

// Bin splits vals into n equal-width bins over [min, max] and returns a
// label (the bin's lower edge) and a count per bin. The last bin is closed.
// Non-finite values are ignored.
func Bin(vals []float64, n int) ([]string, []float64) {
	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	vals = finite
	if len(vals) == 0 {
		return nil, nil
	}
	if n <= 0 {
		n = 30
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []string{formatEdge(lo)}, []float64{float64(len(vals))}
	}
	width := (hi - lo) / float64(n)
	counts := make([]float64, n)
	for _, v := range vals {
		i := int((v - lo) / width)
		if i < 0 {
			i = 0
		}
		if i >= n {
			i = n - 1
		}
		counts[i]++
	}
	labels := make([]string, n)
	for i := range labels {
		labels[i] = formatEdge(lo + float64(i)*width)
	}
	return labels, counts
}

// CountValues counts non-missing cells per distinct value in order of first
// appearance.
func CountValues(cells []string) ([]string, []float64) {
	pos := make(map[string]int)
	var labels []string
	var counts []float64
	for _, c := range cells {
		if dataset.IsMissing(c) {
			continue
		}
		c = strings.TrimSpace(c)
		i, ok := pos[c]
		if !ok {
			i = len(labels)
			pos[c] = i
			labels = append(labels, c)
			counts = append(counts, 0)
		}
		counts[i]++
	}
	return labels, counts
}

func formatEdge(f float64) string {
	return strconv.FormatFloat(f, 'g', 4, 64)
}
