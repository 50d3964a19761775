// Package scoring ranks normalized bonds by weighted percentile factors.
package scoring

import (
	"math"
	"sort"
)

// ScoreSeries converts raw factor values into average-rank percentile scores in [0, 1].
//
// NaN and ±Inf mark a missing value and score 0. Equal values share the mean of
// their 1-based ranks, so a tie block covering sorted positions i+1..j scores
// (i+1+j)/2/n, where n counts the finite values. largerBetter=false flips it to 1-p.
// The output always has len(values) entries.
// ⭐ SSOT: 백분위 점수 계산은 여기서만
func ScoreSeries(values []float64, largerBetter bool) []float64 {
	scores := make([]float64, len(values))

	idx := make([]int, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		idx = append(idx, i)
	}

	n := len(idx)
	if n == 0 {
		return scores
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	for i := 0; i < n; {
		j := i + 1
		for j < n && values[idx[j]] == values[idx[i]] {
			j++
		}

		pct := float64(i+1+j) / 2 / float64(n)
		s := pct
		if !largerBetter {
			s = 1 - pct
		}
		for k := i; k < j; k++ {
			scores[idx[k]] = s
		}

		i = j
	}

	return scores
}
