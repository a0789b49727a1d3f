package framesim

import "github.com/hupe1980/stabframe/internal/rng"

// aliasTable implements Vose's alias method: after an O(n) build, Sample
// draws from an arbitrary discrete distribution in O(1), which matters here
// because PAULI_CHANNEL_1/2 draw once per shot and a shot count can run into
// the millions.
type aliasTable struct {
	prob  []float64
	alias []int
}

// newAliasTable builds a table for the distribution given by weights, which
// need not sum to 1 (they are renormalized).
func newAliasTable(weights []float64) *aliasTable {
	n := len(weights)
	total := 0.0
	for _, w := range weights {
		total += w
	}
	scaled := make([]float64, n)
	if total > 0 {
		for i, w := range weights {
			scaled[i] = w / total * float64(n)
		}
	}

	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, v := range scaled {
		if v < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	prob := make([]float64, n)
	alias := make([]int, n)

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		prob[s] = scaled[s]
		alias[s] = l

		scaled[l] = scaled[l] + scaled[s] - 1
		if scaled[l] < 1 {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	for len(large) > 0 {
		l := large[len(large)-1]
		large = large[:len(large)-1]
		prob[l] = 1
	}
	for len(small) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		prob[s] = 1
	}

	return &aliasTable{prob: prob, alias: alias}
}

// Sample draws one outcome index in [0, n) from r.
func (a *aliasTable) Sample(r *rng.RNG) int {
	n := len(a.prob)
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if r.Float64() < a.prob[i] {
		return i
	}
	return a.alias[i]
}
