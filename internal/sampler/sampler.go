// Package sampler reduces an ordered frame sequence to a bounded,
// temporally uniform subset. Sampling is applied per camera so that one
// long clip cannot crowd the others out of the reconstruction input.
package sampler

// Indices selects m source indices out of n, evenly spaced over the full
// span. The result is strictly increasing and always starts at 0. When
// m >= n every index is kept.
func Indices(n, m int) []int {
	if n <= 0 {
		return nil
	}
	if m >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	step := float64(n) / float64(m)
	out := make([]int, 0, m)
	for i := 0; i < m; i++ {
		out = append(out, int(float64(i)*step))
	}
	return out
}

// Budgets splits a total frame budget across cameras in proportion to how
// many frames each extracted. Quotas sum to min(max, total); leftovers from
// rounding go to the cameras with the largest fractional share, in camera
// order on ties. Cameras that yielded nothing get nothing.
func Budgets(counts []int, max int) []int {
	quotas := make([]int, len(counts))
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 || max <= 0 {
		return quotas
	}
	if total <= max {
		copy(quotas, counts)
		return quotas
	}

	assigned := 0
	type rem struct {
		idx  int
		frac int // numerator of the fractional part, over total
	}
	rems := make([]rem, 0, len(counts))
	for i, c := range counts {
		q := max * c / total
		quotas[i] = q
		assigned += q
		rems = append(rems, rem{idx: i, frac: max * c % total})
	}

	// Largest remainder first; stable by camera index.
	for assigned < max {
		best := -1
		for _, r := range rems {
			if r.frac == 0 || quotas[r.idx] >= counts[r.idx] {
				continue
			}
			if best == -1 || r.frac > rems[best].frac {
				best = r.idx
			}
		}
		if best == -1 {
			break
		}
		quotas[best]++
		rems[best].frac = 0
		assigned++
	}
	return quotas
}
