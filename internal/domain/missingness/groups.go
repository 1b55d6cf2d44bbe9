package missingness

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/esmtidy/internal/domain/model"
)

// skewThreshold is the absolute pooled skewness beyond which the completion
// metric is treated as non-normal and compared with the rank-based test.
const skewThreshold = 1.0

// GroupStats summarizes the completion metric within one clinical group.
type GroupStats struct {
	Group string
	N     int
	Mean  float64
	SD    float64
}

// GroupComparison reports per-group completion statistics and the rank-based
// group-difference test. H is the Kruskal-Wallis statistic; Parametric
// records whether the pooled skewness would have admitted a parametric test
// (H is reported either way).
type GroupComparison struct {
	Groups     []GroupStats
	Skewness   float64
	Parametric bool
	H          float64
	DF         int
	PValue     float64
}

// CompareCompletion groups participants by their clinical group label and
// compares the completion-percentage metric across groups.
func CompareCompletion(records []model.GroupRecord) *GroupComparison {
	byGroup := make(map[string][]float64)
	var pooled []float64
	for _, r := range records {
		byGroup[r.Group] = append(byGroup[r.Group], r.Completion)
		pooled = append(pooled, r.Completion)
	}

	cmp := &GroupComparison{}
	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values := byGroup[name]
		cmp.Groups = append(cmp.Groups, GroupStats{
			Group: name,
			N:     len(values),
			Mean:  stat.Mean(values, nil),
			SD:    stat.StdDev(values, nil),
		})
	}

	if len(pooled) >= 3 {
		cmp.Skewness = stat.Skew(pooled, nil)
	}
	cmp.Parametric = math.Abs(cmp.Skewness) <= skewThreshold

	if len(byGroup) >= 2 && len(pooled) > len(byGroup) {
		cmp.H = kruskalWallisH(byGroup, pooled)
		cmp.DF = len(byGroup) - 1
		chi2 := distuv.ChiSquared{K: float64(cmp.DF)}
		cmp.PValue = 1 - chi2.CDF(cmp.H)
	}
	return cmp
}

// kruskalWallisH computes the Kruskal-Wallis statistic with tie-averaged
// ranks and tie correction.
func kruskalWallisH(byGroup map[string][]float64, pooled []float64) float64 {
	n := float64(len(pooled))
	ranks := averageRanks(pooled)

	rankOf := func(v float64) float64 { return ranks[v] }

	var sum float64
	for _, values := range byGroup {
		var groupRankSum float64
		for _, v := range values {
			groupRankSum += rankOf(v)
		}
		ni := float64(len(values))
		sum += groupRankSum * groupRankSum / ni
	}
	h := 12/(n*(n+1))*sum - 3*(n+1)

	// Tie correction.
	tieCounts := make(map[float64]int)
	for _, v := range pooled {
		tieCounts[v]++
	}
	var tieSum float64
	for _, t := range tieCounts {
		if t > 1 {
			tf := float64(t)
			tieSum += tf*tf*tf - tf
		}
	}
	correction := 1 - tieSum/(n*n*n-n)
	if correction > 0 {
		h /= correction
	}
	return h
}

// averageRanks assigns each distinct value its tie-averaged rank (1-based).
func averageRanks(values []float64) map[float64]float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	ranks := make(map[float64]float64)
	i := 0
	for i < len(sorted) {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		// Positions i..j-1 (0-based) share the averaged rank.
		ranks[sorted[i]] = float64(i+j+1) / 2
		i = j
	}
	return ranks
}
