// Package recommend answers what-if questions about an assessment: how the
// index changes with another material, and how tall the structure may be
// while staying below a category threshold.
package recommend

import (
	"math"
	"sort"

	"SafeStruct/internal/calc/assess"
	"SafeStruct/internal/calc/irs"
)

type Alternative struct {
	Material irs.Material `json:"material"`
	Index    float64      `json:"irs"`
	Category irs.Category `json:"category"`
	Delta    float64      `json:"delta"`
}

type Result struct {
	Current      irs.Result    `json:"current"`
	Alternatives []Alternative `json:"alternatives"`

	// Nil when even the minimum height reaches the threshold.
	MaxHeightSafeM        *float64 `json:"max_height_safe_m"`
	MaxHeightNonCriticalM *float64 `json:"max_height_non_critical_m"`
}

func params(a assess.Assessment) irs.Params {
	return irs.Params{
		HeightM:  a.Input.HeightM,
		LoadKN:   a.Input.LoadKN,
		PGA:      a.Zone.PGA,
		SoilType: string(a.Zone.Soil),
		Material: a.Input.Material,
		AreaM2:   a.AreaM2,
		VolumeM3: a.VolumeM3,
	}
}

// Recommend ranks every listed material for the same structure and site,
// lowest index first.
func Recommend(a assess.Assessment) Result {
	out := Result{Current: a.Result}

	p := params(a)
	for _, m := range irs.Materials {
		p.Material = m
		r := irs.Compute(p)
		out.Alternatives = append(out.Alternatives, Alternative{
			Material: m,
			Index:    r.Index,
			Category: r.Category,
			Delta:    math.Round((r.Index-a.Result.Index)*100) / 100,
		})
	}
	sort.SliceStable(out.Alternatives, func(i, j int) bool {
		return out.Alternatives[i].Index < out.Alternatives[j].Index
	})

	if h, ok := MaxHeight(a, irs.ModerateThreshold); ok {
		out.MaxHeightSafeM = &h
	}
	if h, ok := MaxHeight(a, irs.CriticalThreshold); ok {
		out.MaxHeightNonCriticalM = &h
	}
	return out
}

// MaxHeight finds the tallest height within the form limits whose index
// stays below threshold, keeping plan, load, material and site fixed. The
// index never decreases with height, so a bisection suffices.
func MaxHeight(a assess.Assessment, threshold float64) (float64, bool) {
	p := params(a)
	index := func(h float64) float64 {
		p.HeightM = h
		p.VolumeM3 = a.AreaM2 * h
		return irs.Compute(p).Index
	}

	lo, hi := assess.MinHeightM, assess.MaxHeightM
	if index(lo) >= threshold {
		return 0, false
	}
	if index(hi) < threshold {
		return hi, true
	}
	for range 50 {
		mid := (lo + hi) / 2
		if index(mid) < threshold {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Floor(lo*100) / 100, true
}
