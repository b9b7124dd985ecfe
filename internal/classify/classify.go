// Package classify computes class breaks for choropleth binning.
//
// A Result holds k+1 strictly increasing edges. Class i covers the interval
// (Edges[i], Edges[i+1]]; class 0 additionally includes Edges[0], so every
// value in [min, max] belongs to exactly one class.
package classify

import (
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
)

// Sentinel errors. Match with eris.Is.
var (
	ErrEmptyData         = eris.New("no numeric values to classify")
	ErrUnknownScheme     = eris.New("unknown classification scheme")
	ErrInvalidClassCount = eris.New("class count must be at least 1")
)

// Scheme names a classification method.
type Scheme string

// Supported schemes.
const (
	EqualInterval Scheme = "equal_interval"
	Quantiles     Scheme = "quantiles"
	NaturalBreaks Scheme = "natural_breaks"
	StdMean       Scheme = "std_mean"
)

var schemeAliases = map[string]Scheme{
	"equal_interval": EqualInterval,
	"equalinterval":  EqualInterval,
	"equal":          EqualInterval,
	"ei":             EqualInterval,
	"quantiles":      Quantiles,
	"quantile":       Quantiles,
	"q":              Quantiles,
	"natural_breaks": NaturalBreaks,
	"naturalbreaks":  NaturalBreaks,
	"jenks":          NaturalBreaks,
	"nb":             NaturalBreaks,
	"std_mean":       StdMean,
	"stdmean":        StdMean,
	"std":            StdMean,
	"zscore":         StdMean,
}

// ParseScheme resolves a scheme name or alias, case-insensitively.
func ParseScheme(name string) (Scheme, error) {
	s, ok := schemeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", eris.Wrapf(ErrUnknownScheme, "classify: %q (want quantiles, equal_interval, natural_breaks or std_mean)", name)
	}
	return s, nil
}

// Result is the outcome of a classification.
type Result struct {
	Scheme Scheme
	K      int // requested class count
	Edges  []float64
}

// Classes returns the effective number of classes, which may be lower than K
// when the data has too few distinct values.
func (r *Result) Classes() int { return len(r.Edges) - 1 }

// Assign returns the class index of v, or -1 for NaN and values outside the
// classified range.
func (r *Result) Assign(v float64) int {
	if math.IsNaN(v) || len(r.Edges) < 2 {
		return -1
	}
	if v < r.Edges[0] || v > r.Edges[len(r.Edges)-1] {
		return -1
	}
	// First upper edge >= v.
	return sort.SearchFloat64s(r.Edges[1:], v)
}

// Counts returns how many of values fall in each class.
func (r *Result) Counts(values []float64) []int {
	counts := make([]int, r.Classes())
	for _, v := range values {
		if i := r.Assign(v); i >= 0 {
			counts[i]++
		}
	}
	return counts
}

// Classify bins values using scheme into at most k classes.
// Fewer distinct values than k is not an error: the result simply has
// fewer classes. All-equal values yield the single class [v, v].
func Classify(values []float64, scheme Scheme, k int) (*Result, error) {
	if len(values) == 0 {
		return nil, eris.Wrap(ErrEmptyData, "classify")
	}
	if k < 1 {
		return nil, eris.Wrapf(ErrInvalidClassCount, "classify: k=%d", k)
	}
	switch scheme {
	case EqualInterval, Quantiles, NaturalBreaks, StdMean:
	default:
		return nil, eris.Wrapf(ErrUnknownScheme, "classify: %q", scheme)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	lo, hi := floats.Min(sorted), floats.Max(sorted)

	res := &Result{Scheme: scheme, K: k}
	if lo == hi {
		res.Edges = []float64{lo, hi}
		return res, nil
	}

	var edges []float64
	switch scheme {
	case EqualInterval:
		edges = equalInterval(lo, hi, k)
	case Quantiles:
		edges = quantiles(sorted, k)
	case NaturalBreaks:
		edges = naturalBreaks(sorted, k)
	case StdMean:
		edges = stdMean(sorted, k)
	default:
		return nil, eris.Wrapf(ErrUnknownScheme, "classify: %q", scheme)
	}

	res.Edges = dedupe(edges)
	return res, nil
}

func equalInterval(lo, hi float64, k int) []float64 {
	edges := make([]float64, k+1)
	width := (hi - lo) / float64(k)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[k] = hi
	return edges
}

// quantiles places inner edges at linearly interpolated sample quantiles
// (the R type 7 / numpy default definition).
func quantiles(sorted []float64, k int) []float64 {
	edges := make([]float64, k+1)
	edges[0] = sorted[0]
	for i := 1; i < k; i++ {
		edges[i] = quantile(sorted, i, k)
	}
	edges[k] = sorted[len(sorted)-1]
	return edges
}

// quantile returns the i/k sample quantile. The position (n-1)*i/k is split
// in integer arithmetic so quantiles that land on a sample are exact.
func quantile(sorted []float64, i, k int) float64 {
	num := (len(sorted) - 1) * i
	lo, rem := num/k, num%k
	if rem == 0 {
		return sorted[lo]
	}
	frac := float64(rem) / float64(k)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// dedupe drops edges that do not strictly increase.
func dedupe(edges []float64) []float64 {
	out := edges[:1]
	for _, e := range edges[1:] {
		if e > out[len(out)-1] {
			out = append(out, e)
		}
	}
	return out
}
