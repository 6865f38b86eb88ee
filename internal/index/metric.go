package index

import (
	"fmt"
	"strings"

	"github.com/dgallion1/specassist/internal/corpus"
)

// Metric is the scoring function fixed at build time.
type Metric string

const (
	// MetricInnerProduct is cosine similarity via inner product over unit
	// vectors. Higher is better; scores are clamped to [-1, 1] since float32
	// unit vectors can overshoot by rounding.
	MetricInnerProduct Metric = "ip"
	// MetricL2 is squared Euclidean distance over raw vectors. Lower is
	// better; scores are >= 0. Kept for snapshots built with the older
	// character-window strategy.
	MetricL2 Metric = "l2"
)

// ParseMetric accepts "ip", "cosine", "l2" and "euclidean". Empty means ip.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ip", "cosine", "inner_product":
		return MetricInnerProduct, nil
	case "l2", "euclidean":
		return MetricL2, nil
	}
	return "", fmt.Errorf("%w: unknown metric %q", corpus.ErrValidation, s)
}

// HigherIsBetter reports the ranking orientation of scores.
func (m Metric) HigherIsBetter() bool { return m != MetricL2 }

// Normalized reports whether vectors are stored at unit length.
func (m Metric) Normalized() bool { return m == MetricInnerProduct }

// Score computes the metric between two equal-length vectors.
func (m Metric) Score(a, b []float32) float64 {
	var s float64
	if m == MetricL2 {
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			s += d * d
		}
		return s
	}
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return max(-1, min(1, s))
}
