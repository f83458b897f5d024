// Package anomaly flags outliers in weekly metric series using IQR fences
// and z-scores. Detectors collect facts; deciding whether an anomaly is a
// problem is left to the humans reading the report.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/steveyegge/northstar/internal/types"
)

// Direction of an anomaly relative to the expected range.
const (
	DirectionHigh = "high"
	DirectionLow  = "low"
)

// Anomaly is one flagged point in a series.
type Anomaly struct {
	Series    string  `json:"series"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Direction string  `json:"direction"`
	Method    string  `json:"method"` // "iqr" or "zscore"
	// Detail explains the bound that was crossed, e.g. "above upper
	// fence 42.5" or "z=3.21".
	Detail string `json:"detail"`
}

// IQRConfig configures the IQR detector.
type IQRConfig struct {
	// K is the fence multiplier: fences at Q1-K*IQR and Q3+K*IQR.
	// The conventional value is 1.5.
	K float64
	// MinPoints is the minimum series length worth analyzing.
	MinPoints int
}

// DefaultIQRConfig returns the conventional 1.5*IQR fences with a
// 4-point minimum (quartiles of anything shorter are meaningless).
func DefaultIQRConfig() IQRConfig {
	return IQRConfig{K: 1.5, MinPoints: 4}
}

// DetectIQR flags points outside the Tukey fences of the series.
func DetectIQR(s types.Series, cfg IQRConfig) []Anomaly {
	if len(s.Points) < cfg.MinPoints {
		return nil
	}

	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	q1, q3 := quartiles(values)
	iqr := q3 - q1
	lower := q1 - cfg.K*iqr
	upper := q3 + cfg.K*iqr

	var out []Anomaly
	for _, p := range s.Points {
		switch {
		case p.Value > upper:
			out = append(out, Anomaly{
				Series: s.Name, Label: p.Label, Value: p.Value,
				Direction: DirectionHigh, Method: "iqr",
				Detail: fmt.Sprintf("above upper fence %.2f", upper),
			})
		case p.Value < lower:
			out = append(out, Anomaly{
				Series: s.Name, Label: p.Label, Value: p.Value,
				Direction: DirectionLow, Method: "iqr",
				Detail: fmt.Sprintf("below lower fence %.2f", lower),
			})
		}
	}
	return out
}

// ZScoreConfig configures the z-score detector.
type ZScoreConfig struct {
	// Threshold flags points with |z| >= Threshold. Typical: 3.0.
	Threshold float64
	// MinPoints is the minimum series length worth analyzing.
	MinPoints int
}

// DefaultZScoreConfig returns the conventional |z| >= 3 threshold.
func DefaultZScoreConfig() ZScoreConfig {
	return ZScoreConfig{Threshold: 3.0, MinPoints: 4}
}

// DetectZScore flags points whose z-score magnitude meets the threshold.
// A flat series (zero standard deviation) has no anomalies.
func DetectZScore(s types.Series, cfg ZScoreConfig) []Anomaly {
	if len(s.Points) < cfg.MinPoints {
		return nil
	}

	mean, stddev := meanStddev(s.Points)
	if stddev == 0 {
		return nil
	}

	var out []Anomaly
	for _, p := range s.Points {
		z := (p.Value - mean) / stddev
		if math.Abs(z) < cfg.Threshold {
			continue
		}
		direction := DirectionHigh
		if z < 0 {
			direction = DirectionLow
		}
		out = append(out, Anomaly{
			Series: s.Name, Label: p.Label, Value: p.Value,
			Direction: direction, Method: "zscore",
			Detail: fmt.Sprintf("z=%.2f", z),
		})
	}
	return out
}

// DetectAll runs both detectors over every series.
func DetectAll(series []types.Series, iqr IQRConfig, z ZScoreConfig) []Anomaly {
	var out []Anomaly
	for _, s := range series {
		out = append(out, DetectIQR(s, iqr)...)
		out = append(out, DetectZScore(s, z)...)
	}
	return out
}

// quartiles computes Q1 and Q3 by median-of-halves (Tukey's hinges).
func quartiles(values []float64) (q1, q3 float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	q1 = median(sorted[:mid])
	if len(sorted)%2 == 0 {
		q3 = median(sorted[mid:])
	} else {
		q3 = median(sorted[mid+1:])
	}
	return q1, q3
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func meanStddev(points []types.MetricPoint) (mean, stddev float64) {
	for _, p := range points {
		mean += p.Value
	}
	mean /= float64(len(points))

	var sumSq float64
	for _, p := range points {
		d := p.Value - mean
		sumSq += d * d
	}
	stddev = math.Sqrt(sumSq / float64(len(points)))
	return mean, stddev
}
