package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/northstar/internal/types"
)

func series(name string, values ...float64) types.Series {
	s := types.Series{Name: name}
	for i, v := range values {
		s.Points = append(s.Points, types.MetricPoint{
			Label: labelFor(i),
			Value: v,
		})
	}
	return s
}

func labelFor(i int) string {
	return string(rune('A' + i))
}

func TestDetectIQR_FlagsSpike(t *testing.T) {
	// sorted: 9,10,10,11,12,100 -> Q1=10, Q3=12, fences [7, 15]
	s := series("commits/Chad Walters", 10, 12, 11, 9, 10, 100)

	anomalies := DetectIQR(s, DefaultIQRConfig())

	require.Len(t, anomalies, 1)
	assert.Equal(t, 100.0, anomalies[0].Value)
	assert.Equal(t, DirectionHigh, anomalies[0].Direction)
	assert.Equal(t, "iqr", anomalies[0].Method)
	assert.Equal(t, "commits/Chad Walters", anomalies[0].Series)
}

func TestDetectIQR_FlagsDrop(t *testing.T) {
	s := series("prs/EJ", 10, 12, 11, 9, 10, 0)

	anomalies := DetectIQR(s, DefaultIQRConfig())

	require.Len(t, anomalies, 1)
	assert.Equal(t, 0.0, anomalies[0].Value)
	assert.Equal(t, DirectionLow, anomalies[0].Direction)
}

func TestDetectIQR_ShortSeriesSkipped(t *testing.T) {
	s := series("commits/JP", 1, 100)
	assert.Nil(t, DetectIQR(s, DefaultIQRConfig()))
}

func TestDetectZScore_ExactThreshold(t *testing.T) {
	// Nine 10s and one 100: mean 19, stddev 27, z(100) = 3.0 exactly.
	// The threshold is inclusive.
	s := series("score/Jeremiah", 10, 10, 10, 10, 10, 10, 10, 10, 10, 100)

	anomalies := DetectZScore(s, DefaultZScoreConfig())

	require.Len(t, anomalies, 1)
	assert.Equal(t, 100.0, anomalies[0].Value)
	assert.Equal(t, DirectionHigh, anomalies[0].Direction)
	assert.Equal(t, "zscore", anomalies[0].Method)
	assert.Equal(t, "z=3.00", anomalies[0].Detail)
}

func TestDetectZScore_BelowThresholdQuiet(t *testing.T) {
	s := series("score/Jeremiah", 10, 10, 10, 10, 10, 40)
	// z(40) ~= 2.24, under the default 3.0
	assert.Empty(t, DetectZScore(s, DefaultZScoreConfig()))

	anomalies := DetectZScore(s, ZScoreConfig{Threshold: 2.0, MinPoints: 4})
	require.Len(t, anomalies, 1)
	assert.Equal(t, 40.0, anomalies[0].Value)
}

func TestDetectZScore_FlatSeries(t *testing.T) {
	s := series("usage/Matt Kindy", 5, 5, 5, 5, 5)
	assert.Nil(t, DetectZScore(s, DefaultZScoreConfig()))
}

func TestDetectAll_CombinesDetectors(t *testing.T) {
	all := DetectAll([]types.Series{
		series("a", 10, 12, 11, 9, 10, 100),
		series("b", 5, 5, 5, 5, 5),
	}, DefaultIQRConfig(), DefaultZScoreConfig())

	require.NotEmpty(t, all)
	for _, a := range all {
		assert.Equal(t, "a", a.Series)
	}
}
