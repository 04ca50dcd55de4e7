package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimaspram/riverwatch/internal/models"
)

func f64(v float64) *float64 { return &v }

func threshold(metric, level string, min, max *float64) models.Threshold {
	return models.Threshold{
		Metric:     metric,
		AlertLevel: level,
		MinValue:   min,
		MaxValue:   max,
		Message:    level + " threshold crossed",
		IsActive:   true,
	}
}

func TestClassifyNoThresholds(t *testing.T) {
	reading := &models.Reading{FlowRate: f64(3.0), Distance: f64(120)}
	c := Classify(reading, nil)
	assert.Equal(t, models.AlertLevelSafe, c.Level)
	assert.Nil(t, c.Threshold)
}

func TestClassifyInclusiveBounds(t *testing.T) {
	th := []models.Threshold{threshold(models.MetricFlow, models.AlertLevelWarning, f64(3.0), f64(4.0))}

	for _, v := range []float64{3.0, 3.5, 4.0} {
		c := Classify(&models.Reading{FlowRate: f64(v)}, th)
		assert.Equal(t, models.AlertLevelWarning, c.Level, "value %v should match", v)
	}
	for _, v := range []float64{2.999, 4.001} {
		c := Classify(&models.Reading{FlowRate: f64(v)}, th)
		assert.Equal(t, models.AlertLevelSafe, c.Level, "value %v should not match", v)
	}
}

func TestClassifyOpenEndedRanges(t *testing.T) {
	th := []models.Threshold{
		threshold(models.MetricFlow, models.AlertLevelCritical, f64(4.5), nil),
		threshold(models.MetricDistance, models.AlertLevelWarning, nil, f64(80)),
	}

	c := Classify(&models.Reading{FlowRate: f64(9.9)}, th)
	assert.Equal(t, models.AlertLevelCritical, c.Level)

	c = Classify(&models.Reading{Distance: f64(42)}, th)
	assert.Equal(t, models.AlertLevelWarning, c.Level)

	c = Classify(&models.Reading{FlowRate: f64(1.0), Distance: f64(150)}, th)
	assert.Equal(t, models.AlertLevelSafe, c.Level)
}

// When ranges overlap, the band with the higher min_value wins regardless of
// slice order.
func TestClassifyOverlapHigherMinWins(t *testing.T) {
	th := []models.Threshold{
		threshold(models.MetricFlow, models.AlertLevelWarning, f64(2.0), f64(4.0)),
		threshold(models.MetricFlow, models.AlertLevelDanger, f64(3.0), f64(5.0)),
	}

	c := Classify(&models.Reading{FlowRate: f64(3.5)}, th)
	require.NotNil(t, c.Threshold)
	assert.Equal(t, models.AlertLevelDanger, c.Level)

	// Reversed input order yields the same answer.
	c = Classify(&models.Reading{FlowRate: f64(3.5)}, []models.Threshold{th[1], th[0]})
	assert.Equal(t, models.AlertLevelDanger, c.Level)

	c = Classify(&models.Reading{FlowRate: f64(2.5)}, th)
	assert.Equal(t, models.AlertLevelWarning, c.Level)
}

func TestClassifyFlowBeforeDistance(t *testing.T) {
	th := []models.Threshold{
		threshold(models.MetricFlow, models.AlertLevelWarning, f64(3.0), f64(4.0)),
		threshold(models.MetricDistance, models.AlertLevelCritical, nil, f64(80)),
	}

	// Both metrics match; the flow verdict wins even though distance is worse.
	c := Classify(&models.Reading{FlowRate: f64(3.5), Distance: f64(50)}, th)
	assert.Equal(t, models.AlertLevelWarning, c.Level)

	// Flow misses, distance is still evaluated.
	c = Classify(&models.Reading{FlowRate: f64(1.0), Distance: f64(50)}, th)
	assert.Equal(t, models.AlertLevelCritical, c.Level)
}

func TestClassifySkipsMissingMetrics(t *testing.T) {
	// A max-only threshold would match zero, but an absent metric is not zero.
	th := []models.Threshold{threshold(models.MetricFlow, models.AlertLevelDanger, nil, f64(1.0))}

	c := Classify(&models.Reading{}, th)
	assert.Equal(t, models.AlertLevelSafe, c.Level)

	nan := math.NaN()
	c = Classify(&models.Reading{FlowRate: &nan}, th)
	assert.Equal(t, models.AlertLevelSafe, c.Level)

	inf := math.Inf(1)
	c = Classify(&models.Reading{FlowRate: &inf}, th)
	assert.Equal(t, models.AlertLevelSafe, c.Level)
}

func TestClassifyIgnoresInactiveAndUnbounded(t *testing.T) {
	inactive := threshold(models.MetricFlow, models.AlertLevelCritical, f64(0), nil)
	inactive.IsActive = false
	unbounded := threshold(models.MetricFlow, models.AlertLevelCritical, nil, nil)

	c := Classify(&models.Reading{FlowRate: f64(5.0)}, []models.Threshold{inactive, unbounded})
	assert.Equal(t, models.AlertLevelSafe, c.Level)
}

func TestClassifyReturnsMatchedThreshold(t *testing.T) {
	th := []models.Threshold{
		threshold(models.MetricFlow, models.AlertLevelWarning, f64(3.0), f64(4.0)),
		threshold(models.MetricFlow, models.AlertLevelDanger, f64(4.0), f64(4.5)),
	}

	c := Classify(&models.Reading{FlowRate: f64(4.0)}, th)
	require.NotNil(t, c.Threshold)
	// 4.0 sits on both boundaries; the higher min_value band wins.
	assert.Equal(t, models.AlertLevelDanger, c.Level)
	assert.Equal(t, models.AlertLevelDanger, c.Threshold.AlertLevel)
}

func TestLessByDescendingMin(t *testing.T) {
	withMin := threshold(models.MetricFlow, models.AlertLevelWarning, f64(2.0), nil)
	higherMin := threshold(models.MetricFlow, models.AlertLevelDanger, f64(5.0), nil)
	noMin := threshold(models.MetricFlow, models.AlertLevelWarning, nil, f64(1.0))

	assert.True(t, lessByDescendingMin(&higherMin, &withMin))
	assert.False(t, lessByDescendingMin(&withMin, &higherMin))
	assert.True(t, lessByDescendingMin(&withMin, &noMin))
	assert.False(t, lessByDescendingMin(&noMin, &withMin))
	assert.False(t, lessByDescendingMin(&noMin, &noMin))
}
