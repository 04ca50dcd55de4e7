package services

import (
	"math"
	"sort"

	"github.com/dimaspram/riverwatch/internal/models"
)

// Classification is the outcome of evaluating one reading against its sensor's
// active thresholds. Threshold is nil when the reading is safe.
type Classification struct {
	Level     string
	Threshold *models.Threshold
}

// Classify maps a reading to an alert level. Flow thresholds are evaluated before
// distance thresholds and the first match wins, so one reading yields exactly one
// level (not a worst-of-both-metrics aggregate). Within a metric, candidates are
// scanned in descending min_value order: when ranges overlap the band with the
// higher min_value wins. That tie-break is deliberate.
func Classify(reading *models.Reading, thresholds []models.Threshold) Classification {
	if c, ok := classifyMetric(reading.FlowRate, models.MetricFlow, thresholds); ok {
		return c
	}
	if c, ok := classifyMetric(reading.Distance, models.MetricDistance, thresholds); ok {
		return c
	}
	return Classification{Level: models.AlertLevelSafe}
}

func classifyMetric(value *float64, metric string, thresholds []models.Threshold) (Classification, bool) {
	// A missing metric is skipped entirely, never treated as zero.
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return Classification{}, false
	}

	candidates := make([]models.Threshold, 0, len(thresholds))
	for _, t := range thresholds {
		if !t.IsActive || t.Metric != metric {
			continue
		}
		// Neither bound set: misconfigured, can never match.
		if t.MinValue == nil && t.MaxValue == nil {
			continue
		}
		candidates = append(candidates, t)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return lessByDescendingMin(&candidates[i], &candidates[j])
	})

	for i := range candidates {
		if matches(&candidates[i], *value) {
			return Classification{Level: candidates[i].AlertLevel, Threshold: &candidates[i]}, true
		}
	}
	return Classification{}, false
}

// lessByDescendingMin orders thresholds by descending min_value, with thresholds
// that have no min_value last.
func lessByDescendingMin(a, b *models.Threshold) bool {
	switch {
	case a.MinValue == nil:
		return false
	case b.MinValue == nil:
		return true
	default:
		return *a.MinValue > *b.MinValue
	}
}

// matches reports whether value falls in the threshold's inclusive range.
func matches(t *models.Threshold, value float64) bool {
	switch {
	case t.MinValue != nil && t.MaxValue != nil:
		return value >= *t.MinValue && value <= *t.MaxValue
	case t.MinValue != nil:
		return value >= *t.MinValue
	case t.MaxValue != nil:
		return value <= *t.MaxValue
	default:
		return false
	}
}
