package engine

import (
	"biogasd/internal/model"
)

// Series projects a newest-first reading history into a chart-ready,
// time-ascending sequence for one metric. Readings without a value for the
// metric are skipped. Chronological order is obtained by reversing the
// buffer, not by sorting on the embedded timestamps; arrival order is the
// documented buffer order.
func Series(readings []model.Reading, metric model.Metric) []model.SeriesPoint {
	out := make([]model.SeriesPoint, 0, len(readings))
	for i := len(readings) - 1; i >= 0; i-- {
		v := metricValue(readings[i], metric)
		if v == nil {
			continue
		}
		out = append(out, model.SeriesPoint{
			TimeLabel: readings[i].Timestamp.Format("15:04"),
			Value:     *v,
			Timestamp: readings[i].Timestamp,
		})
	}
	thinLabels(out)
	return out
}

// thinLabels blanks out axis labels on dense series: above six points only
// every ceil(n/5)-th label survives. Values and point count are untouched.
func thinLabels(points []model.SeriesPoint) {
	n := len(points)
	if n <= 6 {
		return
	}
	step := (n + 4) / 5
	for i := range points {
		if i%step != 0 {
			points[i].TimeLabel = ""
		}
	}
}

func metricValue(r model.Reading, m model.Metric) *float64 {
	switch m {
	case model.MetricTemperature:
		return r.Temperature
	case model.MetricPressure:
		return r.Pressure
	case model.MetricMethane:
		return r.Methane
	case model.MetricGas:
		return r.GasConsumption
	default:
		return nil
	}
}
