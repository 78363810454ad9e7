package engine

import (
	"fmt"
	"sort"

	"biogasd/internal/model"
)

// Breach kinds. Combined with the source reading id they form stable alert
// ids, so deriving alerts for the same reading twice yields identical sets.
const (
	KindTempLow      = "temp-low"
	KindTempHigh     = "temp-high"
	KindPressureLow  = "pressure-low"
	KindPressureHigh = "pressure-high"
	KindMethaneHigh  = "methane-high"
)

// DeriveAlerts evaluates one reading against the bands and emits zero to
// three alerts, one per breaching metric, in temperature, pressure, methane
// order. Temperature breaches are warnings; pressure and methane breaches
// are critical.
func DeriveAlerts(r model.Reading, b Bands) []model.Alert {
	var out []model.Alert
	if r.Temperature != nil {
		if *r.Temperature < b.TemperatureMin {
			out = append(out, newAlert(KindTempLow, model.SeverityWarning, "Temperature too low", r))
		} else if *r.Temperature > b.TemperatureMax {
			out = append(out, newAlert(KindTempHigh, model.SeverityWarning, "Temperature too high", r))
		}
	}
	if r.Pressure != nil {
		if *r.Pressure < b.PressureMin {
			out = append(out, newAlert(KindPressureLow, model.SeverityCritical, "Pressure too low", r))
		} else if *r.Pressure > b.PressureMax {
			out = append(out, newAlert(KindPressureHigh, model.SeverityCritical, "Pressure too high", r))
		}
	}
	if r.Methane != nil && *r.Methane > b.MethaneMax {
		out = append(out, newAlert(KindMethaneHigh, model.SeverityCritical, "Methane levels too high", r))
	}
	return out
}

// BuildFeed derives the historical alert log across a set of readings,
// most recent breach first. The feed is deliberately not deduplicated:
// repeated breaches on consecutive readings each get their own entry.
func BuildFeed(readings []model.Reading, b Bands) []model.Alert {
	feed := make([]model.Alert, 0)
	for _, r := range readings {
		feed = append(feed, DeriveAlerts(r, b)...)
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})
	return feed
}

func newAlert(kind string, severity model.Severity, message string, r model.Reading) model.Alert {
	return model.Alert{
		ID:        fmt.Sprintf("%s-%d", kind, r.ReadingID),
		Severity:  severity,
		Message:   message,
		Timestamp: r.Timestamp,
		ReadingID: r.ReadingID,
		DeviceID:  r.DeviceID,
	}
}
