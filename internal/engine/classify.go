package engine

import (
	"biogasd/internal/config"
	"biogasd/internal/model"
)

// Bands holds the digester safety bands. Comparisons against the band edges
// are strict: a value exactly at an edge is normal.
type Bands struct {
	TemperatureMin float64
	TemperatureMax float64
	PressureMin    float64
	PressureMax    float64
	MethaneMax     float64
}

func DefaultBands() Bands {
	return Bands{
		TemperatureMin: 35,
		TemperatureMax: 37,
		PressureMin:    8,
		PressureMax:    15,
		MethaneMax:     2.0,
	}
}

func BandsFromConfig(t config.ThresholdsConfig) Bands {
	return Bands{
		TemperatureMin: t.TemperatureMin,
		TemperatureMax: t.TemperatureMax,
		PressureMin:    t.PressureMin,
		PressureMax:    t.PressureMax,
		MethaneMax:     t.MethaneMax,
	}
}

// ClassifyTemperature checks a temperature value (°C) against the mesophilic
// band. A nil value is not an alert condition.
func ClassifyTemperature(v *float64, b Bands) model.Classification {
	if v == nil {
		return model.Classification{Status: model.StatusNormal, Message: "No data"}
	}
	switch {
	case *v < b.TemperatureMin:
		return model.Classification{Status: model.StatusWarning, Message: "Temperature too low"}
	case *v > b.TemperatureMax:
		return model.Classification{Status: model.StatusWarning, Message: "Temperature too high"}
	default:
		return model.Classification{Status: model.StatusNormal, Message: "Temperature normal"}
	}
}

// ClassifyPressure checks a pressure value (kPa) against the operating band.
func ClassifyPressure(v *float64, b Bands) model.Classification {
	if v == nil {
		return model.Classification{Status: model.StatusNormal, Message: "No data"}
	}
	switch {
	case *v < b.PressureMin:
		return model.Classification{Status: model.StatusCritical, Message: "Pressure too low"}
	case *v > b.PressureMax:
		return model.Classification{Status: model.StatusCritical, Message: "Pressure too high"}
	default:
		return model.Classification{Status: model.StatusNormal, Message: "Pressure normal"}
	}
}

// ClassifyMethane checks an ambient methane value (ppm). There is no lower
// band; only leakage above the ceiling is a breach.
func ClassifyMethane(v *float64, b Bands) model.Classification {
	if v == nil {
		return model.Classification{Status: model.StatusNormal, Message: "No data"}
	}
	if *v > b.MethaneMax {
		return model.Classification{Status: model.StatusCritical, Message: "Methane levels too high"}
	}
	return model.Classification{Status: model.StatusNormal, Message: "Methane normal"}
}

// Overall rolls the three metric classifications up into one system status
// line: methane breaches dominate, any other out-of-band value degrades the
// system to warning.
func Overall(r *model.Reading, b Bands) (model.MetricStatus, string, string) {
	if r == nil {
		return model.StatusNormal, "Operational", "All systems operational"
	}
	if c := ClassifyMethane(r.Methane, b); c.Status == model.StatusCritical {
		return model.StatusCritical, "Critical", "Critical methane levels detected!"
	}
	temp := ClassifyTemperature(r.Temperature, b)
	pressure := ClassifyPressure(r.Pressure, b)
	if temp.Status != model.StatusNormal || pressure.Status != model.StatusNormal {
		return model.StatusWarning, "Warning", "Sensor values out of normal range."
	}
	return model.StatusNormal, "Operational", "All systems operational"
}
