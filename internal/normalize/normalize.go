package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"biogasd/internal/model"
)

// Reading converts a raw sample into its normalized form. It is total:
// unparsable numeric fields become nil and an unparsable timestamp falls
// back to the arrival instant, so one bad field never blocks an otherwise
// valid reading and a fully malformed one still yields a usable value.
func Reading(raw model.RawReading, arrival time.Time) model.Reading {
	return model.Reading{
		ReadingID:      raw.ReadingID,
		DeviceID:       raw.DeviceID,
		Temperature:    Value(raw.TemperatureLevel),
		Pressure:       Value(raw.PressureLevel),
		Methane:        Value(raw.MethaneLevel),
		GasConsumption: Value(raw.GasConsumption),
		Timestamp:      Timestamp(raw.CreatedAt, arrival),
	}
}

// FromPayload parses one inbound transport frame. Numeric fields may arrive
// as JSON numbers or as decimal strings; either way absence and garbage
// degrade to nil. The returned error is non-nil only when the payload is
// not JSON at all.
func FromPayload(data []byte, arrival time.Time) (model.Reading, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return model.Reading{}, fmt.Errorf("decode payload: %w", err)
	}
	r := model.Reading{
		ReadingID: arrival.UnixMilli(),
		DeviceID:  "unknown",
		Timestamp: arrival,
	}
	if id, ok := obj["device_id"].(string); ok && id != "" {
		r.DeviceID = id
	}
	r.Temperature = fieldValue(obj, "temperature_level")
	r.Pressure = fieldValue(obj, "pressure_level")
	r.Methane = fieldValue(obj, "methane_level")
	r.GasConsumption = fieldValue(obj, "gas_consumption")
	if ts, ok := obj["created_at"].(string); ok {
		r.Timestamp = Timestamp(ts, arrival)
	}
	return r, nil
}

// Wire converts a normalized reading back into its decimal-string wire form
// for the backend ingestion endpoint. Absent fields stay absent rather than
// being padded with a "0.00" placeholder.
func Wire(r model.Reading) model.RawReading {
	ts := r.Timestamp.UTC().Format(time.RFC3339)
	return model.RawReading{
		ReadingID:        r.ReadingID,
		DeviceID:         r.DeviceID,
		TemperatureLevel: formatValue(r.Temperature),
		PressureLevel:    formatValue(r.Pressure),
		MethaneLevel:     formatValue(r.Methane),
		GasConsumption:   formatValue(r.GasConsumption),
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
}

// Value parses a decimal-string field. Empty, non-numeric, NaN and infinite
// inputs all yield nil; consumers never see NaN.
func Value(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fieldValue(obj map[string]any, key string) *float64 {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case string:
		return Value(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
}

// Timestamp parses an ISO-ish timestamp, substituting the arrival instant
// when the value is missing or malformed so downstream ordering never
// breaks on a bad device clock.
func Timestamp(value string, arrival time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return arrival
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return arrival
}
