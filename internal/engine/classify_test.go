package engine

import (
	"testing"

	"biogasd/internal/model"
)

func TestBoundaryValuesAreNormal(t *testing.T) {
	b := DefaultBands()
	cases := []struct {
		name     string
		classify func(*float64, Bands) model.Classification
		value    float64
	}{
		{"temperature lower edge", ClassifyTemperature, 35},
		{"temperature upper edge", ClassifyTemperature, 37},
		{"pressure lower edge", ClassifyPressure, 8},
		{"pressure upper edge", ClassifyPressure, 15},
		{"methane ceiling", ClassifyMethane, 2.0},
	}
	for _, tc := range cases {
		got := tc.classify(model.Float(tc.value), b)
		if got.Status != model.StatusNormal {
			t.Fatalf("%s: value %v classified %s, want normal", tc.name, tc.value, got.Status)
		}
	}
}

func TestEpsilonOutsideBandBreaches(t *testing.T) {
	b := DefaultBands()
	eps := 0.0001
	cases := []struct {
		name     string
		classify func(*float64, Bands) model.Classification
		value    float64
		want     model.MetricStatus
	}{
		{"temperature below", ClassifyTemperature, 35 - eps, model.StatusWarning},
		{"temperature above", ClassifyTemperature, 37 + eps, model.StatusWarning},
		{"pressure below", ClassifyPressure, 8 - eps, model.StatusCritical},
		{"pressure above", ClassifyPressure, 15 + eps, model.StatusCritical},
		{"methane above", ClassifyMethane, 2.0 + eps, model.StatusCritical},
	}
	for _, tc := range cases {
		got := tc.classify(model.Float(tc.value), b)
		if got.Status != tc.want {
			t.Fatalf("%s: value %v classified %s, want %s", tc.name, tc.value, got.Status, tc.want)
		}
	}
}

func TestNilValueIsNoData(t *testing.T) {
	b := DefaultBands()
	for _, classify := range []func(*float64, Bands) model.Classification{
		ClassifyTemperature, ClassifyPressure, ClassifyMethane,
	} {
		got := classify(nil, b)
		if got.Status != model.StatusNormal {
			t.Fatalf("nil value classified %s, want normal", got.Status)
		}
		if got.Message != "No data" {
			t.Fatalf("nil value message %q, want No data", got.Message)
		}
	}
}

func TestOverallRollup(t *testing.T) {
	b := DefaultBands()

	level, label, _ := Overall(nil, b)
	if level != model.StatusNormal || label != "Operational" {
		t.Fatalf("nil reading rollup: %s/%s", level, label)
	}

	r := &model.Reading{Temperature: model.Float(36), Pressure: model.Float(10), Methane: model.Float(1.0)}
	if level, _, _ = Overall(r, b); level != model.StatusNormal {
		t.Fatalf("in-band reading rollup: %s", level)
	}

	r.Temperature = model.Float(34)
	if level, label, _ = Overall(r, b); level != model.StatusWarning || label != "Warning" {
		t.Fatalf("temperature breach rollup: %s/%s", level, label)
	}

	// Methane dominates everything else.
	r.Methane = model.Float(3.0)
	level, label, message := Overall(r, b)
	if level != model.StatusCritical || label != "Critical" {
		t.Fatalf("methane breach rollup: %s/%s", level, label)
	}
	if message != "Critical methane levels detected!" {
		t.Fatalf("methane rollup message: %q", message)
	}
}
