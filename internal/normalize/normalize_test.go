package normalize

import (
	"testing"
	"time"

	"biogasd/internal/model"
)

func TestReadingTotality(t *testing.T) {
	arrival := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cases := []model.RawReading{
		{},
		{TemperatureLevel: "garbage", PressureLevel: "NaN", MethaneLevel: "+Inf", GasConsumption: ""},
		{TemperatureLevel: "36.5", PressureLevel: "abc", CreatedAt: "not-a-timestamp"},
	}
	for i, raw := range cases {
		r := Reading(raw, arrival)
		check := func(name string, v *float64) {
			if v != nil && (*v != *v) {
				t.Fatalf("case %d: %s surfaced NaN", i, name)
			}
		}
		check("temperature", r.Temperature)
		check("pressure", r.Pressure)
		check("methane", r.Methane)
		check("gas", r.GasConsumption)
		if r.Timestamp.IsZero() {
			t.Fatalf("case %d: zero timestamp", i)
		}
	}

	r := Reading(cases[1], arrival)
	if r.Temperature != nil || r.Pressure != nil || r.Methane != nil || r.GasConsumption != nil {
		t.Fatalf("garbage fields should normalize to nil: %+v", r)
	}
	if !r.Timestamp.Equal(arrival) {
		t.Fatalf("missing created_at should use arrival time")
	}
}

func TestReadingParsesValidFields(t *testing.T) {
	arrival := time.Now().UTC()
	raw := model.RawReading{
		ReadingID:        12,
		DeviceID:         "digester-1",
		TemperatureLevel: "36.20",
		PressureLevel:    "10.00",
		MethaneLevel:     "1.50",
		CreatedAt:        "2026-09-01T08:30:00Z",
	}
	r := Reading(raw, arrival)
	if r.Temperature == nil || *r.Temperature != 36.2 {
		t.Fatalf("temperature %v", r.Temperature)
	}
	if r.Pressure == nil || *r.Pressure != 10 {
		t.Fatalf("pressure %v", r.Pressure)
	}
	if r.Methane == nil || *r.Methane != 1.5 {
		t.Fatalf("methane %v", r.Methane)
	}
	want := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Fatalf("timestamp %v, want %v", r.Timestamp, want)
	}
}

func TestFromPayloadNumbersAndStrings(t *testing.T) {
	arrival := time.Now().UTC()
	payload := []byte(`{"device_id":"digester-2","temperature_level":36.4,"pressure_level":"9.80","methane_level":null}`)
	r, err := FromPayload(payload, arrival)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DeviceID != "digester-2" {
		t.Fatalf("device %q", r.DeviceID)
	}
	if r.Temperature == nil || *r.Temperature != 36.4 {
		t.Fatalf("temperature %v", r.Temperature)
	}
	if r.Pressure == nil || *r.Pressure != 9.8 {
		t.Fatalf("pressure %v", r.Pressure)
	}
	if r.Methane != nil {
		t.Fatalf("null methane should normalize to nil")
	}
	if r.GasConsumption != nil {
		t.Fatalf("absent gas_consumption should normalize to nil")
	}
	if !r.Timestamp.Equal(arrival) {
		t.Fatalf("timestamp should default to arrival instant")
	}
	if r.ReadingID != arrival.UnixMilli() {
		t.Fatalf("reading id %d", r.ReadingID)
	}
}

func TestFromPayloadMissingDeviceID(t *testing.T) {
	r, err := FromPayload([]byte(`{"pressure_level":10}`), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DeviceID != "unknown" {
		t.Fatalf("device %q, want unknown", r.DeviceID)
	}
}

func TestFromPayloadRejectsNonJSON(t *testing.T) {
	if _, err := FromPayload([]byte("not json"), time.Now()); err == nil {
		t.Fatalf("expected error for non-JSON payload")
	}
}

func TestWireRoundTrip(t *testing.T) {
	ts := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	r := model.Reading{
		ReadingID:   5,
		DeviceID:    "digester-1",
		Temperature: model.Float(36.25),
		Timestamp:   ts,
	}
	raw := Wire(r)
	if raw.TemperatureLevel != "36.25" {
		t.Fatalf("temperature wire form %q", raw.TemperatureLevel)
	}
	if raw.PressureLevel != "" {
		t.Fatalf("absent pressure should stay absent, got %q", raw.PressureLevel)
	}
	if raw.CreatedAt != "2026-09-01T08:30:00Z" {
		t.Fatalf("created_at %q", raw.CreatedAt)
	}
	back := Reading(raw, time.Now())
	if back.Temperature == nil || *back.Temperature != 36.25 {
		t.Fatalf("round trip temperature %v", back.Temperature)
	}
	if back.Pressure != nil {
		t.Fatalf("round trip pressure should be nil")
	}
}
