package engine

import (
	"reflect"
	"testing"
	"time"

	"biogasd/internal/model"
)

func reading(id int64, temp, pressure, methane *float64, ts time.Time) model.Reading {
	return model.Reading{
		ReadingID:   id,
		DeviceID:    "digester-1",
		Temperature: temp,
		Pressure:    pressure,
		Methane:     methane,
		Timestamp:   ts,
	}
}

func TestSingleBreach(t *testing.T) {
	now := time.Now().UTC()
	r := reading(42, model.Float(34.5), model.Float(10), model.Float(1.0), now)
	got := DeriveAlerts(r, DefaultBands())
	if len(got) != 1 {
		t.Fatalf("expected one alert, got %d", len(got))
	}
	a := got[0]
	if a.Severity != model.SeverityWarning {
		t.Fatalf("severity %s, want warning", a.Severity)
	}
	if a.Message != "Temperature too low" {
		t.Fatalf("message %q", a.Message)
	}
	if a.ID != "temp-low-42" {
		t.Fatalf("id %q", a.ID)
	}
	if !a.Timestamp.Equal(now) {
		t.Fatalf("timestamp %v, want %v", a.Timestamp, now)
	}
}

func TestMultiBreach(t *testing.T) {
	r := reading(7, model.Float(38), model.Float(16), model.Float(2.5), time.Now())
	got := DeriveAlerts(r, DefaultBands())
	if len(got) != 3 {
		t.Fatalf("expected three alerts, got %d", len(got))
	}
	wantIDs := []string{"temp-high-7", "pressure-high-7", "methane-high-7"}
	wantSev := []model.Severity{model.SeverityWarning, model.SeverityCritical, model.SeverityCritical}
	for i, a := range got {
		if a.ID != wantIDs[i] {
			t.Fatalf("alert %d id %q, want %q", i, a.ID, wantIDs[i])
		}
		if a.Severity != wantSev[i] {
			t.Fatalf("alert %d severity %s, want %s", i, a.Severity, wantSev[i])
		}
	}
}

func TestDerivationIdempotent(t *testing.T) {
	r := reading(9, model.Float(34), model.Float(7), model.Float(3), time.Now())
	first := DeriveAlerts(r, DefaultBands())
	second := DeriveAlerts(r, DefaultBands())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("derivation not idempotent:\n%v\n%v", first, second)
	}
}

func TestNoDataYieldsNoAlerts(t *testing.T) {
	r := reading(1, nil, nil, nil, time.Now())
	if got := DeriveAlerts(r, DefaultBands()); len(got) != 0 {
		t.Fatalf("expected zero alerts, got %d", len(got))
	}
}

func TestFeedOrderedAndNotDeduplicated(t *testing.T) {
	base := time.Now().UTC()
	// Same breach on consecutive readings, buffered newest-first.
	readings := []model.Reading{
		reading(3, model.Float(34), nil, nil, base.Add(2*time.Second)),
		reading(2, model.Float(34), nil, nil, base.Add(1*time.Second)),
		reading(1, model.Float(34), nil, nil, base),
	}
	feed := BuildFeed(readings, DefaultBands())
	if len(feed) != 3 {
		t.Fatalf("expected three feed entries, got %d", len(feed))
	}
	for i := 1; i < len(feed); i++ {
		if feed[i].Timestamp.After(feed[i-1].Timestamp) {
			t.Fatalf("feed not timestamp-descending at %d", i)
		}
	}
	if feed[0].ID == feed[1].ID {
		t.Fatalf("feed entries share id %q across readings", feed[0].ID)
	}
}
