package engine

import (
	"fmt"
	"time"

	"biogasd/internal/model"
)

// Activity builds the per-metric activity feed for the latest reading, in
// methane, pressure, temperature order. A nil reading yields "No data"
// entries for every metric.
func Activity(r *model.Reading, now time.Time, b Bands) []model.ActivityEvent {
	var ts time.Time
	ago := "Just now"
	if r != nil {
		ts = r.Timestamp
		ago = timeAgo(ts, now)
	}
	return []model.ActivityEvent{
		methaneEvent(r, ago, b),
		pressureEvent(r, ago, b),
		temperatureEvent(r, ago, b),
	}
}

func methaneEvent(r *model.Reading, ago string, b Bands) model.ActivityEvent {
	ev := model.ActivityEvent{ID: "methane", Title: "Methane", Message: "No data", Level: model.StatusNormal, TimeAgo: ago}
	if r == nil || r.Methane == nil {
		return ev
	}
	ev.Message = fmt.Sprintf("Methane level at %.1f ppm.", *r.Methane)
	if *r.Methane > b.MethaneMax {
		ev.Title = "High Methane Alert"
		ev.Level = model.StatusCritical
	}
	return ev
}

func pressureEvent(r *model.Reading, ago string, b Bands) model.ActivityEvent {
	ev := model.ActivityEvent{ID: "pressure", Title: "Pressure", Message: "No data", Level: model.StatusNormal, TimeAgo: ago}
	if r == nil || r.Pressure == nil {
		return ev
	}
	ev.Message = fmt.Sprintf("Pressure at %.1f kPa.", *r.Pressure)
	switch {
	case *r.Pressure < b.PressureMin:
		ev.Title = "Low Pressure Alert"
		ev.Level = model.StatusCritical
	case *r.Pressure > b.PressureMax:
		ev.Title = "High Pressure Alert"
		ev.Level = model.StatusCritical
	}
	return ev
}

func temperatureEvent(r *model.Reading, ago string, b Bands) model.ActivityEvent {
	ev := model.ActivityEvent{ID: "temperature", Title: "Temperature", Message: "No data", Level: model.StatusNormal, TimeAgo: ago}
	if r == nil || r.Temperature == nil {
		return ev
	}
	ev.Message = fmt.Sprintf("Digester temperature at %.1f°C.", *r.Temperature)
	switch {
	case *r.Temperature < b.TemperatureMin:
		ev.Title = "Low Temp Warning"
		ev.Level = model.StatusWarning
	case *r.Temperature > b.TemperatureMax:
		ev.Title = "High Temp Alert"
		ev.Level = model.StatusWarning
	}
	return ev
}

func timeAgo(from, now time.Time) string {
	minutes := int(now.Sub(from).Minutes())
	hours := minutes / 60
	switch {
	case minutes < 1:
		return "less than a minute ago"
	case minutes == 1:
		return "1 minute ago"
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	case hours == 1:
		return "1 hour ago"
	default:
		return fmt.Sprintf("%d hours ago", hours)
	}
}
