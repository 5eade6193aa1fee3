// Package charts turns comparison tables into chart specifications and draws
// them with go-chart.
package charts

import (
	"fmt"

	"f1visualizer/pkg/helper"
	"f1visualizer/pkg/model"
)

const (
	LapChartTitle       = "Lap Times Comparison"
	TelemetryChartTitle = "Speed Telemetry - Fastest Laps Comparison"

	lapAxisTitle      = "Lap Number"
	lapTimeAxisTitle  = "Lap Time (seconds)"
	distanceAxisTitle = "Distance (m)"
	speedAxisTitle    = "Speed (km/h)"
)

// RenderLapChart builds one series per driver, lap number against lap time in
// seconds. Labels carry the m:ss.mmm time of each point.
func RenderLapChart(table model.ComparisonTable) model.ChartSpec {
	spec := model.ChartSpec{
		Title:  LapChartTitle,
		XTitle: lapAxisTitle,
		YTitle: lapTimeAxisTitle,
		Series: []model.Series{},
	}
	for _, ls := range table {
		s := model.Series{
			Name:   ls.Driver.Code,
			Color:  ls.Driver.TeamColor,
			X:      make([]float64, 0, len(ls.Laps)),
			Y:      make([]float64, 0, len(ls.Laps)),
			Labels: make([]string, 0, len(ls.Laps)),
		}
		for _, p := range ls.Laps {
			s.X = append(s.X, float64(p.Number))
			s.Y = append(s.Y, helper.Seconds(p.Time))
			s.Labels = append(s.Labels, helper.FormatLapTime(p.Time))
		}
		spec.Series = append(spec.Series, s)
	}
	return spec
}

// RenderTelemetryChart builds one series per driver, distance against speed, as
// recorded. The series name carries the lap number and time.
func RenderTelemetryChart(trace model.TelemetryTrace) model.ChartSpec {
	spec := model.ChartSpec{
		Title:  TelemetryChartTitle,
		XTitle: distanceAxisTitle,
		YTitle: speedAxisTitle,
		Series: []model.Series{},
	}
	for _, ft := range trace {
		s := model.Series{
			Name:  fmt.Sprintf("%s (Lap: %d Time: %s)", ft.Driver.Code, ft.Lap.Number, helper.FormatLapTime(ft.Lap.Time)),
			Color: ft.Driver.TeamColor,
			X:     make([]float64, 0, len(ft.Samples)),
			Y:     make([]float64, 0, len(ft.Samples)),
		}
		for _, smp := range ft.Samples {
			s.X = append(s.X, smp.Distance)
			s.Y = append(s.Y, smp.Speed)
		}
		spec.Series = append(spec.Series, s)
	}
	return spec
}
