package analysis

import (
	"time"

	"f1visualizer/pkg/model"
)

type LapStats struct {
	Driver    model.Driver  `json:"driver"`
	Laps      int           `json:"laps"`
	Completed int           `json:"completed"`
	Best      model.Lap     `json:"best"`
	HasBest   bool          `json:"hasBest"`
	Average   time.Duration `json:"average"`
}

// Stats summarises the laps of a driver. Average is taken over the laps with a time.
func Stats(session *model.Session, driverID string) (LapStats, bool) {
	d, ok := session.Driver(driverID)
	if !ok {
		return LapStats{}, false
	}
	s := LapStats{Driver: d}
	var total time.Duration
	for _, l := range session.DriverLaps(d.Code) {
		s.Laps++
		if !l.HasTime() {
			continue
		}
		s.Completed++
		total += l.Time
	}
	if s.Completed > 0 {
		s.Average = total / time.Duration(s.Completed)
	}
	s.Best, s.HasBest = FastestLap(session, d.Code)
	return s, true
}

// Completion returns the number of laps with a time and the number of laps in the session.
func Completion(session *model.Session) (completed, total int) {
	for _, l := range session.Laps {
		total++
		if l.HasTime() {
			completed++
		}
	}
	return completed, total
}

// SampleStats summarises a telemetry trace. BrakeUse and DRSUse are percentages of samples.
type SampleStats struct {
	MaxSpeed    float64 `json:"maxSpeed"`
	AvgSpeed    float64 `json:"avgSpeed"`
	AvgThrottle float64 `json:"avgThrottle"`
	BrakeUse    float64 `json:"brakeUse"`
	DRSUse      float64 `json:"drsUse"`
	MaxRPM      float64 `json:"maxRPM"`
	TopGear     int     `json:"topGear"`
	Distance    float64 `json:"distance"`
}

func TelemetryStats(samples []model.Sample) SampleStats {
	var s SampleStats
	if len(samples) == 0 {
		return s
	}
	var speed, throttle float64
	var braking, drs int
	for _, x := range samples {
		speed += x.Speed
		throttle += x.Throttle
		if x.Speed > s.MaxSpeed {
			s.MaxSpeed = x.Speed
		}
		if x.RPM > s.MaxRPM {
			s.MaxRPM = x.RPM
		}
		if x.Gear > s.TopGear {
			s.TopGear = x.Gear
		}
		if x.Brake {
			braking++
		}
		if x.DRS {
			drs++
		}
		if x.Distance > s.Distance {
			s.Distance = x.Distance
		}
	}
	n := float64(len(samples))
	s.AvgSpeed = speed / n
	s.AvgThrottle = throttle / n
	s.BrakeUse = float64(braking) / n * 100
	s.DRSUse = float64(drs) / n * 100
	return s
}
