package provider

import (
	"math"
	"time"

	"f1visualizer/pkg/model"
)

const (
	SampleSeason = 2023

	SampleMonacoFP1  = 9100
	SampleMonacoFP2  = 9101
	SampleMonacoFP3  = 9102
	SampleMonacoQ    = 9103
	SampleMonacoRace = 9104
	SampleBahrainR   = 7953

	monacoLength = 3337.0
)

var sampleDrivers = []model.Driver{
	{Number: 1, Code: "VER", FullName: "Max Verstappen", TeamName: "Red Bull Racing", TeamColor: "3671C6"},
	{Number: 44, Code: "HAM", FullName: "Lewis Hamilton", TeamName: "Mercedes", TeamColor: "27F4D2"},
	{Number: 14, Code: "ALO", FullName: "Fernando Alonso", TeamName: "Aston Martin", TeamColor: "358C75"},
	{Number: 16, Code: "LEC", FullName: "Charles Leclerc", TeamName: "Ferrari", TeamColor: "E8002D"},
}

// NewSampleData returns a Memory provider loaded with a small, made up 2023 season
// (Bahrain and Monaco). It backs offline mode and the package tests.
func NewSampleData() *Memory {
	m := NewMemory()

	bahrain := model.Event{
		Key: 1141, Season: SampleSeason, Round: 1,
		Name: "Bahrain Grand Prix", OfficialName: "FORMULA 1 GULF AIR BAHRAIN GRAND PRIX 2023",
		Location: "Sakhir", Country: "Bahrain", Circuit: "Sakhir",
		Date: date(2023, 3, 5, 15),
		Sessions: []model.SessionInfo{
			{Key: 7760, Type: model.Practice1, Name: "Practice 1", Start: date(2023, 3, 3, 11), End: date(2023, 3, 3, 12)},
			{Key: 7761, Type: model.Practice2, Name: "Practice 2", Start: date(2023, 3, 3, 15), End: date(2023, 3, 3, 16)},
			{Key: 7762, Type: model.Practice3, Name: "Practice 3", Start: date(2023, 3, 4, 11), End: date(2023, 3, 4, 12)},
			{Key: 7763, Type: model.Qualifying, Name: "Qualifying", Start: date(2023, 3, 4, 15), End: date(2023, 3, 4, 16)},
			{Key: SampleBahrainR, Type: model.Race, Name: "Race", Start: date(2023, 3, 5, 15), End: date(2023, 3, 5, 17)},
		},
	}
	monaco := model.Event{
		Key: 1210, Season: SampleSeason, Round: 2,
		Name: "Monaco Grand Prix", OfficialName: "FORMULA 1 GRAND PRIX DE MONACO 2023",
		Location: "Monaco", Country: "Monaco", Circuit: "Monte Carlo",
		Date: date(2023, 5, 28, 13),
		Sessions: []model.SessionInfo{
			{Key: SampleMonacoFP1, Type: model.Practice1, Name: "Practice 1", Start: date(2023, 5, 26, 11), End: date(2023, 5, 26, 12)},
			{Key: SampleMonacoFP2, Type: model.Practice2, Name: "Practice 2", Start: date(2023, 5, 26, 15), End: date(2023, 5, 26, 16)},
			{Key: SampleMonacoFP3, Type: model.Practice3, Name: "Practice 3", Start: date(2023, 5, 27, 10), End: date(2023, 5, 27, 11)},
			{Key: SampleMonacoQ, Type: model.Qualifying, Name: "Qualifying", Start: date(2023, 5, 27, 14), End: date(2023, 5, 27, 15)},
			{Key: SampleMonacoRace, Type: model.Race, Name: "Race", Start: date(2023, 5, 28, 13), End: date(2023, 5, 28, 15)},
		},
	}
	m.AddEvent(bahrain)
	m.AddEvent(monaco)

	race := &model.Session{
		Season: SampleSeason, Event: monaco, Info: monaco.Sessions[4],
		Drivers: sampleDrivers,
		Laps: []model.Lap{
			lap("VER", 1, 90000, false, false, false),
			lap("VER", 2, 78500, false, false, false),
			lap("VER", 3, 77900, false, false, false),
			lap("VER", 4, 79000, false, true, false),
			lap("VER", 5, 95000, true, false, false),
			lap("VER", 6, 77900, false, false, false),
			lap("HAM", 1, 91000, false, false, false),
			lap("HAM", 2, 78800, false, false, false),
			lap("HAM", 3, 0, false, false, false),
			lap("HAM", 4, 76000, false, false, true),
			lap("HAM", 5, 78200, false, false, false),
			lap("HAM", 6, 78600, false, false, false),
			lap("ALO", 2, 79400, false, true, false),
			lap("ALO", 1, 92000, false, false, false),
			lap("LEC", 1, 0, false, false, false),
		},
		Results: []model.Result{
			{Driver: "VER", Position: 1, Status: "Finished"},
			{Driver: "ALO", Position: 2, Status: "Finished"},
			{Driver: "HAM", Position: 3, Status: "Finished"},
			{Driver: "LEC", Position: 4, Status: "DNF"},
		},
	}
	quali := &model.Session{
		Season: SampleSeason, Event: monaco, Info: monaco.Sessions[3],
		Drivers: sampleDrivers,
		Laps: []model.Lap{
			lap("VER", 1, 0, true, false, false),
			lap("VER", 2, 71365, false, false, false),
			lap("HAM", 1, 0, true, false, false),
			lap("HAM", 2, 71922, false, false, false),
			lap("ALO", 1, 71449, false, false, false),
			lap("LEC", 1, 71471, false, false, false),
		},
		Results: []model.Result{
			{Driver: "VER", Position: 1, Status: "Finished"},
			{Driver: "ALO", Position: 2, Status: "Finished"},
			{Driver: "LEC", Position: 3, Status: "Finished"},
			{Driver: "HAM", Position: 4, Status: "Finished"},
		},
	}
	fp1 := &model.Session{
		Season: SampleSeason, Event: monaco, Info: monaco.Sessions[0],
		Drivers: sampleDrivers,
		Laps: []model.Lap{
			lap("VER", 1, 75000, false, false, false),
			lap("HAM", 1, 74800, false, false, false),
			lap("HAM", 2, 74500, false, false, true),
			lap("ALO", 1, 75500, false, false, false),
		},
	}
	// recorded in the schedule but no running took place
	fp3 := &model.Session{
		Season: SampleSeason, Event: monaco, Info: monaco.Sessions[2],
		Drivers: sampleDrivers,
	}
	m.AddSession(race)
	m.AddSession(quali)
	m.AddSession(fp1)
	m.AddSession(fp3)

	m.AddTelemetry(SampleMonacoRace, "VER", 3, syntheticLap(77900*time.Millisecond, 290))
	m.AddTelemetry(SampleMonacoRace, "VER", 6, syntheticLap(77900*time.Millisecond, 288))
	m.AddTelemetry(SampleMonacoRace, "HAM", 5, syntheticLap(78200*time.Millisecond, 286))
	m.AddTelemetry(SampleMonacoRace, "ALO", 1, syntheticLap(92000*time.Millisecond, 270))
	m.AddTelemetry(SampleMonacoQ, "VER", 2, syntheticLap(71365*time.Millisecond, 295))
	m.AddTelemetry(SampleMonacoQ, "HAM", 2, syntheticLap(71922*time.Millisecond, 292))
	m.AddTelemetry(SampleMonacoQ, "ALO", 1, syntheticLap(71449*time.Millisecond, 293))
	m.AddTelemetry(SampleMonacoQ, "LEC", 1, syntheticLap(71471*time.Millisecond, 294))
	m.AddTelemetry(SampleMonacoFP1, "VER", 1, syntheticLap(75000*time.Millisecond, 284))
	m.AddTelemetry(SampleMonacoFP1, "HAM", 1, syntheticLap(74800*time.Millisecond, 285))
	m.AddTelemetry(SampleMonacoFP1, "ALO", 1, syntheticLap(75500*time.Millisecond, 283))

	return m
}

func date(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func lap(driver string, number int, ms int, pitOut, pitIn, deleted bool) model.Lap {
	t := time.Duration(ms) * time.Millisecond
	l := model.Lap{
		Driver:  driver,
		Number:  number,
		Time:    t,
		PitOut:  pitOut,
		PitIn:   pitIn,
		Deleted: deleted,
	}
	if t > 0 {
		l.Sector1 = t * 26 / 100
		l.Sector2 = t * 43 / 100
		l.Sector3 = t - l.Sector1 - l.Sector2
	}
	return l
}

// syntheticLap builds an oval shaped lap with speed dips for the corners.
func syntheticLap(lapTime time.Duration, topSpeed float64) []model.Sample {
	const n = 60
	samples := make([]model.Sample, 0, n)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		angle := 2 * math.Pi * f
		speed := topSpeed - 110*math.Pow(math.Sin(3*angle), 2)
		samples = append(samples, model.Sample{
			Time:     time.Duration(float64(lapTime) * f),
			Distance: monacoLength * f,
			Speed:    math.Round(speed),
			Throttle: math.Round(100 * speed / topSpeed),
			Brake:    speed < topSpeed-80,
			Gear:     int(math.Max(2, math.Round(8*speed/topSpeed))),
			RPM:      math.Round(7000 + 5000*speed/topSpeed),
			DRS:      speed > topSpeed-5,
			X:        math.Round(1200 * math.Cos(angle)),
			Y:        math.Round(600 * math.Sin(angle)),
		})
	}
	return samples
}
