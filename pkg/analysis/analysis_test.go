package analysis

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"f1visualizer/pkg/model"
	"f1visualizer/pkg/provider"
	"f1visualizer/pkg/sessions"

	"github.com/pkg/errors"
)

func loadSample(t *testing.T, mem *provider.Memory, st model.SessionType) *model.Session {
	t.Helper()
	ctx := context.Background()
	events, err := mem.EventSchedule(ctx, provider.SampleSeason)
	if err != nil {
		t.Fatalf("EventSchedule: %v", err)
	}
	monaco := events[1]
	info, ok := monaco.SessionInfo(st)
	if !ok {
		t.Fatalf("no %s session", st)
	}
	s, err := mem.Session(ctx, monaco, info)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	return s
}

func lapNumbers(points []model.LapPoint) []int {
	out := []int{}
	for _, p := range points {
		out = append(out, p.Number)
	}
	return out
}

func TestCompareLapsMonacoRace(t *testing.T) {
	s := loadSample(t, provider.NewSampleData(), model.Race)

	table := CompareLaps(s, []string{"VER", "HAM"})
	if len(table) != 2 {
		t.Fatalf("expected two drivers, got %d", len(table))
	}
	if table[0].Driver.Code != "VER" || table[1].Driver.Code != "HAM" {
		t.Errorf("drivers not in request order: %s, %s", table[0].Driver.Code, table[1].Driver.Code)
	}
	if got := lapNumbers(table[0].Laps); !reflect.DeepEqual(got, []int{1, 2, 3, 4, 5, 6}) {
		t.Errorf("VER laps = %v", got)
	}
	// lap 3 has no time and lap 4 was deleted
	if got := lapNumbers(table[1].Laps); !reflect.DeepEqual(got, []int{1, 2, 5, 6}) {
		t.Errorf("HAM laps = %v", got)
	}
	if table[0].Laps[2].Time != 77900*time.Millisecond {
		t.Errorf("VER lap 3 = %v", table[0].Laps[2].Time)
	}
}

func TestCompareLapsOrdersLaps(t *testing.T) {
	s := loadSample(t, provider.NewSampleData(), model.Race)

	table := CompareLaps(s, []string{"alo"})
	if len(table) != 1 || !reflect.DeepEqual(lapNumbers(table[0].Laps), []int{1, 2}) {
		t.Fatalf("ALO table = %+v", table)
	}
}

func TestCompareLapsOmission(t *testing.T) {
	s := loadSample(t, provider.NewSampleData(), model.Race)

	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{"unknown driver", []string{"ZZZ"}, []string{}},
		{"no time at all", []string{"LEC"}, []string{}},
		{"mixed", []string{"ZZZ", "HAM", "LEC", "VER"}, []string{"HAM", "VER"}},
		{"car number and duplicates", []string{"44", "ham", "HAM"}, []string{"HAM"}},
		{"nothing requested", nil, []string{}},
	}
	for _, tt := range tests {
		table := CompareLaps(s, tt.ids)
		got := []string{}
		for _, series := range table {
			got = append(got, series.Driver.Code)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCompareLapsProperties(t *testing.T) {
	mem := provider.NewSampleData()
	pool := []string{"VER", "HAM", "ALO", "LEC", "ZZZ", "1", "xyz"}

	for _, st := range []model.SessionType{model.Race, model.Qualifying, model.Practice1} {
		s := loadSample(t, mem, st)
		// every subset of the pool
		for mask := 0; mask < 1<<len(pool); mask++ {
			ids := []string{}
			for i, id := range pool {
				if mask&(1<<i) != 0 {
					ids = append(ids, id)
				}
			}
			for _, series := range CompareLaps(s, ids) {
				if _, ok := s.Driver(series.Driver.Code); !ok {
					t.Fatalf("%s: %s not in roster", st, series.Driver.Code)
				}
				requested := false
				for _, id := range ids {
					if d, ok := s.Driver(id); ok && d.Code == series.Driver.Code {
						requested = true
					}
				}
				if !requested {
					t.Fatalf("%s: %s was not requested by %v", st, series.Driver.Code, ids)
				}
				for i := 1; i < len(series.Laps); i++ {
					if series.Laps[i].Number <= series.Laps[i-1].Number {
						t.Fatalf("%s: laps of %s not strictly increasing", st, series.Driver.Code)
					}
				}
				for _, p := range series.Laps {
					if p.Time <= 0 {
						t.Fatalf("%s: untimed lap %d of %s kept", st, p.Number, series.Driver.Code)
					}
				}
			}
		}
	}
}

func TestFastestLap(t *testing.T) {
	s := loadSample(t, provider.NewSampleData(), model.Race)

	tests := []struct {
		driver string
		lap    int
		ok     bool
	}{
		{"VER", 3, true}, // lap 6 has the same time
		{"HAM", 5, true}, // the quicker lap 4 was deleted
		{"ALO", 1, true}, // lap 2 ended in the pits
		{"LEC", 0, false},
		{"ZZZ", 0, false},
	}
	for _, tt := range tests {
		l, ok := FastestLap(s, tt.driver)
		if ok != tt.ok || l.Number != tt.lap {
			t.Errorf("FastestLap(%s) = lap %d, %v; want lap %d, %v", tt.driver, l.Number, ok, tt.lap, tt.ok)
		}
	}
}

func TestFastestLapIsMinimumOfValidLaps(t *testing.T) {
	mem := provider.NewSampleData()
	for _, st := range []model.SessionType{model.Race, model.Qualifying, model.Practice1} {
		s := loadSample(t, mem, st)
		for _, d := range s.Drivers {
			var min time.Duration
			for _, l := range s.DriverLaps(d.Code) {
				if l.IsValid() && (min == 0 || l.Time < min) {
					min = l.Time
				}
			}
			l, ok := FastestLap(s, d.Code)
			if ok != (min > 0) {
				t.Fatalf("%s %s: found = %v, min = %v", st, d.Code, ok, min)
			}
			if ok && l.Time != min {
				t.Errorf("%s %s: fastest %v, min %v", st, d.Code, l.Time, min)
			}
		}
	}
}

func TestExtractFastestLapTelemetry(t *testing.T) {
	mem := provider.NewSampleData()
	s := loadSample(t, mem, model.Race)
	e := NewExtractor(mem)

	trace, err := e.ExtractFastestLapTelemetry(context.Background(), s, []string{"HAM", "ZZZ", "LEC", "VER"})
	if err != nil {
		t.Fatalf("ExtractFastestLapTelemetry: %v", err)
	}
	if len(trace) != 2 {
		t.Fatalf("expected HAM and VER, got %d traces", len(trace))
	}
	if trace[0].Driver.Code != "HAM" || trace[0].Lap.Number != 5 {
		t.Errorf("first trace = %s lap %d", trace[0].Driver.Code, trace[0].Lap.Number)
	}
	if trace[1].Driver.Code != "VER" || trace[1].Lap.Number != 3 {
		t.Errorf("second trace = %s lap %d", trace[1].Driver.Code, trace[1].Lap.Number)
	}

	// samples are passed through untouched
	want, _ := mem.LapTelemetry(context.Background(), s, trace[1].Lap)
	if !reflect.DeepEqual(trace[1].Samples, want) {
		t.Errorf("samples were modified")
	}
}

func TestExtractFastestLapTelemetryUnknownDriver(t *testing.T) {
	mem := provider.NewSampleData()
	s := loadSample(t, mem, model.Race)

	trace, err := NewExtractor(mem).ExtractFastestLapTelemetry(context.Background(), s, []string{"ZZZ"})
	if err != nil {
		t.Fatalf("unknown driver should not fail: %v", err)
	}
	if trace == nil || len(trace) != 0 {
		t.Errorf("expected an empty trace, got %v", trace)
	}
	if mem.Calls("LapTelemetry") != 0 {
		t.Errorf("telemetry fetched for an unknown driver")
	}
}

func TestExtractFastestLapTelemetryMissingSamples(t *testing.T) {
	mem := provider.NewSampleData()
	s := loadSample(t, mem, model.Race)
	// no telemetry recorded for this session key
	s.Info.Key = 1

	trace, err := NewExtractor(mem).ExtractFastestLapTelemetry(context.Background(), s, []string{"VER", "HAM"})
	if err != nil {
		t.Fatalf("missing telemetry should not fail: %v", err)
	}
	if len(trace) != 0 {
		t.Errorf("expected drivers without telemetry to be left out, got %d", len(trace))
	}
}

func TestExtractFastestLapTelemetryProviderFailure(t *testing.T) {
	mem := provider.NewSampleData()
	s := loadSample(t, mem, model.Race)
	mem.FailWith(errors.New("connection reset"))

	_, err := NewExtractor(mem).ExtractFastestLapTelemetry(context.Background(), s, []string{"VER"})
	if sessions.Kind(err) != sessions.KindProviderIO {
		t.Fatalf("expected a provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("error lost its detail: %v", err)
	}
}

func TestPositionsRace(t *testing.T) {
	s := loadSample(t, provider.NewSampleData(), model.Race)

	all := Positions(s, nil)
	want := []string{"VER", "ALO", "HAM", "LEC"}
	if len(all) != len(want) {
		t.Fatalf("got %d positions", len(all))
	}
	for i, code := range want {
		if all[i].Driver.Code != code || all[i].Position != i+1 {
			t.Errorf("P%d = %s (%d)", i+1, all[i].Driver.Code, all[i].Position)
		}
	}
	if all[3].Status != "DNF" || all[3].BestLap != 0 {
		t.Errorf("LEC = %+v", all[3])
	}

	selected := Positions(s, []string{"HAM", "ZZZ", "VER"})
	if len(selected) != 2 || selected[0].Driver.Code != "HAM" || selected[0].Position != 3 || selected[1].BestLapNumber != 3 {
		t.Errorf("selected = %+v", selected)
	}
}

func TestPositionsPractice(t *testing.T) {
	s := loadSample(t, provider.NewSampleData(), model.Practice1)

	all := Positions(s, nil)
	want := []struct {
		code string
		pos  int
		best time.Duration
	}{
		{"HAM", 1, 74800 * time.Millisecond},
		{"VER", 2, 75000 * time.Millisecond},
		{"ALO", 3, 75500 * time.Millisecond},
		{"LEC", 0, 0},
	}
	if len(all) != len(want) {
		t.Fatalf("got %d positions", len(all))
	}
	for i, w := range want {
		if all[i].Driver.Code != w.code || all[i].Position != w.pos || all[i].BestLap != w.best {
			t.Errorf("row %d = %+v, want %+v", i, all[i], w)
		}
	}
}

func TestStats(t *testing.T) {
	s := loadSample(t, provider.NewSampleData(), model.Race)

	ver, ok := Stats(s, "VER")
	if !ok {
		t.Fatal("VER not found")
	}
	if ver.Laps != 6 || ver.Completed != 6 || ver.Average != 83050*time.Millisecond || ver.Best.Number != 3 {
		t.Errorf("VER stats = %+v", ver)
	}
	ham, _ := Stats(s, "HAM")
	if ham.Laps != 6 || ham.Completed != 4 || ham.Average != 81650*time.Millisecond {
		t.Errorf("HAM stats = %+v", ham)
	}
	lec, _ := Stats(s, "LEC")
	if lec.HasBest || lec.Average != 0 {
		t.Errorf("LEC stats = %+v", lec)
	}
	if _, ok := Stats(s, "ZZZ"); ok {
		t.Errorf("unknown driver has stats")
	}

	completed, total := Completion(s)
	if completed != 12 || total != 15 {
		t.Errorf("completion = %d/%d", completed, total)
	}
}

func TestTelemetryStats(t *testing.T) {
	samples := []model.Sample{
		{Distance: 0, Speed: 100, Throttle: 50, Gear: 4, RPM: 10000},
		{Distance: 50, Speed: 300, Throttle: 100, Gear: 8, RPM: 12000, DRS: true},
		{Distance: 100, Speed: 200, Throttle: 0, Gear: 6, RPM: 11000, Brake: true},
		{Distance: 150, Speed: 200, Throttle: 50, Gear: 6, RPM: 11000, Brake: true},
	}
	got := TelemetryStats(samples)
	want := SampleStats{
		MaxSpeed:    300,
		AvgSpeed:    200,
		AvgThrottle: 50,
		BrakeUse:    50,
		DRSUse:      25,
		MaxRPM:      12000,
		TopGear:     8,
		Distance:    150,
	}
	if got != want {
		t.Errorf("TelemetryStats = %+v, want %+v", got, want)
	}
	if (TelemetryStats(nil) != SampleStats{}) {
		t.Errorf("empty samples should give zero stats")
	}
}
