package dashboard

import (
	"context"
	"strings"
	"testing"

	"f1visualizer/pkg/provider"
	"f1visualizer/pkg/sessions"

	"github.com/pkg/errors"
)

func newDashboard() (*Dashboard, *provider.Memory) {
	mem := provider.NewSampleData()
	return New(mem, provider.SampleSeason), mem
}

func TestHandleSelectionChangeMonacoRace(t *testing.T) {
	d, _ := newDashboard()
	view := d.HandleSelectionChange(context.Background(), Selection{
		Season:      2023,
		Event:       "Monaco Grand Prix",
		SessionType: "R",
		Drivers:     []string{"VER", "HAM"},
	})

	if view.Kind != sessions.KindNone || view.Message != "" {
		t.Fatalf("unexpected failure: %s %q", view.Kind, view.Message)
	}
	if view.Event == nil || view.Event.Name != "Monaco Grand Prix" {
		t.Fatalf("event = %v", view.Event)
	}
	if view.Session == nil || view.Session.Key != provider.SampleMonacoRace {
		t.Errorf("session = %v", view.Session)
	}
	if len(view.Drivers) != 4 || len(view.Positions) != 4 {
		t.Errorf("roster = %d drivers, %d positions", len(view.Drivers), len(view.Positions))
	}
	if view.LapChart == nil || len(view.LapChart.Series) != 2 {
		t.Fatalf("lap chart = %+v", view.LapChart)
	}
	if view.LapChart.Series[0].Name != "VER" || view.LapChart.Series[1].Name != "HAM" {
		t.Errorf("series order = %s, %s", view.LapChart.Series[0].Name, view.LapChart.Series[1].Name)
	}
	for _, s := range view.LapChart.Series {
		for i := 1; i < len(s.X); i++ {
			if s.X[i] <= s.X[i-1] {
				t.Errorf("%s laps not ascending: %v", s.Name, s.X)
			}
		}
	}
	if view.TelemetryChart == nil || len(view.TelemetryChart.Series) != 2 {
		t.Fatalf("telemetry chart = %+v", view.TelemetryChart)
	}
	if !strings.HasPrefix(view.TelemetryChart.Series[0].Name, "VER (Lap: 3") {
		t.Errorf("telemetry series = %q", view.TelemetryChart.Series[0].Name)
	}
	if len(view.Events) != 2 || len(view.SessionTypes) != 5 {
		t.Errorf("options = %d events, %d session types", len(view.Events), len(view.SessionTypes))
	}
}

func TestHandleSelectionChangeCancelledSession(t *testing.T) {
	d, mem := newDashboard()
	view := d.HandleSelectionChange(context.Background(), Selection{
		Season:      2023,
		Event:       "Monaco Grand Prix",
		SessionType: "FP3",
		Drivers:     []string{"VER"},
	})
	if view.Kind != sessions.KindDataUnavailable {
		t.Fatalf("kind = %q", view.Kind)
	}
	if !strings.Contains(view.Message, "Practice 3") {
		t.Errorf("message = %q", view.Message)
	}
	if view.LapChart != nil || view.TelemetryChart != nil {
		t.Errorf("charts rendered for a failed load")
	}
	if mem.Calls("LapTelemetry") != 0 {
		t.Errorf("telemetry requested for a failed load")
	}
}

func TestHandleSelectionChangeUnknownDriver(t *testing.T) {
	d, _ := newDashboard()
	view := d.HandleSelectionChange(context.Background(), Selection{
		Season:      2023,
		Event:       "Monaco Grand Prix",
		SessionType: "Race",
		Drivers:     []string{"ZZZ"},
	})
	if view.Kind != sessions.KindNone {
		t.Fatalf("kind = %q (%s)", view.Kind, view.Message)
	}
	if view.LapChart == nil || len(view.LapChart.Series) != 0 {
		t.Errorf("lap chart = %+v", view.LapChart)
	}
	if view.TelemetryChart == nil || len(view.TelemetryChart.Series) != 0 {
		t.Errorf("telemetry chart = %+v", view.TelemetryChart)
	}
}

func TestHandleSelectionChangeNoDrivers(t *testing.T) {
	d, mem := newDashboard()
	view := d.HandleSelectionChange(context.Background(), Selection{
		Season:      2023,
		Event:       "monaco",
		SessionType: "Q",
	})
	if view.Message != MessagePickDriver || view.Kind != sessions.KindNone {
		t.Errorf("message = %q, kind = %q", view.Message, view.Kind)
	}
	if len(view.Drivers) != 4 {
		t.Errorf("roster = %d", len(view.Drivers))
	}
	if view.LapChart != nil || view.TelemetryChart != nil {
		t.Errorf("charts without drivers")
	}
	if mem.Calls("LapTelemetry") != 0 {
		t.Errorf("telemetry requested without drivers")
	}
}

func TestHandleSelectionChangeDefaults(t *testing.T) {
	d, _ := newDashboard()
	view := d.HandleSelectionChange(context.Background(), Selection{Season: 2023, Drivers: []string{"VER, HAM"}})
	if view.Selection.Event != "Monaco Grand Prix" {
		t.Errorf("event = %q", view.Selection.Event)
	}
	if view.Selection.SessionType != "R" {
		t.Errorf("session = %q", view.Selection.SessionType)
	}
	if len(view.Selection.Drivers) != 2 {
		t.Errorf("drivers = %v", view.Selection.Drivers)
	}
}

func TestHandleSelectionChangeFailures(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		fail error
		kind sessions.ErrorKind
	}{
		{"unknown season", Selection{Season: 2024, Event: "Monaco", SessionType: "R"}, nil, sessions.KindDataUnavailable},
		{"unknown event", Selection{Season: 2023, Event: "Atlantis", SessionType: "R"}, nil, sessions.KindDataUnavailable},
		{"bad session type", Selection{Season: 2023, Event: "Monaco", SessionType: "warmup"}, nil, sessions.KindDataUnavailable},
		{"session without data", Selection{Season: 2023, Event: "Bahrain", SessionType: "R"}, nil, sessions.KindDataUnavailable},
		{"provider down", Selection{Season: 2023, Event: "Monaco", SessionType: "R"}, errors.New("connection refused"), sessions.KindProviderIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mem := newDashboard()
			mem.FailWith(tt.fail)
			view := d.HandleSelectionChange(context.Background(), tt.sel)
			if view.Kind != tt.kind {
				t.Fatalf("kind = %q, want %q (%s)", view.Kind, tt.kind, view.Message)
			}
			if view.Message == "" {
				t.Errorf("no message")
			}
			if view.LapChart != nil || view.TelemetryChart != nil {
				t.Errorf("charts rendered on failure")
			}
		})
	}
}

func TestHandleSelectionChangeRetryMessage(t *testing.T) {
	d, mem := newDashboard()
	mem.FailWith(errors.New("timeout"))
	view := d.HandleSelectionChange(context.Background(), Selection{Season: 2023, Event: "Monaco", SessionType: "R"})
	if view.Message != MessageRetry {
		t.Errorf("message = %q", view.Message)
	}
}

func TestHandleSelectionChangeEmptySelection(t *testing.T) {
	d, _ := newDashboard()
	view := d.HandleSelectionChange(context.Background(), Selection{})
	if view.Kind != sessions.KindNone {
		t.Fatalf("kind = %q (%s)", view.Kind, view.Message)
	}
	if view.Selection.Season != provider.SampleSeason {
		t.Errorf("season = %d, want %d", view.Selection.Season, provider.SampleSeason)
	}
	if len(view.Events) == 0 || view.Event == nil || view.Event.Name != "Monaco Grand Prix" {
		t.Errorf("first view has no event: %d events, %v", len(view.Events), view.Event)
	}
	if view.Message != MessagePickDriver || len(view.Drivers) != 4 {
		t.Errorf("message = %q, roster = %d", view.Message, len(view.Drivers))
	}
}

func TestFailureMessages(t *testing.T) {
	tests := []struct {
		sel  Selection
		want string
	}{
		{Selection{Season: 2025}, "No data available for 2025. Pick another event or session."},
		{Selection{Season: 2023, Event: "Atlantis", SessionType: "R"}, "No data available for 2023 Atlantis Race. Pick another event or session."},
		{Selection{Season: 2023, Event: "Monaco", SessionType: "warmup"}, `Unknown session type "warmup".`},
	}
	for _, tt := range tests {
		d, _ := newDashboard()
		view := d.HandleSelectionChange(context.Background(), tt.sel)
		if view.Kind != sessions.KindDataUnavailable {
			t.Errorf("%+v: kind = %q", tt.sel, view.Kind)
		}
		if view.Message != tt.want {
			t.Errorf("%+v: message = %q, want %q", tt.sel, view.Message, tt.want)
		}
	}
}

func TestLapChartSkipsTelemetry(t *testing.T) {
	d, mem := newDashboard()
	sel := Selection{Season: 2023, Event: "Monaco", SessionType: "R", Drivers: []string{"VER,HAM"}}

	spec, err := d.LapChart(context.Background(), sel)
	if err != nil {
		t.Fatalf("LapChart: %v", err)
	}
	if len(spec.Series) != 2 || spec.Series[0].Name != "VER" {
		t.Errorf("series = %+v", spec.Series)
	}
	if n := mem.Calls("LapTelemetry"); n != 0 {
		t.Errorf("lap chart fetched telemetry %d times", n)
	}

	spec, err = d.TelemetryChart(context.Background(), sel)
	if err != nil {
		t.Fatalf("TelemetryChart: %v", err)
	}
	if len(spec.Series) != 2 || mem.Calls("LapTelemetry") != 2 {
		t.Errorf("telemetry series = %d, calls = %d", len(spec.Series), mem.Calls("LapTelemetry"))
	}

	if _, err := d.LapChart(context.Background(), Selection{Season: 2023, Event: "Monaco", SessionType: "FP3", Drivers: []string{"VER"}}); sessions.Kind(err) != sessions.KindDataUnavailable {
		t.Errorf("cancelled session: err = %v", err)
	}
}
