package openf1

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"f1visualizer/pkg/model"
	"f1visualizer/pkg/provider"
)

var fixtures = map[string]string{
	"/meetings": `[
		{"meeting_key": 1210, "meeting_name": "Monaco Grand Prix", "meeting_official_name": "FORMULA 1 GRAND PRIX DE MONACO 2023",
		 "location": "Monaco", "country_name": "Monaco", "circuit_short_name": "Monte Carlo", "date_start": "2023-05-26T11:30:00+00:00", "year": 2023},
		{"meeting_key": 1140, "meeting_name": "Pre-Season Testing", "location": "Sakhir", "country_name": "Bahrain",
		 "circuit_short_name": "Sakhir", "date_start": "2023-02-23T07:00:00+00:00", "year": 2023},
		{"meeting_key": 1141, "meeting_name": "Bahrain Grand Prix", "location": "Sakhir", "country_name": "Bahrain",
		 "circuit_short_name": "Sakhir", "date_start": "2023-03-03T11:30:00+00:00", "year": 2023}
	]`,
	"/sessions": `[
		{"session_key": 9104, "session_name": "Race", "session_type": "Race", "meeting_key": 1210, "date_start": "2023-05-28T13:00:00+00:00", "date_end": "2023-05-28T15:00:00+00:00", "year": 2023},
		{"session_key": 9100, "session_name": "Practice 1", "session_type": "Practice", "meeting_key": 1210, "date_start": "2023-05-26T11:30:00+00:00", "date_end": "2023-05-26T12:30:00+00:00", "year": 2023},
		{"session_key": 7000, "session_name": "Day 1", "session_type": "Practice", "meeting_key": 1140, "date_start": "2023-02-23T07:00:00+00:00", "date_end": "2023-02-23T16:00:00+00:00", "year": 2023},
		{"session_key": 7953, "session_name": "Race", "session_type": "Race", "meeting_key": 1141, "date_start": "2023-03-05T15:00:00+00:00", "date_end": "2023-03-05T17:00:00+00:00", "year": 2023}
	]`,
	"/drivers": `[
		{"driver_number": 1, "name_acronym": "VER", "full_name": "Max VERSTAPPEN", "team_name": "Red Bull Racing", "team_colour": "3671C6"},
		{"driver_number": 44, "name_acronym": "HAM", "full_name": "Lewis HAMILTON", "team_name": "Mercedes", "team_colour": "6CD3BF"},
		{"driver_number": 44, "name_acronym": "HAM", "full_name": "Lewis HAMILTON", "team_name": "Mercedes", "team_colour": "6CD3BF"}
	]`,
	"/laps": `[
		{"driver_number": 1, "lap_number": 2, "lap_duration": 78.5, "duration_sector_1": 20.1, "duration_sector_2": 38.2, "duration_sector_3": 20.2, "date_start": "2023-05-28T13:05:00.000000+00:00", "is_pit_out_lap": false},
		{"driver_number": 1, "lap_number": 1, "lap_duration": null, "date_start": "2023-05-28T13:03:30+00:00", "is_pit_out_lap": false},
		{"driver_number": 44, "lap_number": 1, "lap_duration": 80.25, "date_start": "2023-05-28T13:03:31+00:00", "is_pit_out_lap": false},
		{"driver_number": 44, "lap_number": 2, "lap_duration": 76.0, "date_start": "2023-05-28T13:04:51.250+00:00", "is_pit_out_lap": true}
	]`,
	"/pit": `[{"driver_number": 1, "lap_number": 2, "pit_duration": 22.4}]`,
	"/race_control": `[
		{"category": "Other", "message": "CAR 44 (HAM) TIME 1:16.000 DELETED - TRACK LIMITS AT TURN 1 LAP 2 14:06:11", "driver_number": 44, "lap_number": 2, "date": "2023-05-28T13:06:11+00:00"},
		{"category": "Flag", "message": "GREEN LIGHT - PIT EXIT OPEN", "driver_number": null, "lap_number": null, "date": "2023-05-28T12:50:00+00:00"}
	]`,
	"/session_result": `[
		{"driver_number": 44, "position": null, "dnf": true, "dns": false, "dsq": false},
		{"driver_number": 1, "position": 1, "dnf": false, "dns": false, "dsq": false}
	]`,
	"/car_data": `[
		{"date": "2023-05-28T13:05:01.000+00:00", "speed": 180, "rpm": 11000, "n_gear": 6, "throttle": 100, "brake": 0, "drs": 12},
		{"date": "2023-05-28T13:05:00.000+00:00", "speed": 180, "rpm": 10800, "n_gear": 6, "throttle": 99, "brake": 0, "drs": 1},
		{"date": "2023-05-28T13:05:02.000+00:00", "speed": 90, "rpm": 9000, "n_gear": 3, "throttle": 0, "brake": 100, "drs": 0}
	]`,
	"/location": `[
		{"date": "2023-05-28T13:05:00.100+00:00", "x": 10, "y": 20, "z": 0},
		{"date": "2023-05-28T13:05:01.900+00:00", "x": 30, "y": 40, "z": 0}
	]`,
}

func newTestServer(t *testing.T, seen *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = append(*seen, r.URL.Path+"?"+r.URL.RawQuery)
		}
		if strings.Contains(r.URL.RawQuery, "year=1999") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if strings.Contains(r.URL.RawQuery, "session_key=42") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "No results found."}`))
			return
		}
		if strings.Contains(r.URL.RawQuery, "session_key=500") {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"detail": "rate limited"}`))
			return
		}
		body, ok := fixtures[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEventSchedule(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 5*time.Second)

	events, err := c.EventSchedule(context.Background(), 2023)
	if err != nil {
		t.Fatalf("EventSchedule: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected testing to be skipped, got %d events", len(events))
	}
	if events[0].Name != "Bahrain Grand Prix" || events[0].Round != 1 {
		t.Errorf("first event = %s", events[0])
	}
	monaco := events[1]
	if monaco.Round != 2 || monaco.Circuit != "Monte Carlo" {
		t.Errorf("second event = %+v", monaco)
	}
	if len(monaco.Sessions) != 2 || monaco.Sessions[0].Type != model.Practice1 || monaco.Sessions[1].Type != model.Race {
		t.Errorf("sessions not ordered by start: %+v", monaco.Sessions)
	}
	if want := time.Date(2023, 5, 28, 13, 0, 0, 0, time.UTC); !monaco.Date.Equal(want) {
		t.Errorf("event date = %v, want race start %v", monaco.Date, want)
	}
}

func TestEventScheduleUnknownSeason(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 5*time.Second)

	_, err := c.EventSchedule(context.Background(), 1999)
	if !provider.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSession(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 5*time.Second)

	event := model.Event{Key: 1210, Season: 2023, Name: "Monaco Grand Prix"}
	info := model.SessionInfo{Key: 9104, Type: model.Race}
	s, err := c.Session(context.Background(), event, info)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if len(s.Drivers) != 2 {
		t.Fatalf("duplicate drivers not collapsed: %+v", s.Drivers)
	}
	if len(s.Laps) != 4 {
		t.Fatalf("got %d laps", len(s.Laps))
	}

	ham := s.DriverLaps("HAM")
	if ham[0].Time != 80250*time.Millisecond {
		t.Errorf("HAM lap 1 time = %v", ham[0].Time)
	}
	if !ham[1].Deleted || !ham[1].PitOut {
		t.Errorf("HAM lap 2 flags = %+v", ham[1])
	}

	ver := s.DriverLaps("VER")
	if ver[0].Number != 1 || ver[0].Time != 0 {
		t.Errorf("VER lap 1 = %+v", ver[0])
	}
	if !ver[1].PitIn || ver[1].Sector2 != 38200*time.Millisecond {
		t.Errorf("VER lap 2 = %+v", ver[1])
	}

	if s.Results[0].Driver != "VER" || s.Results[0].Position != 1 {
		t.Errorf("classified drivers first: %+v", s.Results)
	}
	if s.Results[1].Status != "DNF" || s.Results[1].Position != 0 {
		t.Errorf("HAM result = %+v", s.Results[1])
	}
}

func TestSessionWithoutData(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 5*time.Second)

	_, err := c.Session(context.Background(), model.Event{Season: 2023}, model.SessionInfo{Key: 42})
	if !provider.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionUpstreamError(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 5*time.Second)

	_, err := c.Session(context.Background(), model.Event{Season: 2023}, model.SessionInfo{Key: 500})
	if err == nil || provider.IsNotFound(err) {
		t.Fatalf("expected an I/O error, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error does not carry the API detail: %v", err)
	}
}

func TestLapTelemetry(t *testing.T) {
	var seen []string
	srv := newTestServer(t, &seen)
	c := NewClient(srv.URL, 5*time.Second)

	s := &model.Session{
		Info:    model.SessionInfo{Key: 9104},
		Drivers: []model.Driver{{Number: 1, Code: "VER"}},
	}
	l := model.Lap{
		Driver: "VER",
		Number: 2,
		Time:   78500 * time.Millisecond,
		Start:  time.Date(2023, 5, 28, 13, 5, 0, 0, time.UTC),
	}
	samples, err := c.LapTelemetry(context.Background(), s, l)
	if err != nil {
		t.Fatalf("LapTelemetry: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples", len(samples))
	}
	if samples[0].Distance != 0 || samples[0].X != 10 || samples[0].DRS {
		t.Errorf("first sample = %+v", samples[0])
	}
	// 180 km/h for one second is 50 m
	if !near(samples[1].Distance, 50) || !samples[1].DRS {
		t.Errorf("second sample = %+v", samples[1])
	}
	if !near(samples[2].Distance, 87.5) || !samples[2].Brake || samples[2].X != 30 {
		t.Errorf("third sample = %+v", samples[2])
	}
	if samples[2].Time != 2*time.Second {
		t.Errorf("sample time = %v", samples[2].Time)
	}

	found := false
	for _, q := range seen {
		if strings.HasPrefix(q, "/car_data?") && strings.Contains(q, "driver_number=1") &&
			strings.Contains(q, "date>=2023-05-28T13:05:00.000") && strings.Contains(q, "date<=2023-05-28T13:06:18.500") {
			found = true
		}
	}
	if !found {
		t.Errorf("car_data query not bounded by the lap window: %v", seen)
	}
}

func TestLapTelemetryWithoutWindow(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", time.Second)
	_, err := c.LapTelemetry(context.Background(), &model.Session{}, model.Lap{Driver: "VER", Number: 1})
	if !provider.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
