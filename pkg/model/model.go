package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type SessionType string

const (
	Practice1        SessionType = "FP1"
	Practice2        SessionType = "FP2"
	Practice3        SessionType = "FP3"
	Qualifying       SessionType = "Q"
	SprintQualifying SessionType = "SQ"
	Sprint           SessionType = "S"
	Race             SessionType = "R"
)

// weekend order
var SessionTypes = []SessionType{Practice1, Practice2, Practice3, SprintQualifying, Sprint, Qualifying, Race}

var sessionTypeNames = map[SessionType]string{
	Practice1:        "Practice 1",
	Practice2:        "Practice 2",
	Practice3:        "Practice 3",
	Qualifying:       "Qualifying",
	SprintQualifying: "Sprint Qualifying",
	Sprint:           "Sprint",
	Race:             "Race",
}

var sessionTypeAliases = map[string]SessionType{
	"fp1":               Practice1,
	"practice 1":        Practice1,
	"practice1":         Practice1,
	"fp2":               Practice2,
	"practice 2":        Practice2,
	"practice2":         Practice2,
	"fp3":               Practice3,
	"practice 3":        Practice3,
	"practice3":         Practice3,
	"q":                 Qualifying,
	"quali":             Qualifying,
	"qualifying":        Qualifying,
	"sq":                SprintQualifying,
	"sprint qualifying": SprintQualifying,
	"sprint shootout":   SprintQualifying,
	"ss":                SprintQualifying,
	"s":                 Sprint,
	"sprint":            Sprint,
	"r":                 Race,
	"race":              Race,
}

// ParseSessionType accepts identifiers (FP1, Q, R...), display names and the usual aliases.
func ParseSessionType(s string) (SessionType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if st, ok := sessionTypeAliases[key]; ok {
		return st, nil
	}
	return "", errors.Errorf("model: unknown session type %q", s)
}

func (st SessionType) Name() string {
	if name, ok := sessionTypeNames[st]; ok {
		return name
	}
	return string(st)
}

func (st SessionType) String() string {
	return st.Name()
}

func (st SessionType) IsPractice() bool {
	return st == Practice1 || st == Practice2 || st == Practice3
}

type SessionInfo struct {
	Key   int         `json:"key"`
	Type  SessionType `json:"type"`
	Name  string      `json:"name"`
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`
}

type Event struct {
	Key          int           `json:"key"`
	Season       int           `json:"season"`
	Round        int           `json:"round"`
	Name         string        `json:"name"`
	OfficialName string        `json:"officialName"`
	Location     string        `json:"location"`
	Country      string        `json:"country"`
	Circuit      string        `json:"circuit"`
	Date         time.Time     `json:"date"`
	Sessions     []SessionInfo `json:"sessions"`
}

func (e Event) SessionInfo(st SessionType) (SessionInfo, bool) {
	for _, si := range e.Sessions {
		if si.Type == st {
			return si, true
		}
	}
	return SessionInfo{}, false
}

func (e Event) String() string {
	return fmt.Sprintf("%d %s (round %d)", e.Season, e.Name, e.Round)
}

type Driver struct {
	Number    int    `json:"number"`
	Code      string `json:"code"`
	FullName  string `json:"fullName"`
	TeamName  string `json:"teamName"`
	TeamColor string `json:"teamColor"`
}

type Lap struct {
	Driver  string        `json:"driver"`
	Number  int           `json:"number"`
	Time    time.Duration `json:"time"`
	Sector1 time.Duration `json:"sector1"`
	Sector2 time.Duration `json:"sector2"`
	Sector3 time.Duration `json:"sector3"`
	Start   time.Time     `json:"start"`
	PitOut  bool          `json:"pitOut"`
	PitIn   bool          `json:"pitIn"`
	Deleted bool          `json:"deleted"`
}

// HasTime reports whether the lap has a recorded, non deleted time.
func (l Lap) HasTime() bool {
	return l.Time > 0 && !l.Deleted
}

// IsValid reports whether the lap can be the fastest lap of a driver.
func (l Lap) IsValid() bool {
	return l.HasTime() && !l.PitOut && !l.PitIn
}

type Sample struct {
	Time     time.Duration `json:"time"`
	Distance float64       `json:"distance"`
	Speed    float64       `json:"speed"`
	Throttle float64       `json:"throttle"`
	Brake    bool          `json:"brake"`
	Gear     int           `json:"gear"`
	RPM      float64       `json:"rpm"`
	DRS      bool          `json:"drs"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
}

type Result struct {
	Driver   string `json:"driver"`
	Position int    `json:"position"`
	Status   string `json:"status"`
}

type Session struct {
	Season  int         `json:"season"`
	Event   Event       `json:"event"`
	Info    SessionInfo `json:"info"`
	Drivers []Driver    `json:"drivers"`
	Laps    []Lap       `json:"laps"`
	Results []Result    `json:"results"`
}

// Driver looks a driver up by code (case insensitive) or car number.
func (s *Session) Driver(id string) (Driver, bool) {
	id = strings.TrimSpace(id)
	for _, d := range s.Drivers {
		if strings.EqualFold(d.Code, id) || fmt.Sprint(d.Number) == id {
			return d, true
		}
	}
	return Driver{}, false
}

func (s *Session) DriverLaps(code string) []Lap {
	laps := []Lap{}
	for _, l := range s.Laps {
		if l.Driver == code {
			laps = append(laps, l)
		}
	}
	return laps
}

func (s *Session) String() string {
	return fmt.Sprintf("%s - %s", s.Event, s.Info.Type.Name())
}

type LapPoint struct {
	Number int           `json:"number"`
	Time   time.Duration `json:"time"`
}

type LapSeries struct {
	Driver Driver     `json:"driver"`
	Laps   []LapPoint `json:"laps"`
}

type ComparisonTable []LapSeries

type FastestLapTrace struct {
	Driver  Driver   `json:"driver"`
	Lap     Lap      `json:"lap"`
	Samples []Sample `json:"samples"`
}

type TelemetryTrace []FastestLapTrace

type Series struct {
	Name   string    `json:"name"`
	Color  string    `json:"color,omitempty"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Labels []string  `json:"labels,omitempty"`
}

type ChartSpec struct {
	Title  string   `json:"title"`
	XTitle string   `json:"xTitle"`
	YTitle string   `json:"yTitle"`
	Series []Series `json:"series"`
}

func (c ChartSpec) IsEmpty() bool {
	return len(c.Series) == 0
}
