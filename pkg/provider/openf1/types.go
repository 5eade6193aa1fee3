package openf1

import (
	"encoding/json"
	"strings"
	"time"
)

// timestamp accepts the ISO 8601 dates of the API, with or without fractional
// seconds, and null.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// some endpoints omit the offset
		parsed, err = time.Parse("2006-01-02T15:04:05.999999", s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed.UTC()
	return nil
}

type meeting struct {
	MeetingKey          int       `json:"meeting_key"`
	MeetingName         string    `json:"meeting_name"`
	MeetingOfficialName string    `json:"meeting_official_name"`
	Location            string    `json:"location"`
	CountryName         string    `json:"country_name"`
	CircuitShortName    string    `json:"circuit_short_name"`
	DateStart           timestamp `json:"date_start"`
	Year                int       `json:"year"`
}

type session struct {
	SessionKey  int       `json:"session_key"`
	SessionName string    `json:"session_name"`
	SessionType string    `json:"session_type"`
	MeetingKey  int       `json:"meeting_key"`
	DateStart   timestamp `json:"date_start"`
	DateEnd     timestamp `json:"date_end"`
	Year        int       `json:"year"`
}

type driver struct {
	DriverNumber  int    `json:"driver_number"`
	NameAcronym   string `json:"name_acronym"`
	FullName      string `json:"full_name"`
	BroadcastName string `json:"broadcast_name"`
	TeamName      string `json:"team_name"`
	TeamColour    string `json:"team_colour"`
}

type lap struct {
	DriverNumber    int       `json:"driver_number"`
	LapNumber       int       `json:"lap_number"`
	LapDuration     *float64  `json:"lap_duration"`
	DurationSector1 *float64  `json:"duration_sector_1"`
	DurationSector2 *float64  `json:"duration_sector_2"`
	DurationSector3 *float64  `json:"duration_sector_3"`
	DateStart       timestamp `json:"date_start"`
	IsPitOutLap     bool      `json:"is_pit_out_lap"`
}

type pit struct {
	DriverNumber int      `json:"driver_number"`
	LapNumber    int      `json:"lap_number"`
	PitDuration  *float64 `json:"pit_duration"`
}

type raceControl struct {
	Category     string    `json:"category"`
	Message      string    `json:"message"`
	DriverNumber *int      `json:"driver_number"`
	LapNumber    *int      `json:"lap_number"`
	Date         timestamp `json:"date"`
}

type sessionResult struct {
	DriverNumber int  `json:"driver_number"`
	Position     *int `json:"position"`
	DNF          bool `json:"dnf"`
	DNS          bool `json:"dns"`
	DSQ          bool `json:"dsq"`
	NumberOfLaps int  `json:"number_of_laps"`
}

type carData struct {
	Date     timestamp `json:"date"`
	Speed    float64   `json:"speed"`
	RPM      float64   `json:"rpm"`
	NGear    int       `json:"n_gear"`
	Throttle float64   `json:"throttle"`
	Brake    float64   `json:"brake"`
	DRS      int       `json:"drs"`
}

type location struct {
	Date timestamp `json:"date"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}

// errorDetail is the body of a non 200 answer.
type errorDetail struct {
	Detail json.RawMessage `json:"detail"`
}

func (e errorDetail) String() string {
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	return string(e.Detail)
}
