// Package openf1 implements provider.Provider on top of the OpenF1 REST API.
package openf1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"f1visualizer/pkg/helper"
	"f1visualizer/pkg/model"
	"f1visualizer/pkg/provider"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultURL = "https://api.openf1.org/v1"

	dateFormat = "2006-01-02T15:04:05.000"
)

var deletedLapRE = regexp.MustCompile(`^CAR (\d+) \([A-Z]+\) TIME [0-9:.]+ DELETED.* LAP (\d+)`)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// get fetches an endpoint and decodes its array answer. A 404 is how the API
// reports an empty result, so it yields an empty slice.
func get[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "openf1: building request for %s", path)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "openf1: requesting %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "openf1: reading %s", path)
	}
	logrus.WithFields(logrus.Fields{
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("openf1 request")

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return []T{}, nil
	default:
		var detail errorDetail
		_ = json.Unmarshal(body, &detail)
		return nil, errors.Errorf("openf1: %s answered %s %s", path, resp.Status, detail)
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, errors.Wrapf(err, "openf1: decoding %s", path)
	}
	return items, nil
}

func (c *Client) EventSchedule(ctx context.Context, season int) ([]model.Event, error) {
	var meetings []meeting
	var sessions []session

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meetings, err = get[meeting](gctx, c, fmt.Sprintf("meetings?year=%d", season))
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = get[session](gctx, c, fmt.Sprintf("sessions?year=%d", season))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(meetings) == 0 {
		return nil, errors.Wrapf(provider.ErrNotFound, "openf1: season %d", season)
	}

	byMeeting := make(map[int][]model.SessionInfo)
	for _, s := range sessions {
		st, err := model.ParseSessionType(s.SessionName)
		if err != nil {
			// testing days and other non championship running
			continue
		}
		byMeeting[s.MeetingKey] = append(byMeeting[s.MeetingKey], model.SessionInfo{
			Key:   s.SessionKey,
			Type:  st,
			Name:  s.SessionName,
			Start: s.DateStart.Time,
			End:   s.DateEnd.Time,
		})
	}

	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].DateStart.Before(meetings[j].DateStart.Time)
	})

	events := []model.Event{}
	for _, m := range meetings {
		infos := byMeeting[m.MeetingKey]
		if len(infos) == 0 {
			continue
		}
		sort.SliceStable(infos, func(i, j int) bool {
			return infos[i].Start.Before(infos[j].Start)
		})
		e := model.Event{
			Key:          m.MeetingKey,
			Season:       season,
			Round:        len(events) + 1,
			Name:         m.MeetingName,
			OfficialName: m.MeetingOfficialName,
			Location:     m.Location,
			Country:      m.CountryName,
			Circuit:      m.CircuitShortName,
			Date:         m.DateStart.Time,
			Sessions:     infos,
		}
		if race, ok := e.SessionInfo(model.Race); ok {
			e.Date = race.Start
		}
		events = append(events, e)
	}
	if len(events) == 0 {
		return nil, errors.Wrapf(provider.ErrNotFound, "openf1: no championship events in %d", season)
	}
	return events, nil
}

func (c *Client) Session(ctx context.Context, event model.Event, info model.SessionInfo) (*model.Session, error) {
	var (
		drivers  []driver
		laps     []lap
		pits     []pit
		messages []raceControl
		results  []sessionResult
	)
	query := fmt.Sprintf("session_key=%d", info.Key)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		drivers, err = get[driver](gctx, c, "drivers?"+query)
		return err
	})
	g.Go(func() (err error) {
		laps, err = get[lap](gctx, c, "laps?"+query)
		return err
	})
	g.Go(func() (err error) {
		pits, err = get[pit](gctx, c, "pit?"+query)
		return err
	})
	g.Go(func() (err error) {
		messages, err = get[raceControl](gctx, c, "race_control?"+query)
		return err
	})
	g.Go(func() (err error) {
		results, err = get[sessionResult](gctx, c, "session_result?"+query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(drivers) == 0 && len(laps) == 0 {
		return nil, errors.Wrapf(provider.ErrNotFound, "openf1: session %d", info.Key)
	}

	s := &model.Session{
		Season:  event.Season,
		Event:   event,
		Info:    info,
		Drivers: convertDrivers(drivers),
	}
	codes := make(map[int]string, len(s.Drivers))
	for _, d := range s.Drivers {
		codes[d.Number] = d.Code
	}
	s.Laps = convertLaps(laps, pits, messages, codes)
	s.Results = convertResults(results, codes)
	return s, nil
}

func (c *Client) LapTelemetry(ctx context.Context, session *model.Session, l model.Lap) ([]model.Sample, error) {
	if l.Start.IsZero() || l.Time <= 0 {
		return nil, errors.Wrapf(provider.ErrNotFound, "openf1: lap %d of %s has no timing window", l.Number, l.Driver)
	}
	d, ok := session.Driver(l.Driver)
	if !ok {
		return nil, errors.Wrapf(provider.ErrNotFound, "openf1: driver %s", l.Driver)
	}

	from := l.Start
	to := from.Add(l.Time)
	query := fmt.Sprintf("session_key=%d&driver_number=%d&date>=%s&date<=%s",
		session.Info.Key, d.Number, from.UTC().Format(dateFormat), to.UTC().Format(dateFormat))

	var cars []carData
	var locations []location
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cars, err = get[carData](gctx, c, "car_data?"+query)
		return err
	})
	g.Go(func() (err error) {
		locations, err = get[location](gctx, c, "location?"+query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(cars) == 0 {
		return nil, errors.Wrapf(provider.ErrNotFound, "openf1: telemetry of %s lap %d", l.Driver, l.Number)
	}
	return buildSamples(cars, locations, from), nil
}

func convertDrivers(drivers []driver) []model.Driver {
	out := make([]model.Driver, 0, len(drivers))
	seen := make(map[int]bool)
	for _, d := range drivers {
		if seen[d.DriverNumber] {
			continue
		}
		seen[d.DriverNumber] = true
		code := d.NameAcronym
		if code == "" {
			code = helper.DriverCode(d.FullName)
		}
		if code == "" {
			code = strconv.Itoa(d.DriverNumber)
		}
		out = append(out, model.Driver{
			Number:    d.DriverNumber,
			Code:      strings.ToUpper(code),
			FullName:  d.FullName,
			TeamName:  d.TeamName,
			TeamColor: strings.TrimPrefix(d.TeamColour, "#"),
		})
	}
	return out
}

func convertLaps(laps []lap, pits []pit, messages []raceControl, codes map[int]string) []model.Lap {
	type key struct{ driver, lap int }

	pitIn := make(map[key]bool)
	for _, p := range pits {
		pitIn[key{p.DriverNumber, p.LapNumber}] = true
	}
	deleted := make(map[key]bool)
	for _, m := range messages {
		match := deletedLapRE.FindStringSubmatch(m.Message)
		if match == nil {
			continue
		}
		number, _ := strconv.Atoi(match[1])
		lapNumber, _ := strconv.Atoi(match[2])
		deleted[key{number, lapNumber}] = true
	}

	out := make([]model.Lap, 0, len(laps))
	for _, l := range laps {
		code, ok := codes[l.DriverNumber]
		if !ok {
			code = strconv.Itoa(l.DriverNumber)
		}
		k := key{l.DriverNumber, l.LapNumber}
		out = append(out, model.Lap{
			Driver:  code,
			Number:  l.LapNumber,
			Time:    fromSeconds(l.LapDuration),
			Sector1: fromSeconds(l.DurationSector1),
			Sector2: fromSeconds(l.DurationSector2),
			Sector3: fromSeconds(l.DurationSector3),
			Start:   l.DateStart.Time,
			PitOut:  l.IsPitOutLap,
			PitIn:   pitIn[k],
			Deleted: deleted[k],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Driver != out[j].Driver {
			return out[i].Driver < out[j].Driver
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func convertResults(results []sessionResult, codes map[int]string) []model.Result {
	out := make([]model.Result, 0, len(results))
	for _, r := range results {
		code, ok := codes[r.DriverNumber]
		if !ok {
			code = strconv.Itoa(r.DriverNumber)
		}
		res := model.Result{Driver: code, Status: "Finished"}
		if r.Position != nil {
			res.Position = *r.Position
		}
		switch {
		case r.DSQ:
			res.Status = "DSQ"
		case r.DNS:
			res.Status = "DNS"
		case r.DNF:
			res.Status = "DNF"
		}
		out = append(out, res)
	}
	// unclassified drivers go last
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Position, out[j].Position
		if pi == 0 || pj == 0 {
			return pi != 0 && pj == 0
		}
		return pi < pj
	})
	return out
}

func fromSeconds(v *float64) time.Duration {
	if v == nil {
		return 0
	}
	return helper.FromSeconds(*v)
}

// buildSamples orders car data by time, integrates speed into distance from the
// start of the lap and attaches the nearest position sample.
func buildSamples(cars []carData, locations []location, lapStart time.Time) []model.Sample {
	sort.SliceStable(cars, func(i, j int) bool {
		return cars[i].Date.Before(cars[j].Date.Time)
	})
	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].Date.Before(locations[j].Date.Time)
	})

	samples := make([]model.Sample, 0, len(cars))
	distance := 0.0
	j := 0
	for i, cd := range cars {
		if i > 0 {
			prev := cars[i-1]
			dt := cd.Date.Sub(prev.Date.Time).Seconds()
			distance += (prev.Speed + cd.Speed) / 2 / 3.6 * dt
		}
		s := model.Sample{
			Time:     cd.Date.Sub(lapStart),
			Distance: distance,
			Speed:    cd.Speed,
			Throttle: cd.Throttle,
			Brake:    cd.Brake > 0,
			Gear:     cd.NGear,
			RPM:      cd.RPM,
			// 10, 12 and 14 mean the flap is open
			DRS: cd.DRS >= 10,
		}
		if len(locations) > 0 {
			for j+1 < len(locations) && absDuration(locations[j+1].Date.Sub(cd.Date.Time)) <= absDuration(locations[j].Date.Sub(cd.Date.Time)) {
				j++
			}
			s.X = locations[j].X
			s.Y = locations[j].Y
		}
		samples = append(samples, s)
	}
	return samples
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

var _ provider.Provider = (*Client)(nil)
