package provider

import (
	"context"
	"fmt"
	"sync"

	"f1visualizer/pkg/model"

	"github.com/pkg/errors"
)

// Memory is an in-process Provider backed by fixtures. It counts calls so callers
// can check caching behaviour.
type Memory struct {
	mu        sync.Mutex
	events    map[int][]model.Event
	sessions  map[int]*model.Session
	telemetry map[string][]model.Sample
	calls     map[string]int
	failWith  error
}

func NewMemory() *Memory {
	return &Memory{
		events:    make(map[int][]model.Event),
		sessions:  make(map[int]*model.Session),
		telemetry: make(map[string][]model.Sample),
		calls:     make(map[string]int),
	}
}

func (m *Memory) AddEvent(e model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.Season] = append(m.events[e.Season], e)
}

// AddSession registers a session under its SessionInfo key.
func (m *Memory) AddSession(s *model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Info.Key] = s
}

func (m *Memory) AddTelemetry(sessionKey int, driver string, lapNumber int, samples []model.Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.telemetry[telemetryKey(sessionKey, driver, lapNumber)] = samples
}

// FailWith makes every subsequent call return err. nil restores normal behaviour.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *Memory) EventSchedule(ctx context.Context, season int) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["EventSchedule"]++
	if m.failWith != nil {
		return nil, m.failWith
	}
	events, ok := m.events[season]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "season %d", season)
	}
	return append([]model.Event(nil), events...), nil
}

func (m *Memory) Session(ctx context.Context, event model.Event, info model.SessionInfo) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Session"]++
	if m.failWith != nil {
		return nil, m.failWith
	}
	s, ok := m.sessions[info.Key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "session %d", info.Key)
	}
	clone := *s
	clone.Drivers = append([]model.Driver(nil), s.Drivers...)
	clone.Laps = append([]model.Lap(nil), s.Laps...)
	clone.Results = append([]model.Result(nil), s.Results...)
	return &clone, nil
}

func (m *Memory) LapTelemetry(ctx context.Context, session *model.Session, lap model.Lap) ([]model.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["LapTelemetry"]++
	if m.failWith != nil {
		return nil, m.failWith
	}
	samples, ok := m.telemetry[telemetryKey(session.Info.Key, lap.Driver, lap.Number)]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "telemetry %s lap %d", lap.Driver, lap.Number)
	}
	return append([]model.Sample(nil), samples...), nil
}

func telemetryKey(sessionKey int, driver string, lapNumber int) string {
	return fmt.Sprintf("%d/%s/%d", sessionKey, driver, lapNumber)
}
