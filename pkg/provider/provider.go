// Package provider defines the motorsport data source the dashboard reads from.
package provider

import (
	"context"

	"f1visualizer/pkg/model"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when the provider has no data for a request,
// e.g. an unknown season or a cancelled session.
var ErrNotFound = errors.New("provider: no data available")

type Provider interface {
	// EventSchedule returns the events of a season, each with the sessions that were run.
	EventSchedule(ctx context.Context, season int) ([]model.Event, error)
	// Session returns the drivers, laps and results of one session of an event.
	Session(ctx context.Context, event model.Event, info model.SessionInfo) (*model.Session, error)
	// LapTelemetry returns the distance indexed samples recorded during a lap.
	LapTelemetry(ctx context.Context, session *model.Session, lap model.Lap) ([]model.Sample, error)
}

func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}
