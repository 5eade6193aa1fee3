// Package sessions loads the data of one session of an event and classifies the
// ways that can fail.
package sessions

import (
	"context"
	"time"

	"f1visualizer/pkg/model"
	"f1visualizer/pkg/provider"
	"f1visualizer/pkg/selection"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Loader struct {
	provider provider.Provider
	resolver *selection.Resolver
}

func NewLoader(p provider.Provider, r *selection.Resolver) *Loader {
	return &Loader{
		provider: p,
		resolver: r,
	}
}

// Load resolves the event and fetches the session. Every error returned has
// ErrDataUnavailable or ErrProviderIO as cause.
func (l *Loader) Load(ctx context.Context, season int, eventQuery string, sessionType model.SessionType) (*model.Session, error) {
	event, err := l.resolver.FindEvent(ctx, season, eventQuery)
	if err != nil {
		return nil, Classify(err)
	}
	return l.LoadEvent(ctx, event, sessionType)
}

func (l *Loader) LoadEvent(ctx context.Context, event model.Event, sessionType model.SessionType) (*model.Session, error) {
	info, ok := event.SessionInfo(sessionType)
	if !ok {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s has no %s session", event, sessionType.Name())
	}

	start := time.Now()
	s, err := l.provider.Session(ctx, event, info)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":   event.Name,
			"session": sessionType,
		}).Warn("Loading session failed")
		return nil, Classify(errors.Wrapf(err, "loading %s %s", event, sessionType.Name()))
	}
	if len(s.Laps) == 0 {
		return nil, errors.Wrapf(ErrDataUnavailable, "no laps recorded in %s", s)
	}
	logrus.WithFields(logrus.Fields{
		"session": s.String(),
		"drivers": len(s.Drivers),
		"laps":    len(s.Laps),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("Session loaded")
	return s, nil
}
