// Package selection resolves what the user can pick: seasons, the events of a
// season and the sessions run during an event.
package selection

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"f1visualizer/pkg/model"
	"f1visualizer/pkg/provider"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Resolver struct {
	provider    provider.Provider
	firstSeason int
	now         func() time.Time
}

func NewResolver(p provider.Provider, firstSeason int) *Resolver {
	return &Resolver{
		provider:    p,
		firstSeason: firstSeason,
		now:         time.Now,
	}
}

// Seasons lists the selectable seasons, most recent first.
func (r *Resolver) Seasons() []int {
	last := r.now().Year()
	seasons := []int{}
	for y := last; y >= r.firstSeason; y-- {
		seasons = append(seasons, y)
	}
	return seasons
}

// LatestSeason returns the most recent season with at least one event. Provider
// failures stop the search, the most recent selectable season is returned then.
func (r *Resolver) LatestSeason(ctx context.Context) int {
	seasons := r.Seasons()
	if len(seasons) == 0 {
		return r.firstSeason
	}
	for _, season := range seasons {
		events, err := r.ListEvents(ctx, season)
		if err != nil {
			logrus.WithError(err).Warn("Looking for the latest season")
			return seasons[0]
		}
		if len(events) > 0 {
			return season
		}
	}
	return seasons[0]
}

// ListEvents returns the events of a season ordered by date. A season the
// provider knows nothing about yields an empty list.
func (r *Resolver) ListEvents(ctx context.Context, season int) ([]model.Event, error) {
	events, err := r.provider.EventSchedule(ctx, season)
	if provider.IsNotFound(err) {
		logrus.WithField("season", season).Info("No events for season")
		return []model.Event{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "selection: listing events of %d", season)
	}
	sorted := append([]model.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted, nil
}

// ListSessionTypes returns the session types run during the event, in the
// order they took place.
func (r *Resolver) ListSessionTypes(event model.Event) []model.SessionType {
	infos := append([]model.SessionInfo(nil), event.Sessions...)
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Start.Equal(infos[j].Start) {
			return weekendIndex(infos[i].Type) < weekendIndex(infos[j].Type)
		}
		return infos[i].Start.Before(infos[j].Start)
	})

	types := []model.SessionType{}
	seen := make(map[model.SessionType]bool)
	for _, si := range infos {
		if seen[si.Type] {
			continue
		}
		seen[si.Type] = true
		types = append(types, si.Type)
	}
	return types
}

// FindEvent looks an event up by exact name, then by round number, then by a
// case insensitive match on name, location, country or circuit.
func (r *Resolver) FindEvent(ctx context.Context, season int, query string) (model.Event, error) {
	events, err := r.ListEvents(ctx, season)
	if err != nil {
		return model.Event{}, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return model.Event{}, errors.Wrap(provider.ErrNotFound, "selection: empty event name")
	}

	for _, e := range events {
		if strings.ToLower(e.Name) == q || strings.ToLower(e.OfficialName) == q {
			return e, nil
		}
	}
	if round, err := strconv.Atoi(q); err == nil {
		for _, e := range events {
			if e.Round == round {
				return e, nil
			}
		}
	}
	for _, e := range events {
		for _, field := range []string{e.Name, e.Location, e.Country, e.Circuit} {
			if field != "" && strings.Contains(strings.ToLower(field), q) {
				return e, nil
			}
		}
	}
	return model.Event{}, errors.Wrapf(provider.ErrNotFound, "selection: no event matching %q in %d", query, season)
}

func weekendIndex(st model.SessionType) int {
	for i, t := range model.SessionTypes {
		if t == st {
			return i
		}
	}
	return len(model.SessionTypes)
}
