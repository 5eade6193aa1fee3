// Package analysis derives the tables the charts and reports are drawn from:
// per driver lap sequences, fastest lap telemetry, positions and statistics.
package analysis

import (
	"sort"

	"f1visualizer/pkg/model"
)

// CompareLaps returns the timed laps of each requested driver, in request order,
// sorted by lap number. Unknown drivers and drivers without a timed lap are left
// out, laps without a time (retirements, deleted laps) are skipped.
func CompareLaps(session *model.Session, driverIDs []string) model.ComparisonTable {
	table := model.ComparisonTable{}
	if session == nil {
		return table
	}
	for _, d := range resolveDrivers(session, driverIDs) {
		laps := session.DriverLaps(d.Code)
		sort.SliceStable(laps, func(i, j int) bool {
			return laps[i].Number < laps[j].Number
		})

		points := []model.LapPoint{}
		last := 0
		for _, l := range laps {
			if !l.HasTime() || l.Number <= last {
				continue
			}
			points = append(points, model.LapPoint{Number: l.Number, Time: l.Time})
			last = l.Number
		}
		if len(points) == 0 {
			continue
		}
		table = append(table, model.LapSeries{Driver: d, Laps: points})
	}
	return table
}

// resolveDrivers maps ids to roster entries keeping request order, dropping
// unknown ids and duplicates.
func resolveDrivers(session *model.Session, driverIDs []string) []model.Driver {
	drivers := []model.Driver{}
	seen := make(map[string]bool)
	for _, id := range driverIDs {
		d, ok := session.Driver(id)
		if !ok || seen[d.Code] {
			continue
		}
		seen[d.Code] = true
		drivers = append(drivers, d)
	}
	return drivers
}
