package analysis

import (
	"sort"
	"time"

	"f1visualizer/pkg/model"
)

type DriverPosition struct {
	Driver        model.Driver  `json:"driver"`
	Position      int           `json:"position"`
	Status        string        `json:"status,omitempty"`
	BestLap       time.Duration `json:"bestLap"`
	BestLapNumber int           `json:"bestLapNumber,omitempty"`
}

// Positions returns where the requested drivers finished, or every driver when
// none is requested. Classified sessions use the official results, practice
// sessions rank the drivers by their fastest valid lap. A zero Position means
// not classified.
func Positions(session *model.Session, driverIDs []string) []DriverPosition {
	var all []DriverPosition
	if session.Info.Type.IsPractice() || len(session.Results) == 0 {
		all = rankedPositions(session)
	} else {
		all = classifiedPositions(session)
	}

	if len(driverIDs) == 0 {
		return all
	}
	byCode := make(map[string]DriverPosition, len(all))
	for _, p := range all {
		byCode[p.Driver.Code] = p
	}
	out := []DriverPosition{}
	for _, d := range resolveDrivers(session, driverIDs) {
		if p, ok := byCode[d.Code]; ok {
			out = append(out, p)
		}
	}
	return out
}

func classifiedPositions(session *model.Session) []DriverPosition {
	out := []DriverPosition{}
	for _, r := range session.Results {
		d, ok := session.Driver(r.Driver)
		if !ok {
			continue
		}
		p := DriverPosition{Driver: d, Position: r.Position, Status: r.Status}
		if best, ok := FastestLap(session, d.Code); ok {
			p.BestLap = best.Time
			p.BestLapNumber = best.Number
		}
		out = append(out, p)
	}
	return out
}

func rankedPositions(session *model.Session) []DriverPosition {
	timed := []DriverPosition{}
	untimed := []DriverPosition{}
	for _, d := range session.Drivers {
		best, ok := FastestLap(session, d.Code)
		if !ok {
			untimed = append(untimed, DriverPosition{Driver: d, Status: "No time"})
			continue
		}
		timed = append(timed, DriverPosition{Driver: d, BestLap: best.Time, BestLapNumber: best.Number})
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].BestLap < timed[j].BestLap
	})
	for i := range timed {
		timed[i].Position = i + 1
	}
	return append(timed, untimed...)
}
