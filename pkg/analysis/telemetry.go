package analysis

import (
	"context"

	"f1visualizer/pkg/model"
	"f1visualizer/pkg/provider"
	"f1visualizer/pkg/sessions"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FastestLap returns the valid lap with the lowest time. Equal times go to the
// earlier lap.
func FastestLap(session *model.Session, driverID string) (model.Lap, bool) {
	d, ok := session.Driver(driverID)
	if !ok {
		return model.Lap{}, false
	}
	var best model.Lap
	found := false
	for _, l := range session.DriverLaps(d.Code) {
		if !l.IsValid() {
			continue
		}
		if !found || l.Time < best.Time || (l.Time == best.Time && l.Number < best.Number) {
			best = l
			found = true
		}
	}
	return best, found
}

type Extractor struct {
	provider provider.Provider
}

func NewExtractor(p provider.Provider) *Extractor {
	return &Extractor{provider: p}
}

// ExtractFastestLapTelemetry returns the samples of the fastest lap of each
// requested driver, as recorded by the provider. Drivers without a valid lap or
// without telemetry for it are left out. Other provider failures abort and are
// returned classified.
func (e *Extractor) ExtractFastestLapTelemetry(ctx context.Context, session *model.Session, driverIDs []string) (model.TelemetryTrace, error) {
	trace := model.TelemetryTrace{}
	if session == nil {
		return trace, nil
	}
	for _, d := range resolveDrivers(session, driverIDs) {
		lap, ok := FastestLap(session, d.Code)
		if !ok {
			continue
		}
		samples, err := e.provider.LapTelemetry(ctx, session, lap)
		if provider.IsNotFound(err) {
			logrus.WithFields(logrus.Fields{
				"driver": d.Code,
				"lap":    lap.Number,
			}).Info("No telemetry for fastest lap")
			continue
		}
		if err != nil {
			return nil, sessions.Classify(errors.Wrapf(err, "telemetry of %s lap %d", d.Code, lap.Number))
		}
		trace = append(trace, model.FastestLapTrace{Driver: d, Lap: lap, Samples: samples})
	}
	return trace, nil
}
