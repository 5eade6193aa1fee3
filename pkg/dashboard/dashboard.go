// Package dashboard runs the selection -> session -> charts pipeline once per
// user interaction.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"f1visualizer/pkg/analysis"
	"f1visualizer/pkg/charts"
	"f1visualizer/pkg/model"
	"f1visualizer/pkg/provider"
	"f1visualizer/pkg/selection"
	"f1visualizer/pkg/sessions"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	MessageNoData     = "No data available for %s. Pick another event or session."
	MessageRetry      = "The data provider could not be reached. Try again in a moment."
	MessagePickDriver = "Select one or more drivers to compare."
	MessageBadSession = "Unknown session type %q."
)

// Selection is what the user picked in the dashboard controls.
type Selection struct {
	Season      int      `json:"season"`
	Event       string   `json:"event"`
	SessionType string   `json:"session"`
	Drivers     []string `json:"drivers"`
}

// Option is one entry of a selection control.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// View is everything the page needs to render one interaction.
type View struct {
	Selection      Selection                 `json:"selection"`
	Seasons        []int                     `json:"seasons"`
	Events         []Option                  `json:"events"`
	SessionTypes   []Option                  `json:"sessionTypes"`
	Event          *model.Event              `json:"event,omitempty"`
	Session        *model.SessionInfo        `json:"session,omitempty"`
	Drivers        []model.Driver            `json:"drivers"`
	Positions      []analysis.DriverPosition `json:"positions"`
	LapChart       *model.ChartSpec          `json:"lapChart,omitempty"`
	TelemetryChart *model.ChartSpec          `json:"telemetryChart,omitempty"`
	Message        string                    `json:"message,omitempty"`
	Kind           sessions.ErrorKind        `json:"kind,omitempty"`
}

type Dashboard struct {
	resolver  *selection.Resolver
	loader    *sessions.Loader
	extractor *analysis.Extractor
}

func New(p provider.Provider, firstSeason int) *Dashboard {
	r := selection.NewResolver(p, firstSeason)
	return &Dashboard{
		resolver:  r,
		loader:    sessions.NewLoader(p, r),
		extractor: analysis.NewExtractor(p),
	}
}

func (d *Dashboard) Resolver() *selection.Resolver {
	return d.resolver
}

// LoadSession resolves and loads the session a selection points at. Errors are
// classified.
func (d *Dashboard) LoadSession(ctx context.Context, sel Selection) (*model.Session, error) {
	st, err := model.ParseSessionType(sel.SessionType)
	if err != nil {
		return nil, errors.Wrapf(sessions.ErrDataUnavailable, MessageBadSession, sel.SessionType)
	}
	return d.loader.Load(ctx, sel.Season, sel.Event, st)
}

// FastestLaps extracts the telemetry of the fastest lap of each selected driver.
func (d *Dashboard) FastestLaps(ctx context.Context, session *model.Session, drivers []string) (model.TelemetryTrace, error) {
	return d.extractor.ExtractFastestLapTelemetry(ctx, session, drivers)
}

// LapChart loads the selected session and renders the lap comparison only.
func (d *Dashboard) LapChart(ctx context.Context, sel Selection) (model.ChartSpec, error) {
	sel = d.Normalize(ctx, sel)
	session, err := d.LoadSession(ctx, sel)
	if err != nil {
		return model.ChartSpec{}, err
	}
	return charts.RenderLapChart(analysis.CompareLaps(session, sel.Drivers)), nil
}

// TelemetryChart loads the selected session and renders the fastest lap traces only.
func (d *Dashboard) TelemetryChart(ctx context.Context, sel Selection) (model.ChartSpec, error) {
	sel = d.Normalize(ctx, sel)
	session, err := d.LoadSession(ctx, sel)
	if err != nil {
		return model.ChartSpec{}, err
	}
	trace, err := d.extractor.ExtractFastestLapTelemetry(ctx, session, sel.Drivers)
	if err != nil {
		return model.ChartSpec{}, err
	}
	return charts.RenderTelemetryChart(trace), nil
}

// Normalize fills the blanks of a selection with the latest season that has
// events, its most recent event and the last session of that event.
func (d *Dashboard) Normalize(ctx context.Context, sel Selection) Selection {
	if sel.Season == 0 {
		sel.Season = d.resolver.LatestSeason(ctx)
	}
	sel.Event = strings.TrimSpace(sel.Event)
	if sel.Event == "" {
		events, err := d.resolver.ListEvents(ctx, sel.Season)
		if err == nil && len(events) > 0 {
			sel.Event = events[len(events)-1].Name
		}
	}
	sel.Drivers = normalizeDrivers(sel.Drivers)
	return sel
}

// HandleSelectionChange runs the whole pipeline for one selection. It never
// fails: problems end up in View.Message and View.Kind.
func (d *Dashboard) HandleSelectionChange(ctx context.Context, sel Selection) View {
	start := time.Now()
	sel = d.Normalize(ctx, sel)
	view := View{
		Selection:    sel,
		Seasons:      d.resolver.Seasons(),
		Events:       []Option{},
		SessionTypes: []Option{},
		Drivers:      []model.Driver{},
		Positions:    []analysis.DriverPosition{},
	}
	log := logrus.WithFields(logrus.Fields{
		"season":  sel.Season,
		"event":   sel.Event,
		"session": sel.SessionType,
		"drivers": strings.Join(sel.Drivers, ","),
	})

	events, err := d.resolver.ListEvents(ctx, sel.Season)
	if err != nil {
		return d.failed(log, view, err)
	}
	for _, e := range events {
		view.Events = append(view.Events, Option{Value: e.Name, Label: fmt.Sprintf("R%d %s", e.Round, e.Name)})
	}
	if len(events) == 0 {
		return d.failed(log, view, errors.Wrapf(sessions.ErrDataUnavailable, "no events in %d", sel.Season))
	}

	event, err := d.resolver.FindEvent(ctx, sel.Season, sel.Event)
	if err != nil {
		return d.failed(log, view, sessions.Classify(err))
	}
	view.Event = &event
	types := d.resolver.ListSessionTypes(event)
	for _, st := range types {
		view.SessionTypes = append(view.SessionTypes, Option{Value: string(st), Label: st.Name()})
	}
	if sel.SessionType == "" && len(types) > 0 {
		view.Selection.SessionType = string(types[len(types)-1])
		sel = view.Selection
	}

	st, err := model.ParseSessionType(sel.SessionType)
	if err != nil {
		return d.failed(log, view, errors.Wrapf(sessions.ErrDataUnavailable, MessageBadSession, sel.SessionType))
	}
	if info, ok := event.SessionInfo(st); ok {
		view.Session = &info
	}

	session, err := d.loader.LoadEvent(ctx, event, st)
	if err != nil {
		return d.failed(log, view, err)
	}
	view.Drivers = session.Drivers
	view.Positions = analysis.Positions(session, nil)

	if len(sel.Drivers) == 0 {
		view.Message = MessagePickDriver
		return view
	}

	table := analysis.CompareLaps(session, sel.Drivers)
	lapChart := charts.RenderLapChart(table)
	view.LapChart = &lapChart

	trace, err := d.extractor.ExtractFastestLapTelemetry(ctx, session, sel.Drivers)
	if err != nil {
		// lap chart stays, only the telemetry is missing
		view.Message, view.Kind = message(sel, err)
		log.WithError(err).Warn("Telemetry extraction failed")
		return view
	}
	telemetryChart := charts.RenderTelemetryChart(trace)
	view.TelemetryChart = &telemetryChart

	log.WithFields(logrus.Fields{
		"series":  len(lapChart.Series),
		"traces":  len(telemetryChart.Series),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("Selection handled")
	return view
}

func (d *Dashboard) failed(log *logrus.Entry, view View, err error) View {
	view.Message, view.Kind = message(view.Selection, err)
	if view.Kind == sessions.KindProviderIO {
		log.WithError(err).Warn("Provider failure")
	} else {
		log.WithError(err).Info("No data for selection")
	}
	return view
}

func message(sel Selection, err error) (string, sessions.ErrorKind) {
	kind := sessions.Kind(err)
	switch kind {
	case sessions.KindProviderIO:
		return MessageRetry, kind
	case sessions.KindDataUnavailable:
		if sel.SessionType == "" {
			return fmt.Sprintf(MessageNoData, selectionLabel(sel.Season, sel.Event)), kind
		}
		st, perr := model.ParseSessionType(sel.SessionType)
		if perr != nil {
			return fmt.Sprintf(MessageBadSession, sel.SessionType), kind
		}
		return fmt.Sprintf(MessageNoData, selectionLabel(sel.Season, sel.Event, st.Name())), kind
	}
	return err.Error(), kind
}

func selectionLabel(season int, parts ...string) string {
	label := []string{}
	if season > 0 {
		label = append(label, fmt.Sprint(season))
	}
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			label = append(label, p)
		}
	}
	if len(label) == 0 {
		return "this selection"
	}
	return strings.Join(label, " ")
}

func normalizeDrivers(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, part := range strings.Split(id, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
