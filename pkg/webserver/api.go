package webserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"f1visualizer/pkg/charts"
	"f1visualizer/pkg/dashboard"
	"f1visualizer/pkg/model"
	"f1visualizer/pkg/report"
	"f1visualizer/pkg/sessions"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var errBadRequest = errors.New("webserver: bad request")

type errorBody struct {
	Error string             `json:"error"`
	Kind  sessions.ErrorKind `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Encoding response")
	}
}

func statusFor(kind sessions.ErrorKind) int {
	switch kind {
	case sessions.KindDataUnavailable:
		return http.StatusNotFound
	case sessions.KindProviderIO:
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Cause(err) == errBadRequest {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	kind := sessions.Kind(err)
	body := errorBody{Error: err.Error(), Kind: kind}
	if kind == sessions.KindProviderIO {
		body.Error = dashboard.MessageRetry
		logrus.WithError(err).Warn("Provider failure")
	}
	writeJSON(w, statusFor(kind), body)
}

// selectionFromQuery reads season, event, session and driver (repeated or comma
// separated) from the query string.
func selectionFromQuery(r *http.Request) (dashboard.Selection, error) {
	q := r.URL.Query()
	sel := dashboard.Selection{
		Event:       q.Get("event"),
		SessionType: q.Get("session"),
		Drivers:     q["driver"],
	}
	if s := q.Get("season"); s != "" {
		season, err := strconv.Atoi(s)
		if err != nil || season <= 0 {
			return sel, errors.Wrapf(errBadRequest, "invalid season %q", s)
		}
		sel.Season = season
	}
	return sel, nil
}

func (m *Manager) seasonsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]int{"seasons": m.dashboard.Resolver().Seasons()})
}

func (m *Manager) eventsHandler(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if sel.Season == 0 {
		writeError(w, errors.Wrap(errBadRequest, "season is required"))
		return
	}
	events, err := m.dashboard.Resolver().ListEvents(r.Context(), sel.Season)
	if err != nil {
		writeError(w, sessions.Classify(err))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (m *Manager) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if sel.Season == 0 || sel.Event == "" {
		writeError(w, errors.Wrap(errBadRequest, "season and event are required"))
		return
	}
	resolver := m.dashboard.Resolver()
	event, err := resolver.FindEvent(r.Context(), sel.Season, sel.Event)
	if err != nil {
		writeError(w, sessions.Classify(err))
		return
	}
	options := []dashboard.Option{}
	for _, st := range resolver.ListSessionTypes(event) {
		options = append(options, dashboard.Option{Value: string(st), Label: st.Name()})
	}
	writeJSON(w, http.StatusOK, options)
}

func (m *Manager) viewHandler(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	view := m.dashboard.HandleSelectionChange(r.Context(), sel)
	writeJSON(w, statusFor(view.Kind), view)
}

func (m *Manager) chartHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	format, err := charts.ParseFormat(vars["format"])
	if err != nil {
		writeError(w, errors.Wrap(errBadRequest, err.Error()))
		return
	}
	sel, err := selectionFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(sel.Drivers) == 0 {
		writeError(w, errors.Wrap(errBadRequest, "at least one driver is required"))
		return
	}
	var spec model.ChartSpec
	if vars["chart"] == "telemetry" {
		spec, err = m.dashboard.TelemetryChart(r.Context(), sel)
	} else {
		spec, err = m.dashboard.LapChart(r.Context(), sel)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if spec.IsEmpty() {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "none of the selected drivers is in this session", Kind: sessions.KindDataUnavailable})
		return
	}

	buf := new(bytes.Buffer)
	if err := charts.Draw(spec, format, buf); err != nil {
		if errors.Cause(err) == charts.ErrEmptyChart {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "no laps to draw for the selected drivers", Kind: sessions.KindDataUnavailable})
			return
		}
		logrus.WithError(err).Error("Drawing chart")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(buf.Bytes())
}

func (m *Manager) reportHandler(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sel = m.dashboard.Normalize(r.Context(), sel)
	if sel.SessionType == "" {
		sel.SessionType = string(model.Race)
	}
	session, err := m.dashboard.LoadSession(r.Context(), sel)
	if err != nil {
		writeError(w, err)
		return
	}

	name := fmt.Sprintf("%d_%s_%s", session.Season, strings.ReplaceAll(session.Event.Name, " ", "_"), string(session.Info.Type))
	buf := new(bytes.Buffer)
	switch mux.Vars(r)["format"] {
	case "xlsx":
		err = report.WriteXLSX(buf, session)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		name += ".xlsx"
	default:
		drivers := sel.Drivers
		if len(drivers) == 0 {
			for _, d := range session.Drivers {
				drivers = append(drivers, d.Code)
			}
		}
		trace, terr := m.dashboard.FastestLaps(r.Context(), session, drivers)
		if terr != nil {
			logrus.WithError(terr).Warn("Report without telemetry")
			trace = model.TelemetryTrace{}
		}
		err = report.WriteText(buf, session, trace)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		name += ".txt"
	}
	if err != nil {
		logrus.WithError(err).Error("Writing report")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write(buf.Bytes())
}

// trackMapHandler builds the driving line of the fastest lap of one driver and
// redirects to the file.
func (m *Manager) trackMapHandler(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(sel.Drivers) != 1 {
		writeError(w, errors.Wrap(errBadRequest, "exactly one driver is required"))
		return
	}
	session, err := m.dashboard.LoadSession(r.Context(), m.dashboard.Normalize(r.Context(), sel))
	if err != nil {
		writeError(w, err)
		return
	}
	trace, err := m.dashboard.FastestLaps(r.Context(), session, sel.Drivers)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(trace) == 0 {
		writeError(w, errors.Wrapf(sessions.ErrDataUnavailable, "no telemetry for %s", sel.Drivers[0]))
		return
	}
	res, err := m.resources.BuildTrackMap(r.Context(), session, trace[0], r.URL.Query().Get("format") == "png")
	if err != nil {
		logrus.WithError(err).Error("Building track map")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	logrus.WithField("file", res.FilePath()).Debug("Track map ready")
	http.Redirect(w, r, res.URL(), http.StatusFound)
}

type cacheBody struct {
	Entries int            `json:"entries"`
	Bytes   uint64         `json:"bytes"`
	Kinds   map[string]int `json:"kinds"`
	Summary string         `json:"summary"`
}

func (m *Manager) cacheHandler(w http.ResponseWriter, r *http.Request) {
	if m.cache == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "cache disabled"})
		return
	}
	stats, err := m.cache.Stats()
	if err != nil {
		logrus.WithError(err).Error("Reading cache stats")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cacheBody{
		Entries: stats.Entries,
		Bytes:   stats.Bytes,
		Kinds:   stats.Kinds,
		Summary: stats.String(),
	})
}
