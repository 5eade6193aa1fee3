// Package report writes a full session summary, as plain text tables or as an
// xlsx workbook with one sheet per driver.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"f1visualizer/pkg/analysis"
	"f1visualizer/pkg/helper"
	"f1visualizer/pkg/model"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
)

const (
	tableLap    = "Lap"
	tablePos    = "Pos"
	tableDriver = "Driver"
)

// WriteText writes the event summary, the standings, the laps of every driver
// and the completion of the session. Telemetry statistics are added for the
// drivers present in trace.
func WriteText(w io.Writer, session *model.Session, trace model.TelemetryTrace) error {
	var b strings.Builder

	b.WriteString("EVENT SUMMARY\n")
	b.WriteString("=============\n")
	fmt.Fprintf(&b, "GP: %s | Year: %d | Session: %s\n", session.Event.Name, session.Season, session.Info.Type.Name())
	fmt.Fprintf(&b, "Date: %s | Track: %s | Country: %s\n\n",
		sessionDate(session).Format("2006-01-02"), session.Event.Circuit, session.Event.Country)

	positions := analysis.Positions(session, nil)

	b.WriteString("STANDINGS\n")
	b.WriteString("=========\n")
	b.WriteString(standingsTable(positions))
	b.WriteString("\n\n")

	b.WriteString("DRIVER LAP ANALYSIS\n")
	b.WriteString("===================\n")
	for _, p := range positions {
		writeDriver(&b, session, p.Driver, trace)
	}

	completed, total := analysis.Completion(session)
	b.WriteString("\nSESSION SUMMARY\n")
	b.WriteString("===============\n")
	ratio := 0.0
	if total > 0 {
		ratio = float64(completed) / float64(total) * 100
	}
	fmt.Fprintf(&b, "Completion: %d/%d laps (%.1f%%)\n", completed, total, ratio)
	fmt.Fprintf(&b, "\n%s\nGenerated: %s\n%s\n", strings.Repeat("=", 50), time.Now().Format("2006-01-02 15:04:05"), strings.Repeat("=", 50))

	_, err := io.WriteString(w, b.String())
	return errors.Wrap(err, "report: writing text")
}

func sessionDate(session *model.Session) time.Time {
	if !session.Info.Start.IsZero() {
		return session.Info.Start
	}
	return session.Event.Date
}

func standingsTable(positions []analysis.DriverPosition) string {
	var b strings.Builder
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{tablePos, tableDriver, "Team", "Best", "Status"})
	for _, p := range positions {
		pos := "-"
		if p.Position > 0 {
			pos = fmt.Sprintf("P%d", p.Position)
		}
		t.AppendRow(table.Row{pos, p.Driver.Code, p.Driver.TeamName, helper.FormatLapTime(p.BestLap), p.Status})
	}
	t.Render()
	return strings.TrimRight(b.String(), "\n")
}

func writeDriver(b *strings.Builder, session *model.Session, d model.Driver, trace model.TelemetryTrace) {
	fmt.Fprintf(b, "\n%s (#%d, %s)\n", d.FullName, d.Number, d.TeamName)
	b.WriteString(strings.Repeat("-", 40) + "\n")

	stats, _ := analysis.Stats(session, d.Code)
	if stats.Completed == 0 {
		b.WriteString("No timed laps\n")
		return
	}
	best := "No time"
	if stats.HasBest {
		best = fmt.Sprintf("%s (L%d)", helper.FormatLapTime(stats.Best.Time), stats.Best.Number)
	}
	fmt.Fprintf(b, "Best: %s | Avg: %s | Laps: %d/%d\n", best, helper.FormatLapTime(stats.Average), stats.Completed, stats.Laps)

	var tb strings.Builder
	t := table.NewWriter()
	t.SetOutputMirror(&tb)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{tableLap, "Time", "S1", "S2", "S3", ""})
	for _, l := range session.DriverLaps(d.Code) {
		if !l.HasTime() {
			continue
		}
		t.AppendRow(table.Row{
			l.Number,
			helper.FormatLapTime(l.Time),
			helper.FormatSectorTime(l.Sector1),
			helper.FormatSectorTime(l.Sector2),
			helper.FormatSectorTime(l.Sector3),
			lapFlags(l, stats.Best),
		})
	}
	t.Render()
	b.WriteString(tb.String())

	for _, ft := range trace {
		if ft.Driver.Code != d.Code {
			continue
		}
		s := analysis.TelemetryStats(ft.Samples)
		fmt.Fprintf(b, "Fastest lap telemetry: MaxSpd=%.0f | AvgSpd=%.0f | AvgThrottle=%.0f%% | BrakeUse=%.0f%% | DRS=%.0f%% | TopGear=%d\n",
			s.MaxSpeed, s.AvgSpeed, s.AvgThrottle, s.BrakeUse, s.DRSUse, s.TopGear)
	}
}

func lapFlags(l, best model.Lap) string {
	flags := []string{}
	if l.Number == best.Number && l.Time == best.Time {
		flags = append(flags, "fastest")
	}
	if l.PitOut {
		flags = append(flags, "out")
	}
	if l.PitIn {
		flags = append(flags, "in")
	}
	return strings.Join(flags, " ")
}
