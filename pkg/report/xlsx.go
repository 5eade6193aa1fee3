package report

import (
	"fmt"
	"io"

	"f1visualizer/pkg/analysis"
	"f1visualizer/pkg/helper"
	"f1visualizer/pkg/model"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// WriteXLSX writes a summary sheet with the standings and one sheet per driver
// with every lap and its sectors.
func WriteXLSX(w io.Writer, session *model.Session) error {
	book := excelize.NewFile()
	defer book.Close()

	headerStyle, _ := book.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"1c399e"},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
		Font: &excelize.Font{
			Color: "ffffff",
			Bold:  true,
		},
	})
	bestLapStyle, _ := book.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"8b13c2"},
		},
		Font: &excelize.Font{
			Color: "ffffff",
		},
	})

	if err := book.SetSheetName("Sheet1", summarySheet); err != nil {
		return errors.Wrap(err, "report: naming summary sheet")
	}
	_ = book.SetCellValue(summarySheet, "A1", fmt.Sprintf("%s %d - %s", session.Event.Name, session.Season, session.Info.Type.Name()))
	header := []interface{}{tablePos, tableDriver, "Name", "Team", "Best", "Status"}
	if err := book.SetSheetRow(summarySheet, "A3", &header); err != nil {
		return errors.Wrap(err, "report: writing summary header")
	}
	_ = book.SetCellStyle(summarySheet, "A3", "F3", headerStyle)

	positions := analysis.Positions(session, nil)
	for i, p := range positions {
		cell, _ := excelize.CoordinatesToCellName(1, i+4)
		pos := interface{}("-")
		if p.Position > 0 {
			pos = p.Position
		}
		row := []interface{}{pos, p.Driver.Code, p.Driver.FullName, p.Driver.TeamName, helper.FormatLapTime(p.BestLap), p.Status}
		if err := book.SetSheetRow(summarySheet, cell, &row); err != nil {
			return errors.Wrapf(err, "report: writing standings of %s", p.Driver.Code)
		}
	}
	_ = book.SetColWidth(summarySheet, "C", "D", 22)

	for _, p := range positions {
		if err := writeDriverSheet(book, session, p.Driver, headerStyle, bestLapStyle); err != nil {
			return err
		}
	}

	if err := book.Write(w); err != nil {
		return errors.Wrap(err, "report: writing xlsx")
	}
	return nil
}

func writeDriverSheet(book *excelize.File, session *model.Session, d model.Driver, headerStyle, bestLapStyle int) error {
	sheet := d.Code
	if _, err := book.NewSheet(sheet); err != nil {
		return errors.Wrapf(err, "report: creating sheet %s", sheet)
	}
	header := []interface{}{tableLap, "Time", "Seconds", "S1", "S2", "S3", "Pit out", "Pit in", "Deleted"}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrapf(err, "report: writing header of %s", sheet)
	}
	_ = book.SetCellStyle(sheet, "A1", "I1", headerStyle)

	best, hasBest := analysis.FastestLap(session, d.Code)
	for i, l := range session.DriverLaps(d.Code) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			l.Number,
			helper.FormatLapTime(l.Time),
			seconds(l.Time > 0, helper.Seconds(l.Time)),
			helper.FormatSectorTime(l.Sector1),
			helper.FormatSectorTime(l.Sector2),
			helper.FormatSectorTime(l.Sector3),
			l.PitOut,
			l.PitIn,
			l.Deleted,
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "report: writing lap %d of %s", l.Number, sheet)
		}
		if hasBest && l.Number == best.Number {
			end, _ := excelize.CoordinatesToCellName(len(row), i+2)
			_ = book.SetCellStyle(sheet, cell, end, bestLapStyle)
		}
	}
	return nil
}

func seconds(ok bool, v float64) interface{} {
	if !ok {
		return ""
	}
	return v
}
