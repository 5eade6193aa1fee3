package charts

import (
	"io"
	"math"
	"strings"

	"f1visualizer/pkg/helper"
	"f1visualizer/pkg/model"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrEmptyChart = errors.New("charts: nothing to draw")

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case SVG:
		return SVG, nil
	case PNG:
		return PNG, nil
	}
	return "", errors.Errorf("charts: unknown format %q", s)
}

func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

const (
	width  = 1024
	height = 480
)

// palette for drivers without a team colour
var fallbackColors = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	chart.ColorAlternateGray,
}

// Draw renders spec to w. Specs without points yield ErrEmptyChart.
func Draw(spec model.ChartSpec, format Format, w io.Writer) error {
	series := []chart.Series{}
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for i, s := range spec.Series {
		n := len(s.X)
		if len(s.Y) < n {
			n = len(s.Y)
		}
		if n == 0 {
			continue
		}
		xs := append([]float64(nil), s.X[:n]...)
		ys := append([]float64(nil), s.Y[:n]...)
		// go-chart needs an x range, pad single points
		if n == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		for _, y := range ys {
			yMin = math.Min(yMin, y)
			yMax = math.Max(yMax, y)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   seriesStyle(s.Color, i),
		})
	}
	if len(series) == 0 {
		return ErrEmptyChart
	}
	if yMin == yMax {
		yMin, yMax = yMin-1, yMax+1
	}
	margin := (yMax - yMin) * 0.05

	yAxis := chart.YAxis{
		Name:  spec.YTitle,
		Range: &chart.ContinuousRange{Min: yMin - margin, Max: yMax + margin},
	}
	if spec.YTitle == lapTimeAxisTitle {
		yAxis.ValueFormatter = lapTimeFormatter
	}
	ch := chart.Chart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: spec.XTitle},
		YAxis:      yAxis,
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	provider := chart.SVG
	if format == PNG {
		provider = chart.PNG
	}
	if err := ch.Render(provider, w); err != nil {
		return errors.Wrapf(err, "charts: rendering %q", spec.Title)
	}
	return nil
}

func seriesStyle(hex string, i int) chart.Style {
	col := fallbackColors[i%len(fallbackColors)]
	if hex = strings.TrimPrefix(hex, "#"); len(hex) == 6 {
		col = drawing.ColorFromHex(hex)
	}
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    2,
	}
}

func lapTimeFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return helper.FormatLapTime(helper.FromSeconds(f))
	}
	return ""
}
