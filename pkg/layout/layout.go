// Package layout draws the outline of a circuit from the position samples of a lap.
package layout

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"f1visualizer/pkg/model"

	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/llgcode/draw2d/draw2dsvg"
	"github.com/pkg/errors"
)

const (
	SizeSVG = 800.0
	SizePNG = 320.0
	margin  = 24.0
)

var (
	mu = sync.Mutex{}

	ErrNoPositions = errors.New("layout: lap has no position samples")
)

// Metadata describes how circuit coordinates map to image pixels. It is
// appended to svg files so the page can place markers on the map.
type Metadata struct {
	MinX   float64 `json:"minX"`
	MaxX   float64 `json:"maxX"`
	MinY   float64 `json:"minY"`
	MaxY   float64 `json:"maxY"`
	Scale  float64 `json:"scale"`
	Rotate bool    `json:"rotate"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// project converts circuit coordinates to pixels, y pointing down.
func (m Metadata) project(x, y float64) (float64, float64) {
	px := (x-m.MinX)*m.Scale + margin
	py := (y-m.MinY)*m.Scale + margin
	if m.Rotate {
		px, py = py, px
	}
	return px, m.Height - py
}

func getTrackSize(samples []model.Sample, size float64) (Metadata, image.Rectangle, error) {
	m := Metadata{
		MinX: math.Inf(1),
		MaxX: math.Inf(-1),
		MinY: math.Inf(1),
		MaxY: math.Inf(-1),
	}
	points := 0
	for _, s := range samples {
		if s.X == 0 && s.Y == 0 {
			continue
		}
		points++
		m.MinX = math.Min(m.MinX, s.X)
		m.MaxX = math.Max(m.MaxX, s.X)
		m.MinY = math.Min(m.MinY, s.Y)
		m.MaxY = math.Max(m.MaxY, s.Y)
	}
	if points < 2 {
		return m, image.Rectangle{}, ErrNoPositions
	}

	spanX := m.MaxX - m.MinX
	spanY := m.MaxY - m.MinY
	// landscape output
	if spanX < spanY {
		m.Rotate = true
		spanX, spanY = spanY, spanX
	}
	if spanX == 0 {
		return m, image.Rectangle{}, ErrNoPositions
	}
	m.Scale = (size - 2*margin) / spanX
	m.Width = size
	m.Height = math.Ceil(spanY*m.Scale + 2*margin)

	return m, image.Rect(0, 0, int(m.Width), int(m.Height)), nil
}

func BuildLayoutPNG(path string, samples []model.Sample, teamColor string) error {
	mu.Lock()
	defer mu.Unlock()
	m, rect, err := getTrackSize(samples, SizePNG)
	if err != nil {
		return err
	}

	dest := image.NewRGBA(rect)
	gc := draw2dimg.NewGraphicContext(dest)
	gc.SetFillColor(color.White)
	draw2dkit.Rectangle(gc, 0, 0, m.Width, m.Height)
	gc.Fill()

	drawImage(gc, samples, m, parseColor(teamColor), 0.5)
	return errors.Wrap(draw2dimg.SaveToPngFile(path, dest), "layout: saving png")
}

func BuildLayoutSVG(path string, samples []model.Sample, teamColor string) error {
	mu.Lock()
	defer mu.Unlock()
	m, _, err := getTrackSize(samples, SizeSVG)
	if err != nil {
		return err
	}

	dest := draw2dsvg.NewSvg()
	gc := draw2dsvg.NewGraphicContext(dest)

	drawImage(gc, samples, m, parseColor(teamColor), 1)
	if err := draw2dsvg.SaveToSvgFile(path, dest); err != nil {
		return errors.Wrap(err, "layout: saving svg")
	}

	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	buffer := new(bytes.Buffer)
	if err := json.Compact(buffer, jsonBytes); err != nil {
		return err
	}

	// append metadata to svg file as comments in the xml
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, _ = f.Write([]byte("\n<!--\n"))
	_, _ = f.Write(buffer.Bytes())
	_, err = f.Write([]byte("\n-->"))

	return err
}

// drawImage strokes the track in grey, the driving line in the team colour and
// marks where the lap starts.
func drawImage(gc draw2d.GraphicContext, samples []model.Sample, m Metadata, line color.Color, strokeScale float64) {
	trace := func() (float64, float64) {
		initX, initY := 0.0, 0.0
		started := false
		for _, s := range samples {
			if s.X == 0 && s.Y == 0 {
				continue
			}
			x, y := m.project(s.X, s.Y)
			if !started {
				gc.MoveTo(x, y)
				initX, initY = x, y
				started = true
			} else {
				gc.LineTo(x, y)
			}
		}
		return initX, initY
	}

	gc.Save()
	gc.SetStrokeColor(color.RGBA{0x88, 0x88, 0x88, 0xff})
	gc.SetLineWidth(14 * strokeScale)
	gc.SetLineCap(draw2d.RoundCap)
	gc.SetLineJoin(draw2d.RoundJoin)
	trace()
	gc.Stroke()
	gc.Restore()

	gc.Save()
	gc.SetStrokeColor(line)
	gc.SetLineWidth(4 * strokeScale)
	startX, startY := trace()
	gc.Stroke()
	gc.Restore()

	gc.Save()
	gc.SetFillColor(color.RGBA{0x00, 0x00, 0x00, 0xff})
	draw2dkit.Circle(gc, startX, startY, 8*strokeScale)
	gc.Fill()
	gc.Restore()
}

// parseColor reads a RRGGBB team colour, black when missing or malformed.
func parseColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return color.RGBA{0x00, 0x00, 0x00, 0xff}
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}
