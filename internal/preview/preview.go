// Package preview draws tracks onto a Web Mercator raster fitted to their extent.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/encode"
	"github.com/pspoerri/tra2kml/internal/track"
)

// ErrNothingToDraw is returned when no line has a resolved point.
var ErrNothingToDraw = errors.New("preview: no points to draw")

const maxDimension = 4096

// Line is one polyline to draw.
type Line struct {
	Name   string
	Color  track.Color
	Points []coord.GeographicPoint
}

// Options configure the raster.
type Options struct {
	Width      int
	Height     int
	Padding    int // pixels kept free around the tracks
	LineWidth  int
	MaxZoom    int
	Background color.NRGBA
}

func DefaultOptions() Options {
	return Options{
		Width:      1200,
		Height:     800,
		Padding:    24,
		LineWidth:  5,
		MaxZoom:    18,
		Background: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width == 0 {
		o.Width = d.Width
	}
	if o.Height == 0 {
		o.Height = d.Height
	}
	if o.Padding == 0 {
		o.Padding = d.Padding
	}
	if o.LineWidth <= 0 {
		o.LineWidth = d.LineWidth
	}
	if o.MaxZoom <= 0 {
		o.MaxZoom = d.MaxZoom
	}
	if o.Background == (color.NRGBA{}) {
		o.Background = d.Background
	}
	return o
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 || o.Width > maxDimension || o.Height > maxDimension {
		return fmt.Errorf("preview: size %dx%d outside 1..%d", o.Width, o.Height, maxDimension)
	}
	if o.Padding < 0 || 2*o.Padding >= o.Width || 2*o.Padding >= o.Height {
		return fmt.Errorf("preview: padding %d does not fit %dx%d", o.Padding, o.Width, o.Height)
	}
	return nil
}

// Render draws lines in order, later lines on top. Single-point lines are
// drawn as a dot.
func Render(lines []Line, opts Options) (*image.RGBA, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var all []coord.GeographicPoint
	for _, l := range lines {
		all = append(all, l.Points...)
	}
	env, ok := coord.BoundsOf(all)
	if !ok {
		return nil, ErrNothingToDraw
	}

	ts := coord.DefaultTileSize
	zoom := coord.ZoomToFit(env, opts.Width-2*opts.Padding, opts.Height-2*opts.Padding, ts, opts.MaxZoom)
	x0, y0 := coord.LonLatToPixel(env.MinLon, env.MaxLat, zoom, ts)
	x1, y1 := coord.LonLatToPixel(env.MaxLon, env.MinLat, zoom, ts)
	offX := float64(opts.Width)/2 - (x0+x1)/2
	offY := float64(opts.Height)/2 - (y0+y1)/2

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	for _, l := range lines {
		if len(l.Points) == 0 {
			continue
		}
		src := image.NewUniform(l.Color.NRGBA(0xff))
		pts := make([]image.Point, len(l.Points))
		for i, p := range l.Points {
			px, py := coord.LonLatToPixel(p.Lon, p.Lat, zoom, ts)
			pts[i] = image.Pt(int(math.Round(px+offX)), int(math.Round(py+offY)))
		}
		if len(pts) == 1 {
			stamp(img, pts[0], 2*opts.LineWidth, src)
			continue
		}
		for i := 1; i < len(pts); i++ {
			segment(img, pts[i-1], pts[i], opts.LineWidth, src)
		}
	}
	return img, nil
}

// Encode renders lines and encodes the raster with enc.
func Encode(lines []Line, opts Options, enc encode.Encoder) ([]byte, error) {
	img, err := Render(lines, opts)
	if err != nil {
		return nil, err
	}
	data, err := enc.Encode(img)
	if err != nil {
		return nil, fmt.Errorf("preview: encoding %s: %w", enc.Format(), err)
	}
	return data, nil
}

// stamp fills a size x size square centred on p.
func stamp(img draw.Image, p image.Point, size int, src image.Image) {
	h := size / 2
	r := image.Rect(p.X-h, p.Y-h, p.X-h+size, p.Y-h+size)
	draw.Draw(img, r, src, image.Point{}, draw.Over)
}

// segment draws a thick line with Bresenham's algorithm.
func segment(img draw.Image, a, b image.Point, width int, src image.Image) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	bounds := img.Bounds().Inset(-width)
	err := dx + dy
	for p := a; ; {
		if p.In(bounds) {
			stamp(img, p, width, src)
		}
		if p == b {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// TrackLines returns the whole track in red with the selection in green on top.
func TrackLines(t *track.Track, selected []int) ([]Line, error) {
	lines := []Line{{Name: t.Name, Color: track.Red, Points: t.Points()}}
	if len(selected) > 0 {
		sel, err := t.SelectedPoints(selected)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{Name: t.Name + " (selection)", Color: track.Green, Points: sel})
	}
	return lines, nil
}

// EntryLines returns one line per batch entry in its color.
func EntryLines(entries []track.Entry) []Line {
	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		var pts []coord.GeographicPoint
		if e.Track != nil {
			pts = e.Track.Points()
		}
		lines = append(lines, Line{Name: e.Name, Color: e.Color, Points: pts})
	}
	return lines
}
