package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ChartKind selects how a two-column projection is drawn.
type ChartKind string

// Supported chart kinds.
const (
	KindBar  ChartKind = "bar"
	KindPie  ChartKind = "pie"
	KindLine ChartKind = "line"
)

// ParseKind maps a kind hint, English or Portuguese, to a ChartKind.
// Unknown or empty hints select a bar chart.
func ParseKind(hint string) ChartKind {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "pie", "pizza":
		return KindPie
	case "line", "linha":
		return KindLine
	default:
		return KindBar
	}
}

// ErrRender wraps failures raised while drawing a figure.
var ErrRender = errors.New("chart rendering failed")

// Renderer writes plots as PNG images of a fixed size.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// NewRenderer builds a renderer for a figure of the given size in inches.
func NewRenderer(widthIn, heightIn float64, dpi int) Renderer {
	return Renderer{
		Width:  vg.Length(widthIn) * vg.Inch,
		Height: vg.Length(heightIn) * vg.Inch,
		DPI:    dpi,
	}
}

// Save draws the panels stacked vertically and writes the PNG to path. The
// file is removed again when writing fails.
func (r Renderer) Save(path string, panels ...*plot.Plot) (err error) {
	if len(panels) == 0 {
		return fmt.Errorf("%w: nothing to draw", ErrRender)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrRender, rec)
		}
	}()

	canvas := vgimg.NewWith(vgimg.UseWH(r.Width, r.Height), vgimg.UseDPI(r.DPI))
	dc := draw.New(canvas)

	if len(panels) == 1 {
		panels[0].Draw(dc)
	} else {
		grid := make([][]*plot.Plot, len(panels))
		for i, p := range panels {
			grid[i] = []*plot.Plot{p}
		}
		tiles := draw.Tiles{
			Rows: len(panels),
			Cols: 1,
			PadY: vg.Points(12),
		}
		canvases := plot.Align(grid, tiles, dc)
		for i := range grid {
			grid[i][0].Draw(canvases[i][0])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // path comes from config or the caller
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
