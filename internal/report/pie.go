package report

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieChart is a plot.Plotter drawing filled wedges around the origin. The
// data range is a fixed square so the pie keeps its aspect in any canvas.
type pieChart struct {
	labels []string
	values []float64
}

func newPieChart(labels []string, values []float64) *pieChart {
	return &pieChart{labels: labels, values: values}
}

// Plot implements plot.Plotter.
func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	center := vg.Point{X: trX(0), Y: trY(0)}
	radius := min(trX(1)-trX(0), trY(1)-trY(0))

	total := 0.0
	for _, v := range pc.values {
		if drawable(v) {
			total += v
		}
	}
	if total <= 0 || radius <= 0 {
		return
	}

	style := plt.Title.TextStyle
	style.Font.Size = vg.Points(11)
	style.XAlign = text.XCenter
	style.YAlign = text.YCenter

	start := math.Pi / 2
	for i, v := range pc.values {
		if !drawable(v) {
			continue
		}
		sweep := 2 * math.Pi * v / total

		var wedge vg.Path
		wedge.Move(center)
		wedge.Arc(center, radius, start, sweep)
		wedge.Close()
		c.SetColor(plotutil.Color(i))
		c.Fill(wedge)

		mid := start + sweep/2
		at := func(scale float64) vg.Point {
			return vg.Point{
				X: center.X + radius*vg.Length(scale*math.Cos(mid)),
				Y: center.Y + radius*vg.Length(scale*math.Sin(mid)),
			}
		}
		c.FillText(style, at(0.6), fmt.Sprintf("%.1f%%", 100*v/total))
		if i < len(pc.labels) {
			c.FillText(style, at(1.15), pc.labels[i])
		}

		start += sweep
	}
}

// drawable reports whether v gets a wedge.
func drawable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// DataRange implements plot.DataRanger.
func (pc *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1.35, 1.35, -1.35, 1.35
}
