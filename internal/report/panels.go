package report

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

var (
	barFill   = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	barStroke = color.RGBA{B: 128, A: 255}
)

// Placeholder messages.
const (
	msgInsufficientData = "Dados insuficientes para gráfico"
	msgUnsupportedData  = "Formato de dados não suportado para gráfico."
)

func newPanel(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func rotateXTicks(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
}

func barWidth(n int) vg.Length {
	w := vg.Points(600) / vg.Length(max(n, 1))
	return min(w, vg.Points(28))
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// barPanel draws one bar per label with its value printed above it.
func barPanel(title, xLabel, yLabel string, labels []string, values []float64) (*plot.Plot, error) {
	if len(values) == 0 {
		return placeholderPanel(title, msgInsufficientData), nil
	}

	p := newPanel(title, xLabel, yLabel)

	bars, err := plotter.NewBarChart(plotter.Values(values), barWidth(len(values)))
	if err != nil {
		return nil, fmt.Errorf("failed to build bars: %w", err)
	}
	bars.Color = barFill
	bars.LineStyle.Color = barStroke
	p.Add(bars)

	xys := make(plotter.XYs, len(values))
	texts := make([]string, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v}
		texts[i] = formatValue(v)
	}
	labelsPlot, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to build value labels: %w", err)
	}
	for i := range labelsPlot.TextStyle {
		labelsPlot.TextStyle[i].XAlign = text.XCenter
		labelsPlot.TextStyle[i].YAlign = text.YBottom
	}
	labelsPlot.Offset = vg.Point{Y: vg.Points(3)}
	p.Add(labelsPlot)

	p.NominalX(labels...)
	rotateXTicks(p)
	return p, nil
}

// linePanel draws values in label order connected by a line with markers.
func linePanel(title, xLabel, yLabel string, labels []string, values []float64) (*plot.Plot, error) {
	if len(values) == 0 {
		return placeholderPanel(title, msgInsufficientData), nil
	}

	p := newPanel(title, xLabel, yLabel)

	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v}
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to build line: %w", err)
	}
	line.Color = barStroke
	points.Color = barStroke
	p.Add(line, points)

	p.NominalX(labels...)
	rotateXTicks(p)
	return p, nil
}

// piePanel draws the share of each label with percentages.
func piePanel(title string, labels []string, values []float64) *plot.Plot {
	total := 0.0
	for _, v := range values {
		if drawable(v) {
			total += v
		}
	}
	if total <= 0 || math.IsInf(total, 0) {
		return placeholderPanel(title, msgInsufficientData)
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.HideAxes()
	p.Add(newPieChart(labels, values))
	return p
}

// histogramPanel draws the distribution of one numeric column.
func histogramPanel(title, column string, values []float64) (*plot.Plot, error) {
	p := newPanel(title, column, "Frequência")

	hist, err := plotter.NewHist(plotter.Values(values), 10)
	if err != nil {
		return nil, fmt.Errorf("failed to build histogram: %w", err)
	}
	hist.FillColor = barFill
	hist.LineStyle.Color = barStroke
	p.Add(hist)
	return p, nil
}

// boxPanel draws one box per column.
func boxPanel(title string, columns []string, series [][]float64) (*plot.Plot, error) {
	p := newPanel(title, "", "Valor do Atributo")

	for i, values := range series {
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(values))
		if err != nil {
			return nil, fmt.Errorf("failed to build box for %s: %w", columns[i], err)
		}
		box.FillColor = plotutil.Color(i)
		p.Add(box)
	}

	p.NominalX(columns...)
	return p, nil
}

// placeholderPanel is an axis-less panel carrying a single centered message.
func placeholderPanel(title, message string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0.5, Y: 0.5}},
		Labels: []string{message},
	})
	if err == nil {
		labels.TextStyle[0].XAlign = text.XCenter
		labels.TextStyle[0].YAlign = text.YCenter
		labels.TextStyle[0].Font.Size = vg.Points(14)
		p.Add(labels)
	}

	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	return p
}
