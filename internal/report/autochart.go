package report

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/metrics"
)

// DefaultChartTitle titles charts drawn without an explicit title.
const DefaultChartTitle = "Gráfico Gerado Automaticamente"

const (
	msgAmbiguous = "Especificação de plotagem ambígua ou não suportada. " +
		"Detalhe melhor (ex: 'apenas hp', 'diferenca do hp')."
	noticeTitle = "Aviso"
)

// ChartOptions tune a single AutoChart call.
type ChartOptions struct {
	Kind        ChartKind
	Title       string
	Instruction string
	// OutputPath overrides the generated timestamped path.
	OutputPath string
}

// Resolution is the outcome of applying the instruction rules to a table.
type Resolution struct {
	Panel *plot.Plot
	Rule  string
	Note  string
	OK    bool
}

// ChartMaker renders charts for arbitrary payloads.
type ChartMaker struct {
	logger   *slog.Logger
	now      func() time.Time
	dir      string
	rules    []Rule
	renderer Renderer
}

// NewChartMaker creates a maker writing generated charts under dir.
func NewChartMaker(renderer Renderer, dir string, logger *slog.Logger) *ChartMaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartMaker{
		renderer: renderer,
		dir:      dir,
		logger:   logger,
		rules:    DefaultRules(),
		now:      time.Now,
	}
}

// WithRules appends extra rules after the built-in ones.
func (m *ChartMaker) WithRules(rules ...Rule) *ChartMaker {
	m.rules = append(m.rules, rules...)
	return m
}

// Resolve applies the first rule matching instruction. When no rule matches,
// or the matching rule lacks its columns, the returned panel is a placeholder
// and OK is false.
func (m *ChartMaker) Resolve(t Table, instruction string) (Resolution, error) {
	normalized := normalizeInstruction(instruction)

	for _, rule := range m.rules {
		if !rule.Match(normalized) {
			continue
		}

		panel, err := rule.Render(t)
		if err == nil {
			return Resolution{Panel: panel, Rule: rule.Name, OK: true}, nil
		}
		if errors.Is(err, ErrMissingColumn) {
			note := fmt.Sprintf("Não foi possível gerar o gráfico: %v.", err)
			return Resolution{
				Panel: placeholderPanel(noticeTitle, note),
				Rule:  rule.Name,
				Note:  note,
			}, nil
		}
		return Resolution{}, fmt.Errorf("rule %s: %w", rule.Name, err)
	}

	return Resolution{Panel: placeholderPanel(noticeTitle, msgAmbiguous), Note: msgAmbiguous}, nil
}

// AutoChart draws payload and writes a PNG, returning the path written. A
// panic while building or drawing the chart is returned as ErrRender with no
// path.
func (m *ChartMaker) AutoChart(payload Payload, opts ChartOptions) (path string, err error) {
	if opts.Kind == "" {
		opts.Kind = KindBar
	}

	path = opts.OutputPath
	if path == "" {
		path = filepath.Join(m.dir, fmt.Sprintf("grafico_%s.png", m.now().Format("20060102_150405")))
	}

	defer func() {
		if rec := recover(); rec != nil {
			metrics.ChartsRendered.WithLabelValues(string(opts.Kind), metrics.OutcomeFailure).Inc()
			m.logger.Error("Chart rendering panicked", "payload", payload.Kind().String(), "panic", rec)
			path, err = "", fmt.Errorf("%w: %v", ErrRender, rec)
		}
	}()

	panels, err := m.panels(payload, opts)
	if err == nil {
		err = m.renderer.Save(path, panels...)
	}
	if err != nil {
		metrics.ChartsRendered.WithLabelValues(string(opts.Kind), metrics.OutcomeFailure).Inc()
		m.logger.Error("Failed to generate chart", "payload", payload.Kind().String(), "error", err)
		return "", err
	}

	metrics.ChartsRendered.WithLabelValues(string(opts.Kind), metrics.OutcomeSuccess).Inc()
	m.logger.Info("Chart saved", "path", path, "payload", payload.Kind().String(), "kind", opts.Kind)
	return path, nil
}

func (m *ChartMaker) panels(payload Payload, opts ChartOptions) ([]*plot.Plot, error) {
	title := opts.Title
	if title == "" {
		title = DefaultChartTitle
	}

	switch payload.Kind() {
	case PayloadTable:
		t := payload.Table()
		if opts.Instruction == "" {
			p, err := tableProjection(t, opts.Kind, title)
			return []*plot.Plot{p}, err
		}

		res, err := m.Resolve(t, opts.Instruction)
		if err != nil {
			return nil, err
		}
		if res.OK {
			if opts.Title != "" {
				res.Panel.Title.Text = opts.Title
			}
			return []*plot.Plot{res.Panel}, nil
		}

		m.logger.Warn("Instruction not applied, using default projection",
			"instruction", opts.Instruction,
			"rule", res.Rule,
			"reason", res.Note)
		p, err := tableProjection(t, opts.Kind, title)
		return []*plot.Plot{res.Panel, p}, err

	case PayloadMapping:
		mp := payload.Mapping()
		p, err := projection(mp.Keys(), mp.Numbers(), opts.Kind, title, "", "")
		return []*plot.Plot{p}, err

	default:
		return []*plot.Plot{placeholderPanel(title, msgUnsupportedData)}, nil
	}
}

// tableProjection draws the first column against the second coerced to
// numbers.
func tableProjection(t Table, kind ChartKind, title string) (*plot.Plot, error) {
	if len(t.Columns) < 2 {
		return placeholderPanel(title, msgInsufficientData), nil
	}
	return projection(t.Strings(0), t.Numbers(1), kind, title, t.Columns[0], t.Columns[1])
}

func projection(labels []string, values []float64, kind ChartKind, title, xLabel, yLabel string) (*plot.Plot, error) {
	switch kind {
	case KindPie:
		return piePanel(title, labels, values), nil
	case KindLine:
		return linePanel(title, xLabel, yLabel, labels, values)
	default:
		return barPanel(title, xLabel, yLabel, labels, values)
	}
}
