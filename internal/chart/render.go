package chart

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/DenseView/internal/config"
)

const (
	// Role is the accessibility role announced for the chart
	Role = "application"

	DefaultAriaLabel   = "A bar chart showing data"
	DefaultLabelPrefix = "Class"
	DefaultColor       = "#2563eb"
)

// eighths of a cell, index 0 is empty
var partialBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Options controls series labelling and drawing
type Options struct {
	Height      int
	BarWidth    int
	Gap         int
	Color       string
	GridLines   int
	LabelPrefix string
	AriaLabel   string
	MinClasses  int
	MaxClasses  int

	// Focus is the index of the bar whose tooltip is shown, -1 for none
	Focus   int
	NoColor bool
}

// DefaultOptions mirrors config.DefaultConfig
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

// OptionsFromConfig builds options from the chart and predict sections
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Height:      cfg.Chart.Height,
		BarWidth:    cfg.Chart.BarWidth,
		Gap:         cfg.Chart.Gap,
		Color:       cfg.Chart.Color,
		GridLines:   cfg.Chart.GridLines,
		LabelPrefix: cfg.Chart.LabelPrefix,
		AriaLabel:   cfg.Chart.AriaLabel,
		MinClasses:  cfg.Predict.MinClasses,
		MaxClasses:  cfg.Predict.MaxClasses,
		Focus:       -1,
	}
}

// Chart is a drawable bar chart
type Chart struct {
	Role      string
	AriaLabel string
	Bars      []Bar

	opts Options
}

// New creates a chart for series
func New(series []Bar, opts Options) *Chart {
	if opts.Height < 2 {
		opts.Height = 2
	}
	if opts.BarWidth < 1 {
		opts.BarWidth = 1
	}
	if opts.Gap < 0 {
		opts.Gap = 0
	}
	if opts.Color == "" {
		opts.Color = DefaultColor
	}
	label := opts.AriaLabel
	if label == "" {
		label = DefaultAriaLabel
	}
	return &Chart{
		Role:      Role,
		AriaLabel: label,
		Bars:      series,
		opts:      opts,
	}
}

// Render draws series; an empty series renders nothing
func Render(series []Bar, opts Options) string {
	return New(series, opts).Render()
}

// Tooltip returns the label of the focused bar, or "" when nothing is focused
func (c *Chart) Tooltip() string {
	if c.opts.Focus < 0 || c.opts.Focus >= len(c.Bars) {
		return ""
	}
	return c.Bars[c.opts.Focus].Label
}

// Width returns the drawn width in cells
func (c *Chart) Width() int {
	n := len(c.Bars)
	if n == 0 {
		return 0
	}
	return n*c.opts.BarWidth + (n-1)*c.opts.Gap
}

// Render draws the chart: title, bars over gridlines, baseline, labels and tooltip
func (c *Chart) Render() string {
	if len(c.Bars) == 0 {
		return ""
	}

	drawBar := c.paint(lipgloss.NewStyle().Foreground(lipgloss.Color(c.opts.Color)))
	drawGrid := c.paint(lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}))

	height := c.opts.Height
	scale := 1.0
	for _, b := range c.Bars {
		scale = math.Max(scale, b.Score)
	}

	fill := make([]int, len(c.Bars))
	for i, b := range c.Bars {
		score := math.Max(b.Score, 0)
		fill[i] = int(math.Round(score / scale * float64(height*8)))
	}

	grid := c.gridRows()
	var out strings.Builder
	out.WriteString(c.AriaLabel)
	out.WriteString("\n")

	for r := 0; r < height; r++ {
		level := height - 1 - r
		background := " "
		if grid[r] {
			background = "─"
		}
		for i := range c.Bars {
			if i > 0 {
				out.WriteString(drawGrid(strings.Repeat(background, c.opts.Gap)))
			}
			eighths := fill[i] - level*8
			switch {
			case eighths <= 0:
				out.WriteString(drawGrid(strings.Repeat(background, c.opts.BarWidth)))
			case eighths >= 8:
				out.WriteString(drawBar(strings.Repeat(partialBlocks[8], c.opts.BarWidth)))
			default:
				out.WriteString(drawBar(strings.Repeat(partialBlocks[eighths], c.opts.BarWidth)))
			}
		}
		out.WriteString("\n")
	}

	out.WriteString(drawGrid(strings.Repeat("─", c.Width())))
	out.WriteString("\n")
	out.WriteString(c.labelRow())

	if tip := c.Tooltip(); tip != "" {
		out.WriteString("\n")
		out.WriteString(c.focusRow())
		out.WriteString("\n")
		out.WriteString(tip)
	}

	return out.String()
}

func (c *Chart) paint(style lipgloss.Style) func(string) string {
	if c.opts.NoColor {
		return func(s string) string { return s }
	}
	return func(s string) string { return style.Render(s) }
}

// gridRows marks the rows carrying a horizontal gridline, top row included
func (c *Chart) gridRows() []bool {
	rows := make([]bool, c.opts.Height)
	for g := 1; g <= c.opts.GridLines; g++ {
		offset := g * c.opts.Height / c.opts.GridLines
		if offset == 0 {
			continue
		}
		rows[c.opts.Height-offset] = true
	}
	return rows
}

func (c *Chart) labelRow() string {
	cells := make([]string, len(c.Bars))
	for i, b := range c.Bars {
		cells[i] = center(truncate(b.Label, c.opts.BarWidth), c.opts.BarWidth)
	}
	return strings.Join(cells, strings.Repeat(" ", c.opts.Gap))
}

func (c *Chart) focusRow() string {
	cells := make([]string, len(c.Bars))
	for i := range c.Bars {
		marker := ""
		if i == c.opts.Focus {
			marker = "▲"
		}
		cells[i] = center(marker, c.opts.BarWidth)
	}
	return strings.Join(cells, strings.Repeat(" ", c.opts.Gap))
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width])
}

// center pads s to width, the odd cell going to the right
func center(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
