package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yildizm/DenseView/internal/chart"
	"github.com/yildizm/DenseView/internal/config"
	"github.com/yildizm/DenseView/internal/emoji"
	"github.com/yildizm/DenseView/internal/logger"
	"github.com/yildizm/DenseView/internal/preview"
	"github.com/yildizm/DenseView/internal/selector"
	"github.com/yildizm/DenseView/internal/store"
	"github.com/yildizm/DenseView/internal/upload"
	"github.com/yildizm/DenseView/internal/watch"
)

const (
	headerTitle   = "Radiology Interface"
	uploadTitle   = "Upload Medical Image"
	resultsTitle  = "Prediction Results"
	noFileNotice  = "Select an image before submitting"
	maxPanelWidth = 96

	// frame and box border plus padding on both sides
	thumbMargin = 12
)

// PanelOptions wires the panel to its collaborators
type PanelOptions struct {
	Config     *config.Config
	Controller *upload.Controller
	Logger     *logger.Logger

	// Watcher is optional; files it reports are loaded and selected
	Watcher    *watch.Watcher
	AutoSubmit bool
	NoColor    bool

	// Thumbnail of a file selected before the panel starts
	Thumbnail *preview.Thumbnail
}

// PanelModel is the interactive upload and results panel
type PanelModel struct {
	ctx     context.Context
	ctrl    *upload.Controller
	cfg     *config.Config
	logger  *logger.Logger
	watcher *watch.Watcher
	styles  *Styles

	input   textinput.Model
	spinner spinner.Model
	thumb   *preview.Thumbnail

	width      int
	height     int
	focus      int
	uploadName string
	notice     string
	noticeErr  bool
	autoSubmit bool
	noColor    bool
	quitting   bool
}

// NewPanel creates the panel model
func NewPanel(ctx context.Context, opts PanelOptions) *PanelModel {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	styles := GetStyles()

	input := textinput.New()
	input.Placeholder = "path/to/image.png"
	input.Prompt = emoji.GetEmoji("folder") + " "
	input.CharLimit = 4096
	input.Width = 48

	spin := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Spinner))

	m := &PanelModel{
		ctx:        ctx,
		ctrl:       opts.Controller,
		cfg:        cfg,
		logger:     log,
		watcher:    opts.Watcher,
		styles:     styles,
		input:      input,
		spinner:    spin,
		thumb:      opts.Thumbnail,
		focus:      -1,
		autoSubmit: opts.AutoSubmit,
		noColor:    opts.NoColor || IsColorDisabled(),
	}

	if _, ok := m.ctrl.Selector().Current(); !ok {
		m.input.Focus()
	}
	return m
}

// Init starts the cursor blink and the directory watch
func (m *PanelModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.watcher != nil {
		cmds = append(cmds, WaitForFileCommand(m.ctx, m.watcher))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and navigation
func (m *PanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	case fileLoadedMsg:
		return m.handleFileLoaded(msg)
	case fileErrorMsg:
		return m.handleFileError(msg)
	case predictionMsg:
		return m.handlePrediction(msg)
	case watchFileMsg:
		return m.handleWatchFile(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *PanelModel) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	return m, nil
}

func (m *PanelModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.handleQuit()
	}
	if m.input.Focused() {
		return m.handleInputKey(msg)
	}

	switch msg.String() {
	case "q":
		return m.handleQuit()
	case "tab", "o", "/":
		m.input.Focus()
		return m, textinput.Blink
	case "s", "enter":
		return m.handleSubmit()
	case "left", "h":
		return m.handleMoveFocus(-1)
	case "right", "l":
		return m.handleMoveFocus(1)
	case "esc":
		m.focus = -1
	}
	return m, nil
}

// handleInputKey routes keys while the path input has focus
func (m *PanelModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		if path == "" {
			return m, nil
		}
		m.input.SetValue("")
		return m, LoadFileCommand(path, m.cfg.Predict.MaxUploadBytes, false)
	case "esc", "tab":
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *PanelModel) handleQuit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

// handleSubmit starts an upload. Without a selected file nothing is sent and the store is left alone.
func (m *PanelModel) handleSubmit() (tea.Model, tea.Cmd) {
	ticket, ok := m.ctrl.Begin()
	if !ok {
		m.setNotice(noFileNotice, false)
		return m, nil
	}
	m.setNotice("", false)
	m.uploadName = ticket.File.Name
	return m, tea.Batch(m.spinner.Tick, SubmitCommand(m.ctx, m.ctrl, ticket))
}

func (m *PanelModel) handleMoveFocus(delta int) (tea.Model, tea.Cmd) {
	bars := len(m.series())
	if bars == 0 {
		m.focus = -1
		return m, nil
	}
	next := m.focus + delta
	if m.focus < 0 {
		next = 0
	}
	m.focus = min(max(next, 0), bars-1)
	return m, nil
}

func (m *PanelModel) handleSpinnerTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	if !m.uploading() {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *PanelModel) handleFileLoaded(msg fileLoadedMsg) (tea.Model, tea.Cmd) {
	m.ctrl.SelectFile(msg.file)
	m.thumb = msg.thumb
	m.setNotice("", false)

	if msg.fromWatch && m.autoSubmit {
		return m.handleSubmit()
	}
	return m, nil
}

// handleFileError keeps the previous selection
func (m *PanelModel) handleFileError(msg fileErrorMsg) (tea.Model, tea.Cmd) {
	m.logger.WarnWithFields("Cannot load file", []logger.Field{logger.F("path", msg.path), logger.Error(msg.err)})
	m.setNotice(fmt.Sprintf("Cannot load %s: %v", msg.path, msg.err), true)
	return m, nil
}

func (m *PanelModel) handlePrediction(msg predictionMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.Complete(msg.result) && msg.result.Err == nil {
		if bars := len(m.series()); m.focus >= bars {
			m.focus = bars - 1
		}
	}
	return m, nil
}

func (m *PanelModel) handleWatchFile(msg watchFileMsg) (tea.Model, tea.Cmd) {
	return m, tea.Batch(
		LoadFileCommand(msg.path, m.cfg.Predict.MaxUploadBytes, true),
		WaitForFileCommand(m.ctx, m.watcher),
	)
}

func (m *PanelModel) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *PanelModel) uploading() bool {
	return m.ctrl.Store().Outcome().State == store.Uploading
}

func (m *PanelModel) chartOptions() chart.Options {
	opts := chart.OptionsFromConfig(m.cfg)
	opts.Focus = m.focus
	opts.NoColor = m.noColor
	return opts
}

// series reads the store on every call; a malformed matrix yields no bars
func (m *PanelModel) series() []chart.Bar {
	series, err := chart.SeriesWithOptions(m.ctrl.Store().Get(), m.chartOptions())
	if err != nil {
		return nil
	}
	return series
}

// View renders the panel
func (m *PanelModel) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.styles.Header.Render(emoji.GetEmoji("hospital") + " " + headerTitle),
		"",
		m.renderUploadSection(),
		"",
	}
	if results := m.renderResultsSection(); results != "" {
		sections = append(sections, results, "")
	}
	sections = append(sections, m.renderHelp())
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	frame := m.styles.Frame
	if m.width > 0 {
		frame = frame.Width(max(min(m.width-4, maxPanelWidth), 20))
	}
	rendered := frame.Render(content)

	if m.width == 0 || m.height == 0 {
		return rendered
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, rendered)
}

func (m *PanelModel) renderUploadSection() string {
	lines := []string{
		m.styles.Section.Render(emoji.GetEmoji("upload") + " " + uploadTitle),
		m.input.View() + "  " + m.styles.Muted.Render("accepts "+selector.AcceptHint),
	}

	if file, ok := m.ctrl.Selector().Current(); ok {
		details := fmt.Sprintf("%s %s  %s  %s", emoji.GetEmoji("image"), file.Name, file.MIMEType, humanBytes(file.Size()))
		lines = append(lines, m.styles.Body.Render(details))
		if !file.MatchesHint() {
			lines = append(lines, m.styles.Warning.Render(emoji.GetEmoji("warning")+" not an "+selector.AcceptHint+" file"))
		}
		if m.thumbFits() {
			lines = append(lines, m.thumb.Render(m.noColor))
		}
	} else {
		lines = append(lines, m.styles.Muted.Render("No file selected"))
	}

	if status := m.renderStatus(); status != "" {
		lines = append(lines, status)
	}
	if m.notice != "" {
		style := m.styles.Warning
		if m.noticeErr {
			style = m.styles.Error
		}
		lines = append(lines, style.Render(m.notice))
	}
	if m.watcher != nil {
		watching := fmt.Sprintf("%s watching %s", emoji.GetEmoji("watch"), m.watcher.Dir())
		if m.autoSubmit {
			watching += " (auto-submit)"
		}
		lines = append(lines, m.styles.Muted.Render(watching))
	}

	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

// thumbFits reports whether the thumbnail fits inside the frame and box borders
func (m *PanelModel) thumbFits() bool {
	if m.thumb == nil {
		return false
	}
	return m.width == 0 || m.thumb.Width() <= m.width-thumbMargin
}

// renderStatus shows the outcome of the latest submit
func (m *PanelModel) renderStatus() string {
	outcome := m.ctrl.Store().Outcome()
	switch outcome.State {
	case store.Uploading:
		return m.spinner.View() + " Uploading " + m.uploadName + "..."
	case store.Failed:
		return m.styles.Error.Render(fmt.Sprintf("%s Upload failed (%s): %s", emoji.GetEmoji("error"), outcome.Kind, outcome.Message))
	case store.Succeeded:
		return m.styles.Success.Render(emoji.GetEmoji("success") + " Prediction received")
	default:
		return ""
	}
}

// renderResultsSection is empty until a prediction is stored
func (m *PanelModel) renderResultsSection() string {
	if !m.ctrl.Store().HasPrediction() {
		return ""
	}
	series, err := chart.SeriesWithOptions(m.ctrl.Store().Get(), m.chartOptions())
	if err == nil && len(series) == 0 {
		return ""
	}

	title := m.styles.Section.Render(emoji.GetEmoji("statistics") + " " + resultsTitle)
	body := m.styles.Error.Render(fmt.Sprint(err))
	if err == nil {
		body = chart.Render(series, m.chartOptions())
	}

	return m.styles.Box.Render(title + "\n" + body)
}

func (m *PanelModel) renderHelp() string {
	var keys []string
	if m.input.Focused() {
		keys = []string{"enter load", "esc done", "ctrl+c quit"}
	} else {
		keys = []string{"o open", "s submit", "←/→ focus bar", "q quit"}
	}
	for i, k := range keys {
		parts := strings.SplitN(k, " ", 2)
		keys[i] = m.styles.Key.Render(parts[0]) + " " + m.styles.Muted.Render(parts[1])
	}
	return strings.Join(keys, "  ")
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// PanelRun runs the panel until the user quits or ctx is cancelled
func PanelRun(ctx context.Context, opts PanelOptions) error {
	model := NewPanel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
