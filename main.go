package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"mliatlas/cmd"
	"mliatlas/internal/mli"
)

var logger *slog.Logger

// setupLogger creates and configures the application logger
func setupLogger(dataDir string) error {
	logPath := filepath.Join(dataDir, "err.log")

	// Create log file
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	// Create JSON handler for structured logging
	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true, // Include file:line information
	})

	logger = slog.New(handler)
	logger.Info("Application started", "version", "1.0", "data_dir", dataDir)

	return nil
}

// renderMarkdown renders markdown content with glamour for beautiful display
func renderMarkdown(content string, width int) (string, error) {
	// Account for borders, padding, and glamour's internal gutter
	const glamourGutter = 2
	const borderWidth = 4 // 2 for border characters, 2 for padding

	renderWidth := width - borderWidth - glamourGutter
	if renderWidth < 40 {
		renderWidth = 40 // Minimum width for readable content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return "", err
	}

	return rendered, nil
}

type view int

const (
	dashboardView view = iota
	detailView
	insightsView
	savePromptView
)

type model struct {
	dataset            *mli.Dataset
	divergence         *Divergence
	analyst            *AnalystService
	currentView        view
	filterInput        textinput.Model
	saveInput          textinput.Model
	viewport           viewport.Model
	list               list.Model
	year               int
	metric             mli.Metric
	rows               []mli.Row
	selectedRow        *mli.Row
	briefing           string
	generatingBriefing bool
	width              int
	height             int
	err                error
	saveSuccess        string
	viewportReady      bool
}

type stateItem struct {
	row mli.Row
}

func (i stateItem) Title() string {
	return fmt.Sprintf("%2d. %s  %s", i.row.Rank, i.row.Name, BucketBadge(i.row.Bucket))
}

func (i stateItem) Description() string {
	return fmt.Sprintf("MLI %.3f | Income $%s | CoL $%s | 1yr %s | 5yr %s",
		i.row.MLI,
		formatThousands(i.row.Income),
		formatThousands(i.row.CostOfLiving),
		DeltaIndicator(i.row.Change),
		DeltaIndicator(i.row.Change5yr),
	)
}

func (i stateItem) FilterValue() string {
	return i.row.Name
}

type briefingMsg struct {
	text string
	err  error
}

type saveMsg struct {
	filename string
	err      error
}

func generateBriefing(analyst *AnalystService, div *Divergence) tea.Cmd {
	return func() tea.Msg {
		text, err := analyst.GenerateBriefing(context.Background(), div)
		return briefingMsg{text: text, err: err}
	}
}

func saveStateData(ds *mli.Dataset, row *mli.Row, year int, filename string) tea.Cmd {
	return func() tea.Msg {
		rec, ok := ds.States[row.Name]
		if !ok {
			return saveMsg{err: fmt.Errorf("state %q not in dataset", row.Name)}
		}

		data := map[string]interface{}{
			"state":      row.Name,
			"year":       year,
			"table_row":  row,
			"timeseries": rec.Timeseries,
			"latest":     rec.Latest,
		}

		jsonData, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return saveMsg{err: fmt.Errorf("failed to marshal data: %w", err)}
		}

		if err := os.WriteFile(filename, jsonData, 0644); err != nil {
			return saveMsg{err: fmt.Errorf("failed to write file: %w", err)}
		}

		return saveMsg{filename: filename, err: nil}
	}
}

func sortKeyFor(metric mli.Metric) mli.SortKey {
	switch metric {
	case mli.MetricSurplus:
		return mli.SortBySurplus
	case mli.MetricIncome:
		return mli.SortByIncome
	case mli.MetricCostOfLiving:
		return mli.SortByCostOfLiving
	}
	return mli.SortByMLI
}

func formatThousands(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func initialModel(ds *mli.Dataset, div *Divergence, analyst *AnalystService, defaultYear int) model {
	ti := textinput.New()
	ti.Placeholder = "Filter states by name..."
	ti.CharLimit = 50
	ti.Width = 40

	si := textinput.New()
	si.Placeholder = "Enter filename (e.g., state_data.json)"
	si.CharLimit = 200
	si.Width = 60

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	year := ds.LatestYear()
	if defaultYear != 0 && ds.HasYear(defaultYear) {
		year = defaultYear
	}

	m := model{
		dataset:     ds,
		divergence:  div,
		analyst:     analyst,
		currentView: dashboardView,
		filterInput: ti,
		saveInput:   si,
		viewport:    vp,
		list:        l,
		year:        year,
		metric:      mli.MetricMLI,
	}
	m.refreshRows()
	return m
}

// refreshRows rebuilds the dashboard list from the dataset: table rows
// for the selected year, sorted by the selected metric, then filtered
// by the text input. Filtering never reorders the sorted rows.
func (m *model) refreshRows() {
	rows := mli.BuildRows(m.dataset, m.year)
	rows = mli.SortRows(rows, sortKeyFor(m.metric), mli.Descending)
	rows = mli.FilterRows(rows, m.filterInput.Value())
	m.rows = rows

	items := make([]list.Item, len(rows))
	for i, row := range rows {
		items[i] = stateItem{row: row}
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("MLI Atlas — %s, %d", m.metric.Label(), m.year)
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)

		// Reserve 6 lines: newline, scroll indicator, status messages, help text
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 6
		m.viewportReady = true

		if m.currentView == detailView {
			m.updateDetailViewport()
		} else if m.currentView == insightsView {
			m.updateInsightsViewport()
		}

		return m, nil

	case tea.KeyMsg:
		switch m.currentView {
		case detailView:
			return m.handleDetailViewKeys(msg)
		case insightsView:
			return m.handleInsightsViewKeys(msg)
		case savePromptView:
			return m.handleSavePromptKeys(msg)
		}
		return m.handleDashboardKeys(msg)

	case tea.MouseMsg:
		if m.currentView == detailView || m.currentView == insightsView {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case briefingMsg:
		m.generatingBriefing = false
		if msg.err != nil {
			m.err = fmt.Errorf("briefing failed: %w", msg.err)
			if logger != nil {
				logger.Error("Briefing generation failed", "error", msg.err)
			}
			return m, nil
		}
		m.briefing = msg.text
		m.err = nil
		if m.currentView == insightsView {
			m.updateInsightsViewport()
		}
		if logger != nil {
			logger.Info("Briefing generated", "length", len(msg.text))
		}
		return m, nil

	case saveMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("save failed: %w", msg.err)
			m.currentView = detailView
			if logger != nil && m.selectedRow != nil {
				logger.Error("Failed to save state data", "error", msg.err, "state", m.selectedRow.Name, "filename", m.saveInput.Value())
			}
			return m, nil
		}
		m.saveSuccess = fmt.Sprintf("Saved to: %s", msg.filename)
		m.saveInput.SetValue("")
		m.currentView = detailView
		if logger != nil && m.selectedRow != nil {
			logger.Info("State data saved", "state", m.selectedRow.Name, "filename", msg.filename)
		}
		return m, nil
	}

	if m.currentView == dashboardView {
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		cmds = append(cmds, cmd)

		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		if m.filterInput.Focused() {
			m.refreshRows()
			m.filterInput.Blur()
		} else {
			// Open state detail from list
			if item, ok := m.list.SelectedItem().(stateItem); ok {
				row := item.row
				m.selectedRow = &row
				m.currentView = detailView
				m.viewport.GotoTop()
				m.updateDetailViewport()
			}
		}
		return m, nil

	case tea.KeyTab:
		if m.filterInput.Focused() {
			m.filterInput.Blur()
		} else {
			m.filterInput.Focus()
		}
		return m, textinput.Blink

	case tea.KeyCtrlS:
		// Cycle through metrics
		for i, metric := range mli.Metrics {
			if metric == m.metric {
				m.metric = mli.Metrics[(i+1)%len(mli.Metrics)]
				break
			}
		}
		m.refreshRows()
		return m, nil

	case tea.KeyCtrlB:
		if m.divergence != nil {
			m.currentView = insightsView
			m.viewport.GotoTop()
			m.updateInsightsViewport()
		}
		return m, nil

	case tea.KeyLeft:
		if !m.filterInput.Focused() && m.year > m.dataset.EarliestYear() {
			m.year = m.dataset.ClampYear(m.year - 1)
			m.refreshRows()
			return m, nil
		}

	case tea.KeyRight:
		if !m.filterInput.Focused() && m.year < m.dataset.LatestYear() {
			m.year = m.dataset.ClampYear(m.year + 1)
			m.refreshRows()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.filterInput.Focused() {
		before := m.filterInput.Value()
		m.filterInput, cmd = m.filterInput.Update(msg)
		if m.filterInput.Value() != before {
			m.refreshRows()
		}
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m model) handleDetailViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.currentView = dashboardView
		m.selectedRow = nil
		m.err = nil
		m.saveSuccess = ""
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyCtrlY:
		if m.selectedRow != nil {
			_ = clipboard.WriteAll(m.selectedRow.Name)
		}
		return m, nil

	case tea.KeyCtrlW:
		// Save state data to file
		if m.selectedRow != nil {
			m.currentView = savePromptView
			m.saveInput.Focus()
			m.err = nil
			m.saveSuccess = ""
			// Pre-fill with state name
			defaultName := strings.ReplaceAll(strings.ToLower(m.selectedRow.Name), " ", "_") + ".json"
			m.saveInput.SetValue(defaultName)
			return m, textinput.Blink
		}
		return m, nil

	// Scrolling keys
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleInsightsViewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.currentView = dashboardView
		m.err = nil
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyCtrlA:
		// Generate AI briefing
		if m.analyst != nil && !m.generatingBriefing {
			m.generatingBriefing = true
			m.err = nil
			return m, generateBriefing(m.analyst, m.divergence)
		}
		return m, nil

	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleSavePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.currentView = detailView
		m.saveInput.SetValue("")
		return m, nil

	case tea.KeyEnter:
		filename := m.saveInput.Value()
		if filename == "" {
			m.err = fmt.Errorf("filename cannot be empty")
			return m, nil
		}
		return m, saveStateData(m.dataset, m.selectedRow, m.year, filename)
	}

	var cmd tea.Cmd
	m.saveInput, cmd = m.saveInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case detailView:
		return m.detailViewRender()
	case insightsView:
		return m.insightsViewRender()
	case savePromptView:
		return m.savePromptView()
	}
	return m.dashboardViewRender()
}

func (m model) dashboardViewRender() string {
	var b strings.Builder

	// Header
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	b.WriteString(headerStyle.Render("📈 MLI Atlas"))
	b.WriteString("\n\n")

	// Filter input
	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	b.WriteString(inputStyle.Render(m.filterInput.View()))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Year: %d (←/→) | Metric: %s (Ctrl+S to cycle)", m.year, m.metric.Label()))
	b.WriteString("\n\n")

	// Error display
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v\n", m.err)))
	}

	// Summary stats across the visible rows
	if len(m.rows) > 0 {
		counts := make(map[mli.Bucket]int)
		above := 0
		for _, row := range m.rows {
			counts[row.Bucket]++
			if row.MLI >= 1.0 {
				above++
			}
		}

		statsStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

		stats := fmt.Sprintf("States: %d | Income covers costs in %d", len(m.rows), above)
		if nat, ok := m.dataset.National[m.year]; ok {
			stats += fmt.Sprintf(" | National avg MLI: %.3f", nat.AvgMLI)
		}
		b.WriteString(statsStyle.Render(stats))
		b.WriteString("\n")

		b.WriteString(BucketDistributionBar(counts, 50))
		b.WriteString("\n")

		b.WriteString(m.list.View())
	} else {
		b.WriteString("No states match the current filter.\n")
	}

	// Help text
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)

	help := "\nTab: Switch focus | Enter: Select state | ←/→: Year | Ctrl+S: Metric | Ctrl+B: Insights | Esc/Ctrl+C: Quit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m model) detailViewContent() string {
	if m.selectedRow == nil {
		return "No state selected"
	}

	row := m.selectedRow
	rec := m.dataset.States[row.Name]

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	labelStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("33")).
		Width(20)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("230"))

	sectionStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		MarginBottom(1)

	// Header
	b.WriteString(titleStyle.Render(fmt.Sprintf("📍 %s — %d", row.Name, m.year)))
	b.WriteString("\n\n")

	// Core metrics section
	var metricsInfo strings.Builder
	metricsInfo.WriteString(labelStyle.Render("MLI:") + " " + valueStyle.Render(fmt.Sprintf("%.3f %s", row.MLI, BucketBadge(row.Bucket))) + "\n")
	metricsInfo.WriteString(labelStyle.Render("Rank:") + " " + valueStyle.Render(fmt.Sprintf("%d of %d", row.Rank, len(m.dataset.States))) + "\n")
	metricsInfo.WriteString(labelStyle.Render("Income:") + " " + valueStyle.Render("$"+formatThousands(row.Income)) + "\n")
	metricsInfo.WriteString(labelStyle.Render("Cost of Living:") + " " + valueStyle.Render("$"+formatThousands(row.CostOfLiving)) + "\n")
	metricsInfo.WriteString(labelStyle.Render("Surplus:") + " " + valueStyle.Render("$"+formatThousands(row.Surplus)) + "\n")
	metricsInfo.WriteString(labelStyle.Render("1yr Change:") + " " + DeltaIndicator(row.Change) + "\n")
	metricsInfo.WriteString(labelStyle.Render("5yr Change:") + " " + DeltaIndicator(row.Change5yr) + "\n")

	b.WriteString(sectionStyle.Render(metricsInfo.String()))
	b.WriteString("\n")

	// Gauge section
	vizTitle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("📊 Market Livability Gauge")

	b.WriteString(vizTitle)
	b.WriteString("\n\n")
	b.WriteString(MLIGauge(row.MLI, 50))
	b.WriteString("\n\n")

	// National comparison bars
	if nat, ok := m.dataset.National[m.year]; ok {
		b.WriteString(BarChart("State MLI      ", row.MLI, 1.5, 40, BucketColor(row.Bucket)))
		b.WriteString("\n")
		b.WriteString(BarChart("National avg   ", nat.AvgMLI, 1.5, 40, lipgloss.Color("33")))
		b.WriteString("\n\n")
	}

	// Timeseries sparklines
	var mliSeries, incomeSeries, colSeries []float64
	for _, year := range m.dataset.Years {
		ym, ok := rec.Timeseries[year]
		if !ok {
			continue
		}
		mliSeries = append(mliSeries, ym.MLI)
		incomeSeries = append(incomeSeries, ym.Income)
		colSeries = append(colSeries, ym.Col)
	}

	if len(mliSeries) > 1 {
		trendTitle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Render(fmt.Sprintf("📉 Trends %d–%d", m.dataset.EarliestYear(), m.dataset.LatestYear()))

		b.WriteString(trendTitle)
		b.WriteString("\n\n")
		b.WriteString("  MLI:            " + Sparkline(mliSeries) + "\n")
		b.WriteString("  Income:         " + Sparkline(incomeSeries) + "\n")
		b.WriteString("  Cost of Living: " + Sparkline(colSeries) + "\n")
		b.WriteString("\n")
	}

	// Category breakdown from the latest snapshot
	if len(rec.Latest.Categories) > 0 {
		catTitle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Render(fmt.Sprintf("🧾 Cost Breakdown (%d)", rec.Latest.Year))

		b.WriteString(catTitle)
		b.WriteString("\n\n")
		b.WriteString(CategoryBreakdownChart(rec.Latest.Categories, 40))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *model) updateDetailViewport() {
	if !m.viewportReady || m.selectedRow == nil {
		return
	}
	content := m.detailViewContent()
	m.viewport.SetContent(content)
}

func (m model) detailViewRender() string {
	if !m.viewportReady || m.selectedRow == nil {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	// Add scroll indicator if content is scrollable
	if m.viewport.TotalLineCount() > m.viewport.Height {
		scrollPercent := int(m.viewport.ScrollPercent() * 100)
		scrollInfo := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render(fmt.Sprintf("─── %d%% ───", scrollPercent))
		b.WriteString(scrollInfo)
		b.WriteString("\n")
	}

	// Save success message
	if m.saveSuccess != "" {
		successStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
		b.WriteString(successStyle.Render("✓ " + m.saveSuccess))
		b.WriteString("\n")
	}

	// Error display
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
		b.WriteString(errorStyle.Render(fmt.Sprintf("❌ Error: %v", m.err)))
		b.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	help := "↑/↓/PgUp/PgDn: Scroll | Ctrl+W: Save | Ctrl+Y: Copy name | Esc: Back"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m model) insightsViewContent() string {
	if m.divergence == nil {
		return "No divergence analysis loaded"
	}

	div := m.divergence

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	sectionTitle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("226"))

	subtleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	b.WriteString(titleStyle.Render("💡 Market Divergence Insights"))
	b.WriteString("\n\n")

	// Headline numbers for the 2018 window
	s := div.Summary20182023
	b.WriteString(InfoBox("S&P 500 gain", fmt.Sprintf("%+.1f%%", s.SP500Gain), lipgloss.Color("82")))
	b.WriteString(InfoBox("Income gain", fmt.Sprintf("%+.1f%%", s.IncomeGain), lipgloss.Color("33")))
	b.WriteString(InfoBox("CoL gain", fmt.Sprintf("%+.1f%%", s.ColGain), lipgloss.Color("196")))
	b.WriteString(InfoBox("Capture rate", fmt.Sprintf("%.1f%%", s.MiddleClassCapture), lipgloss.Color("201")))
	b.WriteString("\n\n")

	// Market vs household trajectories
	if len(div.Comparison2018) > 0 {
		b.WriteString(sectionTitle.Render("═══ Markets vs Households (2018 = 100) ═══"))
		b.WriteString("\n\n")
		b.WriteString(MarketComparisonChart(div.Comparison2018))
		b.WriteString("\n")
	}

	// Savings timeline
	if len(div.SavingsTimeline) > 0 {
		b.WriteString(sectionTitle.Render("═══ How Many States Can Save ═══"))
		b.WriteString("\n\n")
		b.WriteString(SavingsTimelineChart(div.SavingsTimeline, 50))
		b.WriteString("\n")
	}

	// Inflation analysis
	if len(div.Inflation) > 0 {
		b.WriteString(sectionTitle.Render("═══ Housing vs Goods Inflation ═══"))
		b.WriteString("\n\n")
		for _, p := range div.Inflation {
			b.WriteString(fmt.Sprintf("  %-12s housing %+.1f%% | goods %+.1f%%\n", p.Period, p.HousingInflation, p.GoodsInflation))
		}
		b.WriteString("\n")
	}

	// Top movers 2018-2023
	gainers, decliners := div.TopMovers(5)
	if len(gainers) > 0 {
		b.WriteString(sectionTitle.Render("═══ Biggest Movers 2018–2023 ═══"))
		b.WriteString("\n\n")
		for _, g := range gainers {
			b.WriteString(fmt.Sprintf("  %-16s %s  (%.3f → %.3f)\n", g.State, DeltaIndicator(g.MLIChange), g.MLI2018, g.MLI2023))
		}
		b.WriteString("\n")
		for _, d := range decliners {
			b.WriteString(fmt.Sprintf("  %-16s %s  (%.3f → %.3f)\n", d.State, DeltaIndicator(d.MLIChange), d.MLI2018, d.MLI2023))
		}
		b.WriteString("\n")
	}

	// Headlines
	if headlines := div.Headlines.Lines(); len(headlines) > 0 {
		b.WriteString(sectionTitle.Render("═══ Headlines ═══"))
		b.WriteString("\n\n")
		for _, h := range headlines {
			b.WriteString(subtleStyle.Render("  • " + h))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	// AI briefing
	if m.briefing != "" {
		aiTitle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("201")).
			Render("🤖 AI Briefing")

		b.WriteString(aiTitle)
		b.WriteString("\n\n")

		rendered, err := renderMarkdown(m.briefing, m.width)
		if err != nil {
			b.WriteString(m.briefing)
		} else {
			b.WriteString(rendered)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m *model) updateInsightsViewport() {
	if !m.viewportReady {
		return
	}
	content := m.insightsViewContent()
	m.viewport.SetContent(content)
}

func (m model) insightsViewRender() string {
	if !m.viewportReady {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.viewport.TotalLineCount() > m.viewport.Height {
		scrollPercent := int(m.viewport.ScrollPercent() * 100)
		scrollInfo := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render(fmt.Sprintf("─── %d%% ───", scrollPercent))
		b.WriteString(scrollInfo)
		b.WriteString("\n")
	}

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("226")).
		Bold(true)

	if m.generatingBriefing {
		b.WriteString(statusStyle.Render("⏳ Generating AI briefing..."))
		b.WriteString("\n")
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
		b.WriteString(errorStyle.Render(fmt.Sprintf("❌ Error: %v", m.err)))
		b.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	var help string
	if m.analyst != nil {
		help = "↑/↓/PgUp/PgDn: Scroll | Ctrl+A: AI Briefing | Esc: Back"
	} else {
		help = "↑/↓/PgUp/PgDn: Scroll | Esc: Back"
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m model) savePromptView() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("💾 Save State Data"))
	b.WriteString("\n\n")

	if m.selectedRow != nil {
		infoStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
		b.WriteString(infoStyle.Render(fmt.Sprintf("Saving data for: %s", m.selectedRow.Name)))
		b.WriteString("\n\n")
	}

	// Input prompt
	inputStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	b.WriteString("Filename: ")
	b.WriteString(inputStyle.Render(m.saveInput.View()))
	b.WriteString("\n\n")

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	info := "The file will contain:\n"
	info += "  • The dashboard row (MLI, rank, changes, bucket)\n"
	info += "  • The full per-year timeseries\n"
	info += "  • The latest snapshot with cost categories\n"
	info += "\nFormat: JSON"
	b.WriteString(infoStyle.Render(info))
	b.WriteString("\n\n")

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v\n", m.err)))
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)

	help := "Enter: Save | Esc: Cancel"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// ensureDataFiles verifies the required JSON files exist for
// non-interactive commands.
func ensureDataFiles(dataDir string) error {
	missing := CheckDataFiles(dataDir)
	if len(missing) > 0 {
		return fmt.Errorf("missing required data files %v: run the download command first", missing)
	}
	return nil
}

// launchTUI starts the interactive TUI application
func launchTUI(dataDir string) {
	// Setup logger first
	if err := setupLogger(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
	}

	config, err := LoadConfig(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		config = DefaultConfig()
	}

	// Check for required data files
	missing := CheckDataFiles(dataDir)
	if len(missing) > 0 {
		if PromptUserForDownload(missing) {
			if err := DownloadDataFiles(dataDir, config.Data.BaseURL, missing); err != nil {
				if logger != nil {
					logger.Error("Failed to download data files", "error", err, "missing_files", missing)
				}
				fmt.Fprintf(os.Stderr, "Error downloading files: %v\n", err)
				os.Exit(1)
			}
		} else {
			if logger != nil {
				logger.Warn("User declined to download required data files", "missing_files", missing)
			}
			fmt.Println("\n❌ Cannot proceed without required data files.")
			fmt.Println("Please download the files manually or run the program again.")
			os.Exit(1)
		}
	}

	dataset, err := LoadDataset(dataDir)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to load dataset", "error", err, "data_dir", dataDir)
		}
		fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", err)
		os.Exit(1)
	}

	divergence, err := LoadDivergence(dataDir)
	if err != nil {
		// The dashboard works without the insights panel.
		if logger != nil {
			logger.Warn("Divergence analysis unavailable", "error", err)
		}
		divergence = nil
	}

	// Initialize AI analyst (optional - requires ANTHROPIC_API_KEY)
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	var analyst *AnalystService
	if apiKey != "" {
		store, err := NewStore(dataDir, dataset, divergence)
		if err != nil {
			if logger != nil {
				logger.Warn("Analytics store initialization failed", "error", err)
			}
			fmt.Fprintf(os.Stderr, "Warning: analytics store initialization failed: %v\n", err)
		} else {
			defer store.Close()
			analyst, err = NewAnalystService(apiKey, store, config)
			if err != nil {
				if logger != nil {
					logger.Warn("AI analyst initialization failed", "error", err)
				}
				fmt.Fprintf(os.Stderr, "Warning: AI analyst initialization failed: %v\n", err)
				analyst = nil
			}
		}
	}

	// Print configuration info
	fmt.Println("\n📊 MLI Atlas Configuration:")
	fmt.Printf("   • States: %d | Years: %d–%d\n", len(dataset.States), dataset.EarliestYear(), dataset.LatestYear())
	if divergence != nil {
		fmt.Println("   • Divergence Insights: ✓ Available (Ctrl+B)")
	} else {
		fmt.Println("   • Divergence Insights: ✗ Not available (missing analysis file)")
	}
	if analyst != nil {
		fmt.Println("   • AI Briefings: ✓ Available")
	} else {
		fmt.Println("   • AI Briefings: ✗ Not configured (set ANTHROPIC_API_KEY)")
	}
	fmt.Println()

	p := tea.NewProgram(
		initialModel(dataset, divergence, analyst, config.Data.DefaultYear),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// loadData loads the dataset for CLI commands
func loadData(dataDir string) (*mli.Dataset, error) {
	// Setup logger
	if err := setupLogger(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logger: %v\n", err)
	}

	if err := ensureDataFiles(dataDir); err != nil {
		return nil, err
	}

	return LoadDataset(dataDir)
}

// initStore initializes the analytics store for CLI commands
func initStore(dataDir string) (cmd.StoreInterface, func(), error) {
	dataset, err := loadData(dataDir)
	if err != nil {
		return nil, nil, err
	}

	divergence, err := LoadDivergence(dataDir)
	if err != nil {
		divergence = nil
	}

	store, err := NewStore(dataDir, dataset, divergence)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cleanup := func() {
		store.Close()
	}

	return &storeAdapter{store: store, dataDir: dataDir, divergence: divergence}, cleanup, nil
}

// initAnalyst initializes the AI analyst for CLI commands
func initAnalyst(store cmd.StoreInterface) (cmd.AnalystInterface, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	adapter := store.(*storeAdapter)

	config, err := LoadConfig(adapter.dataDir)
	if err != nil {
		config = DefaultConfig()
	}

	analyst, err := NewAnalystService(apiKey, adapter.store, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analyst: %w", err)
	}

	return &analystAdapter{analyst: analyst, divergence: adapter.divergence}, nil
}

// storeAdapter adapts *Store to cmd.StoreInterface
type storeAdapter struct {
	store      *Store
	dataDir    string
	divergence *Divergence
}

func (a *storeAdapter) ExecuteQuery(query string, maxRows int) (cmd.QueryOutput, error) {
	result, err := a.store.ExecuteQuery(query, maxRows)
	if err != nil {
		return cmd.QueryOutput{}, err
	}
	return cmd.QueryOutput{Columns: result.Columns, Rows: result.Rows}, nil
}

func (a *storeAdapter) DescribeTables() ([]cmd.TableSchema, error) {
	tables, err := a.store.DescribeTables()
	if err != nil {
		return nil, err
	}

	schemas := make([]cmd.TableSchema, len(tables))
	for i, t := range tables {
		schema := cmd.TableSchema{TableName: t.Name, RowCount: t.RowCount}
		for _, c := range t.Columns {
			schema.Columns = append(schema.Columns, cmd.ColumnDetail{Name: c.Name, Type: c.Type})
		}
		schemas[i] = schema
	}
	return schemas, nil
}

func (a *storeAdapter) Close() error {
	return a.store.Close()
}

// analystAdapter adapts *AnalystService to cmd.AnalystInterface
type analystAdapter struct {
	analyst    *AnalystService
	divergence *Divergence
}

func (a *analystAdapter) AskDataQuestion(ctx context.Context, question string) (string, error) {
	return a.analyst.AskDataQuestion(ctx, question)
}

func (a *analystAdapter) GenerateBriefing(ctx context.Context) (string, error) {
	if a.divergence == nil {
		return "", fmt.Errorf("divergence analysis file not loaded")
	}
	return a.analyst.GenerateBriefing(ctx, a.divergence)
}

// startServer starts the web server for the serve command
func startServer(port int, dataDir string) error {
	if err := setupLogger(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logger: %v\n", err)
	}

	if err := ensureDataFiles(dataDir); err != nil {
		return err
	}

	dataset, err := LoadDataset(dataDir)
	if err != nil {
		return err
	}

	divergence, err := LoadDivergence(dataDir)
	if err != nil {
		divergence = nil
	}

	store, err := NewStore(dataDir, dataset, divergence)
	if err != nil {
		return err
	}
	defer store.Close()

	var analyst *AnalystService
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config, err := LoadConfig(dataDir)
		if err != nil {
			config = DefaultConfig()
		}
		analyst, err = NewAnalystService(apiKey, store, config)
		if err != nil {
			if logger != nil {
				logger.Warn("AI analyst initialization failed", "error", err)
			}
			analyst = nil
		}
	}

	return StartServer(ServerDeps{
		Port:       port,
		Dataset:    dataset,
		Divergence: divergence,
		Store:      store,
		Analyst:    analyst,
		DataDir:    dataDir,
	})
}

// exportXLSX exports the workbook for the export command
func exportXLSX(dataDir string, year int, outPath string) error {
	dataset, err := loadData(dataDir)
	if err != nil {
		return err
	}

	divergence, err := LoadDivergence(dataDir)
	if err != nil {
		divergence = nil
	}

	if year == 0 {
		year = dataset.LatestYear()
	} else {
		year = dataset.ClampYear(year)
	}

	return NewExporter(dataset, divergence).ExportToFile(year, outPath)
}

// downloadData fetches missing data files for the download command
func downloadData(dataDir string) error {
	if err := setupLogger(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logger: %v\n", err)
	}

	config, err := LoadConfig(dataDir)
	if err != nil {
		config = DefaultConfig()
	}

	missing := CheckDataFiles(dataDir)
	if len(missing) == 0 {
		fmt.Println("All data files present.")
		return nil
	}

	return DownloadDataFiles(dataDir, config.Data.BaseURL, missing)
}

func main() {
	// Load .env if present; environment variables take precedence
	_ = godotenv.Load()

	// Set up cmd package callbacks
	cmd.LaunchTUI = launchTUI
	cmd.LoadData = loadData
	cmd.InitStore = initStore
	cmd.InitAnalyst = initAnalyst
	cmd.StartServer = startServer
	cmd.ExportXLSX = exportXLSX
	cmd.DownloadData = downloadData

	// Execute the CLI
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
