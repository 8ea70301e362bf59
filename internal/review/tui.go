package review

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobharvest/internal/ai"
	"github.com/amishk599/jobharvest/internal/model"
)

// Lines per record in the list view (title + subtitle + blank separator).
const recordItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	recordTitleStyle = lipgloss.NewStyle().
				Bold(true)

	recordSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(22)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// Enricher requests attributes for one description on demand. The raw
// response is returned for display when parsing fails.
type Enricher interface {
	EnrichOne(ctx context.Context, description string) (string, *model.Attributes, error)
}

// SaveFunc persists a record whose enrichment was just set.
type SaveFunc func(ctx context.Context, records []model.Record) error

// recordEnrichedMsg is sent when an async enrichment completes.
type recordEnrichedMsg struct {
	record model.Record
	err    error
}

type reviewModel struct {
	enriched      []model.Record
	pending       []model.Record
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	// Detail view state
	view            viewState
	detail          model.Record
	detailViewport  viewport.Model
	showDescription bool

	// On-demand enrichment state
	enricher      Enricher
	save          SaveFunc
	enrichLoading bool
	enrichError   string

	wantQuit bool
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case recordEnrichedMsg:
		m.enrichLoading = false
		if msg.err != nil {
			m.enrichError = fmt.Sprintf("enrichment failed: %v", msg.err)
		} else {
			m.enrichError = ""
			m.detail = msg.record
			m.moveToEnriched(msg.record)
		}
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m reviewModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		m.recalcContent()
		return m, nil
	case "o":
		openURL(m.detail.SourceURL)
		return m, nil
	case "r":
		m.showDescription = !m.showDescription
		m.detailViewport.SetContent(m.renderDetail())
		m.detailViewport.SetYOffset(0)
		return m, nil
	case "s":
		if m.canEnrich() {
			m.enrichLoading = true
			m.enrichError = ""
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.enrichRecordCmd(m.detail)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m reviewModel) canEnrich() bool {
	return m.enricher != nil && !m.enrichLoading && m.detail.Enrichment == nil && m.detail.Description != ""
}

func (m reviewModel) enrichRecordCmd(r model.Record) tea.Cmd {
	enricher, save := m.enricher, m.save
	return func() tea.Msg {
		ctx := context.Background()
		_, attrs, err := enricher.EnrichOne(ctx, r.Description)
		if err != nil {
			return recordEnrichedMsg{record: r, err: err}
		}
		r.Merge(attrs)
		if save != nil {
			if err := save(ctx, []model.Record{r}); err != nil {
				return recordEnrichedMsg{record: r, err: fmt.Errorf("saving: %w", err)}
			}
		}
		return recordEnrichedMsg{record: r}
	}
}

func (m *reviewModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.enriched)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.pending)-1, 0))
	}
}

func (m *reviewModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * recordItemHeight
	cursorBottom := cursorTop + recordItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	records := m.activeRecords()
	if len(records) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detail = records[m.activeCursor()]
	m.enrichError = ""
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

// moveToEnriched moves a freshly enriched record from the right pane to the
// left one.
func (m *reviewModel) moveToEnriched(r model.Record) {
	i := slices.IndexFunc(m.pending, func(p model.Record) bool { return p.ID == r.ID })
	if i < 0 {
		return
	}
	m.pending = slices.Delete(m.pending, i, i+1)
	m.rightCursor = clamp(m.rightCursor, 0, max(len(m.pending)-1, 0))
	m.enriched = append(m.enriched, r)
	sortRecordsByDate(m.enriched)
}

func (m *reviewModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	m.leftViewport.SetContent(renderRecords(m.enriched, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderRecords(m.pending, m.rightCursor, m.activePane == 1))
}

func (m reviewModel) activeRecords() []model.Record {
	if m.activePane == 0 {
		return m.enriched
	}
	return m.pending
}

func (m reviewModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m reviewModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" Enriched (%d)", len(m.enriched))
	rightHeader := fmt.Sprintf(" Not Enriched (%d)", len(m.pending))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	total := len(m.enriched) + len(m.pending)
	statusText := fmt.Sprintf(" %d kept | %d enriched | %d not enriched    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		total, len(m.enriched), len(m.pending))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m reviewModel) viewDetail() string {
	title := detailTitleStyle.Render("Record Details")
	if m.enrichLoading {
		title += "  (enriching...)"
	}

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " o open URL  r desc  esc/backspace back  ↑/↓ scroll  q quit"
	if m.canEnrich() {
		statusText = " o open URL  r desc  s enrich  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m reviewModel) renderDetail() string {
	return renderRecordDetail(m.detail, detailState{
		width:           m.width,
		showDescription: m.showDescription,
		loading:         m.enrichLoading,
		err:             m.enrichError,
		canEnrich:       m.canEnrich(),
	})
}

type detailState struct {
	width           int
	showDescription bool
	loading         bool
	err             string
	canEnrich       bool
}

func renderRecordDetail(r model.Record, st detailState) string {
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", r.JobTitle)
	addField("Company", r.Company)
	addField("Sector", r.Sector)
	addField("Company Size", r.CompanySize)
	addField("Location", r.WorkLocation)
	addField("Job Type", r.JobType)
	addField("Availability", r.Availability)

	b.WriteByte('\n')

	if r.PublishedDate != nil {
		addField("Published", r.PublishedDate.Format("2006-01-02"))
	}
	addField("Reference", r.Reference)
	addField("Experience", r.ExperienceText)
	addField("Education", r.Education)
	addField("Languages", r.LanguagesMentioned)
	addField("Remuneration", r.ProposedRemuneration)

	b.WriteByte('\n')
	addField("Source", string(r.Source))
	addField("Search Term", r.SearchTerm)
	addField("Scraped At", r.ScrapedAt.Format("2006-01-02 15:04 MST"))
	addField("Record ID", r.ID)
	addField("URL", r.SourceURL)

	if st.err != "" {
		b.WriteByte('\n')
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("⚠ "+st.err) + "\n")
	}

	wrapWidth := max(st.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return descDividerStyle.Render(label + fill)
	}

	if a := r.Enrichment; a != nil {
		b.WriteByte('\n')
		b.WriteString(divider("── Enrichment ") + "\n\n")
		addField("Category", categoryLabel(a.JobCategory))
		if a.CompanySector != nil {
			addField("Company Sector", *a.CompanySector)
		}
		if a.CompanySizeClass != nil {
			addField("Size Class", string(*a.CompanySizeClass))
		}
		if a.ContractType != nil {
			addField("Contract", string(*a.ContractType))
		}
		if a.YearsOfExperience != nil {
			addField("Years Experience", strconv.FormatFloat(*a.YearsOfExperience, 'f', -1, 64))
		}
		if a.EducationLevel != nil {
			addField("Education Level", string(*a.EducationLevel))
		}
		for _, g := range a.SkillGroups() {
			addField(skillLabel(g.Type), strings.Join(g.Items, ", "))
		}
	} else if st.loading {
		b.WriteByte('\n')
		b.WriteString(descHintStyle.Render("  enriching description...") + "\n")
	} else if st.canEnrich && st.err == "" {
		b.WriteByte('\n')
		b.WriteString(descHintStyle.Render("  press s to enrich this record") + "\n")
	}

	b.WriteByte('\n')
	if st.showDescription {
		b.WriteString(divider("── Description ") + "\n\n")
		b.WriteString(descBodyStyle.Render(wordWrap(r.Description, wrapWidth)) + "\n")
	} else {
		b.WriteString(descHintStyle.Render("  press r to read the description") + "\n")
	}

	return b.String()
}

func skillLabel(kind string) string {
	switch kind {
	case "technical_skills":
		return "Technical Skills"
	case "behavioral_skills":
		return "Behavioral Skills"
	case "certifications":
		return "Certifications"
	case "languages":
		return "Spoken Languages"
	}
	return kind
}

func renderRecords(records []model.Record, cursor int, isActive bool) string {
	if len(records) == 0 {
		return "  (no records)"
	}

	var b strings.Builder
	for i, r := range records {
		isSelected := isActive && i == cursor

		titleSt := recordTitleStyle
		subtitleSt := recordSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(r.JobTitle))
		b.WriteByte('\n')

		published := "n/a"
		if r.PublishedDate != nil {
			published = r.PublishedDate.Format("2006-01-02")
		}
		company := r.Company
		if company == "" {
			company = "unknown company"
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", company, r.WorkLocation, published)))
		b.WriteByte('\n')

		if i < len(records)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// splitByEnrichment partitions records, keeping their relative order.
func splitByEnrichment(records []model.Record) (enriched, pending []model.Record) {
	for _, r := range records {
		if r.Enrichment != nil {
			enriched = append(enriched, r)
		} else {
			pending = append(pending, r)
		}
	}
	return enriched, pending
}

// sortRecordsByDate orders newest published first; undated records go last.
func sortRecordsByDate(records []model.Record) {
	slices.SortStableFunc(records, func(a, b model.Record) int {
		switch {
		case a.PublishedDate == nil && b.PublishedDate == nil:
			return 0
		case a.PublishedDate == nil:
			return 1
		case b.PublishedDate == nil:
			return -1
		}
		return b.PublishedDate.Compare(*a.PublishedDate)
	})
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// categoryLabel appends the major categories a role belongs to, e.g.
// "auditor (Accounting)". The catch-all role belongs to every major and is
// shown bare.
func categoryLabel(role string) string {
	if role == model.DefaultJobCategory {
		return role
	}
	majors := ai.CategoryOf(role)
	if len(majors) == 0 {
		return role
	}
	return role + " (" + strings.Join(majors, ", ") + ")"
}

// RunReviewTUI launches the split-pane review of deduplicated records.
// enricher may be nil; when set, 's' enriches the open record and save
// persists it. Returns wantQuit=true if the user pressed q/ctrl+c, false if
// they pressed esc to return to the picker.
func RunReviewTUI(records []model.Record, enricher Enricher, save SaveFunc) (bool, error) {
	enriched, pending := splitByEnrichment(records)
	sortRecordsByDate(enriched)
	sortRecordsByDate(pending)

	m := reviewModel{
		enriched: enriched,
		pending:  pending,
		enricher: enricher,
		save:     save,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(reviewModel)
	return final.wantQuit, nil
}
