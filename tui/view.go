package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/samaelod/netassist/types"
)

type presetItem types.Preset

func (p presetItem) Title() string       { return p.Name }
func (p presetItem) Description() string { return p.Value }
func (p presetItem) FilterValue() string { return p.Name }

type presetsDelegate struct{}

func (d presetsDelegate) Height() int                               { return 1 }
func (d presetsDelegate) Spacing() int                              { return 0 }
func (d presetsDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d presetsDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(presetItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%s [%s]", i.Name, types.ModeOf(i.Hex))

	if index == m.Index() {
		fmt.Fprint(w, styleSelected.Render("> "+str))
	} else {
		fmt.Fprint(w, lipgloss.NewStyle().Foreground(colorText).Render("  "+str))
	}
}

func newPresetList(presets []types.Preset) list.Model {
	items := make([]list.Item, 0, len(presets))
	for _, p := range presets {
		items = append(items, presetItem(p))
	}
	l := list.New(items, presetsDelegate{}, defaultListWidth, 10)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	return l
}

func renderScrollbar(vp viewport.Model, height int) string {
	total := vp.TotalLineCount()
	visible := vp.VisibleLineCount()

	if total <= visible {
		return ""
	}

	trackHeight := height
	if trackHeight < 1 {
		trackHeight = visible
	}

	thumbPos := int(float64(trackHeight-1) * vp.ScrollPercent())
	if thumbPos < 0 {
		thumbPos = 0
	}
	if thumbPos > trackHeight-1 {
		thumbPos = trackHeight - 1
	}

	var sb strings.Builder
	for i := 0; i < trackHeight; i++ {
		if i == thumbPos {
			sb.WriteString(scrollbarThumb.Render("█"))
		} else {
			sb.WriteString(scrollbarTrack.Render("│"))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// layout is the session screen geometry. Every height is the full panel
// height including its border.
type layout struct {
	windowWidth   int
	listWidth     int
	rightWidth    int
	formHeight    int
	presetsHeight int
	packetsHeight int
	logsHeight    int
}

func (m Model) layout() layout {
	windowWidth := m.width - 4
	windowHeight := m.height - 4

	// title, send line, status bar and footer
	availHeight := windowHeight - 1 - sendHeight - statusHeight - footerHeight
	if availHeight < 0 {
		availHeight = 0
	}

	listWidth := defaultListWidth
	if listWidth > windowWidth/3 {
		listWidth = windowWidth / 3
	}
	if listWidth < minListWidth {
		listWidth = minListWidth
	}

	formHeight := formRows + 4
	packetsHeight := availHeight * 60 / 100
	if m.focus == focusLogs {
		packetsHeight = availHeight * 40 / 100
	}

	return layout{
		windowWidth:   windowWidth,
		listWidth:     listWidth,
		rightWidth:    max(windowWidth-listWidth, 0),
		formHeight:    formHeight,
		presetsHeight: max(availHeight-formHeight, 4),
		packetsHeight: packetsHeight,
		logsHeight:    availHeight - packetsHeight,
	}
}

// resize applies the layout to the scrollable components so that key
// handling scrolls by the same page size the view shows.
func (m *Model) resize() {
	m.fileBrowser.SetSize(m.width/3-4, m.height-7)

	l := m.layout()
	m.presets.SetSize(l.listWidth-4, max(l.presetsHeight-4, 1))
	m.packetViewport.Width = max(l.rightWidth-5, 1)
	m.packetViewport.Height = max(l.packetsHeight-4, 1)
	m.logViewport.Width = max(l.rightWidth-5, 1)
	m.logViewport.Height = max(l.logsHeight-4, 1)
	m.sendInput.Width = max(l.windowWidth-20, 10)
}

func (m Model) View() string {
	var content string

	windowWidth := m.width - 4
	windowHeight := m.height - 4

	if windowWidth < minWindowWidth || windowHeight < minWindowHeight {
		return styleScreenTooSmall.
			Width(m.width).
			Height(m.height).
			Render("Terminal window is too small.\nPlease resize.")
	}

	appTitle := styleAppTitle.Width(windowWidth).Render("NETASSIST " + m.version)

	switch m.screen {

	case screenSourceSelect:
		menuTitle := styleTitle.Render("Select Source")

		cards := []string{"Lua Profile", "Quick Start"}
		for i, c := range cards {
			if i == m.menuCursor {
				cards[i] = styleMenuItemSelected.Render(c)
			} else {
				cards[i] = styleMenuItem.Render(c)
			}
		}

		menuContent := lipgloss.JoinVertical(lipgloss.Center,
			menuTitle,
			"\n",
			lipgloss.JoinHorizontal(lipgloss.Center, cards...),
		)

		content = lipgloss.JoinVertical(lipgloss.Top,
			appTitle,
			lipgloss.Place(
				windowWidth, windowHeight-1,
				lipgloss.Center, lipgloss.Center,
				styleMenuContainer.Render(menuContent),
			),
		)

	case screenFilePicker:
		listWidth := windowWidth / 3
		previewWidth := windowWidth - listWidth
		panelHeight := windowHeight - 1

		browserColor := colorSecondary
		if m.fileBrowser.HasValidFilesInDir(m.fileBrowser.CurrentDir) {
			browserColor = colorSuccess
		}

		previewColor := colorSecondary
		if item, ok := m.fileBrowser.List.SelectedItem().(fileItem); ok && !item.isDir {
			if m.fileBrowser.allowed(item.name) {
				previewColor = colorSuccess
			} else {
				previewColor = colorError
			}
		}

		browserTitle := styleTitle.MarginBottom(1).Render("Select Profile")
		browserView := stylePanelTitled.
			BorderForeground(browserColor).
			Width(listWidth - 4).
			Height(panelHeight).
			Render(browserTitle + "\n" + m.fileBrowser.View())

		previewTitle := styleTitle.MarginBottom(1).Render("Profile Preview")
		contentHeight := panelHeight - 5
		previewLines := strings.Split(m.fileBrowser.PreviewContent, "\n")
		if len(previewLines) > contentHeight && contentHeight > 1 {
			previewLines = append(previewLines[:contentHeight-1], "...")
		}

		previewView := stylePanelTitled.
			BorderForeground(previewColor).
			Width(previewWidth).
			Height(panelHeight).
			Render(previewTitle + "\n" + strings.Join(previewLines, "\n"))

		content = lipgloss.Place(
			windowWidth, windowHeight,
			lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Top,
				appTitle,
				lipgloss.JoinHorizontal(lipgloss.Top, browserView, previewView),
			),
		)

	case screenLoading:
		status := "Loading..."
		if m.err != nil {
			status = styleSubtext.Render("Error: "+m.err.Error()) + "\n\n" +
				styleSubtext.Render("press any key to go back")
		}

		content = lipgloss.Place(
			windowWidth, windowHeight,
			lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, appTitle, "\n", status),
		)

	case screenSession:
		content = lipgloss.JoinVertical(lipgloss.Top, appTitle, m.sessionView())
	}

	return styleWindow.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m Model) borderFor(f focus) lipgloss.Color {
	if m.focus == f {
		return colorSecondary
	}
	return colorSubtext
}

func (m Model) sessionView() string {
	l := m.layout()

	// Left column: config form above presets.
	formTitle := styleTitle.MarginBottom(1).Render("Endpoint")
	formPanel := stylePanelTitled.
		BorderForeground(m.borderFor(focusForm)).
		Width(l.listWidth - 2).
		Height(l.formHeight - 2).
		Render(formTitle + "\n" + m.formView())

	presetsTitle := styleTitle.MarginBottom(1).Render("Presets")
	presetsBody := m.presets.View()
	if len(m.presets.Items()) == 0 {
		presetsBody = styleSubtext.Render("No presets in profile.")
	}
	presetsPanel := stylePanelTitled.
		BorderForeground(m.borderFor(focusPresets)).
		Width(l.listWidth - 2).
		Height(l.presetsHeight - 2).
		Render(presetsTitle + "\n" + presetsBody)

	leftColumn := lipgloss.JoinVertical(lipgloss.Top, formPanel, presetsPanel)

	// Right column: packets above logs.
	packetsPanel := m.viewportPanel("Packets", m.packetViewport, focusPackets, l.rightWidth, l.packetsHeight)
	logsPanel := m.viewportPanel("Logs", m.logViewport, focusLogs, l.rightWidth, l.logsHeight)
	rightColumn := lipgloss.JoinVertical(lipgloss.Top, packetsPanel, logsPanel)

	topArea := lipgloss.JoinHorizontal(lipgloss.Top, leftColumn, rightColumn)

	sendLabel := styleLabel.Render(fmt.Sprintf("send %s", types.ModeOf(m.txHex)))
	sendPanel := stylePanelTitled.
		BorderForeground(m.borderFor(focusSend)).
		Width(l.windowWidth - 2).
		Render(sendLabel + " " + m.sendInput.View())

	footerView := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(colorSubtext).
		Padding(0, 1).
		Width(l.windowWidth - 2).
		Render(m.footerView())

	return lipgloss.JoinVertical(lipgloss.Top,
		topArea,
		sendPanel,
		m.statusView(l.windowWidth),
		footerView,
	)
}

func (m Model) formView() string {
	labels := []string{"Local IP", "Port", "Target IP", "Port"}

	rows := make([]string, 0, formRows)
	for i, in := range m.inputs {
		rows = append(rows, m.formRow(i, labels[i], in.View()))
	}
	rows = append(rows,
		m.formRow(rowRxHex, "Receive", toggleView(m.rxHex)),
		m.formRow(rowTxHex, "Send", toggleView(m.txHex)),
	)
	return strings.Join(rows, "\n")
}

func (m Model) formRow(row int, label, value string) string {
	cursor := "  "
	if m.focus == focusForm && m.formCursor == row {
		cursor = styleSelected.Render("> ")
	}
	return cursor + styleLabel.Render(label) + styleValue.Render(value)
}

func toggleView(hex bool) string {
	if hex {
		return "[HEX]  ASCII "
	}
	return " HEX  [ASCII]"
}

func (m Model) viewportPanel(title string, vp viewport.Model, f focus, width, height int) string {
	titleView := styleTitle.MarginBottom(1).Render(title)
	scrollbar := scrollbarTrack.Width(1).Render(renderScrollbar(vp, vp.Height))
	body := lipgloss.JoinHorizontal(lipgloss.Top, vp.View(), scrollbar)

	return stylePanelTitled.
		BorderForeground(m.borderFor(f)).
		Width(width - 2).
		Height(max(height-2, 1)).
		Render(titleView + "\n" + body)
}

// statusView shows the socket state and traffic counters.
func (m Model) statusView(width int) string {
	var parts []string

	if m.stats != nil {
		state := m.stats.State()
		stateStyle := lipgloss.NewStyle().Foreground(colorError).Bold(true)
		if state == types.StateOpen {
			stateStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
		}
		stateText := strings.ToUpper(state.String())
		if state == types.StateOpen {
			stateText += " " + m.stats.LocalAddr().String()
		}
		parts = append(parts, stateStyle.Render(stateText))

		st := m.stats.Stats()
		parts = append(parts,
			m.printer.Sprintf("tx %d pkts %d B", st.SentPackets, st.SentBytes),
			m.printer.Sprintf("rx %d pkts %d B", st.RecvPackets, st.RecvBytes),
		)
		if st.SendErrors > 0 {
			parts = append(parts, m.printer.Sprintf("errors %d", st.SendErrors))
		}
		if st.Truncated > 0 {
			parts = append(parts, m.printer.Sprintf("truncated %d", st.Truncated))
		}
	}
	if m.status != "" {
		parts = append(parts, styleSubtext.Render(m.status))
	}

	line := strings.Join(parts, styleSubtext.Render(" │ "))
	return lipgloss.NewStyle().Width(width).Padding(0, 1).MaxHeight(1).Render(line)
}

func (m Model) footerView() string {
	keyStyle := lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(colorSubtext)
	sep := descStyle.Render(" • ")

	hint := func(key, desc string) string {
		return keyStyle.Render(key) + descStyle.Render(" "+desc)
	}

	hints := []string{hint("<tab>", "focus")}
	switch m.focus {
	case focusForm:
		hints = append(hints, hint("↑/↓", "field"), hint("space", "toggle"), hint("enter", "apply"))
	case focusPresets:
		hints = append(hints, hint("enter", "send preset"))
	case focusSend:
		hints = append(hints, hint("enter", "send"))
	case focusPackets, focusLogs:
		hints = append(hints, hint("e", "editor"), hint("g/G", "top/bottom"))
	}
	hints = append(hints,
		hint("^x", "close"),
		hint("^l", "clear"),
		hint("^w", "save"),
	)
	if m.profilePath != "" {
		hints = append(hints, hint("^e", "edit profile"))
	}
	if m.focus != focusForm && m.focus != focusSend {
		hints = append(hints, hint("q", "quit"))
	} else {
		hints = append(hints, hint("^c", "quit"))
	}

	return strings.Join(hints, sep)
}
