package tui

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wrap"

	"github.com/samaelod/netassist/engine"
	"github.com/samaelod/netassist/lua"
	"github.com/samaelod/netassist/types"
)

// setupSessionLog points the standard logger at the profile's debug log
// and returns the file, or nil if it could not be opened.
func setupSessionLog(profilePath, logsDir string) *os.File {
	logPath := filepath.Join(logsDir, profileBase(profilePath)+".debug.log")

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
		return nil
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
		return nil
	}

	log.SetOutput(f)
	log.Printf("Session started with profile: %s", profilePath)
	return f
}

func profileBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func editorCommand(path string) *exec.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "nano"
	}
	return exec.Command(editor, path)
}

func openLogsInEditor(content string) tea.Cmd {
	f, err := os.CreateTemp("", "netassist-*.log")
	if err != nil {
		return func() tea.Msg { return logErrorMsg{err} }
	}

	_, err = f.WriteString(content)
	f.Close()
	if err != nil {
		os.Remove(f.Name())
		return func() tea.Msg { return logErrorMsg{err} }
	}
	tempPath := f.Name()

	return tea.ExecProcess(editorCommand(tempPath), func(err error) tea.Msg {
		os.Remove(tempPath)
		return nil
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshPanes()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.shutdown()
			return m, tea.Quit
		}

	case eventMsg:
		engine.Deliver(m.sink, types.Event(msg))
		m.refreshPanes()
		return m, waitForEvent(m.relay)

	case relayClosedMsg:
		m.listening = false
		return m, nil

	case profileLoadedMsg:
		m = m.startSession(msg.profile, msg.path)
		m.err = nil
		if !m.listening {
			m.listening = true
			return m, tea.Batch(waitForEvent(m.relay), m.setFocus(focusForm))
		}
		return m, m.setFocus(focusForm)

	case editorFinishedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		return m, loadProfileCmd(m.profilePath)

	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
		} else {
			m.status = "saved " + msg.path
		}
		return m, nil

	case logErrorMsg:
		m.status = msg.err.Error()
		return m, nil
	}

	switch m.screen {

	case screenSourceSelect:
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "q":
				m.shutdown()
				return m, tea.Quit
			case "up", "k", "left", "h":
				m.menuCursor--
				if m.menuCursor < 0 {
					m.menuCursor = 1
				}
			case "down", "j", "right", "l":
				m.menuCursor++
				if m.menuCursor > 1 {
					m.menuCursor = 0
				}
			case "enter":
				if m.menuCursor == 1 {
					p := types.ProfileFromEndpoint("quickstart", types.DefaultEndpointConfig())
					return m.Update(profileLoadedMsg{profile: p})
				}
				m.fileBrowser = NewFileBrowser([]string{".lua"})
				m.fileBrowser.SetSize(m.width/3-4, m.height-7)
				m.screen = screenFilePicker
			}
		}
		return m, nil

	case screenFilePicker:
		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
			m.screen = screenSourceSelect
			return m, nil
		}

		var cmd tea.Cmd
		m.fileBrowser, cmd = m.fileBrowser.Update(msg)

		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
			item := m.fileBrowser.List.SelectedItem()
			if item == nil {
				return m, cmd
			}
			fi, ok := item.(fileItem)
			if !ok || fi.isDir || !m.fileBrowser.allowed(fi.name) {
				return m, cmd
			}

			m.screen = screenLoading
			log.Println("Selected profile: " + fi.path)
			return m, loadProfileCmd(fi.path)
		}

		return m, cmd

	case screenLoading:
		switch msg := msg.(type) {
		case errMsg:
			m.err = msg.err
		case tea.KeyMsg:
			if m.err != nil {
				m.err = nil
				m.screen = screenFilePicker
			}
		}
		return m, nil

	case screenSession:
		return m.updateSession(msg)
	}

	return m, nil
}

func (m Model) updateSession(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if isKey {
		switch key.String() {
		case "tab":
			return m, m.setFocus((m.focus + 1) % focusCount)
		case "shift+tab":
			return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
		case "ctrl+x":
			m.backend.Close()
			m.status = "socket closed"
			return m, nil
		case "ctrl+l":
			m.sink.clear()
			m.backend.ClearLog()
			m.refreshPanes()
			return m, nil
		case "ctrl+w":
			return m, m.saveCmd()
		case "ctrl+e":
			if m.profilePath == "" {
				m.status = "no profile file to edit"
				return m, nil
			}
			return m, tea.ExecProcess(editorCommand(m.profilePath), func(err error) tea.Msg {
				return editorFinishedMsg{err}
			})
		}

		// Single-letter shortcuts only where no text input has focus.
		if m.focus != focusForm && m.focus != focusSend && key.String() == "q" {
			m.shutdown()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd

	switch m.focus {
	case focusForm:
		if isKey {
			switch key.String() {
			case "up":
				return m, m.moveFormCursor(-1)
			case "down":
				return m, m.moveFormCursor(1)
			case "enter":
				m.apply()
				return m, nil
			case " ", "space":
				if m.formCursor == rowRxHex {
					m.rxHex = !m.rxHex
					return m, nil
				}
				if m.formCursor == rowTxHex {
					m.txHex = !m.txHex
					return m, nil
				}
			}
		}
		if m.formCursor < rowRxHex {
			m.inputs[m.formCursor], cmd = m.inputs[m.formCursor].Update(msg)
		}

	case focusPresets:
		if isKey && key.String() == "enter" {
			if it, ok := m.presets.SelectedItem().(presetItem); ok {
				m.send([]byte(it.Value), it.Hex)
			}
			return m, nil
		}
		m.presets, cmd = m.presets.Update(msg)

	case focusSend:
		if isKey && key.String() == "enter" {
			m.send([]byte(m.sendInput.Value()), m.txHex)
			return m, nil
		}
		m.sendInput, cmd = m.sendInput.Update(msg)

	case focusPackets, focusLogs:
		vp := &m.logViewport
		content := m.sink.log.ReadAll()
		if m.focus == focusPackets {
			vp = &m.packetViewport
			content = m.packetContent()
		}
		if isKey {
			switch key.String() {
			case "g":
				vp.GotoTop()
				return m, nil
			case "G":
				vp.GotoBottom()
				return m, nil
			case "e":
				return m, openLogsInEditor(content)
			}
		}
		*vp, cmd = vp.Update(msg)
	}

	return m, cmd
}

// startSession switches to the session screen with p loaded into the form.
func (m Model) startSession(p *types.Profile, path string) Model {
	m.profile = p
	m.profilePath = path
	m.setForm(p.Endpoint())
	m.sink.setMode(types.ModeOf(p.RxHex))
	m.presets = newPresetList(p.Presets)

	logPath := ""
	if path != "" {
		if f := setupSessionLog(path, m.app.LogsDir); f != nil {
			if m.debugLog != nil {
				m.debugLog.Close()
			}
			m.debugLog = f
		}
		logPath = filepath.Join(m.app.LogsDir, profileBase(path)+".log")
	}
	m.sink.replaceLog(engine.NewLogger(logPath, m.app.LogLines))

	m.screen = screenSession
	m.focus = focusForm
	m.formCursor = rowLocalIP
	m.resize()
	m.refreshPanes()
	return m
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.sendInput.Blur()

	// The logs pane grows while focused.
	m.resize()

	switch f {
	case focusForm:
		if m.formCursor < rowRxHex {
			return m.inputs[m.formCursor].Focus()
		}
	case focusSend:
		return m.sendInput.Focus()
	}
	return nil
}

func (m *Model) moveFormCursor(delta int) tea.Cmd {
	m.formCursor = (m.formCursor + delta + formRows) % formRows
	return m.setFocus(focusForm)
}

func (m *Model) apply() {
	cfg, err := m.formConfig()
	if err != nil {
		m.status = err.Error()
		return
	}

	m.sink.setMode(cfg.RxMode)
	if m.backend.ApplyConfig(cfg) {
		m.status = "socket open"
	} else {
		m.status = "apply failed, see log"
	}
}

func (m *Model) send(payload []byte, hex bool) {
	if m.backend.SendManual(payload, hex) {
		m.status = fmt.Sprintf("sent %s", types.ModeOf(hex))
	} else {
		m.status = "send failed, see log"
	}
}

func (m *Model) saveCmd() tea.Cmd {
	cfg, err := m.formConfig()
	if err != nil {
		m.status = err.Error()
		return nil
	}

	name := "quickstart"
	var presets []types.Preset
	if m.profile != nil {
		name = m.profile.Name
		presets = m.profile.Presets
	}
	p := types.ProfileFromEndpoint(name, cfg)
	p.Presets = presets
	origin := m.profilePath
	app := m.app

	return func() tea.Msg {
		path, err := lua.SaveToRecent(app, p, origin)
		return savedMsg{path: path, err: err}
	}
}

func (m *Model) refreshPanes() {
	m.logViewport.SetContent(wrap.String(m.sink.log.ReadAll(), m.logViewport.Width))
	if m.focus != focusLogs {
		m.logViewport.GotoBottom()
	}
	m.packetViewport.SetContent(m.packetContent())
	if m.focus != focusPackets {
		m.packetViewport.GotoBottom()
	}
}

func (m Model) packetContent() string {
	return strings.Join(m.sink.packets.Lines(), "\n")
}

func (m *Model) shutdown() {
	if m.backend != nil {
		m.backend.Close()
	}
	if m.relay != nil {
		m.relay.Close()
	}
	m.sink.close()
	if m.debugLog != nil {
		log.SetOutput(os.Stderr)
		m.debugLog.Close()
		m.debugLog = nil
	}
}

func loadProfileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		p, err := lua.ReadProfile(path)
		if err != nil {
			return errMsg{err}
		}
		return profileLoadedMsg{profile: p, path: path}
	}
}

type profileLoadedMsg struct {
	profile *types.Profile
	path    string
}

type savedMsg struct {
	path string
	err  error
}

type errMsg struct{ err error }
type editorFinishedMsg struct{ err error }
type logErrorMsg struct{ err error }
