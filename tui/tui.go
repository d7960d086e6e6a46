package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/samaelod/netassist/config"
	"github.com/samaelod/netassist/engine"
	"github.com/samaelod/netassist/types"
)

// Options wires the terminal UI to a core. Relay and Backend are required;
// Stats is optional and feeds the status bar.
type Options struct {
	Version string
	App     *config.Config
	Relay   *engine.Relay
	Backend engine.Backend
	Stats   StatsSource

	// Profile, when set, skips the source menu.
	Profile     *types.Profile
	ProfilePath string
}

func New(opts Options) Model {
	app := opts.App
	if app == nil {
		app = config.Default()
	}

	send := textinput.New()
	send.Placeholder = "payload"
	send.CharLimit = 4096

	m := Model{
		screen:         screenSourceSelect,
		fileBrowser:    NewFileBrowser([]string{".lua"}),
		version:        opts.Version,
		app:            app,
		relay:          opts.Relay,
		backend:        opts.Backend,
		stats:          opts.Stats,
		inputs:         newInputs(),
		sendInput:      send,
		presets:        newPresetList(nil),
		packetViewport: viewport.New(10, 10),
		logViewport:    viewport.New(10, 10),
		printer:        message.NewPrinter(language.English),
	}
	m.sink = newPaneSink(engine.NewLogger("", app.LogLines), engine.NewLogger("", app.PacketLines), types.ModeHex)
	m.setForm(types.DefaultEndpointConfig())

	if opts.Profile != nil {
		m = m.startSession(opts.Profile, opts.ProfilePath)
		m.listening = true
		m.setFocus(focusForm)
	}

	return m
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenSession {
		return waitForEvent(m.relay)
	}
	return nil
}

func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
