package tui

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"golang.org/x/text/message"

	"github.com/samaelod/netassist/config"
	"github.com/samaelod/netassist/engine"
	"github.com/samaelod/netassist/types"
)

type screen int

const (
	screenSourceSelect screen = iota
	screenFilePicker
	screenLoading
	screenSession
)

// focus is the session screen panel that receives keys.
type focus int

const (
	focusForm focus = iota
	focusPresets
	focusSend
	focusPackets
	focusLogs
	focusCount
)

// Form rows. The first four are text inputs, the last two are toggles.
const (
	rowLocalIP = iota
	rowLocalPort
	rowRemoteIP
	rowRemotePort
	rowRxHex
	rowTxHex
	formRows
)

// StatsSource reports session counters for the status bar. *engine.Session
// satisfies it.
type StatsSource interface {
	Stats() engine.Stats
	State() types.SessionState
	LocalAddr() netip.AddrPort
}

type Model struct {
	screen screen
	err    error

	// fileBrowser for selecting Lua profiles
	fileBrowser FileBrowser
	menuCursor  int // 0: Lua profile, 1: quick start

	width   int
	height  int
	version string
	app     *config.Config

	relay   *engine.Relay
	backend engine.Backend
	stats   StatsSource
	sink    *paneSink

	profile     *types.Profile
	profilePath string
	listening   bool
	debugLog    *os.File

	focus      focus
	inputs     []textinput.Model
	formCursor int
	rxHex      bool
	txHex      bool
	presets    list.Model
	sendInput  textinput.Model

	packetViewport viewport.Model
	logViewport    viewport.Model

	status  string
	printer *message.Printer
}

const (
	minWindowWidth   = 80
	minWindowHeight  = 24
	defaultListWidth = 36
	minListWidth     = 28
	footerHeight     = 3
	sendHeight       = 3
	statusHeight     = 1
)

func newInputs() []textinput.Model {
	placeholders := []string{"0.0.0.0", "9000", "127.0.0.1", "9001"}
	limits := []int{64, 5, 64, 5}

	inputs := make([]textinput.Model, rowRemotePort+1)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		ti.Width = 18
		inputs[i] = ti
	}
	return inputs
}

// setForm copies an endpoint config into the form.
func (m *Model) setForm(cfg types.EndpointConfig) {
	m.inputs[rowLocalIP].SetValue(cfg.LocalIP)
	m.inputs[rowLocalPort].SetValue(strconv.Itoa(cfg.LocalPort))
	m.inputs[rowRemoteIP].SetValue(cfg.RemoteIP)
	m.inputs[rowRemotePort].SetValue(strconv.Itoa(cfg.RemotePort))
	m.rxHex = cfg.RxMode == types.ModeHex
	m.txHex = cfg.TxMode == types.ModeHex
}

// formConfig parses the form. Range checks are left to the session, which
// logs them; only non-numeric ports are rejected here.
func (m *Model) formConfig() (types.EndpointConfig, error) {
	localPort, err := parsePort("local port", m.inputs[rowLocalPort].Value())
	if err != nil {
		return types.EndpointConfig{}, err
	}
	remotePort, err := parsePort("remote port", m.inputs[rowRemotePort].Value())
	if err != nil {
		return types.EndpointConfig{}, err
	}

	return types.EndpointConfig{
		LocalIP:    m.inputs[rowLocalIP].Value(),
		LocalPort:  localPort,
		RemoteIP:   m.inputs[rowRemoteIP].Value(),
		RemotePort: remotePort,
		RxMode:     types.ModeOf(m.rxHex),
		TxMode:     types.ModeOf(m.txHex),
	}, nil
}

func parsePort(name, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%s is empty", name)
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", name, s)
	}
	return p, nil
}
