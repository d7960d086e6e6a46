package tui

import (
	"errors"
	"log"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaelod/netassist/config"
	"github.com/samaelod/netassist/engine"
	"github.com/samaelod/netassist/hexdump"
	"github.com/samaelod/netassist/types"
)

type sentPayload struct {
	payload string
	hex     bool
}

type fakeBackend struct {
	applied []types.EndpointConfig
	sent    []sentPayload
	closed  int
	cleared int
	ok      bool
}

func (f *fakeBackend) ApplyConfig(cfg types.EndpointConfig) bool {
	f.applied = append(f.applied, cfg)
	return f.ok
}
func (f *fakeBackend) Close() { f.closed++ }
func (f *fakeBackend) SendManual(payload []byte, hex bool) bool {
	f.sent = append(f.sent, sentPayload{string(payload), hex})
	return f.ok
}
func (f *fakeBackend) ClearLog() { f.cleared++ }

func newTestModel(t *testing.T, profile *types.Profile) (Model, *fakeBackend, *engine.Relay) {
	t.Helper()
	relay := engine.NewRelay()
	backend := &fakeBackend{ok: true}
	m := New(Options{Version: "test", Relay: relay, Backend: backend, Profile: profile})
	return m, backend, relay
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func TestQuickStartOpensSessionScreen(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	assert.Equal(t, screenSourceSelect, m.screen)

	m, _ = update(t, m, key(tea.KeyDown))
	assert.Equal(t, 1, m.menuCursor)

	m, cmd := update(t, m, key(tea.KeyEnter))
	assert.Equal(t, screenSession, m.screen)
	assert.True(t, m.listening)
	assert.NotNil(t, cmd)

	cfg, err := m.formConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultEndpointConfig(), cfg)
}

func TestApplySendsFormToBackend(t *testing.T) {
	m, backend, _ := newTestModel(t, types.ProfileFromEndpoint("p", types.DefaultEndpointConfig()))
	require.Equal(t, screenSession, m.screen)

	m.inputs[rowRemotePort].SetValue("7001")
	m, _ = update(t, m, key(tea.KeyEnter))

	require.Len(t, backend.applied, 1)
	assert.Equal(t, 7001, backend.applied[0].RemotePort)
	assert.Equal(t, "socket open", m.status)
}

func TestApplyRejectsNonNumericPort(t *testing.T) {
	m, backend, _ := newTestModel(t, types.ProfileFromEndpoint("p", types.DefaultEndpointConfig()))

	m.inputs[rowLocalPort].SetValue("90x0")
	m, _ = update(t, m, key(tea.KeyEnter))

	assert.Empty(t, backend.applied)
	assert.Contains(t, m.status, "not a number")
}

func TestToggleModes(t *testing.T) {
	m, backend, _ := newTestModel(t, types.ProfileFromEndpoint("p", types.DefaultEndpointConfig()))
	require.True(t, m.rxHex)

	for i := 0; i < rowRxHex; i++ {
		m, _ = update(t, m, key(tea.KeyDown))
	}
	require.Equal(t, rowRxHex, m.formCursor)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, m.rxHex)

	m, _ = update(t, m, key(tea.KeyEnter))
	require.Len(t, backend.applied, 1)
	assert.Equal(t, types.ModeASCII, backend.applied[0].RxMode)
	assert.Equal(t, types.ModeHex, backend.applied[0].TxMode)
}

func TestSendLineUsesTxMode(t *testing.T) {
	m, backend, _ := newTestModel(t, types.ProfileFromEndpoint("p", types.DefaultEndpointConfig()))

	m, _ = update(t, m, key(tea.KeyTab))
	m, _ = update(t, m, key(tea.KeyTab))
	require.Equal(t, focusSend, m.focus)

	m.sendInput.SetValue("0A 0B")
	m, _ = update(t, m, key(tea.KeyEnter))

	require.Len(t, backend.sent, 1)
	assert.Equal(t, sentPayload{"0A 0B", true}, backend.sent[0])

	// q is text while the send line has focus.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.Zero(t, backend.closed)
	assert.Equal(t, "0A 0Bq", m.sendInput.Value())
}

func TestPresetSend(t *testing.T) {
	p := types.ProfileFromEndpoint("p", types.DefaultEndpointConfig())
	p.Presets = []types.Preset{
		{Name: "ping", Value: "01 02", Hex: true},
		{Name: "hello", Value: "hello", Hex: false},
	}
	m, backend, _ := newTestModel(t, p)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 45})

	m, _ = update(t, m, key(tea.KeyTab))
	require.Equal(t, focusPresets, m.focus)

	m, _ = update(t, m, key(tea.KeyDown))
	m, _ = update(t, m, key(tea.KeyEnter))

	require.Len(t, backend.sent, 1)
	assert.Equal(t, sentPayload{"hello", false}, backend.sent[0])
}

func TestEventsFillPanes(t *testing.T) {
	m, _, _ := newTestModel(t, types.ProfileFromEndpoint("p", types.DefaultEndpointConfig()))

	m, cmd := update(t, m, eventMsg(types.Event{Kind: types.EventLog, Line: "[NET] UDP bound at 127.0.0.1:9000"}))
	assert.NotNil(t, cmd)
	assert.Contains(t, m.sink.log.ReadAll(), "[NET] UDP bound at 127.0.0.1:9000")

	data := []byte("hi\x00")
	m, _ = update(t, m, eventMsg(types.Event{
		Kind: types.EventPacket,
		Data: data,
		From: netip.MustParseAddrPort("127.0.0.1:9001"),
		To:   netip.MustParseAddrPort("127.0.0.1:9000"),
	}))
	content := m.packetContent()
	assert.Contains(t, content, "127.0.0.1:9001 -> 127.0.0.1:9000 (3 bytes)")
	assert.Contains(t, content, "68 69 00")
	assert.Contains(t, content, hexdump.Printable(data))
}

func TestClearLog(t *testing.T) {
	m, backend, _ := newTestModel(t, types.ProfileFromEndpoint("p", types.DefaultEndpointConfig()))

	m, _ = update(t, m, eventMsg(types.Event{Kind: types.EventLog, Line: "old line"}))
	require.Equal(t, 1, m.sink.log.Len())

	m, _ = update(t, m, key(tea.KeyCtrlL))
	assert.Equal(t, 1, backend.cleared)
	assert.Zero(t, m.sink.log.Len())
	assert.Zero(t, m.sink.packets.Len())
}

func TestWaitForEvent(t *testing.T) {
	relay := engine.NewRelay()
	relay.Log("[RECV] loop stopped")

	msg := waitForEvent(relay)()
	ev, ok := msg.(eventMsg)
	require.True(t, ok)
	assert.Equal(t, "[RECV] loop stopped", ev.Line)

	relay.Close()
	assert.Equal(t, relayClosedMsg{}, waitForEvent(relay)())
}

func TestQuitClosesBackendAndRelay(t *testing.T) {
	m, backend, relay := newTestModel(t, types.ProfileFromEndpoint("p", types.DefaultEndpointConfig()))

	_, cmd := update(t, m, key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, backend.closed)
	assert.False(t, relay.Emit(types.Event{Kind: types.EventLog, Line: "late"}))
}

func TestViewRendersSessionScreen(t *testing.T) {
	m, _, _ := newTestModel(t, types.ProfileFromEndpoint("p", types.DefaultEndpointConfig()))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 45})

	out := m.View()
	assert.Contains(t, out, "Endpoint")
	assert.Contains(t, out, "Packets")
	assert.Contains(t, out, "Logs")

	small, _ := update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, small.View(), "too small")
}

func newAppModel(t *testing.T, app *config.Config) Model {
	t.Helper()
	m := New(Options{Version: "test", App: app, Relay: engine.NewRelay(), Backend: &fakeBackend{ok: true}})
	t.Cleanup(func() {
		m.shutdown()
		log.SetOutput(os.Stderr)
	})
	return m
}

func TestSaveUsesConfiguredRecentDir(t *testing.T) {
	app := config.Default()
	app.RecentDir = filepath.Join(t.TempDir(), "myrecent")
	m := newAppModel(t, app)

	m, _ = update(t, m, key(tea.KeyDown))
	m, _ = update(t, m, key(tea.KeyEnter))
	require.Equal(t, screenSession, m.screen)

	m, cmd := update(t, m, key(tea.KeyCtrlW))
	require.NotNil(t, cmd)
	msg, ok := cmd().(savedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	assert.Equal(t, filepath.Join(app.RecentDir, "quickstart_1.lua"), msg.path)

	m, _ = update(t, m, msg)
	assert.True(t, strings.HasPrefix(m.status, "saved "+app.RecentDir))
}

func TestReloadClosesPreviousDebugLog(t *testing.T) {
	app := config.Default()
	app.LogsDir = t.TempDir()
	m := newAppModel(t, app)
	p := types.ProfileFromEndpoint("lab", types.DefaultEndpointConfig())

	m, _ = update(t, m, profileLoadedMsg{profile: p, path: "/profiles/lab.lua"})
	first := m.debugLog
	require.NotNil(t, first)

	m, _ = update(t, m, profileLoadedMsg{profile: p, path: "/profiles/lab.lua"})
	require.NotNil(t, m.debugLog)
	assert.NotSame(t, first, m.debugLog)

	_, err := first.WriteString("late\n")
	assert.True(t, errors.Is(err, os.ErrClosed), "first debug log still open: %v", err)

	second := m.debugLog
	m.shutdown()
	assert.Nil(t, m.debugLog)
	_, err = second.WriteString("late\n")
	assert.True(t, errors.Is(err, os.ErrClosed))
}

