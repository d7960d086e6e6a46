package tui

import (
	"context"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samaelod/netassist/engine"
	"github.com/samaelod/netassist/types"
)

// paneSink is the terminal's presentation sink. It fills the log and packet
// panes; the model re-renders them after each delivered event.
type paneSink struct {
	log     *engine.Logger
	packets *engine.Logger

	mu sync.Mutex
	rx types.Mode
}

var _ engine.Sink = (*paneSink)(nil)

func newPaneSink(log, packets *engine.Logger, rx types.Mode) *paneSink {
	return &paneSink{log: log, packets: packets, rx: rx}
}

func (s *paneSink) LogAppend(line string) {
	s.log.Append(time.Now(), line)
}

func (s *paneSink) PacketAppend(ev types.Event) {
	s.mu.Lock()
	mode := s.rx
	s.mu.Unlock()

	s.packets.Append(ev.Time, strings.TrimRight(engine.RenderPacket(ev, mode), "\n"))
}

func (s *paneSink) setMode(rx types.Mode) {
	s.mu.Lock()
	s.rx = rx
	s.mu.Unlock()
}

// replaceLog swaps the log buffer, closing the old one.
func (s *paneSink) replaceLog(l *engine.Logger) {
	old := s.log
	s.log = l
	if old != nil && old != l {
		old.Close()
	}
}

func (s *paneSink) clear() {
	s.log.Clear()
	s.packets.Clear()
}

func (s *paneSink) close() {
	s.log.Close()
	s.packets.Close()
}

type eventMsg types.Event
type relayClosedMsg struct{}

// waitForEvent blocks until the relay has an event for the UI goroutine.
// The model issues it again after handling each eventMsg.
func waitForEvent(relay *engine.Relay) tea.Cmd {
	return func() tea.Msg {
		ev, err := relay.Next(context.Background())
		if err != nil {
			return relayClosedMsg{}
		}
		return eventMsg(ev)
	}
}
