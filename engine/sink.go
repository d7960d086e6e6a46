package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/samaelod/netassist/hexdump"
	"github.com/samaelod/netassist/types"
)

// RenderPacket formats a received datagram for display: a hexdump in hex
// mode, printable text otherwise.
func RenderPacket(ev types.Event, mode types.Mode) string {
	header := fmt.Sprintf("%s -> %s (%d bytes)", ev.From, ev.To, ev.Len())
	if ev.Truncated {
		header += " [truncated]"
	}
	if mode == types.ModeHex {
		return header + "\n" + hexdump.Dump(ev.Data)
	}
	return header + "\n" + hexdump.Printable(ev.Data) + "\n"
}

// TextSink writes events to a stream, for the non-interactive commands.
// Every log line is also kept in an optional Logger.
type TextSink struct {
	w    io.Writer
	log  *Logger
	mode types.Mode

	mu sync.Mutex
}

func NewTextSink(w io.Writer, log *Logger, rx types.Mode) *TextSink {
	return &TextSink{w: w, log: log, mode: rx}
}

func (t *TextSink) LogAppend(line string) {
	now := time.Now()
	t.log.Append(now, line)

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "[%s] %s\n", now.Format(timestampLayout), line)
}

func (t *TextSink) PacketAppend(ev types.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.w, RenderPacket(ev, t.mode))
}
