package engine

import (
	"bytes"
	"net/netip"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samaelod/netassist/types"
)

func TestTextSink(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("", 10)
	sink := NewTextSink(&buf, logger, types.ModeASCII)

	sink.LogAppend("[NET] UDP bound at 127.0.0.1:9000")
	assert.Regexp(t, regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[NET\] UDP bound at 127\.0\.0\.1:9000\n$`), buf.String())
	assert.Equal(t, 1, logger.Len())

	buf.Reset()
	sink.PacketAppend(types.Event{
		Kind: types.EventPacket,
		Data: []byte("ok\n"),
		From: netip.MustParseAddrPort("127.0.0.1:9001"),
		To:   netip.MustParseAddrPort("127.0.0.1:9000"),
	})
	assert.Equal(t, "127.0.0.1:9001 -> 127.0.0.1:9000 (3 bytes)\nok.\n", buf.String())
	// packets are not part of the event log
	assert.Equal(t, 1, logger.Len())
}
