// Package capture records session traffic to pcap files and reads UDP
// datagrams back from pcap/pcapng captures for replay.
package capture

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const snapLen = 65536

var ErrNotIPv4 = errors.New("capture: only IPv4 endpoints can be recorded")

var zeroMAC = net.HardwareAddr{0, 0, 0, 0, 0, 0}

// Writer appends datagrams to a classic pcap stream as Ethernet/IPv4/UDP
// frames, so any capture tool can open the result. It is safe for
// concurrent use.
type Writer struct {
	mu    sync.Mutex
	out   io.Writer
	w     *pcapgo.Writer
	count int
}

// Create makes path (and its directory) and writes the pcap header.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create capture directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func NewWriter(out io.Writer) (*Writer, error) {
	w := pcapgo.NewWriter(out)
	if err := w.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("write pcap header: %w", err)
	}
	return &Writer{out: out, w: w}, nil
}

// Record writes one datagram. It satisfies engine.Recorder.
func (w *Writer) Record(src, dst netip.AddrPort, payload []byte, ts time.Time) error {
	frame, err := encodeFrame(src, dst, payload)
	if err != nil {
		return err
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(frame),
		Length:        len(frame),
	}
	if ci.CaptureLength > snapLen {
		ci.CaptureLength = snapLen
		frame = frame[:snapLen]
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return os.ErrClosed
	}
	if err := w.w.WritePacket(ci, frame); err != nil {
		return err
	}
	w.count++
	return nil
}

func encodeFrame(src, dst netip.AddrPort, payload []byte) ([]byte, error) {
	sa, da := src.Addr().Unmap(), dst.Addr().Unmap()
	if !sa.Is4() || !da.Is4() {
		return nil, ErrNotIPv4
	}

	eth := &layers.Ethernet{
		SrcMAC:       zeroMAC,
		DstMAC:       zeroMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    sa.AsSlice(),
		DstIP:    da.AsSlice(),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(src.Port()),
		DstPort: layers.UDPPort(dst.Port()),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Count returns the number of datagrams written so far.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the underlying stream if it is a Closer. Further Record
// calls fail.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	w.w = nil
	if c, ok := w.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
