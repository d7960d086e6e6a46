package capture

import (
	"errors"
	"io"
	"net/netip"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var ErrNoUDP = errors.New("capture contains no UDP datagrams")

// Datagram is one UDP payload found in a capture file.
type Datagram struct {
	Src     netip.AddrPort
	Dst     netip.AddrPort
	Payload []byte
	Time    time.Time
	Delta   time.Duration // since the previous datagram
}

type packetSource interface {
	LinkType() layers.LinkType
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)
}

func detectFormat(path string) (format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	header := make([]byte, 4)
	if _, err := io.ReadFull(file, header); err != nil {
		return "pcap", nil
	}

	// pcapng Section Header Block
	magic := uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16 | uint32(header[3])<<24
	if magic == 0x0A0D0D0A {
		return "pcapng", nil
	}
	return "pcap", nil
}

type fileSource struct {
	packetSource
	file *os.File
}

func openPacketSource(path string) (*fileSource, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var src packetSource
	if format == "pcapng" {
		src, err = pcapgo.NewNgReader(file, pcapgo.DefaultNgReaderOptions)
	} else {
		src, err = pcapgo.NewReader(file)
	}
	if err != nil {
		file.Close()
		return nil, err
	}
	return &fileSource{packetSource: src, file: file}, nil
}

// ReadUDP extracts every UDP datagram from a pcap or pcapng file, in
// capture order.
func ReadUDP(path string) ([]Datagram, error) {
	source, err := openPacketSource(path)
	if err != nil {
		return nil, err
	}
	defer source.file.Close()

	var (
		out      []Datagram
		prevTime time.Time
	)

	packetSrc := gopacket.NewPacketSource(source, source.LinkType())
	for packet := range packetSrc.Packets() {
		nl := packet.NetworkLayer()
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if nl == nil || udpLayer == nil {
			continue
		}
		udp := udpLayer.(*layers.UDP)

		var srcIP, dstIP netip.Addr
		switch ip := nl.(type) {
		case *layers.IPv4:
			srcIP, _ = netip.AddrFromSlice(ip.SrcIP.To4())
			dstIP, _ = netip.AddrFromSlice(ip.DstIP.To4())
		case *layers.IPv6:
			srcIP, _ = netip.AddrFromSlice(ip.SrcIP)
			dstIP, _ = netip.AddrFromSlice(ip.DstIP)
		default:
			continue
		}

		ts := packet.Metadata().Timestamp
		var delta time.Duration
		if !prevTime.IsZero() {
			delta = ts.Sub(prevTime)
		}
		prevTime = ts

		out = append(out, Datagram{
			Src:     netip.AddrPortFrom(srcIP, uint16(udp.SrcPort)),
			Dst:     netip.AddrPortFrom(dstIP, uint16(udp.DstPort)),
			Payload: append([]byte(nil), udp.Payload...),
			Time:    ts,
			Delta:   delta,
		})
	}

	if len(out) == 0 {
		return nil, ErrNoUDP
	}
	return out, nil
}

// FilterDst keeps the datagrams sent to port. Port 0 keeps everything.
// Deltas are recomputed so pacing stays faithful to the kept subset.
func FilterDst(dgs []Datagram, port uint16) []Datagram {
	if port == 0 {
		return dgs
	}
	var out []Datagram
	var prev time.Time
	for _, d := range dgs {
		if d.Dst.Port() != port {
			continue
		}
		d.Delta = 0
		if !prev.IsZero() {
			d.Delta = d.Time.Sub(prev)
		}
		prev = d.Time
		out = append(out, d)
	}
	return out
}
