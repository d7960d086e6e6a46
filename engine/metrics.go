package engine

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samaelod/netassist/types"
)

type counters struct {
	sentPackets atomic.Uint64
	sentBytes   atomic.Uint64
	sendErrors  atomic.Uint64
	recvPackets atomic.Uint64
	recvBytes   atomic.Uint64
	truncated   atomic.Uint64
}

// Stats is a snapshot of the session traffic counters. Counters survive
// reopening the session.
type Stats struct {
	SentPackets uint64
	SentBytes   uint64
	SendErrors  uint64
	RecvPackets uint64
	RecvBytes   uint64
	Truncated   uint64
}

func (s *Session) Stats() Stats {
	return Stats{
		SentPackets: s.stats.sentPackets.Load(),
		SentBytes:   s.stats.sentBytes.Load(),
		SendErrors:  s.stats.sendErrors.Load(),
		RecvPackets: s.stats.recvPackets.Load(),
		RecvBytes:   s.stats.recvBytes.Load(),
		Truncated:   s.stats.truncated.Load(),
	}
}

const metricsNamespace = "netassist"

var (
	descPackets = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "udp", "datagrams_total"),
		"Datagrams handled by the session.",
		[]string{"direction"}, nil,
	)
	descBytes = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "udp", "bytes_total"),
		"Payload bytes handled by the session.",
		[]string{"direction"}, nil,
	)
	descSendErrors = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "udp", "send_errors_total"),
		"Send attempts rejected by the socket.",
		nil, nil,
	)
	descTruncated = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "udp", "truncated_total"),
		"Received datagrams larger than the receive buffer.",
		nil, nil,
	)
	descOpen = prometheus.NewDesc(
		prometheus.BuildFQName(metricsNamespace, "session", "open"),
		"1 while the session holds a bound socket.",
		nil, nil,
	)
)

// Collector exposes a session's counters to Prometheus. Values are read at
// scrape time.
type Collector struct {
	s *Session
}

func NewCollector(s *Session) *Collector {
	return &Collector{s: s}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descPackets
	ch <- descBytes
	ch <- descSendErrors
	ch <- descTruncated
	ch <- descOpen
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.s.Stats()
	ch <- prometheus.MustNewConstMetric(descPackets, prometheus.CounterValue, float64(st.SentPackets), "tx")
	ch <- prometheus.MustNewConstMetric(descPackets, prometheus.CounterValue, float64(st.RecvPackets), "rx")
	ch <- prometheus.MustNewConstMetric(descBytes, prometheus.CounterValue, float64(st.SentBytes), "tx")
	ch <- prometheus.MustNewConstMetric(descBytes, prometheus.CounterValue, float64(st.RecvBytes), "rx")
	ch <- prometheus.MustNewConstMetric(descSendErrors, prometheus.CounterValue, float64(st.SendErrors))
	ch <- prometheus.MustNewConstMetric(descTruncated, prometheus.CounterValue, float64(st.Truncated))

	open := 0.0
	if c.s.State() == types.StateOpen {
		open = 1
	}
	ch <- prometheus.MustNewConstMetric(descOpen, prometheus.GaugeValue, open)
}
