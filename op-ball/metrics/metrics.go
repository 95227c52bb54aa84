package metrics

import (
	"math/big"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	opmetrics "github.com/jinmel/interop/op-service/metrics"
)

const Namespace = "op_ball"

type Metricer interface {
	RecordInfo(version string)
	RecordUp()
	RecordBallReceived(srcEID uint32, ball *uint256.Int)
	RecordBallSent(dstEID uint32, ball *uint256.Int)
	RecordBounce(dstEID uint32)
	RecordRejected(reason string)
	RecordDispatchFailed(dstEID uint32)
}

type Metrics struct {
	ns       string
	registry *prometheus.Registry

	info prometheus.GaugeVec
	up   prometheus.Gauge

	ball            prometheus.Gauge
	received        *prometheus.CounterVec
	sent            *prometheus.CounterVec
	bounces         *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	dispatchFailure *prometheus.CounterVec
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics(procName string) *Metrics {
	if procName == "" {
		procName = "default"
	}
	ns := Namespace + "_" + procName

	registry := opmetrics.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		ns:       ns,
		registry: registry,
		info: *factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "info",
			Help:      "Pseudo-metric tracking version and config info",
		}, []string{
			"version",
		}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "up",
			Help:      "1 if the op-ball node has finished starting up",
		}),
		ball: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "ball",
			Help:      "Current ball value (approximate above 2^53)",
		}),
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "balls_received_total",
			Help:      "Number of inbound messages applied, by source endpoint id",
		}, []string{"src_eid"}),
		sent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "balls_sent_total",
			Help:      "Number of application-initiated sends, by destination endpoint id",
		}, []string{"dst_eid"}),
		bounces: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "bounces_total",
			Help:      "Number of automatic return messages dispatched",
		}, []string{"dst_eid"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "rejected_total",
			Help:      "Number of inbound messages rejected, by reason",
		}, []string{"reason"}),
		dispatchFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "dispatch_failures_total",
			Help:      "Number of outbound dispatches the transport refused",
		}, []string{"dst_eid"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordInfo(version string) {
	m.info.WithLabelValues(version).Set(1)
}

func (m *Metrics) RecordUp() {
	m.up.Set(1)
}

func (m *Metrics) RecordBallReceived(srcEID uint32, ball *uint256.Int) {
	m.received.WithLabelValues(eidLabel(srcEID)).Inc()
	m.ball.Set(ballFloat(ball))
}

func (m *Metrics) RecordBallSent(dstEID uint32, ball *uint256.Int) {
	m.sent.WithLabelValues(eidLabel(dstEID)).Inc()
	m.ball.Set(ballFloat(ball))
}

func (m *Metrics) RecordBounce(dstEID uint32) {
	m.bounces.WithLabelValues(eidLabel(dstEID)).Inc()
}

func (m *Metrics) RecordRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordDispatchFailed(dstEID uint32) {
	m.dispatchFailure.WithLabelValues(eidLabel(dstEID)).Inc()
}

func eidLabel(eid uint32) string {
	return strconv.FormatUint(uint64(eid), 10)
}

func ballFloat(ball *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(ball.ToBig()).Float64()
	return f
}
