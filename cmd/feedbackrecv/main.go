// Command feedbackrecv is a runnable demonstration of the transport-wide
// congestion control feedback engine: it feeds a synthetic packet stream
// through a transportcc.Proxy, logs every outgoing feedback/BWE packet, and
// exposes the engine's state on a Prometheus /metrics endpoint.
package main

import (
	"encoding/binary"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/alphacc/receiver/internal/config"
	"github.com/alphacc/receiver/internal/metrics"
	"github.com/alphacc/receiver/internal/predictor"
	"github.com/alphacc/receiver/internal/telemetry"
	"github.com/alphacc/receiver/internal/transportcc"
)

// loggingSender logs every feedback/application packet instead of shipping
// it over the wire, standing in for a real RTCP transport in this demo.
type loggingSender struct {
	logger logrus.FieldLogger
}

func (s loggingSender) SendTransportFeedback(p transportcc.FeedbackPacket) {
	s.logger.WithField("packet", p).Debug("transport feedback sent")
}

func (s loggingSender) SendApplicationPacket(payload []byte) {
	msg, ok := transportcc.DecodeBweMessage(payload)
	if !ok {
		s.logger.Warn("dropped malformed BWE sendback payload")
		return
	}
	s.logger.WithField("bwe", msg).Debug("BWE sendback sent")
}

// loggingPacket is the demo's FeedbackPacket implementation: it just records
// what it was asked to carry, for loggingSender to print.
type loggingPacket struct {
	MediaSSRC uint32
	BaseSeq   uint16
	BaseTime  int64
	FbNum     uint8
	Entries   []uint16
}

func (p *loggingPacket) SetMediaSSRC(ssrc uint32)             { p.MediaSSRC = ssrc }
func (p *loggingPacket) SetBase(seq uint16, baseTimeUS int64) { p.BaseSeq = seq; p.BaseTime = baseTimeUS }
func (p *loggingPacket) SetFeedbackSequenceNumber(n uint8)    { p.FbNum = n }
func (p *loggingPacket) AddReceivedPacket(seq uint16, arrivalUS int64) bool {
	const maxEntries = 200 // an arbitrary demo capacity, to exercise capacity splits
	if len(p.Entries) >= maxEntries {
		return false
	}
	p.Entries = append(p.Entries, seq)
	return true
}

// wallClock adapts time.Now to transportcc.Clock.
type wallClock struct{ start time.Time }

func (c wallClock) TimeMS() int64 { return time.Since(c.start).Milliseconds() }

// loggingTelemetryStore is the demo's telemetry.Store backend: it just logs
// what it was asked to collect/save instead of talking to a real store,
// standing in for the redis-shaped backend spec.md §6 leaves external.
type loggingTelemetryStore struct {
	logger logrus.FieldLogger
	rows   []telemetry.Row
}

func (s *loggingTelemetryStore) Connect(ip string, port int) error {
	s.logger.WithField("addr", ip).Info("telemetry store connected")
	return nil
}

func (s *loggingTelemetryStore) SetConfig(sessionID, kind string) error {
	s.logger.WithFields(logrus.Fields{"session_id": sessionID, "kind": kind}).Info("telemetry store configured")
	return nil
}

func (s *loggingTelemetryStore) Collect(row telemetry.Row) {
	s.rows = append(s.rows, row)
}

func (s *loggingTelemetryStore) Save() telemetry.SaveResult {
	s.logger.WithField("rows", len(s.rows)).Debug("telemetry flushed")
	s.rows = s.rows[:0]
	return telemetry.SaveOK
}

func (s *loggingTelemetryStore) Close() error {
	s.logger.Info("telemetry store closed")
	return nil
}

// demoPredictor stands in for a real bandwidth predictor: no onnx runtime
// binding ships in this module, so the demo's Constructor hands back a fixed
// estimate instead of running inference.
type demoPredictor struct {
	estimate float32
}

func (p *demoPredictor) OnReceived(payloadType uint8, seq int64, sendTimeMS int64, ssrc uint32, paddingLen, headerLen int, arrivalMS int64, payloadSize int, lossCount, rtt int32) {
}

func (p *demoPredictor) GetBWEEstimate() float32 { return p.estimate }

func main() {
	configPath := flag.String("config", "", "path to an AlphaCCConfig YAML file (optional)")
	listenAddr := flag.String("listen", ":9100", "address to serve /metrics on")
	ssrc := flag.Uint("ssrc", 12345, "synthetic media SSRC to generate")
	flag.Parse()

	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}
	if cfg.RedisSID == "" {
		cfg.RedisSID = xid.New().String()
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid config")
	}
	logger.WithFields(cfg.LogFields()).Info("config loaded")

	clock := wallClock{start: time.Now()}
	sender := loggingSender{logger: logger}
	factory := func() transportcc.FeedbackPacket { return &loggingPacket{} }

	// Wrap the demo's backend in the generic retry policy (§12.3) instead of
	// reimplementing connect/reconfigure retries at the Proxy level.
	telemetryStore := telemetry.RetryingStore{
		Store:      &loggingTelemetryStore{logger: logger},
		MaxRetries: cfg.TelemetryRetries,
		IP:         cfg.RedisIP,
		Port:       cfg.RedisPort,
		SessionID:  cfg.RedisSID,
		Kind:       "transportcc",
	}
	telemetryAdapter := telemetry.Adapter{Store: telemetryStore}

	predictorCtor := func(onnxModelPath string) (transportcc.Predictor, error) {
		return &demoPredictor{estimate: 1_000_000}, nil
	}
	bwePredictor := predictor.New(predictorCtor, cfg.OnnxModelPath, logger)

	proxy := transportcc.NewProxy(cfg.Snapshot(), clock, sender, factory, bwePredictor, telemetryAdapter, logger)
	proxy.OnBitrateChanged(1_000_000)

	collector := metrics.NewCollector(prometheus.Labels{"app": "feedbackrecv"})
	collector.Add(uint32(*ssrc), proxy)
	prometheus.MustRegister(collector)

	snap := cfg.Snapshot()
	go generateSyntheticTraffic(proxy, uint32(*ssrc), snap.TransportSequenceExtensionID, snap.AbsSendTimeExtensionID, clock)
	go driveProcessLoop(proxy)

	http.Handle("/metrics", promhttp.Handler())
	logger.WithField("addr", *listenAddr).Info("serving /metrics")
	if err := http.ListenAndServe(*listenAddr, nil); err != nil {
		logger.WithError(err).Fatal("metrics server stopped")
	}
	os.Exit(0)
}

// generateSyntheticTraffic feeds the proxy a steady stream of incrementing
// sequence numbers and a matching abs-send-time extension, standing in for
// a real RTP receive path.
func generateSyntheticTraffic(proxy *transportcc.Proxy, ssrc uint32, seqExtID, absSendTimeExtID uint8, clock wallClock) {
	var seq uint16
	for range time.Tick(10 * time.Millisecond) {
		seqExt := make([]byte, 2)
		binary.BigEndian.PutUint16(seqExt, seq)

		nowMS := clock.TimeMS()
		absSendTime := uint32((nowMS%64000)*262144/1000) & 0xFFFFFF
		absExt := []byte{byte(absSendTime >> 16), byte(absSendTime >> 8), byte(absSendTime)}

		header := syntheticHeader{
			ssrc:             ssrc,
			seqExtID:         seqExtID,
			seqExt:           seqExt,
			absSendTimeExtID: absSendTimeExtID,
			absSendTimeExt:   absExt,
		}
		proxy.IncomingPacket(nowMS, 1200, header, nil)
		seq++
	}
}

// syntheticHeader is the demo's transportcc.Header implementation, carrying
// both the transport sequence number and abs-send-time extensions.
type syntheticHeader struct {
	ssrc uint32

	seqExtID uint8
	seqExt   []byte

	absSendTimeExtID uint8
	absSendTimeExt   []byte
}

func (h syntheticHeader) GetSSRC() uint32       { return h.ssrc }
func (h syntheticHeader) GetPayloadType() uint8 { return 96 }
func (h syntheticHeader) GetExtension(id uint8) []byte {
	switch id {
	case h.seqExtID:
		return h.seqExt
	case h.absSendTimeExtID:
		return h.absSendTimeExt
	default:
		return nil
	}
}

// driveProcessLoop calls Process whenever TimeUntilNextProcess says to,
// standing in for the periodic-task thread spec.md §5 assumes exists.
func driveProcessLoop(proxy *transportcc.Proxy) {
	for {
		wait := proxy.TimeUntilNextProcess()
		if wait > time.Minute {
			wait = time.Minute
		}
		time.Sleep(wait)
		proxy.Process()
	}
}
