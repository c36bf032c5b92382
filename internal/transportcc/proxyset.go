package transportcc

import "sync"

// ProxySet fans a shared set of collaborators out across one Proxy per media
// SSRC group, mirroring the teacher's exporter registry keyed by connection
// instead of SSRC (spec.md §12.1, supplemented: the base spec describes a
// single-stream engine, but a real receiver multiplexes many SSRCs over one
// feedback/telemetry/predictor set of collaborators).
type ProxySet struct {
	cfg          Config
	clock        Clock
	sender       FeedbackSender
	factory      FeedbackPacketFactory
	newPredictor func(ssrc uint32) Predictor
	newTelemetry func(ssrc uint32) TelemetryStore

	mu      sync.Mutex
	proxies map[uint32]*Proxy
}

// NewProxySet constructs an empty registry. newPredictor/newTelemetry may be
// nil, in which case every Proxy is built with a nil predictor/telemetry
// store respectively (spec.md §7's graceful-degradation path).
func NewProxySet(cfg Config, clock Clock, sender FeedbackSender, factory FeedbackPacketFactory, newPredictor func(ssrc uint32) Predictor, newTelemetry func(ssrc uint32) TelemetryStore) *ProxySet {
	return &ProxySet{
		cfg:          cfg,
		clock:        clock,
		sender:       sender,
		factory:      factory,
		newPredictor: newPredictor,
		newTelemetry: newTelemetry,
		proxies:      make(map[uint32]*Proxy),
	}
}

// Get returns the Proxy for ssrc, constructing one on first use.
func (s *ProxySet) Get(ssrc uint32) *Proxy {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.proxies[ssrc]; ok {
		return p
	}

	var predictor Predictor
	if s.newPredictor != nil {
		predictor = s.newPredictor(ssrc)
	}
	var telemetry TelemetryStore
	if s.newTelemetry != nil {
		telemetry = s.newTelemetry(ssrc)
	}

	p := NewProxy(s.cfg, s.clock, s.sender, s.factory, predictor, telemetry, nil)
	s.proxies[ssrc] = p
	return p
}

// Remove closes and drops the Proxy for ssrc, if any.
func (s *ProxySet) Remove(ssrc uint32) {
	s.mu.Lock()
	p, ok := s.proxies[ssrc]
	if ok {
		delete(s.proxies, ssrc)
	}
	s.mu.Unlock()

	if ok {
		_ = p.Close()
	}
}

// Each calls fn for every currently registered Proxy, e.g. to call
// Process/TimeUntilNextProcess across the whole set.
func (s *ProxySet) Each(fn func(ssrc uint32, p *Proxy)) {
	s.mu.Lock()
	snapshot := make(map[uint32]*Proxy, len(s.proxies))
	for k, v := range s.proxies {
		snapshot[k] = v
	}
	s.mu.Unlock()

	for ssrc, p := range snapshot {
		fn(ssrc, p)
	}
}

// Len reports how many SSRC groups are currently tracked.
func (s *ProxySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.proxies)
}
