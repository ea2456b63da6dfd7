// Package ofhtx wires the compression, fragmentation, frame pool, window
// checker, uplink context repository and handler/transmitter components
// into one transmit pipeline, and publishes the single OTA symbol boundary
// notifier the surrounding runtime drives (spec §4.12).
package ofhtx

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/oran-ofh/gnbdu-ofh-tx/fragment"
	"github.com/oran-ofh/gnbdu-ofh-tx/framepool"
	"github.com/oran-ofh/gnbdu-ofh-tx/metrics"
	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
	"github.com/oran-ofh/gnbdu-ofh-tx/txflow"
	"github.com/oran-ofh/gnbdu-ofh-tx/txwindow"
	"github.com/oran-ofh/gnbdu-ofh-tx/wire"
)

// Config collects every construction-time parameter the pipeline needs:
// one sector's radio configuration, the window checker's timing
// parameters, and the arena sizing inputs (spec §4.7.6, §4.8, §4.12).
type Config struct {
	Sector              txflow.SectorConfig
	Timing              txflow.TimingParams
	Numerology          uint8
	DLProcessingTimeNs  int64
	FrameBufferSize     int
	MaxFramesPerSymbol  int
	PendingCellCapacity int
}

// Pipeline is the constructed transmit path: C1 through C12 wired together
// behind the three public entry points and the OTA symbol notifier.
type Pipeline struct {
	pool        *framepool.Pool
	window      *txwindow.Checker
	engine      *txflow.Engine
	transmitter *txflow.Transmitter
	metrics     *metrics.Collector
	stopped     bool
}

// New constructs a Pipeline. notifier and gateway are the upper-PHY and
// Ethernet-send collaborators; logger is used for warnings and errors raised
// along the handler paths. reg, if non-nil, registers a metrics.Collector
// against it; the collector becomes the frame pool's exhaustion/lateness
// sink and receives the window checker's drained late count on every
// OnOTASymbol tick. A nil reg disables metrics collection entirely (spec
// §4.7.5, §4.8, §7).
func New(cfg Config, notifier ofh.ErrorNotifier, gateway ofh.EthernetGateway, logger *logrus.Logger, reg prometheus.Registerer) (*Pipeline, error) {
	arenaSize := framepool.NumberOfBuffers(cfg.MaxFramesPerSymbol)

	var collector *metrics.Collector
	var sink framepool.MetricsSink
	if reg != nil {
		collector = metrics.NewCollector(reg)
		sink = collector
	}
	pool := framepool.NewPool(cfg.FrameBufferSize, arenaSize, cfg.PendingCellCapacity, sink)

	window := txwindow.NewChecker(txwindow.Params{
		Numerology:       cfg.Numerology,
		DLProcessingTime: time.Duration(cfg.DLProcessingTimeNs),
		T1a:              cfg.Timing.Timing(),
	})

	engine, err := txflow.NewEngine(cfg.Sector, pool, window, notifier, gateway, logger)
	if err != nil {
		return nil, err
	}
	transmitter := txflow.NewTransmitter(pool, gateway, cfg.Timing)

	return &Pipeline{pool: pool, window: window, engine: engine, transmitter: transmitter, metrics: collector}, nil
}

// Start resets the pipeline's stop state so handler calls resume taking
// effect (spec §4.12).
func (p *Pipeline) Start() {
	p.stopped = false
}

// Stop marks the pipeline stopped; every handler call becomes a no-op until
// Start is called again (spec §4.12).
func (p *Pipeline) Stop() {
	p.stopped = true
}

// HandleDLData forwards to the downlink handler (C9), unless stopped.
func (p *Pipeline) HandleDLData(ctx ofh.Context, grid ofh.ResourceGrid) {
	if p.stopped {
		return
	}
	p.engine.HandleDLData(ctx, grid)
}

// HandleNewUplinkSlot forwards to the uplink-request handler's slot flow
// (C10), unless stopped.
func (p *Pipeline) HandleNewUplinkSlot(ctx ofh.Context, grid ofh.ResourceGrid) {
	if p.stopped {
		return
	}
	p.engine.HandleNewUplinkSlot(ctx, grid)
}

// HandlePRACHOccasion forwards to the uplink-request handler's PRACH flow
// (C10), unless stopped.
func (p *Pipeline) HandlePRACHOccasion(ctx ofh.Context, startSymbol uint8) {
	if p.stopped {
		return
	}
	p.engine.HandlePRACHOccasion(ctx, startSymbol)
}

// OnOTASymbol is the single notifier the PTP-derived tick source drives:
// it advances the window checker's current OTA symbol and runs the
// transmitter's drain-and-send step (spec §4.12, §4.11).
func (p *Pipeline) OnOTASymbol(point ofh.SymbolPoint) error {
	p.window.Advance(point)
	if p.metrics != nil {
		if n := p.window.DrainLateCount(); n > 0 {
			p.metrics.AddWindowLate("window", n)
		}
	}
	if p.stopped {
		return nil
	}
	return p.transmitter.OnNewSymbol(point)
}

// DrainLateCount returns and resets the window checker's accumulated late
// event count. When a metrics Registerer was supplied to New, OnOTASymbol
// already drains this counter into the collector on every tick, so this
// method is only useful to callers that did not wire metrics and want to
// poll lateness themselves.
func (p *Pipeline) DrainLateCount() uint64 {
	return p.window.DrainLateCount()
}

// FragmentCount re-exposes fragment.CountFragments for callers sizing
// MaxFramesPerSymbol before constructing a Config (spec §4.7.6).
func FragmentCount(nofPRB uint16, mtu, headerOverhead int, params ofh.CompressionParams) int {
	return fragment.CountFragments(nofPRB, mtu, headerOverhead, params)
}

// PRACHConfig re-exports wire.PRACHConfig so callers building a Config do
// not need to import package wire directly.
type PRACHConfig = wire.PRACHConfig
