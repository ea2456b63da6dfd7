// Package txflow implements the downlink handler, the uplink-request
// handler and the OTA-symbol-driven message transmitter (spec §4.9, §4.10,
// §4.11): the three components that turn upper-PHY calls and OTA symbol
// ticks into reserved, written and drained frame-pool buffers.
package txflow

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oran-ofh/gnbdu-ofh-tx/fragment"
	"github.com/oran-ofh/gnbdu-ofh-tx/framepool"
	"github.com/oran-ofh/gnbdu-ofh-tx/iqcompress"
	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
	"github.com/oran-ofh/gnbdu-ofh-tx/seqid"
	"github.com/oran-ofh/gnbdu-ofh-tx/txwindow"
	"github.com/oran-ofh/gnbdu-ofh-tx/ulctx"
	"github.com/oran-ofh/gnbdu-ofh-tx/wire"
)

// MaxTxBurstSize bounds the number of frames the transmitter drains and
// hands to the Ethernet gateway in a single tick (spec §4.11).
const MaxTxBurstSize = 64

// TimingParams are the symbol offsets, measured forward from the OTA
// symbol, that bound each partition's transmission window (spec §4.11).
// *End is the latest symbol (smallest offset, sent soonest); *Start is the
// earliest (largest offset).
type TimingParams struct {
	CPDLStart, CPDLEnd uint32
	CPULStart, CPULEnd uint32
	UPDLStart, UPDLEnd uint32
}

// Timing returns the T1aEnds used by txwindow's advance-time calculation.
func (t TimingParams) Timing() txwindow.T1aEnds {
	return txwindow.T1aEnds{CPDLEnd: t.CPDLEnd, CPULEnd: t.CPULEnd, UPDLEnd: t.UPDLEnd}
}

// SectorConfig describes one sector's static radio configuration.
type SectorConfig struct {
	Sector     ofh.Sector
	DLEAxC     []ofh.EAxC
	ULEAxC     []ofh.EAxC
	PRACHEAxC  []ofh.EAxC
	Ports      []uint8
	RUNofPRBs  uint16
	DUNofPRBs  uint16
	Comp       ofh.CompressionParams
	IQScaling  float32
	EthSrcMAC  [6]byte
	EthDstMAC  [6]byte
	VLANTag    uint16
	VLANTCI    uint16
	MTU        int
	HeaderSize int
	PRACH      wire.PRACHConfig
}

// Engine wires the frame pool, window checker, compressor, sequence
// generator and message builders into the three handler entry points (spec
// §4.9-§4.11).
type Engine struct {
	cfg      SectorConfig
	pool     *framepool.Pool
	window   *txwindow.Checker
	notifier ofh.ErrorNotifier
	gateway  ofh.EthernetGateway
	seq      *seqid.Generator
	comp     *iqcompress.Compressor
	frag     fragment.Calculator
	ulRepo   *ulctx.Repository
	slotRepo *ulctx.SlotRepository
	logger   *logrus.Logger
	stopped  bool
}

// NewEngine builds an Engine from its collaborators, creating its own
// compressor from cfg.Comp; it returns the compressor's
// ErrUnsupportedCompression error for types other than None and BFP.
func NewEngine(cfg SectorConfig, pool *framepool.Pool, window *txwindow.Checker, notifier ofh.ErrorNotifier, gateway ofh.EthernetGateway, logger *logrus.Logger) (*Engine, error) {
	comp, err := iqcompress.NewCompressor(cfg.Comp)
	if err != nil {
		return nil, err
	}
	frameBudget := cfg.MTU - cfg.HeaderSize
	return &Engine{
		cfg:      cfg,
		pool:     pool,
		window:   window,
		notifier: notifier,
		gateway:  gateway,
		seq:      seqid.NewGenerator(),
		comp:     comp,
		frag:     fragment.New(cfg.Comp, frameBudget),
		ulRepo:   ulctx.NewRepository(),
		slotRepo: ulctx.NewSlotRepository(),
		logger:   logger,
	}, nil
}

// Stop marks the engine stopped; subsequent handler calls become no-ops
// (spec §4.12).
func (e *Engine) Stop() { e.stopped = true }

func (e *Engine) ethHeader() wire.EthernetHeader {
	return wire.EthernetHeader{DstMAC: e.cfg.EthDstMAC, SrcMAC: e.cfg.EthSrcMAC, VLANTag: e.cfg.VLANTag, VLANTCI: e.cfg.VLANTCI}
}

// HandleDLData implements C9: clears stale pool entries for the slot,
// performs the lateness check, then for each configured DL eAxC and port
// extracts, compresses, fragments and frames downlink IQ data into U-Plane
// DL buffers (spec §4.9).
func (e *Engine) HandleDLData(ctx ofh.Context, grid ofh.ResourceGrid) {
	if e.stopped {
		return
	}
	for sym := uint8(0); sym < ofh.SymbolsPerSlot; sym++ {
		point := ofh.SymbolPoint{Slot: ctx.Slot, Symbol: sym}
		e.pool.ClearSlot(framepool.PartitionCPDL, point)
		e.pool.ClearSlot(framepool.PartitionCPUL, point)
		e.pool.ClearSlot(framepool.PartitionUPDL, point)
	}

	if e.window.IsLate(ctx.Slot) {
		e.notifier.OnLateDownlinkMessage(ctx)
		return
	}

	samples := make([]complex64, 0, ofh.SamplesPerPRB*e.cfg.RUNofPRBs)
	payload := make([]byte, 0, int(e.cfg.RUNofPRBs)*e.comp.PRBLen())
	prbBuf := make([]byte, e.comp.PRBLen())

	for _, eaxc := range e.cfg.DLEAxC {
		for _, port := range e.cfg.Ports {
			for sym := uint8(0); sym < ofh.SymbolsPerSlot; sym++ {
				point := ofh.SymbolPoint{Slot: ctx.Slot, Symbol: sym}
				samples = samples[:0]
				samples = grid.Get(samples, port, sym, e.cfg.DUNofPRBs)
				for len(samples) < int(e.cfg.RUNofPRBs)*ofh.SamplesPerPRB {
					samples = append(samples, 0)
				}

				frags := e.frag.All(e.cfg.RUNofPRBs)
				if len(frags) == 0 && e.cfg.RUNofPRBs > 0 {
					e.logger.WithFields(logrus.Fields{"slot": ctx.Slot, "symbol": sym}).Warn("downlink fragment too small for frame budget, skipping")
					continue
				}
				for _, f := range frags {
					payload = payload[:0]
					for prb := uint16(0); prb < f.NofPRB; prb++ {
						base := int(f.StartPRB+prb) * ofh.SamplesPerPRB
						written, err := e.comp.CompressPRB(prbBuf, samples[base:base+ofh.SamplesPerPRB], e.cfg.IQScaling)
						if err != nil {
							e.logger.WithError(err).Error("compression failed")
							continue
						}
						payload = append(payload, prbBuf[:written]...)
					}
					e.emitDLFragment(ctx, point, eaxc, f, payload)
				}
			}
		}
	}
}

func (e *Engine) emitDLFragment(ctx ofh.Context, point ofh.SymbolPoint, eaxc ofh.EAxC, f fragment.Fragment, payload []byte) {
	h, err := e.pool.Reserve(framepool.PartitionUPDL, point)
	if err != nil {
		e.logger.WithFields(logrus.Fields{"slot": ctx.Slot, "symbol": point.Symbol, "eaxc": eaxc}).Warn("frame pool exhausted, dropping downlink fragment")
		return
	}
	defer h.Release()

	buf := h.Buffer().Scratch()
	n := wire.BuildEthernet(buf, e.ethHeader())
	n += wire.BuildECPRI(buf[n:], wire.ECPRIHeader{
		MsgType:   wire.ECPRIMsgTypeIQData,
		EAxC:      eaxc,
		SeqID:     e.seq.Generate(eaxc),
		PayloadSz: uint16(len(payload)),
	})
	n += wire.BuildUPlaneSection(buf[n:], wire.UPlaneSectionParams{
		Radio:      wire.RadioHeader{Direction: ofh.Downlink, Slot: ctx.Slot, FilterIndex: ofh.FilterStandardChannel, StartSymbol: point.Symbol},
		StartPRB:   f.StartPRB,
		NofPRB:     f.NofPRB,
		SymbolID:   point.Symbol,
		Comp:       e.cfg.Comp,
		Compressed: payload,
	})

	h.Buffer().SetSize(n)
}

// HandleNewUplinkSlot implements C10's uplink-slot flow (spec §4.10.1):
// clears the C-Plane-UL partition for the slot, performs the lateness
// check, then builds a C-Plane type-1 uplink request per configured eAxC
// and records the request in the uplink context repository.
func (e *Engine) HandleNewUplinkSlot(ctx ofh.Context, grid ofh.ResourceGrid) {
	if e.stopped {
		return
	}
	for sym := uint8(0); sym < ofh.SymbolsPerSlot; sym++ {
		point := ofh.SymbolPoint{Slot: ctx.Slot, Symbol: sym}
		e.pool.ClearSlot(framepool.PartitionCPUL, point)
	}

	if e.window.IsLate(ctx.Slot) {
		e.notifier.OnLateUplinkMessage(ctx)
		return
	}

	for _, eaxc := range e.cfg.ULEAxC {
		point := ofh.SymbolPoint{Slot: ctx.Slot, Symbol: 0}
		h, err := e.pool.Reserve(framepool.PartitionCPUL, point)
		if err != nil {
			e.logger.WithFields(logrus.Fields{"slot": ctx.Slot, "eaxc": eaxc}).Warn("frame pool exhausted, dropping uplink C-Plane request")
			continue
		}

		buf := h.Buffer().Scratch()
		n := wire.BuildEthernet(buf, e.ethHeader())
		n += wire.BuildECPRI(buf[n:], wire.ECPRIHeader{MsgType: wire.ECPRIMsgTypeRTControl, EAxC: eaxc, SeqID: e.seq.Generate(eaxc), PayloadSz: wire.SectionType1Len})
		n += wire.BuildSectionType1(buf[n:], wire.SectionType1Params{
			Radio:      wire.RadioHeader{Direction: ofh.Uplink, Slot: ctx.Slot, FilterIndex: ofh.FilterStandardChannel, StartSymbol: 0},
			NofPRB:     e.cfg.RUNofPRBs,
			NofSymbols: ofh.SymbolsPerSlot,
		})
		h.Buffer().SetSize(n)
		h.Release()

		for sym := uint8(0); sym < ofh.SymbolsPerSlot; sym++ {
			e.ulRepo.Record(ctx.Slot, sym, ofh.FilterStandardChannel, eaxc, ulctx.Entry{
				Radio:      ulctx.RadioHeaderFields{Direction: ofh.Uplink, Slot: ctx.Slot, FilterIndex: ofh.FilterStandardChannel, StartSymbol: 0},
				PRBStart:   0,
				NofPRB:     e.cfg.RUNofPRBs,
				NofSymbols: ofh.SymbolsPerSlot,
			})
		}
	}

	e.slotRepo.Record(ulctx.SlotContext{Slot: ctx.Slot})
}

// HandlePRACHOccasion implements C10's PRACH flow (spec §4.10.2): derives
// the section type 3 fields from the PRACH configuration and emits one
// C-Plane request per configured PRACH eAxC.
func (e *Engine) HandlePRACHOccasion(ctx ofh.Context, startSymbol uint8) {
	if e.stopped {
		return
	}
	if e.window.IsLate(ctx.Slot) {
		e.notifier.OnLatePRACHMessage(ctx)
		return
	}

	derived := wire.DerivePRACH(e.cfg.PRACH)
	point := ofh.SymbolPoint{Slot: ctx.Slot, Symbol: startSymbol}

	for _, eaxc := range e.cfg.PRACHEAxC {
		h, err := e.pool.Reserve(framepool.PartitionCPUL, point)
		if err != nil {
			e.logger.WithFields(logrus.Fields{"slot": ctx.Slot, "eaxc": eaxc}).Warn("frame pool exhausted, dropping PRACH C-Plane request")
			continue
		}

		buf := h.Buffer().Scratch()
		n := wire.BuildEthernet(buf, e.ethHeader())
		n += wire.BuildECPRI(buf[n:], wire.ECPRIHeader{MsgType: wire.ECPRIMsgTypeRTControl, EAxC: eaxc, SeqID: e.seq.Generate(eaxc), PayloadSz: wire.SectionType3Len})
		n += wire.BuildSectionType3PRACH(buf[n:], wire.SectionType3Params{
			Radio:           wire.RadioHeader{Direction: ofh.Uplink, Slot: ctx.Slot, FilterIndex: derived.FilterIndex, StartSymbol: startSymbol},
			NofPRB:          derived.NofPRB,
			NumSymbol:       derived.NumSymbol,
			SCSkHz:          derived.SCSkHz,
			TimeOffset:      derived.TimeOffset,
			FFTSize:         derived.FFTSize,
			FrequencyOffset: derived.FrequencyOffset,
		})
		h.Buffer().SetSize(n)
		h.Release()

		e.ulRepo.Record(ctx.Slot, startSymbol, derived.FilterIndex, eaxc, ulctx.Entry{
			Radio:      ulctx.RadioHeaderFields{Direction: ofh.Uplink, Slot: ctx.Slot, FilterIndex: derived.FilterIndex, StartSymbol: startSymbol},
			PRBStart:   0,
			NofPRB:     derived.NofPRB,
			NofSymbols: derived.NumSymbol,
		})
	}
}

// Transmitter drains pending buffers into bursts at each OTA symbol tick
// and hands them to the Ethernet gateway (spec §4.11).
type Transmitter struct {
	pool    *framepool.Pool
	gateway ofh.EthernetGateway
	timing  TimingParams
	burst   []*framepool.Handle
	frames  [][]byte
}

// NewTransmitter returns a Transmitter draining pool according to timing
// and handing bursts to gateway.
func NewTransmitter(pool *framepool.Pool, gateway ofh.EthernetGateway, timing TimingParams) *Transmitter {
	return &Transmitter{
		pool:    pool,
		gateway: gateway,
		timing:  timing,
		burst:   make([]*framepool.Handle, 0, MaxTxBurstSize),
		frames:  make([][]byte, 0, MaxTxBurstSize),
	}
}

// OnNewSymbol implements C11: for each partition, drains pending buffers
// whose transmission window now contains ota, and sends the resulting
// burst (spec §4.11).
func (t *Transmitter) OnNewSymbol(ota ofh.SymbolPoint) error {
	t.burst = t.burst[:0]
	t.frames = t.frames[:0]

	t.drainInterval(framepool.PartitionCPDL, ota, t.timing.CPDLEnd, t.timing.CPDLStart)
	t.drainInterval(framepool.PartitionCPUL, ota, t.timing.CPULEnd, t.timing.CPULStart)
	t.drainInterval(framepool.PartitionUPDL, ota, t.timing.UPDLEnd, t.timing.UPDLStart)

	if len(t.burst) == 0 {
		return nil
	}
	for _, h := range t.burst {
		t.frames = append(t.frames, h.Buffer().Bytes())
	}
	err := t.gateway.Send(t.frames)
	for _, h := range t.burst {
		t.pool.Free(h)
	}
	if err != nil {
		return fmt.Errorf("txflow: ethernet send: %w", err)
	}
	return nil
}

func (t *Transmitter) drainInterval(part framepool.Partition, ota ofh.SymbolPoint, end, start uint32) {
	for offset := int64(end); offset <= int64(start); offset++ {
		point := ota.AddSymbols(offset)
		if len(t.burst) >= MaxTxBurstSize {
			return
		}
		t.burst = t.pool.EnqueuePending(part, point, t.burst, MaxTxBurstSize-len(t.burst))
	}
}
