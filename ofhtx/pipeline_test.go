package ofhtx

import (
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
	"github.com/oran-ofh/gnbdu-ofh-tx/txflow"
	"github.com/oran-ofh/gnbdu-ofh-tx/wire"
)

type zeroGrid struct{}

func (zeroGrid) Get(dst []complex64, port uint8, symbol uint8, nofPRBs uint16) []complex64 {
	for i := uint16(0); i < nofPRBs*ofh.SamplesPerPRB; i++ {
		dst = append(dst, 0)
	}
	return dst
}

type nopNotifier struct{}

func (nopNotifier) OnLateDownlinkMessage(ofh.Context) {}
func (nopNotifier) OnLateUplinkMessage(ofh.Context)   {}
func (nopNotifier) OnLatePRACHMessage(ofh.Context)    {}

type nopGateway struct{ sent int }

func (g *nopGateway) Send(frames [][]byte) error {
	g.sent += len(frames)
	return nil
}

func testConfig() Config {
	return Config{
		Sector: txflow.SectorConfig{
			DLEAxC:     []ofh.EAxC{0},
			ULEAxC:     []ofh.EAxC{0},
			PRACHEAxC:  []ofh.EAxC{1},
			Ports:      []uint8{0},
			RUNofPRBs:  4,
			DUNofPRBs:  4,
			Comp:       ofh.CompressionParams{Type: ofh.CompBFP, DataWidth: 9},
			IQScaling:  1.0,
			MTU:        1500,
			HeaderSize: 36,
			PRACH: wire.PRACHConfig{
				PUSCHSCSkHz:  30,
				PRACHSCSHz:   1250,
				NofRBRA:      6,
				RUNofPRBs:    51,
				PreambleReps: 4,
			},
		},
		Timing:              txflow.TimingParams{UPDLStart: 2, UPDLEnd: 0},
		Numerology:          1,
		DLProcessingTimeNs:  400_000,
		FrameBufferSize:     512,
		MaxFramesPerSymbol:  4,
		PendingCellCapacity: 8,
	}
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPipelineHandlesDLDataAndTransmits(t *testing.T) {
	gw := &nopGateway{}
	p, err := New(testConfig(), nopNotifier{}, gw, testLogger(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Start()

	slot := ofh.SlotPoint{Numerology: 1, Slot: 5}
	p.HandleDLData(ofh.Context{Slot: slot}, zeroGrid{})

	for sym := uint8(0); sym < ofh.SymbolsPerSlot; sym++ {
		if err := p.OnOTASymbol(ofh.SymbolPoint{Slot: slot, Symbol: sym}); err != nil {
			t.Fatalf("OnOTASymbol: %v", err)
		}
	}

	if gw.sent == 0 {
		t.Error("expected at least one frame sent across the slot's symbols")
	}
}

func TestPipelineWiresMetricsCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	gw := &nopGateway{}
	p, err := New(testConfig(), nopNotifier{}, gw, testLogger(), reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Start()

	// advance the OTA clock far ahead, then present a long-past slot so
	// IsLate fires and accumulates on the window checker's counter.
	future := ofh.SymbolPoint{Slot: ofh.SlotPoint{Numerology: 1, Slot: 1000}}
	if err := p.OnOTASymbol(future); err != nil {
		t.Fatalf("OnOTASymbol: %v", err)
	}
	pastSlot := ofh.SlotPoint{Numerology: 1, Slot: 0}
	p.HandleDLData(ofh.Context{Slot: pastSlot}, zeroGrid{})

	// the next tick drains the checker's late count into the collector.
	if err := p.OnOTASymbol(future); err != nil {
		t.Fatalf("OnOTASymbol: %v", err)
	}

	var families []*dto.MetricFamily
	families, err = reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var got float64
	for _, fam := range families {
		if fam.GetName() != "ofh_tx_late_events_total" {
			continue
		}
		for _, m := range fam.Metric {
			for _, l := range m.Label {
				if l.GetName() == "partition" && l.GetValue() == "window" {
					got = m.GetCounter().GetValue()
				}
			}
		}
	}
	if got == 0 {
		t.Error("expected ofh_tx_late_events_total{partition=\"window\"} to be nonzero after a late handler call")
	}
}

func TestPipelineStopMakesHandlersNoOps(t *testing.T) {
	gw := &nopGateway{}
	p, err := New(testConfig(), nopNotifier{}, gw, testLogger(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Start()
	p.Stop()

	slot := ofh.SlotPoint{Numerology: 1, Slot: 1}
	p.HandleDLData(ofh.Context{Slot: slot}, zeroGrid{})
	if err := p.OnOTASymbol(ofh.SymbolPoint{Slot: slot, Symbol: 0}); err != nil {
		t.Fatalf("OnOTASymbol after stop: %v", err)
	}
	if gw.sent != 0 {
		t.Errorf("sent = %d, want 0 after stop", gw.sent)
	}
}
