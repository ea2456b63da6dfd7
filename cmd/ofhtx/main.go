// Command ofhtx runs a standalone demonstration of the OFH transmit
// pipeline against a synthetic resource grid and a logging Ethernet
// gateway stand-in, ticking the OTA symbol clock off a local timer instead
// of a PTP source.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
	"github.com/oran-ofh/gnbdu-ofh-tx/ofhtx"
	"github.com/oran-ofh/gnbdu-ofh-tx/txflow"
)

var (
	numerologyFlag = flag.Uint("numerology", 1, "Numerology `mu` in [0..4]; SCS = 15kHz * 2^mu.")
	ruPRBsFlag     = flag.Uint("ru-prbs", 51, "RU channel bandwidth in PRBs at the configured numerology.")
	duPRBsFlag     = flag.Uint("du-prbs", 51, "DU resource-grid width in PRBs; zero-padded up to ru-prbs.")
	mtuFlag        = flag.Uint("mtu", 1500, "Ethernet link MTU in bytes.")
	compWidthFlag  = flag.Uint("comp-width", 9, "BFP compressed sample width in bits.")
	symbolHzFlag   = flag.Uint("symbol-rate-hz", 28000, "Synthetic OTA symbol tick rate, for demo purposes only.")
)

var log = logrus.New()

func main() {
	flag.Parse()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := ofhtx.Config{
		Sector: txflow.SectorConfig{
			Sector:     1,
			DLEAxC:     []ofh.EAxC{0, 1},
			ULEAxC:     []ofh.EAxC{0, 1},
			PRACHEAxC:  []ofh.EAxC{2},
			Ports:      []uint8{0},
			RUNofPRBs:  uint16(*ruPRBsFlag),
			DUNofPRBs:  uint16(*duPRBsFlag),
			Comp:       ofh.CompressionParams{Type: ofh.CompBFP, DataWidth: uint8(*compWidthFlag)},
			IQScaling:  1.0,
			EthSrcMAC:  [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
			EthDstMAC:  [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
			MTU:        int(*mtuFlag),
			HeaderSize: 36,
			PRACH: ofhtx.PRACHConfig{
				PUSCHSCSkHz:  uint16(15 << *numerologyFlag),
				PRACHSCSHz:   1250,
				NofRBRA:      6,
				RUNofPRBs:    uint16(*ruPRBsFlag),
				PreambleReps: 4,
			},
		},
		Timing: txflow.TimingParams{
			CPDLStart: 13, CPDLEnd: 7,
			CPULStart: 13, CPULEnd: 7,
			UPDLStart: 13, UPDLEnd: 0,
		},
		Numerology:          uint8(*numerologyFlag),
		DLProcessingTimeNs:  400_000,
		FrameBufferSize:     9000,
		MaxFramesPerSymbol:  4,
		PendingCellCapacity: 32,
	}

	gateway := &loggingGateway{}
	registry := prometheus.NewRegistry()
	pipeline, err := ofhtx.New(cfg, loggingNotifier{}, gateway, log, registry)
	if err != nil {
		log.WithError(err).Fatal("failed to construct transmit pipeline")
	}
	pipeline.Start()

	grid := syntheticGrid{nofPRBs: uint16(*duPRBsFlag)}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	symbolPeriod := time.Second / time.Duration(*symbolHzFlag)
	ticker := time.NewTicker(symbolPeriod)
	defer ticker.Stop()

	point := ofh.SymbolPoint{Slot: ofh.SlotPoint{Numerology: uint8(*numerologyFlag)}}
	log.WithField("symbol_period", symbolPeriod).Info("starting OFH transmit pipeline demo")

	for {
		select {
		case sig := <-signals:
			log.WithField("signal", sig).Info("shutting down")
			pipeline.Stop()
			return

		case <-ticker.C:
			if point.Symbol == 0 {
				ctx := ofh.Context{Slot: point.Slot, Sector: 1}
				pipeline.HandleDLData(ctx, grid)
				pipeline.HandleNewUplinkSlot(ctx, grid)
			}
			if err := pipeline.OnOTASymbol(point); err != nil {
				log.WithError(err).Warn("transmit tick failed")
			}
			point = point.AddSymbols(1)
		}
	}
}

// syntheticGrid implements ofh.ResourceGrid with a fixed synthetic tone,
// standing in for the upper-PHY scheduler's actual output.
type syntheticGrid struct {
	nofPRBs uint16
}

func (g syntheticGrid) Get(dst []complex64, port uint8, symbol uint8, nofPRBs uint16) []complex64 {
	n := nofPRBs
	if n > g.nofPRBs {
		n = g.nofPRBs
	}
	for i := uint16(0); i < n*ofh.SamplesPerPRB; i++ {
		dst = append(dst, complex(0.1, -0.1))
	}
	for i := n; i < nofPRBs; i++ {
		for s := 0; s < ofh.SamplesPerPRB; s++ {
			dst = append(dst, 0)
		}
	}
	return dst
}

// loggingGateway stands in for the send()/sendmmsg() syscall wrapper: it
// logs burst sizes instead of touching a real NIC.
type loggingGateway struct{}

func (loggingGateway) Send(frames [][]byte) error {
	total := 0
	for _, f := range frames {
		total += len(f)
	}
	log.WithFields(logrus.Fields{"frames": len(frames), "bytes": total}).Debug("burst sent")
	return nil
}

// loggingNotifier stands in for the upper-PHY's lateness callback.
type loggingNotifier struct{}

func (loggingNotifier) OnLateDownlinkMessage(ctx ofh.Context) {
	log.WithField("slot", ctx.Slot).Warn("late downlink message")
}

func (loggingNotifier) OnLateUplinkMessage(ctx ofh.Context) {
	log.WithField("slot", ctx.Slot).Warn("late uplink message")
}

func (loggingNotifier) OnLatePRACHMessage(ctx ofh.Context) {
	log.WithField("slot", ctx.Slot).Warn("late PRACH message")
}
