package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/oran-ofh/gnbdu-ofh-tx/framepool"
)

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := vec.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestIncPoolExhaustedIncrementsByPartition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.IncPoolExhausted(framepool.PartitionCPDL)
	c.IncPoolExhausted(framepool.PartitionCPDL)
	c.IncPoolExhausted(framepool.PartitionUPDL)

	if got := counterValue(t, c.poolExhausted, framepool.PartitionCPDL.String()); got != 2 {
		t.Errorf("cp-dl exhausted = %v, want 2", got)
	}
	if got := counterValue(t, c.poolExhausted, framepool.PartitionUPDL.String()); got != 1 {
		t.Errorf("up-dl exhausted = %v, want 1", got)
	}
}

func TestAddLateAccumulates(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.AddLate(framepool.PartitionCPUL, 3)
	c.AddLate(framepool.PartitionCPUL, 4)

	if got := counterValue(t, c.lateEvents, framepool.PartitionCPUL.String()); got != 7 {
		t.Errorf("cp-ul late = %v, want 7", got)
	}
}

func TestAddWindowLateUsesOwnLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.AddWindowLate("downlink", 5)

	if got := counterValue(t, c.lateEvents, "downlink"); got != 5 {
		t.Errorf("downlink late = %v, want 5", got)
	}
}
