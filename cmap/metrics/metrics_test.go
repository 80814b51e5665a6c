package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCountersIncrement(t *testing.T) {
	c := New("test_map")

	c.PutsTotal.Inc()
	c.PutsTotal.Inc()
	c.RemovesTotal.Inc()
	c.RehashesTotal.Inc()
	c.PartitionsMaterialized.Inc()
	c.PartitionCount.Set(4)

	if got := testutil.ToFloat64(c.PutsTotal); got != 2 {
		t.Errorf("PutsTotal = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.RemovesTotal); got != 1 {
		t.Errorf("RemovesTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.PartitionCount); got != 4 {
		t.Errorf("PartitionCount = %v, want 4", got)
	}
}

func TestCollectorDescribeAndCollectEmitAllMetrics(t *testing.T) {
	c := New("test_map_2")

	descCh := make(chan *prometheus.Desc, 16)
	c.Describe(descCh)
	close(descCh)
	var descCount int
	for range descCh {
		descCount++
	}
	if descCount != 5 {
		t.Errorf("Describe emitted %d descriptors, want 5", descCount)
	}

	metricCh := make(chan prometheus.Metric, 16)
	c.Collect(metricCh)
	close(metricCh)
	var metricCount int
	for range metricCh {
		metricCount++
	}
	if metricCount != 5 {
		t.Errorf("Collect emitted %d metrics, want 5", metricCount)
	}
}
