package virtual

import (
	"testing"

	"github.com/suiyuan1314/hedera-services-sub000/common"
)

func TestConfig_NormalizedAppliesDefaults(t *testing.T) {
	cfg := Config{}.normalized()
	if cfg.Algorithm.Name != common.Sha384Hashing.Name {
		t.Errorf("default algorithm is %s, want %s", cfg.Algorithm.Name, common.Sha384Hashing.Name)
	}
	if cfg.HasherThreads < 1 {
		t.Errorf("default thread count must be positive, got %d", cfg.HasherThreads)
	}
	if cfg.FlushInterval != DefaultFlushInterval {
		t.Errorf("default flush interval is %d, want %d", cfg.FlushInterval, DefaultFlushInterval)
	}
}

func TestConfig_NormalizedKeepsExplicitSettings(t *testing.T) {
	cfg := Config{
		Algorithm:     common.Blake3Hashing,
		HasherThreads: 3,
		FlushInterval: 7,
	}.normalized()
	if cfg.Algorithm.Name != common.Blake3Hashing.Name || cfg.HasherThreads != 3 || cfg.FlushInterval != 7 {
		t.Errorf("explicit settings were not kept: %+v", cfg)
	}
}

func TestConfig_NormalizedKeepsFlushingDisabled(t *testing.T) {
	for _, interval := range []int{DisabledFlushInterval, -7} {
		cfg := Config{FlushInterval: interval}.normalized()
		if cfg.FlushInterval != 0 {
			t.Errorf("interval %d normalizes to %d, want 0 for disabled flushing", interval, cfg.FlushInterval)
		}
	}
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.NodeHashed()
	metrics.LeafHashed()
	metrics.FlushCompleted(1, 2, 3)
	if got := metrics.Snapshot(); got != (MetricsSnapshot{}) {
		t.Errorf("nil metrics must report zero values, got %+v", got)
	}
}

func TestMetrics_CountersAccumulate(t *testing.T) {
	metrics := &Metrics{}
	metrics.NodeHashed()
	metrics.NodeHashed()
	metrics.LeafHashed()
	metrics.FlushCompleted(4, 2, 1)
	got := metrics.Snapshot()
	want := MetricsSnapshot{NodesHashed: 2, LeavesHashed: 1, Flushes: 1, FlushedHashes: 4, FlushedLeaves: 2, DeletedLeaves: 1}
	if got != want {
		t.Errorf("unexpected counters: got %+v, want %+v", got, want)
	}
}
