package loader

import "sync/atomic"

// Source 标识一次加载的结果来自哪一层。
type Source string

const (
	SourceMemory  Source = "memory"
	SourceDisk    Source = "disk"
	SourceNetwork Source = "network"
)

// Stats 是 Loader 计数器的快照。
type Stats struct {
	Requests       int64 `json:"requests"`
	MemoryHits     int64 `json:"memory_hits"`
	DiskHits       int64 `json:"disk_hits"`
	NetworkFetches int64 `json:"network_fetches"`
	FailedLoads    int64 `json:"failed_loads"`
	Delivered      int64 `json:"delivered"`
	Discarded      int64 `json:"discarded"`
	KeyFallbacks   int64 `json:"key_fallbacks"`
	Queued         int   `json:"queued"`
	MemoryEntries  int   `json:"memory_entries"`
}

type counters struct {
	requests       atomic.Int64
	memoryHits     atomic.Int64
	diskHits       atomic.Int64
	networkFetches atomic.Int64
	failedLoads    atomic.Int64
	delivered      atomic.Int64
	discarded      atomic.Int64
	keyFallbacks   atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Requests:       c.requests.Load(),
		MemoryHits:     c.memoryHits.Load(),
		DiskHits:       c.diskHits.Load(),
		NetworkFetches: c.networkFetches.Load(),
		FailedLoads:    c.failedLoads.Load(),
		Delivered:      c.delivered.Load(),
		Discarded:      c.discarded.Load(),
		KeyFallbacks:   c.keyFallbacks.Load(),
	}
}
