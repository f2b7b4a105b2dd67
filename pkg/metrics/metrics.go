// Package metrics collects read-path counters for a running player: how many
// asset reads were served from the in-process cache versus the container
// file, and how many bytes came off disk.
package metrics

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type Metrics struct {
	mu sync.RWMutex

	AssetHitsTotal   int64
	AssetMissesTotal int64
	AssetBytesTotal  int64

	ProjectReadsTotal int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordAssetRead records one asset lookup. hit means the bytes came from the
// in-process cache rather than the container file.
func (m *Metrics) RecordAssetRead(bytes int64, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AssetBytesTotal += bytes
	if hit {
		m.AssetHitsTotal++
	} else {
		m.AssetMissesTotal++
	}
}

// RecordProjectRead records one project JSON load.
func (m *Metrics) RecordProjectRead() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ProjectReadsTotal++
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	AssetHitsTotal    int64
	AssetMissesTotal  int64
	AssetBytesTotal   int64
	ProjectReadsTotal int64
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		AssetHitsTotal:    m.AssetHitsTotal,
		AssetMissesTotal:  m.AssetMissesTotal,
		AssetBytesTotal:   m.AssetBytesTotal,
		ProjectReadsTotal: m.ProjectReadsTotal,
	}
}

// LogSummary writes the current counters to the log.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	log.Info().
		Int64("asset_hits", s.AssetHitsTotal).
		Int64("asset_misses", s.AssetMissesTotal).
		Int64("asset_bytes", s.AssetBytesTotal).
		Int64("project_reads", s.ProjectReadsTotal).
		Msg("player read metrics")
}
