package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAssetRead(t *testing.T) {
	m := NewMetrics()

	m.RecordAssetRead(100, false)
	m.RecordAssetRead(100, true)
	m.RecordAssetRead(50, true)
	m.RecordProjectRead()

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.AssetHitsTotal)
	assert.Equal(t, int64(1), s.AssetMissesTotal)
	assert.Equal(t, int64(250), s.AssetBytesTotal)
	assert.Equal(t, int64(1), s.ProjectReadsTotal)
}
