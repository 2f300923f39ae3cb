package signal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/permutive/signalbridge/internal/observability"
	"github.com/permutive/signalbridge/internal/store"
)

func collect(t *testing.T, mem *store.Memory, maxSegs int) Bundle {
	t.Helper()
	c := NewCollector(mem, zap.NewNop(), observability.NewMockMetricsRegistry())
	return c.Collect(context.Background(), maxSegs)
}

func TestCollectAuctionCohorts(t *testing.T) {
	tests := []struct {
		name     string
		dcr      string
		standard string
		maxSegs  int
		want     []string
	}{
		{
			name:     "dcr first, standard filtered to platform range",
			dcr:      `["d1","d2"]`,
			standard: `[999999, 1000000, 1234567, "2000001", "small"]`,
			maxSegs:  500,
			want:     []string{"d1", "d2", "1000000", "1234567", "2000001"},
		},
		{
			name:     "capped at maxSegs",
			dcr:      `["d1","d2","d3"]`,
			standard: `[1000001]`,
			maxSegs:  2,
			want:     []string{"d1", "d2"},
		},
		{
			name:     "missing sources yield empty",
			maxSegs:  500,
			want:     nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mem := store.NewMemory()
			if tc.dcr != "" {
				mem.SetString(KeySegmentsDCR, tc.dcr)
			}
			if tc.standard != "" {
				mem.SetString(KeySegmentsStandard, tc.standard)
			}
			b := collect(t, mem, tc.maxSegs)
			assert.Equal(t, tc.want, b.AC)
		})
	}
}

func TestCollectCustomCohortsDedupAcrossSources(t *testing.T) {
	mem := store.NewMemory()
	mem.SetString(KeyCustomCohorts, `["c1","c2"]`)
	mem.SetString(KeyCohortsAppnexus, `["c2","c3"]`)
	mem.SetString(KeyCohortsRubicon, `["c3","c4"]`)
	mem.SetString(KeyCohortsIndex, `["c1"]`)
	mem.SetString(KeyCohortsGAM, `["c5"]`)

	b := collect(t, mem, 500)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, b.CustomCohorts)

	b = collect(t, mem, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, b.CustomCohorts)
}

func TestCollectSSPSignals(t *testing.T) {
	mem := store.NewMemory()
	mem.SetString(KeySSP, `{"cohorts":["s1","s2","s3"],"ssps":["b1","b2","b3","b4"]}`)

	b := collect(t, mem, 2)
	// cohorts are a signal payload and get capped; ssps are a routing
	// key set and never do
	assert.Equal(t, []string{"s1", "s2"}, b.SSP.Cohorts)
	assert.Equal(t, []string{"b1", "b2", "b3", "b4"}, b.SSP.SSPs)
}

func TestCollectTopics(t *testing.T) {
	mem := store.NewMemory()
	mem.SetString(KeyTopics, `{"600":["t1","t2","t3"],"601":["t4"],"602":"oops"}`)

	b := collect(t, mem, 2)
	require.Len(t, b.Topics, 3)
	assert.Equal(t, []string{"t1", "t2"}, b.Topics["600"])
	assert.Equal(t, []string{"t4"}, b.Topics["601"])
	// a malformed version degrades alone
	assert.Empty(t, b.Topics["602"])
}

func TestCollectFaultIsolation(t *testing.T) {
	mem := store.NewMemory()
	mem.SetString(KeySegmentsDCR, `["d1"]`)
	mem.SetString(KeyCustomCohorts, `["c1"]`)
	mem.SetString(KeySSP, `{"cohorts":["s1"],"ssps":["b1"]}`)
	mem.SetString(KeyTopics, `this is not json`)

	metrics := observability.NewMockMetricsRegistry()
	c := NewCollector(mem, zap.NewNop(), metrics)
	b := c.Collect(context.Background(), 500)

	// the malformed topics source defaults to empty while every other
	// class is collected normally
	assert.Empty(t, b.Topics)
	assert.Equal(t, []string{"d1"}, b.AC)
	assert.Equal(t, []string{"c1"}, b.CustomCohorts)
	assert.Equal(t, []string{"s1"}, b.SSP.Cohorts)
	assert.Equal(t, []string{"b1"}, b.SSP.SSPs)
	assert.Equal(t, 1, metrics.SourceFaults[KeyTopics])
}

func TestCollectBundlesAreIndependent(t *testing.T) {
	mem := store.NewMemory()
	mem.SetString(KeyCustomCohorts, `["c1"]`)

	first := collect(t, mem, 500)
	mem.SetString(KeyCustomCohorts, `["c1","c2"]`)
	second := collect(t, mem, 500)

	assert.Equal(t, []string{"c1"}, first.CustomCohorts)
	assert.Equal(t, []string{"c1", "c2"}, second.CustomCohorts)
}
