package metrics

import (
	"bytes"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersAndSummary(t *testing.T) {
	m := New()
	m.CacheHit("feed")
	m.CacheHit("feed")
	m.CacheMiss("item")
	m.Invalidated(3)
	m.GatewayCall("copy_wish", nil)
	m.GatewayCall("copy_wish", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("feed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("item")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CacheInvalidations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("copy_wish", "error")))

	var buf bytes.Buffer
	require.NoError(t, m.WriteSummary(&buf))
	out := buf.String()
	assert.Contains(t, out, "wishboard_cache_hits_total{kind=feed} 2")
	assert.Contains(t, out, "wishboard_gateway_requests_total{op=copy_wish,result=ok} 1")
	assert.NotContains(t, out, "kind=bookmarks")
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.CacheHit("feed")
	m.CacheMiss("feed")
	m.Invalidated(1)
	m.GatewayCall("x", nil)
	assert.NoError(t, m.WriteSummary(&bytes.Buffer{}))
}
