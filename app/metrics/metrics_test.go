package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/v1/pets/:id", "200"))

	RecordHTTPRequest("GET", "/v1/pets/:id", 200, 0.01)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/v1/pets/:id", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordCacheLookups(t *testing.T) {
	hits := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("pet", "hit"))
	misses := testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("pet", "miss"))

	RecordCacheHit("pet")
	RecordCacheMiss("pet")
	RecordCacheMiss("pet")

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("pet", "hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("pet", "miss")))
}

func TestSetComponentUp(t *testing.T) {
	SetComponentUp("database", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(HealthComponentStatus.WithLabelValues("database")))

	SetComponentUp("database", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(HealthComponentStatus.WithLabelValues("database")))
}
