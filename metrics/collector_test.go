package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector("test")

	c.Resolution("hdfs", "FileSystem", ResultOK)
	c.Resolution("hdfs", "FileSystem", ResultOK)
	c.BackendCall("qfs", "stat", nil)
	c.BackendCall("qfs", "stat", errors.New("boom"))
	c.AttributeSync("qfs", ResultAbsent)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ResolutionCounter("hdfs", "FileSystem", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BackendCallCounter("qfs", "stat", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BackendCallCounter("qfs", "stat", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AttributeSyncCounter("qfs", ResultAbsent)))
}

func TestNilCollector(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.Resolution("hdfs", "Path", ResultOK)
		c.BackendCall("hdfs", "open", nil)
		c.AttributeRead("hdfs", "fresh")
		c.ModuleLoad("hdfs", nil)
	})
	assert.Nil(t, c.Registry())
}

func TestHandler(t *testing.T) {
	c := NewCollector("test")
	c.ModuleLoad("hdfs", nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_loader_module_loads_total"))
}
