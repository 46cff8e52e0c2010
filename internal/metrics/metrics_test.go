package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.Event("drawing-data")
	c.Event("drawing-data")
	c.Delivered(3)
	c.Dropped("send_buffer_full")
	c.PersistFailure("update_snapshot")
	c.RoomCreated()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.connections))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.events.WithLabelValues("drawing-data")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.deliveries))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dropped.WithLabelValues("send_buffer_full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.persistFailures.WithLabelValues("update_snapshot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.roomsCreated))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RoomCreated()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "whiteboard_rooms_created_total 1"))
}
