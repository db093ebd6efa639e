package monitoring

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTrackFetch_CountsOutcomes(t *testing.T) {
	beforeOK := testutil.ToFloat64(fetchTotal.WithLabelValues("venue", "success"))
	beforeErr := testutil.ToFloat64(fetchTotal.WithLabelValues("venue", "error"))

	TrackFetch("venue", nil, 10*time.Millisecond)
	TrackFetch("venue", errors.New("boom"), 10*time.Millisecond)
	TrackFetch("venue", nil, 10*time.Millisecond)

	assert.Equal(t, beforeOK+2, testutil.ToFloat64(fetchTotal.WithLabelValues("venue", "success")))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(fetchTotal.WithLabelValues("venue", "error")))
}

func TestTrackCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))

	TrackCacheLookup("hit")

	assert.Equal(t, before+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))
}

func TestMonitor_CollectSetsGauge(t *testing.T) {
	db, mock := redismock.NewClientMock()
	m := NewMonitor(db, "snapshot:", time.Minute, discardLogger())

	mock.ExpectKeys("snapshot:*").SetVal([]string{"snapshot:a", "snapshot:b", "snapshot:c"})

	n := m.collect(context.Background())

	assert.Equal(t, 3, n)
	assert.Equal(t, float64(3), testutil.ToFloat64(storedSnapshots))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonitor_CollectError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	m := NewMonitor(db, "snapshot:", time.Minute, discardLogger())

	mock.ExpectKeys("snapshot:*").SetErr(errors.New("down"))

	assert.Equal(t, -1, m.collect(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
