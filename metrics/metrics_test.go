package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optqo/optqo/activity"
)

// decodeWriteRequest unpacks a snappy-compressed remote-write body.
func decodeWriteRequest(t *testing.T, r *http.Request) *prompb.WriteRequest {
	t.Helper()

	compressed, err := io.ReadAll(r.Body)
	require.NoError(t, err)

	data, err := snappy.Decode(nil, compressed)
	require.NoError(t, err)

	var req prompb.WriteRequest
	require.NoError(t, proto.Unmarshal(data, &req))
	return &req
}

func TestPushRegistry_CounterPushesSamples(t *testing.T) {
	received := make(chan *prompb.WriteRequest, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/write", r.URL.Path)
		assert.Equal(t, "snappy", r.Header.Get("Content-Encoding"))
		received <- decodeWriteRequest(t, r)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	reg := NewPushRegistry(PushConfig{
		URL:      srv.URL,
		Prefix:   "optqo",
		Job:      "optqo",
		Instance: "testhost",
		Timeout:  2 * time.Second,
	})

	counter, err := reg.NewCounterVec(prometheus.CounterOpts{Name: "pipeline_runs_total"}, []string{"context"})
	require.NoError(t, err)
	counter.With(prometheus.Labels{"context": "general-analyst"}).Inc()

	select {
	case req := <-received:
		require.Len(t, req.Timeseries, 1)
		ts := req.Timeseries[0]

		labels := make(map[string]string, len(ts.Labels))
		for _, l := range ts.Labels {
			labels[l.Name] = l.Value
		}
		assert.Equal(t, "optqo_pipeline_runs_total", labels["__name__"])
		assert.Equal(t, "optqo", labels["job"])
		assert.Equal(t, "testhost", labels["instance"])
		assert.Equal(t, "general-analyst", labels["context"])

		require.Len(t, ts.Samples, 1)
		assert.Equal(t, float64(1), ts.Samples[0].Value)
	case <-time.After(2 * time.Second):
		t.Fatal("no remote-write request received")
	}
}

func TestPushRegistry_CounterAccumulates(t *testing.T) {
	var values []float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeWriteRequest(t, r)
		values = append(values, req.Timeseries[0].Samples[0].Value)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	reg := NewPushRegistry(PushConfig{URL: srv.URL})
	counter, err := reg.NewCounter(prometheus.CounterOpts{Name: "runs"})
	require.NoError(t, err)

	counter.Inc()
	counter.Add(2)

	require.Len(t, values, 2)
	assert.Equal(t, []float64{1, 3}, values)
}

func TestPushCounterVec_SameLabelsSameCounter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	reg := NewPushRegistry(PushConfig{URL: srv.URL})
	vec, err := reg.NewCounterVec(prometheus.CounterOpts{Name: "runs"}, []string{"context"})
	require.NoError(t, err)

	a := vec.With(prometheus.Labels{"context": "x"})
	b := vec.With(prometheus.Labels{"context": "x"})
	assert.Same(t, a, b)

	c := vec.With(prometheus.Labels{"context": "y"})
	assert.NotSame(t, a, c)
}

func TestScrapeRegistry_ExposesPipelineMetrics(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)

	pm, err := NewPipelineMetrics(reg)
	require.NoError(t, err)

	pm.ObserveActivity("analyze", activity.OutcomeSuccess, 120*time.Millisecond)
	pm.ObservePipeline("general-analyst", activity.OutcomeFailure, 1500*time.Millisecond)

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, `activity_runs_total{activity="analyze",outcome="success"} 1`)
	assert.Contains(t, out, `pipeline_runs_total{context="general-analyst",outcome="failure"} 1`)
	assert.Contains(t, out, `pipeline_duration_seconds{context="general-analyst"} 1.5`)
}

func TestScrapeRegistry_DuplicateRegistrationFails(t *testing.T) {
	reg, err := NewScrapeRegistry()
	require.NoError(t, err)

	_, err = reg.NewCounter(prometheus.CounterOpts{Name: "dup"})
	require.NoError(t, err)
	_, err = reg.NewCounter(prometheus.CounterOpts{Name: "dup"})
	require.Error(t, err)
}
