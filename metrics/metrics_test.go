// Copyright (c) 2025 The Meridian developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func TestNoopByDefault(t *testing.T) {
	assert.IsType(t, &noopMetrics{}, metrics)
	assert.Nil(t, HTTPHandler())

	// meters are safe to use without a backend
	Counter("noop_counter").Add(1)
	Gauge("noop_gauge").Set(7)
}

func TestPrometheusBackend(t *testing.T) {
	InitializePrometheusMetrics()
	assert.IsType(t, &prometheusMetrics{}, metrics)

	Counter("epochs_total").Add(3)
	Gauge("committee_size").Set(11)
	GaugeVec("validator_stake", []string{"status"}).SetWithLabel(100, map[string]string{"status": "active"})
	Histogram("advance_duration_ms", []int64{0, 10, 100}).Observe(5)

	server := httptest.NewServer(HTTPHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(resp.Body)
	require.NoError(t, err)

	counter := families[namespace+"_epochs_total"]
	require.NotNil(t, counter)
	assert.Equal(t, dto.MetricType_COUNTER, counter.GetType())
	assert.Equal(t, float64(3), counter.Metric[0].GetCounter().GetValue())

	gauge := families[namespace+"_committee_size"]
	require.NotNil(t, gauge)
	assert.Equal(t, float64(11), gauge.Metric[0].GetGauge().GetValue())

	stake := families[namespace+"_validator_stake"]
	require.NotNil(t, stake)
	assert.Equal(t, "active", stake.Metric[0].GetLabel()[0].GetValue())
	assert.Equal(t, float64(100), stake.Metric[0].GetGauge().GetValue())

	hist := families[namespace+"_advance_duration_ms"]
	require.NotNil(t, hist)
	assert.Equal(t, uint64(1), hist.Metric[0].GetHistogram().GetSampleCount())
}
