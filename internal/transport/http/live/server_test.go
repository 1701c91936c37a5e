package livehttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/risk"
	"argus/internal/types"
)

type stubPerf struct{}

func (stubPerf) Comprehensive() types.ComprehensivePerformance {
	return types.ComprehensivePerformance{
		Timestamp:      time.Now(),
		TotalDailyPnL:  -1200,
		TotalPositions: 2,
		PortfolioValue: 998_800,
		RiskState:      "SAFE",
	}
}

type stubRisk struct{}

func (stubRisk) CheckPortfolio() risk.Status {
	return risk.Status{State: risk.StateSafe, DailyPnLPct: -0.12}
}

func TestNewServerRequiresPerformanceSource(t *testing.T) {
	_, err := NewServer(":0", nil, stubRisk{})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	srv, err := NewServer(":0", stubPerf{}, stubRisk{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPerformanceEndpoint(t *testing.T) {
	srv, err := NewServer(":0", stubPerf{}, stubRisk{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/live/performance", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var perf types.ComprehensivePerformance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &perf))
	assert.Equal(t, 2, perf.TotalPositions)
	assert.Equal(t, "SAFE", perf.RiskState)
}

func TestRiskEndpoint(t *testing.T) {
	srv, err := NewServer(":0", stubPerf{}, stubRisk{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/live/risk", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var st risk.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, risk.StateSafe, st.State)
}

func TestRiskEndpointWithoutSource(t *testing.T) {
	srv, err := NewServer(":0", stubPerf{}, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/live/risk", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
